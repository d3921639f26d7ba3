package extract

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

// SizeExtractor pairs a size-header row with its quantity row.
type SizeExtractor struct {
	rules  *Rules
	logger *slog.Logger
}

func NewSizeExtractor(rules *Rules, logger *slog.Logger) *SizeExtractor {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SizeExtractor{rules: rules, logger: logger}
}

// Extract returns the ordered (size, quantity>0) pairs of section and the
// path that produced them.
func (s *SizeExtractor) Extract(section string) ([]entity.SizeQuantity, entity.SizePath) {
	lines := strings.Split(section, "\n")

	for i, line := range lines {
		sizes, hasTotal := s.headerSizes(line)
		if len(sizes) < 2 {
			continue
		}
		for _, next := range lines[i+1:] {
			qty, ok := s.quantityRun(strings.Fields(next))
			if !ok {
				continue
			}
			if hasTotal && len(qty) == len(sizes)+1 {
				qty = qty[:len(sizes)]
			}
			return s.pair(sizes, qty, entity.SizePathPrimary), entity.SizePathPrimary
		}
		break
	}

	var sizes []string
	var qty []int
	for _, line := range lines {
		tokens := strings.Fields(line)
		start, end := s.markerSpan(tokens)
		if start >= 0 {
			qty = append(qty, leadingInts(tokens[end:])...)
			tokens = tokens[:start]
		}
		for _, t := range tokens {
			if s.isSize(t) {
				sizes = append(sizes, trimToken(t))
			}
		}
	}
	if len(sizes) == 0 || len(qty) == 0 {
		return nil, entity.SizePathNone
	}
	s.logger.Info("size/quantity fallback path used", "sizes", len(sizes), "quantities", len(qty))
	return s.pair(sizes, qty, entity.SizePathFallback), entity.SizePathFallback
}

func (s *SizeExtractor) pair(sizes []string, qty []int, path entity.SizePath) []entity.SizeQuantity {
	n := len(sizes)
	if len(qty) != n {
		s.logger.Warn("size/quantity count mismatch, truncating",
			"sizes", len(sizes), "quantities", len(qty), "path", string(path))
		n = min(n, len(qty))
	}
	out := make([]entity.SizeQuantity, 0, n)
	for i := 0; i < n; i++ {
		if qty[i] <= 0 {
			continue
		}
		out = append(out, entity.SizeQuantity{Size: sizes[i], Quantity: qty[i]})
	}
	return out
}

// headerSizes returns the size tokens of line and whether a total label
// follows the last of them.
func (s *SizeExtractor) headerSizes(line string) ([]string, bool) {
	var sizes []string
	hasTotal := false
	for _, t := range strings.Fields(line) {
		if s.isSize(t) {
			sizes = append(sizes, trimToken(t))
			hasTotal = false
			continue
		}
		if _, ok := s.rules.TotalLabels[trimToken(t)]; ok && len(sizes) > 0 {
			hasTotal = true
		}
	}
	return sizes, hasTotal
}

func (s *SizeExtractor) isSize(tok string) bool {
	return s.rules.IsSize(tok)
}

// quantityRun returns the integers that follow a quantity-row marker.
func (s *SizeExtractor) quantityRun(tokens []string) ([]int, bool) {
	start, end := s.markerSpan(tokens)
	if start < 0 {
		return nil, false
	}
	qty := leadingInts(tokens[end:])
	return qty, len(qty) > 0
}

// markerSpan finds the first quantity-row marker in tokens: a configured
// marker phrase, or an uppercase word immediately repeated ("BLACK BLACK").
// It returns the token span [start, end) or -1, -1.
func (s *SizeExtractor) markerSpan(tokens []string) (int, int) {
	for i := range tokens {
		for _, m := range s.rules.QuantityMarkers {
			words := strings.Fields(m)
			if len(words) == 0 || i+len(words) > len(tokens) {
				continue
			}
			match := true
			for k, w := range words {
				if tokens[i+k] != w {
					match = false
					break
				}
			}
			if match {
				return i, i + len(words)
			}
		}
		if i+1 < len(tokens) && tokens[i] == tokens[i+1] && isUpperWord(tokens[i]) {
			end := i + 2
			for end < len(tokens) && tokens[end] == tokens[i] {
				end++
			}
			return i, end
		}
	}
	return -1, -1
}

func leadingInts(tokens []string) []int {
	var out []int
	for _, t := range tokens {
		n, err := strconv.Atoi(trimToken(t))
		if err != nil || n < 0 {
			break
		}
		out = append(out, n)
	}
	return out
}

func isUpperWord(t string) bool {
	if len(t) < 2 {
		return false
	}
	for _, r := range t {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func trimToken(t string) string {
	return strings.Trim(t, ".,;:()[]")
}

package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reCurrency = regexp.MustCompile(`\b(EUR|USD|GBP)\b|[€$£]`)
	reLabels   = regexp.MustCompile(`(?i)\b(style|qty|wholesale|retail|silhouette)\b`)
)

// IsSize reports whether tok is a size token: a two-digit integer in
// [SizeMin, SizeMax] or a configured literal size.
func (r *Rules) IsSize(tok string) bool {
	t := trimToken(tok)
	if _, ok := r.LiteralSizes[t]; ok {
		return true
	}
	if len(t) != 2 {
		return false
	}
	n, err := strconv.Atoi(t)
	if err != nil {
		return false
	}
	return n >= r.SizeMin && n <= r.SizeMax
}

// PageConfidence is a naive 0..1 score of how much a page looks like an
// order page under these rules: product codes, currency, a size header of
// at least three sizes, and field labels.
func (r *Rules) PageConfidence(txt string) float32 {
	if strings.TrimSpace(txt) == "" {
		return 0
	}
	score := float32(0.1)
	if r.Code.MatchString(txt) {
		score += 0.3
	}
	if reCurrency.MatchString(txt) {
		score += 0.15
	}
	if r.hasSizeRun(txt, 3) {
		score += 0.2
	}
	if reLabels.MatchString(txt) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}
	return score
}

func (r *Rules) hasSizeRun(txt string, min int) bool {
	for _, line := range strings.Split(txt, "\n") {
		run := 0
		for _, t := range strings.Fields(line) {
			if !r.IsSize(t) {
				run = 0
				continue
			}
			if run++; run >= min {
				return true
			}
		}
	}
	return false
}

package customcode

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

// Synthesizer derives the canonical cross-document join code of a product variant:
//
//	{year}{season}{batch}{vendor}-{category}{brand}{saleType}{line}{subCategory}-{item}{size}
type Synthesizer struct {
	t Tables
}

func NewSynthesizer(t Tables) *Synthesizer {
	if t.Sentinel == "" {
		t.Sentinel = "XX"
	}
	if t.DefaultSeason == "" {
		t.DefaultSeason = "B"
	}
	return &Synthesizer{t: t}
}

// Synthesize is pure: equal inputs give equal codes, and size only affects the suffix.
func (s *Synthesizer) Synthesize(rec entity.ProductRecord, size string) string {
	var b strings.Builder
	b.WriteString(s.prefix(rec))
	b.WriteByte('-')
	b.WriteString(lookup(s.t.Categories, rec.Category, s.t.Sentinel))
	b.WriteString(lookup(s.t.Brands, rec.Brand, s.t.Sentinel))
	b.WriteString(s.t.SaleType)
	b.WriteString(s.t.Line)
	b.WriteString(s.t.SubCategory)
	b.WriteByte('-')
	b.WriteString(s.item(rec.ProductCode))
	b.WriteString(strings.TrimSpace(size))
	return b.String()
}

func (s *Synthesizer) prefix(rec entity.ProductRecord) string {
	for _, o := range s.t.ProductOverrides {
		if strings.EqualFold(o.ProductCode, rec.ProductCode) && strings.EqualFold(o.Color, rec.Color) {
			return o.Prefix
		}
	}
	return year(rec.Style) + s.season(rec.Color) + s.t.Batch + s.t.Vendor
}

func year(style string) string {
	style = strings.TrimSpace(style)
	if len(style) < 2 {
		return "00"
	}
	return style[len(style)-2:]
}

func (s *Synthesizer) season(color string) string {
	for _, o := range s.t.SeasonOverrides {
		if strings.EqualFold(o.Color, color) {
			return o.Season
		}
	}
	color = strings.TrimSpace(color)
	if color == "" {
		return s.t.DefaultSeason
	}
	r, _ := utf8.DecodeRuneInString(color)
	return string(unicode.ToUpper(r))
}

func (s *Synthesizer) item(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "000"
	}
	upper := strings.ToUpper(code)
	for _, p := range s.t.ItemPrefixes {
		if p != "" && strings.HasPrefix(upper, strings.ToUpper(p)) {
			return code[len(p):]
		}
	}
	rest := strings.TrimLeftFunc(code, unicode.IsLetter)
	if rest == "" {
		return "000"
	}
	return rest
}

func lookup(table []Mapping, text, sentinel string) string {
	if text == "" {
		return sentinel
	}
	lower := strings.ToLower(text)
	for _, m := range table {
		if m.Phrase != "" && strings.Contains(lower, strings.ToLower(m.Phrase)) {
			return m.Code
		}
	}
	return sentinel
}

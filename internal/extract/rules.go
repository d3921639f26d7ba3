package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Field names used in rule tables, reconciliation and export.
const (
	FieldProductCode    = "product_code"
	FieldStyle          = "style"
	FieldColor          = "color"
	FieldBrand          = "brand"
	FieldSeason         = "season"
	FieldWholesalePrice = "wholesale_price"
	FieldRetailPrice    = "retail_price"
	FieldCategory       = "category"
	FieldOrigin         = "origin"
)

// RulesConfig is the plain-data form of the extraction rules. Every variant
// of the order-sheet layout is expressed here rather than in code.
type RulesConfig struct {
	ProductCodePattern string   `json:"product_code_pattern"`
	NoiseGlyphs        []string `json:"noise_glyphs"`

	// StyleHashFallback also accepts a bare "#<token>" when no "Style" label is found.
	StyleHashFallback bool     `json:"style_hash_fallback"`
	Colors            []string `json:"colors"` // priority order
	Brands            []string `json:"brands"`
	SeasonPattern     string   `json:"season_pattern"`
	Currencies        []string `json:"currencies"`
	OriginStopLabels  []string `json:"origin_stop_labels"`

	SizeMin         int      `json:"size_min"`
	SizeMax         int      `json:"size_max"`
	LiteralSizes    []string `json:"literal_sizes"`
	QuantityMarkers []string `json:"quantity_markers"`
	TotalLabels     []string `json:"total_labels"`
}

// DefaultRulesConfig returns the apparel order-sheet rules.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		ProductCodePattern: `\b[A-Z]{1,3}\d{3,5}\b`,
		NoiseGlyphs:        []string{"«", "»", "—", "–", "о", "¦", "|", "~", "®", "©", "™", "•", "¬"},
		StyleHashFallback:  false,
		Colors: []string{
			"BLACK LEATHER", "BLACK POLIDO", "BLACK SUEDE", "BROWN LEATHER", "WHITE LEATHER",
			"BLACK", "WHITE", "BROWN", "NAVY", "BEIGE", "GREY", "GRAY", "RED", "GREEN", "BLUE", "IVORY", "SILVER",
		},
		Brands:           []string{"TOGA VIRILIS", "TOGA PULLA", "TOGA ARCHIVES", "TOGA"},
		SeasonPattern:    `\d{4}[A-Z]{2}[A-Z0-9]*`,
		Currencies:       []string{"EUR", "€"},
		OriginStopLabels: []string{"Colors", "Colour", "Qty", "Style", "Wholesale", "Sugg.", "Suggested", "Silhouette", "Sizes", "Size"},
		SizeMin:          30,
		SizeMax:          49,
		TotalLabels:      []string{"Qty", "QTY", "Total", "TOTAL"},
	}
}

// FieldRule populates one or more record fields from the first pattern that
// matches. Patterns are tried in order; Groups[i] is the capture group that
// feeds Fields[i]. Multi-field rules set all fields or none.
type FieldRule struct {
	Fields   []string
	Patterns []*regexp.Regexp
	Groups   []int
	Post     func(string) string
}

// Rules is the compiled form of RulesConfig.
type Rules struct {
	Code        *regexp.Regexp
	NoiseGlyphs []string
	Fields      []FieldRule

	SizeMin         int
	SizeMax         int
	LiteralSizes    map[string]struct{}
	QuantityMarkers []string
	TotalLabels     map[string]struct{}
}

// MustCompile is Compile for known-good configs (defaults, tests).
func MustCompile(cfg RulesConfig) *Rules {
	r, err := Compile(cfg)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRules compiles DefaultRulesConfig.
func DefaultRules() *Rules {
	return MustCompile(DefaultRulesConfig())
}

// Compile validates cfg and builds the field rule table.
func Compile(cfg RulesConfig) (*Rules, error) {
	code, err := regexp.Compile(cfg.ProductCodePattern)
	if err != nil {
		return nil, fmt.Errorf("product_code_pattern: %w", err)
	}
	if cfg.SizeMin <= 0 || cfg.SizeMax < cfg.SizeMin {
		return nil, fmt.Errorf("size range [%d,%d] is invalid", cfg.SizeMin, cfg.SizeMax)
	}
	season := cfg.SeasonPattern
	if season == "" {
		season = DefaultRulesConfig().SeasonPattern
	}
	if _, err := regexp.Compile(season); err != nil {
		return nil, fmt.Errorf("season_pattern: %w", err)
	}
	currencies := cfg.Currencies
	if len(currencies) == 0 {
		currencies = []string{"EUR"}
	}
	cur := alternation(currencies)

	r := &Rules{
		Code:            code,
		NoiseGlyphs:     cfg.NoiseGlyphs,
		SizeMin:         cfg.SizeMin,
		SizeMax:         cfg.SizeMax,
		LiteralSizes:    toSet(cfg.LiteralSizes),
		QuantityMarkers: cfg.QuantityMarkers,
		TotalLabels:     toSet(cfg.TotalLabels),
	}

	r.Fields = append(r.Fields, FieldRule{
		Fields: []string{FieldProductCode}, Patterns: []*regexp.Regexp{code}, Groups: []int{0},
	})

	style := []*regexp.Regexp{regexp.MustCompile(`Style\s*#?(\w+)`)}
	if cfg.StyleHashFallback {
		style = append(style, regexp.MustCompile(`#\s*(\w+)`))
	}
	r.Fields = append(r.Fields, FieldRule{Fields: []string{FieldStyle}, Patterns: style, Groups: []int{1}})

	var colors []*regexp.Regexp
	for _, c := range cfg.Colors {
		colors = append(colors, regexp.MustCompile(`\b`+phrase(c)+`\b`))
	}
	if len(colors) > 0 {
		r.Fields = append(r.Fields, FieldRule{
			Fields: []string{FieldColor}, Patterns: colors, Groups: []int{0}, Post: collapseSpaces,
		})
	}

	if len(cfg.Brands) > 0 {
		brands := append([]string(nil), cfg.Brands...)
		// longest first so "TOGA VIRILIS" wins over "TOGA" at the same offset
		sort.SliceStable(brands, func(i, j int) bool { return len(brands[i]) > len(brands[j]) })
		re, err := regexp.Compile(`(?s)(` + alternation(brands) + `).*?\b(` + season + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("brand/season rule: %w", err)
		}
		r.Fields = append(r.Fields, FieldRule{
			Fields: []string{FieldBrand, FieldSeason}, Patterns: []*regexp.Regexp{re}, Groups: []int{1, 2},
		})
	}

	price := `[^\n0-9]*?(?:` + cur + `)\s*(\d+(?:[.,]\d{1,2})?)`
	r.Fields = append(r.Fields,
		FieldRule{
			Fields:   []string{FieldWholesalePrice},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`Wholesale` + price)},
			Groups:   []int{1},
			Post:     decimalPoint,
		},
		FieldRule{
			Fields:   []string{FieldRetailPrice},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`(?:Sugg\.|Suggested)\s*Retail` + price)},
			Groups:   []int{1},
			Post:     decimalPoint,
		},
		FieldRule{
			Fields:   []string{FieldCategory},
			Patterns: []*regexp.Regexp{regexp.MustCompile(`Silhouette:[ \t]*(.*?)[ \t]*(?:\bCountry\b|\n|$)`)},
			Groups:   []int{1},
			Post:     trimLabelValue,
		},
	)

	origin := `Country of Origin:[ \t]*(.*?)[ \t]*(?:\n|$`
	if len(cfg.OriginStopLabels) > 0 {
		origin += `|\b(?:` + alternation(cfg.OriginStopLabels) + `)`
	}
	origin += `)`
	re, err := regexp.Compile(origin)
	if err != nil {
		return nil, fmt.Errorf("origin rule: %w", err)
	}
	r.Fields = append(r.Fields, FieldRule{
		Fields: []string{FieldOrigin}, Patterns: []*regexp.Regexp{re}, Groups: []int{1}, Post: trimLabelValue,
	})
	return r, nil
}

func alternation(words []string) string {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(w))
	}
	return strings.Join(quoted, "|")
}

// phrase quotes a multi-word phrase allowing any run of spaces between words.
func phrase(p string) string {
	parts := strings.Fields(p)
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	return strings.Join(parts, `[ \t]+`)
}

func toSet(xs []string) map[string]struct{} {
	m := make(map[string]struct{}, len(xs))
	for _, x := range xs {
		m[x] = struct{}{}
	}
	return m
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func decimalPoint(s string) string {
	return strings.ReplaceAll(s, ",", ".")
}

func trimLabelValue(s string) string {
	return strings.Trim(collapseSpaces(s), " :;,.-")
}

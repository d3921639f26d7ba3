package customcode

// Mapping maps a free-text phrase onto a two-letter code.
type Mapping struct {
	Phrase string `json:"phrase"`
	Code   string `json:"code"`
}

// SeasonOverride forces the season letter for a color phrase.
type SeasonOverride struct {
	Color  string `json:"color"`
	Season string `json:"season"`
}

// ProductOverride replaces the whole first segment
// ({year}{season}{batch}{vendor}) for one product/color combination.
type ProductOverride struct {
	ProductCode string `json:"product_code"`
	Color       string `json:"color"`
	Prefix      string `json:"prefix"`
}

// Tables holds the per-deployment constants and lookup tables.
type Tables struct {
	Batch         string `json:"batch"`
	Vendor        string `json:"vendor"`
	SaleType      string `json:"sale_type"`
	Line          string `json:"line"`
	SubCategory   string `json:"sub_category"`
	DefaultSeason string `json:"default_season"`
	Sentinel      string `json:"sentinel"`

	Brands           []Mapping         `json:"brands"`     // checked in order
	Categories       []Mapping         `json:"categories"` // checked in order
	SeasonOverrides  []SeasonOverride  `json:"season_overrides"`
	ProductOverrides []ProductOverride `json:"product_overrides"`
	ItemPrefixes     []string          `json:"item_prefixes"`
}

func DefaultTables() Tables {
	return Tables{
		Batch:         "1",
		Vendor:        "TG",
		SaleType:      "W",
		Line:          "M",
		SubCategory:   "01",
		DefaultSeason: "B",
		Sentinel:      "XX",
		Brands: []Mapping{
			{Phrase: "TOGA VIRILIS", Code: "TV"},
			{Phrase: "TOGA PULLA", Code: "TP"},
			{Phrase: "TOGA ARCHIVES", Code: "TA"},
			{Phrase: "TOGA", Code: "TG"},
		},
		Categories: []Mapping{
			{Phrase: "Shoes", Code: "SH"},
			{Phrase: "Boots", Code: "BT"},
			{Phrase: "Sneakers", Code: "SN"},
			{Phrase: "Sandals", Code: "SD"},
			{Phrase: "Bag", Code: "BG"},
			{Phrase: "Belt", Code: "BL"},
		},
		SeasonOverrides: []SeasonOverride{
			{Color: "BLACK POLIDO", Season: "P"},
		},
		ProductOverrides: []ProductOverride{
			{ProductCode: "AJ826", Color: "BLACK POLIDO", Prefix: "24PP1TG"},
		},
		ItemPrefixes: []string{"AJ"},
	}
}

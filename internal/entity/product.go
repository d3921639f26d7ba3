package entity

// ProductSection is a span of the cleaned document text that starts at a
// product-code match. Start/End are byte offsets into that text.
type ProductSection struct {
	Code  string
	Start int
	End   int
	Text  string
}

// ProductRecord is the structured form of one product section.
// Unmatched fields are empty strings, never absent.
type ProductRecord struct {
	ProductCode    string `json:"product_code"`
	Style          string `json:"style"`
	Color          string `json:"color"`
	Brand          string `json:"brand"`
	Season         string `json:"season"`
	WholesalePrice string `json:"wholesale_price"`
	RetailPrice    string `json:"retail_price"`
	Category       string `json:"category"`
	Origin         string `json:"origin"`
}

// Usable reports whether the record can be joined downstream.
func (r ProductRecord) Usable() bool {
	return r.ProductCode != ""
}

// SizeQuantity is one ordered size. Quantity is always > 0.
type SizeQuantity struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

// SizePath tells which size/quantity strategy produced the pairs.
type SizePath string

const (
	SizePathPrimary  SizePath = "primary"
	SizePathFallback SizePath = "fallback"
	SizePathNone     SizePath = "none"
)

// ExtractedItem is the atomic output of document assembly.
type ExtractedItem struct {
	Record     ProductRecord `json:"record"`
	Size       SizeQuantity  `json:"size"`
	CustomCode string        `json:"custom_code"`
	SizePath   SizePath      `json:"size_path"`
	Page       int           `json:"page"`
}

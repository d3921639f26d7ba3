package entity

// RawPage is one rasterized page image inside a per-invocation work dir.
// Index is zero-based in document order.
type RawPage struct {
	Index int
	Path  string
}

// PageText holds the OCR output of one page. General and Tabular are
// produced by different recognition modes and are never merged.
type PageText struct {
	Index      int
	General    string
	Tabular    string
	Confidence float32
}

// Empty reports whether recognition produced no text in any mode.
func (p PageText) Empty() bool {
	return p.General == "" && p.Tabular == ""
}

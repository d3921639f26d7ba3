package reconcile

import (
	"log/slog"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

type Config struct {
	Threshold          float64 // field similarity below this is a discrepancy
	ExistenceWeight    float64
	DetailWeight       float64
	BestMatchThreshold float64 // minimum existence rate for a detailed best-match pass
	Fields             []string
}

func DefaultConfig() Config {
	return Config{
		Threshold:          90,
		ExistenceWeight:    0.7,
		DetailWeight:       0.3,
		BestMatchThreshold: 40,
		Fields:             DefaultFields,
	}
}

// Engine compares two extraction results.
type Engine struct {
	cfg    Config
	fields []string
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fields, err := resolveFields(cfg.Fields)
	if err != nil {
		return nil, err
	}
	if cfg.ExistenceWeight == 0 && cfg.DetailWeight == 0 {
		cfg.ExistenceWeight, cfg.DetailWeight = 0.7, 0.3
	}
	return &Engine{cfg: cfg, fields: fields, logger: logger}, nil
}

// NormalizeCode upper-cases a product code and removes all whitespace.
func NormalizeCode(code string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, code)
}

// NormalizeSize trims a size label.
func NormalizeSize(size string) string {
	return strings.TrimSpace(size)
}

// product groups one document's items by normalized size, in first-seen order.
type product struct {
	sizes []string
	items map[string]entity.ExtractedItem
}

type index struct {
	codes    []string
	products map[string]*product
}

func buildIndex(items []entity.ExtractedItem) index {
	idx := index{products: map[string]*product{}}
	for _, it := range items {
		code := NormalizeCode(it.Record.ProductCode)
		if code == "" {
			continue
		}
		p, ok := idx.products[code]
		if !ok {
			p = &product{items: map[string]entity.ExtractedItem{}}
			idx.products[code] = p
			idx.codes = append(idx.codes, code)
		}
		size := NormalizeSize(it.Size.Size)
		if _, dup := p.items[size]; dup {
			continue
		}
		p.items[size] = it
		p.sizes = append(p.sizes, size)
	}
	return idx
}

// ExistenceRate is the Jaccard overlap of the two documents' product codes,
// scaled to 0-100. It is 0 when neither document has products.
func ExistenceRate(doc1, doc2 []entity.ExtractedItem) float64 {
	return existenceRate(buildIndex(doc1), buildIndex(doc2))
}

func existenceRate(a, b index) float64 {
	union := len(a.codes)
	common := 0
	for _, c := range b.codes {
		if _, ok := a.products[c]; ok {
			common++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(common) / float64(union) * 100
}

// Compare reconciles doc1 against doc2.
func (e *Engine) Compare(doc1, doc2 []entity.ExtractedItem) *entity.ComparisonResult {
	a, b := buildIndex(doc1), buildIndex(doc2)
	res := &entity.ComparisonResult{
		Doc1Only:      []entity.DocOnlyEntry{},
		Doc2Only:      []entity.DocOnlyEntry{},
		Matching:      []entity.MatchingEntry{},
		Discrepancies: []entity.Discrepancy{},
	}
	res.ProductExistenceRate = existenceRate(a, b)

	for _, code := range a.codes {
		pa := a.products[code]
		pb, common := b.products[code]
		if !common {
			res.Doc1OnlyProducts++
			res.Doc1Only = appendDocOnly(res.Doc1Only, code, pa, pa.sizes)
			continue
		}
		res.CommonProducts++
		e.compareProduct(res, code, pa, pb)
	}
	for _, code := range b.codes {
		if _, ok := a.products[code]; ok {
			continue
		}
		pb := b.products[code]
		res.Doc2OnlyProducts++
		res.Doc2Only = appendDocOnly(res.Doc2Only, code, pb, pb.sizes)
	}
	res.TotalProducts = res.CommonProducts + res.Doc1OnlyProducts + res.Doc2OnlyProducts

	res.DetailScore = 100
	if n := res.MatchingFieldCount + len(res.Discrepancies); n > 0 {
		res.DetailScore = float64(res.MatchingFieldCount) / float64(n) * 100
	}
	res.MatchRate = clamp(res.ProductExistenceRate*e.cfg.ExistenceWeight+res.DetailScore*e.cfg.DetailWeight, 0, 100)

	e.logger.Debug("reconcile.compare.done",
		"match_rate", res.MatchRate,
		"existence_rate", res.ProductExistenceRate,
		"detail_score", res.DetailScore,
		"common_products", res.CommonProducts,
		"discrepancies", len(res.Discrepancies),
	)
	return res
}

func (e *Engine) compareProduct(res *entity.ComparisonResult, code string, pa, pb *product) {
	var onlyA []string
	for _, size := range pa.sizes {
		ia := pa.items[size]
		ib, ok := pb.items[size]
		if !ok {
			onlyA = append(onlyA, size)
			continue
		}
		clean := true
		for _, f := range e.fields {
			get := fieldGetters[f]
			v1, v2 := get(ia), get(ib)
			sim := Similarity(v1, v2)
			if sim < e.cfg.Threshold {
				clean = false
				res.Discrepancies = append(res.Discrepancies, entity.Discrepancy{
					ProductCode: code,
					Size:        size,
					Field:       f,
					Doc1Value:   v1,
					Doc2Value:   v2,
					Similarity:  sim,
				})
				continue
			}
			res.MatchingFieldCount++
		}
		if clean {
			res.Matching = append(res.Matching, entity.MatchingEntry{ProductCode: code, Size: size})
		}
	}
	res.Doc1Only = appendDocOnly(res.Doc1Only, code, pa, onlyA)

	var onlyB []string
	for _, size := range pb.sizes {
		if _, ok := pa.items[size]; !ok {
			onlyB = append(onlyB, size)
		}
	}
	res.Doc2Only = appendDocOnly(res.Doc2Only, code, pb, onlyB)
}

func appendDocOnly(dst []entity.DocOnlyEntry, code string, p *product, sizes []string) []entity.DocOnlyEntry {
	for _, size := range sizes {
		it := p.items[size]
		dst = append(dst, entity.DocOnlyEntry{
			ProductCode: code,
			Size:        size,
			Color:       it.Record.Color,
			Quantity:    it.Size.Quantity,
		})
	}
	return dst
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package extract_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/extract"
)

const ajSection = "AJ1323 - BLACK LEATHER\n" +
	"Style #FTVRM132309009 | TOGA VIRILIS - 2024SSMAN\n" +
	"Wholesale: EUR 220.00 Sugg. Retail: EUR 550.00\n" +
	"Silhouette: General Shoes\n" +
	"Country of Origin: PORTUGAL\n" +
	"Colors 39 40 41 42 43 44 45 46 Qty\n" +
	"BLACK BLACK 1 1 2 2 1 0 0 0 7"

func TestFieldExtractor_CleanSection(t *testing.T) {
	fx := extract.NewFieldExtractor(extract.DefaultRules())

	got := fx.Extract(ajSection)

	assert.Equal(t, entity.ProductRecord{
		ProductCode:    "AJ1323",
		Style:          "FTVRM132309009",
		Color:          "BLACK LEATHER",
		Brand:          "TOGA VIRILIS",
		Season:         "2024SSMAN",
		WholesalePrice: "220.00",
		RetailPrice:    "550.00",
		Category:       "General Shoes",
		Origin:         "PORTUGAL",
	}, got)
}

func TestFieldExtractor_Idempotent(t *testing.T) {
	fx := extract.NewFieldExtractor(nil)
	assert.Equal(t, fx.Extract(ajSection), fx.Extract(ajSection))
}

func TestFieldExtractor_FieldsAreIndependent(t *testing.T) {
	fx := extract.NewFieldExtractor(nil)

	got := fx.Extract("AJ826 BLACK POLIDO\nWholesale EUR 180,5\nCountry of Origin: ITALY Colors 40 41")

	assert.Equal(t, "AJ826", got.ProductCode)
	assert.Equal(t, "BLACK POLIDO", got.Color)
	assert.Equal(t, "180.5", got.WholesalePrice)
	assert.Equal(t, "ITALY", got.Origin)
	assert.Empty(t, got.Style)
	assert.Empty(t, got.RetailPrice)
	assert.Empty(t, got.Category)
}

func TestFieldExtractor_BrandSeasonAllOrNothing(t *testing.T) {
	fx := extract.NewFieldExtractor(nil)

	got := fx.Extract("AJ1323 TOGA PULLA without a season token")
	assert.Empty(t, got.Brand)
	assert.Empty(t, got.Season)

	got = fx.Extract("AJ1323 TOGA - 2023FWW")
	assert.Equal(t, "TOGA", got.Brand)
	assert.Equal(t, "2023FWW", got.Season)
}

func TestFieldExtractor_StyleHashFallback(t *testing.T) {
	section := "AJ1323 BLACK #FTV99"

	off := extract.NewFieldExtractor(extract.DefaultRules())
	assert.Empty(t, off.Extract(section).Style)

	cfg := extract.DefaultRulesConfig()
	cfg.StyleHashFallback = true
	on := extract.NewFieldExtractor(extract.MustCompile(cfg))
	assert.Equal(t, "FTV99", on.Extract(section).Style)
}

func TestCompile_Errors(t *testing.T) {
	cfg := extract.DefaultRulesConfig()
	cfg.ProductCodePattern = "("
	_, err := extract.Compile(cfg)
	require.Error(t, err)

	cfg = extract.DefaultRulesConfig()
	cfg.SizeMin, cfg.SizeMax = 50, 40
	_, err = extract.Compile(cfg)
	require.Error(t, err)
}

func TestSizeExtractor_PrimaryDropsZeroAndTotal(t *testing.T) {
	sx := extract.NewSizeExtractor(nil, nil)

	pairs, path := sx.Extract(ajSection)

	assert.Equal(t, entity.SizePathPrimary, path)
	assert.Equal(t, []entity.SizeQuantity{
		{Size: "39", Quantity: 1},
		{Size: "40", Quantity: 1},
		{Size: "41", Quantity: 2},
		{Size: "42", Quantity: 2},
		{Size: "43", Quantity: 1},
	}, pairs)
}

func TestSizeExtractor_TruncatesShortRow(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sx := extract.NewSizeExtractor(nil, logger)

	pairs, path := sx.Extract("Colors 39 40 41 42\nNAVY NAVY 3 4")

	assert.Equal(t, entity.SizePathPrimary, path)
	assert.Equal(t, []entity.SizeQuantity{{Size: "39", Quantity: 3}, {Size: "40", Quantity: 4}}, pairs)
	assert.Contains(t, buf.String(), "mismatch")
}

func TestSizeExtractor_Fallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	sx := extract.NewSizeExtractor(nil, logger)

	pairs, path := sx.Extract("AJ1 sizes 36 37 38 WHITE WHITE 2 0 5")

	assert.Equal(t, entity.SizePathFallback, path)
	assert.Equal(t, []entity.SizeQuantity{{Size: "36", Quantity: 2}, {Size: "38", Quantity: 5}}, pairs)
	assert.Contains(t, buf.String(), "fallback")
}

func TestSizeExtractor_ConfiguredMarkerAndLiteralSizes(t *testing.T) {
	cfg := extract.DefaultRulesConfig()
	cfg.LiteralSizes = []string{"S", "M", "L"}
	cfg.QuantityMarkers = []string{"Units:"}
	sx := extract.NewSizeExtractor(extract.MustCompile(cfg), nil)

	pairs, path := sx.Extract("Size S M L\nUnits: 4 0 1")

	assert.Equal(t, entity.SizePathPrimary, path)
	assert.Equal(t, []entity.SizeQuantity{{Size: "S", Quantity: 4}, {Size: "L", Quantity: 1}}, pairs)
}

func TestSizeExtractor_None(t *testing.T) {
	sx := extract.NewSizeExtractor(nil, nil)
	pairs, path := sx.Extract("AJ1323 nothing tabular here")
	assert.Empty(t, pairs)
	assert.Equal(t, entity.SizePathNone, path)
}

func TestSizeExtractor_QuantitiesPositiveAndOrdered(t *testing.T) {
	sx := extract.NewSizeExtractor(nil, nil)
	sections := []string{
		ajSection,
		"Colors 46 45 44\nRED RED 0 9 1",
		"Colors 30 31 32 33 Qty\nBLUE BLUE 5 5 5 5 20",
		"41 42\nno marker line\n43 GREY GREY 1 2 3",
	}
	for _, sec := range sections {
		pairs, _ := sx.Extract(sec)
		last := -1
		for _, p := range pairs {
			assert.Positive(t, p.Quantity)
			idx := strings.Index(sec, p.Size)
			require.GreaterOrEqual(t, idx, 0)
			assert.Greater(t, idx, last, "sizes out of source order in %q", sec)
			last = idx
		}
	}
}

func TestRules_PageConfidence(t *testing.T) {
	r := extract.DefaultRules()
	assert.Equal(t, float32(0), r.PageConfidence(""))
	low := r.PageConfidence("lorem ipsum")
	high := r.PageConfidence("AJ1323 Style #X Wholesale: EUR 220.00\nColors 39 40 41 42 Qty\nBLACK BLACK 1 1 2 2 6 and more text to pass the length bar for content")
	assert.Less(t, low, float32(0.4))
	assert.GreaterOrEqual(t, high, float32(0.9))
	assert.LessOrEqual(t, high, float32(1))

	cfg := extract.DefaultRulesConfig()
	cfg.SizeMin, cfg.SizeMax = 20, 29
	narrow := extract.MustCompile(cfg)
	sizes := "Colors 21 22 23"
	assert.Greater(t, narrow.PageConfidence(sizes), r.PageConfidence(sizes))
	assert.True(t, narrow.IsSize("25"))
	assert.False(t, narrow.IsSize("35"))
}

package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

// ItemColumns is the fixed column order of item exports.
var ItemColumns = []string{
	"Product_Code", "Style", "Color", "Size", "Quantity", "Wholesale_EUR",
	"Retail_EUR", "Origin", "Category", "Brand", "Season", "Custom_Code",
}

// Service renders extraction and comparison results for spreadsheets and UIs.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ItemsXLSX returns a single-sheet workbook with one row per extracted item.
func (s *Service) ItemsXLSX(items []entity.ExtractedItem) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Items"
	if err := useSheet(f, sheet); err != nil {
		return nil, err
	}
	if err := writeRow(f, sheet, 1, toAny(ItemColumns)); err != nil {
		return nil, err
	}
	for i, it := range items {
		if err := writeRow(f, sheet, i+2, []any{
			it.Record.ProductCode,
			it.Record.Style,
			it.Record.Color,
			it.Size.Size,
			it.Size.Quantity,
			price(it.Record.WholesalePrice),
			price(it.Record.RetailPrice),
			it.Record.Origin,
			it.Record.Category,
			it.Record.Brand,
			it.Record.Season,
			it.CustomCode,
		}); err != nil {
			return nil, err
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 14) // code
	_ = f.SetColWidth(sheet, "B", "C", 22) // style, color
	_ = f.SetColWidth(sheet, "H", "K", 18)
	_ = f.SetColWidth(sheet, "L", "L", 28) // custom code

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.items.ok", "rows", len(items), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// ComparisonXLSX returns a workbook with Summary, Discrepancies, Doc1 only and Doc2 only sheets.
func (s *Service) ComparisonXLSX(res *entity.ComparisonResult) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	if err := useSheet(f, summary); err != nil {
		return nil, err
	}
	rows := [][]any{
		{"Metric", "Value"},
		{"Match rate", round2(res.MatchRate)},
		{"Product existence rate", round2(res.ProductExistenceRate)},
		{"Detail score", round2(res.DetailScore)},
		{"Total products", res.TotalProducts},
		{"Common products", res.CommonProducts},
		{"Doc1 only products", res.Doc1OnlyProducts},
		{"Doc2 only products", res.Doc2OnlyProducts},
		{"Matching sizes", len(res.Matching)},
		{"Matching fields", res.MatchingFieldCount},
		{"Discrepancies", len(res.Discrepancies)},
	}
	for i, r := range rows {
		if err := writeRow(f, summary, i+1, r); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(summary, "A", "A", 26)

	const disc = "Discrepancies"
	if _, err := f.NewSheet(disc); err != nil {
		return nil, err
	}
	if err := writeRow(f, disc, 1, []any{"Product_Code", "Size", "Field", "Doc1", "Doc2", "Similarity"}); err != nil {
		return nil, err
	}
	for i, d := range res.Discrepancies {
		if err := writeRow(f, disc, i+2, []any{d.ProductCode, d.Size, d.Field, d.Doc1Value, d.Doc2Value, round2(d.Similarity)}); err != nil {
			return nil, err
		}
	}

	for _, side := range []struct {
		name    string
		entries []entity.DocOnlyEntry
	}{{"Doc1 only", res.Doc1Only}, {"Doc2 only", res.Doc2Only}} {
		if _, err := f.NewSheet(side.name); err != nil {
			return nil, err
		}
		if err := writeRow(f, side.name, 1, []any{"Product_Code", "Size", "Color", "Quantity"}); err != nil {
			return nil, err
		}
		for i, e := range side.entries {
			if err := writeRow(f, side.name, i+2, []any{e.ProductCode, e.Size, e.Color, e.Quantity}); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.comparison.ok",
		"discrepancies", len(res.Discrepancies),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ComparisonJSON renders res as indented JSON.
func (s *Service) ComparisonJSON(res *entity.ComparisonResult) ([]byte, error) {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json encode: %w", err)
	}
	return b, nil
}

// useSheet renames the default sheet to name and makes it active.
func useSheet(f *excelize.File, name string) error {
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("%s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// price writes parseable decimals as numbers and anything else verbatim.
func price(s string) any {
	if s == "" {
		return ""
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

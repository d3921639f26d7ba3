package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/tradedocs/internal/customcode"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/extract"
	"github.com/joseph-ayodele/tradedocs/internal/ocr"
)

// Rasterizer renders a PDF into page images under workDir.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath, workDir string) ([]entity.RawPage, error)
}

// Recognizer OCRs one page in the requested modes. It never fails; a bad
// page comes back with empty text.
type Recognizer interface {
	RecognizePage(ctx context.Context, page entity.RawPage, modes []ocr.Mode) entity.PageText
}

type Config struct {
	Modes             []ocr.Mode
	Workers           int     // concurrent page OCR; <=1 is serial
	TempRoot          string  // parent of per-invocation work dirs; "" = os.TempDir()
	MinPageConfidence float32 // pages below this flag the result for review
}

// Assembler turns one PDF into its ordered list of extracted items.
type Assembler struct {
	cfg    Config
	raster Rasterizer
	recog  Recognizer
	rules  *extract.Rules
	fields *extract.FieldExtractor
	sizes  *extract.SizeExtractor
	codes  *customcode.Synthesizer
	logger *slog.Logger
}

func NewAssembler(cfg Config, raster Rasterizer, recog Recognizer, rules *extract.Rules, codes *customcode.Synthesizer, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if rules == nil {
		rules = extract.DefaultRules()
	}
	if codes == nil {
		codes = customcode.NewSynthesizer(customcode.DefaultTables())
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = []ocr.Mode{ocr.ModeGeneral}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Assembler{
		cfg:    cfg,
		raster: raster,
		recog:  recog,
		rules:  rules,
		fields: extract.NewFieldExtractor(rules),
		sizes:  extract.NewSizeExtractor(rules, logger),
		codes:  codes,
		logger: logger,
	}
}

// Assemble extracts every product of the PDF at pdfPath. Only a conversion
// failure or cancellation returns an error; an empty item list is a normal result.
func (a *Assembler) Assemble(ctx context.Context, pdfPath string) (*entity.ExtractionResult, error) {
	workDir, err := os.MkdirTemp(a.cfg.TempRoot, "tradedocs-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)
	return a.assemble(ctx, pdfPath, workDir)
}

// AssembleBytes is Assemble for an in-memory PDF (uploads).
func (a *Assembler) AssembleBytes(ctx context.Context, name string, pdf []byte) (*entity.ExtractionResult, error) {
	workDir, err := os.MkdirTemp(a.cfg.TempRoot, "tradedocs-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	path := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	res, err := a.assemble(ctx, path, workDir)
	if res != nil {
		res.SourcePath = name
	}
	return res, err
}

func (a *Assembler) assemble(ctx context.Context, pdfPath, workDir string) (*entity.ExtractionResult, error) {
	start := time.Now()
	log := a.logger.With("path", pdfPath)

	pages, err := a.raster.Rasterize(ctx, pdfPath, workDir)
	if err != nil {
		log.Error("assembler.rasterize.failed", "err", err)
		return nil, err
	}

	texts, err := a.recognizeAll(ctx, pages)
	if err != nil {
		log.Warn("assembler.cancelled", "err", err)
		return nil, err
	}

	res := a.Extract(texts)
	res.SourcePath = pdfPath
	res.Duration = time.Since(start)
	log.Info("assembler.done",
		"pages", res.Pages,
		"failed_pages", res.FailedPages,
		"sections", res.Sections,
		"items", len(res.Items),
		"needs_review", res.NeedsReview,
		"duration", res.Duration,
	)
	return res, nil
}

// recognizeAll OCRs pages on up to Workers goroutines. Cancellation is
// honoured between pages: a started page runs to completion (bounded by the
// recognizer's page timeout) and the partial result is then dropped.
func (a *Assembler) recognizeAll(ctx context.Context, pages []entity.RawPage) ([]entity.PageText, error) {
	texts := make([]entity.PageText, len(pages))
	pageCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(a.cfg.Workers)
	for i, page := range pages {
		i, page := i, page
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pt := a.recog.RecognizePage(pageCtx, page, a.cfg.Modes)
			best := pt.General
			if best == "" {
				best = pt.Tabular
			}
			pt.Confidence = a.rules.PageConfidence(best)
			a.logger.Debug("assembler.page.recognized", "page", pt.Index, "confidence", pt.Confidence)
			texts[i] = pt
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

// Extract runs cleaning, segmentation, field/size extraction and code
// synthesis over already-recognized pages, in page order.
func (a *Assembler) Extract(texts []entity.PageText) *entity.ExtractionResult {
	res := &entity.ExtractionResult{Pages: len(texts)}

	general := make([]string, len(texts))
	tabular := make([]string, len(texts))
	for i, pt := range texts {
		if pt.Empty() {
			res.FailedPages++
			a.logger.Warn("assembler.page.empty", "page", pt.Index)
		} else if a.cfg.MinPageConfidence > 0 && pt.Confidence < a.cfg.MinPageConfidence {
			res.NeedsReview = true
			a.logger.Info("assembler.page.low_confidence", "page", pt.Index, "confidence", pt.Confidence)
		}
		general[i] = extract.Clean(pt.General, a.rules.NoiseGlyphs)
		tabular[i] = extract.Clean(pt.Tabular, a.rules.NoiseGlyphs)
		if general[i] == "" {
			// tabular-only pages are segmented from their tabular text
			general[i] = tabular[i]
		}
	}

	doc, offsets := joinPages(general)
	sections := extract.Segment(a.rules.Code, doc)
	res.Sections = len(sections)

	tab, _ := joinPages(tabular)
	tabByCode := map[string][]entity.ProductSection{}
	for _, s := range extract.Segment(a.rules.Code, tab) {
		tabByCode[s.Code] = append(tabByCode[s.Code], s)
	}

	for _, sec := range sections {
		var tabText string
		if q := tabByCode[sec.Code]; len(q) > 0 {
			tabText, tabByCode[sec.Code] = q[0].Text, q[1:]
		}
		items := a.extractSection(sec, tabText, pageOf(offsets, general, texts, sec.Start))
		for _, it := range items {
			if it.SizePath == entity.SizePathFallback {
				res.NeedsReview = true
			}
		}
		res.Items = append(res.Items, items...)
	}
	return res
}

func (a *Assembler) extractSection(sec entity.ProductSection, tabular string, page int) []entity.ExtractedItem {
	rec := a.fields.Extract(sec.Text)
	if !rec.Usable() {
		return nil
	}

	pairs, path := a.sectionSizes(tabular, sec.Text)
	if path == entity.SizePathFallback {
		a.logger.Info("assembler.sizes.fallback", "product_code", rec.ProductCode, "page", page)
	}
	if len(pairs) == 0 {
		a.logger.Info("assembler.section.no_sizes", "product_code", rec.ProductCode, "page", page)
		return nil
	}

	items := make([]entity.ExtractedItem, 0, len(pairs))
	for _, p := range pairs {
		items = append(items, entity.ExtractedItem{
			Record:     rec,
			Size:       p,
			CustomCode: a.codes.Synthesize(rec, p.Size),
			SizePath:   path,
			Page:       page,
		})
	}
	return items
}

// sectionSizes extracts sizes from both the tabular and the general text of a
// section. A primary result wins over a fallback one; on equal paths the
// tabular text is preferred.
func (a *Assembler) sectionSizes(tabular, general string) ([]entity.SizeQuantity, entity.SizePath) {
	var tabPairs []entity.SizeQuantity
	tabPath := entity.SizePathNone
	if tabular != "" && tabular != general {
		tabPairs, tabPath = a.sizes.Extract(tabular)
	}
	if tabPath == entity.SizePathPrimary {
		return tabPairs, tabPath
	}
	genPairs, genPath := a.sizes.Extract(general)
	if genPath == entity.SizePathPrimary || tabPath == entity.SizePathNone {
		return genPairs, genPath
	}
	return tabPairs, tabPath
}

// joinPages concatenates non-empty page texts with newlines and returns the
// start offset of every page in the result.
func joinPages(pages []string) (string, []int) {
	var b strings.Builder
	offsets := make([]int, len(pages))
	for i, p := range pages {
		if p != "" && b.Len() > 0 {
			b.WriteByte('\n')
		}
		offsets[i] = b.Len()
		b.WriteString(p)
	}
	return b.String(), offsets
}

// pageOf maps a byte offset in the joined text back to the page index.
func pageOf(offsets []int, cleaned []string, texts []entity.PageText, pos int) int {
	page := 0
	for i, off := range offsets {
		if off > pos {
			break
		}
		if cleaned[i] != "" {
			page = texts[i].Index
		}
	}
	return page
}

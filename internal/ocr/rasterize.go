package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

var rePageNum = regexp.MustCompile(`-(\d+)\.png$`)

// PageCount parses the PDF with pdfcpu and returns its page count.
// Any parse or validation failure is a ConversionError.
func (e *Extractor) PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, common.NewConversionError(path, "parse", err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			e.logger.Warn("failed to close pdf", "path", path, "error", err)
		}
	}(f)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfCtx, err := api.ReadContext(f, conf)
	if err != nil {
		return 0, common.NewConversionError(path, "parse", err)
	}
	if err := api.ValidateContext(pdfCtx); err != nil {
		return 0, common.NewConversionError(path, "parse", err)
	}
	if pdfCtx.PageCount <= 0 {
		return 0, common.NewConversionError(path, "parse", fmt.Errorf("pdf has no pages"))
	}
	return pdfCtx.PageCount, nil
}

// Rasterize renders every page (up to MaxPages) of pdfPath into workDir as PNG.
// The caller owns workDir and must remove it. Pages come back in page order.
func (e *Extractor) Rasterize(ctx context.Context, pdfPath, workDir string) ([]entity.RawPage, error) {
	pages, err := e.PageCount(pdfPath)
	if err != nil {
		e.logger.Error("pdf parse failed", "path", pdfPath, "error", err)
		return nil, err
	}
	last := pages
	if e.cfg.MaxPages > 0 && last > e.cfg.MaxPages {
		e.logger.Warn("page cap applied", "path", pdfPath, "pages", pages, "max_pages", e.cfg.MaxPages)
		last = e.cfg.MaxPages
	}

	prefix := filepath.Join(workDir, "page")
	// pdftoppm -r 300 -png -f 1 -l N <in.pdf> <work/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, e.logger,
		"-r", strconv.Itoa(e.cfg.DPI), "-png", "-f", "1", "-l", strconv.Itoa(last), pdfPath, prefix)
	if err != nil {
		return nil, common.NewConversionError(pdfPath, "render", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512)))
	}

	// collect generated pngs (page-1.png or page-01.png ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	out := make([]entity.RawPage, 0, len(matches))
	for _, m := range matches {
		sub := rePageNum.FindStringSubmatch(m)
		if sub == nil {
			continue
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil || n < 1 {
			continue
		}
		out = append(out, entity.RawPage{Index: n - 1, Path: m})
	}
	if len(out) == 0 {
		return nil, common.NewConversionError(pdfPath, "render", fmt.Errorf("pdftoppm produced no images"))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })

	e.logger.Debug("rasterized pdf", "path", pdfPath, "pages", len(out), "dpi", e.cfg.DPI)
	return out, nil
}

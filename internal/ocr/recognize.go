package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

// RecognizePage preprocesses a page once and recognizes it in every requested
// mode, all under one per-page timeout. Failures never escape: a failed mode
// yields "" and a warning log.
func (e *Extractor) RecognizePage(ctx context.Context, page entity.RawPage, modes []Mode) entity.PageText {
	ctx, cancel := e.pageContext(ctx)
	defer cancel()

	img := e.prepare(ctx, page)
	out := entity.PageText{Index: page.Index}
	for _, m := range modes {
		txt := e.recognizeImage(ctx, page.Index, img, m)
		switch m {
		case ModeGeneral:
			out.General = txt
		case ModeTabular:
			out.Tabular = txt
		}
	}
	return out
}

// Recognize runs a single mode over one page.
func (e *Extractor) Recognize(ctx context.Context, page entity.RawPage, mode Mode) string {
	ctx, cancel := e.pageContext(ctx)
	defer cancel()
	return e.recognizeImage(ctx, page.Index, e.prepare(ctx, page), mode)
}

func (e *Extractor) pageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.PageTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.PageTimeout)
	}
	return context.WithCancel(ctx)
}

// prepare returns the image path to recognize, preprocessed when enabled.
func (e *Extractor) prepare(ctx context.Context, page entity.RawPage) string {
	if !e.cfg.Preprocess {
		return page.Path
	}
	out := filepath.Join(filepath.Dir(page.Path), fmt.Sprintf("page-%d.pre.png", page.Index+1))
	if err := e.preprocess(ctx, page.Path, out); err != nil {
		e.logger.Warn("page preprocessing failed; using raw image", "page", page.Index, "error", err)
		return page.Path
	}
	return out
}

func (e *Extractor) recognizeImage(ctx context.Context, index int, img string, mode Mode) string {
	psm := e.cfg.GeneralPSM
	if mode == ModeTabular {
		psm = e.cfg.TabularPSM
	}
	// tesseract <file> stdout -l <lang> --psm <n>
	args := []string{img, "stdout", "-l", e.cfg.TesseractLang, "--psm", strconv.Itoa(psm)}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	if mode == ModeTabular {
		args = append(args, "-c", "preserve_interword_spaces=1")
	}

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, args...)
	if err != nil {
		e.logger.Warn("page recognition failed",
			"page", index, "mode", string(mode), "error", err, "stderr", truncate(string(errb), 512))
		return ""
	}
	txt := Normalize(string(out))
	if txt == "" {
		e.logger.Warn("page recognition returned no text", "page", index, "mode", string(mode))
	}
	return txt
}

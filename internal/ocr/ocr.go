package ocr

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Mode selects a tesseract page-segmentation profile.
type Mode string

const (
	ModeGeneral Mode = "general" // prose blocks
	ModeTabular Mode = "tabular" // size/quantity grids
)

// ParseModes maps configured names onto Modes, keeping order and dropping duplicates.
func ParseModes(names []string) ([]Mode, error) {
	seen := map[Mode]bool{}
	var out []Mode
	for _, n := range names {
		m := Mode(n)
		if m != ModeGeneral && m != ModeTabular {
			return nil, fmt.Errorf("unknown ocr mode %q", n)
		}
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		out = []Mode{ModeGeneral}
	}
	return out, nil
}

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Magick    string // binary name or absolute path; if empty -> "magick"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI, default 300
	MaxPages      int // 0 = no limit

	Preprocess bool // grayscale + adaptive threshold + sharpen before recognition
	GeneralPSM int  // default 3 (fully automatic segmentation)
	TabularPSM int  // default 6 (uniform block of text)

	PageTimeout time.Duration // 0 = no per-page limit
}

// Extractor rasterizes PDFs and recognizes page images by shelling out to
// pdftoppm, ImageMagick and tesseract.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner swaps the command runner (tests).
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

var disablePdfcpuConfig sync.Once

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Magick == "" {
		cfg.Magick = "magick"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.GeneralPSM <= 0 {
		cfg.GeneralPSM = 3
	}
	if cfg.TabularPSM <= 0 {
		cfg.TabularPSM = 6
	}
	// pdfcpu otherwise creates a config dir under the user's home on first use.
	disablePdfcpuConfig.Do(api.DisableConfigDir)

	e := &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/core"
	"github.com/joseph-ayodele/tradedocs/internal/export"
	"github.com/joseph-ayodele/tradedocs/internal/ocr"
	"github.com/joseph-ayodele/tradedocs/internal/pipeline"
	"github.com/joseph-ayodele/tradedocs/internal/reconcile"
	repo "github.com/joseph-ayodele/tradedocs/internal/repository"
	"github.com/joseph-ayodele/tradedocs/internal/rulebook"
)

// App holds the wired components shared by the CLI and the daemon.
type App struct {
	DB        *repo.DB
	Rulebook  *rulebook.Rulebook
	Assembler *pipeline.Assembler
	Engine    *reconcile.Engine
	Processor *core.Processor
	Exporter  *export.Service
}

// Build validates cfg and wires the database, OCR, extraction and
// reconciliation components. Close releases the database.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rb, err := rulebook.Load(cfg.Rulebook.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("load rulebook: %w", err)
	}
	rules, err := rb.Rules()
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}
	modes, err := ocr.ParseModes(cfg.OCR.Modes)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", err.Error(), common.ErrInvalidInput)
	}

	engine, err := reconcile.NewEngine(reconcile.Config{
		Threshold:          cfg.Reconcile.SimilarityThreshold,
		ExistenceWeight:    cfg.Reconcile.ExistenceWeight,
		DetailWeight:       cfg.Reconcile.DetailWeight,
		BestMatchThreshold: cfg.Reconcile.BestMatchThreshold,
		Fields:             cfg.Reconcile.Fields,
	}, logger)
	if err != nil {
		return nil, common.NewAppError("CONFIG_ERROR", err.Error(), common.ErrInvalidInput)
	}

	extractor := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		Magick:        cfg.OCR.Magick,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		Preprocess:    cfg.OCR.Preprocess,
		GeneralPSM:    cfg.OCR.GeneralPSM,
		TabularPSM:    cfg.OCR.TabularPSM,
		PageTimeout:   cfg.OCR.PageTimeout,
	}, logger)

	assembler := pipeline.NewAssembler(pipeline.Config{
		Modes:             modes,
		Workers:           cfg.Pipeline.Workers,
		TempRoot:          cfg.Pipeline.TempRoot,
		MinPageConfidence: cfg.Pipeline.MinPageConfidence,
	}, extractor, extractor, rules, rb.Synthesizer(), logger)

	db, err := repo.Open(ctx, repo.Config{
		DSN:              cfg.Database.DSN,
		MaxConns:         cfg.Database.MaxConns,
		MinConns:         cfg.Database.MinConns,
		MaxConnLifetime:  cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
		DialTimeout:      cfg.Database.DialTimeout,
		StatementTimeout: cfg.Database.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	processor := core.NewProcessor(logger, assembler, engine,
		repo.NewDocumentRepository(db, logger),
		repo.NewComparisonRepository(db, logger),
	)
	logger.Info("app.ready", "dialect", db.Dialect(), "modes", cfg.OCR.Modes, "workers", cfg.Pipeline.Workers)
	return &App{
		DB:        db,
		Rulebook:  rb,
		Assembler: assembler,
		Engine:    engine,
		Processor: processor,
		Exporter:  export.NewService(logger),
	}, nil
}

// Close releases resources held by the app.
func (a *App) Close() {
	if a != nil && a.DB != nil {
		a.DB.Close()
	}
}

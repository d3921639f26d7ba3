package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/tradedocs/constants"
	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/reconcile"
	"github.com/joseph-ayodele/tradedocs/internal/repository"
)

// Extractor assembles one PDF into extracted items.
type Extractor interface {
	Assemble(ctx context.Context, pdfPath string) (*entity.ExtractionResult, error)
	AssembleBytes(ctx context.Context, name string, pdf []byte) (*entity.ExtractionResult, error)
}

// Processor coordinates extraction, persistence and reconciliation.
type Processor struct {
	logger      *slog.Logger
	extractor   Extractor
	engine      *reconcile.Engine
	documents   repository.DocumentRepository
	comparisons repository.ComparisonRepository
}

func NewProcessor(
	logger *slog.Logger,
	extractor Extractor,
	engine *reconcile.Engine,
	documents repository.DocumentRepository,
	comparisons repository.ComparisonRepository,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		logger:      logger,
		extractor:   extractor,
		engine:      engine,
		documents:   documents,
		comparisons: comparisons,
	}
}

// Processed is the outcome of ProcessFile. Duplicate is set when the same
// content was already extracted; Result is nil in that case.
type Processed struct {
	Document  *entity.Document
	Result    *entity.ExtractionResult
	Duplicate bool
}

// ProcessFile extracts the PDF at path and stores the document and its items.
// A conversion failure marks the document FAILED and is returned; an empty
// extraction is stored as EMPTY and is not an error.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*Processed, error) {
	if !constants.IsAllowedExt(filepath.Ext(path)) {
		return nil, common.NewAppError("UNSUPPORTED_FILE", fmt.Sprintf("unsupported file type: %s", path), common.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return p.process(ctx, filepath.Base(path), path, data, func(ctx context.Context) (*entity.ExtractionResult, error) {
		return p.extractor.Assemble(ctx, path)
	})
}

// ProcessBytes is ProcessFile for an uploaded document.
func (p *Processor) ProcessBytes(ctx context.Context, name string, data []byte) (*Processed, error) {
	if len(data) == 0 {
		return nil, common.NewAppError("EMPTY_UPLOAD", "document is empty", common.ErrInvalidInput)
	}
	return p.process(ctx, name, name, data, func(ctx context.Context) (*entity.ExtractionResult, error) {
		return p.extractor.AssembleBytes(ctx, name, data)
	})
}

func (p *Processor) process(ctx context.Context, name, source string, data []byte,
	run func(context.Context) (*entity.ExtractionResult, error)) (*Processed, error) {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	if existing, err := p.documents.GetByHash(ctx, hash); err == nil {
		if constants.DocStatus(existing.Status) == constants.DocStatusExtracted ||
			constants.DocStatus(existing.Status) == constants.DocStatusEmpty {
			p.logger.Info("processor.duplicate", "document_id", existing.ID, "name", name)
			return &Processed{Document: existing, Duplicate: true}, nil
		}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	doc, err := p.documents.Create(ctx, name, source, hash)
	if err != nil {
		return nil, err
	}
	ctx = common.WithDocumentID(ctx, doc.ID.String())
	log := common.LoggerFrom(ctx, p.logger)

	res, err := run(ctx)
	if err != nil {
		log.Error("processor.extract.failed", "name", name, "err", err)
		if ferr := p.documents.Fail(context.WithoutCancel(ctx), doc.ID, err.Error()); ferr != nil {
			log.Error("processor.mark_failed.failed", "err", ferr)
		}
		return &Processed{Document: doc}, err
	}
	res.DocumentID = doc.ID.String()

	stored, err := p.documents.Complete(ctx, doc.ID, res)
	if err != nil {
		return nil, err
	}
	if res.Empty() {
		log.Warn("processor.extract.empty", "name", name, "pages", res.Pages, "failed_pages", res.FailedPages)
	} else {
		log.Info("processor.extract.ok", "name", name, "items", len(res.Items), "needs_review", res.NeedsReview)
	}
	return &Processed{Document: stored, Result: res}, nil
}

// Reconcile compares two stored documents and records the comparison.
func (p *Processor) Reconcile(ctx context.Context, doc1, doc2 uuid.UUID) (*entity.Comparison, error) {
	items1, err := p.usableItems(ctx, doc1)
	if err != nil {
		return nil, err
	}
	items2, err := p.usableItems(ctx, doc2)
	if err != nil {
		return nil, err
	}
	res := p.engine.Compare(items1, items2)
	p.logger.Info("processor.reconcile.ok", "doc1_id", doc1, "doc2_id", doc2, "match_rate", res.MatchRate)
	return p.comparisons.Save(ctx, doc1, doc2, res)
}

// MatchOutcome is the result of ReconcileWithExisting. Comparison is nil
// when no stored document overlaps enough to warrant a detailed comparison.
type MatchOutcome struct {
	CandidateID   uuid.UUID
	ExistenceRate float64
	Comparison    *entity.Comparison
}

// ReconcileWithExisting finds the stored document that best overlaps docID
// and, if the overlap reaches the threshold, compares the two in detail.
func (p *Processor) ReconcileWithExisting(ctx context.Context, docID uuid.UUID) (*MatchOutcome, error) {
	items, err := p.usableItems(ctx, docID)
	if err != nil {
		return nil, err
	}
	docs, err := p.documents.List(ctx, constants.DocStatusExtracted)
	if err != nil {
		return nil, err
	}

	var candidates []reconcile.Candidate
	for _, d := range docs {
		if d.ID == docID {
			continue
		}
		ci, err := p.documents.Items(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, reconcile.Candidate{ID: d.ID.String(), Items: ci})
	}

	best := p.engine.BestMatch(items, candidates)
	if best == nil {
		return nil, common.NewAppError("NO_CANDIDATES", "no other extracted documents to compare against", common.ErrNotFound)
	}
	candidateID, err := uuid.Parse(best.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("%w: candidate id: %v", common.ErrInternal, err)
	}
	out := &MatchOutcome{CandidateID: candidateID, ExistenceRate: best.ExistenceRate}
	if best.Result == nil {
		return out, nil
	}
	if out.Comparison, err = p.comparisons.Save(ctx, docID, candidateID, best.Result); err != nil {
		return nil, err
	}
	return out, nil
}

// Items returns a stored document's extracted items.
func (p *Processor) Items(ctx context.Context, docID uuid.UUID) (*entity.Document, []entity.ExtractedItem, error) {
	doc, err := p.documents.Get(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	items, err := p.documents.Items(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	return doc, items, nil
}

// Comparison returns a stored comparison.
func (p *Processor) Comparison(ctx context.Context, id uuid.UUID) (*entity.Comparison, error) {
	return p.comparisons.Get(ctx, id)
}

// Comparisons lists the stored comparisons that involve docID.
func (p *Processor) Comparisons(ctx context.Context, docID uuid.UUID) ([]*entity.Comparison, error) {
	return p.comparisons.ListForDocument(ctx, docID)
}

func (p *Processor) usableItems(ctx context.Context, id uuid.UUID) ([]entity.ExtractedItem, error) {
	doc, items, err := p.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	if !constants.DocStatus(doc.Status).IsTerminal() || doc.Status == string(constants.DocStatusFailed) {
		return nil, common.NewAppError("NOT_EXTRACTED",
			fmt.Sprintf("document %s is %s", id, doc.Status), common.ErrInvalidInput)
	}
	return items, nil
}

package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/tradedocs/internal/async"
	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/core"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/export"
	"github.com/joseph-ayodele/tradedocs/internal/ingest"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeJSON = "application/json"
)

// Processor is the part of core.Processor the service depends on.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*core.Processed, error)
	ProcessBytes(ctx context.Context, name string, data []byte) (*core.Processed, error)
	Reconcile(ctx context.Context, doc1, doc2 uuid.UUID) (*entity.Comparison, error)
	ReconcileWithExisting(ctx context.Context, docID uuid.UUID) (*core.MatchOutcome, error)
	Items(ctx context.Context, docID uuid.UUID) (*entity.Document, []entity.ExtractedItem, error)
	Comparison(ctx context.Context, id uuid.UUID) (*entity.Comparison, error)
	Comparisons(ctx context.Context, docID uuid.UUID) ([]*entity.Comparison, error)
}

// DocumentService implements DocumentServiceServer.
type DocumentService struct {
	processor Processor
	exporter  *export.Service
	queue     async.Queue
	logger    *slog.Logger
}

// NewDocumentService builds the service. queue may be nil, in which case
// SubmitDirectory is rejected.
func NewDocumentService(proc Processor, exporter *export.Service, queue async.Queue, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{processor: proc, exporter: exporter, queue: queue, logger: logger}
}

// ExtractDocument processes a server-side path or an uploaded base64 PDF.
func (s *DocumentService) ExtractDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := stringField(req, "path")
	content := stringField(req, "content")
	var (
		out *core.Processed
		err error
	)
	switch {
	case path != "" && content != "":
		return nil, common.InvalidArgumentError("set either path or content, not both")
	case path != "":
		s.logger.Info("server.extract.path", "path", path)
		out, err = s.processor.ProcessFile(ctx, path)
	case content != "":
		name := stringField(req, "name")
		if name == "" {
			name = "upload.pdf"
		}
		data, derr := base64.StdEncoding.DecodeString(content)
		if derr != nil {
			return nil, common.InvalidArgumentError("content must be base64")
		}
		s.logger.Info("server.extract.upload", "name", name, "bytes", len(data))
		out, err = s.processor.ProcessBytes(ctx, name, data)
	default:
		return nil, common.InvalidArgumentError("path or content is required")
	}
	if err != nil {
		s.logger.Error("server.extract.failed", "path", path, "error", err)
		return nil, common.ToStatus(err)
	}
	return response(map[string]any{
		"document":  out.Document,
		"result":    out.Result,
		"duplicate": out.Duplicate,
	})
}

// GetDocument returns a stored document with its items and comparisons.
func (s *DocumentService) GetDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuidField(req, "document_id")
	if err != nil {
		return nil, err
	}
	doc, items, err := s.processor.Items(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	comparisons, err := s.processor.Comparisons(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	summaries := make([]map[string]any, 0, len(comparisons))
	for _, c := range comparisons {
		summaries = append(summaries, map[string]any{
			"id":         c.ID,
			"doc1_id":    c.Doc1ID,
			"doc2_id":    c.Doc2ID,
			"match_rate": c.MatchRate,
			"created_at": c.CreatedAt,
		})
	}
	if items == nil {
		items = []entity.ExtractedItem{}
	}
	return response(map[string]any{
		"document":    doc,
		"items":       items,
		"comparisons": summaries,
	})
}

// CompareDocuments reconciles two stored documents.
func (s *DocumentService) CompareDocuments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc1, err := uuidField(req, "doc1_id")
	if err != nil {
		return nil, err
	}
	doc2, err := uuidField(req, "doc2_id")
	if err != nil {
		return nil, err
	}
	cmp, err := s.processor.Reconcile(ctx, doc1, doc2)
	if err != nil {
		s.logger.Error("server.compare.failed", "doc1_id", doc1, "doc2_id", doc2, "error", err)
		return nil, common.ToStatus(err)
	}
	return response(map[string]any{"comparison": cmp})
}

// CompareWithExisting finds the best stored match for a document.
func (s *DocumentService) CompareWithExisting(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuidField(req, "document_id")
	if err != nil {
		return nil, err
	}
	out, err := s.processor.ReconcileWithExisting(ctx, id)
	if err != nil {
		s.logger.Warn("server.match.failed", "document_id", id, "error", err)
		return nil, common.ToStatus(err)
	}
	return response(map[string]any{
		"candidate_id":   out.CandidateID,
		"existence_rate": out.ExistenceRate,
		"compared":       out.Comparison != nil,
		"comparison":     out.Comparison,
	})
}

// ExportDocument renders a document's items as xlsx (default) or json.
func (s *DocumentService) ExportDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuidField(req, "document_id")
	if err != nil {
		return nil, err
	}
	format, err := exportFormat(req)
	if err != nil {
		return nil, err
	}
	doc, items, err := s.processor.Items(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	base := strings.TrimSuffix(doc.Name, filepath.Ext(doc.Name))
	var data []byte
	if format == "json" {
		if items == nil {
			items = []entity.ExtractedItem{}
		}
		data, err = json.MarshalIndent(items, "", "  ")
	} else {
		data, err = s.exporter.ItemsXLSX(items)
	}
	if err != nil {
		s.logger.Error("server.export.failed", "document_id", id, "format", format, "error", err)
		return nil, common.ToStatus(common.WrapError(err, "export items"))
	}
	return file(base+"_items."+format, format, data)
}

// ExportComparison renders a stored comparison as xlsx (default) or json.
func (s *DocumentService) ExportComparison(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuidField(req, "comparison_id")
	if err != nil {
		return nil, err
	}
	format, err := exportFormat(req)
	if err != nil {
		return nil, err
	}
	cmp, err := s.processor.Comparison(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	var data []byte
	if format == "json" {
		data, err = s.exporter.ComparisonJSON(cmp.Result)
	} else {
		data, err = s.exporter.ComparisonXLSX(cmp.Result)
	}
	if err != nil {
		s.logger.Error("server.export.failed", "comparison_id", id, "format", format, "error", err)
		return nil, common.ToStatus(common.WrapError(err, "export comparison"))
	}
	return file(fmt.Sprintf("comparison_%s.%s", id, format), format, data)
}

// SubmitDirectory queues every PDF under root for background extraction.
func (s *DocumentService) SubmitDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.queue == nil {
		return nil, common.FailedPreconditionError("background processing is disabled")
	}
	root := stringField(req, "root")
	if root == "" {
		return nil, common.InvalidArgumentError("root is required")
	}
	results, stats, err := ingest.SubmitDirectory(ctx, s.queue, root, boolField(req, "skip_hidden", true), s.logger)
	if err != nil {
		return nil, common.ToStatus(common.WrapError(err, "submit directory"))
	}
	files := make([]map[string]any, 0, len(results))
	for _, r := range results {
		files = append(files, map[string]any{"path": r.Path, "error": r.Err})
	}
	return response(map[string]any{
		"scanned":   stats.Scanned,
		"matched":   stats.Matched,
		"submitted": stats.Submitted,
		"failed":    stats.Failed,
		"files":     files,
	})
}

func exportFormat(req *structpb.Struct) (string, error) {
	switch f := strings.ToLower(stringField(req, "format")); f {
	case "", "xlsx":
		return "xlsx", nil
	case "json":
		return "json", nil
	default:
		return "", common.InvalidArgumentErrorf("unsupported format %q", f)
	}
}

func file(name, format string, data []byte) (*structpb.Struct, error) {
	ct := contentTypeXLSX
	if format == "json" {
		ct = contentTypeJSON
	}
	return response(map[string]any{
		"filename":     name,
		"content_type": ct,
		"content":      base64.StdEncoding.EncodeToString(data),
	})
}

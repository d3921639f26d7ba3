package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/tradedocs/internal/async"
	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/core"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
	"github.com/joseph-ayodele/tradedocs/internal/export"
)

type fakeProcessor struct {
	doc         *entity.Document
	items       []entity.ExtractedItem
	comparison  *entity.Comparison
	gotPath     string
	gotUpload   []byte
	processErr  error
	noCandidate bool
}

func (f *fakeProcessor) ProcessFile(_ context.Context, path string) (*core.Processed, error) {
	f.gotPath = path
	if f.processErr != nil {
		return nil, f.processErr
	}
	return &core.Processed{Document: f.doc, Result: &entity.ExtractionResult{SourcePath: path, Pages: 1, Items: f.items}}, nil
}

func (f *fakeProcessor) ProcessBytes(_ context.Context, name string, data []byte) (*core.Processed, error) {
	f.gotUpload = data
	return &core.Processed{Document: f.doc, Duplicate: true}, nil
}

func (f *fakeProcessor) Reconcile(_ context.Context, doc1, doc2 uuid.UUID) (*entity.Comparison, error) {
	return f.comparison, nil
}

func (f *fakeProcessor) ReconcileWithExisting(_ context.Context, docID uuid.UUID) (*core.MatchOutcome, error) {
	if f.noCandidate {
		return nil, common.NewAppError("NO_CANDIDATES", "no other extracted documents", common.ErrNotFound)
	}
	return &core.MatchOutcome{CandidateID: f.comparison.Doc2ID, ExistenceRate: 100, Comparison: f.comparison}, nil
}

func (f *fakeProcessor) Items(_ context.Context, docID uuid.UUID) (*entity.Document, []entity.ExtractedItem, error) {
	if docID != f.doc.ID {
		return nil, nil, common.NewAppError("DOCUMENT_NOT_FOUND", "document not found", common.ErrNotFound)
	}
	return f.doc, f.items, nil
}

func (f *fakeProcessor) Comparison(_ context.Context, id uuid.UUID) (*entity.Comparison, error) {
	if id != f.comparison.ID {
		return nil, common.NewAppError("COMPARISON_NOT_FOUND", "comparison not found", common.ErrNotFound)
	}
	return f.comparison, nil
}

func (f *fakeProcessor) Comparisons(_ context.Context, docID uuid.UUID) ([]*entity.Comparison, error) {
	return []*entity.Comparison{f.comparison}, nil
}

type memQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *memQueue) Enqueue(_ context.Context, job async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memQueue) Shutdown(context.Context) {}

func newFake() *fakeProcessor {
	doc := &entity.Document{ID: uuid.New(), Name: "po.pdf", Status: "EXTRACTED", ItemCount: 1, CreatedAt: time.Now()}
	items := []entity.ExtractedItem{{
		Record:     entity.ProductRecord{ProductCode: "AJ1323", Color: "BLACK", WholesalePrice: "450.00"},
		Size:       entity.SizeQuantity{Size: "39", Quantity: 2},
		CustomCode: "09B1TG-SHTVWM01-132339",
		SizePath:   entity.SizePathPrimary,
	}}
	res := &entity.ComparisonResult{
		MatchRate: 100, ProductExistenceRate: 100, DetailScore: 100, TotalProducts: 1, CommonProducts: 1,
		Doc1Only: []entity.DocOnlyEntry{}, Doc2Only: []entity.DocOnlyEntry{},
		Matching:      []entity.MatchingEntry{{ProductCode: "AJ1323", Size: "39"}},
		Discrepancies: []entity.Discrepancy{},
	}
	cmp := &entity.Comparison{ID: uuid.New(), Doc1ID: doc.ID, Doc2ID: uuid.New(), MatchRate: 100, Result: res, CreatedAt: time.Now()}
	return &fakeProcessor{doc: doc, items: items, comparison: cmp}
}

func dial(t *testing.T, proc Processor, queue async.Queue) *DocumentServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterDocumentServiceServer(srv, NewDocumentService(proc, export.NewService(nil), queue, nil))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewDocumentServiceClient(conn)
}

func req(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func content(t *testing.T, out *structpb.Struct) []byte {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(out.GetFields()["content"].GetStringValue())
	require.NoError(t, err)
	return data
}

func TestExtractDocument_Path(t *testing.T) {
	fp := newFake()
	client := dial(t, fp, nil)

	out, err := client.Call(context.Background(), MethodExtractDocument, req(t, map[string]any{"path": "/inbox/po.pdf"}))
	require.NoError(t, err)
	assert.Equal(t, "/inbox/po.pdf", fp.gotPath)

	doc := out.GetFields()["document"].GetStructValue()
	assert.Equal(t, fp.doc.ID.String(), doc.GetFields()["id"].GetStringValue())
	items := out.GetFields()["result"].GetStructValue().GetFields()["items"].GetListValue().GetValues()
	require.Len(t, items, 1)
	assert.Equal(t, "09B1TG-SHTVWM01-132339", items[0].GetStructValue().GetFields()["custom_code"].GetStringValue())
	assert.False(t, out.GetFields()["duplicate"].GetBoolValue())
}

func TestExtractDocument_Upload(t *testing.T) {
	fp := newFake()
	client := dial(t, fp, nil)

	out, err := client.Call(context.Background(), MethodExtractDocument, req(t, map[string]any{
		"name":    "po.pdf",
		"content": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	}))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), fp.gotUpload)
	assert.True(t, out.GetFields()["duplicate"].GetBoolValue())
}

func TestExtractDocument_Errors(t *testing.T) {
	fp := newFake()
	client := dial(t, fp, nil)
	ctx := context.Background()

	_, err := client.Call(ctx, MethodExtractDocument, req(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Call(ctx, MethodExtractDocument, req(t, map[string]any{"path": "a.pdf", "content": "eA=="}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Call(ctx, MethodExtractDocument, req(t, map[string]any{"content": "not base64!"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	fp.processErr = common.NewConversionError("/inbox/bad.pdf", "rasterize", assert.AnError)
	_, err = client.Call(ctx, MethodExtractDocument, req(t, map[string]any{"path": "/inbox/bad.pdf"}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	fp.processErr = common.NewAppError("UNSUPPORTED_FILE", "unsupported file type", common.ErrInvalidInput)
	_, err = client.Call(ctx, MethodExtractDocument, req(t, map[string]any{"path": "/inbox/a.txt"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetDocument(t *testing.T) {
	fp := newFake()
	client := dial(t, fp, nil)
	ctx := context.Background()

	out, err := client.Call(ctx, MethodGetDocument, req(t, map[string]any{"document_id": fp.doc.ID.String()}))
	require.NoError(t, err)
	assert.Len(t, out.GetFields()["items"].GetListValue().GetValues(), 1)
	assert.Len(t, out.GetFields()["comparisons"].GetListValue().GetValues(), 1)

	_, err = client.Call(ctx, MethodGetDocument, req(t, map[string]any{"document_id": uuid.NewString()}))
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.Call(ctx, MethodGetDocument, req(t, map[string]any{"document_id": "nope"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCompareDocuments(t *testing.T) {
	fp := newFake()
	client := dial(t, fp, nil)

	out, err := client.Call(context.Background(), MethodCompareDocuments, req(t, map[string]any{
		"doc1_id": fp.comparison.Doc1ID.String(),
		"doc2_id": fp.comparison.Doc2ID.String(),
	}))
	require.NoError(t, err)
	cmp := out.GetFields()["comparison"].GetStructValue()
	assert.Equal(t, 100.0, cmp.GetFields()["match_rate"].GetNumberValue())
	matching := cmp.GetFields()["result"].GetStructValue().GetFields()["matching"].GetListValue().GetValues()
	assert.Len(t, matching, 1)

	_, err = client.Call(context.Background(), MethodCompareDocuments, req(t, map[string]any{"doc1_id": fp.doc.ID.String()}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCompareWithExisting(t *testing.T) {
	fp := newFake()
	client := dial(t, fp, nil)
	ctx := context.Background()

	out, err := client.Call(ctx, MethodCompareWithExisting, req(t, map[string]any{"document_id": fp.doc.ID.String()}))
	require.NoError(t, err)
	assert.Equal(t, fp.comparison.Doc2ID.String(), out.GetFields()["candidate_id"].GetStringValue())
	assert.True(t, out.GetFields()["compared"].GetBoolValue())

	fp.noCandidate = true
	_, err = client.Call(ctx, MethodCompareWithExisting, req(t, map[string]any{"document_id": fp.doc.ID.String()}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestExportDocument(t *testing.T) {
	fp := newFake()
	client := dial(t, fp, nil)
	ctx := context.Background()

	out, err := client.Call(ctx, MethodExportDocument, req(t, map[string]any{"document_id": fp.doc.ID.String()}))
	require.NoError(t, err)
	assert.Equal(t, "po_items.xlsx", out.GetFields()["filename"].GetStringValue())
	f, err := excelize.OpenReader(bytes.NewReader(content(t, out)))
	require.NoError(t, err)
	rows, err := f.GetRows("Items")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	out, err = client.Call(ctx, MethodExportDocument, req(t, map[string]any{"document_id": fp.doc.ID.String(), "format": "JSON"}))
	require.NoError(t, err)
	assert.Equal(t, contentTypeJSON, out.GetFields()["content_type"].GetStringValue())
	var items []entity.ExtractedItem
	require.NoError(t, json.Unmarshal(content(t, out), &items))
	assert.Equal(t, fp.items, items)

	_, err = client.Call(ctx, MethodExportDocument, req(t, map[string]any{"document_id": fp.doc.ID.String(), "format": "csv"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestExportComparison(t *testing.T) {
	fp := newFake()
	client := dial(t, fp, nil)
	ctx := context.Background()

	out, err := client.Call(ctx, MethodExportComparison, req(t, map[string]any{"comparison_id": fp.comparison.ID.String()}))
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(content(t, out)))
	require.NoError(t, err)
	assert.Contains(t, f.GetSheetList(), "Summary")

	_, err = client.Call(ctx, MethodExportComparison, req(t, map[string]any{"comparison_id": uuid.NewString()}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestSubmitDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("x"), 0o644))

	fp := newFake()
	ctx := context.Background()

	_, err := dial(t, fp, nil).Call(ctx, MethodSubmitDirectory, req(t, map[string]any{"root": root}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	q := &memQueue{}
	out, err := dial(t, fp, q).Call(ctx, MethodSubmitDirectory, req(t, map[string]any{"root": root}))
	require.NoError(t, err)
	assert.Equal(t, 1.0, out.GetFields()["submitted"].GetNumberValue())
	require.Len(t, q.jobs, 1)
	assert.Equal(t, filepath.Join(root, "a.pdf"), q.jobs[0].Path)
}

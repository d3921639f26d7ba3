package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/tradedocs/constants"
	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

type DocumentRepository interface {
	Create(ctx context.Context, name, sourcePath, contentHash string) (*entity.Document, error)
	Complete(ctx context.Context, id uuid.UUID, res *entity.ExtractionResult) (*entity.Document, error)
	Fail(ctx context.Context, id uuid.UUID, message string) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Document, error)
	GetByHash(ctx context.Context, contentHash string) (*entity.Document, error)
	Items(ctx context.Context, id uuid.UUID) ([]entity.ExtractedItem, error)
	List(ctx context.Context, status constants.DocStatus) ([]*entity.Document, error)
}

type documentRepo struct {
	db  *DB
	log *slog.Logger
}

func NewDocumentRepository(db *DB, log *slog.Logger) DocumentRepository {
	if log == nil {
		log = slog.Default()
	}
	return &documentRepo{db: db, log: log}
}

func (r *documentRepo) Create(ctx context.Context, name, sourcePath, contentHash string) (*entity.Document, error) {
	doc := &entity.Document{
		ID:          uuid.New(),
		Name:        name,
		SourcePath:  sourcePath,
		ContentHash: contentHash,
		Status:      string(constants.DocStatusRunning),
		CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}
	q, args := r.db.builder().Insert(tableDocuments).
		Columns(documentColumns...).
		Values(doc.ID.String(), doc.Name, doc.SourcePath, doc.ContentHash, 0, 0,
			doc.Status, nil, false, doc.CreatedAt.UnixMilli(), nil).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("document create failed", "name", name, "err", err)
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "create document")
	}
	r.log.Info("document created", "document_id", doc.ID, "name", name)
	return doc, nil
}

// Complete stores the extracted items and marks the document EXTRACTED, or
// EMPTY when nothing was extracted.
func (r *documentRepo) Complete(ctx context.Context, id uuid.UUID, res *entity.ExtractionResult) (*entity.Document, error) {
	status := constants.DocStatusExtracted
	if res.Empty() {
		status = constants.DocStatusEmpty
	}
	now := time.Now().UTC()
	err := r.db.withTx(ctx, func(tx dialect.Tx) error {
		del, dargs := r.db.builder().Delete(tableItems).Where(entsql.EQ("document_id", id.String())).Query()
		if err := tx.Exec(ctx, del, dargs, nil); err != nil {
			return err
		}
		for i, it := range res.Items {
			q, args := r.db.builder().Insert(tableItems).
				Columns(itemColumns...).
				Values(id.String(), i, it.Page,
					it.Record.ProductCode, it.Record.Style, it.Record.Color, it.Record.Brand, it.Record.Season,
					it.Record.WholesalePrice, it.Record.RetailPrice, it.Record.Category, it.Record.Origin,
					it.Size.Size, it.Size.Quantity, it.CustomCode, string(it.SizePath)).
				Query()
			if err := tx.Exec(ctx, q, args, nil); err != nil {
				return err
			}
		}
		q, args := r.db.builder().Update(tableDocuments).
			Set("status", string(status)).
			Set("pages", res.Pages).
			Set("item_count", len(res.Items)).
			Set("needs_review", res.NeedsReview).
			Set("finished_at", now.UnixMilli()).
			SetNull("error_message").
			Where(entsql.EQ("id", id.String())).
			Query()
		return tx.Exec(ctx, q, args, nil)
	})
	if err != nil {
		r.log.Error("document complete failed", "document_id", id, "err", err)
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "complete document")
	}
	r.log.Info("document completed", "document_id", id, "status", status, "items", len(res.Items))
	return r.Get(ctx, id)
}

func (r *documentRepo) Fail(ctx context.Context, id uuid.UUID, message string) error {
	q, args := r.db.builder().Update(tableDocuments).
		Set("status", string(constants.DocStatusFailed)).
		Set("error_message", message).
		Set("finished_at", time.Now().UTC().UnixMilli()).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("document fail update failed", "document_id", id, "err", err)
		return common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "fail document")
	}
	r.log.Warn("document failed", "document_id", id, "error", message)
	return nil
}

func (r *documentRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Document, error) {
	return r.one(ctx, entsql.EQ("id", id.String()), id.String())
}

func (r *documentRepo) GetByHash(ctx context.Context, contentHash string) (*entity.Document, error) {
	return r.one(ctx, entsql.EQ("content_hash", contentHash), contentHash)
}

func (r *documentRepo) one(ctx context.Context, where *entsql.Predicate, key string) (*entity.Document, error) {
	sel := r.db.builder().Select(documentColumns...).
		From(entsql.Table(tableDocuments)).
		Where(where).
		OrderBy(entsql.Desc("created_at")).
		Limit(1)
	docs, err := r.list(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "document "+key+" not found", common.ErrNotFound)
	}
	return docs[0], nil
}

// List returns documents oldest first; an empty status lists all of them.
func (r *documentRepo) List(ctx context.Context, status constants.DocStatus) ([]*entity.Document, error) {
	sel := r.db.builder().Select(documentColumns...).
		From(entsql.Table(tableDocuments)).
		OrderBy(entsql.Asc("created_at"), entsql.Asc("id"))
	if status != "" {
		sel.Where(entsql.EQ("status", string(status)))
	}
	return r.list(ctx, sel)
}

func (r *documentRepo) list(ctx context.Context, sel *entsql.Selector) ([]*entity.Document, error) {
	var out []*entity.Document
	err := r.db.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			d          entity.Document
			id         string
			errMsg     sql.NullString
			createdAt  int64
			finishedAt sql.NullInt64
		)
		if err := rows.Scan(&id, &d.Name, &d.SourcePath, &d.ContentHash, &d.Pages, &d.ItemCount,
			&d.Status, &errMsg, &d.NeedsReview, &createdAt, &finishedAt); err != nil {
			return err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("%w: document id %q: %v", common.ErrConversion, id, err)
		}
		d.ID = parsed
		d.CreatedAt = time.UnixMilli(createdAt).UTC()
		if errMsg.Valid {
			d.ErrorMessage = &errMsg.String
		}
		if finishedAt.Valid {
			t := time.UnixMilli(finishedAt.Int64).UTC()
			d.FinishedAt = &t
		}
		out = append(out, &d)
		return nil
	})
	if err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "list documents")
	}
	return out, nil
}

// Items returns the document's items in extraction order.
func (r *documentRepo) Items(ctx context.Context, id uuid.UUID) ([]entity.ExtractedItem, error) {
	sel := r.db.builder().Select(itemColumns[2:]...).
		From(entsql.Table(tableItems)).
		Where(entsql.EQ("document_id", id.String())).
		OrderBy(entsql.Asc("position"))
	var out []entity.ExtractedItem
	err := r.db.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			it   entity.ExtractedItem
			path string
		)
		if err := rows.Scan(&it.Page,
			&it.Record.ProductCode, &it.Record.Style, &it.Record.Color, &it.Record.Brand, &it.Record.Season,
			&it.Record.WholesalePrice, &it.Record.RetailPrice, &it.Record.Category, &it.Record.Origin,
			&it.Size.Size, &it.Size.Quantity, &it.CustomCode, &path); err != nil {
			return err
		}
		it.SizePath = entity.SizePath(path)
		out = append(out, it)
		return nil
	})
	if err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "list items")
	}
	return out, nil
}

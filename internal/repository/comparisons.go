package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/tradedocs/internal/common"
	"github.com/joseph-ayodele/tradedocs/internal/entity"
)

type ComparisonRepository interface {
	Save(ctx context.Context, doc1, doc2 uuid.UUID, res *entity.ComparisonResult) (*entity.Comparison, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Comparison, error)
	ListForDocument(ctx context.Context, docID uuid.UUID) ([]*entity.Comparison, error)
}

type comparisonRepo struct {
	db  *DB
	log *slog.Logger
}

func NewComparisonRepository(db *DB, log *slog.Logger) ComparisonRepository {
	if log == nil {
		log = slog.Default()
	}
	return &comparisonRepo{db: db, log: log}
}

func (r *comparisonRepo) Save(ctx context.Context, doc1, doc2 uuid.UUID, res *entity.ComparisonResult) (*entity.Comparison, error) {
	body, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("%w: encode comparison: %v", common.ErrConversion, err)
	}
	c := &entity.Comparison{
		ID:        uuid.New(),
		Doc1ID:    doc1,
		Doc2ID:    doc2,
		MatchRate: res.MatchRate,
		Result:    res,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	q, args := r.db.builder().Insert(tableComparisons).
		Columns(comparisonColumns...).
		Values(c.ID.String(), doc1.String(), doc2.String(), c.MatchRate, string(body), c.CreatedAt.UnixMilli()).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("comparison save failed", "doc1_id", doc1, "doc2_id", doc2, "err", err)
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "save comparison")
	}
	r.log.Info("comparison saved", "comparison_id", c.ID, "doc1_id", doc1, "doc2_id", doc2, "match_rate", c.MatchRate)
	return c, nil
}

func (r *comparisonRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Comparison, error) {
	sel := r.db.builder().Select(comparisonColumns...).
		From(entsql.Table(tableComparisons)).
		Where(entsql.EQ("id", id.String()))
	out, err := r.list(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, common.NewAppError("NOT_FOUND", "comparison "+id.String()+" not found", common.ErrNotFound)
	}
	return out[0], nil
}

// ListForDocument returns comparisons involving docID on either side, newest first.
func (r *comparisonRepo) ListForDocument(ctx context.Context, docID uuid.UUID) ([]*entity.Comparison, error) {
	sel := r.db.builder().Select(comparisonColumns...).
		From(entsql.Table(tableComparisons)).
		Where(entsql.Or(entsql.EQ("doc1_id", docID.String()), entsql.EQ("doc2_id", docID.String()))).
		OrderBy(entsql.Desc("created_at"))
	return r.list(ctx, sel)
}

func (r *comparisonRepo) list(ctx context.Context, sel *entsql.Selector) ([]*entity.Comparison, error) {
	var out []*entity.Comparison
	err := r.db.query(ctx, sel, func(rows *entsql.Rows) error {
		var (
			c                entity.Comparison
			id, d1, d2, body string
			createdAt        int64
		)
		if err := rows.Scan(&id, &d1, &d2, &c.MatchRate, &body, &createdAt); err != nil {
			return err
		}
		var err error
		if c.ID, err = uuid.Parse(id); err != nil {
			return err
		}
		if c.Doc1ID, err = uuid.Parse(d1); err != nil {
			return err
		}
		if c.Doc2ID, err = uuid.Parse(d2); err != nil {
			return err
		}
		c.Result = &entity.ComparisonResult{}
		if err := json.Unmarshal([]byte(body), c.Result); err != nil {
			return fmt.Errorf("%w: decode comparison %s: %v", common.ErrConversion, id, err)
		}
		c.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, &c)
		return nil
	})
	if err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %v", common.ErrDatabase, err), "list comparisons")
	}
	return out, nil
}

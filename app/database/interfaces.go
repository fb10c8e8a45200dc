package database

import (
	"context"
	"time"
)

// ArticleRepository handles article persistence. All deletion is the soft
// is_active=false form; rows are never physically removed.
type ArticleRepository interface {
	InsertArticle(ctx context.Context, article Article) error
	StoreBatch(ctx context.Context, articles []Article) (int, error)
	StoreBatchAndSweep(ctx context.Context, articles []Article, retentionCutoff time.Time) (stored int, swept int64, err error)

	GetArticleByID(ctx context.Context, id string) (*Article, error)
	ListActive(ctx context.Context, page, pageSize int, statusFilter string) ([]Article, error)

	Approve(ctx context.Context, id, reviewerID string) (bool, error)
	Reject(ctx context.Context, id, reviewerID string) (bool, error)
	SoftDelete(ctx context.Context, id string) (bool, error)
	SoftDeleteBulk(ctx context.Context, ids []string) (int64, error)
	DeactivateBySourceType(ctx context.Context, sourceType string) (int64, error)
	DeactivateAll(ctx context.Context) (int64, error)
	DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	CountActive(ctx context.Context) (int, error)
	CountActiveBySourceType(ctx context.Context, sourceType string) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
}

// QuotaRepository handles the daily fetch-rate counter.
type QuotaRepository interface {
	GetCount(ctx context.Context, date time.Time) (int, error)
	TryIncrement(ctx context.Context, date time.Time, ceiling int) (bool, error)
}

// FetchRunRepository records admin-triggered ingestion batches.
type FetchRunRepository interface {
	InsertRun(ctx context.Context, run FetchRun) error
}

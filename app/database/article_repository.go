package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

var _ ArticleRepository = (*ArticleRepositoryImpl)(nil)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ArticleRepositoryImpl handles database operations for articles
type ArticleRepositoryImpl struct {
	db *DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) *ArticleRepositoryImpl {
	return &ArticleRepositoryImpl{db: db}
}

const articleColumns = `id, title, COALESCE(description, ''), COALESCE(content, ''),
       COALESCE(image_url, ''), published_at, COALESCE(source_name, ''), source_url,
       cached_at, is_active, source_type, status, reviewed_by, reviewed_at, added_by`

func scanArticle(row interface{ Scan(...interface{}) error }) (Article, error) {
	var a Article
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.Content,
		&a.ImageURL, &a.PublishedAt, &a.SourceName, &a.SourceURL,
		&a.CachedAt, &a.IsActive, &a.SourceType, &a.Status,
		&a.ReviewedBy, &a.ReviewedAt, &a.AddedBy,
	)
	return a, err
}

// InsertArticle stores a single article with its assigned status.
func (r *ArticleRepositoryImpl) InsertArticle(ctx context.Context, article Article) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO articles (
			id, title, description, content, image_url, published_at,
			source_name, source_url, is_active, source_type, status, added_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, article.ID, article.Title, article.Description, article.Content,
		article.ImageURL, article.PublishedAt, article.SourceName, article.SourceURL,
		article.IsActive, article.SourceType, article.Status, article.AddedBy)

	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	return nil
}

// StoreBatch inserts a batch of articles in a single transaction.
func (r *ArticleRepositoryImpl) StoreBatch(ctx context.Context, articles []Article) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stored, err := insertBatch(ctx, tx, articles)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit article batch: %w", err)
	}

	return stored, nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, articles []Article) (int, error) {
	stored := 0
	for _, article := range articles {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO articles (
				id, title, description, content, image_url, published_at,
				source_name, source_url, is_active, source_type, status, added_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, article.ID, article.Title, article.Description, article.Content,
			article.ImageURL, article.PublishedAt, article.SourceName, article.SourceURL,
			article.IsActive, article.SourceType, article.Status, article.AddedBy)
		if err != nil {
			return 0, fmt.Errorf("failed to insert article: %w", err)
		}
		stored++
	}
	return stored, nil
}

// StoreBatchAndSweep inserts a batch of articles and deactivates rows older
// than the retention cutoff in a single transaction, so a mid-cycle failure
// leaves prior state unchanged.
func (r *ArticleRepositoryImpl) StoreBatchAndSweep(ctx context.Context, articles []Article, retentionCutoff time.Time) (int, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stored, err := insertBatch(ctx, tx, articles)
	if err != nil {
		return 0, 0, err
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE articles
		SET is_active = FALSE
		WHERE cached_at < $1
		  AND is_active = TRUE
	`, retentionCutoff)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sweep stale articles: %w", err)
	}

	swept, err := result.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count swept articles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit ingestion batch: %w", err)
	}

	return stored, swept, nil
}

// GetArticleByID retrieves a single article by its identifier.
func (r *ArticleRepositoryImpl) GetArticleByID(ctx context.Context, id string) (*Article, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+articleColumns+`
		FROM articles
		WHERE id = $1
	`, id)

	article, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	return &article, nil
}

// ListActive returns a page of active articles, newest published first.
// Rows without a published timestamp sort last. An empty status filter
// returns all statuses; the public feed passes "approved".
func (r *ArticleRepositoryImpl) ListActive(ctx context.Context, page, pageSize int, statusFilter string) ([]Article, error) {
	if page < 1 {
		page = 1
	}

	builder := psql.
		Select("id", "title", "COALESCE(description, '')", "COALESCE(content, '')",
			"COALESCE(image_url, '')", "published_at", "COALESCE(source_name, '')", "source_url",
			"cached_at", "is_active", "source_type", "status", "reviewed_by", "reviewed_at", "added_by").
		From("articles").
		Where(sq.Eq{"is_active": true})

	if statusFilter != "" {
		builder = builder.Where(sq.Eq{"status": statusFilter})
	}

	query, args, err := builder.
		OrderBy("published_at DESC NULLS LAST", "cached_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build listing query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

// Approve marks a pending article approved and stamps the reviewer. Returns
// false when the article is missing or not pending; no row is mutated then.
func (r *ArticleRepositoryImpl) Approve(ctx context.Context, id, reviewerID string) (bool, error) {
	return r.resolve(ctx, id, reviewerID, StatusApproved, true)
}

// Reject marks a pending article rejected and deactivates it. Same failure
// semantics as Approve.
func (r *ArticleRepositoryImpl) Reject(ctx context.Context, id, reviewerID string) (bool, error) {
	return r.resolve(ctx, id, reviewerID, StatusRejected, false)
}

func (r *ArticleRepositoryImpl) resolve(ctx context.Context, id, reviewerID, status string, active bool) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET status = $2, is_active = $3, reviewed_by = $4, reviewed_at = NOW()
		WHERE id = $1
		  AND status = 'pending'
	`, id, status, active, reviewerID)
	if err != nil {
		return false, fmt.Errorf("failed to update article status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}

	return affected == 1, nil
}

// SoftDelete deactivates a single article regardless of status.
func (r *ArticleRepositoryImpl) SoftDelete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET is_active = FALSE
		WHERE id = $1
		  AND is_active = TRUE
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to soft delete article: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}

	return affected == 1, nil
}

// SoftDeleteBulk deactivates the given articles and returns how many rows
// actually changed.
func (r *ArticleRepositoryImpl) SoftDeleteBulk(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET is_active = FALSE
		WHERE id = ANY($1)
		  AND is_active = TRUE
	`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to bulk soft delete articles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count affected rows: %w", err)
	}

	return affected, nil
}

// DeactivateBySourceType deactivates all active articles of one source type.
func (r *ArticleRepositoryImpl) DeactivateBySourceType(ctx context.Context, sourceType string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET is_active = FALSE
		WHERE source_type = $1
		  AND is_active = TRUE
	`, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate %s articles: %w", sourceType, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count affected rows: %w", err)
	}

	return affected, nil
}

// DeactivateAll deactivates every active article.
func (r *ArticleRepositoryImpl) DeactivateAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET is_active = FALSE
		WHERE is_active = TRUE
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate articles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count affected rows: %w", err)
	}

	return affected, nil
}

// DeactivateOlderThan deactivates articles cached before the cutoff,
// regardless of review status.
func (r *ArticleRepositoryImpl) DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE articles
		SET is_active = FALSE
		WHERE cached_at < $1
		  AND is_active = TRUE
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate stale articles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count affected rows: %w", err)
	}

	return affected, nil
}

// CountActive returns the number of active articles.
func (r *ArticleRepositoryImpl) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles WHERE is_active = TRUE").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active articles: %w", err)
	}
	return count, nil
}

// CountActiveBySourceType returns the number of active articles of one source type.
func (r *ArticleRepositoryImpl) CountActiveBySourceType(ctx context.Context, sourceType string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE is_active = TRUE AND source_type = $1", sourceType).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s articles: %w", sourceType, err)
	}
	return count, nil
}

// CountByStatus returns the number of active articles with the given status.
func (r *ArticleRepositoryImpl) CountByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM articles WHERE is_active = TRUE AND status = $1", status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s articles: %w", status, err)
	}
	return count, nil
}

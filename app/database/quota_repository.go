package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ QuotaRepository = (*QuotaRepositoryImpl)(nil)

// QuotaRepositoryImpl handles database operations for the daily fetch quota
type QuotaRepositoryImpl struct {
	db *DB
}

// NewQuotaRepository creates a new quota repository
func NewQuotaRepository(db *DB) *QuotaRepositoryImpl {
	return &QuotaRepositoryImpl{db: db}
}

// GetCount returns the metered request count for a date. A missing row
// counts as zero.
func (r *QuotaRepositoryImpl) GetCount(ctx context.Context, date time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT request_count
		FROM daily_quota
		WHERE request_date = $1
	`, date.Format("2006-01-02")).Scan(&count)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get quota count: %w", err)
	}

	return count, nil
}

// TryIncrement atomically checks today's counter against the ceiling and
// increments it in a single statement. The conditional update on a unique
// row makes concurrent callers serialize on the row lock, so two racing
// cycles cannot jointly breach the ceiling.
func (r *QuotaRepositoryImpl) TryIncrement(ctx context.Context, date time.Time, ceiling int) (bool, error) {
	if ceiling <= 0 {
		return false, nil
	}

	var count int
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO daily_quota (request_date, request_count)
		VALUES ($1, 1)
		ON CONFLICT (request_date) DO UPDATE
		SET request_count = daily_quota.request_count + 1
		WHERE daily_quota.request_count < $2
		RETURNING request_count
	`, date.Format("2006-01-02"), ceiling).Scan(&count)

	if err == sql.ErrNoRows {
		// Ceiling reached; no increment happened.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to increment quota: %w", err)
	}

	return true, nil
}

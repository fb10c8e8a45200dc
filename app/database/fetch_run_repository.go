package database

import (
	"context"
	"fmt"
)

var _ FetchRunRepository = (*FetchRunRepositoryImpl)(nil)

// FetchRunRepositoryImpl handles database operations for fetch run audit records
type FetchRunRepositoryImpl struct {
	db *DB
}

// NewFetchRunRepository creates a new fetch run repository
func NewFetchRunRepository(db *DB) *FetchRunRepositoryImpl {
	return &FetchRunRepositoryImpl{db: db}
}

// InsertRun records one admin-triggered ingestion batch.
func (r *FetchRunRepositoryImpl) InsertRun(ctx context.Context, run FetchRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fetch_runs (id, requested_by, fetched_count, approved_count, rejected_count)
		VALUES ($1, $2, $3, $4, $5)
	`, run.ID, run.RequestedBy, run.FetchedCount, run.ApprovedCount, run.RejectedCount)

	if err != nil {
		return fmt.Errorf("failed to insert fetch run: %w", err)
	}

	return nil
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/goodfeed/goodfeed/app/database"
	"github.com/goodfeed/goodfeed/app/sources"
)

// Recognized non-error outcomes of an ingestion cycle.
var (
	ErrQuotaExceeded = errors.New("daily fetch quota exceeded")
	ErrNoCandidates  = errors.New("no candidates fetched from any source")
)

// Service runs ingestion cycles: fetch candidates, persist them with the
// status the entry path dictates, and retire stale records.
type Service struct {
	aggregator    *Aggregator
	articleRepo   database.ArticleRepository
	quotaRepo     database.QuotaRepository
	fetchRunRepo  database.FetchRunRepository
	dailyCeiling  int
	retentionDays int
	fetchMin      int
	fetchMax      int
	now           func() time.Time
}

func NewService(aggregator *Aggregator, articleRepo database.ArticleRepository,
	quotaRepo database.QuotaRepository, fetchRunRepo database.FetchRunRepository,
	dailyCeiling, retentionDays, fetchMin, fetchMax int) *Service {
	return &Service{
		aggregator:    aggregator,
		articleRepo:   articleRepo,
		quotaRepo:     quotaRepo,
		fetchRunRepo:  fetchRunRepo,
		dailyCeiling:  dailyCeiling,
		retentionDays: retentionDays,
		fetchMin:      fetchMin,
		fetchMax:      fetchMax,
		now:           time.Now,
	}
}

// RefreshCache runs one scheduled ingestion cycle: the quota counter is
// checked and incremented atomically before any source is contacted, the
// aggregated candidates are stored auto-approved, and articles past the
// retention window are deactivated in the same transaction.
func (s *Service) RefreshCache(ctx context.Context) error {
	now := s.now().UTC()

	allowed, err := s.quotaRepo.TryIncrement(ctx, now, s.dailyCeiling)
	if err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}
	if !allowed {
		return ErrQuotaExceeded
	}

	candidates := s.aggregator.Fetch(ctx, s.fetchMax)
	if len(candidates) == 0 {
		return ErrNoCandidates
	}

	articles := s.toArticles(candidates, database.StatusApproved, nil)
	cutoff := now.AddDate(0, 0, -s.retentionDays)

	stored, swept, err := s.articleRepo.StoreBatchAndSweep(ctx, articles, cutoff)
	if err != nil {
		return fmt.Errorf("failed to store ingestion batch: %w", err)
	}

	slog.Info("Cache refresh completed", "stored", stored, "swept", swept)

	return nil
}

// FetchForReview runs one admin-triggered ingestion batch, counting
// against the same daily quota as the scheduled cycle. Fetched candidates
// are stored pending review, and a fetch run audit record is written.
// The requested count is clamped to the configured range.
func (s *Service) FetchForReview(ctx context.Context, requestedCount int, requestedBy string) (int, error) {
	count := clamp(requestedCount, s.fetchMin, s.fetchMax)

	allowed, err := s.quotaRepo.TryIncrement(ctx, s.now().UTC(), s.dailyCeiling)
	if err != nil {
		return 0, fmt.Errorf("failed to check fetch quota: %w", err)
	}
	if !allowed {
		return 0, ErrQuotaExceeded
	}

	candidates := s.aggregator.Fetch(ctx, count)
	if len(candidates) == 0 {
		return 0, ErrNoCandidates
	}

	articles := s.toArticles(candidates, database.StatusPending, &requestedBy)

	stored, err := s.articleRepo.StoreBatch(ctx, articles)
	if err != nil {
		return 0, fmt.Errorf("failed to store review batch: %w", err)
	}

	run := database.FetchRun{
		ID:           uuid.NewString(),
		RequestedBy:  requestedBy,
		FetchedCount: stored,
	}
	if err := s.fetchRunRepo.InsertRun(ctx, run); err != nil {
		// The batch is already committed; losing the audit row is not
		// worth failing the fetch over.
		slog.Warn("Failed to record fetch run", "requested_by", requestedBy, "error", err)
	}

	slog.Info("Review fetch completed", "requested_by", requestedBy, "requested", requestedCount, "stored", stored)

	return stored, nil
}

// QuotaUsedToday returns today's metered request count.
func (s *Service) QuotaUsedToday(ctx context.Context) (int, error) {
	return s.quotaRepo.GetCount(ctx, s.now().UTC())
}

func (s *Service) toArticles(candidates []sources.Candidate, status string, addedBy *string) []database.Article {
	articles := make([]database.Article, 0, len(candidates))
	for _, c := range candidates {
		articles = append(articles, database.Article{
			ID:          uuid.NewString(),
			Title:       c.Title,
			Description: c.Description,
			Content:     c.Content,
			ImageURL:    c.ImageURL,
			PublishedAt: c.PublishedAt,
			SourceName:  c.SourceName,
			SourceURL:   c.SourceURL,
			IsActive:    true,
			SourceType:  database.SourceTypeAuto,
			Status:      status,
			AddedBy:     addedBy,
		})
	}
	return articles
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

package moderation

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goodfeed/goodfeed/app/database"
)

var ErrMissingFields = errors.New("title and source url are required")

// ManualArticle carries the admin-supplied fields for a manually added
// article. Everything except Title and SourceURL is optional.
type ManualArticle struct {
	Title       string
	Description string
	Content     string
	ImageURL    string
	SourceName  string
	SourceURL   string
}

// Stats summarizes the active article pool for the admin dashboard.
type Stats struct {
	TotalActive   int `json:"total_active"`
	ManualActive  int `json:"manual_active"`
	AutoActive    int `json:"auto_active"`
	PendingReview int `json:"pending_review"`
}

// Service implements the review state machine and the manual entry paths
// on top of the article repository.
type Service struct {
	articleRepo database.ArticleRepository
	now         func() time.Time
}

func NewService(articleRepo database.ArticleRepository) *Service {
	return &Service{
		articleRepo: articleRepo,
		now:         time.Now,
	}
}

// Approve moves a pending article to approved and stamps the reviewer.
// Returns false when the article is missing or not pending.
func (s *Service) Approve(ctx context.Context, articleID, reviewerID string) (bool, error) {
	return s.articleRepo.Approve(ctx, articleID, reviewerID)
}

// Reject moves a pending article to rejected, deactivates it and stamps
// the reviewer. Returns false when the article is missing or not pending.
func (s *Service) Reject(ctx context.Context, articleID, reviewerID string) (bool, error) {
	return s.articleRepo.Reject(ctx, articleID, reviewerID)
}

// BulkApprove applies Approve across the given ids and returns the number
// of articles that actually transitioned. Individual failures are logged
// and do not abort the batch.
func (s *Service) BulkApprove(ctx context.Context, articleIDs []string, reviewerID string) (int, error) {
	return s.bulkResolve(ctx, articleIDs, reviewerID, s.articleRepo.Approve)
}

// BulkReject is the rejecting counterpart of BulkApprove.
func (s *Service) BulkReject(ctx context.Context, articleIDs []string, reviewerID string) (int, error) {
	return s.bulkResolve(ctx, articleIDs, reviewerID, s.articleRepo.Reject)
}

func (s *Service) bulkResolve(ctx context.Context, articleIDs []string, reviewerID string,
	resolve func(context.Context, string, string) (bool, error)) (int, error) {
	resolved := 0
	for _, id := range articleIDs {
		ok, err := resolve(ctx, id, reviewerID)
		if err != nil {
			slog.Warn("Bulk review item failed", "article_id", id, "error", err)
			continue
		}
		if ok {
			resolved++
		}
	}
	return resolved, nil
}

// SoftDelete deactivates an article without touching its review status.
func (s *Service) SoftDelete(ctx context.Context, articleID string) (bool, error) {
	return s.articleRepo.SoftDelete(ctx, articleID)
}

// SoftDeleteBulk deactivates all given articles, returning how many rows
// actually changed.
func (s *Service) SoftDeleteBulk(ctx context.Context, articleIDs []string) (int64, error) {
	return s.articleRepo.SoftDeleteBulk(ctx, articleIDs)
}

// ManualAdd stores an admin-entered article as immediately approved.
func (s *Service) ManualAdd(ctx context.Context, input ManualArticle, addedBy string) (*database.Article, error) {
	return s.addManual(ctx, input, addedBy, database.StatusApproved)
}

// SubmitForReview stores an admin-entered article as pending so a second
// reviewer can resolve it.
func (s *Service) SubmitForReview(ctx context.Context, input ManualArticle, addedBy string) (*database.Article, error) {
	return s.addManual(ctx, input, addedBy, database.StatusPending)
}

func (s *Service) addManual(ctx context.Context, input ManualArticle, addedBy, status string) (*database.Article, error) {
	article, err := s.buildArticle(input, addedBy, status)
	if err != nil {
		return nil, err
	}

	if err := s.articleRepo.InsertArticle(ctx, *article); err != nil {
		return nil, fmt.Errorf("failed to store manual article: %w", err)
	}

	slog.Info("Manual article stored", "article_id", article.ID, "status", status, "added_by", addedBy)

	return article, nil
}

func (s *Service) buildArticle(input ManualArticle, addedBy, status string) (*database.Article, error) {
	title := strings.TrimSpace(input.Title)
	sourceURL := strings.TrimSpace(input.SourceURL)
	if title == "" || sourceURL == "" {
		return nil, ErrMissingFields
	}

	description := strings.TrimSpace(input.Description)
	content := strings.TrimSpace(input.Content)
	if content == "" {
		content = description
	}
	sourceName := strings.TrimSpace(input.SourceName)
	if sourceName == "" {
		sourceName = "Manual Entry"
	}

	now := s.now().UTC()
	active := status != database.StatusRejected

	return &database.Article{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Content:     content,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		PublishedAt: &now,
		SourceName:  sourceName,
		SourceURL:   sourceURL,
		CachedAt:    now,
		IsActive:    active,
		SourceType:  database.SourceTypeManual,
		Status:      status,
		AddedBy:     &addedBy,
	}, nil
}

// ImportCSV reads a CSV document with a header row and stores every valid
// row as a pending manual article. Recognized columns are title, url (or
// source_url), description, content, source_name and image_url. Rows
// without a title or URL are skipped. Returns the number of imported rows.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader, addedBy string) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["url"]; !ok {
		if i, ok := columns["source_url"]; ok {
			columns["url"] = i
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var articles []database.Article
	skipped := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read CSV row: %w", err)
		}

		article, err := s.buildArticle(ManualArticle{
			Title:       field(record, "title"),
			Description: field(record, "description"),
			Content:     field(record, "content"),
			ImageURL:    field(record, "image_url"),
			SourceName:  field(record, "source_name"),
			SourceURL:   field(record, "url"),
		}, addedBy, database.StatusPending)
		if err != nil {
			skipped++
			continue
		}

		articles = append(articles, *article)
	}

	if skipped > 0 {
		slog.Warn("Skipped invalid CSV rows", "count", skipped)
	}

	if len(articles) == 0 {
		return 0, nil
	}

	stored, err := s.articleRepo.StoreBatch(ctx, articles)
	if err != nil {
		return 0, fmt.Errorf("failed to store imported articles: %w", err)
	}

	slog.Info("CSV import completed", "imported", stored, "skipped", skipped, "added_by", addedBy)

	return stored, nil
}

// List returns one page of articles for the moderation screens. An empty
// statusFilter lists all active articles.
func (s *Service) List(ctx context.Context, page, pageSize int, statusFilter string) ([]database.Article, error) {
	if page < 1 {
		page = 1
	}
	return s.articleRepo.ListActive(ctx, page, pageSize, statusFilter)
}

// DeactivateBySourceType soft-deletes every active article of the given
// source type (auto or manual).
func (s *Service) DeactivateBySourceType(ctx context.Context, sourceType string) (int64, error) {
	if sourceType != database.SourceTypeAuto && sourceType != database.SourceTypeManual {
		return 0, fmt.Errorf("unknown source type: %s", sourceType)
	}
	return s.articleRepo.DeactivateBySourceType(ctx, sourceType)
}

// DeactivateAll soft-deletes every active article.
func (s *Service) DeactivateAll(ctx context.Context) (int64, error) {
	return s.articleRepo.DeactivateAll(ctx)
}

// GetStats collects the dashboard counters.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	total, err := s.articleRepo.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active articles: %w", err)
	}

	manual, err := s.articleRepo.CountActiveBySourceType(ctx, database.SourceTypeManual)
	if err != nil {
		return nil, fmt.Errorf("failed to count manual articles: %w", err)
	}

	auto, err := s.articleRepo.CountActiveBySourceType(ctx, database.SourceTypeAuto)
	if err != nil {
		return nil, fmt.Errorf("failed to count auto articles: %w", err)
	}

	pending, err := s.articleRepo.CountByStatus(ctx, database.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending articles: %w", err)
	}

	return &Stats{
		TotalActive:   total,
		ManualActive:  manual,
		AutoActive:    auto,
		PendingReview: pending,
	}, nil
}

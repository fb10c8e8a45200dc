package api

import (
	"time"

	"github.com/goodfeed/goodfeed/app/database"
	"github.com/goodfeed/goodfeed/app/ingest"
	"github.com/goodfeed/goodfeed/app/moderation"
	"github.com/goodfeed/goodfeed/app/tasks"
)

// humanDateFormat is the reader-facing publish date format.
const humanDateFormat = "January 2, 2006"

type Handler struct {
	ingestService     *ingest.Service
	moderationService *moderation.Service
	scheduler         tasks.TaskSchedulerInterface
	pageSize          int
	sourceCount       int
}

// articleResponse is the public serialization of an article.
type articleResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url"`
	PublishedAt string `json:"published_at"`
	SourceName  string `json:"source_name"`
	SourceURL   string `json:"source_url"`
}

// moderationArticleResponse adds the review bookkeeping fields the admin
// screens need on top of the public shape.
type moderationArticleResponse struct {
	articleResponse
	Status     string  `json:"status"`
	SourceType string  `json:"source_type"`
	IsActive   bool    `json:"is_active"`
	CachedAt   string  `json:"cached_at"`
	ReviewedBy *string `json:"reviewed_by,omitempty"`
	ReviewedAt *string `json:"reviewed_at,omitempty"`
	AddedBy    *string `json:"added_by,omitempty"`
}

type manualArticleRequest struct {
	Title       string `json:"title" binding:"required"`
	URL         string `json:"url" binding:"required"`
	Description string `json:"description"`
	Content     string `json:"content"`
	ImageURL    string `json:"image_url"`
	SourceName  string `json:"source_name"`
	AddedBy     string `json:"added_by"`
}

type fetchRequest struct {
	Count       int    `json:"count"`
	RequestedBy string `json:"requested_by"`
}

type reviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
}

type bulkReviewRequest struct {
	ArticleIDs []string `json:"article_ids" binding:"required"`
	ReviewerID string   `json:"reviewer_id"`
}

type bulkDeleteRequest struct {
	ArticleIDs []string `json:"article_ids" binding:"required"`
}

func serializeArticle(a database.Article) articleResponse {
	publishedAt := ""
	if a.PublishedAt != nil {
		publishedAt = a.PublishedAt.Format(humanDateFormat)
	}

	return articleResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		ImageURL:    a.ImageURL,
		PublishedAt: publishedAt,
		SourceName:  a.SourceName,
		SourceURL:   a.SourceURL,
	}
}

func serializeModerationArticle(a database.Article) moderationArticleResponse {
	resp := moderationArticleResponse{
		articleResponse: serializeArticle(a),
		Status:          a.Status,
		SourceType:      a.SourceType,
		IsActive:        a.IsActive,
		CachedAt:        a.CachedAt.Format(time.RFC3339),
		ReviewedBy:      a.ReviewedBy,
		AddedBy:         a.AddedBy,
	}
	if a.ReviewedAt != nil {
		s := a.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	return resp
}

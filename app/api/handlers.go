package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goodfeed/goodfeed/app/database"
	"github.com/goodfeed/goodfeed/app/ingest"
	"github.com/goodfeed/goodfeed/app/moderation"
	"github.com/goodfeed/goodfeed/app/tasks"
)

func NewHandler(ingestService *ingest.Service, moderationService *moderation.Service,
	scheduler tasks.TaskSchedulerInterface, pageSize, sourceCount int) *Handler {
	return &Handler{
		ingestService:     ingestService,
		moderationService: moderationService,
		scheduler:         scheduler,
		pageSize:          pageSize,
		sourceCount:       sourceCount,
	}
}

// GetFeed serves the public paginated feed. Only active, approved articles
// are visible here.
func (h *Handler) GetFeed(c *gin.Context) {
	page := queryInt(c, "page", 1)

	articles, err := h.moderationService.List(c.Request.Context(), page, h.pageSize, database.StatusApproved)
	if err != nil {
		slog.Error("Database error", "operation", "list_feed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, serializeArticle(a))
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":  responses,
		"page":      page,
		"page_size": h.pageSize,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   h.sourceCount,
	}

	if stats, err := h.moderationService.GetStats(c.Request.Context()); err == nil {
		health["articles"] = stats.TotalActive
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.moderationService.GetStats(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{"articles": stats}

	if used, err := h.ingestService.QuotaUsedToday(c.Request.Context()); err == nil {
		response["quota_used_today"] = used
	}

	c.JSON(http.StatusOK, response)
}

// APIFetchArticles runs an on-demand ingestion cycle and stores the result
// as pending for review.
func (h *Handler) APIFetchArticles(c *gin.Context) {
	var req fetchRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	requestedBy := req.RequestedBy
	if requestedBy == "" {
		requestedBy = "admin"
	}

	stored, err := h.ingestService.FetchForReview(c.Request.Context(), req.Count, requestedBy)
	if err != nil {
		if errors.Is(err, ingest.ErrQuotaExceeded) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Daily fetch quota exhausted"})
			return
		}
		if errors.Is(err, ingest.ErrNoCandidates) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "No articles could be fetched"})
			return
		}
		slog.Error("Fetch for review failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Fetch failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"fetched": stored,
	})
}

// APIRefreshCache enqueues an immediate cache refresh cycle instead of
// waiting for the daily schedule.
func (h *Handler) APIRefreshCache(c *gin.Context) {
	task := tasks.NewRefreshCacheTask(h.ingestService)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Failed to enqueue RefreshCacheTask", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue refresh task", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

// APIAddArticle stores a manually entered article as immediately approved.
func (h *Handler) APIAddArticle(c *gin.Context) {
	h.addManualArticle(c, h.moderationService.ManualAdd)
}

// APISubmitArticle stores a manually entered article as pending review.
func (h *Handler) APISubmitArticle(c *gin.Context) {
	h.addManualArticle(c, h.moderationService.SubmitForReview)
}

func (h *Handler) addManualArticle(c *gin.Context,
	store func(ctx context.Context, input moderation.ManualArticle, addedBy string) (*database.Article, error)) {
	var req manualArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	addedBy := req.AddedBy
	if addedBy == "" {
		addedBy = "admin"
	}

	article, err := store(c.Request.Context(), moderation.ManualArticle{
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		SourceName:  req.SourceName,
		SourceURL:   req.URL,
	}, addedBy)
	if err != nil {
		if errors.Is(err, moderation.ErrMissingFields) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title and URL are required"})
			return
		}
		slog.Error("Failed to store manual article", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"article": serializeModerationArticle(*article),
	})
}

func (h *Handler) APIListArticles(c *gin.Context) {
	page := queryInt(c, "page", 1)
	status := c.Query("status")

	if status != "" && status != database.StatusPending &&
		status != database.StatusApproved && status != database.StatusRejected {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter"})
		return
	}

	articles, err := h.moderationService.List(c.Request.Context(), page, h.pageSize, status)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]moderationArticleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, serializeModerationArticle(a))
	}

	c.JSON(http.StatusOK, gin.H{
		"articles":  responses,
		"page":      page,
		"page_size": h.pageSize,
	})
}

func (h *Handler) APIApproveArticle(c *gin.Context) {
	h.resolveArticle(c, h.moderationService.Approve)
}

func (h *Handler) APIRejectArticle(c *gin.Context) {
	h.resolveArticle(c, h.moderationService.Reject)
}

func (h *Handler) APIBulkApprove(c *gin.Context) {
	h.bulkResolve(c, h.moderationService.BulkApprove)
}

func (h *Handler) APIBulkReject(c *gin.Context) {
	h.bulkResolve(c, h.moderationService.BulkReject)
}

func (h *Handler) APIDeleteArticle(c *gin.Context) {
	id := c.Param("id")

	ok, err := h.moderationService.SoftDelete(c.Request.Context(), id)
	if err != nil {
		slog.Error("Database error", "operation", "soft_delete", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found or already deleted"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIBulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	deleted, err := h.moderationService.SoftDeleteBulk(c.Request.Context(), req.ArticleIDs)
	if err != nil {
		slog.Error("Database error", "operation", "bulk_soft_delete", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deleted": deleted,
	})
}

// APIDeactivateArticles soft-deletes the active pool, optionally narrowed
// to one source type via the source_type query parameter.
func (h *Handler) APIDeactivateArticles(c *gin.Context) {
	sourceType := c.Query("source_type")

	var (
		deactivated int64
		err         error
	)
	if sourceType == "" {
		deactivated, err = h.moderationService.DeactivateAll(c.Request.Context())
	} else {
		deactivated, err = h.moderationService.DeactivateBySourceType(c.Request.Context(), sourceType)
	}
	if err != nil {
		if sourceType != "" && sourceType != database.SourceTypeAuto && sourceType != database.SourceTypeManual {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown source type"})
			return
		}
		slog.Error("Database error", "operation", "deactivate", "source_type", sourceType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"deactivated": deactivated,
	})
}

// APIImportArticles ingests a CSV document of articles as pending manual
// entries. The document is read from an uploaded "file" field, or from the
// raw request body when no multipart form is present.
func (h *Handler) APIImportArticles(c *gin.Context) {
	addedBy := c.Query("added_by")
	if addedBy == "" {
		addedBy = "admin"
	}

	var reader io.Reader = c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		opened, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file", "details": err.Error()})
			return
		}
		defer opened.Close()
		reader = opened
	}

	imported, err := h.moderationService.ImportCSV(c.Request.Context(), reader, addedBy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Import failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imported": imported,
	})
}

func (h *Handler) resolveArticle(c *gin.Context,
	resolve func(ctx context.Context, articleID, reviewerID string) (bool, error)) {
	id := c.Param("id")

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	reviewerID := req.ReviewerID
	if reviewerID == "" {
		reviewerID = "admin"
	}

	ok, err := resolve(c.Request.Context(), id, reviewerID)
	if err != nil {
		slog.Error("Database error", "operation", "resolve_article", "article_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Article not found or not pending"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) bulkResolve(c *gin.Context,
	resolve func(ctx context.Context, articleIDs []string, reviewerID string) (int, error)) {
	var req bulkReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	reviewerID := req.ReviewerID
	if reviewerID == "" {
		reviewerID = "admin"
	}

	resolved, err := resolve(c.Request.Context(), req.ArticleIDs, reviewerID)
	if err != nil {
		slog.Error("Database error", "operation", "bulk_resolve", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"resolved":  resolved,
		"requested": len(req.ArticleIDs),
	})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}

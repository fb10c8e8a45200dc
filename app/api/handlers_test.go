package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goodfeed/goodfeed/app/database"
	"github.com/goodfeed/goodfeed/app/ingest"
	"github.com/goodfeed/goodfeed/app/moderation"
	"github.com/goodfeed/goodfeed/app/tasks"
)

const testAPIKey = "test-key"

// stubArticleRepository keeps articles in a map, enough to drive the
// handlers end to end.
type stubArticleRepository struct {
	articles map[string]*database.Article
}

func newStubArticleRepository() *stubArticleRepository {
	return &stubArticleRepository{articles: make(map[string]*database.Article)}
}

func (s *stubArticleRepository) add(article database.Article) {
	s.articles[article.ID] = &article
}

func (s *stubArticleRepository) InsertArticle(ctx context.Context, article database.Article) error {
	s.add(article)
	return nil
}

func (s *stubArticleRepository) StoreBatch(ctx context.Context, articles []database.Article) (int, error) {
	for _, a := range articles {
		s.add(a)
	}
	return len(articles), nil
}

func (s *stubArticleRepository) StoreBatchAndSweep(ctx context.Context, articles []database.Article, cutoff time.Time) (int, int64, error) {
	stored, _ := s.StoreBatch(ctx, articles)
	return stored, 0, nil
}

func (s *stubArticleRepository) GetArticleByID(ctx context.Context, id string) (*database.Article, error) {
	return s.articles[id], nil
}

func (s *stubArticleRepository) ListActive(ctx context.Context, page, pageSize int, statusFilter string) ([]database.Article, error) {
	var result []database.Article
	for _, a := range s.articles {
		if !a.IsActive {
			continue
		}
		if statusFilter != "" && a.Status != statusFilter {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (s *stubArticleRepository) Approve(ctx context.Context, id, reviewerID string) (bool, error) {
	a, ok := s.articles[id]
	if !ok || a.Status != database.StatusPending {
		return false, nil
	}
	now := time.Now()
	a.Status = database.StatusApproved
	a.ReviewedBy = &reviewerID
	a.ReviewedAt = &now
	return true, nil
}

func (s *stubArticleRepository) Reject(ctx context.Context, id, reviewerID string) (bool, error) {
	a, ok := s.articles[id]
	if !ok || a.Status != database.StatusPending {
		return false, nil
	}
	now := time.Now()
	a.Status = database.StatusRejected
	a.IsActive = false
	a.ReviewedBy = &reviewerID
	a.ReviewedAt = &now
	return true, nil
}

func (s *stubArticleRepository) SoftDelete(ctx context.Context, id string) (bool, error) {
	a, ok := s.articles[id]
	if !ok || !a.IsActive {
		return false, nil
	}
	a.IsActive = false
	return true, nil
}

func (s *stubArticleRepository) SoftDeleteBulk(ctx context.Context, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if ok, _ := s.SoftDelete(ctx, id); ok {
			deleted++
		}
	}
	return deleted, nil
}

func (s *stubArticleRepository) DeactivateBySourceType(ctx context.Context, sourceType string) (int64, error) {
	var deactivated int64
	for _, a := range s.articles {
		if a.IsActive && a.SourceType == sourceType {
			a.IsActive = false
			deactivated++
		}
	}
	return deactivated, nil
}

func (s *stubArticleRepository) DeactivateAll(ctx context.Context) (int64, error) {
	var deactivated int64
	for _, a := range s.articles {
		if a.IsActive {
			a.IsActive = false
			deactivated++
		}
	}
	return deactivated, nil
}

func (s *stubArticleRepository) DeactivateOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (s *stubArticleRepository) CountActive(ctx context.Context) (int, error) {
	count := 0
	for _, a := range s.articles {
		if a.IsActive {
			count++
		}
	}
	return count, nil
}

func (s *stubArticleRepository) CountActiveBySourceType(ctx context.Context, sourceType string) (int, error) {
	count := 0
	for _, a := range s.articles {
		if a.IsActive && a.SourceType == sourceType {
			count++
		}
	}
	return count, nil
}

func (s *stubArticleRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	count := 0
	for _, a := range s.articles {
		if a.IsActive && a.Status == status {
			count++
		}
	}
	return count, nil
}

type stubQuotaRepository struct {
	count int
}

func (s *stubQuotaRepository) GetCount(ctx context.Context, date time.Time) (int, error) {
	return s.count, nil
}

func (s *stubQuotaRepository) TryIncrement(ctx context.Context, date time.Time, ceiling int) (bool, error) {
	if s.count >= ceiling {
		return false, nil
	}
	s.count++
	return true, nil
}

type stubFetchRunRepository struct{}

func (s *stubFetchRunRepository) InsertRun(ctx context.Context, run database.FetchRun) error {
	return nil
}

type stubScheduler struct {
	enqueued []tasks.TaskInterface
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}

func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	s.enqueued = append(s.enqueued, task)
	return nil
}

func newTestServer(repo *stubArticleRepository) (*gin.Engine, *stubScheduler) {
	ingestService := ingest.NewService(ingest.NewAggregator(nil), repo,
		&stubQuotaRepository{}, &stubFetchRunRepository{}, 90, 7, 10, 50)
	moderationService := moderation.NewService(repo)
	scheduler := &stubScheduler{}

	handler := NewHandler(ingestService, moderationService, scheduler, 5, 0)
	return NewServer(handler, testAPIKey), scheduler
}

func adminRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-API-Key", testAPIKey)
	return req
}

func approvedArticle(id string) database.Article {
	published := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return database.Article{
		ID:          id,
		Title:       "Good news story",
		Description: "Something uplifting happened.",
		PublishedAt: &published,
		SourceName:  "Positive News",
		SourceURL:   "https://example.com/" + id,
		CachedAt:    published,
		IsActive:    true,
		SourceType:  database.SourceTypeAuto,
		Status:      database.StatusApproved,
	}
}

func TestGetFeedListsApprovedOnly(t *testing.T) {
	repo := newStubArticleRepository()
	repo.add(approvedArticle("a1"))
	pending := approvedArticle("p1")
	pending.Status = database.StatusPending
	repo.add(pending)
	inactive := approvedArticle("d1")
	inactive.IsActive = false
	repo.add(inactive)

	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/feed", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response struct {
		Articles []articleResponse `json:"articles"`
		Page     int               `json:"page"`
		PageSize int               `json:"page_size"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}

	if len(response.Articles) != 1 {
		t.Fatalf("Expected 1 article, got %d", len(response.Articles))
	}
	if response.Articles[0].ID != "a1" {
		t.Errorf("Expected article a1, got %s", response.Articles[0].ID)
	}
	if response.Articles[0].PublishedAt != "March 15, 2024" {
		t.Errorf("Expected human-formatted date, got %q", response.Articles[0].PublishedAt)
	}
	if response.PageSize != 5 {
		t.Errorf("Expected page size 5, got %d", response.PageSize)
	}
}

func TestAdminEndpointsRequireAPIKey(t *testing.T) {
	server, _ := newTestServer(newStubArticleRepository())

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"missing key", func(r *http.Request) {}, http.StatusUnauthorized},
		{"wrong key", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, http.StatusUnauthorized},
		{"valid key", func(r *http.Request) { r.Header.Set("X-API-Key", testAPIKey) }, http.StatusOK},
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+testAPIKey) }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/articles", nil)
			tt.setup(req)

			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)

			if w.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, w.Code)
			}
		})
	}
}

func TestApproveArticleEndpoint(t *testing.T) {
	repo := newStubArticleRepository()
	pending := approvedArticle("p1")
	pending.Status = database.StatusPending
	repo.add(pending)

	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/articles/p1/approve", `{"reviewer_id":"rev-1"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	a := repo.articles["p1"]
	if a.Status != database.StatusApproved {
		t.Errorf("Expected approved status, got %q", a.Status)
	}
	if a.ReviewedBy == nil || *a.ReviewedBy != "rev-1" {
		t.Error("Expected reviewer stamp")
	}
}

func TestApproveNonPendingReturnsConflict(t *testing.T) {
	repo := newStubArticleRepository()
	repo.add(approvedArticle("a1"))

	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/articles/a1/approve", ""))

	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestBulkApproveReportsResolvedCount(t *testing.T) {
	repo := newStubArticleRepository()
	pending := approvedArticle("p1")
	pending.Status = database.StatusPending
	repo.add(pending)
	repo.add(approvedArticle("a1"))

	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/articles/approve",
		`{"article_ids":["p1","a1","missing"],"reviewer_id":"rev-1"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Resolved  int `json:"resolved"`
		Requested int `json:"requested"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Resolved != 1 {
		t.Errorf("Expected 1 resolved, got %d", response.Resolved)
	}
	if response.Requested != 3 {
		t.Errorf("Expected 3 requested, got %d", response.Requested)
	}
}

func TestAddArticleEndpoint(t *testing.T) {
	repo := newStubArticleRepository()
	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/articles",
		`{"title":"Community garden opens","url":"https://example.com/garden","added_by":"admin-1"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if len(repo.articles) != 1 {
		t.Fatalf("Expected 1 stored article, got %d", len(repo.articles))
	}
	for _, a := range repo.articles {
		if a.Status != database.StatusApproved {
			t.Errorf("Expected approved status, got %q", a.Status)
		}
		if a.SourceType != database.SourceTypeManual {
			t.Errorf("Expected manual source type, got %q", a.SourceType)
		}
	}
}

func TestAddArticleValidation(t *testing.T) {
	server, _ := newTestServer(newStubArticleRepository())

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/articles", `{"title":"No URL"}`))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestSubmitArticleStoresPending(t *testing.T) {
	repo := newStubArticleRepository()
	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/articles/submit",
		`{"title":"Story","url":"https://example.com/story"}`))

	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	for _, a := range repo.articles {
		if a.Status != database.StatusPending {
			t.Errorf("Expected pending status, got %q", a.Status)
		}
	}
}

func TestImportArticlesEndpoint(t *testing.T) {
	repo := newStubArticleRepository()
	server, _ := newTestServer(repo)

	csv := "title,url\nSolar record,https://example.com/solar\nReef recovery,https://example.com/reef\n"
	req := httptest.NewRequest("POST", "/api/articles/import", strings.NewReader(csv))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("X-API-Key", testAPIKey)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Imported int `json:"imported"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", response.Imported)
	}
}

func TestDeleteArticleEndpoint(t *testing.T) {
	repo := newStubArticleRepository()
	repo.add(approvedArticle("a1"))

	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("DELETE", "/api/articles/a1", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if repo.articles["a1"].IsActive {
		t.Error("Expected article to be inactive")
	}

	w = httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("DELETE", "/api/articles/a1", ""))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}
}

func TestDeactivateArticlesEndpoint(t *testing.T) {
	repo := newStubArticleRepository()
	repo.add(approvedArticle("auto1"))
	manual := approvedArticle("man1")
	manual.SourceType = database.SourceTypeManual
	repo.add(manual)

	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/articles/deactivate?source_type=auto", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if repo.articles["auto1"].IsActive {
		t.Error("Auto article should be inactive")
	}
	if !repo.articles["man1"].IsActive {
		t.Error("Manual article should be untouched")
	}
}

func TestDeactivateUnknownSourceType(t *testing.T) {
	server, _ := newTestServer(newStubArticleRepository())

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/articles/deactivate?source_type=bogus", ""))

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestRefreshEndpointEnqueuesTask(t *testing.T) {
	server, scheduler := newTestServer(newStubArticleRepository())

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/refresh", ""))

	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", w.Code)
	}
	if len(scheduler.enqueued) != 1 {
		t.Fatalf("Expected 1 enqueued task, got %d", len(scheduler.enqueued))
	}
	if scheduler.enqueued[0].GetType() != tasks.TaskTypeRefreshCache {
		t.Errorf("Expected refresh task, got %s", scheduler.enqueued[0].GetType())
	}
}

func TestFetchEndpointDeclinedAtQuota(t *testing.T) {
	repo := newStubArticleRepository()
	ingestService := ingest.NewService(ingest.NewAggregator(nil), repo,
		&stubQuotaRepository{count: 90}, &stubFetchRunRepository{}, 90, 7, 10, 50)
	handler := NewHandler(ingestService, moderation.NewService(repo), &stubScheduler{}, 5, 0)
	server := NewServer(handler, testAPIKey)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, adminRequest("POST", "/api/fetch", `{"count":20}`))

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	repo := newStubArticleRepository()
	repo.add(approvedArticle("a1"))
	pending := approvedArticle("p1")
	pending.Status = database.StatusPending
	repo.add(pending)

	server, _ := newTestServer(repo)

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response struct {
		Articles struct {
			TotalActive   int `json:"total_active"`
			PendingReview int `json:"pending_review"`
		} `json:"articles"`
		QuotaUsedToday int `json:"quota_used_today"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatal(err)
	}
	if response.Articles.TotalActive != 2 {
		t.Errorf("Expected 2 active articles, got %d", response.Articles.TotalActive)
	}
	if response.Articles.PendingReview != 1 {
		t.Errorf("Expected 1 pending article, got %d", response.Articles.PendingReview)
	}
}

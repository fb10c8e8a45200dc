package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	newsAPIPageSize   = 100
	newsAPIMaxResults = 50
)

// Query used against the /everything endpoint. NewsAPI limits query
// complexity, so this is a shorter vocabulary than the screening filter.
const newsAPIQuery = "rescued OR hero OR miracle OR heartwarming OR donate OR charity OR " +
	"volunteer OR cure OR breakthrough OR discovery OR celebration OR " +
	"award OR inspiring OR kindness OR reunited OR adopted OR hope"

var _ Source = (*NewsAPISource)(nil)

// NewsAPISource fetches candidates from the NewsAPI.org /everything
// endpoint. This is the quota-metered source; fetched entries are screened
// through the positivity filter before they leave the adapter.
type NewsAPISource struct {
	name       string
	baseURL    string
	apiKey     string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	filter     *Filter
}

func NewNewsAPISource(name, baseURL, apiKey string, timeout time.Duration, userAgent string, httpClient *http.Client, filter *Filter) *NewsAPISource {
	return &NewsAPISource{
		name:       name,
		baseURL:    baseURL,
		apiKey:     apiKey,
		timeout:    timeout,
		userAgent:  userAgent,
		httpClient: httpClient,
		filter:     filter,
	}
}

func (s *NewsAPISource) Name() string {
	return s.name
}

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	URL         string `json:"url"`
	Source      struct {
		Name string `json:"name"`
	} `json:"source"`
}

func (s *NewsAPISource) Fetch(ctx context.Context) ([]Candidate, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("news API key not configured")
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/everything", s.baseURL)
	params := url.Values{}
	params.Set("q", newsAPIQuery)
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", fmt.Sprintf("%d", newsAPIPageSize))
	params.Set("apiKey", s.apiKey)

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("news API rate limit exceeded")
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("news API key rejected")
	default:
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload newsAPIResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if payload.Status != "ok" {
		return nil, fmt.Errorf("news API returned error: %s", payload.Message)
	}

	candidates := make([]Candidate, 0, len(payload.Articles))
	for _, article := range payload.Articles {
		candidate, ok := s.normalizeArticle(article)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
		if len(candidates) >= newsAPIMaxResults {
			break
		}
	}

	return candidates, nil
}

func (s *NewsAPISource) normalizeArticle(article newsAPIArticle) (Candidate, bool) {
	title := strings.TrimSpace(article.Title)
	link := strings.TrimSpace(article.URL)
	if title == "" || link == "" {
		return Candidate{}, false
	}

	if s.filter != nil && !s.filter.Accept(title, article.Description) {
		return Candidate{}, false
	}

	sourceName := article.Source.Name
	if sourceName == "" {
		sourceName = s.name
	}

	return Candidate{
		Title:       title,
		Description: truncate(stripMarkup(article.Description), maxDescriptionLength),
		Content:     truncate(stripMarkup(article.Content), maxContentLength),
		ImageURL:    article.URLToImage,
		PublishedAt: parsePublishedAt(article.PublishedAt),
		SourceName:  sourceName,
		SourceURL:   link,
	}, true
}

// parsePublishedAt parses the ISO 8601 timestamp NewsAPI returns. A
// missing or malformed timestamp yields nil; candidates without a usable
// time sort last in the aggregator.
func parsePublishedAt(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

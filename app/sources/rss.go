package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

var _ Source = (*RSSSource)(nil)

// RSSSource fetches and normalizes one RSS/Atom feed.
type RSSSource struct {
	name       string
	url        string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	parser     *gofeed.Parser
	now        func() time.Time
}

func NewRSSSource(name, url string, timeout time.Duration, userAgent string, httpClient *http.Client) *RSSSource {
	return &RSSSource{
		name:       name,
		url:        url,
		timeout:    timeout,
		userAgent:  userAgent,
		httpClient: httpClient,
		parser:     gofeed.NewParser(),
		now:        time.Now,
	}
}

func (s *RSSSource) Name() string {
	return s.name
}

func (s *RSSSource) Fetch(ctx context.Context) ([]Candidate, error) {
	data, err := s.download(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	return s.parse(data)
}

func (s *RSSSource) download(ctx context.Context) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

func (s *RSSSource) parse(data []byte) ([]Candidate, error) {
	feed, err := s.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	candidates := make([]Candidate, 0, len(feed.Items))
	for _, item := range feed.Items {
		candidate, ok := s.normalizeEntry(item)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// normalizeEntry converts a single feed entry into a Candidate. Entries
// without a title or link are discarded, not treated as errors.
func (s *RSSSource) normalizeEntry(item *gofeed.Item) (Candidate, bool) {
	title := strings.TrimSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return Candidate{}, false
	}

	description := stripMarkup(item.Description)

	content := stripMarkup(item.Content)
	if content == "" {
		content = description
	}

	publishedAt := s.resolvePublishedAt(item)

	return Candidate{
		Title:       title,
		Description: truncate(description, maxDescriptionLength),
		Content:     truncate(content, maxContentLength),
		ImageURL:    resolveImageURL(item),
		PublishedAt: &publishedAt,
		SourceName:  s.name,
		SourceURL:   link,
	}, true
}

// resolvePublishedAt prefers the published date, falls back to the updated
// date, and finally to the current time.
func (s *RSSSource) resolvePublishedAt(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	return s.now().UTC()
}

// resolveImageURL picks a best-effort entry image: media:content, then
// media:thumbnail, then the first enclosure with an image MIME type.
// Absence is not an error.
func resolveImageURL(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, ext := range media["content"] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
		for _, ext := range media["thumbnail"] {
			if url := ext.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	for _, enclosure := range item.Enclosures {
		if enclosure == nil {
			continue
		}
		if strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	return ""
}

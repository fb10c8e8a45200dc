package sources

import (
	"context"
	"time"
)

const (
	maxDescriptionLength = 500
	maxContentLength     = 1000
)

// Candidate is a normalized article candidate produced by a source adapter.
// Persistence and status assignment happen downstream.
type Candidate struct {
	Title       string
	Description string
	Content     string
	ImageURL    string
	PublishedAt *time.Time
	SourceName  string
	SourceURL   string
}

// Source is implemented once per physical feed source. A source that is
// unreachable or unparseable returns an error; individual malformed
// entries are skipped without failing the whole fetch.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

package ingest

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/goodfeed/goodfeed/app/sources"
)

// Aggregator runs every configured source adapter and merges their output.
// A failing source never suppresses output from the others.
type Aggregator struct {
	sources []sources.Source
}

func NewAggregator(srcs []sources.Source) *Aggregator {
	return &Aggregator{sources: srcs}
}

// SourceCount returns the number of configured sources.
func (a *Aggregator) SourceCount() int {
	return len(a.sources)
}

// Fetch runs all sources concurrently, sorts the combined candidates by
// published time descending (candidates without a usable timestamp sort
// last), and truncates to maxArticles.
func (a *Aggregator) Fetch(ctx context.Context, maxArticles int) []sources.Candidate {
	var mu sync.Mutex
	var all []sources.Candidate

	var wg sync.WaitGroup
	for _, source := range a.sources {
		wg.Add(1)
		go func(src sources.Source) {
			defer wg.Done()

			candidates, err := src.Fetch(ctx)
			if err != nil {
				slog.Warn("Source fetch failed, skipping", "source", src.Name(), "error", err)
				return
			}

			slog.Debug("Source fetch completed", "source", src.Name(), "candidates", len(candidates))

			mu.Lock()
			all = append(all, candidates...)
			mu.Unlock()
		}(source)
	}
	wg.Wait()

	sort.SliceStable(all, func(i, j int) bool {
		return publishedOrNever(all[i]).After(publishedOrNever(all[j]))
	})

	if maxArticles > 0 && len(all) > maxArticles {
		all = all[:maxArticles]
	}

	return all
}

func publishedOrNever(c sources.Candidate) time.Time {
	if c.PublishedAt == nil {
		return time.Time{}
	}
	return *c.PublishedAt
}

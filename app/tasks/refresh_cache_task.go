package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goodfeed/goodfeed/app/ingest"
)

type RefreshCacheTask struct {
	Task
	ingestService *ingest.Service
}

func NewRefreshCacheTask(ingestService *ingest.Service) *RefreshCacheTask {
	return &RefreshCacheTask{
		Task:          NewTask(TaskTypeRefreshCache),
		ingestService: ingestService,
	}
}

func (t *RefreshCacheTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	err := t.ingestService.RefreshCache(ctx)
	if err != nil {
		// A spent quota or an empty fetch will not resolve within the
		// retry window, so these are logged and dropped.
		if errors.Is(err, ingest.ErrQuotaExceeded) || errors.Is(err, ingest.ErrNoCandidates) {
			slog.Warn("Cache refresh skipped", "id", t.GetID(), "reason", err)
			return nil
		}
		return fmt.Errorf("failed to refresh cache: %w", err)
	}

	slog.Info("Task completed",
		"type", "RefreshCache",
		"id", t.GetID(),
		"duration", t.GetDuration())

	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodfeed/goodfeed/app/api"
	"github.com/goodfeed/goodfeed/app/cfg"
	"github.com/goodfeed/goodfeed/app/config"
	"github.com/goodfeed/goodfeed/app/database"
	"github.com/goodfeed/goodfeed/app/ingest"
	"github.com/goodfeed/goodfeed/app/moderation"
	"github.com/goodfeed/goodfeed/app/sources"
	"github.com/goodfeed/goodfeed/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting GoodFeed server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	sourceConfigs, err := config.NewLoader(appCfg.SourcesDir).LoadAll()
	if err != nil {
		slog.Error("Failed to load source configurations", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded source configurations", "count", len(sourceConfigs))

	httpClient := &http.Client{}
	articleSources := buildSources(appCfg, sourceConfigs, httpClient)
	if len(articleSources) == 0 {
		slog.Warn("No article sources configured, ingestion cycles will store nothing")
	}

	articleRepo := database.NewArticleRepository(db)
	quotaRepo := database.NewQuotaRepository(db)
	fetchRunRepo := database.NewFetchRunRepository(db)

	aggregator := ingest.NewAggregator(articleSources)
	ingestService := ingest.NewService(aggregator, articleRepo, quotaRepo, fetchRunRepo,
		appCfg.DailyCeiling, appCfg.RetentionDays, appCfg.FetchMin, appCfg.FetchMax)
	moderationService := moderation.NewService(articleRepo)

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "refresh_hour", appCfg.RefreshHour)
	scheduler := tasks.NewScheduler(ingestService)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(ingestService, moderationService, scheduler,
		appCfg.PageSize, aggregator.SourceCount())
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer
	slog.Info("GoodFeed server shutdown complete")
}

// buildSources turns the loaded source configurations into fetchers. The
// metered NewsAPI source is added only when an API key is configured; it
// is the one source that applies the positive-news keyword filter.
func buildSources(appCfg *cfg.Cfg, sourceConfigs map[string]*config.SourceConfig,
	httpClient *http.Client) []sources.Source {
	var result []sources.Source

	for name, sc := range sourceConfigs {
		if !sc.Settings.Enabled {
			slog.Debug("Source disabled, skipping", "source", name)
			continue
		}

		switch sc.Type {
		case config.SourceTypeRSS:
			result = append(result, sources.NewRSSSource(sc.Name, sc.URL,
				sc.Settings.GetTimeout(), appCfg.UserAgent, httpClient))
		case config.SourceTypeNewsAPI:
			if appCfg.NewsAPIKey == "" {
				slog.Warn("NewsAPI source configured but no API key set, skipping", "source", name)
				continue
			}
			result = append(result, sources.NewNewsAPISource(sc.Name, appCfg.NewsAPIBaseURL,
				appCfg.NewsAPIKey, sc.Settings.GetTimeout(), appCfg.UserAgent, httpClient,
				sources.NewFilter()))
		}

		slog.Info("Registered article source", "source", sc.Name, "type", sc.Type)
	}

	return result
}

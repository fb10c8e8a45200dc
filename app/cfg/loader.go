package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBHost     string `long:"db-host" env:"DB_HOST" default:"localhost" description:"Database host"`
	DBPort     string `long:"db-port" env:"DB_PORT" default:"5432" description:"Database port"`
	DBUser     string `long:"db-user" env:"DB_USER" default:"goodfeed_user" description:"Database user"`
	DBPassword string `long:"db-password" env:"DB_PASSWORD" default:"goodfeed_password" description:"Database password (required)" required:"true"`
	DBName     string `long:"db-name" env:"DB_NAME" default:"goodfeed" description:"Database name"`

	// Application configuration
	SourcesDir    string `long:"sources-dir" env:"SOURCES_DIR" default:"./sources" description:"Directory containing source configuration files"`
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for admin endpoints (optional)"`
	WorkerCount   int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for ingestion tasks"`
	RefreshHour   int    `long:"refresh-hour" env:"REFRESH_HOUR" default:"6" description:"Wall-clock hour (0-23) for the daily ingestion cycle"`
	DailyCeiling  int    `long:"daily-ceiling" env:"DAILY_CEILING" default:"90" description:"Maximum number of metered fetch runs per calendar day"`
	RetentionDays int    `long:"retention-days" env:"RETENTION_DAYS" default:"7" description:"Days an article stays active after caching"`
	PageSize      int    `long:"page-size" env:"PAGE_SIZE" default:"5" description:"Articles per page on the public feed"`
	FetchMin      int    `long:"fetch-min" env:"FETCH_MIN" default:"10" description:"Lower clamp for admin-triggered fetch size"`
	FetchMax      int    `long:"fetch-max" env:"FETCH_MAX" default:"50" description:"Upper clamp for admin-triggered fetch size"`

	// NewsAPI configuration
	NewsAPIKey     string `long:"news-api-key" env:"NEWS_API_KEY" description:"NewsAPI.org API key (optional, disables the metered source when empty)"`
	NewsAPIBaseURL string `long:"news-api-base-url" env:"NEWS_API_BASE_URL" default:"https://newsapi.org/v2" description:"NewsAPI.org base URL"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"GoodFeed/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBHost:         raw.DBHost,
		DBPort:         raw.DBPort,
		DBUser:         raw.DBUser,
		DBPassword:     raw.DBPassword,
		DBName:         raw.DBName,
		SourcesDir:     raw.SourcesDir,
		Port:           raw.Port,
		APIAccessKey:   raw.APIAccessKey,
		WorkerCount:    raw.WorkerCount,
		RefreshHour:    raw.RefreshHour,
		DailyCeiling:   raw.DailyCeiling,
		RetentionDays:  raw.RetentionDays,
		PageSize:       raw.PageSize,
		FetchMin:       raw.FetchMin,
		FetchMax:       raw.FetchMax,
		NewsAPIKey:     raw.NewsAPIKey,
		NewsAPIBaseURL: raw.NewsAPIBaseURL,
		UserAgent:      raw.UserAgent,
		Timezone:       raw.Timezone,
		Debug:          raw.Debug,
		Version:        GetVersion(),
	}

	if cfg.RefreshHour < 0 || cfg.RefreshHour > 23 {
		return nil, fmt.Errorf("refresh hour must be between 0 and 23, got %d", cfg.RefreshHour)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}

package config

import (
	"time"
)

const (
	SourceTypeRSS     = "rss"
	SourceTypeNewsAPI = "newsapi"
)

// SourceConfig describes one external article source.
type SourceConfig struct {
	Name     string         `yaml:"name"`
	Type     string         `yaml:"type"`
	URL      string         `yaml:"url"`
	Settings SourceSettings `yaml:"settings"`
}

// SourceSettings contains per-source fetch settings.
type SourceSettings struct {
	Enabled bool `yaml:"enabled"`
	Timeout int  `yaml:"timeout"` // seconds
}

// GetTimeout returns the per-source fetch timeout as time.Duration.
func (s *SourceSettings) GetTimeout() time.Duration {
	if s.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Timeout) * time.Second
}

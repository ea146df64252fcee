package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	for name, site := range cfg.Sites {
		if site.MaxArticles < 1 {
			return fmt.Errorf("sites.%s.max_articles must be >= 1, got %d", name, site.MaxArticles)
		}
	}

	for name, trend := range cfg.Trends {
		if !trend.Enabled {
			continue
		}
		if trend.MaxItems < 1 {
			return fmt.Errorf("trends.%s.max_items must be >= 1, got %d", name, trend.MaxItems)
		}
		if err := validateURL(trend.URL); err != nil {
			return fmt.Errorf("trends.%s.url: %w", name, err)
		}
	}

	if cfg.Crawler.RequestDelay < 0 {
		return fmt.Errorf("crawler.request_delay must be >= 0")
	}
	if cfg.Crawler.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	if cfg.Crawler.MaxRetries < 0 {
		return fmt.Errorf("crawler.max_retries must be >= 0, got %d", cfg.Crawler.MaxRetries)
	}

	validStorageTypes := map[string]bool{
		"json": true, "csv": true, "sqlite": true, "mongo": true,
	}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, csv, sqlite, mongo)", cfg.Storage.Type)
	}
	switch cfg.Storage.Type {
	case "json", "csv":
		if cfg.Storage.ArticlesPath == "" || cfg.Storage.TrendsPath == "" {
			return fmt.Errorf("storage.articles_path and storage.trends_path are required for %s storage", cfg.Storage.Type)
		}
	case "sqlite":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for sqlite storage")
		}
	case "mongo":
		if cfg.Storage.DSN == "" || cfg.Storage.Database == "" {
			return fmt.Errorf("storage.dsn and storage.database are required for mongo storage")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

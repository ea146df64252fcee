package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for techtrends.
type Config struct {
	Sites   map[string]SiteConfig  `mapstructure:"sites"   yaml:"sites"`
	Trends  map[string]TrendConfig `mapstructure:"trends"  yaml:"trends"`
	Crawler CrawlerConfig          `mapstructure:"crawler" yaml:"crawler"`
	Storage StorageConfig          `mapstructure:"storage" yaml:"storage"`
	Logging LoggingConfig          `mapstructure:"logging" yaml:"logging"`
}

// SiteConfig tunes one news site. The site's URLs and selectors live in its
// extraction profile; config only decides whether and how hard to crawl it.
type SiteConfig struct {
	Enabled        bool     `mapstructure:"enabled"         yaml:"enabled"`
	MaxArticles    int      `mapstructure:"max_articles"    yaml:"max_articles"`
	SearchKeywords []string `mapstructure:"search_keywords" yaml:"search_keywords"`
}

// TrendConfig tunes one trend board.
type TrendConfig struct {
	Enabled  bool   `mapstructure:"enabled"   yaml:"enabled"`
	URL      string `mapstructure:"url"       yaml:"url"`
	MaxItems int    `mapstructure:"max_items" yaml:"max_items"`
}

// CrawlerConfig controls browser and pacing behavior shared by all sites.
type CrawlerConfig struct {
	RequestDelay   time.Duration `mapstructure:"request_delay"   yaml:"request_delay"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"     yaml:"max_retries"`
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	Headless       bool          `mapstructure:"headless"        yaml:"headless"`
	Stealth        bool          `mapstructure:"stealth"         yaml:"stealth"`
	DumpDir        string        `mapstructure:"dump_dir"        yaml:"dump_dir"`
}

// StorageConfig selects and parameterizes the storage backend.
type StorageConfig struct {
	Type         string `mapstructure:"type"          yaml:"type"`
	ArticlesPath string `mapstructure:"articles_path" yaml:"articles_path"`
	TrendsPath   string `mapstructure:"trends_path"   yaml:"trends_path"`
	DSN          string `mapstructure:"dsn"           yaml:"dsn"`
	Database     string `mapstructure:"database"      yaml:"database"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults: all built-in sites
// enabled, GitHub and HuggingFace boards on, JSON storage under ./data.
func DefaultConfig() *Config {
	return &Config{
		Sites: map[string]SiteConfig{
			"howtogeek":    {Enabled: true, MaxArticles: 10},
			"uniteai":      {Enabled: true, MaxArticles: 10},
			"marktechpost": {Enabled: true, MaxArticles: 10},
		},
		Trends: map[string]TrendConfig{
			"github": {
				Enabled:  true,
				URL:      "https://github.com/trending",
				MaxItems: 25,
			},
			"twitter": {
				Enabled:  false,
				URL:      "https://x.com/explore/tabs/trending",
				MaxItems: 25,
			},
			"huggingface": {
				Enabled:  true,
				URL:      "https://huggingface.co/models?sort=trending",
				MaxItems: 25,
			},
		},
		Crawler: CrawlerConfig{
			RequestDelay:   2 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
			Headless:       true,
			Stealth:        false,
			DumpDir:        "data/debug",
		},
		Storage: StorageConfig{
			Type:         "json",
			ArticlesPath: "data/articles.json",
			TrendsPath:   "data/trends.json",
			DSN:          "data/techtrends.db",
			Database:     "techtrends",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

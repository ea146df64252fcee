package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("TECHTRENDS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("techtrends")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".techtrends"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine unless one was named explicitly.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env vars can override
// them individually.
func setDefaults(v *viper.Viper, cfg *Config) {
	for name, site := range cfg.Sites {
		v.SetDefault("sites."+name+".enabled", site.Enabled)
		v.SetDefault("sites."+name+".max_articles", site.MaxArticles)
		v.SetDefault("sites."+name+".search_keywords", site.SearchKeywords)
	}
	for name, trend := range cfg.Trends {
		v.SetDefault("trends."+name+".enabled", trend.Enabled)
		v.SetDefault("trends."+name+".url", trend.URL)
		v.SetDefault("trends."+name+".max_items", trend.MaxItems)
	}

	v.SetDefault("crawler.request_delay", cfg.Crawler.RequestDelay)
	v.SetDefault("crawler.request_timeout", cfg.Crawler.RequestTimeout)
	v.SetDefault("crawler.max_retries", cfg.Crawler.MaxRetries)
	v.SetDefault("crawler.user_agent", cfg.Crawler.UserAgent)
	v.SetDefault("crawler.headless", cfg.Crawler.Headless)
	v.SetDefault("crawler.stealth", cfg.Crawler.Stealth)
	v.SetDefault("crawler.dump_dir", cfg.Crawler.DumpDir)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.articles_path", cfg.Storage.ArticlesPath)
	v.SetDefault("storage.trends_path", cfg.Storage.TrendsPath)
	v.SetDefault("storage.dsn", cfg.Storage.DSN)
	v.SetDefault("storage.database", cfg.Storage.Database)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

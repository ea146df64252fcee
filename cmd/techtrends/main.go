package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yxz033/Tech-Web-Crawling/internal/config"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "techtrends",
		Short: "techtrends — tech news and trend board crawler",
		Long: `techtrends crawls tech news sites with a headless browser and scrapes
platform trend boards, storing everything with idempotent upserts.

Sites are described by extraction profiles (selector tables), so adding a
site never means new crawl logic. Supported storage backends: json, csv,
sqlite, mongo.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(trendsCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("techtrends %s\n", config.Version)
		},
	}
}

// configCmd shows the effective configuration after file and env overrides.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			fmt.Printf("Sites:\n")
			for _, name := range sortedKeys(cfg.Sites) {
				site := cfg.Sites[name]
				fmt.Printf("  %-14s enabled=%-5v max_articles=%-3d keywords=%s\n",
					name, site.Enabled, site.MaxArticles, strings.Join(site.SearchKeywords, ","))
			}
			fmt.Printf("\nTrend boards:\n")
			for _, name := range sortedKeys(cfg.Trends) {
				trend := cfg.Trends[name]
				fmt.Printf("  %-14s enabled=%-5v max_items=%-3d url=%s\n",
					name, trend.Enabled, trend.MaxItems, trend.URL)
			}
			fmt.Printf("\nCrawler:\n")
			fmt.Printf("  Request Delay:    %s\n", cfg.Crawler.RequestDelay)
			fmt.Printf("  Request Timeout:  %s\n", cfg.Crawler.RequestTimeout)
			fmt.Printf("  Max Retries:      %d\n", cfg.Crawler.MaxRetries)
			fmt.Printf("  Headless:         %v\n", cfg.Crawler.Headless)
			fmt.Printf("  Stealth:          %v\n", cfg.Crawler.Stealth)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:             %s\n", cfg.Storage.Type)
			fmt.Printf("  Articles Path:    %s\n", cfg.Storage.ArticlesPath)
			fmt.Printf("  Trends Path:      %s\n", cfg.Storage.TrendsPath)
			fmt.Printf("  DSN:              %s\n", cfg.Storage.DSN)
			fmt.Printf("\nLogging:\n")
			fmt.Printf("  Level:            %s\n", cfg.Logging.Level)
			fmt.Printf("  Format:           %s\n", cfg.Logging.Format)
			return nil
		},
	}
}

// setupLogger creates the process logger from config, with the verbose flag
// forcing debug level.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

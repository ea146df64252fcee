package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yxz033/Tech-Web-Crawling/internal/browser"
	"github.com/yxz033/Tech-Web-Crawling/internal/config"
	"github.com/yxz033/Tech-Web-Crawling/internal/fetch"
	"github.com/yxz033/Tech-Web-Crawling/internal/store"
	"github.com/yxz033/Tech-Web-Crawling/internal/trends"
)

func trendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends [platform...]",
		Short: "Collect platform trend boards",
		Long: `Collect the named trend boards (github, twitter, huggingface), or every
enabled board when none are named. GitHub is fetched over plain HTTP; the
browser-rendered boards get a headless session each.`,
		RunE: runTrends,
	}
	cmd.Flags().StringVar(&storageType, "storage", "", "storage backend: json, csv, sqlite, mongo (overrides config)")
	return cmd
}

func runTrends(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if storageType != "" {
		cfg.Storage.Type = strings.ToLower(storageType)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	platforms, err := selectPlatforms(cfg, args)
	if err != nil {
		return err
	}

	st, err := store.Open(storeConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The browser is only worth launching when a client-rendered board is
	// in the run.
	var b *browser.Browser
	for _, p := range platforms {
		if p != "github" {
			b, err = browser.New(browser.Options{
				Headless:   cfg.Crawler.Headless,
				Stealth:    cfg.Crawler.Stealth,
				UserAgent:  cfg.Crawler.UserAgent,
				NavTimeout: cfg.Crawler.RequestTimeout,
			}, logger)
			if err != nil {
				return fmt.Errorf("launch browser: %w", err)
			}
			defer b.Close()
			break
		}
	}

	httpClient := fetch.New(fetch.Options{
		Timeout:    cfg.Crawler.RequestTimeout,
		UserAgent:  cfg.Crawler.UserAgent,
		MaxRetries: cfg.Crawler.MaxRetries,
	}, logger)
	defer httpClient.Close()

	logger.Info("collecting trends", "platforms", platforms, "storage", st.Name())
	start := time.Now()

	collected, saved, failures := 0, 0, 0
	for _, name := range platforms {
		n, s, err := collectPlatform(ctx, name, cfg.Trends[name], b, httpClient, st, logger)
		if err != nil {
			logger.Error("trend collection failed", "platform", name, "error", err)
			failures++
			continue
		}
		collected += n
		saved += s
	}

	elapsed := time.Since(start)
	logger.Info("trend collection complete",
		"elapsed", elapsed,
		"platforms", len(platforms),
		"items", collected,
		"saved", saved,
		"failed_platforms", failures,
	)

	fmt.Printf("\nTrend collection complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Platforms: %d collected, %d failed\n", len(platforms)-failures, failures)
	fmt.Printf("   Items:     %d collected, %d inserted or updated\n", collected, saved)
	return nil
}

func collectPlatform(ctx context.Context, name string, cfg config.TrendConfig, b *browser.Browser, httpClient *fetch.Client, st store.Store, logger *slog.Logger) (collected, saved int, err error) {
	tcfg := trends.Config{URL: cfg.URL, MaxItems: cfg.MaxItems}

	var collector trends.Collector
	switch name {
	case "github":
		collector = trends.NewGithubCollector(httpClient, tcfg, logger)
	case "twitter", "huggingface":
		session, err := b.NewSession()
		if err != nil {
			return 0, 0, fmt.Errorf("open session: %w", err)
		}
		defer session.Close()
		if name == "twitter" {
			collector = trends.NewTwitterCollector(session, tcfg, logger)
		} else {
			collector = trends.NewHuggingfaceCollector(session, tcfg, logger)
		}
	default:
		return 0, 0, fmt.Errorf("unknown platform %q", name)
	}

	items, err := collector.Collect(ctx)
	if err != nil {
		return 0, 0, err
	}

	saved, err = st.SaveTrends(ctx, items)
	if err != nil {
		return len(items), saved, fmt.Errorf("save trends: %w", err)
	}
	return len(items), saved, nil
}

func selectPlatforms(cfg *config.Config, args []string) ([]string, error) {
	known := map[string]bool{"github": true, "twitter": true, "huggingface": true}

	if len(args) == 0 {
		var platforms []string
		for _, name := range sortedKeys(cfg.Trends) {
			if cfg.Trends[name].Enabled && known[name] {
				platforms = append(platforms, name)
			}
		}
		if len(platforms) == 0 {
			return nil, fmt.Errorf("no trend platforms enabled")
		}
		return platforms, nil
	}

	var platforms []string
	for _, name := range args {
		name = strings.ToLower(name)
		if !known[name] {
			return nil, fmt.Errorf("unknown platform %q (known: github, twitter, huggingface)", name)
		}
		if _, ok := cfg.Trends[name]; !ok {
			return nil, fmt.Errorf("platform %q has no configuration", name)
		}
		platforms = append(platforms, name)
	}
	return platforms, nil
}

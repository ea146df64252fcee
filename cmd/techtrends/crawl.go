package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yxz033/Tech-Web-Crawling/internal/browser"
	"github.com/yxz033/Tech-Web-Crawling/internal/config"
	"github.com/yxz033/Tech-Web-Crawling/internal/crawler"
	"github.com/yxz033/Tech-Web-Crawling/internal/extract"
	"github.com/yxz033/Tech-Web-Crawling/internal/store"
)

var (
	crawlKeywords string
	maxArticles   int
	storageType   string
)

func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [site...]",
		Short: "Crawl news sites",
		Long: `Crawl the named news sites, or every enabled site when none are named.
Each site runs in its own browser session; results are upserted into the
configured storage backend.`,
		RunE: runCrawl,
	}

	cmd.Flags().StringVarP(&crawlKeywords, "keywords", "k", "", "comma-separated search keywords (overrides per-site config)")
	cmd.Flags().IntVarP(&maxArticles, "max-articles", "m", 0, "max articles per site (0 = use config)")
	cmd.Flags().StringVar(&storageType, "storage", "", "storage backend: json, csv, sqlite, mongo (overrides config)")

	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
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

	profiles := extract.Builtin()
	sites, err := selectSites(cfg, profiles, args)
	if err != nil {
		return err
	}

	st, err := store.Open(storeConfig(cfg), logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.Close()

	b, err := browser.New(browser.Options{
		Headless:   cfg.Crawler.Headless,
		Stealth:    cfg.Crawler.Stealth,
		UserAgent:  cfg.Crawler.UserAgent,
		NavTimeout: cfg.Crawler.RequestTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer b.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting crawl", "sites", sites, "storage", st.Name())
	start := time.Now()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		crawled  int
		saved    int
		failures int
	)
	for _, name := range sites {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			n, s, err := crawlSite(ctx, name, cfg, profiles[name], b, st, logger)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("site crawl failed", "site", name, "error", err)
				failures++
				return
			}
			crawled += n
			saved += s
		}(name)
	}
	wg.Wait()

	elapsed := time.Since(start)
	logger.Info("crawl complete",
		"elapsed", elapsed,
		"sites", len(sites),
		"articles", crawled,
		"saved", saved,
		"failed_sites", failures,
	)

	fmt.Printf("\nCrawl complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Sites:     %d crawled, %d failed\n", len(sites)-failures, failures)
	fmt.Printf("   Articles:  %d extracted, %d inserted or updated\n", crawled, saved)
	return nil
}

// crawlSite runs one site end to end in its own browser session.
func crawlSite(ctx context.Context, name string, cfg *config.Config, profile *extract.Profile, b *browser.Browser, st store.Store, logger *slog.Logger) (crawled, saved int, err error) {
	session, err := b.NewSession()
	if err != nil {
		return 0, 0, fmt.Errorf("open session: %w", err)
	}
	defer session.Close()

	siteCfg := cfg.Sites[name]
	limit := siteCfg.MaxArticles
	if maxArticles > 0 {
		limit = maxArticles
	}
	keywords := siteCfg.SearchKeywords
	if crawlKeywords != "" {
		keywords = splitList(crawlKeywords)
	}

	c := crawler.New(session, extract.New(profile, logger), crawler.Options{
		MaxArticles:  limit,
		RequestDelay: cfg.Crawler.RequestDelay,
		DumpDir:      cfg.Crawler.DumpDir,
	}, logger)

	articles, err := c.Run(ctx, keywords)
	if err != nil {
		return 0, 0, err
	}

	saved, err = st.SaveArticles(ctx, articles)
	if err != nil {
		return len(articles), saved, fmt.Errorf("save articles: %w", err)
	}
	return len(articles), saved, nil
}

// selectSites resolves the positional args against config and profiles. No
// args means every enabled site.
func selectSites(cfg *config.Config, profiles map[string]*extract.Profile, args []string) ([]string, error) {
	if len(args) == 0 {
		var sites []string
		for _, name := range sortedKeys(cfg.Sites) {
			if cfg.Sites[name].Enabled {
				if _, ok := profiles[name]; ok {
					sites = append(sites, name)
				}
			}
		}
		if len(sites) == 0 {
			return nil, fmt.Errorf("no sites enabled")
		}
		return sites, nil
	}

	var sites []string
	for _, name := range args {
		name = strings.ToLower(name)
		if _, ok := profiles[name]; !ok {
			return nil, fmt.Errorf("unknown site %q (known: %s)", name, strings.Join(sortedKeys(profiles), ", "))
		}
		sites = append(sites, name)
	}
	return sites, nil
}

func storeConfig(cfg *config.Config) store.Config {
	return store.Config{
		Type:         cfg.Storage.Type,
		ArticlesPath: cfg.Storage.ArticlesPath,
		TrendsPath:   cfg.Storage.TrendsPath,
		DSN:          cfg.Storage.DSN,
		Database:     cfg.Storage.Database,
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

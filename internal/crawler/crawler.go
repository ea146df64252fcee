// Package crawler drives one site's crawl: link discovery on listing or
// search pages, article extraction, and date normalization. One Crawler owns
// one browser session; failures are isolated per article and per keyword so
// a single broken page never aborts a run.
package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/yxz033/Tech-Web-Crawling/internal/browser"
	"github.com/yxz033/Tech-Web-Crawling/internal/extract"
	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

// searchSettleTimeout bounds the wait for a search results page to render
// after the form is submitted.
const searchSettleTimeout = 10 * time.Second

// Options tunes one crawl run.
type Options struct {
	// MaxArticles caps discovered links per listing or per keyword.
	MaxArticles int
	// RequestDelay is the politeness pause between article page loads.
	RequestDelay time.Duration
	// DumpDir, when set, receives the rendered markup of listing pages
	// that yielded zero links, for selector debugging.
	DumpDir string
}

// Crawler crawls one site with one browser session.
type Crawler struct {
	session browser.Session
	ex      *extract.Extractor
	opts    Options
	now     func() time.Time
	logger  *slog.Logger
}

// New builds a crawler from a session and a site extractor.
func New(session browser.Session, ex *extract.Extractor, opts Options, logger *slog.Logger) *Crawler {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = 10
	}
	return &Crawler{
		session: session,
		ex:      ex,
		opts:    opts,
		now:     time.Now,
		logger:  logger.With("component", "crawler", "source", ex.Profile().Source),
	}
}

// Run crawls the site. With keywords it searches each one and tags the
// resulting articles; without, it crawls the latest-articles listing.
func (c *Crawler) Run(ctx context.Context, keywords []string) ([]*model.Article, error) {
	if len(keywords) > 0 {
		return c.crawlKeywords(ctx, keywords)
	}
	return c.crawlListing(ctx)
}

func (c *Crawler) crawlListing(ctx context.Context) ([]*model.Article, error) {
	p := c.ex.Profile()
	c.logger.Info("crawling listing", "url", p.ListingURL)

	links, err := c.discover(ctx, p.ListingURL)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		// Some sites bury the news index; the home page is the fallback.
		c.logger.Warn("no links on listing page, retrying from home page", "url", p.BaseURL)
		if links, err = c.discover(ctx, p.BaseURL); err != nil {
			return nil, err
		}
	}
	if len(links) == 0 {
		c.dumpMarkup()
		c.logger.Warn("no article links discovered")
		return nil, nil
	}
	return c.processLinks(ctx, links, ""), nil
}

func (c *Crawler) crawlKeywords(ctx context.Context, keywords []string) ([]*model.Article, error) {
	var all []*model.Article
	for _, keyword := range keywords {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		articles, err := c.crawlKeyword(ctx, keyword)
		if err != nil {
			c.logger.Error("keyword crawl failed", "keyword", keyword, "error", err)
			continue
		}
		all = append(all, articles...)
	}
	c.logger.Info("keyword crawl complete", "keywords", len(keywords), "articles", len(all))
	return all, nil
}

func (c *Crawler) crawlKeyword(ctx context.Context, keyword string) ([]*model.Article, error) {
	p := c.ex.Profile()
	searchURL := p.SearchPageURL(keyword)
	c.logger.Info("searching", "keyword", keyword, "url", searchURL)

	links, err := c.discover(ctx, searchURL)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 && p.SearchUI != nil {
		c.logger.Warn("url search found nothing, trying search ui", "keyword", keyword)
		links, err = c.searchViaUI(ctx, keyword)
		if err != nil {
			return nil, err
		}
	}
	if len(links) == 0 {
		c.logger.Warn("no results for keyword", "keyword", keyword)
		return nil, nil
	}
	return c.processLinks(ctx, links, keyword), nil
}

// discover loads url and runs the selector tiers over the rendered markup.
// When they come up short of the cap, the in-page script tier fills in.
func (c *Crawler) discover(ctx context.Context, url string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.session.Navigate(url); err != nil {
		return nil, fmt.Errorf("load %s: %w", url, err)
	}
	markup, err := c.session.HTML()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	links, err := c.ex.DiscoverLinks(markup, c.opts.MaxArticles)
	if err != nil {
		return nil, err
	}
	if len(links) < c.opts.MaxArticles {
		links = c.ex.MergeCandidates(links, c.scriptCandidates(), c.opts.MaxArticles)
	}
	c.logger.Info("links discovered", "url", url, "count", len(links))
	return links, nil
}

// scriptCandidates runs the in-page anchor walk and decodes its result.
// Any failure is worth only a debug line; this tier is best effort.
func (c *Crawler) scriptCandidates() []extract.LinkCandidate {
	raw, err := c.session.Eval(c.ex.LinkScript())
	if err != nil {
		c.logger.Debug("link script failed", "error", err)
		return nil
	}
	var cands []extract.LinkCandidate
	if err := json.Unmarshal([]byte(raw), &cands); err != nil {
		c.logger.Debug("link script returned unparseable result", "error", err)
		return nil
	}
	return cands
}

// searchViaUI drives the site's own search affordance: open the menu, open
// the search box, type the keyword, submit, and rediscover links on the
// results page. Selector lists are tried in order; the first hit wins.
func (c *Crawler) searchViaUI(ctx context.Context, keyword string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := c.ex.Profile()
	ui := p.SearchUI

	if err := c.session.Navigate(p.BaseURL); err != nil {
		return nil, fmt.Errorf("load home page: %w", err)
	}

	c.clickFirst(ui.MenuButtons, "menu button")
	c.clickFirst(ui.SearchButtons, "search button")

	input := ""
	for _, sel := range ui.Inputs {
		if err := c.session.WaitForSelector(sel, 10*time.Second); err == nil {
			input = sel
			break
		}
	}
	if input == "" {
		return nil, errors.New("search input not found")
	}

	if err := c.session.Fill(input, keyword); err != nil {
		return nil, fmt.Errorf("fill search input: %w", err)
	}
	if err := c.submitSearch(input); err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}

	// Submitting starts a navigation the session has no Navigate call to
	// wait on; read the results page only after it settles.
	if err := c.session.WaitStable(searchSettleTimeout); err != nil {
		c.logger.Warn("results page stability timeout, continuing", "keyword", keyword, "error", err)
	}

	resultsURL, err := c.session.CurrentURL()
	if err != nil {
		return nil, err
	}
	c.logger.Info("search submitted", "keyword", keyword, "results_url", resultsURL)

	markup, err := c.session.HTML()
	if err != nil {
		return nil, err
	}
	links, err := c.ex.DiscoverLinks(markup, c.opts.MaxArticles)
	if err != nil {
		return nil, err
	}
	if len(links) < c.opts.MaxArticles {
		links = c.ex.MergeCandidates(links, c.scriptCandidates(), c.opts.MaxArticles)
	}
	return links, nil
}

// clickFirst tries each selector until one clicks. A miss is normal; these
// UI elements vary between site redesigns.
func (c *Crawler) clickFirst(selectors []string, what string) {
	for _, sel := range selectors {
		if err := c.session.Click(sel); err == nil {
			c.logger.Debug("clicked "+what, "selector", sel)
			return
		}
	}
	c.logger.Debug("no " + what + " matched")
}

// submitSearch submits the form owning the input, falling back to a
// synthesized Enter keypress for inputs outside a form.
func (c *Crawler) submitSearch(inputSelector string) error {
	js := fmt.Sprintf(`() => {
		const input = document.querySelector(%q);
		if (!input) return false;
		if (input.form) { input.form.submit(); return true; }
		input.dispatchEvent(new KeyboardEvent('keydown', {key: 'Enter', bubbles: true}));
		return true;
	}`, inputSelector)
	_, err := c.session.Eval(js)
	return err
}

// processLinks fetches and extracts each article page in order, pausing
// between loads. A failed page is logged and skipped.
func (c *Crawler) processLinks(ctx context.Context, links []string, keyword string) []*model.Article {
	var articles []*model.Article
	for i, link := range links {
		if ctx.Err() != nil {
			break
		}
		if i > 0 && c.opts.RequestDelay > 0 {
			select {
			case <-ctx.Done():
				return articles
			case <-time.After(c.opts.RequestDelay):
			}
		}

		article, err := c.processArticle(link, keyword)
		if err != nil {
			if errors.Is(err, extract.ErrEmptyContent) {
				c.logger.Warn("article had no extractable body", "url", link)
			} else {
				c.logger.Error("article crawl failed", "url", link, "error", err)
			}
			continue
		}
		articles = append(articles, article)
	}
	c.logger.Info("articles crawled", "discovered", len(links), "extracted", len(articles))
	return articles
}

func (c *Crawler) processArticle(link, keyword string) (*model.Article, error) {
	if err := c.session.Navigate(link); err != nil {
		return nil, fmt.Errorf("load article: %w", err)
	}
	markup, err := c.session.HTML()
	if err != nil {
		return nil, fmt.Errorf("read article: %w", err)
	}

	raw, err := c.ex.ExtractArticle(markup, link)
	if err != nil {
		return nil, err
	}

	published, ok := extract.NormalizeDate(raw.DateRaw, c.now())
	if !ok && raw.DateRaw != "" {
		c.logger.Warn("unparseable date, using crawl time", "url", link, "raw", raw.DateRaw)
	}

	return &model.Article{
		Title:         raw.Title,
		Author:        raw.Author,
		PublishedDate: published,
		Content:       raw.Content,
		HTMLContent:   raw.HTMLContent,
		URL:           raw.URL,
		Source:        c.ex.Profile().Source,
		Keyword:       keyword,
	}, nil
}

// dumpMarkup writes the current page markup to the dump directory so a
// selector mismatch can be debugged offline.
func (c *Crawler) dumpMarkup() {
	if c.opts.DumpDir == "" {
		return
	}
	markup, err := c.session.HTML()
	if err != nil {
		return
	}
	if err := os.MkdirAll(c.opts.DumpDir, 0o755); err != nil {
		c.logger.Warn("cannot create dump dir", "error", err)
		return
	}
	name := fmt.Sprintf("%s_%s.html", c.ex.Profile().Source, c.now().Format("20060102T150405"))
	path := filepath.Join(c.opts.DumpDir, name)
	if err := os.WriteFile(path, []byte(markup), 0o644); err != nil {
		c.logger.Warn("cannot write markup dump", "error", err)
		return
	}
	c.logger.Info("listing markup dumped", "path", path)
}

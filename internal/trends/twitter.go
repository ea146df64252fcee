package trends

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yxz033/Tech-Web-Crawling/internal/browser"
	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

// TwitterCollector scrapes the Twitter/X explore trends page through a
// browser session, since the board is rendered client side.
type TwitterCollector struct {
	session  browser.Session
	url      string
	maxItems int
	logger   *slog.Logger
}

func NewTwitterCollector(session browser.Session, cfg Config, logger *slog.Logger) *TwitterCollector {
	return &TwitterCollector{
		session:  session,
		url:      cfg.URL,
		maxItems: cfg.MaxItems,
		logger:   logger.With("component", "twitter_trends"),
	}
}

func (c *TwitterCollector) Platform() model.Platform { return model.PlatformTwitter }

func (c *TwitterCollector) Collect(ctx context.Context) ([]model.TrendItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.session.Navigate(c.url); err != nil {
		return nil, fmt.Errorf("twitter trends: %w", err)
	}
	markup, err := c.session.HTML()
	if err != nil {
		return nil, fmt.Errorf("twitter trends: %w", err)
	}
	items, err := parseTwitterTrends(markup, c.url, c.maxItems)
	if err != nil {
		return nil, err
	}
	c.logger.Info("twitter trends collected", "items", len(items))
	return items, nil
}

// parseTwitterTrends extracts trend cells from the explore page. Each cell
// carries the trend name and, when the platform shows one, a post count in
// its native formatting ("12.3K posts").
func parseTwitterTrends(markup, pageURL string, maxItems int) ([]model.TrendItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse trends page: %w", err)
	}

	var items []model.TrendItem
	doc.Find(`[data-testid="trend"]`).EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if maxItems > 0 && len(items) >= maxItems {
			return false
		}

		var name, count, category string
		cell.Find("span").Each(func(_ int, span *goquery.Selection) {
			text := strings.TrimSpace(span.Text())
			switch {
			case text == "":
			case strings.HasSuffix(text, "posts") || strings.HasSuffix(text, "Tweets"):
				if count == "" {
					count = text
				}
			case strings.Contains(text, "Trending"):
				if category == "" {
					category = text
				}
			case name == "":
				name = text
			}
		})
		if name == "" {
			return true
		}

		items = append(items, model.TrendItem{
			Rank:        len(items) + 1,
			Name:        name,
			Description: category,
			URL:         trendURL(pageURL, name),
			Platform:    model.PlatformTwitter,
			TweetCount:  count,
		})
		return true
	})
	return items, nil
}

// trendURL derives a stable search URL for a trend name; the board itself
// has no per-trend permalinks in its markup.
func trendURL(pageURL, name string) string {
	base := "https://x.com"
	if strings.Contains(pageURL, "twitter.com") {
		base = "https://twitter.com"
	}
	return base + "/search?q=" + url.QueryEscape(name)
}

package trends

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yxz033/Tech-Web-Crawling/internal/fetch"
	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

// GithubCollector scrapes the GitHub trending page.
type GithubCollector struct {
	client   *fetch.Client
	url      string
	maxItems int
	logger   *slog.Logger
}

// NewGithubCollector builds a collector for the trending page at cfg.URL.
func NewGithubCollector(client *fetch.Client, cfg Config, logger *slog.Logger) *GithubCollector {
	return &GithubCollector{
		client:   client,
		url:      cfg.URL,
		maxItems: cfg.MaxItems,
		logger:   logger.With("component", "github_trends"),
	}
}

func (c *GithubCollector) Platform() model.Platform { return model.PlatformGithub }

func (c *GithubCollector) Collect(ctx context.Context) ([]model.TrendItem, error) {
	body, err := c.client.Get(ctx, c.url)
	if err != nil {
		return nil, fmt.Errorf("github trending: %w", err)
	}
	items, err := parseGithubTrending(body, c.maxItems)
	if err != nil {
		return nil, err
	}
	c.logger.Info("github trending collected", "items", len(items))
	return items, nil
}

// parseGithubTrending extracts repositories from the trending page markup.
// Entries missing name or description are dropped, matching the board's own
// occasional placeholder rows.
func parseGithubTrending(markup []byte, maxItems int) ([]model.TrendItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse trending page: %w", err)
	}

	var items []model.TrendItem
	doc.Find("article.Box-row").EachWithBreak(func(i int, row *goquery.Selection) bool {
		if maxItems > 0 && len(items) >= maxItems {
			return false
		}

		link := row.Find("h1 a").First()
		name := normalizeRepoName(link.Text())
		desc := strings.TrimSpace(row.Find("p").First().Text())
		if name == "" || desc == "" {
			return true
		}

		href, _ := link.Attr("href")
		lang := strings.TrimSpace(row.Find(`span[itemprop="programmingLanguage"]`).First().Text())
		if lang == "" {
			lang = "Unknown"
		}

		stars := 0
		starsText := strings.TrimSpace(row.Find("a.Link--muted").First().Text())
		if starsText != "" {
			if n, err := strconv.Atoi(strings.ReplaceAll(starsText, ",", "")); err == nil {
				stars = n
			}
		}

		items = append(items, model.TrendItem{
			Rank:        len(items) + 1,
			Name:        name,
			Description: desc,
			URL:         "https://github.com" + href,
			Platform:    model.PlatformGithub,
			Language:    lang,
			Stars:       stars,
		})
		return true
	})
	return items, nil
}

// normalizeRepoName collapses the "owner /\n  repo" layout of the trending
// page into "owner/repo".
func normalizeRepoName(raw string) string {
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '/' || r == ' ' || r == '\n' || r == '\t'
	})
	return strings.Join(parts, "/")
}

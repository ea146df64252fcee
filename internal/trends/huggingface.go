package trends

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/yxz033/Tech-Web-Crawling/internal/browser"
	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

// HuggingfaceCollector scrapes the HuggingFace trending models board
// through a browser session.
type HuggingfaceCollector struct {
	session  browser.Session
	url      string
	maxItems int
	logger   *slog.Logger
}

func NewHuggingfaceCollector(session browser.Session, cfg Config, logger *slog.Logger) *HuggingfaceCollector {
	return &HuggingfaceCollector{
		session:  session,
		url:      cfg.URL,
		maxItems: cfg.MaxItems,
		logger:   logger.With("component", "huggingface_trends"),
	}
}

func (c *HuggingfaceCollector) Platform() model.Platform { return model.PlatformHuggingface }

func (c *HuggingfaceCollector) Collect(ctx context.Context) ([]model.TrendItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := c.session.Navigate(c.url); err != nil {
		return nil, fmt.Errorf("huggingface trends: %w", err)
	}
	markup, err := c.session.HTML()
	if err != nil {
		return nil, fmt.Errorf("huggingface trends: %w", err)
	}
	items, err := parseHuggingfaceTrending(markup, c.maxItems)
	if err != nil {
		return nil, err
	}
	c.logger.Info("huggingface trends collected", "items", len(items))
	return items, nil
}

// parseHuggingfaceTrending extracts model cards from the trending board.
// The download count keeps the board's native formatting ("1.2M").
func parseHuggingfaceTrending(markup string, maxItems int) ([]model.TrendItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse trending page: %w", err)
	}

	var items []model.TrendItem
	doc.Find("article.overview-card-wrapper").EachWithBreak(func(i int, card *goquery.Selection) bool {
		if maxItems > 0 && len(items) >= maxItems {
			return false
		}

		name := strings.TrimSpace(card.Find("h4").First().Text())
		if name == "" {
			return true
		}
		href, _ := card.Find("a").First().Attr("href")

		downloads := "0"
		tags := make([]string, 0, 4)
		card.Find("span").Each(func(_ int, span *goquery.Selection) {
			text := strings.TrimSpace(span.Text())
			if text == "" {
				return
			}
			if span.HasClass("tag") || span.AttrOr("data-tag", "") != "" {
				tags = append(tags, text)
			}
		})
		if dl := card.Find(`[title="Downloads"], [aria-label="Downloads"]`).First(); dl.Length() > 0 {
			if text := strings.TrimSpace(dl.Parent().Text()); text != "" {
				downloads = strings.Fields(text)[0]
			}
		}

		items = append(items, model.TrendItem{
			Rank:        len(items) + 1,
			Name:        name,
			Description: strings.TrimSpace(card.Find("p").First().Text()),
			URL:         "https://huggingface.co" + href,
			Platform:    model.PlatformHuggingface,
			Downloads:   downloads,
			Tags:        tags,
		})
		return true
	})
	return items, nil
}

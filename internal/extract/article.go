package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrEmptyContent reports that the article body was empty after filtering.
// Callers must skip persistence for such pages instead of storing a useless
// record.
var ErrEmptyContent = errors.New("empty article content")

// Placeholder values substituted when every selector for a field misses.
// Partial extraction is preferred over total failure.
const (
	PlaceholderTitle  = "unknown title"
	PlaceholderAuthor = "unknown author"
)

// RawArticle is the site-agnostic result of extracting one article page.
// DateRaw is whatever the page exposed; date normalization happens later.
type RawArticle struct {
	Title       string
	Author      string
	DateRaw     string
	Content     string
	HTMLContent string
	ImageURL    string
	URL         string
}

// ExtractArticle pulls title, author, date, body, and lead image out of
// rendered article-page markup. Each field is resolved independently by an
// ordered selector list; a missed field degrades to a placeholder (or stays
// empty for image/date) rather than failing the extraction.
func (e *Extractor) ExtractArticle(markup, pageURL string) (*RawArticle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse article markup: %w", err)
	}

	art := &RawArticle{URL: pageURL}

	art.Title = firstText(doc, e.profile.TitleSelectors)
	if art.Title == "" {
		e.logger.Warn("no title selector matched", "url", pageURL)
		art.Title = PlaceholderTitle
	}

	art.Author = firstText(doc, e.profile.AuthorSelectors)
	if art.Author == "" {
		e.logger.Warn("no author selector matched", "url", pageURL)
		art.Author = PlaceholderAuthor
	}

	art.DateRaw = e.extractDate(doc)
	if art.DateRaw == "" {
		e.logger.Warn("no date selector matched", "url", pageURL)
	}

	art.Content, art.HTMLContent = e.extractBody(doc)
	if strings.TrimSpace(art.Content) == "" {
		return nil, ErrEmptyContent
	}

	art.ImageURL = e.extractImage(doc)

	return art, nil
}

// extractDate prefers a machine-readable datetime attribute over display
// text; meta tags carry the value in their content attribute.
func (e *Extractor) extractDate(doc *goquery.Document) string {
	for _, sel := range e.profile.DateSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if dt, ok := s.Attr("datetime"); ok && dt != "" {
			return dt
		}
		if goquery.NodeName(s) == "meta" {
			if content, ok := s.Attr("content"); ok && content != "" {
				return content
			}
			continue
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractBody collects article paragraphs, dropping those inside footers,
// comment sections, or any ancestor carrying one of the profile's exclusion
// markers. A key-points summary block, if the site exposes one, is prepended
// to the text body.
func (e *Extractor) extractBody(doc *goquery.Document) (text, htmlFragment string) {
	var texts []string
	var fragments []string

	if summary := e.extractKeyPoints(doc); summary != "" {
		texts = append(texts, summary)
	}

	doc.Find(e.profile.BodySelector).Each(func(_ int, p *goquery.Selection) {
		if e.excludedParagraph(p) {
			return
		}
		t := strings.TrimSpace(p.Text())
		if t == "" {
			return
		}
		texts = append(texts, t)
		if h, err := goquery.OuterHtml(p); err == nil {
			fragments = append(fragments, h)
		}
	})

	return strings.Join(texts, "\n\n"), strings.Join(fragments, "\n")
}

// excludedParagraph walks the paragraph's ancestors checking for footer,
// comment, and author-bio markers.
func (e *Extractor) excludedParagraph(p *goquery.Selection) bool {
	for node := p; node.Length() > 0; node = node.Parent() {
		if goquery.NodeName(node) == "footer" {
			return true
		}
		if id, ok := node.Attr("id"); ok {
			for _, excluded := range e.profile.ExcludeIDs {
				if id == excluded {
					return true
				}
			}
		}
		class, _ := node.Attr("class")
		for _, marker := range e.profile.ExcludeMarkers {
			if strings.Contains(class, marker) {
				return true
			}
		}
	}
	return false
}

// extractKeyPoints renders the structured summary block as plain text:
// the block title followed by bulleted points.
func (e *Extractor) extractKeyPoints(doc *goquery.Document) string {
	kp := e.profile.KeyPoints
	if kp == nil {
		return ""
	}
	container := doc.Find(kp.Container).First()
	if container.Length() == 0 {
		return ""
	}

	var b strings.Builder
	if title := strings.TrimSpace(container.Find(kp.Title).First().Text()); title != "" {
		b.WriteString(title)
		b.WriteString("\n")
	}
	container.Find(kp.Point).Each(func(_ int, li *goquery.Selection) {
		if t := strings.TrimSpace(li.Text()); t != "" {
			b.WriteString("\n• ")
			b.WriteString(t)
		}
	})
	return strings.TrimSpace(b.String())
}

// extractImage tries the profile's lead-image selectors (including an
// Open-Graph meta tag), then falls back to the first usable image anywhere
// in the document. A missing image is non-fatal.
func (e *Extractor) extractImage(doc *goquery.Document) string {
	for _, sel := range e.profile.ImageSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		var raw string
		if goquery.NodeName(s) == "meta" {
			raw, _ = s.Attr("content")
		} else {
			raw, _ = s.Attr("src")
			if raw == "" {
				// Lazily loaded images carry the URL in data-src.
				raw, _ = s.Attr("data-src")
			}
		}
		if img := e.resolveImage(raw); img != "" {
			return img
		}
	}

	// Last resort: first non-inline, non-script image in the document.
	var fallback string
	doc.Find("img[src], img[data-src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw, _ := s.Attr("src")
		if raw == "" {
			raw, _ = s.Attr("data-src")
		}
		if strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "javascript:") {
			return true
		}
		fallback = e.resolveImage(raw)
		return fallback == ""
	})
	return fallback
}

func (e *Extractor) resolveImage(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	base, err := url.Parse(e.profile.BaseURL)
	if err != nil {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// firstText returns the trimmed text of the first selector that matches.
func firstText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			if text := strings.TrimSpace(s.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

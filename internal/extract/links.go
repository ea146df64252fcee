package extract

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Extractor applies one site profile to rendered markup. It is stateless;
// one instance can serve any number of pages for its site.
type Extractor struct {
	profile *Profile
	logger  *slog.Logger
}

// New creates an extractor for a site profile.
func New(profile *Profile, logger *slog.Logger) *Extractor {
	return &Extractor{
		profile: profile,
		logger:  logger.With("component", "extractor", "source", profile.Source),
	}
}

// Profile returns the site profile this extractor is bound to.
func (e *Extractor) Profile() *Profile { return e.profile }

// LinkCandidate is one {url, text} pair, the shape produced by the in-page
// script tier and the heading tier before filtering.
type LinkCandidate struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// DiscoverLinks finds candidate article URLs in rendered listing-page markup.
// Selector tiers are applied in order of precision: dedicated card selectors
// first, then heading-wrapped anchors, then generic anchors on the site's
// domain. Results keep first-seen order, are deduplicated, and are capped at
// limit. An empty result is not an error; the caller decides whether to fall
// back to the in-page script tier.
func (e *Extractor) DiscoverLinks(markup string, limit int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse listing markup: %w", err)
	}

	seen := make(map[string]bool)
	var links []string

	add := func(href string, requireDomain bool) {
		resolved, ok := e.normalizeLink(href, requireDomain)
		if !ok || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	}

	// Tier 1: dedicated card selectors.
	for _, rule := range e.profile.LinkRules {
		if len(links) >= limit {
			break
		}
		doc.Find(rule.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			anchor := s
			if rule.Anchor != "" {
				anchor = s.Find(rule.Anchor).First()
			}
			if href, ok := anchor.Attr("href"); ok {
				add(href, false)
			}
			return len(links) < limit
		})
	}

	// Tier 2: anchors wrapped in headings.
	if len(links) < limit {
		for _, cand := range e.headingAnchors(markup) {
			if len(links) >= limit {
				break
			}
			if len(cand.Text) >= e.profile.MinAnchorText {
				add(cand.URL, true)
			}
		}
	}

	// Tier 3: any anchor on the site's domain with meaningful text.
	if len(links) < limit {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.TrimSpace(s.Text())
			if len(text) >= e.profile.MinAnchorText {
				if href, ok := s.Attr("href"); ok {
					add(href, true)
				}
			}
			return len(links) < limit
		})
	}

	e.logger.Debug("links discovered", "count", len(links), "limit", limit)
	return links, nil
}

// headingAnchors collects anchors nested in heading elements via the
// profile's XPath expression.
func (e *Extractor) headingAnchors(markup string) []LinkCandidate {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	xp := e.profile.HeadingXPath
	if xp == "" {
		xp = defaultHeadingXPath
	}
	nodes, err := htmlquery.QueryAll(doc, xp)
	if err != nil {
		e.logger.Warn("heading xpath failed", "xpath", xp, "error", err)
		return nil
	}
	out := make([]LinkCandidate, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, LinkCandidate{
			URL:  htmlquery.SelectAttr(n, "href"),
			Text: strings.TrimSpace(htmlquery.InnerText(n)),
		})
	}
	return out
}

// LinkScript returns the in-page script for the last-resort discovery tier:
// it walks every anchor and returns {url, text} pairs on the site's domain.
func (e *Extractor) LinkScript() string {
	return fmt.Sprintf(`() => {
		const links = [];
		document.querySelectorAll('a[href]').forEach(a => {
			const href = a.href || '';
			if (!href || href.includes('#') || href.startsWith('javascript:')) return;
			if (!href.includes(%q)) return;
			links.push({url: href, text: (a.innerText || '').trim()});
		});
		return links;
	}`, e.profile.Domain)
}

// MergeCandidates filters {url, text} pairs from the script tier with the
// same domain/path/length rules and appends survivors to existing, keeping
// first-seen order and the limit cap.
func (e *Extractor) MergeCandidates(existing []string, cands []LinkCandidate, limit int) []string {
	seen := make(map[string]bool, len(existing))
	for _, u := range existing {
		seen[u] = true
	}
	out := existing
	for _, cand := range cands {
		if len(out) >= limit {
			break
		}
		if len(cand.Text) < e.profile.MinAnchorText {
			continue
		}
		resolved, ok := e.normalizeLink(cand.URL, true)
		if !ok || seen[resolved] {
			continue
		}
		seen[resolved] = true
		out = append(out, resolved)
	}
	return out
}

// normalizeLink resolves href against the site base URL and applies the
// profile's exclusion rules. requireDomain additionally restricts the result
// to the site's own domain, used by the looser tiers.
func (e *Extractor) normalizeLink(href string, requireDomain bool) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return "", false
	}
	for _, frag := range e.profile.ExcludePaths {
		if strings.Contains(href, frag) {
			return "", false
		}
	}

	base, err := url.Parse(e.profile.BaseURL)
	if err != nil {
		return "", false
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(parsed)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	resolved.Fragment = ""

	if requireDomain && !strings.Contains(resolved.Host, e.profile.Domain) {
		return "", false
	}
	return resolved.String(), true
}

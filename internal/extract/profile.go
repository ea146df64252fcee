package extract

import (
	"fmt"
	"net/url"
)

// LinkRule targets one historically stable markup pattern for a site's
// headline or card component. Rules are tried in order; earlier rules are
// higher precision.
type LinkRule struct {
	// Selector matches the card or anchor element.
	Selector string
	// Anchor optionally narrows to an anchor nested inside Selector matches.
	Anchor string
}

// KeyPointsRule locates a structured summary block some sites place above
// the article body.
type KeyPointsRule struct {
	Container string
	Title     string
	Point     string
}

// SearchUI holds the selectors for a site's interactive search flow, used
// as a fallback when URL-based search yields no results. Each slice is an
// ordered list of alternatives.
type SearchUI struct {
	MenuButtons   []string
	SearchButtons []string
	Inputs        []string
}

// Profile parameterizes the generic extractor for one site: ordered selector
// tables, URL rules, and the markers used to filter non-article content.
// Adding a site means adding a profile, not new control flow.
type Profile struct {
	Source     string
	BaseURL    string
	Domain     string
	ListingURL string
	// SearchURL is a format string with one %s for the URL-encoded keyword.
	SearchURL string

	LinkRules []LinkRule
	// HeadingXPath is the looser fallback tier: anchors wrapped in headings.
	HeadingXPath string
	// ExcludePaths are substrings marking known non-article URLs.
	ExcludePaths []string
	// MinAnchorText is the minimum anchor text length for the generic tiers.
	MinAnchorText int

	TitleSelectors  []string
	AuthorSelectors []string
	DateSelectors   []string
	// BodySelector scopes the paragraphs considered article body.
	BodySelector string
	// ExcludeMarkers are class fragments; a paragraph with any of them on
	// itself or an ancestor is dropped from the body.
	ExcludeMarkers []string
	// ExcludeIDs are exact element IDs treated the same way.
	ExcludeIDs []string
	KeyPoints      *KeyPointsRule
	ImageSelectors []string

	SearchUI *SearchUI
}

// SearchPageURL builds the search-results URL for a keyword.
func (p *Profile) SearchPageURL(keyword string) string {
	return fmt.Sprintf(p.SearchURL, url.QueryEscape(keyword))
}

// defaultHeadingXPath covers anchors wrapped in the heading levels the
// target sites use for article cards.
const defaultHeadingXPath = `//h2//a[@href] | //h3//a[@href] | //h5//a[@href]`

// Builtin returns the built-in site profiles keyed by source name.
func Builtin() map[string]*Profile {
	profiles := []*Profile{howtogeekProfile(), uniteaiProfile(), marktechpostProfile()}
	m := make(map[string]*Profile, len(profiles))
	for _, p := range profiles {
		m[p.Source] = p
	}
	return m
}

func howtogeekProfile() *Profile {
	return &Profile{
		Source:        "howtogeek",
		BaseURL:       "https://www.howtogeek.com/",
		Domain:        "howtogeek.com",
		ListingURL:    "https://www.howtogeek.com/news/",
		SearchURL:     "https://www.howtogeek.com/search/?q=%s",
		MinAnchorText: 5,
		LinkRules: []LinkRule{
			{Selector: "a.bc-title-link"},
			{Selector: ".w-display-card-content", Anchor: ".display-card-title a, h5 a"},
			{Selector: "h5 a"},
			{Selector: `div[class*="article"] a, .article a`},
		},
		HeadingXPath: defaultHeadingXPath,
		ExcludePaths: []string{"/tag/", "/category/", "#", "javascript:"},
		TitleSelectors: []string{
			"h1.article-title", "h1.entry-title", "h1.post-title",
			`h1[class*="title"]`, "header h1", "h1",
		},
		AuthorSelectors: []string{
			"a.article-author", ".article-author", `a[rel="author"]`,
			".author-name", ".byline a", `[itemprop="author"]`,
			".entry-meta .author", ".w-author-name a",
			".article-byline-wrap a", ".w-display-card-meta .w-author a",
		},
		DateSelectors: []string{
			"time[datetime]", `[itemprop="datePublished"]`,
			".entry-date", ".posted-on time", `meta[property="article:published_time"]`,
			".article-date", ".meta_txt.article-date time",
			".w-display-card-date", "time.display-card-date",
		},
		BodySelector: "article p, .article p, .content p, .post p, main p",
		ExcludeMarkers: []string{
			"article-footer", "comment", "footer", "comment-submit-rules",
		},
		ExcludeIDs: []string{"comment-form", "footer-threads"},
		KeyPoints: &KeyPointsRule{
			Container: "div.emaki-custom.key-points",
			Title:     "h3.title",
			Point:     "li",
		},
		ImageSelectors: []string{
			".featured-image img", "article img.wp-post-image",
			`meta[property="og:image"]`, "article img:first-of-type",
			".article-featured-image img", ".post-thumbnail img",
			".w-display-card-image img", ".display-card-image img",
			".article-image img", ".entry-content img:first-of-type",
		},
		SearchUI: &SearchUI{
			MenuButtons: []string{
				"label.menu-icon.topnav-icon.icon.i-menu-new.css-menu--toggle",
				"label.menu-icon",
			},
			SearchButtons: []string{
				"span.menu-icon.topbar-icon.icon.i-search-menu",
				"span.icon.i-search-menu",
			},
			Inputs: []string{
				"#js-search-input",
				`input[type='text'][name='q'], input[type='search'], input[placeholder*='search' i]`,
			},
		},
	}
}

func uniteaiProfile() *Profile {
	return &Profile{
		Source:        "uniteai",
		BaseURL:       "https://www.unite.ai/",
		Domain:        "unite.ai",
		ListingURL:    "https://www.unite.ai",
		SearchURL:     "https://www.unite.ai/?s=%s",
		MinAnchorText: 5,
		LinkRules: []LinkRule{
			{Selector: `.mvp-widget-feat1-wrap a[href*="unite.ai"]`},
			{Selector: `.mvp-widget-feat1-cont a[href*="unite.ai"]`},
			{Selector: `.mvp-blog-story-list a[href*="unite.ai"]`},
		},
		HeadingXPath: defaultHeadingXPath,
		ExcludePaths: []string{"/tag/", "/category/", "#", "javascript:"},
		TitleSelectors: []string{
			"h1.entry-title", "h1.post-title", "div.mvp-post-title-wrap h1", "h1",
		},
		AuthorSelectors: []string{
			".author-name a", ".entry-author a", ".post-author a",
			".author_info a", "span.author_info",
		},
		DateSelectors: []string{
			"time.entry-date", ".posted-on time", ".post-date", "span.mvp-cd-date",
		},
		BodySelector: "#mvp-content-main p, .entry-content p, .post-content p, article .content p",
		ExcludeMarkers: []string{
			"advertisement", "related-posts", "social-share", "ssblock",
			"gsp_f_b", "ssplayer_wrapper", "gsp_content_wrapper_set", "footer", "comment",
		},
		ImageSelectors: []string{
			"#mvp-post-feat-img img", `meta[property="og:image"]`,
			".entry-content img:first-of-type",
		},
	}
}

func marktechpostProfile() *Profile {
	return &Profile{
		Source:        "marktechpost",
		BaseURL:       "https://www.marktechpost.com/",
		Domain:        "marktechpost.com",
		ListingURL:    "https://www.marktechpost.com/category/tech-news/",
		SearchURL:     "https://www.marktechpost.com/?s=%s",
		MinAnchorText: 5,
		LinkRules: []LinkRule{
			{Selector: "article.post h2.entry-title a"},
			{Selector: ".archive-list .title a"},
			{Selector: ".entry-title a"},
			{Selector: ".search-results article a.title"},
			{Selector: ".post-title a"},
			{Selector: "h2.title a"},
		},
		HeadingXPath: defaultHeadingXPath,
		ExcludePaths: []string{"/tag/", "/category/", "#", "javascript:", "page"},
		TitleSelectors: []string{
			"h1.entry-title", ".td-post-title h1", "h1",
		},
		AuthorSelectors: []string{
			".author a", ".td-post-author-name a",
		},
		DateSelectors: []string{
			"time.entry-date", ".td-post-date time",
		},
		BodySelector: ".td-post-content p, .entry-content p",
		ExcludeMarkers: []string{
			"swp_social_panel", "m-a-box", "advertisement", "related-posts",
			"social-share", "widget", "sidebar", "comments", "code-block", "footer",
		},
		ImageSelectors: []string{
			".td-post-featured-image img", `meta[property="og:image"]`,
			".td-post-content img:first-of-type",
		},
	}
}

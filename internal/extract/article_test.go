package extract

import (
	"errors"
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
	<meta property="og:image" content="https://cdn.example.com/lead.jpg">
	<meta property="article:published_time" content="2025-03-01T08:00:00Z">
</head>
<body>
	<h1 class="headline">Quantum Chips Explained</h1>
	<a class="author-name">Jane Doe</a>
	<time class="published" datetime="2025-03-01T08:00:00Z">March 1, 2025</time>
	<div class="article-body">
		<p>First paragraph of the body.</p>
		<p>Second paragraph with more detail.</p>
		<div class="related-posts"><p>You may also like this.</p></div>
		<footer><p>Copyright footer text.</p></footer>
		<div id="comment-form"><p>Leave a comment.</p></div>
	</div>
</body>
</html>`

func TestExtractArticle(t *testing.T) {
	e := New(testProfile(), testLogger)

	art, err := e.ExtractArticle(articleHTML, "https://news.example.com/story-one/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}

	if art.Title != "Quantum Chips Explained" {
		t.Errorf("title = %q", art.Title)
	}
	if art.Author != "Jane Doe" {
		t.Errorf("author = %q", art.Author)
	}
	if art.DateRaw != "2025-03-01T08:00:00Z" {
		t.Errorf("date = %q, want datetime attribute", art.DateRaw)
	}
	if art.URL != "https://news.example.com/story-one/" {
		t.Errorf("url = %q", art.URL)
	}
}

func TestExtractArticleFiltersNonBody(t *testing.T) {
	e := New(testProfile(), testLogger)

	art, err := e.ExtractArticle(articleHTML, "https://news.example.com/story-one/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}

	if !strings.Contains(art.Content, "First paragraph") || !strings.Contains(art.Content, "Second paragraph") {
		t.Errorf("body paragraphs missing from content: %q", art.Content)
	}
	for _, banned := range []string{"You may also like", "Copyright footer", "Leave a comment"} {
		if strings.Contains(art.Content, banned) {
			t.Errorf("content includes excluded text %q", banned)
		}
	}
	if !strings.Contains(art.HTMLContent, "<p>First paragraph of the body.</p>") {
		t.Errorf("html content missing paragraph markup: %q", art.HTMLContent)
	}
}

func TestExtractArticleExcludeIDsAreProfileDriven(t *testing.T) {
	markup := `<div class="article-body">
		<p>Kept paragraph.</p>
		<div id="promo-box"><p>Subscribe today.</p></div>
	</div>`

	p := testProfile()
	e := New(p, testLogger)
	art, err := e.ExtractArticle(markup, "https://news.example.com/story/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if !strings.Contains(art.Content, "Subscribe today.") {
		t.Errorf("unlisted id filtered: %q", art.Content)
	}

	p.ExcludeIDs = append(p.ExcludeIDs, "promo-box")
	art, err = New(p, testLogger).ExtractArticle(markup, "https://news.example.com/story/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if strings.Contains(art.Content, "Subscribe today.") {
		t.Errorf("listed id not filtered: %q", art.Content)
	}
	if !strings.Contains(art.Content, "Kept paragraph.") {
		t.Errorf("body paragraph lost: %q", art.Content)
	}
}

func TestExtractArticlePlaceholders(t *testing.T) {
	e := New(testProfile(), testLogger)

	markup := `<div class="article-body"><p>Body text only.</p></div>`
	art, err := e.ExtractArticle(markup, "https://news.example.com/story/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if art.Title != PlaceholderTitle {
		t.Errorf("title = %q, want placeholder", art.Title)
	}
	if art.Author != PlaceholderAuthor {
		t.Errorf("author = %q, want placeholder", art.Author)
	}
}

func TestExtractArticleEmptyContent(t *testing.T) {
	e := New(testProfile(), testLogger)

	markup := `<h1 class="headline">Title Without Body</h1>`
	_, err := e.ExtractArticle(markup, "https://news.example.com/story/")
	if !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("err = %v, want ErrEmptyContent", err)
	}
}

func TestExtractArticleKeyPoints(t *testing.T) {
	p := testProfile()
	p.KeyPoints = &KeyPointsRule{
		Container: "div.key-points",
		Title:     "h2",
		Point:     "li",
	}
	e := New(p, testLogger)

	markup := `
	<div class="key-points">
		<h2>Key Takeaways</h2>
		<ul><li>Point one.</li><li>Point two.</li></ul>
	</div>
	<div class="article-body"><p>Body paragraph.</p></div>`

	art, err := e.ExtractArticle(markup, "https://news.example.com/story/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if !strings.HasPrefix(art.Content, "Key Takeaways") {
		t.Errorf("summary not prepended: %q", art.Content)
	}
	if !strings.Contains(art.Content, "• Point one.") || !strings.Contains(art.Content, "• Point two.") {
		t.Errorf("bullet points missing: %q", art.Content)
	}
	if idx := strings.Index(art.Content, "Body paragraph."); idx < strings.Index(art.Content, "Point two.") {
		t.Errorf("summary should precede body: %q", art.Content)
	}
}

func TestExtractArticleImageFallbacks(t *testing.T) {
	e := New(testProfile(), testLogger)

	// Dedicated selector wins.
	art, err := e.ExtractArticle(`
		<img class="lead-image" src="/images/lead.png">
		<div class="article-body"><p>Body.</p></div>`, "https://news.example.com/s/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if art.ImageURL != "https://news.example.com/images/lead.png" {
		t.Errorf("image = %q, want resolved lead image", art.ImageURL)
	}

	// Open-Graph meta when the dedicated selector misses.
	art, err = e.ExtractArticle(`
		<meta property="og:image" content="https://cdn.example.com/og.jpg">
		<div class="article-body"><p>Body.</p></div>`, "https://news.example.com/s/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if art.ImageURL != "https://cdn.example.com/og.jpg" {
		t.Errorf("image = %q, want og:image", art.ImageURL)
	}

	// Document-wide fallback skips data: URIs and honors data-src.
	art, err = e.ExtractArticle(`
		<img src="data:image/gif;base64,AAAA">
		<img data-src="https://cdn.example.com/lazy.jpg">
		<div class="article-body"><p>Body.</p></div>`, "https://news.example.com/s/")
	if err != nil {
		t.Fatalf("ExtractArticle: %v", err)
	}
	if art.ImageURL != "https://cdn.example.com/lazy.jpg" {
		t.Errorf("image = %q, want lazy-loaded fallback", art.ImageURL)
	}
}

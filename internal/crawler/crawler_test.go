package crawler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/yxz033/Tech-Web-Crawling/internal/extract"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeSession serves canned markup per URL, standing in for a browser tab.
// Markup in settledPages only becomes visible after a WaitStable call, like
// a results page still rendering when the form submit returns.
type fakeSession struct {
	pages        map[string]string
	settledPages map[string]string
	failNav      map[string]error
	evalResult   string
	current      string
	navigated    []string
	filled       map[string]string
	clicked      []string
	waits        int
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		pages:        map[string]string{},
		settledPages: map[string]string{},
		failNav:      map[string]error{},
		evalResult:   "[]",
		filled:       map[string]string{},
	}
}

func (f *fakeSession) Navigate(url string) error {
	f.navigated = append(f.navigated, url)
	if err := f.failNav[url]; err != nil {
		return err
	}
	f.current = url
	return nil
}

func (f *fakeSession) HTML() (string, error) {
	markup, ok := f.pages[f.current]
	if !ok {
		return "", errors.New("no page loaded")
	}
	return markup, nil
}

func (f *fakeSession) CurrentURL() (string, error) { return f.current, nil }
func (f *fakeSession) Title() (string, error)      { return "", nil }

func (f *fakeSession) Eval(string) (string, error) { return f.evalResult, nil }

func (f *fakeSession) Fill(selector, text string) error {
	f.filled[selector] = text
	return nil
}

func (f *fakeSession) Click(selector string) error {
	f.clicked = append(f.clicked, selector)
	return nil
}

func (f *fakeSession) WaitForSelector(string, time.Duration) error { return nil }

func (f *fakeSession) WaitStable(time.Duration) error {
	f.waits++
	for url, markup := range f.settledPages {
		f.pages[url] = markup
	}
	return nil
}

func (f *fakeSession) Close() error { return nil }

func testProfile() *extract.Profile {
	return &extract.Profile{
		Source:          "example",
		BaseURL:         "https://news.example.com/",
		Domain:          "news.example.com",
		ListingURL:      "https://news.example.com/latest/",
		SearchURL:       "https://news.example.com/search/?q=%s",
		LinkRules:       []extract.LinkRule{{Selector: "a.card-link"}},
		MinAnchorText:   10,
		TitleSelectors:  []string{"h1.headline"},
		AuthorSelectors: []string{"a.author-name"},
		DateSelectors:   []string{"time.published"},
		BodySelector:    "div.article-body p",
		SearchUI: &extract.SearchUI{
			MenuButtons:   []string{"label.menu-icon"},
			SearchButtons: []string{"span.i-search"},
			Inputs:        []string{"#search-input"},
		},
	}
}

func articlePage(title string) string {
	return `<h1 class="headline">` + title + `</h1>
		<a class="author-name">Jane Doe</a>
		<time class="published" datetime="2025-03-01T08:00:00Z">March 1, 2025</time>
		<div class="article-body"><p>Body of ` + title + `.</p></div>`
}

func newTestCrawler(f *fakeSession) *Crawler {
	c := New(f, extract.New(testProfile(), testLogger), Options{MaxArticles: 10}, testLogger)
	c.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestRunListing(t *testing.T) {
	f := newFakeSession()
	f.pages["https://news.example.com/latest/"] = `
		<a class="card-link" href="/story-one/">Story One</a>
		<a class="card-link" href="/story-two/">Story Two</a>`
	f.pages["https://news.example.com/story-one/"] = articlePage("Story One")
	f.pages["https://news.example.com/story-two/"] = articlePage("Story Two")

	articles, err := newTestCrawler(f).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want 2", len(articles))
	}
	if articles[0].Title != "Story One" || articles[1].Title != "Story Two" {
		t.Errorf("titles = %q, %q", articles[0].Title, articles[1].Title)
	}
	if articles[0].Source != "example" {
		t.Errorf("source = %q", articles[0].Source)
	}
	if articles[0].Keyword != "" {
		t.Errorf("listing crawl tagged keyword %q", articles[0].Keyword)
	}
	want := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	if !articles[0].PublishedDate.Equal(want) {
		t.Errorf("published = %v, want %v", articles[0].PublishedDate, want)
	}
}

func TestRunListingHomePageFallback(t *testing.T) {
	f := newFakeSession()
	f.pages["https://news.example.com/latest/"] = `<p>nothing here</p>`
	f.pages["https://news.example.com/"] = `<a class="card-link" href="/story-one/">Story One</a>`
	f.pages["https://news.example.com/story-one/"] = articlePage("Story One")

	articles, err := newTestCrawler(f).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	if f.navigated[1] != "https://news.example.com/" {
		t.Errorf("expected home-page retry, navigated %v", f.navigated)
	}
}

func TestRunIsolatesArticleFailures(t *testing.T) {
	f := newFakeSession()
	f.pages["https://news.example.com/latest/"] = `
		<a class="card-link" href="/story-one/">Story One</a>
		<a class="card-link" href="/broken/">Broken</a>
		<a class="card-link" href="/empty/">Empty</a>
		<a class="card-link" href="/story-two/">Story Two</a>`
	f.pages["https://news.example.com/story-one/"] = articlePage("Story One")
	f.pages["https://news.example.com/story-two/"] = articlePage("Story Two")
	f.pages["https://news.example.com/empty/"] = `<h1 class="headline">No Body</h1>`
	f.failNav["https://news.example.com/broken/"] = errors.New("net::ERR_CONNECTION_RESET")

	articles, err := newTestCrawler(f).Run(context.Background(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(articles) != 2 {
		t.Fatalf("got %d articles, want the 2 healthy ones", len(articles))
	}
	if articles[0].Title != "Story One" || articles[1].Title != "Story Two" {
		t.Errorf("titles = %q, %q", articles[0].Title, articles[1].Title)
	}
}

func TestRunKeywordSearch(t *testing.T) {
	f := newFakeSession()
	f.pages["https://news.example.com/search/?q=deepseek"] = `
		<a class="card-link" href="/deepseek-review/">DeepSeek Review</a>`
	f.pages["https://news.example.com/deepseek-review/"] = articlePage("DeepSeek Review")

	articles, err := newTestCrawler(f).Run(context.Background(), []string{"deepseek"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	if articles[0].Keyword != "deepseek" {
		t.Errorf("keyword = %q, want tagged", articles[0].Keyword)
	}
}

func TestRunKeywordUIFallback(t *testing.T) {
	f := newFakeSession()
	// URL search yields nothing; the home page is where the UI flow starts,
	// and after submitting the fake stays on the same page, which now shows
	// results.
	f.pages["https://news.example.com/search/?q=deepseek"] = `<p>no results markup</p>`
	f.pages["https://news.example.com/"] = `
		<a class="card-link" href="/deepseek-review/">DeepSeek Review</a>`
	f.pages["https://news.example.com/deepseek-review/"] = articlePage("DeepSeek Review")

	articles, err := newTestCrawler(f).Run(context.Background(), []string{"deepseek"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	if f.filled["#search-input"] != "deepseek" {
		t.Errorf("search input filled with %q", f.filled["#search-input"])
	}
}

func TestRunKeywordUIFallbackWaitsForResults(t *testing.T) {
	f := newFakeSession()
	f.pages["https://news.example.com/search/?q=deepseek"] = `<p>no results markup</p>`
	// The home page shows only the search form; the results list renders
	// after the submit-triggered navigation settles.
	f.pages["https://news.example.com/"] = `<form><input id="search-input"></form>`
	f.settledPages["https://news.example.com/"] = `
		<a class="card-link" href="/deepseek-review/">DeepSeek Review</a>`
	f.pages["https://news.example.com/deepseek-review/"] = articlePage("DeepSeek Review")

	articles, err := newTestCrawler(f).Run(context.Background(), []string{"deepseek"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1 from the settled results page", len(articles))
	}
	if f.waits == 0 {
		t.Error("results page read without waiting after submit")
	}
}

func TestRunKeywordIsolation(t *testing.T) {
	f := newFakeSession()
	f.failNav["https://news.example.com/search/?q=broken"] = errors.New("timeout")
	f.pages["https://news.example.com/search/?q=good"] = `
		<a class="card-link" href="/good-story/">A Good Story</a>`
	f.pages["https://news.example.com/good-story/"] = articlePage("A Good Story")

	// The broken keyword's UI fallback also fails at the home page.
	f.failNav["https://news.example.com/"] = errors.New("timeout")

	articles, err := newTestCrawler(f).Run(context.Background(), []string{"broken", "good"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want the good keyword's 1", len(articles))
	}
	if articles[0].Keyword != "good" {
		t.Errorf("keyword = %q", articles[0].Keyword)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	f := newFakeSession()
	f.pages["https://news.example.com/latest/"] = `
		<a class="card-link" href="/story-one/">Story One</a>`
	f.pages["https://news.example.com/story-one/"] = articlePage("Story One")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	articles, _ := newTestCrawler(f).Run(ctx, nil)
	if len(articles) != 0 {
		t.Fatalf("got %d articles after cancel, want 0", len(articles))
	}
}

package extract

import (
	"log/slog"
	"os"
	"strings"
	"testing"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testProfile() *Profile {
	return &Profile{
		Source:        "example",
		BaseURL:       "https://news.example.com/",
		Domain:        "news.example.com",
		ListingURL:    "https://news.example.com/latest/",
		LinkRules:     []LinkRule{{Selector: "a.card-link"}},
		ExcludePaths:  []string{"/tag/", "/author/"},
		MinAnchorText: 10,
		TitleSelectors:  []string{"h1.headline"},
		AuthorSelectors: []string{"a.author-name"},
		DateSelectors:   []string{"time.published", `meta[property="article:published_time"]`},
		BodySelector:    "div.article-body p",
		ExcludeMarkers:  []string{"related-posts", "newsletter"},
		ExcludeIDs:      []string{"comment-form"},
		ImageSelectors:  []string{"img.lead-image", `meta[property="og:image"]`},
	}
}

const listingHTML = `<!DOCTYPE html>
<html><body>
	<a class="card-link" href="/story-one/">Story One</a>
	<a class="card-link" href="/story-two/">Story Two</a>
	<a class="card-link" href="/story-one/">Story One again</a>
	<a class="card-link" href="/tag/ai/">AI tag</a>
	<a class="card-link" href="javascript:void(0)">Nope</a>
	<h2><a href="/story-three/">A heading-wrapped headline</a></h2>
	<h3><a href="https://other.example.org/offsite/">Offsite heading headline</a></h3>
	<a href="/story-four/">A long enough plain anchor</a>
	<a href="/x/">short</a>
</body></html>`

func TestDiscoverLinksTiersAndDedup(t *testing.T) {
	e := New(testProfile(), testLogger)

	links, err := e.DiscoverLinks(listingHTML, 10)
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}

	want := []string{
		"https://news.example.com/story-one/",
		"https://news.example.com/story-two/",
		"https://news.example.com/story-three/",
		"https://news.example.com/story-four/",
	}
	if len(links) != len(want) {
		t.Fatalf("got %d links %v, want %d", len(links), links, len(want))
	}
	for i, w := range want {
		if links[i] != w {
			t.Errorf("links[%d] = %q, want %q", i, links[i], w)
		}
	}
}

func TestDiscoverLinksCap(t *testing.T) {
	e := New(testProfile(), testLogger)

	links, err := e.DiscoverLinks(listingHTML, 2)
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0] != "https://news.example.com/story-one/" || links[1] != "https://news.example.com/story-two/" {
		t.Errorf("cap broke first-seen order: %v", links)
	}
}

func TestDiscoverLinksStripsFragments(t *testing.T) {
	e := New(testProfile(), testLogger)

	markup := `<a class="card-link" href="/story-one/#comments">Story</a>`
	links, err := e.DiscoverLinks(markup, 10)
	if err != nil {
		t.Fatalf("DiscoverLinks: %v", err)
	}
	if len(links) != 1 || links[0] != "https://news.example.com/story-one/" {
		t.Errorf("fragment not stripped: %v", links)
	}
}

func TestMergeCandidates(t *testing.T) {
	e := New(testProfile(), testLogger)

	existing := []string{"https://news.example.com/story-one/"}
	cands := []LinkCandidate{
		{URL: "https://news.example.com/story-one/", Text: "Story One duplicate"},
		{URL: "https://news.example.com/story-five/", Text: "Story Five headline"},
		{URL: "https://news.example.com/x/", Text: "short"},
		{URL: "https://elsewhere.example.org/story/", Text: "Offsite story headline"},
		{URL: "https://news.example.com/author/jane/", Text: "Jane the author page"},
	}

	merged := e.MergeCandidates(existing, cands, 10)
	want := []string{
		"https://news.example.com/story-one/",
		"https://news.example.com/story-five/",
	}
	if len(merged) != len(want) {
		t.Fatalf("got %v, want %v", merged, want)
	}
	for i := range want {
		if merged[i] != want[i] {
			t.Errorf("merged[%d] = %q, want %q", i, merged[i], want[i])
		}
	}
}

func TestMergeCandidatesHonorsLimit(t *testing.T) {
	e := New(testProfile(), testLogger)

	existing := []string{"https://news.example.com/a-long-story/"}
	cands := []LinkCandidate{
		{URL: "https://news.example.com/story-b/", Text: "Story B headline"},
		{URL: "https://news.example.com/story-c/", Text: "Story C headline"},
	}
	merged := e.MergeCandidates(existing, cands, 2)
	if len(merged) != 2 {
		t.Fatalf("got %d links, want 2", len(merged))
	}
}

func TestLinkScriptMentionsDomain(t *testing.T) {
	e := New(testProfile(), testLogger)
	js := e.LinkScript()
	if !strings.Contains(js, "news.example.com") {
		t.Errorf("link script does not pin the site domain:\n%s", js)
	}
}

func TestBuiltinProfiles(t *testing.T) {
	profiles := Builtin()
	for _, name := range []string{"howtogeek", "uniteai", "marktechpost"} {
		p, ok := profiles[name]
		if !ok {
			t.Errorf("missing builtin profile %q", name)
			continue
		}
		if p.Source != name {
			t.Errorf("profile %q has source %q", name, p.Source)
		}
		if p.BaseURL == "" || p.Domain == "" || p.ListingURL == "" || p.BodySelector == "" {
			t.Errorf("profile %q is missing required fields", name)
		}
	}
}

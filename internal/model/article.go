package model

import (
	"time"
)

// Article is one scraped news item, normalized from a site-specific
// extraction result. URL is the identity key: the store treats two articles
// with the same URL as the same logical record.
type Article struct {
	ID            int64     `json:"id" bson:"id"`
	Title         string    `json:"title" bson:"title"`
	Author        string    `json:"author" bson:"author"`
	PublishedDate time.Time `json:"published_date" bson:"published_date"`
	Content       string    `json:"content" bson:"content"`
	HTMLContent   string    `json:"html_content" bson:"html_content"`
	URL           string    `json:"url" bson:"url"`
	Source        string    `json:"source" bson:"source"`
	Keyword       string    `json:"keyword,omitempty" bson:"keyword,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// Valid reports whether the article carries the minimum fields the store
// will accept.
func (a *Article) Valid() bool {
	return a != nil && a.URL != "" && a.Content != ""
}

// ContentEquals compares the mutable fields used for change detection on
// re-crawl. Published date and keyword are deliberately excluded: a site
// re-rendering the same article with a fresher relative timestamp is not a
// content change.
func (a *Article) ContentEquals(other *Article) bool {
	return a.Title == other.Title &&
		a.Author == other.Author &&
		a.Content == other.Content &&
		a.HTMLContent == other.HTMLContent
}

package model

import (
	"time"
)

// Platform identifies the trend board a TrendItem came from.
type Platform string

const (
	PlatformGithub      Platform = "github"
	PlatformTwitter     Platform = "twitter"
	PlatformHuggingface Platform = "huggingface"
)

// TrendItem is one ranked entry on a trend board. Rather than a type per
// platform, variant fields live side by side and Platform selects which of
// them are meaningful; unset variants serialize as empty strings / empty
// lists. Identity key is (URL, Platform). Rank is the 1-based board position
// within one crawl snapshot, not a stable identifier.
type TrendItem struct {
	ID          int64    `json:"id" bson:"id"`
	Rank        int      `json:"rank" bson:"rank"`
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	URL         string   `json:"url" bson:"url"`
	Platform    Platform `json:"platform" bson:"platform"`

	// github
	Language string `json:"language" bson:"language"`
	Stars    int    `json:"stars" bson:"stars"`

	// twitter; platform-native formatting such as "12.3K"
	TweetCount string `json:"tweet_count" bson:"tweet_count"`

	// huggingface
	Downloads string   `json:"downloads" bson:"downloads"`
	Tags      []string `json:"tags" bson:"tags"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Valid reports whether the trend item carries its identity key.
func (t *TrendItem) Valid() bool {
	return t != nil && t.URL != "" && t.Platform != ""
}

// ContentEquals compares the fields that constitute a meaningful change for
// a repeat save. Rank is excluded: boards reorder constantly and a moved
// entry is not an update worth flagging.
func (t *TrendItem) ContentEquals(other *TrendItem) bool {
	if t.Name != other.Name ||
		t.Description != other.Description ||
		t.Language != other.Language ||
		t.Stars != other.Stars ||
		t.TweetCount != other.TweetCount ||
		t.Downloads != other.Downloads {
		return false
	}
	if len(t.Tags) != len(other.Tags) {
		return false
	}
	for i := range t.Tags {
		if t.Tags[i] != other.Tags[i] {
			return false
		}
	}
	return true
}

package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// relativeRe matches relative-time phrases like "3 hours ago" or
// "1 minute ago".
var relativeRe = regexp.MustCompile(`(\d+)\s+(minute|hour|day)s?\s+ago`)

// absoluteFormats are tried in order; the first that parses wins.
var absoluteFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// NormalizeDate converts a raw date representation into a canonical
// timestamp. It accepts ISO-8601 (with a trailing Z as UTC), relative
// phrases ("N hours ago"), and a fixed list of absolute formats. When
// nothing parses, it returns now with ok=false: an unparseable date degrades
// to the crawl time rather than failing the article.
func NormalizeDate(raw string, now time.Time) (t time.Time, ok bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Published"))
	if raw == "" {
		return now, false
	}

	// Machine-readable datetime attributes are ISO-8601.
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return t, true
	}

	if m := relativeRe.FindStringSubmatch(raw); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			switch m[2] {
			case "minute":
				return now.Add(-time.Duration(n) * time.Minute), true
			case "hour":
				return now.Add(-time.Duration(n) * time.Hour), true
			case "day":
				return now.AddDate(0, 0, -n), true
			}
		}
	}

	for _, layout := range absoluteFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}

	return now, false
}

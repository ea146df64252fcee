package extract

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func TestNormalizeDateISO(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2025-01-02T10:30:00Z", time.Date(2025, 1, 2, 10, 30, 0, 0, time.UTC)},
		{"2025-01-02T10:30:00+02:00", time.Date(2025, 1, 2, 10, 30, 0, 0, time.FixedZone("", 2*3600))},
		{"2025-01-02T10:30:00", time.Date(2025, 1, 2, 10, 30, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, ok := NormalizeDate(c.raw, testNow)
		if !ok {
			t.Errorf("NormalizeDate(%q) ok=false, want true", c.raw)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("NormalizeDate(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestNormalizeDateRelative(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"3 hours ago", testNow.Add(-3 * time.Hour)},
		{"1 minute ago", testNow.Add(-time.Minute)},
		{"45 minutes ago", testNow.Add(-45 * time.Minute)},
		{"2 days ago", testNow.AddDate(0, 0, -2)},
	}
	for _, c := range cases {
		got, ok := NormalizeDate(c.raw, testNow)
		if !ok {
			t.Errorf("NormalizeDate(%q) ok=false, want true", c.raw)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("NormalizeDate(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestNormalizeDateAbsolute(t *testing.T) {
	cases := []struct {
		raw  string
		want time.Time
	}{
		{"2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"Mar 1, 2025", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"March 1, 2025", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"1 March 2025", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"Published Mar 1, 2025", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		got, ok := NormalizeDate(c.raw, testNow)
		if !ok {
			t.Errorf("NormalizeDate(%q) ok=false, want true", c.raw)
			continue
		}
		if !got.Equal(c.want) {
			t.Errorf("NormalizeDate(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestNormalizeDateFallback(t *testing.T) {
	for _, raw := range []string{"", "???", "yesterday-ish", "13/45/2025"} {
		got, ok := NormalizeDate(raw, testNow)
		if ok {
			t.Errorf("NormalizeDate(%q) ok=true, want false", raw)
		}
		if !got.Equal(testNow) {
			t.Errorf("NormalizeDate(%q) = %v, want crawl time %v", raw, got, testNow)
		}
	}
}

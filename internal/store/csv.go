package store

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

var articleHeader = []string{
	"id", "title", "author", "published_date", "content",
	"html_content", "url", "source", "keyword", "created_at", "updated_at",
}

var trendHeader = []string{
	"id", "rank", "name", "description", "url", "platform",
	"tweet_count", "language", "stars", "downloads", "tags",
	"created_at", "updated_at",
}

// CSVStore keeps articles and trends in two CSV files with fixed headers.
// Inserts append a row; existence checks and max-id computation scan the
// whole file; a content update rewrites the file. Not safe for concurrent
// writers.
type CSVStore struct {
	articlesPath string
	trendsPath   string
	mu           sync.Mutex
	now          func() time.Time
	logger       *slog.Logger
}

// NewCSVStore creates the CSV file backend, writing header rows for files
// that do not exist yet.
func NewCSVStore(articlesPath, trendsPath string, logger *slog.Logger) (*CSVStore, error) {
	s := &CSVStore{
		articlesPath: articlesPath,
		trendsPath:   trendsPath,
		now:          time.Now,
		logger:       logger.With("component", "csv_store"),
	}
	inits := []struct {
		path   string
		header []string
	}{
		{articlesPath, articleHeader},
		{trendsPath, trendHeader},
	}
	for _, in := range inits {
		if err := os.MkdirAll(filepath.Dir(in.path), 0o755); err != nil {
			return nil, &StorageError{Backend: "csv", Err: fmt.Errorf("create data dir: %w", err)}
		}
		if _, err := os.Stat(in.path); os.IsNotExist(err) {
			if err := writeCSV(in.path, in.header, nil); err != nil {
				return nil, &StorageError{Backend: "csv", Err: err}
			}
		}
	}
	return s, nil
}

func (s *CSVStore) Name() string { return "csv" }

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) SaveArticle(_ context.Context, a *model.Article) (Result, error) {
	if !a.Valid() {
		return ResultSkipped, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.loadArticles()
	if err != nil {
		return ResultSkipped, &StorageError{Backend: "csv", Err: err}
	}

	now := s.now()
	for i := range articles {
		if articles[i].URL != a.URL {
			continue
		}
		if articles[i].ContentEquals(a) {
			return ResultUnchanged, nil
		}
		articles[i].Title = a.Title
		articles[i].Author = a.Author
		articles[i].PublishedDate = a.PublishedDate
		articles[i].Content = a.Content
		articles[i].HTMLContent = a.HTMLContent
		if a.Keyword != "" {
			articles[i].Keyword = a.Keyword
		}
		articles[i].UpdatedAt = now
		rows := make([][]string, len(articles))
		for j := range articles {
			rows[j] = articleRow(&articles[j])
		}
		if err := writeCSV(s.articlesPath, articleHeader, rows); err != nil {
			return ResultSkipped, &StorageError{Backend: "csv", Err: err}
		}
		return ResultUpdated, nil
	}

	stored := *a
	stored.ID = maxArticleID(articles) + 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if err := appendCSV(s.articlesPath, articleRow(&stored)); err != nil {
		return ResultSkipped, &StorageError{Backend: "csv", Err: err}
	}
	return ResultInserted, nil
}

func (s *CSVStore) SaveArticles(ctx context.Context, articles []*model.Article) (int, error) {
	return saveArticleBatch(ctx, s, articles, s.logger)
}

func (s *CSVStore) SaveTrend(_ context.Context, t *model.TrendItem) (Result, error) {
	if !t.Valid() {
		return ResultSkipped, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trends, err := s.loadTrends()
	if err != nil {
		return ResultSkipped, &StorageError{Backend: "csv", Err: err}
	}

	now := s.now()
	for i := range trends {
		if trends[i].URL != t.URL || trends[i].Platform != t.Platform {
			continue
		}
		if trends[i].ContentEquals(t) {
			return ResultUnchanged, nil
		}
		trends[i].Rank = t.Rank
		trends[i].Name = t.Name
		trends[i].Description = t.Description
		trends[i].Language = t.Language
		trends[i].Stars = t.Stars
		trends[i].TweetCount = t.TweetCount
		trends[i].Downloads = t.Downloads
		trends[i].Tags = t.Tags
		trends[i].UpdatedAt = now
		rows := make([][]string, len(trends))
		for j := range trends {
			rows[j] = trendRow(&trends[j])
		}
		if err := writeCSV(s.trendsPath, trendHeader, rows); err != nil {
			return ResultSkipped, &StorageError{Backend: "csv", Err: err}
		}
		return ResultUpdated, nil
	}

	stored := *t
	stored.ID = maxTrendID(trends) + 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if err := appendCSV(s.trendsPath, trendRow(&stored)); err != nil {
		return ResultSkipped, &StorageError{Backend: "csv", Err: err}
	}
	return ResultInserted, nil
}

func (s *CSVStore) SaveTrends(ctx context.Context, items []model.TrendItem) (int, error) {
	return saveTrendBatch(ctx, s, items, s.logger)
}

func (s *CSVStore) ArticleByURL(_ context.Context, url string) (*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := s.loadArticles()
	if err != nil {
		return nil, &StorageError{Backend: "csv", Err: err}
	}
	for i := range articles {
		if articles[i].URL == url {
			return &articles[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *CSVStore) TrendByURL(_ context.Context, url string, platform model.Platform) (*model.TrendItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trends, err := s.loadTrends()
	if err != nil {
		return nil, &StorageError{Backend: "csv", Err: err}
	}
	for i := range trends {
		if trends[i].URL == url && trends[i].Platform == platform {
			return &trends[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *CSVStore) loadArticles() ([]model.Article, error) {
	rows, err := readCSV(s.articlesPath)
	if err != nil {
		return nil, err
	}
	out := make([]model.Article, 0, len(rows))
	for _, row := range rows {
		a, err := parseArticleRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed article row", "error", err)
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (s *CSVStore) loadTrends() ([]model.TrendItem, error) {
	rows, err := readCSV(s.trendsPath)
	if err != nil {
		return nil, err
	}
	out := make([]model.TrendItem, 0, len(rows))
	for _, row := range rows {
		t, err := parseTrendRow(row)
		if err != nil {
			s.logger.Warn("skipping malformed trend row", "error", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func articleRow(a *model.Article) []string {
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Title,
		a.Author,
		a.PublishedDate.Format(time.RFC3339),
		a.Content,
		a.HTMLContent,
		a.URL,
		a.Source,
		a.Keyword,
		a.CreatedAt.Format(time.RFC3339),
		a.UpdatedAt.Format(time.RFC3339),
	}
}

func parseArticleRow(row []string) (model.Article, error) {
	if len(row) != len(articleHeader) {
		return model.Article{}, fmt.Errorf("expected %d columns, got %d", len(articleHeader), len(row))
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return model.Article{}, fmt.Errorf("bad id %q: %w", row[0], err)
	}
	published, err := time.Parse(time.RFC3339, row[3])
	if err != nil {
		return model.Article{}, fmt.Errorf("bad published_date %q: %w", row[3], err)
	}
	created, _ := time.Parse(time.RFC3339, row[9])
	updated, _ := time.Parse(time.RFC3339, row[10])
	return model.Article{
		ID:            id,
		Title:         row[1],
		Author:        row[2],
		PublishedDate: published,
		Content:       row[4],
		HTMLContent:   row[5],
		URL:           row[6],
		Source:        row[7],
		Keyword:       row[8],
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}

func trendRow(t *model.TrendItem) []string {
	stars := ""
	if t.Platform == model.PlatformGithub {
		stars = strconv.Itoa(t.Stars)
	}
	tags := ""
	if len(t.Tags) > 0 {
		b, _ := json.Marshal(t.Tags)
		tags = string(b)
	}
	return []string{
		strconv.FormatInt(t.ID, 10),
		strconv.Itoa(t.Rank),
		t.Name,
		t.Description,
		t.URL,
		string(t.Platform),
		t.TweetCount,
		t.Language,
		stars,
		t.Downloads,
		tags,
		t.CreatedAt.Format(time.RFC3339),
		t.UpdatedAt.Format(time.RFC3339),
	}
}

func parseTrendRow(row []string) (model.TrendItem, error) {
	if len(row) != len(trendHeader) {
		return model.TrendItem{}, fmt.Errorf("expected %d columns, got %d", len(trendHeader), len(row))
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return model.TrendItem{}, fmt.Errorf("bad id %q: %w", row[0], err)
	}
	rank, err := strconv.Atoi(row[1])
	if err != nil {
		return model.TrendItem{}, fmt.Errorf("bad rank %q: %w", row[1], err)
	}
	stars := 0
	if row[8] != "" {
		if stars, err = strconv.Atoi(row[8]); err != nil {
			return model.TrendItem{}, fmt.Errorf("bad stars %q: %w", row[8], err)
		}
	}
	var tags []string
	if row[10] != "" {
		if err := json.Unmarshal([]byte(row[10]), &tags); err != nil {
			return model.TrendItem{}, fmt.Errorf("bad tags %q: %w", row[10], err)
		}
	}
	created, _ := time.Parse(time.RFC3339, row[11])
	updated, _ := time.Parse(time.RFC3339, row[12])
	return model.TrendItem{
		ID:          id,
		Rank:        rank,
		Name:        row[2],
		Description: row[3],
		URL:         row[4],
		Platform:    model.Platform(row[5]),
		TweetCount:  row[6],
		Language:    row[7],
		Stars:       stars,
		Downloads:   row[9],
		Tags:        tags,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}, nil
}

// readCSV returns all data rows, skipping the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func appendCSV(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	w.Flush()
	return w.Error()
}

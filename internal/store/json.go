package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

// JSONStore keeps articles and trends in two JSON array files. Each save
// loads the whole collection, modifies it, and rewrites the file — simple
// and inspectable, but not safe for concurrent writers to the same file.
type JSONStore struct {
	articlesPath string
	trendsPath   string
	mu           sync.Mutex
	now          func() time.Time
	logger       *slog.Logger
}

// NewJSONStore creates the JSON file backend, initializing empty collection
// files if they do not exist yet.
func NewJSONStore(articlesPath, trendsPath string, logger *slog.Logger) (*JSONStore, error) {
	s := &JSONStore{
		articlesPath: articlesPath,
		trendsPath:   trendsPath,
		now:          time.Now,
		logger:       logger.With("component", "json_store"),
	}
	for _, p := range []string{articlesPath, trendsPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, &StorageError{Backend: "json", Err: fmt.Errorf("create data dir: %w", err)}
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			if err := os.WriteFile(p, []byte("[]\n"), 0o644); err != nil {
				return nil, &StorageError{Backend: "json", Err: fmt.Errorf("init %s: %w", p, err)}
			}
		}
	}
	return s, nil
}

func (s *JSONStore) Name() string { return "json" }

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) SaveArticle(_ context.Context, a *model.Article) (Result, error) {
	if !a.Valid() {
		return ResultSkipped, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := loadJSON[model.Article](s.articlesPath)
	if err != nil {
		return ResultSkipped, &StorageError{Backend: "json", Err: err}
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
		if a.Keyword != "" && articles[i].Keyword != a.Keyword {
			articles[i].Keyword = a.Keyword
		}
		articles[i].UpdatedAt = now
		if err := writeJSON(s.articlesPath, articles); err != nil {
			return ResultSkipped, &StorageError{Backend: "json", Err: err}
		}
		s.logger.Info("article updated", "url", a.URL, "title", a.Title)
		return ResultUpdated, nil
	}

	stored := *a
	stored.ID = maxArticleID(articles) + 1
	stored.CreatedAt = now
	stored.UpdatedAt = now
	articles = append(articles, stored)
	if err := writeJSON(s.articlesPath, articles); err != nil {
		return ResultSkipped, &StorageError{Backend: "json", Err: err}
	}
	s.logger.Info("article inserted", "url", a.URL, "title", a.Title)
	return ResultInserted, nil
}

func (s *JSONStore) SaveArticles(ctx context.Context, articles []*model.Article) (int, error) {
	return saveArticleBatch(ctx, s, articles, s.logger)
}

func (s *JSONStore) SaveTrend(_ context.Context, t *model.TrendItem) (Result, error) {
	if !t.Valid() {
		return ResultSkipped, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	trends, err := loadJSON[model.TrendItem](s.trendsPath)
	if err != nil {
		return ResultSkipped, &StorageError{Backend: "json", Err: err}
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
		if err := writeJSON(s.trendsPath, trends); err != nil {
			return ResultSkipped, &StorageError{Backend: "json", Err: err}
		}
		return ResultUpdated, nil
	}

	stored := *t
	stored.ID = maxTrendID(trends) + 1
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	trends = append(trends, stored)
	if err := writeJSON(s.trendsPath, trends); err != nil {
		return ResultSkipped, &StorageError{Backend: "json", Err: err}
	}
	return ResultInserted, nil
}

func (s *JSONStore) SaveTrends(ctx context.Context, items []model.TrendItem) (int, error) {
	return saveTrendBatch(ctx, s, items, s.logger)
}

func (s *JSONStore) ArticleByURL(_ context.Context, url string) (*model.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	articles, err := loadJSON[model.Article](s.articlesPath)
	if err != nil {
		return nil, &StorageError{Backend: "json", Err: err}
	}
	for i := range articles {
		if articles[i].URL == url {
			return &articles[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *JSONStore) TrendByURL(_ context.Context, url string, platform model.Platform) (*model.TrendItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trends, err := loadJSON[model.TrendItem](s.trendsPath)
	if err != nil {
		return nil, &StorageError{Backend: "json", Err: err}
	}
	for i := range trends {
		if trends[i].URL == url && trends[i].Platform == platform {
			return &trends[i], nil
		}
	}
	return nil, ErrNotFound
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return out, nil
}

func writeJSON[T any](path string, records []T) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func maxArticleID(articles []model.Article) int64 {
	var max int64
	for i := range articles {
		if articles[i].ID > max {
			max = articles[i].ID
		}
	}
	return max
}

func maxTrendID(trends []model.TrendItem) int64 {
	var max int64
	for i := range trends {
		if trends[i].ID > max {
			max = trends[i].ID
		}
	}
	return max
}

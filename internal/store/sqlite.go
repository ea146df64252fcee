package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS articles (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	title          TEXT NOT NULL,
	author         TEXT NOT NULL,
	published_date TEXT NOT NULL,
	content        TEXT NOT NULL,
	html_content   TEXT NOT NULL,
	url            TEXT NOT NULL UNIQUE,
	source         TEXT NOT NULL,
	keyword        TEXT NOT NULL DEFAULT '',
	created_at     TEXT NOT NULL,
	updated_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trends (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	rank        INTEGER NOT NULL,
	name        TEXT NOT NULL,
	description TEXT NOT NULL,
	url         TEXT NOT NULL,
	platform    TEXT NOT NULL,
	tweet_count TEXT NOT NULL DEFAULT '',
	language    TEXT NOT NULL DEFAULT '',
	stars       INTEGER NOT NULL DEFAULT 0,
	downloads   TEXT NOT NULL DEFAULT '',
	tags        TEXT NOT NULL DEFAULT '[]',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	UNIQUE (url, platform)
);
`

// SQLiteStore persists articles and trends in a single SQLite file. The
// identity constraints live in the schema, so concurrent writers from one
// process are safe.
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path and
// applies the schema.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Backend: "sqlite", Err: fmt.Errorf("create data dir: %w", err)}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Err: fmt.Errorf("open database: %w", err)}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, &StorageError{Backend: "sqlite", Err: fmt.Errorf("apply schema: %w", err)}
	}
	return &SQLiteStore{
		db:     db,
		now:    time.Now,
		logger: logger.With("component", "sqlite_store"),
	}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) SaveArticle(ctx context.Context, a *model.Article) (Result, error) {
	if !a.Valid() {
		return ResultSkipped, nil
	}

	existing, err := s.ArticleByURL(ctx, a.URL)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return ResultSkipped, err
	}

	now := s.now()
	if existing != nil {
		if existing.ContentEquals(a) {
			return ResultUnchanged, nil
		}
		keyword := existing.Keyword
		if a.Keyword != "" {
			keyword = a.Keyword
		}
		_, err := s.db.ExecContext(ctx, `
			UPDATE articles
			SET title = ?, author = ?, published_date = ?, content = ?,
			    html_content = ?, keyword = ?, updated_at = ?
			WHERE url = ?`,
			a.Title, a.Author, a.PublishedDate.Format(time.RFC3339),
			a.Content, a.HTMLContent, keyword, now.Format(time.RFC3339), a.URL)
		if err != nil {
			return ResultSkipped, &StorageError{Backend: "sqlite", Err: fmt.Errorf("update article: %w", err)}
		}
		return ResultUpdated, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO articles (title, author, published_date, content,
			html_content, url, source, keyword, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Author, a.PublishedDate.Format(time.RFC3339),
		a.Content, a.HTMLContent, a.URL, a.Source, a.Keyword,
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return ResultSkipped, &StorageError{Backend: "sqlite", Err: fmt.Errorf("insert article: %w", err)}
	}
	return ResultInserted, nil
}

func (s *SQLiteStore) SaveArticles(ctx context.Context, articles []*model.Article) (int, error) {
	return saveArticleBatch(ctx, s, articles, s.logger)
}

func (s *SQLiteStore) SaveTrend(ctx context.Context, t *model.TrendItem) (Result, error) {
	if !t.Valid() {
		return ResultSkipped, nil
	}

	existing, err := s.TrendByURL(ctx, t.URL, t.Platform)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return ResultSkipped, err
	}

	now := s.now()
	tags, _ := json.Marshal(tagsOrEmpty(t.Tags))
	if existing != nil {
		if existing.ContentEquals(t) {
			return ResultUnchanged, nil
		}
		_, err := s.db.ExecContext(ctx, `
			UPDATE trends
			SET rank = ?, name = ?, description = ?, tweet_count = ?,
			    language = ?, stars = ?, downloads = ?, tags = ?, updated_at = ?
			WHERE url = ? AND platform = ?`,
			t.Rank, t.Name, t.Description, t.TweetCount, t.Language,
			t.Stars, t.Downloads, string(tags), now.Format(time.RFC3339),
			t.URL, string(t.Platform))
		if err != nil {
			return ResultSkipped, &StorageError{Backend: "sqlite", Err: fmt.Errorf("update trend: %w", err)}
		}
		return ResultUpdated, nil
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trends (rank, name, description, url, platform,
			tweet_count, language, stars, downloads, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Rank, t.Name, t.Description, t.URL, string(t.Platform),
		t.TweetCount, t.Language, t.Stars, t.Downloads, string(tags),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return ResultSkipped, &StorageError{Backend: "sqlite", Err: fmt.Errorf("insert trend: %w", err)}
	}
	return ResultInserted, nil
}

func (s *SQLiteStore) SaveTrends(ctx context.Context, items []model.TrendItem) (int, error) {
	return saveTrendBatch(ctx, s, items, s.logger)
}

func (s *SQLiteStore) ArticleByURL(ctx context.Context, url string) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, published_date, content, html_content,
		       url, source, keyword, created_at, updated_at
		FROM articles WHERE url = ?`, url)

	var a model.Article
	var published, created, updated string
	err := row.Scan(&a.ID, &a.Title, &a.Author, &published, &a.Content,
		&a.HTMLContent, &a.URL, &a.Source, &a.Keyword, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Err: fmt.Errorf("query article: %w", err)}
	}
	a.PublishedDate, _ = time.Parse(time.RFC3339, published)
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &a, nil
}

func (s *SQLiteStore) TrendByURL(ctx context.Context, url string, platform model.Platform) (*model.TrendItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, rank, name, description, url, platform, tweet_count,
		       language, stars, downloads, tags, created_at, updated_at
		FROM trends WHERE url = ? AND platform = ?`, url, string(platform))

	var t model.TrendItem
	var tags, created, updated string
	err := row.Scan(&t.ID, &t.Rank, &t.Name, &t.Description, &t.URL,
		&t.Platform, &t.TweetCount, &t.Language, &t.Stars, &t.Downloads,
		&tags, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Backend: "sqlite", Err: fmt.Errorf("query trend: %w", err)}
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		t.Tags = nil
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &t, nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

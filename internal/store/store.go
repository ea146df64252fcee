// Package store persists crawl results with idempotent upsert semantics.
// Every backend implements the same observable contract: an incoming record
// is inserted when its identity key is new, updated in place when the key
// exists but mutable content changed, and left untouched otherwise. Identity
// keys are url for articles and (url, platform) for trend items.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

// ErrNotFound reports a lookup miss.
var ErrNotFound = errors.New("record not found")

// Result describes what a save did with a record.
type Result int

const (
	// ResultSkipped means the record was invalid and not persisted.
	ResultSkipped Result = iota
	// ResultInserted means a new record was created.
	ResultInserted
	// ResultUpdated means an existing record's content was overwritten.
	ResultUpdated
	// ResultUnchanged means an identical record already existed.
	ResultUnchanged
)

func (r Result) String() string {
	switch r {
	case ResultSkipped:
		return "skipped"
	case ResultInserted:
		return "inserted"
	case ResultUpdated:
		return "updated"
	case ResultUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Store is the persistence contract shared by all backends.
type Store interface {
	SaveArticle(ctx context.Context, a *model.Article) (Result, error)
	// SaveArticles saves a batch, continuing past per-record failures, and
	// returns the number of successful saves.
	SaveArticles(ctx context.Context, articles []*model.Article) (int, error)
	SaveTrend(ctx context.Context, t *model.TrendItem) (Result, error)
	SaveTrends(ctx context.Context, items []model.TrendItem) (int, error)
	ArticleByURL(ctx context.Context, url string) (*model.Article, error)
	TrendByURL(ctx context.Context, url string, platform model.Platform) (*model.TrendItem, error)
	Close() error
	Name() string
}

// StorageError wraps a backend failure with the backend name.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Open creates the configured storage backend. A failure here is fatal to
// the run: nothing can proceed without a working store.
func Open(cfg Config, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "json":
		return NewJSONStore(cfg.ArticlesPath, cfg.TrendsPath, logger)
	case "csv":
		return NewCSVStore(cfg.ArticlesPath, cfg.TrendsPath, logger)
	case "sqlite":
		return NewSQLiteStore(cfg.DSN, logger)
	case "mongo":
		return NewMongoStore(cfg.DSN, cfg.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// Config selects and parameterizes a backend. Paths apply to the file
// backends, DSN and Database to the database backends.
type Config struct {
	Type         string
	ArticlesPath string
	TrendsPath   string
	DSN          string
	Database     string
}

// saveArticleBatch is the shared batch loop: per-record failures are logged
// and counted out, not propagated.
func saveArticleBatch(ctx context.Context, s Store, articles []*model.Article, logger *slog.Logger) (int, error) {
	saved := 0
	for _, a := range articles {
		res, err := s.SaveArticle(ctx, a)
		if err != nil {
			logger.Error("article save failed", "url", a.URL, "error", err)
			continue
		}
		if res != ResultSkipped {
			saved++
		}
		logger.Debug("article saved", "url", a.URL, "result", res.String())
	}
	logger.Info("article batch saved", "saved", saved, "total", len(articles))
	return saved, nil
}

func saveTrendBatch(ctx context.Context, s Store, items []model.TrendItem, logger *slog.Logger) (int, error) {
	saved := 0
	for i := range items {
		res, err := s.SaveTrend(ctx, &items[i])
		if err != nil {
			logger.Error("trend save failed", "url", items[i].URL, "platform", items[i].Platform, "error", err)
			continue
		}
		if res != ResultSkipped {
			saved++
		}
	}
	logger.Info("trend batch saved", "saved", saved, "total", len(items))
	return saved, nil
}

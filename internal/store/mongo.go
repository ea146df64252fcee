package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yxz033/Tech-Web-Crawling/internal/model"
)

// MongoStore keeps articles and trends in two collections of one database.
// Unique indexes on the identity keys back the same upsert contract the
// file backends implement by scanning.
type MongoStore struct {
	client   *mongo.Client
	articles *mongo.Collection
	trends   *mongo.Collection
	now      func() time.Time
	logger   *slog.Logger
}

// NewMongoStore connects to MongoDB at uri and prepares the article and
// trend collections in the named database.
func NewMongoStore(uri, database string, logger *slog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, &StorageError{Backend: "mongodb", Err: fmt.Errorf("connect: %w", err)}
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, &StorageError{Backend: "mongodb", Err: fmt.Errorf("ping: %w", err)}
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		articles: db.Collection("articles"),
		trends:   db.Collection("trends"),
		now:      time.Now,
		logger:   logger.With("component", "mongo_store"),
	}

	indexes := []struct {
		coll *mongo.Collection
		keys bson.D
	}{
		{s.articles, bson.D{{Key: "url", Value: 1}}},
		{s.trends, bson.D{{Key: "url", Value: 1}, {Key: "platform", Value: 1}}},
	}
	for _, idx := range indexes {
		_, err := idx.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    idx.keys,
			Options: options.Index().SetUnique(true),
		})
		if err != nil {
			client.Disconnect(context.Background())
			return nil, &StorageError{Backend: "mongodb", Err: fmt.Errorf("create index: %w", err)}
		}
	}
	return s, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) SaveArticle(ctx context.Context, a *model.Article) (Result, error) {
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
		set := bson.M{
			"title":          a.Title,
			"author":         a.Author,
			"published_date": a.PublishedDate,
			"content":        a.Content,
			"html_content":   a.HTMLContent,
			"updated_at":     now,
		}
		if a.Keyword != "" {
			set["keyword"] = a.Keyword
		}
		_, err := s.articles.UpdateOne(ctx, bson.M{"url": a.URL}, bson.M{"$set": set})
		if err != nil {
			return ResultSkipped, &StorageError{Backend: "mongodb", Err: fmt.Errorf("update article: %w", err)}
		}
		return ResultUpdated, nil
	}

	stored := *a
	stored.ID, err = s.nextID(ctx, s.articles)
	if err != nil {
		return ResultSkipped, err
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if _, err := s.articles.InsertOne(ctx, &stored); err != nil {
		return ResultSkipped, &StorageError{Backend: "mongodb", Err: fmt.Errorf("insert article: %w", err)}
	}
	return ResultInserted, nil
}

func (s *MongoStore) SaveArticles(ctx context.Context, articles []*model.Article) (int, error) {
	return saveArticleBatch(ctx, s, articles, s.logger)
}

func (s *MongoStore) SaveTrend(ctx context.Context, t *model.TrendItem) (Result, error) {
	if !t.Valid() {
		return ResultSkipped, nil
	}

	existing, err := s.TrendByURL(ctx, t.URL, t.Platform)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return ResultSkipped, err
	}

	now := s.now()
	if existing != nil {
		if existing.ContentEquals(t) {
			return ResultUnchanged, nil
		}
		set := bson.M{
			"rank":        t.Rank,
			"name":        t.Name,
			"description": t.Description,
			"language":    t.Language,
			"stars":       t.Stars,
			"tweet_count": t.TweetCount,
			"downloads":   t.Downloads,
			"tags":        tagsOrEmpty(t.Tags),
			"updated_at":  now,
		}
		filter := bson.M{"url": t.URL, "platform": t.Platform}
		if _, err := s.trends.UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
			return ResultSkipped, &StorageError{Backend: "mongodb", Err: fmt.Errorf("update trend: %w", err)}
		}
		return ResultUpdated, nil
	}

	stored := *t
	stored.ID, err = s.nextID(ctx, s.trends)
	if err != nil {
		return ResultSkipped, err
	}
	stored.Tags = tagsOrEmpty(t.Tags)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if _, err := s.trends.InsertOne(ctx, &stored); err != nil {
		return ResultSkipped, &StorageError{Backend: "mongodb", Err: fmt.Errorf("insert trend: %w", err)}
	}
	return ResultInserted, nil
}

func (s *MongoStore) SaveTrends(ctx context.Context, items []model.TrendItem) (int, error) {
	return saveTrendBatch(ctx, s, items, s.logger)
}

func (s *MongoStore) ArticleByURL(ctx context.Context, url string) (*model.Article, error) {
	var a model.Article
	err := s.articles.FindOne(ctx, bson.M{"url": url}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Backend: "mongodb", Err: fmt.Errorf("query article: %w", err)}
	}
	return &a, nil
}

func (s *MongoStore) TrendByURL(ctx context.Context, url string, platform model.Platform) (*model.TrendItem, error) {
	var t model.TrendItem
	err := s.trends.FindOne(ctx, bson.M{"url": url, "platform": platform}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Backend: "mongodb", Err: fmt.Errorf("query trend: %w", err)}
	}
	return &t, nil
}

// nextID returns max(id)+1 for the collection, 1 for an empty one.
func (s *MongoStore) nextID(ctx context.Context, coll *mongo.Collection) (int64, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "id", Value: -1}})
	var doc struct {
		ID int64 `bson:"id"`
	}
	err := coll.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, &StorageError{Backend: "mongodb", Err: fmt.Errorf("max id: %w", err)}
	}
	return doc.ID + 1, nil
}

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KeshavWanjale/Book-Store/models"
)

const booksKey = "cache:books:all"

// Connect opens and pings a Redis client.
func Connect(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// Books caches the full catalog listing. A nil *Books (no Redis configured)
// is valid and behaves as a permanent miss, so callers never branch on it.
type Books struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewBooks(rdb *redis.Client, ttl time.Duration) *Books {
	if rdb == nil {
		return nil
	}
	return &Books{rdb: rdb, ttl: ttl}
}

func (b *Books) Get(ctx context.Context) ([]models.Book, bool) {
	if b == nil {
		return nil, false
	}
	raw, err := b.rdb.Get(ctx, booksKey).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("book cache read failed", "error", err)
		return nil, false
	}
	var books []models.Book
	if err := json.Unmarshal([]byte(raw), &books); err != nil {
		slog.Warn("book cache decode failed", "error", err)
		return nil, false
	}
	return books, true
}

func (b *Books) Set(ctx context.Context, books []models.Book) {
	if b == nil {
		return
	}
	raw, err := json.Marshal(books)
	if err != nil {
		return
	}
	if err := b.rdb.Set(ctx, booksKey, string(raw), b.ttl).Err(); err != nil {
		slog.Warn("book cache write failed", "error", err)
	}
}

// Invalidate drops the listing after any catalog mutation.
func (b *Books) Invalidate(ctx context.Context) {
	if b == nil {
		return
	}
	if err := b.rdb.Del(ctx, booksKey).Err(); err != nil {
		slog.Warn("book cache invalidate failed", "error", err)
	}
}

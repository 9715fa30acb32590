package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const genresKey = "bookshelf:books:genres"

// Connect returns a client that has answered a PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// GenreCache memoizes the distinct genre list between book writes.
type GenreCache interface {
	Genres(ctx context.Context) ([]string, bool, error)
	SetGenres(ctx context.Context, genres []string) error
	Invalidate(ctx context.Context) error
}

type redisGenreCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisGenreCache(rdb *redis.Client, ttl time.Duration) GenreCache {
	return &redisGenreCache{rdb: rdb, ttl: ttl}
}

func (c *redisGenreCache) Genres(ctx context.Context) ([]string, bool, error) {
	raw, err := c.rdb.Get(ctx, genresKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redisGenreCache.Genres: %w", err)
	}
	var genres []string
	if err := json.Unmarshal(raw, &genres); err != nil {
		// A corrupt entry is a miss; the next SetGenres overwrites it.
		return nil, false, nil
	}
	return genres, true, nil
}

func (c *redisGenreCache) SetGenres(ctx context.Context, genres []string) error {
	raw, err := json.Marshal(genres)
	if err != nil {
		return fmt.Errorf("redisGenreCache.SetGenres marshal: %w", err)
	}
	if err := c.rdb.Set(ctx, genresKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redisGenreCache.SetGenres: %w", err)
	}
	return nil
}

func (c *redisGenreCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, genresKey).Err(); err != nil {
		return fmt.Errorf("redisGenreCache.Invalidate: %w", err)
	}
	return nil
}

// Nop is used when no Redis address is configured.
type Nop struct{}

func (Nop) Genres(context.Context) ([]string, bool, error) { return nil, false, nil }
func (Nop) SetGenres(context.Context, []string) error      { return nil }
func (Nop) Invalidate(context.Context) error               { return nil }

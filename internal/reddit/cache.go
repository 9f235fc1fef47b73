package reddit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/redditdig/config"
)

// Cache is an optional short-lived Redis cache for raw search responses. It
// exists to soften pressure on Reddit's unauthenticated rate limits; requests
// themselves stay stateless and a nil *Cache disables caching entirely.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

// NewCache connects the search-response cache, or returns (nil, nil) when the
// configuration leaves it disabled.
func NewCache(cfg config.CacheConfig) (*Cache, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("cache connection failed (%s:%s): %w", cfg.Host, cfg.Port, err)
	}
	return &Cache{
		rdb:    rdb,
		ttl:    cfg.TTL,
		logger: log.New(log.Writer(), "[CACHE] ", log.LstdFlags),
	}, nil
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "reddit:search:" + hex.EncodeToString(sum[:16])
}

// Get returns the cached payload for a search URL, if present. Cache errors
// are logged and treated as misses.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	b, err := c.rdb.Get(ctx, cacheKey(url)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Printf("cache get failed: %v", err)
		}
		return nil, false
	}
	return b, true
}

// Set stores a search payload under its URL. Failures are logged, never fatal.
func (c *Cache) Set(ctx context.Context, url string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(url), payload, c.ttl).Err(); err != nil {
		c.logger.Printf("cache set failed: %v", err)
	}
}

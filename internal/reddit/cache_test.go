package reddit

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/redditdig/config"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := &Cache{
		rdb:    redis.NewClient(&redis.Options{Addr: mr.Addr()}),
		ttl:    time.Minute,
		logger: log.New(io.Discard, "", 0),
	}
	return c, mr
}

func TestCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	url := "https://www.reddit.com/search.json?q=rust"
	if _, ok := c.Get(ctx, url); ok {
		t.Fatal("expected a miss before Set")
	}
	c.Set(ctx, url, []byte(`[{"id":"a"}]`))
	got, ok := c.Get(ctx, url)
	if !ok {
		t.Fatal("expected a hit after Set")
	}
	if string(got) != `[{"id":"a"}]` {
		t.Fatalf("payload = %s", got)
	}
}

func TestCacheEntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "url", []byte("payload"))
	mr.FastForward(2 * time.Minute)
	if _, ok := c.Get(ctx, "url"); ok {
		t.Fatal("entry should have expired")
	}
}

func TestCacheKeysDifferPerURL(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Set(ctx, "url-a", []byte("a"))
	c.Set(ctx, "url-b", []byte("b"))
	got, ok := c.Get(ctx, "url-a")
	if !ok || string(got) != "a" {
		t.Fatalf("url-a payload = %s, ok=%v", got, ok)
	}
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	c.Set(ctx, "url", []byte("payload"))
	if _, ok := c.Get(ctx, "url"); ok {
		t.Fatal("nil cache must always miss")
	}
}

func TestNewCacheDisabledConfig(t *testing.T) {
	c, err := NewCache(config.CacheConfig{})
	if err != nil {
		t.Fatalf("disabled config must not error: %v", err)
	}
	if c != nil {
		t.Fatal("disabled config must yield a nil cache")
	}
}

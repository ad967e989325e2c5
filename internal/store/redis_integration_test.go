//go:build integration

package store_test

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getRedisAddr() string {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		return addr
	}

	return "localhost:6379"
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: getRedisAddr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}

	t.Cleanup(func() { _ = client.Close() })

	return client
}

type countingLookup struct {
	shortener.Lookup

	calls int
}

func (c *countingLookup) LookupByCode(ctx context.Context, code string) (*shortener.Resolution, error) {
	c.calls++

	return c.Lookup.LookupByCode(ctx, code)
}

// racingLookup runs commit once, after reading the store and before the
// caller gets to fill the cache.
type racingLookup struct {
	shortener.Lookup

	calls  int
	commit func()
}

func (r *racingLookup) LookupByCode(ctx context.Context, code string) (*shortener.Resolution, error) {
	r.calls++

	res, err := r.Lookup.LookupByCode(ctx, code)

	if commit := r.commit; commit != nil {
		r.commit = nil
		commit()
	}

	return res, err
}

func clearLinkKeys(t *testing.T, client *redis.Client, link *shortener.ShortLink) {
	t.Helper()

	id := strconv.FormatInt(link.ID, 10)
	keys := []string{
		"link:code:" + link.Code,
		"link:id:" + id,
		"link:ver:link:code:" + link.Code,
		"link:ver:link:id:" + id,
	}

	client.Del(context.Background(), keys...)
	t.Cleanup(func() { client.Del(context.Background(), keys...) })
}

func TestRedisLinkCacheIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	mem := store.NewMemoryStore()
	link := createLink(t, mem, 1, "https://example.com/cached", "rcache1", time.Now())

	clearLinkKeys(t, client, link)

	lookup := &countingLookup{Lookup: mem}
	cache := store.NewRedisLinkCache(lookup, client, time.Minute)

	t.Run("serves repeat lookups from cache", func(t *testing.T) {
		first, err := cache.LookupByCode(ctx, link.Code)
		require.NoError(t, err)

		second, err := cache.LookupByCode(ctx, link.Code)
		require.NoError(t, err)

		assert.Equal(t, 1, lookup.calls)
		assert.Equal(t, first.Link.ID, second.Link.ID)
		assert.True(t, second.Link.IsActive)
		require.NotNil(t, second.Target)
		assert.Equal(t, "https://example.com/cached", second.Target.Name)
	})

	t.Run("invalidate forces a reload", func(t *testing.T) {
		require.NoError(t, cache.Invalidate(ctx, link))

		_, err := cache.LookupByCode(ctx, link.Code)
		require.NoError(t, err)

		assert.Equal(t, 2, lookup.calls)
	})

	t.Run("misses are not cached", func(t *testing.T) {
		_, err := cache.LookupByCode(ctx, "rcache-missing")

		assert.ErrorIs(t, err, shortener.ErrNotFound)
	})
}

func TestRedisLinkCacheRaceIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)

	mem := store.NewMemoryStore()
	link := createLink(t, mem, 1, "https://example.com/raced", "rrace1", time.Now())

	clearLinkKeys(t, client, link)

	lookup := &racingLookup{Lookup: mem}
	cache := store.NewRedisLinkCache(lookup, client, time.Minute)

	lookup.commit = func() {
		err := mem.WithinTx(ctx, func(ctx context.Context, tx shortener.Tx) error {
			current, err := tx.ShortLink(ctx, link.ID)
			if err != nil {
				return err
			}

			current.Deleted = true

			return tx.UpdateShortLink(ctx, current)
		})
		require.NoError(t, err)
		require.NoError(t, cache.Invalidate(ctx, link))
	}

	t.Run("a fill older than the invalidation is discarded", func(t *testing.T) {
		stale, err := cache.LookupByCode(ctx, link.Code)
		require.NoError(t, err)
		assert.False(t, stale.Link.Deleted, "the first read happened before the delete")

		fresh, err := cache.LookupByCode(ctx, link.Code)
		require.NoError(t, err)

		assert.Equal(t, 2, lookup.calls)
		assert.True(t, fresh.Link.Deleted)
	})

	t.Run("fills after the invalidation are cached", func(t *testing.T) {
		again, err := cache.LookupByCode(ctx, link.Code)
		require.NoError(t, err)

		assert.Equal(t, 2, lookup.calls)
		assert.True(t, again.Link.Deleted)
	})
}

func TestRateLimitRedisStoreIntegration(t *testing.T) {
	ctx := context.Background()
	client := newRedisClient(t)
	s := store.NewRateLimitRedisStore(client)

	key := "itest:" + time.Now().Format(time.RFC3339Nano)
	t.Cleanup(func() { client.Del(ctx, "ratelimit:"+key) })

	for want := int64(1); want <= 3; want++ {
		count, err := s.Record(ctx, key, time.Minute)

		require.NoError(t, err)
		assert.Equal(t, want, count)
	}
}

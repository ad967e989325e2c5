package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/shortener"
)

// errStaleFill aborts a cache fill that raced with an invalidation.
var errStaleFill = errors.New("link changed while resolving")

// RedisLinkCache wraps a shortener.Lookup with Redis caching of resolutions.
//
// Every invalidation bumps a version counter per code and per id. A fill
// remembers the version it saw before reading the store and only writes when
// the counter is still the same, so a resolution read before a write commits
// can never overwrite the invalidation of that write.
type RedisLinkCache struct {
	lookup     shortener.Lookup
	client     *redis.Client
	codePrefix string
	idPrefix   string
	verPrefix  string
	ttl        time.Duration
}

// NewRedisLinkCache creates a new Redis-cached lookup decorator.
func NewRedisLinkCache(lookup shortener.Lookup, client *redis.Client, ttl time.Duration) *RedisLinkCache {
	return &RedisLinkCache{
		lookup:     lookup,
		client:     client,
		codePrefix: "link:code:",
		idPrefix:   "link:id:",
		verPrefix:  "link:ver:",
		ttl:        ttl,
	}
}

// LookupByCode resolves a code, checking the cache first.
func (r *RedisLinkCache) LookupByCode(ctx context.Context, code string) (*shortener.Resolution, error) {
	if res, err := r.getFromCache(ctx, r.codePrefix+code); err == nil {
		return res, nil
	}

	versionKey := r.verPrefix + r.codePrefix + code
	version, versionErr := r.version(ctx, versionKey)

	res, err := r.lookup.LookupByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if versionErr == nil {
		r.cache(ctx, res, versionKey, version)
	}

	return res, nil
}

// LookupByID resolves a link id, checking the cache first.
func (r *RedisLinkCache) LookupByID(ctx context.Context, id int64) (*shortener.Resolution, error) {
	if res, err := r.getFromCache(ctx, r.idKey(id)); err == nil {
		return res, nil
	}

	versionKey := r.verPrefix + r.idKey(id)
	version, versionErr := r.version(ctx, versionKey)

	res, err := r.lookup.LookupByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if versionErr == nil {
		r.cache(ctx, res, versionKey, version)
	}

	return res, nil
}

// Invalidate drops both cache entries of link and bumps their versions so
// that fills started earlier are discarded.
func (r *RedisLinkCache) Invalidate(ctx context.Context, link *shortener.ShortLink) error {
	codeKey, idKey := r.codePrefix+link.Code, r.idKey(link.ID)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range []string{r.verPrefix + codeKey, r.verPrefix + idKey} {
			pipe.Incr(ctx, key)

			if r.ttl > 0 {
				// Outlives any fill that could still hold the previous version.
				pipe.Expire(ctx, key, r.ttl+time.Minute)
			}
		}

		pipe.Del(ctx, codeKey, idKey)

		return nil
	})

	return err
}

// version reads the invalidation counter of key. A missing counter is "".
func (r *RedisLinkCache) version(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}

	return v, err
}

func (r *RedisLinkCache) idKey(id int64) string {
	return r.idPrefix + strconv.FormatInt(id, 10)
}

func (r *RedisLinkCache) getFromCache(ctx context.Context, key string) (*shortener.Resolution, error) {
	result, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return nil, shortener.ErrNotFound
	}

	res := &shortener.Resolution{
		Link: shortener.ShortLink{
			ID:        parseInt(result["id"]),
			Code:      result["code"],
			OwnerID:   parseInt(result["owner_id"]),
			LongURLID: parseInt(result["long_url_id"]),
			IsActive:  result["is_active"] == "1",
			Deleted:   result["deleted"] == "1",
			CreatedAt: parseNanos(result["created_at"]),
		},
		Target: &shortener.LongURL{
			ID:        parseInt(result["target_id"]),
			Name:      result["target_url"],
			Hash:      result["target_hash"],
			CreatedAt: parseNanos(result["target_created_at"]),
		},
	}

	return res, nil
}

// cache stores a resolution under its code and id keys unless versionKey moved
// past seen in the meantime. Links without a target are left uncached.
func (r *RedisLinkCache) cache(ctx context.Context, res *shortener.Resolution, versionKey, seen string) {
	if res.Target == nil {
		return
	}

	fields := map[string]interface{}{
		"id":                res.Link.ID,
		"code":              res.Link.Code,
		"owner_id":          res.Link.OwnerID,
		"long_url_id":       res.Link.LongURLID,
		"is_active":         boolField(res.Link.IsActive),
		"deleted":           boolField(res.Link.Deleted),
		"created_at":        res.Link.CreatedAt.UnixNano(),
		"target_id":         res.Target.ID,
		"target_url":        res.Target.Name,
		"target_hash":       res.Target.Hash,
		"target_created_at": res.Target.CreatedAt.UnixNano(),
	}

	// A failed or aborted fill only costs a store read on the next lookup.
	_ = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		if current != seen {
			return errStaleFill
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range []string{r.codePrefix + res.Link.Code, r.idKey(res.Link.ID)} {
				pipe.HSet(ctx, key, fields)

				if r.ttl > 0 {
					pipe.Expire(ctx, key, r.ttl)
				}
			}

			return nil
		})

		return err
	}, versionKey)
}

// Shutdown is a no-op for RedisLinkCache (client managed externally).
func (r *RedisLinkCache) Shutdown() error {
	return nil
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)

	return n
}

func parseNanos(s string) time.Time {
	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(0, nanos).UTC()
}

func boolField(b bool) string {
	if b {
		return "1"
	}

	return "0"
}

// Compile-time checks.
var (
	_ shortener.Lookup      = (*RedisLinkCache)(nil)
	_ shortener.Invalidator = (*RedisLinkCache)(nil)
)

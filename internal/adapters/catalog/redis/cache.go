// Package redis caches catalog ids in Redis hashes in front of another store.
package redis

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Darklegion92/backend-DIAN-sub001/internal/core/catalog"
)

// KeyPrefix prefixes the hash of each catalog: catalog:<name> holds one
// field per code.
const KeyPrefix = "catalog:"

// HashClient is the subset of the Redis API the cache needs.
type HashClient interface {
	HMGet(ctx context.Context, key string, fields ...string) *goredis.SliceCmd
	HSet(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd
	ExpireNX(ctx context.Context, key string, expiration time.Duration) *goredis.BoolCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
}

// CachedStore is a read-through catalog.Store. Only found codes are cached.
// A catalog hash expires ttl after its first fill; later misses add fields
// without extending it. A Redis failure degrades to the backing store and
// is never reported to callers.
type CachedStore struct {
	client HashClient
	next   catalog.Store
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedStore wraps next. A non-positive ttl defaults to one hour.
func NewCachedStore(client HashClient, next catalog.Store, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedStore{client: client, next: next, ttl: ttl, logger: logger}
}

// FindIDs implements catalog.Store.
func (s *CachedStore) FindIDs(ctx context.Context, name catalog.Name, codes []string) (map[string]int, error) {
	key := KeyPrefix + string(name)
	found := make(map[string]int, len(codes))

	missing := codes
	values, err := s.client.HMGet(ctx, key, codes...).Result()
	if err != nil {
		s.logger.Warn("Catalog cache read failed, using store", "catalog", string(name), "error", err)
	} else {
		missing = make([]string, 0, len(codes))
		for i, v := range values {
			if id, ok := cachedID(v); ok {
				found[codes[i]] = id
				continue
			}
			missing = append(missing, codes[i])
		}
	}

	if len(missing) == 0 {
		return found, nil
	}

	fromStore, err := s.next.FindIDs(ctx, name, missing)
	if err != nil {
		return nil, err
	}
	for code, id := range fromStore {
		found[code] = id
	}
	s.fill(ctx, key, fromStore)

	return found, nil
}

// Invalidate drops the cached hashes of names.
func (s *CachedStore) Invalidate(ctx context.Context, names ...catalog.Name) error {
	if len(names) == 0 {
		return nil
	}
	keys := make([]string, len(names))
	for i, n := range names {
		keys[i] = KeyPrefix + string(n)
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *CachedStore) fill(ctx context.Context, key string, ids map[string]int) {
	if len(ids) == 0 {
		return
	}
	values := make([]interface{}, 0, len(ids)*2)
	for code, id := range ids {
		values = append(values, code, id)
	}
	if err := s.client.HSet(ctx, key, values...).Err(); err != nil {
		s.logger.Warn("Catalog cache write failed", "key", key, "error", err)
		return
	}
	// NX keeps the first deadline, so the whole hash ages out together.
	if err := s.client.ExpireNX(ctx, key, s.ttl).Err(); err != nil {
		s.logger.Warn("Catalog cache expire failed", "key", key, "error", err)
	}
}

func cachedID(v interface{}) (int, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return id, true
}

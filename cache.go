package collectiongen

import (
	"context"
	"strconv"
	"time"
)

// Cache stores encoded list pages and the per-collection generation
// counters that invalidate them. runtime/cache implements it on Redis.
type Cache interface {
	// Get returns nil and no error for a missing key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A zero ttl keeps it until evicted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Incr increments the counter under key and returns its new value.
	Incr(ctx context.Context, key string) (int64, error)
}

// CacheKey identifies one cached list page.
type CacheKey struct {
	Collection string
	Generation int64
	// Query is a stable digest of the translated statement and its arguments.
	Query string
}

// String renders the key as "collection:generation:query".
func (k CacheKey) String() string {
	return k.Collection + ":" + strconv.FormatInt(k.Generation, 10) + ":" + k.Query
}

// GenerationKey returns the counter key bumped on every write to a collection.
func GenerationKey(collection string) string {
	return collection + ":gen"
}

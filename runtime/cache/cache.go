// Package cache memoizes collection list queries in Redis.
//
// Each cached page is stored under a key made of the collection table, a
// generation counter and a digest of the translated statement. Every
// committed write bumps the generation, so stale pages are never read
// again and simply expire.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/modernmen/collectiongen"
	"github.com/modernmen/collectiongen/dialect/sql"
	"github.com/modernmen/collectiongen/query"
	"github.com/modernmen/collectiongen/runtime/store"
	"github.com/modernmen/collectiongen/schema"
)

// DefaultTTL bounds the lifetime of a cached page.
const DefaultTTL = 5 * time.Minute

// Lister is the read side of a collection.
type Lister interface {
	List(ctx context.Context, opts query.Options) (*store.Page, error)
}

// Stats counts cache lookups.
type Stats struct {
	Hits   int64
	Misses int64
	Errors int64
}

// Cache holds the backend shared by wrapped collections.
type Cache struct {
	backend collectiongen.Cache
	ttl     time.Duration
	log     *zap.Logger
	group   singleflight.Group

	hits, misses, errors atomic.Int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the lifetime of cached pages. Zero keeps them until evicted.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithLogger sets the logger. Backend failures are logged and the query
// falls through to the store.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithBackend replaces the Redis backend.
func WithBackend(b collectiongen.Cache) Option {
	return func(c *Cache) { c.backend = b }
}

// New returns a cache storing pages in Redis under the "collectiongen:" prefix.
func New(client redis.UniversalClient, opts ...Option) *Cache {
	c := &Cache{ttl: DefaultTTL, log: zap.NewNop()}
	if client != nil {
		c.backend = NewRedis(client, "collectiongen:")
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats returns the lookup counters.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Errors: c.errors.Load()}
}

// Wrap returns coll with a cached List. Writes to coll, through the wrapper
// or not, invalidate its cached pages until Close is called.
func (c *Cache) Wrap(coll *store.Collection) *Collection {
	w := &Collection{Collection: coll, cache: c}
	w.cancel = coll.Watch(func(store.Change) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := w.Invalidate(ctx); err != nil {
			c.errors.Add(1)
			c.log.Warn("generation not bumped", zap.String("collection", coll.Name()), zap.Error(err))
		}
	})
	return w
}

// Collection is a store collection whose List is cached.
type Collection struct {
	*store.Collection
	cache  *Cache
	cancel func()
}

var _ Lister = (*Collection)(nil)

// Close stops invalidating on writes.
func (w *Collection) Close() { w.cancel() }

// Invalidate bumps the generation of the collection.
func (w *Collection) Invalidate(ctx context.Context) error {
	_, err := w.cache.backend.Incr(ctx, collectiongen.GenerationKey(w.Table()))
	return err
}

// List returns the cached page for opts, running the query on a miss.
// Concurrent misses for the same page run a single query.
func (w *Collection) List(ctx context.Context, opts query.Options) (*store.Page, error) {
	if err := w.Authorize(ctx, schema.OpRead); err != nil {
		return nil, err
	}
	sel, err := w.Selector(opts)
	if err != nil {
		return nil, err
	}
	c := w.cache
	gen, err := w.generation(ctx)
	if err != nil {
		c.errors.Add(1)
		c.log.Warn("generation unavailable", zap.String("collection", w.Name()), zap.Error(err))
		return w.Collection.List(ctx, opts)
	}
	key, err := digest(w.Table(), gen, sel)
	if err != nil {
		return nil, err
	}
	log := c.log.With(zap.String("collection", w.Name()), zap.Stringer("key", key))
	if b, err := c.backend.Get(ctx, key.String()); err != nil {
		c.errors.Add(1)
		log.Warn("cache read failed", zap.Error(err))
	} else if b != nil {
		p, err := unmarshal(b)
		if err == nil {
			c.hits.Add(1)
			return p, nil
		}
		c.errors.Add(1)
		log.Warn("cached page dropped", zap.Error(err))
	}
	c.misses.Add(1)
	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		p, err := w.Collection.List(ctx, opts)
		if err != nil {
			return nil, err
		}
		b, err := msgpack.Marshal(p)
		if err == nil {
			err = c.backend.Set(ctx, key.String(), b, c.ttl)
		}
		if err != nil {
			c.errors.Add(1)
			log.Warn("cache write failed", zap.Error(err))
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*store.Page), nil
}

// digest derives the cache key of a list query from the statement the
// store runs for it.
func digest(table string, gen int64, sel *sql.Selector) (collectiongen.CacheKey, error) {
	q, args := sel.Query()
	b, err := msgpack.Marshal([]any{sel.Dialect(), q, args})
	if err != nil {
		return collectiongen.CacheKey{}, err
	}
	sum := sha256.Sum256(b)
	return collectiongen.CacheKey{
		Collection: table,
		Generation: gen,
		Query:      hex.EncodeToString(sum[:16]),
	}, nil
}

func (w *Collection) generation(ctx context.Context) (int64, error) {
	b, err := w.cache.backend.Get(ctx, collectiongen.GenerationKey(w.Table()))
	if err != nil || b == nil {
		return 0, err
	}
	return strconv.ParseInt(string(b), 10, 64)
}

// unmarshal decodes a cached page. Times are restored in UTC.
func unmarshal(b []byte) (*store.Page, error) {
	var p store.Page
	if err := msgpack.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	for _, r := range p.Records {
		for k, v := range r {
			if t, ok := v.(time.Time); ok {
				r[k] = t.UTC()
			}
		}
	}
	if p.Records == nil {
		p.Records = []store.Record{}
	}
	return &p, nil
}

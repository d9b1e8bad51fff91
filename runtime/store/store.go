package store

import (
	stdsql "database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	// Drivers opened by name with Open.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/modernmen/collectiongen/dialect"
	"github.com/modernmen/collectiongen/dialect/sql"
	"github.com/modernmen/collectiongen/privacy"
	"github.com/modernmen/collectiongen/schema"
)

// Store binds collection definitions to a database.
type Store struct {
	drv    *sql.StatsDriver
	hooks  *Registry
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	rules  map[string][]privacy.Rule
	slow   time.Duration

	mu          sync.Mutex
	collections map[string]*Collection
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Statements are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHooks sets the registry resolving the hook names of collections.
func WithHooks(r *Registry) Option {
	return func(s *Store) {
		s.hooks = r
	}
}

// WithClock sets the time source of the timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator sets the generator of record ids. Defaults to random
// UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		s.newID = fn
	}
}

// WithRules adds privacy rules evaluated before the declared access rule
// of the named collection.
//
//	store.WithRules("Appointment", privacy.OnOperation(privacy.IsOwner("customer"), schema.OpCreate))
func WithRules(collection string, rules ...privacy.Rule) Option {
	return func(s *Store) {
		s.rules[collection] = append(s.rules[collection], rules...)
	}
}

// WithSlowThreshold sets the duration above which statements are logged
// as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *Store) {
		s.slow = d
	}
}

// New returns a store running on drv.
func New(drv dialect.Driver, opts ...Option) *Store {
	s := &Store{
		hooks:       NewRegistry(),
		logger:      zap.NewNop(),
		now:         time.Now,
		newID:       uuid.NewString,
		rules:       make(map[string][]privacy.Rule),
		slow:        sql.DefaultSlowThreshold,
		collections: make(map[string]*Collection),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.drv = sql.NewStatsDriver(drv, sql.WithLogger(s.logger.Named("sql")), sql.WithSlowThreshold(s.slow))
	return s
}

// NewDB returns a store running on db with the given dialect.
func NewDB(dialectName string, db *stdsql.DB, opts ...Option) *Store {
	return New(sql.OpenDB(dialectName, db), opts...)
}

// Open opens a database with a registered driver and returns a store for
// it. Supported drivers are "postgres" (lib/pq), "pgx", "mysql" and
// "sqlite" (modernc).
func Open(driverName, dsn string, opts ...Option) (*Store, error) {
	drv, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driverName, err)
	}
	return New(drv, opts...), nil
}

// Dialect returns the SQL dialect of the store.
func (s *Store) Dialect() string { return s.drv.Dialect() }

// Driver returns the driver statements run on.
func (s *Store) Driver() dialect.Driver { return s.drv }

// Stats returns a snapshot of the statement statistics.
func (s *Store) Stats() sql.StatsSnapshot { return s.drv.QueryStats().Stats() }

// Close closes the database.
func (s *Store) Close() error { return s.drv.Close() }

// Collection binds def to its table. It fails when def names a hook that
// is not registered. Binding the same collection name twice returns the
// first binding.
func (s *Store) Collection(def *schema.Collection) (*Collection, error) {
	if def == nil || def.Name == "" {
		return nil, errors.New("store: collection definition requires a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.collections[def.Name]; ok {
		return c, nil
	}
	def = def.Clone()
	hooks, err := s.hooks.resolve(def)
	if err != nil {
		return nil, err
	}
	c := &Collection{
		store:  s,
		def:    def,
		table:  def.Table(),
		codec:  codec{dialect: s.Dialect(), def: def},
		hooks:  hooks,
		policy: privacy.CollectionPolicy(def.Access, s.rules[def.Name]...),
		log:    s.logger.With(zap.String("collection", def.Name)),
	}
	s.collections[def.Name] = c
	return c, nil
}

// MustCollection is like Collection but panics on error.
func (s *Store) MustCollection(def *schema.Collection) *Collection {
	c, err := s.Collection(def)
	if err != nil {
		panic(err)
	}
	return c
}

// timestamp returns the current time at microsecond precision, the
// finest precision every dialect stores.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

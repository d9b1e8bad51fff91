package sql

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/modernmen/collectiongen/dialect"
)

// DefaultSlowThreshold marks statements as slow when no threshold is set.
const DefaultSlowThreshold = 100 * time.Millisecond

// QueryStats counts the statements that went through a StatsDriver.
// It is safe for concurrent use.
type QueryStats struct {
	queries, execs atomic.Int64
	slow, failed   atomic.Int64
	nanos          atomic.Int64
}

// Stats returns the counters at the time of the call.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.queries.Load(),
		TotalExecs:    s.execs.Load(),
		TotalDuration: time.Duration(s.nanos.Load()),
		SlowQueries:   s.slow.Load(),
		Errors:        s.failed.Load(),
	}
}

func (s *QueryStats) add(kind stmtKind, took time.Duration, slow bool, err error) {
	if kind == stmtQuery {
		s.queries.Add(1)
	} else {
		s.execs.Add(1)
	}
	s.nanos.Add(int64(took))
	if slow {
		s.slow.Add(1)
	}
	if err != nil {
		s.failed.Add(1)
	}
}

// StatsSnapshot is a copy of the QueryStats counters.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

func (s StatsSnapshot) String() string {
	return fmt.Sprintf("queries=%d execs=%d duration=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.SlowQueries, s.Errors)
}

type stmtKind string

const (
	stmtQuery stmtKind = "query"
	stmtExec  stmtKind = "exec"
)

// StatsDriver decorates a dialect.Driver, counting and logging every
// statement, including the ones run inside its transactions.
type StatsDriver struct {
	dialect.Driver
	stats *QueryStats
	slow  time.Duration
	log   *zap.Logger
}

// StatsOption configures a StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration from which a statement counts as slow.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) { s.slow = d }
}

// WithLogger sets the statement logger. Statements are logged at debug
// level, slow or failed ones at warn level.
func WithLogger(l *zap.Logger) StatsOption {
	return func(s *StatsDriver) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStatsDriver wraps drv.
func NewStatsDriver(drv dialect.Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver: drv,
		stats:  &QueryStats{},
		slow:   DefaultSlowThreshold,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the live counters of the driver.
func (d *StatsDriver) QueryStats() *QueryStats { return d.stats }

// Query implements dialect.ExecQuerier.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	return d.observe(stmtQuery, query, args, func() error {
		return d.Driver.Query(ctx, query, args, v)
	})
}

// Exec implements dialect.ExecQuerier.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	return d.observe(stmtExec, query, args, func() error {
		return d.Driver.Exec(ctx, query, args, v)
	})
}

// Tx starts a transaction whose statements are counted by d.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &statsTx{Tx: tx, drv: d}, nil
}

func (d *StatsDriver) observe(kind stmtKind, query string, args any, run func() error) error {
	start := time.Now()
	err := run()
	took := time.Since(start)
	slow := d.slow > 0 && took >= d.slow
	d.stats.add(kind, took, slow, err)

	fields := []zap.Field{
		zap.String("kind", string(kind)),
		zap.String("sql", query),
		zap.Any("args", args),
		zap.Duration("took", took),
	}
	switch {
	case err != nil:
		d.log.Warn("statement failed", append(fields, zap.Error(err))...)
	case slow:
		d.log.Warn("slow statement", fields...)
	default:
		d.log.Debug("statement", fields...)
	}
	return err
}

type statsTx struct {
	dialect.Tx
	drv *StatsDriver
}

func (tx *statsTx) Query(ctx context.Context, query string, args, v any) error {
	return tx.drv.observe(stmtQuery, query, args, func() error {
		return tx.Tx.Query(ctx, query, args, v)
	})
}

func (tx *statsTx) Exec(ctx context.Context, query string, args, v any) error {
	return tx.drv.observe(stmtExec, query, args, func() error {
		return tx.Tx.Exec(ctx, query, args, v)
	})
}

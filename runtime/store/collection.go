package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/modernmen/collectiongen"
	"github.com/modernmen/collectiongen/dialect"
	"github.com/modernmen/collectiongen/dialect/sql"
	"github.com/modernmen/collectiongen/privacy"
	"github.com/modernmen/collectiongen/query"
	"github.com/modernmen/collectiongen/schema"
)

// Collection runs the operations of one collection. It is safe for
// concurrent use.
type Collection struct {
	store  *Store
	def    *schema.Collection
	table  string
	codec  codec
	hooks  map[schema.HookEvent][]namedHook
	policy privacy.Policy
	log    *zap.Logger

	mu       sync.RWMutex
	watchers map[int]func(Change)
	nextID   int
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.def.Name }

// Table returns the table name.
func (c *Collection) Table() string { return c.table }

// Definition returns a copy of the collection definition.
func (c *Collection) Definition() *schema.Collection { return c.def.Clone() }

// Watch calls fn after every committed write until the returned function
// is called. fn runs on the writing goroutine and must not block.
func (c *Collection) Watch(fn func(Change)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watchers == nil {
		c.watchers = make(map[int]func(Change))
	}
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.watchers, id)
	}
}

func (c *Collection) notify(op schema.Op, rec Record) {
	ch := Change{Collection: c.def.Name, Op: op, ID: rec.ID(), Record: rec, At: c.store.timestamp()}
	c.mu.RLock()
	fns := make([]func(Change), 0, len(c.watchers))
	for _, id := range slices.Sorted(maps.Keys(c.watchers)) {
		fns = append(fns, c.watchers[id])
	}
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(ch)
	}
}

// Authorize evaluates the collection policy for op without running it.
func (c *Collection) Authorize(ctx context.Context, op schema.Op) error {
	return c.authorize(ctx, op, "", nil)
}

func (c *Collection) authorize(ctx context.Context, op schema.Op, id string, data Record) error {
	return c.policy.Eval(ctx, &privacy.Operation{Collection: c.def.Name, Op: op, ID: id, Data: data})
}

// Selector returns the statement List runs for opts, without executing it.
func (c *Collection) Selector(opts query.Options) (*sql.Selector, error) {
	n, err := c.codec.options(opts)
	if err != nil {
		return nil, err
	}
	return sql.Translate(c.store.Dialect(), c.table, n)
}

// List returns one page of the records matching opts. Filters and sorts
// must name queryable fields; the default page is 1 with 10 records.
func (c *Collection) List(ctx context.Context, opts query.Options) (*Page, error) {
	if err := c.authorize(ctx, schema.OpRead, "", nil); err != nil {
		return nil, err
	}
	n, err := c.codec.options(opts)
	if err != nil {
		return nil, err
	}
	sel, err := sql.Translate(c.store.Dialect(), c.table, n)
	if err != nil {
		return nil, err
	}
	rows, err := sql.ScanMaps(ctx, c.store.drv, sel)
	if err != nil {
		return nil, collectiongen.NewQueryError(c.def.Name, "list", err)
	}
	total, err := sql.ScanInt(ctx, c.store.drv, sel.Count())
	if err != nil {
		return nil, collectiongen.NewQueryError(c.def.Name, "count", err)
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		r, err := c.read(ctx, row)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	c.log.Debug("listed", zap.Int("records", len(records)), zap.Int("total", total))
	return NewPage(records, total, n.Page, n.PageSize), nil
}

// Get returns the record with the given id.
func (c *Collection) Get(ctx context.Context, id string) (Record, error) {
	if err := c.authorize(ctx, schema.OpRead, id, nil); err != nil {
		return nil, err
	}
	row, err := c.find(ctx, c.store.drv, id)
	if err != nil {
		return nil, collectiongen.NewQueryError(c.def.Name, "get", err)
	}
	if row == nil {
		return nil, collectiongen.NewNotFoundError(c.def.Name, id)
	}
	return c.read(ctx, row)
}

// Count returns the number of records matching the predicates.
func (c *Collection) Count(ctx context.Context, filter ...query.Predicate) (int, error) {
	if err := c.authorize(ctx, schema.OpRead, "", nil); err != nil {
		return 0, err
	}
	n, err := c.codec.options(query.Options{Filter: filter})
	if err != nil {
		return 0, err
	}
	sel, err := sql.Translate(c.store.Dialect(), c.table, n)
	if err != nil {
		return 0, err
	}
	total, err := sql.ScanInt(ctx, c.store.drv, sel.Count())
	if err != nil {
		return 0, collectiongen.NewQueryError(c.def.Name, "count", err)
	}
	return total, nil
}

// Exists reports whether a record with the given id exists.
func (c *Collection) Exists(ctx context.Context, id string) (bool, error) {
	n, err := c.Count(ctx, query.Predicate{Field: schema.FieldID, Op: query.Eq, Value: id})
	return n > 0, err
}

// Create validates data and inserts a new record. The id and timestamps
// are assigned by the store and defaults fill absent fields.
func (c *Collection) Create(ctx context.Context, data Record) (Record, error) {
	data = data.Clone()
	if data == nil {
		data = Record{}
	}
	if err := c.authorize(ctx, schema.OpCreate, "", data); err != nil {
		return nil, err
	}
	data, err := c.run(ctx, schema.BeforeValidate, HookInput{Op: schema.OpCreate, Data: data})
	if err != nil {
		return nil, c.mutationError("create", err)
	}
	data = Record(c.def.ApplyDefaults(data))
	if err := c.def.CheckRecord(data, false); err != nil {
		return nil, err
	}
	if data, err = c.run(ctx, schema.BeforeChange, HookInput{Op: schema.OpCreate, Data: data}); err != nil {
		return nil, c.mutationError("create", err)
	}
	rec := data.Clone()
	for _, f := range c.def.Fields {
		if _, ok := rec[f.Name]; !ok {
			rec[f.Name] = nil
		}
	}
	rec[schema.FieldID] = c.store.newID()
	if c.def.HasTimestamps() {
		now := c.store.timestamp()
		rec[schema.FieldCreatedAt] = now
		rec[schema.FieldUpdatedAt] = now
	}
	cols, vals, err := c.codec.row(rec)
	if err != nil {
		return nil, err
	}
	insert := sql.Dialect(c.store.Dialect()).Insert(c.table).Columns(cols...).Values(vals...)
	if _, err := sql.Exec(ctx, c.store.drv, insert); err != nil {
		return nil, c.mutationError("create", err)
	}
	if rec, err = c.normalize(rec); err != nil {
		return nil, err
	}
	if rec, err = c.run(ctx, schema.AfterChange, HookInput{Op: schema.OpCreate, ID: rec.ID(), Data: rec}); err != nil {
		return nil, c.mutationError("create", err)
	}
	c.log.Debug("created", zap.String("id", rec.ID()))
	c.notify(schema.OpCreate, rec)
	return rec, nil
}

// Update applies a partial update to the record with the given id and
// returns the updated record. Absent fields keep their values; a nil value
// clears an optional field.
func (c *Collection) Update(ctx context.Context, id string, data Record) (Record, error) {
	data = data.Clone()
	if data == nil {
		data = Record{}
	}
	if err := c.authorize(ctx, schema.OpUpdate, id, data); err != nil {
		return nil, err
	}
	var rec Record
	err := c.tx(ctx, func(tx dialect.Tx) error {
		row, err := c.find(ctx, tx, id)
		switch {
		case err != nil:
			return err
		case row == nil:
			return collectiongen.NewNotFoundError(c.def.Name, id)
		}
		original, err := c.codec.decode(row)
		if err != nil {
			return err
		}
		in := HookInput{Op: schema.OpUpdate, ID: id, Data: data, Original: original}
		if in.Data, err = c.run(ctx, schema.BeforeValidate, in); err != nil {
			return err
		}
		if err := c.def.CheckRecord(in.Data, true); err != nil {
			return err
		}
		if in.Data, err = c.run(ctx, schema.BeforeChange, in); err != nil {
			return err
		}
		update := sql.Dialect(c.store.Dialect()).Update(c.table)
		rec = original.Clone()
		for _, f := range c.def.Fields {
			v, ok := in.Data[f.Name]
			if !ok {
				continue
			}
			cv, err := c.codec.encode(f, v)
			if err != nil {
				return constraint(f.Name, err)
			}
			update.Set(f.Name, cv)
			rec[f.Name] = v
		}
		if c.def.HasTimestamps() {
			now := c.store.timestamp()
			update.Set(schema.FieldUpdatedAt, c.codec.time(now))
			rec[schema.FieldUpdatedAt] = now
		}
		if update.Empty() {
			return nil
		}
		_, err = sql.Exec(ctx, tx, update.Where(sql.EQ(schema.FieldID, id)))
		return err
	})
	if err != nil {
		return nil, c.mutationError("update", err)
	}
	if rec, err = c.normalize(rec); err != nil {
		return nil, err
	}
	if rec, err = c.run(ctx, schema.AfterChange, HookInput{Op: schema.OpUpdate, ID: id, Data: rec}); err != nil {
		return nil, c.mutationError("update", err)
	}
	c.log.Debug("updated", zap.String("id", id))
	c.notify(schema.OpUpdate, rec)
	return rec, nil
}

// Delete removes the record with the given id.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if err := c.authorize(ctx, schema.OpDelete, id, nil); err != nil {
		return err
	}
	var original Record
	err := c.tx(ctx, func(tx dialect.Tx) error {
		row, err := c.find(ctx, tx, id)
		switch {
		case err != nil:
			return err
		case row == nil:
			return collectiongen.NewNotFoundError(c.def.Name, id)
		}
		if original, err = c.codec.decode(row); err != nil {
			return err
		}
		in := HookInput{Op: schema.OpDelete, ID: id, Data: original, Original: original}
		if _, err := c.run(ctx, schema.BeforeDelete, in); err != nil {
			return err
		}
		_, err = sql.Exec(ctx, tx, sql.Dialect(c.store.Dialect()).Delete(c.table).Where(sql.EQ(schema.FieldID, id)))
		return err
	})
	if err != nil {
		return c.mutationError("delete", err)
	}
	in := HookInput{Op: schema.OpDelete, ID: id, Data: original, Original: original}
	if _, err := c.run(ctx, schema.AfterDelete, in); err != nil {
		return c.mutationError("delete", err)
	}
	c.log.Debug("deleted", zap.String("id", id))
	c.notify(schema.OpDelete, original)
	return nil
}

// find loads the row with the given id, or nil when there is none.
func (c *Collection) find(ctx context.Context, ex dialect.ExecQuerier, id string) (map[string]any, error) {
	sel := sql.Dialect(c.store.Dialect()).Select().From(c.table).Where(sql.EQ(schema.FieldID, id)).Limit(1)
	rows, err := sql.ScanMaps(ctx, ex, sel)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// read decodes a row and runs the read hooks.
func (c *Collection) read(ctx context.Context, row map[string]any) (Record, error) {
	r, err := c.codec.decode(row)
	if err != nil {
		return nil, collectiongen.NewQueryError(c.def.Name, "decode", err)
	}
	in := HookInput{Op: schema.OpRead, ID: r.ID(), Data: r}
	if in.Data, err = c.run(ctx, schema.BeforeRead, in); err != nil {
		return nil, collectiongen.NewQueryError(c.def.Name, "read", err)
	}
	if r, err = c.run(ctx, schema.AfterRead, in); err != nil {
		return nil, collectiongen.NewQueryError(c.def.Name, "read", err)
	}
	return r, nil
}

// normalize gives a written record the representation of a read one.
func (c *Collection) normalize(r Record) (Record, error) {
	out := make(Record, len(r))
	for k, v := range r {
		f, ok := c.codec.field(k)
		if !ok {
			continue
		}
		cv, err := c.codec.encode(f, v)
		if err != nil {
			return nil, constraint(k, err)
		}
		if out[k], err = decodeValue(f, cv); err != nil {
			return nil, constraint(k, err)
		}
	}
	return out, nil
}

// tx runs fn in a transaction, committing when fn succeeds.
func (c *Collection) tx(ctx context.Context, fn func(dialect.Tx) error) error {
	tx, err := c.store.drv.Tx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	return tx.Commit()
}

// mutationError keeps constraint, not found and access errors visible to
// errors.As and wraps everything else in a MutationError.
func (c *Collection) mutationError(op string, err error) error {
	switch {
	case collectiongen.IsNotFound(err), collectiongen.IsConstraintError(err), collectiongen.IsAccessError(err):
		return err
	case sql.IsUniqueConstraintError(err):
		return &collectiongen.ConstraintError{Msg: "unique constraint violated", Err: err}
	case sql.IsForeignKeyConstraintError(err):
		return &collectiongen.ConstraintError{Msg: "foreign key constraint violated", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return collectiongen.NewMutationError(c.def.Name, op, err)
}

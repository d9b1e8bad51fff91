package store_test

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmen/collectiongen/query"
	"github.com/modernmen/collectiongen/runtime/store"
	"github.com/modernmen/collectiongen/schema"
)

// seed creates 12 appointments on consecutive days of March 2025. Every
// third one is done, the others are booked.
func seed(t *testing.T, c *store.Collection) {
	t.Helper()
	ctx := manager()
	for i := range 12 {
		data := store.Record{
			"date":     time.Date(2025, 3, i+1, 10, 0, 0, 0, time.UTC).Format(schema.DateLayout),
			"customer": "c1",
		}
		if i%3 == 2 {
			data["status"] = "done"
			data["customer"] = "c2"
		}
		_, err := c.Create(ctx, data)
		require.NoError(t, err)
	}
}

func day(n int) time.Time { return time.Date(2025, 3, n, 0, 0, 0, 0, time.UTC) }

func dates(p *store.Page) []time.Time {
	var ds []time.Time
	for _, r := range p.Records {
		ds = append(ds, r["date"].(time.Time))
	}
	return ds
}

func TestList(t *testing.T) {
	st := newStore(t)
	appointments := st.MustCollection(appointment())
	seed(t, appointments)
	ctx := manager()

	t.Run("defaults", func(t *testing.T) {
		page, err := appointments.List(ctx, query.Options{})
		require.NoError(t, err)
		assert.Len(t, page.Records, query.DefaultPageSize)
		assert.Equal(t, 12, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.TotalPages)
		assert.True(t, page.HasNext)
		assert.False(t, page.HasPrev)
	})

	t.Run("filter sort and page", func(t *testing.T) {
		opts := query.New().
			WhereEq("status", "booked").
			OrderBy("date", query.Desc).
			Page(2).PageSize(3).
			Build()
		page, err := appointments.List(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, 8, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, []time.Time{day(7), day(5), day(4)}, dates(page))
		assert.True(t, page.HasNext)
		assert.True(t, page.HasPrev)
	})

	t.Run("between and in", func(t *testing.T) {
		opts := query.New().
			WhereBetween("date", "2025-03-02", "2025-03-06").
			WhereIn("status", "done", "cancelled").
			OrderBy("date", query.Asc).
			Build()
		page, err := appointments.List(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day(3), day(6)}, dates(page))
	})

	t.Run("url values", func(t *testing.T) {
		opts, err := query.ParseValues(url.Values{
			"filter":   {"customer:eq:c2", "date:gte:2025-03-07"},
			"sort":     {"-date"},
			"pageSize": {"5"},
		})
		require.NoError(t, err)
		page, err := appointments.List(ctx, opts)
		require.NoError(t, err)
		assert.Equal(t, []time.Time{day(12), day(9)}, dates(page))
		assert.False(t, page.HasNext)
	})

	t.Run("string operators", func(t *testing.T) {
		n, err := appointments.Count(ctx, query.Predicate{Field: "status", Op: query.StartsWith, Value: "do"})
		require.NoError(t, err)
		assert.Equal(t, 4, n)
		n, err = appointments.Count(ctx, query.Predicate{Field: "status", Op: query.Contains, Value: "OOK"})
		require.NoError(t, err)
		assert.Equal(t, 8, n)
	})

	t.Run("past the last page", func(t *testing.T) {
		page, err := appointments.List(ctx, query.Options{Page: 5})
		require.NoError(t, err)
		assert.Empty(t, page.Records)
		assert.NotNil(t, page.Records)
		assert.Equal(t, 12, page.Total)
		assert.False(t, page.HasNext)
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name        string
			opts        query.Options
			unsupported bool
		}{
			{"unknown operator", query.Options{Filter: []query.Predicate{{Field: "status", Op: "like", Value: "b%"}}}, true},
			{"unknown field", query.Options{Filter: []query.Predicate{{Field: "colour", Op: query.Eq, Value: "red"}}}, false},
			{"unknown sort field", query.Options{Sort: []query.Order{{Field: "colour"}}}, false},
			{"page size", query.Options{PageSize: 101}, false},
			{"malformed date", query.Options{Filter: []query.Predicate{{Field: "date", Op: query.Gt, Value: "tomorrow"}}}, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := appointments.List(ctx, tt.opts)
				require.Error(t, err)
				assert.Equal(t, tt.unsupported, query.IsUnsupportedOperator(err), "%v", err)
				assert.Equal(t, !tt.unsupported, query.IsInvalidOption(err), "%v", err)
			})
		}
	})
}

func TestNumberAndBooleanFilters(t *testing.T) {
	st := newStore(t)
	services := st.MustCollection(service())
	ctx := manager()
	for _, data := range []store.Record{
		{"title": "Cut", "durationMinutes": 30},
		{"title": "Color", "durationMinutes": 90, "active": false},
		{"title": "Spa day", "durationMinutes": 240, "category": "spa"},
	} {
		_, err := services.Create(ctx, data)
		require.NoError(t, err)
	}
	opts, err := query.ParseValues(url.Values{"filter": {"durationMinutes:gt:45", "active:eq:true"}})
	require.NoError(t, err)
	page, err := services.List(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "Spa day", page.Records[0]["title"])

	n, err := services.Count(ctx, query.Predicate{Field: "category", Op: query.IsNull})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = services.List(ctx, query.Options{Filter: []query.Predicate{{Field: "notes", Op: query.Eq, Value: "x"}}})
	assert.True(t, query.IsInvalidOption(err))
	_, err = services.List(ctx, query.Options{Filter: []query.Predicate{{Field: "durationMinutes", Op: query.Gt, Value: "long"}}})
	assert.True(t, query.IsInvalidOption(err))
}

func TestSelector(t *testing.T) {
	st := newStore(t)
	appointments := st.MustCollection(appointment())
	sel, err := appointments.Selector(query.New().WhereEq("status", "booked").OrderBy("date", query.Asc).Page(2).Build())
	require.NoError(t, err)
	stmt, args := sel.Query()
	assert.Equal(t, `SELECT * FROM "appointments" WHERE "status" = ? ORDER BY "date" ASC LIMIT 10 OFFSET 10`, stmt)
	assert.Equal(t, []any{"booked"}, args)
}

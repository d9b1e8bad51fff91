// Package migrate renders the SQL table of each collection, planned by
// atlas for the selected dialect. The columns match what runtime/store
// reads and writes.
package migrate

import (
	"context"
	"fmt"
	"path"
	"strings"

	sqlmigrate "ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	atlas "ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/modernmen/collectiongen/compiler/gen"
	"github.com/modernmen/collectiongen/dialect"
	"github.com/modernmen/collectiongen/schema"
)

// Name identifies the emitter and the kind of its artifacts.
const Name = "migrate"

// columnTypes maps the field kinds of a dialect to column types.
type columnTypes struct {
	id, text, number, boolean, date, document atlas.Type
}

var types = map[string]columnTypes{
	dialect.Postgres: {
		id:       &atlas.StringType{T: "text"},
		text:     &atlas.StringType{T: "text"},
		number:   &atlas.FloatType{T: "double precision"},
		boolean:  &atlas.BoolType{T: "boolean"},
		date:     &atlas.TimeType{T: "timestamptz"},
		document: &atlas.JSONType{T: "jsonb"},
	},
	dialect.MySQL: {
		id:       &atlas.StringType{T: "varchar", Size: 36},
		text:     &atlas.StringType{T: "varchar", Size: 255},
		number:   &atlas.FloatType{T: "double"},
		boolean:  &atlas.BoolType{T: "bool"},
		date:     &atlas.TimeType{T: "datetime", Precision: intp(6)},
		document: &atlas.JSONType{T: "json"},
	},
	// SQLite dates are stored as text in a sortable layout.
	dialect.SQLite: {
		id:       &atlas.StringType{T: "text"},
		text:     &atlas.StringType{T: "text"},
		number:   &atlas.FloatType{T: "real"},
		boolean:  &atlas.BoolType{T: "boolean"},
		date:     &atlas.StringType{T: "text"},
		document: &atlas.StringType{T: "text"},
	},
}

var planners = map[string]sqlmigrate.PlanApplier{
	dialect.Postgres: postgres.DefaultPlan,
	dialect.MySQL:    mysql.DefaultPlan,
	dialect.SQLite:   sqlite.DefaultPlan,
}

// Emitter renders migrations/<slug>.sql.
type Emitter struct {
	dialect string
	types   columnTypes
	planner sqlmigrate.PlanApplier
}

// New returns an emitter for the given dialect or database/sql driver name.
func New(name string) (*Emitter, error) {
	d, err := dialect.Resolve(name)
	if err != nil {
		return nil, gen.NewConfigError("Migrations", name, "unsupported dialect")
	}
	return &Emitter{dialect: d, types: types[d], planner: planners[d]}, nil
}

// Name implements gen.Emitter.
func (*Emitter) Name() string { return Name }

// Dialect returns the target dialect.
func (e *Emitter) Dialect() string { return e.dialect }

// Emit implements gen.Emitter.
func (e *Emitter) Emit(t *gen.Type) (*gen.Artifact, error) {
	stmts, err := e.Statements(t)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	if t.Header != "" {
		fmt.Fprintf(&b, "-- %s\n\n", t.Header)
	}
	for _, s := range stmts {
		b.WriteString(s)
		b.WriteString(";\n")
	}
	return &gen.Artifact{
		Kind:    Name,
		Path:    path.Join("migrations", t.Slug+".sql"),
		Content: []byte(b.String()),
	}, nil
}

// Statements returns the DDL creating the collection table and its indexes,
// each preceded by a comment line.
func (e *Emitter) Statements(t *gen.Type) ([]string, error) {
	table := e.Table(t)
	unqualified := ""
	plan, err := e.planner.PlanChanges(context.Background(), t.Slug, []atlas.Change{
		&atlas.AddTable{T: table},
	}, func(o *sqlmigrate.PlanOptions) {
		o.SchemaQualifier = &unqualified
	})
	if err != nil {
		return nil, fmt.Errorf("migrate: plan %s table: %w", t.Name, err)
	}
	stmts := make([]string, 0, len(plan.Changes))
	for _, c := range plan.Changes {
		s := c.Cmd
		if c.Comment != "" {
			s = "-- " + c.Comment + "\n" + s
		}
		stmts = append(stmts, s)
	}
	return stmts, nil
}

// Table builds the atlas table of a collection: the id primary key, one
// column per field in declaration order, then the timestamps.
func (e *Emitter) Table(t *gen.Type) *atlas.Table {
	table := atlas.NewTable(t.Table())
	atlas.New("").AddTables(table)
	id := atlas.NewColumn(schema.FieldID).SetType(e.types.id)
	table.AddColumns(id)
	table.SetPrimaryKey(atlas.NewPrimaryKey(id))
	for _, fd := range t.Fields {
		c := atlas.NewColumn(fd.Name).
			SetType(e.columnType(fd)).
			SetNull(!fd.Required())
		table.AddColumns(c)
		switch {
		case fd.Unique():
			table.AddIndexes(atlas.NewUniqueIndex(table.Name + "_" + snake(fd.Name) + "_key").AddColumns(c))
		case fd.Index():
			table.AddIndexes(atlas.NewIndex(table.Name + "_" + snake(fd.Name)).AddColumns(c))
		}
	}
	if t.HasTimestamps() {
		for _, name := range []string{schema.FieldCreatedAt, schema.FieldUpdatedAt} {
			table.AddColumns(atlas.NewColumn(name).SetType(e.types.date))
		}
	}
	return table
}

func (e *Emitter) columnType(fd *gen.Field) atlas.Type {
	if fd.HasMany() || fd.IsRichText() {
		return e.types.document
	}
	switch fd.Kind {
	case schema.KindNumber:
		return e.types.number
	case schema.KindBoolean:
		return e.types.boolean
	case schema.KindDate:
		return e.types.date
	}
	return e.types.text
}

// snake turns "durationMinutes" into "duration_minutes".
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func intp(i int) *int { return &i }

package gen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmen/collectiongen/schema"
	"github.com/modernmen/collectiongen/schema/field"
)

// stubTranslator renders one line per field. Collections listed in fail
// make the service step fail.
type stubTranslator struct {
	fail  map[string]bool
	paths map[ArtifactKind]string
	calls atomic.Int64
}

func (*stubTranslator) Name() string { return "stub" }

func (s *stubTranslator) render(kind ArtifactKind, t *Type) (*Artifact, error) {
	s.calls.Add(1)
	if kind == KindService && s.fail[t.Name] {
		return nil, errors.New("boom")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "// %s\n%s %s\n", t.Header, kind, t.Name)
	for _, f := range t.Fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Kind)
	}
	p := fmt.Sprintf("%s/%s.txt", kind, t.Slug)
	if s.paths[kind] != "" {
		p = s.paths[kind]
	}
	return &Artifact{Kind: kind, Path: p, Content: []byte(b.String())}, nil
}

func (s *stubTranslator) Config(t *Type) (*Artifact, error)  { return s.render(KindConfig, t) }
func (s *stubTranslator) Service(t *Type) (*Artifact, error) { return s.render(KindService, t) }
func (s *stubTranslator) Types(t *Type) (*Artifact, error)   { return s.render(KindTypes, t) }

type stubEmitter string

func (e stubEmitter) Name() string { return string(e) }

func (e stubEmitter) Emit(t *Type) (*Artifact, error) {
	return &Artifact{Path: string(e) + "/" + t.Slug, Content: []byte(t.Name)}, nil
}

func TestGenerate(t *testing.T) {
	t.Run("appointment example", func(t *testing.T) {
		res, err := Generate(appointment(), WithTarget(&stubTranslator{}), WithExternal("Customer"))
		require.NoError(t, err)
		assert.Equal(t, "Appointment", res.Collection)
		assert.Equal(t, []string{
			"config/appointments.txt",
			"service/appointments.txt",
			"types/appointments.txt",
		}, res.Paths())
		assert.Equal(t, "// "+DefaultHeader+"\nservice Appointment\ndate: date\ncustomer: relation\n", string(res.Service().Content))
		assert.NotNil(t, res.Config())
		assert.NotNil(t, res.Types())
	})

	t.Run("types disabled", func(t *testing.T) {
		res, err := Generate(appointment(), WithTarget(&stubTranslator{}), WithExternal("Customer"), WithTypes(false))
		require.NoError(t, err)
		assert.Nil(t, res.Types())
		assert.Len(t, res.Artifacts, 2)
	})

	t.Run("emitters run after the target", func(t *testing.T) {
		res, err := Generate(service(), WithTarget(&stubTranslator{}), WithEmitters(stubEmitter("graphql")))
		require.NoError(t, err)
		require.Len(t, res.Artifacts, 4)
		a := res.Artifact("graphql")
		require.NotNil(t, a)
		assert.Equal(t, "graphql/services", a.Path)
	})

	t.Run("duplicate field produces no artifacts", func(t *testing.T) {
		c := &schema.Collection{
			Name: "Appointment",
			Fields: []*schema.Field{
				field.Date("date").Descriptor(),
				field.Date("date").Descriptor(),
			},
		}
		tr := &stubTranslator{}
		res, err := Generate(c, WithTarget(tr))
		assert.Nil(t, res)
		assert.True(t, IsValidationError(err))
		assert.Zero(t, tr.calls.Load())
	})

	t.Run("undeclared relation target", func(t *testing.T) {
		res, err := Generate(appointment(), WithTarget(&stubTranslator{}))
		assert.Nil(t, res)
		verrs := ValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Equal(t, "customer", verrs[0].Field)
	})

	t.Run("missing target", func(t *testing.T) {
		_, err := Generate(service())
		assert.True(t, IsConfigError(err))
	})

	t.Run("failing step", func(t *testing.T) {
		_, err := Generate(service(), WithTarget(&stubTranslator{fail: map[string]bool{"Service": true}}))
		var ge *GenerationError
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, "service", ge.Phase)
		assert.Equal(t, "Service", ge.Collection)
		assert.EqualError(t, errors.Unwrap(ge), "boom")
	})

	t.Run("escaping path", func(t *testing.T) {
		tr := &stubTranslator{paths: map[ArtifactKind]string{KindConfig: "../outside.txt"}}
		_, err := Generate(service(), WithTarget(tr))
		require.True(t, IsGenerationError(err))
		assert.Contains(t, err.Error(), "escapes the output directory")
	})

	t.Run("colliding paths", func(t *testing.T) {
		tr := &stubTranslator{paths: map[ArtifactKind]string{KindConfig: "same.txt", KindTypes: "./same.txt"}}
		_, err := Generate(service(), WithTarget(tr))
		assert.ErrorContains(t, err, "generated twice")
	})

	t.Run("regeneration is byte-identical", func(t *testing.T) {
		first, err := Generate(service(), WithTarget(&stubTranslator{}))
		require.NoError(t, err)
		second, err := Generate(service(), WithTarget(&stubTranslator{}))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestGenerateAll(t *testing.T) {
	booking := &schema.Collection{
		Name:   "Booking",
		Fields: []*schema.Field{field.Relation("service", "Service").Descriptor()},
	}

	t.Run("results keep declaration order", func(t *testing.T) {
		cfg := newTestConfig(t, WithExternal("Customer"), WithWorkers(4))
		g, err := NewGraph(cfg, appointment(), service(), booking)
		require.NoError(t, err)
		gen, err := NewGenerator(g)
		require.NoError(t, err)
		results, err := gen.GenerateAll(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 3)
		for i, name := range []string{"Appointment", "Service", "Booking"} {
			assert.Equal(t, name, results[i].Collection)
		}
	})

	t.Run("failures do not stop the batch", func(t *testing.T) {
		tr := &stubTranslator{fail: map[string]bool{"Service": true}}
		cfg, err := NewConfig(WithTarget(tr), WithExternal("Customer"), WithWorkers(1))
		require.NoError(t, err)
		g, err := NewGraph(cfg, appointment(), service(), booking)
		require.NoError(t, err)
		gen, err := NewGenerator(g)
		require.NoError(t, err)
		results, err := gen.GenerateAll(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrGenerationFailed))
		require.Len(t, results, 2)
		assert.Equal(t, "Appointment", results[0].Collection)
		assert.Equal(t, "Booking", results[1].Collection)
	})

	t.Run("canceled context", func(t *testing.T) {
		g, err := NewGraph(newTestConfig(t), service())
		require.NoError(t, err)
		gen, err := NewGenerator(g)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results, err := gen.GenerateAll(ctx)
		assert.Empty(t, results)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unknown and rejected collections", func(t *testing.T) {
		bad := &schema.Collection{Name: "Broken"}
		g, err := NewGraph(newTestConfig(t), service(), bad)
		require.Error(t, err)
		gen, err := NewGenerator(g)
		require.NoError(t, err)

		_, err = gen.Generate("Broken")
		assert.ErrorContains(t, err, "not part of the validated graph")
		_, err = gen.Generate("Nope")
		assert.ErrorContains(t, err, "unknown collection")
	})
}

func TestNewGenerator(t *testing.T) {
	_, err := NewGenerator(nil)
	assert.True(t, IsConfigError(err))

	g, err := NewGraph(MustNewConfig(), service())
	require.NoError(t, err)
	_, err = NewGenerator(g)
	assert.ErrorContains(t, err, "WithTarget")
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modernmen/collectiongen/internal/config"
)

func TestDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	c, err := config.Load(config.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "generated", c.Out)
	assert.Equal(t, "payload", c.Target)
	assert.True(t, c.Types)
	assert.False(t, c.GraphQL)
	assert.Equal(t, "warn", c.Log.Level)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "collectiongen.yaml"), []byte(`
out: src
target: go
types: false
package: example.com/salon/collections
graphql: true
migrations: pgx
external: [Users]
log:
  level: info
`), 0o644))

	c, err := config.Load(config.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "src", c.Out)
	assert.Equal(t, "go", c.Target)
	assert.False(t, c.Types)
	assert.Equal(t, "example.com/salon/collections", c.Package)
	assert.True(t, c.GraphQL)
	assert.Equal(t, "pgx", c.Migrations)
	assert.Equal(t, []string{"Users"}, c.External)
	assert.Equal(t, "info", c.Log.Level)

	t.Run("environment overrides the file", func(t *testing.T) {
		t.Setenv("COLLECTIONGEN_TARGET", "payload")
		t.Setenv("COLLECTIONGEN_LOG_LEVEL", "debug")
		c, err := config.Load(config.New(), "")
		require.NoError(t, err)
		assert.Equal(t, "payload", c.Target)
		assert.Equal(t, "debug", c.Log.Level)
	})
	t.Run("explicit values override both", func(t *testing.T) {
		v := config.New()
		v.Set("out", "elsewhere")
		c, err := config.Load(v, "")
		require.NoError(t, err)
		assert.Equal(t, "elsewhere", c.Out)
	})
}

func TestExplicitFileMustExist(t *testing.T) {
	_, err := config.Load(config.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*config.Config)
		want string
	}{
		{"unknown target", func(c *config.Config) { c.Target = "django" }, `unknown target "django"`},
		{"unknown dialect", func(c *config.Config) { c.Migrations = "oracle" }, "migrations"},
		{"negative workers", func(c *config.Config) { c.Workers = -1 }, "workers"},
		{"empty out", func(c *config.Config) { c.Out = "" }, "out cannot be empty"},
		{"bad level", func(c *config.Config) { c.Log.Level = "loud" }, "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &config.Config{Out: "generated", Target: "payload", Log: config.LogConfig{Level: "warn"}}
			require.NoError(t, c.Validate())
			tt.edit(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

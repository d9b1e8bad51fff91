package gen

import (
	"errors"
	"go/token"
	"runtime"
	"slices"
	"strings"

	"go.uber.org/zap"
)

// DefaultHeader is the first line of every generated artifact.
const DefaultHeader = "Code generated by collectiongen. DO NOT EDIT."

// Config holds the global generation options.
type Config struct {
	// Target renders the per-collection artifacts for one host framework.
	Target Translator
	// Types enables the type declarations artifact.
	Types bool
	// Emitters render target independent extras, like GraphQL SDL.
	Emitters []Emitter
	// Package is the import path of the generated code root, used by
	// targets that emit import statements between artifacts.
	Package string
	// Header is written at the top of each artifact.
	Header string
	// External lists collections declared outside this batch that
	// relation fields may reference.
	External []string
	// Logger receives generation progress. Defaults to a no-op logger.
	Logger *zap.Logger
	// Workers bounds the number of collections generated in parallel.
	Workers int
}

// Option configures code generation.
type Option func(*Config) error

// WithTarget sets the translator for the host framework.
func WithTarget(t Translator) Option {
	return func(c *Config) error {
		if t == nil {
			return NewConfigError("Target", nil, "translator cannot be nil")
		}
		c.Target = t
		return nil
	}
}

// WithTypes toggles the type declarations artifact.
func WithTypes(enabled bool) Option {
	return func(c *Config) error {
		c.Types = enabled
		return nil
	}
}

// WithEmitters adds extra artifact emitters.
func WithEmitters(emitters ...Emitter) Option {
	return func(c *Config) error {
		for _, e := range emitters {
			if e == nil {
				return NewConfigError("Emitters", nil, "emitter cannot be nil")
			}
			if slices.ContainsFunc(c.Emitters, func(o Emitter) bool { return o.Name() == e.Name() }) {
				return NewConfigError("Emitters", e.Name(), "emitter registered twice")
			}
			c.Emitters = append(c.Emitters, e)
		}
		return nil
	}
}

// WithPackage sets the import path of the generated code root, such as
// "github.com/org/salon/collections". Its last element must form a valid
// package name once dashes are replaced.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		for _, elem := range strings.Split(pkg, "/") {
			if elem == "" || elem == "." || elem == ".." {
				return NewConfigError("Package", pkg, "invalid import path")
			}
		}
		if name := pkg[strings.LastIndex(pkg, "/")+1:]; !token.IsIdentifier(strings.ReplaceAll(name, "-", "_")) {
			return NewConfigError("Package", pkg, "last path element must be a valid package name")
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader replaces DefaultHeader. An empty header disables it.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithExternal declares collections defined elsewhere, such as built-in
// CMS collections, as valid relation targets.
func WithExternal(names ...string) Option {
	return func(c *Config) error {
		for _, n := range names {
			if n == "" {
				return NewConfigError("External", nil, "external collection name cannot be empty")
			}
			if !slices.Contains(c.External, n) {
				c.External = append(c.External, n)
			}
		}
		return nil
	}
}

// WithLogger sets the generation logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithWorkers bounds the number of collections generated in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 1 {
			return NewConfigError("Workers", n, "must be at least 1")
		}
		c.Workers = n
		return nil
	}
}

// Apply runs opts on c and reports every option that failed, joined.
// Valid options are applied even when others fail.
func (c *Config) Apply(opts ...Option) error {
	errs := make([]error, 0, len(opts))
	for _, opt := range opts {
		errs = append(errs, opt(c))
	}
	return errors.Join(errs...)
}

// NewConfig returns the default config with opts applied. Type
// declarations are on by default and each run uses GOMAXPROCS workers.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Types:   true,
		Header:  DefaultHeader,
		Logger:  zap.NewNop(),
		Workers: runtime.GOMAXPROCS(0),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig is like NewConfig but panics on invalid options.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Config) workers() int {
	if c.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}

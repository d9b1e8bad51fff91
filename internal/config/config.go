// Package config loads the command line configuration. Values come, by
// increasing precedence, from defaults, collectiongen.yaml, COLLECTIONGEN_*
// environment variables and bound command line flags.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/modernmen/collectiongen/dialect"
)

// Config file and environment naming.
const (
	FileName  = "collectiongen"
	EnvPrefix = "COLLECTIONGEN"
)

// Targets lists the supported translators.
var Targets = []string{"payload", "go"}

// Config is the generation configuration of the command line tool.
type Config struct {
	// Out is the output directory.
	Out string `mapstructure:"out"`
	// Target selects the translator.
	Target string `mapstructure:"target"`
	// Types enables the type declarations artifact.
	Types bool `mapstructure:"types"`
	// Package is the import path of the generated Go code root.
	Package string `mapstructure:"package"`
	// Header replaces the generated file header.
	Header string `mapstructure:"header"`
	// HooksModule is the module Payload configs import hooks from.
	HooksModule string `mapstructure:"hooks_module"`
	// GraphQL enables the SDL emitter.
	GraphQL bool `mapstructure:"graphql"`
	// Migrations names the SQL dialect of the DDL emitter. Empty disables it.
	Migrations string `mapstructure:"migrations"`
	// External lists collections declared elsewhere.
	External []string `mapstructure:"external"`
	// Workers bounds parallel generation. Zero uses GOMAXPROCS.
	Workers int       `mapstructure:"workers"`
	Log     LogConfig `mapstructure:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// New returns a viper instance with the defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("out", "generated")
	v.SetDefault("target", "payload")
	v.SetDefault("types", true)
	v.SetDefault("package", "")
	v.SetDefault("header", "")
	v.SetDefault("hooks_module", "")
	v.SetDefault("graphql", false)
	v.SetDefault("migrations", "")
	v.SetDefault("external", []string{})
	v.SetDefault("workers", 0)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.json", false)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the result. An empty file
// looks for collectiongen.{yaml,yml,json} in the working directory; a
// missing default file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", describe(v, file), err)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func describe(v *viper.Viper, file string) string {
	if used := v.ConfigFileUsed(); used != "" {
		return used
	}
	if file != "" {
		return file
	}
	return FileName
}

// Validate checks the option values.
func (c *Config) Validate() error {
	var errs []error
	if c.Out == "" {
		errs = append(errs, errors.New("config: out cannot be empty"))
	}
	if !slices.Contains(Targets, c.Target) {
		errs = append(errs, fmt.Errorf("config: unknown target %q (one of %s)", c.Target, strings.Join(Targets, ", ")))
	}
	if c.Migrations != "" {
		if _, err := dialect.Resolve(c.Migrations); err != nil {
			errs = append(errs, fmt.Errorf("config: migrations: %w", err))
		}
	}
	if c.Workers < 0 {
		errs = append(errs, errors.New("config: workers cannot be negative"))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("config: log.level: %w", err))
	}
	return errors.Join(errs...)
}

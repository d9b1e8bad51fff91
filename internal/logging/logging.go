// Package logging builds the zap loggers used by the command line tool.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavor.
type Options struct {
	// Level is one of debug, info, warn or error. Empty means warn, so a
	// normal run only prints command output.
	Level string
	// Verbose switches to the development encoder at debug level.
	Verbose bool
	// JSON selects the production JSON encoder.
	JSON bool
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = l
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var enc zapcore.Encoder
	if opts.JSON {
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !opts.Verbose {
			cfg.TimeKey = ""
			cfg.CallerKey = ""
		}
		enc = zapcore.NewConsoleEncoder(cfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(level))
	var zopts []zap.Option
	if opts.Verbose {
		zopts = append(zopts, zap.AddCaller())
	}
	return zap.New(core, zopts...), nil
}

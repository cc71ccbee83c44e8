// Package logger holds the process-wide zap logger. It is a no-op until Init runs,
// so packages may log from tests without any setup.
package logger

import (
	"fmt"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects level and encoding of the global logger.
type Options struct {
	Level  string // debug, info, warn or error; anything else means info
	Format string // json (default) or console
}

var global atomic.Pointer[zap.Logger]

func init() {
	global.Store(zap.NewNop())
}

// Init builds the global logger from opts.
func Init(opts Options) error {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return fmt.Errorf("logger: unknown format %q", opts.Format)
	}

	level := zapcore.InfoLevel
	if err := level.UnmarshalText([]byte(strings.TrimSpace(opts.Level))); err != nil {
		level = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("logger: build: %w", err)
	}
	global.Store(built)
	return nil
}

// Logger returns the global logger.
func Logger() *zap.Logger {
	return global.Load()
}

// Sync flushes buffered entries.
func Sync() error {
	return Logger().Sync()
}

// Replace installs l as the global logger and returns a func restoring the previous one.
func Replace(l *zap.Logger) func() {
	if l == nil {
		l = zap.NewNop()
	}
	prev := global.Swap(l)
	return func() { global.Store(prev) }
}

// WithModule returns a child logger tagged with the emitting module.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

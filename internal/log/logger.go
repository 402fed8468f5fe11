// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package log configures the global zerolog logger. Output goes to the
// console and, when a log file is configured, to the file as well.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mximoph/mximoph/pkg/types"
)

var (
	once sync.Once
	base zerolog.Logger
)

// Configure initialises the global logger exactly once. The level comes
// from cfg, falling back to the LOG_LEVEL environment variable, then to
// info. When cfg.File is set the file is opened for append and receives
// a copy of every entry.
func Configure(cfg types.LogConfig) error {
	var openErr error
	once.Do(func() {
		level := zerolog.InfoLevel
		lvl := cfg.Level
		if lvl == "" {
			lvl = os.Getenv("LOG_LEVEL")
		}
		if lvl != "" {
			if parsed, err := zerolog.ParseLevel(lvl); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
		if cfg.File != "" {
			f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				openErr = fmt.Errorf("opening log file %s: %w", cfg.File, err)
				return
			}
			writer = zerolog.MultiLevelWriter(writer, f)
		}

		base = zerolog.New(writer).With().
			Timestamp().
			Str("service", "mximoph").
			Logger()
	})
	return openErr
}

func logger() zerolog.Logger {
	Configure(types.LogConfig{})
	return base
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	return logger()
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(component string) zerolog.Logger {
	return logger().With().Str("component", component).Logger()
}

// Package cli implements the npmreg command-line interface.
//
// Every read-only registry operation has a command. Results go to stdout as
// indented JSON so they can be piped into jq; progress, status lines and logs
// go to stderr.
//
// # Commands
//
//   - packument, manifest: package metadata
//   - downloads: point and daily counts, bulk, registry-wide and per-version
//   - search: full-text package search
//   - keys, metadata: registry signing keys and root document
//   - cache: inspect and clear the response cache
//
// # Configuration
//
// Registry URLs and the cache backend come from an optional TOML file
// ($XDG_CONFIG_HOME/npmreg/config.toml) and can be overridden per call with
// --registry, --downloads and --cache.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Fetching react (123ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

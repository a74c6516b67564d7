// Package logging assembles structured slog loggers and formatting helpers used
// across callwatch.
//
// It owns the console and JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so watch code can tag every line of one
// recording with the same correlation ID. The package also provides a no-op
// logger for tests and wiring code that cannot fail.
package logging

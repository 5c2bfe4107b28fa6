// Package logging assembles structured slog loggers and formatting helpers used
// across volscribe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code automatically
// tags log lines with collection IDs, volume numbers, stages, and run IDs. The
// package also provides a no-op logger for tests and a progress sampler for
// long transfers when no terminal is attached.
package logging

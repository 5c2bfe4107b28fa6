// Package runlog records pipeline runs and per-volume outcomes in SQLite.
//
// The ledger is informational: stage state is always derived from the
// collection directory, never from this database. It backs the history
// command and lets operators see which volumes failed and why.
package runlog

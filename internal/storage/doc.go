// Package storage persists job run history.
//
// Two backends are available:
//   - "file": JSON Lines, one record per run
//   - "sqlite": a single SQLite database file
//
// An empty driver (or "none") disables persistence; Open then returns a nil
// Store and callers skip recording.
package storage

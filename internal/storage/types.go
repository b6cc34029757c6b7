package storage

import (
	"errors"
	"time"
)

var (
	ErrDisabled      = errors.New("storage disabled")
	ErrUnknownDriver = errors.New("unknown storage driver")
)

// Config configures storage.
//
// Driver values:
//   - "file": JSON Lines file backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

const (
	StatusExecuted = "executed"
	StatusFailed   = "failed"
)

// RunRecord is one job run as seen by the scheduler.
// Keep it compact and schema-stable.
type RunRecord struct {
	At         time.Time `json:"at"`
	JobID      string    `json:"job_id"`
	Command    string    `json:"command"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	ExitCode   int       `json:"exit_code"`
	Background bool      `json:"background"`
	TookMS     int64     `json:"took_ms"`
}

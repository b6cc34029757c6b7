package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"cronrunner/internal/job"
)

// ErrInvalid wraps every validation failure; it is a job.ErrConfiguration.
var ErrInvalid = fmt.Errorf("%w: invalid config", job.ErrConfiguration)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	Jobs      []JobConfig     `json:"jobs"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SchedulerConfig is propagated to every job.
//
// TempDir is where lock files go when a job does not name its own lock
// directory. It defaults to the OS temp dir at load time.
type SchedulerConfig struct {
	TempDir string `json:"temp_dir,omitempty"`
	Shell   string `json:"shell,omitempty"`

	// WorkSeconds are the seconds-of-minute at which the work loop ticks.
	WorkSeconds []int `json:"work_seconds,omitempty"`
	// PollInterval is a Go duration string (default "200ms").
	PollInterval string `json:"poll_interval,omitempty"`
	// Retention caps the in-memory run history of the daemon (0 = 1000).
	Retention int `json:"retention,omitempty"`

	Email *EmailConfig `json:"email,omitempty"`
}

// EmailConfig must be a mapping; any other YAML/JSON shape is rejected.
type EmailConfig struct {
	Host              string `json:"host,omitempty"`
	Port              int    `json:"port,omitempty"`
	Username          string `json:"username,omitempty"`
	Password          string `json:"password,omitempty"`
	From              string `json:"from,omitempty"`
	Subject           string `json:"subject,omitempty"`
	Body              string `json:"body,omitempty"`
	IgnoreEmptyOutput bool   `json:"ignore_empty_output,omitempty"`
	RatePerMinute     int    `json:"rate_per_minute,omitempty"`
}

func (e *EmailConfig) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: scheduler.email must be a mapping", ErrInvalid)
	}
	type plain EmailConfig
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	var p plain
	if err := dec.Decode(&p); err != nil {
		return fmt.Errorf("scheduler.email: %w", err)
	}
	*e = EmailConfig(p)
	return nil
}

// StorageConfig controls run history persistence.
//
// Example:
//
//	"storage": { "driver": "sqlite", "path": "./data/runs.db" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// JobConfig declares one job. Exactly one of Command and Script is set.
type JobConfig struct {
	ID          string      `json:"id,omitempty"`
	Command     string      `json:"command,omitempty"`
	Script      string      `json:"script,omitempty"`
	Interpreter string      `json:"interpreter,omitempty"`
	Args        []ArgConfig `json:"args,omitempty"`

	// Schedule is a cron expression; empty means every minute.
	Schedule string `json:"schedule,omitempty"`
	Year     string `json:"year,omitempty"`

	Output []string `json:"output,omitempty"`
	Append bool     `json:"append,omitempty"`
	Email  []string `json:"email,omitempty"`

	OnlyOne bool   `json:"only_one,omitempty"`
	LockDir string `json:"lock_dir,omitempty"`
	// OverlapAfter overrides a lock older than this Go duration.
	OverlapAfter string `json:"overlap_after,omitempty"`

	Foreground bool `json:"foreground,omitempty"`
}

// ArgConfig is one flag; a nil Value means a bare flag.
type ArgConfig struct {
	Flag  string  `json:"flag"`
	Value *string `json:"value,omitempty"`
}

// ParseDuration reads a Go duration string. Empty yields def.
func ParseDuration(path, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: %s must be >= 0", ErrInvalid, path)
	}
	return d, nil
}

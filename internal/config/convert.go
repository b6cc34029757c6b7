package config

import (
	"os"
	"strings"
	"time"

	"cronrunner/internal/mail"
	"cronrunner/internal/storage"
	logx "cronrunner/pkg/logx"
)

const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultRetention    = 1000
)

// ApplyDefaults fills values that depend on the environment. It is the only
// place the OS temp dir is consulted.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Scheduler.TempDir) == "" {
		c.Scheduler.TempDir = os.TempDir()
	}
	if len(c.Scheduler.WorkSeconds) == 0 {
		c.Scheduler.WorkSeconds = []int{0}
	}
	if c.Scheduler.Retention <= 0 {
		c.Scheduler.Retention = DefaultRetention
	}
}

func (c LoggingConfig) Logx() logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File:    logx.FileConfig{Enabled: c.File.Enabled, Path: c.File.Path},
	}
}

func (c SchedulerConfig) Mail() mail.Config {
	if c.Email == nil {
		return mail.Config{}
	}
	e := c.Email
	return mail.Config{
		Host:              e.Host,
		Port:              e.Port,
		Username:          e.Username,
		Password:          e.Password,
		From:              e.From,
		Subject:           e.Subject,
		Body:              e.Body,
		IgnoreEmptyOutput: e.IgnoreEmptyOutput,
		RatePerMinute:     e.RatePerMinute,
	}
}

func (c SchedulerConfig) Poll() time.Duration {
	d, err := ParseDuration("scheduler.poll_interval", c.PollInterval, DefaultPollInterval)
	if err != nil || d == 0 {
		return DefaultPollInterval
	}
	return d
}

// Store converts the storage section. A missing section disables storage.
func (c *Config) Store() (storage.Config, error) {
	if c.Storage == nil {
		return storage.Config{}, nil
	}
	bt, err := ParseDuration("storage.busy_timeout", c.Storage.BusyTimeout, 0)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{Driver: c.Storage.Driver, Path: c.Storage.Path, BusyTimeout: bt}, nil
}

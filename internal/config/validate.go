package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cronrunner/internal/mail"
	"cronrunner/internal/schedule"
	"cronrunner/internal/storage"
)

// Validate checks the whole config and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	for _, s := range c.Scheduler.WorkSeconds {
		if s < 0 || s > 59 {
			add("scheduler.work_seconds: %d out of range 0..59", s)
		}
	}
	if _, err := ParseDuration("scheduler.poll_interval", c.Scheduler.PollInterval, 0); err != nil {
		errs = append(errs, err)
	}
	if err := c.Scheduler.Mail().Validate(); err != nil {
		add("scheduler.email: %v", err)
	}

	if c.Storage != nil {
		driver, err := storage.Driver(c.Storage.Driver)
		switch {
		case err != nil:
			add("storage.driver: %v", err)
		case driver != "" && strings.TrimSpace(c.Storage.Path) == "":
			add("storage.path is required for driver %q", driver)
		}
		if _, err := c.Store(); err != nil {
			errs = append(errs, err)
		}
	}

	m := schedule.Default()
	ids := map[string]int{}
	for i, j := range c.Jobs {
		path := fmt.Sprintf("jobs[%d]", i)
		if id := strings.TrimSpace(j.ID); id != "" {
			path = fmt.Sprintf("jobs[%d] (%s)", i, id)
			if prev, dup := ids[id]; dup {
				add("%s: id already used by jobs[%d]", path, prev)
			}
			ids[id] = i
		}

		hasCmd := strings.TrimSpace(j.Command) != ""
		hasScript := strings.TrimSpace(j.Script) != ""
		if hasCmd == hasScript {
			add("%s: exactly one of command and script is required", path)
		}
		if j.Interpreter != "" && !hasScript {
			add("%s: interpreter requires script", path)
		}
		for k, a := range j.Args {
			if strings.TrimSpace(a.Flag) == "" {
				add("%s.args[%d]: flag is required", path, k)
			}
		}
		if j.Schedule != "" {
			if err := m.Validate(j.Schedule); err != nil {
				add("%s.schedule: %v", path, err)
			}
		}
		if y := strings.TrimSpace(j.Year); y != "" {
			if n, err := strconv.Atoi(y); err != nil || n < 1 {
				add("%s.year: %q is not a year", path, j.Year)
			}
		}
		if len(j.Email) > 0 {
			if len(j.Output) == 0 {
				add("%s: email requires output", path)
			}
			if err := mail.ValidateRecipients(j.Email); err != nil {
				add("%s.email: %v", path, err)
			}
		}
		if j.OverlapAfter != "" && !j.OnlyOne {
			add("%s: overlap_after requires only_one", path)
		}
		if _, err := ParseDuration(path+".overlap_after", j.OverlapAfter, 0); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

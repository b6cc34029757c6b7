// Package mail delivers captured job output to email recipients.
//
// Output sink files are sent as attachments of a single multipart message.
package mail

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var ErrInvalidConfig = errors.New("invalid email config")

const (
	DefaultSubject = "Cronjob execution"
	DefaultBody    = "This is the output of the cronjob."
	DefaultFrom    = "cronjob@localhost"
	DefaultPort    = 25
)

// Config is the email block of the scheduler configuration.
//
// IgnoreEmptyOutput suppresses delivery when a job produced no output.
// RatePerMinute bounds outgoing messages for the whole mailer; 0 means unlimited.
type Config struct {
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

func (c Config) WithDefaults() Config {
	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if strings.TrimSpace(c.From) == "" {
		c.From = DefaultFrom
	}
	if strings.TrimSpace(c.Subject) == "" {
		c.Subject = DefaultSubject
	}
	if c.Body == "" {
		c.Body = DefaultBody
	}
	return c
}

// Validate checks field shapes. An empty Host is valid: the config may only
// carry IgnoreEmptyOutput for jobs that never email.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.RatePerMinute < 0 {
		return fmt.Errorf("%w: rate_per_minute must be >= 0", ErrInvalidConfig)
	}
	if from := strings.TrimSpace(c.From); from != "" {
		if _, err := mail.ParseAddress(from); err != nil {
			return fmt.Errorf("%w: from %q: %v", ErrInvalidConfig, from, err)
		}
	}
	if strings.ContainsAny(c.Subject, "\r\n") {
		return fmt.Errorf("%w: subject must be a single line", ErrInvalidConfig)
	}
	return nil
}

// ValidateRecipients parses every address.
func ValidateRecipients(to []string) error {
	for _, addr := range to {
		if _, err := mail.ParseAddress(addr); err != nil {
			return fmt.Errorf("%w: recipient %q: %v", ErrInvalidConfig, addr, err)
		}
	}
	return nil
}

package job

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks invalid configuration detected at setup time.
	ErrConfiguration = errors.New("configuration error")
	// ErrMissingResource marks a referenced script that does not exist.
	ErrMissingResource = errors.New("missing resource")
	ErrBeforeHook      = errors.New("before hook failed")
	ErrAfterHook       = errors.New("after hook failed")
)

// ExitError is returned when a foreground shell directive exits non-zero.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command exited with code %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + truncate(s, 200)
	}
	return msg
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n < 10 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	ErrInvalidExpression = errors.New("invalid schedule expression")
	ErrUnsupported       = errors.New("unsupported schedule expression")
)

// Matcher evaluates cron-style expressions against timestamps.
type Matcher interface {
	IsDue(expr string, t time.Time) (bool, error)
}

// CronMatcher is the default Matcher. Parsed expressions are cached since the
// same handful of expressions are evaluated on every tick.
type CronMatcher struct {
	parser cron.Parser

	mu    sync.Mutex
	cache map[string]cron.Schedule
}

var defaultMatcher = NewCronMatcher()

// Default returns the process-wide CronMatcher.
func Default() *CronMatcher { return defaultMatcher }

func NewCronMatcher() *CronMatcher {
	return &CronMatcher{
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		cache:  map[string]cron.Schedule{},
	}
}

// Validate parses expr without evaluating it.
func (m *CronMatcher) Validate(expr string) error {
	_, err := m.parse(expr)
	return err
}

// IsDue reports whether expr matches t.
//
// 5-field expressions and descriptors match the whole minute containing t;
// 6-field expressions match the exact second.
func (m *CronMatcher) IsDue(expr string, t time.Time) (bool, error) {
	sched, err := m.parse(expr)
	if err != nil {
		return false, err
	}
	precision := time.Minute
	if hasSeconds(expr) {
		precision = time.Second
	}
	base := t.Truncate(precision)
	// Next() is strictly "after", so step back just below the boundary.
	next := sched.Next(base.Add(-time.Nanosecond))
	return next.Equal(base), nil
}

func (m *CronMatcher) parse(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidExpression)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.cache[expr]; ok {
		return s, nil
	}
	s, err := m.parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidExpression, expr, err)
	}
	if _, ok := s.(cron.ConstantDelaySchedule); ok {
		return nil, fmt.Errorf("%w %q: interval descriptors have no due time", ErrUnsupported, expr)
	}
	m.cache[expr] = s
	return s, nil
}

func hasSeconds(expr string) bool {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "@") {
		return false
	}
	return len(strings.Fields(expr)) == 6
}

// Schedule is a cron expression plus an optional year filter.
type Schedule struct {
	Expr string
	Year string
}

// IsDue short-circuits on a year mismatch before consulting m.
func (s Schedule) IsDue(m Matcher, t time.Time) (bool, error) {
	if y := strings.TrimSpace(s.Year); y != "" && y != strconv.Itoa(t.Year()) {
		return false, nil
	}
	if m == nil {
		m = Default()
	}
	return m.IsDue(s.Expr, t)
}

func (s Schedule) String() string {
	if strings.TrimSpace(s.Year) == "" {
		return s.Expr
	}
	return s.Expr + " (" + s.Year + ")"
}

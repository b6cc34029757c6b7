package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestCronMatcherIsDue(t *testing.T) {
	t.Parallel()
	m := NewCronMatcher()
	at := time.Date(2026, time.March, 9, 14, 30, 27, 500, time.UTC) // Monday

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{name: "every minute", expr: "* * * * *", want: true},
		{name: "exact minute any second", expr: "30 14 * * *", want: true},
		{name: "other minute", expr: "31 14 * * *", want: false},
		{name: "weekday match", expr: "30 14 * * 1", want: true},
		{name: "weekday mismatch", expr: "30 14 * * 2", want: false},
		{name: "step", expr: "*/15 * * * *", want: true},
		{name: "seconds field match", expr: "27 30 14 * * *", want: true},
		{name: "seconds field mismatch", expr: "0 30 14 * * *", want: false},
		{name: "descriptor", expr: "@hourly", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.IsDue(tt.expr, at)
			if err != nil {
				t.Fatalf("IsDue(%q) error: %v", tt.expr, err)
			}
			if got != tt.want {
				t.Fatalf("IsDue(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestCronMatcherHourlyDescriptorOnTheHour(t *testing.T) {
	t.Parallel()
	m := NewCronMatcher()
	due, err := m.IsDue("@hourly", time.Date(2026, 1, 1, 8, 0, 45, 0, time.UTC))
	if err != nil {
		t.Fatalf("IsDue error: %v", err)
	}
	if !due {
		t.Fatal("expected @hourly to be due at minute 0")
	}
}

func TestCronMatcherRejects(t *testing.T) {
	t.Parallel()
	m := NewCronMatcher()
	if err := m.Validate("not a cron"); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("Validate(garbage) = %v, want ErrInvalidExpression", err)
	}
	if err := m.Validate("@every 5m"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Validate(@every) = %v, want ErrUnsupported", err)
	}
	if err := m.Validate("  "); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("Validate(empty) = %v, want ErrInvalidExpression", err)
	}
}

func TestScheduleYearFilter(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)

	due, err := Schedule{Expr: EveryMinute, Year: "2026"}.IsDue(nil, at)
	if err != nil || !due {
		t.Fatalf("matching year: due=%v err=%v", due, err)
	}

	// A mismatching year never reaches the matcher, so even garbage is not an error.
	due, err = Schedule{Expr: "garbage", Year: "2025"}.IsDue(nil, at)
	if err != nil || due {
		t.Fatalf("mismatching year: due=%v err=%v", due, err)
	}
}

func TestBuilders(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{name: "every 5", fn: func() (string, error) { return EveryNMinutes(5) }, want: "*/5 * * * *"},
		{name: "every 1", fn: func() (string, error) { return EveryNMinutes(1) }, want: EveryMinute},
		{name: "hourly", fn: func() (string, error) { return Hourly(15) }, want: "15 * * * *"},
		{name: "daily", fn: func() (string, error) { return Daily(3, 30) }, want: "30 3 * * *"},
		{name: "weekly", fn: func() (string, error) { return Weekly(time.Friday, 18, 0) }, want: "0 18 * * 5"},
		{name: "monthly", fn: func() (string, error) { return Monthly(1, 0, 5) }, want: "5 0 1 * *"},
		{name: "yearly", fn: func() (string, error) { return Yearly(time.December, 24, 20, 0) }, want: "0 20 24 12 *"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			if err := NewCronMatcher().Validate(got); err != nil {
				t.Fatalf("built expression %q does not parse: %v", got, err)
			}
		})
	}
}

func TestBuildersRejectOutOfRange(t *testing.T) {
	t.Parallel()
	if _, err := Daily(24, 0); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("Daily(24,0) = %v", err)
	}
	if _, err := Hourly(60); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("Hourly(60) = %v", err)
	}
	if _, err := Monthly(0, 1, 1); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("Monthly(0,...) = %v", err)
	}
	if _, err := EveryNMinutes(0); !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("EveryNMinutes(0) = %v", err)
	}
}

func TestOnPinsYear(t *testing.T) {
	t.Parallel()
	at := time.Date(2027, time.February, 3, 4, 5, 0, 0, time.UTC)
	s := On(at)
	if s.Expr != "5 4 3 2 *" || s.Year != "2027" {
		t.Fatalf("On() = %+v", s)
	}
	due, err := s.IsDue(nil, at.Add(10*time.Second))
	if err != nil || !due {
		t.Fatalf("due=%v err=%v", due, err)
	}
	due, _ = s.IsDue(nil, at.AddDate(1, 0, 0))
	if due {
		t.Fatal("expected next year's date to be filtered")
	}
}

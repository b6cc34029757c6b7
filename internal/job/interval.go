package job

import (
	"fmt"
	"strings"
	"time"

	"cronrunner/internal/schedule"
)

// At sets a raw cron expression. The expression is validated immediately.
func (j *Job) At(expr string) *Job {
	expr = strings.TrimSpace(expr)
	if v, ok := j.cfg.Matcher.(interface{ Validate(string) error }); ok {
		if err := v.Validate(expr); err != nil {
			j.fail(fmt.Errorf("%w: %v", ErrConfiguration, err))
			return j
		}
	}
	j.schedule = schedule.Schedule{Expr: expr, Year: j.schedule.Year}
	return j
}

// InYear restricts the job to a single calendar year.
func (j *Job) InYear(year int) *Job {
	if year < 1 {
		j.fail(fmt.Errorf("%w: year %d", ErrConfiguration, year))
		return j
	}
	j.schedule.Year = fmt.Sprintf("%d", year)
	return j
}

// On runs the job once, at the minute of t.
func (j *Job) On(t time.Time) *Job {
	s := schedule.On(t)
	j.At(s.Expr)
	j.schedule.Year = s.Year
	return j
}

func (j *Job) at(expr string, err error) *Job {
	if err != nil {
		j.fail(fmt.Errorf("%w: %v", ErrConfiguration, err))
		return j
	}
	return j.At(expr)
}

func (j *Job) EveryMinute() *Job { return j.At(schedule.EveryMinute) }

func (j *Job) EveryNMinutes(n int) *Job { return j.at(schedule.EveryNMinutes(n)) }

func (j *Job) Hourly(minute int) *Job { return j.at(schedule.Hourly(minute)) }

func (j *Job) Daily(hour, minute int) *Job { return j.at(schedule.Daily(hour, minute)) }

func (j *Job) Weekly(day time.Weekday, hour, minute int) *Job {
	return j.at(schedule.Weekly(day, hour, minute))
}

func (j *Job) Monthly(day, hour, minute int) *Job { return j.at(schedule.Monthly(day, hour, minute)) }

func (j *Job) Sunday(hour, minute int) *Job    { return j.Weekly(time.Sunday, hour, minute) }

func (j *Job) Monday(hour, minute int) *Job    { return j.Weekly(time.Monday, hour, minute) }

func (j *Job) Tuesday(hour, minute int) *Job   { return j.Weekly(time.Tuesday, hour, minute) }

func (j *Job) Wednesday(hour, minute int) *Job { return j.Weekly(time.Wednesday, hour, minute) }

func (j *Job) Thursday(hour, minute int) *Job  { return j.Weekly(time.Thursday, hour, minute) }

func (j *Job) Friday(hour, minute int) *Job    { return j.Weekly(time.Friday, hour, minute) }

func (j *Job) Saturday(hour, minute int) *Job  { return j.Weekly(time.Saturday, hour, minute) }

func (j *Job) yearly(m time.Month, day, hour, minute int) *Job {
	return j.at(schedule.Yearly(m, day, hour, minute))
}

func (j *Job) January(day, hour, minute int) *Job {
	return j.yearly(time.January, day, hour, minute)
}

func (j *Job) February(day, hour, minute int) *Job {
	return j.yearly(time.February, day, hour, minute)
}

func (j *Job) March(day, hour, minute int) *Job {
	return j.yearly(time.March, day, hour, minute)
}

func (j *Job) April(day, hour, minute int) *Job {
	return j.yearly(time.April, day, hour, minute)
}

func (j *Job) May(day, hour, minute int) *Job {
	return j.yearly(time.May, day, hour, minute)
}

func (j *Job) June(day, hour, minute int) *Job {
	return j.yearly(time.June, day, hour, minute)
}

func (j *Job) July(day, hour, minute int) *Job {
	return j.yearly(time.July, day, hour, minute)
}

func (j *Job) August(day, hour, minute int) *Job {
	return j.yearly(time.August, day, hour, minute)
}

func (j *Job) September(day, hour, minute int) *Job {
	return j.yearly(time.September, day, hour, minute)
}

func (j *Job) October(day, hour, minute int) *Job {
	return j.yearly(time.October, day, hour, minute)
}

func (j *Job) November(day, hour, minute int) *Job {
	return j.yearly(time.November, day, hour, minute)
}

func (j *Job) December(day, hour, minute int) *Job {
	return j.yearly(time.December, day, hour, minute)
}

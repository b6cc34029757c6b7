package schedule

import (
	"fmt"
	"strconv"
	"time"
)

// EveryMinute is the default schedule of a new job.
const EveryMinute = "* * * * *"

func EveryNMinutes(n int) (string, error) {
	if n < 1 || n > 59 {
		return "", fmt.Errorf("%w: minute step %d out of range 1-59", ErrInvalidExpression, n)
	}
	if n == 1 {
		return EveryMinute, nil
	}
	return "*/" + strconv.Itoa(n) + " * * * *", nil
}

func Hourly(minute int) (string, error) {
	if err := checkMinute(minute); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d * * * *", minute), nil
}

func Daily(hour, minute int) (string, error) {
	if err := checkClock(hour, minute); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

func Weekly(day time.Weekday, hour, minute int) (string, error) {
	if day < time.Sunday || day > time.Saturday {
		return "", fmt.Errorf("%w: weekday %d out of range", ErrInvalidExpression, day)
	}
	if err := checkClock(hour, minute); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * %d", minute, hour, int(day)), nil
}

func Monthly(day, hour, minute int) (string, error) {
	if err := checkDay(day); err != nil {
		return "", err
	}
	if err := checkClock(hour, minute); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d %d * *", minute, hour, day), nil
}

// Yearly runs once a year on month/day at hour:minute.
func Yearly(month time.Month, day, hour, minute int) (string, error) {
	if month < time.January || month > time.December {
		return "", fmt.Errorf("%w: month %d out of range", ErrInvalidExpression, month)
	}
	if err := checkDay(day); err != nil {
		return "", err
	}
	if err := checkClock(hour, minute); err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d %d %d *", minute, hour, day, int(month)), nil
}

// On pins a single calendar minute. The returned Schedule carries the year
// filter, which a plain cron expression cannot express.
func On(t time.Time) Schedule {
	return Schedule{
		Expr: fmt.Sprintf("%d %d %d %d *", t.Minute(), t.Hour(), t.Day(), int(t.Month())),
		Year: strconv.Itoa(t.Year()),
	}
}

func checkClock(hour, minute int) error {
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidExpression, hour)
	}
	return checkMinute(minute)
}

func checkMinute(minute int) error {
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute %d out of range 0-59", ErrInvalidExpression, minute)
	}
	return nil
}

func checkDay(day int) error {
	if day < 1 || day > 31 {
		return fmt.Errorf("%w: day %d out of range 1-31", ErrInvalidExpression, day)
	}
	return nil
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"cronrunner/internal/job"
	logx "cronrunner/pkg/logx"
)

// Work blocks, calling Run exactly once for every wall-clock second whose
// second-of-minute is in seconds (default: second 0). It returns nil when ctx
// is cancelled; it has no other exit.
func (s *Scheduler) Work(ctx context.Context, seconds []int) error {
	want, err := secondSet(seconds)
	if err != nil {
		return err
	}
	s.log.Info("work loop started", logx.Any("seconds", seconds), logx.Duration("poll", s.poll))

	t := time.NewTicker(s.poll)
	defer t.Stop()

	var last time.Time
	for {
		now := s.clock.Now()
		sec := now.Truncate(time.Second)
		if want[now.Second()] && !sec.Equal(last) {
			last = sec
			s.Run(ctx, sec)
		}
		select {
		case <-ctx.Done():
			s.log.Info("work loop stopped")
			return nil
		case <-t.C:
		}
	}
}

func secondSet(seconds []int) ([60]bool, error) {
	var want [60]bool
	if len(seconds) == 0 {
		seconds = []int{0}
	}
	for _, sec := range seconds {
		if sec < 0 || sec > 59 {
			return want, fmt.Errorf("%w: second %d out of range 0..59", job.ErrConfiguration, sec)
		}
		want[sec] = true
	}
	return want, nil
}

package scheduler

import (
	"context"
	"fmt"
	"time"

	"cronrunner/internal/eventbus"
	"cronrunner/internal/job"
	"cronrunner/internal/storage"
	logx "cronrunner/pkg/logx"
)

// Run is one tick: every due job is run once, in Prioritize order. It
// returns the jobs that executed during this tick.
//
// Jobs carrying a configuration error are recorded as failed on every tick.
// Skipped jobs (closed truth gate, held lock) appear in neither list.
func (s *Scheduler) Run(ctx context.Context, ref time.Time) []*job.Job {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	tick := eventbus.TickEvent{Ref: ref}
	var ran []*job.Job
	for _, j := range s.Prioritize() {
		if err := j.Err(); err != nil {
			s.recordFailure(ctx, j, err, j.Compile())
			tick.Failed++
			continue
		}
		if !j.IsDue(ref) {
			continue
		}
		tick.Due++

		d := j.Compile()
		executed, err := runIsolated(ctx, j, ref)
		if err != nil {
			s.recordFailure(ctx, j, err, d)
			tick.Failed++
			continue
		}
		if !executed {
			continue
		}
		s.recordSuccess(ctx, j, d)
		ran = append(ran, j)
		tick.Executed++
	}

	s.log.Debug("tick done",
		logx.Time("ref", ref),
		logx.Int("due", tick.Due),
		logx.Int("executed", tick.Executed),
		logx.Int("failed", tick.Failed),
	)
	s.publish(eventbus.TypeSchedulerTick, tick)
	return ran
}

// runIsolated turns a panic escaping a job (after hooks are not guarded by
// the job itself) into an error.
func runIsolated(ctx context.Context, j *job.Job, ref time.Time) (executed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			executed, err = true, fmt.Errorf("panic: %v", r)
		}
	}()
	return j.Run(ctx, ref)
}

func (s *Scheduler) recordSuccess(ctx context.Context, j *job.Job, d job.Directive) {
	line := fmt.Sprintf("[%s] Executing %s", s.clock.Now().Format(time.RFC3339), d.String())

	s.mu.Lock()
	s.executed = keepLast(append(s.executed, j), s.retain)
	s.verbose = keepLast(append(s.verbose, line), s.retain)
	s.mu.Unlock()

	s.log.Info("job executed",
		logx.String("job_id", j.ID()),
		logx.Bool("background", d.Background),
		logx.Int("exit_code", j.ExitCode()),
	)
	s.record(ctx, j, d, storage.StatusExecuted, nil)
	s.publish(eventbus.TypeJobExecuted, jobEvent(j, d, nil))
}

func (s *Scheduler) recordFailure(ctx context.Context, j *job.Job, err error, d job.Directive) {
	line := fmt.Sprintf("[%s] %s: %s", s.clock.Now().Format(time.RFC3339), err.Error(), d.String())

	s.mu.Lock()
	s.failed = keepLast(append(s.failed, job.NewFailed(j, err)), s.retain)
	s.verbose = keepLast(append(s.verbose, line), s.retain)
	s.mu.Unlock()

	s.log.Warn("job failed", logx.String("job_id", j.ID()), logx.Err(err))
	s.record(ctx, j, d, storage.StatusFailed, err)
	s.publish(eventbus.TypeJobFailed, jobEvent(j, d, err))
}

func (s *Scheduler) record(ctx context.Context, j *job.Job, d job.Directive, status string, err error) {
	if s.rec == nil {
		return
	}
	r := storage.RunRecord{
		At:         j.StartedAt(),
		JobID:      j.ID(),
		Command:    d.String(),
		Status:     status,
		ExitCode:   j.ExitCode(),
		Background: d.Background,
		TookMS:     took(j).Milliseconds(),
	}
	if r.At.IsZero() {
		r.At = s.clock.Now()
	}
	if err != nil {
		r.Error = err.Error()
	}
	if werr := s.rec.AppendRun(ctx, r); werr != nil {
		s.log.Warn("run record failed", logx.String("job_id", j.ID()), logx.Err(werr))
	}
}

func (s *Scheduler) publish(typ string, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: s.clock.Now(), Data: data})
}

func jobEvent(j *job.Job, d job.Directive, err error) eventbus.JobEvent {
	e := eventbus.JobEvent{
		JobID:      j.ID(),
		Command:    d.String(),
		Background: d.Background,
		ExitCode:   j.ExitCode(),
		Took:       took(j),
	}
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

// took is zero unless the job has a complete run on record.
func took(j *job.Job) time.Duration {
	start, end := j.StartedAt(), j.FinishedAt()
	if start.IsZero() || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}

// keepLast trims list to its newest n entries; n <= 0 keeps everything.
func keepLast[T any](list []T, n int) []T {
	if n <= 0 || len(list) <= n {
		return list
	}
	return append(list[:0:0], list[len(list)-n:]...)
}

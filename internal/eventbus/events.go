package eventbus

import "time"

const (
	TypeJobExecuted   = "job.executed"
	TypeJobFailed     = "job.failed"
	TypeSchedulerTick = "scheduler.tick"
)

// JobEvent is the Data of job.executed and job.failed events.
type JobEvent struct {
	JobID      string
	Command    string
	Background bool
	ExitCode   int
	Took       time.Duration
	Err        string
}

// TickEvent is the Data of scheduler.tick events.
type TickEvent struct {
	Ref      time.Time
	Due      int
	Executed int
	Failed   int
}

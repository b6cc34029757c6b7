package job

import "time"

// Snapshot is a point-in-time copy of a job's identity and last run.
type Snapshot struct {
	ID          string
	Command     string
	Schedule    string
	Background  bool
	ScheduledAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	Output      string
	ExitCode    int
}

func (j *Job) Snapshot() Snapshot {
	return Snapshot{
		ID:          j.id,
		Command:     j.Compile().String(),
		Schedule:    j.schedule.String(),
		Background:  j.CanRunInBackground(),
		ScheduledAt: j.scheduledAt,
		StartedAt:   j.startedAt,
		FinishedAt:  j.finishedAt,
		Output:      j.output,
		ExitCode:    j.exitCode,
	}
}

// Failed pairs a job with the error of one of its runs. It is never
// modified after creation.
type Failed struct {
	job      *Job
	snapshot Snapshot
	err      error
}

func NewFailed(j *Job, err error) Failed {
	return Failed{job: j, snapshot: j.Snapshot(), err: err}
}

// Job returns the live job, which may have run again since.
func (f Failed) Job() *Job { return f.job }

// Snapshot is the job as it was when the error happened.
func (f Failed) Snapshot() Snapshot { return f.snapshot }

func (f Failed) Err() error { return f.err }

func (f Failed) Error() string {
	if f.err == nil {
		return ""
	}
	return f.err.Error()
}

package scheduler

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kballard/go-shellquote"

	"cronrunner/internal/job"
	"cronrunner/internal/process"
	logx "cronrunner/pkg/logx"
)

// Raw queues a shell command.
func (s *Scheduler) Raw(command string, args job.Args, id string) *job.Job {
	return s.Queue(job.New(job.Shell(command), args, id))
}

// Call queues an in-process function.
func (s *Scheduler) Call(fn job.Func, args job.Args, id string) *job.Job {
	return s.Queue(job.New(job.Invocable(fn), args, id))
}

// Script queues `interpreter path`. The interpreter defaults to /bin/sh and
// is used verbatim, so it may carry its own flags.
//
// A missing script is recorded as failed right away and not queued; the
// returned job is still usable for inspection.
func (s *Scheduler) Script(path, interpreter string, args job.Args, id string) (*job.Job, error) {
	j, err := s.ScriptJob(path, interpreter, args, id)
	if err != nil {
		return j, err
	}
	return s.Queue(j), nil
}

// ScriptJob is Script without the queueing: the job comes back configured,
// ready for further setup and a later Queue or ReplaceJobs.
func (s *Scheduler) ScriptJob(path, interpreter string, args job.Args, id string) (*job.Job, error) {
	interpreter = strings.TrimSpace(interpreter)
	if interpreter == "" {
		interpreter = process.DefaultShell
	}
	j := job.New(job.Shell(interpreter+" "+shellquote.Join(path)), args, id).Configure(s.JobConfig())

	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		err := fmt.Errorf("%w: script %s", job.ErrMissingResource, path)
		s.log.Warn("script not found", logx.String("path", path), logx.String("job_id", j.ID()))
		s.recordFailure(context.Background(), j, err, j.Compile())
		return j, err
	}
	return j, nil
}

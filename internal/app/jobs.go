package app

import (
	"strconv"
	"strings"

	"cronrunner/internal/config"
	"cronrunner/internal/job"
	logx "cronrunner/pkg/logx"
)

// registerJobs builds every configured job and installs them as the queue
// in one swap, so a concurrent tick never sees a partial set. A job with a
// configuration error is still queued so each tick records it as failed.
func (a *App) registerJobs(jobs []config.JobConfig) int {
	built := make([]*job.Job, 0, len(jobs))
	for _, jc := range jobs {
		j, err := a.buildJob(jc)
		if err != nil {
			a.log.Error("job not registered", logx.String("script", jc.Script), logx.Err(err))
			continue
		}
		if err := j.Err(); err != nil {
			a.log.Error("job misconfigured", logx.String("job_id", j.ID()), logx.Err(err))
		}
		built = append(built, j)
	}
	a.sched.ReplaceJobs(built)
	a.log.Info("jobs registered", logx.Int("count", len(built)), logx.Int("configured", len(jobs)))
	return len(built)
}

func (a *App) buildJob(jc config.JobConfig) (*job.Job, error) {
	var args job.Args
	for _, ac := range jc.Args {
		if ac.Value == nil {
			args.Put(job.Flag(ac.Flag))
		} else {
			args.Put(job.Value(ac.Flag, *ac.Value))
		}
	}

	var j *job.Job
	if strings.TrimSpace(jc.Script) != "" {
		var err error
		if j, err = a.sched.ScriptJob(jc.Script, jc.Interpreter, args, jc.ID); err != nil {
			return nil, err
		}
	} else {
		j = job.New(job.Shell(jc.Command), args, jc.ID).Configure(a.sched.JobConfig())
	}

	if jc.Schedule != "" {
		j.At(jc.Schedule)
	}
	if y := strings.TrimSpace(jc.Year); y != "" {
		year, _ := strconv.Atoi(y)
		j.InYear(year)
	}
	if jc.Foreground {
		j.InForeground()
	}
	if len(jc.Output) > 0 {
		j.Output(jc.Output, jc.Append)
	}
	if len(jc.Email) > 0 {
		j.Email(jc.Email...)
	}
	if jc.OnlyOne {
		var pred job.OverlapFunc
		if d, _ := config.ParseDuration("overlap_after", jc.OverlapAfter, 0); d > 0 {
			pred = job.OverlapOlderThan(d, nil)
		}
		j.OnlyOne(jc.LockDir, pred)
	}
	return j, nil
}

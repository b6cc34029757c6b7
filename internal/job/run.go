package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	logx "cronrunner/pkg/logx"
)

// Run executes the job once for reference time ref.
//
// It returns false without side effects when the truth gate is closed or a
// previous run still holds the lock. Otherwise it returns true, together with
// any error from the before hook, the body or the after hook. finishedAt is
// set on every path once the body has been dispatched.
func (j *Job) Run(ctx context.Context, ref time.Time) (bool, error) {
	if !j.truth {
		j.log.Debug("job skipped", logx.String("reason", "truth test"))
		return false, nil
	}
	if j.IsOverlapping() {
		j.log.Debug("job skipped", logx.String("reason", "overlapping"), logx.String("lock", j.lockPath))
		return false, nil
	}

	j.scheduledAt = ref
	d := j.Compile()

	if err := j.CreateLock(""); err != nil {
		return true, err
	}

	if j.before != nil {
		if err := j.callBefore(ctx); err != nil {
			j.releaseLock()
			return true, fmt.Errorf("%w: %w", ErrBeforeHook, err)
		}
	}

	j.startedAt = j.now()
	j.output = ""
	j.exitCode = 0
	err := j.dispatch(ctx, d)
	j.finishedAt = j.now()
	if err != nil {
		return true, err
	}

	j.log.Debug("job finished",
		logx.Int("exit_code", j.exitCode),
		logx.Bool("background", d.Background),
		logx.Duration("took", j.finishedAt.Sub(j.startedAt)),
	)
	return true, j.finalise(ctx)
}

func (j *Job) dispatch(ctx context.Context, d Directive) error {
	if d.Kind == KindFunc {
		return j.invoke(ctx, d.Func)
	}

	res, err := j.cfg.Spawner.Spawn(ctx, d.Text)
	if err != nil {
		// The directive never ran, so its own cleanup step never ran either.
		j.releaseLock()
		return err
	}
	if d.Background {
		return nil
	}

	j.output = res.Output
	j.exitCode = res.ExitCode
	var sinkErr error
	if len(j.outputs) > 0 {
		sinkErr = j.writeSinks(j.output)
	}
	j.releaseLock()
	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode, Stderr: res.Stderr}
	}
	return sinkErr
}

// invoke calls a Func with an explicit writer; whatever it writes plus its
// return value becomes the captured output.
func (j *Job) invoke(ctx context.Context, fn Func) error {
	defer j.releaseLock()

	var buf bytes.Buffer
	ret, err := callFunc(ctx, fn, &buf, j.args)
	if err != nil {
		return err
	}

	j.output = buf.String() + ret
	if len(j.outputs) > 0 {
		return j.writeSinks(j.output)
	}
	return nil
}

func callFunc(ctx context.Context, fn Func, buf *bytes.Buffer, args Args) (ret string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, buf, args)
}

func (j *Job) callBefore(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return j.before(ctx)
}

func (j *Job) releaseLock() {
	if err := j.RemoveLock(); err != nil {
		j.log.Warn("lock cleanup failed", logx.Err(err))
	}
}

// finalise emails the output files and runs the after hook. Email delivery
// failures are logged and do not fail the job; after hook errors propagate.
func (j *Job) finalise(ctx context.Context) error {
	j.emailOutput(ctx)

	if j.after == nil {
		return nil
	}
	if err := j.after(ctx, j.output, j.exitCode); err != nil {
		return fmt.Errorf("%w: %w", ErrAfterHook, err)
	}
	return nil
}

func (j *Job) emailOutput(ctx context.Context) bool {
	if len(j.emailTo) == 0 || len(j.outputs) == 0 {
		return false
	}
	if j.cfg.Email.IgnoreEmptyOutput && j.output == "" {
		j.log.Debug("email skipped", logx.String("reason", "empty output"))
		return false
	}
	if err := j.cfg.Mailer.Send(ctx, j.outputs, j.emailTo, j.cfg.Email); err != nil {
		j.log.Error("email failed", logx.Strings("to", j.emailTo), logx.Err(err))
		return false
	}
	return true
}

// IsExitError reports whether err came from a non-zero foreground exit.
func IsExitError(err error) (*ExitError, bool) {
	var e *ExitError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

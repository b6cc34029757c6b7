package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cronrunner/internal/mail"
	"cronrunner/internal/process"
	"cronrunner/internal/schedule"
	logx "cronrunner/pkg/logx"
)

// idSpace namespaces derived job ids so they never collide with other SHA1 UUIDs.
var idSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("cronrunner:job"))

// Spawner executes directive text.
type Spawner interface {
	Spawn(ctx context.Context, text string) (process.Result, error)
}

// Mailer delivers output files to recipients.
type Mailer interface {
	Send(ctx context.Context, files, to []string, cfg mail.Config) error
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Config is propagated from the Scheduler to every queued job.
type Config struct {
	Email   mail.Config
	TempDir string

	Spawner Spawner
	Mailer  Mailer
	Matcher schedule.Matcher
	Clock   Clock
	Log     logx.Logger
}

type (
	// OverlapFunc receives the lock file's modification time; returning true
	// overrides the lock and runs anyway.
	OverlapFunc func(lockedAt time.Time) bool
	BeforeFunc  func(ctx context.Context) error
	AfterFunc   func(ctx context.Context, output string, exitCode int) error
)

// Job aggregates configuration, compiled state and run timestamps.
type Job struct {
	id      string
	command Command
	args    Args

	schedule schedule.Schedule

	// foreground is sticky: email and after hooks force it on.
	foreground bool

	lockPath string
	overlap  OverlapFunc

	outputs      []string
	outputAppend bool

	emailTo []string

	before BeforeFunc
	after  AfterFunc

	truth bool

	createdAt   time.Time
	scheduledAt time.Time
	startedAt   time.Time
	finishedAt  time.Time

	output   string
	exitCode int

	// err holds the first configuration error; a job carrying one never runs.
	err error

	cfg Config
	log logx.Logger
}

// New creates a job. An empty id is derived from the command so identical
// commands share an id, and with it a lock file.
func New(cmd Command, args Args, id string) *Job {
	var cmdErr error
	if cmd.kind == KindShell {
		cmd.text, cmdErr = normalizeShell(cmd.text)
	}
	j := &Job{
		id:       strings.TrimSpace(id),
		command:  cmd,
		args:     args,
		schedule: schedule.Schedule{Expr: schedule.EveryMinute},
		truth:    true,
	}
	if j.id == "" {
		j.id = deriveID(cmd)
	}
	j.Configure(Config{})
	j.createdAt = j.now()

	if cmdErr != nil {
		j.fail(cmdErr)
	}
	if cmd.kind == KindFunc && cmd.fn == nil {
		j.fail(fmt.Errorf("%w: nil func", ErrConfiguration))
	}
	return j
}

func deriveID(cmd Command) string {
	content := cmd.text
	if cmd.kind == KindFunc {
		content = "func:" + funcName(cmd.fn)
	}
	return uuid.NewSHA1(idSpace, []byte(content)).String()
}

// Configure installs scheduler-wide settings and collaborators. Missing
// collaborators fall back to defaults.
func (j *Job) Configure(cfg Config) *Job {
	if cfg.Spawner == nil {
		cfg.Spawner = process.NewShell("", cfg.Log)
	}
	if cfg.Mailer == nil {
		cfg.Mailer = mail.Discard{}
	}
	if cfg.Matcher == nil {
		cfg.Matcher = schedule.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = ClockFunc(time.Now)
	}
	if cfg.Log.IsZero() {
		cfg.Log = logx.Nop()
	}
	j.cfg = cfg
	j.log = cfg.Log.With(logx.String("comp", "job"), logx.String("job_id", j.id))
	return j
}

func (j *Job) fail(err error) {
	if j.err == nil {
		j.err = err
	}
}

func (j *Job) now() time.Time { return j.cfg.Clock.Now() }

func (j *Job) ID() string                  { return j.id }
func (j *Job) Command() Command            { return j.command }
func (j *Job) Args() Args                  { return j.args }
func (j *Job) Schedule() schedule.Schedule { return j.schedule }
func (j *Job) LockPath() string            { return j.lockPath }
func (j *Job) Outputs() []string           { return append([]string(nil), j.outputs...) }
func (j *Job) EmailRecipients() []string   { return append([]string(nil), j.emailTo...) }
func (j *Job) EmailConfig() mail.Config    { return j.cfg.Email }

// Err returns the first configuration error recorded on the job.
func (j *Job) Err() error { return j.err }

func (j *Job) CreatedAt() time.Time   { return j.createdAt }
func (j *Job) ScheduledAt() time.Time { return j.scheduledAt }
func (j *Job) StartedAt() time.Time   { return j.startedAt }
func (j *Job) FinishedAt() time.Time  { return j.finishedAt }

// LastOutput is the output captured by the last foreground run.
func (j *Job) LastOutput() string { return j.output }
func (j *Job) ExitCode() int      { return j.exitCode }

// IsDue reports whether the job's schedule matches t.
func (j *Job) IsDue(t time.Time) bool {
	due, err := j.schedule.IsDue(j.cfg.Matcher, t)
	if err != nil {
		j.log.Warn("due check failed", logx.String("expr", j.schedule.Expr), logx.Err(err))
		return false
	}
	return due
}

// CanRunInBackground is false for Funcs and for jobs forced to the foreground.
func (j *Job) CanRunInBackground() bool {
	return j.command.kind == KindShell && !j.foreground
}

// ---- configuration ----

// InForeground forces blocking execution.
func (j *Job) InForeground() *Job {
	j.foreground = true
	return j
}

// When evaluates fn once, now. Its result is kept as a gate for every run;
// fn is not consulted again at run time.
func (j *Job) When(fn func() bool) *Job {
	if fn != nil {
		j.truth = fn()
	}
	return j
}

func (j *Job) Before(fn BeforeFunc) *Job {
	j.before = fn
	return j
}

// Then registers an after hook and forces foreground execution so the hook
// sees the real output and exit code.
func (j *Job) Then(fn AfterFunc) *Job {
	j.after = fn
	j.foreground = true
	return j
}

// ThenInBackground registers an after hook without forcing the foreground.
// For a detached job the hook runs right after dispatch with empty output.
func (j *Job) ThenInBackground(fn AfterFunc) *Job {
	j.after = fn
	return j
}

// Output tees captured output into every path. With appendMode false each
// run truncates the files first.
func (j *Job) Output(paths []string, appendMode bool) *Job {
	clean := make([]string, 0, len(paths))
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		j.fail(fmt.Errorf("%w: output requires at least one path", ErrConfiguration))
		return j
	}
	j.outputs = clean
	j.outputAppend = appendMode
	return j
}

// Email sends the output files to recipients after each successful run.
// Output must also be configured; email forces foreground execution.
func (j *Job) Email(recipients ...string) *Job {
	if err := mail.ValidateRecipients(recipients); err != nil {
		j.fail(fmt.Errorf("%w: %v", ErrConfiguration, err))
		return j
	}
	j.emailTo = append(j.emailTo, recipients...)
	j.foreground = true
	return j
}

// writeSinks writes the captured output of a foreground run to every output
// path.
func (j *Job) writeSinks(output string) error {
	flags := osCreateTrunc
	if j.outputAppend {
		flags = osCreateAppend
	}
	for _, path := range j.outputs {
		if err := writeFile(path, flags, output); err != nil {
			return fmt.Errorf("write output %s: %w", path, err)
		}
	}
	return nil
}

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cronrunner/internal/eventbus"
	"cronrunner/internal/job"
	"cronrunner/internal/mail"
	"cronrunner/internal/process"
	"cronrunner/internal/schedule"
	"cronrunner/internal/storage"
	logx "cronrunner/pkg/logx"
)

const DefaultPollInterval = 200 * time.Millisecond

// Config is propagated to every queued job.
type Config struct {
	Email   mail.Config
	TempDir string
	Shell   string
}

// Recorder persists run outcomes. storage.Store satisfies it.
type Recorder interface {
	AppendRun(ctx context.Context, r storage.RunRecord) error
}

type Option func(*Scheduler)

func WithLogger(l logx.Logger) Option { return func(s *Scheduler) { s.log = l } }

func WithClock(c job.Clock) Option { return func(s *Scheduler) { s.clock = c } }

func WithSpawner(sp job.Spawner) Option { return func(s *Scheduler) { s.spawner = sp } }

func WithMailer(m job.Mailer) Option { return func(s *Scheduler) { s.mailer = m } }

func WithMatcher(m schedule.Matcher) Option { return func(s *Scheduler) { s.matcher = m } }

func WithBus(b eventbus.Bus) Option { return func(s *Scheduler) { s.bus = b } }

func WithRecorder(r Recorder) Option { return func(s *Scheduler) { s.rec = r } }

// WithPollInterval sets how often Work samples the clock.
func WithPollInterval(d time.Duration) Option { return func(s *Scheduler) { s.poll = d } }

// WithRetention caps the executed, failed and verbose lists at their newest
// n entries, for long-running Work loops that never call ResetRun.
func WithRetention(n int) Option { return func(s *Scheduler) { s.retain = n } }

type Scheduler struct {
	cfg Config
	log logx.Logger

	clock   job.Clock
	spawner job.Spawner
	mailer  job.Mailer
	matcher schedule.Matcher
	bus     eventbus.Bus
	rec     Recorder
	poll    time.Duration
	retain  int

	// mu guards the lists below; runMu serializes ticks.
	mu       sync.Mutex
	jobs     []*job.Job
	executed []*job.Job
	failed   []job.Failed
	verbose  []string

	runMu sync.Mutex
}

// New validates cfg and builds a Scheduler. A malformed email config is a
// configuration error.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.Email.Validate(); err != nil {
		return nil, fmt.Errorf("%w: email: %v", job.ErrConfiguration, err)
	}
	cfg.Email = cfg.Email.WithDefaults()

	s := &Scheduler{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.log.IsZero() {
		s.log = logx.Nop()
	}
	s.log = s.log.With(logx.String("comp", "scheduler"))
	if s.clock == nil {
		s.clock = job.ClockFunc(time.Now)
	}
	if s.spawner == nil {
		s.spawner = process.NewShell(cfg.Shell, s.log)
	}
	if s.mailer == nil {
		if cfg.Email.Host != "" {
			s.mailer = mail.NewSMTP(cfg.Email, s.log)
		} else {
			s.mailer = mail.Discard{}
		}
	}
	if s.matcher == nil {
		s.matcher = schedule.Default()
	}
	if s.poll <= 0 {
		s.poll = DefaultPollInterval
	}
	return s, nil
}

// JobConfig is what Queue installs on every job.
func (s *Scheduler) JobConfig() job.Config {
	return job.Config{
		Email:   s.cfg.Email,
		TempDir: s.cfg.TempDir,
		Spawner: s.spawner,
		Mailer:  s.mailer,
		Matcher: s.matcher,
		Clock:   s.clock,
		Log:     s.log,
	}
}

// Queue configures j with the scheduler settings and appends it.
func (s *Scheduler) Queue(j *job.Job) *job.Job {
	j.Configure(s.JobConfig())
	s.mu.Lock()
	s.jobs = append(s.jobs, j)
	s.mu.Unlock()
	return j
}

// ClearJobs empties the queue. Run results are kept.
func (s *Scheduler) ClearJobs() { s.ReplaceJobs(nil) }

// ReplaceJobs configures jobs and swaps them in as the whole queue. The swap
// waits for a running tick, so a tick sees either the old queue or the new
// one. Jobs must be fully built before the call; they are not copied.
func (s *Scheduler) ReplaceJobs(jobs []*job.Job) {
	cfg := s.JobConfig()
	for _, j := range jobs {
		j.Configure(cfg)
	}
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.mu.Lock()
	s.jobs = append([]*job.Job(nil), jobs...)
	s.mu.Unlock()
}

func (s *Scheduler) QueuedJobs() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*job.Job(nil), s.jobs...)
}

func (s *Scheduler) ExecutedJobs() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*job.Job(nil), s.executed...)
}

func (s *Scheduler) FailedJobs() []job.Failed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]job.Failed(nil), s.failed...)
}

// ResetRun clears executed jobs, failed jobs and the verbose log. The queue
// is left untouched.
func (s *Scheduler) ResetRun() {
	s.mu.Lock()
	s.executed = nil
	s.failed = nil
	s.verbose = nil
	s.mu.Unlock()
}

// Prioritize returns the queue with background-eligible jobs first. Relative
// order inside each group is preserved.
func (s *Scheduler) Prioritize() []*job.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*job.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if j.CanRunInBackground() {
			out = append(out, j)
		}
	}
	for _, j := range s.jobs {
		if !j.CanRunInBackground() {
			out = append(out, j)
		}
	}
	return out
}

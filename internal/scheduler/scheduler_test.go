package scheduler

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"cronrunner/internal/eventbus"
	"cronrunner/internal/job"
	"cronrunner/internal/mail"
	"cronrunner/internal/process"
	"cronrunner/internal/storage"
)

type fakeSpawner struct {
	mu    sync.Mutex
	texts []string
	res   process.Result
}

func (f *fakeSpawner) Spawn(ctx context.Context, text string) (process.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.res, nil
}

type memRecorder struct {
	mu   sync.Mutex
	runs []storage.RunRecord
}

func (r *memRecorder) AppendRun(ctx context.Context, rec storage.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, rec)
	return nil
}

var tick = time.Date(2026, time.March, 2, 10, 15, 0, 0, time.UTC)

func newTestScheduler(t *testing.T, opts ...Option) (*Scheduler, *fakeSpawner) {
	t.Helper()
	sp := &fakeSpawner{}
	base := []Option{
		WithSpawner(sp),
		WithClock(job.ClockFunc(func() time.Time { return tick })),
	}
	s, err := New(Config{TempDir: t.TempDir()}, append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, sp
}

func noop(context.Context, io.Writer, job.Args) (string, error) { return "", nil }

func TestNewRejectsBadEmailConfig(t *testing.T) {
	t.Parallel()
	_, err := New(Config{Email: mail.Config{Port: 70000}})
	if !errors.Is(err, job.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestRunExecutesDueJobOnce(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	calls := 0
	s.Call(func(context.Context, io.Writer, job.Args) (string, error) {
		calls++
		return "", nil
	}, job.Args{}, "counter")

	ran := s.Run(context.Background(), tick)
	if len(ran) != 1 || calls != 1 {
		t.Fatalf("ran %d jobs, body called %d times", len(ran), calls)
	}
	if got := s.ExecutedJobs(); len(got) != 1 || got[0].ID() != "counter" {
		t.Fatalf("executed = %v", got)
	}
	if got := s.VerboseLog(); len(got) != 1 || !strings.HasSuffix(got[0], "Executing Closure") {
		t.Fatalf("verbose = %q", got)
	}
}

func TestRunSkipsJobsNotDue(t *testing.T) {
	t.Parallel()
	s, sp := newTestScheduler(t)
	s.Raw("ls", job.Args{}, "").Daily(3, 0)

	if ran := s.Run(context.Background(), tick); len(ran) != 0 {
		t.Fatalf("ran %d jobs", len(ran))
	}
	if len(sp.texts) != 0 || len(s.VerboseLog()) != 0 {
		t.Fatal("not-due job left traces")
	}
}

func TestBackgroundJobsRunFirst(t *testing.T) {
	t.Parallel()
	s, sp := newTestScheduler(t)
	f := s.Raw("foreground-cmd", job.Args{}, "f").InForeground()
	g := s.Raw("background-cmd", job.Args{}, "g")

	ran := s.Run(context.Background(), tick)
	if len(ran) != 2 || ran[0] != g || ran[1] != f {
		t.Fatalf("run order = %v", ran)
	}
	log := s.VerboseLog()
	if len(log) != 2 || !strings.Contains(log[0], "background-cmd") || !strings.Contains(log[1], "foreground-cmd") {
		t.Fatalf("verbose = %q", log)
	}
	if !strings.HasSuffix(sp.texts[0], "&") {
		t.Fatalf("background job spawned as %q", sp.texts[0])
	}
}

func TestPrioritizeIsStablePartition(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	f1 := s.Call(noop, job.Args{}, "f1")
	b1 := s.Raw("a", job.Args{}, "b1")
	f2 := s.Raw("b", job.Args{}, "f2").InForeground()
	b2 := s.Raw("c", job.Args{}, "b2")
	f3 := s.Raw("d", job.Args{}, "f3").Email("ops@example.com")
	b3 := s.Raw("e", job.Args{}, "b3")

	got := s.Prioritize()
	want := []*job.Job{b1, b2, b3, f1, f2, f3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d = %s, want %s", i, got[i].ID(), want[i].ID())
		}
	}
}

func TestFailureDoesNotStopTick(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	s.Call(func(context.Context, io.Writer, job.Args) (string, error) {
		return "", errors.New("disk full")
	}, job.Args{}, "bad")
	s.Call(func(context.Context, io.Writer, job.Args) (string, error) {
		panic("kaboom")
	}, job.Args{}, "panicky")
	s.Call(noop, job.Args{}, "good").Then(func(context.Context, string, int) error {
		panic("after hook panic")
	})
	s.Call(noop, job.Args{}, "fine")

	ran := s.Run(context.Background(), tick)
	if len(ran) != 1 || ran[0].ID() != "fine" {
		t.Fatalf("ran = %v", ran)
	}
	failed := s.FailedJobs()
	if len(failed) != 3 {
		t.Fatalf("failed = %d, want 3", len(failed))
	}
	if failed[0].Job().ID() != "bad" || !strings.Contains(failed[0].Error(), "disk full") {
		t.Fatalf("first failure = %s: %v", failed[0].Job().ID(), failed[0].Err())
	}
	log := s.VerboseLog()
	if !strings.HasSuffix(log[0], "disk full: Closure") {
		t.Fatalf("failure line = %q", log[0])
	}
}

func TestBeforeHookFailureIsRecorded(t *testing.T) {
	t.Parallel()
	s, sp := newTestScheduler(t)
	j := s.Raw("ls", job.Args{}, "locked").OnlyOne("", nil).
		Before(func(context.Context) error { return errors.New("not yet") })

	s.Run(context.Background(), tick)
	if len(s.ExecutedJobs()) != 0 || len(s.FailedJobs()) != 1 {
		t.Fatalf("executed=%d failed=%d", len(s.ExecutedJobs()), len(s.FailedJobs()))
	}
	if !errors.Is(s.FailedJobs()[0].Err(), job.ErrBeforeHook) {
		t.Fatalf("err = %v", s.FailedJobs()[0].Err())
	}
	if _, err := os.Stat(j.LockPath()); !os.IsNotExist(err) {
		t.Fatalf("lock left: %v", err)
	}
	if len(sp.texts) != 0 {
		t.Fatal("body spawned")
	}
}

func TestOverlapSkipIsSilent(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	j := s.Raw("ls", job.Args{}, "busy").OnlyOne("", nil)
	if err := j.CreateLock(""); err != nil {
		t.Fatal(err)
	}

	if ran := s.Run(context.Background(), tick); len(ran) != 0 {
		t.Fatalf("ran = %v", ran)
	}
	if len(s.ExecutedJobs()) != 0 || len(s.FailedJobs()) != 0 || len(s.VerboseLog()) != 0 {
		t.Fatal("overlap skip left traces")
	}
}

func TestConfigErrorJobFailsEveryTick(t *testing.T) {
	t.Parallel()
	s, sp := newTestScheduler(t)
	s.Raw("ls", job.Args{}, "bad-hour").Daily(25, 0)

	s.Run(context.Background(), tick)
	s.Run(context.Background(), tick)
	if got := len(s.FailedJobs()); got != 2 {
		t.Fatalf("failed = %d, want 2", got)
	}
	if !errors.Is(s.FailedJobs()[0].Err(), job.ErrConfiguration) {
		t.Fatalf("err = %v", s.FailedJobs()[0].Err())
	}
	if len(sp.texts) != 0 {
		t.Fatal("misconfigured job spawned")
	}
}

func TestResetRunKeepsQueue(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	a := s.Call(noop, job.Args{}, "a")
	b := s.Call(func(context.Context, io.Writer, job.Args) (string, error) {
		return "", errors.New("x")
	}, job.Args{}, "b")
	s.Run(context.Background(), tick)

	s.ResetRun()
	if len(s.ExecutedJobs()) != 0 || len(s.FailedJobs()) != 0 || len(s.VerboseLog()) != 0 {
		t.Fatal("ResetRun left results behind")
	}
	q := s.QueuedJobs()
	if len(q) != 2 || q[0] != a || q[1] != b {
		t.Fatalf("queue = %v", q)
	}

	s.Run(context.Background(), tick)
	if len(s.ExecutedJobs()) != 1 {
		t.Fatal("queue did not run again after reset")
	}
}

func TestClearJobs(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	s.Call(noop, job.Args{}, "a")
	s.ClearJobs()
	if len(s.QueuedJobs()) != 0 {
		t.Fatal("queue not cleared")
	}
}

func TestReplaceJobsDuringTicks(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	sink := filepath.Join(t.TempDir(), "out")
	build := func(i int) []*job.Job {
		j := job.New(job.Invocable(noop), job.Args{}, "gen").
			At("* * * * *").Output([]string{sink}, i%2 == 0)
		return []*job.Job{j}
	}
	s.ReplaceJobs(build(0))

	const rounds = 200
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= rounds; i++ {
			s.ReplaceJobs(build(i))
		}
	}()

	for i := 0; i < rounds; i++ {
		if ran := s.Run(context.Background(), tick); len(ran) != 1 {
			t.Fatalf("tick %d ran %d jobs, want 1", i, len(ran))
		}
	}
	wg.Wait()

	if q := s.QueuedJobs(); len(q) != 1 || q[0].Err() != nil {
		t.Fatalf("queue = %v", q)
	}
}

func TestReplaceJobsConfiguresJobs(t *testing.T) {
	t.Parallel()
	s, sp := newTestScheduler(t)
	s.Raw("old", job.Args{}, "")
	s.ReplaceJobs([]*job.Job{job.New(job.Shell("new"), job.Args{}, "")})

	s.Run(context.Background(), tick)
	if len(sp.texts) != 1 || !strings.HasPrefix(sp.texts[0], "(new)") {
		t.Fatalf("spawned %q, want only the replacement through the scheduler spawner", sp.texts)
	}
}

func TestVerboseOutput(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	s.Raw("one", job.Args{}, "")
	s.Raw("two", job.Args{}, "")
	s.Run(context.Background(), tick)

	lines := s.VerboseLog()
	tests := []struct {
		format string
		want   string
	}{
		{format: FormatText, want: lines[0] + "\n" + lines[1]},
		{format: FormatHTML, want: lines[0] + "<br>" + lines[1]},
		{format: "ARRAY", want: `["` + lines[0] + `","` + lines[1] + `"]`},
	}
	for _, tt := range tests {
		got, err := s.VerboseOutput(tt.format)
		if err != nil {
			t.Fatalf("%s: %v", tt.format, err)
		}
		if got != tt.want {
			t.Fatalf("%s = %q, want %q", tt.format, got, tt.want)
		}
	}

	if _, err := s.VerboseOutput("xml"); !errors.Is(err, job.ErrConfiguration) {
		t.Fatalf("xml err = %v", err)
	}
}

func TestVerboseOutputEmptyArray(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t)
	if got, _ := s.VerboseOutput(FormatArray); got != "[]" {
		t.Fatalf("empty array = %q", got)
	}
}

func TestScript(t *testing.T) {
	t.Parallel()
	s, sp := newTestScheduler(t)
	dir := t.TempDir()
	script := filepath.Join(dir, "my script.sh")
	if err := os.WriteFile(script, []byte("echo hi\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Script(script, "", job.Args{}, "ok"); err != nil {
		t.Fatalf("Script: %v", err)
	}
	missing, err := s.Script(filepath.Join(dir, "nope.sh"), "bash", job.Args{}, "missing")
	if !errors.Is(err, job.ErrMissingResource) {
		t.Fatalf("err = %v", err)
	}

	if q := s.QueuedJobs(); len(q) != 1 || q[0].ID() != "ok" {
		t.Fatalf("queue = %v", q)
	}
	if f := s.FailedJobs(); len(f) != 1 || f[0].Job() != missing {
		t.Fatalf("failed = %v", f)
	}

	s.Run(context.Background(), tick)
	if len(sp.texts) != 1 || !strings.Contains(sp.texts[0], "/bin/sh '"+script+"'") {
		t.Fatalf("spawned %q", sp.texts)
	}
}

func TestRecorderAndEvents(t *testing.T) {
	t.Parallel()
	rec := &memRecorder{}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(16)
	defer unsub()

	s, _ := newTestScheduler(t, WithRecorder(rec), WithBus(bus))
	s.Call(noop, job.Args{}, "ok")
	s.Call(func(context.Context, io.Writer, job.Args) (string, error) {
		return "", errors.New("nope")
	}, job.Args{}, "bad")
	s.Run(context.Background(), tick)

	if len(rec.runs) != 2 {
		t.Fatalf("records = %d", len(rec.runs))
	}
	if rec.runs[0].Status != storage.StatusExecuted || rec.runs[1].Status != storage.StatusFailed || rec.runs[1].Error != "nope" {
		t.Fatalf("records = %+v", rec.runs)
	}

	var types []string
	for len(events) > 0 {
		types = append(types, (<-events).Type)
	}
	want := []string{eventbus.TypeJobExecuted, eventbus.TypeJobFailed, eventbus.TypeSchedulerTick}
	if strings.Join(types, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", types, want)
	}
}

func TestRetention(t *testing.T) {
	t.Parallel()
	s, _ := newTestScheduler(t, WithRetention(2))
	s.Call(noop, job.Args{}, "a")
	for i := 0; i < 5; i++ {
		s.Run(context.Background(), tick)
	}
	if len(s.ExecutedJobs()) != 2 || len(s.VerboseLog()) != 2 {
		t.Fatalf("executed=%d verbose=%d", len(s.ExecutedJobs()), len(s.VerboseLog()))
	}
}

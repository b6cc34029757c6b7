// Package app wires config, logging, storage, the event bus and the
// scheduler together and runs them either for a single tick or as a daemon.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"cronrunner/internal/config"
	"cronrunner/internal/eventbus"
	"cronrunner/internal/job"
	"cronrunner/internal/scheduler"
	"cronrunner/internal/storage"
	logx "cronrunner/pkg/logx"
)

type App struct {
	cfgm *config.ConfigManager

	log   logx.Logger
	logs  *logx.Service
	bus   eventbus.Bus
	store storage.Store
	sched *scheduler.Scheduler

	// notify is sd_notify; replaced in tests.
	notify func(state string) error
}

// Option customizes collaborators, mainly for tests.
type Option func(*appOptions)

type appOptions struct {
	sched []scheduler.Option
}

// WithSchedulerOptions appends options passed to scheduler.New.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(o *appOptions) { o.sched = append(o.sched, opts...) }
}

// New loads the config at cfgPath and builds every component. Jobs are
// registered immediately; missing scripts are logged and recorded as failed.
func New(cfgPath string, opts ...Option) (*App, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	cfgm := config.NewConfigManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logs, log := logx.NewService(cfg.Logging.Logx())
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log)

	bus := eventbus.New()

	sc, err := cfg.Store()
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	store, err := storage.Open(sc, log)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	if store != nil {
		log.Info("storage enabled", logx.String("driver", sc.Driver))
	}

	schedOpts := []scheduler.Option{
		scheduler.WithLogger(log),
		scheduler.WithBus(bus),
		scheduler.WithPollInterval(cfg.Scheduler.Poll()),
		scheduler.WithRetention(cfg.Scheduler.Retention),
	}
	if store != nil {
		schedOpts = append(schedOpts, scheduler.WithRecorder(store))
	}
	sched, err := scheduler.New(scheduler.Config{
		Email:   cfg.Scheduler.Mail(),
		TempDir: cfg.Scheduler.TempDir,
		Shell:   cfg.Scheduler.Shell,
	}, append(schedOpts, o.sched...)...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		_ = logs.Close()
		return nil, err
	}

	a := &App{
		cfgm:   cfgm,
		log:    log,
		logs:   logs,
		bus:    bus,
		store:  store,
		sched:  sched,
		notify: sdNotify,
	}
	a.registerJobs(cfg.Jobs)
	return a, nil
}

func (a *App) Scheduler() *scheduler.Scheduler { return a.sched }

func (a *App) Bus() eventbus.Bus { return a.bus }

func (a *App) Logger() logx.Logger { return a.log }

// RunOnce performs a single tick at now.
func (a *App) RunOnce(ctx context.Context, now time.Time) []*job.Job {
	return a.sched.Run(ctx, now)
}

// History returns the newest persisted runs. Without storage it fails with
// storage.ErrDisabled.
func (a *App) History(ctx context.Context, limit int) ([]storage.RunRecord, error) {
	if a.store == nil {
		return nil, storage.ErrDisabled
	}
	return a.store.Recent(ctx, limit)
}

func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Close())
	}
	return errors.Join(errs...)
}

func (a *App) applyReload(oldCfg, newCfg *config.Config) {
	sections, attrs := config.SummarizeChange(oldCfg, newCfg)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	a.log.Info("config changed", append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)...)

	for _, s := range sections {
		switch s {
		case "logging":
			a.logs.Apply(newCfg.Logging.Logx())
		case "scheduler", "storage":
			a.log.Warn(s + " config changed; restart required for changes to take effect")
		case "jobs":
			a.registerJobs(newCfg.Jobs)
		}
	}
}

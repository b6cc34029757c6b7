package app

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"cronrunner/internal/eventbus"
	"cronrunner/internal/runtime/supervisor"
	logx "cronrunner/pkg/logx"
)

func sdNotify(state string) error {
	_, err := daemon.SdNotify(false, state)
	return err
}

// Serve runs the work loop, the config watcher and the watchdog until ctx is
// done, then waits up to stopTimeout for them to return.
func (a *App) Serve(ctx context.Context, stopTimeout time.Duration) error {
	cfg := a.cfgm.Get()
	sup := supervisor.New(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(true))

	sup.Go("scheduler.work", func(c context.Context) error {
		return a.sched.Work(c, cfg.Scheduler.WorkSeconds)
	})
	sup.GoRestart("config.watch", a.cfgm.Watch, 500*time.Millisecond, 10*time.Second)
	sup.Go("config.reload", a.reloadLoop)
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		sup.Go("systemd.watchdog", func(c context.Context) error {
			return a.watchdogLoop(c, interval)
		})
	}

	if err := a.notify(daemon.SdNotifyReady); err != nil {
		a.log.Debug("sd_notify failed", logx.Err(err))
	}
	a.log.Info("daemon started", logx.Any("work_seconds", cfg.Scheduler.WorkSeconds))

	<-sup.Context().Done()
	_ = a.notify(daemon.SdNotifyStopping)
	a.log.Info("daemon stopping")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return sup.Stop(stopCtx)
}

// reloadLoop applies published configs, coalescing bursts to the newest.
func (a *App) reloadLoop(ctx context.Context) error {
	sub := a.cfgm.Subscribe(8)
	defer a.cfgm.Unsubscribe(sub)
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return nil
		case next, ok := <-sub:
			if !ok {
				return nil
			}
		drain:
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						next = newer
					}
				default:
					break drain
				}
			}
			a.applyReload(last, next)
			last = next
		}
	}
}

// watchdogLoop pings systemd after every scheduler tick and, between ticks,
// at half the watchdog interval so sparse work_seconds do not trip it.
func (a *App) watchdogLoop(ctx context.Context, interval time.Duration) error {
	ticks, unsub := a.bus.Subscribe(4, eventbus.TypeSchedulerTick)
	defer unsub()
	t := time.NewTicker(interval / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticks:
		case <-t.C:
		}
		if err := a.notify(daemon.SdNotifyWatchdog); err != nil {
			a.log.Debug("watchdog ping failed", logx.Err(err))
		}
	}
}

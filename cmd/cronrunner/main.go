package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cronrunner/internal/app"
	"cronrunner/internal/scheduler"
	"cronrunner/internal/storage"
)

func main() {
	var (
		cfgPath string
		once    bool
		format  string
		history int
	)
	flag.StringVar(&cfgPath, "config", "./cronrunner.yaml", "path to config (yaml or json)")
	flag.BoolVar(&once, "once", false, "run a single tick, print the verbose log and exit")
	flag.StringVar(&format, "format", scheduler.FormatText, "verbose log format for -once: text, html or array")
	flag.IntVar(&history, "history", 0, "print the newest N persisted runs and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	code := 0
	switch {
	case history > 0:
		code = printHistory(ctx, a, history)
	case once:
		code = runOnce(ctx, a, format)
	default:
		if err := a.Serve(ctx, 10*time.Second); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
			code = 1
		}
	}
	_ = a.Close()
	if code != 0 {
		os.Exit(code)
	}
}

func runOnce(ctx context.Context, a *app.App, format string) int {
	a.RunOnce(ctx, time.Now())
	out, err := a.Scheduler().VerboseOutput(format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	if out != "" {
		fmt.Println(out)
	}
	if len(a.Scheduler().FailedJobs()) > 0 {
		return 1
	}
	return 0
}

func printHistory(ctx context.Context, a *app.App, n int) int {
	runs, err := a.History(ctx, n)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			fmt.Fprintln(os.Stderr, "error: storage is disabled in the config")
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		return 1
	}
	for _, r := range runs {
		line := fmt.Sprintf("%s  %-8s  %-36s  exit=%d  took=%dms  %s",
			r.At.Local().Format(time.RFC3339), r.Status, r.JobID, r.ExitCode, r.TookMS, r.Command)
		if r.Error != "" {
			line += "  err=" + r.Error
		}
		fmt.Println(line)
	}
	return 0
}

// Package process spawns compiled job directives through a POSIX shell.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	logx "cronrunner/pkg/logx"
)

const DefaultShell = "/bin/sh"

// Result is what a blocking spawn observed. A detached directive returns as
// soon as the shell has forked it, so its Result is empty with exit code 0.
type Result struct {
	Output   string
	Stderr   string
	ExitCode int
	Took     time.Duration
}

// Lines splits Output into lines without the trailing newline.
func (r Result) Lines() []string {
	out := strings.TrimRight(r.Output, "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

// Shell runs directive text with `<path> -c`.
type Shell struct {
	Path string
	log  logx.Logger
}

func NewShell(path string, log logx.Logger) *Shell {
	if strings.TrimSpace(path) == "" {
		path = DefaultShell
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Shell{Path: path, log: log}
}

// Spawn blocks until the shell exits. A non-zero exit is reported through
// Result.ExitCode, not as an error; err is only set when the shell could not
// be started or waited on.
func (s *Shell) Spawn(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, errors.New("empty directive")
	}
	path := s.Path
	if path == "" {
		path = DefaultShell
	}

	cmd := exec.CommandContext(ctx, path, "-c", text)
	detach(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Output: stdout.String(),
		Stderr: stderr.String(),
		Took:   time.Since(start),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return res, fmt.Errorf("spawn %s: %w", path, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	s.log.Debug("directive finished",
		logx.Int("exit_code", res.ExitCode),
		logx.Duration("took", res.Took),
		logx.Int("stdout_bytes", stdout.Len()),
	)
	return res, nil
}

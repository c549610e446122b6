// Package shell is the only place the dashboard talks to the host: every
// external fact enters through a Runner.
package shell

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"time"
	"unicode"
)

const (
	DefaultTimeout = 5 * time.Second
	MaxTimeout     = 10 * time.Second

	defaultShell = "/bin/sh"
)

// Runner executes a shell command line and reports its trimmed stdout.
// ok is false when the command could not produce an answer (spawn error,
// non-zero exit, timeout, cancelled context). Failures are never errors.
type Runner interface {
	Run(ctx context.Context, cmdline string, timeout time.Duration) (out string, ok bool)
}

// RunnerFunc adapts a plain function to Runner.
type RunnerFunc func(ctx context.Context, cmdline string, timeout time.Duration) (string, bool)

func (f RunnerFunc) Run(ctx context.Context, cmdline string, timeout time.Duration) (string, bool) {
	return f(ctx, cmdline, timeout)
}

// Exec runs command lines through a POSIX shell.
type Exec struct {
	Shell          string
	DefaultTimeout time.Duration
	Log            *slog.Logger
}

func New(shellPath string, defaultTimeout time.Duration, log *slog.Logger) *Exec {
	if shellPath == "" {
		shellPath = defaultShell
	}
	if log == nil {
		log = slog.Default()
	}
	return &Exec{
		Shell:          shellPath,
		DefaultTimeout: defaultTimeout,
		Log:            log,
	}
}

func (e *Exec) Run(ctx context.Context, cmdline string, timeout time.Duration) (string, bool) {
	timeout = e.clamp(timeout)

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(cctx, e.shell(), "-c", cmdline)
	var stdout bytes.Buffer
	c.Stdout = &stdout
	// stderr goes to /dev/null
	c.WaitDelay = time.Second
	setProcessGroup(c)

	start := time.Now()
	err := c.Run()
	if errors.Is(cctx.Err(), context.DeadlineExceeded) {
		e.logger().Debug("command timed out", "cmd", cmdline, "timeout", timeout)
		return "", false
	}
	if err != nil {
		e.logger().Debug("command failed", "cmd", cmdline, "err", err, "took", time.Since(start))
		return "", false
	}
	return strings.TrimRightFunc(stdout.String(), unicode.IsSpace), true
}

func (e *Exec) clamp(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		timeout = e.DefaultTimeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	return timeout
}

func (e *Exec) shell() string {
	if e.Shell == "" {
		return defaultShell
	}
	return e.Shell
}

func (e *Exec) logger() *slog.Logger {
	if e.Log == nil {
		return slog.Default()
	}
	return e.Log
}

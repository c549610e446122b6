// Package appinfo asks the monitoring CLI (clawdbot by default) how the
// application is doing. Every answer has a fallback; nothing here fails.
package appinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alscos/clawdash/internal/shell"
)

const (
	DefaultCLI          = "clawdbot"
	DefaultSessionLimit = 5
	DefaultTimeout      = 10 * time.Second
	DefaultLogTimeout   = 5 * time.Second

	// MaxLogLines bounds RecentLogs.
	MaxLogLines = 10

	HealthUnavailable = "Could not fetch Clawdbot health"
	StatusUnavailable = "Could not fetch status"
)

type Options struct {
	CLI          string
	SessionLimit int
	// Timeout applies to health, status and sessions.
	Timeout    time.Duration
	LogTimeout time.Duration
	Logger     *slog.Logger
}

type Collector struct {
	run  shell.Runner
	opts Options
	log  *slog.Logger
}

func NewCollector(run shell.Runner, opts Options) *Collector {
	if opts.CLI == "" {
		opts.CLI = DefaultCLI
	}
	if opts.SessionLimit <= 0 {
		opts.SessionLimit = DefaultSessionLimit
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.LogTimeout <= 0 {
		opts.LogTimeout = DefaultLogTimeout
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Collector{run: run, opts: opts, log: log}
}

// Health returns the CLI's health JSON untouched, or {"error": ...} when the
// command failed or printed something that is not JSON.
func (c *Collector) Health(ctx context.Context) json.RawMessage {
	out, ok := c.run.Run(ctx, c.cmd("health --json 2>/dev/null"), c.opts.Timeout)
	if raw, valid := asJSON(out); ok && valid {
		return raw
	}
	c.log.Debug("health unavailable", "cli", c.opts.CLI, "ran", ok)
	return errorObject(HealthUnavailable)
}

func (c *Collector) Status(ctx context.Context) string {
	out, ok := c.run.Run(ctx, c.cmd("status 2>/dev/null"), c.opts.Timeout)
	out = strings.TrimSpace(out)
	if !ok || out == "" {
		return StatusUnavailable
	}
	return out
}

// RecentLogs returns the last MaxLogLines log lines mentioning "error" or
// "warn" in any case, oldest first. Never nil.
func (c *Collector) RecentLogs(ctx context.Context) []string {
	out, ok := c.run.Run(ctx, c.cmd("logs 2>&1"), c.opts.LogTimeout)
	if !ok {
		return []string{}
	}
	return filterLogLines(out, MaxLogLines)
}

// Sessions returns the session list JSON, or nil when unavailable.
func (c *Collector) Sessions(ctx context.Context) json.RawMessage {
	out, ok := c.run.Run(ctx, c.cmd(fmt.Sprintf("sessions --limit %d --json 2>/dev/null", c.opts.SessionLimit)), c.opts.Timeout)
	if !ok {
		return nil
	}
	raw, valid := asJSON(out)
	if !valid {
		c.log.Debug("sessions output is not json", "cli", c.opts.CLI)
		return nil
	}
	return raw
}

func (c *Collector) cmd(args string) string {
	return c.opts.CLI + " " + args
}

// filterLogLines keeps matching lines of any length, oldest first.
func filterLogLines(out string, limit int) []string {
	lines := []string{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		low := strings.ToLower(line)
		if strings.Contains(low, "error") || strings.Contains(low, "warn") {
			lines = append(lines, line)
		}
	}
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return lines
}

func asJSON(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !json.Valid([]byte(s)) {
		return nil, false
	}
	return json.RawMessage(s), true
}

func errorObject(msg string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return b
}

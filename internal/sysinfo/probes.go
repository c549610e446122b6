package sysinfo

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// probe is one way of learning a value. ok=false means "try the next one".
type probe[T any] func(ctx context.Context) (T, bool)

// first returns the answer of the first probe that has one, or nil.
func first[T any](ctx context.Context, probes []probe[T]) *T {
	for _, p := range probes {
		if p == nil {
			continue
		}
		if v, ok := p(ctx); ok {
			return &v
		}
	}
	return nil
}

// chain appends the native probe when native fallback is on.
func chain[T any](c *Collector, native probe[T], probes ...probe[T]) []probe[T] {
	if c.opts.NativeFallback && native != nil {
		probes = append(probes, native)
	}
	return probes
}

func shellProbe[T any](c *Collector, cmdline string, parse func(string) (T, bool)) probe[T] {
	return func(ctx context.Context) (T, bool) {
		out, ok := c.run.Run(ctx, cmdline, 0)
		if !ok {
			var zero T
			return zero, false
		}
		return parse(out)
	}
}

func textProbe(c *Collector, cmdline string) probe[string] {
	return shellProbe(c, cmdline, parseText)
}

func parseText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// parsePercentSum reads the awk total of per-process %cpu.
func parsePercentSum(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return round1(v), true
}

func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseBytes(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// parseDiskPercent accepts df's Capacity column, e.g. "45%".
func parseDiskPercent(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 100 {
		return 0, false
	}
	return v, true
}

// parseCelsius turns the bare powermetrics number into "NN.N°C".
func parseCelsius(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s + "°C", true
}

// parseLoadAverage handles both "{ 1.23 1.45 1.67 }" (sysctl) and
// "0.52 0.58 0.59 1/467 12345" (/proc/loadavg).
func parseLoadAverage(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.Trim(s, "{}"))
	fields := strings.Fields(s)
	if len(fields) < 3 {
		return "", false
	}
	for _, f := range fields[:3] {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return "", false
		}
	}
	return strings.Join(fields[:3], " "), true
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func toGB(b int64) float64 {
	return float64(b) / (1024 * 1024 * 1024)
}

func ptr[T any](v T) *T {
	return &v
}

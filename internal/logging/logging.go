package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level  string // debug, info, warn, error
	Format string // text or json
	File   string // optional rotating log file
}

// New builds the process logger and installs it as slog's default. Output
// always goes to stdout; File adds a size-rotated copy.
func New(opts Options) *slog.Logger {
	return newLogger(os.Stdout, opts, true)
}

func newLogger(stdout io.Writer, opts Options, setDefault bool) *slog.Logger {
	var w io.Writer = stdout
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 1,
			MaxAge:     0,
			Compress:   false,
		}
		w = io.MultiWriter(stdout, rotator)
	}

	ho := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}
	var h slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}

	log := slog.New(h)
	if setDefault {
		slog.SetDefault(log)
	}
	return log
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

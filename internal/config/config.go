package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultPort = 8765

type Config struct {
	BindHost  string
	Port      int
	StaticDir string

	Shell          string
	CommandTimeout time.Duration
	AppCLI         string
	AppTimeout     time.Duration
	SessionLimit   int

	PageSize       int64
	NativeFallback bool
	PrivilegedTemp bool

	AllowedSubnets []string
	APIConcurrency int
	APIBacklog     int

	LogLevel  string
	LogFormat string
	LogFile   string

	PanelPort     string
	PanelBaud     int
	PanelInterval time.Duration

	ServiceName string
}

// ListenAddr is host:port for http.Server.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.BindHost, strconv.Itoa(c.Port))
}

// Load reads .env (if present) and the environment, then applies the
// optional positional port argument. args excludes the program name.
func Load(args []string) (Config, error) {
	_ = godotenv.Load() // no .env is fine

	cfg := Config{
		BindHost:  env("BIND_HOST", "0.0.0.0"),
		Port:      envInt("PORT", DefaultPort),
		StaticDir: env("STATIC_DIR", "."),

		Shell:          env("SHELL_PATH", "/bin/sh"),
		CommandTimeout: envDuration("COMMAND_TIMEOUT", 5*time.Second),
		AppCLI:         env("APP_CLI", "clawdbot"),
		AppTimeout:     envDuration("APP_TIMEOUT", 10*time.Second),
		SessionLimit:   envInt("SESSION_LIMIT", 5),

		PageSize:       int64(envInt("VM_PAGE_SIZE", 16384)),
		NativeFallback: envBool("NATIVE_FALLBACK", runtime.GOOS != "darwin"),
		PrivilegedTemp: envBool("PRIVILEGED_TEMP", true),

		AllowedSubnets: splitCSV(env("ALLOWED_SUBNETS", "")),
		APIConcurrency: envInt("API_CONCURRENCY", 1),
		APIBacklog:     envInt("API_BACKLOG", 16),

		LogLevel:  env("LOG_LEVEL", "info"),
		LogFormat: env("LOG_FORMAT", "text"),
		LogFile:   env("LOG_FILE", ""),

		PanelPort:     env("PANEL_PORT", ""),
		PanelBaud:     envInt("PANEL_BAUD", 115200),
		PanelInterval: envDuration("PANEL_INTERVAL", 5*time.Second),

		ServiceName: env("SERVICE_NAME", "clawdash"),
	}

	if len(args) > 0 {
		p, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return Config{}, fmt.Errorf("port %q: %w", args[0], err)
		}
		cfg.Port = p
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.APIConcurrency < 1 {
		cfg.APIConcurrency = 1
	}
	if cfg.APIBacklog < 0 {
		cfg.APIBacklog = 0
	}

	abs, err := filepath.Abs(cfg.StaticDir)
	if err != nil {
		return Config{}, fmt.Errorf("static dir: %w", err)
	}
	cfg.StaticDir = abs

	return cfg, nil
}

// lookup returns the trimmed value of key and whether it is set to
// something non-blank.
func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	return v, v != ""
}

func env(key, def string) string {
	if v, ok := lookup(key); ok {
		return v
	}
	return def
}

// envParsed falls back to def when key is blank or does not parse.
func envParsed[T any](key string, def T, parse func(string) (T, error)) T {
	v, ok := lookup(key)
	if !ok {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func envInt(key string, def int) int { return envParsed(key, def, strconv.Atoi) }

func envBool(key string, def bool) bool { return envParsed(key, def, strconv.ParseBool) }

func envDuration(key string, def time.Duration) time.Duration {
	return envParsed(key, def, time.ParseDuration)
}

// splitCSV turns "a, b,,c" into [a b c]; nil when nothing is left.
func splitCSV(s string) []string {
	var out []string
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' }) {
		if field = strings.TrimSpace(field); field != "" {
			out = append(out, field)
		}
	}
	return out
}

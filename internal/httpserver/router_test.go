package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alscos/clawdash/internal/appinfo"
	"github.com/alscos/clawdash/internal/config"
	"github.com/alscos/clawdash/internal/shell"
	"github.com/alscos/clawdash/internal/sysinfo"
)

var failAll = shell.RunnerFunc(func(ctx context.Context, cmdline string, timeout time.Duration) (string, bool) {
	return "", false
})

var healthyApp = shell.RunnerFunc(func(ctx context.Context, cmdline string, timeout time.Duration) (string, bool) {
	switch {
	case cmdline == "hostname":
		return "studio.local", true
	case strings.HasPrefix(cmdline, "clawdbot health"):
		return `{"ok":true}`, true
	case strings.HasPrefix(cmdline, "clawdbot status"):
		return "Gateway: running", true
	case strings.HasPrefix(cmdline, "clawdbot sessions"):
		return `[{"key":"main"}]`, true
	case strings.HasPrefix(cmdline, "clawdbot logs"):
		return "info ok\nWARN disk slow\nerror: timeout\n", true
	}
	return "", false
})

func newTestServer(t *testing.T, run shell.Runner, mutate func(*config.Config)) (http.Handler, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>dash</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := config.Config{StaticDir: dir, APIConcurrency: 1}
	if mutate != nil {
		mutate(&cfg)
	}

	h, err := NewRouter(RouterDeps{
		Config: cfg,
		Sys:    sysinfo.NewCollector(run, sysinfo.Options{}),
		App:    appinfo.NewCollector(run, appinfo.Options{}),
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return h, dir
}

func get(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("body is not json: %v\n%s", err, rec.Body.String())
	}
	return m
}

func TestHealthWithEverythingFailing(t *testing.T) {
	h, _ := newTestServer(t, failAll, nil)

	rec := get(t, h, http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type = %q", ct)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("cors = %q", got)
	}

	body := decode(t, rec)
	sys, ok := body["system"].(map[string]any)
	if !ok {
		t.Fatalf("system missing: %v", body)
	}
	for k := range sys {
		if k != "timestamp" && k != "cpu_temp" {
			t.Fatalf("system.%s should be absent", k)
		}
	}
	bot, ok := body["clawdbot"].(map[string]any)
	if !ok || bot["error"] != appinfo.HealthUnavailable {
		t.Fatalf("clawdbot = %v", body["clawdbot"])
	}
	errs, ok := body["errors"].([]any)
	if !ok || len(errs) != 0 {
		t.Fatalf("errors = %v", body["errors"])
	}
}

func TestStatusWithEverythingFailing(t *testing.T) {
	h, _ := newTestServer(t, failAll, nil)

	rec := get(t, h, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode(t, rec)
	if body["status"] != appinfo.StatusUnavailable {
		t.Fatalf("status = %v", body["status"])
	}
	if _, ok := body["sessions"]; ok {
		t.Fatalf("sessions should be absent: %v", body)
	}
}

func TestHealthyResponses(t *testing.T) {
	h, _ := newTestServer(t, healthyApp, nil)

	body := decode(t, get(t, h, http.MethodGet, "/api/health"))
	if sys := body["system"].(map[string]any); sys["hostname"] != "studio.local" {
		t.Fatalf("system = %v", sys)
	}
	if bot := body["clawdbot"].(map[string]any); bot["ok"] != true {
		t.Fatalf("clawdbot = %v", bot)
	}
	if errs := body["errors"].([]any); len(errs) != 2 {
		t.Fatalf("errors = %v", errs)
	}

	body = decode(t, get(t, h, http.MethodGet, "/api/status"))
	if body["status"] != "Gateway: running" {
		t.Fatalf("status = %v", body["status"])
	}
	if sessions, ok := body["sessions"].([]any); !ok || len(sessions) != 1 {
		t.Fatalf("sessions = %v", body["sessions"])
	}
}

func TestPreflight(t *testing.T) {
	h, _ := newTestServer(t, failAll, nil)

	rec := get(t, h, http.MethodOptions, "/api/health")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing cors header")
	}
}

func TestStaticFiles(t *testing.T) {
	h, _ := newTestServer(t, failAll, nil)

	cases := []struct {
		path string
		code int
		body string
	}{
		{"/", http.StatusOK, "<h1>dash</h1>"},
		{"/index.html", http.StatusOK, "<h1>dash</h1>"},
		{"/notes.txt", http.StatusOK, "hello"},
		{"/missing.txt", http.StatusNotFound, ""},
		{"/sub/", http.StatusOK, ""},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			rec := get(t, h, http.MethodGet, tc.path)
			if rec.Code != tc.code {
				t.Fatalf("status = %d; want %d", rec.Code, tc.code)
			}
			if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
				t.Fatalf("static responses must not be json")
			}
			if tc.body != "" {
				b, _ := io.ReadAll(rec.Body)
				if string(b) != tc.body {
					t.Fatalf("body = %q; want %q", b, tc.body)
				}
			}
		})
	}

	if rec := get(t, h, http.MethodPost, "/notes.txt"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("POST static = %d", rec.Code)
	}
}

func TestHiddenFilesNotServed(t *testing.T) {
	h, dir := newTestServer(t, failAll, nil)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ALLOWED_SUBNETS=100.64.0.0/10"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", ".secret"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{"/.env", "/sub/.secret", "/.git/config"} {
		rec := get(t, h, http.MethodGet, path)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s: status = %d; want 404", path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "ALLOWED_SUBNETS") {
			t.Fatalf("%s leaked config", path)
		}
	}
}

func TestAPIThrottleRejectsOverflow(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	blocking := shell.RunnerFunc(func(ctx context.Context, cmdline string, timeout time.Duration) (string, bool) {
		if cmdline == "hostname" {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
		}
		return "", false
	})
	// one slot, no backlog
	h, _ := newTestServer(t, blocking, func(c *config.Config) {
		c.APIConcurrency = 1
		c.APIBacklog = 0
	})

	first := make(chan int, 1)
	go func() {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		first <- rec.Code
	}()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		close(release)
		t.Fatalf("first request never started collecting")
	}

	if rec := get(t, h, http.MethodGet, "/api/status"); rec.Code != http.StatusTooManyRequests {
		close(release)
		t.Fatalf("overflow status = %d; want 429", rec.Code)
	}
	if rec := get(t, h, http.MethodGet, "/notes.txt"); rec.Code != http.StatusOK {
		close(release)
		t.Fatalf("static files should bypass the throttle, got %d", rec.Code)
	}

	close(release)
	if code := <-first; code != http.StatusOK {
		t.Fatalf("first request status = %d", code)
	}
}

func TestIndexMissing(t *testing.T) {
	h, dir := newTestServer(t, failAll, nil)
	if err := os.Remove(filepath.Join(dir, "index.html")); err != nil {
		t.Fatal(err)
	}
	if rec := get(t, h, http.MethodGet, "/"); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAllowlist(t *testing.T) {
	h, _ := newTestServer(t, failAll, func(c *config.Config) {
		c.AllowedSubnets = []string{"100.64.0.0/10"}
	})

	cases := []struct {
		remote string
		header string
		code   int
	}{
		{"100.101.5.6:51000", "", http.StatusOK},
		{"10.0.0.5:51000", "", http.StatusForbidden},
		{"garbage", "", http.StatusForbidden},
		{"203.0.113.9:4444", "X-Forwarded-For", http.StatusForbidden},
		{"203.0.113.9:4444", "X-Real-IP", http.StatusForbidden},
		{"203.0.113.9:4444", "True-Client-IP", http.StatusForbidden},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.RemoteAddr = tc.remote
		if tc.header != "" {
			req.Header.Set(tc.header, "100.100.1.1")
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tc.code {
			t.Fatalf("%s %s: status = %d; want %d", tc.remote, tc.header, rec.Code, tc.code)
		}
	}

	if _, err := NewRouter(RouterDeps{Config: config.Config{AllowedSubnets: []string{"not-a-cidr"}}}); err == nil {
		t.Fatalf("expected error for bad cidr")
	}
}

func TestAllowlistAddressForms(t *testing.T) {
	a, err := newCIDRAllowlist([]string{"127.0.0.0/8", "::1/128"})
	if err != nil {
		t.Fatal(err)
	}
	for _, addr := range []string{"127.0.0.1:80", "127.0.0.1", "[::1]:8765", "::1"} {
		if !a.allows(addr) {
			t.Fatalf("%q should be allowed", addr)
		}
	}
	if a.allows("192.168.1.1:80") {
		t.Fatalf("192.168.1.1 should be denied")
	}
}

package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/alscos/clawdash/internal/appinfo"
	"github.com/alscos/clawdash/internal/config"
	"github.com/alscos/clawdash/internal/sysinfo"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const apiBacklogTimeout = 30 * time.Second

type RouterDeps struct {
	Config config.Config
	Sys    *sysinfo.Collector
	App    *appinfo.Collector
	Logger *slog.Logger
}

type Server struct {
	cfg    config.Config
	sys    *sysinfo.Collector
	app    *appinfo.Collector
	log    *slog.Logger
	static http.Handler
}

func NewRouter(deps RouterDeps) (http.Handler, error) {
	s := &Server{
		cfg:    deps.Config,
		sys:    deps.Sys,
		app:    deps.App,
		log:    deps.Logger,
		static: http.FileServer(http.Dir(deps.Config.StaticDir)),
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	// The allowlist must see the peer address, not forwarded headers.
	if len(s.cfg.AllowedSubnets) > 0 {
		allow, err := newCIDRAllowlist(s.cfg.AllowedSubnets)
		if err != nil {
			return nil, err
		}
		r.Use(allow.middleware)
	}

	r.Use(middleware.RealIP)
	r.Use(s.requestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(apiCORS)

	// Collection shells out a lot; keep it to one request at a time by default.
	// Requests beyond the backlog get 429 from the throttle.
	r.Group(func(r chi.Router) {
		r.Use(middleware.ThrottleBacklog(concurrency(s.cfg.APIConcurrency), backlog(s.cfg.APIBacklog), apiBacklogTimeout))
		r.Get("/api/health", s.handleHealth)
		r.Get("/api/status", s.handleStatus)
	})

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.NotFound(s.handleStatic)

	return r, nil
}

func concurrency(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func backlog(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Package daemon runs the dashboard under github.com/kardianos/service so
// the same binary works from a terminal and as an installed system service.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	kardianos "github.com/kardianos/service"
)

const shutdownTimeout = 5 * time.Second

// Program owns the HTTP server and any background loops (the serial panel).
type Program struct {
	srv        *http.Server
	log        *slog.Logger
	background []func(ctx context.Context)

	mu     sync.Mutex
	addr   net.Addr
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewProgram(srv *http.Server, log *slog.Logger, background ...func(ctx context.Context)) *Program {
	if log == nil {
		log = slog.Default()
	}
	return &Program{srv: srv, log: log, background: background}
}

// Start binds synchronously so a busy port is reported instead of lost in
// a goroutine, then serves in the background.
func (p *Program) Start(s kardianos.Service) error {
	ln, err := net.Listen("tcp", p.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", p.srv.Addr, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.addr = ln.Addr()
	p.cancel = cancel
	p.mu.Unlock()

	for _, bg := range p.background {
		p.wg.Add(1)
		go func(run func(context.Context)) {
			defer p.wg.Done()
			run(ctx)
		}(bg)
	}

	go func() {
		if err := p.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.log.Error("http server stopped", "err", err)
		}
	}()

	p.log.Info("dashboard listening", "addr", ln.Addr().String())
	return nil
}

func (p *Program) Stop(s kardianos.Service) error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	err := p.srv.Shutdown(ctx)
	p.wg.Wait()

	p.log.Info("dashboard stopped")
	return err
}

// Addr is the bound listener address, nil before Start.
func (p *Program) Addr() net.Addr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addr
}

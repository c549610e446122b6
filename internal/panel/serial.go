package panel

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/alscos/clawdash/internal/sysinfo"
)

// Source produces the snapshot shown on the panel; sysinfo.Collector.Snapshot fits.
type Source func(ctx context.Context) sysinfo.Snapshot

// Serial mirrors a short host summary to a display on a serial line
// (an Arduino with an OLED, typically).
type Serial struct {
	mu sync.Mutex

	portName string
	baud     int
	log      *slog.Logger

	// open is swapped in tests
	open func(name string, baud int) (io.WriteCloser, error)

	port io.WriteCloser
	last string // last committed payload (normalized)
}

func NewSerial(portName string, baud int, log *slog.Logger) *Serial {
	if baud <= 0 {
		baud = 115200
	}
	if log == nil {
		log = slog.Default()
	}
	return &Serial{
		portName: portName,
		baud:     baud,
		log:      log,
		open:     openSerial,
	}
}

func openSerial(name string, baud int) (io.WriteCloser, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baud})
}

// Start refreshes the panel every interval until ctx is done.
func (s *Serial) Start(ctx context.Context, src Source, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	s.tick(ctx, src)
	for {
		select {
		case <-ctx.Done():
			s.Close()
			return
		case <-t.C:
			s.tick(ctx, src)
		}
	}
}

func (s *Serial) tick(ctx context.Context, src Source) {
	payload := FormatLines(src(ctx))
	if !s.shouldSend(payload) {
		return
	}
	if err := s.send(payload); err != nil {
		s.log.Warn("panel: send failed", "port", s.portName, "err", err)
		s.forget()
	}
}

func (s *Serial) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPort()
}

func (s *Serial) shouldSend(payload string) bool {
	n := normalizePayload(payload)
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == "" || n == s.last {
		return false
	}
	s.last = n
	return true
}

func (s *Serial) send(payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.port == nil {
		p, err := s.open(s.portName, s.baud)
		if err != nil {
			return err
		}
		s.port = p
	}

	_, err := s.port.Write([]byte(payload))
	return err
}

// forget drops the port and the dedupe memory so the next tick reopens the
// port and resends.
func (s *Serial) forget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPort()
	s.last = ""
}

func (s *Serial) dropPort() {
	if s.port != nil {
		_ = s.port.Close()
		s.port = nil
	}
}

func normalizePayload(p string) string {
	p = strings.ReplaceAll(p, "\r\n", "\n")
	p = strings.TrimSpace(p)
	return strings.Join(strings.Fields(p), " ")
}

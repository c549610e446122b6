package daemon

import (
	"fmt"
	"os"

	kardianos "github.com/kardianos/service"
)

type ServiceConfig struct {
	Name        string
	DisplayName string
	Description string
	// Arguments are passed to the installed binary, e.g. the port.
	Arguments []string
	// WorkingDirectory holds .env and the static files.
	WorkingDirectory string
}

type Manager struct {
	prog kardianos.Interface
	cfg  ServiceConfig
}

func NewManager(prog kardianos.Interface, cfg ServiceConfig) *Manager {
	if cfg.DisplayName == "" {
		cfg.DisplayName = "Clawdbot Dashboard"
	}
	if cfg.Description == "" {
		cfg.Description = "Serves host and Clawdbot health as JSON for the browser dashboard"
	}
	if cfg.WorkingDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			cfg.WorkingDirectory = wd
		}
	}
	return &Manager{prog: prog, cfg: cfg}
}

func (m *Manager) newService() (kardianos.Service, error) {
	return kardianos.New(m.prog, &kardianos.Config{
		Name:             m.cfg.Name,
		DisplayName:      m.cfg.DisplayName,
		Description:      m.cfg.Description,
		Arguments:        m.cfg.Arguments,
		WorkingDirectory: m.cfg.WorkingDirectory,
	})
}

func (m *Manager) Install() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	if err := s.Install(); err != nil {
		return fmt.Errorf("install %s: %w", m.cfg.Name, err)
	}
	if err := s.Start(); err != nil {
		return fmt.Errorf("start %s: %w", m.cfg.Name, err)
	}
	return nil
}

func (m *Manager) Uninstall() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	_ = s.Stop()
	if err := s.Uninstall(); err != nil {
		return fmt.Errorf("uninstall %s: %w", m.cfg.Name, err)
	}
	return nil
}

// Run blocks until the service manager (or Ctrl-C in a terminal) stops us.
func (m *Manager) Run() error {
	s, err := m.newService()
	if err != nil {
		return err
	}
	return s.Run()
}

// Interactive reports whether we were started from a terminal.
func Interactive() bool {
	return kardianos.Interactive()
}

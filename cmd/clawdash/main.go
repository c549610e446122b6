package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/alscos/clawdash/internal/appinfo"
	"github.com/alscos/clawdash/internal/config"
	"github.com/alscos/clawdash/internal/daemon"
	"github.com/alscos/clawdash/internal/httpserver"
	"github.com/alscos/clawdash/internal/logging"
	"github.com/alscos/clawdash/internal/panel"
	"github.com/alscos/clawdash/internal/shell"
	"github.com/alscos/clawdash/internal/sysinfo"
)

const usage = `usage: clawdash [port]
       clawdash install [port]
       clawdash uninstall`

func main() {
	args := os.Args[1:]
	action := "run"
	if len(args) > 0 {
		switch args[0] {
		case "install", "uninstall":
			action, args = args[0], args[1:]
		case "-h", "--help", "help":
			fmt.Println(usage)
			return
		}
	}

	cfg, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clawdash: %v\n%s\n", err, usage)
		os.Exit(2)
	}

	log := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})

	runner := shell.New(cfg.Shell, cfg.CommandTimeout, log)
	sys := sysinfo.NewCollector(runner, sysinfo.Options{
		PageSize:       cfg.PageSize,
		NativeFallback: cfg.NativeFallback,
		PrivilegedTemp: cfg.PrivilegedTemp,
		Logger:         log,
	})
	app := appinfo.NewCollector(runner, appinfo.Options{
		CLI:          cfg.AppCLI,
		SessionLimit: cfg.SessionLimit,
		Timeout:      cfg.AppTimeout,
		Logger:       log,
	})

	h, err := httpserver.NewRouter(httpserver.RouterDeps{
		Config: cfg,
		Sys:    sys,
		App:    app,
		Logger: log,
	})
	if err != nil {
		log.Error("router init", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           h,
		ReadHeaderTimeout: 2 * time.Second,
	}

	var background []func(context.Context)
	if cfg.PanelPort != "" {
		p := panel.NewSerial(cfg.PanelPort, cfg.PanelBaud, log)
		background = append(background, func(ctx context.Context) {
			p.Start(ctx, sys.Snapshot, cfg.PanelInterval)
		})
		log.Info("serial panel enabled", "port", cfg.PanelPort, "interval", cfg.PanelInterval)
	}

	mgr := daemon.NewManager(daemon.NewProgram(srv, log, background...), daemon.ServiceConfig{
		Name:      cfg.ServiceName,
		Arguments: []string{strconv.Itoa(cfg.Port)},
	})

	switch action {
	case "install":
		if err := mgr.Install(); err != nil {
			log.Error("install failed", "err", err)
			os.Exit(1)
		}
		log.Info("service installed", "name", cfg.ServiceName, "port", cfg.Port)
		return
	case "uninstall":
		if err := mgr.Uninstall(); err != nil {
			log.Error("uninstall failed", "err", err)
			os.Exit(1)
		}
		log.Info("service removed", "name", cfg.ServiceName)
		return
	}

	if daemon.Interactive() {
		banner(cfg)
	}
	if err := mgr.Run(); err != nil {
		log.Error("dashboard failed", "err", err)
		os.Exit(1)
	}
}

func banner(cfg config.Config) {
	title := color.New(color.FgHiRed, color.Bold).SprintFunc()
	url := color.New(color.FgCyan).SprintFunc()

	fmt.Printf("🦞 %s running on %s\n", title("Clawdbot Dashboard"), url("http://"+cfg.ListenAddr()))
	fmt.Printf("   Access via Tailscale: http://<tailscale-ip>:%d\n", cfg.Port)
	fmt.Printf("   Static files: %s\n", cfg.StaticDir)
}

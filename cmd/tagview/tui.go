package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/rentscan/tagview/pkg/api"
	"github.com/rentscan/tagview/pkg/logging"
	"github.com/rentscan/tagview/pkg/session"
	"github.com/rentscan/tagview/pkg/ui"
	"github.com/rentscan/tagview/pkg/watcher"
)

func runTUI() error {
	log := logging.Get()

	client := api.NewClient(cfg.Server.BaseURL, cfg.Tabs[0].Path,
		api.WithTimeout(cfg.Server.Timeout()),
		api.WithLogger(log))

	// The TUI runs without persistence or hot reload when either piece
	// fails to come up; both are conveniences, not requirements. The store
	// opens even under --no-restore so new expansions keep being recorded.
	var store *session.Store
	if path := cfg.SessionPath(); path != "" {
		s, err := session.Open(path)
		if err != nil {
			log.Warn("session store unavailable", zap.String("path", path), zap.Error(err))
		} else {
			store = s
			defer store.Close()
		}
	}

	var w *watcher.Watcher
	if path := configPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			cw, err := watcher.New(path)
			if err != nil {
				log.Warn("config watcher unavailable", zap.String("path", path), zap.Error(err))
			} else if err := cw.Start(); err != nil {
				log.Warn("config watcher failed to start", zap.String("path", path), zap.Error(err))
			} else {
				w = cw
				defer w.Stop()
			}
		}
	}

	m := ui.NewModel(cfg, client, ui.Options{
		ConfigPath: configPath(),
		InitialTab: flagTab,
		Store:      store,
		Watcher:    w,
		Readonly:   flagReadonly,
		NoRestore:  flagNoRestore,
		Logger:     log,
	})
	return runProgram(m)
}

// runProgram runs the bubbletea program with graceful shutdown: the first
// SIGINT/SIGTERM quits cleanly, a second (or a 5s stall) kills.
func runProgram(m *ui.Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithoutSignalHandler())

	runDone := make(chan struct{})
	defer close(runDone)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}

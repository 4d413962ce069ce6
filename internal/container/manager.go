package container

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mihaisavezi/llmgateway/internal/config"
	"github.com/mihaisavezi/llmgateway/internal/dump"
)

// Manager owns the currently active ServiceContainer and rebuilds it
// whenever the underlying config.Manager installs a new UserConfig.
// Handlers call Get() once per request; a reload happening mid-request
// swaps the pointer under them without affecting the container they
// already captured.
type Manager struct {
	current    atomic.Pointer[ServiceContainer]
	cfgManager *config.Manager
	dumper     *dump.Dumper
	logger     *slog.Logger
	drainAfter time.Duration
}

// NewManager builds the initial container from cfgManager's current
// config and registers a listener so future config.Manager reloads
// rebuild and swap the container automatically. dumper is shared by
// every ServiceContainer built over the Manager's lifetime.
func NewManager(cfgManager *config.Manager, drainAfter time.Duration, dumper *dump.Dumper, logger *slog.Logger) (*Manager, error) {
	initial, err := Build(cfgManager.Get(), dumper)
	if err != nil {
		return nil, err
	}

	m := &Manager{cfgManager: cfgManager, dumper: dumper, logger: logger, drainAfter: drainAfter}
	m.current.Store(initial)

	cfgManager.OnReload(func(cfg *config.UserConfig) {
		m.rebuild(cfg)
	})

	return m, nil
}

// Get returns the active ServiceContainer.
func (m *Manager) Get() *ServiceContainer {
	return m.current.Load()
}

func (m *Manager) rebuild(cfg *config.UserConfig) {
	next, err := Build(cfg, m.dumper)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("container rebuild failed, keeping previous container serving", "error", err)
		}
		return
	}

	previous := m.current.Swap(next)
	if previous != nil {
		previous.closeAfter(m.drainAfter, m.logger)
	}

	if m.logger != nil {
		m.logger.Info("service container rebuilt from reloaded config")
	}
}

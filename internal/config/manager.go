package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Manager owns the current validated UserConfig snapshot and notifies
// registered listeners on successful reload. Get() is lock-free (an
// atomic.Pointer load) so request-handling goroutines never block behind a
// reload; reload itself takes a short-lived lock only to swap the
// pointer and copy the listener slice.
type Manager struct {
	path        string
	current     atomic.Pointer[UserConfig]
	logger      *slog.Logger
	mu          sync.Mutex
	listeners   []func(*UserConfig)
	watchMu     sync.Mutex
	watcher     *fsnotify.Watcher
	done        chan struct{}
}

// NewManager loads path once and returns a Manager holding that initial
// snapshot. A load failure here is a startup error, not a reload error.
func NewManager(path string, logger *slog.Logger) (*Manager, error) {
	cfg, err := LoadUserConfig(path)
	if err != nil {
		return nil, err
	}

	m := &Manager{path: path, logger: logger}
	m.current.Store(cfg)

	return m, nil
}

// Get returns the currently active, validated UserConfig. Callers should
// take this once per request and hold the reference for the request's
// lifetime, rather than calling Get() repeatedly, so a concurrent reload
// cannot produce a request straddling two configurations.
func (m *Manager) Get() *UserConfig {
	return m.current.Load()
}

// OnReload registers a callback invoked after each successful reload,
// with the newly installed UserConfig.
func (m *Manager) OnReload(fn func(*UserConfig)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Reload re-reads and validates the config file, installing it only if
// step succeeds. If validation or parsing fails, the previous config
// keeps serving and Reload returns the error (spec §4.6, step 1-3
// failure keeps the previous container).
func (m *Manager) Reload() error {
	newCfg, err := LoadUserConfig(m.path)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("config reload failed, keeping previous config", "error", err)
		}
		return err
	}

	m.install(newCfg)

	return nil
}

// ReloadFrom installs a pre-parsed UserConfig as is, without validating
// it; the caller is expected to pass a document that ParseUserConfig has
// already validated.
func (m *Manager) ReloadFrom(cfg *UserConfig) {
	m.install(cfg)
}

func (m *Manager) install(cfg *UserConfig) {
	m.mu.Lock()
	m.current.Store(cfg)
	listeners := make([]func(*UserConfig), len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, fn := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil && m.logger != nil {
					m.logger.Error("config reload listener panicked", "panic", r)
				}
			}()
			fn(cfg)
		}()
	}
}

// StartWatching watches the user config file's directory for changes and
// debounces reloads, so editors that write-then-rename don't trigger a
// reload against a half-written file.
func (m *Manager) StartWatching() error {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	if m.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config directory %s: %w", dir, err)
	}

	done := make(chan struct{})
	m.watcher = watcher
	m.done = done

	go m.watchLoop(watcher, done)

	if m.logger != nil {
		m.logger.Info("watching user config for changes", "path", m.path)
	}

	return nil
}

// StopWatching stops the filesystem watcher, if running.
func (m *Manager) StopWatching() {
	m.watchMu.Lock()
	watcher := m.watcher
	done := m.done
	m.watcher = nil
	m.done = nil
	m.watchMu.Unlock()

	if watcher == nil {
		return
	}

	close(done)
	_ = watcher.Close()
}

func (m *Manager) watchLoop(watcher *fsnotify.Watcher, done <-chan struct{}) {
	const debounceDelay = 500 * time.Millisecond

	configName := filepath.Base(m.path)

	var timer *time.Timer
	var timerC <-chan time.Time

	reset := func() {
		if timer == nil {
			timer = time.NewTimer(debounceDelay)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounceDelay)
		}
		timerC = timer.C
	}

	for {
		select {
		case <-done:
			return

		case <-timerC:
			timerC = nil
			if err := m.Reload(); err == nil && m.logger != nil {
				m.logger.Info("user config reloaded from filesystem change")
			}

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reset()

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if m.logger != nil {
				m.logger.Error("config watcher error", "error", err)
			}
		}
	}
}

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDebounce coalesces the burst of fsnotify events an editor save
// produces into one reload.
const reloadDebounce = 300 * time.Millisecond

// Manager owns the persisted config file that every CLI command reads
// and writes. Programmatic updates are validated and written back
// atomically; Watch picks up external edits so a long interactive
// session can be retuned without restarting.
type Manager struct {
	path     string
	debounce time.Duration
	logger   *zap.Logger

	mu       sync.RWMutex
	cfg      Config
	onChange func(Config)
	watching bool

	// selfWrite marks our own saves so the watcher does not reload
	// what it just wrote.
	selfWrite atomic.Bool
}

// DefaultPath is the config file location under the user config dir,
// falling back to the working directory when none is available.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "CouncilGo", "config.json"), nil
}

// NewManager opens the config file at path, seeding it with defaults
// when it does not exist yet. An empty path means DefaultPath.
func NewManager(path string, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	cfg, err := readOrSeed(path)
	if err != nil {
		return nil, err
	}

	return &Manager{
		path:     path,
		debounce: reloadDebounce,
		logger:   logger.Named("config"),
		cfg:      cfg,
	}, nil
}

func (m *Manager) Path() string { return m.path }

// Get returns the persisted config as stored on disk.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Effective returns the stored config with .env and process
// environment layered on top. Runs are built from this view so an
// exported API key or a shell override always wins over the file.
func (m *Manager) Effective() *Config {
	cfg := m.Get()
	cfg.ApplyEnv()
	return &cfg
}

// UpdateFromJSON merges a JSON fragment into the stored config, so
// callers can set single fields without restating the rest.
func (m *Manager) UpdateFromJSON(fragment string) error {
	cfg := m.Get()
	if err := json.Unmarshal([]byte(fragment), &cfg); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return m.Update(cfg)
}

// Update validates, persists and applies a full config. Invalid
// configs are rejected and the stored one stays in force.
func (m *Manager) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if reflect.DeepEqual(m.Get(), cfg) {
		return nil
	}

	m.selfWrite.Store(true)
	time.AfterFunc(m.debounce, func() { m.selfWrite.Store(false) })

	if err := writeConfigFile(m.path, cfg); err != nil {
		m.selfWrite.Store(false)
		return err
	}
	m.apply(cfg)
	return nil
}

// Watch reloads the stored config whenever the file changes on disk,
// calling onChange with each accepted reload until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, onChange func(Config)) error {
	m.mu.Lock()
	m.onChange = onChange
	if m.watching {
		m.mu.Unlock()
		return nil
	}
	m.watching = true
	m.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory, not the file: atomic renames replace the
	// inode and a file watch would go stale after the first save.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	go m.watchLoop(ctx, watcher)
	return nil
}

func (m *Manager) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()

	var timerMu sync.Mutex
	var timer *time.Timer
	schedule := func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(m.debounce, m.reload)
		timerMu.Unlock()
	}

	for {
		select {
		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(m.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if m.selfWrite.Load() {
				continue
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				m.logger.Warn("config watcher error", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// reload re-reads the file and applies it when it parses, validates
// and actually differs. A broken edit is logged and ignored so the
// running session keeps its last good config.
func (m *Manager) reload() {
	cfg, err := readConfigFile(m.path)
	if err != nil {
		m.logger.Warn("config reload failed", zap.String("path", m.path), zap.Error(err))
		return
	}
	if err := cfg.Validate(); err != nil {
		m.logger.Warn("config reload rejected", zap.Error(err))
		return
	}
	if reflect.DeepEqual(m.Get(), cfg) {
		return
	}
	m.logger.Info("config reloaded from disk", zap.String("path", m.path))
	m.apply(cfg)
}

func (m *Manager) apply(cfg Config) {
	m.mu.Lock()
	m.cfg = cfg
	cb := m.onChange
	m.mu.Unlock()
	if cb != nil {
		cb(cfg)
	}
}

func readOrSeed(path string) (Config, error) {
	cfg, err := readConfigFile(path)
	if err == nil {
		if err := cfg.Validate(); err != nil {
			return Config{}, err
		}
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	cfg = *DefaultConfigWithRoot(filepath.Dir(path))
	if err := writeConfigFile(path, cfg); err != nil {
		return Config{}, fmt.Errorf("write initial config: %w", err)
	}
	return cfg, nil
}

func readConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// writeConfigFile saves via temp file plus rename so a crash mid-write
// never leaves a truncated config behind.
func writeConfigFile(path string, cfg Config) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "cfg-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&cfg); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("encode config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("flush config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close temp config: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

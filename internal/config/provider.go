package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Provider hands the orchestrator the current settings. Implementations
// must be safe for concurrent use; the orchestrator calls both methods
// on every dispatch and tolerates the answers changing between
// dispatches.
type Provider interface {
	Settings() []ScriptSetting
	Globals() GlobalSettings
}

// Static wraps a fixed Config as a Provider. Used by tests and one-shot
// CLI commands.
type Static struct {
	Config *Config
}

func (s Static) Settings() []ScriptSetting { return s.Config.Settings }
func (s Static) Globals() GlobalSettings   { return s.Config.Scripts }

// FileProvider serves settings from a config file and reloads it when
// the file changes on disk. The current config is published atomically;
// readers never block writers.
type FileProvider struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[Config]
	watcher *fsnotify.Watcher
}

// NewFileProvider loads path and starts watching it for changes.
func NewFileProvider(path string, logger *slog.Logger) (*FileProvider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	p := &FileProvider{path: path, logger: logger}
	p.current.Store(cfg)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config watcher: %w", err)
	}
	// Watch the directory: editors replace files on save, which drops a
	// watch held on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch config dir: %w", err)
	}
	p.watcher = watcher

	go p.watch()
	return p, nil
}

func (p *FileProvider) Settings() []ScriptSetting { return p.current.Load().Settings }
func (p *FileProvider) Globals() GlobalSettings   { return p.current.Load().Scripts }

// Close stops the file watcher.
func (p *FileProvider) Close() error {
	if p.watcher != nil {
		return p.watcher.Close()
	}
	return nil
}

func (p *FileProvider) watch() {
	for {
		select {
		case ev, ok := <-p.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(p.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			p.reload()
		case err, ok := <-p.watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", "error", err)
		}
	}
}

func (p *FileProvider) reload() {
	cfg, err := Load(p.path)
	if err != nil {
		p.logger.Error("config reload failed, keeping previous settings", "path", p.path, "error", err)
		return
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			p.logger.Warn("config reload validation", "issue", e)
		}
	}
	p.current.Store(cfg)
	p.logger.Info("config reloaded", "path", p.path, "settings", len(cfg.Settings))
}

package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-reads the config file on write events and hands the new
// value to a callback. Fields unsafe to change live (server host/port)
// are still present in the reloaded value; callers that need to ignore
// them should compare with Diff and apply only the safe subset, the same
// split the teacher's SetConfig/config_reload_test.go draws between
// fields a running Monitor can pick up and ones that require a restart.
type Watcher struct {
	path     string
	logger   *slog.Logger
	onReload func(*Config)
}

// NewWatcher builds a config file watcher. onReload is invoked with the
// freshly parsed config every time path changes on disk and reparses
// successfully; parse failures are logged and the previous config is left
// in effect.
func NewWatcher(path string, logger *slog.Logger, onReload func(*Config)) *Watcher {
	return &Watcher{path: path, logger: logger, onReload: onReload}
}

// Run blocks watching path until ctx is cancelled. A missing directory
// for path is a startup-time InvariantViolation equivalent: Run logs and
// returns without error, since hot reload is a convenience, not a
// correctness requirement.
func (w *Watcher) Run(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn("config watcher unavailable", "error", err)
		return
	}
	defer watcher.Close()

	dir := dirOf(w.path)
	if err := watcher.Add(dir); err != nil {
		w.logger.Warn("config watch add failed", "dir", dir, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.logger.Warn("config reload failed, keeping previous config", "error", err)
				continue
			}
			w.logger.Info("config reloaded", "path", w.path)
			w.onReload(cfg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func dirOf(path string) string {
	i := len(path) - 1
	for i >= 0 && path[i] != '/' {
		i--
	}
	if i < 0 {
		return "."
	}
	return path[:i]
}

package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the config file when it changes on disk and hands
// the validated result to a callback. Invalid edits are logged and
// dropped; the previous configuration stays in effect.
type Watcher struct {
	path string
	log  *zap.SugaredLogger
	fw   *fsnotify.Watcher
}

// NewWatcher watches the config file at path. The parent directory is
// watched rather than the file itself so editors that replace the
// file (write temp + rename) keep triggering events.
func NewWatcher(path string, log *zap.SugaredLogger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}
	return &Watcher{path: path, log: log.Named("config"), fw: fw}, nil
}

// Run delivers reloaded configs to onChange until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, onChange func(*Config)) {
	defer w.fw.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if ev.Name != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				w.log.Warnw("ignoring config change", "error", err)
				continue
			}
			w.log.Infow("config reloaded", "path", w.path)
			onChange(cfg)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warnw("watch error", "error", err)
		}
	}
}

package questions

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Reloader watches the question-bank file (and any extra config paths) for
// changes and triggers hot-reload.
type Reloader struct {
	watcher *fsnotify.Watcher
	log     *zap.Logger
	reload  func() error
	paths   []string
}

// NewReloader creates a debounced file watcher over the given paths.
// Paths that are empty or do not exist are skipped. reload is invoked after
// each settled change.
func NewReloader(log *zap.Logger, reload func() error, paths ...string) (*Reloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	var watched []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := watcher.Add(p); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("watch %q: %w", p, err)
		}
		watched = append(watched, p)
	}

	return &Reloader{watcher: watcher, log: log, reload: reload, paths: watched}, nil
}

// Paths returns the paths actually under watch.
func (r *Reloader) Paths() []string { return r.paths }

// Run watches for file changes and reloads. Blocks until ctx is cancelled.
func (r *Reloader) Run(ctx context.Context) error {
	defer r.watcher.Close()

	// Debounce: wait 500ms after the last write before reloading.
	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-r.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(500*time.Millisecond, func() {
					if err := r.reload(); err != nil {
						r.log.Warn("hot-reload failed", zap.Error(err))
					} else {
						r.log.Info("hot-reload complete", zap.Strings("paths", r.paths))
					}
				})
			}

		case err, ok := <-r.watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("file watcher error", zap.Error(err))
		}
	}
}

package assetcache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events editors emit for one save.
const reloadDelay = 200 * time.Millisecond

// Reloader registers the manifest again whenever its file changes, which
// rolls the cache over when the version string is bumped.
type Reloader struct {
	path       string
	controller *Controller
	logger     *slog.Logger
}

// NewReloader watches path on behalf of c.
func NewReloader(path string, c *Controller, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{path: filepath.Clean(path), controller: c, logger: logger}
}

// Run watches until ctx is done. The directory is watched rather than the
// file so that atomic replace-on-save is seen.
func (r *Reloader) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(r.path), err)
	}
	r.logger.Info("Watching asset manifest", "path", r.path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != r.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(reloadDelay)
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("Manifest watcher error", "error", err)

		case <-fire:
			fire = nil
			r.reload(ctx)
		}
	}
}

func (r *Reloader) reload(ctx context.Context) {
	m, err := LoadManifest(r.path)
	if err != nil {
		r.logger.Warn("Ignoring unreadable manifest", "path", r.path, "error", err)
		return
	}
	if err := r.controller.Register(ctx, m); err != nil {
		r.logger.Warn("Keeping current asset cache", "active", r.controller.Version(), "error", err)
	}
}

package assetcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrInstall is returned when a version's cache could not be populated.
var ErrInstall = errors.New("asset cache install failed")

// State is a worker's lifecycle step.
type State int

const (
	StateNew State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
	// StateRedundant marks a worker that failed to install or was replaced.
	StateRedundant
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Worker owns one cache version.
type Worker struct {
	manifest Manifest
	storage  *Storage
	fetcher  Fetcher
	logger   *slog.Logger

	mu    sync.Mutex
	state State
}

// NewWorker prepares a worker for m. Nothing is fetched until Install.
func NewWorker(m Manifest, storage *Storage, f Fetcher, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		manifest: m,
		storage:  storage,
		fetcher:  f,
		logger:   logger.With("cache", m.Version),
	}
}

// Version is the name of the worker's cache.
func (w *Worker) Version() string { return w.manifest.Version }

// State returns the current lifecycle step.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Worker) setState(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = s
}

// Install opens the version's cache and fills it with every manifest
// asset. If any asset fails the worker becomes redundant and a cache it
// created is removed again.
func (w *Worker) Install(ctx context.Context) error {
	w.setState(StateInstalling)
	existed := w.storage.Has(w.manifest.Version)
	cache := w.storage.Open(w.manifest.Version)
	w.logger.Info("Opened cache", "assets", len(w.manifest.Assets))

	if err := cache.AddAll(ctx, w.fetcher, w.manifest.Assets); err != nil {
		if !existed {
			w.storage.Delete(w.manifest.Version)
		}
		w.setState(StateRedundant)
		return fmt.Errorf("%w: %s: %w", ErrInstall, w.manifest.Version, err)
	}
	w.setState(StateInstalled)
	return nil
}

// Activate deletes every cache except this worker's own and returns the
// names it deleted.
func (w *Worker) Activate(context.Context) ([]string, error) {
	if s := w.State(); s != StateInstalled {
		return nil, fmt.Errorf("activate %s: worker is %s, not installed", w.manifest.Version, s)
	}
	w.setState(StateActivating)

	var deleted []string
	for _, name := range w.storage.Keys() {
		if name == w.manifest.Version {
			continue
		}
		w.logger.Info("Deleting old cache", "old", name)
		if w.storage.Delete(name) {
			deleted = append(deleted, name)
		}
	}
	w.setState(StateActive)
	return deleted, nil
}

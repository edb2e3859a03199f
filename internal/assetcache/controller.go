package assetcache

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/metrics"
)

// Controller installs and activates manifest versions and serves from the
// active one.
type Controller struct {
	storage *Storage
	fetcher Fetcher
	metrics *metrics.Metrics
	logger  *slog.Logger

	// serializes Register
	mu     sync.Mutex
	active atomic.Pointer[Worker]
}

// NewController uses f to populate caches in storage.
func NewController(storage *Storage, f Fetcher, m *metrics.Metrics, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{storage: storage, fetcher: f, metrics: m, logger: logger}
}

// Storage exposes the named caches.
func (c *Controller) Storage() *Storage { return c.storage }

// SetFetcher replaces the origin fetcher. The site's handler can only be
// wired in once the router exists.
func (c *Controller) SetFetcher(f Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetcher = f
}

// Active returns the serving worker, or nil before the first activation.
func (c *Controller) Active() *Worker {
	return c.active.Load()
}

// Version returns the active cache version, or "".
func (c *Controller) Version() string {
	if w := c.Active(); w != nil {
		return w.Version()
	}
	return ""
}

// Register installs m and, if that succeeds, activates it in place of the
// current version. Registering the active version again does nothing. A
// failed install leaves the current version serving.
func (c *Controller) Register(ctx context.Context, m Manifest) error {
	if err := m.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.active.Load()
	if prev != nil && prev.Version() == m.Version {
		return nil
	}

	w := NewWorker(m, c.storage, c.fetcher, c.logger)
	err := w.Install(ctx)
	c.metrics.Install(err)
	if err != nil {
		c.logger.Error("Asset cache install failed", "version", m.Version, "error", err)
		return err
	}

	deleted, err := w.Activate(ctx)
	if err != nil {
		return err
	}
	c.active.Store(w)
	if prev != nil {
		prev.setState(StateRedundant)
	}
	c.logger.Info("Asset cache activated", "version", m.Version, "evicted", deleted)
	return nil
}

// Match looks up r cache-first. Only GET requests are cacheable.
func (c *Controller) Match(r *http.Request) (*Entry, bool) {
	if r.Method != http.MethodGet || bypassed(r.Context()) {
		return nil, false
	}
	return c.storage.Match(r.URL.RequestURI())
}

// Middleware answers from the cache when it can and otherwise lets the
// request continue to the live handlers.
func (c *Controller) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		r := ctx.Request
		if r.Method != http.MethodGet || bypassed(r.Context()) {
			ctx.Next()
			return
		}
		e, ok := c.storage.Match(r.URL.RequestURI())
		c.metrics.CacheLookup(ok)
		if !ok {
			ctx.Next()
			return
		}
		e.Write(ctx.Writer)
		ctx.Abort()
	}
}

package assetcache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// origin serves a body per path; bodies can be changed and paths broken.
type origin struct {
	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

func newOrigin(bodies map[string]string) *origin {
	return &origin{bodies: bodies, hits: make(map[string]int)}
}

func (o *origin) set(path, body string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bodies[path] = body
}

func (o *origin) count(path string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits[path]
}

func (o *origin) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	o.mu.Lock()
	body, ok := o.bodies[r.URL.Path]
	o.hits[r.URL.Path]++
	o.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(body))
}

func siteOrigin() *origin {
	return newOrigin(map[string]string{
		"/":                  "home",
		"/style.css":         "body{}",
		"/script.js":         "console.log(1)",
		"/Images/Work 1.png": "png",
	})
}

func v1() Manifest {
	return Manifest{Version: "v1", Assets: []string{"/", "/style.css", "/script.js", "/Images/Work 1.png"}}
}

func TestAddAllIsAllOrNothing(t *testing.T) {
	o := siteOrigin()
	f := &HandlerFetcher{Handler: o}
	c := newCache()

	err := c.AddAll(context.Background(), f, []string{"/style.css", "/missing.png"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/missing.png")
	assert.Zero(t, c.Len())

	require.NoError(t, c.AddAll(context.Background(), f, []string{"/style.css", "/Images/Work 1.png"}))
	assert.Equal(t, []string{"/Images/Work%201.png", "/style.css"}, c.Keys())
	e, ok := c.Match("/style.css")
	require.True(t, ok)
	assert.Equal(t, "body{}", string(e.Body))
	assert.Equal(t, "text/plain", e.Header.Get("Content-Type"))
}

func TestStorageOrderAndDelete(t *testing.T) {
	s := NewStorage()
	a := s.Open("a")
	assert.Same(t, a, s.Open("a"))
	s.Open("b").Put("/x", &Entry{Status: 200, Body: []byte("from b")})
	a.Put("/x", &Entry{Status: 200, Body: []byte("from a")})

	assert.Equal(t, []string{"a", "b"}, s.Keys())
	e, ok := s.Match("/x")
	require.True(t, ok)
	assert.Equal(t, "from a", string(e.Body))

	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	e, ok = s.Match("/x")
	require.True(t, ok)
	assert.Equal(t, "from b", string(e.Body))
	assert.Equal(t, []string{"b"}, s.Keys())
}

func TestInstallFailureIsNotActivated(t *testing.T) {
	o := siteOrigin()
	storage := NewStorage()
	m := v1()
	m.Assets = append(m.Assets, "/gone.jpg")
	w := NewWorker(m, storage, &HandlerFetcher{Handler: o}, nil)

	err := w.Install(context.Background())
	assert.ErrorIs(t, err, ErrInstall)
	assert.Equal(t, StateRedundant, w.State())
	assert.False(t, storage.Has("v1"))

	_, err = w.Activate(context.Background())
	assert.Error(t, err)
}

func TestActivateEvictsStaleCaches(t *testing.T) {
	storage := NewStorage()
	storage.Open("v1").Put("/", &Entry{Status: 200})
	storage.Open("unrelated")

	m := v1()
	m.Version = "v2"
	w := NewWorker(m, storage, &HandlerFetcher{Handler: siteOrigin()}, nil)
	require.NoError(t, w.Install(context.Background()))
	assert.Equal(t, []string{"v1", "unrelated", "v2"}, storage.Keys())

	deleted, err := w.Activate(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"v1", "unrelated"}, deleted)
	assert.Equal(t, []string{"v2"}, storage.Keys())
	assert.Equal(t, StateActive, w.State())
}

func newRouter(c *Controller, o *origin) *gin.Engine {
	r := gin.New()
	r.Use(c.Middleware())
	r.Any("/*path", gin.WrapH(o))
	return r
}

func TestControllerServesCacheFirst(t *testing.T) {
	o := siteOrigin()
	m := metrics.New(prometheus.NewRegistry())
	c := NewController(NewStorage(), nil, m, nil)
	r := newRouter(c, o)
	c.SetFetcher(&HandlerFetcher{Handler: r})

	require.NoError(t, c.Register(context.Background(), v1()))
	assert.Equal(t, "v1", c.Version())
	assert.Equal(t, 1, o.count("/style.css"))

	// origin changes; the cached copy keeps being served
	o.set("/style.css", "body{color:red}")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	assert.Equal(t, 1, o.count("/style.css"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/Images/Work%201.png", nil))
	assert.Equal(t, "png", rec.Body.String())

	// not in the manifest: straight to the network, nothing stored
	o.set("/about", "about")
	for i := 0; i < 2; i++ {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/about", nil))
		assert.Equal(t, "about", rec.Body.String())
	}
	assert.Equal(t, 2, o.count("/about"))

	// query strings are part of the key
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/style.css?v=2", nil))
	assert.Equal(t, "body{color:red}", rec.Body.String())

	// only GET is answered from cache
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/style.css", nil))
	assert.Equal(t, 3, o.count("/style.css"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheInstall.WithLabelValues("ok")))
}

func TestControllerVersionRollover(t *testing.T) {
	o := siteOrigin()
	c := NewController(NewStorage(), nil, nil, nil)
	r := newRouter(c, o)
	c.SetFetcher(&HandlerFetcher{Handler: r})
	ctx := context.Background()

	require.NoError(t, c.Register(ctx, v1()))
	first := c.Active()

	// same version again is a no-op
	require.NoError(t, c.Register(ctx, v1()))
	assert.Same(t, first, c.Active())

	// a new version whose install fails keeps v1 serving
	broken := v1()
	broken.Version = "v2"
	broken.Assets = append(broken.Assets, "/nope.js")
	err := c.Register(ctx, broken)
	assert.ErrorIs(t, err, ErrInstall)
	assert.Equal(t, "v1", c.Version())
	assert.Equal(t, []string{"v1"}, c.Storage().Keys())

	// the fetch for v2 must reach the origin, not the v1 cache
	o.set("/style.css", "body{v2}")
	next := v1()
	next.Version = "v2"
	require.NoError(t, c.Register(ctx, next))
	assert.Equal(t, "v2", c.Version())
	assert.Equal(t, []string{"v2"}, c.Storage().Keys())
	assert.Equal(t, StateRedundant, first.State())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/style.css", nil))
	assert.Equal(t, "body{v2}", rec.Body.String())
}

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte("version: portfolio-v1.0.0\nassets:\n  - /\n  - /style.css\n"))
	require.NoError(t, err)
	assert.Equal(t, "portfolio-v1.0.0", m.Version)
	assert.Equal(t, []string{"/", "/style.css"}, m.Assets)

	for _, bad := range []string{
		"assets: [/]",
		"version: v1",
		"version: v1\nassets: [style.css]",
		"version: v1\nassets: [/a, /a]",
		"version: [",
	} {
		_, err := ParseManifest([]byte(bad))
		assert.Error(t, err, bad)
	}
}

func TestReloaderRollsVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "assets.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: v1\nassets: [/, /style.css]\n"), 0o644))

	o := siteOrigin()
	c := NewController(NewStorage(), nil, nil, nil)
	c.SetFetcher(&HandlerFetcher{Handler: newRouter(c, o)})
	m, err := LoadManifest(path)
	require.NoError(t, err)
	require.NoError(t, c.Register(context.Background(), m))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewReloader(path, c, nil).Run(ctx) }()

	// give the watcher time to start
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("version: v2\nassets: [/, /style.css, /script.js]\n"), 0o644))

	require.Eventually(t, func() bool { return c.Version() == "v2" }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, []string{"v2"}, c.Storage().Keys())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reloader did not stop")
	}
}

func TestHandlerFetcherRejectsErrors(t *testing.T) {
	f := &HandlerFetcher{Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, bypassed(r.Context()))
		w.WriteHeader(http.StatusInternalServerError)
	})}
	_, err := f.Fetch(context.Background(), "/")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrInstall))
}

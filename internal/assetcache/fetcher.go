package assetcache

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
)

// Fetcher retrieves one asset from the origin.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Entry, error)
}

type bypassKey struct{}

// withBypass marks a request as coming from the cache itself, so the
// cache-first middleware lets it through to the origin.
func withBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, bypassKey{}, true)
}

func bypassed(ctx context.Context) bool {
	v, _ := ctx.Value(bypassKey{}).(bool)
	return v
}

// HandlerFetcher fetches assets by running them through the site's own
// handler in-process.
type HandlerFetcher struct {
	Handler http.Handler
}

func (f *HandlerFetcher) Fetch(ctx context.Context, url string) (*Entry, error) {
	req, err := http.NewRequestWithContext(withBypass(ctx), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	f.Handler.ServeHTTP(rec, req)

	res := rec.Result()
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	body := make([]byte, rec.Body.Len())
	copy(body, rec.Body.Bytes())
	return &Entry{Status: res.StatusCode, Header: res.Header.Clone(), Body: body}, nil
}

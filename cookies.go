package main

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/store"
)

const (
	cookiePrefix = "pf-"
	cookieMaxAge = 3600 * 24 * 365
)

// cookieKV keeps a visitor's key-value namespace in their own cookies.
// Writes are visible to later reads in the same request.
type cookieKV struct {
	c       *gin.Context
	written map[string]*string
}

var _ store.KV = (*cookieKV)(nil)

func newCookieKV(c *gin.Context) *cookieKV {
	return &cookieKV{c: c, written: make(map[string]*string)}
}

func (k *cookieKV) Get(_ context.Context, key string) (string, error) {
	if v, ok := k.written[key]; ok {
		if v == nil {
			return "", store.ErrNotFound
		}
		return *v, nil
	}
	v, err := k.c.Cookie(cookiePrefix + key)
	if err != nil || v == "" {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (k *cookieKV) Set(_ context.Context, key, value string) error {
	k.c.SetSameSite(http.SameSiteLaxMode)
	k.c.SetCookie(cookiePrefix+key, url.QueryEscape(value), cookieMaxAge, "/", "", false, true)
	k.written[key] = &value
	return nil
}

func (k *cookieKV) Delete(_ context.Context, key string) error {
	k.c.SetCookie(cookiePrefix+key, "", -1, "/", "", false, true)
	k.written[key] = nil
	return nil
}

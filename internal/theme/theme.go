// Package theme resolves the visitor's light/dark preference.
package theme

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zachkp/portfolio/internal/store"
)

// Theme is a colour scheme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse accepts "light" or "dark".
func Parse(s string) (Theme, error) {
	switch Theme(s) {
	case Light, Dark:
		return Theme(s), nil
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// FromSystem maps the system dark-mode preference to a theme.
func FromSystem(systemDark bool) Theme {
	if systemDark {
		return Dark
	}
	return Light
}

// Service reads and writes the preference in a KV namespace under
// store.KeyTheme and store.KeyThemeManual.
type Service struct {
	kv store.KV
}

// NewService binds the preference to kv.
func NewService(kv store.KV) *Service {
	return &Service{kv: kv}
}

// Current returns the saved theme, or the system-derived one when nothing
// (or something unreadable) is saved.
func (s *Service) Current(ctx context.Context, systemDark bool) (Theme, error) {
	raw, err := s.kv.Get(ctx, store.KeyTheme)
	if errors.Is(err, store.ErrNotFound) {
		return FromSystem(systemDark), nil
	}
	if err != nil {
		return "", err
	}
	t, err := Parse(raw)
	if err != nil {
		return FromSystem(systemDark), nil
	}
	return t, nil
}

// Manual reports whether the visitor has picked a theme themselves.
func (s *Service) Manual(ctx context.Context) (bool, error) {
	raw, err := s.kv.Get(ctx, store.KeyThemeManual)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return raw == "true", nil
}

// Toggle flips the current theme, saves it and marks it manually set.
func (s *Service) Toggle(ctx context.Context, systemDark bool) (Theme, error) {
	cur, err := s.Current(ctx, systemDark)
	if err != nil {
		return "", err
	}
	next := cur.Opposite()
	if err := s.kv.Set(ctx, store.KeyTheme, string(next)); err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, store.KeyThemeManual, "true"); err != nil {
		return "", err
	}
	return next, nil
}

// SystemChanged returns the theme to show after the system preference
// changed, and whether the change applies. A manual choice always wins.
func (s *Service) SystemChanged(ctx context.Context, systemDark bool) (Theme, bool, error) {
	manual, err := s.Manual(ctx)
	if err != nil {
		return "", false, err
	}
	if manual {
		cur, err := s.Current(ctx, systemDark)
		return cur, false, err
	}
	return FromSystem(systemDark), true, nil
}

// Package store persists the site's small amount of local state: a
// key-value namespace (theme flags and the single pending contact message)
// and an append-only log of contact submission outcomes.
package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("not found")

// Keys of the local key-value namespace.
const (
	KeyTheme          = "theme"
	KeyThemeManual    = "theme-manual"
	KeyPendingMessage = "pending-message"
)

// KV is a flat string key-value namespace.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Submission is one terminal outcome of the contact pipeline.
type Submission struct {
	ID        string    `json:"id"`
	State     string    `json:"state"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// SubmissionLog records contact outcomes for the admin dashboard.
type SubmissionLog interface {
	Record(ctx context.Context, s *Submission) error
	Counts(ctx context.Context) (map[string]int64, error)
	Recent(ctx context.Context, limit int) ([]Submission, error)
}

// MemoryKV is an in-process KV.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV returns an empty MemoryKV.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

var _ KV = (*MemoryKV)(nil)

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Zachkp/portfolio/internal/store"
)

// PendingSlot holds at most one message waiting for connectivity. Saving
// overwrites whatever was there.
type PendingSlot struct {
	kv store.KV

	// serializes read-modify-write sequences
	mu sync.Mutex
}

// NewPendingSlot stores the pending message under store.KeyPendingMessage.
func NewPendingSlot(kv store.KV) *PendingSlot {
	return &PendingSlot{kv: kv}
}

// Save replaces the pending message with msg.
func (p *PendingSlot) Save(ctx context.Context, msg ContactMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.save(ctx, msg)
}

func (p *PendingSlot) save(ctx context.Context, msg ContactMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode pending message: %w", err)
	}
	return p.kv.Set(ctx, store.KeyPendingMessage, string(raw))
}

// Load returns the pending message and whether one exists.
func (p *PendingSlot) Load(ctx context.Context) (ContactMessage, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load(ctx)
}

func (p *PendingSlot) load(ctx context.Context) (ContactMessage, bool, error) {
	raw, err := p.kv.Get(ctx, store.KeyPendingMessage)
	if errors.Is(err, store.ErrNotFound) {
		return ContactMessage{}, false, nil
	}
	if err != nil {
		return ContactMessage{}, false, err
	}
	var msg ContactMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		return ContactMessage{}, false, fmt.Errorf("decode pending message: %w", err)
	}
	return msg, true, nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (p *PendingSlot) Clear(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kv.Delete(ctx, store.KeyPendingMessage)
}

// Swap saves msg and returns the message it displaced, if there was one.
// An unreadable record is overwritten and not reported.
func (p *PendingSlot) Swap(ctx context.Context, msg ContactMessage) (ContactMessage, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev, ok, err := p.load(ctx)
	if err != nil {
		prev, ok = ContactMessage{}, false
	}
	if err := p.save(ctx, msg); err != nil {
		return ContactMessage{}, false, err
	}
	return prev, ok, nil
}

// ClearIf empties the slot only while it still holds msg, and reports
// whether it did.
func (p *PendingSlot) ClearIf(ctx context.Context, msg ContactMessage) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok, err := p.load(ctx)
	if err != nil || !ok || cur != msg {
		return false, err
	}
	return true, p.kv.Delete(ctx, store.KeyPendingMessage)
}

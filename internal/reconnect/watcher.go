package reconnect

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/metrics"
)

// FlushResult says what a flush did.
type FlushResult int

const (
	// FlushNone means the slot was empty; nothing happened.
	FlushNone FlushResult = iota
	// FlushSent means the message was delivered and the slot cleared.
	FlushSent
	// FlushFailed means the send failed and the message stays queued.
	FlushFailed
)

func (r FlushResult) String() string {
	switch r {
	case FlushNone:
		return "none"
	case FlushSent:
		return "sent"
	case FlushFailed:
		return "failed"
	}
	return fmt.Sprintf("flush(%d)", int(r))
}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// Delay is waited between announcing the resend and sending.
	Delay   time.Duration
	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// Watcher resends the pending message when connectivity returns.
type Watcher struct {
	pending   *contact.PendingSlot
	transport contact.Transport
	notifier  contact.Notifier
	opts      WatcherOptions

	// one flush at a time
	mu sync.Mutex
}

// NewWatcher builds a Watcher that reports through notifier.
func NewWatcher(pending *contact.PendingSlot, t contact.Transport, notifier contact.Notifier, opts WatcherOptions) *Watcher {
	if opts.Timeout <= 0 {
		opts.Timeout = contact.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Watcher{pending: pending, transport: t, notifier: notifier, opts: opts}
}

// Attach subscribes the watcher to m's transitions.
func (w *Watcher) Attach(m *Monitor) {
	m.OnOnline(func(ctx context.Context) {
		if _, err := w.HandleOnline(ctx); err != nil {
			w.opts.Logger.Error("Pending message flush failed", "error", err)
		}
	})
	m.OnOffline(w.HandleOffline)
}

// HandleOffline tells the visitor features are limited.
func (w *Watcher) HandleOffline(context.Context) {
	w.notifier.Notify(contact.Notification{Kind: contact.KindWarning, Message: "You are offline. Some features may be limited."})
}

// HandleOnline flushes the pending message, if there is one. With an empty
// slot it does nothing, so repeated calls are safe.
func (w *Watcher) HandleOnline(ctx context.Context) (FlushResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	msg, ok, err := w.pending.Load(ctx)
	if err != nil {
		return FlushNone, fmt.Errorf("load pending message: %w", err)
	}
	if !ok {
		return FlushNone, nil
	}

	w.notifier.Notify(contact.Notification{Kind: contact.KindInfo, Message: "You are back online! Sending your saved message..."})

	if w.opts.Delay > 0 {
		t := time.NewTimer(w.opts.Delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return FlushFailed, ctx.Err()
		case <-t.C:
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.opts.Timeout)
	_, err = w.transport.Send(sendCtx, msg)
	cancel()
	if err != nil {
		w.opts.Logger.Warn("Resend of pending message failed", "email", msg.Email, "error", err)
		w.notifier.Notify(contact.Notification{
			Kind:    contact.KindError,
			Message: "Your saved message could not be sent yet. It will be tried again when the connection returns.",
		})
		return FlushFailed, nil
	}

	// A newer offline submission may have replaced the slot while sending.
	cleared, err := w.pending.ClearIf(ctx, msg)
	if err != nil {
		return FlushSent, fmt.Errorf("clear pending message: %w", err)
	}
	if cleared {
		w.opts.Metrics.SetPending(false)
	}

	w.opts.Logger.Info("Pending message sent", "email", msg.Email)
	w.notifier.Notify(contact.Notification{Kind: contact.KindSuccess, Message: "Your saved message was sent successfully!"})
	return FlushSent, nil
}

package contact

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Kind is the severity of a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Notification is a visible message for the visitor.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier shows notifications.
type Notifier interface {
	Notify(n Notification)
}

// UI is the surface the submission pipeline drives while it runs.
type UI interface {
	Notifier
	// Announce updates the assistive-technology live region.
	Announce(msg string)
	// SetStatus updates the form's status region.
	SetStatus(msg string)
	// SetBusy disables (true) or restores (false) the submit control.
	SetBusy(busy bool)
	// ShowFieldErrors sets the error display of each field; an empty
	// message clears it.
	ShowFieldErrors(errs map[string]string)
	// Reset clears the form fields.
	Reset()
}

// Recorder is a UI that keeps everything it is told. The contact handler
// renders from it; tests assert on it.
type Recorder struct {
	mu            sync.Mutex
	Notifications []Notification
	Announcements []string
	Statuses      []string
	FieldErrors   map[string]string
	Busy          bool
	BusyChanges   int
	Resets        int
}

var _ UI = (*Recorder)(nil)

func (r *Recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Notifications = append(r.Notifications, n)
}

func (r *Recorder) Announce(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Announcements = append(r.Announcements, msg)
}

func (r *Recorder) SetStatus(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Statuses = append(r.Statuses, msg)
}

func (r *Recorder) SetBusy(busy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Busy = busy
	r.BusyChanges++
}

func (r *Recorder) ShowFieldErrors(errs map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FieldErrors = make(map[string]string, len(errs))
	for k, v := range errs {
		r.FieldErrors[k] = v
	}
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Resets++
}

// Last returns the most recent notification, if any.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Notifications) == 0 {
		return Notification{}, false
	}
	return r.Notifications[len(r.Notifications)-1], true
}

// Feed is a bounded, newest-last list of notifications raised outside any
// request, such as by the reconnect watcher. Every entry is also logged.
type Feed struct {
	mu     sync.Mutex
	limit  int
	items  []Notification
	logger *slog.Logger
}

// NewFeed keeps at most limit notifications.
func NewFeed(limit int, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{limit: limit, logger: logger}
}

func (f *Feed) Notify(n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}
	level := slog.LevelInfo
	if n.Kind == KindError || n.Kind == KindWarning {
		level = slog.LevelWarn
	}
	f.logger.Log(context.Background(), level, "Notification", "kind", n.Kind, "message", n.Message)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, n)
	if len(f.items) > f.limit {
		f.items = f.items[len(f.items)-f.limit:]
	}
}

// Items returns a copy of the retained notifications.
func (f *Feed) Items() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Notification, len(f.items))
	copy(out, f.items)
	return out
}

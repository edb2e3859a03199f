package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Zachkp/portfolio/internal/metrics"
	"github.com/Zachkp/portfolio/internal/store"
)

// State is a step of a submission.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateSending
	StateSuccess
	StateFailed
	StateTimedOut
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSending:
		return "sending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	case StateOffline:
		return "offline"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// OutcomeDropped is logged for a pending message that was overwritten
// before it could be sent.
const OutcomeDropped = "dropped"

// DefaultTimeout is the client-side deadline for one send.
const DefaultTimeout = 10 * time.Second

// Status region texts.
const (
	StatusSending = "Sending message, please wait..."
	StatusSent    = "Message sent successfully"
	StatusFailed  = "Failed to send message"
)

// Connectivity reports whether the upstream is believed reachable.
type Connectivity interface {
	Online() bool
}

// AlwaysOnline is a Connectivity that never reports offline.
type AlwaysOnline struct{}

func (AlwaysOnline) Online() bool { return true }

// Options configures a Submitter. Zero values get defaults.
type Options struct {
	Timeout       time.Duration
	FallbackEmail string
	Connectivity  Connectivity
	Pending       *PendingSlot
	// Alerts receives notices meant for the site owner rather than the
	// visitor, such as a pending message being displaced.
	Alerts  Notifier
	Log     store.SubmissionLog
	Metrics *metrics.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
	// OnTransition, when set, sees every state change.
	OnTransition func(from, to State)
}

// Submitter runs the contact pipeline: honeypot check, validation, a
// deadline-bound send, and classification of the outcome. It never retries.
type Submitter struct {
	transport Transport
	opts      Options
}

// NewSubmitter builds a Submitter sending through t.
func NewSubmitter(t Transport, opts Options) *Submitter {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Connectivity == nil {
		opts.Connectivity = AlwaysOnline{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Submitter{transport: t, opts: opts}
}

// Result is what a Submit call ended in.
type Result struct {
	// State is the terminal state reached, or StateIdle when the
	// submission never left the form.
	State   State
	Spam    bool
	Message ContactMessage
	Receipt Receipt
	Err     error
}

// Submit runs one submission, driving ui along the way. Every path that
// reaches the network restores the submit control before returning.
func (s *Submitter) Submit(ctx context.Context, form Form, ui UI) Result {
	state := StateIdle
	move := func(to State) {
		if s.opts.OnTransition != nil {
			s.opts.OnTransition(state, to)
		}
		state = to
	}

	// honeypot: silently drop, no feedback
	if form.Honeypot != "" {
		s.opts.Logger.Info("Spam detected - honeypot filled", "user_agent", form.UserAgent)
		return Result{State: StateIdle, Spam: true}
	}

	move(StateValidating)
	check := ValidateForm(form)
	ui.ShowFieldErrors(fieldDisplay(check))
	if !check.Valid() {
		s.rejectInvalid(ui, check)
		move(StateIdle)
		return Result{State: StateIdle, Err: fmt.Errorf("%w: %s", ErrValidation, check.Summary())}
	}

	msg := NewMessage(form, s.opts.Now())
	if recheck := ValidateMessage(msg); !recheck.Valid() {
		s.rejectInvalid(ui, recheck)
		move(StateIdle)
		return Result{State: StateIdle, Message: msg, Err: fmt.Errorf("%w: %s", ErrValidation, recheck.Summary())}
	}

	move(StateSending)
	ui.SetBusy(true)
	ui.SetStatus(StatusSending)
	defer ui.SetBusy(false)

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	receipt, err := s.transport.Send(sendCtx, msg)
	timedOut := errors.Is(sendCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil
	cancel()

	res := Result{Message: msg, Receipt: receipt}
	switch {
	case err == nil:
		move(StateSuccess)
		ui.Reset()
		if receipt.Confirmed {
			ui.Notify(Notification{Kind: KindSuccess, Message: "Message sent successfully! I'll get back to you soon."})
		} else {
			ui.Notify(Notification{Kind: KindSuccess, Message: "Message dispatched. If you don't hear back, please email me directly."})
		}
		ui.Announce(StatusSent)
		ui.SetStatus(StatusSent)

	case timedOut:
		move(StateTimedOut)
		res.Err = fmt.Errorf("%w after %s: %w", ErrTimeout, s.opts.Timeout, err)
		s.fail(ui, "Request timed out. Please check your connection and try again.")

	case !isUpstream(err) && !s.opts.Connectivity.Online():
		move(StateOffline)
		res.Err = fmt.Errorf("%w: %w", ErrOffline, err)
		s.queue(ctx, ui, msg)

	default:
		move(StateFailed)
		res.Err = err
		s.fail(ui, "Failed to send message. Please try again.")
	}

	res.State = state
	s.record(ctx, res)
	move(StateIdle)
	return res
}

func (s *Submitter) rejectInvalid(ui UI, check FormResult) {
	ui.Notify(Notification{
		Kind:    KindError,
		Message: "Please fix the errors in the form before submitting. " + check.Summary(),
	})
	ui.Announce("Form has errors")
}

func (s *Submitter) fail(ui UI, text string) {
	ui.Notify(Notification{Kind: KindError, Message: text + s.fallbackHint()})
	ui.Announce(StatusFailed)
	ui.SetStatus(StatusFailed)
}

func (s *Submitter) queue(ctx context.Context, ui UI, msg ContactMessage) {
	text := "You appear to be offline. Your message has been saved and will be sent when the connection returns."
	if s.opts.Pending == nil {
		text = "You appear to be offline. Please check your connection." + s.fallbackHint()
	} else if prev, displaced, err := s.opts.Pending.Swap(ctx, msg); err != nil {
		s.opts.Logger.Error("Failed to save pending message", "error", err)
		text = "You appear to be offline and your message could not be saved." + s.fallbackHint()
	} else {
		s.opts.Metrics.SetPending(true)
		if displaced && prev != msg {
			s.dropped(ctx, prev)
		}
	}
	ui.Notify(Notification{Kind: KindWarning, Message: text})
	ui.Announce(StatusFailed)
	ui.SetStatus(StatusFailed)
}

// dropped reports a pending message that a newer offline submission
// replaced. Only the log keeps its full text.
func (s *Submitter) dropped(ctx context.Context, prev ContactMessage) {
	s.opts.Logger.Warn("Pending message replaced before it was sent",
		"name", prev.Name,
		"email", prev.Email,
		"subject", prev.Subject,
		"message", prev.Message,
		"timestamp", prev.Timestamp,
	)
	s.opts.Metrics.Submission(OutcomeDropped)
	if s.opts.Alerts != nil {
		s.opts.Alerts.Notify(Notification{
			Kind:    KindWarning,
			Message: fmt.Sprintf("A saved message from %s <%s> was replaced by a newer one before it could be sent. Its text is in the server log.", prev.Name, prev.Email),
		})
	}
	if s.opts.Log == nil {
		return
	}
	sub := &store.Submission{State: OutcomeDropped, Name: prev.Name, Email: prev.Email, Subject: prev.Subject}
	if err := s.opts.Log.Record(ctx, sub); err != nil {
		s.opts.Logger.Error("Failed to record submission", "error", err)
	}
}

func (s *Submitter) fallbackHint() string {
	if s.opts.FallbackEmail == "" {
		return ""
	}
	return " You can also email me directly at " + s.opts.FallbackEmail
}

func (s *Submitter) record(ctx context.Context, res Result) {
	s.opts.Metrics.Submission(res.State.String())

	attrs := []any{"state", res.State.String(), "email", res.Message.Email}
	if res.Err != nil {
		s.opts.Logger.Warn("Contact submission did not go through", append(attrs, "error", res.Err)...)
	} else {
		s.opts.Logger.Info("Contact submission sent", attrs...)
	}

	if s.opts.Log == nil {
		return
	}
	sub := &store.Submission{
		State:   res.State.String(),
		Name:    res.Message.Name,
		Email:   res.Message.Email,
		Subject: res.Message.Subject,
	}
	if err := s.opts.Log.Record(ctx, sub); err != nil {
		s.opts.Logger.Error("Failed to record submission", "error", err)
	}
}

// fieldDisplay maps every field to its message, "" for passing fields, so
// stale errors get cleared.
func fieldDisplay(r FormResult) map[string]string {
	out := make(map[string]string, len(r.Fields))
	for name, f := range r.Fields {
		out[name] = f.Message
	}
	return out
}

func isUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// Package contact implements the contact form pipeline: field validation,
// input sanitizing, dispatch to the upstream endpoint with a deadline, and
// offline queuing of a single pending message.
package contact

import (
	"time"
)

// Field names, in the order they are validated and reported.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldSubject = "subject"
	FieldMessage = "message"
)

// Fields lists the user-supplied fields in form order.
var Fields = []string{FieldName, FieldEmail, FieldSubject, FieldMessage}

// isoLayout matches the millisecond UTC timestamps browsers produce.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Form is a raw submission as posted by the visitor.
type Form struct {
	Name     string
	Email    string
	Subject  string
	Message  string
	Honeypot string

	UserAgent string
	Referrer  string
}

// Value returns the raw value of a named field.
func (f Form) Value(field string) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldSubject:
		return f.Subject
	case FieldMessage:
		return f.Message
	}
	return ""
}

// ContactMessage is the sanitized payload sent upstream. It is built once
// at submit time and never mutated afterwards.
type ContactMessage struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
}

// NewMessage sanitizes the user-supplied fields of f and stamps the
// message with now.
func NewMessage(f Form, now time.Time) ContactMessage {
	return ContactMessage{
		Name:      Sanitize(f.Name),
		Email:     Sanitize(f.Email),
		Subject:   Sanitize(f.Subject),
		Message:   Sanitize(f.Message),
		Timestamp: now.UTC().Format(isoLayout),
		UserAgent: f.UserAgent,
		Referrer:  f.Referrer,
	}
}

// Value returns the value of a named user-supplied field.
func (m ContactMessage) Value(field string) string {
	switch field {
	case FieldName:
		return m.Name
	case FieldEmail:
		return m.Email
	case FieldSubject:
		return m.Subject
	case FieldMessage:
		return m.Message
	}
	return ""
}

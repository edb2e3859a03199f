package contact

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// LiveDelay is the idle time after the last keystroke before a field is
// re-validated. The page's input trigger carries it.
const LiveDelay = 300 * time.Millisecond

// Rule constrains one form field. Checks run in order: required, length,
// pattern; the first violation wins.
type Rule struct {
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Rules are the fixed per-field constraints. Lengths count characters, not bytes.
var Rules = map[string]Rule{
	FieldName:    {Required: true, MinLength: 2, MaxLength: 100},
	FieldEmail:   {Required: true, MaxLength: 255, Pattern: emailPattern},
	FieldSubject: {Required: true, MinLength: 5, MaxLength: 200},
	FieldMessage: {Required: true, MinLength: 10, MaxLength: 1000},
}

// Validation messages.
const (
	MsgRequired      = "This field is required"
	MsgInvalidFormat = "Invalid format"
)

// FieldResult is the outcome of validating one field.
type FieldResult struct {
	Valid   bool
	Message string
}

// ValidateField checks value against the rule for field. Unknown fields
// are always valid.
func ValidateField(field, value string) FieldResult {
	rule, ok := Rules[field]
	if !ok {
		return FieldResult{Valid: true}
	}
	value = strings.TrimSpace(value)
	n := utf8.RuneCountInString(value)

	if rule.Required && value == "" {
		return FieldResult{Message: MsgRequired}
	}
	if rule.MinLength > 0 && n < rule.MinLength {
		return FieldResult{Message: fmt.Sprintf("Minimum %d characters required", rule.MinLength)}
	}
	if rule.MaxLength > 0 && n > rule.MaxLength {
		return FieldResult{Message: fmt.Sprintf("Maximum %d characters allowed", rule.MaxLength)}
	}
	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		return FieldResult{Message: MsgInvalidFormat}
	}
	return FieldResult{Valid: true}
}

// FormResult holds the per-field outcome of a whole-form validation.
type FormResult struct {
	Fields map[string]FieldResult
}

// Valid reports whether every field passed.
func (r FormResult) Valid() bool {
	for _, f := range r.Fields {
		if !f.Valid {
			return false
		}
	}
	return true
}

// Errors returns field name to message for the failing fields only.
func (r FormResult) Errors() map[string]string {
	errs := make(map[string]string)
	for name, f := range r.Fields {
		if !f.Valid {
			errs[name] = f.Message
		}
	}
	return errs
}

// Summary joins the failing fields' messages in form order, for a single
// notification.
func (r FormResult) Summary() string {
	var parts []string
	for _, name := range Fields {
		if f, ok := r.Fields[name]; ok && !f.Valid {
			parts = append(parts, fieldLabel(name)+": "+f.Message)
		}
	}
	return strings.Join(parts, ", ")
}

// ValidateForm checks every field of f. It never stops at the first failure.
func ValidateForm(f Form) FormResult {
	return validateValues(f.Value)
}

// ValidateMessage re-checks a sanitized message, since sanitizing can
// shorten a field below its minimum.
func ValidateMessage(m ContactMessage) FormResult {
	return validateValues(m.Value)
}

func validateValues(value func(string) string) FormResult {
	res := FormResult{Fields: make(map[string]FieldResult, len(Fields))}
	for _, name := range Fields {
		res.Fields[name] = ValidateField(name, value(name))
	}
	return res
}

func fieldLabel(field string) string {
	if field == "" {
		return ""
	}
	return strings.ToUpper(field[:1]) + field[1:]
}

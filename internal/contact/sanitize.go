package contact

import (
	"regexp"
	"strings"
)

var (
	angleBrackets = strings.NewReplacer("<", "", ">", "")
	scriptScheme  = regexp.MustCompile(`(?i)javascript:`)
)

// Sanitize strips angle brackets and javascript: schemes, then trims
// surrounding whitespace. It does not make a string HTML-safe: quotes,
// ampersands and attribute syntax pass through untouched.
func Sanitize(s string) string {
	s = angleBrackets.Replace(s)
	s = scriptScheme.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// SanitizeValue sanitizes v when it is a string and returns "" otherwise.
func SanitizeValue(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return Sanitize(s)
}

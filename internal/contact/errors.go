package contact

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes of the submission pipeline.
var (
	ErrValidation = errors.New("validation failed")
	ErrTimeout    = errors.New("request timed out")
	ErrOffline    = errors.New("offline")
	ErrNetwork    = errors.New("network error")
)

// UpstreamError is a response from the contact endpoint that reports
// failure, either by status or by its body.
type UpstreamError struct {
	StatusCode int
	Messages   []string
}

func (e *UpstreamError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("contact endpoint returned %d", e.StatusCode)
	}
	return fmt.Sprintf("contact endpoint returned %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// Unwrap makes upstream failures match ErrNetwork.
func (e *UpstreamError) Unwrap() error {
	return ErrNetwork
}

package session

import (
	"errors"
	"fmt"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/api"
)

var (
	// ErrNotAuthenticated is returned when an operation requiring an active
	// session is called without one.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvariantViolation reports a session whose token and user presence
	// disagree. It is fatal to the current session only: the manager
	// self-heals by clearing everything and resolving Unauthenticated.
	ErrInvariantViolation = errors.New("session invariant violated")
)

// ValidationError is a locally detected, field-scoped input error. It is
// raised before any network call and never reaches the Backend Client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// failureMessage converts any operation error into the human-readable text
// delivered through the notification sink.
func failureMessage(err error) string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	var tr *api.TransportError
	if errors.As(err, &tr) {
		return "Network error, please try again."
	}
	var rej *api.RejectionError
	if errors.As(err, &rej) {
		return rej.Reason
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return "Please sign in first."
	}
	return "Something went wrong, please try again."
}

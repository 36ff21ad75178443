package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any rejection carrying HTTP 401. On the profile
// endpoints it signals that the stored token is no longer valid.
var ErrUnauthorized = errors.New("unauthorized")

// TransportError means no usable response was received: the network was
// unreachable, the request timed out, or reading the body failed. It never
// says anything about the validity of the current session.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RejectionError means the backend answered and refused the request.
// Reason is the server-supplied human-readable explanation when one was
// present, or the HTTP status text otherwise.
type RejectionError struct {
	StatusCode int
	Reason     string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("request rejected (%d): %s", e.StatusCode, e.Reason)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 rejections.
func (e *RejectionError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

package citydata

import (
	"errors"
	"fmt"
)

// Sentinel errors for backend calls.
var (
	// ErrBackendUnavailable indicates the backend is unreachable, timed out,
	// or answered with a server error.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrNotFound indicates the requested resource does not exist,
	// typically an unknown state/city pair.
	ErrNotFound = errors.New("resource not found")
	// ErrRateLimited indicates the backend rejected the call due to quota.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUpstream indicates the backend answered but the response could not
	// be used (client error status or undecodable body).
	ErrUpstream = errors.New("upstream error")
	// ErrInvalidInput indicates a request that the client refused to send.
	ErrInvalidInput = errors.New("invalid input")
)

// Error is the normalized failure shape raised by every facade call.
// Message prefers the server-supplied detail string when one was present.
type Error struct {
	// Op is the logical operation, e.g. "dashboard.fetch".
	Op string
	// Code is a short machine-readable code, e.g. "HTTP_500".
	Code string
	// Message is the human-readable description shown to the user.
	Message string
	// Err is the wrapped sentinel.
	Err error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

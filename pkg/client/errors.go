package client

import (
	"errors"
	"fmt"
)

// Sentinel errors callers match with errors.Is. The transport maps every
// failure into exactly one of these (or a *BackendError).
var (
	// ErrUnreachable means no response was received at all: DNS failure,
	// refused connection, or a request timeout. The credential is not
	// suspect when this is returned.
	ErrUnreachable = errors.New("backend unreachable")

	// ErrSessionExpired means the backend rejected the bearer token.
	ErrSessionExpired = errors.New("session expired")

	// ErrInvalidCredentials is the login-specific reading of a 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidServerResponse means the backend answered 2xx but the
	// payload is missing fields the caller requires.
	ErrInvalidServerResponse = errors.New("invalid server response")
)

// BackendError carries the server's own message for non-2xx responses that
// are not credential failures.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error (status %d)", e.Status)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

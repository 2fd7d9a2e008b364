package session

import "errors"

var (
	// ErrInvalidSession indicates a session cannot be built from the given identity.
	ErrInvalidSession = errors.New("invalid session")
	// ErrClosed indicates the session's password has already been destroyed.
	ErrClosed = errors.New("session closed")
)

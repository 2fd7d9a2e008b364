package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrSessionInvalidated is returned for calls on an invalidated session.
	ErrSessionInvalidated = errors.New("session invalidated")
	// ErrUnauthorized is returned when the server rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrChallengeRequired is returned by OpenSession when the server demands
	// a client-side encryption challenge.
	ErrChallengeRequired = errors.New("api session challenge required")
)

// StatusError reports a non-2xx response from the server.
type StatusError struct {
	Method     string
	Action     string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Action, e.StatusCode, msg)
}

func isPreconditionFailed(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusPreconditionFailed
}

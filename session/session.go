// Package session models one authenticated connection to a Passwords server
// and the gate that holds API calls back while that connection is being
// re-established.
package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/awnumar/memguard"
	"github.com/jmcleod/ncpass/internal/util"
	"github.com/jmcleod/ncpass/internal/uuid"
)

// Session holds the identity of an authenticated connection and its Gate.
//
// Server and user are fixed at creation. The password lives in a memguard
// Enclave (encrypted at rest in memory); call Close when the session is
// discarded. An invalidated Session is never revived: log in again to get a
// new one.
type Session struct {
	*Gate

	server   string
	user     string
	localID  string
	password *memguard.Enclave

	mu       sync.RWMutex
	id       string
	keychain []byte
	closed   bool
}

// Option configures a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	logger *slog.Logger
	id     string
}

// WithLogger sets the logger used by the session and its gate.
func WithLogger(logger *slog.Logger) Option {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithID sets the server-issued session identifier up front.
func WithID(id string) Option {
	return func(o *sessionOptions) {
		o.id = id
	}
}

// New creates an active Session. The password bytes are moved into an
// Enclave; the string itself cannot be wiped and should go out of scope.
func New(server, user, password string, opts ...Option) (*Session, error) {
	if server == "" {
		return nil, fmt.Errorf("%w: server must not be empty", ErrInvalidSession)
	}
	if user == "" {
		return nil, fmt.Errorf("%w: user must not be empty", ErrInvalidSession)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password must not be empty", ErrInvalidSession)
	}

	o := sessionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	localID := uuid.New()
	logger := o.logger.With("component", "session", "session", localID, "server", server)

	return &Session{
		Gate:     NewGate(logger),
		server:   server,
		user:     user,
		localID:  localID,
		password: memguard.NewEnclave([]byte(password)),
		id:       o.id,
	}, nil
}

// Server returns the server address the session authenticates against.
func (s *Session) Server() string { return s.server }

// User returns the login name.
func (s *Session) User() string { return s.user }

// LocalID returns a client-side identifier for log correlation.
func (s *Session) LocalID() string { return s.localID }

// Password opens the password enclave. The caller must Destroy the buffer.
func (s *Session) Password() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	enclave, closed := s.password, s.closed
	s.mu.RUnlock()
	if closed || enclave == nil {
		return nil, ErrClosed
	}
	buf, err := enclave.Open()
	if err != nil {
		return nil, fmt.Errorf("opening password enclave: %w", err)
	}
	return buf, nil
}

// ID returns the server-issued session identifier, if one was set.
func (s *Session) ID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.id != ""
}

// SetID records the server-issued session identifier.
func (s *Session) SetID(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

// Keychain returns a copy of the opaque keychain blob, or nil.
func (s *Session) Keychain() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.keychain == nil {
		return nil
	}
	return util.CopyBytes(s.keychain)
}

// SetKeychain stores a copy of the opaque keychain blob. The blob belongs to
// the crypto layer; the session only carries it.
func (s *Session) SetKeychain(k []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	util.WipeBytes(s.keychain)
	if k == nil {
		s.keychain = nil
		return
	}
	s.keychain = util.CopyBytes(k)
}

// Close drops the password enclave and wipes the keychain copy. It does not
// invalidate the gate. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.password = nil
	util.WipeBytes(s.keychain)
	s.keychain = nil
	s.closed = true
}

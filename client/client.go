// Package client talks to the Nextcloud Passwords API on behalf of a session.
//
// Calls are gated by the session: while an API session challenge is pending,
// round trips are queued on the session and run once the challenge resolves.
package client

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmcleod/ncpass/session"
)

const (
	apiPath        = "/index.php/apps/passwords/api/1.0/"
	headerSession  = "X-API-SESSION"
	headerRequest  = "X-Request-ID"
	defaultTimeout = 30 * time.Second
)

// ChallengeHandler is invoked when the server asks for an API session to be
// (re)opened. It should eventually call ResolveChallenge or invalidate s.
type ChallengeHandler func(ctx context.Context, s *session.Session)

// Client is a Nextcloud Passwords API client. It is safe for concurrent use.
type Client struct {
	http        *http.Client
	logger      *slog.Logger
	onChallenge ChallengeHandler
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for round trips.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithChallengeHandler sets the handler called when a call is deferred on a
// 412 response.
func WithChallengeHandler(h ChallengeHandler) Option {
	return func(c *Client) { c.onChallenge = h }
}

// New returns a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: defaultTimeout},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "client")
	return c
}

// ResolveChallenge records the server-issued session id, runs every call
// deferred while the challenge was pending and then delivers their results.
func ResolveChallenge(s *session.Session, sessionID string) {
	s.SetID(sessionID)
	s.RunPendingRequests()
	s.RunPendingCompletions()
}

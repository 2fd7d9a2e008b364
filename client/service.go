package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jmcleod/ncpass/session"
)

// challengeInfo is the answer of session/request. Both fields are empty when
// no client-side encryption is configured.
type challengeInfo struct {
	Challenge json.RawMessage `json:"challenge"`
	Token     json.RawMessage `json:"token"`
}

func (ci challengeInfo) required() bool {
	return !emptyJSON(ci.Challenge) || !emptyJSON(ci.Token)
}

func emptyJSON(raw json.RawMessage) bool {
	switch string(raw) {
	case "", "null", "false", "[]", "{}":
		return true
	}
	return false
}

// OpenSession opens an API session for s and resolves any calls deferred on
// it. Servers that demand an encryption challenge yield ErrChallengeRequired.
func (c *Client) OpenSession(ctx context.Context, s *session.Session) error {
	if !s.IsValid() {
		return ErrSessionInvalidated
	}
	var info challengeInfo
	if _, err := c.do(ctx, s, call{method: http.MethodGet, action: "session/request", out: &info}); err != nil {
		return fmt.Errorf("requesting api session: %w", err)
	}
	if info.required() {
		return ErrChallengeRequired
	}

	var opened struct {
		Success bool `json:"success"`
	}
	header, err := c.do(ctx, s, call{method: http.MethodPost, action: "session/open", body: struct{}{}, out: &opened})
	if err != nil {
		return fmt.Errorf("opening api session: %w", err)
	}
	id := header.Get(headerSession)
	if id == "" {
		return fmt.Errorf("opening api session: no %s header in response", headerSession)
	}
	ResolveChallenge(s, id)
	c.logger.Info("api session opened", "session", s.LocalID())
	return nil
}

// CloseSession closes the API session and invalidates s with reason Logout.
func (c *Client) CloseSession(ctx context.Context, s *session.Session) error {
	_, err := c.get(ctx, s, "session/close", nil)
	s.Invalidate(session.Logout)
	return err
}

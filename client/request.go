package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jmcleod/ncpass/internal/util"
	"github.com/jmcleod/ncpass/internal/uuid"
	"github.com/jmcleod/ncpass/session"
)

const maxErrorBody = 64 << 10

type call struct {
	method string
	action string
	body   any
	out    any
}

type result struct {
	header http.Header
	err    error
}

func (c *Client) get(ctx context.Context, s *session.Session, action string, out any) (http.Header, error) {
	return c.send(ctx, s, call{method: http.MethodGet, action: action, out: out})
}

func (c *Client) post(ctx context.Context, s *session.Session, action string, body, out any) (http.Header, error) {
	return c.send(ctx, s, call{method: http.MethodPost, action: action, body: body, out: out})
}

func (c *Client) delete(ctx context.Context, s *session.Session, action string, body, out any) (http.Header, error) {
	return c.send(ctx, s, call{method: http.MethodDelete, action: action, body: body, out: out})
}

// send performs cl against the server, deferring it on the session when a
// challenge is pending or the server answers 412.
func (c *Client) send(ctx context.Context, s *session.Session, cl call) (http.Header, error) {
	if !s.IsValid() {
		return nil, ErrSessionInvalidated
	}
	done := make(chan result, 1)
	if s.EnqueueRequestIfPending(c.deferred(ctx, s, cl, done)) {
		return c.await(ctx, s, done)
	}
	header, err := c.do(ctx, s, cl)
	if !isPreconditionFailed(err) {
		return header, err
	}

	first := s.EnqueueRequest(c.deferred(ctx, s, cl, done))
	c.logger.Info("api session required, deferring", "action", cl.action, "session", s.LocalID(), "first", first)
	if first && c.onChallenge != nil {
		c.onChallenge(ctx, s)
	}
	return c.await(ctx, s, done)
}

// deferred returns the pending request for cl. Its result travels back
// through a pending completion, so callers observe results in completion
// order.
func (c *Client) deferred(ctx context.Context, s *session.Session, cl call, done chan<- result) func() {
	return func() {
		var res result
		if err := ctx.Err(); err != nil {
			res.err = err
		} else if !s.IsValid() {
			res.err = ErrSessionInvalidated
		} else {
			res.header, res.err = c.do(ctx, s, cl)
		}
		s.EnqueueCompletion(func() { done <- res })
	}
}

func (c *Client) await(ctx context.Context, s *session.Session, done <-chan result) (http.Header, error) {
	select {
	case res := <-done:
		return res.header, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.Done():
		return nil, ErrSessionInvalidated
	}
}

func (c *Client) do(ctx context.Context, s *session.Session, cl call) (http.Header, error) {
	req, err := c.newRequest(ctx, s, cl)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", cl.method, cl.action, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		"method", cl.method,
		"action", cl.action,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(headerRequest),
		"session", s.LocalID(),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		s.Invalidate(session.Deauthorization)
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &StatusError{
			Method:     cl.method,
			Action:     cl.action,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
		}
	}

	if cl.out != nil {
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding %s response: %w", cl.action, err)
		}
	}
	return resp.Header, nil
}

func (c *Client) newRequest(ctx context.Context, s *session.Session, cl call) (*http.Request, error) {
	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", cl.action, err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := strings.TrimRight(s.Server(), "/") + apiPath + cl.action
	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", cl.action, err)
	}

	auth, err := basicAuth(s)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequest, uuid.New())
	if id, ok := s.ID(); ok {
		req.Header.Set(headerSession, id)
	}
	return req, nil
}

func basicAuth(s *session.Session) (string, error) {
	pw, err := s.Password()
	if err != nil {
		return "", fmt.Errorf("reading session password: %w", err)
	}
	defer pw.Destroy()

	creds := make([]byte, 0, len(s.User())+1+pw.Size())
	creds = append(creds, s.User()...)
	creds = append(creds, ':')
	creds = append(creds, pw.Bytes()...)
	defer util.WipeBytes(creds)
	return "Basic " + base64.StdEncoding.EncodeToString(creds), nil
}

func errorMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || json.Unmarshal(data, &body) != nil {
		return ""
	}
	return body.Message
}

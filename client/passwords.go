package client

import (
	"context"
	"fmt"

	"github.com/jmcleod/ncpass/session"
)

// Password is the metadata of a stored credential as listed by the server.
// The secret itself is never decoded.
type Password struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Username string `json:"username"`
	URL      string `json:"url"`
	Favorite bool   `json:"favorite"`
	Hidden   bool   `json:"hidden"`
}

// GenerateOptions selects the character classes of a generated password.
type GenerateOptions struct {
	Numbers bool
	Special bool
}

const generateStrength = 4

// GeneratePassword asks the server's password service for a new password.
func (c *Client) GeneratePassword(ctx context.Context, s *session.Session, opts GenerateOptions) (string, error) {
	req := struct {
		Strength int  `json:"strength"`
		Numbers  bool `json:"numbers"`
		Special  bool `json:"special"`
	}{generateStrength, opts.Numbers, opts.Special}

	var resp struct {
		Password string `json:"password"`
	}
	if _, err := c.post(ctx, s, "service/password", req, &resp); err != nil {
		return "", err
	}
	if resp.Password == "" {
		return "", fmt.Errorf("service/password: empty password in response")
	}
	return resp.Password, nil
}

// ListPasswords returns the metadata of every password visible to the user.
func (c *Client) ListPasswords(ctx context.Context, s *session.Session) ([]Password, error) {
	var out []Password
	if _, err := c.post(ctx, s, "password/list", struct{}{}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePassword moves the password with the given ID to the trash.
func (c *Client) DeletePassword(ctx context.Context, s *session.Session, id string) error {
	req := struct {
		ID string `json:"id"`
	}{id}
	_, err := c.delete(ctx, s, "password/delete", req, nil)
	return err
}

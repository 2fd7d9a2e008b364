package session

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	s, err := New("https://cloud.example.com", "alice", "app-password-123", opts...)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name, server, user, password string
	}{
		{"empty server", "", "alice", "pw"},
		{"empty user", "https://cloud.example.com", "", "pw"},
		{"empty password", "https://cloud.example.com", "alice", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.server, tt.user, tt.password)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}

func TestSession_Identity(t *testing.T) {
	s := newTestSession(t)
	assert.Equal(t, "https://cloud.example.com", s.Server())
	assert.Equal(t, "alice", s.User())
	assert.NotEmpty(t, s.LocalID())
	assert.True(t, s.IsValid())

	other := newTestSession(t)
	assert.NotEqual(t, s.LocalID(), other.LocalID())
}

func TestSession_Password(t *testing.T) {
	s := newTestSession(t)
	buf, err := s.Password()
	require.NoError(t, err)
	defer buf.Destroy()
	assert.Equal(t, "app-password-123", string(buf.Bytes()))
}

func TestSession_ID(t *testing.T) {
	s := newTestSession(t)
	_, ok := s.ID()
	assert.False(t, ok)

	s.SetID("abc123")
	id, ok := s.ID()
	assert.True(t, ok)
	assert.Equal(t, "abc123", id)

	preset := newTestSession(t, WithID("preset"))
	id, ok = preset.ID()
	assert.True(t, ok)
	assert.Equal(t, "preset", id)
}

func TestSession_KeychainIsCopied(t *testing.T) {
	s := newTestSession(t)
	assert.Nil(t, s.Keychain())

	blob := []byte{1, 2, 3}
	s.SetKeychain(blob)
	blob[0] = 9

	got := s.Keychain()
	assert.Equal(t, []byte{1, 2, 3}, got)
	got[1] = 9
	assert.Equal(t, []byte{1, 2, 3}, s.Keychain())

	s.SetKeychain(nil)
	assert.Nil(t, s.Keychain())
}

func TestSession_Close(t *testing.T) {
	s := newTestSession(t)
	s.SetKeychain([]byte{1, 2, 3})
	s.Close()
	s.Close()

	_, err := s.Password()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Nil(t, s.Keychain())
	// Closing releases secrets; it is not an invalidation.
	assert.True(t, s.IsValid())
}

func TestSession_GateIsPerSession(t *testing.T) {
	a := newTestSession(t)
	b := newTestSession(t)

	a.EnqueueRequest(func() {})
	assert.True(t, a.PendingRequestsAvailable())
	assert.False(t, b.PendingRequestsAvailable())

	a.Invalidate(Logout)
	assert.False(t, a.IsValid())
	assert.True(t, b.IsValid())
}

func TestSession_LogsInvalidation(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&out, nil))
	s := newTestSession(t, WithLogger(logger))

	s.Invalidate(Deauthorization)

	logged := out.String()
	assert.Contains(t, logged, `"msg":"session invalidated"`)
	assert.Contains(t, logged, `"reason":"deauthorization"`)
	assert.Contains(t, logged, s.LocalID())
	assert.NotContains(t, logged, "app-password-123")
}

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/ncpass/api"
	"github.com/jmcleod/ncpass/autofill"
	"github.com/jmcleod/ncpass/client"
	"github.com/jmcleod/ncpass/internal/util"
	"github.com/jmcleod/ncpass/session"
	"github.com/jmcleod/ncpass/storage"
	"github.com/jmcleod/ncpass/storage/memory"
)

type fakeGenerator struct {
	password string
	err      error
	got      client.GenerateOptions
}

func (f *fakeGenerator) GeneratePassword(_ context.Context, _ *session.Session, opts client.GenerateOptions) (string, error) {
	f.got = opts
	return f.password, f.err
}

type failingSuggester struct{ err error }

func (f failingSuggester) Suggest(context.Context, string) ([]autofill.Suggestion, error) {
	return nil, f.err
}

func (f failingSuggester) Entries(context.Context) ([]storage.Entry, error) { return nil, f.err }

func newService(t *testing.T) *autofill.Service {
	t.Helper()
	params := util.Argon2idParams{Time: 1, MemoryKiB: 8 * 1024, Parallelism: 1, KeyLen: 32}
	idx, err := storage.OpenIndex(memory.NewRepository(), []byte("pw"), storage.WithKDFParams(params))
	require.NoError(t, err)
	require.NoError(t, idx.Replace([]storage.Entry{
		{ID: "unrelated", Label: "A Unrelated", URL: "https://unrelated.org"},
		{ID: "bank", Label: "B Bank", URL: "https://bank.example.com/login"},
		{ID: "mail", Label: "C Mail", Username: "alice", URL: "https://mail.example.com"},
		{ID: "exact", Label: "D Example", Username: "alice", URL: "https://example.com"},
	}))
	return autofill.NewService(idx)
}

func setupServer(t *testing.T, s api.Suggester, opts ...api.Option) *httptest.Server {
	t.Helper()
	opts = append([]api.Option{api.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	a := api.New(s, opts...)
	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, header ...string) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(t.Context(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func newSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.New("https://cloud.example.com", "alice", "pw")
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestHealth(t *testing.T) {
	srv := setupServer(t, newService(t))
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[api.HealthResponse](t, resp).Status)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestSuggest(t *testing.T) {
	srv := setupServer(t, newService(t))
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/suggest", api.SuggestRequest{URL: "https://example.com"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got := decode[api.SuggestResponse](t, resp)
	require.Len(t, got.Suggestions, 3)
	assert.Equal(t, api.SuggestionResponse{
		ID: "exact", Label: "D Example", Username: "alice", URL: "https://example.com", Score: 1,
	}, got.Suggestions[0])
	assert.Equal(t, "mail", got.Suggestions[1].ID)
	assert.Equal(t, "bank", got.Suggestions[2].ID)
}

func TestSuggestNoMatches(t *testing.T) {
	srv := setupServer(t, newService(t))
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/suggest", api.SuggestRequest{URL: "https://zzzz.qq"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.JSONEq(t, "[]", string(raw["suggestions"]))
}

func TestSuggestBadRequests(t *testing.T) {
	srv := setupServer(t, newService(t))
	tests := []struct {
		name string
		body any
	}{
		{"missing url", map[string]string{}},
		{"blank url", api.SuggestRequest{URL: "  "}},
		{"invalid url", api.SuggestRequest{URL: "http://[::1"}},
		{"hostless url", api.SuggestRequest{URL: "mailto:someone@example.com"}},
		{"not an object", []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/suggest", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, decode[api.ErrorResponse](t, resp).Error)
		})
	}
}

func TestListEntries(t *testing.T) {
	srv := setupServer(t, newService(t))

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries?limit=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[api.ListEntriesResponse](t, resp)
	require.Len(t, page.Entries, 3)
	assert.Equal(t, "A Unrelated", page.Entries[0].Label)
	assert.Equal(t, 4, page.TotalCount)
	assert.True(t, page.HasMore)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries?limit=3&offset=3", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[api.ListEntriesResponse](t, resp)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "exact", page.Entries[0].ID)
	assert.False(t, page.HasMore)
}

func TestGenerate(t *testing.T) {
	gen := &fakeGenerator{password: "s3cret!"}
	srv := setupServer(t, newService(t), api.WithGenerator(gen, newSession(t)))

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/generate", api.GenerateRequest{Numbers: true, Special: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "s3cret!", decode[api.GenerateResponse](t, resp).Password)
	assert.Equal(t, client.GenerateOptions{Numbers: true, Special: true}, gen.got)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/generate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, client.GenerateOptions{}, gen.got)
}

func TestGenerateUnavailable(t *testing.T) {
	srv := setupServer(t, newService(t))
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/generate", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalidated", client.ErrSessionInvalidated, http.StatusUnauthorized},
		{"unauthorized", fmt.Errorf("call: %w", client.ErrUnauthorized), http.StatusUnauthorized},
		{"challenge", client.ErrChallengeRequired, http.StatusUnauthorized},
		{"upstream", &client.StatusError{Method: "POST", Action: "service/password", StatusCode: 500}, http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{err: tt.err}
			srv := setupServer(t, newService(t), api.WithGenerator(gen, newSession(t)))
			resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/generate", nil)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.NotEmpty(t, decode[api.ErrorResponse](t, resp).Error)
		})
	}

	srv := setupServer(t, failingSuggester{err: fmt.Errorf("entry x: %w", storage.ErrNotFound)})
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestToken(t *testing.T) {
	srv := setupServer(t, newService(t), api.WithToken("letmein"))

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries", nil, "Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/entries", nil, "Authorization", "Bearer letmein")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOpenAPISpecServed(t *testing.T) {
	srv := setupServer(t, newService(t))
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/yaml", resp.Header.Get("Content-Type"))
}

func TestRequestLogOmitsVisitedURL(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	a := api.New(newService(t), api.WithLogger(logger))
	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/suggest", api.SuggestRequest{URL: "https://example.com/private"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := buf.String()
	assert.Contains(t, out, `"component":"api"`)
	assert.Contains(t, out, `"path":"/api/v1/suggest"`)
	assert.Contains(t, out, `"event":"suggest"`)
	assert.NotContains(t, out, "example.com/private")
	assert.NotContains(t, out, "alice")
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmcleod/ncpass/client"
)

const maxBodyBytes = 64 << 10

// Health reports liveness.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Suggest ranks the indexed entries against the posted URL.
func (a *API) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	suggestions, err := a.suggester.Suggest(r.Context(), req.URL)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := SuggestResponse{Suggestions: make([]SuggestionResponse, 0, len(suggestions))}
	for _, s := range suggestions {
		resp.Suggestions = append(resp.Suggestions, SuggestionResponse{
			ID:       s.ID,
			Label:    s.Label,
			Username: s.Username,
			URL:      s.URL,
			Score:    s.Score,
		})
	}
	a.audit.log(AuditSuggest, r, slog.Int("matches", len(resp.Suggestions)))
	writeJSON(w, http.StatusOK, resp)
}

// ListEntries returns a page of the index contents (metadata only).
func (a *API) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := a.suggester.Entries(r.Context())
	if err != nil {
		mapError(w, err)
		return
	}

	limit, offset := parsePagination(r)
	page, meta := paginate(entries, limit, offset)

	resp := ListEntriesResponse{Entries: make([]EntryResponse, 0, len(page)), PaginationMeta: meta}
	for _, e := range page {
		er := EntryResponse{
			ID:       e.ID,
			Label:    e.Label,
			Username: e.Username,
			URL:      e.URL,
			Favorite: e.Favorite,
		}
		if !e.UpdatedAt.IsZero() {
			t := e.UpdatedAt
			er.UpdatedAt = &t
		}
		resp.Entries = append(resp.Entries, er)
	}
	a.audit.log(AuditEntriesListed, r, slog.Int("count", len(resp.Entries)))
	writeJSON(w, http.StatusOK, resp)
}

// Generate asks the server's password service for a new password.
func (a *API) Generate(w http.ResponseWriter, r *http.Request) {
	if a.generator == nil || a.session == nil {
		mapError(w, errGeneratorUnavailable)
		return
	}

	var req GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pw, err := a.generator.GeneratePassword(r.Context(), a.session, client.GenerateOptions{
		Numbers: req.Numbers,
		Special: req.Special,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	a.audit.log(AuditPasswordGenerated, r)
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, GenerateResponse{Password: pw})
}

// decodeBody decodes a JSON body into v. An empty body leaves v unchanged.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

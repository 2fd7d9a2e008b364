package api

import "time"

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// SuggestRequest is the body of POST /suggest.
type SuggestRequest struct {
	URL string `json:"url"`
}

// SuggestionResponse is one ranked entry.
type SuggestionResponse struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Username string  `json:"username,omitempty"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

// SuggestResponse is returned by POST /suggest.
type SuggestResponse struct {
	Suggestions []SuggestionResponse `json:"suggestions"`
}

// EntryResponse is the metadata of one indexed entry.
type EntryResponse struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Username  string     `json:"username,omitempty"`
	URL       string     `json:"url,omitempty"`
	Favorite  bool       `json:"favorite"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ListEntriesResponse is returned by GET /entries.
type ListEntriesResponse struct {
	Entries []EntryResponse `json:"entries"`
	PaginationMeta
}

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Numbers bool `json:"numbers"`
	Special bool `json:"special"`
}

// GenerateResponse is returned by POST /generate.
type GenerateResponse struct {
	Password string `json:"password"`
}

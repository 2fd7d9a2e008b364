package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcleod/ncpass/autofill"
	"github.com/jmcleod/ncpass/client"
	"github.com/jmcleod/ncpass/storage"
)

var errGeneratorUnavailable = errors.New("password generation is not configured")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func mapError(w http.ResponseWriter, err error) {
	var statusErr *client.StatusError
	switch {
	case errors.Is(err, autofill.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, client.ErrSessionInvalidated),
		errors.Is(err, client.ErrUnauthorized),
		errors.Is(err, client.ErrChallengeRequired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &statusErr):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, errGeneratorUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

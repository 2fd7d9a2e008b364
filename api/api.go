// Package api serves the local autofill HTTP API.
package api

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/jmcleod/ncpass/autofill"
	"github.com/jmcleod/ncpass/client"
	"github.com/jmcleod/ncpass/session"
	"github.com/jmcleod/ncpass/storage"
)

// Suggester ranks and lists indexed entries.
type Suggester interface {
	Suggest(ctx context.Context, visited string) ([]autofill.Suggestion, error)
	Entries(ctx context.Context) ([]storage.Entry, error)
}

// PasswordGenerator asks the server for a new password.
type PasswordGenerator interface {
	GeneratePassword(ctx context.Context, s *session.Session, opts client.GenerateOptions) (string, error)
}

// API holds the dependencies needed by the REST handlers.
type API struct {
	suggester Suggester
	generator PasswordGenerator
	session   *session.Session
	token     string
	logger    *slog.Logger
	audit     *auditLogger
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for request and audit logs.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithGenerator enables POST /generate using gen on behalf of s.
func WithGenerator(gen PasswordGenerator, s *session.Session) Option {
	return func(a *API) {
		a.generator = gen
		a.session = s
	}
}

// WithToken requires every route except /health to carry
// "Authorization: Bearer <token>".
func WithToken(token string) Option {
	return func(a *API) {
		a.token = token
	}
}

// New creates a new API instance.
func New(suggester Suggester, opts ...Option) *API {
	a := &API{suggester: suggester}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	a.logger = a.logger.With("component", "api")
	a.audit = newAuditLogger(a.logger)
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Group(func(r chi.Router) {
		r.Use(a.requestLogger, SecurityHeaders)
		r.Get("/health", a.Health)

		r.Group(func(r chi.Router) {
			r.Use(a.TokenMiddleware)
			r.Post("/suggest", a.Suggest)
			r.Get("/entries", a.ListEntries)
			r.Post("/generate", a.Generate)
		})
	})

	return r
}

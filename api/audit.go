package api

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies a security-relevant action on the local API.
type AuditEvent string

const (
	AuditSuggest           AuditEvent = "suggest"
	AuditEntriesListed     AuditEvent = "entries_listed"
	AuditPasswordGenerated AuditEvent = "password_generated"
	AuditTokenRejected     AuditEvent = "token_rejected"
)

// auditLogger wraps slog.Logger for structured audit logging. Visited URLs,
// usernames and generated passwords are never logged.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", append(base, attrs...)...)
}

func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string) {
	al.log(event, r, slog.String("reason", reason))
}

// Package autofill suggests stored credentials for the page being visited.
package autofill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmcleod/ncpass/client"
	"github.com/jmcleod/ncpass/score"
	"github.com/jmcleod/ncpass/session"
	"github.com/jmcleod/ncpass/storage"
)

// ErrInvalidURL is returned when the visited URL cannot be matched against.
var ErrInvalidURL = errors.New("invalid url")

// Default match settings.
const (
	DefaultThreshold = 0.3
	DefaultLimit     = 10
)

// Index is the entry store the service reads and refreshes.
type Index interface {
	List() ([]storage.Entry, error)
	Replace(entries []storage.Entry) error
}

// PasswordLister fetches password metadata from the server.
type PasswordLister interface {
	ListPasswords(ctx context.Context, s *session.Session) ([]client.Password, error)
}

// Suggestion is one ranked entry.
type Suggestion struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Username string  `json:"username,omitempty"`
	URL      string  `json:"url"`
	Score    float64 `json:"score"`
}

// Service ranks indexed entries against visited URLs.
type Service struct {
	index     Index
	penalty   float64
	threshold float64
	limit     int
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithPenalty sets the string-similarity penalty.
func WithPenalty(p float64) Option {
	return func(s *Service) { s.penalty = p }
}

// WithThreshold sets the minimum score for a suggestion.
func WithThreshold(t float64) Option {
	return func(s *Service) { s.threshold = t }
}

// WithLimit caps the number of suggestions. Zero means no cap.
func WithLimit(n int) Option {
	return func(s *Service) { s.limit = n }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used to stamp synced entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service over index.
func NewService(index Index, opts ...Option) *Service {
	s := &Service{
		index:     index,
		penalty:   score.DefaultPenalty,
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "autofill")
	return s
}

func (s *Service) scoreOptions() []score.Option {
	return []score.Option{
		score.WithPenalty(s.penalty),
		score.WithThreshold(s.threshold),
		score.WithLimit(s.limit),
	}
}

// Suggest returns the indexed entries matching visited, best first.
func (s *Service) Suggest(ctx context.Context, visited string) ([]Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	target, err := score.Parse(visited)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if !target.HasHost() {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidURL, visited)
	}

	entries, err := s.index.List()
	if err != nil {
		return nil, fmt.Errorf("listing entries: %w", err)
	}

	byID := make(map[string]storage.Entry, len(entries))
	candidates := make([]score.Candidate, 0, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			continue
		}
		u, err := score.Parse(e.URL)
		if err != nil {
			s.logger.Debug("skipping entry with unparsable url", "id", e.ID)
			continue
		}
		byID[e.ID] = e
		candidates = append(candidates, score.Candidate{ID: e.ID, URL: u})
	}

	matches := score.Rank(target, candidates, s.scoreOptions()...)
	out := make([]Suggestion, 0, len(matches))
	for _, m := range matches {
		e := byID[m.ID]
		out = append(out, Suggestion{
			ID:       e.ID,
			Label:    e.Label,
			Username: e.Username,
			URL:      e.URL,
			Score:    m.Score,
		})
	}
	s.logger.Debug("suggest", "candidates", len(candidates), "matches", len(out))
	return out, nil
}

// Entries returns the whole index.
func (s *Service) Entries(ctx context.Context) ([]storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.index.List()
}

// Sync replaces the index with the server's visible passwords and returns
// how many entries were stored.
func (s *Service) Sync(ctx context.Context, lister PasswordLister, sess *session.Session) (int, error) {
	passwords, err := lister.ListPasswords(ctx, sess)
	if err != nil {
		return 0, fmt.Errorf("listing passwords: %w", err)
	}

	now := s.now().UTC()
	entries := make([]storage.Entry, 0, len(passwords))
	for _, p := range passwords {
		if p.Hidden || p.ID == "" {
			continue
		}
		entries = append(entries, storage.Entry{
			ID:        p.ID,
			Label:     p.Label,
			Username:  p.Username,
			URL:       p.URL,
			Favorite:  p.Favorite,
			UpdatedAt: now,
		})
	}
	if err := s.index.Replace(entries); err != nil {
		return 0, err
	}
	s.logger.Info("index synced", "entries", len(entries), "session", sess.LocalID())
	return len(entries), nil
}

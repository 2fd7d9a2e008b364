package storage

import (
	"fmt"
	"time"
)

// MaxIDLength bounds entry IDs.
const MaxIDLength = 256

// Entry is the metadata of one stored credential. The secret itself is never
// part of the index.
type Entry struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Username  string    `json:"username,omitempty"`
	URL       string    `json:"url,omitempty"`
	Favorite  bool      `json:"favorite,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Validate checks that the entry can be stored.
func (e Entry) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("%w: id must not be empty", ErrInvalidEntry)
	}
	if len(e.ID) > MaxIDLength {
		return fmt.Errorf("%w: id exceeds %d bytes", ErrInvalidEntry, MaxIDLength)
	}
	return nil
}

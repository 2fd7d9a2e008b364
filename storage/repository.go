// Package storage provides the local entry index used for autofill matching.
//
// Records are kept as sealed Envelopes in a Repository (in memory or BBolt).
// Index layers entry semantics and encryption on top.
package storage

import "errors"

var (
	// ErrNotFound is returned when a record or entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidEntry is returned when an entry fails validation.
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrWrongKey is returned when the index cannot be opened with the given password.
	ErrWrongKey = errors.New("index key mismatch")
)

// BatchTx provides record operations within an atomic transaction.
type BatchTx interface {
	Put(recordType string, recordID string, envelope *Envelope) error
	Delete(recordType string, recordID string) error
	List(recordType string) ([]string, error)
}

// Repository stores sealed records keyed by type and ID.
type Repository interface {
	Put(recordType string, recordID string, envelope *Envelope) error
	Get(recordType string, recordID string) (*Envelope, error)
	List(recordType string) ([]string, error)
	Delete(recordType string, recordID string) error
	Batch(fn func(tx BatchTx) error) error
}

// Package memory provides a thread-safe in-memory implementation of storage.Repository.
package memory

import (
	"fmt"
	"sync"

	"github.com/jmcleod/ncpass/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
// Suitable for testing and for short-lived command invocations.
type Repository struct {
	mu   sync.RWMutex
	data map[string]map[string]*storage.Envelope
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{data: make(map[string]map[string]*storage.Envelope)}
}

func (r *Repository) Put(recordType, recordID string, envelope *storage.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.putLocked(recordType, recordID, envelope)
	return nil
}

func (r *Repository) putLocked(recordType, recordID string, envelope *storage.Envelope) {
	if _, ok := r.data[recordType]; !ok {
		r.data[recordType] = make(map[string]*storage.Envelope)
	}
	r.data[recordType][recordID] = envelope.Clone()
}

func (r *Repository) Get(recordType, recordID string) (*storage.Envelope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	env, ok := r.data[recordType][recordID]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", recordType, recordID, storage.ErrNotFound)
	}
	return env.Clone(), nil
}

func (r *Repository) List(recordType string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listLocked(recordType), nil
}

func (r *Repository) listLocked(recordType string) []string {
	ids := make([]string, 0, len(r.data[recordType]))
	for id := range r.data[recordType] {
		ids = append(ids, id)
	}
	return ids
}

func (r *Repository) Delete(recordType, recordID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteLocked(recordType, recordID)
}

func (r *Repository) deleteLocked(recordType, recordID string) error {
	if _, ok := r.data[recordType][recordID]; !ok {
		return fmt.Errorf("%s/%s: %w", recordType, recordID, storage.ErrNotFound)
	}
	delete(r.data[recordType], recordID)
	return nil
}

// Batch executes fn within a batch transaction. On error, all writes are rolled back.
func (r *Repository) Batch(fn func(tx storage.BatchTx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.snapshot()
	if err := fn(&memoryBatchTx{repo: r}); err != nil {
		r.data = snapshot
		return err
	}
	return nil
}

func (r *Repository) snapshot() map[string]map[string]*storage.Envelope {
	cp := make(map[string]map[string]*storage.Envelope, len(r.data))
	for recordType, records := range r.data {
		inner := make(map[string]*storage.Envelope, len(records))
		for id, env := range records {
			inner[id] = env.Clone()
		}
		cp[recordType] = inner
	}
	return cp
}

type memoryBatchTx struct {
	repo *Repository
}

func (tx *memoryBatchTx) Put(recordType, recordID string, envelope *storage.Envelope) error {
	tx.repo.putLocked(recordType, recordID, envelope)
	return nil
}

func (tx *memoryBatchTx) Delete(recordType, recordID string) error {
	return tx.repo.deleteLocked(recordType, recordID)
}

func (tx *memoryBatchTx) List(recordType string) ([]string, error) {
	return tx.repo.listLocked(recordType), nil
}

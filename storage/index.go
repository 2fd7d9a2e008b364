package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/awnumar/memguard"
	icrypto "github.com/jmcleod/ncpass/internal/crypto"
	"github.com/jmcleod/ncpass/internal/util"
)

const (
	recordEntry = "ENTRY"
	recordMeta  = "META"

	metaSalt  = "salt"
	metaCheck = "check"

	saltSize   = 16
	checkValue = "ncpass-index-v1"
)

// Index is an encrypted store of Entry metadata on top of a Repository.
// The record key is derived with Argon2id from the account password and a
// per-index salt, and is held in a memguard enclave while the index is open.
type Index struct {
	repo   Repository
	key    *memguard.Enclave
	logger *slog.Logger
}

type indexOptions struct {
	params util.Argon2idParams
	logger *slog.Logger
}

// IndexOption configures OpenIndex.
type IndexOption func(*indexOptions)

// WithKDFParams overrides the Argon2id parameters used to derive the record key.
func WithKDFParams(params util.Argon2idParams) IndexOption {
	return func(o *indexOptions) { o.params = params }
}

// WithIndexLogger sets the logger used by the index.
func WithIndexLogger(logger *slog.Logger) IndexOption {
	return func(o *indexOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// OpenIndex opens (or initializes) the entry index stored in repo. A password
// that does not match the one the index was created with yields ErrWrongKey.
func OpenIndex(repo Repository, password []byte, opts ...IndexOption) (*Index, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("%w: password must not be empty", ErrWrongKey)
	}
	o := indexOptions{
		params: util.DefaultArgon2idParams(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	salt, err := loadOrCreateSalt(repo)
	if err != nil {
		return nil, err
	}
	key, err := util.DeriveArgon2idKey(password, salt, o.params)
	if err != nil {
		return nil, fmt.Errorf("deriving index key: %w", err)
	}
	defer util.WipeBytes(key)

	if err := verifyKey(repo, key); err != nil {
		return nil, err
	}

	return &Index{
		repo:   repo,
		key:    memguard.NewEnclave(util.CopyBytes(key)),
		logger: o.logger.With("component", "index"),
	}, nil
}

func loadOrCreateSalt(repo Repository) ([]byte, error) {
	env, err := repo.Get(recordMeta, metaSalt)
	if err == nil {
		return OpenRaw(env)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("loading index salt: %w", err)
	}
	salt, err := util.RandomBytes(saltSize)
	if err != nil {
		return nil, err
	}
	if err := repo.Put(recordMeta, metaSalt, RawRecord(salt)); err != nil {
		return nil, fmt.Errorf("storing index salt: %w", err)
	}
	return salt, nil
}

func verifyKey(repo Repository, key []byte) error {
	aad := icrypto.AADIndexCheck(envelopeVersion)
	env, err := repo.Get(recordMeta, metaCheck)
	if errors.Is(err, ErrNotFound) {
		sealed, err := SealRecord(key, []byte(checkValue), aad)
		if err != nil {
			return err
		}
		return repo.Put(recordMeta, metaCheck, sealed)
	}
	if err != nil {
		return fmt.Errorf("loading index check: %w", err)
	}
	plain, err := OpenRecord(key, env, aad)
	if err != nil || string(plain) != checkValue {
		return ErrWrongKey
	}
	return nil
}

func (x *Index) withKey(fn func(key []byte) error) error {
	buf, err := x.key.Open()
	if err != nil {
		return fmt.Errorf("opening index key: %w", err)
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

func (x *Index) seal(e Entry) (*Envelope, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var env *Envelope
	err = x.withKey(func(key []byte) error {
		var err error
		env, err = SealRecord(key, data, icrypto.AADEntry(e.ID, envelopeVersion))
		return err
	})
	return env, err
}

func (x *Index) open(id string, env *Envelope) (Entry, error) {
	var e Entry
	err := x.withKey(func(key []byte) error {
		plain, err := OpenRecord(key, env, icrypto.AADEntry(id, envelopeVersion))
		if err != nil {
			return fmt.Errorf("opening entry %s: %w", id, err)
		}
		return json.Unmarshal(plain, &e)
	})
	return e, err
}

// Put stores or replaces an entry.
func (x *Index) Put(e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	env, err := x.seal(e)
	if err != nil {
		return err
	}
	return x.repo.Put(recordEntry, e.ID, env)
}

// Get returns the entry with the given ID.
func (x *Index) Get(id string) (Entry, error) {
	env, err := x.repo.Get(recordEntry, id)
	if err != nil {
		return Entry{}, err
	}
	return x.open(id, env)
}

// List returns every entry, ordered by label then ID.
func (x *Index) List() ([]Entry, error) {
	ids, err := x.repo.List(recordEntry)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e, err := x.Get(id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := strings.Compare(a.Label, b.Label); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return entries, nil
}

// Delete removes the entry with the given ID.
func (x *Index) Delete(id string) error {
	return x.repo.Delete(recordEntry, id)
}

// Replace atomically swaps the index contents for entries. Later duplicates
// of an ID win.
func (x *Index) Replace(entries []Entry) error {
	next := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return err
		}
		next[e.ID] = e
	}
	sealed := make(map[string]*Envelope, len(next))
	for _, id := range slices.Sorted(maps.Keys(next)) {
		env, err := x.seal(next[id])
		if err != nil {
			return err
		}
		sealed[id] = env
	}

	removed := 0
	err := x.repo.Batch(func(tx BatchTx) error {
		existing, err := tx.List(recordEntry)
		if err != nil {
			return err
		}
		for _, id := range existing {
			if _, ok := sealed[id]; ok {
				continue
			}
			if err := tx.Delete(recordEntry, id); err != nil {
				return err
			}
			removed++
		}
		for id, env := range sealed {
			if err := tx.Put(recordEntry, id, env); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replacing index: %w", err)
	}
	x.logger.Info("index replaced", "entries", len(sealed), "removed", removed)
	return nil
}

package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
)

// Store is the durable poll storage port. Implementations key records by
// poll id and must reject malformed ids before touching storage.
//
// Save serializes concurrent writers per id and replaces the whole record
// atomically: a concurrent Load sees either the prior or the new record,
// never a torn one. Load itself takes no lock across a read-modify-write
// sequence, so higher-level callers get last-write-wins semantics (two
// voters mutating their own entries commute; two edits to the same record
// do not).
type Store interface {
	// Load returns the poll for id, ErrMalformedID for bad ids, or
	// ErrNotFound when no record exists.
	Load(ctx context.Context, id string) (*poll.Poll, error)

	// Save atomically replaces the full record for id, creating it if
	// absent. Concurrent saves on the same id are serialized (blocking,
	// no timeout).
	Save(ctx context.Context, id string, p *poll.Poll) error

	// Create writes the record only if the id is unallocated, returning
	// ErrConflict otherwise.
	Create(ctx context.Context, id string, p *poll.Poll) error

	// Exists reports whether a record is stored under id.
	Exists(ctx context.Context, id string) (bool, error)

	// List returns the ids of all stored polls, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases any resources held by the store.
	Close() error
}

// idAlphabet is the poll id character set: lowercase letters and digits.
const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// ValidID reports whether id matches the allowed grammar: lowercase
// alphanumeric, at least minLength characters. Checked defensively before
// any storage lookup or path construction.
func ValidID(id string, minLength int) bool {
	if minLength < 1 || len(id) < minLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// GenerateID produces a random id of the given length that does not collide
// with any record in s, retrying up to maxAttempts candidates. Returns
// ErrIDExhausted when every attempt collided.
//
// The uniqueness check and the first write are distinct steps; Create's
// write-only-if-absent semantics close the remaining window.
func GenerateID(ctx context.Context, s Store, length, maxAttempts int) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := randomID(length)
		if err != nil {
			return "", errors.NewInternal(err)
		}

		exists, err := s.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", errors.NewIDExhausted(maxAttempts)
}

// randomID draws length characters from idAlphabet using crypto/rand.
func randomID(length int) (string, error) {
	max := big.NewInt(int64(len(idAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random id: %w", err)
		}
		b[i] = idAlphabet[n.Int64()]
	}
	return string(b), nil
}

// Open constructs the store selected by cfg.Storage, rooted at baseDir.
func Open(baseDir string, cfg *config.Config) (Store, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		return NewSQLiteStore(baseDir, cfg.IDLength)
	case config.StorageFiles, "":
		return NewFileStore(baseDir, cfg.IDLength)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
}

// encodePoll marshals a poll to its on-disk JSON document. Nil slices are
// replaced with empty ones so the document always carries options and
// votes arrays.
func encodePoll(p *poll.Poll) ([]byte, error) {
	record := *p
	if record.Options == nil {
		record.Options = []string{}
	}
	if record.Votes == nil {
		record.Votes = []poll.Vote{}
	}
	return json.MarshalIndent(&record, "", "  ")
}

// decodePoll unmarshals an on-disk document. Legacy records may omit
// exclusive (defaults false via the zero value) or hold null votes.
func decodePoll(data []byte) (*poll.Poll, error) {
	p := &poll.Poll{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	if p.Votes == nil {
		p.Votes = []poll.Vote{}
	}
	if p.Options == nil {
		p.Options = []string{}
	}
	return p, nil
}

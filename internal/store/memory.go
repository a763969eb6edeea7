package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
)

// MemStore is an in-memory Store used by tests. Records are copied on the
// way in and out so callers cannot mutate stored state through aliases.
type MemStore struct {
	mu       sync.RWMutex
	polls    map[string][]byte
	minIDLen int
}

func NewMemStore(idLength int) *MemStore {
	return &MemStore{
		polls:    make(map[string][]byte),
		minIDLen: idLength,
	}
}

func (s *MemStore) Load(ctx context.Context, id string) (*poll.Poll, error) {
	if !ValidID(id, s.minIDLen) {
		return nil, errors.NewMalformedID(id)
	}

	s.mu.RLock()
	data, ok := s.polls[id]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.NewNotFound(id)
	}
	p, err := decodePoll(data)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to parse poll %s: %w", id, err))
	}
	return p, nil
}

func (s *MemStore) Save(ctx context.Context, id string, p *poll.Poll) error {
	if !ValidID(id, s.minIDLen) {
		return errors.NewMalformedID(id)
	}
	data, err := encodePoll(p)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to encode poll %s: %w", id, err))
	}

	s.mu.Lock()
	s.polls[id] = data
	s.mu.Unlock()
	return nil
}

func (s *MemStore) Create(ctx context.Context, id string, p *poll.Poll) error {
	if !ValidID(id, s.minIDLen) {
		return errors.NewMalformedID(id)
	}
	data, err := encodePoll(p)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to encode poll %s: %w", id, err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.polls[id]; ok {
		return errors.NewConflict(id)
	}
	s.polls[id] = data
	return nil
}

func (s *MemStore) Exists(ctx context.Context, id string) (bool, error) {
	if !ValidID(id, s.minIDLen) {
		return false, errors.NewMalformedID(id)
	}

	s.mu.RLock()
	_, ok := s.polls[id]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.polls))
	for id := range s.polls {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

func (s *MemStore) Close() error {
	return nil
}

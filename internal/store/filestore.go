package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
)

// FileStore keeps one JSON document per poll under <baseDir>/polls/<id>.json.
// A per-id RWMutex serializes writers within the process; durable writes go
// through a temp file in the same directory followed by a rename, so a
// reader never observes a half-written document even across processes.
type FileStore struct {
	dir      string
	minIDLen int

	mu    sync.Mutex // guards locks
	locks map[string]*sync.RWMutex
}

// NewFileStore opens (creating if needed) the poll directory under baseDir.
func NewFileStore(baseDir string, idLength int) (*FileStore, error) {
	dir := filepath.Join(baseDir, "polls")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create poll directory: %w", err)
	}
	return &FileStore{
		dir:      dir,
		minIDLen: idLength,
		locks:    make(map[string]*sync.RWMutex),
	}, nil
}

// lock returns the mutex for id, allocating it on first use. Locks are
// never evicted; the id space in a single deployment stays small.
func (s *FileStore) lock(id string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[id] = l
	}
	return l
}

// path builds the document path for a validated id. Callers must check
// ValidID first; the id grammar excludes separators, so the path cannot
// escape the poll directory.
func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Load(ctx context.Context, id string) (*poll.Poll, error) {
	if !ValidID(id, s.minIDLen) {
		return nil, errors.NewMalformedID(id)
	}

	l := s.lock(id)
	l.RLock()
	defer l.RUnlock()

	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(id)
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to read poll %s: %w", id, err))
	}

	p, err := decodePoll(data)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to parse poll %s: %w", id, err))
	}
	return p, nil
}

func (s *FileStore) Save(ctx context.Context, id string, p *poll.Poll) error {
	if !ValidID(id, s.minIDLen) {
		return errors.NewMalformedID(id)
	}

	data, err := encodePoll(p)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to encode poll %s: %w", id, err))
	}

	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	if err := s.writeAtomic(id, data); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func (s *FileStore) Create(ctx context.Context, id string, p *poll.Poll) error {
	if !ValidID(id, s.minIDLen) {
		return errors.NewMalformedID(id)
	}

	data, err := encodePoll(p)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to encode poll %s: %w", id, err))
	}

	l := s.lock(id)
	l.Lock()
	defer l.Unlock()

	tmp, err := s.writeTemp(id, data)
	if err != nil {
		return errors.NewInternal(err)
	}
	defer os.Remove(tmp)

	// Link publishes the fully written temp file under the final name and
	// fails if the name is already taken, which makes create-if-absent
	// atomic even against another process.
	if err := os.Link(tmp, s.path(id)); err != nil {
		if os.IsExist(err) {
			return errors.NewConflict(id)
		}
		return errors.NewInternal(fmt.Errorf("failed to create poll %s: %w", id, err))
	}
	return nil
}

func (s *FileStore) Exists(ctx context.Context, id string) (bool, error) {
	if !ValidID(id, s.minIDLen) {
		return false, errors.NewMalformedID(id)
	}

	_, err := os.Stat(s.path(id))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.NewInternal(fmt.Errorf("failed to stat poll %s: %w", id, err))
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to list polls: %w", err))
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok || !ValidID(id, s.minIDLen) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStore) Close() error {
	return nil
}

// writeAtomic replaces the document for id with data via temp file + rename.
func (s *FileStore) writeAtomic(id string, data []byte) error {
	tmp, err := s.writeTemp(id, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path(id)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace poll %s: %w", id, err)
	}
	return nil
}

// writeTemp writes data to a fresh temp file in the poll directory and
// returns its path. Same directory as the target so the rename or link
// stays on one filesystem.
func (s *FileStore) writeTemp(id string, data []byte) (string, error) {
	f, err := os.CreateTemp(s.dir, id+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for poll %s: %w", id, err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write poll %s: %w", id, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to sync poll %s: %w", id, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to close poll %s: %w", id, err)
	}
	if err := os.Chmod(tmp, 0600); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to chmod poll %s: %w", id, err)
	}
	return tmp, nil
}

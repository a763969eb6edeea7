package store

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/poll"
)

// schemaVersion is the current user_version of the database schema.
const schemaVersion = 1

// SQLiteStore keeps polls in a single SQLite database at <baseDir>/tally.db,
// one JSON document per row. The document format matches FileStore, so the
// two backends are interchangeable through export and import.
type SQLiteStore struct {
	db       *sql.DB
	minIDLen int
}

// NewSQLiteStore opens (creating if needed) the database under baseDir and
// applies pending migrations.
func NewSQLiteStore(baseDir string, idLength int) (*SQLiteStore, error) {
	dsn := filepath.Join(baseDir, "tally.db") +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db, minIDLen: idLength}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	version, err := s.userVersion()
	if err != nil {
		return err
	}
	if version >= schemaVersion {
		return nil
	}

	if version < 1 {
		_, err := s.db.Exec(`
			CREATE TABLE IF NOT EXISTS polls (
				id  TEXT PRIMARY KEY,
				doc TEXT NOT NULL
			)
		`)
		if err != nil {
			return fmt.Errorf("failed to create polls table: %w", err)
		}
	}

	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

func (s *SQLiteStore) userVersion() (int, error) {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*poll.Poll, error) {
	if !ValidID(id, s.minIDLen) {
		return nil, errors.NewMalformedID(id)
	}

	var doc string
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM polls WHERE id = ?", id).Scan(&doc)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to read poll %s: %w", id, err))
	}

	p, err := decodePoll([]byte(doc))
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to parse poll %s: %w", id, err))
	}
	return p, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, p *poll.Poll) error {
	if !ValidID(id, s.minIDLen) {
		return errors.NewMalformedID(id)
	}
	data, err := encodePoll(p)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to encode poll %s: %w", id, err))
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO polls (id, doc) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET doc = excluded.doc
	`, id, string(data))
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to save poll %s: %w", id, err))
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context, id string, p *poll.Poll) error {
	if !ValidID(id, s.minIDLen) {
		return errors.NewMalformedID(id)
	}
	data, err := encodePoll(p)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to encode poll %s: %w", id, err))
	}

	// INSERT OR IGNORE sidesteps driver-specific constraint errors; zero
	// rows affected means the id was already taken.
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO polls (id, doc) VALUES (?, ?)", id, string(data))
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create poll %s: %w", id, err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create poll %s: %w", id, err))
	}
	if affected == 0 {
		return errors.NewConflict(id)
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, id string) (bool, error) {
	if !ValidID(id, s.minIDLen) {
		return false, errors.NewMalformedID(id)
	}

	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM polls WHERE id = ?", id).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(fmt.Errorf("failed to check poll %s: %w", id, err))
	}
	return true, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM polls ORDER BY id")
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to list polls: %w", err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("failed to list polls: %w", err))
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to list polls: %w", err))
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

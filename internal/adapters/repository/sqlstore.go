package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite

	"github.com/classlens/classlens/internal/domain/model"
)

const sqlSchema = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  subject_key TEXT NOT NULL UNIQUE,
  data TEXT NOT NULL,
  updated_at INTEGER NOT NULL,
  version INTEGER NOT NULL DEFAULT 0
);
`

// SQLStore persists profiles in SQLite. Rows carry the full profile as
// JSON; the subject_key UNIQUE constraint is what turns a concurrent
// first-submission race into ErrDuplicateSubject instead of a second
// profile for the same child.
type SQLStore struct {
	db *sql.DB
}

// OpenSQLStore opens (or creates) the database at dsn and ensures the
// schema exists.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	if dsn == "" {
		dsn = "file:classlens.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqlSchema); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) FindBySubject(ctx context.Context, subjectKey string) (*model.ConsolidatedProfile, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT data FROM profiles WHERE subject_key = ?`, subjectKey))
}

func (s *SQLStore) Get(ctx context.Context, id string) (*model.ConsolidatedProfile, error) {
	return s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT data FROM profiles WHERE id = ?`, id))
}

func (s *SQLStore) Insert(ctx context.Context, p *model.ConsolidatedProfile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, subject_key, data, updated_at, version) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.SubjectKey, string(data), p.UpdatedAt.Unix(), p.Version)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSubject
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Update replaces a row if it still carries the version the caller
// read. The guarded WHERE clause is what keeps two read-merge-write
// cycles for one subject from silently dropping one of them.
func (s *SQLStore) Update(ctx context.Context, p *model.ConsolidatedProfile) error {
	next := p.Clone()
	next.Version = p.Version + 1

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET data = ?, updated_at = ?, version = ? WHERE id = ? AND version = ?`,
		string(data), next.UpdatedAt.Unix(), next.Version, p.ID, p.Version)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n == 0 {
		var found int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM profiles WHERE id = ?`, p.ID).Scan(&found); err == nil && found > 0 {
			return ErrVersionConflict
		}
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]*model.ConsolidatedProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM profiles ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*model.ConsolidatedProfile
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		p, err := decodeProfile(data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (s *SQLStore) scanOne(row *sql.Row) (*model.ConsolidatedProfile, error) {
	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return decodeProfile(data)
}

func decodeProfile(data string) (*model.ConsolidatedProfile, error) {
	var p model.ConsolidatedProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Unix(0, 0).UTC()
	}
	return &p, nil
}

// isUniqueViolation matches the sqlite constraint error by message;
// the modernc driver does not export a typed constant for it.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

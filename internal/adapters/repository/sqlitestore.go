package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure go sqlite driver
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		athlete_id TEXT NOT NULL,
		kind       TEXT NOT NULL,
		body       BLOB NOT NULL,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS documents_athlete_kind ON documents(athlete_id, kind, seq)`,
}

// SQLiteStore persists documents in a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and applies the
// schema. The parent directory is created when missing.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		path = "athletix.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s := &SQLiteStore{db: db, path: path, now: time.Now}
	db.SetMaxOpenConns(1)
	for _, opt := range opts {
		opt(s)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return s, nil
}

// AppendGenetic implements Store.
func (s *SQLiteStore) AppendGenetic(ctx context.Context, athleteID string, docs []json.RawMessage) (err error) {
	defer observe("append_genetic", time.Now(), &err)
	return s.append(ctx, KindGenetic, athleteID, docs)
}

// AppendBiometrics implements Store.
func (s *SQLiteStore) AppendBiometrics(ctx context.Context, athleteID string, docs []json.RawMessage) (err error) {
	defer observe("append_biometrics", time.Now(), &err)
	return s.append(ctx, KindBiometric, athleteID, docs)
}

func (s *SQLiteStore) append(ctx context.Context, kind Kind, athleteID string, docs []json.RawMessage) (retErr error) {
	id, err := athleteKey(athleteID)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO documents(id, athlete_id, kind, body, created_at) VALUES(?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()
	now := s.now().UnixNano()
	for _, d := range docs {
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), id, string(kind), []byte(d), now); err != nil {
			return fmt.Errorf("insert %s document: %w", kind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Genetic implements Store.
func (s *SQLiteStore) Genetic(ctx context.Context, athleteID string) (docs []json.RawMessage, err error) {
	defer observe("genetic", time.Now(), &err)
	return s.byAthlete(ctx, KindGenetic, athleteID)
}

// Biometrics implements Store.
func (s *SQLiteStore) Biometrics(ctx context.Context, athleteID string) (docs []json.RawMessage, err error) {
	defer observe("biometrics", time.Now(), &err)
	return s.byAthlete(ctx, KindBiometric, athleteID)
}

func (s *SQLiteStore) byAthlete(ctx context.Context, kind Kind, athleteID string) ([]json.RawMessage, error) {
	id, err := athleteKey(athleteID)
	if err != nil {
		return nil, err
	}
	docs, err := s.query(ctx, `SELECT body FROM documents WHERE athlete_id = ? AND kind = ? ORDER BY seq`, id, string(kind))
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs, nil
}

// AllBiometrics implements Store.
func (s *SQLiteStore) AllBiometrics(ctx context.Context) (docs []json.RawMessage, err error) {
	defer observe("all_biometrics", time.Now(), &err)
	return s.query(ctx, `SELECT body FROM documents WHERE kind = ? ORDER BY seq`, string(KindBiometric))
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []json.RawMessage
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// Athletes implements Store.
func (s *SQLiteStore) Athletes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT athlete_id FROM documents ORDER BY athlete_id`)
	if err != nil {
		return nil, fmt.Errorf("select athletes: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Count implements Store. Errors count as an empty store.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Path returns the configured database path.
func (s *SQLiteStore) Path() string { return s.path }

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

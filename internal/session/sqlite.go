package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists session memory across restarts. Same passive-expiry
// semantics as MemoryStore, driven by a last_touched column.
type SQLiteStore struct {
	db     *sqlx.DB
	expiry time.Duration
	now    func() time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	last_touched TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS session_queries (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
	query      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS session_defaults (
	session_id TEXT NOT NULL REFERENCES sessions(session_id) ON DELETE CASCADE,
	field      TEXT NOT NULL,
	value      TEXT NOT NULL,
	PRIMARY KEY (session_id, field)
);
CREATE INDEX IF NOT EXISTS idx_session_queries_session ON session_queries(session_id, id);
`

// NewSQLiteStore opens (or creates) the session database under dataDir.
// Pass an empty dataDir for an in-memory database.
func NewSQLiteStore(dataDir string, expiry time.Duration) (*SQLiteStore, error) {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "sessions.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("migrate session database: %w", err)
	}

	return &SQLiteStore{db: db, expiry: expiry, now: time.Now}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, sessionID, query string) error {
	if sessionID == "" {
		return nil
	}
	now := s.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append query: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, last_touched) VALUES (?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET last_touched = excluded.last_touched`,
		sessionID, now); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO session_queries (session_id, query, created_at) VALUES (?, ?, ?)`,
		sessionID, query, now); err != nil {
		return fmt.Errorf("store query: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) History(ctx context.Context, sessionID string, max int) ([]string, error) {
	if err := s.purgeExpired(ctx); err != nil {
		return nil, err
	}

	q := `SELECT query FROM session_queries WHERE session_id = ? ORDER BY id`
	queries := []string{}
	if err := s.db.SelectContext(ctx, &queries, q, sessionID); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if max > 0 && len(queries) > max {
		queries = queries[len(queries)-max:]
	}
	return queries, nil
}

func (s *SQLiteStore) Defaults(ctx context.Context, sessionID string) (map[string]string, error) {
	if err := s.purgeExpired(ctx); err != nil {
		return nil, err
	}

	rows := []struct {
		Field string `db:"field"`
		Value string `db:"value"`
	}{}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT field, value FROM session_defaults WHERE session_id = ?`, sessionID); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Field] = r.Value
	}
	return out, nil
}

func (s *SQLiteStore) MergeDefaults(ctx context.Context, sessionID string, partial map[string]string) error {
	if sessionID == "" || len(partial) == 0 {
		return nil
	}
	now := s.now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("merge defaults: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, last_touched) VALUES (?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET last_touched = excluded.last_touched`,
		sessionID, now); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	for field, value := range partial {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO session_defaults (session_id, field, value) VALUES (?, ?, ?)
			 ON CONFLICT(session_id, field) DO UPDATE SET value = excluded.value`,
			sessionID, field, value); err != nil {
			return fmt.Errorf("store default %q: %w", field, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) purgeExpired(ctx context.Context) error {
	cutoff := s.now().UTC().Add(-s.expiry)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE last_touched < ?`, cutoff); err != nil {
		return fmt.Errorf("purge expired sessions: %w", err)
	}
	return nil
}

package eventstore

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/cmsbridge/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based audit store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.EventStoreError("open sqlite database").
			WithCause(err).
			WithContext("path", dbPath).
			Build()
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.EventStoreError("initialize schema").
			WithCause(err).
			Build()
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS transitions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_key TEXT NOT NULL,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		actor TEXT,
		occurred_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entry_key ON transitions(entry_key);
	CREATE INDEX IF NOT EXISTS idx_occurred_at ON transitions(occurred_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records a transition for an entry key.
func (s *SQLiteStore) Append(ctx context.Context, key, from, to, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transitions (entry_key, from_status, to_status, actor, occurred_at) VALUES (?, ?, ?, ?, ?)",
		key, from, to, actor, time.Now().Unix(),
	)
	if err != nil {
		return ferrors.EventStoreError("insert transition").
			WithCause(err).
			WithContext("key", key).
			Build()
	}
	return nil
}

// ByKey returns all transitions for one entry key, oldest first.
func (s *SQLiteStore) ByKey(ctx context.Context, key string) ([]Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, entry_key, from_status, to_status, actor, occurred_at FROM transitions WHERE entry_key = ? ORDER BY id",
		key,
	)
	if err != nil {
		return nil, ferrors.EventStoreError("query transitions").
			WithCause(err).
			WithContext("key", key).
			Build()
	}
	defer rows.Close()

	return scanTransitions(rows)
}

// Range returns transitions recorded within [start, end], oldest first.
func (s *SQLiteStore) Range(ctx context.Context, start, end time.Time) ([]Transition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, entry_key, from_status, to_status, actor, occurred_at FROM transitions WHERE occurred_at >= ? AND occurred_at <= ? ORDER BY id",
		start.Unix(), end.Unix(),
	)
	if err != nil {
		return nil, ferrors.EventStoreError("query transitions").
			WithCause(err).
			Build()
	}
	defer rows.Close()

	return scanTransitions(rows)
}

func scanTransitions(rows *sql.Rows) ([]Transition, error) {
	var transitions []Transition
	for rows.Next() {
		var t Transition
		var actor sql.NullString
		var occurredAt int64

		if err := rows.Scan(&t.ID, &t.Key, &t.FromStatus, &t.ToStatus, &actor, &occurredAt); err != nil {
			return nil, ferrors.EventStoreError("scan transition").
				WithCause(err).
				Build()
		}
		t.Actor = actor.String
		t.OccurredAt = time.Unix(occurredAt, 0)
		transitions = append(transitions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, ferrors.EventStoreError("iterate rows").
			WithCause(err).
			Build()
	}
	return transitions, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

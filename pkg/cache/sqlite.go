package cache

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// SQLiteStore persists cache entries in a single sqlite table.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", path)
	}

	if _, err := db.Exec(buildCreateResponsesTable()); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialising database")
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Close()
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query, read := buildSelectResponse()
	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return Entry{}, false, errors.Wrapf(err, "loading %s", key)
	}
	return read(rows)
}

func (s *SQLiteStore) Save(ctx context.Context, key string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, buildUpsertResponse(), key, entry.Data, entry.StoredAt.UnixMilli())
	return errors.Wrapf(err, "saving %s", key)
}

// Purge deletes rows stored before the given time and reports how many went.
func (s *SQLiteStore) Purge(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, buildPurgeResponses(), before.UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "purging responses")
	}
	return res.RowsAffected()
}

func buildCreateResponsesTable() string {
	return `CREATE TABLE IF NOT EXISTS responses (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		stored_at INTEGER NOT NULL);`
}

func buildSelectResponse() (string, func(*sql.Rows) (Entry, bool, error)) {
	return `SELECT data, stored_at FROM responses WHERE key = ?`, processSelectResponseRows
}

func processSelectResponseRows(rows *sql.Rows) (Entry, bool, error) {
	defer rows.Close()

	// only can be one row
	if rows.Next() {
		var data []byte
		var storedAt int64
		if err := rows.Scan(&data, &storedAt); err != nil {
			return Entry{}, false, err
		}
		return Entry{Data: data, StoredAt: time.UnixMilli(storedAt)}, true, nil
	}
	return Entry{}, false, rows.Err()
}

func buildUpsertResponse() string {
	return `INSERT OR REPLACE INTO responses (key, data, stored_at) VALUES (?, ?, ?)`
}

func buildPurgeResponses() string {
	return `DELETE FROM responses WHERE stored_at < ?`
}

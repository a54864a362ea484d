package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	namespace TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     TEXT NOT NULL,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, key)
)`

// OpenSQLite opens a SQLite database at path and ensures the kv table exists.
// If logger is nil the open is silent.
func OpenSQLite(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening database", "path", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "exec %q", p)
		}
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	if logger != nil {
		logger.Infow("Database opened", "path", path, "wal_mode", true)
	}
	return db, nil
}

// Migrate creates the kv table if needed.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "create kv table")
	}
	return nil
}

// SQLStore is one namespace inside the shared kv table.
type SQLStore struct {
	db        *sql.DB
	namespace string
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore returns a namespace view over db. The kv table must exist.
func NewSQLStore(db *sql.DB, namespace string) *SQLStore {
	return &SQLStore{db: db, namespace: namespace}
}

func (s *SQLStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE namespace = ? AND key = ?",
		s.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "select %s/%s", s.namespace, key)
	}
	if err := decode(json.RawMessage(value), key, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value any) error {
	raw, err := encode(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		s.namespace, key, string(raw),
	)
	return errors.Wrapf(err, "upsert %s/%s", s.namespace, key)
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM kv WHERE namespace = ? AND key = ?",
		s.namespace, key,
	)
	return errors.Wrapf(err, "delete %s/%s", s.namespace, key)
}

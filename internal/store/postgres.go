package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore keeps model tables in a single keyed Postgres table. It is
// the durable backend that carries learning across sessions; checkpoints
// are written at decision boundaries, not per update.
type PostgresStore struct {
	db *sql.DB
}

// ConnectPostgres opens a connection pool and ensures the schema exists.
func ConnectPostgres(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an existing pool for use in tests.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS model_kv (
			kind       TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (kind, key)
		);
		CREATE TABLE IF NOT EXISTS model_kv_snapshots (
			name       TEXT NOT NULL,
			kind       TEXT NOT NULL,
			key        TEXT NOT NULL,
			value      DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (name, kind, key)
		);`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Get returns the stored value or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, kind Kind, key string) (float64, error) {
	var v float64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM model_kv WHERE kind = $1 AND key = $2`,
		string(kind), key,
	).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get %s/%s: %w", kind, key, err)
	}
	return v, nil
}

// Put upserts a value.
func (s *PostgresStore) Put(ctx context.Context, kind Kind, key string, value float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model_kv (kind, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (kind, key) DO UPDATE SET value = $3, updated_at = now()`,
		string(kind), key, value,
	)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", kind, key, err)
	}
	return nil
}

// Increment adds delta atomically and returns the new value.
func (s *PostgresStore) Increment(ctx context.Context, kind Kind, key string, delta float64) (float64, error) {
	var v float64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO model_kv (kind, key, value) VALUES ($1, $2, $3)
		 ON CONFLICT (kind, key) DO UPDATE SET
			value = model_kv.value + EXCLUDED.value,
			updated_at = now()
		 RETURNING value`,
		string(kind), key, delta,
	).Scan(&v)
	if err != nil {
		return 0, fmt.Errorf("increment %s/%s: %w", kind, key, err)
	}
	return v, nil
}

// Scan returns all entries of kind whose key starts with prefix.
func (s *PostgresStore) Scan(ctx context.Context, kind Kind, prefix string) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM model_kv WHERE kind = $1 AND key LIKE $2 || '%'`,
		string(kind), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("scan %s/%s: %w", kind, prefix, err)
	}
	defer rows.Close()

	out := make(map[string]float64)
	for rows.Next() {
		var k string
		var v float64
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Delete removes a key.
func (s *PostgresStore) Delete(ctx context.Context, kind Kind, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM model_kv WHERE kind = $1 AND key = $2`, string(kind), key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", kind, key, err)
	}
	return nil
}

// DeleteAll clears a model's table.
func (s *PostgresStore) DeleteAll(ctx context.Context, kind Kind) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM model_kv WHERE kind = $1`, string(kind))
	if err != nil {
		return fmt.Errorf("delete all %s: %w", kind, err)
	}
	return nil
}

// Snapshot copies the live table of kind into a named backup, replacing
// any previous snapshot of the same name.
func (s *PostgresStore) Snapshot(ctx context.Context, kind Kind, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM model_kv_snapshots WHERE name = $1 AND kind = $2`,
		name, string(kind)); err != nil {
		return fmt.Errorf("snapshot clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO model_kv_snapshots (name, kind, key, value)
		 SELECT $1, kind, key, value FROM model_kv WHERE kind = $2`,
		name, string(kind)); err != nil {
		return fmt.Errorf("snapshot copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot commit: %w", err)
	}
	return nil
}

// Restore replaces the live table of kind with the named backup.
func (s *PostgresStore) Restore(ctx context.Context, kind Kind, name string) error {
	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM model_kv_snapshots WHERE name = $1 AND kind = $2`,
		name, string(kind)).Scan(&count); err != nil {
		return fmt.Errorf("restore lookup: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("restore %s@%s: %w", kind, name, ErrNotFound)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("restore begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM model_kv WHERE kind = $1`, string(kind)); err != nil {
		return fmt.Errorf("restore clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO model_kv (kind, key, value)
		 SELECT kind, key, value FROM model_kv_snapshots
		 WHERE name = $1 AND kind = $2`,
		name, string(kind)); err != nil {
		return fmt.Errorf("restore copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("restore commit: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-coffee-orders/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_records (
	collection TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      JSONB       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, key)
)`

// Store keeps records in a single kv_records table.
type Store struct{ DB *pgxpool.Pool }

func NewStore(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create kv_records: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var value string
	err := s.DB.QueryRow(ctx,
		`SELECT value::text FROM kv_records WHERE collection=$1 AND key=$2`,
		collection, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, key, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s/%s: %w", collection, key, err)
	}
	return []byte(value), nil
}

func (s *Store) Set(ctx context.Context, collection, key string, value []byte) error {
	_, err := s.DB.Exec(ctx, `
INSERT INTO kv_records (collection, key, value, updated_at)
VALUES ($1, $2, $3::jsonb, now())
ON CONFLICT (collection, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		collection, key, string(value))
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, collection, key string) error {
	if _, err := s.DB.Exec(ctx,
		`DELETE FROM kv_records WHERE collection=$1 AND key=$2`, collection, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	return nil
}

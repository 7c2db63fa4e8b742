// Package pgvector provides a VectorStore on PostgreSQL with the pgvector
// extension.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS sercha_collections (
    name TEXT PRIMARY KEY,
    size INTEGER NOT NULL,
    distance TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sercha_points (
    collection TEXT NOT NULL REFERENCES sercha_collections(name) ON DELETE CASCADE,
    id TEXT NOT NULL,
    embedding vector NOT NULL,
    payload JSONB NOT NULL,
    PRIMARY KEY (collection, id)
);
`

// Store keeps every collection in one points table keyed by collection name.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and creates the schema if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: pgvector DSN is empty", domain.ErrConfiguration)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	s := &Store{db: db}
	if err := s.bootstrap(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) bootstrap(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureCollection registers the collection, or checks an existing one
// against size.
func (s *Store) EnsureCollection(ctx context.Context, name string, size int, distance domain.Distance) error {
	if size <= 0 {
		return fmt.Errorf("%w: collection size must be positive", domain.ErrInvalidInput)
	}
	if distance == "" {
		distance = domain.DistanceCosine
	}

	existing, _, err := s.collection(ctx, name)
	switch {
	case err == nil:
		if existing != size {
			return fmt.Errorf("%w: collection %s has size %d, want %d", domain.ErrDimensionMismatch, name, existing, size)
		}
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	const q = `INSERT INTO sercha_collections (name, size, distance) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, q, name, size, distance.String()); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

func (s *Store) collection(ctx context.Context, name string) (int, domain.Distance, error) {
	var size int
	var distance string
	err := s.db.QueryRowContext(ctx,
		`SELECT size, distance FROM sercha_collections WHERE name = $1`, name).Scan(&size, &distance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return 0, "", fmt.Errorf("read collection %s: %w", name, err)
	}
	return size, domain.Distance(distance), nil
}

// Upsert writes points in one transaction, overwriting existing ids.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.StoredPoint) error {
	size, _, err := s.collection(ctx, collection)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sercha_points (collection, id, embedding, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, id) DO UPDATE
		SET embedding = EXCLUDED.embedding, payload = EXCLUDED.payload`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		if len(p.Vector) != size {
			return fmt.Errorf("%w: point %s has %d dimensions, want %d", domain.ErrDimensionMismatch, p.ID, len(p.Vector), size)
		}
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("encode payload of %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, p.ID, pgvector.NewVector(p.Vector), payload); err != nil {
			return fmt.Errorf("upsert point %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Scroll pages through points in id order. The cursor is the last id
// returned; an extra row is fetched to detect the final page.
func (s *Store) Scroll(
	ctx context.Context,
	collection string,
	limit int,
	cursor domain.Cursor,
) ([]domain.Record, domain.Cursor, error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}
	if _, _, err := s.collection(ctx, collection); err != nil {
		return nil, "", err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM sercha_points
		WHERE collection = $1 AND id > $2
		ORDER BY id
		LIMIT $3`, collection, string(cursor), limit+1)
	if err != nil {
		return nil, "", fmt.Errorf("scroll %s: %w", collection, err)
	}
	defer rows.Close()

	records := make([]domain.Record, 0, limit)
	more := false
	for rows.Next() {
		if len(records) == limit {
			more = true
			break
		}
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, "", fmt.Errorf("scan point: %w", err)
		}
		payload, err := decodePayload(raw)
		if err != nil {
			return nil, "", fmt.Errorf("point %s: %w", id, err)
		}
		records = append(records, domain.Record{ID: id, Payload: payload})
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("scroll %s: %w", collection, err)
	}

	if !more {
		return records, "", nil
	}
	return records, domain.Cursor(records[len(records)-1].ID), nil
}

// Count returns the number of points in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if _, _, err := s.collection(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM sercha_points WHERE collection = $1`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func decodePayload(raw []byte) (map[string]any, error) {
	payload := make(map[string]any)
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return payload, nil
}

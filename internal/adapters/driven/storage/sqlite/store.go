package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/sercha-ingest/internal/core/domain"
	"github.com/custodia-labs/sercha-ingest/internal/core/ports/driven"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "ingest.db"

// Store is a unified SQLite-based storage that provides access to
// the vector and run stores through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.sercha-ingest/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".sercha-ingest", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL mode so run history reads do not block an ingestion.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorStore returns a VectorStore backed by this store. Closing it does
// not close the database; the Store owns the connection.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// RunStore returns a RunStore backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// EnsureCollection creates the collection row if it does not exist.
func (v *vectorStore) EnsureCollection(ctx context.Context, name string, size int, distance domain.Distance) error {
	if size <= 0 {
		return fmt.Errorf("%w: collection size must be positive", domain.ErrInvalidInput)
	}

	existing, err := v.size(ctx, name)
	switch {
	case err == nil:
		if existing != size {
			return fmt.Errorf("%w: collection %s has size %d, want %d", domain.ErrDimensionMismatch, name, existing, size)
		}
		return nil
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	_, err = v.store.db.ExecContext(ctx,
		`INSERT INTO collections (name, size, distance) VALUES (?, ?, ?) ON CONFLICT(name) DO NOTHING`,
		name, size, string(distance))
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	return nil
}

func (v *vectorStore) size(ctx context.Context, name string) (int, error) {
	var size int
	err := v.store.db.QueryRowContext(ctx, `SELECT size FROM collections WHERE name = ?`, name).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("collection %s: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("querying collection: %w", err)
	}
	return size, nil
}

// Upsert writes points in one transaction, overwriting existing ids.
func (v *vectorStore) Upsert(ctx context.Context, collection string, points []domain.StoredPoint) error {
	size, err := v.size(ctx, collection)
	if err != nil {
		return err
	}
	for _, p := range points {
		if len(p.Vector) != size {
			return fmt.Errorf("%w: point %s has %d dimensions, want %d", domain.ErrDimensionMismatch, p.ID, len(p.Vector), size)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO points (collection, id, vector, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			vector = excluded.vector,
			payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		payload, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshalling payload for %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, collection, p.ID, float32SliceToBytes(p.Vector), string(payload)); err != nil {
			return fmt.Errorf("upserting point %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Scroll returns up to limit records with ids after cursor, in id order.
func (v *vectorStore) Scroll(
	ctx context.Context,
	collection string,
	limit int,
	cursor domain.Cursor,
) ([]domain.Record, domain.Cursor, error) {
	if limit <= 0 {
		return nil, "", fmt.Errorf("%w: limit must be positive", domain.ErrInvalidInput)
	}
	if _, err := v.size(ctx, collection); err != nil {
		return nil, "", err
	}

	// One extra row tells whether another page follows.
	rows, err := v.store.db.QueryContext(ctx, `
		SELECT id, payload FROM points
		WHERE collection = ? AND id > ?
		ORDER BY id
		LIMIT ?
	`, collection, string(cursor), limit+1)
	if err != nil {
		return nil, "", fmt.Errorf("scrolling points: %w", err)
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, "", fmt.Errorf("scanning point: %w", err)
		}
		rec := domain.Record{ID: id}
		if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
			return nil, "", fmt.Errorf("decoding payload for %s: %w", id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterating points: %w", err)
	}

	if len(records) <= limit {
		return records, "", nil
	}
	records = records[:limit]
	return records, domain.Cursor(records[limit-1].ID), nil
}

// Count returns the number of points in the collection.
func (v *vectorStore) Count(ctx context.Context, collection string) (int, error) {
	if _, err := v.size(ctx, collection); err != nil {
		return 0, err
	}
	var n int
	if err := v.store.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM points WHERE collection = ?`, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}
	return n, nil
}

// Close is a no-op; the owning Store closes the database.
func (v *vectorStore) Close() error {
	return nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Save stores or updates a run.
func (r *runStore) Save(ctx context.Context, run domain.Run) error {
	var completed sql.NullTime
	if run.CompletedAt != nil {
		completed = sql.NullTime{Time: run.CompletedAt.UTC(), Valid: true}
	}

	_, err := r.store.db.ExecContext(ctx, `
		INSERT INTO runs (id, collection, source, status, started_at, completed_at,
			passages, summaries, batches, warnings, index_path, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			completed_at = excluded.completed_at,
			passages = excluded.passages,
			summaries = excluded.summaries,
			batches = excluded.batches,
			warnings = excluded.warnings,
			index_path = excluded.index_path,
			error = excluded.error
	`, run.ID, run.Collection, run.Source, string(run.Status), run.StartedAt.UTC(), completed,
		run.Passages, run.Summaries, run.Batches, run.Warnings, run.IndexPath, run.Error)
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

const runColumns = `id, collection, source, status, started_at, completed_at,
	passages, summaries, batches, warnings, index_path, error`

// Get retrieves a run by id.
func (r *runStore) Get(ctx context.Context, id string) (*domain.Run, error) {
	row := r.store.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns the most recent runs first.
func (r *runStore) List(ctx context.Context, limit int) ([]domain.Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*domain.Run, error) {
	var (
		run       domain.Run
		status    string
		started   time.Time
		completed sql.NullTime
	)
	err := row.Scan(&run.ID, &run.Collection, &run.Source, &status, &started, &completed,
		&run.Passages, &run.Summaries, &run.Batches, &run.Warnings, &run.IndexPath, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.Status = domain.RunStatus(status)
	run.StartedAt = started
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

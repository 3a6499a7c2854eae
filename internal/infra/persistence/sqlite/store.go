// Package sqlite persists the run registry to a single SQLite table as JSON
// snapshots. It reuses the in-memory store for all reads and writes and
// flushes the full state after every successful save.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	sqldocs "nmrcore/docs/schema/sql"
	"nmrcore/internal/infra/persistence/memory"
	"nmrcore/internal/registry"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ registry.Store = (*Store)(nil)

const runsBucket = "runs"

// Store is a snapshotting SQLite-backed run store.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the embedded
// in-memory store from any existing snapshot. An empty path defaults to
// nmrcore.db in the working directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "nmrcore.db"
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
	if _, err := db.Exec(sqldocs.SQLite); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	var payload []byte
	err := s.db.QueryRow(`SELECT payload FROM state WHERE bucket = ?`, runsBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	var snapshot memory.Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return fmt.Errorf("decode %s: %w", runsBucket, err)
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode %s: %w", runsBucket, err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, runsBucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", runsBucket, err)
	}
	return nil
}

// SaveRun stores the run in memory, then snapshots the state to SQLite.
func (s *Store) SaveRun(ctx context.Context, run registry.Run) (registry.Run, error) {
	saved, err := s.Store.SaveRun(ctx, run)
	if err != nil {
		return saved, err
	}
	if err := s.persist(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

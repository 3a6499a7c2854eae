// Package postgres provides a Postgres-backed run store that mirrors the
// in-memory semantics while snapshotting state into a JSONB table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	sqldocs "nmrcore/docs/schema/sql"
	"nmrcore/internal/infra/persistence/memory"
	"nmrcore/internal/registry"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the registry interface.
var _ registry.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/nmrcore?sslmode=disable"
	runsBucket    = "runs"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists run records to Postgres while reusing the in-memory
// implementation for reads and writes.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN). It ensures the snapshot table exists and hydrates the
// in-memory store from any existing snapshot.
func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	mem := memory.NewStore()
	mem.ImportState(snapshot)
	return &Store{Store: mem, db: db}, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, sqldocs.Postgres); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, error) {
	var payload []byte
	err := db.QueryRowContext(ctx, `SELECT payload FROM state WHERE bucket = $1`, runsBucket).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.Snapshot{}, nil
	}
	if err != nil {
		return memory.Snapshot{}, fmt.Errorf("select state: %w", err)
	}
	var snapshot memory.Snapshot
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &snapshot); err != nil {
			return memory.Snapshot{}, fmt.Errorf("decode %s: %w", runsBucket, err)
		}
	}
	return snapshot, nil
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode %s: %w", runsBucket, err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, runsBucket, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", runsBucket, err)
	}
	return nil
}

// SaveRun stores the run in memory, then snapshots the state to Postgres.
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

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}

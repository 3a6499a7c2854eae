// Package memory provides the in-memory run store used for tests and
// ephemeral environments. Durable stores embed it and snapshot its state.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"

	"nmrcore/internal/registry"
)

// Compile-time contract assertion ensuring the store satisfies the registry interface.
var _ registry.Store = (*Store)(nil)

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Runs map[string]registry.Run `json:"runs"`
}

// Store keeps run records in process memory. All methods are safe for
// concurrent use and every record crossing the boundary is cloned.
type Store struct {
	mu   sync.RWMutex
	runs map[string]registry.Run
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{runs: make(map[string]registry.Run)}
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// SaveRun stores the run, assigning an ID when the record carries none, and
// returns the stored copy.
func (s *Store) SaveRun(_ context.Context, run registry.Run) (registry.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run.ID == "" {
		run.ID = newID()
	}
	s.runs[run.ID] = run.Clone()
	return run.Clone(), nil
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(_ context.Context, id string) (registry.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return registry.Run{}, false, nil
	}
	return run.Clone(), true, nil
}

// ListRuns returns all runs, newest first. Ties on start time fall back to
// the ID so the order is deterministic.
func (s *Store) ListRuns(_ context.Context) ([]registry.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]registry.Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Started.Equal(out[j].Started) {
			return out[i].Started.After(out[j].Started)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := Snapshot{Runs: make(map[string]registry.Run, len(s.runs))}
	for id, run := range s.runs {
		snapshot.Runs[id] = run.Clone()
	}
	return snapshot
}

// ImportState replaces the store state with the provided snapshot. Records
// keyed under a different ID than they carry are re-keyed by their own ID;
// records without any ID are dropped.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = make(map[string]registry.Run, len(snapshot.Runs))
	for key, run := range snapshot.Runs {
		if run.ID == "" {
			run.ID = key
		}
		if run.ID == "" {
			continue
		}
		s.runs[run.ID] = run.Clone()
	}
}

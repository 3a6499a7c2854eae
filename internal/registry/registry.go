// Package registry records completed scan runs so converted documents can be
// traced back to the directory they came from.
package registry

import (
	"context"
	"time"

	"nmrcore/pkg/domain"
)

// Run summarizes one scan of an experiment directory. DocumentKey is the blob
// key of the converted document when one was uploaded, empty otherwise.
type Run struct {
	ID          string         `json:"id"`
	Root        string         `json:"root"`
	DocumentKey string         `json:"document_key,omitempty"`
	Started     time.Time      `json:"started"`
	Finished    time.Time      `json:"finished"`
	Experiments int            `json:"experiments"`
	WithPeaks   int            `json:"with_peaks"`
	Diagnostics int            `json:"diagnostics"`
	Types       map[string]int `json:"types,omitempty"`
	Notes       []string       `json:"notes,omitempty"`
}

// Clone returns a deep copy so callers can mutate the result freely.
func (r Run) Clone() Run {
	cp := r
	if r.Types != nil {
		cp.Types = make(map[string]int, len(r.Types))
		for k, v := range r.Types {
			cp.Types[k] = v
		}
	}
	cp.Notes = append([]string(nil), r.Notes...)
	return cp
}

// Summarize condenses a scanned directory into a run record. The ID is left
// empty so the store assigns one on save.
func Summarize(dir *domain.Directory, started, finished time.Time) Run {
	run := Run{
		Started:  started,
		Finished: finished,
	}
	if dir == nil {
		return run
	}
	run.Root = dir.Root()
	run.Experiments = dir.Len()
	run.Diagnostics = len(dir.Diagnostics())
	types := make(map[string]int)
	for _, exp := range dir.Experiments() {
		if exp.HasPeaks {
			run.WithPeaks++
		}
		types[string(exp.Type)]++
	}
	if len(types) > 0 {
		run.Types = types
	}
	return run
}

// Store is the persistence contract for run records. SaveRun assigns an ID
// when the record carries none and returns the stored copy. ListRuns orders
// newest first.
type Store interface {
	SaveRun(ctx context.Context, run Run) (Run, error)
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context) ([]Run, error)
	Close() error
}

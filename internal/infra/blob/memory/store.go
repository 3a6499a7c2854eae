// Package memory implements an in-process document store for tests and
// one-shot conversions that should leave no files behind.
package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"nmrcore/internal/blob/core"
)

type entry struct {
	data []byte
	info core.Info
}

// Store keeps documents in a map guarded by a mutex. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{entries: make(map[string]entry)}
}

// Driver returns the backend identifier.
func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Put stores the document under key. Existing keys fail.
func (s *Store) Put(_ context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	if strings.TrimSpace(key) == "" {
		return core.Info{}, fmt.Errorf("empty key")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return core.Info{}, err
	}
	sum := sha256.Sum256(data)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return core.Info{}, fmt.Errorf("blob %s already exists", key)
	}
	info := core.Info{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  opts.ContentType,
		ETag:         hex.EncodeToString(sum[:]),
		Metadata:     cloneMeta(opts.Metadata),
		LastModified: time.Now().UTC(),
		URL:          memoryURL(key),
	}
	s.entries[key] = entry{data: data, info: info}
	return cloneInfo(info), nil
}

// Get returns the stored document and its metadata.
func (s *Store) Get(_ context.Context, key string) (core.Info, io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return core.Info{}, nil, fmt.Errorf("blob %s not found", key)
	}
	return cloneInfo(e.info), io.NopCloser(bytes.NewReader(e.data)), nil
}

// Head returns metadata only.
func (s *Store) Head(_ context.Context, key string) (core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		return core.Info{}, fmt.Errorf("blob %s not found", key)
	}
	return cloneInfo(e.info), nil
}

// Delete removes the document, reporting whether it existed.
func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// List returns metadata for keys with the prefix, sorted ascending by key.
func (s *Store) List(_ context.Context, prefix string) ([]core.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var infos []core.Info
	for key, e := range s.entries {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			infos = append(infos, cloneInfo(e.info))
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// PresignURL returns a pseudo URL. Only GET is supported.
func (s *Store) PresignURL(_ context.Context, key string, opts core.SignedURLOptions) (string, error) {
	if opts.Method != "" && !strings.EqualFold(opts.Method, "GET") {
		return "", core.ErrUnsupported
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.entries[key]; !ok {
		return "", fmt.Errorf("blob %s not found", key)
	}
	return memoryURL(key), nil
}

func memoryURL(key string) string {
	return "memory://" + key
}

func cloneMeta(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func cloneInfo(info core.Info) core.Info {
	info.Metadata = cloneMeta(info.Metadata)
	return info
}

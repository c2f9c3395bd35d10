package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	genetic   map[string][]json.RawMessage
	biometric map[string][]json.RawMessage
	// arrival preserves the global insertion order of biometric documents.
	arrival []json.RawMessage
	count   int
	closed  bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		genetic:   make(map[string][]json.RawMessage),
		biometric: make(map[string][]json.RawMessage),
	}
}

// AppendGenetic implements Store.
func (s *MemoryStore) AppendGenetic(_ context.Context, athleteID string, docs []json.RawMessage) (err error) {
	defer observe("append_genetic", time.Now(), &err)
	return s.append(s.genetic, athleteID, docs, false)
}

// AppendBiometrics implements Store.
func (s *MemoryStore) AppendBiometrics(_ context.Context, athleteID string, docs []json.RawMessage) (err error) {
	defer observe("append_biometrics", time.Now(), &err)
	return s.append(s.biometric, athleteID, docs, true)
}

func (s *MemoryStore) append(bucket map[string][]json.RawMessage, athleteID string, docs []json.RawMessage, track bool) error {
	id, err := athleteKey(athleteID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	for _, d := range docs {
		c := append(json.RawMessage(nil), d...)
		bucket[id] = append(bucket[id], c)
		if track {
			s.arrival = append(s.arrival, c)
		}
		s.count++
	}
	return nil
}

// Genetic implements Store.
func (s *MemoryStore) Genetic(_ context.Context, athleteID string) (docs []json.RawMessage, err error) {
	defer observe("genetic", time.Now(), &err)
	return s.get(s.genetic, athleteID)
}

// Biometrics implements Store.
func (s *MemoryStore) Biometrics(_ context.Context, athleteID string) (docs []json.RawMessage, err error) {
	defer observe("biometrics", time.Now(), &err)
	return s.get(s.biometric, athleteID)
}

func (s *MemoryStore) get(bucket map[string][]json.RawMessage, athleteID string) ([]json.RawMessage, error) {
	id, err := athleteKey(athleteID)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	docs := bucket[id]
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return append([]json.RawMessage(nil), docs...), nil
}

// AllBiometrics implements Store.
func (s *MemoryStore) AllBiometrics(_ context.Context) (docs []json.RawMessage, err error) {
	defer observe("all_biometrics", time.Now(), &err)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	return append([]json.RawMessage(nil), s.arrival...), nil
}

// Athletes implements Store.
func (s *MemoryStore) Athletes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	seen := make(map[string]struct{}, len(s.genetic)+len(s.biometric))
	for id := range s.genetic {
		seen[id] = struct{}{}
	}
	for id := range s.biometric {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

package store

import (
	"context"
	"sync"
	"time"
)

// MemoryProgressStore is a development and test implementation.
// WARNING: not suitable for multi-instance production — state is lost on
// restart.
type MemoryProgressStore struct {
	mu   sync.Mutex
	recs map[ProgressKey]ProgressRecord
}

func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{recs: make(map[ProgressKey]ProgressRecord)}
}

func (s *MemoryProgressStore) Get(_ context.Context, key ProgressKey) (*ProgressRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[key]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (s *MemoryProgressStore) Upsert(_ context.Context, key ProgressKey, rec ProgressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.UpdatedAt = time.Now().UTC()
	s.recs[key] = rec
	return nil
}

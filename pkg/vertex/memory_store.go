// Copyright 2025 Certen Protocol
//
// In-memory Store, used by unit tests and by the standalone/dev server
// profile where AIG_STORAGE_BACKEND=memory.

package vertex

import (
	"context"
	"sync"

	"github.com/certen/aig/pkg/aigerr"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Vertex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Vertex)}
}

func (s *MemoryStore) Put(_ context.Context, v Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[v.ID] = cloneVertex(v)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Vertex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[id]
	if !ok {
		return Vertex{}, aigerr.NotFound("vertex %q not found", id)
	}
	return cloneVertex(v), nil
}

func (s *MemoryStore) Query(_ context.Context, criteria Criteria, order Order, cursor string, pageSize int) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Vertex, 0, len(s.data))
	for _, v := range s.data {
		all = append(all, v)
	}
	return PaginateInMemory(all, criteria, order, cursor, pageSize)
}

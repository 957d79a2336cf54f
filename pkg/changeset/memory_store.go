// Copyright 2025 Certen Protocol

package changeset

import (
	"context"
	"sort"
	"sync"

	"github.com/certen/aig/pkg/aigerr"
)

// MemoryStore is an in-process Store backed by a mutex-guarded map, for
// tests and single-node deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]Changeset
	seq  map[string]int // insertion order, used to break dateCreated ties
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Changeset), seq: make(map[string]int)}
}

func (s *MemoryStore) Insert(ctx context.Context, c Changeset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seq[c.ID]; !ok {
		s.seq[c.ID] = len(s.seq)
	}
	s.byID[c.ID] = c
	return nil
}

func (s *MemoryStore) List(ctx context.Context, vertexID string, ascending bool) ([]Changeset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Changeset
	for _, c := range s.byID {
		if c.VertexID == vertexID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DateCreated.Equal(out[j].DateCreated) {
			if ascending {
				return s.seq[out[i].ID] < s.seq[out[j].ID]
			}
			return s.seq[out[i].ID] > s.seq[out[j].ID]
		}
		if ascending {
			return out[i].DateCreated.Before(out[j].DateCreated)
		}
		return out[i].DateCreated.After(out[j].DateCreated)
	})
	return out, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (Changeset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return Changeset{}, aigerr.NotFound("changeset %q not found", id)
	}
	return c, nil
}

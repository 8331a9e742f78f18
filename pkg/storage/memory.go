package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/samber/lo"

	"github.com/matzehuels/plushie/pkg/graph"
)

// MemoryStore keeps results in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]graph.Result
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]graph.Result)}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, r *graph.Result) (string, error) {
	if err := prepare(r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.ID] = *r
	return r.ID, nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, id string) (*graph.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	if !ok {
		return nil, notFound(id)
	}
	return &r, nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]graph.Summary, error) {
	s.mu.RLock()
	results := lo.Values(s.results)
	s.mu.RUnlock()

	slices.SortFunc(results, func(a, b graph.Result) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	results = results[:min(len(results), listLimit(limit))]
	return lo.Map(results, func(r graph.Result, _ int) graph.Summary {
		return r.Summary()
	}), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return notFound(id)
	}
	delete(s.results, id)
	return nil
}

// Close does nothing.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)

package session

import (
	"context"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/matzehuels/plushie/pkg/errors"
)

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || s.IsExpired() {
		return nil, notFound(id)
	}
	return s, nil
}

func (m *MemoryStore) Set(_ context.Context, s *Session) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidInput, "session is nil")
	}
	if err := errors.ValidateSessionID(s.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Info, error) {
	m.mu.RLock()
	live := lo.Filter(lo.Values(m.sessions), func(s *Session, _ int) bool {
		return !s.IsExpired()
	})
	m.mu.RUnlock()

	sort.Slice(live, func(i, j int) bool {
		if live[i].CreatedAt.Equal(live[j].CreatedAt) {
			return live[i].ID < live[j].ID
		}
		return live[i].CreatedAt.Before(live[j].CreatedAt)
	})
	return lo.Map(live, func(s *Session, _ int) Info { return s.Info() }), nil
}

func (m *MemoryStore) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.IsExpired() {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Stop()
	}
	return len(expired), nil
}

// Len returns the number of registered sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

var _ Store = (*MemoryStore)(nil)

// Package session tracks live coordinator sessions.
//
// Every websocket connection served by the plushie server runs one
// [coordinator.Coordinator]. The server registers it in a [Store] for the
// lifetime of the connection so that sessions can be listed and, once they
// outlive their TTL, shut down.
//
// # Usage
//
//	store := session.NewMemoryStore()
//	sess := session.New(id, coord, cancel, session.DefaultTTL)
//	store.Set(ctx, sess)
//	defer store.Delete(ctx, sess.ID)
//
//	infos, err := store.List(ctx)
//
// Expired sessions are removed by Cleanup, which also cancels their
// coordinators.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/plushie/pkg/coordinator"
	"github.com/matzehuels/plushie/pkg/errors"
)

// Default durations.
const (
	// DefaultTTL is the longest a live session may run.
	DefaultTTL = 4 * time.Hour

	// DefaultCleanupInterval is how often servers sweep expired sessions.
	DefaultCleanupInterval = time.Minute
)

// StatsSource reports the progress of a running session.
type StatsSource interface {
	Stats() coordinator.Stats
}

// Session is one live coordinator.
type Session struct {
	ID         string
	RemoteAddr string
	Encoding   coordinator.Encoding
	CreatedAt  time.Time
	ExpiresAt  time.Time

	source StatsSource
	cancel context.CancelFunc
}

// Info is the listing view of a session.
type Info struct {
	ID         string    `json:"id"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Encoding   string    `json:"encoding"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Steps      int       `json:"steps"`
	Nodes      int       `json:"nodes"`
}

// GenerateID returns a fresh session id.
func GenerateID() string {
	return uuid.NewString()
}

// New creates a session for a running coordinator. An empty id gets a fresh
// one. cancel stops the coordinator and may be nil.
func New(id string, source StatsSource, cancel context.CancelFunc, ttl time.Duration) *Session {
	if id == "" {
		id = GenerateID()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &Session{
		ID:        id,
		Encoding:  coordinator.JSON,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		source:    source,
		cancel:    cancel,
	}
}

// IsExpired returns true if the session has outlived its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Stop cancels the session's coordinator.
func (s *Session) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Info snapshots the session.
func (s *Session) Info() Info {
	info := Info{
		ID:         s.ID,
		RemoteAddr: s.RemoteAddr,
		Encoding:   string(s.Encoding),
		CreatedAt:  s.CreatedAt,
		ExpiresAt:  s.ExpiresAt,
	}
	if s.source != nil {
		st := s.source.Stats()
		info.Steps, info.Nodes = st.Steps, st.Nodes
	}
	return info
}

// Store is the interface for session registries.
type Store interface {
	// Get returns a live session. Missing and expired sessions are
	// SESSION_NOT_FOUND errors.
	Get(ctx context.Context, id string) (*Session, error)

	// Set registers a session.
	Set(ctx context.Context, s *Session) error

	// Delete removes a session without stopping it.
	Delete(ctx context.Context, id string) error

	// List returns the live sessions, oldest first.
	List(ctx context.Context) ([]Info, error)

	// Cleanup stops and removes expired sessions. It returns how many were
	// removed.
	Cleanup(ctx context.Context) (int, error)
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "session not found: %s", id)
}

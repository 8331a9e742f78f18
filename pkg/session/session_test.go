package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/plushie/pkg/coordinator"
	"github.com/matzehuels/plushie/pkg/errors"
)

type fixedStats coordinator.Stats

func (f fixedStats) Stats() coordinator.Stats { return coordinator.Stats(f) }

func TestNew(t *testing.T) {
	s := New("", fixedStats{Steps: 3, Nodes: 13}, nil, 0)
	require.NoError(t, errors.ValidateSessionID(s.ID))
	assert.Equal(t, DefaultTTL, s.ExpiresAt.Sub(s.CreatedAt))
	assert.False(t, s.IsExpired())

	info := s.Info()
	assert.Equal(t, s.ID, info.ID)
	assert.Equal(t, "json", info.Encoding)
	assert.Equal(t, 3, info.Steps)
	assert.Equal(t, 13, info.Nodes)

	assert.NotEqual(t, s.ID, New("", nil, nil, time.Minute).ID)
	assert.Equal(t, "5f0c3c1e-4b1e-4d7a-9a39-1a0f4c2b9e77", New("5f0c3c1e-4b1e-4d7a-9a39-1a0f4c2b9e77", nil, nil, 0).ID)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a := New("", fixedStats{Steps: 1}, nil, time.Hour)
	b := New("", fixedStats{Steps: 2}, nil, time.Hour)
	b.CreatedAt = a.CreatedAt.Add(time.Second)
	require.NoError(t, store.Set(ctx, a))
	require.NoError(t, store.Set(ctx, b))

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, a.ID, infos[0].ID, "oldest first")
	assert.Equal(t, 2, infos[1].Steps)

	require.NoError(t, store.Delete(ctx, a.ID))
	_, err = store.Get(ctx, a.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound))
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreRejectsBadSessions(t *testing.T) {
	store := NewMemoryStore()
	assert.True(t, errors.Is(store.Set(context.Background(), nil), errors.ErrCodeInvalidInput))

	s := New("", nil, nil, time.Hour)
	s.ID = "../etc"
	assert.True(t, errors.Is(store.Set(context.Background(), s), errors.ErrCodeInvalidInput))
}

func TestCleanupStopsExpiredSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	stopped := false
	old := New("", nil, func() { stopped = true }, time.Hour)
	old.ExpiresAt = time.Now().Add(-time.Second)
	fresh := New("", nil, func() { t.Error("live session stopped") }, time.Hour)
	require.NoError(t, store.Set(ctx, old))
	require.NoError(t, store.Set(ctx, fresh))

	_, err := store.Get(ctx, old.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeSessionNotFound), "expired sessions are not returned")
	infos, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 1)

	n, err := store.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, stopped)
	assert.Equal(t, 1, store.Len())
}

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pattern"
	"github.com/matzehuels/plushie/pkg/plushie"
)

func relaxed(t *testing.T, src string, steps int) *graph.Result {
	t.Helper()
	g, err := hook.Compile(pattern.MustParse(src), hook.DefaultParams())
	require.NoError(t, err)
	p := plushie.FromGraph(g, plushie.DefaultParams())
	for range steps {
		p.Step(1)
	}
	return graph.NewResult(graph.FromInitialGraph(g), p)
}

// exercise runs the Store contract against a backend.
func exercise(t *testing.T, s Store) {
	ctx := context.Background()

	first := relaxed(t, "mr(6) 6*sc", 1)
	first.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	id, err := s.Save(ctx, first)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "ids are uuids")
	assert.Equal(t, id, first.ID)

	second := relaxed(t, "mr(4)", 2)
	second.CreatedAt = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	_, err = s.Save(ctx, second)
	require.NoError(t, err)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.Points, got.Points)
	assert.Equal(t, first.Graph.Nodes, got.Graph.Nodes)
	assert.Equal(t, first.Params.HookLeniency, got.Params.HookLeniency)
	assert.Equal(t, 1, got.Steps)

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, 5, list[0].Nodes)
	assert.Equal(t, 13, list[1].Nodes)

	list, err = s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	first.Steps = 42
	_, err = s.Save(ctx, first)
	require.NoError(t, err)
	got, err = s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Steps, "saving an existing id overwrites it")

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Get(ctx, id)
	assert.True(t, errors.Is(err, errors.ErrCodeResultNotFound))
	assert.True(t, errors.Is(s.Delete(ctx, id), errors.ErrCodeResultNotFound))

	require.NoError(t, s.Delete(ctx, second.ID))
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exercise(t, s)
}

func TestMemoryStoreRejectsInvalidResults(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Save(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	r := relaxed(t, "mr(3)", 0)
	r.Points = r.Points[:1]
	_, err = s.Save(context.Background(), r)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	r := relaxed(t, "mr(3)", 0)
	id, err := s.Save(context.Background(), r)
	require.NoError(t, err)

	got, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	got.Steps = 99

	again, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Steps)
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("PLUSHIE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PLUSHIE_TEST_MONGO_URI not set")
	}
	s, err := NewMongoStore(context.Background(), MongoConfig{
		URI:        uri,
		Database:   "plushie_test",
		Collection: "results_" + uuid.NewString()[:8],
	})
	require.NoError(t, err)
	defer func() {
		_ = s.coll.Drop(context.Background())
		_ = s.Close()
	}()
	exercise(t, s)
}

func TestNewMongoStoreRequiresURI(t *testing.T) {
	_, err := NewMongoStore(context.Background(), MongoConfig{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

// Package storage persists relaxed plushies.
//
// A [Store] keeps [graph.Result] documents under a uuid, so a result relaxed
// once by the CLI (relax --save) or the server can be fetched later by id.
//
// Two backends are provided:
//
//   - [MemoryStore]: process-local, for tests and single-process servers
//   - [MongoStore]: a MongoDB collection, documents use the bson tags of graph.Result
//
// Missing results are reported with code RESULT_NOT_FOUND; backend failures
// with code STORAGE_ERROR.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/graph"
)

// DefaultListLimit caps List when no limit is given.
const DefaultListLimit = 50

// Store persists relaxed results.
type Store interface {
	// Save stores r and returns its id. An empty r.ID is replaced by a new
	// uuid; saving an existing id overwrites it.
	Save(ctx context.Context, r *graph.Result) (string, error)

	// Get returns the result stored under id.
	Get(ctx context.Context, id string) (*graph.Result, error)

	// List returns summaries of the most recent results, newest first.
	List(ctx context.Context, limit int) ([]graph.Summary, error)

	// Delete removes the result stored under id.
	Delete(ctx context.Context, id string) error

	// Close releases the backend.
	Close() error
}

// prepare validates r and fills in its id and creation time.
func prepare(r *graph.Result) error {
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil result")
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeResultNotFound, "result %s not found", id)
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

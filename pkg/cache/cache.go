// Package cache stores compiled stitch graphs and relaxed results so repeated
// runs over the same pattern and params skip the expensive stages.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for servers and teams
//   - [NullCache]: never stores anything (--no-cache)
//
// # Keys
//
// Keys are content addressed. A [Keyer] derives them from the pattern text
// and the settings that influence a stage, so any change to either misses:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.GraphKey(source, cache.GraphKeyOpts{Leniency: "no-mercy", TipFromFO: true})
//	var g graph.StitchGraph
//	if err := cache.GetJSON(ctx, c, key, &g); errors.Is(err, cache.ErrCacheMiss) {
//	    // compile and cache.SetJSON(ctx, c, key, g, cache.GraphTTL)
//	}
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Default lifetimes per entry kind.
const (
	GraphTTL  = 30 * 24 * time.Hour
	ResultTTL = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// GetJSON decodes the value stored under key into v. It returns ErrCacheMiss
// when the key is absent or holds something v cannot be decoded from.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		return fmt.Errorf("%w: stale entry %s", ErrCacheMiss, key)
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return c.Set(ctx, key, data, ttl)
}

// NullCache never stores anything. Every Get misses.
type NullCache struct{}

// NewNullCache returns a cache that disables caching.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error { return nil }
func (NullCache) Close() error { return nil }

package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plushie/pkg/cache"
	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs compile → relax → render with caching. The relax stage is
// skipped when every requested format only needs the graph.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	hooks := observability.Pipeline()

	result := &Result{}

	// Stage 1: Compile
	compileStart := time.Now()
	hooks.OnCompileStart(ctx, len(opts.Source))
	sg, compileHit, err := r.CompileWithCacheInfo(ctx, opts)
	result.Stats.CompileTime = time.Since(compileStart)
	hooks.OnCompileComplete(ctx, sg.NodeCount(), result.Stats.CompileTime, err)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	result.Graph = sg
	if result.GraphHash, err = GraphHash(sg); err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	result.Stats.NodeCount = sg.NodeCount()
	result.Stats.EdgeCount = len(sg.Edges)
	result.CacheInfo.CompileHit = compileHit

	r.Logger.Info("compiled pattern",
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"duration", result.Stats.CompileTime)

	// Stage 2: Relax
	if opts.NeedsRelax() {
		relaxStart := time.Now()
		hooks.OnRelaxStart(ctx, sg.NodeCount())
		res, relaxHit, err := r.RelaxWithCacheInfo(ctx, sg, opts)
		result.Stats.RelaxTime = time.Since(relaxStart)
		steps := 0
		if res != nil {
			steps = res.Steps
		}
		hooks.OnRelaxComplete(ctx, steps, result.Stats.RelaxTime, err)
		if err != nil {
			return nil, fmt.Errorf("relax: %w", err)
		}
		result.Relaxed = res
		result.Stats.Steps = res.Steps
		result.CacheInfo.RelaxHit = relaxHit

		r.Logger.Info("relaxed plushie",
			"steps", res.Steps,
			"relaxed", res.Relaxed,
			"duration", result.Stats.RelaxTime)
	}

	// Stage 3: Render
	renderStart := time.Now()
	hooks.OnExportStart(ctx, opts.Formats)
	artifacts, err := Render(sg, result.Relaxed, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	hooks.OnExportComplete(ctx, opts.Formats, result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// CompileWithCacheInfo compiles the pattern with caching and returns cache hit info.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, opts Options) (graph.StitchGraph, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForCompile(); err != nil {
		return graph.StitchGraph{}, false, err
	}

	cacheKey := r.Keyer.GraphKey(opts.Source, opts.GraphKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		var sg graph.StitchGraph
		if r.get(ctx, keyGraph, cacheKey, &sg) {
			if _, err := sg.InitialGraph(); err == nil {
				return sg, true, nil // Cache hit
			}
		}
	}

	sg, err := Compile(opts)
	if err != nil {
		return graph.StitchGraph{}, false, err
	}

	r.set(ctx, keyGraph, cacheKey, sg, cache.GraphTTL)
	return sg, false, nil // Cache miss
}

// Compile is a convenience wrapper that calls CompileWithCacheInfo and discards the cache hit info.
func (r *Runner) Compile(ctx context.Context, opts Options) (graph.StitchGraph, error) {
	sg, _, err := r.CompileWithCacheInfo(ctx, opts)
	return sg, err
}

// RelaxWithCacheInfo relaxes a graph with caching and returns cache hit info.
func (r *Runner) RelaxWithCacheInfo(ctx context.Context, sg graph.StitchGraph, opts Options) (*graph.Result, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRelax(); err != nil {
		return nil, false, err
	}

	keyOpts, err := opts.ResultKeyOpts()
	if err != nil {
		return nil, false, err
	}
	hash, err := GraphHash(sg)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.ResultKey(hash, keyOpts)

	if !opts.Refresh {
		var cached graph.Result
		if r.get(ctx, keyResult, cacheKey, &cached) && cached.Validate() == nil {
			return &cached, true, nil // Cache hit
		}
	}

	res, err := Relax(ctx, sg, opts)
	if err != nil {
		return nil, false, err
	}

	r.set(ctx, keyResult, cacheKey, res, cache.ResultTTL)
	return res, false, nil // Cache miss
}

// Relax is a convenience wrapper that calls RelaxWithCacheInfo and discards the cache hit info.
func (r *Runner) Relax(ctx context.Context, sg graph.StitchGraph, opts Options) (*graph.Result, error) {
	res, _, err := r.RelaxWithCacheInfo(ctx, sg, opts)
	return res, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// Key types reported to observability.CacheHooks.
const (
	keyGraph  = "graph"
	keyResult = "result"
)

// get reads a cached JSON entry. Backend failures count as misses.
func (r *Runner) get(ctx context.Context, keyType, key string, v any) bool {
	err := cache.GetJSON(ctx, r.Cache, key, v)
	switch {
	case err == nil:
		observability.Cache().OnCacheHit(ctx, keyType)
		return true
	case !stderrors.Is(err, cache.ErrCacheMiss):
		r.Logger.Warn("cache read failed", "key", key, "error", err)
	}
	observability.Cache().OnCacheMiss(ctx, keyType)
	return false
}

func (r *Runner) set(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := jsonBytes(v)
	if err == nil {
		err = r.Cache.Set(ctx, key, data, ttl)
	}
	if err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// Package observability lets the binary observe pipeline runs, cache
// traffic and live sessions without the libraries depending on a metrics
// backend.
//
// Libraries emit events through the registered hooks, which default to
// no-ops:
//
//	observability.Pipeline().OnCompileStart(ctx, len(source))
//	observability.Coordinator().OnCommand(ctx, id, "gravity", err)
//
// The binary registers implementations at startup. [LogHooks] writes every
// event to a charmbracelet logger; the serve command installs it:
//
//	observability.Install(observability.NewLogHooks(logger))
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the compile and relax pipeline.
type PipelineHooks interface {
	OnCompileStart(ctx context.Context, sourceSize int)
	OnCompileComplete(ctx context.Context, nodeCount int, duration time.Duration, err error)
	OnRelaxStart(ctx context.Context, nodeCount int)
	OnRelaxComplete(ctx context.Context, steps int, duration time.Duration, err error)
	OnExportStart(ctx context.Context, formats []string)
	OnExportComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// CoordinatorHooks receives events from live simulation sessions.
type CoordinatorHooks interface {
	// OnSessionStart records a new session.
	OnSessionStart(ctx context.Context, sessionID string)

	// OnCommand records a control command and whether it was applied.
	OnCommand(ctx context.Context, sessionID, command string, err error)

	// OnSessionEnd records the end of a session and how many steps it ran.
	OnSessionEnd(ctx context.Context, sessionID string, steps int, err error)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnCompileStart(context.Context, int)                              {}
func (NoopPipelineHooks) OnCompileComplete(context.Context, int, time.Duration, error)     {}
func (NoopPipelineHooks) OnRelaxStart(context.Context, int)                                {}
func (NoopPipelineHooks) OnRelaxComplete(context.Context, int, time.Duration, error)       {}
func (NoopPipelineHooks) OnExportStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnExportComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopCoordinatorHooks is a no-op implementation of CoordinatorHooks.
type NoopCoordinatorHooks struct{}

func (NoopCoordinatorHooks) OnSessionStart(context.Context, string)           {}
func (NoopCoordinatorHooks) OnCommand(context.Context, string, string, error) {}
func (NoopCoordinatorHooks) OnSessionEnd(context.Context, string, int, error) {}

var (
	pipelineHooks PipelineHooks    = NoopPipelineHooks{}
	cacheHooks    CacheHooks       = NoopCacheHooks{}
	coordHooks    CoordinatorHooks = NoopCoordinatorHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks replaces the pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

func SetCoordinatorHooks(h CoordinatorHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		coordHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Coordinator returns the registered coordinator hooks.
func Coordinator() CoordinatorHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return coordHooks
}

// Install registers h for every event kind.
func Install(h interface {
	PipelineHooks
	CacheHooks
	CoordinatorHooks
}) {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetCoordinatorHooks(h)
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	coordHooks = NoopCoordinatorHooks{}
}

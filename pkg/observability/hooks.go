// Package observability provides hooks for metrics and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about layout calculations, cache operations
// and view-mode switches.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, so the engine packages
// never import a metrics backend. The HTTP server registers Prometheus
// implementations; the CLI leaves the no-op defaults in place.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnLayoutStart(ctx, mode, len(objects))
//	// ... compute layout ...
//	observability.Pipeline().OnLayoutComplete(ctx, mode, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the orbital calculation pipeline.
type PipelineHooks interface {
	// Layout events
	OnLayoutStart(ctx context.Context, viewMode string, objectCount int)
	OnLayoutComplete(ctx context.Context, viewMode string, duration time.Duration, err error)

	// OnCollisionsResolved reports the collisions fixed in one calculation
	// and how many resolutions exhausted their iteration budget.
	OnCollisionsResolved(ctx context.Context, viewMode string, collisions, exhausted int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)

	// OnCacheInvalidate records removed entries.
	OnCacheInvalidate(ctx context.Context, scope string, removed int)
}

// =============================================================================
// View Mode Hooks
// =============================================================================

// ViewModeHooks receives view-mode lifecycle events.
type ViewModeHooks interface {
	OnModeEnter(mode, previous string)
	OnModeExit(mode, next string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                     {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {}
func (NoopPipelineHooks) OnCollisionsResolved(context.Context, string, int, int)         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)             {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)            {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int)        {}
func (NoopCacheHooks) OnCacheInvalidate(context.Context, string, int) {}

// NoopViewModeHooks is a no-op implementation of ViewModeHooks.
type NoopViewModeHooks struct{}

func (NoopViewModeHooks) OnModeEnter(string, string) {}
func (NoopViewModeHooks) OnModeExit(string, string)  {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	viewModeHooks ViewModeHooks = NoopViewModeHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any calculation.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetViewModeHooks registers custom view-mode hooks.
func SetViewModeHooks(h ViewModeHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		viewModeHooks = h
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

// ViewMode returns the registered view-mode hooks.
func ViewMode() ViewModeHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return viewModeHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	viewModeHooks = NoopViewModeHooks{}
}

package cache

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/observability"
)

// DefaultLayoutTTL is the lifetime of a cached layout when none is given.
const DefaultLayoutTTL = time.Hour

// LayoutCacheOptions configures a LayoutCache.
type LayoutCacheOptions struct {
	// Keyer derives keys; nil uses DefaultKeyer.
	Keyer Keyer

	// TTL is the lifetime of stored layouts; zero uses DefaultLayoutTTL.
	TTL time.Duration

	// Logger receives backend failures; nil discards them.
	Logger *log.Logger
}

// LayoutCache memoizes complete system layouts.
//
// Backend failures never fail a calculation: a failed read is a miss and a
// failed write is logged. Identical concurrent misses share one computation.
type LayoutCache struct {
	backend Cache
	keyer   Keyer
	ttl     time.Duration
	logger  *log.Logger
	flight  singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// LayoutCacheStats reports cache effectiveness.
type LayoutCacheStats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// NewLayoutCache creates a layout cache over backend. A nil backend
// disables caching.
func NewLayoutCache(backend Cache, opts LayoutCacheOptions) *LayoutCache {
	if backend == nil {
		backend = NewNullCache()
	}
	if opts.Keyer == nil {
		opts.Keyer = NewDefaultKeyer()
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultLayoutTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &LayoutCache{
		backend: backend,
		keyer:   opts.Keyer,
		ttl:     opts.TTL,
		logger:  opts.Logger,
	}
}

// Key returns the deterministic key for objects under mode and cfg.
func (c *LayoutCache) Key(mode string, objects []celestial.Object, cfg *config.Config) string {
	return c.keyer.LayoutKey(mode, objects, cfg.Fingerprint())
}

// Get returns the layout stored under key. Unreadable entries are removed
// and reported as misses.
func (c *LayoutCache) Get(ctx context.Context, mode, key string) (*layout.SystemLayout, bool) {
	data, hit, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.Warn("layout cache read failed", "mode", mode, "error", err)
	}
	if err != nil || !hit {
		c.misses.Add(1)
		observability.Cache().OnCacheMiss(ctx, mode)
		return nil, false
	}
	l, err := layout.Unmarshal(data)
	if err != nil {
		c.logger.Warn("dropping corrupt layout cache entry", "mode", mode, "error", err)
		_ = c.backend.Delete(ctx, key)
		c.misses.Add(1)
		observability.Cache().OnCacheMiss(ctx, mode)
		return nil, false
	}
	c.hits.Add(1)
	observability.Cache().OnCacheHit(ctx, mode)
	return l, true
}

// Set stores l under key.
func (c *LayoutCache) Set(ctx context.Context, mode, key string, l *layout.SystemLayout) error {
	data, err := layout.Marshal(l)
	if err != nil {
		return err
	}
	if err := c.backend.Set(ctx, key, data, c.ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, mode, len(data))
	return nil
}

// GetOrCompute returns the cached layout for key, or runs compute and
// stores its result. Concurrent callers with the same key wait for a single
// compute; each receives its own copy. The boolean reports a cache hit.
func (c *LayoutCache) GetOrCompute(ctx context.Context, mode, key string, compute func(context.Context) (*layout.SystemLayout, error)) (*layout.SystemLayout, bool, error) {
	if l, ok := c.Get(ctx, mode, key); ok {
		return l, true, nil
	}

	v, err, shared := c.flight.Do(key, func() (any, error) {
		l, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, mode, key, l); err != nil {
			c.logger.Warn("layout cache write failed", "mode", mode, "error", err)
		}
		return l, nil
	})
	if err != nil {
		return nil, false, err
	}
	l := v.(*layout.SystemLayout)
	if shared {
		if l, err = clone(l); err != nil {
			return nil, false, err
		}
	}
	return l, false, nil
}

// InvalidateMode removes every cached layout computed for mode.
func (c *LayoutCache) InvalidateMode(ctx context.Context, mode string) (int, error) {
	return c.invalidate(ctx, mode, c.keyer.ModePrefix(mode))
}

// InvalidateAll removes every cached layout.
func (c *LayoutCache) InvalidateAll(ctx context.Context) (int, error) {
	return c.invalidate(ctx, "all", c.keyer.Prefix())
}

func (c *LayoutCache) invalidate(ctx context.Context, scope, prefix string) (int, error) {
	n, err := c.backend.DeletePrefix(ctx, prefix)
	if err != nil {
		return n, err
	}
	c.logger.Debug("invalidated layout cache", "scope", scope, "removed", n)
	observability.Cache().OnCacheInvalidate(ctx, scope, n)
	return n, nil
}

// Stats returns hit and miss counts since creation.
func (c *LayoutCache) Stats() LayoutCacheStats {
	s := LayoutCacheStats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}

// Close releases the backend.
func (c *LayoutCache) Close() error {
	return c.backend.Close()
}

func clone(l *layout.SystemLayout) (*layout.SystemLayout, error) {
	data, err := layout.Marshal(l)
	if err != nil {
		return nil, err
	}
	return layout.Unmarshal(data)
}

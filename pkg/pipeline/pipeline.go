// Package pipeline orchestrates the orbital layout calculation.
//
// A calculation runs these stages, each implemented by its own package:
//
//  1. Validate: build the hierarchy, collect data-quality warnings
//  2. Size: compute every object's visual radius with the view mode's strategy
//  3. Enforce: clamp child sizes relative to their parents
//  4. Place: two-pass orbit placement (moons, then everything else)
//  5. Resolve: moon-level collisions, refresh effective radii, then
//     planet-level collisions
//  6. Assemble: build per-object results, bounds and metadata
//
// Complete layouts are memoized in a [cache.LayoutCache] keyed by the
// object set, view mode and configuration fingerprint.
//
// # Usage
//
//	svc, err := pipeline.New(pipeline.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	strategy := viewmode.Resolve("scientific", svc.Config(), logger)
//	l, err := svc.CalculateSystemLayout(ctx, objects, strategy)
//
// CLI, HTTP server and the interactive browser all go through [Service], so
// every entry point shares the same cache and statistics.
package pipeline

import (
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orrery/pkg/cache"
	"github.com/matzehuels/orrery/pkg/collision"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/orbit"
	"github.com/matzehuels/orrery/pkg/sizing"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a Service.
type Options struct {
	// Config is the validated configuration; nil uses config.Default().
	Config *config.Config

	// Cache memoizes layouts; nil creates an in-memory LRU sized by
	// Config.Performance.
	Cache *cache.LayoutCache

	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults validates the configuration and fills in defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Config == nil {
		o.Config = config.Default()
	}
	if err := o.Config.Validate(); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Cache == nil {
		o.Cache = cache.NewLayoutCache(
			cache.NewMemoryCache(o.Config.Performance.CacheSize),
			cache.LayoutCacheOptions{TTL: o.Config.Performance.CacheTTL.Duration, Logger: o.Logger},
		)
	}
	o.validated = true
	return nil
}

// =============================================================================
// Service
// =============================================================================

// Service computes system layouts. It is safe for concurrent use; each
// calculation works on private maps and only the cache and the statistics
// are shared.
type Service struct {
	cfg    *config.Config
	cache  *cache.LayoutCache
	logger *log.Logger

	sizer      *sizing.Calculator
	orbits     *orbit.Calculator
	collisions *collision.Service

	mu    sync.Mutex
	stats counters
}

type counters struct {
	calculations int64
	errors       int64
	total        time.Duration
}

// Stats summarizes service activity since creation.
type Stats struct {
	Calculations int64         `json:"calculations"`
	Errors       int64         `json:"errors"`
	AverageTime  time.Duration `json:"average_time"`
	CacheHits    int64         `json:"cache_hits"`
	CacheMisses  int64         `json:"cache_misses"`
	CacheHitRate float64       `json:"cache_hit_rate"`
}

// New creates a calculation service.
func New(opts Options) (*Service, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Service{
		cfg:        opts.Config,
		cache:      opts.Cache,
		logger:     opts.Logger,
		sizer:      sizing.New(opts.Logger),
		orbits:     orbit.New(opts.Config.Orbital, opts.Logger),
		collisions: collision.New(opts.Config.Collision, opts.Logger),
	}, nil
}

// Config returns the service configuration. Strategies passed to the
// service should be built from it.
func (s *Service) Config() *config.Config { return s.cfg }

// Cache returns the layout cache.
func (s *Service) Cache() *cache.LayoutCache { return s.cache }

// Stats returns calculation and cache statistics.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	c := s.stats
	s.mu.Unlock()

	cs := s.cache.Stats()
	st := Stats{
		Calculations: c.calculations,
		Errors:       c.errors,
		CacheHits:    cs.Hits,
		CacheMisses:  cs.Misses,
		CacheHitRate: cs.HitRate,
	}
	if c.calculations > 0 {
		st.AverageTime = c.total / time.Duration(c.calculations)
	}
	return st
}

func (s *Service) record(d time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.calculations++
	s.stats.total += d
	if err != nil {
		s.stats.errors++
	}
}

// Close releases the cache backend.
func (s *Service) Close() error {
	return s.cache.Close()
}

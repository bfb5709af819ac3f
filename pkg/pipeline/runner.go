package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/hierarchy"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/observability"
	"github.com/matzehuels/orrery/pkg/orbit"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// CalculateSystemLayout returns the layout of objects under strategy,
// from the cache when possible. Empty input and invalid configuration fail
// immediately; data-quality problems become layout warnings.
func (s *Service) CalculateSystemLayout(ctx context.Context, objects []celestial.Object, strategy viewmode.Strategy) (*layout.SystemLayout, error) {
	if strategy == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "view mode strategy is required")
	}
	mode := string(strategy.Mode())
	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, mode, len(objects))

	l, hit, err := s.run(ctx, objects, strategy)

	elapsed := time.Since(start)
	s.record(elapsed, err)
	observability.Pipeline().OnLayoutComplete(ctx, mode, elapsed, err)
	if err != nil {
		s.logger.Debug("layout failed", "mode", mode, "error", err)
		return nil, fmt.Errorf("%s layout: %w", mode, err)
	}

	l.Metadata.CacheHit = hit
	s.logger.Debug("computed layout",
		"mode", mode,
		"objects", l.Metadata.ObjectCount,
		"collisions", l.Metadata.CollisionCount,
		"warnings", len(l.Warnings),
		"cache_hit", hit,
		"duration", elapsed)
	return l, nil
}

func (s *Service) run(ctx context.Context, objects []celestial.Object, strategy viewmode.Strategy) (*layout.SystemLayout, bool, error) {
	if len(objects) == 0 {
		return nil, false, errors.New(errors.ErrCodeInvalidInput, "object list is empty")
	}
	mode := string(strategy.Mode())
	key := s.cache.Key(mode, objects, s.cfg)
	return s.cache.GetOrCompute(ctx, mode, key, func(ctx context.Context) (*layout.SystemLayout, error) {
		return s.calculate(ctx, objects, strategy)
	})
}

// CalculatePartialLayout computes the layout of the targets, their full
// parent chains and their direct children. Unknown target IDs are ignored;
// if none is known the call fails with NOT_FOUND.
func (s *Service) CalculatePartialLayout(ctx context.Context, objects []celestial.Object, targets []string, strategy viewmode.Strategy) (*layout.SystemLayout, error) {
	if len(objects) == 0 {
		err := errors.New(errors.ErrCodeInvalidInput, "object list is empty")
		s.record(0, err)
		return nil, err
	}
	subset := Subset(objects, targets)
	if len(subset) == 0 {
		err := errors.New(errors.ErrCodeNotFound, "none of the targets %v exist", targets)
		s.record(0, err)
		return nil, err
	}
	return s.CalculateSystemLayout(ctx, subset, strategy)
}

// calculate runs every stage without consulting the cache.
func (s *Service) calculate(ctx context.Context, objects []celestial.Object, strategy viewmode.Strategy) (*layout.SystemLayout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	mode := string(strategy.Mode())
	var warn warnings

	// Validate
	tree, err := hierarchy.Build(objects, s.logger)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	warn.add(hierarchy.Validate(objects)...)
	warn.add(strategy.ValidateSystemCompatibility(objects)...)

	// Size
	sys := viewmode.NewSystem(objects, s.cfg)
	sizes, sw := s.sizer.Calculate(strategy, sys)
	warn.add(sw...)
	if s.cfg.Hierarchy.Enabled {
		sizes = hierarchy.Enforce(tree, sizes, s.cfg.Hierarchy)
	}

	// Place
	behavior := strategy.OrbitalBehavior(sys)
	pos := s.orbits.Calculate(objects, sizes, behavior)
	warn.add(pos.Warnings...)
	s.logger.Debug("placed orbits", "mode", mode, "positions", pos.String())

	// Resolve: moons first so planets reserve room for their final moon systems.
	adjustments := make(map[string][]layout.CollisionAdjustment)
	moons := s.collisions.Resolve(groups(objects, sizes, pos, isMoon), behavior.SafetyFactor)
	apply(moons.Distances, moons.Adjustments, pos, adjustments)
	pos.Effective = orbit.RefreshEffectiveRadii(objects, sizes, pos.Distances, pos.Belts)

	planets := s.collisions.Resolve(groups(objects, sizes, pos, isPlanetLevel), behavior.SafetyFactor)
	apply(planets.Distances, planets.Adjustments, pos, adjustments)
	pos.Effective = orbit.RefreshEffectiveRadii(objects, sizes, pos.Distances, pos.Belts)

	warn.add(moons.Warnings...)
	warn.add(planets.Warnings...)
	collisions := moons.Collisions + planets.Collisions
	exhausted := len(moons.Exhausted) + len(planets.Exhausted)
	observability.Pipeline().OnCollisionsResolved(ctx, mode, collisions, exhausted)

	// Assemble
	l := assemble(mode, objects, sizes, pos, adjustments)
	l.Warnings = warn.list
	l.Metadata.RootID = tree.Root().Object.ID
	l.Metadata.OrbitScaling = behavior.OrbitScaling
	l.Metadata.CollisionCount = collisions
	l.Metadata.ExhaustedResolutions = exhausted
	l.Metadata.CalculatedAt = start.UTC()
	l.Metadata.CalculationTime = time.Since(start)

	if len(l.Warnings) > 0 {
		s.logger.Debug("layout has warnings", "mode", mode, "count", len(l.Warnings))
	}
	return l, nil
}

// warnings collects messages once each, in first-seen order.
type warnings struct {
	list []string
	seen map[string]bool
}

func (w *warnings) add(msgs ...string) {
	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	for _, m := range msgs {
		if !w.seen[m] {
			w.seen[m] = true
			w.list = append(w.list, m)
		}
	}
}

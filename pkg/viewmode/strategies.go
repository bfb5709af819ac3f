package viewmode

import (
	"fmt"
	"math"
	"sort"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/scaling"
)

// =============================================================================
// Explorational
// =============================================================================

type explorational struct{ base }

// CalculateObjectScale sizes obj at EarthVisualSize × log(ratio+1)/log(base)
// relative to the system's Earth reference. Without a reference, or without
// a usable radius on either side, the fallback fixed size applies.
func (s *explorational) CalculateObjectScale(obj celestial.Object, sys *System) (scaling.Result, bool) {
	v := s.cfg.Visual
	if sys.EarthRef == nil || !sys.EarthRef.HasRadius() || !obj.HasRadius() {
		return scaling.Fixed(fixedSize(v.Fallback, obj.Classification)), true
	}
	ratio := obj.Properties.RadiusKm / sys.EarthRef.Properties.RadiusKm
	r := v.EarthVisualSize * math.Log(ratio+1) / math.Log(v.LogBase)
	r = math.Min(math.Max(r, v.MinVisualSize), v.MaxVisualSize)
	return scaling.Result{
		VisualRadius:         r,
		ScalingMethod:        scaling.MethodLogarithmic,
		RelativeScaleToEarth: ratio,
	}, true
}

func (s *explorational) OrbitalBehavior(*System) OrbitalBehavior {
	return OrbitalBehavior{
		Mode:              Scaled,
		OrbitScaling:      s.cfg.Orbital.ExplorationalScaling,
		BaseSpacing:       s.cfg.Orbital.BaseSpacing,
		SpacingMultiplier: s.cfg.Orbital.SpacingMultiplier,
		MoonBaseSpacing:   s.cfg.Orbital.MoonBaseSpacing,
		SafetyFactor:      s.cfg.Collision.GenerousSafetyFactor,
	}
}

func (s *explorational) DetermineObjectVisibility(obj celestial.Object, focus Focus) Visibility {
	return weightedVisibility(obj, focus)
}

func (s *explorational) CalculateCameraPosition(target CameraTarget) CameraPosition {
	return s.frame(target, s.midMultiplier(), s.cfg.Camera.DefaultElevation)
}

func (s *explorational) ValidateSystemCompatibility(objects []celestial.Object) []string {
	var out []string
	if celestial.FindEarthReference(objects) == nil {
		out = append(out, "no Earth-like reference object; using fallback fixed sizes")
	}
	out = append(out, missingRadii(objects, "using fallback fixed size")...)
	out = append(out, missingAxes(objects)...)
	return out
}

// =============================================================================
// Navigational
// =============================================================================

type navigational struct{ base }

func (s *navigational) CalculateObjectScale(obj celestial.Object, _ *System) (scaling.Result, bool) {
	return scaling.Fixed(fixedSize(s.cfg.Visual.Navigational, obj.Classification)), true
}

func (s *navigational) OrbitalBehavior(*System) OrbitalBehavior {
	return OrbitalBehavior{
		Mode:              Equidistant,
		BaseSpacing:       s.cfg.Orbital.BaseSpacing,
		SpacingMultiplier: s.cfg.Orbital.SpacingMultiplier,
		MoonBaseSpacing:   s.cfg.Orbital.MoonBaseSpacing,
		SafetyFactor:      s.cfg.Collision.GenerousSafetyFactor,
	}
}

func (s *navigational) DetermineObjectVisibility(obj celestial.Object, focus Focus) Visibility {
	return weightedVisibility(obj, focus)
}

func (s *navigational) CalculateCameraPosition(target CameraTarget) CameraPosition {
	return s.frame(target, s.cfg.Camera.MinDistanceMultiplier, s.cfg.Camera.DefaultElevation)
}

// navigationalCrowding is the sibling count above which equidistant rings
// become hard to tell apart.
const navigationalCrowding = 20

func (s *navigational) ValidateSystemCompatibility(objects []celestial.Object) []string {
	counts := make(map[string]int)
	for _, o := range objects {
		if p := o.ParentID(); p != "" {
			counts[p]++
		}
	}
	parents := make([]string, 0, len(counts))
	for p := range counts {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	var out []string
	for _, p := range parents {
		if n := counts[p]; n > navigationalCrowding {
			out = append(out, fmt.Sprintf("%s has %d children; equidistant orbits will be crowded", p, n))
		}
	}
	return out
}

// =============================================================================
// Profile
// =============================================================================

type profile struct{ base }

func (s *profile) CalculateObjectScale(obj celestial.Object, _ *System) (scaling.Result, bool) {
	return scaling.Fixed(fixedSize(s.cfg.Visual.Profile, obj.Classification)), true
}

func (s *profile) OrbitalBehavior(*System) OrbitalBehavior {
	return OrbitalBehavior{
		Mode:              Equidistant,
		BaseSpacing:       s.cfg.Orbital.BaseSpacing,
		SpacingMultiplier: s.cfg.Orbital.SpacingMultiplier,
		MoonBaseSpacing:   s.cfg.Orbital.MoonBaseSpacing,
		SafetyFactor:      s.cfg.Collision.TightSafetyFactor,
	}
}

// DetermineObjectVisibility shows only the focused object, its direct
// parent and its direct children. Without a focus everything is shown.
func (s *profile) DetermineObjectVisibility(obj celestial.Object, focus Focus) Visibility {
	if focus.ID == "" {
		return weightedVisibility(obj, focus)
	}
	switch {
	case obj.ID == focus.ID:
		return Visibility{ShowObject: true, ShowLabel: true, ShowOrbit: !obj.IsRootCandidate(), ShowChildren: true, Opacity: 1, Priority: 100}
	case obj.ID == focus.ParentID:
		return Visibility{ShowObject: true, ShowLabel: true, Opacity: 0.6, Priority: 70}
	case obj.ParentID() == focus.ID:
		p := classPriority[obj.Classification]
		return Visibility{ShowObject: true, ShowLabel: p >= 50, ShowOrbit: true, Opacity: 0.85, Priority: p}
	}
	return Visibility{}
}

func (s *profile) CalculateCameraPosition(target CameraTarget) CameraPosition {
	return s.frame(target, s.cfg.Camera.MaxDistanceMultiplier, 0)
}

func (s *profile) ValidateSystemCompatibility(objects []celestial.Object) []string {
	var roots []string
	for _, o := range objects {
		if o.IsRootCandidate() {
			roots = append(roots, o.ID)
		}
	}
	if len(roots) > 1 {
		return []string{fmt.Sprintf("%d root objects %v; only the focused branch is shown", len(roots), roots)}
	}
	return nil
}

// =============================================================================
// Scientific
// =============================================================================

type scientific struct{ base }

// CalculateObjectScale delegates to the system's optimal scaling service.
// Belts have no body radius and take the fallback fixed size.
func (s *scientific) CalculateObjectScale(obj celestial.Object, sys *System) (scaling.Result, bool) {
	if obj.Classification == celestial.Belt {
		return scaling.Fixed(fixedSize(s.cfg.Visual.Fallback, celestial.Belt)), true
	}
	res, err := sys.Optimal.CalculateObjectSize(obj, sys.EarthRef)
	if err != nil {
		s.logger.Debug("cannot scale object", "object", obj.ID, "error", err)
		return scaling.Result{}, false
	}
	return res, true
}

// OrbitalBehavior maps 1 AU through the optimal scaling service when the
// system has an Earth reference, else uses the configured default.
func (s *scientific) OrbitalBehavior(sys *System) OrbitalBehavior {
	orbitScaling := s.cfg.Orbital.DefaultScientificScaling
	if sys != nil && sys.EarthRef != nil {
		orbitScaling = sys.Optimal.CalculateOrbitDistance(1)
	}
	return OrbitalBehavior{
		Mode:              Scaled,
		OrbitScaling:      orbitScaling,
		BaseSpacing:       s.cfg.Orbital.BaseSpacing,
		SpacingMultiplier: s.cfg.Orbital.SpacingMultiplier,
		MoonBaseSpacing:   s.cfg.Orbital.MoonBaseSpacing,
		SafetyFactor:      s.cfg.Collision.TightSafetyFactor,
	}
}

func (s *scientific) DetermineObjectVisibility(obj celestial.Object, focus Focus) Visibility {
	return weightedVisibility(obj, focus)
}

func (s *scientific) CalculateCameraPosition(target CameraTarget) CameraPosition {
	return s.frame(target, s.midMultiplier(), s.cfg.Camera.DefaultElevation)
}

func (s *scientific) ValidateSystemCompatibility(objects []celestial.Object) []string {
	var out []string
	if celestial.FindEarthReference(objects) == nil {
		out = append(out, "no Earth-like reference object; sizes are relative to Earth's mean radius")
	}
	out = append(out, missingRadii(objects, "object will be skipped")...)
	out = append(out, missingAxes(objects)...)
	return out
}

// missingAxes warns about orbiting objects without a semi-major axis, which
// scaled modes cannot place.
func missingAxes(objects []celestial.Object) []string {
	var out []string
	for _, o := range objects {
		if !o.IsRootCandidate() && !o.OrbitsBarycenter() && !o.HasSemiMajorAxis() {
			out = append(out, fmt.Sprintf("object %s has no semi-major axis", o.ID))
		}
	}
	return out
}

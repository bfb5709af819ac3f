// Package scaling converts real astronomical radii and orbit distances into
// scene units.
//
// Sizes are computed relative to an Earth-like reference object. Three
// methods are supported:
//
//   - proportional: visual = ratio × EarthUnitSize, to scale
//   - logarithmic: visual = EarthUnitSize × log10(ratio+1) × 2, not to scale
//   - hybrid (default): proportional until the ratio exceeds
//     ExtremeRatioThreshold, logarithmic beyond it
//
// A minimum-visibility floor and a maximum-usability cap are applied last;
// either one clears [Result.IsToScale].
package scaling

import (
	"math"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/errors"
)

// Method names a scaling method. They double as Result.ScalingMethod tags.
const (
	MethodProportional         = "proportional"
	MethodLogarithmic          = "logarithmic"
	MethodHybrid               = "hybrid"
	MethodFixed                = "fixed"
	MethodHierarchyConstrained = "hierarchy-constrained"
)

// Result is the computed visual size of one object.
type Result struct {
	VisualRadius         float64 `json:"visual_radius"`
	IsFixedSize          bool    `json:"is_fixed_size"`
	IsToScale            bool    `json:"is_to_scale"`
	ScalingMethod        string  `json:"scaling_method"`
	RelativeScaleToEarth float64 `json:"relative_scale_to_earth,omitempty"`
}

// Fixed returns a fixed-size result.
func Fixed(radius float64) Result {
	return Result{VisualRadius: radius, IsFixedSize: true, ScalingMethod: MethodFixed}
}

// Service performs astronomical scaling under one configuration.
// A Service is immutable and safe for concurrent use.
type Service struct {
	cfg config.Scaling
}

// New creates a scaling service.
func New(cfg config.Scaling) *Service {
	return &Service{cfg: cfg}
}

// Config returns the service's configuration.
func (s *Service) Config() config.Scaling { return s.cfg }

// CalculateObjectSize computes the visual radius of obj relative to
// earthRef. A nil earthRef uses Earth's mean radius. Objects without a
// positive radius yield an ErrCodeReference error and should be skipped.
func (s *Service) CalculateObjectSize(obj celestial.Object, earthRef *celestial.Object) (Result, error) {
	if !obj.HasRadius() {
		return Result{}, errors.New(errors.ErrCodeReference, "object %s has no usable radius", obj.ID)
	}
	ref := celestial.EarthRadiusKm
	if earthRef != nil && earthRef.HasRadius() {
		ref = earthRef.Properties.RadiusKm
	}
	ratio := obj.Properties.RadiusKm / ref

	res := Result{RelativeScaleToEarth: ratio}
	switch s.cfg.Method {
	case MethodProportional:
		res.VisualRadius = s.proportional(ratio)
		res.ScalingMethod = MethodProportional
		res.IsToScale = true
	case MethodLogarithmic:
		res.VisualRadius = s.logarithmic(ratio)
		res.ScalingMethod = MethodLogarithmic
	default:
		if ratio > s.cfg.ExtremeRatioThreshold {
			res.VisualRadius = s.logarithmic(ratio)
			res.ScalingMethod = MethodLogarithmic
		} else {
			res.VisualRadius = s.proportional(ratio)
			res.ScalingMethod = MethodProportional
			res.IsToScale = true
		}
	}

	floor := s.cfg.MinVisibleSize
	if obj.Classification == celestial.Moon && s.cfg.MoonMinVisibleSize > 0 {
		floor = s.cfg.MoonMinVisibleSize
	}
	if res.VisualRadius < floor {
		res.VisualRadius = floor
		res.IsToScale = false
	}
	if s.cfg.MaxUsableSize > 0 && res.VisualRadius > s.cfg.MaxUsableSize {
		res.VisualRadius = s.cfg.MaxUsableSize
		res.IsToScale = false
	}
	return res, nil
}

func (s *Service) proportional(ratio float64) float64 {
	return ratio * s.cfg.EarthUnitSize
}

func (s *Service) logarithmic(ratio float64) float64 {
	return s.cfg.EarthUnitSize * math.Log10(ratio+1) * 2
}

// CalculateOrbitDistance maps a semi-major axis in AU to scene units, never
// returning less than MinOrbitDistance.
func (s *Service) CalculateOrbitDistance(au float64) float64 {
	return math.Max(au*s.cfg.UnitsPerAU, s.cfg.MinOrbitDistance)
}

// GetOptimalConfiguration derives a per-system configuration from the
// composition of objects:
//
//   - stars present: smaller Earth unit size and the stellar ratio threshold
//   - size range beyond the threshold: threshold halved
//   - moons present: the lower moon visibility floor is kept active
func (s *Service) GetOptimalConfiguration(objects []celestial.Object) config.Scaling {
	cfg := s.cfg
	comp := celestial.Compose(objects)

	if comp.HasStars() {
		cfg.EarthUnitSize = s.cfg.StellarEarthUnitSize
		cfg.ExtremeRatioThreshold = math.Min(cfg.ExtremeRatioThreshold, s.cfg.StellarRatioThreshold)
	}
	if comp.SizeRange() > cfg.ExtremeRatioThreshold {
		cfg.ExtremeRatioThreshold = math.Max(cfg.ExtremeRatioThreshold/2, 1)
	}
	if comp.HasMoons() {
		cfg.MinVisibleSize = math.Min(cfg.MinVisibleSize, s.cfg.MoonMinVisibleSize)
	} else {
		cfg.MoonMinVisibleSize = cfg.MinVisibleSize
	}
	return cfg
}

// Optimal returns a Service using GetOptimalConfiguration(objects).
func (s *Service) Optimal(objects []celestial.Object) *Service {
	return New(s.GetOptimalConfiguration(objects))
}

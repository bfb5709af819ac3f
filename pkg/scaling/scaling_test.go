package scaling

import (
	"math"
	"sort"
	"testing"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/errors"
)

func obj(id string, c celestial.Classification, r float64) celestial.Object {
	return celestial.Object{ID: id, Classification: c, Properties: celestial.Properties{RadiusKm: r}}
}

func TestCalculateObjectSize(t *testing.T) {
	earth := obj("earth", celestial.Planet, celestial.EarthRadiusKm)
	s := New(config.Default().Scaling)

	tests := []struct {
		name       string
		obj        celestial.Object
		wantRadius float64
		wantMethod string
		wantScale  bool
	}{
		{"earth itself", earth, 1.0, MethodProportional, true},
		{"jupiter proportional", obj("jupiter", celestial.Planet, 69911), 69911 / celestial.EarthRadiusKm, MethodProportional, true},
		{"tiny asteroid floored", obj("bennu", celestial.Asteroid, 0.245), 0.05, MethodProportional, false},
		{"extreme ratio logarithmic", obj("giant", celestial.Star, celestial.EarthRadiusKm*5000), 2 * math.Log10(5001), MethodLogarithmic, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.CalculateObjectSize(tt.obj, &earth)
			if err != nil {
				t.Fatalf("CalculateObjectSize() error = %v", err)
			}
			if math.Abs(got.VisualRadius-tt.wantRadius) > 1e-9 {
				t.Errorf("VisualRadius = %v, want %v", got.VisualRadius, tt.wantRadius)
			}
			if got.ScalingMethod != tt.wantMethod {
				t.Errorf("ScalingMethod = %q, want %q", got.ScalingMethod, tt.wantMethod)
			}
			if got.IsToScale != tt.wantScale {
				t.Errorf("IsToScale = %v, want %v", got.IsToScale, tt.wantScale)
			}
		})
	}
}

func TestCalculateObjectSizeCap(t *testing.T) {
	cfg := config.Default().Scaling
	cfg.MaxUsableSize = 5
	s := New(cfg)

	got, err := s.CalculateObjectSize(obj("jupiter", celestial.Planet, 69911), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.VisualRadius != 5 || got.IsToScale {
		t.Errorf("capped result = %+v, want radius 5, not to scale", got)
	}
}

func TestCalculateObjectSizeMethods(t *testing.T) {
	for _, method := range []string{MethodProportional, MethodLogarithmic} {
		t.Run(method, func(t *testing.T) {
			cfg := config.Default().Scaling
			cfg.Method = method
			got, err := New(cfg).CalculateObjectSize(obj("mars", celestial.Planet, 3389.5), nil)
			if err != nil {
				t.Fatal(err)
			}
			if got.ScalingMethod != method {
				t.Errorf("ScalingMethod = %q, want %q", got.ScalingMethod, method)
			}
		})
	}
}

func TestCalculateObjectSizeInvalidRadius(t *testing.T) {
	s := New(config.Default().Scaling)
	for _, r := range []float64{0, -10, math.NaN()} {
		_, err := s.CalculateObjectSize(obj("ghost", celestial.Moon, r), nil)
		if !errors.Is(err, errors.ErrCodeReference) {
			t.Errorf("radius %v: error = %v, want %v", r, err, errors.ErrCodeReference)
		}
	}
}

func TestProportionalMonotonic(t *testing.T) {
	cfg := config.Default().Scaling
	cfg.Method = MethodProportional
	s := New(cfg)

	radii := []float64{0.5, 12, 250, 1737.4, 2439.7, 3389.5, 6371, 24622, 58232, 69911, 695700}
	sort.Float64s(radii)
	prev := 0.0
	for _, r := range radii {
		got, err := s.CalculateObjectSize(obj("x", celestial.Planet, r), nil)
		if err != nil {
			t.Fatal(err)
		}
		if got.VisualRadius <= 0 {
			t.Errorf("radius %v: visual radius %v not positive", r, got.VisualRadius)
		}
		if got.VisualRadius < prev {
			t.Errorf("radius %v: visual %v < previous %v", r, got.VisualRadius, prev)
		}
		prev = got.VisualRadius
	}
}

func TestCalculateOrbitDistance(t *testing.T) {
	s := New(config.Default().Scaling)
	tests := []struct {
		au   float64
		want float64
	}{
		{1, 100},
		{5.2, 520},
		{0.00257, 2}, // floored
		{0, 2},
	}
	for _, tt := range tests {
		if got := s.CalculateOrbitDistance(tt.au); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CalculateOrbitDistance(%v) = %v, want %v", tt.au, got, tt.want)
		}
	}
}

func TestGetOptimalConfiguration(t *testing.T) {
	base := config.Default().Scaling
	s := New(base)

	planets := []celestial.Object{obj("earth", celestial.Planet, 6371), obj("mars", celestial.Planet, 3389.5)}
	got := s.GetOptimalConfiguration(planets)
	if got.EarthUnitSize != base.EarthUnitSize || got.ExtremeRatioThreshold != base.ExtremeRatioThreshold {
		t.Errorf("planets only: %+v, want base unit and threshold", got)
	}

	withStar := append([]celestial.Object{obj("sol", celestial.Star, celestial.SunRadiusKm)}, planets...)
	got = s.GetOptimalConfiguration(withStar)
	if got.EarthUnitSize != base.StellarEarthUnitSize {
		t.Errorf("EarthUnitSize = %v, want %v", got.EarthUnitSize, base.StellarEarthUnitSize)
	}
	// Sun/Mars ratio (~205) exceeds the stellar threshold (100), so it is halved.
	if got.ExtremeRatioThreshold != base.StellarRatioThreshold/2 {
		t.Errorf("ExtremeRatioThreshold = %v, want %v", got.ExtremeRatioThreshold, base.StellarRatioThreshold/2)
	}

	withMoon := append(withStar, obj("luna", celestial.Moon, 1737.4))
	got = s.GetOptimalConfiguration(withMoon)
	if got.MinVisibleSize != base.MoonMinVisibleSize {
		t.Errorf("MinVisibleSize = %v, want %v", got.MinVisibleSize, base.MoonMinVisibleSize)
	}
}

func TestOptimalSunIsLogarithmic(t *testing.T) {
	earth := obj("earth", celestial.Planet, 6371)
	sun := obj("sol", celestial.Star, celestial.SunRadiusKm)
	s := New(config.Default().Scaling).Optimal([]celestial.Object{sun, earth})

	got, err := s.CalculateObjectSize(sun, &earth)
	if err != nil {
		t.Fatal(err)
	}
	if got.ScalingMethod != MethodLogarithmic || got.IsToScale {
		t.Errorf("sun under optimal config = %+v, want logarithmic, not to scale", got)
	}
}

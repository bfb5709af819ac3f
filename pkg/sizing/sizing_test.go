package sizing

import (
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/scaling"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

func TestCalculate(t *testing.T) {
	objs := []celestial.Object{
		{ID: "sol", Classification: celestial.Star, Properties: celestial.Properties{RadiusKm: celestial.SunRadiusKm}},
		{ID: "earth", Classification: celestial.Planet, Properties: celestial.Properties{RadiusKm: 6371},
			Orbit: &celestial.Orbit{ParentID: "sol", SemiMajorAxisAU: 1}},
		{ID: "dust", Classification: celestial.Asteroid, Orbit: &celestial.Orbit{ParentID: "sol", SemiMajorAxisAU: 2.7}},
	}
	cfg := config.Default()
	sys := viewmode.NewSystem(objs, cfg)

	tests := []struct {
		mode      viewmode.Mode
		wantSizes int
		wantWarn  int
	}{
		{viewmode.Explorational, 3, 0}, // fallback size for dust
		{viewmode.Navigational, 3, 0},
		{viewmode.Profile, 3, 0},
		{viewmode.Scientific, 2, 1}, // dust has no radius
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			strategy, err := viewmode.New(tt.mode, cfg, nil)
			if err != nil {
				t.Fatal(err)
			}
			sizes, warnings := New(nil).Calculate(strategy, sys)
			if len(sizes) != tt.wantSizes || len(warnings) != tt.wantWarn {
				t.Errorf("sizes = %d, warnings = %v; want %d sizes, %d warnings", len(sizes), warnings, tt.wantSizes, tt.wantWarn)
			}
			for id, r := range sizes {
				if r.VisualRadius <= 0 {
					t.Errorf("%s: visual radius %v not positive", id, r.VisualRadius)
				}
			}
		})
	}
}

// radiusStrategy sizes every object at a fixed radius.
type radiusStrategy struct {
	viewmode.Strategy
	radius float64
}

func (s radiusStrategy) CalculateObjectScale(celestial.Object, *viewmode.System) (scaling.Result, bool) {
	return scaling.Result{VisualRadius: s.radius}, true
}

func TestCalculateRejectsNonFinite(t *testing.T) {
	objs := []celestial.Object{{ID: "odd", Classification: celestial.Planet}}
	cfg := config.Default()
	sys := viewmode.NewSystem(objs, cfg)
	base, err := viewmode.New(viewmode.Explorational, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, r := range []float64{math.NaN(), math.Inf(1), 0, -1} {
		sizes, warnings := New(nil).Calculate(radiusStrategy{Strategy: base, radius: r}, sys)
		if _, ok := sizes["odd"]; ok {
			t.Errorf("radius %v: odd should be skipped", r)
		}
		if len(warnings) != 1 || !strings.Contains(warnings[0], "odd skipped") {
			t.Errorf("radius %v: warnings = %v", r, warnings)
		}
	}
}

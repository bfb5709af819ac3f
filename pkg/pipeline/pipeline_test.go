package pipeline

import (
	"context"
	"math"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

func obj(id string, c celestial.Classification, radiusKm float64, parent string, sma float64) celestial.Object {
	o := celestial.Object{ID: id, Classification: c, Properties: celestial.Properties{RadiusKm: radiusKm}}
	if parent != "" {
		o.Orbit = &celestial.Orbit{ParentID: parent, SemiMajorAxisAU: sma}
	}
	return o
}

func solEarthLuna() []celestial.Object {
	return []celestial.Object{
		obj("sol", celestial.Star, 695700, "", 0),
		obj("earth", celestial.Planet, 6371, "sol", 1.0),
		obj("luna", celestial.Moon, 1737.4, "earth", 0.00257),
	}
}

func solarSystem() []celestial.Object {
	return []celestial.Object{
		obj("sol", celestial.Star, 695700, "", 0),
		obj("mercury", celestial.Planet, 2439.7, "sol", 0.387),
		obj("venus", celestial.Planet, 6051.8, "sol", 0.723),
		obj("earth", celestial.Planet, 6371, "sol", 1.0),
		obj("luna", celestial.Moon, 1737.4, "earth", 0.00257),
		obj("mars", celestial.Planet, 3389.5, "sol", 1.524),
		obj("phobos", celestial.Moon, 11.3, "mars", 0.0000627),
		obj("deimos", celestial.Moon, 6.2, "mars", 0.000157),
		obj("main-belt", celestial.Belt, 0, "sol", 2.7),
		obj("ceres", celestial.DwarfPlanet, 469.7, "sol", 2.77),
		obj("jupiter", celestial.Planet, 69911, "sol", 5.2),
		obj("io", celestial.Moon, 1821.6, "jupiter", 0.00282),
		obj("europa", celestial.Moon, 1560.8, "jupiter", 0.00449),
		obj("ganymede", celestial.Moon, 2634.1, "jupiter", 0.00716),
		obj("callisto", celestial.Moon, 2410.3, "jupiter", 0.01259),
	}
}

func newService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Options{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc
}

func strategy(t *testing.T, svc *Service, m viewmode.Mode) viewmode.Strategy {
	t.Helper()
	s, err := viewmode.New(m, svc.Config(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSolEarthLuna(t *testing.T) {
	svc := newService(t)
	l, err := svc.CalculateSystemLayout(context.Background(), solEarthLuna(), strategy(t, svc, viewmode.Explorational))
	if err != nil {
		t.Fatalf("CalculateSystemLayout() error = %v", err)
	}

	if l.Metadata.RootID != "sol" {
		t.Errorf("root = %q, want sol", l.Metadata.RootID)
	}
	if got := l.Children("sol"); !reflect.DeepEqual(got, []string{"earth"}) {
		t.Errorf("children(sol) = %v", got)
	}
	if got := l.Children("earth"); !reflect.DeepEqual(got, []string{"luna"}) {
		t.Errorf("children(earth) = %v", got)
	}

	sol, earth, luna := l.Results["sol"], l.Results["earth"], l.Results["luna"]
	if sol.OrbitDistance != 0 {
		t.Errorf("sol distance = %v, want 0", sol.OrbitDistance)
	}
	if earth.OrbitDistance <= 0 {
		t.Errorf("earth distance = %v, want > 0", earth.OrbitDistance)
	}
	if luna.OrbitDistance >= earth.OrbitDistance/10 {
		t.Errorf("luna distance = %v, want < %v", luna.OrbitDistance, earth.OrbitDistance/10)
	}
	if len(luna.Adjustments) == 0 {
		t.Error("luna should be pushed out of earth's safety zone")
	}
	if earth.EffectiveRadius <= earth.VisualRadius {
		t.Errorf("earth effective radius = %v, want > %v", earth.EffectiveRadius, earth.VisualRadius)
	}
	if luna.EffectiveRadius != 0 {
		t.Errorf("luna has no children, effective radius = %v", luna.EffectiveRadius)
	}
	if l.Metadata.ObjectCount != 3 || l.Metadata.ViewMode != "explorational" || l.ID == "" {
		t.Errorf("metadata = %+v, id = %q", l.Metadata, l.ID)
	}
}

func TestCacheMissThenHit(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	s := strategy(t, svc, viewmode.Scientific)

	first, err := svc.CalculateSystemLayout(ctx, solarSystem(), s)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.CalculateSystemLayout(ctx, solarSystem(), s)
	if err != nil {
		t.Fatal(err)
	}

	if first.Metadata.CacheHit || !second.Metadata.CacheHit {
		t.Errorf("cache hits = %v, %v; want false, true", first.Metadata.CacheHit, second.Metadata.CacheHit)
	}
	if !reflect.DeepEqual(first.Results, second.Results) {
		t.Error("cached results differ from computed results")
	}

	stats := svc.Stats()
	if stats.Calculations != 2 || stats.CacheHits != 1 || stats.CacheMisses != 1 || stats.CacheHitRate != 0.5 {
		t.Errorf("Stats() = %+v", stats)
	}
}

func TestUnusableRadiiStayFinite(t *testing.T) {
	objs := []celestial.Object{
		obj("sol", celestial.Star, 695700, "", 0),
		obj("earth", celestial.Planet, 0, "sol", 1.0),
		obj("terra2", celestial.Planet, 6500, "sol", 1.3),
		obj("mercury", celestial.Planet, 2439.7, "sol", 0.387),
		obj("jupiter", celestial.Planet, 69911, "sol", 5.2),
		obj("odd", celestial.Planet, math.NaN(), "sol", 7),
	}
	svc := newService(t)
	ctx := context.Background()

	for _, m := range viewmode.Modes {
		t.Run(string(m), func(t *testing.T) {
			s := strategy(t, svc, m)
			first, err := svc.CalculateSystemLayout(ctx, objs, s)
			if err != nil {
				t.Fatal(err)
			}
			for id, r := range first.Results {
				if !(r.VisualRadius > 0) || math.IsInf(r.VisualRadius, 0) {
					t.Errorf("%s radius = %v", id, r.VisualRadius)
				}
				if math.IsNaN(r.OrbitDistance) || math.IsInf(r.OrbitDistance, 0) {
					t.Errorf("%s distance = %v", id, r.OrbitDistance)
				}
				if math.IsNaN(r.RelativeScaleToEarth) || math.IsInf(r.RelativeScaleToEarth, 0) {
					t.Errorf("%s relative scale = %v", id, r.RelativeScaleToEarth)
				}
			}
			if _, err := layout.Marshal(first); err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}

			second, err := svc.CalculateSystemLayout(ctx, objs, s)
			if err != nil {
				t.Fatal(err)
			}
			if first.Metadata.CacheHit || !second.Metadata.CacheHit {
				t.Errorf("cache hits = %v, %v; want false, true", first.Metadata.CacheHit, second.Metadata.CacheHit)
			}
		})
	}

	// terra2 is the Earth reference, so explorational sizes keep their order.
	l, err := svc.CalculateSystemLayout(ctx, objs, strategy(t, svc, viewmode.Explorational))
	if err != nil {
		t.Fatal(err)
	}
	mercury, terra2, jupiter := l.Results["mercury"], l.Results["terra2"], l.Results["jupiter"]
	if !(mercury.VisualRadius < terra2.VisualRadius && terra2.VisualRadius < jupiter.VisualRadius) {
		t.Errorf("radii mercury=%v terra2=%v jupiter=%v, want increasing", mercury.VisualRadius, terra2.VisualRadius, jupiter.VisualRadius)
	}
	if !l.Results["earth"].IsFixedSize {
		t.Errorf("earth without radius = %+v, want fallback fixed size", l.Results["earth"])
	}
}

func TestModesAreCachedSeparately(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	for _, m := range viewmode.Modes {
		l, err := svc.CalculateSystemLayout(ctx, solEarthLuna(), strategy(t, svc, m))
		if err != nil {
			t.Fatal(err)
		}
		if l.Metadata.CacheHit {
			t.Errorf("%s: unexpected cache hit", m)
		}
	}
	n, err := svc.Cache().InvalidateMode(ctx, string(viewmode.Profile))
	if err != nil || n != 1 {
		t.Errorf("InvalidateMode = %d, %v", n, err)
	}
}

func TestEmptyInput(t *testing.T) {
	svc := newService(t)
	_, err := svc.CalculateSystemLayout(context.Background(), nil, strategy(t, svc, viewmode.Profile))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
	if got := svc.Stats().Errors; got != 1 {
		t.Errorf("Errors = %d, want 1", got)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Hierarchy.MinChildToParentRatio = 0.9
	_, err := New(Options{Config: cfg})
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestCancelledContext(t *testing.T) {
	svc := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.CalculateSystemLayout(ctx, solEarthLuna(), strategy(t, svc, viewmode.Profile)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestInvariantsAcrossModes(t *testing.T) {
	svc := newService(t)
	cfg := svc.Config()
	for _, m := range viewmode.Modes {
		t.Run(string(m), func(t *testing.T) {
			l, err := svc.CalculateSystemLayout(context.Background(), solarSystem(), strategy(t, svc, m))
			if err != nil {
				t.Fatal(err)
			}
			if len(l.Results) != len(solarSystem()) {
				t.Errorf("results = %d, want %d; warnings: %v", len(l.Results), len(solarSystem()), l.Warnings)
			}

			for id, r := range l.Results {
				if r.VisualRadius <= 0 {
					t.Errorf("%s radius = %v", id, r.VisualRadius)
				}
				if r.OrbitDistance < 0 {
					t.Errorf("%s distance = %v", id, r.OrbitDistance)
				}
				p, ok := l.Results[r.ParentID]
				if !ok || r.Classification == celestial.Belt {
					continue
				}
				lo := p.VisualRadius * cfg.Hierarchy.MinChildToParentRatio
				hi := p.VisualRadius * cfg.Hierarchy.MaxChildToParentRatio
				if r.VisualRadius < lo-1e-9 || r.VisualRadius > hi+1e-9 {
					t.Errorf("%s radius %v outside [%v, %v] of %s", id, r.VisualRadius, lo, hi, r.ParentID)
				}
			}

			if l.Metadata.ExhaustedResolutions == 0 {
				assertSiblingsClear(t, l, cfg.Collision.ConvergenceThreshold)
			}
			if l.Bounds.Span <= 0 || l.Bounds.Max <= l.Results["jupiter"].OrbitDistance {
				t.Errorf("bounds = %+v", l.Bounds)
			}
		})
	}
}

func assertSiblingsClear(t *testing.T, l *layout.SystemLayout, threshold float64) {
	t.Helper()
	for parent := range l.Results {
		ids := l.Children(parent)
		sort.Slice(ids, func(i, j int) bool {
			return l.Results[ids[i]].OrbitDistance < l.Results[ids[j]].OrbitDistance
		})
		for i := 1; i < len(ids); i++ {
			a, b := l.Results[ids[i-1]], l.Results[ids[i]]
			gap := (b.OrbitDistance - b.Extent()) - (a.OrbitDistance + a.Extent())
			if gap < threshold-1e-6 {
				t.Errorf("siblings %s and %s overlap: gap %v", a.ObjectID, b.ObjectID, gap)
			}
		}
	}
}

func TestBarycenterBinaries(t *testing.T) {
	objs := []celestial.Object{
		obj("alpha-a", celestial.Star, 851000, celestial.Barycenter, 23.4),
		obj("alpha-b", celestial.Star, 600000, celestial.Barycenter, 23.4),
		obj("proxima-b", celestial.Planet, 7160, "alpha-b", 0.0485),
	}
	svc := newService(t)
	for _, m := range viewmode.Modes {
		t.Run(string(m), func(t *testing.T) {
			l, err := svc.CalculateSystemLayout(context.Background(), objs, strategy(t, svc, m))
			if err != nil {
				t.Fatal(err)
			}
			a, b := l.Results["alpha-a"].OrbitDistance, l.Results["alpha-b"].OrbitDistance
			if a <= 0 || b <= 0 || a == b {
				t.Errorf("alpha-a = %v, alpha-b = %v; want distinct positive", a, b)
			}
			if l.Metadata.RootID != celestial.Barycenter {
				t.Errorf("root = %q", l.Metadata.RootID)
			}
		})
	}
}

func TestDanglingParentDegrades(t *testing.T) {
	objs := append(solEarthLuna(), obj("io", celestial.Moon, 1821.6, "jupiter", 0.00282))
	svc := newService(t)
	l, err := svc.CalculateSystemLayout(context.Background(), objs, strategy(t, svc, viewmode.Navigational))
	if err != nil {
		t.Fatalf("dangling parent should not fail: %v", err)
	}
	if _, ok := l.Results["io"]; ok {
		t.Error("io should be skipped")
	}
	var n int
	for _, w := range l.Warnings {
		if strings.Contains(w, "missing parent jupiter") {
			n++
		}
	}
	if n != 1 {
		t.Errorf("want exactly one dangling-parent warning, got %v", l.Warnings)
	}
}

func TestEnforcementScenario(t *testing.T) {
	// Scientific mode sizes a moon larger than its parent; enforcement caps
	// it at 80% of the parent.
	objs := []celestial.Object{
		obj("host", celestial.Planet, 6371, "", 0),
		obj("giant-moon", celestial.Moon, 6371*1.5, "host", 0.01),
	}
	svc := newService(t)
	l, err := svc.CalculateSystemLayout(context.Background(), objs, strategy(t, svc, viewmode.Scientific))
	if err != nil {
		t.Fatal(err)
	}
	host, moon := l.Results["host"], l.Results["giant-moon"]
	if math.Abs(moon.VisualRadius-host.VisualRadius*0.8) > 1e-9 {
		t.Errorf("moon = %v, want %v", moon.VisualRadius, host.VisualRadius*0.8)
	}
	if moon.ScalingMethod != "hierarchy-constrained" || moon.IsToScale {
		t.Errorf("moon = %+v", moon)
	}
}

func TestSubset(t *testing.T) {
	got := Subset(solarSystem(), []string{"mars", "unknown"})
	var ids []string
	for _, o := range got {
		ids = append(ids, o.ID)
	}
	want := []string{"sol", "mars", "phobos", "deimos"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Subset() = %v, want %v", ids, want)
	}
	if Subset(solarSystem(), []string{"pluto"}) != nil {
		t.Error("unknown targets should yield nil")
	}
}

func TestPartialLayout(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	s := strategy(t, svc, viewmode.Profile)

	l, err := svc.CalculatePartialLayout(ctx, solarSystem(), []string{"luna"}, s)
	if err != nil {
		t.Fatal(err)
	}
	ids := l.IDs()
	sort.Strings(ids)
	if !reflect.DeepEqual(ids, []string{"earth", "luna", "sol"}) {
		t.Errorf("partial layout ids = %v", ids)
	}

	if _, err := svc.CalculatePartialLayout(ctx, solarSystem(), []string{"pluto"}, s); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeNotFound)
	}
}

func TestFrame(t *testing.T) {
	svc := newService(t)
	s := strategy(t, svc, viewmode.Profile)
	objs := solarSystem()
	l, err := svc.CalculateSystemLayout(context.Background(), objs, s)
	if err != nil {
		t.Fatal(err)
	}

	v, err := Frame(l, objs, s, "earth")
	if err != nil {
		t.Fatal(err)
	}
	if v.Camera.TargetID != "earth" || v.Camera.Distance <= 0 {
		t.Errorf("camera = %+v", v.Camera)
	}
	if !v.Visibility["earth"].ShowObject || !v.Visibility["luna"].ShowObject || !v.Visibility["sol"].ShowObject {
		t.Error("focus, child and parent should be visible")
	}
	if v.Visibility["mars"].ShowObject {
		t.Error("profile mode hides unrelated objects")
	}

	whole, err := Frame(l, objs, s, "")
	if err != nil {
		t.Fatal(err)
	}
	if whole.Camera.TargetID != "sol" || !whole.Visibility["mars"].ShowObject {
		t.Errorf("unfocused view = %+v", whole.Camera)
	}

	if _, err := Frame(l, objs, s, "pluto"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want %s", err, errors.ErrCodeNotFound)
	}
}

func TestRenderTree(t *testing.T) {
	svc := newService(t)
	dot, err := svc.RenderTree(context.Background(), solEarthLuna(), strategy(t, svc, viewmode.Navigational), FormatDOT)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `"earth" -> "luna"`) || !strings.Contains(string(dot), "(fixed)") {
		t.Errorf("RenderTree() =\n%s", dot)
	}
	if _, err := svc.RenderTree(context.Background(), solEarthLuna(), nil, "png"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"svg", false},
		{"json", false},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

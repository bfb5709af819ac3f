package collision

import (
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/orrery/pkg/config"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestDetect(t *testing.T) {
	svc := New(config.Default().Collision, nil)
	tests := []struct {
		name  string
		group Group
		want  []Kind
	}{
		{"clear", Group{ParentID: "p", ParentRadius: 1, Bodies: []Body{
			{ID: "a", Distance: 5, Radius: 0.5},
			{ID: "b", Distance: 10, Radius: 0.5},
		}}, nil},
		{"inside safety zone", Group{ParentID: "p", ParentRadius: 1.5, Bodies: []Body{
			{ID: "a", Distance: 3.5, Radius: 0.6},
		}}, []Kind{KindParentChild}},
		{"siblings too close", Group{ParentID: "p", ParentRadius: 1, Bodies: []Body{
			{ID: "b", Distance: 6, Radius: 0.5},
			{ID: "a", Distance: 5, Radius: 0.5},
		}}, []Kind{KindSibling}},
		{"extent counts", Group{ParentID: "p", ParentRadius: 1, Bodies: []Body{
			{ID: "a", Distance: 10, Radius: 0.5, Extent: 4},
			{ID: "b", Distance: 14.9, Radius: 0.5},
		}}, []Kind{KindSibling}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Detect([]Group{tt.group}, 2.0)
			if len(got) != len(tt.want) {
				t.Fatalf("Detect() = %v, want kinds %v", got, tt.want)
			}
			for i, k := range tt.want {
				if got[i].Kind != k || got[i].Overlap <= 0 {
					t.Errorf("collision %d = %+v, want kind %s with positive overlap", i, got[i], k)
				}
			}
		})
	}
}

func TestResolveMoonsAroundPlanet(t *testing.T) {
	svc := New(config.Default().Collision, nil)
	g := Group{ParentID: "planet", ParentRadius: 1.5, Bodies: []Body{
		{ID: "m1", Distance: 3.5, Radius: 0.6},
		{ID: "m2", Distance: 5.5, Radius: 0.6},
		{ID: "m3", Distance: 7.5, Radius: 0.6},
	}}

	out := svc.Resolve([]Group{g}, 2.0)

	// m1 clears the 3.0 safety zone, m2 steps past m1, m3 is already clear.
	want := map[string]float64{"m1": 4.1, "m2": 5.8, "m3": 7.5}
	for id, d := range want {
		if !approx(out.Distances[id], d) {
			t.Errorf("%s = %v, want %v", id, out.Distances[id], d)
		}
	}
	if out.Collisions != 1 {
		t.Errorf("Collisions = %d, want 1", out.Collisions)
	}
	if len(out.Adjustments) != 2 {
		t.Fatalf("Adjustments = %+v, want 2", out.Adjustments)
	}
	if a := out.Adjustments[1]; a.ObjectID != "m2" || !strings.Contains(a.Reason, "m1") || a.OriginalDistance != 5.5 {
		t.Errorf("adjustment = %+v", a)
	}
	if len(out.Exhausted) != 0 {
		t.Errorf("Exhausted = %v", out.Exhausted)
	}
	if rest := svc.Detect([]Group{regroup(g, out)}, 2.0); len(rest) != 0 {
		t.Errorf("collisions remain after resolution: %v", rest)
	}
}

func TestResolveSolEarthLuna(t *testing.T) {
	svc := New(config.Default().Collision, nil)
	out := svc.Resolve([]Group{{ParentID: "earth", ParentRadius: 1, Bodies: []Body{
		{ID: "luna", Distance: 0.1028, Radius: 0.348},
	}}}, 2.0)

	if !approx(out.Distances["luna"], 2.848) {
		t.Errorf("luna = %v, want 2.848", out.Distances["luna"])
	}
}

func TestResolveIdenticalDistances(t *testing.T) {
	svc := New(config.Default().Collision, nil)
	g := Group{ParentID: "sol", ParentRadius: 1, Bodies: []Body{
		{ID: "b", Distance: 10, Radius: 1},
		{ID: "a", Distance: 10, Radius: 1},
		{ID: "c", Distance: 10, Radius: 1},
	}}
	out := svc.Resolve([]Group{g}, 1.2)

	if !(out.Distances["a"] < out.Distances["b"] && out.Distances["b"] < out.Distances["c"]) {
		t.Errorf("distances = %v, want a < b < c", out.Distances)
	}
	if rest := svc.Detect([]Group{regroup(g, out)}, 1.2); len(rest) != 0 {
		t.Errorf("collisions remain: %v", rest)
	}
}

func TestResolveExhausted(t *testing.T) {
	cfg := config.Default().Collision
	cfg.MaxIterations = 0
	svc := New(cfg, nil)

	out := svc.Resolve([]Group{{ParentID: "p", ParentRadius: 0, Bodies: []Body{
		{ID: "a", Distance: 10, Radius: 1},
		{ID: "b", Distance: 10.5, Radius: 1},
	}}}, 1)

	if len(out.Exhausted) != 1 || out.Exhausted[0] != "b" {
		t.Fatalf("Exhausted = %v, want [b]", out.Exhausted)
	}
	if out.Distances["b"] != 10.5 {
		t.Errorf("b = %v, want last attempted 10.5", out.Distances["b"])
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "exhausted") {
		t.Errorf("Warnings = %v", out.Warnings)
	}
}

func TestResolveDisabled(t *testing.T) {
	cfg := config.Default().Collision
	cfg.Enabled = false
	out := New(cfg, nil).Resolve([]Group{{ParentID: "p", ParentRadius: 2, Bodies: []Body{
		{ID: "a", Distance: 1, Radius: 1},
	}}}, 2)

	if out.Distances["a"] != 1 || len(out.Adjustments) != 0 {
		t.Errorf("disabled resolver moved bodies: %+v", out)
	}
	if out.Collisions != 1 {
		t.Errorf("Collisions = %d, want 1", out.Collisions)
	}
}

func TestBarycenterBinaries(t *testing.T) {
	svc := New(config.Default().Collision, nil)
	out := svc.Resolve([]Group{{ParentID: "barycenter", Bodies: []Body{
		{ID: "alpha-a", Distance: 5, Radius: 4},
		{ID: "alpha-b", Distance: 6, Radius: 4},
	}}}, 2)

	a, b := out.Distances["alpha-a"], out.Distances["alpha-b"]
	if a <= 0 || b <= a {
		t.Errorf("alpha-a = %v, alpha-b = %v", a, b)
	}
}

func regroup(g Group, out *Outcome) Group {
	r := Group{ParentID: g.ParentID, ParentRadius: g.ParentRadius}
	for _, b := range g.Bodies {
		b.Distance = out.Distances[b.ID]
		r.Bodies = append(r.Bodies, b)
	}
	return r
}

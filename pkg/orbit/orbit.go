// Package orbit places objects on their orbits.
//
// Placement runs in two passes that mirror the physical dependency order:
//
//  1. Moons are placed around their (sized) parents.
//  2. Planets, dwarf planets, asteroids and belts are placed around their
//     parents, each reserving clearance for its own moon system through its
//     effective radius.
//
// Stars orbiting the synthetic barycenter get dedicated slots; every other
// star sits at the origin of its parent. Objects that cannot be placed are
// skipped with a reference warning, never retried.
//
// Distances are relative to the parent's center, in scene units.
package orbit

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/scaling"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// Positions is the outcome of orbit placement.
type Positions struct {
	Distances map[string]float64
	Belts     map[string]layout.BeltData

	// Effective maps parents with placed children to their effective radius.
	Effective map[string]float64

	Warnings []string
}

// Calculator computes orbit positions.
type Calculator struct {
	cfg    config.Orbital
	logger *log.Logger
}

// New creates an orbit calculator. A nil logger discards output.
func New(cfg config.Orbital, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Calculator{cfg: cfg, logger: logger}
}

// Calculate places every sized object. Objects missing from sizes are
// ignored; the sizing stage has already reported them.
func (c *Calculator) Calculate(objects []celestial.Object, sizes map[string]scaling.Result, behavior viewmode.OrbitalBehavior) *Positions {
	p := &Positions{
		Distances: make(map[string]float64, len(objects)),
		Belts:     make(map[string]layout.BeltData),
		Effective: make(map[string]float64),
	}
	idx := celestial.Index(objects)

	var moons, others, binaries []celestial.Object
	for i, obj := range objects {
		if idx[obj.ID] != i {
			continue
		}
		if _, ok := sizes[obj.ID]; !ok {
			continue
		}
		switch {
		case obj.IsRootCandidate():
			p.Distances[obj.ID] = 0
		case obj.Classification == celestial.Star && obj.OrbitsBarycenter():
			binaries = append(binaries, obj)
		case obj.Classification == celestial.Star:
			if !c.parentResolvable(obj, idx, sizes, p) {
				continue
			}
			p.Distances[obj.ID] = 0
		case obj.Classification == celestial.Moon:
			moons = append(moons, obj)
		default:
			others = append(others, obj)
		}
	}

	c.placeBinaries(binaries, sizes, behavior, p)

	// Pass 1: moons.
	for _, group := range siblingGroups(c.placeable(moons, idx, sizes, behavior, p)) {
		parentR := 0.0
		if r, ok := sizes[group[0].ParentID()]; ok {
			parentR = r.VisualRadius
		}
		base := parentR + behavior.MoonBaseSpacing
		step := behavior.MoonBaseSpacing * behavior.SpacingMultiplier
		for i, m := range group {
			p.Distances[m.ID] = c.distance(m, i, base, step, behavior)
		}
	}
	p.Effective = RefreshEffectiveRadii(objects, sizes, p.Distances, p.Belts)

	// Pass 2: planets, dwarf planets, asteroids and belts.
	step := behavior.BaseSpacing * behavior.SpacingMultiplier
	for _, group := range siblingGroups(c.placeable(others, idx, sizes, behavior, p)) {
		for i, o := range group {
			d := c.distance(o, i, behavior.BaseSpacing, step, behavior)
			p.Distances[o.ID] = d
			if o.Classification == celestial.Belt {
				p.Belts[o.ID] = CalculateBeltData(d, c.cfg.BeltWidthFraction)
			}
		}
	}

	c.dropOrphans(objects, idx, p)
	p.Effective = RefreshEffectiveRadii(objects, sizes, p.Distances, p.Belts)
	return p
}

// distance returns the i-th equidistant slot or the scaled semi-major axis.
func (c *Calculator) distance(obj celestial.Object, i int, base, step float64, b viewmode.OrbitalBehavior) float64 {
	if b.Mode == viewmode.Equidistant {
		return base + float64(i)*step
	}
	return obj.SemiMajorAxis() * b.OrbitScaling
}

// placeable filters objs down to those with a resolvable, sized parent and,
// in scaled mode, a finite positive semi-major axis.
func (c *Calculator) placeable(objs []celestial.Object, idx map[string]int, sizes map[string]scaling.Result, b viewmode.OrbitalBehavior, p *Positions) []celestial.Object {
	var out []celestial.Object
	for _, o := range objs {
		if !c.parentResolvable(o, idx, sizes, p) {
			continue
		}
		if b.Mode == viewmode.Scaled && !o.HasSemiMajorAxis() {
			c.skip(p, o.ID, "object %s has no semi-major axis", o.ID)
			continue
		}
		out = append(out, o)
	}
	return out
}

// parentResolvable reports whether o's parent exists and has a size. The
// synthetic barycenter always resolves.
func (c *Calculator) parentResolvable(o celestial.Object, idx map[string]int, sizes map[string]scaling.Result, p *Positions) bool {
	pid := o.ParentID()
	if pid == celestial.Barycenter {
		if _, exists := idx[pid]; !exists {
			return true
		}
	}
	if _, ok := idx[pid]; !ok {
		c.skip(p, o.ID, "object %s references missing parent %s", o.ID, pid)
		return false
	}
	if _, ok := sizes[pid]; !ok {
		c.skip(p, o.ID, "object %s skipped: parent %s has no size", o.ID, pid)
		return false
	}
	return true
}

// placeBinaries places stars orbiting the barycenter in strictly increasing
// slots.
func (c *Calculator) placeBinaries(stars []celestial.Object, sizes map[string]scaling.Result, b viewmode.OrbitalBehavior, p *Positions) {
	sortSiblings(stars)
	prev, prevR := 0.0, 0.0
	for i, s := range stars {
		r := sizes[s.ID].VisualRadius
		var d float64
		if b.Mode == viewmode.Equidistant {
			d = c.cfg.BinarySpacing * float64(i+1)
		} else {
			d = max(s.SemiMajorAxis()*b.OrbitScaling*c.cfg.BinaryReduction, c.cfg.MinBinaryDistance)
			if i > 0 {
				d = max(d, prev+prevR+r+c.cfg.BinarySpacing/2)
			}
		}
		p.Distances[s.ID] = d
		prev, prevR = d, r
	}
}

// dropOrphans removes placed objects whose parent ended up unplaced, until
// no such object remains.
func (c *Calculator) dropOrphans(objects []celestial.Object, idx map[string]int, p *Positions) {
	for changed := true; changed; {
		changed = false
		for _, o := range objects {
			if _, placed := p.Distances[o.ID]; !placed || o.IsRootCandidate() {
				continue
			}
			pid := o.ParentID()
			if _, exists := idx[pid]; !exists && pid == celestial.Barycenter {
				continue
			}
			if _, ok := p.Distances[pid]; ok {
				continue
			}
			delete(p.Distances, o.ID)
			delete(p.Belts, o.ID)
			c.skip(p, o.ID, "object %s skipped: parent %s has no position", o.ID, pid)
			changed = true
		}
	}
}

func (c *Calculator) skip(p *Positions, id, format string, args ...any) {
	err := errors.New(errors.ErrCodeReference, format, args...)
	c.logger.Warn(err.Message, "object", id)
	p.Warnings = append(p.Warnings, err.Message)
}

// CalculateBeltData builds a belt centered at distance with a width of
// distance × widthFraction.
func CalculateBeltData(distance, widthFraction float64) layout.BeltData {
	return layout.NewBeltData(distance, distance*widthFraction)
}

// RefreshEffectiveRadii recomputes the effective radius of every parent
// with placed children: the larger of its own visual radius and the
// outermost child extent (distance plus child radius, or a belt's outer
// edge).
func RefreshEffectiveRadii(objects []celestial.Object, sizes map[string]scaling.Result, distances map[string]float64, belts map[string]layout.BeltData) map[string]float64 {
	eff := make(map[string]float64)
	for _, o := range objects {
		d, ok := distances[o.ID]
		if !ok || o.IsRootCandidate() {
			continue
		}
		pid := o.ParentID()
		outer := d + sizes[o.ID].VisualRadius
		if b, ok := belts[o.ID]; ok {
			outer = max(outer, b.OuterRadius)
		}
		cur, seen := eff[pid]
		if !seen {
			cur = sizes[pid].VisualRadius
		}
		eff[pid] = max(cur, outer)
	}
	return eff
}

// siblingGroups groups objs by parent, each group sorted by semi-major
// axis then ID. Groups are returned in order of first appearance.
func siblingGroups(objs []celestial.Object) [][]celestial.Object {
	var order []string
	groups := make(map[string][]celestial.Object)
	for _, o := range objs {
		pid := o.ParentID()
		if _, ok := groups[pid]; !ok {
			order = append(order, pid)
		}
		groups[pid] = append(groups[pid], o)
	}
	out := make([][]celestial.Object, 0, len(order))
	for _, pid := range order {
		g := groups[pid]
		sortSiblings(g)
		out = append(out, g)
	}
	return out
}

func sortSiblings(objs []celestial.Object) {
	sort.SliceStable(objs, func(i, j int) bool {
		ai, aj := objs[i].SemiMajorAxis(), objs[j].SemiMajorAxis()
		if ai != aj {
			return ai < aj
		}
		return objs[i].ID < objs[j].ID
	})
}

// String summarizes the positions for debug logging.
func (p *Positions) String() string {
	return fmt.Sprintf("%d placed, %d belts, %d parents, %d warnings", len(p.Distances), len(p.Belts), len(p.Effective), len(p.Warnings))
}

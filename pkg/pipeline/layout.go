package pipeline

import (
	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/collision"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/orbit"
	"github.com/matzehuels/orrery/pkg/scaling"
)

// =============================================================================
// Collision Groups
// =============================================================================

func isMoon(o celestial.Object) bool { return o.Classification == celestial.Moon }

// isPlanetLevel selects everything placed in the second orbit pass plus
// barycentric stars. Stars sitting at their parent's origin never collide
// with it.
func isPlanetLevel(o celestial.Object) bool {
	if o.Classification == celestial.Star {
		return o.OrbitsBarycenter()
	}
	return o.Classification != celestial.Moon
}

// groups builds one collision group per parent from the placed objects
// accepted by keep, in input order.
func groups(objects []celestial.Object, sizes map[string]scaling.Result, pos *orbit.Positions, keep func(celestial.Object) bool) []collision.Group {
	var order []string
	byParent := make(map[string]*collision.Group)
	for _, o := range objects {
		d, placed := pos.Distances[o.ID]
		if !placed || o.IsRootCandidate() || !keep(o) {
			continue
		}
		pid := o.ParentID()
		g, ok := byParent[pid]
		if !ok {
			g = &collision.Group{ParentID: pid, ParentRadius: sizes[pid].VisualRadius}
			byParent[pid] = g
			order = append(order, pid)
		}
		extent := pos.Effective[o.ID]
		if b, ok := pos.Belts[o.ID]; ok {
			extent = max(extent, b.Width/2)
		}
		g.Bodies = append(g.Bodies, collision.Body{
			ID:       o.ID,
			Distance: d,
			Radius:   sizes[o.ID].VisualRadius,
			Extent:   extent,
		})
	}
	out := make([]collision.Group, 0, len(order))
	for _, pid := range order {
		out = append(out, *byParent[pid])
	}
	return out
}

// apply writes resolved distances back into pos and records adjustments
// per object. Moved belts keep the width the resolver cleared room for.
func apply(distances map[string]float64, adjs []layout.CollisionAdjustment, pos *orbit.Positions, into map[string][]layout.CollisionAdjustment) {
	for id, d := range distances {
		pos.Distances[id] = d
		if b, ok := pos.Belts[id]; ok && b.CenterRadius != d {
			pos.Belts[id] = layout.NewBeltData(d, b.Width)
		}
	}
	for _, a := range adjs {
		into[a.ObjectID] = append(into[a.ObjectID], a)
	}
}

// =============================================================================
// Assembly
// =============================================================================

// assemble builds the layout from every object that has both a size and a
// position. Anything else has already been reported as a warning.
func assemble(mode string, objects []celestial.Object, sizes map[string]scaling.Result, pos *orbit.Positions, adjustments map[string][]layout.CollisionAdjustment) *layout.SystemLayout {
	l := layout.New(mode)
	for _, o := range objects {
		if _, dup := l.Results[o.ID]; dup {
			continue
		}
		size, sized := sizes[o.ID]
		d, placed := pos.Distances[o.ID]
		if !sized || !placed {
			continue
		}
		r := layout.Result{
			ObjectID:             o.ID,
			ParentID:             o.ParentID(),
			Classification:       o.Classification,
			VisualRadius:         size.VisualRadius,
			OrbitDistance:        d,
			ScalingMethod:        size.ScalingMethod,
			IsFixedSize:          size.IsFixedSize,
			IsToScale:            size.IsToScale,
			RelativeScaleToEarth: size.RelativeScaleToEarth,
			EffectiveRadius:      pos.Effective[o.ID],
			Adjustments:          adjustments[o.ID],
		}
		if b, ok := pos.Belts[o.ID]; ok {
			r.Belt = &b
		}
		l.Results[o.ID] = r
	}
	l.Metadata.ObjectCount = len(l.Results)
	l.ComputeBounds()
	return l
}

// =============================================================================
// Partial Layouts
// =============================================================================

// Subset restricts objects to the targets, every ancestor of a target and
// every direct child of a target, preserving input order.
func Subset(objects []celestial.Object, targets []string) []celestial.Object {
	idx := celestial.Index(objects)
	isTarget := make(map[string]bool, len(targets))
	keep := make(map[string]bool)
	for _, t := range targets {
		i, ok := idx[t]
		if !ok {
			continue
		}
		isTarget[t] = true
		keep[t] = true
		// Bounded by the object count so cycles terminate.
		pid := objects[i].ParentID()
		for steps := 0; pid != "" && steps < len(objects); steps++ {
			j, ok := idx[pid]
			if !ok {
				break
			}
			keep[pid] = true
			pid = objects[j].ParentID()
		}
	}
	if len(isTarget) == 0 {
		return nil
	}

	var out []celestial.Object
	added := make(map[string]bool)
	for _, o := range objects {
		if added[o.ID] || !(keep[o.ID] || isTarget[o.ParentID()]) {
			continue
		}
		added[o.ID] = true
		out = append(out, o)
	}
	return out
}

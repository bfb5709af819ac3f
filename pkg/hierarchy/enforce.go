package hierarchy

import (
	"fmt"
	"maps"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/scaling"
)

// Enforce clamps every child's visual radius into
// [parent × MinChildToParentRatio, parent × MaxChildToParentRatio], walking
// top-down so that a clamped parent constrains its children. Adjusted
// entries are tagged [scaling.MethodHierarchyConstrained].
//
// sizes is not modified; Enforce returns a copy. Belts and children of
// unsized parents are left as they are.
func Enforce(t *Tree, sizes map[string]scaling.Result, cfg config.Hierarchy) map[string]scaling.Result {
	out := maps.Clone(sizes)
	if out == nil {
		out = make(map[string]scaling.Result)
	}
	for _, i := range t.TopDown() {
		n := &t.nodes[i]
		if n.Parent < 0 || n.Object.Classification == celestial.Belt {
			continue
		}
		parent, ok := out[t.nodes[n.Parent].Object.ID]
		if !ok {
			continue
		}
		child, ok := out[n.Object.ID]
		if !ok {
			continue
		}
		lo := parent.VisualRadius * cfg.MinChildToParentRatio
		hi := parent.VisualRadius * cfg.MaxChildToParentRatio
		clamped := min(max(child.VisualRadius, lo), hi)
		if clamped == child.VisualRadius {
			continue
		}
		child.VisualRadius = clamped
		child.ScalingMethod = scaling.MethodHierarchyConstrained
		child.IsToScale = false
		out[n.Object.ID] = child
	}
	return out
}

// allowedChildren is the closed classification table: a parent of the key
// classification may only have children of the listed classifications.
var allowedChildren = map[celestial.Classification][]celestial.Classification{
	celestial.Star:        {celestial.Star, celestial.Planet, celestial.DwarfPlanet, celestial.Belt, celestial.Asteroid},
	celestial.Planet:      {celestial.Moon},
	celestial.DwarfPlanet: {celestial.Moon},
	celestial.Asteroid:    {celestial.Moon},
}

// AllowedChild reports whether a child of classification child may orbit a
// parent of classification parent.
func AllowedChild(parent, child celestial.Classification) bool {
	for _, c := range allowedChildren[parent] {
		if c == child {
			return true
		}
	}
	return false
}

// Validate returns warnings for dangling parent references (the synthetic
// barycenter parent is exempt), circular references, classification table
// violations and additional root candidates. It never fails.
func Validate(objects []celestial.Object) []string {
	var warnings []string
	idx := celestial.Index(objects)

	var roots []string
	for _, o := range objects {
		if o.IsRootCandidate() {
			roots = append(roots, o.ID)
			continue
		}
		pid := o.ParentID()
		if pid == celestial.Barycenter {
			if _, exists := idx[pid]; !exists && o.Classification != celestial.Star {
				warnings = append(warnings, fmt.Sprintf("object %s orbits the barycenter but is a %s", o.ID, o.Classification))
			}
			continue
		}
		pi, ok := idx[pid]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("object %s references missing parent %s", o.ID, pid))
			continue
		}
		parent := objects[pi]
		if !AllowedChild(parent.Classification, o.Classification) {
			warnings = append(warnings, fmt.Sprintf("%s %s cannot orbit %s %s", o.Classification, o.ID, parent.Classification, parent.ID))
		}
	}

	// Cycles: walk each parent chain with a visited set. Each cycle is
	// reported once, from its first member in input order.
	reported := make(map[string]bool)
	for _, o := range objects {
		visited := map[string]bool{o.ID: true}
		cur := o
		for {
			pi, ok := idx[cur.ParentID()]
			if !ok {
				break
			}
			cur = objects[pi]
			if visited[cur.ID] {
				if cur.ID == o.ID && !reported[o.ID] {
					for id := range visited {
						reported[id] = true
					}
					warnings = append(warnings, fmt.Sprintf("circular parent reference involving %s", o.ID))
				}
				break
			}
			visited[cur.ID] = true
		}
	}

	if len(roots) > 1 {
		warnings = append(warnings, fmt.Sprintf("multiple root candidates %v; %s is the root, others are laid out as detached systems", roots, roots[0]))
	}
	return warnings
}

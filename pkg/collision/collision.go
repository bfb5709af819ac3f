// Package collision detects and resolves overlaps between orbiting bodies.
//
// Bodies are resolved per sibling group, inside-out by original distance, so
// a fix applied to an inner body is never undone by an outer one. Each body
// is first pushed clear of its parent's safety zone, then stepped past any
// already-placed sibling it overlaps until a free slot is found or the
// iteration budget runs out. An exhausted body keeps its last attempted
// position and is reported; resolution is best-effort.
package collision

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/layout"
)

// epsilon absorbs floating point noise in gap comparisons.
const epsilon = 1e-9

// Kind classifies a collision.
type Kind string

const (
	KindParentChild Kind = "parent-child"
	KindSibling     Kind = "sibling"
)

// Body is a placed object as seen by the resolver.
type Body struct {
	ID       string
	Distance float64
	Radius   float64

	// Extent is the clearance the body needs around its orbit, such as the
	// effective radius of a planet with moons or a belt's half width. Values
	// below Radius are ignored.
	Extent float64
}

func (b Body) extent() float64 { return max(b.Radius, b.Extent) }

// Group is a set of siblings sharing one parent.
type Group struct {
	ParentID     string
	ParentRadius float64
	Bodies       []Body
}

// Collision is a detected overlap. For parent-child collisions A is the
// parent and B the child.
type Collision struct {
	Kind     Kind
	ParentID string
	A, B     string
	Overlap  float64
}

func (c Collision) String() string {
	return fmt.Sprintf("%s %s/%s overlap %.3f", c.Kind, c.A, c.B, c.Overlap)
}

// Outcome is the result of resolving a set of groups.
type Outcome struct {
	// Distances holds the final distance of every body, adjusted or not.
	Distances   map[string]float64
	Adjustments []layout.CollisionAdjustment
	Collisions  int
	Exhausted   []string
	Warnings    []string
}

// Service detects and resolves collisions.
type Service struct {
	cfg    config.Collision
	logger *log.Logger
}

// New creates a collision service. A nil logger discards output.
func New(cfg config.Collision, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Service{cfg: cfg, logger: logger}
}

// Detect reports parent-child collisions, where a child's inner edge falls
// inside parentRadius × safety, and collisions between adjacent siblings
// whose edge gap is below the convergence threshold.
func (s *Service) Detect(groups []Group, safety float64) []Collision {
	var out []Collision
	for _, g := range groups {
		zone := g.ParentRadius * safety
		bodies := sorted(g.Bodies)
		for i, b := range bodies {
			if inner := b.Distance - b.extent(); inner < zone-epsilon {
				out = append(out, Collision{Kind: KindParentChild, ParentID: g.ParentID, A: g.ParentID, B: b.ID, Overlap: zone - inner})
			}
			if i == 0 {
				continue
			}
			a := bodies[i-1]
			if gap := edgeGap(a.Distance, a.extent(), b.Distance, b.extent()); gap < s.cfg.ConvergenceThreshold-epsilon {
				out = append(out, Collision{Kind: KindSibling, ParentID: g.ParentID, A: a.ID, B: b.ID, Overlap: s.cfg.ConvergenceThreshold - gap})
			}
		}
	}
	return out
}

// Resolve moves bodies outward until they clear their parent's safety zone
// and every inner sibling. When collision handling is disabled the detected
// collisions are still counted but no body moves.
func (s *Service) Resolve(groups []Group, safety float64) *Outcome {
	out := &Outcome{Distances: make(map[string]float64)}
	out.Collisions = len(s.Detect(groups, safety))

	for _, g := range groups {
		if !s.cfg.Enabled {
			for _, b := range g.Bodies {
				out.Distances[b.ID] = b.Distance
			}
			continue
		}
		s.resolveGroup(g, safety, out)
	}

	if out.Collisions > 0 {
		s.logger.Debug("collisions resolved", "detected", out.Collisions, "adjusted", len(out.Adjustments), "exhausted", len(out.Exhausted))
	}
	return out
}

type placed struct {
	id       string
	pos, ext float64
}

func (s *Service) resolveGroup(g Group, safety float64, out *Outcome) {
	margin := s.cfg.ConvergenceThreshold
	zone := g.ParentRadius * safety

	var done []placed
	for _, b := range sorted(g.Bodies) {
		ext := b.extent()
		pos := b.Distance
		var reason string

		if pos-ext < zone-epsilon {
			pos = zone + ext + margin
			reason = fmt.Sprintf("inside safety zone of %s", g.ParentID)
		}

		for iter := 0; ; iter++ {
			c, ok := conflict(done, pos, ext, margin)
			if !ok {
				break
			}
			if iter == s.cfg.MaxIterations {
				err := errors.New(errors.ErrCodeConstraintExhausted,
					"collision resolution for %s exhausted %d iterations; keeping distance %.3f", b.ID, s.cfg.MaxIterations, pos)
				s.logger.Warn(err.Message, "object", b.ID, "sibling", c.id)
				out.Exhausted = append(out.Exhausted, b.ID)
				out.Warnings = append(out.Warnings, err.Message)
				break
			}
			pos = c.pos + c.ext + ext + margin
			reason = fmt.Sprintf("overlaps sibling %s", c.id)
		}

		if reason != "" && math.Abs(pos-b.Distance) > epsilon {
			out.Adjustments = append(out.Adjustments, layout.CollisionAdjustment{
				ObjectID:         b.ID,
				OriginalDistance: b.Distance,
				AdjustedDistance: pos,
				Reason:           reason,
			})
		}
		out.Distances[b.ID] = pos
		done = append(done, placed{id: b.ID, pos: pos, ext: ext})
	}
}

// conflict returns the placed sibling that overlaps a body at pos with the
// outermost edge, so a single step clears as much as possible.
func conflict(done []placed, pos, ext, margin float64) (placed, bool) {
	var hit placed
	found := false
	for _, p := range done {
		if edgeGap(p.pos, p.ext, pos, ext) >= margin-epsilon {
			continue
		}
		if !found || p.pos+p.ext > hit.pos+hit.ext {
			hit, found = p, true
		}
	}
	return hit, found
}

func edgeGap(d1, e1, d2, e2 float64) float64 {
	return math.Abs(d2-d1) - e1 - e2
}

func sorted(bodies []Body) []Body {
	out := make([]Body, len(bodies))
	copy(out, bodies)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].ID < out[j].ID
	})
	return out
}

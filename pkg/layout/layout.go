// Package layout defines the artifact produced by the orbital calculation
// pipeline: a [SystemLayout] holding one [Result] per placed object, the
// system's radial bounds and calculation metadata.
//
// SystemLayout is what the rendering layer consumes and what the layout
// cache stores. It serializes to JSON (API responses, cache entries,
// `orrery layout -o`) and to BSON.
package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/orrery/pkg/celestial"
)

// =============================================================================
// SystemLayout
// =============================================================================

// SystemLayout is the complete layout of one orbital system under one view
// mode.
type SystemLayout struct {
	ID       string            `json:"id" bson:"id"`
	Results  map[string]Result `json:"results" bson:"results"`
	Bounds   Bounds            `json:"bounds" bson:"bounds"`
	Metadata Metadata          `json:"metadata" bson:"metadata"`

	// Warnings collects non-fatal data-quality issues: dangling parents,
	// skipped objects, exhausted collision budgets.
	Warnings []string `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// Metadata describes how a layout was produced.
type Metadata struct {
	ViewMode        string        `json:"view_mode" bson:"view_mode"`
	CalculationTime time.Duration `json:"calculation_time" bson:"calculation_time"`
	CalculatedAt    time.Time     `json:"calculated_at" bson:"calculated_at"`
	ObjectCount     int           `json:"object_count" bson:"object_count"`
	CollisionCount  int           `json:"collision_count" bson:"collision_count"`
	CacheHit        bool          `json:"cache_hit" bson:"cache_hit"`
	RootID          string        `json:"root_id" bson:"root_id"`
	OrbitScaling    float64       `json:"orbit_scaling,omitempty" bson:"orbit_scaling,omitempty"`

	// ExhaustedResolutions counts collision resolutions that ran out of
	// iterations and kept a best-effort position.
	ExhaustedResolutions int `json:"exhausted_resolutions,omitempty" bson:"exhausted_resolutions,omitempty"`
}

// Bounds is the radial extent of a system around its root, in scene units.
type Bounds struct {
	Min  float64 `json:"min" bson:"min"`
	Max  float64 `json:"max" bson:"max"`
	Span float64 `json:"span" bson:"span"`
}

// =============================================================================
// Result
// =============================================================================

// Result is the computed layout of one object.
type Result struct {
	ObjectID             string                   `json:"object_id" bson:"object_id"`
	ParentID             string                   `json:"parent_id,omitempty" bson:"parent_id,omitempty"`
	Classification       celestial.Classification `json:"classification" bson:"classification"`
	VisualRadius         float64                  `json:"visual_radius" bson:"visual_radius"`
	OrbitDistance        float64                  `json:"orbit_distance" bson:"orbit_distance"`
	ScalingMethod        string                   `json:"scaling_method" bson:"scaling_method"`
	IsFixedSize          bool                     `json:"is_fixed_size" bson:"is_fixed_size"`
	IsToScale            bool                     `json:"is_to_scale" bson:"is_to_scale"`
	RelativeScaleToEarth float64                  `json:"relative_scale_to_earth,omitempty" bson:"relative_scale_to_earth,omitempty"`

	Belt *BeltData `json:"belt,omitempty" bson:"belt,omitempty"`

	// EffectiveRadius is set for parents with children: the visual radius
	// extended to cover the outermost child extent.
	EffectiveRadius float64 `json:"effective_radius,omitempty" bson:"effective_radius,omitempty"`

	Adjustments []CollisionAdjustment `json:"adjustments,omitempty" bson:"adjustments,omitempty"`
}

// Extent returns the radius an object occupies around its orbit point:
// the effective radius when set, the belt half-width for belts, otherwise
// the visual radius.
func (r Result) Extent() float64 {
	ext := r.VisualRadius
	if r.EffectiveRadius > ext {
		ext = r.EffectiveRadius
	}
	if r.Belt != nil && r.Belt.Width/2 > ext {
		ext = r.Belt.Width / 2
	}
	return ext
}

// BeltData describes the annulus of a belt.
type BeltData struct {
	InnerRadius  float64 `json:"inner_radius" bson:"inner_radius"`
	OuterRadius  float64 `json:"outer_radius" bson:"outer_radius"`
	CenterRadius float64 `json:"center_radius" bson:"center_radius"`
	Width        float64 `json:"width" bson:"width"`
}

// NewBeltData builds a belt annulus around center with the given width.
func NewBeltData(center, width float64) BeltData {
	inner := center - width/2
	if inner < 0 {
		inner = 0
	}
	return BeltData{
		InnerRadius:  inner,
		OuterRadius:  center + width/2,
		CenterRadius: center,
		Width:        width,
	}
}

// CollisionAdjustment records one distance change made by collision
// resolution.
type CollisionAdjustment struct {
	ObjectID         string  `json:"object_id" bson:"object_id"`
	OriginalDistance float64 `json:"original_distance" bson:"original_distance"`
	AdjustedDistance float64 `json:"adjusted_distance" bson:"adjusted_distance"`
	Reason           string  `json:"reason" bson:"reason"`
}

// =============================================================================
// Construction
// =============================================================================

// New returns an empty layout with a fresh ID.
func New(viewMode string) *SystemLayout {
	return &SystemLayout{
		ID:       uuid.NewString(),
		Results:  make(map[string]Result),
		Metadata: Metadata{ViewMode: viewMode, CalculatedAt: time.Now().UTC()},
	}
}

// IDs returns the result IDs sorted by absolute distance from the root,
// ties broken by ID.
func (l *SystemLayout) IDs() []string {
	abs := l.AbsoluteDistances()
	ids := make([]string, 0, len(l.Results))
	for id := range l.Results {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if abs[ids[i]] != abs[ids[j]] {
			return abs[ids[i]] < abs[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Children returns the IDs of results whose parent is id, sorted by orbit
// distance.
func (l *SystemLayout) Children(id string) []string {
	var out []string
	for cid, r := range l.Results {
		if r.ParentID == id {
			out = append(out, cid)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := l.Results[out[i]].OrbitDistance, l.Results[out[j]].OrbitDistance
		if di != dj {
			return di < dj
		}
		return out[i] < out[j]
	})
	return out
}

// AbsoluteDistances returns each result's radial distance from the root,
// summing orbit distances along the parent chain. Parents missing from the
// layout (such as the synthetic barycenter) contribute zero.
func (l *SystemLayout) AbsoluteDistances() map[string]float64 {
	out := make(map[string]float64, len(l.Results))
	var resolve func(id string, depth int) float64
	resolve = func(id string, depth int) float64 {
		if d, ok := out[id]; ok {
			return d
		}
		r, ok := l.Results[id]
		if !ok || depth > len(l.Results) {
			return 0
		}
		d := r.OrbitDistance
		if r.ParentID != "" {
			d += resolve(r.ParentID, depth+1)
		}
		out[id] = d
		return d
	}
	for id := range l.Results {
		resolve(id, 0)
	}
	return out
}

// ComputeBounds sets Bounds from the current results.
func (l *SystemLayout) ComputeBounds() {
	if len(l.Results) == 0 {
		l.Bounds = Bounds{}
		return
	}
	abs := l.AbsoluteDistances()
	lo, hi := math.Inf(1), math.Inf(-1)
	for id, r := range l.Results {
		ext := r.Extent()
		lo = math.Min(lo, abs[id]-ext)
		hi = math.Max(hi, abs[id]+ext)
	}
	l.Bounds = Bounds{Min: lo, Max: hi, Span: hi - lo}
}

// AddWarning appends a formatted warning.
func (l *SystemLayout) AddWarning(format string, args ...any) {
	l.Warnings = append(l.Warnings, fmt.Sprintf(format, args...))
}

// =============================================================================
// Serialization
// =============================================================================

// Marshal serializes a layout to pretty-printed JSON.
func Marshal(l *SystemLayout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal deserializes JSON into a layout.
func Unmarshal(data []byte) (*SystemLayout, error) {
	var l SystemLayout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	if l.Results == nil {
		return nil, fmt.Errorf("layout must contain results")
	}
	return &l, nil
}

// WriteFile writes a layout to a JSON file.
func WriteFile(l *SystemLayout, path string) error {
	data, err := Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a layout from a JSON file.
func ReadFile(path string) (*SystemLayout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}

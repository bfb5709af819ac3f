// Package viewmode implements the four view-mode strategies of the layout
// engine. Each strategy trades realism for clarity differently:
//
//   - [Explorational]: logarithmic sizes relative to Earth, scaled AU orbits
//   - [Navigational]: large fixed sizes, equidistant orbits
//   - [Profile]: near-minimum fixed sizes, equidistant orbits, focus-only
//     visibility
//   - [Scientific]: astronomical scaling with a per-system optimal
//     configuration, scaled AU orbits
//
// [Strategy] is sealed: the set of variants is closed and every variant is
// constructed through [New] or [Resolve].
//
// # Usage
//
//	strategy := viewmode.Resolve("scientific", cfg, logger)
//	sys := viewmode.NewSystem(objects, cfg)
//	size, ok := strategy.CalculateObjectScale(obj, sys)
package viewmode

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/observability"
	"github.com/matzehuels/orrery/pkg/scaling"
)

// Mode identifies a view mode.
type Mode string

const (
	Explorational Mode = "explorational"
	Navigational  Mode = "navigational"
	Profile       Mode = "profile"
	Scientific    Mode = "scientific"
)

// DefaultMode is used for unknown view-mode IDs.
const DefaultMode = Explorational

// Modes lists every view mode.
var Modes = []Mode{Explorational, Navigational, Profile, Scientific}

// descriptions are shown by `orrery modes` and GET /v1/modes.
var descriptions = map[Mode]string{
	Explorational: "Logarithmic sizes relative to Earth, real orbital distances",
	Navigational:  "Large fixed sizes, evenly spaced orbits for quick travel",
	Profile:       "Compact diagram of the focused object and its neighbours",
	Scientific:    "Astronomically scaled sizes and distances",
}

// Description returns a one-line summary of m.
func (m Mode) Description() string { return descriptions[m] }

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := descriptions[m]
	return ok
}

// ParseMode normalizes s to a Mode. The second result is false for unknown
// values.
func ParseMode(s string) (Mode, bool) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	return m, m.Valid()
}

// =============================================================================
// Strategy
// =============================================================================

// Strategy is the per-mode rule set for sizes, orbits, visibility and
// camera framing.
type Strategy interface {
	// Mode returns the strategy's view mode.
	Mode() Mode

	// CalculateObjectScale computes the visual size of obj. It returns false
	// when obj cannot be sized in this mode.
	CalculateObjectScale(obj celestial.Object, sys *System) (scaling.Result, bool)

	// OrbitalBehavior selects how orbit distances are computed.
	OrbitalBehavior(sys *System) OrbitalBehavior

	// DetermineObjectVisibility decides how obj is displayed given the
	// current focus.
	DetermineObjectVisibility(obj celestial.Object, focus Focus) Visibility

	// CalculateCameraPosition frames the camera on target.
	CalculateCameraPosition(target CameraTarget) CameraPosition

	// OnViewModeEnter is called when this strategy becomes active.
	OnViewModeEnter(previous Mode)

	// OnViewModeExit is called when this strategy is replaced.
	OnViewModeExit(next Mode)

	// ValidateSystemCompatibility returns warnings for objects this mode
	// cannot present faithfully.
	ValidateSystemCompatibility(objects []celestial.Object) []string

	sealed()
}

// OrbitMode selects equidistant slots or scaled AU distances.
type OrbitMode string

const (
	Equidistant OrbitMode = "equidistant"
	Scaled      OrbitMode = "scaled"
)

// OrbitalBehavior parameterizes orbit placement for one calculation.
type OrbitalBehavior struct {
	Mode              OrbitMode
	OrbitScaling      float64 // scene units per AU, scaled mode
	BaseSpacing       float64
	SpacingMultiplier float64
	MoonBaseSpacing   float64
	SafetyFactor      float64
}

// Focus identifies the focused object and its direct parent. A zero Focus
// means nothing is focused.
type Focus struct {
	ID       string
	ParentID string
}

// FocusOn builds a Focus for obj.
func FocusOn(obj celestial.Object) Focus {
	return Focus{ID: obj.ID, ParentID: obj.ParentID()}
}

// Visibility describes how an object is displayed.
type Visibility struct {
	ShowObject   bool    `json:"show_object"`
	ShowLabel    bool    `json:"show_label"`
	ShowOrbit    bool    `json:"show_orbit"`
	ShowChildren bool    `json:"show_children"`
	Opacity      float64 `json:"opacity"`
	Priority     int     `json:"priority"` // 0..100
}

// CameraTarget is the object the camera frames.
type CameraTarget struct {
	ID              string
	VisualRadius    float64
	EffectiveRadius float64
}

// CameraPosition is a framed camera.
type CameraPosition struct {
	TargetID           string        `json:"target_id"`
	Distance           float64       `json:"distance"`
	Elevation          float64       `json:"elevation"` // degrees
	Azimuth            float64       `json:"azimuth"`   // degrees
	TransitionDuration time.Duration `json:"transition_duration"`
}

// =============================================================================
// Construction
// =============================================================================

// New constructs the strategy for m. Unknown modes return an error.
func New(m Mode, cfg *config.Config, logger *log.Logger) (Strategy, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	b := base{mode: m, cfg: cfg, logger: logger.With("mode", string(m))}
	switch m {
	case Explorational:
		return &explorational{b}, nil
	case Navigational:
		return &navigational{b}, nil
	case Profile:
		return &profile{b}, nil
	case Scientific:
		return &scientific{b}, nil
	}
	return nil, fmt.Errorf("unknown view mode: %q", m)
}

// Resolve returns the strategy for id. Unknown IDs resolve to DefaultMode
// and log a warning; Resolve never fails.
func Resolve(id string, cfg *config.Config, logger *log.Logger) Strategy {
	m, ok := ParseMode(id)
	if !ok {
		if logger != nil {
			logger.Warn("unknown view mode, using default", "requested", id, "default", string(DefaultMode))
		}
		m = DefaultMode
	}
	s, _ := New(m, cfg, logger)
	return s
}

// =============================================================================
// Shared behavior
// =============================================================================

// base holds what every variant shares. Variants override the methods whose
// rules differ.
type base struct {
	mode   Mode
	cfg    *config.Config
	logger *log.Logger
}

func (b *base) Mode() Mode { return b.mode }

func (b *base) sealed() {}

func (b *base) OnViewModeEnter(previous Mode) {
	b.logger.Debug("entering view mode", "previous", string(previous))
	observability.ViewMode().OnModeEnter(string(b.mode), string(previous))
}

func (b *base) OnViewModeExit(next Mode) {
	b.logger.Debug("leaving view mode", "next", string(next))
	observability.ViewMode().OnModeExit(string(b.mode), string(next))
}

// fixedSize returns the configured fixed radius for c.
func fixedSize(sizes config.ClassSizes, c celestial.Classification) float64 {
	switch c {
	case celestial.Star:
		return sizes.Star
	case celestial.Planet:
		return sizes.Planet
	case celestial.DwarfPlanet:
		return sizes.DwarfPlanet
	case celestial.Moon:
		return sizes.Moon
	case celestial.Asteroid:
		return sizes.Asteroid
	case celestial.Belt:
		return sizes.Belt
	}
	return sizes.Asteroid
}

// classPriority weights display priority by classification.
var classPriority = map[celestial.Classification]int{
	celestial.Star:        100,
	celestial.Planet:      80,
	celestial.DwarfPlanet: 60,
	celestial.Moon:        50,
	celestial.Belt:        40,
	celestial.Asteroid:    30,
}

// weightedVisibility shows everything, weighting priority by classification
// and focus.
func weightedVisibility(obj celestial.Object, focus Focus) Visibility {
	p := classPriority[obj.Classification]
	focused := focus.ID != "" && obj.ID == focus.ID
	if focused {
		p = 100
	} else if focus.ID != "" && (obj.ParentID() == focus.ID || obj.ID == focus.ParentID) {
		p = min(p+10, 100)
	}
	return Visibility{
		ShowObject:   true,
		ShowLabel:    focused || p >= 50,
		ShowOrbit:    !obj.IsRootCandidate(),
		ShowChildren: true,
		Opacity:      0.4 + 0.6*float64(p)/100,
		Priority:     p,
	}
}

// frame computes a camera position at multiplier × target extent.
func (b *base) frame(target CameraTarget, multiplier, elevation float64) CameraPosition {
	extent := max(target.VisualRadius, target.EffectiveRadius)
	return CameraPosition{
		TargetID:           target.ID,
		Distance:           max(extent*multiplier, b.cfg.Camera.MinDistance),
		Elevation:          elevation,
		Azimuth:            b.cfg.Camera.DefaultAzimuth,
		TransitionDuration: b.cfg.Animation.TransitionDuration.Duration,
	}
}

// midMultiplier is halfway between the configured camera multipliers.
func (b *base) midMultiplier() float64 {
	return (b.cfg.Camera.MinDistanceMultiplier + b.cfg.Camera.MaxDistanceMultiplier) / 2
}

// missingRadii lists warnings for objects without a usable radius.
func missingRadii(objects []celestial.Object, consequence string) []string {
	var out []string
	for _, o := range objects {
		if !o.HasRadius() && o.Classification != celestial.Belt {
			out = append(out, fmt.Sprintf("object %s has no radius; %s", o.ID, consequence))
		}
	}
	return out
}

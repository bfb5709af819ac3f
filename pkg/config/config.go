// Package config holds the read-only numeric configuration table consumed by
// the layout engine.
//
// A Config is built once at process start, either from [Default] or from a
// TOML file via [Load], validated, and then passed by reference into every
// service. Nothing in the engine mutates it after construction.
//
// # File Format
//
//	[camera]
//	default_elevation = 30.0
//
//	[orbital]
//	base_spacing = 10.0
//	explorational_scaling = 40.0
//
//	[collision]
//	max_iterations = 10
//
// Keys omitted from the file keep their default values.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/orrery/pkg/errors"
)

// Config is the complete configuration table.
type Config struct {
	Camera      Camera      `toml:"camera" json:"camera"`
	Orbital     Orbital     `toml:"orbital" json:"orbital"`
	Visual      Visual      `toml:"visual" json:"visual"`
	Scaling     Scaling     `toml:"scaling" json:"scaling"`
	Hierarchy   Hierarchy   `toml:"hierarchy" json:"hierarchy"`
	Collision   Collision   `toml:"collision" json:"collision"`
	Performance Performance `toml:"performance" json:"-"`
	Animation   Animation   `toml:"animation" json:"-"`
}

// Camera configures camera framing.
type Camera struct {
	DefaultElevation      float64 `toml:"default_elevation" json:"default_elevation"` // degrees, [0, 90]
	DefaultAzimuth        float64 `toml:"default_azimuth" json:"default_azimuth"`     // degrees
	MinDistanceMultiplier float64 `toml:"min_distance_multiplier" json:"min_distance_multiplier"`
	MaxDistanceMultiplier float64 `toml:"max_distance_multiplier" json:"max_distance_multiplier"`
	MinDistance           float64 `toml:"min_distance" json:"min_distance"`
}

// Orbital configures orbit placement.
type Orbital struct {
	BaseSpacing              float64 `toml:"base_spacing" json:"base_spacing"`
	SpacingMultiplier        float64 `toml:"spacing_multiplier" json:"spacing_multiplier"`
	MoonBaseSpacing          float64 `toml:"moon_base_spacing" json:"moon_base_spacing"`
	ExplorationalScaling     float64 `toml:"explorational_scaling" json:"explorational_scaling"`           // scene units per AU
	DefaultScientificScaling float64 `toml:"default_scientific_scaling" json:"default_scientific_scaling"` // scene units per AU
	BeltWidthFraction        float64 `toml:"belt_width_fraction" json:"belt_width_fraction"`
	BinarySpacing            float64 `toml:"binary_spacing" json:"binary_spacing"`
	BinaryReduction          float64 `toml:"binary_reduction" json:"binary_reduction"`
	MinBinaryDistance        float64 `toml:"min_binary_distance" json:"min_binary_distance"`
}

// ClassSizes holds one fixed visual radius per classification.
type ClassSizes struct {
	Star        float64 `toml:"star" json:"star"`
	Planet      float64 `toml:"planet" json:"planet"`
	DwarfPlanet float64 `toml:"dwarf_planet" json:"dwarf_planet"`
	Moon        float64 `toml:"moon" json:"moon"`
	Asteroid    float64 `toml:"asteroid" json:"asteroid"`
	Belt        float64 `toml:"belt" json:"belt"`
}

// Visual configures visual sizing in the explorational and fixed-size modes.
type Visual struct {
	EarthVisualSize float64 `toml:"earth_visual_size" json:"earth_visual_size"`
	LogBase         float64 `toml:"log_base" json:"log_base"`
	MinVisualSize   float64 `toml:"min_visual_size" json:"min_visual_size"`
	MaxVisualSize   float64 `toml:"max_visual_size" json:"max_visual_size"`

	Fallback     ClassSizes `toml:"fallback" json:"fallback"`
	Navigational ClassSizes `toml:"navigational" json:"navigational"`
	Profile      ClassSizes `toml:"profile" json:"profile"`
}

// Scaling configures the astronomical scaling service.
type Scaling struct {
	Method                string  `toml:"method" json:"method"`
	EarthUnitSize         float64 `toml:"earth_unit_size" json:"earth_unit_size"`
	ExtremeRatioThreshold float64 `toml:"extreme_ratio_threshold" json:"extreme_ratio_threshold"`
	StellarRatioThreshold float64 `toml:"stellar_ratio_threshold" json:"stellar_ratio_threshold"`
	StellarEarthUnitSize  float64 `toml:"stellar_earth_unit_size" json:"stellar_earth_unit_size"`
	MinVisibleSize        float64 `toml:"min_visible_size" json:"min_visible_size"`
	MoonMinVisibleSize    float64 `toml:"moon_min_visible_size" json:"moon_min_visible_size"`
	MaxUsableSize         float64 `toml:"max_usable_size" json:"max_usable_size"`
	UnitsPerAU            float64 `toml:"units_per_au" json:"units_per_au"`
	MinOrbitDistance      float64 `toml:"min_orbit_distance" json:"min_orbit_distance"`
}

// Hierarchy configures parent-child size enforcement.
type Hierarchy struct {
	Enabled               bool    `toml:"enabled" json:"enabled"`
	MinChildToParentRatio float64 `toml:"min_child_to_parent_ratio" json:"min_child_to_parent_ratio"`
	MaxChildToParentRatio float64 `toml:"max_child_to_parent_ratio" json:"max_child_to_parent_ratio"`
}

// Collision configures collision detection and resolution.
type Collision struct {
	Enabled              bool    `toml:"enabled" json:"enabled"`
	TightSafetyFactor    float64 `toml:"tight_safety_factor" json:"tight_safety_factor"`
	GenerousSafetyFactor float64 `toml:"generous_safety_factor" json:"generous_safety_factor"`
	ConvergenceThreshold float64 `toml:"convergence_threshold" json:"convergence_threshold"`
	MaxIterations        int     `toml:"max_iterations" json:"max_iterations"`
}

// Performance configures the layout cache.
type Performance struct {
	CacheSize int      `toml:"cache_size"`
	CacheTTL  Duration `toml:"cache_ttl"`
}

// Animation configures camera transitions.
type Animation struct {
	TransitionDuration Duration `toml:"transition_duration"`
}

// Duration is a time.Duration that decodes from TOML strings such as "750ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Camera: Camera{
			DefaultElevation:      30,
			DefaultAzimuth:        45,
			MinDistanceMultiplier: 2,
			MaxDistanceMultiplier: 12,
			MinDistance:           1,
		},
		Orbital: Orbital{
			BaseSpacing:              10,
			SpacingMultiplier:        1.0,
			MoonBaseSpacing:          2.0,
			ExplorationalScaling:     40,
			DefaultScientificScaling: 100,
			BeltWidthFraction:        0.2,
			BinarySpacing:            6,
			BinaryReduction:          0.5,
			MinBinaryDistance:        5,
		},
		Visual: Visual{
			EarthVisualSize: 1.0,
			LogBase:         2,
			MinVisualSize:   0.1,
			MaxVisualSize:   10,
			Fallback:        ClassSizes{Star: 5, Planet: 1, DwarfPlanet: 0.4, Moon: 0.3, Asteroid: 0.15, Belt: 0.1},
			Navigational:    ClassSizes{Star: 4, Planet: 1.5, DwarfPlanet: 0.8, Moon: 0.6, Asteroid: 0.4, Belt: 0.3},
			Profile:         ClassSizes{Star: 2, Planet: 0.8, DwarfPlanet: 0.5, Moon: 0.4, Asteroid: 0.3, Belt: 0.2},
		},
		Scaling: Scaling{
			Method:                "hybrid",
			EarthUnitSize:         1.0,
			ExtremeRatioThreshold: 1000,
			StellarRatioThreshold: 100,
			StellarEarthUnitSize:  0.5,
			MinVisibleSize:        0.05,
			MoonMinVisibleSize:    0.02,
			MaxUsableSize:         50,
			UnitsPerAU:            100,
			MinOrbitDistance:      2,
		},
		Hierarchy: Hierarchy{
			Enabled:               true,
			MinChildToParentRatio: 0.1,
			MaxChildToParentRatio: 0.8,
		},
		Collision: Collision{
			Enabled:              true,
			TightSafetyFactor:    1.2,
			GenerousSafetyFactor: 2.0,
			ConvergenceThreshold: 0.5,
			MaxIterations:        10,
		},
		Performance: Performance{
			CacheSize: 64,
			CacheTTL:  Duration{time.Hour},
		},
		Animation: Animation{
			TransitionDuration: Duration{750 * time.Millisecond},
		},
	}
}

// Load reads a TOML file over the defaults and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return Parse(data, cfg)
}

// Parse decodes TOML data over base (Default() when nil) and validates.
func Parse(data []byte, base *Config) (*Config, error) {
	cfg := base
	if cfg == nil {
		cfg = Default()
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every numeric bound. It returns the first violation as an
// ErrCodeInvalidConfig error.
func (c *Config) Validate() error {
	checks := []error{
		errors.ValidateWithin("camera.default_elevation", c.Camera.DefaultElevation, 0, 90),
		errors.ValidateRange("camera.distance_multiplier", c.Camera.MinDistanceMultiplier, c.Camera.MaxDistanceMultiplier),
		errors.ValidatePositive("camera.min_distance", c.Camera.MinDistance),

		errors.ValidatePositive("orbital.base_spacing", c.Orbital.BaseSpacing),
		errors.ValidatePositive("orbital.spacing_multiplier", c.Orbital.SpacingMultiplier),
		errors.ValidatePositive("orbital.moon_base_spacing", c.Orbital.MoonBaseSpacing),
		errors.ValidatePositive("orbital.explorational_scaling", c.Orbital.ExplorationalScaling),
		errors.ValidatePositive("orbital.default_scientific_scaling", c.Orbital.DefaultScientificScaling),
		errors.ValidateWithin("orbital.belt_width_fraction", c.Orbital.BeltWidthFraction, 0, 2),
		errors.ValidatePositive("orbital.binary_spacing", c.Orbital.BinarySpacing),
		errors.ValidatePositive("orbital.binary_reduction", c.Orbital.BinaryReduction),
		errors.ValidatePositive("orbital.min_binary_distance", c.Orbital.MinBinaryDistance),

		errors.ValidatePositive("visual.earth_visual_size", c.Visual.EarthVisualSize),
		errors.ValidateAtLeast("visual.log_base", c.Visual.LogBase, 1.0001),
		errors.ValidatePositive("visual.min_visual_size", c.Visual.MinVisualSize),
		errors.ValidateRange("visual.visual_size", c.Visual.MinVisualSize, c.Visual.MaxVisualSize),
		c.Visual.Fallback.validate("visual.fallback"),
		c.Visual.Navigational.validate("visual.navigational"),
		c.Visual.Profile.validate("visual.profile"),

		validateMethod(c.Scaling.Method),
		errors.ValidatePositive("scaling.earth_unit_size", c.Scaling.EarthUnitSize),
		errors.ValidateAtLeast("scaling.extreme_ratio_threshold", c.Scaling.ExtremeRatioThreshold, 1),
		errors.ValidateAtLeast("scaling.stellar_ratio_threshold", c.Scaling.StellarRatioThreshold, 1),
		errors.ValidatePositive("scaling.stellar_earth_unit_size", c.Scaling.StellarEarthUnitSize),
		errors.ValidatePositive("scaling.min_visible_size", c.Scaling.MinVisibleSize),
		errors.ValidatePositive("scaling.moon_min_visible_size", c.Scaling.MoonMinVisibleSize),
		errors.ValidateRange("scaling.usable_size", c.Scaling.MinVisibleSize, c.Scaling.MaxUsableSize),
		errors.ValidatePositive("scaling.units_per_au", c.Scaling.UnitsPerAU),
		errors.ValidateAtLeast("scaling.min_orbit_distance", c.Scaling.MinOrbitDistance, 0),

		errors.ValidatePositive("hierarchy.min_child_to_parent_ratio", c.Hierarchy.MinChildToParentRatio),
		errors.ValidateRange("hierarchy.child_to_parent_ratio", c.Hierarchy.MinChildToParentRatio, c.Hierarchy.MaxChildToParentRatio),

		errors.ValidateAtLeast("collision.tight_safety_factor", c.Collision.TightSafetyFactor, 1),
		errors.ValidateAtLeast("collision.generous_safety_factor", c.Collision.GenerousSafetyFactor, 1),
		errors.ValidatePositive("collision.convergence_threshold", c.Collision.ConvergenceThreshold),
		errors.ValidateAtLeast("collision.max_iterations", float64(c.Collision.MaxIterations), 1),

		errors.ValidateAtLeast("performance.cache_size", float64(c.Performance.CacheSize), 1),
		errors.ValidateAtLeast("performance.cache_ttl", c.Performance.CacheTTL.Seconds(), 0),
		errors.ValidateAtLeast("animation.transition_duration", c.Animation.TransitionDuration.Seconds(), 0),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

// Fingerprint returns a stable hash of every setting that affects layout
// results. Performance and animation settings are excluded.
func (c *Config) Fingerprint() string {
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}

func (s ClassSizes) validate(prefix string) error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"star", s.Star}, {"planet", s.Planet}, {"dwarf_planet", s.DwarfPlanet},
		{"moon", s.Moon}, {"asteroid", s.Asteroid}, {"belt", s.Belt},
	} {
		if err := errors.ValidatePositive(prefix+"."+f.name, f.v); err != nil {
			return err
		}
	}
	return nil
}

// ScalingMethods lists the accepted values of Scaling.Method.
var ScalingMethods = []string{"proportional", "logarithmic", "hybrid"}

func validateMethod(m string) error {
	for _, k := range ScalingMethods {
		if m == k {
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidConfig, "scaling.method must be one of %v, got %q", ScalingMethods, m)
}

// String renders the configuration as TOML.
func (c *Config) String() string {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return sb.String()
}

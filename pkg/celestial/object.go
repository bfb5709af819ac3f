// Package celestial defines the input records of the layout engine: the
// objects of a hierarchical orbital system and their orbits.
//
// Objects are immutable inputs. The engine never mutates them; every
// derived value (visual radius, orbit distance, hierarchy depth) lives in
// the output types of other packages.
//
// An object without an orbit, or with an orbit whose ParentID is empty, is a
// root candidate. Binary and multi-star systems use the synthetic parent ID
// [Barycenter] for stars that orbit a shared center of mass.
package celestial

import (
	"math"
	"strings"
)

// Reference constants.
const (
	AUKm          = 149597870.7 // astronomical unit in kilometers
	EarthRadiusKm = 6371.0      // mean Earth radius
	SunRadiusKm   = 695700.0    // nominal solar radius

	// Barycenter is the synthetic parent ID for co-orbiting stars.
	Barycenter = "barycenter"
)

// Classification is the kind of a celestial object.
type Classification string

const (
	Star        Classification = "star"
	Planet      Classification = "planet"
	DwarfPlanet Classification = "dwarf_planet"
	Moon        Classification = "moon"
	Asteroid    Classification = "asteroid"
	Belt        Classification = "belt"
)

// Classifications lists every known classification in display order.
var Classifications = []Classification{Star, Planet, DwarfPlanet, Moon, Asteroid, Belt}

// Valid reports whether c is one of the known classifications.
func (c Classification) Valid() bool {
	for _, k := range Classifications {
		if c == k {
			return true
		}
	}
	return false
}

// ParseClassification normalizes s ("Dwarf Planet", "dwarf-planet") to a
// Classification. The second result is false for unknown values.
func ParseClassification(s string) (Classification, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	c := Classification(norm)
	return c, c.Valid()
}

// Properties holds physical properties.
type Properties struct {
	RadiusKm float64 `json:"radius_km" toml:"radius_km" yaml:"radius_km" bson:"radius_km"`
	Mass     float64 `json:"mass,omitempty" toml:"mass" yaml:"mass,omitempty" bson:"mass,omitempty"` // kg
}

// Orbit describes how an object orbits its parent.
type Orbit struct {
	ParentID        string  `json:"parent_id" toml:"parent_id" yaml:"parent_id" bson:"parent_id"`
	SemiMajorAxisAU float64 `json:"semi_major_axis_au" toml:"semi_major_axis_au" yaml:"semi_major_axis_au" bson:"semi_major_axis_au"`
	Eccentricity    float64 `json:"eccentricity,omitempty" toml:"eccentricity" yaml:"eccentricity,omitempty" bson:"eccentricity,omitempty"`
	Inclination     float64 `json:"inclination,omitempty" toml:"inclination" yaml:"inclination,omitempty" bson:"inclination,omitempty"`             // degrees
	OrbitalPeriod   float64 `json:"orbital_period,omitempty" toml:"orbital_period" yaml:"orbital_period,omitempty" bson:"orbital_period,omitempty"` // days
}

// Object is a single body (or belt) of an orbital system.
type Object struct {
	ID             string         `json:"id" toml:"id" yaml:"id" bson:"id"`
	Name           string         `json:"name,omitempty" toml:"name" yaml:"name,omitempty" bson:"name,omitempty"`
	Classification Classification `json:"classification" toml:"classification" yaml:"classification" bson:"classification"`
	Properties     Properties     `json:"properties" toml:"properties" yaml:"properties" bson:"properties"`
	Orbit          *Orbit         `json:"orbit,omitempty" toml:"orbit" yaml:"orbit,omitempty" bson:"orbit,omitempty"`
}

// DisplayName returns Name if set, otherwise ID.
func (o Object) DisplayName() string {
	if o.Name != "" {
		return o.Name
	}
	return o.ID
}

// ParentID returns the orbit's parent ID, or "" for objects without an orbit.
func (o Object) ParentID() string {
	if o.Orbit == nil {
		return ""
	}
	return o.Orbit.ParentID
}

// IsRootCandidate reports whether o has no orbit or an orbit without a parent.
func (o Object) IsRootCandidate() bool {
	return o.ParentID() == ""
}

// OrbitsBarycenter reports whether o orbits the synthetic barycenter parent.
func (o Object) OrbitsBarycenter() bool {
	return o.ParentID() == Barycenter
}

// HasRadius reports whether o has a finite, positive radius.
func (o Object) HasRadius() bool {
	return usable(o.Properties.RadiusKm)
}

// HasSemiMajorAxis reports whether o has a finite, positive semi-major axis.
func (o Object) HasSemiMajorAxis() bool {
	return usable(o.SemiMajorAxis())
}

// usable rejects zero, negative, NaN and infinite values.
func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// SemiMajorAxis returns the semi-major axis in AU, or 0 without an orbit.
func (o Object) SemiMajorAxis() float64 {
	if o.Orbit == nil {
		return 0
	}
	return o.Orbit.SemiMajorAxisAU
}

// IsEarthLike reports whether o can serve as the Earth reference for
// relative scaling: the object with ID "earth", or a planet within 20% of
// Earth's radius. Either way o needs a usable radius.
func (o Object) IsEarthLike() bool {
	if !o.HasRadius() {
		return false
	}
	if strings.EqualFold(o.ID, "earth") {
		return true
	}
	if o.Classification != Planet {
		return false
	}
	return math.Abs(o.Properties.RadiusKm/EarthRadiusKm-1) <= 0.2
}

// FindEarthReference returns the best Earth reference in objects: an object
// with ID "earth" wins over any other Earth-like planet. Returns nil when no
// reference exists.
func FindEarthReference(objects []Object) *Object {
	var fallback *Object
	for i := range objects {
		o := &objects[i]
		if strings.EqualFold(o.ID, "earth") && o.HasRadius() {
			return o
		}
		if fallback == nil && o.IsEarthLike() {
			fallback = o
		}
	}
	return fallback
}

// Index maps object IDs to positions in objects. Later duplicates are ignored.
func Index(objects []Object) map[string]int {
	idx := make(map[string]int, len(objects))
	for i, o := range objects {
		if _, ok := idx[o.ID]; !ok {
			idx[o.ID] = i
		}
	}
	return idx
}

// Composition summarizes the classifications present in a system.
type Composition struct {
	Stars, Planets, Moons, Belts, Others int

	// MinRadiusKm and MaxRadiusKm cover objects with a positive radius.
	MinRadiusKm, MaxRadiusKm float64
}

// HasStars reports whether at least one star is present.
func (c Composition) HasStars() bool { return c.Stars > 0 }

// HasMoons reports whether at least one moon is present.
func (c Composition) HasMoons() bool { return c.Moons > 0 }

// SizeRange returns MaxRadiusKm/MinRadiusKm, or 1 if unknown.
func (c Composition) SizeRange() float64 {
	if c.MinRadiusKm <= 0 || c.MaxRadiusKm <= 0 {
		return 1
	}
	return c.MaxRadiusKm / c.MinRadiusKm
}

// Compose computes the Composition of objects.
func Compose(objects []Object) Composition {
	var c Composition
	for _, o := range objects {
		switch o.Classification {
		case Star:
			c.Stars++
		case Planet, DwarfPlanet:
			c.Planets++
		case Moon:
			c.Moons++
		case Belt:
			c.Belts++
		default:
			c.Others++
		}
		if !o.HasRadius() {
			continue
		}
		r := o.Properties.RadiusKm
		if c.MinRadiusKm == 0 || r < c.MinRadiusKm {
			c.MinRadiusKm = r
		}
		if r > c.MaxRadiusKm {
			c.MaxRadiusKm = r
		}
	}
	return c
}

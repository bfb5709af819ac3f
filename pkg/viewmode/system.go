package viewmode

import (
	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/scaling"
)

// System is the per-calculation context shared by every strategy call of
// one layout run. It is built once from the object list and never mutated.
type System struct {
	Objects     []celestial.Object
	Index       map[string]int
	EarthRef    *celestial.Object
	Composition celestial.Composition
	Config      *config.Config

	// Scaler uses the configured scaling table; Optimal uses the table
	// derived from this system's composition.
	Scaler  *scaling.Service
	Optimal *scaling.Service
}

// NewSystem builds the calculation context for objects.
func NewSystem(objects []celestial.Object, cfg *config.Config) *System {
	if cfg == nil {
		cfg = config.Default()
	}
	scaler := scaling.New(cfg.Scaling)
	return &System{
		Objects:     objects,
		Index:       celestial.Index(objects),
		EarthRef:    celestial.FindEarthReference(objects),
		Composition: celestial.Compose(objects),
		Config:      cfg,
		Scaler:      scaler,
		Optimal:     scaler.Optimal(objects),
	}
}

// Object returns the object with id.
func (s *System) Object(id string) (celestial.Object, bool) {
	i, ok := s.Index[id]
	if !ok {
		return celestial.Object{}, false
	}
	return s.Objects[i], true
}

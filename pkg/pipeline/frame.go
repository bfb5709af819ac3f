package pipeline

import (
	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// View is what the presentation layer needs on top of a layout: where the
// camera goes and how each object is displayed.
type View struct {
	Mode       string                         `json:"mode"`
	FocusID    string                         `json:"focus_id,omitempty"`
	Camera     viewmode.CameraPosition        `json:"camera"`
	Visibility map[string]viewmode.Visibility `json:"visibility"`
}

// Frame computes the camera and per-object visibility for l. An empty
// focusID frames the whole system around its root; an ID missing from the
// layout is a NOT_FOUND error.
func Frame(l *layout.SystemLayout, objects []celestial.Object, strategy viewmode.Strategy, focusID string) (*View, error) {
	idx := celestial.Index(objects)

	var focus viewmode.Focus
	var target viewmode.CameraTarget
	if focusID == "" {
		root := l.Results[l.Metadata.RootID]
		target = viewmode.CameraTarget{
			ID:              l.Metadata.RootID,
			VisualRadius:    root.VisualRadius,
			EffectiveRadius: max(l.Bounds.Max, root.EffectiveRadius),
		}
	} else {
		r, ok := l.Results[focusID]
		i, known := idx[focusID]
		if !ok || !known {
			return nil, errors.New(errors.ErrCodeNotFound, "object %s is not part of the layout", focusID)
		}
		focus = viewmode.FocusOn(objects[i])
		target = viewmode.CameraTarget{ID: focusID, VisualRadius: r.VisualRadius, EffectiveRadius: r.EffectiveRadius}
	}

	v := &View{
		Mode:       string(strategy.Mode()),
		FocusID:    focusID,
		Camera:     strategy.CalculateCameraPosition(target),
		Visibility: make(map[string]viewmode.Visibility, len(l.Results)),
	}
	for id := range l.Results {
		if i, ok := idx[id]; ok {
			v.Visibility[id] = strategy.DetermineObjectVisibility(objects[i], focus)
		}
	}
	return v, nil
}

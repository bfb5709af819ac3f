package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/hierarchy"
	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/scaling"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// Format constants for rendered outputs.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, json)", format)
	}
	return nil
}

// RenderTree renders the object hierarchy as DOT or SVG. With a strategy,
// node labels carry each object's enforced visual size in that mode.
func (s *Service) RenderTree(ctx context.Context, objects []celestial.Object, strategy viewmode.Strategy, format string) ([]byte, error) {
	if format != FormatDOT && format != FormatSVG {
		return nil, fmt.Errorf("invalid tree format: %q (must be one of: dot, svg)", format)
	}
	tree, err := hierarchy.Build(objects, s.logger)
	if err != nil {
		return nil, err
	}

	var sizes map[string]scaling.Result
	if strategy != nil {
		sizes, _ = s.sizer.Calculate(strategy, viewmode.NewSystem(objects, s.cfg))
		if s.cfg.Hierarchy.Enabled {
			sizes = hierarchy.Enforce(tree, sizes, s.cfg.Hierarchy)
		}
	}

	dot := tree.ToDOT(sizes)
	if format == FormatDOT {
		return []byte(dot), nil
	}
	svg, err := hierarchy.RenderSVG(ctx, dot)
	if err != nil {
		return nil, fmt.Errorf("render svg: %w", err)
	}
	return svg, nil
}

// RenderLayout serializes a layout. Only JSON is supported.
func RenderLayout(l *layout.SystemLayout, format string) ([]byte, error) {
	if format != FormatJSON {
		return nil, fmt.Errorf("invalid layout format: %q (must be json)", format)
	}
	return layout.Marshal(l)
}

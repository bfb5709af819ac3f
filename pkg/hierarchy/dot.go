package hierarchy

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/orrery/pkg/celestial"
	"github.com/matzehuels/orrery/pkg/scaling"
)

var classFill = map[celestial.Classification]string{
	celestial.Star:        "gold",
	celestial.Planet:      "lightskyblue",
	celestial.DwarfPlanet: "lightsteelblue",
	celestial.Moon:        "lightgrey",
	celestial.Asteroid:    "tan",
	celestial.Belt:        "wheat",
}

// ToDOT converts the tree to Graphviz DOT. When sizes is non-nil, labels
// include each object's visual radius and scaling method. Detached nodes are
// drawn with dashed outlines.
func (t *Tree) ToDOT(sizes map[string]scaling.Result) string {
	var buf bytes.Buffer
	buf.WriteString("digraph orrery {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=ellipse, style=filled, fillcolor=white, fontsize=14];\n")
	buf.WriteString("\n")

	for _, n := range t.nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Object.ID, strings.Join(nodeAttrs(n, sizes), ", "))
	}

	buf.WriteString("\n")
	for _, n := range t.nodes {
		for _, c := range n.Children {
			fmt.Fprintf(&buf, "  %q -> %q;\n", n.Object.ID, t.nodes[c].Object.ID)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n Node, sizes map[string]scaling.Result) []string {
	if n.Synthetic {
		return []string{`label=""`, "shape=point", "width=0.15"}
	}
	label := n.Object.DisplayName()
	if n.Object.Classification != "" {
		label += "\n" + string(n.Object.Classification)
	}
	if r, ok := sizes[n.Object.ID]; ok {
		label += fmt.Sprintf("\nr=%.3g (%s)", r.VisualRadius, r.ScalingMethod)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if fill, ok := classFill[n.Object.Classification]; ok {
		attrs = append(attrs, "fillcolor="+fill)
	}
	if n.IsRoot {
		attrs = append(attrs, "penwidth=2")
	}
	if n.Depth < 0 {
		attrs = append(attrs, `style="filled,dashed"`)
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

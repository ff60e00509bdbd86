package render

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/io"
)

const arrowMarker = `  <defs>
    <marker id="arrow" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="8" markerHeight="8" orient="auto-start-reverse">
      <path d="M 0 0 L 10 5 L 0 10 z" fill="#333"/>
    </marker>
  </defs>
`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	labels   bool
	fontSize float64
	rounded  float64
}

// WithoutLabels omits node IDs and edge names.
func WithoutLabels() SVGOption { return func(r *svgRenderer) { r.labels = false } }

// WithFontSize sets the label font size in user units (default 12).
func WithFontSize(s float64) SVGOption { return func(r *svgRenderer) { r.fontSize = s } }

// RenderSVG draws a computed layout directly as SVG: nodes become boxes,
// compound nodes dashed boxes behind their children and edges polylines
// through their bend points. Unlike the Graphviz path it needs no external
// engine, so its output is exactly the computed geometry.
func RenderSVG(l *io.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{labels: true, fontSize: 12, rounded: 4}
	for _, opt := range opts {
		opt(&r)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f">`+"\n",
		num(l.Width), num(l.Height), l.Width, l.Height)
	buf.WriteString(arrowMarker)
	fmt.Fprintf(&buf, `  <g font-family="sans-serif" font-size="%s">`+"\n", num(r.fontSize))

	compound := parents(l)
	for _, n := range byDepth(l, compound) {
		r.renderNode(&buf, n, compound[n.ID])
	}
	for _, e := range l.Edges {
		r.renderEdge(&buf, e)
	}

	buf.WriteString("  </g>\n</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) renderNode(buf *bytes.Buffer, n io.LayoutNode, compound bool) {
	x, y := n.X-n.Width/2, n.Y-n.Height/2
	style := `fill="white" stroke="#333"`
	if compound {
		style = `fill="none" stroke="#666" stroke-dasharray="4 3"`
	}
	fmt.Fprintf(buf, `    <rect id="node-%s" x="%s" y="%s" width="%s" height="%s" rx="%s" %s/>`+"\n",
		html.EscapeString(n.ID), num(x), num(y), num(n.Width), num(n.Height), num(r.rounded), style)
	if !r.labels {
		return
	}
	ty, baseline := n.Y, "central"
	if compound {
		ty, baseline = y+r.fontSize, "auto"
	}
	fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="middle" dominant-baseline="%s">%s</text>`+"\n",
		num(n.X), num(ty), baseline, html.EscapeString(n.ID))
}

func (r *svgRenderer) renderEdge(buf *bytes.Buffer, e io.LayoutEdge) {
	if len(e.Points) < 2 {
		return
	}
	fmt.Fprintf(buf, `    <polyline points="%s" fill="none" stroke="#333" marker-end="url(#arrow)"/>`+"\n", polyline(e.Points))
	if r.labels && e.Name != "" && e.X != nil && e.Y != nil {
		fmt.Fprintf(buf, `    <text x="%s" y="%s" text-anchor="middle" dominant-baseline="central" fill="#555">%s</text>`+"\n",
			num(*e.X), num(*e.Y), html.EscapeString(e.Name))
	}
}

func polyline(points []graph.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}

// byDepth orders nodes so that compound nodes come before their contents
// and leaves keep the sorted order of the layout.
func byDepth(l *io.Layout, compound map[string]bool) []io.LayoutNode {
	depth := make(map[string]int, len(l.Nodes))
	for _, n := range l.Nodes {
		d := 0
		// The step bound stops on a malformed parent cycle.
		for p := n.Parent; p != "" && d < len(l.Nodes); d++ {
			pn := l.Node(p)
			if pn == nil {
				break
			}
			p = pn.Parent
		}
		depth[n.ID] = d
	}

	var out, leaves []io.LayoutNode
	maxDepth := 0
	for _, d := range depth {
		maxDepth = max(maxDepth, d)
	}
	for d := 0; d <= maxDepth; d++ {
		for _, n := range l.Nodes {
			if compound[n.ID] && depth[n.ID] == d {
				out = append(out, n)
			}
		}
	}
	for _, n := range l.Nodes {
		if !compound[n.ID] {
			leaves = append(leaves, n)
		}
	}
	return append(out, leaves...)
}

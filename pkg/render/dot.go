package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/io"
)

// pinnedLayout is neato -n2: Graphviz keeps the node positions and edge
// splines found in the input instead of computing its own.
const pinnedLayout = graphviz.Layout("nop2")

// arrowLen is the length Graphviz reserves for an arrowhead, in points.
const arrowLen = 10.0

// ToDOT converts a computed layout to Graphviz DOT with every node and edge
// pinned to its computed geometry. Layout units are treated as points, and y
// is flipped because Graphviz puts the origin at the bottom left.
//
// Compound nodes are emitted first as dashed boxes so that their children
// are drawn on top.
func ToDOT(l *io.Layout) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  bb=\"0,0,%s,%s\";\n", num(l.Width), num(l.Height))
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fixedsize=true, fontsize=12];\n")
	buf.WriteString("  edge [arrowsize=0.8];\n")
	buf.WriteString("\n")

	flip := func(y float64) float64 { return l.Height - y }

	compound := parents(l)
	for _, pass := range []bool{true, false} {
		for _, n := range l.Nodes {
			if compound[n.ID] != pass {
				continue
			}
			attrs := []string{
				fmt.Sprintf("pos=\"%s,%s!\"", num(n.X), num(flip(n.Y))),
				fmt.Sprintf("width=%s", num(n.Width/72)),
				fmt.Sprintf("height=%s", num(n.Height/72)),
			}
			if pass {
				attrs = append(attrs, "style=\"rounded,dashed\"", "labelloc=t", "color=grey40")
			}
			fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
		}
	}

	buf.WriteString("\n")
	for _, e := range l.Edges {
		attrs := []string{}
		if spline := toSpline(e.Points, flip); spline != "" {
			attrs = append(attrs, fmt.Sprintf("pos=%q", spline))
		}
		if e.Name != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", e.Name))
			if e.X != nil && e.Y != nil {
				attrs = append(attrs, fmt.Sprintf("lp=\"%s,%s\"", num(*e.X), num(flip(*e.Y))))
			}
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// toSpline turns a polyline into a Graphviz "e,x,y p0 p1 ..." spline: every
// segment becomes a straight cubic Bézier and the last one stops short of
// the endpoint to leave room for the arrowhead.
func toSpline(points []graph.Point, flip func(float64) float64) string {
	if len(points) < 2 {
		return ""
	}
	pts := make([]graph.Point, len(points))
	copy(pts, points)
	end := pts[len(pts)-1]
	prev := pts[len(pts)-2]
	if d := math.Hypot(end.X-prev.X, end.Y-prev.Y); d > 0 {
		t := math.Min(arrowLen, d/2) / d
		pts[len(pts)-1] = graph.Point{X: end.X - (end.X-prev.X)*t, Y: end.Y - (end.Y-prev.Y)*t}
	}

	pt := func(p graph.Point) string { return num(p.X) + "," + num(flip(p.Y)) }
	parts := []string{"e," + pt(end), pt(pts[0])}
	for i := 1; i < len(pts); i++ {
		parts = append(parts, pt(pts[i-1]), pt(pts[i]), pt(pts[i]))
	}
	return strings.Join(parts, " ")
}

func parents(l *io.Layout) map[string]bool {
	m := make(map[string]bool)
	for _, n := range l.Nodes {
		if n.Parent != "" {
			m[n.Parent] = true
		}
	}
	return m
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// RenderGraphviz renders DOT produced by [ToDOT] with Graphviz in the given
// format (svg or png).
func RenderGraphviz(ctx context.Context, dot string, format string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(pinnedLayout)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse DOT")
	}
	defer g.Close()

	var gvFormat graphviz.Format
	switch format {
	case FormatSVG:
		gvFormat = graphviz.SVG
	case FormatPNG:
		gvFormat = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "graphviz cannot render %q", format)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if gvFormat == graphviz.SVG {
		return normalizeViewBox(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz svg tag, whose size is given in pt,
// with one sized in user units so the drawing scales in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

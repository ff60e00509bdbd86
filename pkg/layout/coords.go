package layout

import (
	"math"
	"slices"

	"github.com/matzehuels/strata/pkg/graph"
)

func horizontal(g *graph.Graph) bool {
	rd := g.Label().RankDir
	return rd == graph.RankDirLR || rd == graph.RankDirRL
}

// adjustCoordinateSystem swaps width and height for left-right layouts, so
// the positioning phase can always work top to bottom.
func adjustCoordinateSystem(g *graph.Graph) {
	if horizontal(g) {
		swapWidthHeight(g)
	}
}

// undoCoordinateSystem maps top-to-bottom coordinates onto the requested
// rank direction.
func undoCoordinateSystem(g *graph.Graph) {
	rd := g.Label().RankDir
	if rd == graph.RankDirBT || rd == graph.RankDirRL {
		reverseY(g)
	}
	if horizontal(g) {
		swapXY(g)
		swapWidthHeight(g)
	}
}

func swapWidthHeight(g *graph.Graph) {
	for _, v := range g.Nodes() {
		n := g.Node(v)
		n.Width, n.Height = n.Height, n.Width
	}
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		l.Width, l.Height = l.Height, l.Width
	}
}

func reverseY(g *graph.Graph) {
	for _, v := range g.Nodes() {
		n := g.Node(v)
		n.Y = -n.Y
	}
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		for i := range l.Points {
			l.Points[i].Y = -l.Points[i].Y
		}
		if l.Placed {
			l.Y = -l.Y
		}
	}
}

func swapXY(g *graph.Graph) {
	for _, v := range g.Nodes() {
		n := g.Node(v)
		n.X, n.Y = n.Y, n.X
	}
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		for i := range l.Points {
			p := &l.Points[i]
			p.X, p.Y = p.Y, p.X
		}
		if l.Placed {
			l.X, l.Y = l.Y, l.X
		}
	}
}

// translateGraph shifts the drawing so its bounding box, including placed
// edge labels, starts at (marginx, marginy), and records the canvas size.
func translateGraph(g *graph.Graph) {
	gl := g.Label()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	extend := func(x, y, w, h float64) {
		minX = min(minX, x-w/2)
		maxX = max(maxX, x+w/2)
		minY = min(minY, y-h/2)
		maxY = max(maxY, y+h/2)
	}
	for _, v := range g.Nodes() {
		n := g.Node(v)
		extend(n.X, n.Y, n.Width, n.Height)
	}
	for _, e := range g.Edges() {
		if l := g.EdgeByKey(e); l.Placed {
			extend(l.X, l.Y, l.Width, l.Height)
		}
	}
	if math.IsInf(minX, 1) {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}
	minX -= gl.MarginX
	minY -= gl.MarginY

	for _, v := range g.Nodes() {
		n := g.Node(v)
		n.X -= minX
		n.Y -= minY
	}
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		for i := range l.Points {
			l.Points[i].X -= minX
			l.Points[i].Y -= minY
		}
		if l.Placed {
			l.X -= minX
			l.Y -= minY
		}
	}
	gl.Width = maxX - minX + gl.MarginX
	gl.Height = maxY - minY + gl.MarginY
}

// assignNodeIntersects clips every edge at the boundaries of its endpoint
// boxes: the first point lies on the tail's border, the last on the head's.
func assignNodeIntersects(g *graph.Graph) {
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		v, w := g.Node(e.V), g.Node(e.W)
		var p1, p2 graph.Point
		if len(l.Points) == 0 {
			p1 = graph.Point{X: w.X, Y: w.Y}
			p2 = graph.Point{X: v.X, Y: v.Y}
		} else {
			p1 = l.Points[0]
			p2 = l.Points[len(l.Points)-1]
		}
		points := make([]graph.Point, 0, len(l.Points)+2)
		points = append(points, intersectRect(v, p1))
		points = append(points, l.Points...)
		points = append(points, intersectRect(w, p2))
		l.Points = points
	}
}

// intersectRect returns the point where the segment from the center of n
// towards p leaves the box of n. A p at the center yields the center.
func intersectRect(n *graph.NodeLabel, p graph.Point) graph.Point {
	dx, dy := p.X-n.X, p.Y-n.Y
	w, h := n.Width/2, n.Height/2
	if dx == 0 && dy == 0 {
		return graph.Point{X: n.X, Y: n.Y}
	}
	var sx, sy float64
	if dx == 0 || math.Abs(dy)*w > math.Abs(dx)*h {
		if dy < 0 {
			h = -h
		}
		sx = h * dx / dy
		sy = h
	} else {
		if dx < 0 {
			w = -w
		}
		sx = w
		sy = w * dy / dx
	}
	return graph.Point{X: n.X + sx, Y: n.Y + sy}
}

func reversePointsForReversedEdges(g *graph.Graph) {
	for _, e := range g.Edges() {
		if l := g.EdgeByKey(e); l.Reversed {
			slices.Reverse(l.Points)
		}
	}
}

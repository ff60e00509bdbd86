package layout

import (
	"bytes"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
)

func newInput() *graph.Graph {
	return graph.New(graph.Options{Multigraph: true, Compound: true})
}

func box(w, h float64) *graph.NodeLabel { return &graph.NodeLabel{Width: w, Height: h} }

func mustRun(t *testing.T, g *graph.Graph, opts ...Option) {
	t.Helper()
	if err := Run(g, opts...); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestRunTwoNodes(t *testing.T) {
	g := newInput()
	g.SetNode("a", box(50, 100))
	g.SetNode("b", box(50, 100))
	g.SetEdge("a", "b", &graph.EdgeLabel{Weight: 1, Minlen: 1})
	mustRun(t, g)

	a, b := g.Node("a"), g.Node("b")
	if a.Rank != 0 || b.Rank != 1 {
		t.Errorf("ranks a=%d b=%d, want 0 and 1", a.Rank, b.Rank)
	}
	if !near(a.X, 25) || !near(a.Y, 50) {
		t.Errorf("a = (%v, %v), want (25, 50)", a.X, a.Y)
	}
	if !near(b.X, 25) || !near(b.Y, 200) {
		t.Errorf("b = (%v, %v), want (25, 200)", b.X, b.Y)
	}
	if w, h := g.Label().Width, g.Label().Height; !near(w, 50) || !near(h, 250) {
		t.Errorf("canvas = %vx%v, want 50x250", w, h)
	}

	pts := g.Edge("a", "b").Points
	if len(pts) != 3 {
		t.Fatalf("points = %v, want 3", pts)
	}
	if first := pts[0]; !near(first.X, 25) || !near(first.Y, 100) {
		t.Errorf("first point = %v, want bottom of a", first)
	}
	if last := pts[len(pts)-1]; !near(last.X, 25) || !near(last.Y, 150) {
		t.Errorf("last point = %v, want top of b", last)
	}
	// The middle point is the dummy on the rank between a and b.
	if mid := pts[1]; !near(mid.X, 25) || !near(mid.Y, 125) {
		t.Errorf("middle point = %v, want (25, 125) on the straight edge", mid)
	}
}

func TestRunRankDir(t *testing.T) {
	tests := []struct {
		dir   graph.RankDir
		check func(a, b *graph.NodeLabel) bool
	}{
		{graph.RankDirTB, func(a, b *graph.NodeLabel) bool { return b.Y > a.Y && near(a.X, b.X) }},
		{graph.RankDirBT, func(a, b *graph.NodeLabel) bool { return b.Y < a.Y && near(a.X, b.X) }},
		{graph.RankDirLR, func(a, b *graph.NodeLabel) bool { return b.X > a.X && near(a.Y, b.Y) }},
		{graph.RankDirRL, func(a, b *graph.NodeLabel) bool { return b.X < a.X && near(a.Y, b.Y) }},
		{"LR", func(a, b *graph.NodeLabel) bool { return b.X > a.X && near(a.Y, b.Y) }},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			g := newInput()
			g.Label().RankDir = tt.dir
			g.SetNode("a", box(50, 100))
			g.SetNode("b", box(50, 100))
			g.SetEdge("a", "b", nil)
			mustRun(t, g)

			a, b := g.Node("a"), g.Node("b")
			if !tt.check(a, b) {
				t.Errorf("a = (%v, %v), b = (%v, %v)", a.X, a.Y, b.X, b.Y)
			}
			// Node sizes are reported in the caller's orientation.
			if a.Width != 50 || a.Height != 100 {
				t.Errorf("a size = %vx%v, want 50x100", a.Width, a.Height)
			}
			checkInsideCanvas(t, g)
		})
	}
}

func TestRunLeftRightCoordinates(t *testing.T) {
	g := newInput()
	g.Label().RankDir = graph.RankDirLR
	g.SetNode("a", box(50, 100))
	g.SetNode("b", box(50, 100))
	g.SetEdge("a", "b", nil)
	mustRun(t, g)

	a, b := g.Node("a"), g.Node("b")
	if !near(a.X, 25) || !near(a.Y, 50) || !near(b.X, 125) || !near(b.Y, 50) {
		t.Errorf("a = (%v, %v), b = (%v, %v), want (25, 50) and (125, 50)", a.X, a.Y, b.X, b.Y)
	}
	if w, h := g.Label().Width, g.Label().Height; !near(w, 150) || !near(h, 100) {
		t.Errorf("canvas = %vx%v, want 150x100", w, h)
	}
}

func TestRunDiamond(t *testing.T) {
	g := newInput()
	for _, v := range []string{"a", "b", "c", "d"} {
		g.SetNode(v, box(40, 40))
	}
	g.SetEdge("a", "b", nil)
	g.SetEdge("a", "c", nil)
	g.SetEdge("b", "d", nil)
	g.SetEdge("c", "d", nil)
	mustRun(t, g)

	a, b, c, d := g.Node("a"), g.Node("b"), g.Node("c"), g.Node("d")
	if a.Rank != 0 || b.Rank != 1 || c.Rank != 1 || d.Rank != 2 {
		t.Errorf("ranks a=%d b=%d c=%d d=%d, want 0 1 1 2", a.Rank, b.Rank, c.Rank, d.Rank)
	}
	if cc := crossings(g); cc != 0 {
		t.Errorf("%d crossings, want 0", cc)
	}
	if b.Y != c.Y {
		t.Errorf("b.y=%v c.y=%v, want equal", b.Y, c.Y)
	}
	if math.Abs(b.X-c.X) < 40+DefaultNodeSep-1e-6 {
		t.Errorf("b and c overlap: b.x=%v c.x=%v", b.X, c.X)
	}
	if !near(a.X, d.X) || !near(a.X, (b.X+c.X)/2) {
		t.Errorf("a.x=%v d.x=%v, want centered over b and c", a.X, d.X)
	}
	checkInsideCanvas(t, g)
}

func TestRunCycle(t *testing.T) {
	for _, acyclicer := range []graph.Acyclicer{graph.AcyclicerDFS, graph.AcyclicerGreedy} {
		t.Run(fmt.Sprintf("acyclicer=%q", acyclicer), func(t *testing.T) {
			g := newInput()
			g.Label().Acyclicer = acyclicer
			for _, v := range []string{"a", "b", "c"} {
				g.SetNode(v, box(30, 30))
			}
			g.SetEdge("a", "b", nil)
			g.SetEdge("b", "c", nil)
			g.SetEdge("c", "a", nil)
			before := fmt.Sprint(g.Edges())
			mustRun(t, g)

			if after := fmt.Sprint(g.Edges()); after != before {
				t.Errorf("edges = %s, want %s", after, before)
			}
			forward := 0
			for _, e := range g.Edges() {
				l := g.EdgeByKey(e)
				if l.Reversed || l.ForwardName != "" {
					t.Errorf("edge %s still marked reversed", e)
				}
				if g.Node(e.W).Rank > g.Node(e.V).Rank {
					forward++
				}
				pts := l.Points
				if len(pts) < 2 {
					t.Fatalf("edge %s: points = %v", e, pts)
				}
				// Points run from tail to head even for the reversed edge.
				v, w := g.Node(e.V), g.Node(e.W)
				if math.Abs(pts[0].Y-v.Y) > v.Height/2+1e-6 || math.Abs(pts[len(pts)-1].Y-w.Y) > w.Height/2+1e-6 {
					t.Errorf("edge %s: points %v do not start at %s and end at %s", e, pts, e.V, e.W)
				}
			}
			if forward != 2 {
				t.Errorf("%d edges point down, want 2", forward)
			}
		})
	}
}

func TestRunCompound(t *testing.T) {
	g := newInput()
	for _, v := range []string{"p", "x", "y", "q"} {
		g.SetNode(v, box(50, 50))
	}
	for _, v := range []string{"x", "y"} {
		if err := g.SetParent(v, "s"); err != nil {
			t.Fatal(err)
		}
	}
	g.SetEdge("p", "x", nil)
	g.SetEdge("y", "q", nil)
	mustRun(t, g)

	p, x, y, q, s := g.Node("p"), g.Node("x"), g.Node("y"), g.Node("q"), g.Node("s")
	if !(p.Rank < x.Rank && y.Rank < q.Rank) {
		t.Errorf("ranks p=%d x=%d y=%d q=%d", p.Rank, x.Rank, y.Rank, q.Rank)
	}
	if s.Width <= 0 || s.Height <= 0 {
		t.Fatalf("compound size = %vx%v", s.Width, s.Height)
	}
	for _, c := range []struct {
		name string
		n    *graph.NodeLabel
	}{{"x", x}, {"y", y}} {
		if math.Abs(c.n.X-s.X) > s.Width/2 || math.Abs(c.n.Y-s.Y) > s.Height/2 {
			t.Errorf("%s at (%v, %v) outside s box (%v, %v) %vx%v", c.name, c.n.X, c.n.Y, s.X, s.Y, s.Width, s.Height)
		}
	}
	if p.Y >= s.Y-s.Height/2 {
		t.Errorf("p.y=%v not above s (top %v)", p.Y, s.Y-s.Height/2)
	}
	if q.Y <= s.Y+s.Height/2 {
		t.Errorf("q.y=%v not below s (bottom %v)", q.Y, s.Y+s.Height/2)
	}
	for _, v := range g.Nodes() {
		if strings.HasPrefix(v, "_") {
			t.Errorf("dummy %s leaked into the input graph", v)
		}
	}
}

func TestRunSelfLoop(t *testing.T) {
	g := newInput()
	g.SetNode("a", box(100, 100))
	g.SetEdge("a", "a", nil)
	mustRun(t, g)

	a := g.Node("a")
	l := g.Edge("a", "a")
	if len(l.Points) != 7 {
		t.Fatalf("points = %v, want 7", l.Points)
	}
	for _, p := range l.Points[1 : len(l.Points)-1] {
		if p.X <= a.X+a.Width/2 {
			t.Errorf("loop point %v not right of a (right side %v)", p, a.X+a.Width/2)
		}
	}
	if !l.Placed {
		t.Error("self loop label not placed")
	}
	checkInsideCanvas(t, g)
}

func TestRunEdgeLabel(t *testing.T) {
	tests := []struct {
		pos  graph.LabelPos
		dx   float64
		name string
	}{
		{graph.LabelCenter, 0, "center"},
		{graph.LabelLeft, -1, "left"},
		{graph.LabelRight, 1, "right"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newInput()
			g.SetNode("a", box(50, 50))
			g.SetNode("b", box(50, 50))
			g.SetEdge("a", "b", &graph.EdgeLabel{Weight: 1, Minlen: 1, Width: 60, Height: 20, LabelPos: tt.pos})
			mustRun(t, g)

			a, b, l := g.Node("a"), g.Node("b"), g.Edge("a", "b")
			if !l.Placed {
				t.Fatal("label not placed")
			}
			if !(a.Y < l.Y && l.Y < b.Y) {
				t.Errorf("label y=%v not between a.y=%v and b.y=%v", l.Y, a.Y, b.Y)
			}
			var edgeX float64
			for _, p := range l.Points {
				if near(p.Y, l.Y) {
					edgeX = p.X
				}
			}
			switch {
			case tt.dx == 0 && !near(l.X, edgeX):
				t.Errorf("centered label x=%v, edge x=%v", l.X, edgeX)
			case tt.dx < 0 && l.X >= edgeX:
				t.Errorf("left label x=%v not left of edge x=%v", l.X, edgeX)
			case tt.dx > 0 && l.X <= edgeX:
				t.Errorf("right label x=%v not right of edge x=%v", l.X, edgeX)
			}
			if l.Width != 60 {
				t.Errorf("label width = %v, want 60", l.Width)
			}
			checkInsideCanvas(t, g)
		})
	}
}

func TestRunMargins(t *testing.T) {
	g := newInput()
	g.Label().MarginX = 10
	g.Label().MarginY = 20
	g.SetNode("a", box(50, 100))
	mustRun(t, g)

	a := g.Node("a")
	if !near(a.X, 35) || !near(a.Y, 70) {
		t.Errorf("a = (%v, %v), want (35, 70)", a.X, a.Y)
	}
	if w, h := g.Label().Width, g.Label().Height; !near(w, 70) || !near(h, 140) {
		t.Errorf("canvas = %vx%v, want 70x140", w, h)
	}
}

func TestRunEmpty(t *testing.T) {
	g := newInput()
	mustRun(t, g)
	if w, h := g.Label().Width, g.Label().Height; w != 0 || h != 0 {
		t.Errorf("canvas = %vx%v, want 0x0", w, h)
	}
}

func TestRunRankers(t *testing.T) {
	for _, ranker := range []graph.Ranker{graph.RankerNetworkSimplex, graph.RankerTightTree, graph.RankerLongestPath} {
		t.Run(string(ranker), func(t *testing.T) {
			g := newInput()
			g.Label().Ranker = ranker
			g.SetEdge("a", "b", nil)
			g.SetEdge("b", "c", nil)
			g.SetEdge("a", "c", nil)
			g.SetEdge("d", "c", nil)
			mustRun(t, g)
			for _, e := range g.Edges() {
				if g.Node(e.W).Rank <= g.Node(e.V).Rank {
					t.Errorf("edge %s: rank %d -> %d", e, g.Node(e.V).Rank, g.Node(e.W).Rank)
				}
			}
		})
	}
}

func TestRunInvalid(t *testing.T) {
	tests := []struct {
		name  string
		setup func(g *graph.Graph)
	}{
		{"rankdir", func(g *graph.Graph) { g.Label().RankDir = "diagonal" }},
		{"align", func(g *graph.Graph) { g.Label().Align = "middle" }},
		{"acyclicer", func(g *graph.Graph) { g.Label().Acyclicer = "magic" }},
		{"ranker", func(g *graph.Graph) { g.Label().Ranker = "random" }},
		{"nodesep", func(g *graph.Graph) { g.Label().NodeSep = -1 }},
		{"node width", func(g *graph.Graph) { g.Node("a").Width = -5 }},
		{"node height NaN", func(g *graph.Graph) { g.Node("a").Height = math.NaN() }},
		{"weight", func(g *graph.Graph) { g.Edge("a", "b").Weight = -1 }},
		{"minlen", func(g *graph.Graph) { g.Edge("a", "b").Minlen = -2 }},
		{"labelpos", func(g *graph.Graph) { g.Edge("a", "b").LabelPos = "top" }},
		{"compound endpoint", func(g *graph.Graph) { _ = g.SetParent("c", "a") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newInput()
			g.SetNode("a", box(10, 10))
			g.SetNode("b", box(10, 10))
			g.SetEdge("a", "b", nil)
			tt.setup(g)

			err := Run(g)
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("Run error = %v, want INVALID_INPUT", err)
			}
			if g.Node("a").X != 0 || g.Edge("a", "b").Points != nil {
				t.Error("input graph modified on failed validation")
			}
		})
	}
}

func TestRunSimpleInput(t *testing.T) {
	// A plain graph without multigraph or compound support is accepted.
	g := graph.New(graph.Options{})
	g.SetNode("a", box(20, 20))
	g.SetNode("b", box(20, 20))
	g.SetEdge("a", "b", nil)
	mustRun(t, g)
	if g.Node("b").Y <= g.Node("a").Y {
		t.Errorf("a.y=%v b.y=%v", g.Node("a").Y, g.Node("b").Y)
	}
}

func TestRunWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})

	g := newInput()
	g.SetEdge("a", "b", nil)
	mustRun(t, g, WithLogger(logger))

	out := buf.String()
	for _, phase := range []string{"acyclic", "rank", "order", "position", "translateGraph"} {
		if !strings.Contains(out, "phase="+phase) {
			t.Errorf("log output missing phase=%s:\n%s", phase, out)
		}
	}
}

func TestRunWithProgress(t *testing.T) {
	var phases []string
	g := newInput()
	g.SetEdge("a", "b", nil)
	mustRun(t, g, WithProgress(func(phase string) { phases = append(phases, phase) }))

	if len(phases) == 0 || phases[0] != "makeSpaceForEdgeLabels" || phases[len(phases)-1] != "acyclic.undo" {
		t.Fatalf("phases = %v", phases)
	}
	rank, ord, pos := slices.Index(phases, "rank"), slices.Index(phases, "order"), slices.Index(phases, "position")
	if rank < 0 || rank > ord || ord > pos {
		t.Errorf("rank, order and position reported at %d, %d, %d", rank, ord, pos)
	}
}

func TestRunWithoutOrderHeuristic(t *testing.T) {
	g := newInput()
	g.SetEdge("a", "c", nil)
	g.SetEdge("b", "d", nil)
	g.SetEdge("a", "d", nil)
	mustRun(t, g, WithoutOrderHeuristic())
	checkInsideCanvas(t, g)
}

func TestRunRandomGraphs(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for i := range 25 {
		g := newInput()
		n := 2 + r.IntN(12)
		for v := range n {
			g.SetNode(fmt.Sprint("n", v), box(float64(10+r.IntN(40)), float64(10+r.IntN(40))))
		}
		m := r.IntN(2 * n)
		for j := range m {
			v, w := fmt.Sprint("n", r.IntN(n)), fmt.Sprint("n", r.IntN(n))
			l := &graph.EdgeLabel{Weight: 1 + r.IntN(3), Minlen: 1 + r.IntN(2)}
			if r.IntN(4) == 0 {
				l.Width, l.Height = 20, 10
			}
			g.SetNamedEdge(v, w, fmt.Sprint("e", j), l)
		}
		if i%3 == 0 {
			g.Label().RankDir = []graph.RankDir{graph.RankDirBT, graph.RankDirLR, graph.RankDirRL}[r.IntN(3)]
		}
		before := fmt.Sprint(g.Edges())
		mustRun(t, g)

		if after := fmt.Sprint(g.Edges()); after != before {
			t.Fatalf("graph %d: edge set changed", i)
		}
		for _, e := range g.Edges() {
			if pts := g.EdgeByKey(e).Points; len(pts) < 2 {
				t.Errorf("graph %d: edge %s has points %v", i, e, pts)
			}
		}
		checkInsideCanvas(t, g)
	}
}

func TestIntersectRect(t *testing.T) {
	n := &graph.NodeLabel{X: 0, Y: 0, Width: 20, Height: 10}
	tests := []struct {
		p    graph.Point
		want graph.Point
	}{
		{graph.Point{X: 0, Y: 100}, graph.Point{X: 0, Y: 5}},
		{graph.Point{X: 0, Y: -100}, graph.Point{X: 0, Y: -5}},
		{graph.Point{X: 100, Y: 0}, graph.Point{X: 10, Y: 0}},
		{graph.Point{X: -100, Y: 0}, graph.Point{X: -10, Y: 0}},
		{graph.Point{X: 20, Y: 20}, graph.Point{X: 5, Y: 5}},
		{graph.Point{X: 0, Y: 0}, graph.Point{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		if got := intersectRect(n, tt.p); !near(got.X, tt.want.X) || !near(got.Y, tt.want.Y) {
			t.Errorf("intersectRect(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	zero := &graph.NodeLabel{X: 3, Y: 4}
	if got := intersectRect(zero, graph.Point{X: 3, Y: 50}); got != (graph.Point{X: 3, Y: 4}) {
		t.Errorf("zero-size node: got %v", got)
	}
}

func TestParentDummyChains(t *testing.T) {
	// a (rank 0) in compound s spanning ranks 0..2, b at rank 4 outside.
	g := newInput()
	g.SetNode("a", &graph.NodeLabel{Rank: 1})
	g.SetNode("b", &graph.NodeLabel{Rank: 4})
	_ = g.SetParent("a", "s")
	s := g.Node("s")
	s.MinRank, s.MaxRank, s.HasRankRange = 0, 2, true
	g.SetEdge("a", "b", nil)

	normalizeLongEdges(g)
	parentDummyChains(g)

	chain := g.Label().DummyChains
	if len(chain) != 1 {
		t.Fatalf("chains = %v", chain)
	}
	v := chain[0]
	want := map[int]string{2: "s", 3: ""}
	for v != "b" {
		n := g.Node(v)
		if got := g.Parent(v); got != want[n.Rank] {
			t.Errorf("dummy at rank %d has parent %q, want %q", n.Rank, got, want[n.Rank])
		}
		v = g.Successors(v)[0]
	}
}

func TestNormalizeLongEdgesRoundTrip(t *testing.T) {
	g := newInput()
	g.SetNode("a", &graph.NodeLabel{Rank: 0})
	g.SetNode("b", &graph.NodeLabel{Rank: 4})
	l := &graph.EdgeLabel{Weight: 3, Minlen: 1, Width: 10, Height: 10, LabelRank: 2}
	g.SetNamedEdge("a", "b", "e", l)

	normalizeLongEdges(g)
	if g.NodeCount() != 5 || g.EdgeCount() != 4 {
		t.Fatalf("nodes=%d edges=%d after normalize, want 5 and 4", g.NodeCount(), g.EdgeCount())
	}
	labels := 0
	for _, v := range g.Nodes() {
		n := g.Node(v)
		if n.Dummy == graph.DummyEdgeLabel {
			labels++
			if n.Rank != 2 || n.Width != 10 {
				t.Errorf("label dummy rank=%d width=%v", n.Rank, n.Width)
			}
		}
		n.X, n.Y = float64(n.Rank), float64(n.Rank*10)
	}
	if labels != 1 {
		t.Errorf("%d label dummies, want 1", labels)
	}
	for _, e := range g.Edges() {
		if e.Name != "e" || g.EdgeByKey(e).Weight != 3 {
			t.Errorf("chain edge %s weight %d", e, g.EdgeByKey(e).Weight)
		}
	}

	denormalizeLongEdges(g)
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("nodes=%d edges=%d after undo, want 2 and 1", g.NodeCount(), g.EdgeCount())
	}
	got := g.EdgeByKey(graph.EdgeKey{V: "a", W: "b", Name: "e"})
	if got != l {
		t.Fatal("original edge label not restored")
	}
	want := []graph.Point{{X: 1, Y: 10}, {X: 2, Y: 20}, {X: 3, Y: 30}}
	if fmt.Sprint(got.Points) != fmt.Sprint(want) {
		t.Errorf("points = %v, want %v", got.Points, want)
	}
	if !got.Placed || got.X != 2 || got.Y != 20 {
		t.Errorf("label at (%v, %v) placed=%v, want (2, 20)", got.X, got.Y, got.Placed)
	}
}

func checkInsideCanvas(t *testing.T, g *graph.Graph) {
	t.Helper()
	gl := g.Label()
	const eps = 1e-6
	for _, v := range g.Nodes() {
		n := g.Node(v)
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Errorf("node %s has NaN coordinates", v)
			continue
		}
		if n.X-n.Width/2 < -eps || n.X+n.Width/2 > gl.Width+eps ||
			n.Y-n.Height/2 < -eps || n.Y+n.Height/2 > gl.Height+eps {
			t.Errorf("node %s box (%v, %v) %vx%v outside canvas %vx%v",
				v, n.X, n.Y, n.Width, n.Height, gl.Width, gl.Height)
		}
	}
	for _, e := range g.Edges() {
		for _, p := range g.EdgeByKey(e).Points {
			if math.IsNaN(p.X) || math.IsNaN(p.Y) {
				t.Errorf("edge %s has NaN point", e)
			}
		}
	}
}

// crossings counts pairs of edges between the same two ranks whose endpoints
// are ordered differently on the two ranks.
func crossings(g *graph.Graph) int {
	edges := g.Edges()
	count := 0
	for i, e := range edges {
		for _, f := range edges[i+1:] {
			ev, ew, fv, fw := g.Node(e.V), g.Node(e.W), g.Node(f.V), g.Node(f.W)
			if ev.Rank != fv.Rank || ew.Rank != fw.Rank {
				continue
			}
			if (ev.X-fv.X)*(ew.X-fw.X) < 0 {
				count++
			}
		}
	}
	return count
}

// rankDirGraph has unequal node and label sizes, a long edge and labels on
// both sides. With swap the sizes are transposed.
func rankDirGraph(swap bool) *graph.Graph {
	dims := func(w, h float64) (float64, float64) {
		if swap {
			return h, w
		}
		return w, h
	}
	g := newInput()
	for i, v := range []string{"a", "b", "c", "d"} {
		w, h := dims(float64(30+10*i), float64(20+5*i))
		g.SetNode(v, box(w, h))
	}
	g.SetEdge("a", "b", nil)
	g.SetEdge("b", "c", nil)
	g.SetEdge("a", "c", nil)
	lw, lh := dims(40, 16)
	g.SetEdge("a", "d", &graph.EdgeLabel{Weight: 1, Minlen: 1, Width: lw, Height: lh, LabelPos: graph.LabelRight})
	lw, lh = dims(24, 12)
	g.SetEdge("d", "c", &graph.EdgeLabel{Weight: 1, Minlen: 1, Width: lw, Height: lh, LabelPos: graph.LabelLeft})
	return g
}

func TestRunRankDirTransforms(t *testing.T) {
	tb := rankDirGraph(false)
	mustRun(t, tb)
	tbSwapped := rankDirGraph(true)
	mustRun(t, tbSwapped)

	tests := []struct {
		dir  graph.RankDir
		ref  *graph.Graph
		maps func(p graph.Point, w, h float64) graph.Point
	}{
		{graph.RankDirTB, tb, func(p graph.Point, w, h float64) graph.Point { return p }},
		{graph.RankDirBT, tb, func(p graph.Point, w, h float64) graph.Point { return graph.Point{X: p.X, Y: h - p.Y} }},
		{graph.RankDirLR, tbSwapped, func(p graph.Point, w, h float64) graph.Point { return graph.Point{X: p.Y, Y: p.X} }},
		{graph.RankDirRL, tbSwapped, func(p graph.Point, w, h float64) graph.Point { return graph.Point{X: h - p.Y, Y: p.X} }},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			g := rankDirGraph(false)
			g.Label().RankDir = tt.dir
			mustRun(t, g)

			rw, rh := tt.ref.Label().Width, tt.ref.Label().Height
			corner := tt.maps(graph.Point{X: rw, Y: rh}, 0, 0)
			if w, h := g.Label().Width, g.Label().Height; !near(w, math.Abs(corner.X)) || !near(h, math.Abs(corner.Y)) {
				t.Errorf("canvas = %vx%v, want %vx%v", w, h, math.Abs(corner.X), math.Abs(corner.Y))
			}
			samePoint := func(what string, got, ref graph.Point) {
				t.Helper()
				if want := tt.maps(ref, rw, rh); !near(got.X, want.X) || !near(got.Y, want.Y) {
					t.Errorf("%s = %v, want %v", what, got, want)
				}
			}
			for _, v := range g.Nodes() {
				n, r := g.Node(v), tt.ref.Node(v)
				samePoint("node "+v, graph.Point{X: n.X, Y: n.Y}, graph.Point{X: r.X, Y: r.Y})
				if n.Rank != r.Rank {
					t.Errorf("node %s rank = %d, want %d", v, n.Rank, r.Rank)
				}
			}
			for _, e := range g.Edges() {
				l, r := g.EdgeByKey(e), tt.ref.EdgeByKey(e)
				if len(l.Points) != len(r.Points) {
					t.Fatalf("edge %s: %d points, want %d", e, len(l.Points), len(r.Points))
				}
				for i := range l.Points {
					samePoint(fmt.Sprintf("edge %s point %d", e, i), l.Points[i], r.Points[i])
				}
				if l.Placed != r.Placed {
					t.Fatalf("edge %s: placed = %v, want %v", e, l.Placed, r.Placed)
				}
				if l.Placed {
					samePoint("label of "+e.String(), graph.Point{X: l.X, Y: l.Y}, graph.Point{X: r.X, Y: r.Y})
				}
			}
			checkInsideCanvas(t, g)
		})
	}
}

// randomCompoundGraph mixes nested compounds, edges between leaves of
// different compounds, weightless edges, self loops and edge labels.
func randomCompoundGraph(r *rand.Rand) *graph.Graph {
	g := newInput()
	n := 4 + r.IntN(14)
	leaves := make([]string, n)
	for i := range leaves {
		leaves[i] = fmt.Sprint("n", i)
		g.SetNode(leaves[i], box(float64(10+r.IntN(40)), float64(10+r.IntN(40))))
	}
	compounds := make([]string, 1+r.IntN(4))
	for i := range compounds {
		compounds[i] = fmt.Sprint("C", i)
		if i > 0 && r.IntN(2) == 0 {
			_ = g.SetParent(compounds[i], compounds[r.IntN(i)])
		}
	}
	for i, v := range leaves {
		if i < len(compounds) {
			// Every compound gets at least one leaf.
			_ = g.SetParent(v, compounds[i])
		} else if k := r.IntN(len(compounds) + 1); k < len(compounds) {
			_ = g.SetParent(v, compounds[k])
		}
	}
	for j := range r.IntN(2*n + 1) {
		v, w := leaves[r.IntN(n)], leaves[r.IntN(n)]
		l := &graph.EdgeLabel{Weight: r.IntN(3), Minlen: 1 + r.IntN(2)}
		if r.IntN(5) == 0 {
			l.Width, l.Height = 16, 8
			l.LabelPos = []graph.LabelPos{graph.LabelLeft, graph.LabelCenter, graph.LabelRight}[r.IntN(3)]
		}
		g.SetNamedEdge(v, w, fmt.Sprint("e", j), l)
	}
	return g
}

func TestRunRandomCompoundGraphs(t *testing.T) {
	for seed := range uint64(120) {
		t.Run(fmt.Sprint("seed=", seed), func(t *testing.T) {
			g := randomCompoundGraph(rand.New(rand.NewPCG(seed, 2)))
			before := fmt.Sprint(g.Edges())

			done := make(chan error, 1)
			go func() { done <- Run(g) }()
			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("Run: %v", err)
				}
			case <-time.After(20 * time.Second):
				t.Fatal("Run did not return")
			}

			if after := fmt.Sprint(g.Edges()); after != before {
				t.Fatal("edge set changed")
			}
			for _, e := range g.Edges() {
				if pts := g.EdgeByKey(e).Points; len(pts) < 2 {
					t.Errorf("edge %s has points %v", e, pts)
				}
			}
			checkNoOverlap(t, g)
			checkInsideCanvas(t, g)
		})
	}
}

// checkNoOverlap fails if two leaves drawn on the same rank row overlap
// horizontally, which happens when the ordering gives them the same slot.
func checkNoOverlap(t *testing.T, g *graph.Graph) {
	t.Helper()
	var leaves []string
	for _, v := range g.Nodes() {
		if !g.HasChildren(v) {
			leaves = append(leaves, v)
		}
	}
	for i, v := range leaves {
		for _, w := range leaves[i+1:] {
			a, b := g.Node(v), g.Node(w)
			if !near(a.Y, b.Y) {
				continue
			}
			if math.Abs(a.X-b.X) < (a.Width+b.Width)/2-1e-6 {
				t.Errorf("%s at x=%v and %s at x=%v overlap", v, a.X, w, b.X)
			}
		}
	}
}

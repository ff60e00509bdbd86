package layout

import (
	"math"

	"github.com/matzehuels/strata/pkg/graph"
)

// addBorderSegments gives every compound node a left and a right border
// dummy on each rank it spans, chained rank to rank with weight-1 edges.
// The ordering phase keeps a compound's content between its borders, and
// the final border positions size the compound node. Children are handled
// before their parents.
func addBorderSegments(g *graph.Graph) {
	for _, v := range containmentPostorder(g) {
		n := g.Node(v)
		if !n.HasRankRange {
			continue
		}
		n.BorderLeft = make(map[int]string, n.MaxRank-n.MinRank+1)
		n.BorderRight = make(map[int]string, n.MaxRank-n.MinRank+1)
		for r := n.MinRank; r <= n.MaxRank; r++ {
			addBorderNode(g, v, n.BorderLeft, graph.BorderLeft, "_bl", r)
			addBorderNode(g, v, n.BorderRight, graph.BorderRight, "_br", r)
		}
	}
}

func addBorderNode(g *graph.Graph, sg string, borders map[int]string, bt graph.BorderType, prefix string, rank int) {
	curr := g.AddDummyNode(graph.DummyBorder, &graph.NodeLabel{Rank: rank, BorderType: bt}, prefix)
	borders[rank] = curr
	_ = g.SetParent(curr, sg)
	if prev, ok := borders[rank-1]; ok {
		g.SetEdge(prev, curr, &graph.EdgeLabel{Weight: 1, Minlen: 1})
	}
}

// removeBorderNodes sizes every compound node from its border dummies and
// then removes all border dummies.
func removeBorderNodes(g *graph.Graph) {
	for _, v := range g.Nodes() {
		if !g.HasChildren(v) {
			continue
		}
		n := g.Node(v)
		t, b := g.Node(n.BorderTop), g.Node(n.BorderBottom)
		l, r := g.Node(n.BorderLeft[n.MaxRank]), g.Node(n.BorderRight[n.MaxRank])
		n.Width = math.Abs(r.X - l.X)
		n.Height = math.Abs(b.Y - t.Y)
		n.X = l.X + n.Width/2
		n.Y = t.Y + n.Height/2
	}
	for _, v := range g.Nodes() {
		if g.Node(v).Dummy == graph.DummyBorder {
			g.RemoveNode(v)
		}
	}
}

// containmentPostorder lists every node of the containment tree with children
// before parents.
func containmentPostorder(g *graph.Graph) []string {
	out := make([]string, 0, g.NodeCount())
	type frame struct {
		v        string
		children []string
		next     int
	}
	for _, top := range g.Children("") {
		stack := []frame{{v: top, children: g.Children(top)}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(f.children) {
				c := f.children[f.next]
				f.next++
				stack = append(stack, frame{v: c, children: g.Children(c)})
				continue
			}
			out = append(out, f.v)
			stack = stack[:len(stack)-1]
		}
	}
	return out
}

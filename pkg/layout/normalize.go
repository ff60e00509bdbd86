package layout

import "github.com/matzehuels/strata/pkg/graph"

// normalizeLongEdges breaks every edge that spans more than one rank into a
// chain of unit-length edges through edge dummies, one per intermediate
// rank. A labeled edge gets an edge-label dummy, sized like the label, at
// its label rank. The first dummy of each chain is recorded in
// GraphLabel.DummyChains.
//
// Chain edges keep the original edge's name and weight. The dummies keep a
// pointer to the original edge label so denormalizeLongEdges can restore it.
func normalizeLongEdges(g *graph.Graph) {
	gl := g.Label()
	gl.DummyChains = nil
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		vRank, wRank := g.Node(e.V).Rank, g.Node(e.W).Rank
		if wRank == vRank+1 {
			continue
		}
		g.RemoveEdge(e)
		l.Points = nil

		v := e.V
		for r := vRank + 1; r < wRank; r++ {
			n := &graph.NodeLabel{Rank: r, Edge: e, EdgeLabel: l}
			kind := graph.DummyEdge
			if l.HasLabel() && r == l.LabelRank {
				n.Width = l.Width
				n.Height = l.Height
				n.LabelPos = l.LabelPos
				kind = graph.DummyEdgeLabel
			}
			dummy := g.AddDummyNode(kind, n, "_d")
			g.SetNamedEdge(v, dummy, e.Name, &graph.EdgeLabel{Weight: l.Weight, Minlen: 1})
			if r == vRank+1 {
				gl.DummyChains = append(gl.DummyChains, dummy)
			}
			v = dummy
		}
		g.SetNamedEdge(v, e.W, e.Name, &graph.EdgeLabel{Weight: l.Weight, Minlen: 1})
	}
}

// denormalizeLongEdges restores every chained edge, collecting the dummy
// positions as the edge's bend points.
func denormalizeLongEdges(g *graph.Graph) {
	for _, v := range g.Label().DummyChains {
		n := g.Node(v)
		l := n.EdgeLabel
		g.SetEdgeKey(n.Edge, l)
		for n != nil && n.Dummy.IsDummy() {
			next := g.Successors(v)
			g.RemoveNode(v)
			l.Points = append(l.Points, graph.Point{X: n.X, Y: n.Y})
			if n.Dummy == graph.DummyEdgeLabel {
				l.X = n.X
				l.Y = n.Y
				l.Width = n.Width
				l.Height = n.Height
				l.Placed = true
			}
			if len(next) == 0 {
				break
			}
			v = next[0]
			n = g.Node(v)
		}
	}
	g.Label().DummyChains = nil
}

package layout

import "github.com/matzehuels/strata/pkg/graph"

// removeSelfEdges parks self loops on their node. Ranking and ordering never
// see them.
func removeSelfEdges(g *graph.Graph) {
	for _, e := range g.Edges() {
		if e.V != e.W {
			continue
		}
		n := g.Node(e.V)
		n.SelfEdges = append(n.SelfEdges, graph.SelfEdge{Key: e, Label: g.EdgeByKey(e)})
		g.RemoveEdge(e)
	}
}

// insertSelfEdges adds one self-edge dummy directly to the right of its node
// for every parked loop, shifting the rest of the layer to make room.
func insertSelfEdges(g *graph.Graph) {
	for _, layer := range graph.LayerMatrix(g) {
		shift := 0
		for i, v := range layer {
			n := g.Node(v)
			n.Order = i + shift
			for _, se := range n.SelfEdges {
				shift++
				g.AddDummyNode(graph.DummySelfEdge, &graph.NodeLabel{
					Width:     se.Label.Width,
					Height:    se.Label.Height,
					Rank:      n.Rank,
					Order:     i + shift,
					Edge:      se.Key,
					EdgeLabel: se.Label,
				}, "_se")
			}
			n.SelfEdges = nil
		}
	}
}

// positionSelfEdges turns each self-edge dummy back into its loop: five points
// leaving the node on the right, passing through the dummy's column and
// returning. The label sits at the dummy.
func positionSelfEdges(g *graph.Graph) {
	for _, v := range g.Nodes() {
		n := g.Node(v)
		if n.Dummy != graph.DummySelfEdge {
			continue
		}
		self := g.Node(n.Edge.V)
		x := self.X + self.Width/2
		y := self.Y
		dx := n.X - x
		dy := self.Height / 2
		l := n.EdgeLabel
		g.SetEdgeKey(n.Edge, l)
		g.RemoveNode(v)
		l.Points = []graph.Point{
			{X: x + 2*dx/3, Y: y - dy},
			{X: x + 5*dx/6, Y: y - dy},
			{X: x + dx, Y: y},
			{X: x + 5*dx/6, Y: y + dy},
			{X: x + 2*dx/3, Y: y + dy},
		}
		l.X = n.X
		l.Y = n.Y
		l.Placed = true
	}
}

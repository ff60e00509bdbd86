package layout

import "github.com/matzehuels/strata/pkg/graph"

// makeSpaceForEdgeLabels halves the rank separation and doubles every minlen
// so that a label can take the rank between two real ranks. Labels placed
// left or right of the edge are widened by their offset along the axis
// perpendicular to the ranks.
func makeSpaceForEdgeLabels(g *graph.Graph) {
	gl := g.Label()
	gl.RankSep /= 2
	vertical := gl.RankDir == graph.RankDirTB || gl.RankDir == graph.RankDirBT
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		l.Minlen *= 2
		if l.LabelPos == graph.LabelCenter {
			continue
		}
		if vertical {
			l.Width += l.LabelOffset
		} else {
			l.Height += l.LabelOffset
		}
	}
}

// injectEdgeLabelProxies places an edge-proxy dummy halfway between the
// endpoints of every labeled edge. Removing empty ranks shifts ranks, and the
// proxy records where the label rank ends up.
func injectEdgeLabelProxies(g *graph.Graph) {
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		if !l.HasLabel() {
			continue
		}
		v, w := g.Node(e.V), g.Node(e.W)
		g.AddDummyNode(graph.DummyEdgeProxy, &graph.NodeLabel{
			Rank: (w.Rank-v.Rank)/2 + v.Rank,
			Edge: e,
		}, "_ep")
	}
}

func removeEdgeLabelProxies(g *graph.Graph) {
	for _, v := range g.Nodes() {
		n := g.Node(v)
		if n.Dummy != graph.DummyEdgeProxy {
			continue
		}
		g.EdgeByKey(n.Edge).LabelRank = n.Rank
		g.RemoveNode(v)
	}
}

// fixupEdgeLabelCoords undoes the offset added by makeSpaceForEdgeLabels and
// moves left or right labels off the edge.
func fixupEdgeLabelCoords(g *graph.Graph) {
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		if !l.Placed {
			continue
		}
		if l.LabelPos == graph.LabelLeft || l.LabelPos == graph.LabelRight {
			l.Width -= l.LabelOffset
		}
		switch l.LabelPos {
		case graph.LabelLeft:
			l.X -= l.Width/2 + l.LabelOffset
		case graph.LabelRight:
			l.X += l.Width/2 + l.LabelOffset
		}
	}
}

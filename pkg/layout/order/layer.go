package order

import "github.com/matzehuels/strata/pkg/graph"

type relationship int

const (
	inEdges relationship = iota
	outEdges
)

// layerGraph holds the nodes that are movable at one rank, in their original
// hierarchy under a synthetic root, plus the fixed neighbors on the adjacent
// rank chosen by the sweep direction. Node labels are shared with the layout
// graph; edge labels are fresh and carry aggregated weights with the
// neighbor always as tail.
type layerGraph struct {
	g    *graph.Graph
	root string
	rank int
}

func buildLayerGraph(g *graph.Graph, rank int, rel relationship) *layerGraph {
	root := g.UniqueID("_root")
	for g.HasNode(root) {
		root = g.UniqueID("_root")
	}
	lg := &layerGraph{
		g:    graph.New(graph.Options{Compound: true}),
		root: root,
		rank: rank,
	}
	lg.g.SetNode(root, nil)

	for _, v := range g.Nodes() {
		n := g.Node(v)
		if g.HasChildren(v) {
			if !n.HasRankRange || rank < n.MinRank || rank > n.MaxRank {
				continue
			}
		} else if n.Rank != rank {
			continue
		}

		lg.g.SetNode(v, n)
		parent := spanningAncestor(g, v, rank)
		if parent == "" {
			parent = root
		} else if !lg.g.HasNode(parent) {
			lg.g.SetNode(parent, g.Node(parent))
		}
		_ = lg.g.SetParent(v, parent)

		var edges []graph.EdgeKey
		if rel == inEdges {
			edges = g.InEdges(v)
		} else {
			edges = g.OutEdges(v)
		}
		for _, e := range edges {
			u := e.V
			if u == v {
				u = e.W
			}
			if !lg.g.HasNode(u) {
				lg.g.SetNode(u, g.Node(u))
			}
			w := g.EdgeByKey(e).Weight
			if cur := lg.g.Edge(u, v); cur != nil {
				cur.Weight += w
			} else {
				lg.g.SetEdge(u, v, &graph.EdgeLabel{Weight: w})
			}
		}
	}
	return lg
}

// spanningAncestor returns the closest compound ancestor of v whose rank
// range covers rank, or "" if there is none. Every ancestor it returns is
// itself placed in the layer graph, so all movable nodes hang off the root.
func spanningAncestor(g *graph.Graph, v string, rank int) string {
	for p := g.Parent(v); p != ""; p = g.Parent(p) {
		if n := g.Node(p); n.HasRankRange && n.MinRank <= rank && rank <= n.MaxRank {
			return p
		}
	}
	return ""
}

// borders returns the left and right border nodes of compound v at the
// layer's rank, or empty strings if v has none.
func (lg *layerGraph) borders(v string) (string, string) {
	n := lg.g.Node(v)
	if n == nil || !n.HasRankRange || n.BorderLeft == nil {
		return "", ""
	}
	bl, br := n.BorderLeft[lg.rank], n.BorderRight[lg.rank]
	if bl == "" || br == "" || !lg.g.HasNode(bl) || !lg.g.HasNode(br) {
		return "", ""
	}
	return bl, br
}

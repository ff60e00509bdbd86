package graph

// Simplify returns a simple (non-multi, non-compound) copy of g that shares
// node labels with g. Parallel edges are merged into one edge whose weight
// is the sum and whose minlen is the maximum of the originals.
func (g *Graph) Simplify() *Graph {
	s := New(Options{})
	s.label = g.label
	s.seq = g.seq
	for _, v := range g.Nodes() {
		s.SetNode(v, g.Node(v))
	}
	for _, e := range g.Edges() {
		label := g.EdgeByKey(e)
		if cur := s.Edge(e.V, e.W); cur != nil {
			cur.Weight += label.Weight
			cur.Minlen = max(cur.Minlen, label.Minlen)
			continue
		}
		s.SetEdge(e.V, e.W, &EdgeLabel{Weight: label.Weight, Minlen: label.Minlen})
	}
	return s
}

// NonCompound returns a view of g without the containment tree and without
// compound nodes. Node and edge labels are shared with g.
func (g *Graph) NonCompound() *Graph {
	s := New(Options{Multigraph: g.opts.Multigraph})
	s.label = g.label
	s.seq = g.seq
	for _, v := range g.Nodes() {
		if !g.HasChildren(v) {
			s.SetNode(v, g.Node(v))
		}
	}
	for _, e := range g.Edges() {
		s.SetEdgeKey(e, g.EdgeByKey(e))
	}
	return s
}

// MaxRank returns the largest rank of any non-compound node, or 0 for a
// graph without such nodes.
func MaxRank(g *Graph) int {
	maxRank := 0
	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			continue
		}
		maxRank = max(maxRank, g.Node(v).Rank)
	}
	return maxRank
}

// LayerMatrix returns the node IDs of g grouped by rank, each layer sorted by
// order. Compound nodes are skipped since they span several ranks.
func LayerMatrix(g *Graph) [][]string {
	layers := make([][]string, MaxRank(g)+1)
	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			continue
		}
		n := g.Node(v)
		layer := layers[n.Rank]
		for len(layer) <= n.Order {
			layer = append(layer, "")
		}
		layer[n.Order] = v
		layers[n.Rank] = layer
	}
	return layers
}

// PosMap maps each ID in ids to its index.
func PosMap(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

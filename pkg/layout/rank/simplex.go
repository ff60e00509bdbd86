package rank

import "github.com/matzehuels/strata/pkg/graph"

// networkSimplex ranks g so that the sum of weight*length over all edges is
// minimal. It works on a simplified copy that shares node labels with g, so
// the ranks land on g directly.
//
// Outline:
//  1. longest path gives an initial feasible ranking
//  2. a tight spanning tree is built, shortening edges on the way
//  3. tree edges with a negative cut value are exchanged for the non-tree
//     edge of least slack across the same cut until no such edge remains
//
// An exchange whose entering edge has positive slack strictly lowers the
// objective. Zero-slack exchanges leave it unchanged and can cycle, which
// zero-weight edges make likely, so at most one tree's worth of them may
// happen in a row. Every intermediate ranking is feasible, so stopping early
// only costs optimality.
func networkSimplex(g *graph.Graph) {
	s := g.Simplify()
	longestPath(s)
	t := feasibleTree(s)
	if t.size() == 0 {
		return
	}

	initLowLim(t)
	initCutValues(t, s)

	for stalled := 0; stalled <= t.size(); {
		leave := leaveEdge(t)
		if leave == nil {
			return
		}
		enter, ok := enterEdge(t, s, leave)
		if !ok {
			return
		}
		if slack(s, enter) == 0 {
			stalled++
		} else {
			stalled = 0
		}
		exchangeEdges(t, s, leave, enter)
	}
}

// initLowLim numbers the tree in DFS postorder starting from its first node,
// recording for each node the lowest number in its subtree (low), its own
// number (lim) and its parent.
func initLowLim(t *tree) {
	type frame struct {
		v, parent string
		nbrs      []string
		next      int
		low       int
	}

	root := t.order[0]
	visited := make(map[string]bool, t.size())
	t.preorder = t.preorder[:0]
	t.postorder = t.postorder[:0]
	lim := 1

	var stack []*frame
	enter := func(v, parent string) {
		visited[v] = true
		t.preorder = append(t.preorder, v)
		stack = append(stack, &frame{v: v, parent: parent, nbrs: t.neighbors(v), low: lim})
	}

	enter(root, "")
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next < len(f.nbrs) {
			w := f.nbrs[f.next]
			f.next++
			if !visited[w] {
				enter(w, f.v)
			}
			continue
		}
		n := t.nodes[f.v]
		n.low = f.low
		n.lim = lim
		n.parent = f.parent
		lim++
		t.postorder = append(t.postorder, f.v)
		stack = stack[:len(stack)-1]
	}
}

// initCutValues assigns every tree edge its cut value. Children are visited
// before their parents, so each calculation can reuse the cut values of the
// edges below it.
func initCutValues(t *tree, g *graph.Graph) {
	for _, v := range t.postorder[:len(t.postorder)-1] {
		t.edge(v, t.nodes[v].parent).cutValue = calcCutValue(t, g, v)
	}
}

// calcCutValue returns the cut value of the tree edge between child and its
// parent.
func calcCutValue(t *tree, g *graph.Graph, child string) int {
	parent := t.nodes[child].parent

	childIsTail := true
	graphEdge := g.Edge(child, parent)
	if graphEdge == nil {
		childIsTail = false
		graphEdge = g.Edge(parent, child)
	}

	cutValue := graphEdge.Weight
	for _, e := range g.NodeEdges(child) {
		isOutEdge := e.V == child
		other := e.V
		if isOutEdge {
			other = e.W
		}
		if other == parent {
			continue
		}

		pointsToHead := isOutEdge == childIsTail
		w := g.EdgeByKey(e).Weight
		if pointsToHead {
			cutValue += w
		} else {
			cutValue -= w
		}

		if te := t.edge(child, other); te != nil {
			if pointsToHead {
				cutValue -= te.cutValue
			} else {
				cutValue += te.cutValue
			}
		}
	}
	return cutValue
}

func leaveEdge(t *tree) *treeEdge {
	for _, e := range t.edges {
		if e.cutValue < 0 {
			return e
		}
	}
	return nil
}

func isDescendant(v, root *treeNode) bool {
	return root.low <= v.lim && v.lim <= root.lim
}

// enterEdge picks the graph edge of least slack that reconnects the two
// components left when leave is removed from the tree, oriented opposite to
// leave. It reports false when no edge crosses the cut.
func enterEdge(t *tree, g *graph.Graph, leave *treeEdge) (graph.EdgeKey, bool) {
	v, w := leave.v, leave.w
	if !g.HasEdge(v, w) {
		v, w = w, v
	}

	vLabel, wLabel := t.nodes[v], t.nodes[w]
	tailLabel := vLabel
	flip := false
	// The root is on the tail side, so the head side is the subtree.
	if vLabel.lim > wLabel.lim {
		tailLabel = wLabel
		flip = true
	}

	var best graph.EdgeKey
	bestSlack := 0
	found := false
	for _, e := range g.Edges() {
		if flip != isDescendant(t.nodes[e.V], tailLabel) || flip == isDescendant(t.nodes[e.W], tailLabel) {
			continue
		}
		if s := slack(g, e); !found || s < bestSlack {
			best, bestSlack, found = e, s, true
		}
	}
	return best, found
}

func exchangeEdges(t *tree, g *graph.Graph, leave *treeEdge, enter graph.EdgeKey) {
	t.removeEdge(leave.v, leave.w)
	t.addEdge(enter.V, enter.W)
	initLowLim(t)
	initCutValues(t, g)
	updateRanks(t, g)
}

// updateRanks re-derives every rank from the tree root, keeping each tree
// edge tight.
func updateRanks(t *tree, g *graph.Graph) {
	for _, v := range t.preorder[1:] {
		parent := t.nodes[v].parent
		pr := g.Node(parent).Rank
		if e := g.Edge(v, parent); e != nil {
			g.Node(v).Rank = pr - e.Minlen
		} else {
			g.Node(v).Rank = pr + g.Edge(parent, v).Minlen
		}
	}
}

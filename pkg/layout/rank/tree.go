package rank

import (
	"fmt"

	"github.com/matzehuels/strata/pkg/graph"
)

// treeNode carries the DFS numbering used by network simplex. A node v is a
// descendant of u exactly when u.low <= v.lim <= u.lim.
type treeNode struct {
	low, lim int
	parent   string
}

type treeEdge struct {
	v, w     string
	cutValue int
}

func pairKey(v, w string) [2]string {
	if v > w {
		v, w = w, v
	}
	return [2]string{v, w}
}

// tree is an undirected spanning tree over the nodes of a layout graph.
// Nodes and edges iterate in insertion order.
type tree struct {
	order []string
	nodes map[string]*treeNode
	adj   map[string][]*treeEdge
	edges []*treeEdge
	index map[[2]string]*treeEdge

	// preorder and postorder are filled by initLowLim.
	preorder  []string
	postorder []string
}

func newTree() *tree {
	return &tree{
		nodes: make(map[string]*treeNode),
		adj:   make(map[string][]*treeEdge),
		index: make(map[[2]string]*treeEdge),
	}
}

func (t *tree) hasNode(v string) bool {
	_, ok := t.nodes[v]
	return ok
}

func (t *tree) addNode(v string) {
	if t.hasNode(v) {
		return
	}
	t.order = append(t.order, v)
	t.nodes[v] = &treeNode{}
}

func (t *tree) size() int { return len(t.order) }

func (t *tree) edge(v, w string) *treeEdge { return t.index[pairKey(v, w)] }

func (t *tree) addEdge(v, w string) {
	if t.edge(v, w) != nil {
		return
	}
	t.addNode(v)
	t.addNode(w)
	e := &treeEdge{v: v, w: w}
	t.edges = append(t.edges, e)
	t.index[pairKey(v, w)] = e
	t.adj[v] = append(t.adj[v], e)
	t.adj[w] = append(t.adj[w], e)
}

func (t *tree) removeEdge(v, w string) {
	e := t.edge(v, w)
	if e == nil {
		return
	}
	delete(t.index, pairKey(v, w))
	t.edges = without(t.edges, e)
	t.adj[e.v] = without(t.adj[e.v], e)
	t.adj[e.w] = without(t.adj[e.w], e)
}

func without(es []*treeEdge, e *treeEdge) []*treeEdge {
	out := es[:0:0]
	for _, x := range es {
		if x != e {
			out = append(out, x)
		}
	}
	return out
}

func (t *tree) neighbors(v string) []string {
	out := make([]string, 0, len(t.adj[v]))
	for _, e := range t.adj[v] {
		if e.v == v {
			out = append(out, e.w)
		} else {
			out = append(out, e.v)
		}
	}
	return out
}

// feasibleTree builds a spanning tree of tight edges, shifting ranks where
// needed to make more edges tight. g must be connected and carry a ranking
// that respects minlen.
func feasibleTree(g *graph.Graph) *tree {
	t := newTree()
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return t
	}
	t.addNode(nodes[0])

	for tightTree(t, g) < len(nodes) {
		e, ok := findMinSlackEdge(t, g)
		if !ok {
			panic(fmt.Sprintf("rank: graph is not connected (%d of %d nodes reachable)", t.size(), len(nodes)))
		}
		delta := slack(g, e)
		if !t.hasNode(e.V) {
			delta = -delta
		}
		for _, v := range t.order {
			g.Node(v).Rank += delta
		}
	}
	return t
}

// tightTree grows t along zero-slack edges of g and returns its size.
func tightTree(t *tree, g *graph.Graph) int {
	type frame struct {
		v     string
		edges []graph.EdgeKey
		next  int
	}

	starts := append([]string(nil), t.order...)
	for _, start := range starts {
		stack := []*frame{{v: start, edges: g.NodeEdges(start)}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			if f.next == len(f.edges) {
				stack = stack[:len(stack)-1]
				continue
			}
			e := f.edges[f.next]
			f.next++
			w := e.V
			if w == f.v {
				w = e.W
			}
			if !t.hasNode(w) && slack(g, e) == 0 {
				t.addEdge(f.v, w)
				stack = append(stack, &frame{v: w, edges: g.NodeEdges(w)})
			}
		}
	}
	return t.size()
}

// findMinSlackEdge returns the edge with the least slack among those with
// exactly one endpoint in t.
func findMinSlackEdge(t *tree, g *graph.Graph) (graph.EdgeKey, bool) {
	var best graph.EdgeKey
	found := false
	bestSlack := 0
	for _, e := range g.Edges() {
		if t.hasNode(e.V) == t.hasNode(e.W) {
			continue
		}
		if s := slack(g, e); !found || s < bestSlack {
			best, bestSlack, found = e, s, true
		}
	}
	return best, found
}

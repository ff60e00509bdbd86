// Package rank assigns an integer rank to every node of an acyclic layout
// graph and post-processes the result.
//
// # Rankers
//
// Three strategies are available, selected by GraphLabel.Ranker:
//
//   - [graph.RankerNetworkSimplex] (default) minimizes the total weighted
//     edge length with the network simplex method of Gansner et al., "A
//     Technique for Drawing Directed Graphs".
//   - [graph.RankerTightTree] runs longest path followed by the feasible
//     tight tree construction, a cheaper approximation.
//   - [graph.RankerLongestPath] only pushes every node as far down as its
//     successors allow. Fast, but produces wide bottom ranks.
//
// Every ranker requires a connected DAG whose edges carry Minlen and Weight.
// The nesting root added by package nesting guarantees connectivity.
//
// # Post-processing
//
// [RemoveEmptyRanks], [Normalize] and [AssignMinMax] tidy the ranking once
// the nesting structure has served its purpose.
//
// All traversals are iterative; graphs with tens of thousands of nodes must
// not exhaust the goroutine stack.
package rank

import "github.com/matzehuels/strata/pkg/graph"

// Run ranks g in place using the ranker named by its label. Compound nodes
// must not be present; callers pass [graph.Graph.NonCompound].
func Run(g *graph.Graph) {
	switch g.Label().Ranker {
	case graph.RankerTightTree:
		longestPath(g)
		feasibleTree(g)
	case graph.RankerLongestPath:
		longestPath(g)
	default:
		networkSimplex(g)
	}
}

// longestPath gives every sink rank 0 and every other node the smallest rank
// that still leaves minlen room above each successor. Ranks are therefore
// zero or negative. It is a reverse Kahn traversal, so every node is final
// once all of its successors are.
func longestPath(g *graph.Graph) {
	nodes := g.Nodes()
	outDegree := make(map[string]int, len(nodes))
	ranked := make(map[string]bool, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, v := range nodes {
		d := g.OutDegree(v)
		outDegree[v] = d
		if d == 0 {
			g.Node(v).Rank = 0
			ranked[v] = true
			queue = append(queue, v)
		}
	}

	for len(queue) > 0 {
		w := queue[0]
		queue = queue[1:]
		rw := g.Node(w).Rank

		for _, e := range g.InEdges(w) {
			n := g.Node(e.V)
			if r := rw - g.EdgeByKey(e).Minlen; !ranked[e.V] || r < n.Rank {
				n.Rank = r
				ranked[e.V] = true
			}
			outDegree[e.V]--
			if outDegree[e.V] == 0 {
				queue = append(queue, e.V)
			}
		}
	}
}

// slack is the number of ranks by which e is longer than its minlen.
func slack(g *graph.Graph, e graph.EdgeKey) int {
	return g.Node(e.W).Rank - g.Node(e.V).Rank - g.EdgeByKey(e).Minlen
}

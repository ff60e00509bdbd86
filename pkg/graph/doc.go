// Package graph provides the directed graph model used by the layout engine.
//
// A [Graph] holds string node IDs with [NodeLabel] values, edges keyed by
// [EdgeKey] with [EdgeLabel] values, and a graph level [GraphLabel] with the
// layout options. Graphs may allow parallel named edges (multigraphs) and
// may carry a containment tree of compound nodes:
//
//	g := graph.New(graph.Options{Multigraph: true, Compound: true})
//	g.SetNode("a", &graph.NodeLabel{Width: 50, Height: 20})
//	g.SetNode("b", &graph.NodeLabel{Width: 50, Height: 20})
//	g.SetEdge("a", "b", nil)
//	if err := g.SetParent("a", "cluster"); err != nil {
//	    return err
//	}
//
// Every listing (nodes, edges, adjacency, children) follows insertion order,
// so algorithms built on a Graph are deterministic without sorting.
//
// Labels are stored by pointer. [Graph.Simplify] and [Graph.NonCompound]
// build derived graphs that share labels with the original, which is how
// layout phases running on a derived view write results back.
package graph

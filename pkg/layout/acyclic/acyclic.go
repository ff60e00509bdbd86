package acyclic

import "github.com/matzehuels/strata/pkg/graph"

// Run makes g acyclic by reversing the edges of a feedback arc set. The
// heuristic is picked from g.Label().Acyclicer. Each reversed edge is
// re-inserted under a fresh name with Reversed set and its original name kept
// in ForwardName, so Undo can restore it. Run returns the number of edges it
// reversed.
//
// Self loops are expected to be removed beforehand; they are never reversed.
func Run(g *graph.Graph) int {
	var fas []graph.EdgeKey
	if g.Label().Acyclicer == graph.AcyclicerGreedy {
		fas = greedyFAS(g)
	} else {
		fas = dfsFAS(g)
	}

	for _, e := range fas {
		label := g.EdgeByKey(e)
		g.RemoveEdge(e)
		label.ForwardName = e.Name
		label.Reversed = true
		g.SetNamedEdge(e.W, e.V, g.UniqueID("rev"), label)
	}
	return len(fas)
}

// Undo restores every edge reversed by Run to its original direction and name.
func Undo(g *graph.Graph) {
	for _, e := range g.Edges() {
		label := g.EdgeByKey(e)
		if !label.Reversed {
			continue
		}
		g.RemoveEdge(e)
		name := label.ForwardName
		label.Reversed = false
		label.ForwardName = ""
		g.SetNamedEdge(e.W, e.V, name, label)
	}
}

// dfsFAS collects every edge that points back into the current DFS stack.
// The walk is iterative so deep graphs cannot exhaust the goroutine stack.
func dfsFAS(g *graph.Graph) []graph.EdgeKey {
	type frame struct {
		v    string
		out  []graph.EdgeKey
		next int
	}

	var fas []graph.EdgeKey
	visited := make(map[string]bool, g.NodeCount())
	onStack := make(map[string]bool)

	for _, start := range g.Nodes() {
		if visited[start] {
			continue
		}
		visited[start] = true
		onStack[start] = true
		stack := []*frame{{v: start, out: g.OutEdges(start)}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next == len(top.out) {
				onStack[top.v] = false
				stack = stack[:len(stack)-1]
				continue
			}
			e := top.out[top.next]
			top.next++
			switch {
			case e.V == e.W:
			case onStack[e.W]:
				fas = append(fas, e)
			case !visited[e.W]:
				visited[e.W] = true
				onStack[e.W] = true
				stack = append(stack, &frame{v: e.W, out: g.OutEdges(e.W)})
			}
		}
	}
	return fas
}

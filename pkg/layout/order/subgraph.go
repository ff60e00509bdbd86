package order

import "github.com/matzehuels/strata/pkg/graph"

// sortSubgraph orders the children of v in the layer graph. Child subgraphs
// are sorted first and contribute their aggregate barycenter to their own
// entry; compound nodes are then framed by their left and right border nodes.
// Recursion depth is bounded by the depth of the containment tree.
func sortSubgraph(lg *layerGraph, v string, cg *graph.Graph, biasRight bool) sortResult {
	movable := lg.g.Children(v)
	bl, br := lg.borders(v)
	if bl != "" {
		filtered := movable[:0:0]
		for _, w := range movable {
			if w != bl && w != br {
				filtered = append(filtered, w)
			}
		}
		movable = filtered
	}

	entries := barycenters(lg.g, movable)
	subgraphs := make(map[string]sortResult)
	for _, e := range entries {
		w := e.vs[0]
		if !lg.g.HasChildren(w) {
			continue
		}
		sub := sortSubgraph(lg, w, cg, biasRight)
		subgraphs[w] = sub
		if sub.hasBary {
			mergeBarycenters(e, sub)
		}
	}

	resolved := resolveConflicts(entries, cg)
	for _, e := range resolved {
		var vs []string
		for _, w := range e.vs {
			if sub, ok := subgraphs[w]; ok {
				vs = append(vs, sub.vs...)
			} else {
				vs = append(vs, w)
			}
		}
		e.vs = vs
	}

	result := sortEntries(resolved, biasRight)

	if bl != "" {
		vs := make([]string, 0, len(result.vs)+2)
		vs = append(vs, bl)
		vs = append(vs, result.vs...)
		result.vs = append(vs, br)

		blPreds, brPreds := lg.g.Predecessors(bl), lg.g.Predecessors(br)
		if len(blPreds) > 0 && len(brPreds) > 0 {
			blPred := lg.g.Node(blPreds[0])
			brPred := lg.g.Node(brPreds[0])
			if !result.hasBary {
				result.barycenter, result.weight = 0, 0
			}
			result.barycenter = (result.barycenter*float64(result.weight) +
				float64(blPred.Order+brPred.Order)) / float64(result.weight+2)
			result.weight += 2
			result.hasBary = true
		}
	}
	return result
}

func mergeBarycenters(target *entry, other sortResult) {
	if target.hasBary {
		weight := target.weight + other.weight
		target.barycenter = (target.barycenter*float64(target.weight) +
			other.barycenter*float64(other.weight)) / float64(weight)
		target.weight = weight
		return
	}
	target.barycenter = other.barycenter
	target.weight = other.weight
	target.hasBary = true
}

// addSubgraphConstraints records in cg the left-to-right order of sibling
// subgraphs implied by the sorted layer vs, so later layers keep it.
func addSubgraphConstraints(lg *layerGraph, cg *graph.Graph, vs []string) {
	prev := make(map[string]string)
	rootPrev := ""

	for _, v := range vs {
		child := lg.g.Parent(v)
		for child != "" {
			parent := lg.g.Parent(child)
			var prevChild string
			if parent != "" {
				prevChild = prev[parent]
				prev[parent] = child
			} else {
				prevChild = rootPrev
				rootPrev = child
			}
			if prevChild != "" && prevChild != child {
				cg.SetEdge(prevChild, child, nil)
				break
			}
			child = parent
		}
	}
}

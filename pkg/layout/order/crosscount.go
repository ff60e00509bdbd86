package order

import (
	"cmp"
	"slices"

	"github.com/matzehuels/strata/pkg/graph"
)

// CrossCount returns the weighted number of edge crossings in layering, the
// sum over every pair of adjacent ranks. Two crossing edges contribute the
// product of their weights.
func CrossCount(g *graph.Graph, layering [][]string) int {
	cc := 0
	for i := 1; i < len(layering); i++ {
		cc += twoLayerCrossCount(g, layering[i-1], layering[i])
	}
	return cc
}

// twoLayerCrossCount counts weighted inversions of south positions with a
// Fenwick tree, after ordering the edges by north position and then south
// position.
func twoLayerCrossCount(g *graph.Graph, north, south []string) int {
	if len(north) == 0 || len(south) == 0 {
		return 0
	}
	southPos := graph.PosMap(south)

	type edge struct{ north, south, weight int }
	var edges []edge
	for i, v := range north {
		for _, e := range g.OutEdges(v) {
			if pos, ok := southPos[e.W]; ok {
				edges = append(edges, edge{i, pos, g.EdgeByKey(e).Weight})
			}
		}
	}
	if len(edges) < 2 {
		return 0
	}
	slices.SortStableFunc(edges, func(a, b edge) int {
		if c := cmp.Compare(a.north, b.north); c != 0 {
			return c
		}
		return cmp.Compare(a.south, b.south)
	})

	fenwick := make([]int, len(south)+1)
	crossings, total := 0, 0
	for _, e := range edges {
		// Weight already placed at or left of e.south.
		lessOrEqual := 0
		for q := e.south + 1; q > 0; q -= q & (-q) {
			lessOrEqual += fenwick[q]
		}
		crossings += e.weight * (total - lessOrEqual)

		total += e.weight
		for idx := e.south + 1; idx < len(fenwick); idx += idx & (-idx) {
			fenwick[idx] += e.weight
		}
	}
	return crossings
}

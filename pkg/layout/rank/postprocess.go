package rank

import "github.com/matzehuels/strata/pkg/graph"

// Normalize shifts every rank so that the smallest is 0. Compound nodes are
// not ranked and are left alone.
func Normalize(g *graph.Graph) {
	first := true
	minRank := 0
	for _, v := range g.Nodes() {
		if g.HasChildren(v) {
			continue
		}
		if r := g.Node(v).Rank; first || r < minRank {
			minRank, first = r, false
		}
	}
	if minRank == 0 {
		return
	}
	for _, v := range g.Nodes() {
		if !g.HasChildren(v) {
			g.Node(v).Rank -= minRank
		}
	}
}

// RemoveEmptyRanks closes gaps in the ranking. An empty rank is removed
// unless its offset from the lowest rank is a multiple of
// GraphLabel.NodeRankFactor; those ranks are reserved for subgraph borders
// and keep compound nodes evenly spaced.
func RemoveEmptyRanks(g *graph.Graph) {
	var ranked []string
	for _, v := range g.Nodes() {
		if !g.HasChildren(v) {
			ranked = append(ranked, v)
		}
	}
	if len(ranked) == 0 {
		return
	}

	offset, top := g.Node(ranked[0]).Rank, g.Node(ranked[0]).Rank
	for _, v := range ranked[1:] {
		r := g.Node(v).Rank
		offset = min(offset, r)
		top = max(top, r)
	}

	layers := make([][]string, top-offset+1)
	for _, v := range ranked {
		i := g.Node(v).Rank - offset
		layers[i] = append(layers[i], v)
	}

	factor := g.Label().NodeRankFactor
	delta := 0
	for i, vs := range layers {
		switch {
		case len(vs) == 0 && (factor <= 0 || i%factor != 0):
			delta--
		case len(vs) > 0 && delta != 0:
			for _, v := range vs {
				g.Node(v).Rank += delta
			}
		}
	}
}

// AssignMinMax copies the ranks of each compound node's top and bottom
// borders into its MinRank and MaxRank and records the largest of them in
// GraphLabel.MaxRank.
func AssignMinMax(g *graph.Graph) {
	maxRank := 0
	for _, v := range g.Nodes() {
		n := g.Node(v)
		if n.BorderTop == "" {
			continue
		}
		n.MinRank = g.Node(n.BorderTop).Rank
		n.MaxRank = g.Node(n.BorderBottom).Rank
		n.HasRankRange = true
		maxRank = max(maxRank, n.MaxRank)
	}
	g.Label().MaxRank = maxRank
}

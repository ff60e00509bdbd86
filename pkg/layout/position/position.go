// Package position assigns canvas coordinates to a ranked and ordered layout
// graph. Y follows from the ranks: each rank is as tall as its tallest node
// and ranks are RankSep apart. X comes from the Brandes–Köpf algorithm
// ("Fast and Simple Horizontal Coordinate Assignment"), run in all four
// combinations of vertical and horizontal direction and balanced.
package position

import "github.com/matzehuels/strata/pkg/graph"

// Run sets X and Y on every non-compound node of g.
func Run(g *graph.Graph) {
	nc := g.NonCompound()
	positionY(nc)
	for v, x := range positionX(nc) {
		nc.Node(v).X = x
	}
}

func positionY(g *graph.Graph) {
	rankSep := g.Label().RankSep
	prevY := 0.0
	for _, layer := range graph.LayerMatrix(g) {
		maxHeight := 0.0
		for _, v := range layer {
			maxHeight = max(maxHeight, g.Node(v).Height)
		}
		for _, v := range layer {
			g.Node(v).Y = prevY + maxHeight/2
		}
		prevY += maxHeight + rankSep
	}
}

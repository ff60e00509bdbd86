package position

import (
	"cmp"
	"math"
	"slices"

	"github.com/matzehuels/strata/pkg/graph"
)

// conflicts is a symmetric set of node pairs whose joining edge must not be
// used for vertical alignment.
type conflicts map[[2]string]struct{}

func (c conflicts) add(v, w string) {
	if v > w {
		v, w = w, v
	}
	c[[2]string{v, w}] = struct{}{}
}

func (c conflicts) has(v, w string) bool {
	if v > w {
		v, w = w, v
	}
	_, ok := c[[2]string{v, w}]
	return ok
}

// findType1Conflicts marks non-inner segments that cross an inner segment.
// An inner segment is an edge between two dummy nodes. Each layer is scanned
// left to right; whenever a node on an inner segment (or the last node) is
// reached, the predecessors of the nodes scanned so far are checked against
// the span between the previous and the current inner segment.
func findType1Conflicts(g *graph.Graph, layering [][]string, c conflicts) {
	for li := 1; li < len(layering); li++ {
		prevLayer, layer := layering[li-1], layering[li]
		if len(layer) == 0 {
			continue
		}
		k0, scanPos := 0, 0
		lastNode := layer[len(layer)-1]

		for i, v := range layer {
			w := otherInnerSegmentNode(g, v)
			k1 := len(prevLayer)
			if w != "" {
				k1 = g.Node(w).Order
			}
			if w == "" && v != lastNode {
				continue
			}
			for _, scanNode := range layer[scanPos : i+1] {
				scanDummy := g.Node(scanNode).Dummy.IsDummy()
				for _, u := range g.Predecessors(scanNode) {
					ul := g.Node(u)
					if (ul.Order < k0 || k1 < ul.Order) && !(ul.Dummy.IsDummy() && scanDummy) {
						c.add(u, scanNode)
					}
				}
			}
			scanPos = i + 1
			k0 = k1
		}
	}
}

// findType2Conflicts marks inner segments that cross an inner segment
// bounded by compound border nodes.
func findType2Conflicts(g *graph.Graph, layering [][]string, c conflicts) {
	scan := func(south []string, from, to, prevNorthBorder, nextNorthBorder int) {
		for _, v := range south[from:to] {
			if !g.Node(v).Dummy.IsDummy() {
				continue
			}
			for _, u := range g.Predecessors(v) {
				un := g.Node(u)
				if un.Dummy.IsDummy() && (un.Order < prevNorthBorder || un.Order > nextNorthBorder) {
					c.add(u, v)
				}
			}
		}
	}

	for li := 1; li < len(layering); li++ {
		north, south := layering[li-1], layering[li]
		prevNorthPos, nextNorthPos, southPos := -1, 0, 0
		haveNext := false

		for southLookahead, v := range south {
			if g.Node(v).Dummy == graph.DummyBorder {
				if preds := g.Predecessors(v); len(preds) > 0 {
					nextNorthPos = g.Node(preds[0]).Order
					haveNext = true
					scan(south, southPos, southLookahead, prevNorthPos, nextNorthPos)
					southPos = southLookahead
					prevNorthPos = nextNorthPos
				}
			}
			if haveNext {
				scan(south, southPos, len(south), nextNorthPos, len(north))
			}
		}
	}
}

func otherInnerSegmentNode(g *graph.Graph, v string) string {
	if !g.Node(v).Dummy.IsDummy() {
		return ""
	}
	for _, u := range g.Predecessors(v) {
		if g.Node(u).Dummy.IsDummy() {
			return u
		}
	}
	return ""
}

// verticalAlignment groups nodes into blocks, aligning each node with a
// median neighbor unless the edge is in conflict or the neighbor lies left of
// a neighbor already aligned in this layer.
func verticalAlignment(layering [][]string, c conflicts, neighbors func(string) []string) (root, align map[string]string) {
	root = make(map[string]string)
	align = make(map[string]string)
	pos := make(map[string]int)

	// Positions come from the layering, which may be flipped relative to
	// the graph's Order.
	for _, layer := range layering {
		for order, v := range layer {
			root[v] = v
			align[v] = v
			pos[v] = order
		}
	}

	for _, layer := range layering {
		prevIdx := -1
		for _, v := range layer {
			ws := neighbors(v)
			if len(ws) == 0 {
				continue
			}
			slices.SortStableFunc(ws, func(a, b string) int { return cmp.Compare(pos[a], pos[b]) })
			mp := float64(len(ws)-1) / 2
			for i := int(math.Floor(mp)); i <= int(math.Ceil(mp)); i++ {
				w := ws[i]
				if align[v] == v && prevIdx < pos[w] && !c.has(v, w) {
					align[w] = v
					root[v] = root[w]
					align[v] = root[v]
					prevIdx = pos[w]
				}
			}
		}
	}
	return root, align
}

// blockGraph has one node per block root and an edge between blocks that
// are adjacent in some layer, weighted with their minimum separation.
type blockGraph struct {
	nodes []string
	seen  map[string]bool
	in    map[string][]string
	out   map[string][]string
	sep   map[[2]string]float64
}

func buildBlockGraph(g *graph.Graph, layering [][]string, root map[string]string, reverseSep bool) *blockGraph {
	bg := &blockGraph{
		seen: make(map[string]bool),
		in:   make(map[string][]string),
		out:  make(map[string][]string),
		sep:  make(map[[2]string]float64),
	}
	label := g.Label()
	for _, layer := range layering {
		u := ""
		for _, v := range layer {
			vRoot := root[v]
			if !bg.seen[vRoot] {
				bg.seen[vRoot] = true
				bg.nodes = append(bg.nodes, vRoot)
			}
			if u != "" {
				uRoot := root[u]
				key := [2]string{uRoot, vRoot}
				s := separation(g, v, u, label.NodeSep, label.EdgeSep, reverseSep)
				if prev, ok := bg.sep[key]; ok {
					bg.sep[key] = max(s, prev)
				} else {
					bg.sep[key] = s
					bg.out[uRoot] = append(bg.out[uRoot], vRoot)
					bg.in[vRoot] = append(bg.in[vRoot], uRoot)
				}
			}
			u = v
		}
	}
	return bg
}

// separation is the minimum distance between the centers of v and its left
// neighbor w. Edge-label dummies are offset towards their label side.
func separation(g *graph.Graph, v, w string, nodeSep, edgeSep float64, reverseSep bool) float64 {
	vl, wl := g.Node(v), g.Node(w)
	sum := vl.Width / 2

	var delta float64
	switch vl.LabelPos {
	case graph.LabelLeft:
		delta = -vl.Width / 2
	case graph.LabelRight:
		delta = vl.Width / 2
	}
	if reverseSep {
		sum += delta
	} else {
		sum -= delta
	}

	if vl.Dummy.IsDummy() {
		sum += edgeSep / 2
	} else {
		sum += nodeSep / 2
	}
	if wl.Dummy.IsDummy() {
		sum += edgeSep / 2
	} else {
		sum += nodeSep / 2
	}

	sum += wl.Width / 2
	delta = 0
	switch wl.LabelPos {
	case graph.LabelLeft:
		delta = wl.Width / 2
	case graph.LabelRight:
		delta = -wl.Width / 2
	}
	if reverseSep {
		sum += delta
	} else {
		sum -= delta
	}
	return sum
}

// horizontalCompaction places the blocks in two sweeps over the block graph:
// the first gives every block the smallest coordinate its left neighbors
// allow, the second moves blocks right into unused space, except border
// blocks on the side the sweep is biased away from.
func horizontalCompaction(g *graph.Graph, layering [][]string, root, align map[string]string, reverseSep bool) map[string]float64 {
	bg := buildBlockGraph(g, layering, root, reverseSep)
	borderType := graph.BorderRight
	if reverseSep {
		borderType = graph.BorderLeft
	}
	xs := make(map[string]float64, len(bg.nodes))

	// iterate visits the block graph depth first along next, calling set on
	// a node once everything reachable from it has been set.
	iterate := func(set func(string), next map[string][]string) {
		stack := slices.Clone(bg.nodes)
		visited := make(map[string]bool, len(bg.nodes))
		for len(stack) > 0 {
			elem := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[elem] {
				set(elem)
				continue
			}
			visited[elem] = true
			stack = append(stack, elem)
			stack = append(stack, next[elem]...)
		}
	}

	iterate(func(elem string) {
		x := 0.0
		for _, u := range bg.in[elem] {
			x = max(x, xs[u]+bg.sep[[2]string{u, elem}])
		}
		xs[elem] = x
	}, bg.in)

	iterate(func(elem string) {
		m := math.Inf(1)
		for _, w := range bg.out[elem] {
			m = min(m, xs[w]-bg.sep[[2]string{elem, w}])
		}
		if !math.IsInf(m, 1) && g.Node(elem).BorderType != borderType {
			xs[elem] = max(xs[elem], m)
		}
	}, bg.out)

	out := make(map[string]float64, len(align))
	for v := range align {
		out[v] = xs[root[v]]
	}
	return out
}

// alignments are indexed ul, ur, dl, dr.
var alignments = [4]graph.Align{graph.AlignUL, graph.AlignUR, graph.AlignDL, graph.AlignDR}

// findSmallestWidthAlignment returns the index of the narrowest alignment.
func findSmallestWidthAlignment(g *graph.Graph, xss [4]map[string]float64) int {
	best, bestWidth := 0, math.Inf(1)
	for i, xs := range xss {
		lo, hi := math.Inf(1), math.Inf(-1)
		for v, x := range xs {
			half := g.Node(v).Width / 2
			hi = max(hi, x+half)
			lo = min(lo, x-half)
		}
		if w := hi - lo; w < bestWidth {
			best, bestWidth = i, w
		}
	}
	return best
}

func extent(xs map[string]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return lo, hi
}

// alignCoordinates shifts the left-biased alignments so their minimum
// matches that of xss[to], and the right-biased ones so their maximum does.
func alignCoordinates(xss *[4]map[string]float64, to int) {
	toMin, toMax := extent(xss[to])
	for i, xs := range xss {
		if i == to {
			continue
		}
		lo, hi := extent(xs)
		delta := toMin - lo
		if alignments[i] == graph.AlignUR || alignments[i] == graph.AlignDR {
			delta = toMax - hi
		}
		if delta == 0 {
			continue
		}
		for v := range xs {
			xs[v] += delta
		}
	}
}

// balance returns the forced alignment's coordinates, or else the average of
// the two median candidates for each node.
func balance(xss [4]map[string]float64, align graph.Align) map[string]float64 {
	out := make(map[string]float64, len(xss[0]))
	if i := slices.Index(alignments[:], align); align != graph.AlignNone && i >= 0 {
		for v := range xss[0] {
			out[v] = xss[i][v]
		}
		return out
	}
	for v := range xss[0] {
		cand := [4]float64{xss[0][v], xss[1][v], xss[2][v], xss[3][v]}
		slices.Sort(cand[:])
		out[v] = (cand[1] + cand[2]) / 2
	}
	return out
}

func reversed[T any](s []T) []T {
	out := slices.Clone(s)
	slices.Reverse(out)
	return out
}

// positionX computes the x coordinate of every node in the non-compound
// graph g.
func positionX(g *graph.Graph) map[string]float64 {
	layering := graph.LayerMatrix(g)
	c := make(conflicts)
	findType1Conflicts(g, layering, c)
	findType2Conflicts(g, layering, c)

	var xss [4]map[string]float64
	for i, a := range alignments {
		up := a == graph.AlignUL || a == graph.AlignUR
		right := a == graph.AlignUR || a == graph.AlignDR

		adjusted := layering
		if !up {
			adjusted = reversed(layering)
		}
		if right {
			flipped := make([][]string, len(adjusted))
			for j, layer := range adjusted {
				flipped[j] = reversed(layer)
			}
			adjusted = flipped
		}

		neighbors := g.Predecessors
		if !up {
			neighbors = g.Successors
		}
		root, align := verticalAlignment(adjusted, c, neighbors)
		xs := horizontalCompaction(g, adjusted, root, align, right)
		if right {
			for v, x := range xs {
				xs[v] = -x
			}
		}
		xss[i] = xs
	}

	alignCoordinates(&xss, findSmallestWidthAlignment(g, xss))
	return balance(xss, g.Label().Align)
}

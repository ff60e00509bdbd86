// Package nesting builds the nesting graph of Sander's "Layout of Compound
// Directed Graphs": border dummies for the top and bottom of every compound
// node, constraint edges that keep descendants between those borders, and a
// synthetic root that makes the graph connected.
//
// [Run] must be called on an acyclic graph whose edges all carry Minlen.
// Afterwards the graph is connected, every compound node has BorderTop and
// BorderBottom set, and all minlen values are scaled so that content ranks
// and border ranks never coincide. [Cleanup] removes the root and every edge
// tagged NestingEdge once ranks are assigned.
package nesting

import "github.com/matzehuels/strata/pkg/graph"

// Run inserts the nesting structure into g and records the root in
// GraphLabel.NestingRoot and the minlen multiplier in
// GraphLabel.NodeRankFactor.
func Run(g *graph.Graph) {
	root := g.AddDummyNode(graph.DummyRoot, nil, "_root")
	depths := treeDepths(g)

	maxDepth := 0
	for _, d := range depths {
		maxDepth = max(maxDepth, d)
	}
	height := maxDepth - 1
	nodeSep := 2*height + 1

	label := g.Label()
	label.NestingRoot = root

	weight := 1
	for _, e := range g.Edges() {
		el := g.EdgeByKey(e)
		el.Minlen *= nodeSep
		weight += el.Weight
	}

	b := &builder{g: g, root: root, nodeSep: nodeSep, weight: weight, height: height, depths: depths}
	for _, child := range g.Children("") {
		b.visit(child)
	}

	label.NodeRankFactor = nodeSep
}

// Cleanup removes the nesting root and all nesting edges.
func Cleanup(g *graph.Graph) {
	label := g.Label()
	g.RemoveNode(label.NestingRoot)
	label.NestingRoot = ""
	for _, e := range g.Edges() {
		if g.EdgeByKey(e).NestingEdge {
			g.RemoveEdge(e)
		}
	}
}

type builder struct {
	g       *graph.Graph
	root    string
	nodeSep int
	weight  int
	height  int
	depths  map[string]int
}

// visit walks the containment subtree under v. Each compound node gets its
// borders on entry; the edges to a child are added once the child's own
// subtree is finished, and top-level compounds are tied to the root on exit.
func (b *builder) visit(v string) {
	type frame struct {
		v        string
		children []string
		next     int
	}

	var stack []*frame
	enter := func(v string) {
		children := b.g.Children(v)
		if len(children) == 0 {
			if v != b.root {
				b.g.SetEdge(b.root, v, &graph.EdgeLabel{Weight: 0, Minlen: b.nodeSep})
			}
			return
		}
		top := b.g.AddDummyNode(graph.DummyBorder, nil, "_bt")
		bottom := b.g.AddDummyNode(graph.DummyBorder, nil, "_bb")
		label := b.g.Node(v)
		_ = b.g.SetParent(top, v)
		label.BorderTop = top
		_ = b.g.SetParent(bottom, v)
		label.BorderBottom = bottom
		stack = append(stack, &frame{v: v, children: children})
	}

	enter(v)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.next > 0 {
			b.link(f.v, f.children[f.next-1])
		}
		if f.next < len(f.children) {
			child := f.children[f.next]
			f.next++
			enter(child)
			continue
		}
		if b.g.Parent(f.v) == "" {
			b.g.SetEdge(b.root, b.g.Node(f.v).BorderTop, &graph.EdgeLabel{
				Weight: 0,
				Minlen: b.height + b.depths[f.v],
			})
		}
		stack = stack[:len(stack)-1]
	}
}

// link adds the nesting edges that keep child between the borders of parent.
func (b *builder) link(parent, child string) {
	p := b.g.Node(parent)
	c := b.g.Node(child)

	childTop, childBottom := child, child
	weight := 2 * b.weight
	if c.BorderTop != "" {
		childTop, childBottom = c.BorderTop, c.BorderBottom
		weight = b.weight
	}
	// A leaf sits height-depth(parent)+1 ranks inside the borders, which is
	// always at least 1.
	minlen := 1
	if childTop == childBottom {
		minlen = b.height - b.depths[parent] + 1
	}

	b.g.SetEdge(p.BorderTop, childTop, &graph.EdgeLabel{Weight: weight, Minlen: minlen, NestingEdge: true})
	b.g.SetEdge(childBottom, p.BorderBottom, &graph.EdgeLabel{Weight: weight, Minlen: minlen, NestingEdge: true})
}

// treeDepths returns the depth of every node in the containment tree, with
// top-level nodes at depth 1.
func treeDepths(g *graph.Graph) map[string]int {
	depths := make(map[string]int, g.NodeCount())
	type item struct {
		v     string
		depth int
	}
	var stack []item
	for _, v := range g.Children("") {
		stack = append(stack, item{v, 1})
	}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		depths[it.v] = it.depth
		for _, c := range g.Children(it.v) {
			stack = append(stack, item{c, it.depth + 1})
		}
	}
	return depths
}

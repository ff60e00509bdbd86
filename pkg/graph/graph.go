package graph

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrInvalidNodeID is returned when a node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrNotCompound is returned by [Graph.SetParent] on a graph created
	// without [Options.Compound].
	ErrNotCompound = errors.New("graph is not compound")

	// ErrParentCycle is returned by [Graph.SetParent] when the new parent is
	// the node itself or one of its descendants.
	ErrParentCycle = errors.New("parent assignment would create a cycle")
)

// EdgeKey identifies an edge by its ordered endpoints and an optional name.
// Only multigraphs use Name; simple graphs always key edges with Name "".
type EdgeKey struct {
	V    string
	W    string
	Name string
}

func (k EdgeKey) String() string {
	if k.Name == "" {
		return k.V + "->" + k.W
	}
	return k.V + "->" + k.W + " (" + k.Name + ")"
}

// Options configures a new [Graph].
type Options struct {
	// Multigraph allows several edges between the same ordered pair of
	// nodes, distinguished by name.
	Multigraph bool
	// Compound enables the parent/child containment tree.
	Compound bool
}

// Graph is a mutable directed graph with optional multi-edges and an
// optional containment tree. Node and edge labels are stored by pointer and
// may be shared between graphs derived from each other (see [Graph.Simplify]
// and [Graph.NonCompound]), which is how layout phases that run on derived
// views write their results back.
//
// Iteration over nodes, edges and adjacency follows insertion order, so every
// algorithm built on a Graph is deterministic.
//
// The zero value is not usable - use New. A Graph is not safe for concurrent
// use.
type Graph struct {
	opts  Options
	label *GraphLabel

	nodes *ordered[string, *NodeLabel]
	edges *ordered[EdgeKey, *EdgeLabel]
	in    map[string]*ordered[EdgeKey, struct{}]
	out   map[string]*ordered[EdgeKey, struct{}]

	parent   map[string]string
	children map[string]*ordered[string, struct{}]

	seq int
}

// New creates an empty graph.
func New(opts Options) *Graph {
	g := &Graph{
		opts:  opts,
		label: &GraphLabel{},
		nodes: newOrdered[string, *NodeLabel](),
		edges: newOrdered[EdgeKey, *EdgeLabel](),
		in:    make(map[string]*ordered[EdgeKey, struct{}]),
		out:   make(map[string]*ordered[EdgeKey, struct{}]),
	}
	if opts.Compound {
		g.parent = make(map[string]string)
		g.children = map[string]*ordered[string, struct{}]{"": newOrdered[string, struct{}]()}
	}
	return g
}

func (g *Graph) IsMultigraph() bool { return g.opts.Multigraph }
func (g *Graph) IsCompound() bool   { return g.opts.Compound }

// Label returns the graph level label. It is never nil.
func (g *Graph) Label() *GraphLabel { return g.label }

// SetLabel replaces the graph level label. A nil label is ignored.
func (g *Graph) SetLabel(l *GraphLabel) {
	if l != nil {
		g.label = l
	}
}

// UniqueID returns prefix followed by a number that is unique for this graph.
// The counter belongs to the graph, so independent layouts never share state.
func (g *Graph) UniqueID(prefix string) string {
	g.seq++
	return prefix + strconv.Itoa(g.seq)
}

// AddDummyNode inserts a node of the given kind under a fresh ID derived from
// prefix and returns that ID.
func (g *Graph) AddDummyNode(kind DummyKind, label *NodeLabel, prefix string) string {
	if label == nil {
		label = &NodeLabel{}
	}
	v := g.UniqueID(prefix)
	for g.HasNode(v) {
		v = g.UniqueID(prefix)
	}
	label.Dummy = kind
	g.SetNode(v, label)
	return v
}

// SetNode adds v or replaces its label. A nil label on a new node creates an
// empty one; a nil label on an existing node keeps the current label.
func (g *Graph) SetNode(v string, label *NodeLabel) {
	if cur, ok := g.nodes.get(v); ok {
		if label != nil && label != cur {
			g.nodes.set(v, label)
		}
		return
	}
	if label == nil {
		label = &NodeLabel{}
	}
	g.nodes.set(v, label)
	g.in[v] = newOrdered[EdgeKey, struct{}]()
	g.out[v] = newOrdered[EdgeKey, struct{}]()
	if g.opts.Compound {
		g.parent[v] = ""
		g.children[v] = newOrdered[string, struct{}]()
		g.children[""].set(v, struct{}{})
	}
}

// Node returns the label of v, or nil if v is not in the graph.
func (g *Graph) Node(v string) *NodeLabel {
	l, _ := g.nodes.get(v)
	return l
}

func (g *Graph) HasNode(v string) bool { return g.nodes.has(v) }

// Nodes returns all node IDs in insertion order.
func (g *Graph) Nodes() []string { return g.nodes.list() }

func (g *Graph) NodeCount() int { return g.nodes.len() }

// RemoveNode deletes v, its incident edges, and moves its children to the
// root of the containment tree.
func (g *Graph) RemoveNode(v string) {
	if !g.nodes.has(v) {
		return
	}
	if g.opts.Compound {
		for _, c := range g.children[v].list() {
			g.reparent(c, "")
		}
		g.children[g.parent[v]].del(v)
		delete(g.parent, v)
		delete(g.children, v)
	}
	for _, e := range g.in[v].list() {
		g.RemoveEdge(e)
	}
	for _, e := range g.out[v].list() {
		g.RemoveEdge(e)
	}
	delete(g.in, v)
	delete(g.out, v)
	g.nodes.del(v)
}

// SetParent moves v under parent in the containment tree. An empty parent
// moves v to the root. Missing nodes are created.
func (g *Graph) SetParent(v, parent string) error {
	if !g.opts.Compound {
		return ErrNotCompound
	}
	if v == "" {
		return ErrInvalidNodeID
	}
	if parent != "" {
		for anc := parent; anc != ""; anc = g.parent[anc] {
			if anc == v {
				return fmt.Errorf("set parent of %s to %s: %w", v, parent, ErrParentCycle)
			}
		}
		g.SetNode(parent, nil)
	}
	g.SetNode(v, nil)
	g.reparent(v, parent)
	return nil
}

func (g *Graph) reparent(v, parent string) {
	g.children[g.parent[v]].del(v)
	g.parent[v] = parent
	g.children[parent].set(v, struct{}{})
}

// Parent returns the parent of v, or "" for top-level nodes and simple graphs.
func (g *Graph) Parent(v string) string {
	if !g.opts.Compound {
		return ""
	}
	return g.parent[v]
}

// Children returns the children of v in insertion order. Children("")
// returns the top-level nodes. On a simple graph Children("") returns every
// node and any other call returns nil.
func (g *Graph) Children(v string) []string {
	if !g.opts.Compound {
		if v == "" {
			return g.Nodes()
		}
		return nil
	}
	c, ok := g.children[v]
	if !ok {
		return nil
	}
	return c.list()
}

// HasChildren reports whether v is a compound node.
func (g *Graph) HasChildren(v string) bool {
	if !g.opts.Compound {
		return false
	}
	c, ok := g.children[v]
	return ok && c.len() > 0
}

// SetEdge adds or updates the unnamed edge v→w. Missing endpoints are created.
func (g *Graph) SetEdge(v, w string, label *EdgeLabel) EdgeKey {
	return g.SetEdgeKey(EdgeKey{V: v, W: w}, label)
}

// SetNamedEdge adds or updates the edge v→w with the given name. The name is
// dropped on simple graphs.
func (g *Graph) SetNamedEdge(v, w, name string, label *EdgeLabel) EdgeKey {
	return g.SetEdgeKey(EdgeKey{V: v, W: w, Name: name}, label)
}

// SetEdgeKey adds or updates the edge identified by k. A nil label on a new
// edge creates one with weight 1 and minlen 1.
func (g *Graph) SetEdgeKey(k EdgeKey, label *EdgeLabel) EdgeKey {
	if !g.opts.Multigraph {
		k.Name = ""
	}
	if cur, ok := g.edges.get(k); ok {
		if label != nil && label != cur {
			g.edges.set(k, label)
		}
		return k
	}
	if label == nil {
		label = &EdgeLabel{Weight: 1, Minlen: 1}
	}
	g.SetNode(k.V, nil)
	g.SetNode(k.W, nil)
	g.edges.set(k, label)
	g.out[k.V].set(k, struct{}{})
	g.in[k.W].set(k, struct{}{})
	return k
}

// Edge returns the label of the unnamed edge v→w, or nil.
func (g *Graph) Edge(v, w string) *EdgeLabel {
	return g.EdgeByKey(EdgeKey{V: v, W: w})
}

// EdgeByKey returns the label of the edge k, or nil.
func (g *Graph) EdgeByKey(k EdgeKey) *EdgeLabel {
	l, _ := g.edges.get(k)
	return l
}

func (g *Graph) HasEdge(v, w string) bool { return g.edges.has(EdgeKey{V: v, W: w}) }

func (g *Graph) HasEdgeKey(k EdgeKey) bool { return g.edges.has(k) }

// RemoveEdge deletes the edge k if present.
func (g *Graph) RemoveEdge(k EdgeKey) {
	if !g.edges.del(k) {
		return
	}
	g.out[k.V].del(k)
	g.in[k.W].del(k)
}

// Edges returns all edge keys in insertion order.
func (g *Graph) Edges() []EdgeKey { return g.edges.list() }

func (g *Graph) EdgeCount() int { return g.edges.len() }

// InEdges returns the edges whose head is v.
func (g *Graph) InEdges(v string) []EdgeKey {
	if s, ok := g.in[v]; ok {
		return s.list()
	}
	return nil
}

// OutEdges returns the edges whose tail is v.
func (g *Graph) OutEdges(v string) []EdgeKey {
	if s, ok := g.out[v]; ok {
		return s.list()
	}
	return nil
}

// OutEdgesTo returns the edges from v to w, including every named parallel edge.
func (g *Graph) OutEdgesTo(v, w string) []EdgeKey {
	var out []EdgeKey
	for _, e := range g.OutEdges(v) {
		if e.W == w {
			out = append(out, e)
		}
	}
	return out
}

// NodeEdges returns the in-edges of v followed by its out-edges.
func (g *Graph) NodeEdges(v string) []EdgeKey {
	return append(g.InEdges(v), g.OutEdges(v)...)
}

// Predecessors returns the distinct tails of the in-edges of v.
func (g *Graph) Predecessors(v string) []string {
	return distinct(g.InEdges(v), func(e EdgeKey) string { return e.V })
}

// Successors returns the distinct heads of the out-edges of v.
func (g *Graph) Successors(v string) []string {
	return distinct(g.OutEdges(v), func(e EdgeKey) string { return e.W })
}

// Neighbors returns predecessors followed by successors, without duplicates.
func (g *Graph) Neighbors(v string) []string {
	return distinct(g.NodeEdges(v), func(e EdgeKey) string {
		if e.V == v {
			return e.W
		}
		return e.V
	})
}

func (g *Graph) InDegree(v string) int {
	if s, ok := g.in[v]; ok {
		return s.len()
	}
	return 0
}

func (g *Graph) OutDegree(v string) int {
	if s, ok := g.out[v]; ok {
		return s.len()
	}
	return 0
}

// Sources returns nodes without in-edges.
func (g *Graph) Sources() []string {
	var out []string
	for _, v := range g.Nodes() {
		if g.InDegree(v) == 0 {
			out = append(out, v)
		}
	}
	return out
}

func distinct(edges []EdgeKey, pick func(EdgeKey) string) []string {
	if len(edges) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(edges))
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		u := pick(e)
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

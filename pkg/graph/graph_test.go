package graph

import (
	"errors"
	"fmt"
	"slices"
	"testing"
)

func TestSetNodeAndEdges(t *testing.T) {
	g := New(Options{})
	g.SetNode("a", &NodeLabel{Width: 10})
	g.SetEdge("a", "b", nil)
	g.SetEdge("a", "c", nil)

	if got := g.Nodes(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Nodes() = %v", got)
	}
	if g.Node("a").Width != 10 {
		t.Error("explicit label lost")
	}
	if l := g.Edge("a", "b"); l == nil || l.Weight != 1 || l.Minlen != 1 {
		t.Errorf("default edge label = %+v", l)
	}

	// A nil label keeps the existing one.
	g.SetNode("a", nil)
	if g.Node("a").Width != 10 {
		t.Error("SetNode(nil) replaced the label")
	}

	if got := g.Successors("a"); !slices.Equal(got, []string{"b", "c"}) {
		t.Errorf("Successors(a) = %v", got)
	}
	if got := g.Predecessors("c"); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Predecessors(c) = %v", got)
	}
	if got := g.Sources(); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Sources() = %v", got)
	}
	if g.InDegree("b") != 1 || g.OutDegree("a") != 2 {
		t.Errorf("degrees: in(b)=%d out(a)=%d", g.InDegree("b"), g.OutDegree("a"))
	}
}

func TestSimpleGraphDropsEdgeNames(t *testing.T) {
	g := New(Options{})
	k := g.SetNamedEdge("a", "b", "x", nil)
	if k.Name != "" {
		t.Errorf("simple graph kept edge name %q", k.Name)
	}
	g.SetNamedEdge("a", "b", "y", nil)
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
}

func TestMultigraph(t *testing.T) {
	g := New(Options{Multigraph: true})
	g.SetNamedEdge("a", "b", "x", &EdgeLabel{Weight: 2, Minlen: 1})
	g.SetNamedEdge("a", "b", "y", &EdgeLabel{Weight: 3, Minlen: 2})
	g.SetEdge("a", "b", nil)

	if g.EdgeCount() != 3 {
		t.Fatalf("EdgeCount() = %d, want 3", g.EdgeCount())
	}
	if got := len(g.OutEdgesTo("a", "b")); got != 3 {
		t.Errorf("OutEdgesTo = %d edges", got)
	}
	if got := g.Successors("a"); !slices.Equal(got, []string{"b"}) {
		t.Errorf("Successors(a) = %v, want distinct [b]", got)
	}

	s := g.Simplify()
	if s.EdgeCount() != 1 {
		t.Fatalf("Simplify() EdgeCount = %d", s.EdgeCount())
	}
	if l := s.Edge("a", "b"); l.Weight != 6 || l.Minlen != 2 {
		t.Errorf("merged label = %+v, want weight 6 minlen 2", l)
	}
	if s.Node("a") != g.Node("a") {
		t.Error("Simplify() should share node labels")
	}
}

func TestRemoveNode(t *testing.T) {
	g := New(Options{Compound: true})
	g.SetEdge("a", "b", nil)
	g.SetEdge("b", "c", nil)
	if err := g.SetParent("b", "p"); err != nil {
		t.Fatal(err)
	}
	if err := g.SetParent("p", "q"); err != nil {
		t.Fatal(err)
	}

	g.RemoveNode("b")
	if g.HasNode("b") || g.EdgeCount() != 0 {
		t.Errorf("node or edges left: nodes=%v edges=%v", g.Nodes(), g.Edges())
	}
	if g.HasChildren("p") {
		t.Error("p still has children")
	}

	g.RemoveNode("q")
	if g.Parent("p") != "" {
		t.Errorf("Parent(p) = %q after removing q", g.Parent("p"))
	}
	if !slices.Contains(g.Children(""), "p") {
		t.Error("p should move to the root")
	}
}

func TestSetParent(t *testing.T) {
	g := New(Options{Compound: true})
	if err := g.SetParent("a", "p"); err != nil {
		t.Fatal(err)
	}
	if g.Parent("a") != "p" || !g.HasNode("p") {
		t.Errorf("Parent(a) = %q", g.Parent("a"))
	}
	if !g.HasChildren("p") || g.HasChildren("a") {
		t.Error("HasChildren mismatch")
	}
	if err := g.SetParent("p", "a"); !errors.Is(err, ErrParentCycle) {
		t.Errorf("cycle: err = %v", err)
	}
	if err := g.SetParent("p", "p"); !errors.Is(err, ErrParentCycle) {
		t.Errorf("self parent: err = %v", err)
	}
	if err := g.SetParent("", "p"); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("empty ID: err = %v", err)
	}
	if err := New(Options{}).SetParent("a", "b"); !errors.Is(err, ErrNotCompound) {
		t.Errorf("simple graph: err = %v", err)
	}

	// Moving to the root.
	if err := g.SetParent("a", ""); err != nil {
		t.Fatal(err)
	}
	if g.Parent("a") != "" || g.HasChildren("p") {
		t.Error("a should be top-level")
	}
}

func TestNonCompound(t *testing.T) {
	g := New(Options{Compound: true, Multigraph: true})
	g.SetNamedEdge("a", "b", "x", nil)
	if err := g.SetParent("a", "p"); err != nil {
		t.Fatal(err)
	}
	nc := g.NonCompound()
	if nc.HasNode("p") {
		t.Error("compound node kept")
	}
	if !nc.HasEdgeKey(EdgeKey{V: "a", W: "b", Name: "x"}) {
		t.Error("named edge lost")
	}
	if nc.EdgeByKey(EdgeKey{V: "a", W: "b", Name: "x"}) != g.EdgeByKey(EdgeKey{V: "a", W: "b", Name: "x"}) {
		t.Error("edge labels should be shared")
	}
}

func TestAddDummyNode(t *testing.T) {
	g := New(Options{})
	g.SetNode("_d1", nil)
	v := g.AddDummyNode(DummyEdge, nil, "_d")
	if v == "_d1" {
		t.Fatal("dummy reused an existing ID")
	}
	if g.Node(v).Dummy != DummyEdge || !g.Node(v).Dummy.IsDummy() {
		t.Errorf("dummy kind = %v", g.Node(v).Dummy)
	}
	if DummyEdgeLabel.String() != "edge-label" || NotDummy.IsDummy() {
		t.Error("DummyKind names")
	}
}

func TestOrderedCompaction(t *testing.T) {
	o := newOrdered[int, string]()
	for i := range 100 {
		o.set(i, fmt.Sprint(i))
	}
	for i := 0; i < 100; i += 3 {
		o.del(i)
	}
	o.set(5, "five")

	keys := o.list()
	if len(keys) != o.len() || o.len() != 66 {
		t.Fatalf("len = %d, list = %d", o.len(), len(keys))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("order broken at %d: %v", i, keys[i-1:i+1])
		}
	}
	if v, _ := o.get(5); v != "five" {
		t.Errorf("get(5) = %q", v)
	}
	if first, _ := o.first(); first != 1 {
		t.Errorf("first() = %d", first)
	}
}

func TestLayerMatrix(t *testing.T) {
	g := New(Options{})
	g.SetNode("a", &NodeLabel{Rank: 0, Order: 0})
	g.SetNode("b", &NodeLabel{Rank: 1, Order: 1})
	g.SetNode("c", &NodeLabel{Rank: 1, Order: 0})

	layers := LayerMatrix(g)
	if len(layers) != 2 || !slices.Equal(layers[1], []string{"c", "b"}) {
		t.Errorf("LayerMatrix() = %v", layers)
	}
	if MaxRank(g) != 1 {
		t.Errorf("MaxRank() = %d", MaxRank(g))
	}
	if pos := PosMap(layers[1]); pos["b"] != 1 {
		t.Errorf("PosMap = %v", pos)
	}
}

func TestParseLabelPos(t *testing.T) {
	tests := map[string]LabelPos{"l": LabelLeft, "L": LabelLeft, "c": LabelCenter, "r": LabelRight, "": LabelRight, "x": LabelRight}
	for in, want := range tests {
		if got := ParseLabelPos(in); got != want {
			t.Errorf("ParseLabelPos(%q) = %q, want %q", in, got, want)
		}
	}
}

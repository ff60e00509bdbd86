package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
)

// Document is the wire form of an input graph.
type Document struct {
	Options *Options `json:"options,omitempty"`
	Nodes   []Node   `json:"nodes"`
	Edges   []Edge   `json:"edges"`
}

// Options are graph level layout options. Zero values fall back to the
// defaults passed with [WithDefaults], then to the engine defaults.
type Options struct {
	RankDir   string  `json:"rankdir,omitempty"`
	Align     string  `json:"align,omitempty"`
	NodeSep   float64 `json:"nodesep,omitempty"`
	EdgeSep   float64 `json:"edgesep,omitempty"`
	RankSep   float64 `json:"ranksep,omitempty"`
	MarginX   float64 `json:"marginx,omitempty"`
	MarginY   float64 `json:"marginy,omitempty"`
	Acyclicer string  `json:"acyclicer,omitempty"`
	Ranker    string  `json:"ranker,omitempty"`
}

// Node is an input node. Parent makes it a child of a compound node.
type Node struct {
	ID     string  `json:"id"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Parent string  `json:"parent,omitempty"`
}

// Edge is an input edge. Name tells apart parallel edges between the same
// pair of nodes. Weight and Minlen default to 1 when absent. A Width and
// Height reserve a label box along the edge.
type Edge struct {
	From        string   `json:"from"`
	To          string   `json:"to"`
	Name        string   `json:"name,omitempty"`
	Weight      *int     `json:"weight,omitempty"`
	Minlen      *int     `json:"minlen,omitempty"`
	Width       float64  `json:"width,omitempty"`
	Height      float64  `json:"height,omitempty"`
	LabelPos    string   `json:"labelpos,omitempty"`
	LabelOffset *float64 `json:"labeloffset,omitempty"`
}

// Layout is the wire form of a computed layout. Nodes are sorted by ID and
// edges keep the input order, so equal inputs produce byte-identical output.
type Layout struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Nodes  []LayoutNode `json:"nodes"`
	Edges  []LayoutEdge `json:"edges"`
}

// LayoutNode is a positioned node. X and Y are the center of its box.
type LayoutNode struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Rank   int     `json:"rank"`
	Parent string  `json:"parent,omitempty"`
}

// LayoutEdge is a routed edge. X and Y are the label center and are only
// present for edges with a label box or self loops.
type LayoutEdge struct {
	From   string        `json:"from"`
	To     string        `json:"to"`
	Name   string        `json:"name,omitempty"`
	Points []graph.Point `json:"points"`
	X      *float64      `json:"x,omitempty"`
	Y      *float64      `json:"y,omitempty"`
}

// FromGraph converts g back into its wire form. Options carry the effective
// graph label, so the result of FromGraph on a graph read with defaults is
// self-contained.
func FromGraph(g *graph.Graph) *Document {
	l := g.Label()
	doc := &Document{
		Options: &Options{
			RankDir:   string(l.RankDir),
			Align:     string(l.Align),
			NodeSep:   l.NodeSep,
			EdgeSep:   l.EdgeSep,
			RankSep:   l.RankSep,
			MarginX:   l.MarginX,
			MarginY:   l.MarginY,
			Acyclicer: string(l.Acyclicer),
			Ranker:    string(l.Ranker),
		},
		Nodes: make([]Node, 0, g.NodeCount()),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	for _, v := range g.Nodes() {
		n := g.Node(v)
		doc.Nodes = append(doc.Nodes, Node{ID: v, Width: n.Width, Height: n.Height, Parent: g.Parent(v)})
	}
	for _, k := range g.Edges() {
		e := g.EdgeByKey(k)
		weight, minlen := e.Weight, e.Minlen
		out := Edge{
			From:   k.V,
			To:     k.W,
			Name:   k.Name,
			Weight: &weight,
			Minlen: &minlen,
			Width:  e.Width,
			Height: e.Height,
		}
		if e.LabelPos != "" {
			out.LabelPos = string(e.LabelPos)
		}
		if e.LabelOffset != 0 {
			off := e.LabelOffset
			out.LabelOffset = &off
		}
		doc.Edges = append(doc.Edges, out)
	}
	return doc
}

// Canonical returns the compact JSON encoding of g's wire form. Two graphs
// that lay out identically have the same canonical bytes, which makes the
// result suitable as a cache key.
func Canonical(g *graph.Graph) ([]byte, error) {
	data, err := json.Marshal(FromGraph(g))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode canonical graph")
	}
	return data, nil
}

// WriteGraph encodes g as an indented input document.
func WriteGraph(g *graph.Graph, w io.Writer) error {
	return encode(w, FromGraph(g))
}

// ExportGraph writes g to a JSON file at path.
func ExportGraph(g *graph.Graph, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteGraph(g, w) })
}

// NewLayout collects the results of a finished layout run on g.
func NewLayout(g *graph.Graph) *Layout {
	l := g.Label()
	out := &Layout{
		Width:  l.Width,
		Height: l.Height,
		Nodes:  make([]LayoutNode, 0, g.NodeCount()),
		Edges:  make([]LayoutEdge, 0, g.EdgeCount()),
	}
	for _, v := range g.Nodes() {
		n := g.Node(v)
		out.Nodes = append(out.Nodes, LayoutNode{
			ID:     v,
			X:      n.X,
			Y:      n.Y,
			Width:  n.Width,
			Height: n.Height,
			Rank:   n.Rank,
			Parent: g.Parent(v),
		})
	}
	slices.SortFunc(out.Nodes, func(a, b LayoutNode) int { return strings.Compare(a.ID, b.ID) })

	for _, k := range g.Edges() {
		e := g.EdgeByKey(k)
		le := LayoutEdge{From: k.V, To: k.W, Name: k.Name, Points: slices.Clone(e.Points)}
		if le.Points == nil {
			le.Points = []graph.Point{}
		}
		if e.Placed {
			x, y := e.X, e.Y
			le.X, le.Y = &x, &y
		}
		out.Edges = append(out.Edges, le)
	}
	return out
}

// Node returns the node with the given ID, or nil.
func (l *Layout) Node(id string) *LayoutNode {
	i, ok := slices.BinarySearchFunc(l.Nodes, id, func(n LayoutNode, id string) int {
		return strings.Compare(n.ID, id)
	})
	if !ok {
		return nil
	}
	return &l.Nodes[i]
}

// WriteLayout encodes l as indented JSON.
func WriteLayout(l *Layout, w io.Writer) error {
	return encode(w, l)
}

// ExportLayout writes l to a JSON file at path.
func ExportLayout(l *Layout, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteLayout(l, w) })
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func exportFile(path string, write func(io.Writer) error) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(fileCode(err), err, "create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

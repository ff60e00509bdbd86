package io

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"os"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
)

// ReadOption configures [ReadGraph] and [ImportGraph].
type ReadOption func(*readConfig)

type readConfig struct {
	defaults graph.GraphLabel
}

// WithDefaults sets graph options used where the document leaves them
// unset. Options present in the document always win.
func WithDefaults(l graph.GraphLabel) ReadOption {
	return func(c *readConfig) { c.defaults = l }
}

// DecodeGraph decodes an input document from r without interpreting it.
// Malformed JSON yields an INVALID_FORMAT error.
func DecodeGraph(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		var mbe *http.MaxBytesError
		if stderrors.As(err, &mbe) {
			return nil, errors.Wrap(errors.ErrCodeTooLarge, err, "graph document exceeds %d bytes", mbe.Limit)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return &doc, nil
}

// ReadGraph decodes a graph document from r and builds a compound
// multigraph from it.
//
// The document is checked structurally: node IDs must be valid and unique,
// edges and parents must reference declared nodes, the parent relation must
// be a tree and (from, to, name) must be unique. Violations are
// INVALID_FORMAT errors. Option values are not checked here; the layout
// engine rejects them with INVALID_INPUT.
//
// ReadGraph does not close r.
func ReadGraph(r io.Reader, opts ...ReadOption) (*graph.Graph, error) {
	doc, err := DecodeGraph(r)
	if err != nil {
		return nil, err
	}
	return doc.Graph(opts...)
}

// ImportGraph reads a graph document from the file at path.
func ImportGraph(path string, opts ...ReadOption) (*graph.Graph, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGraph(f, opts...)
}

// Graph builds the graph described by d. See [ReadGraph] for the checks.
func (d *Document) Graph(opts ...ReadOption) (*graph.Graph, error) {
	var cfg readConfig
	for _, o := range opts {
		o(&cfg)
	}

	g := graph.New(graph.Options{Multigraph: true, Compound: true})
	label := cfg.defaults
	label.Width, label.Height = 0, 0
	d.Options.apply(&label)
	g.SetLabel(&label)

	for _, n := range d.Nodes {
		if err := errors.ValidateID("node", n.ID); err != nil {
			return nil, err
		}
		if g.HasNode(n.ID) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate node %q", n.ID)
		}
		g.SetNode(n.ID, &graph.NodeLabel{Width: n.Width, Height: n.Height})
	}

	for _, n := range d.Nodes {
		if n.Parent == "" {
			continue
		}
		if !g.HasNode(n.Parent) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "node %q: unknown parent %q", n.ID, n.Parent)
		}
		if err := g.SetParent(n.ID, n.Parent); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %q", n.ID)
		}
	}

	for _, e := range d.Edges {
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s: unknown node", e.From, e.To)
		}
		if e.Name != "" {
			if err := errors.ValidateID("edge name", e.Name); err != nil {
				return nil, err
			}
		}
		k := graph.EdgeKey{V: e.From, W: e.To, Name: e.Name}
		if g.HasEdgeKey(k) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate edge %s; give parallel edges distinct names", k)
		}
		label := &graph.EdgeLabel{
			Weight: 1,
			Minlen: 1,
			Width:  e.Width,
			Height: e.Height,
		}
		if e.Weight != nil {
			label.Weight = *e.Weight
		}
		if e.Minlen != nil {
			label.Minlen = *e.Minlen
		}
		if e.LabelPos != "" {
			label.LabelPos = graph.LabelPos(e.LabelPos)
		}
		if e.LabelOffset != nil {
			label.LabelOffset = *e.LabelOffset
		}
		g.SetEdgeKey(k, label)
	}
	return g, nil
}

func (o *Options) apply(l *graph.GraphLabel) {
	if o == nil {
		return
	}
	if o.RankDir != "" {
		l.RankDir = graph.RankDir(o.RankDir)
	}
	if o.Align != "" {
		l.Align = graph.Align(o.Align)
	}
	if o.Acyclicer != "" {
		l.Acyclicer = graph.Acyclicer(o.Acyclicer)
	}
	if o.Ranker != "" {
		l.Ranker = graph.Ranker(o.Ranker)
	}
	for _, f := range []struct {
		src float64
		dst *float64
	}{
		{o.NodeSep, &l.NodeSep},
		{o.EdgeSep, &l.EdgeSep},
		{o.RankSep, &l.RankSep},
		{o.MarginX, &l.MarginX},
		{o.MarginY, &l.MarginY},
	} {
		if f.src != 0 {
			*f.dst = f.src
		}
	}
}

// ReadLayout decodes a computed layout from r.
func ReadLayout(r io.Reader) (*Layout, error) {
	var l Layout
	if err := json.NewDecoder(r).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode layout")
	}
	for i := 1; i < len(l.Nodes); i++ {
		if l.Nodes[i-1].ID >= l.Nodes[i].ID {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "layout nodes must be sorted by unique id (%q before %q)", l.Nodes[i-1].ID, l.Nodes[i].ID)
		}
	}
	return &l, nil
}

// ImportLayout reads a computed layout from the file at path.
func ImportLayout(path string) (*Layout, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadLayout(f)
}

func openFile(path string) (*os.File, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(fileCode(err), err, "open %s", path)
	}
	return f, nil
}

func fileCode(err error) errors.Code {
	if os.IsNotExist(err) {
		return errors.ErrCodeFileNotFound
	}
	return errors.ErrCodeInvalidPath
}

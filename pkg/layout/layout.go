package layout

import (
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/layout/acyclic"
	"github.com/matzehuels/strata/pkg/layout/nesting"
	"github.com/matzehuels/strata/pkg/layout/order"
	"github.com/matzehuels/strata/pkg/layout/position"
	"github.com/matzehuels/strata/pkg/layout/rank"
)

// Defaults applied to zero-valued options.
const (
	DefaultRankSep     = 50
	DefaultEdgeSep     = 20
	DefaultNodeSep     = 50
	DefaultLabelOffset = 10
)

// Option configures [Run].
type Option func(*settings)

type settings struct {
	logger   *log.Logger
	order    order.Options
	progress func(phase string)
}

// WithLogger times every pipeline phase and logs it at debug level.
func WithLogger(l *log.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithProgress calls fn with the name of every pipeline phase before it
// runs. fn is called on the goroutine running [Run].
func WithProgress(fn func(phase string)) Option {
	return func(s *settings) { s.progress = fn }
}

// WithoutOrderHeuristic keeps the initial breadth-first order and skips the
// crossing-minimization sweeps.
func WithoutOrderHeuristic() Option {
	return func(s *settings) { s.order.DisableHeuristic = true }
}

// Run lays out g in place. On return every node carries X, Y and Rank,
// compound nodes additionally carry Width and Height, every edge carries its
// Points (and X, Y for labeled edges) and the graph label carries the canvas
// Width and Height.
//
// Run works on an internal copy of g, so a failed validation leaves g
// untouched. It returns an INVALID_INPUT error for malformed options.
func Run(g *graph.Graph, opts ...Option) error {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	if err := validate(g); err != nil {
		return err
	}

	start := time.Now()
	lg := buildLayoutGraph(g)
	r := runner{settings: s}
	r.run(lg)
	updateInputGraph(g, lg)
	if s.logger != nil {
		s.logger.Debug("layout finished", "nodes", g.NodeCount(), "edges", g.EdgeCount(), "duration", time.Since(start))
	}
	return nil
}

type runner struct {
	settings
}

func (r *runner) phase(name string, fn func()) {
	if r.progress != nil {
		r.progress(name)
	}
	if r.logger == nil {
		fn()
		return
	}
	start := time.Now()
	fn()
	r.logger.Debug("layout phase", "phase", name, "duration", time.Since(start))
}

func (r *runner) run(g *graph.Graph) {
	r.phase("makeSpaceForEdgeLabels", func() { makeSpaceForEdgeLabels(g) })
	r.phase("removeSelfEdges", func() { removeSelfEdges(g) })
	r.phase("acyclic", func() { acyclic.Run(g) })
	r.phase("nestingGraph.run", func() { nesting.Run(g) })
	r.phase("rank", func() { rank.Run(g.NonCompound()) })
	r.phase("injectEdgeLabelProxies", func() { injectEdgeLabelProxies(g) })
	r.phase("removeEmptyRanks", func() { rank.RemoveEmptyRanks(g) })
	r.phase("nestingGraph.cleanup", func() { nesting.Cleanup(g) })
	r.phase("normalizeRanks", func() { rank.Normalize(g) })
	r.phase("assignRankMinMax", func() { rank.AssignMinMax(g) })
	r.phase("removeEdgeLabelProxies", func() { removeEdgeLabelProxies(g) })
	r.phase("normalize.run", func() { normalizeLongEdges(g) })
	r.phase("parentDummyChains", func() { parentDummyChains(g) })
	r.phase("addBorderSegments", func() { addBorderSegments(g) })
	r.phase("order", func() { order.Run(g, r.order) })
	r.phase("insertSelfEdges", func() { insertSelfEdges(g) })
	r.phase("adjustCoordinateSystem", func() { adjustCoordinateSystem(g) })
	r.phase("position", func() { position.Run(g) })
	r.phase("positionSelfEdges", func() { positionSelfEdges(g) })
	r.phase("removeBorderNodes", func() { removeBorderNodes(g) })
	r.phase("normalize.undo", func() { denormalizeLongEdges(g) })
	r.phase("fixupEdgeLabelCoords", func() { fixupEdgeLabelCoords(g) })
	r.phase("undoCoordinateSystem", func() { undoCoordinateSystem(g) })
	r.phase("translateGraph", func() { translateGraph(g) })
	r.phase("assignNodeIntersects", func() { assignNodeIntersects(g) })
	r.phase("reversePoints", func() { reversePointsForReversedEdges(g) })
	r.phase("acyclic.undo", func() { acyclic.Undo(g) })
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, format, args...)
}

func badSize(f float64) bool { return f < 0 || math.IsNaN(f) || math.IsInf(f, 0) }

// ValidateOptions checks graph level options. Names are matched
// case-insensitively and zero values stand for the defaults.
func ValidateOptions(gl *graph.GraphLabel) error {
	switch graph.RankDir(strings.ToLower(string(gl.RankDir))) {
	case "", graph.RankDirTB, graph.RankDirBT, graph.RankDirLR, graph.RankDirRL:
	default:
		return invalid("unknown rankdir %q", gl.RankDir)
	}
	switch graph.Align(strings.ToLower(string(gl.Align))) {
	case graph.AlignNone, graph.AlignUL, graph.AlignUR, graph.AlignDL, graph.AlignDR:
	default:
		return invalid("unknown align %q", gl.Align)
	}
	switch graph.Acyclicer(strings.ToLower(string(gl.Acyclicer))) {
	case graph.AcyclicerDFS, graph.AcyclicerGreedy, "dfs":
	default:
		return invalid("unknown acyclicer %q", gl.Acyclicer)
	}
	switch graph.Ranker(strings.ToLower(string(gl.Ranker))) {
	case "", graph.RankerNetworkSimplex, graph.RankerTightTree, graph.RankerLongestPath:
	default:
		return invalid("unknown ranker %q", gl.Ranker)
	}
	for _, sep := range []struct {
		name string
		v    float64
	}{
		{"nodesep", gl.NodeSep}, {"edgesep", gl.EdgeSep}, {"ranksep", gl.RankSep},
		{"marginx", gl.MarginX}, {"marginy", gl.MarginY},
	} {
		if badSize(sep.v) {
			return invalid("%s must be a non-negative number, got %v", sep.name, sep.v)
		}
	}
	return nil
}

// validate checks the caller's graph before any copy is made.
func validate(g *graph.Graph) error {
	if err := ValidateOptions(g.Label()); err != nil {
		return err
	}

	for _, v := range g.Nodes() {
		n := g.Node(v)
		if badSize(n.Width) || badSize(n.Height) {
			return invalid("node %q: width and height must be non-negative", v)
		}
	}
	for _, e := range g.Edges() {
		l := g.EdgeByKey(e)
		switch {
		case l.Weight < 0:
			return invalid("edge %s: weight must be non-negative", e)
		case l.Minlen < 0:
			return invalid("edge %s: minlen must not be negative", e)
		case badSize(l.Width) || badSize(l.Height) || badSize(l.LabelOffset):
			return invalid("edge %s: label size must be non-negative", e)
		case g.HasChildren(e.V) || g.HasChildren(e.W):
			return invalid("edge %s: edges may not touch compound nodes", e)
		}
		switch graph.LabelPos(strings.ToLower(string(l.LabelPos))) {
		case "", graph.LabelLeft, graph.LabelRight, graph.LabelCenter:
		default:
			return invalid("edge %s: unknown labelpos %q", e, l.LabelPos)
		}
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// buildLayoutGraph copies the layout-relevant attributes of in into a fresh
// compound multigraph, filling in defaults.
func buildLayoutGraph(in *graph.Graph) *graph.Graph {
	g := graph.New(graph.Options{Multigraph: true, Compound: true})
	il := in.Label()
	ranker := graph.Ranker(strings.ToLower(string(il.Ranker)))
	if ranker == "" {
		ranker = graph.RankerNetworkSimplex
	}
	acyclicer := graph.Acyclicer(strings.ToLower(string(il.Acyclicer)))
	if acyclicer == "dfs" {
		acyclicer = graph.AcyclicerDFS
	}
	rankdir := graph.RankDir(strings.ToLower(string(il.RankDir)))
	if rankdir == "" {
		rankdir = graph.RankDirTB
	}
	g.SetLabel(&graph.GraphLabel{
		RankDir:   rankdir,
		Align:     graph.Align(strings.ToLower(string(il.Align))),
		NodeSep:   orDefault(il.NodeSep, DefaultNodeSep),
		EdgeSep:   orDefault(il.EdgeSep, DefaultEdgeSep),
		RankSep:   orDefault(il.RankSep, DefaultRankSep),
		MarginX:   il.MarginX,
		MarginY:   il.MarginY,
		Acyclicer: acyclicer,
		Ranker:    ranker,
	})

	for _, v := range in.Nodes() {
		n := in.Node(v)
		g.SetNode(v, &graph.NodeLabel{Width: n.Width, Height: n.Height})
	}
	if in.IsCompound() {
		for _, v := range in.Nodes() {
			if p := in.Parent(v); p != "" {
				// in already guarantees an acyclic containment tree.
				_ = g.SetParent(v, p)
			}
		}
	}
	for _, e := range in.Edges() {
		l := in.EdgeByKey(e)
		minlen := l.Minlen
		if minlen == 0 {
			minlen = 1
		}
		pos := graph.ParseLabelPos(string(l.LabelPos))
		g.SetEdgeKey(e, &graph.EdgeLabel{
			Weight:      l.Weight,
			Minlen:      minlen,
			Width:       l.Width,
			Height:      l.Height,
			LabelPos:    pos,
			LabelOffset: orDefault(l.LabelOffset, DefaultLabelOffset),
		})
	}
	return g
}

// updateInputGraph copies the results of the layout graph back onto the
// caller's graph. Ranks are reported in the caller's units: the layout graph
// runs at twice the rank density to make room for edge labels, and every
// caller edge spans at least twice its minlen there, so halving keeps minlen
// satisfied.
func updateInputGraph(in, lg *graph.Graph) {
	for _, v := range in.Nodes() {
		dst, src := in.Node(v), lg.Node(v)
		if src == nil {
			continue
		}
		dst.X = src.X
		dst.Y = src.Y
		dst.Rank = src.Rank / 2
		if lg.HasChildren(v) {
			dst.Width = src.Width
			dst.Height = src.Height
		}
	}
	for _, e := range in.Edges() {
		dst, src := in.EdgeByKey(e), lg.EdgeByKey(e)
		if src == nil {
			continue
		}
		dst.Points = src.Points
		dst.Placed = src.Placed
		if src.Placed {
			dst.X = src.X
			dst.Y = src.Y
		}
	}
	in.Label().Width = lg.Label().Width
	in.Label().Height = lg.Label().Height
}

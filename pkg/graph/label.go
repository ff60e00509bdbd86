package graph

import "strings"

// DummyKind distinguishes caller nodes from the synthetic nodes the layout
// pipeline inserts for its own bookkeeping. Every dummy is removed or
// resolved before results are copied back to the caller.
type DummyKind int

const (
	// NotDummy marks a node supplied by the caller.
	NotDummy DummyKind = iota
	// DummyBorder marks a top, bottom, left or right border of a compound node.
	DummyBorder
	// DummyEdge marks an intermediate point of a long edge chain.
	DummyEdge
	// DummyEdgeLabel marks the chain node that reserves space for an edge label.
	DummyEdgeLabel
	// DummyEdgeProxy pins the label rank of an edge during ranking.
	DummyEdgeProxy
	// DummySelfEdge reserves space next to a node for a self loop.
	DummySelfEdge
	// DummyRoot is the synthetic root of the nesting graph.
	DummyRoot
)

var dummyNames = [...]string{
	NotDummy:       "",
	DummyBorder:    "border",
	DummyEdge:      "edge",
	DummyEdgeLabel: "edge-label",
	DummyEdgeProxy: "edge-proxy",
	DummySelfEdge:  "selfedge",
	DummyRoot:      "root",
}

func (k DummyKind) String() string {
	if int(k) < len(dummyNames) {
		return dummyNames[k]
	}
	return "unknown"
}

// IsDummy reports whether the kind is anything other than [NotDummy].
func (k DummyKind) IsDummy() bool { return k != NotDummy }

// BorderType identifies which side of a compound node a border dummy bounds.
type BorderType int

const (
	BorderNone BorderType = iota
	BorderLeft
	BorderRight
)

// LabelPos is the placement of an edge label relative to the edge.
type LabelPos string

const (
	LabelLeft   LabelPos = "l"
	LabelRight  LabelPos = "r"
	LabelCenter LabelPos = "c"
)

// ParseLabelPos normalizes s (case-insensitive). Empty and unknown values
// map to [LabelRight], which is the documented default.
func ParseLabelPos(s string) LabelPos {
	switch strings.ToLower(s) {
	case "l":
		return LabelLeft
	case "c":
		return LabelCenter
	default:
		return LabelRight
	}
}

// Point is a coordinate on the drawing canvas.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SelfEdge is a self loop parked on its node while ranking and ordering run.
type SelfEdge struct {
	Key   EdgeKey
	Label *EdgeLabel
}

// NodeLabel holds the layout attributes of a node. Rank, Order, X and Y are
// assigned by the pipeline; Width and Height are supplied by the caller for
// real nodes and computed for compound nodes.
type NodeLabel struct {
	Width  float64
	Height float64
	Rank   int
	Order  int
	X      float64
	Y      float64

	Dummy DummyKind

	// Compound node bookkeeping. BorderLeft and BorderRight are keyed by rank.
	MinRank      int
	MaxRank      int
	HasRankRange bool
	BorderTop    string
	BorderBottom string
	BorderLeft   map[int]string
	BorderRight  map[int]string

	// BorderType is set on left/right border dummies.
	BorderType BorderType

	// Edge and EdgeLabel link edge, edge-label, edge-proxy and self-edge
	// dummies back to the edge they stand in for.
	Edge      EdgeKey
	EdgeLabel *EdgeLabel
	LabelPos  LabelPos

	SelfEdges []SelfEdge
}

// EdgeLabel holds the layout attributes of an edge.
type EdgeLabel struct {
	Weight int
	Minlen int

	// Label box reserved along the edge, if any.
	Width       float64
	Height      float64
	LabelPos    LabelPos
	LabelOffset float64
	LabelRank   int

	// Assigned geometry. X and Y are the label center; Placed reports
	// whether they were assigned, which happens for labeled edges and self
	// loops.
	Points []Point
	X      float64
	Y      float64
	Placed bool

	// Set while the edge is reversed to break a cycle.
	Reversed    bool
	ForwardName string

	NestingEdge bool
}

// HasLabel reports whether the edge reserves a label box.
func (e *EdgeLabel) HasLabel() bool { return e.Width > 0 && e.Height > 0 }

// RankDir is the direction in which ranks progress on the canvas.
type RankDir string

const (
	RankDirTB RankDir = "tb"
	RankDirBT RankDir = "bt"
	RankDirLR RankDir = "lr"
	RankDirRL RankDir = "rl"
)

// Align forces one of the four Brandes–Köpf alignments instead of the
// balanced median. The zero value balances.
type Align string

const (
	AlignNone Align = ""
	AlignUL   Align = "ul"
	AlignUR   Align = "ur"
	AlignDL   Align = "dl"
	AlignDR   Align = "dr"
)

// Acyclicer names the feedback arc set heuristic.
type Acyclicer string

const (
	AcyclicerDFS    Acyclicer = ""
	AcyclicerGreedy Acyclicer = "greedy"
)

// Ranker names the rank assignment strategy.
type Ranker string

const (
	RankerNetworkSimplex Ranker = "network-simplex"
	RankerTightTree      Ranker = "tight-tree"
	RankerLongestPath    Ranker = "longest-path"
)

// GraphLabel holds graph level options and results.
type GraphLabel struct {
	RankDir   RankDir
	Align     Align
	NodeSep   float64
	EdgeSep   float64
	RankSep   float64
	MarginX   float64
	MarginY   float64
	Acyclicer Acyclicer
	Ranker    Ranker

	// Canvas size, assigned by layout.
	Width  float64
	Height float64

	// Pipeline bookkeeping.
	NestingRoot    string
	NodeRankFactor int
	MaxRank        int
	DummyChains    []string
}

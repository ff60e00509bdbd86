// Package pipeline provides the decode → layout → encode → render pipeline
// shared by the CLI and the HTTP API.
//
// # Architecture
//
// The pipeline consists of two stages:
//
//  1. Layout: decode a graph document, look up the canonical graph in the
//     cache, run the layout engine on a miss and encode the result
//  2. Render: draw a computed layout in one format, again through the cache
//
// Each stage is cached under a key derived from the content hash of its
// input, so identical requests from different clients share results.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.LayoutReader(ctx, r, pipeline.Options{Defaults: cfg.Layout.Label()})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg, err := runner.Render(ctx, res.Layout, render.Options{Format: "svg"})
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/io"
)

// Options configures one layout run.
type Options struct {
	// Defaults fill graph options the document leaves unset.
	Defaults graph.GraphLabel

	// DisableOrderHeuristic skips the crossing-reduction sweeps.
	DisableOrderHeuristic bool

	// Refresh bypasses cache lookups. The fresh result is still stored.
	Refresh bool

	// Logger receives per-phase timings from the engine at debug level.
	// Nil uses the runner's logger.
	Logger *log.Logger `json:"-"`

	// Progress is told the name of each engine phase as it starts. It is
	// not called when the result comes from the cache.
	Progress func(phase string) `json:"-"`
}

// Result contains the outputs of a layout run.
type Result struct {
	// Layout is the computed layout.
	Layout *io.Layout

	// Data is the JSON encoding of Layout, as written to files and HTTP
	// responses.
	Data []byte

	// GraphHash is the content hash of the canonical input graph.
	GraphHash string

	// Cached reports whether the layout came from the cache.
	Cached bool

	Stats Stats
}

// Stats contains run statistics.
type Stats struct {
	NodeCount int
	EdgeCount int
	Duration  time.Duration
}

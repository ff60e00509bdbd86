// Package pkg provides the libraries behind strata, a layered graph layout
// engine.
//
// # Overview
//
// Strata places the nodes of a directed graph on horizontal ranks so that
// edges point one way, orders each rank to reduce crossings and assigns
// coordinates. The pkg directory is organized into three areas:
//
//  1. Engine - the graph model and the layout phases
//  2. Boundary - JSON documents, rendering, caching and configuration
//  3. Orchestration - the cached pipeline shared by the CLI and the API
//
// # Architecture
//
// The typical data flow:
//
//	graph document (JSON)
//	         ↓
//	    [io] package (decode + validate)
//	         ↓
//	    [layout] package (acyclic → rank → order → position)
//	         ↓
//	    [io] package (layout document)
//	         ↓
//	    [render] package (SVG/PNG/DOT)
//
// # Quick Start
//
//	g, err := io.ReadGraph(r)
//	if err != nil {
//	    return err
//	}
//	if err := layout.Run(g); err != nil {
//	    return err
//	}
//	l := io.NewLayout(g)
//	svg := render.RenderSVG(l)
//
// # Main Packages
//
// ## Engine
//
// [graph] - Directed multigraph with an optional containment tree and
// insertion-ordered iteration.
//
// [layout] - The layout pipeline. Its phases live in subpackages:
//
//   - [layout/acyclic]: reverse a feedback arc set (DFS or greedy)
//   - [layout/nesting]: constrain compound nodes during ranking
//   - [layout/rank]: longest path, tight tree and network simplex ranking
//   - [layout/order]: barycenter sweeps that minimize crossings
//   - [layout/position]: Brandes–Köpf coordinate assignment
//
// ## Boundary
//
// [io] - Graph and layout JSON documents.
//
// [render] - Draw a layout with Graphviz (pinned positions) or natively.
//
// [cache] - File, Redis and MongoDB result caches keyed by content hash.
//
// [config] - TOML/YAML configuration with .env and STRATA_* overrides.
//
// [errors] - Coded errors shared by every package, with HTTP status mapping.
//
// ## Orchestration
//
// [pipeline] - Decode → layout → encode → render with caching, used by the
// CLI and the HTTP API.
//
// [observability] - Hooks for metrics and tracing of the pipeline, the cache
// and the HTTP server.
//
// [buildinfo] - Version information injected at build time.
//
// # Testing
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/layout/...    # Engine only
//	go test -run Example ./...  # Examples only
//
// [graph]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/graph
// [layout]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/layout
// [layout/acyclic]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/layout/acyclic
// [layout/nesting]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/layout/nesting
// [layout/rank]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/layout/rank
// [layout/order]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/layout/order
// [layout/position]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/layout/position
// [io]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/render
// [cache]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/errors
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/pipeline
// [observability]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/strata/pkg/buildinfo
package pkg

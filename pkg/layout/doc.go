// Package layout computes layered drawings of directed graphs.
//
// # Overview
//
// [Run] takes a [graph.Graph] whose nodes carry Width and Height and assigns
// every node a rank and canvas coordinates, every edge a polyline, and the
// graph a canvas size. Graphs may contain cycles, self loops, parallel edges,
// labeled edges and a containment hierarchy of compound nodes.
//
// # Pipeline
//
// The work follows the Sugiyama framework:
//
//  1. Cycle removal reverses a feedback arc set ([acyclic]).
//  2. The nesting graph ties compound content between border nodes
//     ([nesting]) and ranks are assigned by network simplex ([rank]).
//  3. Edges longer than one rank are split into dummy chains, and compound
//     nodes get a left and right border on every rank they span.
//  4. Barycenter sweeps reduce crossings ([order]).
//  5. Brandes–Köpf assigns x, rank separation assigns y ([position]).
//  6. Dummies are folded back into edge bend points, coordinates are mapped
//     onto the requested rank direction, and edges are clipped at node
//     boundaries.
//
// Everything happens on an internal copy of the caller's graph. Only the
// results are written back, so callers never observe dummy nodes.
//
// # Options
//
// Graph level options live on [graph.GraphLabel]: RankDir (tb, bt, lr, rl),
// Align (ul, ur, dl, dr), NodeSep, EdgeSep, RankSep, MarginX, MarginY,
// Acyclicer and Ranker. Zero values select the defaults. Per edge, Minlen,
// Weight and the label box (Width, Height, LabelPos, LabelOffset) are
// honored.
//
// # Logging
//
// Pass [WithLogger] to have every phase timed and logged at debug level.
package layout

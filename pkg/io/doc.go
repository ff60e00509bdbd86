// Package io provides the JSON wire format for input graphs and computed
// layouts.
//
// # Input Format
//
//	{
//	  "options": {"rankdir": "lr", "ranksep": 40},
//	  "nodes": [
//	    {"id": "cluster"},
//	    {"id": "a", "width": 60, "height": 30, "parent": "cluster"},
//	    {"id": "b", "width": 60, "height": 30}
//	  ],
//	  "edges": [
//	    {"from": "a", "to": "b", "minlen": 2},
//	    {"from": "a", "to": "b", "name": "second", "width": 40, "height": 12, "labelpos": "c"}
//	  ]
//	}
//
// Options may be omitted entirely; unset values fall back to the defaults
// given with [WithDefaults] and then to the engine defaults. Node fields
// width, height and parent are optional. Edge fields other than from and to
// are optional; weight and minlen default to 1.
//
// Use [ImportGraph] to read a graph from a file path or [ReadGraph] to read
// from any io.Reader. Both check the document structurally and return
// INVALID_FORMAT errors naming the offending node or edge. A missing file is
// a FILE_NOT_FOUND error.
//
// # Output Format
//
//	{
//	  "width": 160, "height": 190,
//	  "nodes": [{"id": "a", "x": 30, "y": 15, "width": 60, "height": 30, "rank": 0}],
//	  "edges": [{"from": "a", "to": "b", "points": [{"x": 30, "y": 30}, {"x": 30, "y": 175}]}]
//	}
//
// [NewLayout] collects the results of a layout run. Nodes are sorted by ID
// and edges keep the input order. Edges with a label box, and self loops,
// also carry the label center as x and y.
//
// # Canonical Form
//
// [Canonical] encodes a graph with its effective options in a compact,
// deterministic form. Hashing it yields the cache key of the layout.
package io

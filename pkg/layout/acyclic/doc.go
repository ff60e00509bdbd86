// Package acyclic removes cycles from a layout graph before ranking.
//
// # Overview
//
// Ranking needs a DAG. [Run] computes a feedback arc set and reverses each of
// its edges in place. Reversed edges are renamed with a fresh unique name and
// carry [graph.EdgeLabel.Reversed] and [graph.EdgeLabel.ForwardName], which
// [Undo] uses to put them back once coordinates are assigned.
//
// # Heuristics
//
// The default is a DFS heuristic: every edge that points back into the
// current DFS stack is reversed. Setting [graph.AcyclicerGreedy] on the graph
// label selects the weighted Eades–Lin–Smyth heuristic, which usually
// reverses fewer (and lighter) edges.
//
// Both traversals are iterative.
package acyclic

package acyclic

import "github.com/matzehuels/strata/pkg/graph"

// greedyFAS finds a feedback arc set with the heuristic of Eades, Lin and
// Smyth ("A fast and effective heuristic for the feedback arc set problem"),
// generalized to weighted edges. Parallel edges are aggregated while the
// heuristic runs and expanded again in the result.
func greedyFAS(g *graph.Graph) []graph.EdgeKey {
	if g.NodeCount() <= 1 {
		return nil
	}
	st := newFASState(g)
	var fas []graph.EdgeKey
	for _, e := range st.run() {
		fas = append(fas, g.OutEdgesTo(e.V, e.W)...)
	}
	return fas
}

type fasState struct {
	g       *graph.Graph
	entries map[string]*fasEntry
	buckets []*bucket
	zeroIdx int
}

func newFASState(g *graph.Graph) *fasState {
	fg := graph.New(graph.Options{})
	entries := make(map[string]*fasEntry, g.NodeCount())
	for _, v := range g.Nodes() {
		fg.SetNode(v, nil)
		entries[v] = &fasEntry{v: v}
	}

	maxIn, maxOut := 0, 0
	for _, e := range g.Edges() {
		if e.V == e.W {
			continue
		}
		w := g.EdgeByKey(e).Weight
		if cur := fg.Edge(e.V, e.W); cur != nil {
			cur.Weight += w
		} else {
			fg.SetEdge(e.V, e.W, &graph.EdgeLabel{Weight: w})
		}
		entries[e.V].out += w
		maxOut = max(maxOut, entries[e.V].out)
		entries[e.W].in += w
		maxIn = max(maxIn, entries[e.W].in)
	}

	st := &fasState{
		g:       fg,
		entries: entries,
		buckets: make([]*bucket, maxOut+maxIn+3),
		zeroIdx: maxIn + 1,
	}
	for i := range st.buckets {
		st.buckets[i] = newBucket()
	}
	for _, v := range fg.Nodes() {
		st.assign(entries[v])
	}
	return st
}

func (st *fasState) assign(e *fasEntry) {
	switch {
	case e.out == 0:
		st.buckets[0].enqueue(e)
	case e.in == 0:
		st.buckets[len(st.buckets)-1].enqueue(e)
	default:
		st.buckets[e.out-e.in+st.zeroIdx].enqueue(e)
	}
}

func (st *fasState) run() []graph.EdgeKey {
	var results []graph.EdgeKey
	sinks := st.buckets[0]
	sources := st.buckets[len(st.buckets)-1]

	for st.g.NodeCount() > 0 {
		for e := sinks.dequeue(); e != nil; e = sinks.dequeue() {
			st.remove(e, false)
		}
		for e := sources.dequeue(); e != nil; e = sources.dequeue() {
			st.remove(e, false)
		}
		if st.g.NodeCount() == 0 {
			break
		}
		for i := len(st.buckets) - 2; i > 0; i-- {
			if e := st.buckets[i].dequeue(); e != nil {
				results = append(results, st.remove(e, true)...)
				break
			}
		}
	}
	return results
}

// remove drops e's node from the working graph and rebuckets its neighbors.
// With collect set it returns the in-edges of the node, which become part of
// the feedback set.
func (st *fasState) remove(e *fasEntry, collect bool) []graph.EdgeKey {
	var results []graph.EdgeKey
	for _, in := range st.g.InEdges(e.v) {
		if collect {
			results = append(results, graph.EdgeKey{V: in.V, W: in.W})
		}
		u := st.entries[in.V]
		u.out -= st.g.EdgeByKey(in).Weight
		st.assign(u)
	}
	for _, out := range st.g.OutEdges(e.v) {
		w := st.entries[out.W]
		w.in -= st.g.EdgeByKey(out).Weight
		st.assign(w)
	}
	st.g.RemoveNode(e.v)
	return results
}

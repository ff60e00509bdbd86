package order

import (
	"cmp"
	"slices"

	"github.com/matzehuels/strata/pkg/graph"
)

// entry is a movable node, or after conflict resolution a run of nodes that
// must stay together, with the weighted barycenter of its neighbors. Entries
// without incoming weight have no barycenter and are unsortable.
type entry struct {
	vs         []string
	i          int
	barycenter float64
	weight     int
	hasBary    bool

	// Conflict resolution bookkeeping.
	indegree int
	in, out  []*entry
	merged   bool
}

// sortResult is the ordered node list of a (sub)graph and its aggregate
// barycenter.
type sortResult struct {
	vs         []string
	barycenter float64
	weight     int
	hasBary    bool
}

// barycenters computes an entry per movable node from its in-edges in lg.
// A node whose in-edges weigh nothing gets no barycenter rather than a NaN.
func barycenters(lg *graph.Graph, movable []string) []*entry {
	out := make([]*entry, len(movable))
	for i, v := range movable {
		e := &entry{vs: []string{v}}
		sum, weight := 0.0, 0
		for _, in := range lg.InEdges(v) {
			w := lg.EdgeByKey(in).Weight
			sum += float64(w * lg.Node(in.V).Order)
			weight += w
		}
		if weight > 0 {
			e.barycenter = sum / float64(weight)
			e.weight = weight
			e.hasBary = true
		}
		out[i] = e
	}
	return out
}

// resolveConflicts coalesces entries whose barycenter order would violate
// an edge of the constraint graph cg. The returned entries keep i as the
// lowest original index of the nodes they hold.
func resolveConflicts(entries []*entry, cg *graph.Graph) []*entry {
	byNode := make(map[string]*entry, len(entries))
	for i, e := range entries {
		e.i = i
		e.indegree = 0
		e.in, e.out, e.merged = nil, nil, false
		byNode[e.vs[0]] = e
	}
	for _, ce := range cg.Edges() {
		ev, ew := byNode[ce.V], byNode[ce.W]
		if ev == nil || ew == nil {
			continue
		}
		ew.indegree++
		ev.out = append(ev.out, ew)
	}

	var sources []*entry
	for _, e := range entries {
		if e.indegree == 0 {
			sources = append(sources, e)
		}
	}

	var processed []*entry
	for len(sources) > 0 {
		e := sources[len(sources)-1]
		sources = sources[:len(sources)-1]
		processed = append(processed, e)

		for j := len(e.in) - 1; j >= 0; j-- {
			u := e.in[j]
			if u.merged {
				continue
			}
			if !u.hasBary || !e.hasBary || u.barycenter >= e.barycenter {
				mergeEntries(e, u)
			}
		}
		for _, w := range e.out {
			w.in = append(w.in, e)
			w.indegree--
			if w.indegree == 0 {
				sources = append(sources, w)
			}
		}
	}

	out := processed[:0:0]
	for _, e := range processed {
		if !e.merged {
			out = append(out, e)
		}
	}
	// Constraints collected from different layers can form a cycle. Entries
	// on it are never released above; keep them unconstrained.
	if len(processed) < len(entries) {
		for _, e := range entries {
			if e.indegree > 0 {
				out = append(out, e)
			}
		}
	}
	return out
}

func mergeEntries(target, source *entry) {
	sum, weight := 0.0, 0
	if target.weight > 0 {
		sum += target.barycenter * float64(target.weight)
		weight += target.weight
	}
	if source.weight > 0 {
		sum += source.barycenter * float64(source.weight)
		weight += source.weight
	}

	target.vs = append(slices.Clone(source.vs), target.vs...)
	target.weight = weight
	target.hasBary = weight > 0
	target.barycenter = 0
	if target.hasBary {
		target.barycenter = sum / float64(weight)
	}
	target.i = min(source.i, target.i)
	source.merged = true
}

// sortEntries orders sortable entries by barycenter, breaking ties by
// original index (reversed when biasRight), and splices unsortable entries
// back in at their original index.
func sortEntries(entries []*entry, biasRight bool) sortResult {
	var sortable, unsortable []*entry
	for _, e := range entries {
		if e.hasBary {
			sortable = append(sortable, e)
		} else {
			unsortable = append(unsortable, e)
		}
	}
	// Descending, so the next unsortable entry is always at the end.
	slices.SortFunc(unsortable, func(a, b *entry) int { return cmp.Compare(b.i, a.i) })
	slices.SortStableFunc(sortable, func(a, b *entry) int {
		if c := cmp.Compare(a.barycenter, b.barycenter); c != 0 {
			return c
		}
		if biasRight {
			return cmp.Compare(b.i, a.i)
		}
		return cmp.Compare(a.i, b.i)
	})

	var vs []string
	consume := func(index int) int {
		for len(unsortable) > 0 && unsortable[len(unsortable)-1].i <= index {
			last := unsortable[len(unsortable)-1]
			unsortable = unsortable[:len(unsortable)-1]
			vs = append(vs, last.vs...)
			index++
		}
		return index
	}

	sum, weight := 0.0, 0
	index := consume(0)
	for _, e := range sortable {
		index += len(e.vs)
		vs = append(vs, e.vs...)
		sum += e.barycenter * float64(e.weight)
		weight += e.weight
		index = consume(index)
	}
	for i := len(unsortable) - 1; i >= 0; i-- {
		vs = append(vs, unsortable[i].vs...)
	}

	res := sortResult{vs: vs}
	if weight > 0 {
		res.barycenter = sum / float64(weight)
		res.weight = weight
		res.hasBary = true
	}
	return res
}

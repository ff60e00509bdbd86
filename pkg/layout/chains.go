package layout

import "github.com/matzehuels/strata/pkg/graph"

// lowLim is the postorder interval of a node in the containment tree: the
// subtree of v holds exactly the nodes whose lim lies in [low, lim].
type lowLim struct{ low, lim int }

// parentDummyChains moves the dummies of every long edge into the compound
// nodes the edge passes through. Walking down the chain, a dummy first climbs
// from the tail's parent towards the lowest common ancestor while the
// current compound ends above the dummy's rank, then descends towards the
// head's parent once the next compound on the path has started.
func parentDummyChains(g *graph.Graph) {
	nums := postorderNums(g)
	for _, v := range g.Label().DummyChains {
		edge := g.Node(v).Edge
		path, lca := findPath(g, nums, edge.V, edge.W)
		idx := 0
		ascending := true
		for v != edge.W {
			n := g.Node(v)
			pathV := path[idx]
			if ascending {
				for pathV = path[idx]; pathV != lca && g.Node(pathV).MaxRank < n.Rank; pathV = path[idx] {
					idx++
				}
				if pathV == lca {
					ascending = false
				}
			}
			if !ascending {
				for idx < len(path)-1 && g.Node(path[idx+1]).MinRank <= n.Rank {
					idx++
				}
				pathV = path[idx]
			}
			// Chains only hold dummies, which cannot be ancestors of pathV.
			_ = g.SetParent(v, pathV)
			v = g.Successors(v)[0]
		}
	}
}

// findPath returns the containment path from the parent of v up to the
// lowest common ancestor of v and w and down again to the parent of w. The
// root of the containment tree is "".
func findPath(g *graph.Graph, nums map[string]lowLim, v, w string) (path []string, lca string) {
	low := min(nums[v].low, nums[w].low)
	lim := max(nums[v].lim, nums[w].lim)

	parent := v
	for {
		parent = g.Parent(parent)
		path = append(path, parent)
		if parent == "" || (nums[parent].low <= low && lim <= nums[parent].lim) {
			break
		}
	}
	lca = parent

	var down []string
	for parent = g.Parent(w); parent != lca; parent = g.Parent(parent) {
		down = append(down, parent)
	}
	for i := len(down) - 1; i >= 0; i-- {
		path = append(path, down[i])
	}
	return path, lca
}

// postorderNums numbers the containment tree in postorder without recursion.
func postorderNums(g *graph.Graph) map[string]lowLim {
	nums := make(map[string]lowLim, g.NodeCount())
	type frame struct {
		v        string
		low      int
		children []string
		next     int
	}
	lim := 0
	for _, top := range g.Children("") {
		stack := []frame{{v: top, low: lim, children: g.Children(top)}}
		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(f.children) {
				c := f.children[f.next]
				f.next++
				stack = append(stack, frame{v: c, low: lim, children: g.Children(c)})
				continue
			}
			nums[f.v] = lowLim{low: f.low, lim: lim}
			lim++
			stack = stack[:len(stack)-1]
		}
	}
	return nums
}

package dag

// ComputeDependencies implements the online dependency-inference engine:
// given the tag of a newly inserted node, it scans live nodes in
// reverse insertion order and adds an edge from each conflicting,
// not-already-transitively-covered predecessor to newTag.
//
// The scratch set T starts empty and accumulates, for every predecessor i
// an edge is drawn to, the transitive ancestors of i (plus i itself); any
// older node already in T is skipped without calling conflict, since an
// edge to it would be redundant with the edge already drawn through i. This
// is what keeps the graph a transitive reduction instead of a dense one.
//
// When linear is true (the force_linear_dag switch), the scan short-circuits:
// an edge is drawn from the immediately preceding live node only, producing
// a single chain regardless of the conflict relation.
//
// onEdge, if non-nil, is invoked under g.mu for every edge (older, newTag)
// actually added, with the older node's payload. This lets a caller recover
// the exact set of predecessor payloads atomically with edge insertion
// (e.g. to resolve predecessor *Task handles without a second, racy lookup
// after a predecessor may already have been removed).
func (g *Graph) ComputeDependencies(newTag Tag, conflict ConflictFunc, linear bool, onEdge func(older Tag, payload any)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	newNode, ok := g.nodes[newTag]
	if !ok {
		return wrapf(ErrUnknownTag, "ComputeDependencies")
	}

	reverse := g.reverseTagsLocked()

	if linear {
		for _, older := range reverse {
			if older == newTag {
				continue
			}
			if on, ok := g.nodes[older]; ok {
				on.out[newTag] = struct{}{}
				newNode.in[older] = struct{}{}
				if onEdge != nil {
					onEdge(older, on.payload)
				}
			}
			return nil
		}
		return nil
	}

	covered := map[Tag]struct{}{}
	for _, older := range reverse {
		if older == newTag {
			continue
		}
		if _, skip := covered[older]; skip {
			continue
		}
		on, ok := g.nodes[older]
		if !ok {
			continue
		}
		if !conflict(on.payload, newNode.payload) {
			continue
		}

		on.out[newTag] = struct{}{}
		newNode.in[older] = struct{}{}
		if onEdge != nil {
			onEdge(older, on.payload)
		}

		covered[older] = struct{}{}
		for a := range g.ancestorsLocked(older) {
			covered[a] = struct{}{}
		}
	}
	return nil
}

// AddExplicitEdge inserts an edge from < to if both are still live, and
// reports the predecessor's payload. It is used for the nested-dependency
// case: a task's data list may reference another *Task directly, in
// which case that task is wired in as a predecessor regardless of whether
// the conflict relation would also have found it.
func (g *Graph) AddExplicitEdge(from, to Tag) (payload any, added bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fn, ok := g.nodes[from]
	if !ok || !(from < to) {
		return nil, false
	}
	tn, ok := g.nodes[to]
	if !ok {
		return nil, false
	}
	fn.out[to] = struct{}{}
	tn.in[from] = struct{}{}
	return fn.payload, true
}

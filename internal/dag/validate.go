package dag

import "container/heap"

// tagMinHeap is a deterministic min-heap over tags, used so BFS traversals
// over the adjacency sets (which are plain maps and have no iteration
// order) still visit nodes in a reproducible, tag-ascending order. It
// drives the ancestor BFS of the dependency engine and its descendant
// mirror; acyclicity is guaranteed by construction and needs no separate
// proof.
type tagMinHeap []Tag

func (h tagMinHeap) Len() int           { return len(h) }
func (h tagMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h tagMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *tagMinHeap) Push(x any)        { *h = append(*h, x.(Tag)) }
func (h *tagMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// ancestorsLocked returns the full set of transitive ancestors of tag
// (exclusive of tag itself), via BFS over in(·). Callers must hold g.mu.
//
// This realizes the dependency engine's scratch set T: when
// an edge (i, j) is added, T is extended with ancestorsLocked(i) ∪ {i}.
func (g *Graph) ancestorsLocked(start Tag) map[Tag]struct{} {
	visited := map[Tag]struct{}{start: {}}
	hq := &tagMinHeap{}
	heap.Init(hq)
	if n, ok := g.nodes[start]; ok {
		for p := range n.in {
			heap.Push(hq, p)
		}
	}
	out := map[Tag]struct{}{}
	for hq.Len() > 0 {
		u := heap.Pop(hq).(Tag)
		if _, seen := visited[u]; seen {
			continue
		}
		visited[u] = struct{}{}
		out[u] = struct{}{}
		if n, ok := g.nodes[u]; ok {
			for p := range n.in {
				if _, seen := visited[p]; !seen {
					heap.Push(hq, p)
				}
			}
		}
	}
	return out
}

// descendantsLocked returns the transitive descendants of tag (exclusive of
// tag itself), via BFS over out(·), in tag-ascending visitation order. It
// is the out-edge mirror of ancestorsLocked, kept alongside it so the two
// traversals stay structurally symmetric.
func (g *Graph) descendantsLocked(start Tag) []Tag {
	n, ok := g.nodes[start]
	if !ok {
		return nil
	}
	visited := map[Tag]struct{}{start: {}}
	hq := &tagMinHeap{}
	heap.Init(hq)
	for d := range n.out {
		heap.Push(hq, d)
	}
	var out []Tag
	for hq.Len() > 0 {
		u := heap.Pop(hq).(Tag)
		if _, seen := visited[u]; seen {
			continue
		}
		visited[u] = struct{}{}
		out = append(out, u)
		if un, ok := g.nodes[u]; ok {
			for d := range un.out {
				if _, seen := visited[d]; !seen {
					heap.Push(hq, d)
				}
			}
		}
	}
	return out
}

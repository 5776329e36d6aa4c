package dag

import (
	"container/heap"
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Graph is the bounded-capacity, concurrently-mutated DAG of task tags.
// It is safe for concurrent use by multiple inserters plus a single
// remover (the cleanup worker, per the taskgraph package's contract).
//
// Acyclicity is structural: AddEdge rejects any edge whose From is not
// strictly less than To, and tags are handed out by the caller in strictly
// increasing order, so no cycle can ever be formed.
type Graph struct {
	mu       sync.Mutex
	capacity int
	full     *sync.Cond // signaled when size drops below capacity
	empty    *sync.Cond // signaled when size reaches zero

	nodes      map[Tag]*node
	head, tail *node // doubly linked list in insertion order; head is oldest
	size       int
}

// NewGraph constructs a Graph with the given capacity. Capacity must be at
// least 1.
func NewGraph(capacity int) (*Graph, error) {
	if capacity < 1 {
		return nil, wrapf(ErrInvalidCapacity, "NewGraph")
	}
	g := &Graph{
		capacity: capacity,
		nodes:    make(map[Tag]*node, capacity),
	}
	g.full = sync.NewCond(&g.mu)
	g.empty = sync.NewCond(&g.mu)
	return g, nil
}

// Insert appends a new node carrying payload under tag, blocking while the
// graph is at capacity. It returns ctx.Err() without mutating the graph if
// ctx is cancelled before a slot becomes available.
//
// Edge discovery is the caller's responsibility (see ComputeDependencies);
// Insert only performs the structural append.
func (g *Graph) Insert(ctx context.Context, tag Tag, payload any) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for g.size >= g.capacity {
		if err := waitOrCancel(ctx, &g.mu, g.full); err != nil {
			return err
		}
	}

	n := &node{
		tag:     tag,
		payload: payload,
		in:      make(map[Tag]struct{}),
		out:     make(map[Tag]struct{}),
	}
	g.nodes[tag] = n
	if g.tail == nil {
		g.head, g.tail = n, n
	} else {
		n.prev = g.tail
		g.tail.next = n
		g.tail = n
	}
	g.size++
	return nil
}

// waitOrCancel blocks on cond until signaled, respecting ctx cancellation.
// cond's lock (mu) must be held on entry; it is held again on return.
func waitOrCancel(ctx context.Context, mu *sync.Mutex, cond *sync.Cond) error {
	if ctx == nil {
		cond.Wait()
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	// Wake every waiter on cancellation so the cancelled one can observe
	// ctx.Err(); the rest re-check their own predicate and re-wait.
	stop := context.AfterFunc(ctx, func() {
		mu.Lock()
		cond.Broadcast()
		mu.Unlock()
	})
	defer stop()
	cond.Wait()
	return ctx.Err()
}

// AddEdge inserts an edge from < to. The caller guarantees from < to; this
// is an internal invariant of the dependency engine, not user input, so a
// violation is a programming error rather than a recoverable condition.
func (g *Graph) AddEdge(from, to Tag) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	fn, ok := g.nodes[from]
	if !ok {
		return wrapf(ErrUnknownTag, "AddEdge(from)")
	}
	tn, ok := g.nodes[to]
	if !ok {
		return wrapf(ErrUnknownTag, "AddEdge(to)")
	}
	if !(from < to) {
		return wrapf(ErrBackwardEdge, "AddEdge")
	}
	fn.out[to] = struct{}{}
	tn.in[from] = struct{}{}
	return nil
}

// Remove deletes tag from the graph. Removal is only well-formed once
// in(tag) is empty; a violation warns and removes anyway, so
// that a cleanup worker can never wedge the graph because of a bookkeeping
// bug elsewhere. Callers that want strict enforcement can inspect the
// returned error's Kind.
func (g *Graph) Remove(tag Tag) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[tag]
	if !ok {
		return wrapf(ErrUnknownTag, "Remove")
	}

	var warnErr error
	if len(n.in) != 0 {
		log.Warn().Int64("tag", int64(tag)).Int("livepredecessors", len(n.in)).
			Msg("dag: removing node with live predecessors")
		warnErr = wrapf(ErrLiveInDegree, "Remove")
	}

	for out := range n.out {
		if on, ok := g.nodes[out]; ok {
			delete(on.in, tag)
		}
	}

	if n.prev != nil {
		n.prev.next = n.next
	} else {
		g.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		g.tail = n.prev
	}
	delete(g.nodes, tag)
	g.size--

	if g.size < g.capacity {
		g.full.Signal()
	}
	if g.size == 0 {
		g.empty.Broadcast()
	}

	return warnErr
}

// Resize changes the graph's capacity. It is an error to resize below the
// current live node count.
func (g *Graph) Resize(newCapacity int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if newCapacity < 1 || newCapacity < g.size {
		return wrapf(ErrInvalidCapacity, "Resize")
	}
	g.capacity = newCapacity
	if g.size < g.capacity {
		g.full.Broadcast()
	}
	return nil
}

// Clear forcibly discards every node and edge regardless of live in-degree,
// and wakes any waiter on either condition. This is the DAG half of
// TaskGraph.Empty's emergency reset: unlike Remove, it does not
// require in(j) = ∅ for any node, since the caller has already decided to
// abandon the graph's current contents wholesale.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[Tag]*node, g.capacity)
	g.head, g.tail = nil, nil
	g.size = 0
	g.full.Broadcast()
	g.empty.Broadcast()
}

// WaitEmpty blocks until the graph has zero live nodes, or ctx is done.
func (g *Graph) WaitEmpty(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.size != 0 {
		if err := waitOrCancel(ctx, &g.mu, g.empty); err != nil {
			return err
		}
	}
	return nil
}

// NumNodes reports the current live node count.
func (g *Graph) NumNodes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.size
}

// NumEdges reports the current live edge count.
func (g *Graph) NumEdges() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, nd := range g.nodes {
		n += len(nd.out)
	}
	return n
}

// Capacity reports the current capacity.
func (g *Graph) Capacity() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.capacity
}

// NodeInfo is a diagnostic snapshot of one live node.
type NodeInfo struct {
	Tag          Tag
	Predecessors []Tag
}

// LiveNodes returns a snapshot of all live nodes in insertion order, for
// diagnostic and visualization consumers.
func (g *Graph) LiveNodes() []NodeInfo {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]NodeInfo, 0, g.size)
	for n := g.head; n != nil; n = n.next {
		preds := make([]Tag, 0, len(n.in))
		for p := range n.in {
			preds = append(preds, p)
		}
		out = append(out, NodeInfo{Tag: n.tag, Predecessors: preds})
	}
	return out
}

// Edges returns a snapshot of every live edge in insertion order of the
// From node, with each node's out-set sorted ascending. Diagnostic
// counterpart to LiveNodes, for visualization front-ends that want the
// full happens-before relation rather than per-node predecessor lists.
func (g *Graph) Edges() []Edge {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []Edge
	for n := g.head; n != nil; n = n.next {
		tos := make(tagMinHeap, 0, len(n.out))
		for to := range n.out {
			tos = append(tos, to)
		}
		heap.Init(&tos)
		for tos.Len() > 0 {
			out = append(out, Edge{From: n.tag, To: heap.Pop(&tos).(Tag)})
		}
	}
	return out
}

// Predecessors returns the live in-edges of tag at the time of the call.
func (g *Graph) Predecessors(tag Tag) ([]Tag, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[tag]
	if !ok {
		return nil, false
	}
	out := make([]Tag, 0, len(n.in))
	for p := range n.in {
		out = append(out, p)
	}
	return out, true
}

// Payload returns the payload stored for tag, if it is still live.
func (g *Graph) Payload(tag Tag) (any, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[tag]
	if !ok {
		return nil, false
	}
	return n.payload, true
}

// reverseTagsLocked returns live tags in reverse insertion order. Callers
// must hold g.mu. Exposed to the dependency engine in dependency.go.
func (g *Graph) reverseTagsLocked() []Tag {
	out := make([]Tag, 0, g.size)
	for n := g.tail; n != nil; n = n.prev {
		out = append(out, n.tag)
	}
	return out
}

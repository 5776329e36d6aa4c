package dag

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustInsert(t *testing.T, g *Graph, tag Tag, payload any) {
	t.Helper()
	require.NoError(t, g.Insert(context.Background(), tag, payload))
}

func TestInsertRespectsCapacity(t *testing.T) {
	g, err := NewGraph(2)
	require.NoError(t, err)

	mustInsert(t, g, 1, "a")
	mustInsert(t, g, 2, "b")
	assert.Equal(t, 2, g.NumNodes())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = g.Insert(ctx, 3, "c")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestInsertUnblocksAfterRemove(t *testing.T) {
	g, err := NewGraph(1)
	require.NoError(t, err)
	mustInsert(t, g, 1, "a")

	done := make(chan error, 1)
	go func() {
		done <- g.Insert(context.Background(), 2, "b")
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("insert completed before capacity freed")
	default:
	}

	require.NoError(t, g.Remove(1))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("insert never unblocked")
	}
	assert.Equal(t, 1, g.NumNodes())
}

func TestResizeRejectsShrinkBelowLiveCount(t *testing.T) {
	g, err := NewGraph(4)
	require.NoError(t, err)
	mustInsert(t, g, 1, "a")
	mustInsert(t, g, 2, "b")

	assert.ErrorIs(t, g.Resize(1), ErrInvalidCapacity)
	assert.NoError(t, g.Resize(2))
	assert.Equal(t, 2, g.Capacity())
}

func TestResizeUnblocksWaitingInserter(t *testing.T) {
	g, err := NewGraph(1)
	require.NoError(t, err)
	mustInsert(t, g, 1, "a")

	done := make(chan error, 1)
	go func() {
		done <- g.Insert(context.Background(), 2, "b")
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, g.Resize(2))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("resize did not wake blocked inserter")
	}
}

func TestRemoveWithLiveInDegreeWarnsAndRemovesAnyway(t *testing.T) {
	g, err := NewGraph(4)
	require.NoError(t, err)
	mustInsert(t, g, 1, "a")
	mustInsert(t, g, 2, "b")
	require.NoError(t, g.AddEdge(1, 2))

	err = g.Remove(2)
	assert.ErrorIs(t, err, ErrLiveInDegree)
	assert.Equal(t, 1, g.NumNodes())

	nodes := g.LiveNodes()
	require.Len(t, nodes, 1)
	assert.Equal(t, Tag(1), nodes[0].Tag)
	assert.Empty(t, nodes[0].Predecessors)
}

func TestWaitEmpty(t *testing.T) {
	g, err := NewGraph(4)
	require.NoError(t, err)
	mustInsert(t, g, 1, "a")

	var wg sync.WaitGroup
	wg.Add(1)
	waited := make(chan struct{})
	go func() {
		defer wg.Done()
		_ = g.WaitEmpty(context.Background())
		close(waited)
	}()

	time.Sleep(20 * time.Millisecond)
	select {
	case <-waited:
		t.Fatal("WaitEmpty returned before graph was empty")
	default:
	}

	require.NoError(t, g.Remove(1))
	wg.Wait()
}

// sameLetter treats every pair of string payloads sharing their first
// byte as conflicting; used to exercise transitive reduction deterministically.
func sameLetter(a, b any) bool {
	return a.(string)[0] == b.(string)[0]
}

func TestComputeDependenciesTransitiveReduction(t *testing.T) {
	// a(1) -> b(2) -> c(3), all same letter "x", so 1->2 and 2->3 are direct
	// edges, but 1->3 must be elided since it is covered by 1->2->3.
	g, err := NewGraph(8)
	require.NoError(t, err)
	mustInsert(t, g, 1, "x1")
	require.NoError(t, g.ComputeDependencies(1, sameLetter, false, nil))

	mustInsert(t, g, 2, "x2")
	require.NoError(t, g.ComputeDependencies(2, sameLetter, false, nil))

	mustInsert(t, g, 3, "x3")
	require.NoError(t, g.ComputeDependencies(3, sameLetter, false, nil))

	assert.Equal(t, 2, g.NumEdges())

	nodes := g.LiveNodes()
	byTag := map[Tag]NodeInfo{}
	for _, n := range nodes {
		byTag[n.Tag] = n
	}
	assert.ElementsMatch(t, []Tag{2}, byTag[3].Predecessors)
	assert.ElementsMatch(t, []Tag{1}, byTag[2].Predecessors)
	assert.Empty(t, byTag[1].Predecessors)
}

func TestComputeDependenciesDiamond(t *testing.T) {
	// 1 writes A. 2 and 3 each read a disjoint view of A (no conflict between
	// 2 and 3). 4 reads all of A again, and must depend on both 2 and 3
	// directly (not just transitively through one of them), reproducing the
	// diamond scenario.
	conflict := func(a, b any) bool {
		x, y := a.(int), b.(int)
		if x == 1 || y == 1 {
			return true // everything touches the writer
		}
		if x == 4 || y == 4 {
			return true // final reader touches everything
		}
		return false // the two middle readers never conflict with each other
	}

	g, err := NewGraph(8)
	require.NoError(t, err)

	mustInsert(t, g, 1, 1)
	require.NoError(t, g.ComputeDependencies(1, conflict, false, nil))

	mustInsert(t, g, 2, 2)
	require.NoError(t, g.ComputeDependencies(2, conflict, false, nil))

	mustInsert(t, g, 3, 3)
	require.NoError(t, g.ComputeDependencies(3, conflict, false, nil))

	mustInsert(t, g, 4, 4)
	require.NoError(t, g.ComputeDependencies(4, conflict, false, nil))

	nodes := g.LiveNodes()
	byTag := map[Tag]NodeInfo{}
	for _, n := range nodes {
		byTag[n.Tag] = n
	}
	assert.ElementsMatch(t, []Tag{1}, byTag[2].Predecessors)
	assert.ElementsMatch(t, []Tag{1}, byTag[3].Predecessors)
	assert.ElementsMatch(t, []Tag{2, 3}, byTag[4].Predecessors)

	assert.Equal(t, []Edge{{From: 1, To: 2}, {From: 1, To: 3}, {From: 2, To: 4}, {From: 3, To: 4}}, g.Edges())
}

func TestComputeDependenciesForceLinearDAG(t *testing.T) {
	conflict := func(a, b any) bool { return false } // nothing conflicts

	g, err := NewGraph(8)
	require.NoError(t, err)

	mustInsert(t, g, 1, 1)
	require.NoError(t, g.ComputeDependencies(1, conflict, true, nil))
	mustInsert(t, g, 2, 2)
	require.NoError(t, g.ComputeDependencies(2, conflict, true, nil))
	mustInsert(t, g, 3, 3)
	require.NoError(t, g.ComputeDependencies(3, conflict, true, nil))

	assert.Equal(t, 2, g.NumEdges())
	byTag := map[Tag]NodeInfo{}
	for _, n := range g.LiveNodes() {
		byTag[n.Tag] = n
	}
	assert.ElementsMatch(t, []Tag{2}, byTag[3].Predecessors)
	assert.ElementsMatch(t, []Tag{1}, byTag[2].Predecessors)
}

func TestAddEdgeRejectsBackwardOrUnknownTags(t *testing.T) {
	g, err := NewGraph(4)
	require.NoError(t, err)
	mustInsert(t, g, 1, "a")
	mustInsert(t, g, 2, "b")

	assert.Error(t, g.AddEdge(2, 1))
	assert.ErrorIs(t, g.AddEdge(5, 2), ErrUnknownTag)
}

func TestNewGraphRejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewGraph(0)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestAncestorsAndDescendants(t *testing.T) {
	g, err := NewGraph(8)
	require.NoError(t, err)
	for i := Tag(1); i <= 4; i++ {
		mustInsert(t, g, i, int(i))
	}
	require.NoError(t, g.AddEdge(1, 2))
	require.NoError(t, g.AddEdge(2, 3))
	require.NoError(t, g.AddEdge(1, 3))
	require.NoError(t, g.AddEdge(3, 4))

	g.mu.Lock()
	anc := g.ancestorsLocked(4)
	desc := g.descendantsLocked(1)
	g.mu.Unlock()

	assert.Equal(t, map[Tag]struct{}{1: {}, 2: {}, 3: {}}, anc)
	assert.ElementsMatch(t, []Tag{2, 3, 4}, desc)
}

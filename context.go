package taskgraph

import "context"

// activeGraphKey is the context.Context key used to carry the active
// TaskGraph. Goroutines (unlike OS threads) have no stable per-goroutine
// storage a thread-local pointer could hang off, and context is the
// established way to thread ambient, scope-restoring state through call
// chains that may cross goroutine boundaries via WithGraph.
type activeGraphKey struct{}

// WithGraph returns a copy of ctx carrying tg as the active graph, for the
// duration of whatever callback receives the returned context. This is the
// Go realization of with_taskgraph(tg, f).
func WithGraph(ctx context.Context, tg *TaskGraph) context.Context {
	return context.WithValue(ctx, activeGraphKey{}, tg)
}

// FromContext returns the active TaskGraph carried by ctx, if any.
func FromContext(ctx context.Context) (*TaskGraph, bool) {
	tg, ok := ctx.Value(activeGraphKey{}).(*TaskGraph)
	return tg, ok
}

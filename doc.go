// Package taskgraph implements a dataflow task-graph runtime for
// shared-memory multicore machines. Callers write code that looks
// sequential, annotating each task with the data regions it touches and how
// (overlap.AccessMode); the runtime infers a happens-before partial order
// from those annotations and schedules independent tasks concurrently while
// preserving sequential consistency on conflicting data.
//
// A TaskGraph owns a bounded-capacity internal/dag.Graph plus a finished
// channel and a single cleanup worker. Spawn constructs a Task, inserts it
// into the graph, runs the dependency-inference engine against already-live
// tasks, and dispatches the user closure to an errgroup-managed goroutine
// that awaits the task's predecessors before running.
package taskgraph

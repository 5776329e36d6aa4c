// Package dag implements the bounded-capacity, concurrently-mutated
// directed acyclic graph of task tags, plus the online dependency-inference
// engine that computes a transitive reduction of the conflict relation as
// new tags are appended.
//
// The graph is payload-agnostic: callers pass an opaque value per node and a
// ConflictFunc used only during dependency inference. The taskgraph package
// supplies the payload (a *Task) and a conflict predicate built on the
// overlap registry.
//
// Unlike a statically declared build graph, nodes and edges are added one at
// a time, in strictly increasing tag order, and removed once finished;
// acyclicity therefore falls out of construction (every edge goes from a
// lower tag to a higher one) rather than needing a separate validation pass.
package dag

// Package tracelog records per-task and per-insertion timing information
// for a running task graph, and computes the longest (critical) path
// through the completed tasks once logging is enabled.
//
// Recording is opt-in: callers gate every call behind the owning switches'
// log_enabled flag, since a disabled log must cost nothing beyond the
// branch. A Log is safe for concurrent use by many workers recording their
// own entries while a separate goroutine (or the same one, after the graph
// drains) computes LongestPath over a snapshot.
package tracelog

package taskgraph

import (
	"context"

	"taskgraph/internal/dag"
	"taskgraph/overlap"

	"go.uber.org/atomic"
)

// Tag is the strictly monotonic integer identifying a task's position in
// the canonical sequential order.
type Tag = dag.Tag

var tagCounter atomic.Int64

func nextTag() Tag {
	return Tag(tagCounter.Inc())
}

// ResetTagCounter resets the process-wide tag counter to zero. Exposed for
// tests; production code should never need it, since tags only need to be
// strictly increasing, not reset to any particular value.
func ResetTagCounter() {
	tagCounter.Store(0)
}

// access pairs one captured data region with the mode a task uses it under.
type access struct {
	data any
	mode overlap.AccessMode
}

// Task bundles a user closure with its captured data regions, access modes,
// and the host-runtime handle executing it.
//
// A Task is exclusively owned by its TaskGraph once inserted; the handle
// returned to callers by Spawn exposes only Wait, Fetch, IsDone, Tag, Label,
// and Priority.
type Task struct {
	tag      Tag
	label    string
	priority float64
	accesses []access

	graph *TaskGraph
	inner *innerTask

	// predecessors is the set of predecessor Task handles resolved
	// atomically with dependency inference at Spawn time. Captured directly
	// rather than re-derived from the DAG later, since a predecessor may
	// already have finished and been cleaned up from the DAG by the time
	// this task's goroutine is scheduled.
	predecessors []*Task
}

// Tag returns the task's canonical order position.
func (t *Task) Tag() Tag { return t.tag }

// Label returns the task's diagnostic label.
func (t *Task) Label() string { return t.label }

// Priority returns the task's priority. The scheduler accepts and
// preserves it but does not act on it.
func (t *Task) Priority() float64 { return t.priority }

// Wait blocks until the task's closure has returned (successfully or not).
func (t *Task) Wait(ctx context.Context) error {
	return t.inner.wait(ctx)
}

// Fetch blocks until the task finishes and returns its closure's value, or
// the error the closure produced.
func (t *Task) Fetch(ctx context.Context) (any, error) {
	if err := t.inner.wait(ctx); err != nil {
		return nil, err
	}
	return t.inner.result(), nil
}

// IsDone reports whether the task's closure has returned, without blocking.
func (t *Task) IsDone() bool {
	return t.inner.isDone()
}

// innerTask is the host-runtime handle backing one Task's closure
// dispatch. It is deliberately separate from Task so that Task stays a
// small, copy-free value the dependency engine can store as a dag payload
// without dragging the synchronization primitives along with every access.
type innerTask struct {
	done chan struct{}
	val  any
	err  error
}

func newInnerTask() *innerTask {
	return &innerTask{done: make(chan struct{})}
}

func (it *innerTask) finish(val any, err error) {
	it.val, it.err = val, err
	close(it.done)
}

func (it *innerTask) wait(ctx context.Context) error {
	select {
	case <-it.done:
		return it.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (it *innerTask) result() any { return it.val }

// errValue returns the closure's error. Callers must only call this after
// observing done closed (directly or via wait), so the happens-before edge
// established by close(done)/receive-from-done makes the read of err safe
// without its own lock.
func (it *innerTask) errValue() error { return it.err }

func (it *innerTask) isDone() bool {
	select {
	case <-it.done:
		return true
	default:
		return false
	}
}

// conflict implements dag.ConflictFunc for *Task payloads: two tasks
// conflict if some pair of their declared accesses overlaps and at least
// one of the pair writes.
func conflict(older, newer any) bool {
	oldTask := older.(*Task)
	newTask := newer.(*Task)
	for _, oa := range oldTask.accesses {
		for _, na := range newTask.accesses {
			if !overlap.ModesConflict(oa.mode, na.mode) {
				continue
			}
			if overlap.Overlaps(oa.data, na.data) {
				return true
			}
		}
	}
	return false
}

package taskgraph

import (
	"errors"

	"taskgraph/internal/dag"

	pkgerrors "github.com/pkg/errors"
)

// Errors are classified by kind, not by Go type, so callers can branch on
// errors.Is(err, taskgraph.ErrInvalidCapacity) etc. regardless of which
// operation produced it.
var (
	// ErrInvalidCapacity: capacity <= 0 at construction, or a resize below
	// the current live node count.
	ErrInvalidCapacity = dag.ErrInvalidCapacity

	// ErrLiveInDegree: a node was removed while it still had live
	// predecessors. The cleanup path warns and removes anyway.
	ErrLiveInDegree = errors.New("taskgraph: removed node had live predecessors")

	// ErrClosureFailed wraps a panic or error recovered from a task's
	// closure, observed by dependents at Wait/Fetch.
	ErrClosureFailed = errors.New("taskgraph: task closure failed")

	// ErrWedged marks a panic inside the runtime's own bookkeeping, which
	// should never happen in correct usage; fatal.
	ErrWedged = errors.New("taskgraph: runtime wedged")

	// ErrGraphStopped is returned by Spawn when called against a TaskGraph
	// that is mid-Empty (its cleanup worker has been stopped).
	ErrGraphStopped = errors.New("taskgraph: graph is being reset")

	// ErrAccessLengthMismatch is returned by Spawn when the data and mode
	// tuples passed to it do not have equal length.
	ErrAccessLengthMismatch = errors.New("taskgraph: data and mode tuples have different lengths")

	// ErrNoActiveGraph is returned by the package-level Spawn when ctx
	// carries no active TaskGraph.
	ErrNoActiveGraph = errors.New("taskgraph: no active graph in context")
)

// Error wraps a sentinel Kind with the task tag and operation name that
// produced it.
type Error struct {
	Kind error
	Op   string
	Tag  Tag
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return pkgerrors.Wrapf(e.Kind, "%s (tag=%d)", e.Op, e.Tag).Error()
}

func (e *Error) Unwrap() error { return e.Kind }

func wrapErr(kind error, op string, tag Tag) error {
	return &Error{Kind: kind, Op: op, Tag: tag}
}

package dag

import (
	"errors"

	pkgerrors "github.com/pkg/errors"
)

var (
	// ErrInvalidCapacity is returned when a Graph is constructed with a
	// non-positive capacity, or Resize is asked to shrink below the current
	// live node count.
	ErrInvalidCapacity = errors.New("invalid dag capacity")

	// ErrUnknownTag is returned when an operation names a tag that is not
	// currently live in the graph.
	ErrUnknownTag = errors.New("unknown tag")

	// ErrBackwardEdge is returned by AddEdge when the edge would not go
	// from a lower tag to a higher one; acyclicity is structural and this
	// would break it.
	ErrBackwardEdge = errors.New("edge must go from a lower tag to a higher one")

	// ErrLiveInDegree is returned by Remove when the node being removed
	// still has live predecessors. Remove logs a warning and removes the
	// node anyway; this error lets a stricter caller detect and reject
	// the situation instead.
	ErrLiveInDegree = errors.New("removing node with live predecessors")
)

// GraphError wraps a sentinel Kind with positional context, matching the
// dag.Graph bookkeeping that should never occur in correct usage.
type GraphError struct {
	Kind error
	Op   string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	return pkgerrors.Wrap(e.Kind, e.Op).Error()
}

func (e *GraphError) Unwrap() error { return e.Kind }

func wrapf(kind error, op string) error {
	return &GraphError{Kind: kind, Op: op}
}

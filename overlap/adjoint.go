package overlap

// Adjoint wraps a parent region to denote a transposed/conjugated view used
// read-only by linear-algebra kernels. Like Triangular, it has no
// independent identity and delegates overlap queries to Parent.
type Adjoint struct {
	Parent any
}

func NewAdjoint(parent any) Adjoint { return Adjoint{Parent: parent} }

func (a Adjoint) delegate() any { return a.Parent }

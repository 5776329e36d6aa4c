package overlap

// Triangular wraps a parent region (typically a Buffer or View) to denote
// that only its upper or lower triangle is accessed. It carries no
// independent identity: overlap queries delegate to Parent.
type Triangular struct {
	Parent any
	Upper  bool
}

func NewUpperTriangular(parent any) Triangular { return Triangular{Parent: parent, Upper: true} }
func NewLowerTriangular(parent any) Triangular { return Triangular{Parent: parent, Upper: false} }

func (t Triangular) delegate() any { return t.Parent }

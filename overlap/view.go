package overlap

// AxisRange describes the index set a view selects along one axis of its
// parent. A Range covers [Lo, Hi]; a single-index axis (Lo == Hi, Single
// true) models slicing like M[i, :].
type AxisRange struct {
	Lo, Hi int
	Single bool
}

// intersects reports whether two axis ranges share at least one index.
func (r AxisRange) intersects(o AxisRange) bool {
	if r.Single && o.Single {
		return r.Lo == o.Lo
	}
	if r.Single {
		return o.Lo <= r.Lo && r.Lo <= o.Hi
	}
	if o.Single {
		return r.Lo <= o.Lo && o.Lo <= r.Hi
	}
	return r.Lo <= o.Hi && o.Lo <= r.Hi
}

// View is a sub-range window into a parent Buffer, identified by the
// parent's base address plus a per-axis index set.
type View struct {
	Parent Buffer
	Axes   []AxisRange
}

// NewView constructs a View over parent selecting the given per-axis ranges.
func NewView(parent Buffer, axes ...AxisRange) View {
	cp := make([]AxisRange, len(axes))
	copy(cp, axes)
	return View{Parent: parent, Axes: cp}
}

func axesIntersect(a, b []AxisRange) bool {
	if len(a) != len(b) {
		// Mismatched dimensionality: conservatively treat as intersecting,
		// since there is no well-defined per-axis correspondence.
		return true
	}
	for i := range a {
		if !a[i].intersects(b[i]) {
			return false
		}
	}
	return true
}

func init() {
	Register(func(v View, b Buffer) bool {
		return v.Parent.base == b.base
	})
	Register(func(a, b View) bool {
		if a.Parent.base != b.Parent.base {
			return false
		}
		return axesIntersect(a.Axes, b.Axes)
	})
}

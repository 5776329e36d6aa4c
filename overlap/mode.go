package overlap

// AccessMode describes how a task touches a declared data region.
type AccessMode int

const (
	Read AccessMode = iota
	Write
	ReadWrite
)

// String renders the mode for diagnostics and trace labels.
func (m AccessMode) String() string {
	switch m {
	case Read:
		return "READ"
	case Write:
		return "WRITE"
	case ReadWrite:
		return "READWRITE"
	default:
		return "UNKNOWN"
	}
}

// writes reports whether the mode performs a write to the region.
func (m AccessMode) writes() bool {
	return m == Write || m == ReadWrite
}

// ModesConflict reports whether two accesses to overlapping regions
// constitute a conflict: two READs never conflict, anything else does.
func ModesConflict(a, b AccessMode) bool {
	return a.writes() || b.writes()
}

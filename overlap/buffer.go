package overlap

import "reflect"

// Buffer is a region backed by a contiguous slice. Its identity is the base
// address of the slice's backing array, obtained via reflection so Buffer is
// agnostic to the element type.
//
// Two Buffers overlap iff they share the same base address: a plain
// pointer-identity check, not a byte-range intersection.
type Buffer struct {
	base uintptr
	len  int
	typ  reflect.Type
}

// NewBuffer wraps any slice value as a Buffer region.
func NewBuffer(backing any) Buffer {
	v := reflect.ValueOf(backing)
	if v.Kind() != reflect.Slice {
		panic("overlap: NewBuffer requires a slice value")
	}
	return Buffer{base: v.Pointer(), len: v.Len(), typ: v.Type().Elem()}
}

// Len reports the number of elements in the buffer.
func (b Buffer) Len() int { return b.len }

func init() {
	Register(func(a, b Buffer) bool {
		return a.base == b.base
	})
}

// Package overlap implements the memory-overlap registry: the extensible
// relation that the dependency engine uses to decide whether two data
// regions accessed by different tasks can possibly alias.
//
// The registry is an open extension set, looked up by the dynamic types of
// the two operands. Built-in specializations cover scalars, contiguous
// buffers, sub-range views, and triangular/adjoint wrappers. Users register
// their own region types with Register.
package overlap

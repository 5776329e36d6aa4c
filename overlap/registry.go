package overlap

import (
	"reflect"
	"sync"

	"github.com/rs/zerolog/log"
)

// delegator is implemented by wrapper region kinds (Triangular, Adjoint) that
// do not carry independent identity and instead delegate overlap queries to
// the region they wrap.
type delegator interface {
	delegate() any
}

// Func decides whether two regions of a specific, ordered type pair overlap.
type Func func(a, b any) bool

type typePair struct {
	a reflect.Type
	b reflect.Type
}

var (
	registryMu sync.RWMutex
	registry   = map[typePair]Func{}

	warnedMu sync.Mutex
	warned   = map[typePair]struct{}{}
)

// Register installs fn for the ordered pair (A, B), and its mirror for (B, A)
// unless A == B, so that overlap lookups commute regardless of argument
// order.
func Register[A, B any](fn func(a A, b B) bool) {
	var za A
	var zb B
	ta := reflect.TypeOf(za)
	tb := reflect.TypeOf(zb)

	wrapped := func(a, b any) bool {
		return fn(a.(A), b.(B))
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	registry[typePair{ta, tb}] = wrapped
	if ta != tb {
		registry[typePair{tb, ta}] = func(a, b any) bool {
			return fn(b.(A), a.(B))
		}
	}
}

// unwrap follows delegate() chains until it reaches a region with its own
// identity (a Buffer or a View). Triangular and adjoint wrappers never get
// their own registry entries; they are transparent to overlap decisions.
func unwrap(x any) any {
	for {
		d, ok := x.(delegator)
		if !ok {
			return x
		}
		x = d.delegate()
	}
}

// Overlaps decides whether regions a and b may alias. It is symmetric by
// construction: Overlaps(a, b) == Overlaps(b, a).
//
// Resolution order:
//  1. Unwrap Triangular/Adjoint wrappers to their underlying parent.
//  2. Bitwise-immutable scalars never overlap anything.
//  3. A registered specialization for the dynamic type pair, if any.
//  4. The pessimistic fallback: true, plus a one-shot diagnostic naming the
//     unspecialized type pair.
func Overlaps(a, b any) bool {
	a = unwrap(a)
	b = unwrap(b)

	if isImmutableScalar(a) || isImmutableScalar(b) {
		return false
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)

	registryMu.RLock()
	fn, ok := registry[typePair{ta, tb}]
	registryMu.RUnlock()
	if ok {
		return fn(a, b)
	}

	warnOnce(ta, tb)
	return true
}

func warnOnce(ta, tb reflect.Type) {
	key := typePair{ta, tb}
	warnedMu.Lock()
	_, seen := warned[key]
	if !seen {
		warned[key] = struct{}{}
	}
	warnedMu.Unlock()
	if seen {
		return
	}
	log.Warn().
		Str("typeA", typeName(ta)).
		Str("typeB", typeName(tb)).
		Msg("overlap: no specialization registered for region pair, assuming conflict")
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// isImmutableScalar reports whether x is a bitwise-immutable scalar: a
// value kind that can never alias another region because it carries no
// shared storage.
func isImmutableScalar(x any) bool {
	if x == nil {
		return true
	}
	switch reflect.ValueOf(x).Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// ResetWarnings clears the one-shot fallback-diagnostic dedup set. Exposed
// for tests that assert on the warning being emitted exactly once per pair.
func ResetWarnings() {
	warnedMu.Lock()
	warned = map[typePair]struct{}{}
	warnedMu.Unlock()
}

package thunk

// Strict is a do-nothing, eager cell: it is constructed from an
// already-computed value and Force is a constant-time identity operation.
// It exists so structures generic over the capability interfaces can be
// instantiated with either genuinely lazy or strict cells without
// branching.
type Strict[T any] struct {
	val T
}

// NewStrict wraps an already-computed value. No computation is ever stored
// or invoked.
func NewStrict[T any](v T) *Strict[T] {
	return &Strict[T]{val: v}
}

// Force returns the value. It never fails and has no state transition.
func (s *Strict[T]) Force() (T, error) {
	return s.val, nil
}

// ForceMut returns a pointer to the value.
func (s *Strict[T]) ForceMut() (*T, error) {
	return &s.val, nil
}

// Peek always reports the value as cached.
func (s *Strict[T]) Peek() (T, bool) {
	return s.val, true
}

// Unwrap returns the value. Unlike the lazy cells, a Strict cell stays
// usable afterwards: there is no deferred state to invalidate.
func (s *Strict[T]) Unwrap() (T, error) {
	return s.val, nil
}

// Compile-time capability checks.
var (
	_ Forcer[int]    = (*Strict[int])(nil)
	_ MutForcer[int] = (*Strict[int])(nil)
	_ Unwrapper[int] = (*Strict[int])(nil)
)

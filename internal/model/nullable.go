package model

// Nullable is a patch value for an optional field. The zero value leaves
// the field alone; Set assigns it and Null clears it.
type Nullable[T any] struct {
	set   bool
	null  bool
	value T
}

// Set returns a Nullable that assigns v
func Set[T any](v T) Nullable[T] {
	return Nullable[T]{set: true, value: v}
}

// Null returns a Nullable that clears the field
func Null[T any]() Nullable[T] {
	return Nullable[T]{set: true, null: true}
}

func (n Nullable[T]) IsSet() bool  { return n.set }
func (n Nullable[T]) IsNull() bool { return n.set && n.null }
func (n Nullable[T]) Value() T     { return n.value }

// Apply writes the patch into dst when set
func (n Nullable[T]) Apply(dst **T) {
	if !n.set {
		return
	}
	if n.null {
		*dst = nil
		return
	}
	v := n.value
	*dst = &v
}

package conditional

import (
	"encoding/json"
	"reflect"
)

// A Collection wraps a list of representations so that a single entity tag
// covers the whole list while the element type remains visible to content
// negotiation. It encodes as a plain array, never as null.
type Collection[E any] struct {
	elems []E
}

// List wraps elems in a Collection.
func List[E any](elems []E) Collection[E] {
	return Collection[E]{elems: elems}
}

// ElemType returns the type of c's elements.
func (c Collection[E]) ElemType() reflect.Type {
	return reflect.TypeFor[E]()
}

// Elems returns c's elements.
func (c Collection[E]) Elems() []E {
	return c.elems
}

// Len returns the number of c's elements.
func (c Collection[E]) Len() int {
	return len(c.elems)
}

func (c Collection[E]) nonNil() []E {
	if c.elems == nil {
		return []E{}
	}
	return c.elems
}

func (c Collection[E]) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.nonNil())
}

func (c Collection[E]) MarshalYAML() (any, error) {
	return c.nonNil(), nil
}

// elemTyper is implemented by every Collection.
type elemTyper interface {
	ElemType() reflect.Type
}

// negotiatedType returns the type that content negotiation considers for
// representation rep: a Collection's element type, or rep's own type.
func negotiatedType(rep any) reflect.Type {
	if c, ok := rep.(elemTyper); ok {
		return c.ElemType()
	}
	return reflect.TypeOf(rep)
}

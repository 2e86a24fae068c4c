package tree

import "reflect"

// traits maps a capability type to the record attached for it.
type traits struct {
	m map[reflect.Type]any
}

// Attach registers v as the T capability of n, replacing any previous one.
func Attach[T any](n *Node, v T) {
	if n.traits.m == nil {
		n.traits.m = make(map[reflect.Type]any)
	}
	n.traits.m[reflect.TypeFor[T]()] = v
}

// Lookup returns the T capability of n.
func Lookup[T any](n *Node) (T, bool) {
	var zero T
	if n == nil || n.traits.m == nil {
		return zero, false
	}
	v, ok := n.traits.m[reflect.TypeFor[T]()]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Detach removes the T capability and returns what was attached.
func Detach[T any](n *Node) (T, bool) {
	v, ok := Lookup[T](n)
	if ok {
		delete(n.traits.m, reflect.TypeFor[T]())
	}
	return v, ok
}

// Closer is implemented by traits that hold listeners.
type Closer interface {
	Close()
}

// CloseTraits closes and removes every trait attached to n.
func CloseTraits(n *Node) {
	for k, v := range n.traits.m {
		if c, ok := v.(Closer); ok {
			c.Close()
		}
		delete(n.traits.m, k)
	}
}

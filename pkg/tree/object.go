package tree

import (
	"weak"
)

// Object is a nested attribute map used for style graphs. Changes to a
// nested object are reported to the watchers of every enclosing object.
type Object struct {
	attrs    attributes
	parent   weak.Pointer[Object]
	watchers listeners[func(source Store, name string)]
}

func NewObject() *Object {
	return &Object{}
}

// ObjectFromMap builds an object from decoded JSON-like data. Map
// iteration order is unspecified, so callers that care about declaration
// order should decode with an ordered decoder instead.
func ObjectFromMap(m map[string]any) *Object {
	o := NewObject()
	for k, v := range m {
		o.Set(k, From(v))
	}
	return o
}

func (o *Object) Get(name string) (Value, bool) {
	return o.attrs.get(name)
}

// Value returns the attribute or Undefined.
func (o *Object) Value(name string) Value {
	v, _ := o.attrs.get(name)
	return v
}

func (o *Object) Has(name string) bool {
	_, ok := o.attrs.get(name)
	return ok
}

func (o *Object) Set(name string, v Value) {
	if child := v.AsObject(); child != nil {
		child.parent = weak.Make(o)
	}
	if o.attrs.set(name, v) {
		o.notify(o, name)
	}
}

func (o *Object) Remove(name string) {
	if o.attrs.remove(name) {
		o.notify(o, name)
	}
}

// Keys returns attribute names in declaration order.
func (o *Object) Keys() []string {
	return o.attrs.keys()
}

func (o *Object) Len() int {
	return len(o.attrs.names)
}

func (o *Object) Parent() *Object {
	return o.parent.Value()
}

// ParentStore implements Store.
func (o *Object) ParentStore() Store {
	if p := o.parent.Value(); p != nil {
		return p
	}
	return nil
}

// Watch registers fn for changes to o and to any object nested inside it.
func (o *Object) Watch(fn func(source Store, name string)) Unsubscribe {
	return o.watchers.add(fn)
}

func (o *Object) notify(source *Object, name string) {
	for cur := o; cur != nil; cur = cur.parent.Value() {
		cur.watchers.each(func(fn func(Store, string)) { fn(source, name) })
	}
}

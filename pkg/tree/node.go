// Package tree implements the observable property tree: typed nodes with
// ordered children, ordered attributes, synchronous change notification
// and a per-node capability registry.
package tree

import (
	"slices"
)

// Store is the attribute surface shared by nodes and style objects.
type Store interface {
	Get(name string) (Value, bool)
	Set(name string, v Value)
	Remove(name string)
	// ParentStore returns the enclosing store, or nil at the root.
	ParentStore() Store
	// Watch registers fn for changes to this store and everything below it.
	Watch(fn func(source Store, name string)) Unsubscribe
}

// Attr is a name/value pair used when building nodes.
type Attr struct {
	Name  string
	Value Value
}

// A builds an Attr from a plain Go value.
func A(name string, v any) Attr {
	return Attr{Name: name, Value: From(v)}
}

// Node is one element of the property tree. A parent owns its children.
type Node struct {
	typ      string
	attrs    attributes
	children []*Node
	parent   *Node
	traits   traits

	propertyListeners listeners[func(source *Node, name string)]
	addedListeners    listeners[func(parent, child *Node)]
	removedListeners  listeners[func(parent, child *Node, index int)]
	parentListeners   listeners[func(n *Node)]
}

// NewNode creates a detached node with the given type and attributes,
// appending any children in order.
func NewNode(typ string, attrs []Attr, children ...*Node) *Node {
	n := &Node{typ: typ}
	for _, a := range attrs {
		n.attrs.set(a.Name, a.Value)
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// Type returns the element type tag.
func (n *Node) Type() string { return n.typ }

func (n *Node) Parent() *Node {
	return n.parent
}

// ParentStore implements Store.
func (n *Node) ParentStore() Store {
	if n.parent != nil {
		return n.parent
	}
	return nil
}

func (n *Node) Root() *Node {
	cur := n
	for p := cur.Parent(); p != nil; p = cur.Parent() {
		cur = p
	}
	return cur
}

// IsAChildOf reports whether ancestor is a strict ancestor of n.
func (n *Node) IsAChildOf(ancestor *Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Depth is the number of ancestors above n.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent(); p != nil; p = p.Parent() {
		d++
	}
	return d
}

func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

func (n *Node) NumChildren() int { return len(n.children) }

func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

func (n *Node) IndexOf(child *Node) int {
	return slices.Index(n.children, child)
}

func (n *Node) AppendChild(child *Node) {
	n.InsertChild(child, -1)
}

// InsertChild inserts child at index; a negative or out of range index
// appends. A child that already has a parent is removed from it first.
func (n *Node) InsertChild(child *Node, index int) {
	if child == nil || child == n {
		return
	}
	if old := child.Parent(); old != nil {
		old.RemoveChild(child)
	}
	if index < 0 || index > len(n.children) {
		index = len(n.children)
	}
	n.children = slices.Insert(n.children, index, child)
	child.parent = n

	child.parentListeners.each(func(fn func(*Node)) { fn(child) })
	for cur := n; cur != nil; cur = cur.Parent() {
		cur.addedListeners.each(func(fn func(*Node, *Node)) { fn(n, child) })
	}
}

func (n *Node) RemoveChild(child *Node) {
	i := n.IndexOf(child)
	if i < 0 {
		return
	}
	n.children = slices.Delete(n.children, i, i+1)
	child.parent = nil

	child.parentListeners.each(func(fn func(*Node)) { fn(child) })
	for cur := n; cur != nil; cur = cur.Parent() {
		cur.removedListeners.each(func(fn func(*Node, *Node, int)) { fn(n, child, i) })
	}
}

func (n *Node) Get(name string) (Value, bool) {
	return n.attrs.get(name)
}

// Value returns the attribute or Undefined.
func (n *Node) Value(name string) Value {
	v, _ := n.attrs.get(name)
	return v
}

func (n *Node) Has(name string) bool {
	_, ok := n.attrs.get(name)
	return ok
}

// Set stores an attribute and notifies listeners on n and its ancestors
// before returning. Setting an equal value is a no-op.
func (n *Node) Set(name string, v Value) {
	if n.attrs.set(name, v) {
		n.notify(name)
	}
}

// SetAny is Set with a plain Go value.
func (n *Node) SetAny(name string, v any) {
	n.Set(name, From(v))
}

func (n *Node) Remove(name string) {
	if n.attrs.remove(name) {
		n.notify(name)
	}
}

// AttributeNames returns attribute names in insertion order.
func (n *Node) AttributeNames() []string {
	return n.attrs.keys()
}

func (n *Node) notify(name string) {
	for cur := n; cur != nil; cur = cur.Parent() {
		cur.propertyListeners.each(func(fn func(*Node, string)) { fn(n, name) })
	}
}

// OnPropertyChanged registers fn for attribute changes on n and on every
// node below it.
func (n *Node) OnPropertyChanged(fn func(source *Node, name string)) Unsubscribe {
	return n.propertyListeners.add(fn)
}

// OnChildAdded registers fn for insertions anywhere below n.
func (n *Node) OnChildAdded(fn func(parent, child *Node)) Unsubscribe {
	return n.addedListeners.add(fn)
}

// OnChildRemoved registers fn for removals anywhere below n.
func (n *Node) OnChildRemoved(fn func(parent, child *Node, index int)) Unsubscribe {
	return n.removedListeners.add(fn)
}

// OnParentChanged registers fn for when n is attached to or detached from
// a parent.
func (n *Node) OnParentChanged(fn func(n *Node)) Unsubscribe {
	return n.parentListeners.add(fn)
}

// Watch implements Store on top of OnPropertyChanged.
func (n *Node) Watch(fn func(source Store, name string)) Unsubscribe {
	return n.OnPropertyChanged(func(source *Node, name string) { fn(source, name) })
}

// Walk visits n and its descendants depth-first in child order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range slices.Clone(n.children) {
		c.Walk(fn)
	}
}

// FindByID returns the first node in the subtree whose id attribute is id.
func (n *Node) FindByID(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if found != nil {
			return false
		}
		if v, ok := c.Get("id"); ok && v.AsString() == id {
			found = c
			return false
		}
		return true
	})
	return found
}

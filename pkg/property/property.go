// Package property provides typed, observable views over a single
// attribute of a tree node or style object.
package property

import (
	"strings"

	"vista/pkg/kinetics"
	"vista/pkg/tree"
)

// Inheritance selects where a missing attribute is looked up.
type Inheritance int

const (
	NoInherit Inheritance = iota
	InheritFromParent
	// InheritFromAncestors uses the first ancestor defining the attribute.
	InheritFromAncestors
)

// TransitionAttribute holds the transition list of a store.
const TransitionAttribute = "transition"

// Option configures a Property.
type Option[T any] func(*Property[T])

// Inherit selects the inheritance mode.
func Inherit[T any](mode Inheritance) Option[T] {
	return func(p *Property[T]) { p.inheritance = mode }
}

// Accumulated makes Get return the sum of the own value and the values of
// every descendant, combined with add.
func Accumulated[T any](add func(a, b T) T) Option[T] {
	return func(p *Property[T]) { p.add = add }
}

// Accumulating makes the property answer changes made on descendants.
func Accumulating[T any]() Option[T] {
	return func(p *Property[T]) { p.accumulating = true }
}

// IgnoreChanges registers no change listener at all.
func IgnoreChanges[T any]() Option[T] {
	return func(p *Property[T]) { p.ignore = true }
}

// WithTransitions lets the property animate through reg when its store
// declares a transition for it.
func WithTransitions[T any](reg *kinetics.Registry) Option[T] {
	return func(p *Property[T]) { p.registry = reg }
}

// TransitionSource names the attribute whose transition descriptor
// drives this property. It defaults to the property's own name.
func TransitionSource[T any](name string) Option[T] {
	return func(p *Property[T]) { p.transitionSource = name }
}

// Property is a typed view over (store, name).
type Property[T any] struct {
	store tree.Store
	name  string
	codec Codec[T]

	inheritance      Inheritance
	add              func(a, b T) T
	accumulating     bool
	ignore           bool
	registry         *kinetics.Registry
	transitionSource string

	// OnValueChange is called after a relevant change of the attribute.
	OnValueChange func()
	// OnTransitionProgressed is called on every registry tick while a
	// transition of this property runs, including the final one.
	OnTransitionProgressed func()

	last          T
	unsubscribe   tree.Unsubscribe
	unwatchTicks  tree.Unsubscribe
	unwatchParent tree.Unsubscribe
}

// New binds a property to name on store.
func New[T any](store tree.Store, name string, codec Codec[T], opts ...Option[T]) *Property[T] {
	p := &Property[T]{store: store, name: name, codec: codec}
	for _, opt := range opts {
		opt(p)
	}
	if p.transitionSource == "" {
		p.transitionSource = name
	}
	if p.ignore {
		return p
	}
	p.last = p.Get()
	p.listen()
	if n, ok := store.(*tree.Node); ok && p.inheritance != NoInherit {
		p.unwatchParent = n.OnParentChanged(func(*tree.Node) { p.listen() })
	}
	if p.registry != nil {
		p.unwatchTicks = p.registry.Watch(store, name, func(bool) {
			if p.OnTransitionProgressed != nil {
				p.OnTransitionProgressed()
			}
		})
	}
	return p
}

// NewWithDefault is New followed by Set(initial) when the attribute is
// not yet defined.
func NewWithDefault[T any](store tree.Store, name string, codec Codec[T], initial T, opts ...Option[T]) *Property[T] {
	p := New(store, name, codec, opts...)
	if !p.Exists() {
		p.Set(initial)
	}
	return p
}

func (p *Property[T]) Name() string { return p.name }

func (p *Property[T]) Store() tree.Store { return p.store }

// Get returns the own value, or the inherited one, decoded. Accumulated
// properties add every descendant's value.
func (p *Property[T]) Get() T {
	var v T
	if raw, ok := p.store.Get(p.name); ok {
		v = p.decode(raw)
	} else {
		v = p.codec.Decode(p.inherited())
	}
	if p.add != nil {
		if n, ok := p.store.(*tree.Node); ok {
			for _, c := range n.Children() {
				v = p.add(v, p.sumBelow(c))
			}
		}
	}
	return v
}

// GetOr returns fallback when neither the store nor (per inheritance)
// its ancestors define the attribute.
func (p *Property[T]) GetOr(fallback T) T {
	if p.Exists() {
		return p.Get()
	}
	if inherited := p.inherited(); !inherited.IsUndefined() {
		return p.codec.Decode(inherited)
	}
	return fallback
}

func (p *Property[T]) Set(v T) {
	p.store.Set(p.name, p.codec.Encode(v))
}

// SetFunc makes the attribute computed: Get calls fn on every read.
func (p *Property[T]) SetFunc(fn func() T) {
	p.store.Set(p.name, tree.Handle(fn))
}

// IsFunctional reports whether the attribute holds a function set by
// SetFunc.
func (p *Property[T]) IsFunctional() bool {
	raw, ok := p.store.Get(p.name)
	if !ok {
		return false
	}
	_, fn := raw.AsHandle().(func() T)
	return fn
}

func (p *Property[T]) SetAuto() {
	p.store.Set(p.name, tree.String("auto"))
}

func (p *Property[T]) Clear() {
	p.store.Remove(p.name)
}

func (p *Property[T]) Exists() bool {
	_, ok := p.store.Get(p.name)
	return ok
}

// IsAuto is true when the attribute is missing or reads "auto".
func (p *Property[T]) IsAuto() bool {
	raw, ok := p.store.Get(p.name)
	if !ok {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(raw.AsString()), "auto")
}

// String returns the raw attribute text, or "" when missing.
func (p *Property[T]) String() string {
	raw, ok := p.store.Get(p.name)
	if !ok {
		return ""
	}
	return raw.AsString()
}

// Transition returns the transition that last animated this property.
func (p *Property[T]) Transition() *kinetics.Transition {
	if p.registry == nil {
		return nil
	}
	return p.registry.Get(p.store, p.name)
}

// IsTransitioning reports whether a transition is still running.
func (p *Property[T]) IsTransitioning() bool {
	t := p.Transition()
	return t != nil && !t.Finished(p.registry.Now())
}

// Current returns the transition-interpolated value, or Get when no
// transition is running.
func (p *Property[T]) Current() T {
	t := p.Transition()
	if t == nil || t.Finished(p.registry.Now()) {
		return p.Get()
	}
	return kinetics.Current[T](p.registry.Interpolators(), t, p.registry.Now())
}

// Close unregisters every listener.
func (p *Property[T]) Close() {
	for _, u := range []tree.Unsubscribe{p.unsubscribe, p.unwatchTicks, p.unwatchParent} {
		if u != nil {
			u()
		}
	}
	p.unsubscribe, p.unwatchTicks, p.unwatchParent = nil, nil, nil
}

func (p *Property[T]) decode(raw tree.Value) T {
	if fn, ok := raw.AsHandle().(func() T); ok {
		return fn()
	}
	return p.codec.Decode(raw)
}

func (p *Property[T]) inherited() tree.Value {
	switch p.inheritance {
	case InheritFromParent:
		if parent := p.store.ParentStore(); parent != nil {
			v, _ := parent.Get(p.name)
			return v
		}
	case InheritFromAncestors:
		for s := p.store.ParentStore(); s != nil; s = s.ParentStore() {
			if v, ok := s.Get(p.name); ok {
				return v
			}
		}
	}
	return tree.Undefined
}

func (p *Property[T]) sumBelow(n *tree.Node) T {
	var v T
	if raw, ok := n.Get(p.name); ok {
		v = p.decode(raw)
	}
	for _, c := range n.Children() {
		v = p.add(v, p.sumBelow(c))
	}
	return v
}

// listen (re)registers the change listener on the store that sees every
// relevant change: the store itself, its parent or its root.
func (p *Property[T]) listen() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	target := p.store
	switch p.inheritance {
	case InheritFromParent:
		if parent := p.store.ParentStore(); parent != nil {
			target = parent
		}
	case InheritFromAncestors:
		for s := p.store.ParentStore(); s != nil; s = s.ParentStore() {
			target = s
		}
	}
	p.unsubscribe = target.Watch(p.changed)
}

func (p *Property[T]) changed(source tree.Store, name string) {
	if name != p.name {
		return
	}
	if _, ok := source.Get(name); !ok {
		return
	}
	if !p.respondsTo(source) {
		return
	}
	if source == p.store {
		p.retarget()
	}
	if p.OnValueChange != nil {
		p.OnValueChange()
	}
}

func (p *Property[T]) respondsTo(source tree.Store) bool {
	if source == p.store {
		return true
	}
	switch p.inheritance {
	case InheritFromParent:
		if source == p.store.ParentStore() {
			return true
		}
	case InheritFromAncestors:
		for s := p.store.ParentStore(); s != nil; s = s.ParentStore() {
			if s == source {
				return true
			}
		}
	}
	if p.accumulating {
		for s := source.ParentStore(); s != nil; s = s.ParentStore() {
			if s == p.store {
				return true
			}
		}
	}
	return false
}

// retarget starts a transition from the last seen value when the store
// declares one for the transition source. Otherwise any earlier transition
// is dropped and the new value applies at once.
func (p *Property[T]) retarget() {
	next := p.Get()
	previous := p.last
	p.last = next
	if p.registry == nil {
		return
	}
	d, ok := p.descriptor()
	if !ok {
		p.registry.Drop(p.store, p.name)
		return
	}
	p.registry.Retarget(p.store, p.name, d, previous, next)
}

func (p *Property[T]) descriptor() (kinetics.Descriptor, bool) {
	raw, ok := p.store.Get(TransitionAttribute)
	if !ok {
		return kinetics.Descriptor{}, false
	}
	d, ok := kinetics.ParseDescriptors(raw.AsString())[p.transitionSource]
	return d, ok
}

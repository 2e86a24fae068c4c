package tree

import "slices"

// attributes is an insertion-ordered name -> Value map.
type attributes struct {
	names  []string
	values map[string]Value
}

func (a *attributes) get(name string) (Value, bool) {
	v, ok := a.values[name]
	return v, ok
}

// set stores v and reports whether the stored value changed.
func (a *attributes) set(name string, v Value) bool {
	if a.values == nil {
		a.values = make(map[string]Value)
	}
	old, ok := a.values[name]
	if ok && old.Equal(v) {
		return false
	}
	if !ok {
		a.names = append(a.names, name)
	}
	a.values[name] = v
	return true
}

func (a *attributes) remove(name string) bool {
	if _, ok := a.values[name]; !ok {
		return false
	}
	delete(a.values, name)
	if i := slices.Index(a.names, name); i >= 0 {
		a.names = slices.Delete(a.names, i, i+1)
	}
	return true
}

func (a *attributes) keys() []string {
	return slices.Clone(a.names)
}

// Unsubscribe removes a previously registered listener. Calling it more
// than once is harmless.
type Unsubscribe func()

type registration[F any] struct {
	fn     F
	active bool
}

// listeners keeps callbacks in registration order. Dispatch iterates a
// snapshot so callbacks may register or unregister during delivery.
type listeners[F any] struct {
	regs []*registration[F]
}

func (l *listeners[F]) add(fn F) Unsubscribe {
	r := &registration[F]{fn: fn, active: true}
	l.regs = append(l.regs, r)
	return func() {
		if !r.active {
			return
		}
		r.active = false
		if i := slices.Index(l.regs, r); i >= 0 {
			l.regs = slices.Delete(l.regs, i, i+1)
		}
	}
}

func (l *listeners[F]) each(call func(F)) {
	if len(l.regs) == 0 {
		return
	}
	snapshot := slices.Clone(l.regs)
	for _, r := range snapshot {
		if r.active {
			call(r.fn)
		}
	}
}

func (l *listeners[F]) len() int {
	return len(l.regs)
}

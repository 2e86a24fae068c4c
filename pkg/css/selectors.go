package css

import (
	"slices"
	"sort"
	"strings"

	"vista/pkg/tree"
)

// Interaction state attributes read from a node.
const (
	AttrID       = "id"
	AttrClass    = "class"
	AttrEnabled  = "enabled"
	AttrMouse    = "mouse"
	AttrKeyboard = "keyboard"
	AttrToggled  = "toggled"

	MouseNone     = "none"
	MouseHover    = "hover"
	MouseActive   = "active"
	KeyboardNone  = "none"
	KeyboardFocus = "focus"
)

// selectorAttributes are the node attributes whose change re-resolves
// the node's style.
var selectorAttributes = []string{AttrID, AttrClass, AttrEnabled, AttrMouse, AttrKeyboard, AttrToggled}

// selector is the predicate accumulated while descending a style graph.
type selector struct {
	id       string
	class    string
	typ      string
	disabled bool
	focus    bool
	mouse    string
	checked  bool
}

// Applicability bits, lowest first.
const (
	bitChecked = 1 << iota
	bitHover
	bitActive
	bitFocus
	bitDisabled
	bitType
	bitClass
	bitID
)

func (s selector) applicability() int {
	a := 0
	if s.checked {
		a |= bitChecked
	}
	switch s.mouse {
	case MouseHover:
		a |= bitHover
	case MouseActive:
		a |= bitActive
	}
	if s.focus {
		a |= bitFocus
	}
	if s.disabled {
		a |= bitDisabled
	}
	if s.typ != "" {
		a |= bitType
	}
	if s.class != "" {
		a |= bitClass
	}
	if s.id != "" {
		a |= bitID
	}
	return a
}

// nested derives the selector of a nested object stored under key.
func (s selector) nested(key string) selector {
	switch {
	case strings.HasPrefix(key, "#"):
		s.id = key[1:]
	case strings.HasPrefix(key, "."):
		s.class = key[1:]
	case key == "disabled":
		s.disabled = true
	case key == "focus":
		s.focus = true
	case key == MouseHover, key == MouseActive:
		s.mouse = key
	case key == "checked":
		s.checked = true
	default:
		s.typ = key
	}
	return s
}

// selectorState is a snapshot of the attributes selectors test against.
type selectorState struct {
	id       string
	classes  []string
	typ      string
	enabled  bool
	mouse    string
	keyboard string
	toggled  bool
}

func stateOf(n *tree.Node) selectorState {
	st := selectorState{
		id:       n.Value(AttrID).AsString(),
		classes:  strings.Fields(n.Value(AttrClass).AsString()),
		typ:      n.Type(),
		enabled:  true,
		mouse:    n.Value(AttrMouse).AsString(),
		keyboard: n.Value(AttrKeyboard).AsString(),
		toggled:  n.Value(AttrToggled).AsBool(),
	}
	if v, ok := n.Get(AttrEnabled); ok {
		st.enabled = v.AsBool()
	}
	return st
}

func (s selector) matches(st selectorState) bool {
	switch {
	case s.id != "" && s.id != st.id:
		return false
	case s.class != "" && !slices.Contains(st.classes, s.class):
		return false
	case s.typ != "" && s.typ != st.typ:
		return false
	case s.disabled && st.enabled:
		return false
	case s.focus && st.keyboard != KeyboardFocus:
		return false
	case s.mouse != "" && s.mouse != st.mouse:
		return false
	case s.checked && !st.toggled:
		return false
	}
	return true
}

// entry is one object of a flattened style graph.
type entry struct {
	sel selector
	obj *tree.Object
}

// collectEntries flattens obj depth-first in declaration order.
func collectEntries(obj *tree.Object, sel selector, out []entry) []entry {
	out = append(out, entry{sel: sel, obj: obj})
	for _, key := range obj.Keys() {
		if child := obj.Value(key).AsObject(); child != nil {
			out = collectEntries(child, sel.nested(key), out)
		}
	}
	return out
}

// findStyle returns the value of prop from the most applicable matching
// entry. Entries of equal applicability resolve to the last declared.
// With typedOnly, only entries qualified by a type name take part.
func findStyle(entries []entry, prop string, st selectorState, typedOnly bool) (tree.Value, bool) {
	type candidate struct {
		value         tree.Value
		applicability int
	}
	var matched []candidate
	for _, e := range entries {
		if typedOnly && e.sel.typ == "" {
			continue
		}
		if !e.sel.matches(st) {
			continue
		}
		if v, ok := e.obj.Get(prop); ok {
			matched = append(matched, candidate{v, e.sel.applicability()})
		}
	}
	if len(matched) == 0 {
		return tree.Undefined, false
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].applicability < matched[j].applicability
	})
	return matched[len(matched)-1].value, true
}

package css

import (
	"slices"
	"strings"

	"go.uber.org/zap"

	"vista/pkg/kinetics"
	"vista/pkg/property"
	"vista/pkg/tree"
)

// StyleAttribute holds a node's style graph, as an object or JSON text.
const StyleAttribute = "style"

const calculatedPrefix = "calculated-"

// StyleObject returns the style graph of n. JSON text is parsed without
// being stored; nil means n has no usable style.
func StyleObject(n *tree.Node) *tree.Object {
	v, ok := n.Get(StyleAttribute)
	if !ok {
		return nil
	}
	if obj := v.AsObject(); obj != nil {
		return obj
	}
	if v.IsString() && strings.TrimSpace(v.AsString()) != "" {
		obj, err := tree.ParseObject(v.AsString())
		if err == nil {
			return obj
		}
	}
	return nil
}

// StyleSheet resolves the style graph of one node, together with the
// type-qualified rules of its ancestors, into a Style. It is attached to
// the node as a trait.
type StyleSheet struct {
	node     *tree.Node
	registry *kinetics.Registry
	log      *zap.Logger

	style    *tree.Object
	entries  []entry
	resolved Style

	background    *property.Property[Fill]
	foreground    *property.Property[Fill]
	border        *property.Property[Fill]
	borderRadius  *property.Property[Radii]
	fontSize      *property.Property[float64]
	fontStretch   *property.Property[float64]
	letterSpacing *property.Property[float64]

	unwatchNode   tree.Unsubscribe
	unwatchParent tree.Unsubscribe
	unwatchStyle  tree.Unsubscribe
}

type StyleSheetOption func(*StyleSheet)

// WithRegistry enables style transitions declared by a "transition" key
// inside the style object.
func WithRegistry(reg *kinetics.Registry) StyleSheetOption {
	return func(s *StyleSheet) { s.registry = reg }
}

func WithLogger(l *zap.Logger) StyleSheetOption {
	return func(s *StyleSheet) { s.log = l }
}

// NewStyleSheet attaches a style sheet to n and resolves it once. Sheets
// should be created parent first so inherited values are available.
func NewStyleSheet(n *tree.Node, opts ...StyleSheetOption) *StyleSheet {
	s := &StyleSheet{node: n, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	tree.Attach(n, s)

	s.unwatchNode = n.OnPropertyChanged(func(source *tree.Node, name string) {
		if source != n {
			return
		}
		switch {
		case name == StyleAttribute:
			s.rebuild()
			s.Apply()
		case slices.Contains(selectorAttributes, name):
			s.Apply()
		}
	})
	s.unwatchParent = n.OnParentChanged(func(*tree.Node) { s.Apply() })
	s.rebuild()
	s.resolve()
	return s
}

// Node returns the node the sheet belongs to.
func (s *StyleSheet) Node() *tree.Node { return s.node }

// Style returns the last resolved style.
func (s *StyleSheet) Style() Style { return s.resolved }

// Apply re-resolves this node and every styled node below it.
func (s *StyleSheet) Apply() {
	s.resolve()
	for _, c := range s.node.Children() {
		applyTree(c)
	}
}

func applyTree(n *tree.Node) {
	if sheet, ok := tree.Lookup[*StyleSheet](n); ok {
		sheet.Apply()
		return
	}
	for _, c := range n.Children() {
		applyTree(c)
	}
}

// Close unregisters every listener and detaches the sheet.
func (s *StyleSheet) Close() {
	for _, u := range []tree.Unsubscribe{s.unwatchNode, s.unwatchParent, s.unwatchStyle} {
		if u != nil {
			u()
		}
	}
	s.closeCalculated()
	tree.Detach[*StyleSheet](s.node)
}

// rebuild re-reads the style attribute and flattens it.
func (s *StyleSheet) rebuild() {
	if s.unwatchStyle != nil {
		s.unwatchStyle()
		s.unwatchStyle = nil
	}
	s.closeCalculated()
	s.style, s.entries = nil, nil

	v, ok := s.node.Get(StyleAttribute)
	if !ok {
		return
	}
	if v.IsString() {
		obj, err := tree.ParseObject(v.AsString())
		if err != nil {
			s.log.Debug("ignoring malformed style", zap.String("type", s.node.Type()), zap.Error(err))
			return
		}
		// Storing the object re-enters rebuild through the node listener.
		s.node.Set(StyleAttribute, tree.ObjectValue(obj))
		return
	}
	s.style = v.AsObject()
	if s.style == nil {
		return
	}
	s.entries = collectEntries(s.style, selector{}, nil)
	s.unwatchStyle = s.style.Watch(func(_ tree.Store, name string) {
		if strings.HasPrefix(name, calculatedPrefix) {
			return
		}
		s.entries = collectEntries(s.style, selector{}, nil)
		s.Apply()
	})
}

func (s *StyleSheet) closeCalculated() {
	if s.background != nil {
		s.background.Close()
	}
	if s.foreground != nil {
		s.foreground.Close()
	}
	if s.border != nil {
		s.border.Close()
	}
	if s.borderRadius != nil {
		s.borderRadius.Close()
	}
	for _, p := range []*property.Property[float64]{s.fontSize, s.fontStretch, s.letterSpacing} {
		if p != nil {
			p.Close()
		}
	}
	s.background, s.foreground, s.border, s.borderRadius = nil, nil, nil, nil
	s.fontSize, s.fontStretch, s.letterSpacing = nil, nil, nil
	if s.registry != nil && s.style != nil {
		s.registry.Forget(s.style)
	}
}

// closestAncestor is the nearest ancestor carrying a style sheet.
func (s *StyleSheet) closestAncestor() *StyleSheet {
	for a := s.node.Parent(); a != nil; a = a.Parent() {
		if sheet, ok := tree.Lookup[*StyleSheet](a); ok {
			return sheet
		}
	}
	return nil
}

// lookup finds prop in the node's own graph, then in the type-qualified
// rules of its ancestors, nearest first.
func (s *StyleSheet) lookup(prop string, st selectorState) (tree.Value, bool) {
	if v, ok := findStyle(s.entries, prop, st, false); ok {
		return v, true
	}
	for a := s.node.Parent(); a != nil; a = a.Parent() {
		sheet, ok := tree.Lookup[*StyleSheet](a)
		if !ok {
			continue
		}
		if v, ok := findStyle(sheet.entries, prop, st, true); ok {
			return v, true
		}
	}
	return tree.Undefined, false
}

func (s *StyleSheet) resolve() {
	st := stateOf(s.node)
	out := DefaultStyle()
	if parent := s.closestAncestor(); parent != nil {
		out.inheritFrom(parent.resolved)
	}

	if v, ok := s.lookup("background", st); ok {
		out.Background = animate(s, &s.background, "background", FillCodec, ParseFill(v))
	}
	if v, ok := s.lookup("foreground", st); ok {
		out.Foreground = animate(s, &s.foreground, "foreground", FillCodec, ParseFill(v))
	}
	if v, ok := s.lookup("border", st); ok {
		out.Border = animate(s, &s.border, "border", FillCodec, ParseFill(v))
	}
	if v, ok := s.lookup("border-radius", st); ok {
		out.BorderRadius = animate(s, &s.borderRadius, "border-radius", RadiiCodec, ParseRadii(v))
	}
	if v, ok := s.lookup("font-family", st); ok {
		out.FontFamily = v.AsString()
	}
	if v, ok := s.lookup("font-size", st); ok {
		out.FontSize = animate(s, &s.fontSize, "font-size", property.Float, ParseLength(v).ToPixels(0, 0, 0))
	}
	if v, ok := s.lookup("font-stretch", st); ok {
		out.FontStretch = animate(s, &s.fontStretch, "font-stretch", property.Float, v.AsNumber())
	}
	if v, ok := s.lookup("font-style", st); ok {
		out.FontStyle = v.AsString()
	}
	if v, ok := s.lookup("font-weight", st); ok {
		out.FontWeight = v.AsString()
	}
	if v, ok := s.lookup("letter-spacing", st); ok {
		out.LetterSpacing = animate(s, &s.letterSpacing, "letter-spacing", property.Float, ParseLength(v).ToPixels(0, 0, 0))
	}
	if v, ok := s.lookup("text-decoration", st); ok {
		out.TextDecoration = v.AsString()
	}

	s.resolved = out
	if p, ok := tree.Lookup[Painter](s.node); ok {
		p.ApplyStyle(out)
	}
}

// animate routes a resolved value through a calculated-<name> property on
// the style object so that a declared transition can interpolate it.
func animate[T any](s *StyleSheet, slot **property.Property[T], name string, codec property.Codec[T], v T) T {
	if s.registry == nil || s.style == nil || !s.style.Has(property.TransitionAttribute) {
		return v
	}
	if *slot == nil {
		attr := calculatedPrefix + name
		s.style.Set(attr, codec.Encode(v))
		p := property.New(s.style, attr, codec,
			property.WithTransitions[T](s.registry),
			property.TransitionSource[T](name))
		p.OnTransitionProgressed = s.Apply
		*slot = p
		return v
	}
	(*slot).Set(v)
	return (*slot).Current()
}

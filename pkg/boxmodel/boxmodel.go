// Package boxmodel keeps the padding, border, margin and outer size of one
// node in sync with its attributes.
package boxmodel

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/kinetics"
	"vista/pkg/property"
	"vista/pkg/tree"
)

// Attributes read or written by a box model.
const (
	AttrWidth           = "width"
	AttrHeight          = "height"
	AttrMinWidth        = "min-width"
	AttrMinHeight       = "min-height"
	AttrMaxWidth        = "max-width"
	AttrMaxHeight       = "max-height"
	AttrIdealWidth      = "ideal-width"
	AttrIdealHeight     = "ideal-height"
	AttrComponentWidth  = "component-width"
	AttrComponentHeight = "component-height"
	AttrPadding         = "padding"
	AttrBorderWidth     = "border-width"
	AttrMargin          = "margin"
	AttrValid           = "box-model-valid"
	AttrCallbackLock    = "box-model-callback-lock"
)

// Listener observes a box model.
type Listener interface {
	// BoxModelChanged is called whenever the geometry settles or moves,
	// even if the size did not change.
	BoxModelChanged(*BoxModel)
	// BoxModelInvalidated is called when a child asks this node to
	// recompute.
	BoxModelInvalidated(*BoxModel)
}

// ListenerFuncs adapts functions to Listener. Either field may be nil.
type ListenerFuncs struct {
	Changed     func(*BoxModel)
	Invalidated func(*BoxModel)
}

func (l *ListenerFuncs) BoxModelChanged(b *BoxModel) {
	if l.Changed != nil {
		l.Changed(b)
	}
}

func (l *ListenerFuncs) BoxModelInvalidated(b *BoxModel) {
	if l.Invalidated != nil {
		l.Invalidated(b)
	}
}

// BoxModel is the geometry trait of a node. The cached outer size lives in
// the component-width and component-height attributes so that transitions
// declared for width and height animate it.
type BoxModel struct {
	node     *tree.Node
	log      *zap.Logger
	registry *kinetics.Registry

	width, height       *property.Property[css.Length]
	minWidth, minHeight *property.Property[css.Length]
	maxWidth, maxHeight *property.Property[css.Length]

	idealWidth, idealHeight         *property.Property[float64]
	componentWidth, componentHeight *property.Property[float64]

	padding, border, margin *property.Property[css.EdgeLengths]

	valid        *property.Property[bool]
	callbackLock *property.Property[bool]

	topLeft   geom.Point
	listeners []Listener

	unwatchParentChanged tree.Unsubscribe
	unwatchParentSize    tree.Unsubscribe
	unwatchFonts         []tree.Unsubscribe
}

type Option func(*BoxModel)

func WithLogger(l *zap.Logger) Option {
	return func(b *BoxModel) { b.log = l }
}

// WithRegistry lets width, height, padding, border-width and margin
// transition when the node declares a transition for them.
func WithRegistry(reg *kinetics.Registry) Option {
	return func(b *BoxModel) { b.registry = reg }
}

// Of returns the box model attached to n.
func Of(n *tree.Node) (*BoxModel, bool) {
	return tree.Lookup[*BoxModel](n)
}

// New attaches a box model to n.
func New(n *tree.Node, opts ...Option) *BoxModel {
	b := &BoxModel{node: n, log: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}

	b.width = property.New(n, AttrWidth, css.LengthCodec)
	b.height = property.New(n, AttrHeight, css.LengthCodec)
	b.minWidth = property.New(n, AttrMinWidth, css.LengthCodec)
	b.minHeight = property.New(n, AttrMinHeight, css.LengthCodec)
	b.maxWidth = property.New(n, AttrMaxWidth, css.LengthCodec)
	b.maxHeight = property.New(n, AttrMaxHeight, css.LengthCodec)
	b.idealWidth = property.New(n, AttrIdealWidth, property.Float)
	b.idealHeight = property.New(n, AttrIdealHeight, property.Float)
	b.padding = property.New(n, AttrPadding, css.EdgesCodec, property.WithTransitions[css.EdgeLengths](b.registry))
	b.border = property.New(n, AttrBorderWidth, css.EdgesCodec, property.WithTransitions[css.EdgeLengths](b.registry))
	b.margin = property.New(n, AttrMargin, css.EdgesCodec, property.WithTransitions[css.EdgeLengths](b.registry))
	b.valid = property.New(n, AttrValid, property.Bool)
	b.callbackLock = property.New(n, AttrCallbackLock, property.Bool)

	if !b.width.Exists() {
		b.width.SetAuto()
	}
	if !b.height.Exists() {
		b.height.SetAuto()
	}
	if !b.valid.Exists() {
		b.valid.Set(true)
	}
	// Seeded before the properties exist so the first size never animates.
	if !n.Has(AttrComponentWidth) {
		n.Set(AttrComponentWidth, tree.Number(b.calculateWidth()))
	}
	if !n.Has(AttrComponentHeight) {
		n.Set(AttrComponentHeight, tree.Number(b.calculateHeight()))
	}
	b.componentWidth = property.New(n, AttrComponentWidth, property.Float,
		property.WithTransitions[float64](b.registry), property.TransitionSource[float64](AttrWidth))
	b.componentHeight = property.New(n, AttrComponentHeight, property.Float,
		property.WithTransitions[float64](b.registry), property.TransitionSource[float64](AttrHeight))

	recalculateOn(b, b.width, true, false, b.componentWidth.IsTransitioning)
	recalculateOn(b, b.height, false, true, b.componentHeight.IsTransitioning)
	recalculateOn(b, b.minWidth, true, false, b.componentWidth.IsTransitioning)
	recalculateOn(b, b.minHeight, false, true, b.componentHeight.IsTransitioning)
	recalculateOn(b, b.maxWidth, true, false, b.componentWidth.IsTransitioning)
	recalculateOn(b, b.maxHeight, false, true, b.componentHeight.IsTransitioning)
	recalculateOn(b, b.padding, true, true, b.padding.IsTransitioning)
	recalculateOn(b, b.border, true, true, b.border.IsTransitioning)

	b.idealWidth.OnValueChange = b.changed
	b.idealHeight.OnValueChange = b.changed
	b.componentWidth.OnValueChange = func() {
		if !b.componentWidth.IsTransitioning() {
			b.changed()
		}
	}
	b.componentHeight.OnValueChange = func() {
		if !b.componentHeight.IsTransitioning() {
			b.changed()
		}
	}
	b.margin.OnValueChange = func() {
		if !b.margin.IsTransitioning() {
			b.changed()
		}
	}
	b.valid.OnValueChange = func() {
		if b.locked() || b.valid.Get() {
			return
		}
		for _, l := range slices.Clone(b.listeners) {
			l.BoxModelInvalidated(b)
		}
	}

	b.componentWidth.OnTransitionProgressed = b.inform
	b.componentHeight.OnTransitionProgressed = b.inform
	b.padding.OnTransitionProgressed = b.inform
	b.border.OnTransitionProgressed = b.inform
	b.margin.OnTransitionProgressed = b.inform

	b.watchParent()
	b.watchFonts()
	b.unwatchParentChanged = n.OnParentChanged(func(*tree.Node) {
		b.watchParent()
		b.watchFonts()
		b.refreshRelative()
	})

	tree.Attach(n, b)
	return b
}

func (b *BoxModel) Node() *tree.Node { return b.node }

// Width is the outer width, interpolated while a transition runs.
func (b *BoxModel) Width() float64 { return b.componentWidth.Current() }

func (b *BoxModel) Height() float64 { return b.componentHeight.Current() }

func (b *BoxModel) HasAutoWidth() bool { return b.width.IsAuto() }

func (b *BoxModel) HasAutoHeight() bool { return b.height.IsAuto() }

// SetWidth overrides the cached outer width. Top-level nodes also write it
// back into their width attribute.
func (b *BoxModel) SetWidth(w float64) {
	if w < 0 {
		b.log.Debug("negative width clamped", zap.String("type", b.node.Type()), zap.Float64("width", w))
		w = 0
	}
	b.componentWidth.Set(w)
	if b.node.Parent() == nil {
		b.width.Set(css.Px(math.Round(w)))
	}
}

func (b *BoxModel) SetHeight(h float64) {
	if h < 0 {
		b.log.Debug("negative height clamped", zap.String("type", b.node.Type()), zap.Float64("height", h))
		h = 0
	}
	b.componentHeight.Set(h)
	if b.node.Parent() == nil {
		b.height.Set(css.Px(math.Round(h)))
	}
}

// SetSize sets both dimensions. When both change the listeners hear about
// it once.
func (b *BoxModel) SetSize(w, h float64) {
	widthChanged := !approximatelyEqual(w, b.componentWidth.Get())
	heightChanged := !approximatelyEqual(h, b.componentHeight.Get())
	if widthChanged {
		if heightChanged {
			b.Lock(func() { b.SetWidth(w) })
		} else {
			b.SetWidth(w)
		}
	}
	if heightChanged {
		b.SetHeight(h)
	}
}

func (b *BoxModel) Padding() css.BoxEdge { return b.resolveEdges(b.padding) }

func (b *BoxModel) Border() css.BoxEdge { return b.resolveEdges(b.border) }

func (b *BoxModel) Margin() css.BoxEdge { return b.resolveEdges(b.margin) }

// resolveEdges resolves an inset against the node's own cached size.
func (b *BoxModel) resolveEdges(p *property.Property[css.EdgeLengths]) css.BoxEdge {
	own := geom.Rect{
		Width:  b.node.Value(AttrComponentWidth).AsNumber(),
		Height: b.node.Value(AttrComponentHeight).AsNumber(),
	}
	return p.Current().Resolve(b.node, own)
}

// OuterBounds is the border box at the origin.
func (b *BoxModel) OuterBounds() geom.Rect {
	return geom.Rect{Width: b.Width(), Height: b.Height()}
}

// ContentBounds is the outer box minus border and padding, relative to
// the outer box.
func (b *BoxModel) ContentBounds() geom.Rect {
	return b.Border().Add(b.Padding()).Shrink(b.OuterBounds())
}

// MinimumBounds resolves min-width and min-height against the parent's
// content box. Missing values are 0.
func (b *BoxModel) MinimumBounds() geom.Rect {
	parent := b.parentBounds()
	return geom.Rect{
		Width:  b.resolve(AttrMinWidth, b.minWidth, parent, 0),
		Height: b.resolve(AttrMinHeight, b.minHeight, parent, 0),
	}
}

// MaximumBounds resolves max-width and max-height. Missing values are -1,
// meaning unbounded.
func (b *BoxModel) MaximumBounds() geom.Rect {
	parent := b.parentBounds()
	return geom.Rect{
		Width:  b.resolve(AttrMaxWidth, b.maxWidth, parent, -1),
		Height: b.resolve(AttrMaxHeight, b.maxHeight, parent, -1),
	}
}

func (b *BoxModel) resolve(attr string, p *property.Property[css.Length], ref geom.Rect, whenAuto float64) float64 {
	l := p.Get()
	if l.IsAuto() {
		return whenAuto
	}
	return css.Resolve(b.node, attr, l, ref)
}

// TopLeft is where the last layout pass placed the node inside its
// parent's outer box.
func (b *BoxModel) TopLeft() geom.Point { return b.topLeft }

func (b *BoxModel) SetTopLeft(p geom.Point) { b.topLeft = p }

// Bounds is the outer box at its laid out position.
func (b *BoxModel) Bounds() geom.Rect {
	return geom.Rect{X: b.topLeft.X, Y: b.topLeft.Y, Width: b.Width(), Height: b.Height()}
}

// IsValid reports whether the node has settled since it was last
// invalidated.
func (b *BoxModel) IsValid() bool { return b.valid.Get() }

// Invalidate tells the listeners that this node needs recomputing.
func (b *BoxModel) Invalidate() {
	b.valid.Set(true)
	b.valid.Set(false)
}

func (b *BoxModel) AddListener(l Listener) {
	b.listeners = append(b.listeners, l)
}

func (b *BoxModel) RemoveListener(l Listener) {
	if i := slices.Index(b.listeners, l); i >= 0 {
		b.listeners = slices.Delete(b.listeners, i, i+1)
	}
}

// Lock runs fn with every callback of this node suppressed. Any box model
// bound to the same node observes the lock.
func (b *BoxModel) Lock(fn func()) {
	if b.locked() {
		fn()
		return
	}
	b.callbackLock.Set(true)
	defer b.callbackLock.Clear()
	fn()
}

// Close unregisters every listener and detaches the trait.
func (b *BoxModel) Close() {
	for _, p := range []interface{ Close() }{
		b.width, b.height, b.minWidth, b.minHeight, b.maxWidth, b.maxHeight,
		b.idealWidth, b.idealHeight, b.componentWidth, b.componentHeight,
		b.padding, b.border, b.margin, b.valid, b.callbackLock,
	} {
		p.Close()
	}
	for _, u := range []tree.Unsubscribe{b.unwatchParentChanged, b.unwatchParentSize} {
		if u != nil {
			u()
		}
	}
	b.unwatchFontChain()
	b.listeners = nil
	if cur, ok := Of(b.node); ok && cur == b {
		tree.Detach[*BoxModel](b.node)
	}
}

func (b *BoxModel) locked() bool { return b.callbackLock.Get() }

func (b *BoxModel) inform() {
	for _, l := range slices.Clone(b.listeners) {
		l.BoxModelChanged(b)
	}
}

// changed marks the node valid, informs listeners and asks the parent to
// recompute.
func (b *BoxModel) changed() {
	if b.locked() {
		return
	}
	b.valid.Set(true)
	b.inform()
	b.invalidateParent()
}

func recalculateOn[T any](b *BoxModel, p *property.Property[T], updateWidth, updateHeight bool, transitioning func() bool) {
	p.OnValueChange = func() { b.recalculate(updateWidth, updateHeight, transitioning) }
}

// recalculate refreshes the cached size after an attribute change. The
// listeners hear about it even when the size did not move.
func (b *BoxModel) recalculate(updateWidth, updateHeight bool, transitioning func() bool) {
	if b.locked() {
		return
	}
	widthBefore := b.componentWidth.Get()
	heightBefore := b.componentHeight.Get()
	if updateWidth {
		b.componentWidth.Set(b.calculateWidth())
	}
	if updateHeight {
		b.componentHeight.Set(b.calculateHeight())
	}
	same := approximatelyEqual(widthBefore, b.componentWidth.Get()) &&
		approximatelyEqual(heightBefore, b.componentHeight.Get())
	if transitioning() {
		return
	}
	b.inform()
	if !same {
		b.invalidateParent()
	}
}

func (b *BoxModel) calculateWidth() float64 {
	if b.HasAutoWidth() {
		return b.Padding().Horizontal() + b.Border().Horizontal()
	}
	return css.Resolve(b.node, AttrWidth, b.width.Get(), b.parentBounds())
}

func (b *BoxModel) calculateHeight() float64 {
	if b.HasAutoHeight() {
		return b.Padding().Vertical() + b.Border().Vertical()
	}
	return css.Resolve(b.node, AttrHeight, b.height.Get(), b.parentBounds())
}

// parentBounds is the reference box for relative lengths: the parent's
// content box, or its cached outer size when it has no box model.
func (b *BoxModel) parentBounds() geom.Rect {
	parent := b.node.Parent()
	if parent == nil {
		return geom.Rect{}
	}
	if pb, ok := Of(parent); ok {
		return pb.ContentBounds().WithZeroOrigin()
	}
	return geom.Rect{
		Width:  parent.Value(AttrComponentWidth).AsNumber(),
		Height: parent.Value(AttrComponentHeight).AsNumber(),
	}
}

func (b *BoxModel) invalidateParent() {
	parent := b.node.Parent()
	if parent == nil {
		return
	}
	parent.Set(AttrValid, tree.Bool(true))
	parent.Set(AttrValid, tree.Bool(false))
}

// watchParent follows size changes of the current parent so relative
// lengths stay resolved against it.
func (b *BoxModel) watchParent() {
	if b.unwatchParentSize != nil {
		b.unwatchParentSize()
		b.unwatchParentSize = nil
	}
	parent := b.node.Parent()
	if parent == nil {
		return
	}
	b.unwatchParentSize = parent.OnPropertyChanged(func(source *tree.Node, name string) {
		if source != parent {
			return
		}
		switch name {
		case AttrComponentWidth, AttrComponentHeight, AttrPadding, AttrBorderWidth:
			b.refreshRelative()
		}
	})
}

// refreshRelative recomputes the dimensions whose length depends on the
// parent.
func (b *BoxModel) refreshRelative() {
	w, h := b.width.Get(), b.height.Get()
	updateWidth := !w.IsAuto() && w.Unit != css.Pixels
	updateHeight := !h.IsAuto() && h.Unit != css.Pixels
	if updateWidth || updateHeight {
		b.recalculate(updateWidth, updateHeight, b.transitioning)
	}
}

// watchFonts follows the font-size chain that em and rem lengths resolve
// through: the style attribute of the node and every ancestor up to the
// root, and the style objects they hold.
func (b *BoxModel) watchFonts() {
	b.unwatchFontChain()
	for cur := b.node; cur != nil; cur = cur.Parent() {
		owner := cur
		b.unwatchFonts = append(b.unwatchFonts, owner.OnPropertyChanged(func(source *tree.Node, name string) {
			if source != owner || name != css.StyleAttribute {
				return
			}
			b.watchFonts()
			b.refreshFontRelative()
		}))
		if style := owner.Value(css.StyleAttribute).AsObject(); style != nil {
			b.unwatchFonts = append(b.unwatchFonts, style.Watch(func(source tree.Store, name string) {
				if source == tree.Store(style) && name == "font-size" {
					b.refreshFontRelative()
				}
			}))
		}
	}
}

func (b *BoxModel) unwatchFontChain() {
	for _, u := range b.unwatchFonts {
		u()
	}
	b.unwatchFonts = nil
}

// refreshFontRelative recomputes the dimensions that depend on a font
// size: em and rem lengths, and auto sizes whose insets use them.
func (b *BoxModel) refreshFontRelative() {
	updateWidth := fontRelative(b.width.Get())
	updateHeight := fontRelative(b.height.Get())
	insets := fontRelativeEdges(b.padding.Get()) || fontRelativeEdges(b.border.Get())
	if insets {
		updateWidth = updateWidth || b.HasAutoWidth()
		updateHeight = updateHeight || b.HasAutoHeight()
	}
	if updateWidth || updateHeight {
		b.recalculate(updateWidth, updateHeight, b.transitioning)
	}
}

func fontRelative(l css.Length) bool {
	return l.Unit == css.Em || l.Unit == css.Rem
}

func fontRelativeEdges(e css.EdgeLengths) bool {
	return fontRelative(e.Top) || fontRelative(e.Right) || fontRelative(e.Bottom) || fontRelative(e.Left)
}

func (b *BoxModel) transitioning() bool {
	return b.componentWidth.IsTransitioning() || b.componentHeight.IsTransitioning()
}

func approximatelyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

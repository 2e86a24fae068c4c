// Package engine interprets a property tree: it decorates every node with
// a box model, a style sheet and, depending on its type, a content
// measurer or a layout container, and keeps the decoration in step with
// structural changes.
package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/kinetics"
	"vista/pkg/layout"
	"vista/pkg/tree"
)

// WindowType is the element type of a top-level window. A window root is
// sized from the viewport when it declares no size of its own.
const WindowType = "Window"

// ContentFunc decorates a content node, typically by attaching a
// layout.ContentMeasurer and writing the node's ideal size. Traits it
// attaches are closed with the view.
type ContentFunc func(n *tree.Node)

// Engine holds what is shared by the views it interprets.
type Engine struct {
	log       *zap.Logger
	clock     kinetics.Clock
	maxPasses int
	viewport  geom.Size
	content   map[string]ContentFunc
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the clock handed to each view's transition registry.
func WithClock(c kinetics.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithMaxPasses(n int) Option {
	return func(e *Engine) { e.maxPasses = n }
}

// WithViewport is the size given to a window root without explicit
// width and height.
func WithViewport(width, height float64) Option {
	return func(e *Engine) { e.viewport = geom.Size{Width: width, Height: height} }
}

// WithContent registers fn for nodes of the given element type. Such nodes
// never become layout containers.
func WithContent(typ string, fn ContentFunc) Option {
	return func(e *Engine) { e.content[typ] = fn }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:       zap.NewNop(),
		clock:     kinetics.SystemClock(),
		maxPasses: layout.DefaultMaxPasses,
		content:   make(map[string]ContentFunc),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// View is one interpreted tree.
type View struct {
	ID       uuid.UUID
	root     *tree.Node
	engine   *Engine
	log      *zap.Logger
	registry *kinetics.Registry

	unsubscribe []tree.Unsubscribe
	closed      bool
}

// Interpret decorates root and runs its first layout.
func (e *Engine) Interpret(root *tree.Node) *View {
	id := uuid.New()
	log := e.log.With(zap.String("view", id.String()))

	interps := kinetics.NewInterpolators()
	css.RegisterInterpolators(interps)
	v := &View{
		ID:     id,
		root:   root,
		engine: e,
		log:    log,
		registry: kinetics.NewRegistry(
			kinetics.WithClock(e.clock),
			kinetics.WithLogger(log),
			kinetics.WithInterpolators(interps),
		),
	}

	if root.Type() == WindowType && e.viewport.Width > 0 && e.viewport.Height > 0 {
		if !root.Has(boxmodel.AttrWidth) {
			root.SetAny(boxmodel.AttrWidth, e.viewport.Width)
		}
		if !root.Has(boxmodel.AttrHeight) {
			root.SetAny(boxmodel.AttrHeight, e.viewport.Height)
		}
	}

	v.decorate(root)
	v.unsubscribe = append(v.unsubscribe,
		root.OnChildAdded(func(_, child *tree.Node) { v.decorate(child) }),
		root.OnChildRemoved(func(_, child *tree.Node, _ int) { v.undecorate(child) }),
	)
	log.Debug("view interpreted", zap.String("root", root.Type()), zap.Int("nodes", countNodes(root)))
	return v
}

// decorate attaches traits to n and everything below it that has none.
// Box models go on first so that percentages resolve, style sheets parent
// first so that inherited values exist, and containers deepest first so
// that each sees its children's ideal sizes.
func (v *View) decorate(n *tree.Node) {
	n.Walk(func(d *tree.Node) bool {
		if _, ok := boxmodel.Of(d); !ok {
			boxmodel.New(d, boxmodel.WithLogger(v.log), boxmodel.WithRegistry(v.registry))
		}
		return true
	})
	n.Walk(func(d *tree.Node) bool {
		if _, ok := tree.Lookup[*css.StyleSheet](d); !ok {
			css.NewStyleSheet(d, css.WithLogger(v.log), css.WithRegistry(v.registry))
		}
		return true
	})
	v.attachLayout(n)
}

func (v *View) attachLayout(n *tree.Node) {
	if fn, ok := v.engine.content[n.Type()]; ok {
		fn(n)
		return
	}
	for _, c := range n.Children() {
		v.attachLayout(c)
	}
	if _, ok := layout.Of(n); ok {
		return
	}
	layout.NewContainer(n,
		layout.WithLogger(v.log),
		layout.WithRegistry(v.registry),
		layout.WithMaxPasses(v.engine.maxPasses),
	)
}

func (v *View) undecorate(n *tree.Node) {
	n.Walk(func(d *tree.Node) bool {
		tree.CloseTraits(d)
		v.registry.Forget(d)
		return true
	})
}

func (v *View) Root() *tree.Node { return v.root }

// Registry is the transition registry driving the view's animations.
func (v *View) Registry() *kinetics.Registry { return v.registry }

// Tick advances every running transition and returns how many are left.
func (v *View) Tick() int { return v.registry.Tick() }

// Run polls transitions at rate ticks per second until ctx is done; each
// tick is handed to post.
func (v *View) Run(ctx context.Context, rate float64, post func(func())) {
	v.registry.Run(ctx, rate, post)
}

// Resize gives the root a new outer size, as a host window does when the
// user drags it.
func (v *View) Resize(width, height float64) {
	if box, ok := boxmodel.Of(v.root); ok {
		box.SetSize(width, height)
	}
}

// Find returns the node with the given id attribute, or nil.
func (v *View) Find(id string) *tree.Node { return v.root.FindByID(id) }

// Bounds returns n's border box relative to its parent's border box.
func (v *View) Bounds(n *tree.Node) geom.Rect {
	box, ok := boxmodel.Of(n)
	if !ok {
		return geom.Rect{}
	}
	return box.Bounds()
}

// AbsoluteBounds returns n's border box relative to the root.
func (v *View) AbsoluteBounds(n *tree.Node) geom.Rect {
	r := v.Bounds(n)
	if n == v.root {
		return r.WithZeroOrigin()
	}
	for p := n.Parent(); p != nil && p != v.root; p = p.Parent() {
		tl := v.Bounds(p).TopLeft()
		r = r.Translated(tl.X, tl.Y)
	}
	return r
}

// Style returns n's resolved style, or the default for undecorated nodes.
func (v *View) Style(n *tree.Node) css.Style {
	if sheet, ok := tree.Lookup[*css.StyleSheet](n); ok {
		return sheet.Style()
	}
	return css.DefaultStyle()
}

// Close removes every trait the view attached. It is safe to call twice.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	for _, u := range v.unsubscribe {
		u()
	}
	v.undecorate(v.root)
	v.registry.Close()
	v.log.Debug("view closed")
}

func countNodes(n *tree.Node) int {
	count := 0
	n.Walk(func(*tree.Node) bool {
		count++
		return true
	})
	return count
}

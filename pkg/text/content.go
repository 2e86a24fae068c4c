package text

import (
	"math"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/layout"
	"vista/pkg/tree"
)

// Attributes read by a Text node.
const (
	AttrText        = "text"
	AttrLineSpacing = "line-spacing"
	AttrWordWrap    = "word-wrap"
)

// Type is the element type the measurer decorates.
const Type = "Text"

// unbounded is the width used for the unwrapped ideal width.
const unbounded = 65535

// Content is the trait of a Text node. It keeps the node's ideal size in
// step with its text and resolved style, and answers height-for-width
// queries from the layout solvers.
type Content struct {
	node     *tree.Node
	measurer *Measurer
	style    css.Style

	unsubscribe []tree.Unsubscribe
	closed      bool
}

// Of returns the text content attached to n.
func Of(n *tree.Node) (*Content, bool) {
	return tree.Lookup[*Content](n)
}

// Decorate attaches a Content to n. Its signature fits engine.WithContent.
func (m *Measurer) Decorate(n *tree.Node) {
	Attach(n, m)
}

// Attach decorates n and writes its ideal size.
func Attach(n *tree.Node, m *Measurer) *Content {
	c := &Content{node: n, measurer: m, style: css.DefaultStyle()}
	if sheet, ok := tree.Lookup[*css.StyleSheet](n); ok {
		c.style = sheet.Style()
	}
	if !n.Has(AttrWordWrap) {
		n.SetAny(AttrWordWrap, "by-word")
	}

	tree.Attach(n, c)
	tree.Attach[layout.ContentMeasurer](n, c)
	tree.Attach[css.Painter](n, c)

	c.unsubscribe = append(c.unsubscribe,
		n.OnPropertyChanged(func(source *tree.Node, name string) {
			if name == AttrText || (source == n && (name == AttrLineSpacing || name == AttrWordWrap)) {
				c.update()
			}
		}),
		n.OnChildAdded(func(*tree.Node, *tree.Node) { c.update() }),
		n.OnChildRemoved(func(*tree.Node, *tree.Node, int) { c.update() }),
	)
	c.update()
	return c
}

// Text is the node's own text followed by that of nested Text nodes.
func (c *Content) Text() string { return collect(c.node) }

func collect(n *tree.Node) string {
	s := n.Value(AttrText).AsString()
	for _, ch := range n.Children() {
		if ch.Type() == Type {
			s += collect(ch)
		}
	}
	return s
}

// Style is the style the text was last measured with.
func (c *Content) Style() css.Style { return c.style }

func (c *Content) wraps() bool {
	return c.node.Value(AttrWordWrap).AsString() != "none"
}

// Layout breaks the text for the given width.
func (c *Content) Layout(width float64) Layout {
	if !c.wraps() {
		width = -1
	}
	spacing := c.node.Value(AttrLineSpacing).AsNumber()
	return c.measurer.Measure(c.Text(), c.style, width, spacing)
}

// HeightForWidth implements layout.ContentMeasurer.
func (c *Content) HeightForWidth(width float64) float64 {
	return math.Ceil(c.Layout(width).Height)
}

// ApplyStyle implements css.Painter; a new font remeasures the text.
func (c *Content) ApplyStyle(s css.Style) {
	if s.Equal(c.style) {
		return
	}
	c.style = s
	c.update()
}

func (c *Content) update() {
	if c.closed {
		return
	}
	ideal := nextWholeNumberAbove(c.Layout(unbounded).Width)
	c.node.SetAny(boxmodel.AttrIdealWidth, ideal)
	c.node.SetAny(boxmodel.AttrIdealHeight, c.HeightForWidth(c.availableWidth()))
}

// availableWidth is the content width of the nearest ancestor with a
// definite width, or unbounded.
func (c *Content) availableWidth() float64 {
	for p := c.node.Parent(); p != nil; p = p.Parent() {
		box, ok := boxmodel.Of(p)
		if ok && !box.HasAutoWidth() {
			return box.ContentBounds().Width
		}
	}
	return unbounded
}

// Close stops tracking the node. Traits stay attached until the view
// removes them.
func (c *Content) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for _, u := range c.unsubscribe {
		u()
	}
}

// nextWholeNumberAbove leaves a pixel of room when the width is already
// whole, so that rounding never forces a wrap.
func nextWholeNumberAbove(v float64) float64 {
	up := math.Ceil(v)
	if math.Abs(v-up) < 1e-6 {
		return up + 1
	}
	return up
}

package layout

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/kinetics"
	"vista/pkg/property"
	"vista/pkg/tree"
)

// Container attributes.
const (
	AttrDisplay             = "display"
	AttrFlexDirection       = "flex-direction"
	AttrFlexWrap            = "flex-wrap"
	AttrJustifyContent      = "justify-content"
	AttrAlignItems          = "align-items"
	AttrAlignContent        = "align-content"
	AttrJustifyItems        = "justify-items"
	AttrGridAutoFlow        = "grid-auto-flow"
	AttrGridTemplateColumns = "grid-template-columns"
	AttrGridTemplateRows    = "grid-template-rows"
	AttrGridTemplateAreas   = "grid-template-areas"
	AttrGridAutoRows        = "grid-auto-rows"
	AttrGridAutoColumns     = "grid-auto-columns"
	AttrGap                 = "gap"
)

// Item attributes.
const (
	AttrOrder       = "order"
	AttrFlexGrow    = "flex-grow"
	AttrFlexShrink  = "flex-shrink"
	AttrFlexBasis   = "flex-basis"
	AttrAlignSelf   = "align-self"
	AttrJustifySelf = "justify-self"
	AttrColumn      = "column"
	AttrRow         = "row"
	AttrArea        = "area"
)

// DefaultMaxPasses bounds how often a real pass repeats while children
// keep changing their ideal size.
const DefaultMaxPasses = 16

func nameSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var (
	containerAttrs = map[css.Display]map[string]bool{
		css.DisplayFlex: nameSet(AttrFlexDirection, AttrFlexWrap, AttrJustifyContent, AttrAlignItems, AttrAlignContent),
		css.DisplayGrid: nameSet(AttrJustifyItems, AttrAlignItems, AttrJustifyContent, AttrAlignContent,
			AttrGridAutoFlow, AttrGridTemplateColumns, AttrGridTemplateRows, AttrGridTemplateAreas,
			AttrGridAutoRows, AttrGridAutoColumns, AttrGap),
		css.DisplayBlock: {},
	}
	itemAttrs = map[css.Display]map[string]bool{
		css.DisplayFlex: nameSet(AttrOrder, AttrFlexGrow, AttrFlexShrink, AttrFlexBasis, AttrAlignSelf),
		css.DisplayGrid: nameSet(AttrOrder, AttrJustifySelf, AttrAlignSelf, AttrColumn, AttrRow, AttrArea,
			boxmodel.AttrWidth, boxmodel.AttrHeight, boxmodel.AttrMinWidth, boxmodel.AttrMaxWidth,
			boxmodel.AttrMinHeight, boxmodel.AttrMaxHeight),
		css.DisplayBlock: nameSet(AttrX, AttrY, AttrCentreX, AttrCentreY),
	}
)

// State is where a container is in its layout cycle.
type State int

const (
	Idle State = iota
	Intrinsic
	Laying
	Settled
)

func (s State) String() string {
	switch s {
	case Intrinsic:
		return "intrinsic"
	case Laying:
		return "real"
	case Settled:
		return "settled"
	}
	return "idle"
}

// child holds the per-child properties that may animate.
type child struct {
	grow, shrink, basis *property.Property[float64]
}

func (c *child) close() {
	c.grow.Close()
	c.shrink.Close()
	c.basis.Close()
}

// Container is the layout trait of a node that arranges its children with
// flex, grid or block layout. It computes the node's ideal size with a
// dummy pass and positions the children with real passes.
type Container struct {
	node      *tree.Node
	box       *boxmodel.BoxModel
	log       *zap.Logger
	registry  *kinetics.Registry
	maxPasses int

	display                 *property.Property[css.Display]
	idealWidth, idealHeight *property.Property[float64]
	children                map[*tree.Node]*child

	state               State
	laying              bool
	changesDuringLayout bool

	listener    *boxmodel.ListenerFuncs
	unsubscribe []tree.Unsubscribe
}

type Option func(*Container)

func WithLogger(l *zap.Logger) Option {
	return func(c *Container) { c.log = l }
}

// WithRegistry lets flex-grow, flex-shrink and flex-basis of the children
// transition.
func WithRegistry(reg *kinetics.Registry) Option {
	return func(c *Container) { c.registry = reg }
}

// WithMaxPasses caps the real passes of a single layout. Values below 1
// are ignored.
func WithMaxPasses(n int) Option {
	return func(c *Container) {
		if n > 0 {
			c.maxPasses = n
		}
	}
}

// Of returns the container attached to n.
func Of(n *tree.Node) (*Container, bool) {
	return tree.Lookup[*Container](n)
}

// NewContainer attaches a container to n, creating n's box model if it has
// none, and runs the first layout.
func NewContainer(n *tree.Node, opts ...Option) *Container {
	c := &Container{
		node:      n,
		log:       zap.NewNop(),
		maxPasses: DefaultMaxPasses,
		children:  make(map[*tree.Node]*child),
	}
	for _, opt := range opts {
		opt(c)
	}

	box, ok := boxmodel.Of(n)
	if !ok {
		box = boxmodel.New(n, boxmodel.WithLogger(c.log), boxmodel.WithRegistry(c.registry))
	}
	c.box = box

	c.display = property.New(n, AttrDisplay, css.DisplayCodec)
	c.idealWidth = property.New(n, boxmodel.AttrIdealWidth, property.Float)
	c.idealHeight = property.New(n, boxmodel.AttrIdealHeight, property.Float)
	c.writeDefaults()
	for _, ch := range n.Children() {
		c.adopt(ch)
	}

	c.display.OnValueChange = func() {
		c.writeDefaults()
		c.layoutChanged()
	}
	c.listener = &boxmodel.ListenerFuncs{
		Changed:     func(*boxmodel.BoxModel) { c.Layout() },
		Invalidated: func(*boxmodel.BoxModel) { c.boxModelInvalidated() },
	}
	c.box.AddListener(c.listener)
	c.unsubscribe = append(c.unsubscribe,
		n.OnPropertyChanged(c.propertyChanged),
		n.OnChildAdded(func(parent, ch *tree.Node) {
			if parent != c.node {
				return
			}
			c.adopt(ch)
			c.layoutChanged()
		}),
		n.OnChildRemoved(func(parent, ch *tree.Node, _ int) {
			if parent != c.node {
				return
			}
			c.release(ch)
			c.layoutChanged()
		}),
	)

	tree.Attach(n, c)
	c.layoutChanged()
	return c
}

func (c *Container) Node() *tree.Node { return c.node }

// Display is the layout the container currently applies.
func (c *Container) Display() css.Display { return c.display.Get() }

func (c *Container) State() State { return c.state }

// writeDefaults stores the attributes flex layout reads with a non-zero
// default, so that they can be animated from a defined value.
func (c *Container) writeDefaults() {
	if c.display.Get() != css.DisplayFlex {
		return
	}
	if !c.node.Has(AttrFlexDirection) {
		c.node.Set(AttrFlexDirection, css.FlexDirectionCodec.Encode(css.Column))
	}
	for _, ch := range c.node.Children() {
		if !ch.Has(AttrFlexShrink) {
			ch.Set(AttrFlexShrink, tree.Number(1))
		}
	}
}

func (c *Container) adopt(n *tree.Node) {
	if _, ok := c.children[n]; ok {
		return
	}
	if _, ok := boxmodel.Of(n); !ok {
		boxmodel.New(n, boxmodel.WithLogger(c.log), boxmodel.WithRegistry(c.registry))
	}
	if c.display.Get() == css.DisplayFlex && !n.Has(AttrFlexShrink) {
		n.Set(AttrFlexShrink, tree.Number(1))
	}
	ch := &child{
		grow:   property.New(n, AttrFlexGrow, property.Float, property.WithTransitions[float64](c.registry)),
		shrink: property.New(n, AttrFlexShrink, property.Float, property.WithTransitions[float64](c.registry)),
		basis:  property.New(n, AttrFlexBasis, property.Float, property.WithTransitions[float64](c.registry)),
	}
	relayout := func() {
		if c.display.Get() == css.DisplayFlex {
			c.Layout()
		}
	}
	ch.grow.OnTransitionProgressed = relayout
	ch.shrink.OnTransitionProgressed = relayout
	ch.basis.OnTransitionProgressed = relayout
	c.children[n] = ch
}

func (c *Container) release(n *tree.Node) {
	if ch, ok := c.children[n]; ok {
		ch.close()
		delete(c.children, n)
	}
}

// propertyChanged answers attribute changes on the container and its
// direct children.
func (c *Container) propertyChanged(source *tree.Node, name string) {
	direct := source.Parent() == c.node
	if source != c.node && !direct {
		return
	}
	if c.laying && (name == boxmodel.AttrIdealWidth || name == boxmodel.AttrIdealHeight) {
		c.changesDuringLayout = true
		return
	}

	display := c.display.Get()
	switch {
	case source == c.node && containerAttrs[display][name]:
		c.layoutChanged()
	case direct && itemAttrs[display][name]:
		if other, ok := counterpart[name]; ok && source.Has(name) {
			source.Remove(other)
		}
		c.Layout()
	}
}

// boxModelInvalidated runs when a child asks this node to recompute. A
// changed ideal size propagates to the parent through the box model;
// otherwise, or at the top of the tree, the children are laid out here.
func (c *Container) boxModelInvalidated() {
	ideal := c.IdealSize(c.box.ContentBounds())
	widthChanged := !approximatelyEqual(ideal.Width, c.idealWidth.Get())
	heightChanged := !approximatelyEqual(ideal.Height, c.idealHeight.Get())

	c.idealWidth.Set(ideal.Width)
	c.idealHeight.Set(ideal.Height)

	if !(widthChanged || heightChanged) || c.node.Parent() == nil {
		c.Layout()
	}
}

// layoutChanged recomputes the ideal size without constraints after a
// structural or attribute change. When both dimensions move the parent
// hears about it once.
func (c *Container) layoutChanged() {
	ideal := c.IdealSize(geom.Rect{Width: Unbounded, Height: Unbounded})
	widthChanged := !approximatelyEqual(ideal.Width, c.idealWidth.Get())
	heightChanged := !approximatelyEqual(ideal.Height, c.idealHeight.Get())

	switch {
	case widthChanged && heightChanged:
		c.box.Lock(func() { c.idealWidth.Set(ideal.Width) })
	case widthChanged:
		c.idealWidth.Set(ideal.Width)
	}
	if heightChanged {
		c.idealHeight.Set(ideal.Height)
	}
	if !widthChanged && !heightChanged {
		c.Layout()
	}
}

// IdealSize runs a dummy pass within constraints and returns the outer
// size that fits every child, margins included.
func (c *Container) IdealSize(constraints geom.Rect) geom.Size {
	display := c.display.Get()
	if display == css.DisplayBlock {
		return geom.Size{}
	}
	if !c.laying {
		c.state = Intrinsic
	}

	extent := extremities(c.solve(c.intrinsicBounds(display, constraints), Dummy))
	insets := c.box.Padding().Add(c.box.Border())
	return geom.Size{
		Width:  extent.Width + insets.Horizontal(),
		Height: extent.Height + insets.Vertical(),
	}
}

// intrinsicBounds opens the axis along which children may grow without
// limit.
func (c *Container) intrinsicBounds(display css.Display, constraints geom.Rect) geom.Rect {
	bounds := constraints.WithZeroOrigin()
	if display == css.DisplayGrid {
		bounds.Width = math.Round(bounds.Width)
		bounds.Height = Unbounded
		return bounds
	}
	if css.FlexDirectionCodec.Decode(c.node.Value(AttrFlexDirection)).IsRow() {
		bounds.Width = Unbounded
	} else {
		bounds.Height = Unbounded
	}
	return bounds
}

// Items returns the items a pass of the given strategy produces, without
// touching the children.
func (c *Container) Items(strategy Strategy) []*Item {
	if strategy == Dummy {
		display := c.display.Get()
		if display == css.DisplayBlock {
			return nil
		}
		return c.solve(c.intrinsicBounds(display, geom.Rect{Width: Unbounded, Height: Unbounded}), Dummy)
	}
	return c.solve(c.realBounds(), Real)
}

func (c *Container) realBounds() geom.Rect {
	bounds := c.box.ContentBounds()
	if c.display.Get() == css.DisplayGrid {
		bounds = geom.NewRect(math.Round(bounds.X), math.Round(bounds.Y), math.Round(bounds.Width), math.Round(bounds.Height))
	}
	return bounds
}

// Layout lays out the children unless a layout of this container is
// already running. The node's own box model callbacks are held for the
// duration.
func (c *Container) Layout() {
	if c.laying || c.node.NumChildren() == 0 {
		return
	}
	c.box.Lock(func() {
		c.laying = true
		defer func() { c.laying = false }()
		c.layOutChildren()
	})
}

func (c *Container) layOutChildren() {
	bounds := c.realBounds()
	display := c.display.Get()
	if display == css.DisplayBlock {
		c.state = Laying
		layOutBlock(c.node, bounds)
		c.state = Settled
		return
	}
	if bounds.IsEmpty() {
		return
	}

	c.state = Laying
	for pass := 1; ; pass++ {
		c.changesDuringLayout = false
		for _, it := range c.solve(bounds, Real) {
			place(it)
		}
		if !c.changesDuringLayout {
			break
		}
		if pass >= c.maxPasses {
			c.log.Warn("layout did not converge",
				zap.String("type", c.node.Type()),
				zap.String("display", c.display.String()),
				zap.Int("passes", pass))
			break
		}
	}
	c.state = Settled
}

// solve builds the items of one pass and runs the solver for the current
// display over bounds.
func (c *Container) solve(bounds geom.Rect, strategy Strategy) []*Item {
	switch c.display.Get() {
	case css.DisplayGrid:
		return c.solveGrid(bounds, strategy)
	case css.DisplayBlock:
		return c.blockItems(bounds)
	}
	return c.solveFlex(bounds, strategy)
}

func (c *Container) solveFlex(bounds geom.Rect, strategy Strategy) []*Item {
	n := c.node
	flex := FlexBox{
		Direction: css.FlexDirectionCodec.Decode(n.Value(AttrFlexDirection)),
		Wrap:      css.FlexWrapCodec.Decode(n.Value(AttrFlexWrap)),
	}
	if strategy == Real {
		flex.JustifyContent = css.FlexJustifyCodec.Decode(n.Value(AttrJustifyContent))
		flex.AlignItems = css.FlexAlignItemsCodec.Decode(n.Value(AttrAlignItems))
		flex.AlignContent = css.FlexAlignContentCodec.Decode(n.Value(AttrAlignContent))
	} else {
		flex.JustifyContent = css.JustifyStart
		flex.AlignItems = css.AlignStart
		flex.AlignContent = css.JustifyStart
	}

	horizontal := flex.Direction.IsRow()
	for _, ch := range n.Children() {
		box, ok := boxmodel.Of(ch)
		if !ok {
			continue
		}
		it := newItem()
		if props, ok := c.children[ch]; ok {
			if props.shrink.Exists() {
				it.FlexShrink = props.shrink.Current()
			}
			if strategy == Real {
				it.FlexGrow = props.grow.Current()
				it.FlexBasis = props.basis.Current()
			}
		}
		if strategy == Real {
			it.AlignSelf = css.FlexAlignSelfCodec.Decode(ch.Value(AttrAlignSelf))
		}
		applyConstraints(it, ch, box, bounds, horizontal, strategy)
		flex.Items = append(flex.Items, it)
	}

	flex.PerformLayout(bounds)
	return flex.Items
}

func (c *Container) solveGrid(bounds geom.Rect, strategy Strategy) []*Item {
	n := c.node
	grid := Grid{
		AutoFlow:        css.AutoFlowCodec.Decode(n.Value(AttrGridAutoFlow)),
		TemplateColumns: ParseTracks(n.Value(AttrGridTemplateColumns)),
		TemplateRows:    ParseTracks(n.Value(AttrGridTemplateRows)),
		TemplateAreas:   ParseAreas(n.Value(AttrGridTemplateAreas)),
		AutoColumns:     ParseTrack(n.Value(AttrGridAutoColumns).AsString()),
		AutoRows:        ParseTrack(n.Value(AttrGridAutoRows).AsString()),
	}

	ref := geom.Rect{}
	if strategy == Real {
		ref = bounds
		grid.JustifyItems = css.GridItemsCodec.Decode(n.Value(AttrJustifyItems))
		grid.AlignItems = css.GridItemsCodec.Decode(n.Value(AttrAlignItems))
		grid.JustifyContent = css.GridContentCodec.Decode(n.Value(AttrJustifyContent))
		grid.AlignContent = css.GridContentCodec.Decode(n.Value(AttrAlignContent))
	} else {
		grid.JustifyItems = css.AlignStart
		grid.AlignItems = css.AlignStart
		grid.JustifyContent = css.JustifyStart
		grid.AlignContent = css.JustifyStart
		grid.TemplateColumns = withoutFractions(grid.TemplateColumns)
		grid.TemplateRows = withoutFractions(grid.TemplateRows)
		if grid.AutoColumns.Kind == TrackFraction {
			grid.AutoColumns = Track{}
		}
		if grid.AutoRows.Kind == TrackFraction {
			grid.AutoRows = Track{}
		}
	}
	if gap, ok := n.Get(AttrGap); ok {
		row, column := ParseGap(gap)
		grid.RowGap = css.Resolve(n, boxmodel.AttrHeight, row, ref)
		grid.ColumnGap = css.Resolve(n, boxmodel.AttrWidth, column, ref)
	}

	for _, ch := range n.Children() {
		box, ok := boxmodel.Of(ch)
		if !ok {
			continue
		}
		it := newItem()
		if strategy == Real {
			it.JustifySelf = css.GridSelfCodec.Decode(ch.Value(AttrJustifySelf))
			it.AlignSelf = css.GridSelfCodec.Decode(ch.Value(AttrAlignSelf))
		}
		it.Column = ch.Value(AttrColumn).AsString()
		it.Row = ch.Value(AttrRow).AsString()
		it.Area = ch.Value(AttrArea).AsString()
		applyConstraints(it, ch, box, bounds, false, strategy)
		grid.Items = append(grid.Items, it)
	}

	grid.PerformLayout(bounds)
	return grid.Items
}

func withoutFractions(tracks []Track) []Track {
	out := slices.Clone(tracks)
	for i, t := range out {
		if t.Kind == TrackFraction {
			out[i] = Track{}
		}
	}
	return out
}

// blockItems reports where block layout puts each child.
func (c *Container) blockItems(bounds geom.Rect) []*Item {
	var items []*Item
	for _, ch := range c.node.Children() {
		box, ok := boxmodel.Of(ch)
		if !ok {
			continue
		}
		it := newItem()
		it.node = ch
		it.Width, it.Height = box.Width(), box.Height()
		pos := BlockPosition(ch, box, bounds)
		it.Bounds = geom.NewRect(pos.X, pos.Y, it.Width, it.Height)
		items = append(items, it)
	}
	return items
}

// Close unregisters every listener and detaches the trait. Box models are
// left in place.
func (c *Container) Close() {
	for _, u := range c.unsubscribe {
		u()
	}
	c.unsubscribe = nil
	c.box.RemoveListener(c.listener)
	for n := range c.children {
		c.release(n)
	}
	c.display.Close()
	c.idealWidth.Close()
	c.idealHeight.Close()
	if cur, ok := Of(c.node); ok && cur == c {
		tree.Detach[*Container](c.node)
	}
}

func approximatelyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

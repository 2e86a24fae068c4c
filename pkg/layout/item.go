package layout

import (
	"math"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/tree"
)

// Strategy selects what a layout pass is for.
type Strategy int

const (
	// Dummy passes measure: they run against unbounded constraints and
	// never touch the nodes.
	Dummy Strategy = iota
	// Real passes write bounds back into the children's box models.
	Real
)

func (s Strategy) String() string {
	if s == Dummy {
		return "dummy"
	}
	return "real"
}

// Unbounded is the extent used for the open axis of an intrinsic pass.
const Unbounded = 65535

// Unset marks a width, height or maximum that the item does not constrain.
const Unset = -1

// ContentMeasurer is attached to nodes whose ideal height depends on the
// width they are given, like wrapped text or images.
type ContentMeasurer interface {
	HeightForWidth(width float64) float64
}

// Item is the per-pass projection of a child into the layout solvers.
// Nothing on it survives the pass.
type Item struct {
	node *tree.Node

	Width, Height       float64
	MinWidth, MinHeight float64
	MaxWidth, MaxHeight float64
	Margin              css.BoxEdge
	Order               int

	FlexGrow, FlexShrink, FlexBasis float64
	AlignSelf                       css.Align
	JustifySelf                     css.Align

	Column, Row, Area string

	// Bounds is the border box the solver chose, in the container's
	// coordinates.
	Bounds geom.Rect
}

func newItem() *Item {
	return &Item{
		Width:      Unset,
		Height:     Unset,
		MaxWidth:   Unset,
		MaxHeight:  Unset,
		FlexShrink: 1,
	}
}

// Node is the child the item stands for, or nil in dummy passes.
func (it *Item) Node() *tree.Node { return it.node }

// preferredWidth is the explicit width, else the minimum, kept within
// min and max.
func (it *Item) preferredWidth() float64 {
	return clampSize(pick(it.Width, it.MinWidth), it.MinWidth, it.MaxWidth)
}

func (it *Item) preferredHeight() float64 {
	return clampSize(pick(it.Height, it.MinHeight), it.MinHeight, it.MaxHeight)
}

func pick(v, fallback float64) float64 {
	if v == Unset {
		return fallback
	}
	return v
}

// clampSize keeps v inside [lo, hi]; a negative hi means no upper bound.
func clampSize(v, lo, hi float64) float64 {
	if hi >= 0 && v > hi {
		v = hi
	}
	return math.Max(v, lo)
}

// applyConstraints copies the child's box model and sizing attributes into
// item. Explicit lengths resolve against the parent content box in real
// passes and against nothing in dummy ones; ideal sizes become minimums
// when they fit and are clamped to the parent otherwise.
func applyConstraints(item *Item, child *tree.Node, box *boxmodel.BoxModel, parentContent geom.Rect, horizontal bool, strategy Strategy) {
	minimum := box.MinimumBounds()
	item.MinWidth = minimum.Width
	item.MinHeight = minimum.Height

	maximum := box.MaximumBounds()
	item.MaxWidth = maximum.Width
	item.MaxHeight = maximum.Height

	item.Order = int(child.Value("order").AsNumber())
	item.Margin = box.Margin()

	if strategy == Real {
		item.node = child
	}

	ref := geom.Rect{}
	if strategy == Real {
		ref = parentContent
	}

	width := css.ParseLength(child.Value(boxmodel.AttrWidth))
	idealWidth, hasIdealWidth := child.Get(boxmodel.AttrIdealWidth)
	switch {
	case !width.IsAuto():
		item.Width = css.Resolve(child, boxmodel.AttrWidth, width, ref)
	case hasIdealWidth && horizontal:
		item.Width = idealWidth.AsNumber()
	case hasIdealWidth:
		if idealWidth.AsNumber() < parentContent.Width || strategy == Dummy {
			item.MinWidth = math.Max(item.MinWidth, idealWidth.AsNumber())
		} else {
			item.Width = parentContent.Width
		}
	}

	height := css.ParseLength(child.Value(boxmodel.AttrHeight))
	idealHeight, hasIdealHeight := child.Get(boxmodel.AttrIdealHeight)
	if !height.IsAuto() {
		item.Height = css.Resolve(child, boxmodel.AttrHeight, height, ref)
		return
	}
	if !hasIdealHeight {
		return
	}

	measurer, measured := tree.Lookup[ContentMeasurer](child)
	if !measured {
		item.MinHeight = math.Max(item.MinHeight, idealHeight.AsNumber())
		return
	}

	forWidth := math.Max(item.Width, item.MinWidth)
	if strategy == Dummy {
		forWidth = math.Min(idealWidth.AsNumber(), parentContent.Width)
	}
	h := measurer.HeightForWidth(forWidth)
	if !horizontal || h < parentContent.Height || strategy == Dummy {
		item.MinHeight = math.Max(item.MinHeight, h)
	} else {
		item.Height = parentContent.Height
	}
}

// extremities returns the furthest right and bottom edges of the items,
// margins included.
func extremities(items []*Item) geom.Size {
	var s geom.Size
	for _, it := range items {
		s.Width = math.Max(s.Width, it.Bounds.Right()+it.Margin.Right)
		s.Height = math.Max(s.Height, it.Bounds.Bottom()+it.Margin.Bottom)
	}
	return s
}

// place writes the item's bounds into its node's box model.
func place(it *Item) {
	if it.node == nil {
		return
	}
	box, ok := boxmodel.Of(it.node)
	if !ok {
		return
	}
	box.SetSize(it.Bounds.Width, it.Bounds.Height)
	box.SetTopLeft(it.Bounds.TopLeft())
}

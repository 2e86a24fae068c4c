package layout

import (
	"math"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/tree"
)

// Block item attributes. Setting one attribute of an axis clears its
// counterpart.
const (
	AttrX       = "x"
	AttrY       = "y"
	AttrCentreX = "centre-x"
	AttrCentreY = "centre-y"
)

// counterpart maps a block position attribute to the one it replaces.
var counterpart = map[string]string{
	AttrX:       AttrCentreX,
	AttrCentreX: AttrX,
	AttrY:       AttrCentreY,
	AttrCentreY: AttrY,
}

// BlockPosition is where a block child sits inside its parent's outer box:
// the parent content origin plus x and y, or the centre point minus half
// the child's size. Both are rounded half to even.
func BlockPosition(child *tree.Node, box *boxmodel.BoxModel, content geom.Rect) geom.Point {
	origin := geom.Point{X: math.RoundToEven(content.X), Y: math.RoundToEven(content.Y)}
	ref := content.WithZeroOrigin()

	var x, y float64
	if child.Has(AttrCentreX) {
		x = css.ResolveAttr(child, AttrCentreX, ref, 0) - box.Width()/2
	} else {
		x = css.ResolveAttr(child, AttrX, ref, 0)
	}
	if child.Has(AttrCentreY) {
		y = css.ResolveAttr(child, AttrCentreY, ref, 0) - box.Height()/2
	} else {
		y = css.ResolveAttr(child, AttrY, ref, 0)
	}
	return origin.Add(geom.Point{X: math.RoundToEven(x), Y: math.RoundToEven(y)})
}

// layOutBlock positions every child that has a box model. Sizes are left
// to the children's own box models.
func layOutBlock(parent *tree.Node, content geom.Rect) {
	for _, child := range parent.Children() {
		box, ok := boxmodel.Of(child)
		if !ok {
			continue
		}
		box.SetTopLeft(BlockPosition(child, box, content))
	}
}

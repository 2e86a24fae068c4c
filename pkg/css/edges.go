package css

import (
	"strings"

	"vista/pkg/geom"
	"vista/pkg/tree"
)

// BoxEdge represents the four sides of a box (top, right, bottom, left)
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func Uniform(v float64) BoxEdge { return BoxEdge{v, v, v, v} }

// Horizontal is left + right.
func (e BoxEdge) Horizontal() float64 { return e.Left + e.Right }

// Vertical is top + bottom.
func (e BoxEdge) Vertical() float64 { return e.Top + e.Bottom }

func (e BoxEdge) Add(o BoxEdge) BoxEdge {
	return BoxEdge{e.Top + o.Top, e.Right + o.Right, e.Bottom + o.Bottom, e.Left + o.Left}
}

// Shrink returns r with the edges removed, clamped to a non-negative size.
func (e BoxEdge) Shrink(r geom.Rect) geom.Rect {
	return geom.Rect{
		X:      r.X + e.Left,
		Y:      r.Y + e.Top,
		Width:  max(0, r.Width-e.Horizontal()),
		Height: max(0, r.Height-e.Vertical()),
	}
}

func LerpBoxEdge(a, b BoxEdge, p float64) BoxEdge {
	l := func(x, y float64) float64 { return x + (y-x)*p }
	return BoxEdge{l(a.Top, b.Top), l(a.Right, b.Right), l(a.Bottom, b.Bottom), l(a.Left, b.Left)}
}

// EdgeLengths is an unresolved four-sided inset such as "10 20%".
type EdgeLengths struct {
	Top, Right, Bottom, Left Length
}

// ParseEdges reads a padding, border-width or margin attribute.
// Supports: "10" (all), "10 20" (vertical horizontal),
// "10 20 30" (top horizontal bottom), "10 20 30 40" (top right bottom left).
// Missing or malformed values are zero on every side.
func ParseEdges(v tree.Value) EdgeLengths {
	if v.IsNumber() {
		l := Px(v.AsNumber())
		return EdgeLengths{l, l, l, l}
	}
	parts := strings.Fields(v.AsString())
	parse := func(s string) Length {
		l := ParseLengthString(s)
		if l.IsAuto() {
			return Px(0)
		}
		return l
	}
	switch len(parts) {
	case 1:
		l := parse(parts[0])
		return EdgeLengths{l, l, l, l}
	case 2:
		vertical, horizontal := parse(parts[0]), parse(parts[1])
		return EdgeLengths{vertical, horizontal, vertical, horizontal}
	case 3:
		horizontal := parse(parts[1])
		return EdgeLengths{parse(parts[0]), horizontal, parse(parts[2]), horizontal}
	case 4:
		return EdgeLengths{parse(parts[0]), parse(parts[1]), parse(parts[2]), parse(parts[3])}
	}
	return EdgeLengths{Px(0), Px(0), Px(0), Px(0)}
}

// Resolve converts the insets to pixels: top and bottom against the
// height of ref, left and right against its width.
func (e EdgeLengths) Resolve(n *tree.Node, ref geom.Rect) BoxEdge {
	return BoxEdge{
		Top:    Resolve(n, "height", e.Top, ref),
		Right:  Resolve(n, "width", e.Right, ref),
		Bottom: Resolve(n, "height", e.Bottom, ref),
		Left:   Resolve(n, "width", e.Left, ref),
	}
}

func (e EdgeLengths) String() string {
	return strings.Join([]string{e.Top.String(), e.Right.String(), e.Bottom.String(), e.Left.String()}, " ")
}

func (e EdgeLengths) Encode() tree.Value { return tree.String(e.String()) }

func LerpEdgeLengths(a, b EdgeLengths, p float64) EdgeLengths {
	return EdgeLengths{
		LerpLength(a.Top, b.Top, p),
		LerpLength(a.Right, b.Right, p),
		LerpLength(a.Bottom, b.Bottom, p),
		LerpLength(a.Left, b.Left, p),
	}
}

package css

import (
	"strconv"
	"strings"

	"vista/pkg/geom"
	"vista/pkg/tree"
)

// Unit is the unit a Length was written in.
type Unit int

const (
	Auto Unit = iota
	Pixels
	Percent
	Em
	Rem
)

// Length is a parsed length expression. The zero value is auto.
type Length struct {
	Value float64
	Unit  Unit
}

func Px(v float64) Length { return Length{Value: v, Unit: Pixels} }

func Pct(v float64) Length { return Length{Value: v, Unit: Percent} }

// ParseLength reads a length attribute. Missing values and "auto" are
// auto; numbers are pixels; unknown units are pixels; malformed text
// parses its numeric prefix.
func ParseLength(v tree.Value) Length {
	switch v.Kind() {
	case tree.KindUndefined:
		return Length{}
	case tree.KindNumber:
		return Px(v.AsNumber())
	}
	return ParseLengthString(v.AsString())
}

func ParseLengthString(s string) Length {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "auto" {
		return Length{}
	}
	n, _ := tree.ParseNumberPrefix(s)
	switch {
	case strings.HasSuffix(s, "%"):
		return Length{Value: n, Unit: Percent}
	case strings.HasSuffix(s, "rem"):
		return Length{Value: n, Unit: Rem}
	case strings.HasSuffix(s, "em"):
		return Length{Value: n, Unit: Em}
	}
	return Px(n)
}

func (l Length) IsAuto() bool { return l.Unit == Auto }

// ToPixels resolves l. reference is the length of the reference axis used
// by percentages, fontSize and rootFontSize scale em and rem. Auto
// resolves to 0.
func (l Length) ToPixels(reference, fontSize, rootFontSize float64) float64 {
	switch l.Unit {
	case Pixels:
		return l.Value
	case Percent:
		return reference * l.Value / 100
	case Em:
		return l.Value * fontSize
	case Rem:
		return l.Value * rootFontSize
	}
	return 0
}

// ToPixelsOr is ToPixels with an explicit default for auto.
func (l Length) ToPixelsOr(reference, fontSize, rootFontSize, whenAuto float64) float64 {
	if l.IsAuto() {
		return whenAuto
	}
	return l.ToPixels(reference, fontSize, rootFontSize)
}

func (l Length) String() string {
	v := strconv.FormatFloat(l.Value, 'f', -1, 64)
	switch l.Unit {
	case Pixels:
		return v + "px"
	case Percent:
		return v + "%"
	case Em:
		return v + "em"
	case Rem:
		return v + "rem"
	}
	return "auto"
}

// Encode converts l back to an attribute value.
func (l Length) Encode() tree.Value {
	return tree.String(l.String())
}

// LerpLength blends lengths of the same unit; mixed units snap to b.
func LerpLength(a, b Length, p float64) Length {
	if a.Unit != b.Unit {
		return b
	}
	return Length{Value: a.Value + (b.Value-a.Value)*p, Unit: a.Unit}
}

// Axis selects the dimension of a reference box.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

// AxisFor picks the reference axis for a length attribute: names that
// mention width or x resolve horizontally, everything else vertically.
// Unlike a bare width-or-x test, "height" is matched before "x": a
// max-height percentage resolves against the height, not the width.
func AxisFor(attr string) Axis {
	switch {
	case strings.Contains(attr, "width"):
		return Horizontal
	case strings.Contains(attr, "height"):
		return Vertical
	case strings.Contains(attr, "x"):
		return Horizontal
	}
	return Vertical
}

// Of returns the extent of r along a.
func (a Axis) Of(r geom.Rect) float64 {
	if a == Horizontal {
		return r.Width
	}
	return r.Height
}

// Resolve resolves l for the attribute attr of n against ref, looking up
// em and rem font sizes through n's style chain.
func Resolve(n *tree.Node, attr string, l Length, ref geom.Rect) float64 {
	switch l.Unit {
	case Em:
		return l.ToPixels(0, FontSizeOf(n), 0)
	case Rem:
		return l.ToPixels(0, 0, FontSizeOf(rootOf(n)))
	}
	return l.ToPixels(AxisFor(attr).Of(ref), 0, 0)
}

// ResolveAttr parses and resolves the attribute attr of n.
func ResolveAttr(n *tree.Node, attr string, ref geom.Rect, whenAuto float64) float64 {
	l := ParseLength(n.Value(attr))
	if l.IsAuto() {
		return whenAuto
	}
	return Resolve(n, attr, l, ref)
}

// FontSizeOf returns the font-size declared by the nearest style object
// on n or its ancestors, or 0 when there is none.
func FontSizeOf(n *tree.Node) float64 {
	for cur := n; cur != nil; cur = cur.Parent() {
		style := StyleObject(cur)
		if style == nil {
			continue
		}
		if v, ok := style.Get("font-size"); ok {
			return ParseLength(v).ToPixels(0, 0, 0)
		}
	}
	return 0
}

func rootOf(n *tree.Node) *tree.Node {
	if n == nil {
		return nil
	}
	return n.Root()
}

package css

import (
	"strconv"
	"strings"

	"vista/pkg/tree"
)

// Radii are the corner radii of a rounded rectangle.
type Radii struct {
	TopLeft, TopRight, BottomRight, BottomLeft float64
}

// ParseRadii reads one to four radii in CSS corner order.
func ParseRadii(v tree.Value) Radii {
	if v.IsNumber() {
		r := v.AsNumber()
		return Radii{r, r, r, r}
	}
	parts := strings.Fields(v.AsString())
	r := make([]float64, len(parts))
	for i, p := range parts {
		r[i] = ParseLengthString(p).ToPixels(0, 0, 0)
	}
	switch len(r) {
	case 1:
		return Radii{r[0], r[0], r[0], r[0]}
	case 2:
		return Radii{r[0], r[1], r[0], r[1]}
	case 3:
		return Radii{r[0], r[1], r[2], r[1]}
	case 4:
		return Radii{r[0], r[1], r[2], r[3]}
	}
	return Radii{}
}

func (r Radii) IsZero() bool { return r == Radii{} }

func (r Radii) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(r.TopLeft) + " " + f(r.TopRight) + " " + f(r.BottomRight) + " " + f(r.BottomLeft)
}

func (r Radii) Encode() tree.Value { return tree.String(r.String()) }

func LerpRadii(a, b Radii, p float64) Radii {
	l := func(x, y float64) float64 { return x + (y-x)*p }
	return Radii{
		l(a.TopLeft, b.TopLeft),
		l(a.TopRight, b.TopRight),
		l(a.BottomRight, b.BottomRight),
		l(a.BottomLeft, b.BottomLeft),
	}
}

package css

import (
	"strings"

	"vista/pkg/tree"
)

// Fill paints an area with a solid colour or a gradient. The zero value
// paints nothing.
type Fill struct {
	Color    Color
	Gradient *Gradient
}

func SolidFill(c Color) Fill { return Fill{Color: c} }

// ParseFill reads a colour or linear-gradient(). Anything unparseable is
// a transparent fill.
func ParseFill(v tree.Value) Fill {
	s := strings.TrimSpace(v.AsString())
	if strings.Contains(s, "linear-gradient(") {
		if g, ok := ParseLinearGradient(s); ok {
			return Fill{Gradient: g}
		}
		return Fill{}
	}
	c, _ := ParseColor(s)
	return Fill{Color: c}
}

func (f Fill) IsEmpty() bool {
	return f.Gradient == nil && f.Color.IsTransparent()
}

func (f Fill) Equal(o Fill) bool {
	if (f.Gradient == nil) != (o.Gradient == nil) {
		return false
	}
	if f.Gradient != nil {
		return f.Gradient.String() == o.Gradient.String()
	}
	return f.Color == o.Color
}

func (f Fill) String() string {
	if f.Gradient != nil {
		return f.Gradient.String()
	}
	return f.Color.String()
}

func (f Fill) Encode() tree.Value { return tree.String(f.String()) }

// LerpFill blends solid colours; anything involving a gradient snaps to b.
func LerpFill(a, b Fill, p float64) Fill {
	if a.Gradient != nil || b.Gradient != nil {
		return b
	}
	return Fill{Color: LerpColor(a.Color, b.Color, p)}
}

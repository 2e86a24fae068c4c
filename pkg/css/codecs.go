package css

import (
	"vista/pkg/kinetics"
	"vista/pkg/property"
	"vista/pkg/tree"
)

var (
	LengthCodec = property.Codec[Length]{Decode: ParseLength, Encode: Length.Encode}
	EdgesCodec  = property.Codec[EdgeLengths]{Decode: ParseEdges, Encode: EdgeLengths.Encode}
	FillCodec   = property.Codec[Fill]{Decode: ParseFill, Encode: Fill.Encode}
	RadiiCodec  = property.Codec[Radii]{Decode: ParseRadii, Encode: Radii.Encode}
	ColorCodec  = property.Codec[Color]{
		Decode: func(v tree.Value) Color {
			c, _ := ParseColor(v.AsString())
			return c
		},
		Encode: func(c Color) tree.Value { return tree.String(c.String()) },
	}
)

// RegisterInterpolators installs the strategies for every style type that
// can transition.
func RegisterInterpolators(set *kinetics.Interpolators) {
	kinetics.Register(set, LerpColor)
	kinetics.Register(set, LerpFill)
	kinetics.Register(set, LerpBoxEdge)
	kinetics.Register(set, LerpEdgeLengths)
	kinetics.Register(set, LerpLength)
	kinetics.Register(set, LerpRadii)
}

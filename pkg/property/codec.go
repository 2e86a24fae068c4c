package property

import (
	"vista/pkg/tree"
)

// Codec converts between tree values and a typed value. Decode must be
// total: malformed input yields a default, never a panic.
type Codec[T any] struct {
	Decode func(tree.Value) T
	Encode func(T) tree.Value
}

var (
	Float = Codec[float64]{
		Decode: func(v tree.Value) float64 { return v.AsNumber() },
		Encode: tree.Number,
	}
	Int = Codec[int]{
		Decode: func(v tree.Value) int { return int(v.AsNumber()) },
		Encode: tree.Int,
	}
	Bool = Codec[bool]{
		Decode: func(v tree.Value) bool { return v.AsBool() },
		Encode: tree.Bool,
	}
	String = Codec[string]{
		Decode: func(v tree.Value) string { return v.AsString() },
		Encode: tree.String,
	}
	Raw = Codec[tree.Value]{
		Decode: func(v tree.Value) tree.Value { return v },
		Encode: func(v tree.Value) tree.Value { return v },
	}
)

// Enum decodes a string attribute into one of a fixed set of values.
// Unknown text decodes to fallback. Aliases are accepted when decoding
// only; encoding always uses the canonical name.
func Enum[T comparable](fallback T, canonical map[T]string, aliases map[string]T) Codec[T] {
	lookup := make(map[string]T, len(canonical)+len(aliases))
	for v, name := range canonical {
		lookup[name] = v
	}
	for name, v := range aliases {
		lookup[name] = v
	}
	return Codec[T]{
		Decode: func(v tree.Value) T {
			if e, ok := lookup[v.AsString()]; ok {
				return e
			}
			return fallback
		},
		Encode: func(e T) tree.Value {
			return tree.String(canonical[e])
		},
	}
}

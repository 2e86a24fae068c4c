package kinetics

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"vista/pkg/tree"
)

// Interpolators holds one interpolation strategy per Go type.
type Interpolators struct {
	byType map[reflect.Type]func(a, b any, p float64) any
}

// NewInterpolators returns a set with the scalar strategies registered.
func NewInterpolators() *Interpolators {
	set := &Interpolators{byType: make(map[reflect.Type]func(a, b any, p float64) any)}
	Register(set, Lerp)
	Register(set, func(a, b float32, p float64) float32 {
		return float32(Lerp(float64(a), float64(b), p))
	})
	Register(set, func(a, b int, p float64) int {
		return int(math.Round(Lerp(float64(a), float64(b), p)))
	})
	Register(set, LerpSlice)
	Register(set, LerpNumericString)
	Register(set, LerpValue)
	return set
}

// Register installs fn as the strategy for T, replacing any earlier one.
func Register[T any](set *Interpolators, fn func(a, b T, p float64) T) {
	set.byType[reflect.TypeFor[T]()] = func(a, b any, p float64) any {
		return fn(a.(T), b.(T), p)
	}
}

// Has reports whether T has a strategy.
func Has[T any](set *Interpolators) bool {
	_, ok := set.byType[reflect.TypeFor[T]()]
	return ok
}

// Interpolate blends source towards target. Types without a strategy
// snap to target once any progress has been made.
func Interpolate[T any](set *Interpolators, source, target T, p float64) T {
	if p <= 0 {
		return source
	}
	if p >= 1 {
		return target
	}
	if set != nil {
		if fn, ok := set.byType[reflect.TypeFor[T]()]; ok {
			return fn(source, target, p).(T)
		}
	}
	return target
}

func Lerp(a, b, p float64) float64 {
	return a + (b-a)*p
}

// LerpSlice blends element-wise; a length mismatch snaps to b.
func LerpSlice(a, b []float64, p float64) []float64 {
	if len(a) != len(b) {
		return b
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = Lerp(a[i], b[i], p)
	}
	return out
}

// LerpNumericString blends strings such as "10px" and "20px" that share a
// unit suffix. Space separated lists are blended item by item.
func LerpNumericString(a, b string, p float64) string {
	as, bs := strings.Fields(a), strings.Fields(b)
	if len(as) != len(bs) || len(as) == 0 {
		return b
	}
	out := make([]string, len(as))
	for i := range as {
		av, aunit, aok := splitUnit(as[i])
		bv, bunit, bok := splitUnit(bs[i])
		if !aok || !bok || aunit != bunit {
			return b
		}
		out[i] = strconv.FormatFloat(Lerp(av, bv, p), 'f', -1, 64) + bunit
	}
	return strings.Join(out, " ")
}

// LerpValue blends tree values of matching kinds.
func LerpValue(a, b tree.Value, p float64) tree.Value {
	switch {
	case a.IsNumber() && b.IsNumber():
		return tree.Number(Lerp(a.AsNumber(), b.AsNumber(), p))
	case a.IsString() && b.IsString():
		return tree.String(LerpNumericString(a.AsString(), b.AsString(), p))
	case a.IsNumber() && b.IsString(), a.IsString() && b.IsNumber():
		return tree.String(LerpNumericString(a.AsString(), b.AsString(), p))
	}
	return b
}

func splitUnit(s string) (float64, string, bool) {
	i := len(s)
	for i > 0 {
		c := s[i-1]
		if (c >= '0' && c <= '9') || c == '.' {
			break
		}
		i--
	}
	v, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, "", false
	}
	return v, s[i:], true
}

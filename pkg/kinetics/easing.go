package kinetics

import (
	"math"
	"strconv"
	"strings"
)

// Easing maps normalised time to normalised progress.
type Easing func(x float64) float64

func Linear(x float64) float64 { return x }

// CubicBezier returns the timing curve through (0,0), (x1,y1), (x2,y2),
// (1,1). For an input x the curve parameter t with Bx(t) = x is solved
// first and By(t) is returned.
func CubicBezier(x1, y1, x2, y2 float64) Easing {
	x1 = clamp01(x1)
	x2 = clamp01(x2)
	return func(x float64) float64 {
		if x <= 0 {
			return 0
		}
		if x >= 1 {
			return 1
		}
		t := solveCurveX(x, x1, x2)
		return bezier(t, y1, y2)
	}
}

var (
	Ease      = CubicBezier(0.4, 0, 0.2, 1)
	EaseInOut = Ease
	EaseIn    = CubicBezier(0.4, 0, 1, 1)
	EaseOut   = CubicBezier(0, 0, 0.2, 1)
)

// ParseEasing understands the named curves and cubic-bezier(x1,y1,x2,y2).
// Anything else is linear.
func ParseEasing(text string) Easing {
	text = strings.ToLower(strings.TrimSpace(text))
	switch text {
	case "linear", "":
		return Linear
	case "ease", "ease-in-out":
		return Ease
	case "ease-in":
		return EaseIn
	case "ease-out":
		return EaseOut
	}
	if strings.HasPrefix(text, "cubic-bezier(") && strings.HasSuffix(text, ")") {
		args := strings.Split(text[len("cubic-bezier("):len(text)-1], ",")
		if len(args) != 4 {
			return Linear
		}
		var p [4]float64
		for i, a := range args {
			f, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
			if err != nil {
				return Linear
			}
			p[i] = f
		}
		return CubicBezier(p[0], p[1], p[2], p[3])
	}
	return Linear
}

// bezier evaluates one axis of the curve with end points 0 and 1.
func bezier(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*t*p1 + 3*u*t*t*p2 + t*t*t
}

func bezierDerivative(t, p1, p2 float64) float64 {
	u := 1 - t
	return 3*u*u*p1 + 6*u*t*(p2-p1) + 3*t*t*(1-p2)
}

const solveEpsilon = 1e-7

func solveCurveX(x, x1, x2 float64) float64 {
	t := x
	for range 8 {
		err := bezier(t, x1, x2) - x
		if math.Abs(err) < solveEpsilon {
			return t
		}
		d := bezierDerivative(t, x1, x2)
		if math.Abs(d) < 1e-6 {
			break
		}
		t -= err / d
	}

	lo, hi := 0.0, 1.0
	t = x
	for range 64 {
		v := bezier(t, x1, x2)
		if math.Abs(v-x) < solveEpsilon {
			break
		}
		if v < x {
			lo = t
		} else {
			hi = t
		}
		t = (lo + hi) / 2
	}
	return t
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

package css

import (
	"math"
	"strconv"
	"strings"
)

// ColorStop is one colour of a gradient. Offset is a fraction in [0, 1]
// when Percent is true, pixels along the gradient line otherwise, and
// negative when the stop did not specify a position.
type ColorStop struct {
	Color   Color
	Offset  float64
	Percent bool
}

// Gradient is a linear-gradient() fill.
type Gradient struct {
	Direction  string // "to right", "to bottom", "45deg", ...
	ColorStops []ColorStop
}

// ParseLinearGradient parses a linear-gradient() value, for example
// "linear-gradient(to right, blue 0, blue 150px, red 150px, red 300px)".
func ParseLinearGradient(value string) (*Gradient, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "linear-gradient(") || !strings.HasSuffix(value, ")") {
		return nil, false
	}
	parts := splitGradientParts(value[len("linear-gradient(") : len(value)-1])
	if len(parts) < 2 {
		return nil, false
	}

	g := &Gradient{Direction: "to bottom"}
	first := strings.TrimSpace(parts[0])
	if strings.HasPrefix(first, "to ") || strings.HasSuffix(first, "deg") {
		g.Direction = first
		parts = parts[1:]
	}
	for _, part := range parts {
		stop, ok := parseColorStop(strings.TrimSpace(part))
		if !ok {
			return nil, false
		}
		g.ColorStops = append(g.ColorStops, stop)
	}
	if len(g.ColorStops) < 2 {
		return nil, false
	}
	return g, true
}

// parseColorStop parses "blue", "blue 150px" or "rgb(0, 0, 255) 50%".
func parseColorStop(stop string) (ColorStop, bool) {
	colorText, position := stop, ""
	if i := strings.LastIndexByte(stop, ' '); i > 0 && !strings.HasSuffix(stop, ")") {
		colorText, position = strings.TrimSpace(stop[:i]), stop[i+1:]
	}
	color, ok := ParseColor(colorText)
	if !ok {
		return ColorStop{}, false
	}
	cs := ColorStop{Color: color, Offset: -1}
	switch {
	case position == "":
	case strings.HasSuffix(position, "%"):
		if pct, err := strconv.ParseFloat(strings.TrimSuffix(position, "%"), 64); err == nil {
			cs.Offset, cs.Percent = pct/100, true
		}
	default:
		if px, err := strconv.ParseFloat(strings.TrimSuffix(position, "px"), 64); err == nil {
			cs.Offset = px
		}
	}
	return cs, true
}

// splitGradientParts splits on commas outside parentheses.
func splitGradientParts(content string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	for _, ch := range content {
		switch {
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			parts = append(parts, current.String())
			current.Reset()
			continue
		}
		current.WriteRune(ch)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

// Angle returns the direction in degrees, CSS style: 0 points up, 90
// points right.
func (g *Gradient) Angle() float64 {
	switch g.Direction {
	case "to top":
		return 0
	case "to right":
		return 90
	case "to bottom":
		return 180
	case "to left":
		return 270
	case "to top right", "to right top":
		return 45
	case "to bottom right", "to right bottom":
		return 135
	case "to bottom left", "to left bottom":
		return 225
	case "to top left", "to left top":
		return 315
	}
	if deg, err := strconv.ParseFloat(strings.TrimSuffix(g.Direction, "deg"), 64); err == nil {
		return math.Mod(deg, 360)
	}
	return 180
}

// Stops returns the colour stops with every offset as a fraction of a
// gradient line of the given length. Unpositioned stops are spread evenly
// between their positioned neighbours.
func (g *Gradient) Stops(length float64) []ColorStop {
	out := make([]ColorStop, len(g.ColorStops))
	copy(out, g.ColorStops)
	for i := range out {
		if out[i].Offset >= 0 && !out[i].Percent {
			if length > 0 {
				out[i].Offset /= length
			} else {
				out[i].Offset = 0
			}
		}
		if out[i].Offset >= 0 {
			out[i].Percent = true
		}
	}
	if out[0].Offset < 0 {
		out[0].Offset = 0
	}
	last := len(out) - 1
	if out[last].Offset < 0 {
		out[last].Offset = 1
	}
	for i := range out {
		if out[i].Offset >= 0 {
			continue
		}
		prev, next := i-1, i+1
		for out[next].Offset < 0 {
			next++
		}
		step := (out[next].Offset - out[prev].Offset) / float64(next-prev)
		out[i].Offset = out[prev].Offset + step
		out[i].Percent = true
	}
	return out
}

func (g *Gradient) String() string {
	var b strings.Builder
	b.WriteString("linear-gradient(")
	b.WriteString(g.Direction)
	for _, s := range g.ColorStops {
		b.WriteString(", ")
		b.WriteString(s.Color.String())
		switch {
		case s.Offset < 0:
		case s.Percent:
			b.WriteString(" " + strconv.FormatFloat(s.Offset*100, 'f', -1, 64) + "%")
		default:
			b.WriteString(" " + strconv.FormatFloat(s.Offset, 'f', -1, 64) + "px")
		}
	}
	b.WriteString(")")
	return b.String()
}

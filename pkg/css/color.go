package css

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is an sRGB colour with alpha in [0, 1]. The zero value is
// transparent.
type Color struct {
	R, G, B uint8
	A       float64
}

var (
	Transparent = Color{}
	Black       = Color{0, 0, 0, 1}
	White       = Color{255, 255, 255, 1}
)

var namedColors = map[string]Color{
	"red":         {255, 0, 0, 1},
	"green":       {0, 128, 0, 1},
	"blue":        {0, 0, 255, 1},
	"yellow":      {255, 255, 0, 1},
	"cyan":        {0, 255, 255, 1},
	"magenta":     {255, 0, 255, 1},
	"white":       {255, 255, 255, 1},
	"black":       {0, 0, 0, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"orange":      {255, 165, 0, 1},
	"purple":      {128, 0, 128, 1},
	"pink":        {255, 192, 203, 1},
	"brown":       {165, 42, 42, 1},
	"lime":        {0, 255, 0, 1},
	"navy":        {0, 0, 128, 1},
	"teal":        {0, 128, 128, 1},
	"silver":      {192, 192, 192, 1},
	"hotpink":     {255, 105, 180, 1},
	"transparent": {},
}

// ParseColor understands named colours, #rgb, #rrggbb, #rrggbbaa,
// rgb(r, g, b) and rgba(r, g, b, a).
func ParseColor(colorStr string) (Color, bool) {
	colorStr = strings.ToLower(strings.TrimSpace(colorStr))
	if color, ok := namedColors[colorStr]; ok {
		return color, true
	}
	if strings.HasPrefix(colorStr, "#") {
		return parseHexColor(colorStr[1:])
	}
	if strings.HasPrefix(colorStr, "rgb") {
		return parseRGBFunction(colorStr)
	}
	return Color{}, false
}

func parseHexColor(hex string) (Color, bool) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, false
	}
	if len(hex) == 6 {
		return Color{uint8(v >> 16), uint8(v >> 8), uint8(v), 1}, true
	}
	return Color{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), float64(uint8(v)) / 255}, true
}

func parseRGBFunction(s string) (Color, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Color{}, false
	}
	args := strings.Split(s[open+1:len(s)-1], ",")
	if len(args) != 3 && len(args) != 4 {
		return Color{}, false
	}
	var channels [3]uint8
	for i := range 3 {
		f, err := strconv.ParseFloat(strings.TrimSpace(args[i]), 64)
		if err != nil {
			return Color{}, false
		}
		channels[i] = uint8(math.Max(0, math.Min(255, math.Round(f))))
	}
	c := Color{channels[0], channels[1], channels[2], 1}
	if len(args) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(args[3]), 64)
		if err != nil {
			return Color{}, false
		}
		c.A = math.Max(0, math.Min(1, a))
	}
	return c, true
}

// RGBA implements image/color.Color with premultiplied alpha.
func (c Color) RGBA() (r, g, b, a uint32) {
	alpha := uint32(math.Round(c.A * 0xffff))
	r = uint32(c.R) * 0x101 * alpha / 0xffff
	g = uint32(c.G) * 0x101 * alpha / 0xffff
	b = uint32(c.B) * 0x101 * alpha / 0xffff
	return r, g, b, alpha
}

func (c Color) IsTransparent() bool { return c.A <= 0 }

func (c Color) String() string {
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, uint8(math.Round(c.A*255)))
}

// LerpColor blends each channel independently.
func LerpColor(a, b Color, p float64) Color {
	channel := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*p))
	}
	return Color{
		R: channel(a.R, b.R),
		G: channel(a.G, b.G),
		B: channel(a.B, b.B),
		A: a.A + (b.A-a.A)*p,
	}
}

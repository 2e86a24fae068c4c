package css

import (
	"strings"
)

// Style is the resolved paint state of one node.
type Style struct {
	Background   Fill
	Foreground   Fill
	Border       Fill
	BorderRadius Radii

	FontFamily     string
	FontSize       float64
	FontStyle      string
	FontWeight     string
	LetterSpacing  float64
	TextDecoration string
	FontStretch    float64
}

const (
	DefaultFontFamily = "sans-serif"
	DefaultFontSize   = 14.0
)

// DefaultStyle is what a node without any styled ancestor resolves to.
func DefaultStyle() Style {
	return Style{
		FontFamily:     DefaultFontFamily,
		FontSize:       DefaultFontSize,
		FontStyle:      "normal",
		FontWeight:     "normal",
		TextDecoration: "normal",
		FontStretch:    1,
	}
}

// inheritFrom copies the hierarchical properties of parent.
func (s *Style) inheritFrom(parent Style) {
	s.Foreground = parent.Foreground
	s.FontFamily = parent.FontFamily
	s.FontSize = parent.FontSize
	s.FontStyle = parent.FontStyle
	s.FontWeight = parent.FontWeight
	s.LetterSpacing = parent.LetterSpacing
	s.TextDecoration = parent.TextDecoration
	s.FontStretch = parent.FontStretch
}

func (s Style) IsBold() bool { return strings.EqualFold(s.FontWeight, "bold") }

func (s Style) IsItalic() bool { return strings.EqualFold(s.FontStyle, "italic") }

func (s Style) IsUnderlined() bool {
	return strings.EqualFold(s.TextDecoration, "underlined") || strings.EqualFold(s.TextDecoration, "underline")
}

func (s Style) Equal(o Style) bool {
	return s.Background.Equal(o.Background) &&
		s.Foreground.Equal(o.Foreground) &&
		s.Border.Equal(o.Border) &&
		s.BorderRadius == o.BorderRadius &&
		s.FontFamily == o.FontFamily &&
		s.FontSize == o.FontSize &&
		s.FontStyle == o.FontStyle &&
		s.FontWeight == o.FontWeight &&
		s.LetterSpacing == o.LetterSpacing &&
		s.TextDecoration == o.TextDecoration &&
		s.FontStretch == o.FontStretch
}

// Painter is an optional node trait that receives every resolved style.
type Painter interface {
	ApplyStyle(Style)
}

// Package text measures and wraps text for layout and painting, and
// decorates Text nodes with their intrinsic size.
package text

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"vista/pkg/css"
)

// DefaultCacheTTL is how long a measured layout stays cached.
const DefaultCacheTTL = 5 * time.Minute

// lineHeightFactor gives the line height relative to the font size when no
// face could be loaded.
const lineHeightFactor = 1.2

// Layout is text broken into lines for one width.
type Layout struct {
	Lines      []string
	Width      float64
	Height     float64
	LineHeight float64
}

// Measurer lays out text with gg. Results and loaded faces are cached, so
// a Measurer should be shared by every view that uses the same fonts. It
// is safe for concurrent use.
type Measurer struct {
	fonts FontConfig
	log   *zap.Logger

	mu      sync.Mutex
	layouts *cache.Cache
	faces   *cache.Cache
}

type Option func(*Measurer)

func WithFonts(cfg FontConfig) Option {
	return func(m *Measurer) { m.fonts = cfg }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Measurer) { m.log = l }
}

// WithCacheTTL bounds how long layouts and faces are reused.
func WithCacheTTL(d time.Duration) Option {
	return func(m *Measurer) {
		if d > 0 {
			m.layouts = cache.New(d, 0)
			m.faces = cache.New(d, 0)
		}
	}
}

func NewMeasurer(opts ...Option) *Measurer {
	m := &Measurer{
		log:     zap.NewNop(),
		layouts: cache.New(DefaultCacheTTL, 0),
		faces:   cache.New(DefaultCacheTTL, 0),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Prune drops expired entries from the caches.
func (m *Measurer) Prune() {
	m.layouts.DeleteExpired()
	m.faces.DeleteExpired()
}

// CachedLayouts reports how many layouts are cached.
func (m *Measurer) CachedLayouts() int { return m.layouts.ItemCount() }

// Face returns the font face for s, or nil when it cannot be loaded.
func (m *Measurer) Face(s css.Style) font.Face {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.face(s)
}

func (m *Measurer) face(s css.Style) font.Face {
	v := variantOf(s)
	key := fmt.Sprintf("%s|%g", v, s.FontSize)
	if f, ok := m.faces.Get(key); ok {
		return f.(font.Face)
	}
	face, err := m.fonts.loadFace(v, s.FontSize)
	if err != nil {
		m.log.Warn("font unavailable, estimating text size", zap.Error(err))
		return nil
	}
	m.faces.Set(key, face, cache.DefaultExpiration)
	return face
}

// Measure lays out text in style s. Lines are wrapped at word boundaries to
// fit maxWidth; a negative maxWidth disables wrapping. Explicit newlines
// always break.
func (m *Measurer) Measure(text string, s css.Style, maxWidth, lineSpacing float64) Layout {
	if s.FontSize <= 0 {
		s.FontSize = css.DefaultFontSize
	}
	if lineSpacing <= 0 {
		lineSpacing = 1
	}
	key := fmt.Sprintf("%s|%g|%s|%s|%g|%g|%g|%g|%s",
		s.FontFamily, s.FontSize, s.FontWeight, s.FontStyle, s.LetterSpacing, s.FontStretch, maxWidth, lineSpacing, text)
	if l, ok := m.layouts.Get(key); ok {
		return l.(Layout)
	}

	m.mu.Lock()
	l := m.layout(text, s, maxWidth, lineSpacing)
	m.mu.Unlock()

	m.layouts.Set(key, l, cache.DefaultExpiration)
	return l
}

func (m *Measurer) layout(text string, s css.Style, maxWidth, lineSpacing float64) Layout {
	measure, lineHeight := m.metrics(s)
	l := Layout{LineHeight: lineHeight * lineSpacing}
	for _, paragraph := range strings.Split(text, "\n") {
		if maxWidth < 0 {
			l.Lines = append(l.Lines, paragraph)
			continue
		}
		l.Lines = append(l.Lines, breakIntoLines(paragraph, maxWidth, measure)...)
	}
	for _, line := range l.Lines {
		l.Width = math.Max(l.Width, measure(line))
	}
	l.Height = float64(len(l.Lines)) * l.LineHeight
	return l
}

// metrics returns a width function for s and its line height.
func (m *Measurer) metrics(s css.Style) (func(string) float64, float64) {
	stretch := s.FontStretch
	if stretch <= 0 {
		stretch = 1
	}
	spacing := func(text string) float64 {
		if n := utf8.RuneCountInString(text); n > 1 {
			return float64(n-1) * s.LetterSpacing
		}
		return 0
	}

	face := m.face(s)
	if face == nil {
		return func(text string) float64 {
			return float64(utf8.RuneCountInString(text))*s.FontSize*0.6*stretch + spacing(text)
		}, s.FontSize * lineHeightFactor
	}

	dc := gg.NewContext(1, 1)
	dc.SetFontFace(face)
	_, lineHeight := dc.MeasureString("Mg")
	return func(text string) float64 {
		w, _ := dc.MeasureString(text)
		return w*stretch + spacing(text)
	}, lineHeight
}

// breakIntoLines fills each line with as many words as fit in maxWidth. A
// word wider than maxWidth gets a line of its own.
func breakIntoLines(text string, maxWidth float64, measure func(string) float64) []string {
	if measure(text) <= maxWidth {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{text}
	}

	var lines []string
	current := ""
	for _, word := range words {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if measure(candidate) <= maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

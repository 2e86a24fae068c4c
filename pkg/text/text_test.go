package text

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/engine"
	"vista/pkg/layout"
	"vista/pkg/tree"
)

// estimating returns a measurer whose regular face cannot load, so that
// widths follow the 0.6em-per-rune estimate exactly.
func estimating(t *testing.T, opts ...Option) *Measurer {
	t.Helper()
	missing := filepath.Join(t.TempDir(), "missing.ttf")
	return NewMeasurer(append([]Option{WithFonts(FontConfig{Regular: missing})}, opts...)...)
}

func TestMeasureWithBuiltInFonts(t *testing.T) {
	m := NewMeasurer()
	s := css.DefaultStyle()

	one := m.Measure("the quick brown fox", s, -1, 1)
	require.Len(t, one.Lines, 1)
	assert.Greater(t, one.Width, 0.0)
	assert.Greater(t, one.LineHeight, 0.0)

	wrapped := m.Measure("the quick brown fox", s, one.Width/2, 1)
	assert.Greater(t, len(wrapped.Lines), 1)
	assert.LessOrEqual(t, wrapped.Width, one.Width/2)
	assert.InDelta(t, float64(len(wrapped.Lines))*wrapped.LineHeight, wrapped.Height, 1e-9)

	bold := s
	bold.FontWeight = "bold"
	assert.NotNil(t, m.Face(bold))
}

func TestMeasureEstimatesWithoutAFace(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := estimating(t, WithLogger(zap.New(core)))
	s := css.DefaultStyle()
	s.FontSize = 10

	l := m.Measure("abcd", s, -1, 1)
	assert.InDelta(t, 24.0, l.Width, 1e-9)
	assert.InDelta(t, 12.0, l.Height, 1e-9)
	assert.Equal(t, 1, logs.FilterMessage("font unavailable, estimating text size").Len())

	s.LetterSpacing = 2
	assert.InDelta(t, 30.0, m.Measure("abcd", s, -1, 1).Width, 1e-9)

	s.LetterSpacing = 0
	s.FontStretch = 0.5
	assert.InDelta(t, 12.0, m.Measure("abcd", s, -1, 1).Width, 1e-9)
}

func TestNewlinesAlwaysBreak(t *testing.T) {
	m := estimating(t)
	l := m.Measure("one\ntwo three", css.DefaultStyle(), -1, 2)
	assert.Equal(t, []string{"one", "two three"}, l.Lines)
	assert.InDelta(t, 2*2*14*lineHeightFactor, l.Height, 1e-9)
}

func TestLongWordsGetTheirOwnLine(t *testing.T) {
	m := estimating(t)
	l := m.Measure("a extraordinarily b", css.DefaultStyle(), 20, 1)
	assert.Equal(t, []string{"a", "extraordinarily", "b"}, l.Lines)
}

func TestLayoutsAreCached(t *testing.T) {
	m := estimating(t)
	m.Measure("cached", css.DefaultStyle(), 100, 1)
	m.Measure("cached", css.DefaultStyle(), 100, 1)
	assert.Equal(t, 1, m.CachedLayouts())
	m.Measure("cached", css.DefaultStyle(), 50, 1)
	assert.Equal(t, 2, m.CachedLayouts())
	m.Prune()
	assert.Equal(t, 2, m.CachedLayouts(), "nothing has expired yet")
}

func TestFontConfigFromDir(t *testing.T) {
	assert.Equal(t, FontConfig{}, FontConfigFromDir(""))
	assert.Equal(t, FontConfig{}, FontConfigFromDir(t.TempDir()))

	cfg := FontConfig{Bold: "b.ttf", Monospace: "m.ttf"}
	assert.Equal(t, "b.ttf", cfg.path(boldItalic))
	assert.Equal(t, "m.ttf", cfg.path(monoBold))
	assert.Equal(t, "", cfg.path(regular))

	s := css.DefaultStyle()
	s.FontFamily = "Go Mono"
	s.FontWeight = "bold"
	assert.Equal(t, monoBold, variantOf(s))
}

func textNode(t *testing.T, parentWidth float64, text string) (*tree.Node, *Content) {
	t.Helper()
	n := tree.NewNode(Type, []tree.Attr{tree.A(AttrText, text)})
	parent := tree.NewNode("Component", []tree.Attr{tree.A("width", parentWidth), tree.A("height", 100)}, n)
	boxmodel.New(parent)
	boxmodel.New(n)
	c := Attach(n, estimating(t))
	t.Cleanup(c.Close)
	return n, c
}

func TestContentWritesIdealSize(t *testing.T) {
	n, c := textNode(t, 60, "hello world")

	assert.Equal(t, 93.0, n.Value(boxmodel.AttrIdealWidth).AsNumber(), "11 runes at 8.4px, rounded up")
	assert.Equal(t, 34.0, n.Value(boxmodel.AttrIdealHeight).AsNumber(), "two lines fit in 60px")
	assert.Equal(t, 17.0, c.HeightForWidth(1000))

	measurer, ok := tree.Lookup[layout.ContentMeasurer](n)
	require.True(t, ok)
	assert.Equal(t, 34.0, measurer.HeightForWidth(50))
}

func TestContentFollowsTextAndStyle(t *testing.T) {
	n, c := textNode(t, 1000, "hello")
	before := n.Value(boxmodel.AttrIdealWidth).AsNumber()

	n.SetAny(AttrText, "hello world")
	widened := n.Value(boxmodel.AttrIdealWidth).AsNumber()
	assert.Greater(t, widened, before)

	s := css.DefaultStyle()
	s.FontSize = 28
	c.ApplyStyle(s)
	assert.Greater(t, n.Value(boxmodel.AttrIdealWidth).AsNumber(), widened)
	assert.Equal(t, 34.0, n.Value(boxmodel.AttrIdealHeight).AsNumber(), "one line of 33.6px")
}

func TestWordWrapNone(t *testing.T) {
	n, c := textNode(t, 60, "hello world")
	assert.Equal(t, "by-word", n.Value(AttrWordWrap).AsString())

	n.SetAny(AttrWordWrap, "none")
	assert.Equal(t, 17.0, c.HeightForWidth(10))
	assert.Equal(t, 17.0, n.Value(boxmodel.AttrIdealHeight).AsNumber())
}

func TestNestedTextIsAppended(t *testing.T) {
	n, c := textNode(t, 1000, "hello")
	n.AppendChild(tree.NewNode(Type, []tree.Attr{tree.A(AttrText, " there")}))
	assert.Equal(t, "hello there", c.Text())

	n.Child(0).SetAny(AttrText, " you")
	assert.Equal(t, "hello you", c.Text())
	assert.Equal(t, 76.0, n.Value(boxmodel.AttrIdealWidth).AsNumber(), "9 runes at 8.4px")
}

func TestDecoratesThroughTheEngine(t *testing.T) {
	m := estimating(t)
	label := tree.NewNode(Type, []tree.Attr{tree.A(AttrText, "hello world")})
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 60), tree.A("height", 200), tree.A("style", `{"font-size": 10}`),
	}, label)
	v := engine.New(engine.WithContent(Type, m.Decorate)).Interpret(root)
	t.Cleanup(v.Close)

	c, ok := Of(label)
	require.True(t, ok)
	assert.Equal(t, 10.0, c.Style().FontSize)
	assert.Equal(t, 24.0, v.Bounds(label).Height, "two lines of 12px")
}

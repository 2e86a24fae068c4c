package css

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vista/pkg/kinetics"
	"vista/pkg/tree"
)

var (
	red   = Color{255, 0, 0, 1}
	green = Color{0, 128, 0, 1}
	blue  = Color{0, 0, 255, 1}
)

// sheets attaches a style sheet to every node of root, parents first.
func sheets(root *tree.Node, opts ...StyleSheetOption) map[*tree.Node]*StyleSheet {
	out := make(map[*tree.Node]*StyleSheet)
	root.Walk(func(n *tree.Node) bool {
		out[n] = NewStyleSheet(n, opts...)
		return true
	})
	return out
}

func TestIDBeatsClassBeatsType(t *testing.T) {
	for _, style := range []string{
		`{"#ok": {"background": "red"}, ".primary": {"background": "green"}, "Button": {"background": "blue"}}`,
		`{"Button": {"background": "blue"}, ".primary": {"background": "green"}, "#ok": {"background": "red"}}`,
	} {
		n := tree.NewNode("Button", []tree.Attr{
			tree.A("id", "ok"),
			tree.A("class", "large primary"),
			tree.A("style", style),
		})
		sheet := NewStyleSheet(n)
		assert.Equal(t, red, sheet.Style().Background.Color, style)

		n.SetAny("id", "cancel")
		assert.Equal(t, green, sheet.Style().Background.Color, style)

		n.SetAny("class", "large")
		assert.Equal(t, blue, sheet.Style().Background.Color, style)
	}
}

func TestEqualApplicabilityGoesToTheLastDeclared(t *testing.T) {
	n := tree.NewNode("Button", []tree.Attr{
		tree.A("class", "a b"),
		tree.A("style", `{".a": {"background": "red"}, ".b": {"background": "blue"}}`),
	})
	assert.Equal(t, blue, NewStyleSheet(n).Style().Background.Color)
}

func TestNearerAncestorTypeWins(t *testing.T) {
	leaf := tree.NewNode("Label", nil)
	middle := tree.NewNode("Panel", []tree.Attr{tree.A("style", `{"Label": {"foreground": "blue"}}`)}, leaf)
	root := tree.NewNode("Window", []tree.Attr{tree.A("style", `{"Label": {"foreground": "red", "background": "green"}}`)}, middle)

	s := sheets(root)
	assert.Equal(t, blue, s[leaf].Style().Foreground.Color)
	assert.Equal(t, green, s[leaf].Style().Background.Color, "farther ancestors still apply")
	assert.True(t, s[middle].Style().Foreground.IsEmpty(), "type rules do not match other types")
}

func TestOwnRulesBeatAncestorTypeRules(t *testing.T) {
	leaf := tree.NewNode("Label", []tree.Attr{tree.A("style", `{"foreground": "green"}`)})
	root := tree.NewNode("Window", []tree.Attr{tree.A("style", `{"Label": {"foreground": "red"}}`)}, leaf)
	s := sheets(root)
	assert.Equal(t, green, s[leaf].Style().Foreground.Color)
}

func TestInteractionStates(t *testing.T) {
	n := tree.NewNode("Button", []tree.Attr{tree.A("style", `{
		"background": "grey",
		"hover": {"background": "red", "checked": {"background": "#ff00ff"}},
		"active": {"background": "green"},
		"disabled": {"background": "black"}
	}`)})
	sheet := NewStyleSheet(n)
	bg := func() Color { return sheet.Style().Background.Color }

	assert.Equal(t, Color{128, 128, 128, 1}, bg())

	n.SetAny("mouse", "hover")
	assert.Equal(t, red, bg())

	n.SetAny("toggled", true)
	assert.Equal(t, Color{255, 0, 255, 1}, bg(), "hover and checked compose")

	n.SetAny("mouse", "active")
	assert.Equal(t, green, bg())

	n.SetAny("enabled", false)
	assert.Equal(t, Black, bg(), "disabled outranks mouse state")

	n.SetAny("enabled", true)
	n.SetAny("mouse", "none")
	assert.Equal(t, Color{128, 128, 128, 1}, bg())
}

func TestHierarchicalPropertiesInherit(t *testing.T) {
	leaf := tree.NewNode("Label", nil)
	root := tree.NewNode("Window", []tree.Attr{tree.A("style", `{
		"foreground": "white",
		"background": "navy",
		"font-size": 20,
		"font-weight": "bold",
		"font-family": "serif"
	}`)}, leaf)
	s := sheets(root)

	got := s[leaf].Style()
	assert.Equal(t, White, got.Foreground.Color)
	assert.Equal(t, 20.0, got.FontSize)
	assert.True(t, got.IsBold())
	assert.Equal(t, "serif", got.FontFamily)
	assert.True(t, got.Background.IsEmpty(), "background does not inherit")
	assert.Equal(t, 1.0, got.FontStretch)

	StyleObject(root).Set("font-size", tree.Number(30))
	assert.Equal(t, 30.0, s[leaf].Style().FontSize, "changes cascade to the subtree")
}

func TestDefaults(t *testing.T) {
	sheet := NewStyleSheet(tree.NewNode("Label", nil))
	assert.True(t, sheet.Style().Equal(DefaultStyle()))
	assert.Equal(t, "sans-serif", sheet.Style().FontFamily)
	assert.Equal(t, 14.0, sheet.Style().FontSize)
}

func TestAncestorRulesUseTheNodesOwnState(t *testing.T) {
	leaf := tree.NewNode("Label", nil)
	root := tree.NewNode("Window", []tree.Attr{tree.A("style", `{
		"Label": {"foreground": "red", "focus": {"foreground": "blue"}}
	}`)}, leaf)
	s := sheets(root)
	assert.Equal(t, red, s[leaf].Style().Foreground.Color)

	root.SetAny("keyboard", "focus")
	assert.Equal(t, red, s[leaf].Style().Foreground.Color)

	leaf.SetAny("keyboard", "focus")
	assert.Equal(t, blue, s[leaf].Style().Foreground.Color)
}

func TestReplacingAndEditingTheStyle(t *testing.T) {
	n := tree.NewNode("Button", []tree.Attr{tree.A("style", `{"background": "red"}`)})
	sheet := NewStyleSheet(n)
	require.NotNil(t, n.Value("style").AsObject(), "JSON text is stored back as an object")
	assert.Equal(t, red, sheet.Style().Background.Color)

	n.SetAny("style", `{"background": "blue", ".x": {"background": "green"}}`)
	assert.Equal(t, blue, sheet.Style().Background.Color)

	n.SetAny("class", "x")
	assert.Equal(t, green, sheet.Style().Background.Color)

	nested := StyleObject(n).Value(".x").AsObject()
	nested.Set("background", tree.String("red"))
	assert.Equal(t, red, sheet.Style().Background.Color, "nested edits re-resolve")
}

func TestReparentingReresolves(t *testing.T) {
	leaf := tree.NewNode("Label", nil)
	a := tree.NewNode("Panel", []tree.Attr{tree.A("style", `{"foreground": "red"}`)})
	b := tree.NewNode("Panel", []tree.Attr{tree.A("style", `{"foreground": "blue"}`)})
	root := tree.NewNode("Window", nil, a, b)
	sheets(root)
	leafSheet := NewStyleSheet(leaf)

	a.AppendChild(leaf)
	assert.Equal(t, red, leafSheet.Style().Foreground.Color)
	b.AppendChild(leaf)
	assert.Equal(t, blue, leafSheet.Style().Foreground.Color)
}

func TestMalformedStyleIsLoggedAndIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := tree.NewNode("Button", []tree.Attr{tree.A("style", `{"background": `)})
	sheet := NewStyleSheet(n, WithLogger(zap.New(core)))

	assert.True(t, sheet.Style().Equal(DefaultStyle()))
	assert.Equal(t, 1, logs.FilterMessage("ignoring malformed style").Len())
}

type recordingPainter struct {
	styles []Style
}

func (p *recordingPainter) ApplyStyle(s Style) { p.styles = append(p.styles, s) }

func TestPainterReceivesResolvedStyles(t *testing.T) {
	n := tree.NewNode("Button", []tree.Attr{tree.A("style", `{"background": "red", "hover": {"background": "blue"}}`)})
	painter := &recordingPainter{}
	tree.Attach[Painter](n, painter)

	NewStyleSheet(n)
	require.NotEmpty(t, painter.styles)
	assert.Equal(t, red, painter.styles[len(painter.styles)-1].Background.Color)

	n.SetAny("mouse", "hover")
	assert.Equal(t, blue, painter.styles[len(painter.styles)-1].Background.Color)
}

func TestCloseStopsResolution(t *testing.T) {
	n := tree.NewNode("Button", []tree.Attr{tree.A("style", `{"background": "red", "hover": {"background": "blue"}}`)})
	sheet := NewStyleSheet(n)
	sheet.Close()

	n.SetAny("mouse", "hover")
	assert.Equal(t, red, sheet.Style().Background.Color)
	_, ok := tree.Lookup[*StyleSheet](n)
	assert.False(t, ok)
}

func TestCalculatedPropertiesTransition(t *testing.T) {
	clock := kinetics.NewManualClock(time.Unix(0, 0))
	reg := kinetics.NewRegistry(kinetics.WithClock(clock))
	RegisterInterpolators(reg.Interpolators())

	n := tree.NewNode("Button", []tree.Attr{tree.A("style", `{
		"background": "black",
		"font-size": 10,
		"transition": "background 1s, font-size 2s",
		"hover": {"background": "white", "font-size": 20}
	}`)})
	sheet := NewStyleSheet(n, WithRegistry(reg))
	assert.Equal(t, Black, sheet.Style().Background.Color, "no animation on first resolution")
	assert.Equal(t, 10.0, sheet.Style().FontSize)

	n.SetAny("mouse", "hover")
	assert.Equal(t, Black, sheet.Style().Background.Color)
	assert.Equal(t, 10.0, sheet.Style().FontSize)

	clock.Advance(500 * time.Millisecond)
	reg.Tick()
	assert.Equal(t, Color{128, 128, 128, 1}, sheet.Style().Background.Color)
	assert.InDelta(t, 12.5, sheet.Style().FontSize, 1e-9)

	clock.Advance(600 * time.Millisecond)
	reg.Tick()
	assert.Equal(t, White, sheet.Style().Background.Color)
	assert.InDelta(t, 15.5, sheet.Style().FontSize, 1e-9)

	clock.Advance(time.Second)
	assert.Equal(t, 0, reg.Tick())
	assert.Equal(t, 20.0, sheet.Style().FontSize)

	assert.True(t, StyleObject(n).Has("calculated-background"))
}

func TestNoTransitionWithoutRegistry(t *testing.T) {
	n := tree.NewNode("Button", []tree.Attr{tree.A("style", `{
		"background": "black",
		"transition": "background 1s",
		"hover": {"background": "white"}
	}`)})
	sheet := NewStyleSheet(n)
	n.SetAny("mouse", "hover")
	assert.Equal(t, White, sheet.Style().Background.Color)
	assert.False(t, StyleObject(n).Has("calculated-background"))
}

package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/kinetics"
	"vista/pkg/layout"
	"vista/pkg/tree"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sized(w, h float64, attrs ...tree.Attr) *tree.Node {
	return tree.NewNode("Component", append([]tree.Attr{tree.A("width", w), tree.A("height", h)}, attrs...))
}

func interpret(t *testing.T, root *tree.Node, opts ...Option) *View {
	t.Helper()
	e := New(append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	v := e.Interpret(root)
	t.Cleanup(v.Close)
	return v
}

type fixedMeasurer struct{ height float64 }

func (m fixedMeasurer) HeightForWidth(float64) float64 { return m.height }

func TestInterpretLaysOutNestedContainers(t *testing.T) {
	a, b := sized(20, 30), sized(20, 30)
	panel := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 200), tree.A("height", 100), tree.A("padding", 5), tree.A("flex-direction", "row"),
	}, a, b)
	root := tree.NewNode(WindowType, []tree.Attr{tree.A("padding", 10)}, panel)
	v := interpret(t, root, WithViewport(400, 300))

	assert.Equal(t, geom.NewRect(0, 0, 400, 300), v.AbsoluteBounds(root))
	assert.Equal(t, geom.NewRect(10, 10, 200, 100), v.Bounds(panel))
	assert.Equal(t, geom.NewRect(5, 5, 20, 30), v.Bounds(a))
	assert.Equal(t, geom.NewRect(35, 15, 20, 30), v.AbsoluteBounds(b))

	for _, n := range []*tree.Node{root, panel, a, b} {
		_, ok := layout.Of(n)
		assert.True(t, ok, "%s has a container", n.Type())
		_, ok = tree.Lookup[*css.StyleSheet](n)
		assert.True(t, ok, "%s has a style sheet", n.Type())
	}
}

func TestViewportOnlyAppliesToWindows(t *testing.T) {
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 50), tree.A("height", 60)})
	v := interpret(t, root, WithViewport(400, 300))
	assert.Equal(t, geom.Size{Width: 50, Height: 60}, v.Bounds(root).Size())

	win := tree.NewNode(WindowType, []tree.Attr{tree.A("width", 120)})
	v = interpret(t, win, WithViewport(400, 300))
	assert.Equal(t, geom.Size{Width: 120, Height: 300}, v.Bounds(win).Size(), "declared sizes win over the viewport")
}

func TestContentNodesAreMeasuredNotContained(t *testing.T) {
	calls := 0
	measure := func(n *tree.Node) {
		calls++
		tree.Attach[layout.ContentMeasurer](n, fixedMeasurer{height: 20})
		n.SetAny(boxmodel.AttrIdealWidth, 80)
		n.SetAny(boxmodel.AttrIdealHeight, 20)
	}
	label := tree.NewNode("Text", []tree.Attr{tree.A("text", "hello")})
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 200), tree.A("height", 200)}, label)
	v := interpret(t, root, WithContent("Text", measure))

	assert.Equal(t, 1, calls)
	_, contained := layout.Of(label)
	assert.False(t, contained)
	assert.Equal(t, 20.0, v.Bounds(label).Height)
	assert.GreaterOrEqual(t, v.Bounds(label).Width, 80.0)
}

func TestInsertedSubtreesAreDecorated(t *testing.T) {
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 300), tree.A("height", 300)}, sized(10, 40))
	v := interpret(t, root)

	leaf := sized(10, 10)
	panel := tree.NewNode("Component", []tree.Attr{tree.A("flex-direction", "row")}, leaf, sized(15, 5))
	root.AppendChild(panel)

	_, ok := layout.Of(panel)
	require.True(t, ok)
	_, ok = tree.Lookup[*css.StyleSheet](leaf)
	require.True(t, ok)
	assert.Equal(t, 25.0, panel.Value(boxmodel.AttrIdealWidth).AsNumber())
	assert.Equal(t, 40.0, v.Bounds(panel).Y)
	assert.Equal(t, geom.NewRect(10, 0, 15, 5), v.Bounds(panel.Child(1)))
}

func TestRemovedSubtreesAreUndecorated(t *testing.T) {
	leaf := sized(10, 10)
	panel := tree.NewNode("Component", nil, leaf)
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 100), tree.A("height", 100)}, panel)
	interpret(t, root)

	root.RemoveChild(panel)
	for _, n := range []*tree.Node{panel, leaf} {
		_, ok := boxmodel.Of(n)
		assert.False(t, ok)
		_, ok = tree.Lookup[*css.StyleSheet](n)
		assert.False(t, ok)
	}
	assert.Equal(t, 0.0, root.Value(boxmodel.AttrIdealHeight).AsNumber())
}

func TestResize(t *testing.T) {
	child := tree.NewNode("Component", []tree.Attr{tree.A("width", "50%"), tree.A("height", 10)})
	root := tree.NewNode(WindowType, nil, child)
	v := interpret(t, root, WithViewport(400, 300))
	assert.Equal(t, 200.0, v.Bounds(child).Width)

	v.Resize(500, 400)
	assert.Equal(t, geom.Size{Width: 500, Height: 400}, v.Bounds(root).Size())
	assert.Equal(t, 250.0, v.Bounds(child).Width)
}

func TestStylesResolveThroughTheView(t *testing.T) {
	child := sized(10, 10)
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 100), tree.A("height", 100), tree.A("style", `{"font-size": 20}`),
	}, child)
	v := interpret(t, root)

	assert.Equal(t, 20.0, v.Style(child).FontSize)
	assert.Equal(t, css.DefaultStyle(), v.Style(tree.NewNode("Loose", nil)))
}

func TestTransitionsTickOnTheViewRegistry(t *testing.T) {
	clock := kinetics.NewManualClock(time.Unix(0, 0))
	a := sized(50, 10, tree.A("transition", "flex-grow 1s linear"))
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 300), tree.A("height", 10), tree.A("flex-direction", "row"),
	}, a, sized(50, 10))
	v := interpret(t, root, WithClock(clock))

	a.SetAny("flex-grow", 1)
	assert.Equal(t, 50.0, v.Bounds(a).Width)

	clock.Advance(500 * time.Millisecond)
	v.Tick()
	assert.InDelta(t, 150.0, v.Bounds(a).Width, 1e-6)

	clock.Advance(time.Second)
	v.Tick()
	assert.InDelta(t, 250.0, v.Bounds(a).Width, 1e-6)
	assert.Zero(t, v.Registry().Running())
}

func TestRunStopsWithTheContext(t *testing.T) {
	v := interpret(t, sized(10, 10))
	ctx, cancel := context.WithCancel(context.Background())

	var mu sync.Mutex
	ticks := 0
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		v.Run(ctx, 500, func(fn func()) {
			mu.Lock()
			defer mu.Unlock()
			ticks++
			if ticks == 3 {
				cancel()
			}
		})
	}()
	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, ticks, 3)
}

func TestCloseIsIdempotent(t *testing.T) {
	root := tree.NewNode("Component", nil, sized(10, 10))
	v := New().Interpret(root)
	v.Close()
	v.Close()

	_, ok := boxmodel.Of(root)
	assert.False(t, ok)
	root.AppendChild(sized(5, 5))
	_, ok = boxmodel.Of(root.Child(1))
	assert.False(t, ok, "a closed view stops decorating")
}

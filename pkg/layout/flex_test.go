package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/geom"
	"vista/pkg/kinetics"
	"vista/pkg/tree"
)

func TestFlexJustifyContent(t *testing.T) {
	cases := []struct {
		justify css.Justify
		want    []float64
	}{
		{css.JustifyStart, []float64{0, 50, 100}},
		{css.JustifyEnd, []float64{150, 200, 250}},
		{css.JustifyCentre, []float64{75, 125, 175}},
		{css.JustifySpaceBetween, []float64{0, 125, 250}},
		{css.JustifySpaceAround, []float64{25, 125, 225}},
		{css.JustifySpaceEvenly, []float64{37.5, 125, 212.5}},
	}
	for _, tc := range cases {
		flex := FlexBox{Direction: css.Row, JustifyContent: tc.justify, AlignItems: css.AlignStretch,
			Items: []*Item{item(50, Unset), item(50, Unset), item(50, Unset)}}
		flex.PerformLayout(geom.NewRect(0, 0, 300, 100))
		for i, it := range flex.Items {
			assert.InDelta(t, tc.want[i], it.Bounds.X, 1e-9, "justify %d item %d", tc.justify, i)
			assert.Equal(t, 100.0, it.Bounds.Height, "stretched to the line")
		}
	}
}

func TestFlexGrow(t *testing.T) {
	a, b := item(100, 10), item(50, 10)
	a.FlexGrow, b.FlexGrow = 1, 2
	flex := FlexBox{Direction: css.Row, Items: []*Item{a, b}}
	flex.PerformLayout(geom.NewRect(0, 0, 300, 10))

	assert.Equal(t, geom.NewRect(0, 0, 150, 10), a.Bounds)
	assert.Equal(t, geom.NewRect(150, 0, 150, 10), b.Bounds)
}

func TestFlexGrowFactorsBelowOne(t *testing.T) {
	a := item(50, 10)
	a.FlexGrow = 0.5
	flex := FlexBox{Direction: css.Row, Items: []*Item{a, item(50, 10)}}
	flex.PerformLayout(geom.NewRect(0, 0, 300, 10))

	assert.Equal(t, 150.0, a.Bounds.Width, "only half the free space is shared")
}

func TestFlexShrinkFreezesAtMinimum(t *testing.T) {
	a, b := item(100, 10), item(100, 10)
	a.MinWidth = 80
	flex := FlexBox{Direction: css.Row, Items: []*Item{a, b}}
	flex.PerformLayout(geom.NewRect(0, 0, 100, 10))

	assert.Equal(t, 80.0, a.Bounds.Width)
	assert.Equal(t, 20.0, b.Bounds.Width)
	assert.Equal(t, 80.0, b.Bounds.X)
}

func TestFlexBasis(t *testing.T) {
	a := item(10, 10)
	a.FlexBasis = 70
	flex := FlexBox{Direction: css.Row, Items: []*Item{a, item(10, 10)}}
	flex.PerformLayout(geom.NewRect(0, 0, 300, 10))

	assert.Equal(t, 70.0, a.Bounds.Width)
	assert.Equal(t, 70.0, flex.Items[1].Bounds.X)
}

func TestFlexOrder(t *testing.T) {
	a, b := item(10, 10), item(20, 10)
	a.Order = 2
	b.Order = 1
	flex := FlexBox{Direction: css.Row, Items: []*Item{a, b}}
	flex.PerformLayout(geom.NewRect(0, 0, 100, 10))

	assert.Equal(t, 0.0, b.Bounds.X)
	assert.Equal(t, 20.0, a.Bounds.X)
}

func TestFlexWrapAndAlignContent(t *testing.T) {
	items := []*Item{item(40, 20), item(40, 20), item(40, 20)}
	flex := FlexBox{Direction: css.Row, Wrap: css.Wrap, AlignItems: css.AlignStart,
		AlignContent: css.JustifyStretch, Items: items}
	flex.PerformLayout(geom.NewRect(0, 0, 100, 100))

	assert.Equal(t, geom.NewRect(0, 0, 40, 20), items[0].Bounds)
	assert.Equal(t, geom.NewRect(40, 0, 40, 20), items[1].Bounds)
	assert.Equal(t, geom.NewRect(0, 50, 40, 20), items[2].Bounds, "each line takes half of the free space")

	flex.AlignContent = css.JustifyEnd
	flex.PerformLayout(geom.NewRect(0, 0, 100, 100))
	assert.Equal(t, 60.0, items[0].Bounds.Y)
	assert.Equal(t, 80.0, items[2].Bounds.Y)

	flex.Wrap = css.WrapReverse
	flex.AlignContent = css.JustifyStart
	flex.PerformLayout(geom.NewRect(0, 0, 100, 100))
	assert.Equal(t, 80.0, items[0].Bounds.Y)
	assert.Equal(t, 60.0, items[2].Bounds.Y)
}

func TestFlexColumnReverse(t *testing.T) {
	a, b := item(10, 50), item(10, 100)
	flex := FlexBox{Direction: css.ColumnReverse, Items: []*Item{a, b}}
	flex.PerformLayout(geom.NewRect(5, 5, 100, 300))

	assert.Equal(t, 255.0, a.Bounds.Y)
	assert.Equal(t, 155.0, b.Bounds.Y)
	assert.Equal(t, 5.0, a.Bounds.X)
}

func TestFlexAlignSelf(t *testing.T) {
	a, b, c := item(10, 10), item(10, 10), item(10, Unset)
	a.AlignSelf = css.AlignEnd
	b.AlignSelf = css.AlignCentre
	c.Margin = css.BoxEdge{Top: 5, Bottom: 5}
	flex := FlexBox{Direction: css.Row, AlignItems: css.AlignStretch, Items: []*Item{a, b, c}}
	flex.PerformLayout(geom.NewRect(0, 0, 100, 50))

	assert.Equal(t, 40.0, a.Bounds.Y)
	assert.Equal(t, 20.0, b.Bounds.Y)
	assert.Equal(t, geom.NewRect(20, 5, 10, 40), c.Bounds)
}

func TestDistributeOverflow(t *testing.T) {
	offset, gap := distribute(css.JustifySpaceBetween, -30, 3)
	assert.Equal(t, 0.0, offset)
	assert.Equal(t, 0.0, gap)

	offset, gap = distribute(css.JustifySpaceEvenly, -30, 3)
	assert.Equal(t, -15.0, offset)
	assert.Equal(t, 0.0, gap)
}

func TestFlexContainerIdealSize(t *testing.T) {
	first := sized(43, 84)
	second := sized(37, 99, tree.A("margin", 5))
	inner := tree.NewNode("Component", []tree.Attr{tree.A("display", "flex")}, first, second)
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 222), tree.A("height", 333)}, inner)
	decorate(t, root)

	assert.Equal(t, 47.0, inner.Value(boxmodel.AttrIdealWidth).AsNumber())
	assert.Equal(t, 193.0, inner.Value(boxmodel.AttrIdealHeight).AsNumber())
	assert.Equal(t, geom.NewRect(0, 0, 222, 193), boundsOf(t, inner), "stretched across the column")
	assert.Equal(t, geom.NewRect(0, 0, 43, 84), boundsOf(t, first))
	assert.Equal(t, geom.NewRect(5, 89, 37, 99), boundsOf(t, second))

	inner.SetAny("flex-direction", "row")
	assert.Equal(t, 90.0, inner.Value(boxmodel.AttrIdealWidth).AsNumber())
	assert.Equal(t, 109.0, inner.Value(boxmodel.AttrIdealHeight).AsNumber())
	assert.Equal(t, geom.NewRect(0, 0, 222, 109), boundsOf(t, inner))
	assert.Equal(t, geom.NewRect(48, 5, 37, 99), boundsOf(t, second))
}

func TestFlexContainerDefaults(t *testing.T) {
	child := sized(10, 10)
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 100), tree.A("height", 100)}, child)
	decorate(t, root)

	c, ok := Of(root)
	require.True(t, ok)
	assert.Equal(t, css.DisplayFlex, c.Display())
	assert.Equal(t, "column", root.Value(AttrFlexDirection).AsString())
	assert.Equal(t, 1.0, child.Value(AttrFlexShrink).AsNumber())
	assert.Equal(t, Settled, c.State())
}

func TestFlexContainerPadding(t *testing.T) {
	child := sized(50, 50)
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 200), tree.A("height", 200), tree.A("padding", "10 20 30 40"),
	}, child)
	decorate(t, root)

	assert.Equal(t, geom.NewRect(40, 10, 50, 50), boundsOf(t, child))
}

func TestFlexContainerRespondsToItemAttributes(t *testing.T) {
	a, b := sized(50, 10), sized(50, 10)
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 300), tree.A("height", 10), tree.A("flex-direction", "row"),
	}, a, b)
	decorate(t, root)
	assert.Equal(t, 50.0, boundsOf(t, b).X)

	a.SetAny("flex-grow", 1)
	assert.Equal(t, 250.0, boundsOf(t, a).Width)
	assert.Equal(t, 250.0, boundsOf(t, b).X)

	b.SetAny("order", -1)
	assert.Equal(t, 0.0, boundsOf(t, b).X)
	assert.Equal(t, 50.0, boundsOf(t, a).X)

	root.SetAny("justify-content", "flex-end")
	a.SetAny("flex-grow", 0)
	assert.Equal(t, 200.0, boundsOf(t, b).X)
}

func TestFlexContainerStructuralChanges(t *testing.T) {
	first := sized(20, 30)
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 100), tree.A("height", 200)}, first)
	decorate(t, root)

	second := sized(20, 40)
	root.AppendChild(second)
	_, ok := boxmodel.Of(second)
	require.True(t, ok, "adopted children get a box model")
	assert.Equal(t, 30.0, boundsOf(t, second).Y)
	assert.Equal(t, 70.0, root.Value(boxmodel.AttrIdealHeight).AsNumber())

	root.RemoveChild(first)
	assert.Equal(t, 0.0, boundsOf(t, second).Y)
	assert.Equal(t, 40.0, root.Value(boxmodel.AttrIdealHeight).AsNumber())
}

func TestFlexGrowTransition(t *testing.T) {
	clock := kinetics.NewManualClock(time.Unix(0, 0))
	reg := kinetics.NewRegistry(kinetics.WithClock(clock))
	t.Cleanup(reg.Close)

	a := sized(50, 10, tree.A("transition", "flex-grow 1s linear"))
	b := sized(50, 10)
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 300), tree.A("height", 10), tree.A("flex-direction", "row"),
	}, a, b)
	decorate(t, root, WithRegistry(reg))

	a.SetAny("flex-grow", 1)
	assert.Equal(t, 50.0, boundsOf(t, a).Width, "the transition starts from the old value")

	clock.Advance(500 * time.Millisecond)
	reg.Tick()
	assert.InDelta(t, 150.0, boundsOf(t, a).Width, 1e-6)

	clock.Advance(500 * time.Millisecond)
	reg.Tick()
	assert.InDelta(t, 250.0, boundsOf(t, a).Width, 1e-6)
}

func TestLayoutRepeatsUntilIdealSizesSettle(t *testing.T) {
	child := tree.NewNode("Component", nil)
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 300), tree.A("height", 100), tree.A("flex-direction", "row"),
	}, child)
	child.SetAny(boxmodel.AttrIdealWidth, 10)

	settled := 30.0
	child.OnPropertyChanged(func(source *tree.Node, name string) {
		if source != child || name != boxmodel.AttrComponentWidth {
			return
		}
		if w := child.Value(name).AsNumber(); w < settled {
			child.SetAny(boxmodel.AttrIdealWidth, w+10)
		}
	})
	decorate(t, root)

	assert.Equal(t, settled, boundsOf(t, child).Width)
}

func TestLayoutWarnsWhenItDoesNotConverge(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	child := tree.NewNode("Component", nil)
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 300), tree.A("height", 100), tree.A("flex-direction", "row"),
	}, child)
	child.SetAny(boxmodel.AttrIdealWidth, 10)

	child.OnPropertyChanged(func(source *tree.Node, name string) {
		if source == child && name == boxmodel.AttrComponentWidth {
			child.SetAny(boxmodel.AttrIdealWidth, child.Value(name).AsNumber()+1)
		}
	})
	decorate(t, root, WithLogger(zap.New(core)), WithMaxPasses(4))

	entries := logs.FilterMessage("layout did not converge").All()
	require.NotEmpty(t, entries)
	assert.Equal(t, int64(4), entries[0].ContextMap()["passes"])
}

func TestDummyPassMatchesRealPassWithRoom(t *testing.T) {
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 500), tree.A("height", 500)},
		sized(40, 30, tree.A("margin", 2)),
		sized(60, 20),
		sized(10, 10, tree.A("margin", "1 2 3 4")),
	)
	root.SetAny("align-items", "flex-start")
	decorate(t, root)

	c, _ := Of(root)
	dummy, real := c.Items(Dummy), c.Items(Real)
	require.Len(t, real, len(dummy))
	for i := range dummy {
		assert.Equal(t, dummy[i].Bounds, real[i].Bounds, "item %d", i)
		assert.Nil(t, dummy[i].Node())
		assert.NotNil(t, real[i].Node())
	}
}

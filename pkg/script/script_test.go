package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"vista/pkg/engine"
	"vista/pkg/kinetics"
	"vista/pkg/tree"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sample() *tree.Node {
	button := tree.NewNode("Button", []tree.Attr{
		tree.A("id", "ok"), tree.A("width", 40), tree.A("height", 20),
		tree.A("style", `{"background": "red", "hover": {"background": "blue"}}`),
	})
	return tree.NewNode("Component", []tree.Attr{
		tree.A("id", "root"), tree.A("width", 200), tree.A("height", 100), tree.A("padding", 10),
		tree.A("align-items", "flex-start"),
	}, button)
}

func drive(t *testing.T, root *tree.Node, opts ...engine.Option) (*Driver, *engine.View) {
	t.Helper()
	v := engine.New(opts...).Interpret(root)
	t.Cleanup(v.Close)
	return New(v), v
}

func TestFindAndRead(t *testing.T) {
	d, _ := drive(t, sample())
	require.NoError(t, d.Run("read.js", `
		var ok = view.find("ok");
		if (ok === null) throw new Error("button not found");
		if (ok.type !== "Button") throw new Error("wrong type: " + ok.type);
		if (ok.width !== 40) throw new Error("wrong width: " + ok.width);
		if (ok.parent !== view.root) throw new Error("parent identity lost");
		if (view.root.children[0] !== ok) throw new Error("child identity lost");
		if (view.find("missing") !== null) throw new Error("expected null");
		if (ok.nothing !== undefined) throw new Error("expected undefined");
	`))
}

func TestAttributeWritesRelayout(t *testing.T) {
	root := sample()
	d, v := drive(t, root)
	button := root.Child(0)

	require.NoError(t, d.Run("write.js", `
		var ok = view.find("ok");
		ok.width = 60;
		ok.set("height", 30);
	`))
	assert.Equal(t, 60.0, v.Bounds(button).Width)
	assert.Equal(t, 30.0, v.Bounds(button).Height)

	require.NoError(t, d.Run("bounds.js", `
		var b = view.find("ok").absoluteBounds;
		if (b.x !== 10 || b.y !== 10) throw new Error("wrong origin: " + b.x + "," + b.y);
		delete view.find("ok").height;
		if (view.find("ok").has("height")) throw new Error("height kept");
	`))
}

func TestInteractionRestyles(t *testing.T) {
	root := sample()
	d, v := drive(t, root)
	button := root.Child(0)

	require.NoError(t, d.Run("hover.js", `
		var ok = view.find("ok");
		if (ok.computedStyle.background !== "#ff0000") throw new Error(ok.computedStyle.background);
		ok.hover();
		if (ok.computedStyle.background !== "#0000ff") throw new Error(ok.computedStyle.background);
		ok.leave();
		if (ok.toggle() !== true) throw new Error("toggle should switch on");
		ok.disable();
	`))
	assert.Equal(t, "none", button.Value("mouse").AsString())
	assert.True(t, button.Value("toggled").AsBool())
	assert.False(t, button.Value("enabled").AsBool())
	assert.Equal(t, "#ff0000", v.Style(button).Background.String())
}

func TestStyleObjectsAreStoredAsObjects(t *testing.T) {
	root := sample()
	d, v := drive(t, root)
	button := root.Child(0)

	require.NoError(t, d.Run("style.js", `view.find("ok").style = {"background": "#00ff00", "font-size": 18};`))
	style := button.Value("style").AsObject()
	require.NotNil(t, style)
	assert.Equal(t, []string{"background", "font-size"}, style.Keys()[:2])
	assert.Equal(t, 18.0, v.Style(button).FontSize)
}

func TestCreateAppendAndRemove(t *testing.T) {
	root := sample()
	d, v := drive(t, root)

	require.NoError(t, d.Run("tree.js", `
		var extra = view.create("Component", {id: "extra", width: 30, height: 15});
		view.root.appendChild(extra);
		if (view.find("extra") !== extra) throw new Error("not attached");
	`))
	extra := root.FindByID("extra")
	require.NotNil(t, extra)
	assert.Equal(t, 15.0, v.Bounds(extra).Height, "inserted nodes are laid out")

	require.NoError(t, d.Run("remove.js", `view.root.removeChild(view.find("extra"));`))
	assert.Nil(t, root.FindByID("extra"))

	err := d.Run("cycle.js", `view.find("ok").appendChild(view.root);`)
	assert.ErrorContains(t, err, "cycle")
	err = d.Run("orphan.js", `view.root.removeChild(view.create("Component"));`)
	assert.ErrorContains(t, err, "not a child")
}

func TestHandlersAreStoredAsHandles(t *testing.T) {
	root := sample()
	d, _ := drive(t, root)
	require.NoError(t, d.Run("handler.js", `view.find("ok")["on-click"] = function() { return 1; };`))
	assert.Equal(t, tree.KindHandle, root.Child(0).Value("on-click").Kind())
}

func TestClockAdvanceStepsTransitions(t *testing.T) {
	clock := kinetics.NewManualClock(time.Unix(0, 0))
	a := tree.NewNode("Component", []tree.Attr{
		tree.A("id", "a"), tree.A("width", 50), tree.A("height", 10),
		tree.A("transition", "flex-grow 1s linear"),
	})
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 300), tree.A("height", 10), tree.A("flex-direction", "row"),
	}, a, tree.NewNode("Component", []tree.Attr{tree.A("width", 50), tree.A("height", 10)}))
	v := engine.New(engine.WithClock(clock)).Interpret(root)
	t.Cleanup(v.Close)
	d := New(v, WithClock(clock))

	require.NoError(t, d.Run("animate.js", `
		var a = view.find("a");
		a["flex-grow"] = 1;
		clock.advance(500);
		if (Math.abs(a.bounds.width - 150) > 1e-6) throw new Error("midway width " + a.bounds.width);
		if (clock.now() !== 500) throw new Error("now " + clock.now());
	`))
	assert.InDelta(t, 150.0, v.Bounds(a).Width, 1e-6)
}

func TestClockAdvanceNeedsManualClock(t *testing.T) {
	d, _ := drive(t, sample())
	assert.ErrorContains(t, d.Run("advance.js", `clock.advance(10)`), "manual clock")
}

func TestErrorsCarryTheScriptName(t *testing.T) {
	d, _ := drive(t, sample())
	err := d.Run("broken.js", `throw new Error("boom")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.js")
	assert.Contains(t, err.Error(), "boom")

	assert.Error(t, d.RunFile("does-not-exist.js"))
}

func TestConsoleLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	v := engine.New().Interpret(sample())
	t.Cleanup(v.Close)
	d := New(v, WithLogger(zap.New(core)))

	require.NoError(t, d.Run("console.js", `console.log("width", 40); console.warn("careful");`))
	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "width 40", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "script", entries[1].ContextMap()["source"])
}

package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vista/pkg/css"
	"vista/pkg/engine"
	"vista/pkg/geom"
	"vista/pkg/images"
	"vista/pkg/text"
	"vista/pkg/tree"
)

var (
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	green = color.RGBA{0, 255, 0, 255}
	white = color.RGBA{255, 255, 255, 255}
)

func paint(t *testing.T, root *tree.Node, opts ...engine.Option) image.Image {
	t.Helper()
	m := text.NewMeasurer()
	opts = append(opts,
		engine.WithContent(text.Type, m.Decorate),
		engine.WithContent(images.Type, images.NewLoader().Decorate),
	)
	v := engine.New(opts...).Interpret(root)
	t.Cleanup(v.Close)

	b := v.Bounds(root)
	r := NewRenderer(int(b.Width), int(b.Height), WithMeasurer(m))
	r.Render(v)
	return r.Image()
}

func TestBackgroundsNest(t *testing.T) {
	child := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 20), tree.A("height", 20), tree.A("style", `{"background": "#0000ff"}`),
	})
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 100), tree.A("height", 100), tree.A("padding", 10),
		tree.A("style", `{"background": "#ff0000"}`),
	}, child)
	img := paint(t, root)

	assert.Equal(t, red, img.At(50, 50))
	assert.Equal(t, red, img.At(5, 5), "the background covers the padding")
	assert.Equal(t, blue, img.At(15, 15))
	assert.Equal(t, red, img.At(35, 15))
}

func TestBorderRing(t *testing.T) {
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 100), tree.A("height", 100), tree.A("border-width", 10),
		tree.A("style", `{"border": "#00ff00"}`),
	})
	img := paint(t, root)

	assert.Equal(t, green, img.At(2, 50))
	assert.Equal(t, green, img.At(50, 97))
	assert.Equal(t, white, img.At(50, 50), "the ring leaves the inside alone")
}

func TestGradientBackground(t *testing.T) {
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 100), tree.A("height", 10),
		tree.A("style", `{"background": "linear-gradient(to right, #000000, #ffffff)"}`),
	})
	img := paint(t, root)

	left, _, _, _ := img.At(5, 5).RGBA()
	right, _, _, _ := img.At(95, 5).RGBA()
	assert.Less(t, left, right)
}

func TestGradientLine(t *testing.T) {
	x0, y0, x1, y1, length := gradientLine(90, geom.NewRect(0, 0, 100, 50))
	assert.InDelta(t, 0, x0, 1e-9)
	assert.InDelta(t, 25, y0, 1e-9)
	assert.InDelta(t, 100, x1, 1e-9)
	assert.InDelta(t, 25, y1, 1e-9)
	assert.InDelta(t, 100, length, 1e-9)
}

func TestTextIsPainted(t *testing.T) {
	label := tree.NewNode(text.Type, []tree.Attr{tree.A(text.AttrText, "Hello")})
	root := tree.NewNode("Component", []tree.Attr{
		tree.A("width", 100), tree.A("height", 40), tree.A("style", `{"font-size": 20}`),
	}, label)
	img := paint(t, root)

	inked := 0
	for y := range 40 {
		for x := range 100 {
			if img.At(x, y) != color.Color(white) {
				inked++
			}
		}
	}
	assert.Greater(t, inked, 0)
}

func TestImagesAreScaledIntoTheContentBox(t *testing.T) {
	small := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			small.Set(x, y, red)
		}
	}
	pic := tree.NewNode(images.Type, []tree.Attr{
		tree.A(images.AttrSource, small), tree.A(images.AttrPlacement, "fill"),
		tree.A("width", 40), tree.A("height", 40),
	})
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 100), tree.A("height", 100)}, pic)
	img := paint(t, root)

	assert.Equal(t, red, img.At(20, 20))
	assert.Equal(t, white, img.At(60, 60))
}

func TestSaveAndEncode(t *testing.T) {
	root := tree.NewNode("Component", []tree.Attr{tree.A("width", 8), tree.A("height", 8)})
	v := engine.New().Interpret(root)
	t.Cleanup(v.Close)
	r := NewRenderer(8, 8, WithBackground(css.Black))
	r.Render(v)

	var buf bytes.Buffer
	require.NoError(t, r.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 8), decoded.Bounds())

	require.NoError(t, r.SavePNG(filepath.Join(t.TempDir(), "frame.png")))
	assert.Error(t, r.SavePNG(filepath.Join(t.TempDir(), "missing", "frame.png")))
}

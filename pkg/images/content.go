package images

import (
	"image"

	"go.uber.org/zap"

	"vista/pkg/boxmodel"
	"vista/pkg/layout"
	"vista/pkg/tree"
)

// Type is the element type the loader decorates.
const Type = "Image"

// Attributes read by an Image node.
const (
	AttrSource    = "source"
	AttrPlacement = "placement"
)

// Placement says how the picture is fitted into the node's content box.
type Placement int

const (
	// Centred scales the picture to fit, keeping its aspect ratio.
	Centred Placement = iota
	// Stretched fills the box exactly.
	Stretched
	// Unscaled draws the picture at its own size, centred.
	Unscaled
)

// ParsePlacement accepts centred, center, fill, stretch and none.
func ParsePlacement(s string) Placement {
	switch s {
	case "fill", "stretch":
		return Stretched
	case "none", "unscaled":
		return Unscaled
	}
	return Centred
}

// Content is the trait of an Image node.
type Content struct {
	node   *tree.Node
	loader *Loader
	image  image.Image

	unsubscribe tree.Unsubscribe
	closed      bool
}

// Of returns the image content attached to n.
func Of(n *tree.Node) (*Content, bool) {
	return tree.Lookup[*Content](n)
}

// Decorate attaches a Content to n. Its signature fits engine.WithContent.
func (l *Loader) Decorate(n *tree.Node) {
	Attach(n, l)
}

// Attach decorates n and writes its ideal size from its source.
func Attach(n *tree.Node, l *Loader) *Content {
	c := &Content{node: n, loader: l}
	tree.Attach(n, c)
	tree.Attach[layout.ContentMeasurer](n, c)
	c.unsubscribe = n.OnPropertyChanged(func(source *tree.Node, name string) {
		if source == n && name == AttrSource {
			c.update()
		}
	})
	c.update()
	return c
}

// Image is the decoded source, or nil.
func (c *Content) Image() image.Image { return c.image }

func (c *Content) Placement() Placement {
	return ParsePlacement(c.node.Value(AttrPlacement).AsString())
}

// HeightForWidth keeps the picture's aspect ratio.
func (c *Content) HeightForWidth(width float64) float64 {
	if c.image == nil {
		return 0
	}
	b := c.image.Bounds()
	if b.Dx() == 0 {
		return 0
	}
	return width * float64(b.Dy()) / float64(b.Dx())
}

func (c *Content) update() {
	if c.closed {
		return
	}
	c.image = c.resolve()
	var w, h float64
	if c.image != nil {
		w, h = float64(c.image.Bounds().Dx()), float64(c.image.Bounds().Dy())
	}
	c.node.SetAny(boxmodel.AttrIdealWidth, w)
	c.node.SetAny(boxmodel.AttrIdealHeight, h)
}

// resolve accepts an image.Image handle or a path or data URI string.
// Unreadable sources are logged and leave the node empty.
func (c *Content) resolve() image.Image {
	v := c.node.Value(AttrSource)
	if img, ok := v.AsHandle().(image.Image); ok {
		return img
	}
	source := v.AsString()
	if source == "" {
		return nil
	}
	img, err := c.loader.Load(source)
	if err != nil {
		c.loader.log.Warn("image source unavailable", zap.String("source", source), zap.Error(err))
		return nil
	}
	return img
}

func (c *Content) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.unsubscribe()
}

// Package render paints one frame of an interpreted view with gg. It
// reads resolved geometry and style and keeps nothing between frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"go.uber.org/zap"

	"vista/pkg/boxmodel"
	"vista/pkg/css"
	"vista/pkg/engine"
	"vista/pkg/geom"
	"vista/pkg/images"
	"vista/pkg/text"
	"vista/pkg/tree"
)

type Renderer struct {
	context    *gg.Context
	log        *zap.Logger
	background css.Color
	measurer   *text.Measurer
}

type Option func(*Renderer)

func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithBackground is the colour the canvas is cleared to. The default is
// white.
func WithBackground(c css.Color) Option {
	return func(r *Renderer) { r.background = c }
}

// WithMeasurer supplies the faces used for text; it should be the measurer
// that laid the text out.
func WithMeasurer(m *text.Measurer) Option {
	return func(r *Renderer) { r.measurer = m }
}

func NewRenderer(width, height int, opts ...Option) *Renderer {
	r := &Renderer{
		context:    gg.NewContext(width, height),
		log:        zap.NewNop(),
		background: css.White,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.measurer == nil {
		r.measurer = text.NewMeasurer(text.WithLogger(r.log))
	}
	return r
}

// Render clears the canvas and paints every node of v in tree order, so
// children paint over their parents.
func (r *Renderer) Render(v *engine.View) {
	r.context.SetColor(r.background)
	r.context.Clear()

	painted := 0
	v.Root().Walk(func(n *tree.Node) bool {
		box, ok := boxmodel.Of(n)
		if !ok {
			return false
		}
		r.drawNode(n, box, v.AbsoluteBounds(n), v.Style(n))
		painted++
		return true
	})
	r.log.Debug("frame painted", zap.String("view", v.ID.String()), zap.Int("nodes", painted))
}

func (r *Renderer) drawNode(n *tree.Node, box *boxmodel.BoxModel, bounds geom.Rect, style css.Style) {
	if bounds.IsEmpty() {
		return
	}
	border := box.Border()
	inner := geom.NewRect(
		bounds.X+border.Left,
		bounds.Y+border.Top,
		math.Max(0, bounds.Width-border.Horizontal()),
		math.Max(0, bounds.Height-border.Vertical()),
	)
	radii := style.BorderRadius

	if !style.Background.IsEmpty() {
		r.roundedRect(inner, insetRadii(radii, border))
		r.setFill(style.Background, inner)
		r.context.Fill()
	}
	r.drawBorder(bounds, inner, radii, border, style.Border)

	padding := box.Padding()
	content := geom.NewRect(
		inner.X+padding.Left,
		inner.Y+padding.Top,
		math.Max(0, inner.Width-padding.Horizontal()),
		math.Max(0, inner.Height-padding.Vertical()),
	)
	if c, ok := text.Of(n); ok {
		r.drawText(c, content, style)
	}
	if c, ok := images.Of(n); ok {
		r.drawImage(c, content)
	}
}

// drawBorder fills the ring between the border box and the padding box.
func (r *Renderer) drawBorder(outer, inner geom.Rect, radii css.Radii, border css.BoxEdge, fill css.Fill) {
	if fill.IsEmpty() || border == (css.BoxEdge{}) {
		return
	}
	r.context.SetFillRule(gg.FillRuleEvenOdd)
	r.roundedRect(outer, radii)
	r.roundedRect(inner, insetRadii(radii, border))
	r.setFill(fill, outer)
	r.context.Fill()
	r.context.SetFillRule(gg.FillRuleWinding)
}

// roundedRect adds a closed rectangle path with per-corner radii. Corners
// are drawn as quadratic curves.
func (r *Renderer) roundedRect(rect geom.Rect, radii css.Radii) {
	x, y, w, h := rect.X, rect.Y, rect.Width, rect.Height
	limit := math.Min(w, h) / 2
	tl := math.Min(radii.TopLeft, limit)
	tr := math.Min(radii.TopRight, limit)
	br := math.Min(radii.BottomRight, limit)
	bl := math.Min(radii.BottomLeft, limit)

	dc := r.context
	dc.NewSubPath()
	dc.MoveTo(x+tl, y)
	dc.LineTo(x+w-tr, y)
	dc.QuadraticTo(x+w, y, x+w, y+tr)
	dc.LineTo(x+w, y+h-br)
	dc.QuadraticTo(x+w, y+h, x+w-br, y+h)
	dc.LineTo(x+bl, y+h)
	dc.QuadraticTo(x, y+h, x, y+h-bl)
	dc.LineTo(x, y+tl)
	dc.QuadraticTo(x, y, x+tl, y)
	dc.ClosePath()
}

func insetRadii(r css.Radii, e css.BoxEdge) css.Radii {
	shrink := func(v, a, b float64) float64 { return math.Max(0, v-math.Max(a, b)) }
	return css.Radii{
		TopLeft:     shrink(r.TopLeft, e.Top, e.Left),
		TopRight:    shrink(r.TopRight, e.Top, e.Right),
		BottomRight: shrink(r.BottomRight, e.Bottom, e.Right),
		BottomLeft:  shrink(r.BottomLeft, e.Bottom, e.Left),
	}
}

// setFill selects a solid colour or a linear gradient laid over area.
func (r *Renderer) setFill(f css.Fill, area geom.Rect) {
	if f.Gradient == nil {
		r.context.SetColor(f.Color)
		return
	}
	x0, y0, x1, y1, length := gradientLine(f.Gradient.Angle(), area)
	g := gg.NewLinearGradient(x0, y0, x1, y1)
	for _, stop := range f.Gradient.Stops(length) {
		g.AddColorStop(stop.Offset, stop.Color)
	}
	r.context.SetFillStyle(g)
}

// gradientLine returns the endpoints and length of the gradient line for a
// CSS angle, long enough that the corners reach the first and last stops.
func gradientLine(angle float64, area geom.Rect) (x0, y0, x1, y1, length float64) {
	rad := angle * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	length = math.Abs(area.Width*dx) + math.Abs(area.Height*dy)
	cx, cy := area.X+area.Width/2, area.Y+area.Height/2
	return cx - dx*length/2, cy - dy*length/2, cx + dx*length/2, cy + dy*length/2, length
}

// textColour picks a solid colour for glyphs; gradients use their first
// stop and an unset foreground paints black.
func textColour(f css.Fill) color.Color {
	switch {
	case f.Gradient != nil && len(f.Gradient.ColorStops) > 0:
		return f.Gradient.ColorStops[0].Color
	case f.Color.IsTransparent():
		return css.Black
	}
	return f.Color
}

func (r *Renderer) drawText(c *text.Content, content geom.Rect, style css.Style) {
	face := r.measurer.Face(style)
	if face == nil {
		return
	}
	r.context.SetFontFace(face)
	r.context.SetColor(textColour(style.Foreground))

	l := c.Layout(content.Width)
	ascent := float64(face.Metrics().Ascent.Ceil())
	for i, line := range l.Lines {
		y := content.Y + float64(i)*l.LineHeight + ascent
		r.context.DrawString(line, content.X, y)
		if style.IsUnderlined() {
			w, _ := r.context.MeasureString(line)
			thickness := math.Max(1, style.FontSize/12)
			r.context.SetLineWidth(thickness)
			r.context.DrawLine(content.X, y+style.FontSize*0.1, content.X+w, y+style.FontSize*0.1)
			r.context.Stroke()
		}
	}
}

func (r *Renderer) drawImage(c *images.Content, content geom.Rect) {
	img := c.Image()
	if img == nil || content.IsEmpty() {
		return
	}
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw == 0 || ih == 0 {
		return
	}

	sx, sy := 1.0, 1.0
	switch c.Placement() {
	case images.Stretched:
		sx, sy = content.Width/iw, content.Height/ih
	case images.Centred:
		s := math.Min(content.Width/iw, content.Height/ih)
		sx, sy = s, s
	}
	x := content.X + (content.Width-iw*sx)/2
	y := content.Y + (content.Height-ih*sy)/2

	r.context.Push()
	r.context.Translate(x, y)
	r.context.Scale(sx, sy)
	r.context.DrawImage(img, 0, 0)
	r.context.Pop()
}

// Image is the painted frame.
func (r *Renderer) Image() image.Image { return r.context.Image() }

func (r *Renderer) SavePNG(filename string) error {
	if err := r.context.SavePNG(filename); err != nil {
		return fmt.Errorf("render: save %s: %w", filename, err)
	}
	return nil
}

func (r *Renderer) EncodePNG(w io.Writer) error {
	if err := r.context.EncodePNG(w); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}
	return nil
}

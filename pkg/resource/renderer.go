// Package resource turns view files into painted frames: it loads the
// markup, interprets it with the text and image adapters, optionally runs a
// script against it and paints the result.
package resource

import (
	"bytes"
	"fmt"
	"math"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"vista/pkg/engine"
	"vista/pkg/images"
	"vista/pkg/kinetics"
	"vista/pkg/markup"
	"vista/pkg/render"
	"vista/pkg/script"
	"vista/pkg/text"
	"vista/pkg/tree"
)

// Renderer shares font faces between the views it builds, so concurrent
// work needs one Renderer per goroutine.
type Renderer struct {
	log       *zap.Logger
	measurer  *text.Measurer
	width     float64
	height    float64
	maxPasses int
	cacheTTL  time.Duration
}

type Option func(*Renderer)

func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) { r.log = l }
}

// WithViewport sizes Window roots and any frame whose root has no size.
func WithViewport(width, height float64) Option {
	return func(r *Renderer) { r.width, r.height = width, height }
}

func WithMaxPasses(n int) Option {
	return func(r *Renderer) { r.maxPasses = n }
}

func WithMeasurer(m *text.Measurer) Option {
	return func(r *Renderer) { r.measurer = m }
}

// WithCacheTTL is how long decoded images stay cached.
func WithCacheTTL(d time.Duration) Option {
	return func(r *Renderer) { r.cacheTTL = d }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		log:       zap.NewNop(),
		width:     800,
		height:    600,
		maxPasses: 16,
		cacheTTL:  text.DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.measurer == nil {
		r.measurer = text.NewMeasurer(text.WithLogger(r.log), text.WithCacheTTL(r.cacheTTL))
	}
	return r
}

func (r *Renderer) Measurer() *text.Measurer { return r.measurer }

// Open loads the markup at path and interprets it. Image sources resolve
// relative to the file.
func (r *Renderer) Open(path string, opts ...engine.Option) (*engine.View, error) {
	f := NewFetcher(filepath.Dir(path))
	data, err := f.Fetch(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	root, err := markup.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("resource: %s: %w", path, err)
	}
	return r.Interpret(root, f, opts...), nil
}

// Interpret decorates root with layout, style, text and image traits.
func (r *Renderer) Interpret(root *tree.Node, f Fetcher, opts ...engine.Option) *engine.View {
	base := ""
	if df, ok := f.(*DirFetcher); ok {
		base = df.Base()
	}
	loader := images.NewLoader(
		images.WithBaseDir(base),
		images.WithLogger(r.log),
		images.WithCacheTTL(r.cacheTTL),
	)
	e := engine.New(append([]engine.Option{
		engine.WithLogger(r.log),
		engine.WithViewport(r.width, r.height),
		engine.WithMaxPasses(r.maxPasses),
		engine.WithContent(text.Type, r.measurer.Decorate),
		engine.WithContent(images.Type, loader.Decorate),
	}, opts...)...)
	return e.Interpret(root)
}

// Paint renders one frame of v. The canvas is the root's size, or the
// viewport when the root has none.
func (r *Renderer) Paint(v *engine.View) *render.Renderer {
	b := v.Bounds(v.Root())
	w, h := int(math.Ceil(b.Width)), int(math.Ceil(b.Height))
	if w <= 0 || h <= 0 {
		w, h = int(math.Ceil(r.width)), int(math.Ceil(r.height))
	}
	p := render.NewRenderer(w, h, render.WithLogger(r.log), render.WithMeasurer(r.measurer))
	p.Render(v)
	return p
}

// RenderFile paints the view at in to the PNG out. When scriptPath is set
// the script runs first against a manual clock starting at zero, so
// clock.advance gives reproducible transition frames.
func (r *Renderer) RenderFile(in, out, scriptPath string) error {
	clock := kinetics.NewManualClock(time.Unix(0, 0))
	v, err := r.Open(in, engine.WithClock(clock))
	if err != nil {
		return err
	}
	defer v.Close()

	if scriptPath != "" {
		d := script.New(v, script.WithLogger(r.log), script.WithClock(clock))
		if err := d.RunFile(scriptPath); err != nil {
			return fmt.Errorf("resource: %w", err)
		}
	}

	if err := r.Paint(v).SavePNG(out); err != nil {
		return err
	}
	r.log.Info("rendered", zap.String("input", in), zap.String("output", out), zap.String("view", v.ID.String()))
	return nil
}

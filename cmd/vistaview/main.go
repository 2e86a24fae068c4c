// Command vistaview shows a view in a desktop window. The view follows the
// window size, transitions animate live and the entry at the bottom runs
// script lines against the view.
package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vista/internal/config"
	"vista/internal/observability"
	"vista/pkg/engine"
	"vista/pkg/resource"
	"vista/pkg/script"
	"vista/pkg/text"
)

func main() {
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "vistaview <view.xml>",
		Short:        "Show a view in a window",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New(cfgFile)
			if err := config.Read(v); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			log, err := observability.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()
			return show(cmd.Context(), args[0], cfg, log)
		},
	}
	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file")
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// viewer serialises access to the view between the fyne goroutine and the
// raster generator.
type viewer struct {
	mu       sync.Mutex
	view     *engine.View
	renderer *resource.Renderer
	driver   *script.Driver
}

func (vw *viewer) frame(w, h int) image.Image {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	vw.view.Resize(float64(w), float64(h))
	return vw.renderer.Paint(vw.view).Image()
}

// step runs one transition tick and reports whether anything moved.
func (vw *viewer) step(tick func()) bool {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	moving := vw.view.Registry().Running() > 0
	tick()
	return moving
}

func (vw *viewer) exec(src string) error {
	vw.mu.Lock()
	defer vw.mu.Unlock()
	return vw.driver.Run("console", src)
}

func show(ctx context.Context, path string, cfg config.Config, log *zap.Logger) error {
	textOpts := []text.Option{text.WithLogger(log), text.WithCacheTTL(cfg.Cache.TTL)}
	if cfg.Text.FontDir != "" {
		textOpts = append(textOpts, text.WithFonts(text.FontConfigFromDir(cfg.Text.FontDir)))
	}
	r := resource.NewRenderer(
		resource.WithLogger(log),
		resource.WithViewport(cfg.Viewport.Width, cfg.Viewport.Height),
		resource.WithMaxPasses(cfg.Layout.MaxPasses),
		resource.WithCacheTTL(cfg.Cache.TTL),
		resource.WithMeasurer(text.NewMeasurer(textOpts...)),
	)
	view, err := r.Open(path)
	if err != nil {
		return err
	}
	defer view.Close()
	vw := &viewer{view: view, renderer: r, driver: script.New(view, script.WithLogger(log))}

	a := app.New()
	w := a.NewWindow("vista - " + path)
	w.Resize(fyne.NewSize(float32(cfg.Viewport.Width), float32(cfg.Viewport.Height)))

	raster := canvas.NewRaster(vw.frame)
	status := widget.NewLabel(path)

	entry := widget.NewEntry()
	entry.SetPlaceHolder(`view.find("button").hover()`)
	entry.OnSubmitted = func(src string) {
		if err := vw.exec(src); err != nil {
			status.SetText(err.Error())
			return
		}
		status.SetText(path)
		raster.Refresh()
	}

	w.SetContent(container.NewBorder(nil, container.NewVBox(entry, status), nil, nil, raster))
	w.Canvas().Focus(entry)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go view.Run(ctx, cfg.Transitions.TickRate, func(tick func()) {
		fyne.Do(func() {
			if vw.step(tick) {
				raster.Refresh()
			}
		})
	})

	w.ShowAndRun()
	return nil
}

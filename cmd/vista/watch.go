package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func newWatchCmd(a *app) *cobra.Command {
	var out, script string
	cmd := &cobra.Command{
		Use:   "watch <view.xml>",
		Short: "Re-render a view whenever it or its script changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if out == "" {
				out = pngName(in)
			}
			files := []string{in}
			if script != "" {
				files = append(files, script)
			}
			r := a.renderer()
			return watchFiles(cmd.Context(), files, throttle(a.cfg.Watch.MinInterval), a.log, func() error {
				if err := r.RenderFile(in, out, script); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", in, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "PNG to write (default: input name with .png)")
	cmd.Flags().StringVarP(&script, "script", "s", "", "script to run against the view before painting")
	cmd.Flags().Duration("min-interval", 0, "shortest time between two renders")
	return cmd
}

func throttle(every time.Duration) *rate.Limiter {
	if every <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(every), 1)
}

// watchFiles calls rebuild once, then again after every write to one of
// files, until ctx is done. Bursts of events collapse into one rebuild and
// rebuilds are spaced by limiter. Rebuild failures are logged, not fatal.
func watchFiles(ctx context.Context, files []string, limiter *rate.Limiter, log *zap.Logger, rebuild func() error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	wanted := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		wanted[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	// Editors often replace files, so the directories are watched.
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watch: %s: %w", dir, err)
		}
	}

	run := func() {
		if err := rebuild(); err != nil {
			log.Warn("render failed", zap.Error(err))
		}
	}
	run()

	relevant := func(ev fsnotify.Event) bool {
		if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
			return false
		}
		abs, err := filepath.Abs(ev.Name)
		return err == nil && wanted[abs]
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			log.Debug("change detected", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			if err := limiter.Wait(ctx); err != nil {
				return nil
			}
			drain(w.Events)
			run()
		}
	}
}

func drain(events <-chan fsnotify.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

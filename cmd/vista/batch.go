package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newBatchCmd(a *app) *cobra.Command {
	var outDir, script string
	cmd := &cobra.Command{
		Use:   "batch <view.xml>...",
		Short: "Render many views concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir != "" {
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("batch: %w", err)
				}
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Batch.Concurrency)
			var done atomic.Int64
			for _, in := range args {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					out := pngName(in)
					if outDir != "" {
						out = filepath.Join(outDir, filepath.Base(out))
					}
					// Font faces are not shared between goroutines.
					if err := a.renderer().RenderFile(in, out, script); err != nil {
						return err
					}
					done.Add(1)
					return nil
				})
			}
			err := g.Wait()
			a.log.Info("batch finished", zap.Int64("rendered", done.Load()), zap.Int("views", len(args)))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rendered %d views\n", done.Load())
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "directory for the PNGs (default: next to each input)")
	cmd.Flags().StringVarP(&script, "script", "s", "", "script to run against every view")
	cmd.Flags().Int("concurrency", 0, "views rendered at once")
	return cmd
}

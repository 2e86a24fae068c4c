// Command vista renders, inspects and watches declarative view files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"vista/internal/config"
	"vista/internal/observability"
	"vista/pkg/resource"
	"vista/pkg/text"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	cfgFile string
	v       *viper.Viper
	cfg     config.Config
	log     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}
	root := &cobra.Command{
		Use:           "vista",
		Short:         "Lay out, style and paint declarative views",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "config file (default ./vista.yaml or ~/.config/vista/vista.yaml)")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "console or json")
	flags.String("log-file", "", "also write JSON logs to this file")
	flags.Float64("width", 0, "viewport width for Window roots")
	flags.Float64("height", 0, "viewport height for Window roots")
	flags.String("font-dir", "", "directory with Regular.ttf, Bold.ttf and friends")

	root.AddCommand(newRenderCmd(a), newDumpCmd(a), newWatchCmd(a), newBatchCmd(a))
	return root
}

var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"log-file":   "log.file",
	"width":      "viewport.width",
	"height":     "viewport.height",
	"font-dir":   "text.font_dir",
}

func (a *app) setup(cmd *cobra.Command) error {
	a.v = config.New(a.cfgFile)
	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(name)); err != nil {
			return err
		}
	}
	bindLocal(a.v, cmd)

	if err := config.Read(a.v); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	log, err := observability.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	a.log.Debug("configuration loaded", zap.String("file", a.v.ConfigFileUsed()), zap.String("command", cmd.Name()))
	return nil
}

// bindLocal binds the command's own flags that mirror config keys.
func bindLocal(v *viper.Viper, cmd *cobra.Command) {
	for name, key := range map[string]string{
		"min-interval": "watch.min_interval",
		"concurrency":  "batch.concurrency",
	} {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func (a *app) renderer() *resource.Renderer {
	textOpts := []text.Option{text.WithLogger(a.log), text.WithCacheTTL(a.cfg.Cache.TTL)}
	if a.cfg.Text.FontDir != "" {
		textOpts = append(textOpts, text.WithFonts(text.FontConfigFromDir(a.cfg.Text.FontDir)))
	}
	return resource.NewRenderer(
		resource.WithLogger(a.log),
		resource.WithViewport(a.cfg.Viewport.Width, a.cfg.Viewport.Height),
		resource.WithMaxPasses(a.cfg.Layout.MaxPasses),
		resource.WithCacheTTL(a.cfg.Cache.TTL),
		resource.WithMeasurer(text.NewMeasurer(textOpts...)),
	)
}

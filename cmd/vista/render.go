package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var out, script string
	cmd := &cobra.Command{
		Use:   "render <view.xml>",
		Short: "Paint a view to a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			if out == "" {
				out = pngName(in)
			}
			if err := a.renderer().RenderFile(in, out, script); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", in, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "PNG to write (default: input name with .png)")
	cmd.Flags().StringVarP(&script, "script", "s", "", "script to run against the view before painting")
	return cmd
}

func pngName(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".png"
}

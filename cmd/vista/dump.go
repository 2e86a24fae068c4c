package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"vista/pkg/engine"
	"vista/pkg/text"
	"vista/pkg/tree"
)

func newDumpCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dump <view.xml>",
		Short: "Print the laid out tree with bounds and resolved fonts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.renderer().Open(args[0])
			if err != nil {
				return err
			}
			defer v.Close()
			if asJSON {
				return dumpJSON(cmd.OutOrStdout(), v)
			}
			dumpTree(cmd.OutOrStdout(), v, v.Root(), 0)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "write JSON instead of an indented tree")
	return cmd
}

var (
	typeColour   = color.New(color.FgCyan, color.Bold)
	idColour     = color.New(color.FgYellow)
	boundsColour = color.New(color.FgGreen)
	textColour   = color.New(color.Faint)
)

func dumpTree(w io.Writer, v *engine.View, n *tree.Node, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
	typeColour.Fprint(w, n.Type())
	if id := n.Value("id").AsString(); id != "" {
		idColour.Fprintf(w, "#%s", id)
	}
	b := v.Bounds(n)
	boundsColour.Fprintf(w, " %g,%g %gx%g", b.X, b.Y, b.Width, b.Height)
	if c, ok := text.Of(n); ok {
		textColour.Fprintf(w, " %q", c.Text())
	}
	fmt.Fprintln(w)
	if _, ok := text.Of(n); ok {
		return
	}
	for _, child := range n.Children() {
		dumpTree(w, v, child, depth+1)
	}
}

type dumpNode struct {
	Type     string      `json:"type"`
	ID       string      `json:"id,omitempty"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	FontSize float64     `json:"fontSize"`
	Text     string      `json:"text,omitempty"`
	Children []*dumpNode `json:"children,omitempty"`
}

type dumpView struct {
	View string    `json:"view"`
	Root *dumpNode `json:"root"`
}

func snapshot(v *engine.View, n *tree.Node) *dumpNode {
	b := v.Bounds(n)
	d := &dumpNode{
		Type:     n.Type(),
		ID:       n.Value("id").AsString(),
		X:        b.X,
		Y:        b.Y,
		Width:    b.Width,
		Height:   b.Height,
		FontSize: v.Style(n).FontSize,
	}
	if c, ok := text.Of(n); ok {
		d.Text = c.Text()
		return d
	}
	for _, child := range n.Children() {
		d.Children = append(d.Children, snapshot(v, child))
	}
	return d
}

func dumpJSON(w io.Writer, v *engine.View) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(
		dumpView{View: v.ID.String(), Root: snapshot(v, v.Root())}, "", "  ")
	if err != nil {
		return fmt.Errorf("dump: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// treeCommand creates the tree command.
func (c *CLI) treeCommand() *cobra.Command {
	var (
		mode   string
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "tree <catalog|file>",
		Short: "Render the parent/child hierarchy as DOT or SVG",
		Long: `Render the orbital hierarchy of a catalog as a Graphviz graph.

With --mode each node is labelled with its visual radius after hierarchy
enforcement under that view mode. The format follows the output extension
(.dot or .svg) unless --format is given. Without --output DOT is written to
stdout.`,
		Example: `  orrery tree sol
  orrery tree sol --mode scientific -o sol.svg
  orrery tree system.toml --format svg -o tree.out`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeCatalogs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTree(cmd.Context(), args[0], mode, output, format)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "label nodes with visual sizes in this view mode")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: dot, svg")
	_ = cmd.RegisterFlagCompletionFunc("mode", completeModes)

	return cmd
}

func (c *CLI) runTree(ctx context.Context, ref, mode, output, format string) error {
	if format == "" {
		format = treeFormat(output)
	}
	if format != pipeline.FormatDOT && format != pipeline.FormatSVG {
		return fmt.Errorf("invalid tree format: %q (must be one of: dot, svg)", format)
	}

	cat, err := c.loadCatalog(ctx, ref)
	if err != nil {
		return err
	}
	svc, err := c.newService(ctx)
	if err != nil {
		return fmt.Errorf("initialize service: %w", err)
	}
	defer svc.Close()

	var strategy viewmode.Strategy
	if mode != "" {
		m, ok := viewmode.ParseMode(mode)
		if !ok {
			return fmt.Errorf("unknown view mode %q (want one of %s)", mode, modeList())
		}
		if strategy, err = viewmode.New(m, svc.Config(), c.Logger); err != nil {
			return err
		}
	}

	spin := startSpinner(ctx, os.Stderr, fmt.Sprintf("Rendering %s hierarchy...", format))
	data, err := svc.RenderTree(ctx, cat.Objects, strategy, format)
	if err != nil {
		spin.Fail("Render failed")
		return err
	}

	if output == "" {
		spin.Stop()
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		spin.Fail("Render failed")
		return fmt.Errorf("write %s: %w", output, err)
	}
	spin.Finish("Rendered hierarchy of %s", cat.Name)
	printFile(output)
	return nil
}

// treeFormat infers the format from an output path, defaulting to DOT.
func treeFormat(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		return pipeline.FormatSVG
	}
	return pipeline.FormatDOT
}

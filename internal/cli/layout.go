package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/layout"
	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// layoutFlags are the options of the layout command.
type layoutFlags struct {
	mode    string
	focus   string
	targets []string
	output  string
	quiet   bool
}

// layoutFile is the JSON document written by the layout command.
type layoutFile struct {
	Layout *layout.SystemLayout `json:"layout"`
	View   *pipeline.View       `json:"view"`
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "layout <catalog|file>",
		Short: "Compute an orbital layout",
		Long: `Compute visual sizes and orbit distances for a catalog.

The argument is a built-in catalog name (see 'orrery catalogs'), a catalog in
the --catalogs directory, or a JSON, TOML or YAML catalog file.

With --targets only the named objects, their parents and their direct
children are laid out. --focus frames the camera on one object and applies
the mode's visibility rules. Results are cached, so repeated runs with the
same objects, mode and configuration are instant.`,
		Example: `  orrery layout sol
  orrery layout sol --mode scientific -o sol.layout.json
  orrery layout system.yaml --mode profile --focus earth
  orrery layout sol --targets jupiter,saturn`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeCatalogs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.mode, "mode", "m", string(viewmode.DefaultMode), "view mode: "+modeList())
	cmd.Flags().StringVar(&flags.focus, "focus", "", "object to frame the camera on")
	cmd.Flags().StringSliceVar(&flags.targets, "targets", nil, "restrict the layout to these objects (comma-separated)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write the layout as JSON to this file ('-' for stdout)")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "skip the result table")

	_ = cmd.RegisterFlagCompletionFunc("mode", completeModes)

	return cmd
}

// runLayout loads the catalog, computes the layout and reports it.
func (c *CLI) runLayout(ctx context.Context, ref string, flags layoutFlags) error {
	mode, ok := viewmode.ParseMode(flags.mode)
	if !ok {
		return fmt.Errorf("unknown view mode %q (want one of %s)", flags.mode, modeList())
	}

	prog := newProgress(c.Logger)
	cat, err := c.loadCatalog(ctx, ref)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Loaded catalog %s", cat.Name))

	svc, err := c.newService(ctx)
	if err != nil {
		return fmt.Errorf("initialize service: %w", err)
	}
	defer svc.Close()

	strategy, err := viewmode.New(mode, svc.Config(), c.Logger)
	if err != nil {
		return err
	}

	spin := startSpinner(ctx, os.Stderr, fmt.Sprintf("Computing %s layout...", mode))

	var l *layout.SystemLayout
	if len(flags.targets) > 0 {
		l, err = svc.CalculatePartialLayout(ctx, cat.Objects, flags.targets, strategy)
	} else {
		l, err = svc.CalculateSystemLayout(ctx, cat.Objects, strategy)
	}
	if err != nil {
		spin.Fail("Layout failed")
		return err
	}
	if spin.Interrupted() {
		spin.Stop()
		return ctx.Err()
	}

	if flags.focus != "" {
		spin.Stage(fmt.Sprintf("Framing %s...", flags.focus))
	}
	view, err := pipeline.Frame(l, cat.Objects, strategy, flags.focus)
	took := spin.Stop()
	if err != nil {
		return err
	}

	if flags.output == "-" {
		return writeLayout(os.Stdout, l, view)
	}

	printSuccess("Computed %s layout of %s %s", mode, cat.Name, StyleDim.Render(formatElapsed(took)))
	fmt.Println(layoutStats(l))
	for _, w := range l.Warnings {
		printWarning("%s", w)
	}
	if !flags.quiet {
		fmt.Println(renderLayoutTable(l))
	}
	if flags.focus != "" {
		printDetail("camera: %s at distance %.2f, elevation %.0f°", view.Camera.TargetID, view.Camera.Distance, view.Camera.Elevation)
	}

	if flags.output != "" {
		f, err := os.Create(flags.output)
		if err != nil {
			return fmt.Errorf("create %s: %w", flags.output, err)
		}
		if err := writeLayout(f, l, view); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", flags.output, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		printFile(flags.output)
		printNewline()
		printNextStep("Serve it to a browser", "orrery serve")
	}
	return nil
}

func writeLayout(w *os.File, l *layout.SystemLayout, view *pipeline.View) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(layoutFile{Layout: l, View: view})
}

// modeList joins the known view modes for help texts.
func modeList() string {
	names := make([]string, len(viewmode.Modes))
	for i, m := range viewmode.Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func completeModes(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	out := make([]string, len(viewmode.Modes))
	for i, m := range viewmode.Modes {
		out[i] = string(m) + "\t" + m.Description()
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

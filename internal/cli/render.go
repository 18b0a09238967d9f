package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/controlgraph/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	pipeline.Options
	output  string // output file (single format) or base path (multiple)
	noCache bool   // bypass the artifact cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{Options: pipeline.Options{Width: defaultWidth, Height: defaultHeight}}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the settled graph to SVG, PNG, PDF, DOT or JSON",
		Long: `Render the settled graph to SVG, PNG, PDF, DOT or JSON.

The focus is applied and the animation run to completion before the frame is
captured, so the output shows where every framework comes to rest. SVG and PNG
are drawn by Graphviz with node positions pinned; PDF additionally needs
rsvg-convert. Rendered artifacts are cached.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			if err := opts.ValidateAndSetDefaults(); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVar(&opts.Focus, "focus", "", "framework to focus")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, dot, json (comma-separated)")
	cmd.Flags().Float64Var(&opts.Width, "width", opts.Width, "viewport width")
	cmd.Flags().Float64Var(&opts.Height, "height", opts.Height, "viewport height")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show ring and relation count in labels")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	_ = cmd.RegisterFlagCompletionFunc("focus", c.completeFrameworkIDs)

	return cmd
}

// parseFormats parses the --format flag. If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

func (c *CLI) runRender(ctx context.Context, opts *renderOpts) error {
	cat, err := c.loadCatalog(ctx)
	if err != nil {
		return err
	}

	store, err := c.newCache(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	runner := pipeline.NewRunner(store, nil, c.Logger)
	runner.ViewOptions = c.cfg.View.Options()
	runner.TTL = c.cfg.Cache.TTL
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Rendering...")
	spinner.Start()

	result, err := runner.Execute(ctx, cat, opts.Options)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}

	var written []string
	for _, format := range opts.Formats {
		path := outputPath(opts, format)
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			spinner.StopWithError("Write failed")
			return fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	spinner.Stop()
	if spinner.Cancelled() {
		return ctx.Err()
	}
	prog.done("rendered", "formats", strings.Join(opts.Formats, ","), "ticks", result.Stats.Ticks)

	printSuccess("Render complete")
	for _, p := range written {
		printFile(p)
	}
	printStats(result.Stats.Nodes, result.Stats.Edges, result.Frame.Selected, result.CacheHit)
	if opts.Focus == "" && len(cat.Frameworks) > 0 {
		printNewline()
		printNextStep("Focus a framework", appName+" render --focus "+cat.QuickAccess(1)[0].ID)
	}
	return nil
}

// outputPath names the file for format: --output verbatim for a single
// format, otherwise <base>.<format>, where base defaults to the focus.
func outputPath(opts *renderOpts, format string) string {
	if opts.output != "" && len(opts.Formats) == 1 {
		return opts.output
	}
	base := opts.output
	if base == "" {
		base = appName
		if opts.Focus != "" {
			base = opts.Focus
		}
	}
	return strings.TrimSuffix(base, "."+format) + "." + format
}

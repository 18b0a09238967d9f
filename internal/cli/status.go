package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/compliance"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

// statusStyles colors a compliance status in tables.
var statusStyles = map[compliance.Status]lipgloss.Style{
	compliance.StatusCompliant:    lipgloss.NewStyle().Foreground(colorGreen),
	compliance.StatusPartial:      lipgloss.NewStyle().Foreground(colorYellow),
	compliance.StatusNonCompliant: lipgloss.NewStyle().Foreground(colorRed),
	compliance.StatusNotAssessed:  lipgloss.NewStyle().Foreground(colorDim),
}

type statusOpts struct {
	seed      uint64
	status    string
	framework string
	format    string
}

// statusCommand creates the status command.
func (c *CLI) statusCommand() *cobra.Command {
	var opts statusOpts

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the compliance status of sample controls",
		Long: `Show the compliance status of sample controls.

Statuses are generated from a seed, so the same seed always produces the same
dashboard. The seed defaults to the compliance.seed config value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				opts.seed = c.cfg.Compliance.Seed
			}
			return c.runStatus(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "status generator seed")
	cmd.Flags().StringVar(&opts.status, "status", "", "only show controls with this status (compliant, partial, non_compliant, not_assessed)")
	cmd.Flags().StringVar(&opts.framework, "framework", "", "only show controls mapped to this framework")
	cmd.Flags().StringVarP(&opts.format, "format", "f", outputTable, "output format: table, json")
	_ = cmd.RegisterFlagCompletionFunc("framework", c.completeFrameworkIDs)

	return cmd
}

type statusOutput struct {
	Seed        uint64                  `json:"seed"`
	Summary     compliance.Summary      `json:"summary"`
	Assessments []compliance.Assessment `json:"assessments"`
}

func (c *CLI) runStatus(ctx context.Context, w io.Writer, opts statusOpts) error {
	cat, err := c.loadCatalog(ctx)
	if err != nil {
		return err
	}

	var status compliance.Status
	if opts.status != "" {
		if status, err = compliance.ParseStatus(opts.status); err != nil {
			return err
		}
	}

	as := compliance.Assess(cat.Controls, compliance.Seeded(opts.seed), time.Now())
	if opts.framework != "" {
		if _, ok := cat.Framework(opts.framework); !ok {
			return errors.New(errors.ErrCodeUnknownEntity, "unknown framework: %s", opts.framework)
		}
		as = compliance.ForFramework(as, opts.framework)
	}
	summary := compliance.Summarize(as)
	as = compliance.Filter(as, status)

	switch opts.format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(statusOutput{Seed: opts.seed, Summary: summary, Assessments: as})
	case outputTable:
		writeStatusTable(w, cat, as, summary, opts.framework)
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid output format: %s (must be table or json)", opts.format)
	}
}

// writeStatusTable lists assessments. With a framework filter the mapping
// column shows that framework's references instead of the mapped frameworks.
func writeStatusTable(w io.Writer, cat *catalog.Catalog, as []compliance.Assessment, summary compliance.Summary, framework string) {
	if len(as) == 0 {
		fmt.Fprintln(w, StyleDim.Render("No controls match."))
	} else {
		mapping := "Frameworks"
		if framework != "" {
			mapping = "Reference"
		}
		rows := make([][]string, len(as))
		for i, a := range as {
			domain := a.Control.Domain
			if d, ok := cat.Domain(domain); ok {
				domain = d.Name
			}
			refs := strings.Join(shortNames(cat, a.Control.FrameworkIDs()), ", ")
			if framework != "" {
				refs, _ = a.Control.Reference(framework)
			}
			rows[i] = []string{a.Control.ID, a.Control.Name, domain, refs, a.Status.Label(), a.Date()}
		}
		writeTable(w, []string{"Control", "Name", "Domain", mapping, "Status", "Last assessed"}, rows, func(row, col int) lipgloss.Style {
			if col == 4 {
				return statusStyles[as[row].Status]
			}
			return lipgloss.NewStyle()
		})
	}

	var parts []string
	for _, s := range compliance.Statuses {
		parts = append(parts, statusStyles[s].Render(fmt.Sprintf("%d %s", summary.Counts[s], strings.ToLower(s.Label()))))
	}
	fmt.Fprintf(w, "%s %s\n", StyleDim.Render(fmt.Sprintf("%d controls:", summary.Total)), strings.Join(parts, StyleDim.Render(" · ")))
	fmt.Fprintf(w, "%s %s\n", StyleDim.Render("score:"), StyleNumber.Render(fmt.Sprintf("%d%%", summary.Percent())))
}

func shortNames(cat *catalog.Catalog, ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if f, ok := cat.Framework(id); ok {
			out[i] = f.DisplayLabel()
		}
	}
	return out
}

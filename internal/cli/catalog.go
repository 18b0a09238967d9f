package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/httputil"
)

// catalogCommand creates the catalog command with list, validate and export
// subcommands.
func (c *CLI) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and validate framework catalogs",
	}
	cmd.AddCommand(c.catalogListCommand())
	cmd.AddCommand(c.catalogValidateCommand())
	cmd.AddCommand(c.catalogExportCommand())
	return cmd
}

func (c *CLI) catalogListCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List frameworks with their category and relation count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch format {
			case outputJSON:
				return cat.WriteJSON(w)
			case outputTable:
				rows := make([][]string, len(cat.Frameworks))
				for i, f := range cat.Frameworks {
					rows[i] = []string{f.ID, f.DisplayLabel(), f.Name, string(f.Category), f.Region, strconv.Itoa(f.ControlCount), strconv.Itoa(f.RelationCount)}
				}
				writeTable(w, []string{"ID", "Short name", "Name", "Category", "Region", "Controls", "Relations"}, rows, nil)
				fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d frameworks · %d relations", len(cat.Frameworks), len(cat.Relations))))
				return nil
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "invalid output format: %s (must be table or json)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", outputTable, "output format: table, json")
	return cmd
}

func (c *CLI) catalogValidateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [file|url]",
		Short: "Validate a catalog file",
		Long: `Validate a catalog file.

Structural problems (duplicate IDs, unknown categories, relation strengths
outside [0, 1]) fail validation. Dangling references are reported as warnings
because the layout skips them; --strict turns them into failures.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cat *catalog.Catalog
				err error
			)
			name := "built-in catalog"
			if len(args) == 1 {
				name = args[0]
				if httputil.IsURL(name) {
					cat, err = c.fetchCatalog(cmd.Context(), name)
				} else {
					cat, err = catalog.Load(name)
				}
			} else {
				cat, err = c.loadCatalog(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			issues := cat.Integrity()
			for _, issue := range issues {
				fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(issue.String()))
			}
			if strict && len(issues) > 0 {
				return errors.New(errors.ErrCodeInvalidCatalog, "%s: %d integrity issue(s)", name, len(issues))
			}
			fmt.Fprintf(w, "%s %s: %d frameworks, %d relations, %d domains, %d controls\n",
				styleIconSuccess.Render(iconSuccess), name,
				len(cat.Frameworks), len(cat.Relations), len(cat.Domains), len(cat.Controls))
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat integrity warnings as errors")
	return cmd
}

func (c *CLI) catalogExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write the active catalog as JSON",
		Long: `Write the active catalog as JSON to stdout.

Useful as a starting point for a custom catalog:
  controlgraph catalog export > my-catalog.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := c.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			return cat.WriteJSON(cmd.OutOrStdout())
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

// resourcesCommand creates the resources command.
func (c *CLI) resourcesCommand() *cobra.Command {
	var (
		q        catalog.Query
		category string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "resources [query]",
		Short: "Search frameworks and control domains",
		Long: `Search the resource browser.

Frameworks match on name, short name or description and are grouped by
category. Control domains match on name, identifier or principle and list
how many sample controls they hold. --category limits the framework groups.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				q.Text = args[0]
			}
			if err := errors.ValidateQuery(q.Text); err != nil {
				return err
			}
			if category != "" {
				q.Category = catalog.Category(strings.ToLower(category))
				if !q.Category.Valid() {
					return errors.New(errors.ErrCodeInvalidInput, "unknown category: %s", category)
				}
			}
			cat, err := c.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			return writeResources(cmd.OutOrStdout(), cat.Search(q), format)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "framework category (international, us-federal, us-state, industry, regional)")
	cmd.Flags().StringVarP(&format, "format", "f", outputTable, "output format: table, json")
	_ = cmd.RegisterFlagCompletionFunc("category", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(catalog.Categories))
		for i, cat := range catalog.Categories {
			out[i] = string(cat)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func writeResources(w io.Writer, res catalog.SearchResult, format string) error {
	switch format {
	case outputJSON:
		if res.Frameworks == nil {
			res.Frameworks = []catalog.CategoryGroup{}
		}
		if res.Domains == nil {
			res.Domains = []catalog.DomainMatch{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case outputTable:
		if res.Len() == 0 {
			fmt.Fprintln(w, StyleDim.Render("No frameworks or domains match."))
			return nil
		}
		for _, g := range res.Frameworks {
			fmt.Fprintln(w, StyleTitle.Render(g.Title))
			rows := make([][]string, len(g.Frameworks))
			for i, f := range g.Frameworks {
				rows[i] = []string{f.DisplayLabel(), f.Name, f.Region, strconv.Itoa(f.ControlCount)}
			}
			writeTable(w, []string{"Framework", "Name", "Region", "Controls"}, rows, nil)
		}
		if len(res.Domains) > 0 {
			fmt.Fprintln(w, StyleTitle.Render("Control domains"))
			rows := make([][]string, len(res.Domains))
			for i, m := range res.Domains {
				rows[i] = []string{m.Domain.Identifier, m.Domain.Name, m.Domain.Principle, strconv.Itoa(m.Controls)}
			}
			writeTable(w, []string{"ID", "Domain", "Principle", "Samples"}, rows, nil)
		}
		fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("%d matches", res.Len())))
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid output format: %s (must be table or json)", format)
	}
}

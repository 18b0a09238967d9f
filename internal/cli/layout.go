package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/core/radial"
	"github.com/matzehuels/controlgraph/pkg/errors"
)

const (
	defaultWidth  = 800 // default viewport width
	defaultHeight = 600 // default viewport height
)

// Output formats of the layout command.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// layoutTarget is one framework's resting position.
type layoutTarget struct {
	ID    string  `json:"id"`
	Ring  string  `json:"ring"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Angle float64 `json:"angle"`
}

type layoutOutput struct {
	Focus    string         `json:"focus,omitempty"`
	Viewport geom.Viewport  `json:"viewport"`
	Targets  []layoutTarget `json:"targets"`
	Skipped  int            `json:"skipped"`
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		focus  string
		output string
		format string
		width  float64
		height float64
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the radial target position of every framework",
		Long: `Print the radial target position of every framework.

Without --focus every framework sits on one circle, starting at the top and
running clockwise in catalog order. With --focus the framework moves to the
centre, its related frameworks form an inner ring and the rest an outer ring.
Angles are in degrees, measured clockwise from the positive x axis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := errors.ValidateViewport(width, height); err != nil {
				return err
			}
			cat, err := c.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			out, err := computeLayout(cat, focus, geom.Viewport{Width: width, Height: height})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := writeLayout(w, out, format); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Layout written")
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&focus, "focus", "", "framework to focus")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", outputTable, "output format: table, json")
	cmd.Flags().Float64Var(&width, "width", defaultWidth, "viewport width")
	cmd.Flags().Float64Var(&height, "height", defaultHeight, "viewport height")
	_ = cmd.RegisterFlagCompletionFunc("focus", c.completeFrameworkIDs)

	return cmd
}

// computeLayout resolves targets for focus. An unknown focus is an error
// here rather than a silent fallback to the unfocused circle.
func computeLayout(cat *catalog.Catalog, focus string, vp geom.Viewport) (layoutOutput, error) {
	if focus != "" {
		if _, ok := cat.Framework(focus); !ok {
			return layoutOutput{}, errors.New(errors.ErrCodeUnknownEntity, "unknown framework: %s", focus)
		}
	}

	res := radial.Compute(cat.Frameworks, cat.Relations, focus, vp)
	center := vp.Sanitize().Center()
	out := layoutOutput{
		Focus:    res.Focus,
		Viewport: vp,
		Targets:  make([]layoutTarget, 0, len(cat.Frameworks)),
		Skipped:  len(res.Skipped),
	}
	for _, f := range cat.Frameworks {
		p := res.Targets[f.ID]
		ring := res.Rings[f.ID]
		t := layoutTarget{ID: f.ID, Ring: ring.String(), X: p.X, Y: p.Y}
		if ring != radial.RingCenter {
			t.Angle = radial.Angle(center, p)
		}
		out.Targets = append(out.Targets, t)
	}
	return out, nil
}

func writeLayout(w io.Writer, out layoutOutput, format string) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case outputTable:
		rows := make([][]string, 0, len(out.Targets))
		for _, t := range out.Targets {
			rows = append(rows, []string{
				t.ID,
				t.Ring,
				fmt.Sprintf("%.1f", t.X),
				fmt.Sprintf("%.1f", t.Y),
				fmt.Sprintf("%.1f°", t.Angle),
			})
		}
		writeTable(w, []string{"Framework", "Ring", "X", "Y", "Angle"}, rows, nil)
		return nil
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be 'table' or 'json')", format)
	}
}

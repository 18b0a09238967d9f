// Package pipeline turns a catalog into rendered pictures of the settled
// graph.
//
// The CLI render command and the HTTP frame endpoint share this code so a
// given frame renders to the same bytes, and the same cache entry, whichever
// entry point asked for it.
//
// # Stages
//
//  1. Settle: lay the catalog out for a focus and run the animation to rest
//  2. Render: draw the frame in each requested format, through the cache
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, cat, pipeline.Options{
//	    Focus:   "iso27001",
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultWidth is the default viewport width.
	DefaultWidth = 800.0

	// DefaultHeight is the default viewport height.
	DefaultHeight = 600.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}

// cachedFormats are the formats drawn by Graphviz. DOT and JSON are cheap
// enough to produce on every request.
var cachedFormats = []string{FormatSVG, FormatPNG, FormatPDF}

// =============================================================================
// Options & Results
// =============================================================================

// Options configures a pipeline run.
type Options struct {
	// Focus is the framework to center, or "" for the unfocused circle.
	Focus  string  `json:"focus,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	// Targets draws nodes at their targets instead of their current
	// positions. Only meaningful for frames that are still animating.
	Targets bool `json:"targets,omitempty"`

	// Refresh skips cache reads. Fresh artifacts are still written.
	Refresh bool `json:"refresh,omitempty"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Frame is the settled frame the artifacts were drawn from.
	Frame view.Frame

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats Stats

	// CacheHit is true when every cached format came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Nodes      int
	Edges      int
	Ticks      int
	SettleTime time.Duration
	RenderTime time.Duration
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !slices.Contains(Formats, f) {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %s (must be one of %s)", f, strings.Join(Formats, ", "))
		}
	}
	return nil
}

// ValidateAndSetDefaults checks the options and fills in the viewport and
// format defaults. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Focus != "" {
		if err := errors.ValidateID(o.Focus); err != nil {
			return err
		}
	}
	if err := errors.ValidateViewport(o.Width, o.Height); err != nil {
		return err
	}
	return ValidateFormats(o.Formats)
}

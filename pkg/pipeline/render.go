package pipeline

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/render"
	"github.com/matzehuels/controlgraph/pkg/render/nodelink"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// SVGRenderer converts DOT to SVG.
type SVGRenderer func(ctx context.Context, dot string) ([]byte, error)

// Render draws f in one format without touching any cache. PNG is drawn by
// Graphviz directly; PDF is converted from the SVG output of svg.
func Render(ctx context.Context, f view.Frame, format string, opts nodelink.Options, svg SVGRenderer) ([]byte, error) {
	if svg == nil {
		svg = nodelink.RenderSVG
	}
	switch format {
	case FormatJSON:
		return json.MarshalIndent(f, "", "  ")
	case FormatDOT:
		return []byte(nodelink.ToDOT(f, opts)), nil
	case FormatSVG:
		return svg(ctx, nodelink.ToDOT(f, opts))
	case FormatPNG:
		return nodelink.RenderPNG(ctx, nodelink.ToDOT(f, opts))
	case FormatPDF:
		data, err := svg(ctx, nodelink.ToDOT(f, opts))
		if err != nil {
			return nil, err
		}
		return render.ToPDF(data)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format: %s", format)
}

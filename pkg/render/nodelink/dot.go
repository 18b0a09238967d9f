package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/render"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the ring and relation count to node labels.
	// When false, only the short label is shown.
	Detailed bool
	// Targets draws nodes at their target positions instead of their
	// current ones, i.e. the picture the animation settles on.
	Targets bool
}

// Node sizes in points.
const (
	minNodeSize = 28.0
	maxNodeSize = 44.0
)

// ToDOT converts a frame to Graphviz DOT with pinned node positions.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPNG]
// or [RenderPDF].
func ToDOT(f view.Frame, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  notranslate=true;\n")
	buf.WriteString("  outputorder=edgesfirst;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  bb=\"0,0,%s,%s\";\n", num(f.Viewport.Width), num(f.Viewport.Height))
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fixedsize=true, fontsize=10, fontcolor=%q, penwidth=0];\n", render.ColorText)
	fmt.Fprintf(&buf, "  edge [color=%q];\n", render.ColorEdge)
	buf.WriteString("\n")

	maxCount := 1
	for _, n := range f.Nodes {
		maxCount = max(maxCount, n.RelationCount)
	}

	for _, n := range f.Nodes {
		p := n.Current
		if opts.Targets {
			p = n.Target
		}
		if !p.IsFinite() {
			continue
		}
		attrs := fmtAttrs(f, n, p, maxCount, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range f.Edges {
		attrs := []string{fmt.Sprintf("penwidth=%s", num(0.5+2.5*e.Strength))}
		if e.Active {
			attrs = append(attrs, fmt.Sprintf("color=%q", render.ColorEdgeActive))
		} else if f.Selected != "" {
			attrs = append(attrs, fmt.Sprintf("color=%q", render.ColorMuted))
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n view.FrameNode, detailed bool) string {
	if !detailed {
		return n.Label
	}
	return fmt.Sprintf("%s\n%s · %d", n.Label, n.Ring, n.RelationCount)
}

func fmtAttrs(f view.Frame, n view.FrameNode, p geom.Point, maxCount int, detailed bool) []string {
	size := minNodeSize + (maxNodeSize-minNodeSize)*float64(n.RelationCount)/float64(maxCount)
	// Graphviz y grows upward.
	y := f.Viewport.Height - p.Y

	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		fmt.Sprintf("pos=\"%s,%s!\"", num(p.X), num(y)),
		fmt.Sprintf("width=%s", num(size/72)),
		fmt.Sprintf("fillcolor=%q", render.CategoryColor(n.Category)),
	}
	switch {
	case n.ID == f.Selected:
		attrs = append(attrs, fmt.Sprintf("color=%q", render.ColorFocus), "penwidth=3")
	case n.ID == f.Hovered:
		attrs = append(attrs, fmt.Sprintf("color=%q", render.ColorHover), "penwidth=2")
	case f.Selected != "" && !n.Connected:
		attrs = append(attrs, "style=\"filled,dashed\"")
	}
	return attrs
}

// num formats a coordinate with two decimals, mapping non-finite values to 0.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz's neato engine.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := renderDOT(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz's neato engine.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return renderDOT(ctx, dot, graphviz.PNG)
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

func renderDOT(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

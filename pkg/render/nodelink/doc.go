// Package nodelink exports view frames as Graphviz node-link diagrams.
//
// # Overview
//
// Layout is already done by the radial engine, so the generated DOT pins
// every node with pos="x,y!" and is rendered with the neato engine, which
// honours pinned positions instead of computing its own. Edge width follows
// relation strength; the focused node, its relations and the hovered node
// are emphasised.
//
// # Usage
//
//	dot := nodelink.ToDOT(frame, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// # Coordinates
//
// Frame coordinates have y growing downward; Graphviz has y growing upward.
// [ToDOT] flips y against the viewport height and sets inputscale=72 so one
// frame unit is one point in the output.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering. PDF conversion requires librsvg (rsvg-convert).
package nodelink

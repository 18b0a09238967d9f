// Package render turns view frames into pictures.
//
// # Overview
//
//   - [nodelink]: Graphviz export (DOT, SVG, PNG, PDF) with node positions
//     pinned to the frame's current coordinates
//   - [term]: a character-cell canvas for the terminal explorer
//
// The shared [CategoryColor] palette keeps both renderers visually
// consistent. [ToPDF] converts SVG output with rsvg-convert.
//
// [nodelink]: github.com/matzehuels/controlgraph/pkg/render/nodelink
// [term]: github.com/matzehuels/controlgraph/pkg/render/term
package render

// Package term rasterises view frames onto a character grid for the
// terminal explorer.
//
// One column is one viewport unit horizontally and one row is two units
// vertically, which roughly compensates for the aspect ratio of terminal
// cells. Use [Viewport] to size a view for a grid and [PointAt] to turn a
// mouse cell into a viewport coordinate.
package term

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/render"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// RowUnits is the height of one terminal row in viewport units.
const RowUnits = 2.0

// Glyphs.
const (
	glyphNode    = '●'
	glyphFocus   = '◉'
	glyphHover   = '◎'
	glyphEdge    = '·'
	glyphActive  = '•'
	glyphBlank   = ' '
	labelPadding = 1
)

// Viewport returns the viewport matching a grid of cols×rows cells.
func Viewport(cols, rows int) geom.Viewport {
	return geom.Viewport{Width: float64(max(cols, 0)), Height: float64(max(rows, 0)) * RowUnits}
}

// PointAt maps a grid cell to a viewport coordinate.
func PointAt(col, row int) geom.Point {
	return geom.Point{X: float64(col), Y: float64(row) * RowUnits}
}

// CellOf maps a viewport coordinate to the nearest grid cell.
func CellOf(p geom.Point) (col, row int) {
	return int(math.Round(p.X)), int(math.Round(p.Y / RowUnits))
}

// Options configures rendering.
type Options struct {
	// Color styles glyphs with the category palette.
	Color bool
	// Labels draws each node's short label next to its glyph.
	Labels bool
}

type cell struct {
	r     rune
	style *lipgloss.Style
}

// Canvas is a fixed-size grid of styled runes.
type Canvas struct {
	cols, rows int
	cells      []cell
}

// NewCanvas returns a blank canvas.
func NewCanvas(cols, rows int) *Canvas {
	cols, rows = max(cols, 0), max(rows, 0)
	c := &Canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range c.cells {
		c.cells[i].r = glyphBlank
	}
	return c
}

// Set writes r at (col, row). Out-of-bounds writes are dropped.
func (c *Canvas) Set(col, row int, r rune, style *lipgloss.Style) {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return
	}
	c.cells[row*c.cols+col] = cell{r: r, style: style}
}

// At returns the rune at (col, row), or a space when out of bounds.
func (c *Canvas) At(col, row int) rune {
	if col < 0 || row < 0 || col >= c.cols || row >= c.rows {
		return glyphBlank
	}
	return c.cells[row*c.cols+col].r
}

// Text writes s starting at (col, row).
func (c *Canvas) Text(col, row int, s string, style *lipgloss.Style) {
	for _, r := range s {
		c.Set(col, row, r, style)
		col++
	}
}

// Line draws a straight line between two cells (Bresenham), leaving the
// end points untouched.
func (c *Canvas) Line(c0, r0, c1, r1 int, glyph rune, style *lipgloss.Style) {
	dx, dy := abs(c1-c0), -abs(r1-r0)
	sx, sy := sign(c1-c0), sign(r1-r0)
	e := dx + dy
	x, y := c0, r0
	for {
		if (x != c0 || y != r0) && (x != c1 || y != r1) {
			c.Set(x, y, glyph, style)
		}
		if x == c1 && y == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// String renders the canvas, one line per row.
func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := c.cells[row*c.cols : (row+1)*c.cols]
		for i := 0; i < len(line); {
			// Group runs of cells sharing a style into one styled span.
			j := i + 1
			for j < len(line) && line[j].style == line[i].style {
				j++
			}
			var run strings.Builder
			for _, cl := range line[i:j] {
				run.WriteRune(cl.r)
			}
			if line[i].style != nil {
				b.WriteString(line[i].style.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			i = j
		}
	}
	return b.String()
}

// Render draws f onto a cols×rows canvas. Edges are drawn first so nodes
// and labels stay on top.
func Render(f view.Frame, cols, rows int, opts Options) string {
	c := NewCanvas(cols, rows)
	st := newStyles(opts.Color)

	pos := make(map[string]geom.Point, len(f.Nodes))
	for _, n := range f.Nodes {
		if n.Current.IsFinite() {
			pos[n.ID] = n.Current
		}
	}

	for _, e := range f.Edges {
		a, okA := pos[e.Source]
		b, okB := pos[e.Target]
		if !okA || !okB {
			continue
		}
		c0, r0 := CellOf(a)
		c1, r1 := CellOf(b)
		glyph, style := glyphEdge, st.edge
		if e.Active {
			glyph, style = glyphActive, st.active
		} else if f.Selected != "" {
			style = st.muted
		}
		c.Line(c0, r0, c1, r1, glyph, style)
	}

	for _, n := range f.Nodes {
		p, ok := pos[n.ID]
		if !ok {
			continue
		}
		col, row := CellOf(p)
		glyph, style := glyphNode, st.category(n)
		switch n.ID {
		case f.Selected:
			glyph, style = glyphFocus, st.focus
		case f.Hovered:
			glyph, style = glyphHover, st.hover
		}
		c.Set(col, row, glyph, style)
		if opts.Labels {
			labelStyle := st.label
			if f.Selected != "" && n.ID != f.Selected && !n.Connected {
				labelStyle = st.muted
			}
			c.Text(col+1+labelPadding, row, n.Label, labelStyle)
		}
	}
	return c.String()
}

type styles struct {
	enabled             bool
	edge, active, muted *lipgloss.Style
	focus, hover, label *lipgloss.Style
	categories          map[string]*lipgloss.Style
}

func newStyles(enabled bool) *styles {
	s := &styles{enabled: enabled, categories: map[string]*lipgloss.Style{}}
	if !enabled {
		return s
	}
	s.edge = fg(render.ColorEdge, false)
	s.active = fg(render.ColorEdgeActive, true)
	s.muted = fg(render.ColorMuted, false)
	s.focus = fg(render.ColorFocus, true)
	s.hover = fg(render.ColorHover, true)
	l := lipgloss.NewStyle()
	s.label = &l
	return s
}

func (s *styles) category(n view.FrameNode) *lipgloss.Style {
	if !s.enabled {
		return nil
	}
	hex := render.CategoryColor(n.Category)
	if st, ok := s.categories[hex]; ok {
		return st
	}
	st := fg(hex, false)
	s.categories[hex] = st
	return st
}

func fg(hex string, bold bool) *lipgloss.Style {
	st := lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Bold(bold)
	return &st
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

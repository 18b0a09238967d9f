// Package geom holds the small set of 2D primitives shared by the layout,
// motion and pick packages.
//
// Coordinates are screen coordinates: the origin is the top-left corner of
// the viewport and y grows downward, so increasing angles run clockwise.
package geom

import "math"

// Point is a position in viewport units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{X: p.X * f, Y: p.Y * f} }

// Len returns the Euclidean length of p.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return q.Sub(p).Len() }

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Polar returns the point at the given radius and angle (radians) from c.
func Polar(c Point, radius, angle float64) Point {
	return Point{
		X: c.X + radius*math.Cos(angle),
		Y: c.Y + radius*math.Sin(angle),
	}
}

// Viewport is the size of the drawing surface.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Sanitize returns a copy with negative, NaN and infinite dimensions
// replaced by zero.
func (v Viewport) Sanitize() Viewport {
	return Viewport{Width: clampDim(v.Width), Height: clampDim(v.Height)}
}

// IsEmpty reports whether the viewport has no drawable area.
func (v Viewport) IsEmpty() bool {
	s := v.Sanitize()
	return s.Width == 0 || s.Height == 0
}

// Center returns the centre of the sanitized viewport.
func (v Viewport) Center() Point {
	s := v.Sanitize()
	return Point{X: s.Width / 2, Y: s.Height / 2}
}

// MinSide returns min(width, height) of the sanitized viewport.
func (v Viewport) MinSide() float64 {
	s := v.Sanitize()
	return math.Min(s.Width, s.Height)
}

// Contains reports whether p lies inside the viewport bounds.
func (v Viewport) Contains(p Point) bool {
	s := v.Sanitize()
	return p.X >= 0 && p.Y >= 0 && p.X <= s.Width && p.Y <= s.Height
}

func clampDim(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

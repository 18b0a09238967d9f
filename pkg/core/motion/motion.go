// Package motion eases node positions toward their layout targets.
//
// Each call to [Advance] moves every node a fixed fraction of the way to
// its target (exponential ease-out) along the straight line between them.
// Once a node is within [Params.Epsilon] of its target it snaps exactly onto
// it, so the animation always terminates and never overshoots.
package motion

import (
	"math"

	"github.com/matzehuels/controlgraph/pkg/core/geom"
)

// Default easing parameters.
const (
	DefaultDamping = 0.1
	DefaultEpsilon = 0.5
)

// Node is a framework's animated position.
type Node struct {
	ID      string     `json:"id"`
	Current geom.Point `json:"current"`
	Target  geom.Point `json:"target"`
}

// Settled reports whether the node sits exactly on its target.
func (n Node) Settled() bool { return n.Current == n.Target }

// Params controls the easing step.
type Params struct {
	// Damping is the fraction of the remaining distance covered per step,
	// in (0, 1].
	Damping float64 `json:"damping" toml:"damping" yaml:"damping"`
	// Epsilon is the per-axis distance below which a node snaps to its
	// target. Must be positive.
	Epsilon float64 `json:"epsilon" toml:"epsilon" yaml:"epsilon"`
}

// DefaultParams returns the standard easing parameters.
func DefaultParams() Params {
	return Params{Damping: DefaultDamping, Epsilon: DefaultEpsilon}
}

// Normalize replaces out-of-range values with their defaults.
func (p Params) Normalize() Params {
	if !(p.Damping > 0 && p.Damping <= 1) {
		p.Damping = DefaultDamping
	}
	if !(p.Epsilon > 0) || math.IsInf(p.Epsilon, 0) {
		p.Epsilon = DefaultEpsilon
	}
	return p
}

// Advance performs one easing step on nodes in place and reports whether
// any node moved. A false result means every node was already settled and
// the animation can stop.
//
// A node whose current or target position is not finite is placed directly
// on its target (or left alone if the target itself is not finite).
func Advance(nodes []Node, p Params) bool {
	p = p.Normalize()
	active := false
	for i := range nodes {
		if step(&nodes[i], p) {
			active = true
		}
	}
	return active
}

func step(n *Node, p Params) bool {
	if !n.Target.IsFinite() {
		return false
	}
	if !n.Current.IsFinite() {
		n.Current = n.Target
		return true
	}
	d := n.Target.Sub(n.Current)
	if d == (geom.Point{}) {
		return false
	}
	if d.Len() > p.Epsilon {
		n.Current = n.Current.Add(d.Scale(p.Damping))
	} else {
		n.Current = n.Target
	}
	return true
}

// Snap places every node directly on its target.
func Snap(nodes []Node) {
	for i := range nodes {
		nodes[i].Current = nodes[i].Target
	}
}

// Settled reports whether every node sits on its target.
func Settled(nodes []Node) bool {
	for _, n := range nodes {
		if n.Target.IsFinite() && !n.Settled() {
			return false
		}
	}
	return true
}

// MaxSteps estimates how many Advance calls are needed to settle a
// displacement of dist under p. It is used to size test loops and to bound
// server-side animation.
func MaxSteps(dist float64, p Params) int {
	p = p.Normalize()
	if dist <= p.Epsilon || p.Damping >= 1 {
		return 1
	}
	// (1-d)^k * dist <= eps  =>  k >= log(eps/dist) / log(1-d)
	k := math.Log(p.Epsilon/dist) / math.Log(1-p.Damping)
	return int(math.Ceil(k)) + 1
}

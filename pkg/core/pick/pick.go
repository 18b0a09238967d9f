// Package pick maps pointer coordinates to framework nodes.
package pick

import (
	"math"

	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/core/motion"
)

// DefaultRadius is the pick radius in viewport units.
const DefaultRadius = 24.0

// HitTest returns the ID of the first node, in slice order, whose current
// position lies within radius of p. Nodes with non-finite positions are
// never hit. A non-positive or non-finite radius falls back to
// [DefaultRadius].
//
// The slice order is the catalog order, so overlapping nodes resolve
// deterministically regardless of hover state.
func HitTest(nodes []motion.Node, p geom.Point, radius float64) (string, bool) {
	if !p.IsFinite() {
		return "", false
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		radius = DefaultRadius
	}
	for _, n := range nodes {
		if !n.Current.IsFinite() {
			continue
		}
		if n.Current.Dist(p) <= radius {
			return n.ID, true
		}
	}
	return "", false
}

// Nearest returns the node closest to p within radius, breaking ties by
// slice order. It backs tooltips that should track the closest node when
// several overlap.
func Nearest(nodes []motion.Node, p geom.Point, radius float64) (string, bool) {
	if !p.IsFinite() {
		return "", false
	}
	if !(radius > 0) || math.IsInf(radius, 0) {
		radius = DefaultRadius
	}
	best, bestDist, found := "", math.Inf(1), false
	for _, n := range nodes {
		if !n.Current.IsFinite() {
			continue
		}
		if d := n.Current.Dist(p); d <= radius && d < bestDist {
			best, bestDist, found = n.ID, d, true
		}
	}
	return best, found
}

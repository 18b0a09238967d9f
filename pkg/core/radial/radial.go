package radial

import (
	"math"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/core/geom"
)

// Ring radii as fractions of min(width, height).
const (
	CircleRadius    = 0.35 // unfocused layout
	InnerRingRadius = 0.20 // frameworks connected to the focus
	OuterRingRadius = 0.38 // everything else while focused
)

// startAngle puts the first member of every ring at the top.
const startAngle = -math.Pi / 2

// Targets maps framework IDs to target positions.
type Targets map[string]geom.Point

// Ring identifies where a framework was placed.
type Ring int

const (
	RingCircle Ring = iota // unfocused circle
	RingCenter             // the focused framework
	RingInner
	RingOuter
)

func (r Ring) String() string {
	switch r {
	case RingCenter:
		return "center"
	case RingInner:
		return "inner"
	case RingOuter:
		return "outer"
	default:
		return "circle"
	}
}

// Result is the full output of [Compute].
type Result struct {
	Targets Targets
	// Rings records the ring each framework landed on.
	Rings map[string]Ring
	// Focus is the focus actually applied: empty when the request was
	// unfocused or named a framework that is not in the entity list.
	Focus string
	// Skipped lists relations ignored because an endpoint is unknown or
	// both endpoints are the same framework.
	Skipped []catalog.Relation
}

// ComputeTargets returns the target position of every framework.
// It is a pure function of its inputs. See [Compute] for the details.
func ComputeTargets(entities []catalog.Framework, relations []catalog.Relation, focusID string, vp geom.Viewport) Targets {
	return Compute(entities, relations, focusID, vp).Targets
}

// Compute lays out entities for the given focus.
//
// With no focus (focusID == "") entities sit on one circle in catalog order.
// With a focus, the focused framework sits at the centre, frameworks sharing
// a relation with it sit on the inner ring in order of their first
// connecting relation, and the rest sit on the outer ring in catalog order.
// A focusID that does not name an entity is treated as no focus.
//
// A viewport without area places every entity at its (clamped) centre.
func Compute(entities []catalog.Framework, relations []catalog.Relation, focusID string, vp geom.Viewport) Result {
	known := make(map[string]bool, len(entities))
	for _, e := range entities {
		known[e.ID] = true
	}

	res := Result{
		Targets: make(Targets, len(entities)),
		Rings:   make(map[string]Ring, len(entities)),
	}
	if focusID != "" && known[focusID] {
		res.Focus = focusID
	}

	var valid []catalog.Relation
	for _, r := range relations {
		if !known[r.Source] || !known[r.Target] || r.Source == r.Target {
			res.Skipped = append(res.Skipped, r)
			continue
		}
		valid = append(valid, r)
	}

	center := vp.Center()
	side := vp.MinSide()
	if vp.IsEmpty() {
		side = 0
	}

	if res.Focus == "" {
		ids := make([]string, len(entities))
		for i, e := range entities {
			ids[i] = e.ID
		}
		place(res, ids, center, CircleRadius*side, RingCircle)
		return res
	}

	res.Targets[res.Focus] = center
	res.Rings[res.Focus] = RingCenter

	connected := make(map[string]bool)
	var inner []string
	for _, r := range valid {
		other, ok := r.Other(res.Focus)
		if !ok || connected[other] {
			continue
		}
		connected[other] = true
		inner = append(inner, other)
	}

	var outer []string
	for _, e := range entities {
		if e.ID == res.Focus || connected[e.ID] {
			continue
		}
		outer = append(outer, e.ID)
	}

	place(res, inner, center, InnerRingRadius*side, RingInner)
	place(res, outer, center, OuterRingRadius*side, RingOuter)
	return res
}

// place distributes ids evenly on a ring, clockwise from the top.
// An empty ring places nothing.
func place(res Result, ids []string, center geom.Point, radius float64, ring Ring) {
	n := len(ids)
	if n == 0 {
		return
	}
	step := 2 * math.Pi / float64(n)
	for i, id := range ids {
		res.Targets[id] = geom.Polar(center, radius, startAngle+float64(i)*step)
		res.Rings[id] = ring
	}
}

// Angle returns the angle of p around c in degrees, normalised to
// (-180, 180]. The top of the viewport is -90.
func Angle(c, p geom.Point) float64 {
	return math.Atan2(p.Y-c.Y, p.X-c.X) * 180 / math.Pi
}

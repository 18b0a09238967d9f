package view

import (
	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/core/geom"
)

// Frame is an immutable snapshot of a view, enough for a presentation layer
// to draw circles, lines and labels.
type Frame struct {
	Seq       uint64        `json:"seq"`
	Viewport  geom.Viewport `json:"viewport"`
	Nodes     []FrameNode   `json:"nodes"`
	Edges     []Edge        `json:"edges"`
	Selected  string        `json:"selected,omitempty"`
	Hovered   string        `json:"hovered,omitempty"`
	Animating bool          `json:"animating"`
}

// FrameNode is one framework in a Frame.
type FrameNode struct {
	ID            string           `json:"id"`
	Label         string           `json:"label"`
	Category      catalog.Category `json:"category"`
	RelationCount int              `json:"relation_count"`
	Current       geom.Point       `json:"current"`
	Target        geom.Point       `json:"target"`
	Ring          string           `json:"ring"`
	// Connected is true when the node shares a relation with the selection.
	Connected bool `json:"connected,omitempty"`
}

// Edge is a drawable relation between two nodes of the frame.
type Edge struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Strength float64 `json:"strength"`
	// Active is true when the edge touches the selected framework.
	Active bool `json:"active,omitempty"`
}

// Node returns the node with the given ID.
func (f Frame) Node(id string) (FrameNode, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return FrameNode{}, false
}

// Positions returns the current position of every node keyed by ID.
func (f Frame) Positions() map[string]geom.Point {
	out := make(map[string]geom.Point, len(f.Nodes))
	for _, n := range f.Nodes {
		out[n.ID] = n.Current
	}
	return out
}

// Frame snapshots the view. Edges exclude relations with unknown endpoints
// and self-relations.
func (v *View) Frame() Frame {
	sel := v.sel.ID()
	f := Frame{
		Seq:       v.seq,
		Viewport:  v.vp,
		Selected:  sel,
		Hovered:   v.hover,
		Animating: v.active,
	}

	connected := make(map[string]bool)
	if len(v.nodes) > 0 {
		f.Edges = make([]Edge, 0, len(v.relations))
		for _, r := range v.relations {
			if !v.known[r.Source] || !v.known[r.Target] || r.Source == r.Target {
				continue
			}
			active := sel != "" && r.Touches(sel)
			if active {
				other, _ := r.Other(sel)
				connected[other] = true
			}
			f.Edges = append(f.Edges, Edge{
				Source:   r.Source,
				Target:   r.Target,
				Strength: r.Strength,
				Active:   active,
			})
		}
	}

	f.Nodes = make([]FrameNode, len(v.nodes))
	for i, n := range v.nodes {
		fw := v.frameworks[i]
		f.Nodes[i] = FrameNode{
			ID:            n.ID,
			Label:         fw.DisplayLabel(),
			Category:      fw.Category,
			RelationCount: fw.RelationCount,
			Current:       n.Current,
			Target:        n.Target,
			Ring:          v.rings[n.ID].String(),
			Connected:     connected[n.ID],
		}
	}
	return f
}

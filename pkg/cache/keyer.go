package cache

import (
	"fmt"

	"github.com/matzehuels/controlgraph/pkg/core/geom"
)

// Key type prefixes. The part before the first colon of every key is its
// type, which is what [Observed] reports to hooks.
const (
	KeyTypeLayout   = "layout"
	KeyTypeArtifact = "artifact"
)

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey identifies the targets of a catalog for a focus and
	// viewport.
	LayoutKey(catalogHash, focus string, vp geom.Viewport) string

	// ArtifactKey identifies a rendered frame.
	ArtifactKey(frameHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
	Targets  bool   `json:"targets,omitempty"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(catalogHash, focus string, vp geom.Viewport) string {
	vp = vp.Sanitize()
	return hashKey(KeyTypeLayout, catalogHash, focus, fmt.Sprintf("%.2fx%.2f", vp.Width, vp.Height))
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(frameHash string, opts ArtifactKeyOpts) string {
	return hashKey(KeyTypeArtifact, frameHash, opts)
}

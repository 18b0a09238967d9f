package radial_test

import (
	"fmt"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/core/radial"
)

func ExampleComputeTargets() {
	ents := []catalog.Framework{{ID: "A"}, {ID: "B"}, {ID: "C"}}
	rels := []catalog.Relation{{Source: "A", Target: "B", Strength: 0.5}}
	vp := geom.Viewport{Width: 200, Height: 200}

	unfocused := radial.ComputeTargets(ents, rels, "", vp)
	for _, e := range ents {
		p := unfocused[e.ID]
		fmt.Printf("%s (%.1f, %.1f)\n", e.ID, p.X, p.Y)
	}

	focused := radial.ComputeTargets(ents, rels, "A", vp)
	for _, e := range ents {
		p := focused[e.ID]
		fmt.Printf("%s (%.1f, %.1f)\n", e.ID, p.X, p.Y)
	}
	// Output:
	// A (100.0, 30.0)
	// B (160.6, 135.0)
	// C (39.4, 135.0)
	// A (100.0, 100.0)
	// B (100.0, 60.0)
	// C (100.0, 24.0)
}

func ExampleCompute() {
	ents := []catalog.Framework{{ID: "a"}, {ID: "b"}}
	rels := []catalog.Relation{
		{Source: "a", Target: "b", Strength: 1},
		{Source: "a", Target: "ghost", Strength: 1},
	}
	res := radial.Compute(ents, rels, "a", geom.Viewport{Width: 100, Height: 100})

	fmt.Println("focus:", res.Focus)
	fmt.Println("b ring:", res.Rings["b"])
	fmt.Println("skipped:", len(res.Skipped))
	// Output:
	// focus: a
	// b ring: inner
	// skipped: 1
}

package view

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/core/radial"
	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/observability"
)

func abc() *catalog.Catalog {
	return &catalog.Catalog{
		Frameworks: []catalog.Framework{
			{ID: "A", Category: catalog.CategoryIndustry},
			{ID: "B", Category: catalog.CategoryUSFederal},
			{ID: "C", Category: catalog.CategoryRegional},
		},
		Relations: []catalog.Relation{{Source: "A", Target: "B", Strength: 0.5}},
	}
}

var square = geom.Viewport{Width: 600, Height: 600}

func targetsOf(v *View) radial.Targets {
	out := radial.Targets{}
	for _, n := range v.Nodes() {
		out[n.ID] = n.Target
	}
	return out
}

func sameTargets(t *testing.T, got, want radial.Targets) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("targets = %d entries, want %d", len(got), len(want))
	}
	for id, p := range want {
		if got[id] != p {
			t.Errorf("target[%s] = %v, want %v", id, got[id], p)
		}
	}
}

func TestSelectionTransitions(t *testing.T) {
	tests := []struct {
		name     string
		from     Selection
		hit      string
		ok       bool
		deselect bool
		want     Selection
	}{
		{"unfocused hit", Selection{}, "a", true, true, Focused("a")},
		{"unfocused miss", Selection{}, "", false, true, Selection{}},
		{"focused hit other", Focused("a"), "b", true, true, Focused("b")},
		{"focused hit same", Focused("a"), "a", true, true, Selection{}},
		{"focused miss deselects", Focused("a"), "", false, true, Selection{}},
		{"focused miss ignored", Focused("a"), "", false, false, Focused("a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.Click(tt.hit, tt.ok, tt.deselect); got != tt.want {
				t.Errorf("Click() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := Focused("a").Close(); got.IsFocused() {
		t.Errorf("Close() = %v, want unfocused", got)
	}
	if got := (Selection{}).Focus("x"); got.ID() != "x" {
		t.Errorf("Focus(x) = %v, want focused(x)", got)
	}
}

func TestPointerBeforeLayout(t *testing.T) {
	v := New(abc())

	if id, ok := v.Hover(geom.Point{X: 1, Y: 1}); ok {
		t.Errorf("Hover before layout = %q, want no hit", id)
	}
	if _, ok := v.Click(geom.Point{X: 1, Y: 1}); ok {
		t.Error("Click before layout selected something")
	}
	if v.Tick() {
		t.Error("Tick before layout = true, want false")
	}
	if f := v.Frame(); len(f.Nodes) != 0 || len(f.Edges) != 0 {
		t.Errorf("Frame before layout = %d nodes, %d edges, want none", len(f.Nodes), len(f.Edges))
	}
}

func TestFirstLayoutSnaps(t *testing.T) {
	v := New(abc())
	v.Resize(square)

	if v.Animating() {
		t.Error("Animating() after first layout = true, want false")
	}
	for _, n := range v.Nodes() {
		if n.Current != n.Target {
			t.Errorf("%s current %v != target %v", n.ID, n.Current, n.Target)
		}
	}
	sameTargets(t, targetsOf(v), radial.ComputeTargets(abc().Frameworks, abc().Relations, "", square))
}

func TestFocusScenario(t *testing.T) {
	c := abc()
	var selected []string
	v := New(c, WithSelectHandler(func(id string) { selected = append(selected, id) }))
	v.Resize(square)

	if err := v.Focus("A"); err != nil {
		t.Fatalf("Focus(A): %v", err)
	}
	if !v.Animating() {
		t.Fatal("Animating() after focus = false, want true")
	}
	sameTargets(t, targetsOf(v), radial.ComputeTargets(c.Frameworks, c.Relations, "A", square))

	if n := v.Settle(); n == 0 {
		t.Error("Settle() took 0 ticks")
	}
	if v.Animating() {
		t.Error("Animating() after Settle = true")
	}

	// Clicking empty space deselects and returns to the circle.
	if id, ok := v.Click(geom.Point{X: 5, Y: 5}); ok {
		t.Fatalf("Click(empty) = %q, want unfocused", id)
	}
	sameTargets(t, targetsOf(v), radial.ComputeTargets(c.Frameworks, c.Relations, "", square))

	if len(selected) != 2 || selected[0] != "A" || selected[1] != "" {
		t.Errorf("select handler saw %q, want [A \"\"]", selected)
	}
}

func TestClickEmptySpaceNoop(t *testing.T) {
	c := abc()
	v := New(c, WithDeselectOnMiss(false))
	v.Resize(square)
	_ = v.Focus("A")
	v.Settle()

	if id, ok := v.Click(geom.Point{X: 5, Y: 5}); !ok || id != "A" {
		t.Errorf("Click(empty) = (%q, %v), want (A, true)", id, ok)
	}
	sameTargets(t, targetsOf(v), radial.ComputeTargets(c.Frameworks, c.Relations, "A", square))
}

func TestClickNodes(t *testing.T) {
	v := New(abc())
	v.Resize(square)
	center := square.Center()

	// C sits at 150° on the unfocused circle.
	cPos := geom.Polar(center, radial.CircleRadius*600, 150*math.Pi/180)
	if id, ok := v.Click(cPos); !ok || id != "C" {
		t.Fatalf("Click(C) = (%q, %v), want (C, true)", id, ok)
	}

	// The picker uses current positions: C has not moved yet.
	if id, ok := v.Click(cPos); ok {
		t.Fatalf("second Click(C) = %q, want deselect", id)
	}
}

func TestClickSwitchesFocusMidAnimation(t *testing.T) {
	v := New(abc())
	v.Resize(square)
	_ = v.Focus("A")
	v.Tick()

	b := v.Frame()
	bNode, _ := b.Node("B")
	if id, ok := v.Click(bNode.Current); !ok || id != "B" {
		t.Fatalf("Click(B) = (%q, %v), want (B, true)", id, ok)
	}
	if got, _ := v.Selected(); got != "B" {
		t.Errorf("Selected() = %q, want B", got)
	}
}

func TestFocusUnknown(t *testing.T) {
	v := New(abc())
	v.Resize(square)
	_ = v.Focus("A")

	err := v.Focus("nope")
	if !errors.Is(err, errors.ErrCodeUnknownEntity) {
		t.Fatalf("Focus(nope) = %v, want %s", err, errors.ErrCodeUnknownEntity)
	}
	if id, _ := v.Selected(); id != "A" {
		t.Errorf("Selected() = %q, want A unchanged", id)
	}
}

func TestFocusBeforeResize(t *testing.T) {
	c := abc()
	v := New(c)
	if err := v.Focus("B"); err != nil {
		t.Fatal(err)
	}
	if len(v.Nodes()) != 0 {
		t.Fatal("nodes created before the first resize")
	}
	v.Resize(square)
	if v.Animating() {
		t.Error("first layout should snap even when focused")
	}
	sameTargets(t, targetsOf(v), radial.ComputeTargets(c.Frameworks, c.Relations, "B", square))
}

func TestHoverAndLeave(t *testing.T) {
	var hovers []string
	v := New(abc(), WithHoverHandler(func(id string) { hovers = append(hovers, id) }))
	v.Resize(square)

	top := geom.Point{X: 300, Y: 300 - radial.CircleRadius*600}
	if id, ok := v.Hover(top); !ok || id != "A" {
		t.Fatalf("Hover(top) = (%q, %v), want (A, true)", id, ok)
	}
	v.Hover(geom.Point{X: top.X + 1, Y: top.Y}) // same node, no callback
	v.Leave()

	if len(hovers) != 2 || hovers[0] != "A" || hovers[1] != "" {
		t.Errorf("hover handler saw %q, want [A \"\"]", hovers)
	}
	if v.Hovered() != "" {
		t.Errorf("Hovered() = %q after Leave", v.Hovered())
	}
}

func TestResizeDegenerate(t *testing.T) {
	v := New(abc())
	v.Resize(geom.Viewport{Width: math.NaN(), Height: -10})
	for _, n := range v.Nodes() {
		if !n.Current.IsFinite() || !n.Target.IsFinite() {
			t.Errorf("%s not finite: %+v", n.ID, n)
		}
	}
	v.Resize(square)
	if !v.Animating() {
		t.Error("growing the viewport should animate nodes outward")
	}
}

func TestFrame(t *testing.T) {
	c := abc()
	c.Relations = append(c.Relations,
		catalog.Relation{Source: "A", Target: "ghost", Strength: 1},
		catalog.Relation{Source: "C", Target: "C", Strength: 1},
	)
	v := New(c)
	v.Resize(square)
	_ = v.Focus("B")

	f := v.Frame()
	if f.Selected != "B" || !f.Animating {
		t.Errorf("Frame selected=%q animating=%v, want B true", f.Selected, f.Animating)
	}
	if len(f.Edges) != 1 || !f.Edges[0].Active {
		t.Fatalf("Edges = %+v, want one active edge", f.Edges)
	}
	a, _ := f.Node("A")
	if !a.Connected || a.Ring != "inner" {
		t.Errorf("A = %+v, want connected inner", a)
	}
	if b, _ := f.Node("B"); b.Ring != "center" {
		t.Errorf("B ring = %s, want center", b.Ring)
	}
	cn, _ := f.Node("C")
	if cn.Connected || cn.Ring != "outer" {
		t.Errorf("C = %+v, want unconnected outer", cn)
	}

	before := f.Seq
	v.Tick()
	if v.Frame().Seq <= before {
		t.Error("Seq did not advance on tick")
	}
}

type recordingHooks struct {
	observability.NoopViewHooks
	layouts, selects, settled int
	skipped                   int
}

func (h *recordingHooks) OnLayout(_ context.Context, _ string, _, skipped int, _ time.Duration) {
	h.layouts++
	h.skipped += skipped
}
func (h *recordingHooks) OnSelect(context.Context, string, string) { h.selects++ }
func (h *recordingHooks) OnSettled(context.Context, int, time.Duration) {
	h.settled++
}

func TestHooks(t *testing.T) {
	c := abc()
	c.Relations = append(c.Relations, catalog.Relation{Source: "A", Target: "ghost"})
	h := &recordingHooks{}
	v := New(c, WithHooks(h))

	v.Resize(square)
	_ = v.Focus("A")
	v.Settle()
	v.Settle()

	if h.layouts != 2 || h.selects != 1 || h.settled != 1 {
		t.Errorf("hooks = %+v, want 2 layouts, 1 select, 1 settled", h)
	}
	if h.skipped != 2 {
		t.Errorf("skipped = %d, want 2", h.skipped)
	}
}

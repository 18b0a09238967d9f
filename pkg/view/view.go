package view

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/core/motion"
	"github.com/matzehuels/controlgraph/pkg/core/pick"
	"github.com/matzehuels/controlgraph/pkg/core/radial"
	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/observability"
)

// Selection sources reported to hooks.
const (
	SourceClick    = "click"
	SourceExternal = "external"
	SourceClose    = "close"
)

// View is an interactive framework graph. See the package documentation.
type View struct {
	frameworks []catalog.Framework
	relations  []catalog.Relation
	known      map[string]bool

	nodes  []motion.Node
	rings  map[string]radial.Ring
	vp     geom.Viewport
	sized  bool
	sel    Selection
	hover  string
	seq    uint64
	active bool

	ticks     int
	animStart time.Time

	params         motion.Params
	pickRadius     float64
	deselectOnMiss bool
	onSelect       func(id string)
	onHover        func(id string)
	hooks          observability.ViewHooks
	logger         *log.Logger
	ctx            context.Context
	now            func() time.Time
}

// Option configures a View.
type Option func(*View)

// WithLogger sets the logger used for layout diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithParams sets the easing parameters. Invalid values fall back to
// [motion.DefaultParams].
func WithParams(p motion.Params) Option {
	return func(v *View) { v.params = p.Normalize() }
}

// WithPickRadius sets the hover/click radius in viewport units.
func WithPickRadius(r float64) Option {
	return func(v *View) {
		if r > 0 {
			v.pickRadius = r
		}
	}
}

// WithDeselectOnMiss controls whether clicking empty space clears the
// selection (the default) or is ignored.
func WithDeselectOnMiss(deselect bool) Option {
	return func(v *View) { v.deselectOnMiss = deselect }
}

// WithSelectHandler registers fn to be called after every selection change
// with the new focus ("" when unfocused).
func WithSelectHandler(fn func(id string)) Option {
	return func(v *View) { v.onSelect = fn }
}

// WithHoverHandler registers fn to be called whenever the hovered
// framework changes ("" when nothing is hovered).
func WithHoverHandler(fn func(id string)) Option {
	return func(v *View) { v.onHover = fn }
}

// WithHooks overrides the globally registered view hooks.
func WithHooks(h observability.ViewHooks) Option {
	return func(v *View) {
		if h != nil {
			v.hooks = h
		}
	}
}

// WithContext sets the context passed to hooks.
func WithContext(ctx context.Context) Option {
	return func(v *View) {
		if ctx != nil {
			v.ctx = ctx
		}
	}
}

// New creates a view over the frameworks and relations of c. The node set
// is empty until the first [View.Resize].
func New(c *catalog.Catalog, opts ...Option) *View {
	v := &View{
		frameworks:     c.Frameworks,
		relations:      c.Relations,
		known:          make(map[string]bool, len(c.Frameworks)),
		params:         motion.DefaultParams(),
		pickRadius:     pick.DefaultRadius,
		deselectOnMiss: true,
		hooks:          observability.View(),
		logger:         log.New(io.Discard),
		ctx:            context.Background(),
		now:            time.Now,
	}
	for _, f := range c.Frameworks {
		v.known[f.ID] = true
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// =============================================================================
// Inputs
// =============================================================================

// Resize sets the viewport and recomputes targets. The first call creates
// the node set with every node already at its target.
func (v *View) Resize(vp geom.Viewport) {
	v.vp = vp.Sanitize()
	v.sized = true
	v.relayout()
}

// Focus focuses id directly, bypassing the picker. It returns an
// ErrCodeUnknownEntity error and leaves the state unchanged when id is not
// a framework of this view.
func (v *View) Focus(id string) error {
	if !v.known[id] {
		return errors.New(errors.ErrCodeUnknownEntity, "unknown framework: %s", id)
	}
	v.setSelection(v.sel.Focus(id), SourceExternal)
	return nil
}

// ClearFocus returns to the unfocused layout.
func (v *View) ClearFocus() {
	v.setSelection(v.sel.Close(), SourceClose)
}

// Click resolves p against current node positions and applies the
// selection transition. It returns the selection after the click.
func (v *View) Click(p geom.Point) (string, bool) {
	id, ok := pick.HitTest(v.nodes, p, v.pickRadius)
	v.setSelection(v.sel.Click(id, ok, v.deselectOnMiss), SourceClick)
	return v.sel.ID(), v.sel.IsFocused()
}

// Hover updates the hovered framework for a pointer at p and returns it.
func (v *View) Hover(p geom.Point) (string, bool) {
	id, ok := pick.HitTest(v.nodes, p, v.pickRadius)
	v.setHover(id)
	return id, ok
}

// Leave clears the hover state when the pointer leaves the surface.
func (v *View) Leave() {
	v.setHover("")
}

// Tick advances the animation one step and reports whether another tick is
// needed. Ticking a settled view is a no-op.
func (v *View) Tick() bool {
	if len(v.nodes) == 0 {
		return false
	}
	moved := motion.Advance(v.nodes, v.params)
	if moved {
		v.ticks++
		v.seq++
	}
	if v.active && !moved {
		v.hooks.OnSettled(v.ctx, v.ticks, v.now().Sub(v.animStart))
		v.logger.Debug("settled", "ticks", v.ticks, "focus", v.sel.ID())
	}
	v.active = moved
	return moved
}

// Settle ticks until the animation converges and returns the number of
// ticks taken.
func (v *View) Settle() int {
	n := 0
	for v.Tick() {
		n++
	}
	return n
}

// =============================================================================
// Outputs
// =============================================================================

// Selected returns the focused framework.
func (v *View) Selected() (string, bool) { return v.sel.ID(), v.sel.IsFocused() }

// Selection returns the selection state.
func (v *View) Selection() Selection { return v.sel }

// Hovered returns the hovered framework, or "".
func (v *View) Hovered() string { return v.hover }

// Animating reports whether any node is still moving toward its target.
func (v *View) Animating() bool { return v.active }

// Viewport returns the sanitized viewport.
func (v *View) Viewport() geom.Viewport { return v.vp }

// Nodes returns a copy of the positioned nodes in catalog order.
func (v *View) Nodes() []motion.Node {
	out := make([]motion.Node, len(v.nodes))
	copy(out, v.nodes)
	return out
}

// =============================================================================
// Internals
// =============================================================================

func (v *View) setSelection(next Selection, source string) {
	if next == v.sel {
		return
	}
	prev := v.sel
	v.sel = next
	v.logger.Debug("selection", "from", prev, "to", next, "source", source)
	v.hooks.OnSelect(v.ctx, next.ID(), source)
	v.relayout()
	if v.onSelect != nil {
		v.onSelect(next.ID())
	}
}

func (v *View) setHover(id string) {
	if id == v.hover {
		return
	}
	v.hover = id
	v.seq++
	if v.onHover != nil {
		v.onHover(id)
	}
}

// relayout recomputes every target for the current selection and viewport.
// Before the first Resize there is nothing to lay out.
func (v *View) relayout() {
	if !v.sized {
		return
	}
	start := v.now()
	res := radial.Compute(v.frameworks, v.relations, v.sel.ID(), v.vp)
	for _, r := range res.Skipped {
		v.logger.Debug("skipping relation", "source", r.Source, "target", r.Target)
	}

	first := v.nodes == nil
	if first {
		v.nodes = make([]motion.Node, len(v.frameworks))
	}
	for i, f := range v.frameworks {
		n := &v.nodes[i]
		n.ID = f.ID
		n.Target = res.Targets[f.ID]
		if first {
			n.Current = n.Target
		}
	}
	v.rings = res.Rings
	v.seq++

	if !motion.Settled(v.nodes) {
		if !v.active {
			v.ticks = 0
			v.animStart = start
		}
		v.active = true
	}

	v.hooks.OnLayout(v.ctx, res.Focus, len(v.nodes), len(res.Skipped), v.now().Sub(start))
}

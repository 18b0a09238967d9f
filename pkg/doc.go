// Package pkg provides the core libraries for controlgraph, an interactive
// map of security and compliance frameworks.
//
// # Overview
//
// controlgraph draws frameworks as nodes on a circle joined by their
// relations. Focusing a framework moves it to the center, gathers the
// frameworks it relates to on an inner ring and pushes the rest to an outer
// ring; every move is eased so the picture animates between layouts. The pkg
// directory is organized into five areas:
//
//  1. [core] - Geometry and the layout, animation and hit-testing algorithms
//  2. [view] - The selection state machine and frame snapshots
//  3. [catalog] and [compliance] - Static data and fabricated status
//  4. [render] - DOT, Graphviz and terminal output
//  5. [server], [session], [cache] - Serving views over HTTP
//
// # Architecture
//
// The data flow for one interaction:
//
//	pointer event (terminal cell or HTTP request)
//	         ↓
//	    [core/pick] package (which node is under the pointer)
//	         ↓
//	    [view] package (selection transition, new targets)
//	         ↓
//	    [core/radial] package (target of every framework)
//	         ↓
//	    [core/motion] package (one easing step per tick)
//	         ↓
//	    [view.Frame] → terminal, SVG/PNG/PDF, or JSON
//
// # Quick Start
//
// Focus a framework and render the settled picture:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/controlgraph/pkg/catalog"
//	    "github.com/matzehuels/controlgraph/pkg/pipeline"
//	)
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(context.Background(), catalog.Default(), pipeline.Options{
//	    Focus:   "iso27001",
//	    Formats: []string{"svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// Drive a view by hand:
//
//	v := view.New(catalog.Default())
//	v.Resize(geom.Viewport{Width: 800, Height: 600})
//	v.Click(geom.Point{X: 400, Y: 90})
//	for v.Tick() {
//	    draw(v.Frame())
//	}
//
// # Main Packages
//
// ## Core Algorithms
//
// [core/geom] - Points, viewports and polar placement in screen coordinates
// (y grows downward).
//
// [core/radial] - Target positions for the unfocused circle and the focused
// center, inner and outer rings. Pure and deterministic.
//
// [core/motion] - Exponential easing of node positions toward their targets,
// with a settle threshold.
//
// [core/pick] - Nearest-node hit testing within a pick radius, ties broken by
// catalog order.
//
// ## Interaction
//
// [view] - Owns nodes, the selection and hover state. [view.Loop] serializes
// events and refresh ticks on one goroutine for concurrent callers.
//
// ## Data
//
// [catalog] - Frameworks, relations, controls and resources, loaded from
// TOML, YAML or JSON. A sample catalog is embedded.
//
// [compliance] - Seeded, reproducible status for sample controls and
// per-framework tallies.
//
// ## Output
//
// [render/nodelink] - Graphviz DOT with pinned positions, rendered to SVG and
// PNG by go-graphviz.
//
// [render/term] - Character-grid rasterizer for the terminal explorer.
//
// [pipeline] - Settle a view and render it through the cache. Shared by the
// CLI render command and the HTTP frame endpoint.
//
// ## Infrastructure
//
// [cache] - Artifact and layout cache with file, Redis and null backends.
//
// [session] - View sessions with idle expiry and per-session rate limits.
//
// [server] - chi router exposing catalog, layout, compliance and view
// endpoints.
//
// [config] - TOML configuration with environment overrides and validation.
//
// [observability] - Hook interfaces; [observability/prom] implements them with
// Prometheus metrics.
//
// [httputil] - Fetching remote catalogs with retry and caching.
//
// # Testing
//
// Run tests:
//
//	go test ./...                     # All tests
//	go test ./pkg/core/...            # Algorithms only
//	go test -run Example ./pkg/...    # Examples only
//
// [core]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/core
// [core/geom]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/core/geom
// [core/radial]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/core/radial
// [core/motion]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/core/motion
// [core/pick]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/core/pick
// [view]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/view
// [view.Frame]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/view#Frame
// [view.Loop]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/view#Loop
// [catalog]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/catalog
// [compliance]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/compliance
// [render]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/render
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/render/nodelink
// [render/term]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/render/term
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/cache
// [session]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/session
// [server]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/observability/prom
// [httputil]: https://pkg.go.dev/github.com/matzehuels/controlgraph/pkg/httputil
package pkg

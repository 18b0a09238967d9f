package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/controlgraph/pkg/cache"
	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/core/geom"
	"github.com/matzehuels/controlgraph/pkg/errors"
	"github.com/matzehuels/controlgraph/pkg/render/nodelink"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// DefaultArtifactTTL is how long rendered artifacts stay cached.
const DefaultArtifactTTL = 24 * time.Hour

// Runner executes the pipeline with caching. It holds no per-run state, so
// one Runner can serve concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// ViewOptions are applied to the view built by Settle.
	ViewOptions []view.Option
	// TTL bounds the lifetime of cached artifacts.
	TTL time.Duration
	// SVG converts DOT to SVG. Defaults to [nodelink.RenderSVG].
	SVG SVGRenderer
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    DefaultArtifactTTL,
		SVG:    nodelink.RenderSVG,
	}
}

// Execute settles the catalog for opts.Focus and renders every requested
// format.
func (r *Runner) Execute(ctx context.Context, cat *catalog.Catalog, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	settleStart := time.Now()
	frame, ticks, err := r.Settle(cat, opts)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Frame: frame,
		Stats: Stats{
			Nodes:      len(frame.Nodes),
			Edges:      len(frame.Edges),
			Ticks:      ticks,
			SettleTime: time.Since(settleStart),
		},
	}
	r.Logger.Debug("settled frame",
		"focus", opts.Focus,
		"ticks", ticks,
		"duration", result.Stats.SettleTime)

	renderStart := time.Now()
	artifacts, hit, err := r.RenderFrame(ctx, frame, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheHit = hit
	result.Stats.RenderTime = time.Since(renderStart)

	r.Logger.Debug("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Settle builds a view of cat, focuses opts.Focus and runs the animation to
// rest. It returns the settled frame and the number of ticks it took. An
// unknown focus is an error.
func (r *Runner) Settle(cat *catalog.Catalog, opts Options) (view.Frame, int, error) {
	vopts := append(slices.Clone(r.ViewOptions), view.WithLogger(r.Logger))
	v := view.New(cat, vopts...)
	v.Resize(geom.Viewport{Width: opts.Width, Height: opts.Height})
	if opts.Focus != "" {
		if err := v.Focus(opts.Focus); err != nil {
			return view.Frame{}, 0, err
		}
	}
	ticks := v.Settle()
	return v.Frame(), ticks, nil
}

// RenderFrame renders f in every format of opts. Graphviz formats go through
// the cache, keyed by the frame's content so that identical pictures share an
// entry regardless of their sequence number. The returned bool is true when
// every cached format was a hit.
func (r *Runner) RenderFrame(ctx context.Context, f view.Frame, opts Options) (map[string][]byte, bool, error) {
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	nlOpts := nodelink.Options{Detailed: opts.Detailed, Targets: opts.Targets}

	keyed := f
	keyed.Seq = 0
	frameHash, err := cache.HashJSON(keyed)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash frame")
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	allHit, anyCached := true, false
	for _, format := range opts.Formats {
		if !slices.Contains(cachedFormats, format) {
			data, err := Render(ctx, f, format, nlOpts, r.SVG)
			if err != nil {
				return nil, false, fmt.Errorf("render %s: %w", format, err)
			}
			artifacts[format] = data
			continue
		}
		anyCached = true

		key := r.Keyer.ArtifactKey(frameHash, cache.ArtifactKeyOpts{
			Format:   format,
			Detailed: opts.Detailed,
			Targets:  opts.Targets,
		})
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				artifacts[format] = data
				continue
			} else if err != nil {
				r.Logger.Warn("cache read failed", "key", key, "err", err)
			}
		}

		allHit = false
		data, err := Render(ctx, f, format, nlOpts, r.SVG)
		if err != nil {
			return nil, false, fmt.Errorf("render %s: %w", format, err)
		}
		if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
			r.Logger.Warn("cache write failed", "key", key, "err", err)
		}
		artifacts[format] = data
	}

	return artifacts, anyCached && allHit, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

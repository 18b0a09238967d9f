// Package server exposes the catalog, layouts, compliance data and
// interactive view sessions over HTTP.
//
// Read-only endpoints are pure functions of the catalog and their query
// parameters. View endpoints operate on a [session.Session], whose
// [view.Loop] serializes every pointer event, focus change and refresh
// tick on one goroutine per session.
//
// # Routes
//
//	GET    /healthz
//	GET    /api/catalog
//	GET    /api/frameworks/{id}
//	GET    /api/layout?focus=&width=&height=
//	GET    /api/compliance?seed=&status=
//	POST   /api/compliance/controls/{id}/cycle
//	GET    /api/resources?q=&category=
//	POST   /api/views
//	GET    /api/views/{id}
//	GET    /api/views/{id}/frame.svg
//	POST   /api/views/{id}/pointer
//	PUT    /api/views/{id}/focus
//	DELETE /api/views/{id}/focus
//	PUT    /api/views/{id}/viewport
//	DELETE /api/views/{id}
//	GET    /metrics
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/matzehuels/controlgraph/pkg/cache"
	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/compliance"
	"github.com/matzehuels/controlgraph/pkg/observability"
	"github.com/matzehuels/controlgraph/pkg/pipeline"
	"github.com/matzehuels/controlgraph/pkg/session"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// DefaultArtifactTTL is how long rendered frames stay cached.
const DefaultArtifactTTL = time.Hour

// Options configures a Server. Only Catalog is required.
type Options struct {
	Catalog  *catalog.Catalog
	Sessions *session.Store
	Cache    cache.Cache
	Keyer    cache.Keyer

	// ViewOptions are applied to every view session.
	ViewOptions []view.Option

	// AllowedOrigins enables CORS for the given origins.
	AllowedOrigins []string

	// Seed is the compliance seed used when a request names none. It also
	// seeds the tracker whose statuses users cycle by hand.
	Seed uint64

	// Now is the tracker's clock. Defaults to time.Now.
	Now func() time.Time

	// Metrics, if set, is mounted at /metrics.
	Metrics http.Handler

	ArtifactTTL time.Duration
	Logger      *log.Logger
	Hooks       observability.HTTPHooks

	// RenderSVG converts DOT to SVG. Defaults to [nodelink.RenderSVG].
	RenderSVG pipeline.SVGRenderer
}

// Server is the HTTP front end.
type Server struct {
	catalog     *catalog.Catalog
	catalogHash string
	sessions    *session.Store
	cache       cache.Cache
	keyer       cache.Keyer
	viewOpts    []view.Option
	seed        uint64
	tracker     *compliance.Tracker
	artifactTTL time.Duration
	logger      *log.Logger
	hooks       observability.HTTPHooks
	runner      *pipeline.Runner

	router chi.Router
}

// New creates a server. It panics if opts.Catalog is nil.
func New(opts Options) *Server {
	if opts.Catalog == nil {
		panic("server: nil catalog")
	}
	s := &Server{
		catalog:     opts.Catalog,
		sessions:    opts.Sessions,
		cache:       opts.Cache,
		keyer:       opts.Keyer,
		viewOpts:    opts.ViewOptions,
		seed:        opts.Seed,
		artifactTTL: opts.ArtifactTTL,
		logger:      opts.Logger,
		hooks:       opts.Hooks,
	}
	if s.sessions == nil {
		s.sessions = session.NewStore()
	}
	if s.cache == nil {
		s.cache = cache.NewNullCache()
	}
	if s.keyer == nil {
		s.keyer = cache.NewDefaultKeyer()
	}
	if s.artifactTTL <= 0 {
		s.artifactTTL = DefaultArtifactTTL
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.hooks == nil {
		s.hooks = observability.HTTP()
	}
	s.runner = pipeline.NewRunner(s.cache, s.keyer, s.logger)
	s.runner.TTL = s.artifactTTL
	if opts.RenderSVG != nil {
		s.runner.SVG = opts.RenderSVG
	}
	s.catalogHash, _ = cache.HashJSON(s.catalog)
	s.tracker = compliance.NewTracker(s.catalog.Controls, compliance.Seeded(s.seed), opts.Now)

	s.router = s.routes(opts.AllowedOrigins, opts.Metrics)
	return s
}

func (s *Server) routes(origins []string, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID", "X-Cache"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.handleHealth)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/frameworks/{id}", s.handleFramework)
		r.Get("/layout", s.handleLayout)
		r.Get("/compliance", s.handleCompliance)
		r.Post("/compliance/controls/{id}/cycle", s.handleCycleControl)
		r.Get("/resources", s.handleResources)

		r.Post("/views", s.handleCreateView)
		r.Route("/views/{id}", func(r chi.Router) {
			r.Use(s.withSession)
			r.Get("/", s.handleGetView)
			r.Delete("/", s.handleDeleteView)
			r.Get("/frame.svg", s.handleFrameSVG)
			r.With(s.limitEvents).Post("/pointer", s.handlePointer)
			r.Put("/focus", s.handleFocus)
			r.Delete("/focus", s.handleClearFocus)
			r.Put("/viewport", s.handleViewport)
		})
	})
	return r
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Sessions returns the session store.
func (s *Server) Sessions() *session.Store { return s.sessions }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

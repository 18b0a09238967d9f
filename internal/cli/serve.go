package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/controlgraph/pkg/observability/prom"
	"github.com/matzehuels/controlgraph/pkg/server"
	"github.com/matzehuels/controlgraph/pkg/session"
	"github.com/matzehuels/controlgraph/pkg/view"
)

// janitorInterval is how often idle view sessions are swept.
const janitorInterval = time.Minute

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog, layouts and interactive views over HTTP",
		Long: `Serve the catalog, layouts and interactive views over HTTP.

Each view session runs its own animation loop; idle sessions are closed after
server.session_ttl. Prometheus metrics are exposed at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return c.runServe(cmd.Context(), addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr config value)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool) error {
	cat, err := c.loadCatalog(ctx)
	if err != nil {
		return err
	}

	collector := prom.New(appName)
	collector.Install()

	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	sc := c.cfg.Server
	sessions := session.NewStore(
		session.WithTTL(sc.SessionTTL),
		session.WithMaxSessions(sc.MaxSessions),
		session.WithFrameInterval(c.cfg.View.FrameInterval),
		session.WithEventLimit(sc.RateLimit, sc.Burst),
	)
	defer sessions.Close()

	srv := server.New(server.Options{
		Catalog:        cat,
		Sessions:       sessions,
		Cache:          store,
		ViewOptions:    append(c.cfg.View.Options(), view.WithLogger(c.Logger)),
		AllowedOrigins: sc.AllowedOrigins,
		Seed:           c.cfg.Compliance.Seed,
		Metrics:        collector.Handler(),
		ArtifactTTL:    c.cfg.Cache.TTL,
		Logger:         c.Logger,
	})

	printSuccess("Serving %d frameworks", len(cat.Frameworks))
	printKeyValue("Address", StyleLink.Render("http://"+addr))
	printKeyValue("Metrics", StyleLink.Render("http://"+addr+"/metrics"))
	printKeyValue("Cache", c.cfg.Cache.Backend)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx, addr) })
	g.Go(func() error { return sessions.Janitor(gctx, janitorInterval) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	c.Logger.Info("server stopped", "sessions", sessions.Len())
	return nil
}

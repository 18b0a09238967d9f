package cli

import (
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/controlgraph/pkg/buildinfo"
	"github.com/matzehuels/controlgraph/pkg/cache"
	"github.com/matzehuels/controlgraph/pkg/catalog"
	"github.com/matzehuels/controlgraph/pkg/config"
	"github.com/matzehuels/controlgraph/pkg/httputil"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "controlgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath  string
	catalogPath string
	cfg         *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "controlgraph explores how security frameworks relate",
		Long: `controlgraph maps security and compliance frameworks as an interactive radial
graph. Focus a framework to pull its related frameworks into an inner ring and
push everything else out; explore it in the terminal, render it, or serve it
over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/controlgraph/config.toml)")
	root.PersistentFlags().StringVar(&c.catalogPath, "catalog", "", "catalog file or http(s) URL (.toml, .yaml, .json) instead of the built-in sample")

	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.statusCommand())
	root.AddCommand(c.resourcesCommand())
	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Setup
// =============================================================================

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", c.configPath, "cache", cfg.Cache.Backend)
	return nil
}

// loadCatalog returns the catalog named by --catalog or the config file, or
// the embedded sample. The source may be an http(s) URL, which is fetched
// through the cache. Integrity warnings are logged, not fatal.
func (c *CLI) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	path := c.catalogPath
	if path == "" {
		path = c.cfg.Catalog
	}
	if path == "" {
		return catalog.Default(), nil
	}

	var (
		cat *catalog.Catalog
		err error
	)
	if httputil.IsURL(path) {
		cat, err = c.fetchCatalog(ctx, path)
	} else {
		cat, err = catalog.Load(path)
	}
	if err != nil {
		return nil, err
	}
	for _, issue := range cat.Integrity() {
		c.Logger.Warn("catalog", "issue", issue.String())
	}
	c.Logger.Debug("catalog loaded", "source", path, "frameworks", len(cat.Frameworks))
	return cat, nil
}

func (c *CLI) fetchCatalog(ctx context.Context, rawURL string) (*catalog.Catalog, error) {
	store, err := c.newCache(ctx, false)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	data, cached, err := httputil.NewFetcher(store).Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("catalog fetched", "url", rawURL, "bytes", len(data), "cached", cached)

	u, _ := url.Parse(rawURL)
	return catalog.Decode(bytes.NewReader(data), catalog.FormatFromPath(u.Path))
}

// newCache opens the configured cache backend, wrapped to report to the
// observability hooks.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cc := c.cfg.Cache
	if noCache {
		cc.Backend = config.BackendNone
	}

	var (
		backend cache.Cache
		err     error
	)
	switch cc.Backend {
	case config.BackendRedis:
		backend, err = cache.NewRedisCache(ctx, cache.RedisOptions{Addr: cc.RedisAddr, Prefix: cc.Prefix})
	case config.BackendFile:
		dir := cc.Dir
		if dir == "" {
			if dir, err = cacheDir(); err != nil {
				return cache.NewNullCache(), nil
			}
		}
		backend, err = cache.NewFileCache(dir)
	default:
		backend = cache.NewNullCache()
	}
	if err != nil {
		return nil, err
	}
	return cache.NewObserved(backend, nil), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/controlgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

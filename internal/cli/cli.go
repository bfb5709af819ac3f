// Package cli implements the orrery command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/buildinfo"
	"github.com/matzehuels/orrery/pkg/cache"
	"github.com/matzehuels/orrery/pkg/catalog"
	"github.com/matzehuels/orrery/pkg/config"
	"github.com/matzehuels/orrery/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "orrery"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Persistent flags.
	configPath string
	catalogDir string
	redisURL   string
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Orrery lays out orbital systems for visualization",
		Long: `Orrery computes visual sizes and orbit distances for stars, planets, moons
and belts under four view modes (explorational, navigational, profile and
scientific), resolving collisions and keeping children smaller than their
parents.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "TOML configuration file (default: built-in defaults)")
	pf.StringVar(&c.catalogDir, "catalogs", "", "directory of catalog files, searched before the built-ins")
	pf.StringVar(&c.redisURL, "redis", "", "redis URL for a shared layout cache")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the layout cache")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.treeCommand())
	root.AddCommand(c.modesCommand())
	root.AddCommand(c.catalogsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Service Factory
// =============================================================================

// loadConfig returns the --config file merged over the defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newService creates a layout service over the cache backend selected by
// the persistent flags.
func (c *CLI) newService(ctx context.Context) (*pipeline.Service, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	backend, err := c.newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Options{
		Config: cfg,
		Cache: cache.NewLayoutCache(backend, cache.LayoutCacheOptions{
			TTL:    cfg.Performance.CacheTTL.Duration,
			Logger: c.Logger,
		}),
		Logger: c.Logger,
	})
}

// newBackend picks redis, the file cache or no cache. A file cache that
// cannot be created degrades to the in-memory LRU.
func (c *CLI) newBackend(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch {
	case c.noCache:
		return cache.NewNullCache(), nil
	case c.redisURL != "":
		rc, err := cache.NewRedisCache(ctx, c.redisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, nil
	}
	dir, err := cacheDir()
	if err == nil {
		var fc *cache.FileCache
		if fc, err = cache.NewFileCache(dir); err == nil {
			return fc, nil
		}
	}
	c.Logger.Warn("file cache unavailable, using memory", "error", err)
	return cache.NewMemoryCache(cfg.Performance.CacheSize), nil
}

// catalogStore returns the --catalogs directory chained before the
// built-in catalogs.
func (c *CLI) catalogStore() catalog.Store {
	if c.catalogDir == "" {
		return catalog.Builtin
	}
	return catalog.Chain{catalog.NewDirStore(c.catalogDir), catalog.Builtin}
}

// loadCatalog resolves a file path or catalog name.
func (c *CLI) loadCatalog(ctx context.Context, ref string) (*catalog.Catalog, error) {
	cat, err := catalog.Resolve(ctx, c.catalogStore(), ref)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", ref, err)
	}
	c.Logger.Debug("loaded catalog", "name", cat.Name, "objects", len(cat.Objects))
	return cat, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/orrery/).
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

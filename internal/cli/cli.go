// Package cli implements the annoview command-line interface.
//
// Commands share one [CLI] value holding the logger and the loaded
// configuration. Each subcommand lives in its own file.
//
//	annoview render doc.json -f svg,png
//	annoview watch doc.json -o doc.svg
//	annoview serve --config annoview.toml
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/annoview/pkg/buildinfo"
	"github.com/matzehuels/annoview/pkg/cache"
	"github.com/matzehuels/annoview/pkg/config"
	"github.com/matzehuels/annoview/pkg/observability"
	"github.com/matzehuels/annoview/pkg/pipeline"
	"github.com/matzehuels/annoview/pkg/store"
)

// appName is used for directories and display.
const appName = "annoview"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a CLI writing logs to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Annoview lays out annotated text with arcs between spans",
		Long:         `Annoview renders linguistic annotations: labelled spans stacked above running text, with arcs drawn between related spans.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (.toml or .yaml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.cfg = cfg
	observability.SetPipelineHooks(observability.NewLogPipelineHooks(c.Logger))
	observability.SetCacheHooks(observability.NewLogCacheHooks(c.Logger))
	observability.SetHTTPHooks(observability.NewLogHTTPHooks(c.Logger))
	return nil
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewDefaultKeyer()
	if c.cfg.Cache.Backend == config.BackendRedis {
		keyer = cache.NewScopedKeyer(keyer, c.cfg.Cache.Prefix)
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.LayoutTTL = c.cfg.Cache.LayoutTTL
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     c.cfg.Cache.RedisAddr,
			Password: c.cfg.Cache.RedisPassword,
			DB:       c.cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return fc, nil
}

// newStore opens the configured document store.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	if c.cfg.Store.Backend == config.BackendMongo {
		ms, err := store.NewMongoStore(ctx, c.cfg.Store.MongoURI, c.cfg.Store.MongoDB)
		if err != nil {
			return nil, err
		}
		return ms, nil
	}
	fs, err := store.NewFileStore(c.cfg.Store.Root)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// cacheDir is the configured directory or the XDG default (~/.cache/annoview/).
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return cacheDir()
}

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

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/annoview/pkg/cache"
	"github.com/matzehuels/annoview/pkg/config"
)

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePruneCommand())
	cmd.AddCommand(c.cacheStatsCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// openFileCache returns nil when the cache directory does not exist yet.
func (c *CLI) openFileCache() (*cache.FileCache, error) {
	if b := c.cfg.Cache.Backend; b != config.BackendFile {
		printWarning("cache backend is %q; these commands manage the file cache only", b)
	}
	dir, err := c.cacheDir()
	if err != nil {
		return nil, fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached layout and artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.openFileCache()
			if err != nil {
				return err
			}
			if fc == nil {
				printInfo("Cache is empty")
				return nil
			}
			stats, err := fc.Stats()
			if err != nil {
				return err
			}
			if err := fc.Clear(); err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", stats.Entries)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
}

func (c *CLI) cachePruneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.openFileCache()
			if err != nil {
				return err
			}
			if fc == nil {
				printInfo("Cache is empty")
				return nil
			}
			n, err := fc.Prune()
			if err != nil {
				return err
			}
			printSuccess("Pruned %d entries", n)
			return nil
		},
	}
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache size",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := c.openFileCache()
			if err != nil {
				return err
			}
			if fc == nil {
				printInfo("Cache is empty")
				return nil
			}
			s, err := fc.Stats()
			if err != nil {
				return err
			}
			printKeyValue("directory", fc.Dir())
			printKeyValue("entries", fmt.Sprint(s.Entries))
			printKeyValue("expired", fmt.Sprint(s.Expired))
			printKeyValue("size", fmt.Sprintf("%.1f KiB", float64(s.Bytes)/1024))
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

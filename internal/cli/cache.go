package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/orrery/pkg/cache"
	"github.com/matzehuels/orrery/pkg/viewmode"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts",
		Long: `Remove cached layouts from the file cache, or from redis when --redis is set.

With --mode only layouts computed under that view mode are removed.`,
		Example: `  orrery cache clear
  orrery cache clear --mode scientific
  orrery cache clear --redis redis://localhost:6379/0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if mode != "" {
				if _, ok := viewmode.ParseMode(mode); !ok {
					return fmt.Errorf("unknown view mode %q (want one of %s)", mode, modeList())
				}
			}

			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			backend, err := c.newBackend(ctx, cfg)
			if err != nil {
				return err
			}
			lc := cache.NewLayoutCache(backend, cache.LayoutCacheOptions{Logger: c.Logger})
			defer lc.Close()

			spin := startSpinner(ctx, os.Stderr, "Clearing cached layouts...")
			var n int
			if mode != "" {
				n, err = lc.InvalidateMode(ctx, mode)
			} else {
				n, err = lc.InvalidateAll(ctx)
			}
			if err != nil {
				spin.Fail("Clear failed")
				return fmt.Errorf("clear cache: %w", err)
			}

			if n == 0 {
				spin.Stop()
				printInfo("Cache is empty")
				return nil
			}
			spin.Finish("Cleared %d cached layouts", n)
			if fc, ok := backend.(*cache.FileCache); ok {
				printDetail("Directory: %s", fc.Dir())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "only clear layouts of this view mode")
	_ = cmd.RegisterFlagCompletionFunc("mode", completeModes)

	return cmd
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Println(dir)
			return nil
		},
	}
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the layout cache",
		Long: `Manage the layout cache.

The backend is chosen by the [cache] section of the configuration file or
STRATA_CACHE_BACKEND: file (default), redis, mongo or null.`,
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cacheInfoCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts and drawings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closer, err := c.maintainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			count, err := m.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			if count == 0 {
				printInfo("Cache is empty")
				return nil
			}
			printSuccess("Cleared %d cached entries", count)
			if st, err := m.Stats(cmd.Context()); err == nil {
				printDetail("%s: %s", st.Backend, st.Location)
			}
			return nil
		},
	}
}

// cacheInfoCommand creates the "cache info" subcommand.
func (c *CLI) cacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the cache backend, location and size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, closer, err := c.maintainer(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			st, err := m.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("read cache stats: %w", err)
			}
			printCacheStats(st, c.config().Cache.TTL)
			return nil
		},
	}
}

// maintainer opens the configured cache for maintenance.
func (c *CLI) maintainer(ctx context.Context) (cache.Maintainer, cache.Cache, error) {
	cc, err := c.openCache(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	m, ok := cc.(cache.Maintainer)
	if !ok {
		cc.Close()
		return nil, nil, errors.New(errors.ErrCodeUnsupported, "cache backend %q cannot be inspected", c.config().Cache.Backend)
	}
	return m, cc, nil
}

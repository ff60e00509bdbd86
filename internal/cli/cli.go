// Package cli implements the strata command-line interface.
//
// # Commands
//
//   - layout: compute the layout of one or more graph documents
//   - render: draw a computed layout as SVG, PNG or DOT
//   - serve: run the HTTP API
//   - cache: inspect or clear the result cache
//   - version: print build information
//
// # Configuration
//
// Every command reads the file given by --config (TOML or YAML), a .env file
// in the working directory and STRATA_* environment variables. Flags win
// over all of them.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which
// includes the duration of every layout phase.
package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/config"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "strata"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	verbose    bool
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// config returns the loaded configuration, or the defaults when no command
// has loaded one yet.
func (c *CLI) config() *config.Config {
	if c.cfg == nil {
		return config.Default()
	}
	return c.cfg
}

// newRunner creates a pipeline runner on the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	if ttl := c.config().Cache.TTL; ttl > 0 {
		r.LayoutTTL = ttl
	}
	return r, nil
}

func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, c.config().Cache.Options())
}

// outputPath derives an output file name from input by replacing its
// extension with suffix. A trailing ".layout" is dropped first so that
// graph.layout.json renders to graph.svg.
func outputPath(input, suffix string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	base = strings.TrimSuffix(base, ".layout")
	return base + suffix
}

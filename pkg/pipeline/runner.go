package pipeline

import (
	"bytes"
	"context"
	stdio "io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/strata/pkg/buildinfo"
	"github.com/matzehuels/strata/pkg/cache"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/graph"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/layout"
	"github.com/matzehuels/strata/pkg/observability"
	"github.com/matzehuels/strata/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger, so multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// LayoutTTL and RenderTTL bound the lifetime of cache entries.
	LayoutTTL time.Duration
	RenderTTL time.Duration
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
		logger = log.Default()
	}
	return &Runner{
		Cache:     c,
		Keyer:     keyer,
		Logger:    logger,
		LayoutTTL: cache.TTLLayout,
		RenderTTL: cache.TTLRender,
	}
}

// LayoutReader decodes a graph document from r and lays it out.
func (r *Runner) LayoutReader(ctx context.Context, rd stdio.Reader, opts Options) (*Result, error) {
	g, err := io.ReadGraph(rd, io.WithDefaults(opts.Defaults))
	if err != nil {
		return nil, err
	}
	return r.Layout(ctx, g, opts)
}

// LayoutFile reads the graph document at path and lays it out.
func (r *Runner) LayoutFile(ctx context.Context, path string, opts Options) (*Result, error) {
	g, err := io.ImportGraph(path, io.WithDefaults(opts.Defaults))
	if err != nil {
		return nil, err
	}
	return r.Layout(ctx, g, opts)
}

// Layout lays out g, serving the result from the cache when an identical
// graph was laid out before. On a miss g is updated in place by the engine.
func (r *Runner) Layout(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, g.NodeCount(), g.EdgeCount())

	res, err := r.layout(ctx, g, opts)
	duration := time.Since(start)
	cached := res != nil && res.Cached
	hooks.OnLayoutComplete(ctx, duration, cached, err)
	if err != nil {
		return nil, err
	}

	res.Stats = Stats{NodeCount: g.NodeCount(), EdgeCount: g.EdgeCount(), Duration: duration}
	r.Logger.Info("layout complete",
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"duration", duration,
		"cached", cached)
	return res, nil
}

func (r *Runner) layout(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	canonical, err := io.Canonical(g)
	if err != nil {
		return nil, err
	}
	graphHash := cache.Hash(canonical)
	key := r.Keyer.LayoutKey(graphHash, cache.LayoutKeyOpts{
		DisableOrderHeuristic: opts.DisableOrderHeuristic,
		Version:               buildinfo.CacheVersion(),
	})

	if !opts.Refresh {
		if res := r.cachedLayout(ctx, key); res != nil {
			res.GraphHash = graphHash
			return res, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "layout not started")
	}

	logger := opts.Logger
	if logger == nil {
		logger = r.Logger
	}
	runOpts := []layout.Option{layout.WithLogger(logger)}
	if opts.DisableOrderHeuristic {
		runOpts = append(runOpts, layout.WithoutOrderHeuristic())
	}
	if opts.Progress != nil {
		runOpts = append(runOpts, layout.WithProgress(opts.Progress))
	}
	if err := layout.Run(g, runOpts...); err != nil {
		return nil, err
	}

	out := io.NewLayout(g)
	var buf bytes.Buffer
	if err := io.WriteLayout(out, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode layout")
	}
	data := buf.Bytes()

	if err := r.Cache.Set(ctx, key, data, r.LayoutTTL); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}
	return &Result{Layout: out, Data: data, GraphHash: graphHash}, nil
}

// cachedLayout returns the cached result for key, or nil on a miss. Cache
// failures and undecodable entries count as misses.
func (r *Runner) cachedLayout(ctx context.Context, key string) *Result {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "error", err)
	}
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil
	}
	l, err := io.ReadLayout(bytes.NewReader(data))
	if err != nil {
		r.Logger.Debug("discarding undecodable cache entry", "key", key, "error", err)
		observability.Cache().OnCacheMiss(ctx, "layout")
		return nil
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return &Result{Layout: l, Data: data, Cached: true}
}

// Render draws l in the requested format through the cache. It reports
// whether the drawing came from the cache.
func (r *Runner) Render(ctx context.Context, l *io.Layout, opts render.Options) ([]byte, bool, error) {
	opts.Format = strings.ToLower(opts.Format)
	if opts.Format == "" {
		opts.Format = render.FormatSVG
	}
	opts.Engine = strings.ToLower(opts.Engine)

	var buf bytes.Buffer
	if err := io.WriteLayout(l, &buf); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "encode layout for cache key")
	}
	key := r.Keyer.RenderKey(cache.Hash(buf.Bytes()), cache.RenderKeyOpts{Format: opts.Format, Engine: opts.Engine})

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "render")
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "render")

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Format)
	data, err := render.Render(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	r.Logger.Debug("rendered layout", "format", opts.Format, "engine", opts.Engine, "bytes", len(data), "duration", time.Since(start))
	if err := r.Cache.Set(ctx, key, data, r.RenderTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "render", len(data))
	}
	return data, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

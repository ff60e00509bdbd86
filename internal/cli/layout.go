package cli

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/strata/pkg/config"
	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/pipeline"
)

// layoutFlags holds the layout command's flags. Graph options only take
// effect when set, so config values survive otherwise.
type layoutFlags struct {
	output           string
	noCache          bool
	refresh          bool
	noOrderHeuristic bool
	batch            bool
	jobs             int

	rankdir, align, acyclicer, ranker string
	nodesep, edgesep, ranksep         float64
}

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [graph.json...]",
		Short: "Compute the layered layout of a graph",
		Long: `Compute the layered layout of a graph.

The layout command reads a graph document and writes <graph>.layout.json with
the position of every node, the route of every edge and the canvas size. The
result can be drawn with 'strata render'.

Options in the graph document override the defaults from the configuration
file and from flags such as --rankdir.

Results are cached by the content of the graph, so laying out an unchanged
graph again is instant. Use --batch to lay out several files concurrently.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.layoutOptions(cmd, &f)
			if err != nil {
				return err
			}
			if len(args) > 1 && !f.batch {
				return errors.New(errors.ErrCodeInvalidInput, "%d graphs given; pass --batch to lay out several files", len(args))
			}
			if f.batch {
				if f.output != "" {
					return errors.New(errors.ErrCodeInvalidInput, "--output cannot be combined with --batch")
				}
				return c.runBatchLayout(cmd.Context(), args, opts, f)
			}
			return c.runLayout(cmd.Context(), args[0], opts, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when a cached layout exists")
	cmd.Flags().BoolVar(&f.noOrderHeuristic, "no-order-heuristic", false, "keep the initial node order (skip crossing reduction)")
	cmd.Flags().BoolVar(&f.batch, "batch", false, "lay out every argument concurrently")
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "concurrent layouts in --batch mode")

	cmd.Flags().StringVar(&f.rankdir, "rankdir", "", "default rank direction: tb, bt, lr, rl")
	cmd.Flags().StringVar(&f.align, "align", "", "default alignment: ul, ur, dl, dr")
	cmd.Flags().StringVar(&f.acyclicer, "acyclicer", "", "default cycle breaker: dfs, greedy")
	cmd.Flags().StringVar(&f.ranker, "ranker", "", "default ranker: network-simplex, tight-tree, longest-path")
	cmd.Flags().Float64Var(&f.nodesep, "nodesep", 0, "default horizontal gap between nodes")
	cmd.Flags().Float64Var(&f.edgesep, "edgesep", 0, "default horizontal gap between edges")
	cmd.Flags().Float64Var(&f.ranksep, "ranksep", 0, "default gap between ranks")

	return cmd
}

// layoutOptions merges the changed flags into the configured defaults.
func (c *CLI) layoutOptions(cmd *cobra.Command, f *layoutFlags) (pipeline.Options, error) {
	lc := c.config().Layout
	flags := cmd.Flags()
	for _, o := range []struct {
		name string
		src  string
		dst  *string
	}{
		{"rankdir", f.rankdir, &lc.RankDir},
		{"align", f.align, &lc.Align},
		{"acyclicer", f.acyclicer, &lc.Acyclicer},
		{"ranker", f.ranker, &lc.Ranker},
	} {
		if flags.Changed(o.name) {
			*o.dst = o.src
		}
	}
	if flags.Changed("nodesep") {
		lc.NodeSep = f.nodesep
	}
	if flags.Changed("edgesep") {
		lc.EdgeSep = f.edgesep
	}
	if flags.Changed("ranksep") {
		lc.RankSep = f.ranksep
	}

	cfg := config.Config{Layout: lc, Cache: c.config().Cache, Server: c.config().Server}
	if err := cfg.Validate(); err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Defaults:              lc.Label(),
		DisableOrderHeuristic: f.noOrderHeuristic,
		Refresh:               f.refresh,
	}, nil
}

// runLayout lays out one graph and writes the result.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, f layoutFlags) error {
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, input)
	spinner.Start()

	g, err := io.ImportGraph(input, io.WithDefaults(opts.Defaults))
	if err != nil {
		spinner.StopWithError("Reading graph failed")
		return fmt.Errorf("read %s: %w", input, err)
	}
	spinner.SetGraph(g.NodeCount(), g.EdgeCount())
	opts.Progress = spinner.SetPhase

	res, err := runner.Layout(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("layout %s: %w", input, err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	out := f.output
	if out == "" {
		out = outputPath(input, ".layout.json")
	}
	if err := io.ExportLayout(res.Layout, out); err != nil {
		return fmt.Errorf("write output %s: %w", out, err)
	}

	printSuccess("Layout complete")
	printFile(out)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.Cached)
	printNewline()
	printNextStep("Render", appName+" render "+out)

	return nil
}

// batchResult is one row of the batch summary.
type batchResult struct {
	input    string
	output   string
	nodes    int
	edges    int
	cached   bool
	duration time.Duration
	err      error
}

// runBatchLayout lays out every input with at most f.jobs layouts in flight.
// A failing file does not stop the others.
func (c *CLI) runBatchLayout(ctx context.Context, inputs []string, opts pipeline.Options, f layoutFlags) error {
	runner, err := c.newRunner(ctx, f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	results := make([]batchResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(max(f.jobs, 1))
	for i, input := range inputs {
		g.Go(func() error {
			results[i] = layoutOne(ctx, runner, input, opts)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			c.Logger.Error("layout failed", "file", r.input, "error", r.err)
		}
	}
	prog.done(fmt.Sprintf("Laid out %d of %d graphs", len(inputs)-failed, len(inputs)))

	printBatchTable(results)
	if failed > 0 {
		return fmt.Errorf("%d of %d layouts failed", failed, len(inputs))
	}
	return ctx.Err()
}

func layoutOne(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options) batchResult {
	r := batchResult{input: input}
	if err := ctx.Err(); err != nil {
		r.err = err
		return r
	}
	res, err := runner.LayoutFile(ctx, input, opts)
	if err != nil {
		r.err = err
		return r
	}
	r.output = outputPath(input, ".layout.json")
	if err := io.ExportLayout(res.Layout, r.output); err != nil {
		r.err = err
		return r
	}
	r.nodes, r.edges = res.Stats.NodeCount, res.Stats.EdgeCount
	r.cached, r.duration = res.Cached, res.Stats.Duration
	return r
}

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/io"
	"github.com/matzehuels/strata/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string   // output file, only valid with a single format
	formats []string // output formats: svg, png, dot
	engine  string   // graphviz or native
	noCache bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{engine: render.EngineGraphviz}

	cmd := &cobra.Command{
		Use:   "render [layout.json]",
		Short: "Draw a computed layout",
		Long: `Draw a computed layout.

The render command reads a layout produced by 'strata layout' and draws it.
The graphviz engine pins every node at its computed position and can write
SVG, PNG and DOT. The native engine writes SVG with straight polyline edges
and needs no Graphviz.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			if opts.output != "" && len(opts.formats) > 1 {
				return errors.New(errors.ErrCodeInvalidInput, "--output needs a single format, got %d", len(opts.formats))
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().StringVar(&opts.engine, "engine", opts.engine, "renderer: graphviz (default), native")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{render.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// validateFormats checks that all requested formats are supported.
func validateFormats(formats []string) error {
	if len(formats) == 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "no output format given")
	}
	for _, f := range formats {
		if err := errors.ValidateFormat(f, render.Formats...); err != nil {
			return err
		}
	}
	return nil
}

// runRender loads the layout and writes one file per format.
func (c *CLI) runRender(ctx context.Context, input string, opts *renderOpts) error {
	l, err := io.ImportLayout(input)
	if err != nil {
		return err
	}
	c.Logger.Debug("loaded layout", "file", input, "nodes", len(l.Nodes), "edges", len(l.Edges))

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var written []string
	for _, format := range opts.formats {
		data, cached, err := runner.Render(ctx, l, render.Options{Format: format, Engine: opts.engine})
		if err != nil {
			return fmt.Errorf("render %s: %w", format, err)
		}
		out := opts.output
		if out == "" {
			out = outputPath(input, "."+format)
		}
		if err := writeFile(out, data); err != nil {
			return err
		}
		c.Logger.Debug("wrote drawing", "file", out, "bytes", len(data), "cached", cached)
		written = append(written, out)
	}

	printSuccess("Rendered %d file(s)", len(written))
	for _, path := range written {
		printFile(path)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

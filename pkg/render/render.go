package render

import (
	"context"
	"strings"

	"github.com/matzehuels/strata/pkg/errors"
	"github.com/matzehuels/strata/pkg/io"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatDOT = "dot"
)

// Engines that draw SVG.
const (
	EngineGraphviz = "graphviz"
	EngineNative   = "native"
)

// Formats lists every supported output format.
var Formats = []string{FormatSVG, FormatPNG, FormatDOT}

// Options selects the output of [Render].
type Options struct {
	Format string
	// Engine is graphviz (default) or native. The native engine only
	// produces SVG.
	Engine string
}

// Render draws a computed layout in the requested format.
func Render(ctx context.Context, l *io.Layout, opts Options) ([]byte, error) {
	format := strings.ToLower(opts.Format)
	if format == "" {
		format = FormatSVG
	}
	if err := errors.ValidateFormat(format, Formats...); err != nil {
		return nil, err
	}
	engine := strings.ToLower(opts.Engine)

	switch engine {
	case "", EngineGraphviz:
		dot := ToDOT(l)
		if format == FormatDOT {
			return []byte(dot), nil
		}
		return RenderGraphviz(ctx, dot, format)
	case EngineNative:
		if format != FormatSVG {
			return nil, errors.New(errors.ErrCodeUnsupported, "the native engine only renders svg, not %s", format)
		}
		return RenderSVG(l), nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown render engine %q", opts.Engine)
	}
}

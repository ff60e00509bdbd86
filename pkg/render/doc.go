// Package render draws computed layouts.
//
// # Overview
//
// Two engines turn an [io.Layout] into pictures:
//
//   - Graphviz: [ToDOT] emits DOT with every node position and edge spline
//     pinned, and [RenderGraphviz] runs the embedded Graphviz (neato -n2) to
//     produce SVG or PNG. Graphviz only paints; it moves nothing.
//   - Native: [RenderSVG] writes boxes and polylines directly.
//
// [Render] dispatches on [Options]:
//
//	svg, err := render.Render(ctx, l, render.Options{Format: "svg"})
//	png, err := render.Render(ctx, l, render.Options{Format: "png"})
//	svg, err := render.Render(ctx, l, render.Options{Engine: "native"})
//
// # Coordinates
//
// Layout units map one to one onto SVG user units and Graphviz points.
// Graphviz places the origin at the bottom left, so [ToDOT] flips y.
//
// [io.Layout]: github.com/matzehuels/strata/pkg/io.Layout
package render

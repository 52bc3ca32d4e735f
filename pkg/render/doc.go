// Package render turns finished layouts into output files.
//
// # Overview
//
// The drawing itself happens in [layout.Paint] against a [surface.Surface].
// This package and its subpackages provide the concrete outputs:
//
//   - [sink]: an SVG surface plus JSON, PNG and PDF writers
//   - [nodelink]: a Graphviz view of spans and arcs as a directed graph
//   - [surface]: the drawing interface and an in-memory recorder
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG with the external rsvg-convert tool
// (from librsvg). Both the sink and nodelink renderers use them.
//
//	svg, err := sink.RenderSVG(l)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [layout.Paint]: github.com/matzehuels/annoview/pkg/layout.Paint
// [sink]: github.com/matzehuels/annoview/pkg/render/sink
// [nodelink]: github.com/matzehuels/annoview/pkg/render/nodelink
// [surface]: github.com/matzehuels/annoview/pkg/render/surface
// [surface.Surface]: github.com/matzehuels/annoview/pkg/render/surface.Surface
package render

// Package sink writes layouts to output formats.
//
// # Formats
//
//   - SVG: [SVG] implements [surface.Surface]; [RenderSVG] paints a layout onto it
//   - JSON: the raw geometry, for other front ends
//   - PDF: print-ready output (requires rsvg-convert)
//   - PNG: raster output (requires rsvg-convert)
//
// The SVG surface keeps an element tree, so elements can be removed or
// translated after creation. Serialization happens once in [SVG.WriteTo].
// Styling is plain CSS keyed on the classes the painter assigns: span
// types, modifiers, arc types and row backgrounds.
//
// # Rasterization
//
// PNG and PDF go through [render.ToPNG] and [render.ToPDF]. These require
// librsvg to be installed:
//   - macOS: brew install librsvg
//   - Linux: apt install librsvg2-bin
//
// [surface.Surface]: github.com/matzehuels/annoview/pkg/render/surface.Surface
// [render.ToPNG]: github.com/matzehuels/annoview/pkg/render.ToPNG
// [render.ToPDF]: github.com/matzehuels/annoview/pkg/render.ToPDF
package sink

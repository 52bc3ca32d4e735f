package sink

import (
	"context"
	"encoding/json"

	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/render"
)

// DefaultCSS styles the classes assigned by [layout.Paint].
const DefaultCSS = `
    .background0 { fill: #ffffff; }
    .background1 { fill: #eef2f7; }
    .sentnum { fill: #7f8c99; text-anchor: middle; }
    .text { fill: #000000; }
    .span { fill: #7fa2ff; stroke: #2e4a8e; stroke-width: 0.75; rx: 2; ry: 2; }
    .span.speculative { stroke-dasharray: 3,3; }
    .span.negated { fill: #c9c9c9; }
    .span.edited { stroke: #ff3333; stroke-width: 2; }
    .span-label { fill: #000000; }
    .curly { stroke: #555555; stroke-width: 0.75; }
    .arc { stroke: #333333; stroke-width: 1; }
    .arc-label { fill: #333333; }
    marker path { fill: #333333; }`

// SVGOption configures [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	measure fonts.Measurer
	css     string
}

// WithMeasurer sets the measurer used for text boxes. It should match the
// one the layout was built with.
func WithMeasurer(m fonts.Measurer) SVGOption { return func(r *svgRenderer) { r.measure = m } }

// WithCSS replaces the embedded stylesheet. An empty string omits it.
func WithCSS(css string) SVGOption { return func(r *svgRenderer) { r.css = css } }

// RenderSVG paints l onto a fresh SVG surface and serializes it.
func RenderSVG(l *layout.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{measure: fonts.Fixed{}, css: DefaultCSS}
	for _, opt := range opts {
		opt(&r)
	}
	s := NewSVG(r.measure)
	layout.Paint(l, s, 0)
	return s.Bytes(l.Width, l.Height, r.css)
}

// RenderJSON writes the layout geometry as indented JSON.
func RenderJSON(l *layout.Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// PNGOption configures PNG rendering.
type PNGOption func(*pngRenderer)

type pngRenderer struct {
	svgOpts []SVGOption
	scale   float64
}

// WithPNGSVGOptions passes options through to the underlying SVG renderer.
func WithPNGSVGOptions(opts ...SVGOption) PNGOption {
	return func(r *pngRenderer) { r.svgOpts = opts }
}

// WithScale sets the PNG scale factor (default 2.0 for 2x resolution).
func WithScale(s float64) PNGOption {
	return func(r *pngRenderer) { r.scale = s }
}

// RenderPNG renders the layout as PNG via SVG conversion.
func RenderPNG(ctx context.Context, l *layout.Layout, opts ...PNGOption) ([]byte, error) {
	r := pngRenderer{scale: 2.0}
	for _, opt := range opts {
		opt(&r)
	}
	return render.ToPNG(ctx, RenderSVG(l, r.svgOpts...), r.scale)
}

// RenderPDF renders the layout as PDF via SVG conversion.
func RenderPDF(ctx context.Context, l *layout.Layout, opts ...SVGOption) ([]byte, error) {
	return render.ToPDF(ctx, RenderSVG(l, opts...))
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/render/nodelink"
	"github.com/matzehuels/annoview/pkg/render/sink"
)

// Render generates output artifacts in the requested formats.
func Render(ctx context.Context, l *layout.Layout, m fonts.Measurer, opts Options) (map[string][]byte, error) {
	if opts.IsNodelink() {
		return renderNodelink(ctx, l, opts)
	}
	return renderText(ctx, l, m, opts)
}

func renderText(ctx context.Context, l *layout.Layout, m fonts.Measurer, opts Options) (map[string][]byte, error) {
	svgOpts := []sink.SVGOption{sink.WithMeasurer(m)}
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = sink.RenderSVG(l, svgOpts...)
		case FormatJSON:
			data, err = sink.RenderJSON(l)
		case FormatPNG:
			data, err = sink.RenderPNG(ctx, l, sink.WithScale(opts.Scale), sink.WithPNGSVGOptions(svgOpts...))
		case FormatPDF:
			data, err = sink.RenderPDF(ctx, l, svgOpts...)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderNodelink(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed})
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = nodelink.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(ctx, dot, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(ctx, dot)
		case FormatJSON:
			data, err = sink.RenderJSON(l)
		default:
			return nil, fmt.Errorf("unsupported nodelink format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the span id and covered text to node labels.
	// When false, only the span label is shown.
	Detailed bool
}

// ToDOT converts a layout's spans and arcs to Graphviz DOT.
// Nodes follow the layout's span order, so the output is deterministic.
func ToDOT(l *layout.Layout, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=\"#7fa2ff\", fontsize=14, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  edge [fontsize=11];\n")
	buf.WriteString("\n")

	for _, sb := range l.Spans {
		label := fmtLabel(l, sb, opts.Detailed)
		attrs := fmtAttrs(sb, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", sb.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, a := range l.Arcs {
		attrs := []string{fmt.Sprintf("label=%q", a.Type)}
		if a.Equiv {
			attrs = append(attrs, "style=dashed", "dir=none")
		}
		if a.Edited {
			attrs = append(attrs, "color=red")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", a.Origin, a.Target, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(l *layout.Layout, sb layout.SpanBox, detailed bool) string {
	if !detailed {
		return sb.Type
	}
	text := ""
	if sb.Chunk >= 0 && sb.Chunk < len(l.Chunks) {
		text = l.Chunks[sb.Chunk].Text
	}
	return sb.Type + "\n" + sb.ID + ": " + text
}

func fmtAttrs(sb layout.SpanBox, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if sb.Kind == "trigger" {
		attrs = append(attrs, "shape=ellipse", "style=filled")
	}
	for _, mod := range sb.Modifiers {
		switch mod {
		case "negated":
			attrs = append(attrs, "fillcolor=\"#c9c9c9\"")
		case "speculative":
			attrs = append(attrs, "style=\"rounded,filled,dashed\"")
		}
	}
	if sb.Edited {
		attrs = append(attrs, "color=red", "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// pixel-sized one anchored at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}
	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// Package nodelink renders annotations as a node-link diagram.
//
// # Overview
//
// Where the text view draws arcs above the running text, this view drops the
// text and shows spans as boxes connected by arrows. It is useful for dense
// documents whose arcs are hard to follow inline.
//
// # Usage
//
// Convert a layout to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(l, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)
//
// # DOT Format
//
// The generated DOT uses left-to-right layout (rankdir=LR) so nodes follow
// reading order. Triggers are drawn as ellipses, entities as rounded boxes,
// and equivalence links as dashed undirected edges.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink

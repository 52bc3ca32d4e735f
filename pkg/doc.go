// Package pkg holds the annoview libraries.
//
// # Overview
//
// Annoview draws linguistic annotations: text split into chunks, labelled
// span boxes stacked above the chunks, and arcs between spans routed above
// the boxes. The packages are organized by stage:
//
//  1. [model] decodes documents and builds the span and event graph
//  2. [layout] computes geometry; [layout/ordering] stacks span towers
//  3. [render/sink] and [render/nodelink] turn geometry into SVG, PNG, PDF
//  4. [pipeline] runs the stages with caching and drives interactive views
//  5. [store], [server] and [client] move documents over HTTP
//
// # Data Flow
//
//	JSON or YAML document
//	         ↓
//	    [model.Build] (spans, events, arcs by id)
//	         ↓
//	    [layout.Build] (chunks, rows, boxes, arc paths)
//	         ↓
//	    [render/sink] (SVG) → rsvg-convert (PNG, PDF)
//
// Supporting packages: [config] loads settings, [cache] stores layouts and
// artifacts, [observability] exposes hooks, [errors] classifies faults,
// [fonts] measures text and [watch] follows document files.
package pkg

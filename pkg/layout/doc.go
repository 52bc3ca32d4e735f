// Package layout computes the geometry of an annotated document.
//
// A layout pass turns a [model.Model] into a [Layout]: text chunks placed
// on wrapped rows, span label boxes stacked above their text, and arcs
// routed above the boxes between their endpoints. The pass is a pure
// function of the model, the [Params] and the [fonts.Measurer]; the same
// input always produces byte-identical geometry.
//
// # Stages
//
//  1. [ChunkText] splits the text at whitespace no span covers.
//  2. [AssignSpans] binds each span to the chunk holding its end.
//  3. [BuildArcs] derives arcs from events, relations and equivalences.
//  4. Spans are grouped into towers and stacked (package ordering).
//  5. Each chunk's boxes are packed into lines with [Reservations].
//  6. Chunks are wrapped into rows, leaving room for arcs at row edges.
//  7. Arc heights are allocated so that no arc passes through a box or an
//     arc it jumps over.
//  8. Rows are stacked vertically and arcs are routed per row.
//
// [Paint] draws a finished layout onto any [surface.Surface]. [Canvas]
// keeps the last painted frame and replaces it on the next [Canvas.Show].
package layout

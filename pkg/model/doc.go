// Package model turns raw annotation records into typed entities.
//
// A [Document] is the wire form: positional records for entities, triggers,
// events, relations, modifications, equivalences and comments, plus the
// document text and a character offset base. [Build] validates the records
// and produces a [Model] holding [Span], [EventDesc] and [Equiv] values with
// id lookup maps.
//
// Span and arc fields below the input block (distances, ordering indices,
// tower ids, heights) are filled in by the layout engine. A model belongs to
// exactly one layout pass; build a new one for every pass.
//
// # Offsets
//
// All offsets count Unicode code points, not bytes, and are absolute: the
// document's Offset is added to positions inside Text.
//
//	doc, _ := model.ReadDocument("news/doc1.json")
//	m, err := model.Build(doc)
//	if errors.Is(err, errors.ErrCodeDocumentIntegrity) {
//	    // keep the previous layout
//	}
package model

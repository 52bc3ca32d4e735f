package layout

// row is a working row during a pass.
type row struct {
	index          int
	sentence       int
	firstSentence  bool
	hasAnnotations bool
	chunks         []*Chunk

	// y is the bottom of the row's text once rows are stacked.
	y, top, bottom float64
}

type arcSides struct {
	left, right, internal bool
}

// sides reports which directions a chunk's arcs leave in.
func (ps *pass) sides(c *Chunk) arcSides {
	var out arcSides
	visit := func(idx int) {
		a := ps.m.Arcs[idx]
		for _, id := range []string{a.Origin, a.Target} {
			other, ok := ps.m.Span(id)
			if !ok {
				continue
			}
			switch {
			case other.Chunk < c.Index:
				out.left = true
			case other.Chunk > c.Index:
				out.right = true
			}
		}
		o, _ := ps.m.Span(a.Origin)
		t, _ := ps.m.Span(a.Target)
		if o != nil && t != nil && o.Chunk == t.Chunk {
			out.internal = true
		}
	}
	for _, s := range c.Spans {
		for _, idx := range s.Outgoing {
			visit(idx)
		}
		for _, idx := range s.Incoming {
			visit(idx)
		}
	}
	return out
}

// wrapRows assigns chunks to rows and sets their horizontal position.
//
// A chunk starts a new row on a hard break, or when it would not fit in
// the remaining width together with the room its outgoing arcs need. A
// chunk with arcs to the left keeps ArcHorizontalSpacing away from the
// last chunk with arcs to the right; chunks in between take half of any
// inserted space.
func (ps *pass) wrapRows() {
	p := ps.p
	avail := p.CanvasWidth - 2*p.MarginX

	var (
		cur          *row
		cursor       float64
		arcBorder    float64
		hasArcBorder bool
		borderIdx    int
	)
	for _, c := range ps.chunks {
		sd := ps.sides(c)
		width := c.Width()

		rightMargin := 0.0
		switch {
		case sd.right:
			rightMargin = p.ArcHorizontalSpacing
		case sd.internal:
			rightMargin = p.ArcSlant
		}

		spaceW := 0.0
		if cur != nil {
			spaceW = ps.measure.Measure(p.TextFont, c.Space).Width
		}

		newSentence := c.NewSentence
		if newSentence {
			ps.sentences++
		}

		if cur == nil || c.HardBreak || cursor+spaceW+width+rightMargin >= avail {
			cur = &row{index: len(ps.rows), sentence: max(ps.sentences, 1), firstSentence: newSentence}
			ps.rows = append(ps.rows, cur)
			cursor = p.MarginX + p.SentNumMargin
			switch {
			case sd.left:
				cursor += p.ArcHorizontalSpacing
			case sd.internal:
				cursor += p.ArcSlant
			}
			spaceW = 0
			hasArcBorder = false
			borderIdx = 0
		} else if sd.left && hasArcBorder {
			if gap := p.ArcHorizontalSpacing - (cursor + spaceW - arcBorder); gap > 0 {
				for _, prev := range cur.chunks[borderIdx:] {
					prev.X += gap / 2
				}
				cursor += gap
			}
		}

		c.Row = cur.index
		c.X = cursor + spaceW - c.minX
		cursor += spaceW + width
		cur.chunks = append(cur.chunks, c)
		if len(c.Spans) > 0 {
			cur.hasAnnotations = true
		}
		if sd.right {
			arcBorder = cursor
			hasArcBorder = true
			borderIdx = len(cur.chunks)
		}
	}
}

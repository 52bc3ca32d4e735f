package layout

import (
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/render/surface"
)

// drawnHeight is the height an arc's horizontal runs at. It never dips
// below the tops of the boxes it attaches to.
func (ps *pass) drawnHeight(idx int) float64 {
	a := ps.m.Arcs[idx]
	o, t := ps.endpointTops(a.Origin, a.Target)
	return max(ps.heights[idx], o, t)
}

func (ps *pass) arcRows(a *model.Arc) (int, int) {
	o, _ := ps.m.Span(a.Origin)
	t, _ := ps.m.Span(a.Target)
	lr, rr := ps.chunks[o.Chunk].Row, ps.chunks[t.Chunk].Row
	if lr > rr {
		lr, rr = rr, lr
	}
	return lr, rr
}

// placeRows stacks rows vertically. Each row is as tall as its text, its
// tallest box and the highest arc crossing it.
func (ps *pass) placeRows() {
	p := ps.p
	arcText := ps.measure.Measure(p.ArcFont, "Xg")

	content := make([]float64, len(ps.rows))
	for i, r := range ps.rows {
		content[i] = ps.textH
		for _, c := range r.chunks {
			for _, s := range c.Spans {
				content[i] = max(content[i], ps.boxes[s.ID].top)
			}
		}
	}
	for idx, a := range ps.m.Arcs {
		lr, rr := ps.arcRows(a)
		h := ps.drawnHeight(idx) + arcText.Height/2
		for i := lr; i <= rr; i++ {
			content[i] = max(content[i], h)
		}
	}

	y := p.MarginY
	for i, r := range ps.rows {
		r.top = y
		r.y = y + p.RowPadding + content[i]
		r.bottom = r.y + p.RowPadding
		y = r.bottom + p.RowSpacing
	}
}

type endpoint struct {
	x   float64
	top float64
	row int
}

func (ps *pass) endpoint(s *model.Span) endpoint {
	c := ps.chunks[s.Chunk]
	b := ps.boxes[s.ID]
	r := ps.rows[c.Row]
	return endpoint{x: c.X + b.centerX(), top: r.y - b.top, row: c.Row}
}

// route draws arc idx as one segment per row between its endpoints.
func (ps *pass) route(idx int) ArcPath {
	p := ps.p
	a := ps.m.Arcs[idx]
	o, _ := ps.m.Span(a.Origin)
	t, _ := ps.m.Span(a.Target)
	oe, te := ps.endpoint(o), ps.endpoint(t)

	sameChunk := o.Chunk == t.Chunk
	leftToRight := o.LineIndex < t.LineIndex
	if sameChunk && oe.x != te.x {
		leftToRight = oe.x < te.x
	}
	l, r := oe, te
	if !leftToRight {
		l, r = te, oe
	}

	height := ps.drawnHeight(idx)
	out := ArcPath{
		Origin:     a.Origin,
		Target:     a.Target,
		Type:       a.Type,
		EventID:    a.EventID,
		Equiv:      a.Equiv,
		Edited:     a.Edited,
		Dist:       a.Dist,
		JumpHeight: a.JumpHeight,
		Height:     height,
	}
	switch {
	case a.Equiv:
		out.Marker = surface.NoMarker
	case leftToRight:
		out.Marker = surface.MarkerEndPoint
	default:
		out.Marker = surface.MarkerStart
	}

	slant := p.ArcSlant
	rowLeft := p.MarginX + p.SentNumMargin
	rowRight := p.CanvasWidth - p.MarginX
	ladder := ps.m.Ladder(a.Type)

	for ri := l.row; ri <= r.row; ri++ {
		y := ps.rows[ri].y - height
		first, last := ri == l.row, ri == r.row

		from, to := rowLeft, rowRight
		if first {
			from = l.x
		}
		if last {
			to = r.x
		}
		cornerL, cornerR := from, to
		if first {
			cornerL = from + slant
		}
		if last {
			cornerR = to - slant
		}
		ufo := first && last && to-from < 2*slant
		if ufo {
			cornerL, cornerR = from-slant, to+slant
		}

		label := fitLabel(ps.measure, p.ArcFont, ladder, to-from-2*slant)
		lsz := ps.measure.Measure(p.ArcFont, label)
		lw := lsz.Width
		cx := (cornerL + cornerR) / 2
		lEnd := cx - lw/2 - p.ArcLabelPadding
		rStart := cx + lw/2 + p.ArcLabelPadding

		seg := ArcSegment{
			Row:      ri,
			Label:    label,
			LabelX:   cx,
			LabelY:   y,
			LabelW:   lw,
			Baseline: y - lsz.Height/2 + lsz.Ascent,
		}

		switch {
		case first && ufo:
			seg.Left = seg.Left.Move(from, l.top).
				Cubic(surface.Point{X: cornerL, Y: l.top}, surface.Point{X: cornerL, Y: y}, surface.Point{X: lEnd, Y: y})
		case first:
			mid := (l.top + y) / 2
			seg.Left = seg.Left.Move(from, l.top).
				Cubic(surface.Point{X: from, Y: mid}, surface.Point{X: from, Y: y}, surface.Point{X: cornerL, Y: y})
			if lEnd > cornerL {
				seg.Left = seg.Left.Line(lEnd, y)
			}
		default:
			seg.Left = seg.Left.Move(from, y).Line(max(lEnd, from), y)
		}

		switch {
		case last && ufo:
			seg.Right = seg.Right.Move(rStart, y).
				Cubic(surface.Point{X: cornerR, Y: y}, surface.Point{X: cornerR, Y: r.top}, surface.Point{X: to, Y: r.top})
		case last:
			mid := (r.top + y) / 2
			seg.Right = seg.Right.Move(min(rStart, cornerR), y)
			if rStart < cornerR {
				seg.Right = seg.Right.Line(cornerR, y)
			}
			seg.Right = seg.Right.Cubic(surface.Point{X: to, Y: y}, surface.Point{X: to, Y: mid}, surface.Point{X: to, Y: r.top})
		default:
			seg.Right = seg.Right.Move(min(rStart, to), y).Line(to, y)
		}

		out.Segments = append(out.Segments, seg)
	}
	return out
}

// result assembles the public geometry.
func (ps *pass) result() *Layout {
	p := ps.p
	l := &Layout{
		Width:       p.CanvasWidth,
		Gutter:      p.MarginX + p.SentNumMargin,
		CurlyHeight: p.CurlyHeight,
		Fonts:       Fonts{Text: p.TextFont, Span: p.SpanFont, Arc: p.ArcFont},
		Warnings:    ps.m.Warnings,
	}

	for _, r := range ps.rows {
		rb := RowBox{
			Index:           r.index,
			Sentence:        r.sentence,
			Background:      r.sentence % 2,
			FirstOfSentence: r.firstSentence,
			HasAnnotations:  r.hasAnnotations,
			Y:               r.y,
			Top:             r.top,
			Bottom:          r.bottom,
		}
		if r.firstSentence {
			rb.Infos = ps.m.SentenceInfos[r.sentence]
		}
		for _, c := range r.chunks {
			rb.Chunks = append(rb.Chunks, c.Index)
		}
		l.Rows = append(l.Rows, rb)
	}
	if n := len(ps.rows); n > 0 {
		l.Height = ps.rows[n-1].bottom + p.MarginY
	} else {
		l.Height = 2 * p.MarginY
	}

	for _, c := range ps.chunks {
		r := ps.rows[c.Row]
		l.Chunks = append(l.Chunks, ChunkBox{
			Index:       c.Index,
			Text:        c.Text,
			From:        c.From,
			To:          c.To,
			Row:         c.Row,
			X:           c.X,
			Baseline:    r.y - ps.textH + ps.textAscent,
			Width:       c.textWidth,
			HardBreak:   c.HardBreak,
			NewSentence: c.NewSentence,
		})
	}

	for _, s := range ps.linear {
		c := ps.chunks[s.Chunk]
		r := ps.rows[c.Row]
		b := ps.boxes[s.ID]
		textTop := r.y - ps.textH
		sb := SpanBox{
			ID:        s.ID,
			Type:      s.Type,
			Kind:      s.General.String(),
			Label:     b.label,
			Modifiers: s.Modifiers.Names(),
			Infos:     s.Infos,
			Edited:    s.Edited,
			Chunk:     s.Chunk,
			Row:       c.Row,
			LineIndex: s.LineIndex,
			TowerID:   s.TowerID,
			Box:       surface.Rect{X: c.X + b.x, Y: textTop - b.bottom - b.h, W: b.w, H: b.h},
			Top:       b.top,
		}
		sb.LabelAt = surface.Point{X: sb.Box.X + b.labelDX, Y: sb.Box.Y + b.labelDY}
		if b.curly {
			sb.Curly = &Curly{From: c.X + b.textFrom, To: c.X + b.textTo, Y: textTop - b.bottom}
		}
		l.Spans = append(l.Spans, sb)
	}

	for idx := range ps.m.Arcs {
		l.Arcs = append(l.Arcs, ps.route(idx))
	}

	l.Stats = LayoutStats{
		Chunks:    len(l.Chunks),
		Rows:      len(l.Rows),
		Spans:     len(l.Spans),
		Arcs:      len(l.Arcs),
		Sentences: ps.sentences,
	}
	return l
}

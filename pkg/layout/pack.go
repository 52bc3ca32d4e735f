package layout

import (
	"github.com/matzehuels/annoview/pkg/fonts"
)

// spanBox is a span's box in chunk-local coordinates: x is relative to the
// chunk's text origin, heights are measured upward.
type spanBox struct {
	label string
	// labelDX and labelDY place the label baseline relative to the box's
	// top-left corner.
	labelDX, labelDY float64
	x, w             float64
	h                float64
	// bottom is the distance from the text top to the box bottom.
	bottom float64
	// top is the distance from the text bottom to the box top.
	top              float64
	textFrom, textTo float64
	curly            bool
}

func (b *spanBox) centerX() float64 { return b.x + b.w/2 }

// packChunk measures a chunk and stacks its span boxes.
func (ps *pass) packChunk(c *Chunk) {
	runes := []rune(c.Text)
	c.textWidth = ps.measure.Measure(ps.p.TextFont, c.Text).Width
	c.minX, c.maxX = 0, c.textWidth

	res := &Reservations{BoxSpacing: ps.p.BoxSpacing, CurlyHeight: ps.p.CurlyHeight}
	for _, s := range c.Spans {
		lo := clampInt(s.From-c.From, 0, len(runes))
		hi := clampInt(s.To-c.From, lo, len(runes))
		textFrom := ps.measure.Measure(ps.p.TextFont, string(runes[:lo])).Width
		textTo := ps.measure.Measure(ps.p.TextFont, string(runes[:hi])).Width

		label := fitLabel(ps.measure, ps.p.SpanFont, ps.m.Ladder(s.Type), textTo-textFrom)
		lsz := ps.measure.Measure(ps.p.SpanFont, label)
		w := lsz.Width + 2*ps.p.BoxTextMarginX
		h := lsz.Height + 2*ps.p.BoxTextMarginY
		x := (textFrom+textTo)/2 - w/2

		slot := Slot{From: x, To: x + w, Height: h, Curly: s.DrawCurly}
		if s.DrawCurly {
			slot.From = min(slot.From, textFrom)
			slot.To = max(slot.To, textTo)
		}
		s.Height = res.Place(slot)

		b := &spanBox{
			label:    label,
			labelDX:  ps.p.BoxTextMarginX,
			labelDY:  ps.p.BoxTextMarginY + lsz.Ascent,
			x:        x,
			w:        w,
			h:        h,
			bottom:   ps.p.CurlyHeight + s.Height,
			textFrom: textFrom,
			textTo:   textTo,
			curly:    s.DrawCurly,
		}
		b.top = ps.textH + b.bottom + h
		ps.boxes[s.ID] = b
		c.boxes = append(c.boxes, b)

		c.minX = min(c.minX, slot.From)
		c.maxX = max(c.maxX, slot.To)
	}
}

// fitLabel picks the longest alias that fits avail, or the shortest one.
func fitLabel(m fonts.Measurer, f fonts.Font, ladder []string, avail float64) string {
	for _, l := range ladder {
		if m.Measure(f, l).Width <= avail {
			return l
		}
	}
	return ladder[len(ladder)-1]
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

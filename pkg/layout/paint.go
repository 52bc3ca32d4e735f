package layout

import (
	"strconv"
	"strings"

	"github.com/matzehuels/annoview/pkg/render/surface"
)

// Paint draws l into a new group under parent and returns that group.
//
// Each row gets its own group translated to the row's text bottom, so row
// contents are drawn in row-local coordinates.
func Paint(l *Layout, s surface.Surface, parent surface.Element) surface.Element {
	return paint(l, s, parent, s.Marker("arrow", arrowSize))
}

const arrowSize = 5

func paint(l *Layout, s surface.Surface, parent, arrow surface.Element) surface.Element {
	frame := s.Group(parent, "frame")

	rows := make([]surface.Element, len(l.Rows))
	for i, r := range l.Rows {
		bg := s.Group(frame, "background")
		s.Rect(bg, surface.Rect{X: 0, Y: r.Top, W: l.Width, H: r.Bottom - r.Top}, "background"+strconv.Itoa(r.Background))
		if r.FirstOfSentence {
			_, _ = s.Text(bg, l.Gutter/2, r.Y, strconv.Itoa(r.Sentence), l.Fonts.Span, "sentnum")
		}

		rows[i] = s.Group(frame, "row")
		s.Translate(rows[i], 0, r.Y)
	}

	for _, c := range l.Chunks {
		y := c.Baseline - l.Rows[c.Row].Y
		_, _ = s.Text(rows[c.Row], c.X, y, c.Text, l.Fonts.Text, "text")
	}

	for _, sb := range l.Spans {
		g := rows[sb.Row]
		ry := l.Rows[sb.Row].Y
		box := sb.Box
		box.Y -= ry
		s.Rect(g, box, spanClass(sb))
		_, _ = s.Text(g, sb.LabelAt.X, sb.LabelAt.Y-ry, sb.Label, l.Fonts.Span, "span-label")
		if sb.Curly != nil {
			s.Path(g, curly(sb.Curly, l.CurlyHeight, ry), surface.PathStyle{Class: "curly"})
		}
	}

	for _, a := range l.Arcs {
		last := len(a.Segments) - 1
		for i, seg := range a.Segments {
			g := rows[seg.Row]
			ry := l.Rows[seg.Row].Y
			style := surface.PathStyle{Class: "arc " + a.Type, Dashed: a.Equiv}

			left := style
			if i == 0 && a.Marker == surface.MarkerStart {
				left.Marker, left.MarkerID = surface.MarkerStart, arrow
			}
			right := style
			if i == last && a.Marker == surface.MarkerEndPoint {
				right.Marker, right.MarkerID = surface.MarkerEndPoint, arrow
			}
			s.Path(g, shift(seg.Left, -ry), left)
			s.Path(g, shift(seg.Right, -ry), right)

			_, _ = s.Text(g, seg.LabelX-seg.LabelW/2, seg.Baseline-ry, seg.Label, l.Fonts.Arc, "arc-label")
		}
	}
	return frame
}

func spanClass(sb SpanBox) string {
	parts := []string{"span", sb.Type}
	parts = append(parts, sb.Modifiers...)
	if sb.Edited {
		parts = append(parts, "edited")
	}
	return strings.Join(parts, " ")
}

// curly draws a bracket under a tower box, opening toward the text.
func curly(c *Curly, height, dy float64) surface.Path {
	top := c.Y - dy
	bottom := top + height
	r := min(height, (c.To-c.From)/2)
	var p surface.Path
	return p.Move(c.From, bottom).
		Quad(surface.Point{X: c.From, Y: top}, surface.Point{X: c.From + r, Y: top}).
		Line(c.To-r, top).
		Quad(surface.Point{X: c.To, Y: top}, surface.Point{X: c.To, Y: bottom})
}

func shift(p surface.Path, dy float64) surface.Path {
	out := make(surface.Path, len(p))
	for i, seg := range p {
		pts := make([]surface.Point, len(seg.Points))
		for j, pt := range seg.Points {
			pts[j] = surface.Point{X: pt.X, Y: pt.Y + dy}
		}
		out[i] = surface.Segment{Op: seg.Op, Points: pts}
	}
	return out
}

// Canvas keeps the most recent frame on a surface and swaps it out when a
// new layout is shown.
type Canvas struct {
	surface surface.Surface
	arrow   surface.Element
	frame   surface.Element
	shown   *Layout
}

// NewCanvas wraps s.
func NewCanvas(s surface.Surface) *Canvas {
	return &Canvas{surface: s, arrow: s.Marker("arrow", arrowSize), frame: -1}
}

// Show replaces the current frame with l.
func (c *Canvas) Show(l *Layout) {
	if c.frame >= 0 {
		c.surface.Remove(c.frame)
	}
	c.frame = paint(l, c.surface, surface.Root, c.arrow)
	c.shown = l
}

// Current returns the layout on screen, or nil.
func (c *Canvas) Current() *Layout { return c.shown }

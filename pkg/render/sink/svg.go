package sink

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/render/surface"
)

type nodeKind uint8

const (
	kindGroup nodeKind = iota
	kindText
	kindRect
	kindPath
	kindMarker
)

type node struct {
	kind     nodeKind
	parent   surface.Element
	children []surface.Element
	class    string
	removed  bool

	text  string
	font  fonts.Font
	at    surface.Point
	box   surface.Rect
	path  surface.Path
	style surface.PathStyle
	size  float64

	dx, dy float64
}

// SVG is a [surface.Surface] that builds an SVG document in memory.
type SVG struct {
	measure fonts.Measurer
	nodes   []*node
	markers []surface.Element
}

// NewSVG creates an empty SVG surface that measures text with m.
func NewSVG(m fonts.Measurer) *SVG {
	if m == nil {
		m = fonts.Fixed{}
	}
	return &SVG{
		measure: m,
		nodes:   []*node{{kind: kindGroup, parent: surface.Root}},
	}
}

func (s *SVG) add(n *node) surface.Element {
	id := surface.Element(len(s.nodes))
	s.nodes = append(s.nodes, n)
	if p := s.node(n.parent); p != nil {
		p.children = append(p.children, id)
	}
	return id
}

func (s *SVG) node(e surface.Element) *node {
	if int(e) < 0 || int(e) >= len(s.nodes) {
		return nil
	}
	return s.nodes[e]
}

// Group implements [surface.Surface].
func (s *SVG) Group(parent surface.Element, class string) surface.Element {
	return s.add(&node{kind: kindGroup, parent: parent, class: class})
}

// Text implements [surface.Surface].
func (s *SVG) Text(parent surface.Element, x, y float64, text string, f fonts.Font, class string) (surface.Element, surface.Rect) {
	sz := s.measure.Measure(f, text)
	box := surface.Rect{X: x, Y: y - sz.Ascent, W: sz.Width, H: sz.Height}
	id := s.add(&node{kind: kindText, parent: parent, class: class, text: text, font: f, at: surface.Point{X: x, Y: y}, box: box})
	return id, box
}

// Rect implements [surface.Surface].
func (s *SVG) Rect(parent surface.Element, r surface.Rect, class string) surface.Element {
	return s.add(&node{kind: kindRect, parent: parent, class: class, box: r})
}

// Path implements [surface.Surface].
func (s *SVG) Path(parent surface.Element, p surface.Path, style surface.PathStyle) surface.Element {
	return s.add(&node{kind: kindPath, parent: parent, class: style.Class, path: p, style: style})
}

// Marker implements [surface.Surface]. Markers live in <defs>.
func (s *SVG) Marker(class string, size float64) surface.Element {
	id := s.add(&node{kind: kindMarker, parent: -1, class: class, size: size})
	s.markers = append(s.markers, id)
	return id
}

// Remove implements [surface.Surface].
func (s *SVG) Remove(e surface.Element) {
	n := s.node(e)
	if n == nil || e == surface.Root || n.removed {
		return
	}
	n.removed = true
	for _, c := range n.children {
		s.Remove(c)
	}
}

// Translate implements [surface.Surface].
func (s *SVG) Translate(e surface.Element, dx, dy float64) {
	if n := s.node(e); n != nil {
		n.dx += dx
		n.dy += dy
	}
}

// WriteTo serializes the document with the given canvas size.
func (s *SVG) WriteTo(w io.Writer, width, height float64, css string) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)

	buf.WriteString("  <defs>\n")
	for _, id := range s.markers {
		if m := s.node(id); m != nil && !m.removed {
			writeMarker(&buf, id, m)
		}
	}
	buf.WriteString("  </defs>\n")
	if css != "" {
		fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", css)
	}

	for _, c := range s.nodes[surface.Root].children {
		s.writeNode(&buf, c, 1)
	}
	buf.WriteString("</svg>\n")

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// Bytes is WriteTo into a fresh buffer.
func (s *SVG) Bytes(width, height float64, css string) []byte {
	var buf bytes.Buffer
	_, _ = s.WriteTo(&buf, width, height, css)
	return buf.Bytes()
}

func markerID(id surface.Element) string { return "marker-" + strconv.Itoa(int(id)) }

func writeMarker(buf *bytes.Buffer, id surface.Element, m *node) {
	fmt.Fprintf(buf, `    <marker id="%s" class="%s" viewBox="0 0 10 10" refX="10" refY="5" markerWidth="%.1f" markerHeight="%.1f" orient="auto-start-reverse">`+"\n",
		markerID(id), attr(m.class), m.size, m.size)
	buf.WriteString(`      <path d="M0,0 L10,5 L0,10 z"/>` + "\n")
	buf.WriteString("    </marker>\n")
}

func (s *SVG) writeNode(buf *bytes.Buffer, id surface.Element, depth int) {
	n := s.node(id)
	if n == nil || n.removed {
		return
	}
	indent := bytes.Repeat([]byte("  "), depth)
	buf.Write(indent)

	switch n.kind {
	case kindGroup:
		buf.WriteString("<g")
		writeClass(buf, n.class)
		writeTransform(buf, n)
		buf.WriteString(">\n")
		for _, c := range n.children {
			s.writeNode(buf, c, depth+1)
		}
		buf.Write(indent)
		buf.WriteString("</g>\n")
	case kindText:
		fmt.Fprintf(buf, `<text x="%.2f" y="%.2f" font-size="%.1f" font-family="%s"`, n.at.X, n.at.Y, n.font.Size, attr(n.font.Family))
		writeClass(buf, n.class)
		writeTransform(buf, n)
		fmt.Fprintf(buf, ">%s</text>\n", errors.EscapeText(n.text))
	case kindRect:
		fmt.Fprintf(buf, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f"`, n.box.X, n.box.Y, n.box.W, n.box.H)
		writeClass(buf, n.class)
		writeTransform(buf, n)
		buf.WriteString("/>\n")
	case kindPath:
		fmt.Fprintf(buf, `<path d="%s" fill="none"`, n.path.SVG())
		writeClass(buf, n.class)
		if n.style.Dashed {
			buf.WriteString(` stroke-dasharray="3,3"`)
		}
		switch n.style.Marker {
		case surface.MarkerStart:
			fmt.Fprintf(buf, ` marker-start="url(#%s)"`, markerID(n.style.MarkerID))
		case surface.MarkerEndPoint:
			fmt.Fprintf(buf, ` marker-end="url(#%s)"`, markerID(n.style.MarkerID))
		}
		writeTransform(buf, n)
		buf.WriteString("/>\n")
	}
}

func writeClass(buf *bytes.Buffer, class string) {
	if class != "" {
		fmt.Fprintf(buf, ` class="%s"`, attr(class))
	}
}

func writeTransform(buf *bytes.Buffer, n *node) {
	if n.dx != 0 || n.dy != 0 {
		fmt.Fprintf(buf, ` transform="translate(%.2f,%.2f)"`, n.dx, n.dy)
	}
}

func attr(s string) string { return errors.EscapeText(s) }

var _ surface.Surface = (*SVG)(nil)

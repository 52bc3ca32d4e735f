package surface

import (
	"github.com/matzehuels/annoview/pkg/fonts"
)

// Kind names the operation that created a recorded element.
type Kind string

const (
	KindGroup  Kind = "group"
	KindText   Kind = "text"
	KindRect   Kind = "rect"
	KindPath   Kind = "path"
	KindMarker Kind = "marker"
)

// Node is one element captured by a [Recorder].
type Node struct {
	ID       Element    `json:"id"`
	Parent   Element    `json:"parent"`
	Kind     Kind       `json:"kind"`
	Class    string     `json:"class,omitempty"`
	Text     string     `json:"text,omitempty"`
	Font     fonts.Font `json:"font,omitzero"`
	Box      Rect       `json:"box,omitzero"`
	Path     Path       `json:"path,omitempty"`
	Style    PathStyle  `json:"style,omitzero"`
	Offset   Point      `json:"offset,omitzero"`
	Children []Element  `json:"children,omitempty"`
	Removed  bool       `json:"removed,omitempty"`
}

// Recorder is an in-memory [Surface]. It keeps every element in creation
// order, which makes painted output easy to assert on.
type Recorder struct {
	measure fonts.Measurer
	nodes   []*Node
}

// NewRecorder creates a recorder that measures text with m.
func NewRecorder(m fonts.Measurer) *Recorder {
	if m == nil {
		m = fonts.Fixed{}
	}
	return &Recorder{
		measure: m,
		nodes:   []*Node{{ID: Root, Parent: Root, Kind: KindGroup, Class: "root"}},
	}
}

func (r *Recorder) add(n *Node) Element {
	n.ID = Element(len(r.nodes))
	r.nodes = append(r.nodes, n)
	if p := r.node(n.Parent); p != nil {
		p.Children = append(p.Children, n.ID)
	}
	return n.ID
}

func (r *Recorder) node(e Element) *Node {
	if int(e) < 0 || int(e) >= len(r.nodes) {
		return nil
	}
	return r.nodes[e]
}

// Group implements [Surface].
func (r *Recorder) Group(parent Element, class string) Element {
	return r.add(&Node{Parent: parent, Kind: KindGroup, Class: class})
}

// Text implements [Surface].
func (r *Recorder) Text(parent Element, x, y float64, text string, f fonts.Font, class string) (Element, Rect) {
	sz := r.measure.Measure(f, text)
	box := Rect{X: x, Y: y - sz.Ascent, W: sz.Width, H: sz.Height}
	id := r.add(&Node{Parent: parent, Kind: KindText, Class: class, Text: text, Font: f, Box: box})
	return id, box
}

// Rect implements [Surface].
func (r *Recorder) Rect(parent Element, box Rect, class string) Element {
	return r.add(&Node{Parent: parent, Kind: KindRect, Class: class, Box: box})
}

// Path implements [Surface].
func (r *Recorder) Path(parent Element, p Path, style PathStyle) Element {
	return r.add(&Node{Parent: parent, Kind: KindPath, Path: p, Style: style, Class: style.Class})
}

// Marker implements [Surface].
func (r *Recorder) Marker(class string, size float64) Element {
	return r.add(&Node{Parent: Root, Kind: KindMarker, Class: class, Box: Rect{W: size, H: size}})
}

// Remove implements [Surface].
func (r *Recorder) Remove(e Element) {
	n := r.node(e)
	if n == nil || e == Root {
		return
	}
	n.Removed = true
	for _, c := range n.Children {
		r.Remove(c)
	}
}

// Translate implements [Surface].
func (r *Recorder) Translate(e Element, dx, dy float64) {
	if n := r.node(e); n != nil {
		n.Offset.X += dx
		n.Offset.Y += dy
	}
}

// Nodes returns all live elements in creation order, root excluded.
func (r *Recorder) Nodes() []Node {
	out := make([]Node, 0, len(r.nodes)-1)
	for _, n := range r.nodes[1:] {
		if !n.Removed {
			out = append(out, *n)
		}
	}
	return out
}

// Find returns the live elements of the given kind and class.
func (r *Recorder) Find(kind Kind, class string) []Node {
	var out []Node
	for _, n := range r.Nodes() {
		if n.Kind == kind && n.Class == class {
			out = append(out, n)
		}
	}
	return out
}

var _ Surface = (*Recorder)(nil)

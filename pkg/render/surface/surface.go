// Package surface defines the drawing operations the layout engine issues.
//
// A [Surface] only draws. Every coordinate, ordering decision and control
// point comes from the caller; implementations must not reposition what they
// are given. The SVG sink implements it for output, [Recorder] implements it
// for tests and inspection.
package surface

import (
	"fmt"
	"strings"

	"github.com/matzehuels/annoview/pkg/fonts"
)

// Element is a handle to something created on a surface.
type Element int

// Root is the implicit top-level container of every surface.
const Root Element = 0

// Point is a 2-D coordinate with y growing downward.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box anchored at its top-left corner.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// CenterX returns the horizontal center.
func (r Rect) CenterX() float64 { return r.X + r.W/2 }

// Op is a path segment kind.
type Op uint8

const (
	MoveTo Op = iota
	LineTo
	CubicTo
	QuadTo
)

// Segment is one path command. CubicTo carries two control points and the
// end point, QuadTo one control point and the end point.
type Segment struct {
	Op     Op      `json:"op"`
	Points []Point `json:"points"`
}

// Path is an ordered list of segments.
type Path []Segment

// Move starts a new subpath at p.
func (p Path) Move(x, y float64) Path {
	return append(p, Segment{Op: MoveTo, Points: []Point{{x, y}}})
}

// Line draws a straight segment to (x, y).
func (p Path) Line(x, y float64) Path {
	return append(p, Segment{Op: LineTo, Points: []Point{{x, y}}})
}

// Cubic draws a cubic bezier through c1 and c2 to end.
func (p Path) Cubic(c1, c2, end Point) Path {
	return append(p, Segment{Op: CubicTo, Points: []Point{c1, c2, end}})
}

// Quad draws a quadratic bezier through c to end.
func (p Path) Quad(c, end Point) Path {
	return append(p, Segment{Op: QuadTo, Points: []Point{c, end}})
}

// Start returns the first point of the path.
func (p Path) Start() (Point, bool) {
	if len(p) == 0 || len(p[0].Points) == 0 {
		return Point{}, false
	}
	return p[0].Points[0], true
}

// End returns the last point of the path.
func (p Path) End() (Point, bool) {
	if len(p) == 0 {
		return Point{}, false
	}
	pts := p[len(p)-1].Points
	if len(pts) == 0 {
		return Point{}, false
	}
	return pts[len(pts)-1], true
}

// SVG renders the path as an SVG path data string.
func (p Path) SVG() string {
	var b strings.Builder
	for i, s := range p {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch s.Op {
		case MoveTo:
			b.WriteString("M")
		case LineTo:
			b.WriteString("L")
		case CubicTo:
			b.WriteString("C")
		case QuadTo:
			b.WriteString("Q")
		}
		for j, pt := range s.Points {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%.2f,%.2f", pt.X, pt.Y)
		}
	}
	return b.String()
}

// Marker placement on a path.
type MarkerEnd uint8

const (
	NoMarker MarkerEnd = iota
	MarkerStart
	MarkerEndPoint
)

// PathStyle describes how a path is stroked.
type PathStyle struct {
	Class  string
	Dashed bool
	Marker MarkerEnd
	// MarkerID references an element returned by Surface.Marker.
	MarkerID Element
}

// Surface is the set of drawing operations the engine needs.
type Surface interface {
	// Group creates a container under parent.
	Group(parent Element, class string) Element
	// Text creates a label whose baseline starts at (x, y) and returns its box.
	Text(parent Element, x, y float64, text string, f fonts.Font, class string) (Element, Rect)
	// Rect creates a rectangle.
	Rect(parent Element, r Rect, class string) Element
	// Path creates a path.
	Path(parent Element, p Path, style PathStyle) Element
	// Marker creates a reusable arrow marker definition.
	Marker(class string, size float64) Element
	// Remove deletes an element and its children.
	Remove(e Element)
	// Translate moves an element by (dx, dy).
	Translate(e Element, dx, dy float64)
}

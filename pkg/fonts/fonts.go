// Package fonts measures text for the layout engine.
//
// Layout never asks a rendering surface for text extents. It calls a pure
// [Measurer] instead, so a pass is a function of its input alone. The
// default measurer uses the Go Regular OpenType font shipped with
// golang.org/x/image; [Fixed] is a metric-free stand-in for tests.
package fonts

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// DefaultFamily is the CSS font-family written into rendered output.
const DefaultFamily = "Go, 'DejaVu Sans', Arial, sans-serif"

// Font selects a face by family and pixel size.
type Font struct {
	Family string  `json:"family" toml:"family" yaml:"family"`
	Size   float64 `json:"size" toml:"size" yaml:"size"`
}

// Size is the extent of a measured string.
type Size struct {
	Width  float64
	Height float64
	// Ascent is the distance from the top of the box to the baseline.
	Ascent float64
}

// Measurer returns the extent of s rendered in f.
type Measurer interface {
	Measure(f Font, s string) Size
}

// OpenType measures text with a parsed OpenType font. Faces are created
// lazily per size and reused; it is safe for concurrent use.
type OpenType struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

var (
	goRegular     *OpenType
	goRegularErr  error
	goRegularOnce sync.Once
)

// GoRegular returns the shared measurer backed by the Go Regular font.
func GoRegular() (*OpenType, error) {
	goRegularOnce.Do(func() {
		goRegular, goRegularErr = NewOpenType(goregular.TTF)
	})
	return goRegular, goRegularErr
}

// NewOpenType parses TTF or OTF data into a measurer.
func NewOpenType(data []byte) (*OpenType, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &OpenType{font: f, faces: make(map[float64]font.Face)}, nil
}

// Measure implements [Measurer]. The family is ignored; all text is
// measured with the parsed font.
func (o *OpenType) Measure(f Font, s string) Size {
	o.mu.Lock()
	defer o.mu.Unlock()

	face, err := o.face(f.Size)
	if err != nil {
		return Fixed{}.Measure(f, s)
	}
	m := face.Metrics()
	return Size{
		Width:  toFloat(font.MeasureString(face, s)),
		Height: toFloat(m.Ascent + m.Descent),
		Ascent: toFloat(m.Ascent),
	}
}

func (o *OpenType) face(size float64) (font.Face, error) {
	if face, ok := o.faces[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(o.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, err
	}
	o.faces[size] = face
	return face, nil
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Fixed measures every rune as the same width. Width per rune is
// 0.6 × size, height 1.2 × size, ascent 0.9 × size.
type Fixed struct{}

// Measure implements [Measurer].
func (Fixed) Measure(f Font, s string) Size {
	n := float64(utf8.RuneCountInString(s))
	return Size{
		Width:  n * f.Size * 0.6,
		Height: f.Size * 1.2,
		Ascent: f.Size * 0.9,
	}
}

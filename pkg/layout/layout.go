package layout

import (
	"fmt"
	"slices"

	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/layout/ordering"
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/render/surface"
)

// Layout is the complete geometry of one document. Coordinates are
// absolute with y growing downward.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	// Gutter is the x where row text starts; sentence numbers sit left of it.
	Gutter      float64     `json:"gutter"`
	CurlyHeight float64     `json:"curly_height"`
	Fonts       Fonts       `json:"fonts"`
	Rows        []RowBox    `json:"rows"`
	Chunks      []ChunkBox  `json:"chunks"`
	Spans       []SpanBox   `json:"spans"`
	Arcs        []ArcPath   `json:"arcs"`
	Warnings    []string    `json:"warnings,omitempty"`
	Stats       LayoutStats `json:"stats"`
}

// Fonts are the faces the layout was measured with.
type Fonts struct {
	Text fonts.Font `json:"text"`
	Span fonts.Font `json:"span"`
	Arc  fonts.Font `json:"arc"`
}

// LayoutStats summarizes a layout for logging.
type LayoutStats struct {
	Chunks    int `json:"chunks"`
	Rows      int `json:"rows"`
	Spans     int `json:"spans"`
	Arcs      int `json:"arcs"`
	Sentences int `json:"sentences"`
}

// RowBox is one visual row.
type RowBox struct {
	Index      int `json:"index"`
	Sentence   int `json:"sentence"`
	Background int `json:"background"`
	// FirstOfSentence is set on the row that shows the sentence number.
	FirstOfSentence bool `json:"first_of_sentence"`
	HasAnnotations  bool `json:"has_annotations"`
	// Y is the bottom of the row's text; Top and Bottom bound the band.
	Y      float64      `json:"y"`
	Top    float64      `json:"top"`
	Bottom float64      `json:"bottom"`
	Chunks []int        `json:"chunks"`
	Infos  []model.Info `json:"infos,omitempty"`
}

// ChunkBox places one chunk's text.
type ChunkBox struct {
	Index       int     `json:"index"`
	Text        string  `json:"text"`
	From        int     `json:"from"`
	To          int     `json:"to"`
	Row         int     `json:"row"`
	X           float64 `json:"x"`
	Baseline    float64 `json:"baseline"`
	Width       float64 `json:"width"`
	HardBreak   bool    `json:"hard_break"`
	NewSentence bool    `json:"new_sentence"`
}

// SpanBox places one span's label box.
type SpanBox struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Kind      string       `json:"kind"`
	Label     string       `json:"label"`
	Modifiers []string     `json:"modifiers,omitempty"`
	Infos     []model.Info `json:"infos,omitempty"`
	Edited    bool         `json:"edited,omitempty"`
	Chunk     int          `json:"chunk"`
	Row       int          `json:"row"`
	LineIndex int          `json:"line_index"`
	TowerID   int          `json:"tower_id"`
	Box       surface.Rect `json:"box"`
	// LabelAt is the baseline origin of the label text.
	LabelAt surface.Point `json:"label_at"`
	// Top is the distance from the row's text bottom to the box top.
	Top   float64 `json:"top"`
	Curly *Curly  `json:"curly,omitempty"`
}

// Curly is the brace under a tower's box. Y is the brace's top edge.
type Curly struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
	Y    float64 `json:"y"`
}

// ArcPath is a routed arc, split into one segment per row it crosses.
type ArcPath struct {
	Origin     string            `json:"origin"`
	Target     string            `json:"target"`
	Type       string            `json:"type"`
	EventID    string            `json:"event_id"`
	Equiv      bool              `json:"equiv,omitempty"`
	Edited     bool              `json:"edited,omitempty"`
	Dist       int               `json:"dist"`
	JumpHeight float64           `json:"jump_height"`
	Height     float64           `json:"height"`
	Marker     surface.MarkerEnd `json:"marker"`
	Segments   []ArcSegment      `json:"segments"`
}

// ArcSegment is the part of an arc drawn on one row. Left runs from the
// left endpoint (or row edge) up to the label, Right from the label onward.
type ArcSegment struct {
	Row   int    `json:"row"`
	Label string `json:"label"`
	// LabelX and LabelY center the label on the arc's horizontal run.
	LabelX   float64      `json:"label_x"`
	LabelY   float64      `json:"label_y"`
	LabelW   float64      `json:"label_w"`
	Baseline float64      `json:"baseline"`
	Left     surface.Path `json:"left"`
	Right    surface.Path `json:"right"`
}

// Option configures [Build].
type Option func(*options)

type options struct {
	params  Params
	measure fonts.Measurer
}

// WithParams replaces the visual constants.
func WithParams(p Params) Option {
	return func(o *options) { o.params = p }
}

// WithWidth overrides the canvas width only.
func WithWidth(w float64) Option {
	return func(o *options) {
		if w > 0 {
			o.params.CanvasWidth = w
		}
	}
}

// WithMeasurer sets the text measurer.
func WithMeasurer(m fonts.Measurer) Option {
	return func(o *options) {
		if m != nil {
			o.measure = m
		}
	}
}

// defaultMeasurer loads the measurer used when none is given.
var defaultMeasurer = func() (fonts.Measurer, error) { return fonts.GoRegular() }

// Build runs a full layout pass over m. The model's derived fields are
// overwritten, so the same model can be laid out again.
//
// Without [WithMeasurer] the Go Regular face is used. If it cannot be
// loaded, text is measured with [fonts.Fixed] and the layout says so in
// its warnings.
func Build(m *model.Model, opts ...Option) (*Layout, error) {
	o := options{params: DefaultParams()}
	for _, opt := range opts {
		opt(&o)
	}
	var fallback error
	if o.measure == nil {
		if ot, err := defaultMeasurer(); err == nil {
			o.measure = ot
		} else {
			o.measure, fallback = fonts.Fixed{}, err
		}
	}
	if err := o.params.Validate(); err != nil {
		return nil, err
	}

	ps := newPass(m, o.params, o.measure)
	if err := ps.run(); err != nil {
		return nil, err
	}
	l := ps.result()
	if fallback != nil {
		l.Warnings = append(slices.Clone(l.Warnings), fmt.Sprintf("font unavailable, using fixed-width metrics: %v", fallback))
	}
	return l, nil
}

// pass carries the state of one layout computation.
type pass struct {
	p       Params
	measure fonts.Measurer
	m       *model.Model

	chunks []*Chunk
	linear []*model.Span
	boxes  map[string]*spanBox
	rows   []*row
	slots  []float64
	// heights holds the allocated height per arc, indexed like m.Arcs.
	heights []float64

	textH, textAscent float64
	sentences         int
}

func newPass(m *model.Model, p Params, measure fonts.Measurer) *pass {
	return &pass{p: p, measure: measure, m: m, boxes: make(map[string]*spanBox)}
}

func (ps *pass) run() error {
	ps.chunks = ChunkText(ps.m.Text, ps.m.Offset, ps.m.Spans)
	if err := AssignSpans(ps.chunks, ps.m.Spans); err != nil {
		return err
	}
	if err := BuildArcs(ps.m); err != nil {
		return err
	}

	ordering.MarkTowers(ps.m.Spans)
	groups := make([][]*model.Span, len(ps.chunks))
	for i, c := range ps.chunks {
		groups[i] = c.Spans
	}
	ordering.Resolve(ps.m, groups)
	ps.linear = slices.Clone(ps.m.Spans)
	slices.SortFunc(ps.linear, func(a, b *model.Span) int { return a.LineIndex - b.LineIndex })

	sz := ps.measure.Measure(ps.p.TextFont, "Xg")
	ps.textH, ps.textAscent = sz.Height, sz.Ascent

	for _, c := range ps.chunks {
		ps.packChunk(c)
	}
	ps.wrapRows()
	ps.allocateHeights()
	ps.placeRows()
	return nil
}

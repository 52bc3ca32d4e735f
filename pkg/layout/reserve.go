package layout

// Slot is the horizontal extent a span box claims inside its chunk.
type Slot struct {
	From, To float64
	// Height is the box height without the brace.
	Height float64
	Curly  bool
}

func (s Slot) overlaps(o Slot) bool {
	return s.From < o.To && o.From < s.To
}

// Line is one horizontal band of packed slots.
type Line struct {
	Height float64
	Curly  bool
	Slots  []Slot
}

// Reservations packs the boxes of one chunk into stacked lines, first fit.
type Reservations struct {
	BoxSpacing  float64
	CurlyHeight float64

	lines []Line
}

// Place puts s on the lowest line it does not overlap and returns the
// vertical offset of the box. A box that needs a brace on a line without
// one raises that line by CurlyHeight. Boxes placed on it earlier stay
// where they are.
func (r *Reservations) Place(s Slot) float64 {
	for i := range r.lines {
		line := &r.lines[i]
		if line.blocks(s) {
			continue
		}
		line.Slots = append(line.Slots, s)
		if s.Curly && !line.Curly {
			line.Height += r.CurlyHeight
			line.Curly = true
		}
		return line.Height
	}

	height := 0.0
	if len(r.lines) > 0 {
		need := s.Height
		if s.Curly {
			need += r.CurlyHeight
		}
		height = r.maxHeight() + need + r.BoxSpacing
	}
	r.lines = append(r.lines, Line{Height: height, Curly: s.Curly, Slots: []Slot{s}})
	return height
}

// Lines returns the packed lines bottom to top.
func (r *Reservations) Lines() []Line { return r.lines }

func (r *Reservations) maxHeight() float64 {
	h := 0.0
	for _, l := range r.lines {
		h = max(h, l.Height)
	}
	return h
}

func (l *Line) blocks(s Slot) bool {
	for _, o := range l.Slots {
		if o.overlaps(s) {
			return true
		}
	}
	return false
}

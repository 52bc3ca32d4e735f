package model

import (
	"slices"
	"strings"
)

// GeneralType distinguishes entity mentions from event triggers.
type GeneralType uint8

const (
	Entity GeneralType = iota
	Trigger
)

func (g GeneralType) String() string {
	if g == Trigger {
		return "trigger"
	}
	return "entity"
}

// Modifier is a fixed set of boolean span attributes.
type Modifier uint8

const (
	Negated Modifier = 1 << iota
	Speculative
)

var modifierNames = []struct {
	flag  Modifier
	names []string
}{
	{Negated, []string{"negated", "negation"}},
	{Speculative, []string{"speculative", "speculation"}},
}

// ParseModifier maps a modification record name onto a flag.
// Matching is case-insensitive; ok is false for unknown names.
func ParseModifier(name string) (Modifier, bool) {
	lower := strings.ToLower(name)
	for _, m := range modifierNames {
		for _, n := range m.names {
			if n == lower {
				return m.flag, true
			}
		}
	}
	return 0, false
}

// Has reports whether all flags in f are set.
func (m Modifier) Has(f Modifier) bool { return m&f == f && f != 0 }

// Names returns the canonical names of the set flags in a fixed order.
func (m Modifier) Names() []string {
	var out []string
	for _, mn := range modifierNames {
		if m&mn.flag != 0 {
			out = append(out, mn.names[0])
		}
	}
	return out
}

// Info is a comment attached to a span or a sentence.
type Info struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Span is a contiguous annotated text region.
//
// The first block of fields comes from the input document. The rest is
// derived during a layout pass and is meaningless before it.
type Span struct {
	ID        string
	Type      string
	General   GeneralType
	From, To  int
	Modifiers Modifier
	Infos     []Info
	Edited    bool

	// Arc references are indices into Model.Arcs.
	Incoming []int
	Outgoing []int

	TotalDist     int
	NumArcs       int
	AvgDist       float64
	TowerID       int
	LineIndex     int
	IndexNumber   int
	RefedIndexSum int
	DrawCurly     bool

	// Chunk is the index of the owning chunk, -1 until assigned.
	Chunk int

	// Height is the allocated vertical offset of the box inside its chunk.
	Height float64
}

// Width is the extent of the span in characters.
func (s *Span) Width() int { return s.To - s.From }

// Role is one argument of an event.
type Role struct {
	Type   string
	Target string
}

// EventDesc groups a trigger with its role arguments. Relations and
// decomposed equivalences are represented as synthetic events.
type EventDesc struct {
	ID        string
	TriggerID string
	Roles     []Role
	Edited    bool

	// Relation marks a binary relation record; the arc type is Roles[0].Type.
	Relation bool

	// Equiv marks a synthetic link of an equivalence chain.
	Equiv      bool
	LeftSpans  []string
	RightSpans []string
}

// Arc is a directed, typed connector between two spans.
type Arc struct {
	Origin     string
	Target     string
	Type       string
	EventID    string
	Dist       int
	JumpHeight float64
	Equiv      bool
	Edited     bool
}

// Equiv is a symmetric group relation between spans.
type Equiv struct {
	Label   string
	Members []string
}

// Model is the typed form of a document, rebuilt for every layout pass.
type Model struct {
	Text   string
	Offset int

	// Spans keep input order: entities first, then triggers.
	Spans  []*Span
	Events []*EventDesc
	Equivs []Equiv
	Arcs   []*Arc

	SentenceInfos map[int][]Info
	Labels        map[string][]string
	Warnings      []string

	spans  map[string]*Span
	events map[string]*EventDesc
}

// Span returns the span with the given id.
func (m *Model) Span(id string) (*Span, bool) {
	s, ok := m.spans[id]
	return s, ok
}

// Event returns the event with the given id.
func (m *Model) Event(id string) (*EventDesc, bool) {
	e, ok := m.events[id]
	return e, ok
}

// Resolve maps a span or event id onto a span. Event ids resolve to the
// event's trigger span.
func (m *Model) Resolve(id string) (*Span, bool) {
	if s, ok := m.spans[id]; ok {
		return s, true
	}
	if e, ok := m.events[id]; ok {
		return m.Span(e.TriggerID)
	}
	return nil, false
}

// AddEvent registers a synthetic event.
func (m *Model) AddEvent(e *EventDesc) {
	m.Events = append(m.Events, e)
	m.events[e.ID] = e
}

// DropSynthetic removes the events added for equivalence chains so that
// they can be derived again.
func (m *Model) DropSynthetic() {
	m.Events = slices.DeleteFunc(m.Events, func(e *EventDesc) bool {
		if e.Equiv {
			delete(m.events, e.ID)
			return true
		}
		return false
	})
}

// Ladder returns the abbreviation ladder for a type, longest alias first.
func (m *Model) Ladder(typ string) []string {
	if l := m.Labels[typ]; len(l) > 0 {
		return l
	}
	return []string{typ}
}

package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/render/surface"
)

func fixedBuild(t *testing.T, src string, opts ...Option) *Layout {
	t.Helper()
	opts = append([]Option{WithMeasurer(fonts.Fixed{})}, opts...)
	l, err := Build(mustModel(t, src), opts...)
	require.NoError(t, err)
	return l
}

func arcByTarget(l *Layout, target string) ArcPath {
	for _, a := range l.Arcs {
		if a.Target == target {
			return a
		}
	}
	return ArcPath{}
}

func TestBuildGivingScenario(t *testing.T) {
	l := fixedBuild(t, givingDoc)

	require.Len(t, l.Rows, 1, "short sentence must not wrap")
	require.Len(t, l.Chunks, 5)
	assert.Equal(t, "John", l.Chunks[0].Text)
	assert.Equal(t, "gave", l.Chunks[1].Text)
	assert.Equal(t, "Mary", l.Chunks[2].Text)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, l.Rows[0].Chunks)
	assert.True(t, l.Rows[0].HasAnnotations)
	assert.Equal(t, 1, l.Rows[0].Sentence)

	require.Len(t, l.Arcs, 2)
	agent := arcByTarget(l, "T1")
	recipient := arcByTarget(l, "T2")
	assert.Equal(t, "E1", agent.Origin)
	assert.Equal(t, surface.MarkerStart, agent.Marker, "T1 precedes the trigger")
	assert.Equal(t, surface.MarkerEndPoint, recipient.Marker, "T2 follows the trigger")

	for _, a := range l.Arcs {
		require.Len(t, a.Segments, 1)
		seg := a.Segments[0]
		assert.Equal(t, a.Type, seg.Label)
		start, _ := seg.Left.Start()
		end, _ := seg.Right.End()
		assert.Less(t, start.X, end.X, "left path starts at the left endpoint")
	}

	// Chunks are laid out left to right.
	for i := 1; i < len(l.Chunks); i++ {
		assert.Greater(t, l.Chunks[i].X, l.Chunks[i-1].X)
	}
	assert.Equal(t, 3, l.Stats.Spans)
	assert.Equal(t, 1, l.Stats.Sentences)
}

func TestBuildSpanBoxesSitAboveTheirText(t *testing.T) {
	l := fixedBuild(t, givingDoc)

	for _, sb := range l.Spans {
		c := l.Chunks[sb.Chunk]
		r := l.Rows[sb.Row]
		textTop := r.Y - 13*1.2
		assert.LessOrEqual(t, sb.Box.Bottom(), textTop, sb.ID)
		require.NotNil(t, sb.Curly, sb.ID)
		assert.InDelta(t, sb.Box.Bottom(), sb.Curly.Y, 1e-9)
		assert.GreaterOrEqual(t, sb.Curly.From, c.X-1e-9)
		assert.InDelta(t, r.Y-sb.Top, sb.Box.Y, 1e-9)
		assert.GreaterOrEqual(t, sb.Box.Y, r.Top)
	}
}

func TestBuildMissingTargetIsIntegrityFault(t *testing.T) {
	m := mustModel(t, `{
  "text": "John gave Mary a book.",
  "entities": [["T1", "Person", 0, 4]],
  "triggers": [["E1", "Giving", 5, 9]],
  "events": [["EV1", "E1", [["Recipient", "T2"]]]]
}`)
	_, err := Build(m, WithMeasurer(fonts.Fixed{}))

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDocumentIntegrity))
	assert.Equal(t, "T2", errors.OffendingID(err))
}

func TestBuildNewlineStartsSentence(t *testing.T) {
	l := fixedBuild(t, `{
  "text": "John slept.\nMary woke up.",
  "entities": [["T1", "Person", 0, 4], ["T2", "Person", 12, 16]],
  "comments": [[["sent", 2], "Note", "second sentence"]]
}`)

	require.GreaterOrEqual(t, len(l.Rows), 2)
	first, second := l.Rows[0], l.Rows[1]
	assert.Equal(t, 1, first.Sentence)
	assert.Equal(t, 2, second.Sentence)
	assert.NotEqual(t, first.Background, second.Background)
	assert.True(t, second.FirstOfSentence)
	assert.Equal(t, []model.Info{{Type: "Note", Text: "second sentence"}}, second.Infos)

	mary := l.Chunks[2]
	assert.Equal(t, "Mary", mary.Text)
	assert.True(t, mary.HardBreak)
	assert.True(t, mary.NewSentence)
	assert.Equal(t, 1, mary.Row)
	assert.Greater(t, second.Top, first.Bottom)
	assert.Greater(t, l.Height, second.Bottom)
}

func TestBuildWrapsLongText(t *testing.T) {
	words := make([]string, 40)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	text := strings.Join(words, " ")
	src := fmt.Sprintf(`{"text": %q}`, text)

	p := DefaultParams()
	l := fixedBuild(t, src, WithWidth(240))

	assert.Greater(t, len(l.Rows), 1)
	seen := 0
	for _, r := range l.Rows {
		assert.Equal(t, 1, r.Sentence, "soft wraps stay in the sentence")
		assert.Equal(t, l.Rows[0].Background, r.Background)
		for _, idx := range r.Chunks {
			c := l.Chunks[idx]
			assert.Equal(t, seen, c.Index, "rows keep chunk order")
			seen++
			assert.GreaterOrEqual(t, c.X, p.MarginX+p.SentNumMargin)
			assert.Less(t, c.X+c.Width, 240-p.MarginX)
		}
	}
	assert.Equal(t, len(words), seen)
}

func TestBuildKeepsRoomBetweenLinkedChunks(t *testing.T) {
	l := fixedBuild(t, `{
  "text": "alpha beta",
  "entities": [["T1", "A", 0, 5], ["T2", "B", 6, 10]],
  "relations": [["R1", "Rel", [["Arg1", "T1"], ["Arg2", "T2"]]]]
}`)
	p := DefaultParams()

	require.Len(t, l.Chunks, 2)
	gap := l.Chunks[1].X - (l.Chunks[0].X + l.Chunks[0].Width)
	assert.GreaterOrEqual(t, gap, p.ArcHorizontalSpacing-1e-9)
}

const nestedDoc = `{
  "text": "a b c d e f",
  "entities": [
    ["A", "X", 0, 1], ["B", "X", 2, 3], ["C", "X", 4, 5],
    ["D", "X", 6, 7], ["E", "X", 8, 9], ["F", "X", 10, 11]
  ],
  "relations": [
    ["R1", "outer", [["Arg1", "A"], ["Arg2", "F"]]],
    ["R2", "middle", [["Arg1", "B"], ["Arg2", "E"]]],
    ["R3", "inner", [["Arg1", "C"], ["Arg2", "D"]]],
    ["R4", "side", [["Arg1", "A"], ["Arg2", "B"]]]
  ]
}`

func TestAllocateHeightsClearsEverythingJumpedOver(t *testing.T) {
	m := mustModel(t, nestedDoc)
	ps := newPass(m, DefaultParams(), fonts.Fixed{})
	require.NoError(t, ps.run())

	for idx, a := range m.Arcs {
		lo, hi, ok := ps.slotRange(idx)
		require.True(t, ok)
		for i := lo; i <= hi; i++ {
			assert.GreaterOrEqual(t, ps.slots[i], a.JumpHeight, "arc %s slot %d", a.EventID, i)
			assert.GreaterOrEqual(t, ps.slots[i], ps.heights[idx], "arc %s slot %d", a.EventID, i)
		}
		assert.Greater(t, ps.heights[idx], a.JumpHeight)
	}

	l := ps.result()
	height := map[string]float64{}
	for _, a := range l.Arcs {
		height[a.EventID] = a.Height
	}
	assert.Greater(t, height["R1"], height["R2"])
	assert.Greater(t, height["R2"], height["R3"])

	// Boxes strictly between an arc's endpoints stay under it.
	for _, a := range l.Arcs {
		o, _ := m.Span(a.Origin)
		tg, _ := m.Span(a.Target)
		for _, sb := range l.Spans {
			if sb.LineIndex > min(o.LineIndex, tg.LineIndex) && sb.LineIndex < max(o.LineIndex, tg.LineIndex) {
				assert.Greater(t, a.Height, sb.Top, "%s over %s", a.EventID, sb.ID)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	render := func() []byte {
		l, err := Build(mustModel(t, nestedDoc))
		require.NoError(t, err)
		out, err := json.Marshal(l)
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, string(render()), string(render()))
}

func TestBuildAbbreviatesLabels(t *testing.T) {
	l := fixedBuild(t, `{
  "text": "I am",
  "entities": [["T1", "Pronoun", 0, 1]],
  "labels": {"Pronoun": ["Pronoun", "Pron", "P"]}
}`)

	require.Len(t, l.Spans, 1)
	assert.Equal(t, "P", l.Spans[0].Label, "only the shortest alias fits a one-letter span")
}

func TestBuildEquivArcsHaveNoMarker(t *testing.T) {
	l := fixedBuild(t, `{
  "text": "Obama said he would go.",
  "entities": [["T1", "Person", 0, 5], ["T2", "Person", 11, 13]],
  "equivs": [["Equiv", "T1", "T2"]]
}`)

	require.Len(t, l.Arcs, 1)
	assert.True(t, l.Arcs[0].Equiv)
	assert.Equal(t, surface.NoMarker, l.Arcs[0].Marker)
}

func TestBuildEmptyDocument(t *testing.T) {
	l := fixedBuild(t, `{"text": ""}`)

	assert.Empty(t, l.Rows)
	assert.Empty(t, l.Chunks)
	assert.Positive(t, l.Height)
}

func TestBuildRejectsInvalidParams(t *testing.T) {
	p := DefaultParams()
	p.CanvasWidth = 0
	_, err := Build(mustModel(t, givingDoc), WithParams(p))

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestPaintDrawsEveryElement(t *testing.T) {
	l := fixedBuild(t, givingDoc)
	rec := surface.NewRecorder(fonts.Fixed{})

	Paint(l, rec, surface.Root)

	assert.Len(t, rec.Find(surface.KindText, "text"), 5)
	assert.Len(t, rec.Find(surface.KindText, "span-label"), 3)
	assert.Len(t, rec.Find(surface.KindPath, "curly"), 3)
	assert.Len(t, rec.Find(surface.KindPath, "arc Agent"), 2)
	assert.Len(t, rec.Find(surface.KindText, "arc-label"), 2)
	assert.Len(t, rec.Find(surface.KindText, "sentnum"), 1)

	var markers int
	for _, n := range rec.Find(surface.KindPath, "arc Recipient") {
		if n.Style.Marker == surface.MarkerEndPoint {
			markers++
		}
	}
	assert.Equal(t, 1, markers)
}

func TestCanvasReplacesFrame(t *testing.T) {
	rec := surface.NewRecorder(fonts.Fixed{})
	c := NewCanvas(rec)

	first := fixedBuild(t, givingDoc)
	c.Show(first)
	second := fixedBuild(t, `{"text": "Just text."}`)
	c.Show(second)

	assert.Same(t, second, c.Current())
	assert.Len(t, rec.Find(surface.KindGroup, "frame"), 1)
	assert.Len(t, rec.Find(surface.KindText, "text"), 2)
	assert.Len(t, rec.Find(surface.KindMarker, "arrow"), 1)
}

func TestBuildRoutesArcAcrossRows(t *testing.T) {
	words := make([]string, 40)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	last := 39 * 7
	src := fmt.Sprintf(`{
  "text": %q,
  "triggers": [["E1", "Saying", 0, 6]],
  "entities": [["T1", "Thing", %d, %d]],
  "events": [["EV1", "E1", [["Theme", "T1"]]]]
}`, strings.Join(words, " "), last, last+6)

	p := DefaultParams()
	l := fixedBuild(t, src, WithWidth(240))

	var origin, target SpanBox
	for _, sb := range l.Spans {
		switch sb.ID {
		case "E1":
			origin = sb
		case "T1":
			target = sb
		}
	}
	require.Equal(t, 0, origin.Row)
	require.Equal(t, len(l.Rows)-1, target.Row)
	require.GreaterOrEqual(t, len(l.Rows), 3, "text must wrap onto intermediate rows")

	require.Len(t, l.Arcs, 1)
	a := l.Arcs[0]
	assert.Equal(t, surface.MarkerEndPoint, a.Marker)
	require.Len(t, a.Segments, target.Row-origin.Row+1, "one segment per row crossed")

	for i, seg := range a.Segments {
		assert.Equal(t, origin.Row+i, seg.Row)
	}

	first := a.Segments[0]
	start, ok := first.Left.Start()
	require.True(t, ok)
	assert.InDelta(t, origin.Box.CenterX(), start.X, 1e-9)
	assert.InDelta(t, origin.Box.Y, start.Y, 1e-9, "rises from the origin box top")
	firstEnd, _ := first.Right.End()
	assert.InDelta(t, 240-p.MarginX, firstEnd.X, 1e-9, "first row runs to the right edge")

	for _, seg := range a.Segments[1 : len(a.Segments)-1] {
		s, _ := seg.Left.Start()
		e, _ := seg.Right.End()
		assert.InDelta(t, p.MarginX+p.SentNumMargin, s.X, 1e-9, "row %d", seg.Row)
		assert.InDelta(t, 240-p.MarginX, e.X, 1e-9, "row %d", seg.Row)
		assert.InDelta(t, s.Y, e.Y, 1e-9, "intermediate rows run flat")
	}

	lastSeg := a.Segments[len(a.Segments)-1]
	lastStart, _ := lastSeg.Left.Start()
	assert.InDelta(t, p.MarginX+p.SentNumMargin, lastStart.X, 1e-9, "last row starts at the gutter")
	end, ok := lastSeg.Right.End()
	require.True(t, ok)
	assert.InDelta(t, target.Box.CenterX(), end.X, 1e-9)
	assert.InDelta(t, target.Box.Y, end.Y, 1e-9, "descends into the target box top")
}

func TestBuildRoutesCloseSameChunkArcOutward(t *testing.T) {
	l := fixedBuild(t, `{
  "text": "John gave Mary a book.",
  "triggers": [["E1", "Giving", 5, 9]],
  "entities": [["T1", "Act", 5, 9]],
  "events": [["EV1", "E1", [["Self", "T1"]]]]
}`)
	p := DefaultParams()

	atCenter := func(x float64) bool {
		for _, sb := range l.Spans {
			if math.Abs(sb.Box.CenterX()-x) < 1e-9 {
				return true
			}
		}
		return false
	}
	require.Len(t, l.Arcs, 1)
	a := l.Arcs[0]
	require.Len(t, a.Segments, 1)
	seg := a.Segments[0]

	require.Len(t, seg.Left, 2)
	start := seg.Left[0].Points[0]
	require.Equal(t, surface.CubicTo, seg.Left[1].Op)
	assert.True(t, atCenter(start.X), "starts at a box centre")

	require.NotEmpty(t, seg.Right)
	tail := seg.Right[len(seg.Right)-1]
	require.Equal(t, surface.CubicTo, tail.Op)
	end := tail.Points[2]
	assert.True(t, atCenter(end.X), "ends at a box centre")
	assert.Less(t, end.X-start.X, 2*p.ArcSlant, "endpoints are closer than two slants")

	assert.InDelta(t, start.X-p.ArcSlant, seg.Left[1].Points[0].X, 1e-9, "left corner flips outward")
	assert.InDelta(t, end.X+p.ArcSlant, tail.Points[0].X, 1e-9, "right corner flips outward")
	assert.LessOrEqual(t, seg.Left[1].Points[2].Y, start.Y, "the loop never dips into the box")
}

func TestParamsValidateReportsFirstBadFont(t *testing.T) {
	p := DefaultParams()
	p.SpanFont.Size = 0
	p.ArcFont.Size = 0

	for range 20 {
		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, errors.UserMessage(err), "span font size")
	}
}

func TestBuildWarnsWhenFontIsMissing(t *testing.T) {
	orig := defaultMeasurer
	t.Cleanup(func() { defaultMeasurer = orig })
	defaultMeasurer = func() (fonts.Measurer, error) {
		return nil, errors.New(errors.ErrCodeNotFound, "no face")
	}

	l, err := Build(mustModel(t, givingDoc))
	require.NoError(t, err)

	require.NotEmpty(t, l.Warnings)
	assert.Contains(t, l.Warnings[len(l.Warnings)-1], "fixed-width metrics")
	assert.Equal(t, fixedBuild(t, givingDoc).Chunks, l.Chunks, "falls back to fixed metrics")
}

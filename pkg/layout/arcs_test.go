package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/model"
)

const givingDoc = `{
  "text": "John gave Mary a book.",
  "entities": [["T1", "Person", 0, 4], ["T2", "Person", 10, 14]],
  "triggers": [["E1", "Giving", 5, 9]],
  "events": [["EV1", "E1", [["Agent", "T1"], ["Recipient", "T2"]]]]
}`

func mustModel(t *testing.T, src string) *model.Model {
	t.Helper()
	doc, err := model.UnmarshalDocument([]byte(src), model.FormatJSON)
	require.NoError(t, err)
	m, err := model.Build(doc)
	require.NoError(t, err)
	return m
}

func assigned(t *testing.T, m *model.Model) []*Chunk {
	t.Helper()
	chunks := ChunkText(m.Text, m.Offset, m.Spans)
	require.NoError(t, AssignSpans(chunks, m.Spans))
	return chunks
}

func TestBuildArcsDistances(t *testing.T) {
	m := mustModel(t, givingDoc)
	assigned(t, m)
	require.NoError(t, BuildArcs(m))

	require.Len(t, m.Arcs, 2)
	agent, recipient := m.Arcs[0], m.Arcs[1]
	assert.Equal(t, "E1", agent.Origin)
	assert.Equal(t, "T1", agent.Target)
	assert.Equal(t, "Agent", agent.Type)
	assert.Equal(t, "EV1", agent.EventID)
	assert.Equal(t, 1, agent.Dist)
	assert.Equal(t, "T2", recipient.Target)
	assert.Equal(t, 1, recipient.Dist)

	trigger, _ := m.Span("E1")
	assert.Equal(t, 2, trigger.NumArcs)
	assert.Equal(t, 2, trigger.TotalDist)
	assert.InDelta(t, 1.0, trigger.AvgDist, 1e-9)
	assert.Equal(t, []int{0, 1}, trigger.Outgoing)

	john, _ := m.Span("T1")
	assert.Equal(t, []int{0}, john.Incoming)
	assert.Equal(t, 1, john.NumArcs)
}

func TestBuildArcsEventTargetsResolveToTrigger(t *testing.T) {
	m := mustModel(t, `{
  "text": "He said she left.",
  "entities": [["T1", "Person", 0, 2], ["T2", "Person", 8, 11]],
  "triggers": [["TR1", "Say", 3, 7], ["TR2", "Leave", 12, 16]],
  "events": [
    ["E1", "TR1", [["Speaker", "T1"], ["Content", "E2"]]],
    ["E2", "TR2", [["Agent", "T2"]]]
  ]
}`)
	assigned(t, m)
	require.NoError(t, BuildArcs(m))

	require.Len(t, m.Arcs, 3)
	assert.Equal(t, "TR2", m.Arcs[1].Target)
	assert.Equal(t, 2, m.Arcs[1].Dist)
}

func TestBuildArcsUnknownTarget(t *testing.T) {
	m := mustModel(t, `{
  "text": "John gave Mary a book.",
  "entities": [["T1", "Person", 0, 4]],
  "triggers": [["E1", "Giving", 5, 9]],
  "events": [["EV1", "E1", [["Agent", "T1"], ["Recipient", "T7"]]]]
}`)
	assigned(t, m)

	err := BuildArcs(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDocumentIntegrity))
	assert.Equal(t, "T7", errors.OffendingID(err))
}

func TestBuildArcsDecomposesEquivalences(t *testing.T) {
	m := mustModel(t, `{
  "text": "Obama said the president and Barack will go.",
  "entities": [
    ["T3", "Person", 29, 35],
    ["T1", "Person", 0, 5],
    ["T2", "Person", 11, 24]
  ],
  "equivs": [["Equiv", "T3", "T1", "T2"]]
}`)
	assigned(t, m)
	require.NoError(t, BuildArcs(m))

	require.Len(t, m.Arcs, 2)
	for _, a := range m.Arcs {
		assert.True(t, a.Equiv)
		assert.Equal(t, "Equiv", a.Type)
	}
	assert.Equal(t, "T1", m.Arcs[0].Origin)
	assert.Equal(t, "T2", m.Arcs[0].Target)
	assert.Equal(t, "T2", m.Arcs[1].Origin)
	assert.Equal(t, "T3", m.Arcs[1].Target)

	ev, ok := m.Event(m.Arcs[0].EventID)
	require.True(t, ok)
	assert.Equal(t, []string{"T1"}, ev.LeftSpans)
	assert.Equal(t, []string{"T2"}, ev.RightSpans)
}

func TestBuildArcsRebuildKeepsOneChain(t *testing.T) {
	m := mustModel(t, `{
  "text": "Obama said he would go.",
  "entities": [["T1", "Person", 0, 5], ["T2", "Person", 11, 13]],
  "triggers": [["E1", "Saying", 6, 10]],
  "events": [["EV1", "E1", [["Speaker", "T1"]]]],
  "equivs": [["Equiv", "T1", "T2"]]
}`)
	assigned(t, m)
	require.NoError(t, BuildArcs(m))
	require.NoError(t, BuildArcs(m))

	require.Len(t, m.Arcs, 2)
	assert.Len(t, m.Events, 2)
	t1, _ := m.Span("T1")
	assert.Equal(t, 2, t1.NumArcs)

	_, err := Build(m, WithMeasurer(fonts.Fixed{}))
	require.NoError(t, err)
	assert.Len(t, m.Arcs, 2, "a second layout pass over the same model")
}

func TestBuildArcsRelations(t *testing.T) {
	m := mustModel(t, `{
  "text": "Paris is in France.",
  "entities": [["T1", "City", 0, 5], ["T2", "Country", 12, 18]],
  "relations": [["R1", "Located_in", [["Arg1", "T1"], ["Arg2", "T2"]]]]
}`)
	assigned(t, m)
	require.NoError(t, BuildArcs(m))

	require.Len(t, m.Arcs, 1)
	assert.Equal(t, "Located_in", m.Arcs[0].Type)
	assert.Equal(t, "R1", m.Arcs[0].EventID)
	assert.Equal(t, 3, m.Arcs[0].Dist)
}

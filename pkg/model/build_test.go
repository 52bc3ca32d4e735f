package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/annoview/pkg/errors"
)

const giving = `{
  "text": "John gave Mary a book.",
  "entities": [["T1", "Person", 0, 4], ["T2", "Person", 10, 14]],
  "triggers": [["T3", "Giving", 5, 9]],
  "events": [["E1", "T3", [["Agent", "T1"], ["Recipient", "T2"]]]]
}`

func TestBuildGivingDocument(t *testing.T) {
	doc, err := UnmarshalDocument([]byte(giving), FormatJSON)
	require.NoError(t, err)

	m, err := Build(doc)
	require.NoError(t, err)

	require.Len(t, m.Spans, 3)
	assert.Equal(t, "T1", m.Spans[0].ID)
	assert.Equal(t, Entity, m.Spans[0].General)
	assert.Equal(t, Trigger, m.Spans[2].General)
	assert.Equal(t, -1, m.Spans[2].Chunk)

	ev, ok := m.Event("E1")
	require.True(t, ok)
	assert.Equal(t, "T3", ev.TriggerID)
	assert.Equal(t, []Role{{"Agent", "T1"}, {"Recipient", "T2"}}, ev.Roles)

	span, ok := m.Resolve("E1")
	require.True(t, ok)
	assert.Equal(t, "T3", span.ID)
}

func TestBuildYAMLMatchesJSON(t *testing.T) {
	yamlDoc := `
text: John gave Mary a book.
entities:
  - [T1, Person, 0, 4]
  - [T2, Person, 10, 14]
triggers:
  - [T3, Giving, 5, 9]
events:
  - [E1, T3, [[Agent, T1], [Recipient, T2]]]
`
	fromYAML, err := UnmarshalDocument([]byte(yamlDoc), FormatYAML)
	require.NoError(t, err)
	fromJSON, err := UnmarshalDocument([]byte(giving), FormatJSON)
	require.NoError(t, err)

	a, err := Build(fromYAML)
	require.NoError(t, err)
	b, err := Build(fromJSON)
	require.NoError(t, err)

	require.Len(t, a.Spans, len(b.Spans))
	for i := range a.Spans {
		assert.Equal(t, b.Spans[i].ID, a.Spans[i].ID)
		assert.Equal(t, b.Spans[i].From, a.Spans[i].From)
		assert.Equal(t, b.Spans[i].To, a.Spans[i].To)
	}
	assert.Equal(t, b.Events[0].Roles, a.Events[0].Roles)
}

func TestBuildModifications(t *testing.T) {
	doc := &Document{
		Text:     "Nobody saw it.",
		Entities: []Record{{"T1", "Person", 0, 6}},
		Triggers: []Record{{"T2", "Seeing", 7, 10}},
		Events:   []Record{{"E1", "T2", []any{[]any{"Experiencer", "T1"}}}},
		Modifications: []Record{
			{"M1", "Negation", "E1"},
			{"M2", "Speculation", "T1"},
			{"M3", "Sarcasm", "T1"},
		},
	}

	m, err := Build(doc)
	require.NoError(t, err)

	trigger, _ := m.Span("T2")
	assert.True(t, trigger.Modifiers.Has(Negated))
	assert.False(t, trigger.Modifiers.Has(Speculative))

	person, _ := m.Span("T1")
	assert.Equal(t, []string{"speculative"}, person.Modifiers.Names())

	require.Len(t, m.Warnings, 1)
	assert.Contains(t, m.Warnings[0], "Sarcasm")
}

func TestBuildModificationOfMissingEvent(t *testing.T) {
	doc := &Document{
		Text:          "John gave Mary a book.",
		Entities:      []Record{{"T1", "Person", 0, 4}},
		Modifications: []Record{{"M1", "Negation", "E9"}},
	}

	_, err := Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeDocumentIntegrity))
	assert.Equal(t, "E9", errors.OffendingID(err))
	assert.Contains(t, err.Error(), "E9")
}

func TestBuildComments(t *testing.T) {
	doc := &Document{
		Text:     "One.\nTwo.",
		Entities: []Record{{"T1", "Thing", 0, 3}},
		Comments: []Record{
			{"T1", "AnnotatorNotes", "check this"},
			{[]any{"sent", 2}, "Warning", "long sentence"},
		},
	}

	m, err := Build(doc)
	require.NoError(t, err)

	span, _ := m.Span("T1")
	assert.Equal(t, []Info{{"AnnotatorNotes", "check this"}}, span.Infos)
	assert.Equal(t, []Info{{"Warning", "long sentence"}}, m.SentenceInfos[2])

	doc.Comments = []Record{{"T7", "AnnotatorNotes", "dangling"}}
	_, err = Build(doc)
	assert.True(t, errors.Is(err, errors.ErrCodeDocumentIntegrity))
	assert.Equal(t, "T7", errors.OffendingID(err))
}

func TestBuildRelationsEquivsEdited(t *testing.T) {
	doc := &Document{
		Text: "Alice met Bob and she smiled.",
		Entities: []Record{
			{"T1", "Person", 0, 5},
			{"T2", "Person", 10, 13},
			{"T3", "Person", 18, 21},
		},
		Relations: []Record{{"R1", "Knows", []any{[]any{"Arg1", "T1"}, []any{"Arg2", "T2"}}}},
		Equivs: []Record{
			{"Equiv", "T3", "T1"},
			{"Equiv", "T2"},
		},
		Edited: []string{"T2", "R1", "X9"},
	}

	m, err := Build(doc)
	require.NoError(t, err)

	rel, ok := m.Event("R1")
	require.True(t, ok)
	assert.True(t, rel.Relation)
	assert.True(t, rel.Edited)
	assert.Equal(t, "T1", rel.TriggerID)
	assert.Equal(t, []Role{{"Knows", "T2"}}, rel.Roles)

	require.Len(t, m.Equivs, 1)
	assert.Equal(t, []string{"T3", "T1"}, m.Equivs[0].Members)

	bob, _ := m.Span("T2")
	assert.True(t, bob.Edited)

	require.Len(t, m.Warnings, 2)
	assert.True(t, strings.Contains(m.Warnings[1], "X9"))
}

func TestBuildMalformedRecords(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{"short entity", &Document{Entities: []Record{{"T1", "Person", 0}}}},
		{"string offset", &Document{Entities: []Record{{"T1", "Person", "0", 4}}}},
		{"reversed span", &Document{Entities: []Record{{"T1", "Person", 4, 0}}}},
		{"duplicate id", &Document{Entities: []Record{{"T1", "A", 0, 1}, {"T1", "B", 0, 1}}}},
		{"roles not a list", &Document{Events: []Record{{"E1", "T1", "Agent"}}}},
		{"relation with one arg", &Document{Relations: []Record{{"R1", "Knows", []any{[]any{"Arg1", "T1"}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.doc)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeMalformedDocument, errors.GetCode(err))
		})
	}
}

func TestParseModifier(t *testing.T) {
	tests := []struct {
		name string
		want Modifier
		ok   bool
	}{
		{"Negation", Negated, true},
		{"negated", Negated, true},
		{"SPECULATION", Speculative, true},
		{"Confidence", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseModifier(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseModifier(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}

package layout

import (
	"sort"
	"unicode"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/model"
)

// Chunk is a minimal run of text between break points. No span crosses a
// chunk boundary.
type Chunk struct {
	Index int
	Text  string
	// From and To are absolute offsets, To exclusive.
	From, To int
	// Space is the whitespace between the previous chunk and this one.
	Space       string
	HardBreak   bool
	NewSentence bool
	// Spans is in stacking order once ordering has run.
	Spans []*model.Span
	Row   int

	// X is the absolute x of the text origin, set by the row wrapper.
	X float64

	textWidth  float64
	minX, maxX float64
	boxes      []*spanBox
}

// Width is the horizontal extent of the chunk including its boxes.
func (c *Chunk) Width() float64 { return c.maxX - c.minX }

type breakPoint struct {
	pos  int
	hard bool
}

// ChunkText splits text into chunks.
//
// Every newline is a hard break that also starts a new sentence. Every
// other whitespace character is a soft break unless a span covers it, that
// is span.From <= pos+offset < span.To. Zero-length chunks between
// consecutive breaks are dropped; their break flags carry over to the next
// emitted chunk. The first chunk always starts a sentence.
func ChunkText(text string, offset int, spans []*model.Span) []*Chunk {
	runes := []rune(text)

	covered := make([]bool, len(runes))
	for _, s := range spans {
		lo := max(s.From-offset, 0)
		hi := min(s.To-offset, len(runes))
		for i := lo; i < hi; i++ {
			covered[i] = true
		}
	}

	breaks := []breakPoint{{pos: -1}}
	for i, r := range runes {
		switch {
		case r == '\n':
			breaks = append(breaks, breakPoint{pos: i, hard: true})
		case unicode.IsSpace(r) && !covered[i]:
			breaks = append(breaks, breakPoint{pos: i})
		}
	}

	var chunks []*Chunk
	hard, sentence := false, true
	spaceFrom := 0
	for k, b := range breaks {
		if b.hard {
			hard, sentence = true, true
		}
		start := b.pos + 1
		end := len(runes)
		if k+1 < len(breaks) {
			end = breaks[k+1].pos
		}
		if end <= start {
			continue
		}
		chunks = append(chunks, &Chunk{
			Index:       len(chunks),
			Text:        string(runes[start:end]),
			From:        start + offset,
			To:          end + offset,
			Space:       string(runes[spaceFrom:start]),
			HardBreak:   hard,
			NewSentence: sentence,
			Row:         -1,
		})
		hard, sentence = false, false
		spaceFrom = end
	}
	return chunks
}

// AssignSpans binds every span to the earliest chunk whose end is at or
// after the span's end. A span that ends past the last chunk means the
// document is malformed.
func AssignSpans(chunks []*Chunk, spans []*model.Span) error {
	for _, c := range chunks {
		c.Spans = c.Spans[:0]
	}
	for _, s := range spans {
		idx := sort.Search(len(chunks), func(i int) bool { return chunks[i].To >= s.To })
		if idx == len(chunks) {
			return errors.New(errors.ErrCodeMalformedDocument,
				"span %s ends at %d, past the end of the text", s.ID, s.To)
		}
		s.Chunk = idx
		chunks[idx].Spans = append(chunks[idx].Spans, s)
	}
	return nil
}

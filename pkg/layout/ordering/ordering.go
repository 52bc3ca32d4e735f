// Package ordering decides the vertical stacking order of span boxes.
//
// Spans inside a chunk are stacked bottom to top in [Compare] order. The
// comparator's last numeric key, refedIndexSum, depends on the order of other
// chunks, which in turn depends on this one. [Resolve] breaks the cycle with
// two sorting passes: the first with refedIndexSum zeroed, the second with
// refedIndexSum computed from the first pass's indices. Deeper dependencies
// are left alone; a third pass would change output without guaranteeing a
// crossing-free result.
package ordering

import (
	"cmp"
	"slices"

	"github.com/matzehuels/annoview/pkg/model"
)

// Compare orders two spans of the same chunk. Negative means a is stacked
// below b.
//
// Keys in priority order:
//  1. average arc distance, ascending
//  2. number of arcs, ascending
//  3. width: shorter first when neither span has arcs, wider last
//     otherwise; both cases sort ascending
//  4. refedIndexSum, ascending
//  5. type, lexicographic
func Compare(a, b *model.Span) int {
	if c := cmp.Compare(a.AvgDist, b.AvgDist); c != 0 {
		return c
	}
	if c := cmp.Compare(a.NumArcs, b.NumArcs); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Width(), b.Width()); c != 0 {
		return c
	}
	if c := cmp.Compare(a.RefedIndexSum, b.RefedIndexSum); c != 0 {
		return c
	}
	return cmp.Compare(a.Type, b.Type)
}

// Linear orders spans by document position: start ascending, end
// descending, then [Compare].
func Linear(a, b *model.Span) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}
	if c := cmp.Compare(b.To, a.To); c != 0 {
		return c
	}
	return Compare(a, b)
}

// MarkTowers groups spans with identical extent into towers. Tower ids are
// assigned in linear order starting at 1, and the first member of every
// tower is flagged to draw the grouping brace. It returns the spans in
// linear order; the input slice is not reordered.
func MarkTowers(spans []*model.Span) []*model.Span {
	sorted := slices.Clone(spans)
	slices.SortStableFunc(sorted, Linear)

	tower := 0
	var prev *model.Span
	for _, s := range sorted {
		if prev == nil || prev.From != s.From || prev.To != s.To {
			tower++
			s.DrawCurly = true
		} else {
			s.DrawCurly = false
		}
		s.TowerID = tower
		prev = s
	}
	return sorted
}

// Resolve sorts every chunk's spans in place and assigns IndexNumber,
// RefedIndexSum and the global LineIndex.
//
// groups holds one slice per chunk, in chunk order. Arc endpoints missing
// from m are skipped; arcs are validated before ordering runs.
func Resolve(m *model.Model, groups [][]*model.Span) {
	for _, g := range groups {
		for _, s := range g {
			s.RefedIndexSum = 0
		}
	}
	sortGroups(groups)

	for _, a := range m.Arcs {
		origin, okOrigin := m.Span(a.Origin)
		target, okTarget := m.Span(a.Target)
		if !okOrigin || !okTarget {
			continue
		}
		origin.RefedIndexSum += target.IndexNumber
	}
	sortGroups(groups)

	line := 0
	for _, g := range groups {
		for _, s := range g {
			s.LineIndex = line
			line++
		}
	}
}

func sortGroups(groups [][]*model.Span) {
	for _, g := range groups {
		slices.SortStableFunc(g, Compare)
		for i, s := range g {
			s.IndexNumber = i
		}
	}
}

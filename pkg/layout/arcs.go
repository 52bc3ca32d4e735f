package layout

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/model"
)

// BuildArcs turns events, relations and equivalences into arcs and records
// per-span arc statistics. Spans must already be assigned to chunks.
//
// Each equivalence group is sorted by position and decomposed into a chain
// of synthetic events linking consecutive members; chains from an earlier
// call are replaced. Any id that does not
// resolve to a span is an integrity fault.
func BuildArcs(m *model.Model) error {
	for _, s := range m.Spans {
		s.Incoming, s.Outgoing = nil, nil
		s.TotalDist, s.NumArcs, s.AvgDist = 0, 0, 0
	}
	m.Arcs = m.Arcs[:0]
	m.DropSynthetic()

	if err := decomposeEquivs(m); err != nil {
		return err
	}

	for _, ev := range m.Events {
		origin, ok := m.Resolve(ev.TriggerID)
		if !ok {
			return errors.Integrity(ev.TriggerID, "event %s has unknown trigger %s", ev.ID, ev.TriggerID)
		}
		for _, role := range ev.Roles {
			target, ok := m.Resolve(role.Target)
			if !ok {
				return errors.Integrity(role.Target, "event %s: role %s targets unknown id %s", ev.ID, role.Type, role.Target)
			}
			addArc(m, &model.Arc{
				Origin:  origin.ID,
				Target:  target.ID,
				Type:    role.Type,
				EventID: ev.ID,
				Equiv:   ev.Equiv,
				Edited:  ev.Edited,
			}, origin, target)
		}
	}

	for _, s := range m.Spans {
		if s.NumArcs > 0 {
			s.AvgDist = float64(s.TotalDist) / float64(s.NumArcs)
		}
	}
	return nil
}

func addArc(m *model.Model, a *model.Arc, origin, target *model.Span) {
	a.Dist = origin.Chunk - target.Chunk
	if a.Dist < 0 {
		a.Dist = -a.Dist
	}
	idx := len(m.Arcs)
	m.Arcs = append(m.Arcs, a)

	origin.Outgoing = append(origin.Outgoing, idx)
	target.Incoming = append(target.Incoming, idx)
	origin.TotalDist += a.Dist
	origin.NumArcs++
	target.TotalDist += a.Dist
	target.NumArcs++
}

func decomposeEquivs(m *model.Model) error {
	for k, eq := range m.Equivs {
		members := make([]*model.Span, 0, len(eq.Members))
		for _, id := range eq.Members {
			s, ok := m.Span(id)
			if !ok {
				return errors.Integrity(id, "equivalence %s references unknown span %s", eq.Label, id)
			}
			members = append(members, s)
		}
		slices.SortFunc(members, func(a, b *model.Span) int {
			if c := cmp.Compare(a.From, b.From); c != 0 {
				return c
			}
			if c := cmp.Compare(a.To, b.To); c != 0 {
				return c
			}
			return cmp.Compare(a.ID, b.ID)
		})
		for i := 0; i+1 < len(members); i++ {
			left, right := members[i], members[i+1]
			m.AddEvent(&model.EventDesc{
				ID:         fmt.Sprintf("*%d.%d", k+1, i+1),
				TriggerID:  left.ID,
				Roles:      []model.Role{{Type: eq.Label, Target: right.ID}},
				Equiv:      true,
				LeftSpans:  []string{left.ID},
				RightSpans: []string{right.ID},
			})
		}
	}
	return nil
}

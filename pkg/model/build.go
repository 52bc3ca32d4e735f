package model

import (
	"fmt"

	"github.com/matzehuels/annoview/pkg/errors"
)

// Build parses the raw records of doc into a fresh [Model].
//
// Records with the wrong shape yield MALFORMED_DOCUMENT errors. Modification
// and comment records that reference a missing span or event yield a
// DOCUMENT_INTEGRITY fault naming the id. Arc endpoints are resolved later,
// when arcs are built.
func Build(doc *Document) (*Model, error) {
	if doc == nil {
		return nil, errors.New(errors.ErrCodeMalformedDocument, "document is nil")
	}

	m := &Model{
		Text:          doc.Text,
		Offset:        doc.Offset,
		SentenceInfos: make(map[int][]Info),
		Labels:        make(map[string][]string, len(doc.Labels)),
		spans:         make(map[string]*Span),
		events:        make(map[string]*EventDesc),
	}
	for typ, ladder := range doc.Labels {
		m.Labels[typ] = append([]string(nil), ladder...)
	}

	if err := m.addSpans("entity", doc.Entities, Entity); err != nil {
		return nil, err
	}
	if err := m.addSpans("trigger", doc.Triggers, Trigger); err != nil {
		return nil, err
	}
	if err := m.addEvents(doc.Events); err != nil {
		return nil, err
	}
	if err := m.addRelations(doc.Relations); err != nil {
		return nil, err
	}
	if err := m.addEquivs(doc.Equivs); err != nil {
		return nil, err
	}
	if err := m.applyModifications(doc.Modifications); err != nil {
		return nil, err
	}
	if err := m.applyComments(doc.Comments); err != nil {
		return nil, err
	}
	m.applyEdited(doc.Edited)
	return m, nil
}

func malformed(kind string, i int, format string, args ...any) error {
	return errors.New(errors.ErrCodeMalformedDocument, "%s record %d: %s", kind, i, fmt.Sprintf(format, args...))
}

func (m *Model) addSpans(kind string, records []Record, general GeneralType) error {
	for i, r := range records {
		id, okID := r.str(0)
		typ, okType := r.str(1)
		from, okFrom := r.integer(2)
		to, okTo := r.integer(3)
		if !okID || !okType || !okFrom || !okTo {
			return malformed(kind, i, "want [id, type, from, to], got %v", []any(r))
		}
		if from > to {
			return malformed(kind, i, "span %s ends before it starts (%d > %d)", id, from, to)
		}
		if _, dup := m.spans[id]; dup {
			return malformed(kind, i, "duplicate span id %s", id)
		}
		s := &Span{
			ID:      id,
			Type:    typ,
			General: general,
			From:    from,
			To:      to,
			Chunk:   -1,
		}
		m.Spans = append(m.Spans, s)
		m.spans[id] = s
	}
	return nil
}

func (m *Model) addEvents(records []Record) error {
	for i, r := range records {
		id, okID := r.str(0)
		trigger, okTrigger := r.str(1)
		rawRoles, okRoles := r.list(2)
		if !okID || !okTrigger || !okRoles {
			return malformed("event", i, "want [id, triggerId, roles], got %v", []any(r))
		}
		roles, err := parseRoles(rawRoles)
		if err != nil {
			return malformed("event", i, "%v", err)
		}
		if _, dup := m.events[id]; dup {
			return malformed("event", i, "duplicate event id %s", id)
		}
		m.AddEvent(&EventDesc{ID: id, TriggerID: trigger, Roles: roles})
	}
	return nil
}

func parseRoles(raw []any) ([]Role, error) {
	roles := make([]Role, 0, len(raw))
	for j, item := range raw {
		pair, ok := toList(item)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("role %d: want [roleType, targetId]", j)
		}
		typ, okType := pair[0].(string)
		target, okTarget := pair[1].(string)
		if !okType || !okTarget {
			return nil, fmt.Errorf("role %d: want [roleType, targetId]", j)
		}
		roles = append(roles, Role{Type: typ, Target: target})
	}
	return roles, nil
}

func (m *Model) addRelations(records []Record) error {
	for i, r := range records {
		id, okID := r.str(0)
		typ, okType := r.str(1)
		rawArgs, okArgs := r.list(2)
		if !okID || !okType || !okArgs {
			return malformed("relation", i, "want [id, type, [[roleA, a], [roleB, b]]], got %v", []any(r))
		}
		args, err := parseRoles(rawArgs)
		if err != nil || len(args) != 2 {
			return malformed("relation", i, "want exactly two arguments")
		}
		if _, dup := m.events[id]; dup {
			return malformed("relation", i, "duplicate id %s", id)
		}
		m.AddEvent(&EventDesc{
			ID:        id,
			TriggerID: args[0].Target,
			Roles:     []Role{{Type: typ, Target: args[1].Target}},
			Relation:  true,
		})
	}
	return nil
}

func (m *Model) addEquivs(records []Record) error {
	for i, r := range records {
		label, ok := r.str(0)
		if !ok {
			return malformed("equiv", i, "want [label, members...], got %v", []any(r))
		}
		eq := Equiv{Label: label}
		for j := 1; j < len(r); j++ {
			id, ok := r.str(j)
			if !ok {
				return malformed("equiv", i, "member %d is not an id", j)
			}
			eq.Members = append(eq.Members, id)
		}
		if len(eq.Members) < 2 {
			m.Warnings = append(m.Warnings, fmt.Sprintf("equiv record %d has fewer than two members; ignored", i))
			continue
		}
		m.Equivs = append(m.Equivs, eq)
	}
	return nil
}

func (m *Model) applyModifications(records []Record) error {
	for i, r := range records {
		id, okID := r.str(0)
		name, okName := r.str(1)
		target, okTarget := r.str(2)
		if !okID || !okName || !okTarget {
			return malformed("modification", i, "want [id, modifier, targetId], got %v", []any(r))
		}
		span, ok := m.Resolve(target)
		if !ok {
			return errors.Integrity(target, "modification %s targets unknown id %s", id, target)
		}
		flag, known := ParseModifier(name)
		if !known {
			m.Warnings = append(m.Warnings, fmt.Sprintf("modification %s: unknown modifier %q", id, name))
			continue
		}
		span.Modifiers |= flag
	}
	return nil
}

func (m *Model) applyComments(records []Record) error {
	for i, r := range records {
		typ, okType := r.str(1)
		text, okText := r.str(2)
		if len(r) < 3 || !okType || !okText {
			return malformed("comment", i, "want [target, type, text], got %v", []any(r))
		}
		info := Info{Type: typ, Text: text}

		if id, ok := r.str(0); ok {
			span, found := m.Resolve(id)
			if !found {
				return errors.Integrity(id, "comment %d targets unknown id %s", i, id)
			}
			span.Infos = append(span.Infos, info)
			continue
		}

		sel, ok := r.list(0)
		if !ok || len(sel) != 2 || sel[0] != "sent" {
			return malformed("comment", i, "target must be an id or [\"sent\", n]")
		}
		n, ok := toInt(sel[1])
		if !ok {
			return malformed("comment", i, "sentence number must be an integer")
		}
		m.SentenceInfos[n] = append(m.SentenceInfos[n], info)
	}
	return nil
}

func (m *Model) applyEdited(ids []string) {
	for _, id := range ids {
		if s, ok := m.spans[id]; ok {
			s.Edited = true
			continue
		}
		if e, ok := m.events[id]; ok {
			e.Edited = true
			continue
		}
		m.Warnings = append(m.Warnings, fmt.Sprintf("edited id %s not found", id))
	}
}

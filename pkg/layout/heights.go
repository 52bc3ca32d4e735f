package layout

import (
	"cmp"
	"slices"
)

// slotRange returns the inclusive height-slot range an arc spans. Slot 2i
// sits above span line i and slot 2i+1 between lines i and i+1. Arcs
// inside one chunk cover their endpoints' slots too; arcs between chunks
// only the slots strictly between them.
func (ps *pass) slotRange(idx int) (lo, hi int, ok bool) {
	a := ps.m.Arcs[idx]
	o, okO := ps.m.Span(a.Origin)
	t, okT := ps.m.Span(a.Target)
	if !okO || !okT {
		return 0, 0, false
	}
	l, r := o.LineIndex, t.LineIndex
	if l > r {
		l, r = r, l
	}
	if o.Chunk == t.Chunk {
		return 2 * l, 2 * r, true
	}
	return 2*l + 1, 2*r - 1, true
}

// allocateHeights assigns every arc a height above all boxes and arcs it
// jumps over. Arcs with lower obstacles are placed first so they nest
// under longer ones.
func (ps *pass) allocateHeights() {
	n := len(ps.linear)
	ps.slots = make([]float64, 2*n)
	for i := range ps.slots {
		ps.slots[i] = ps.p.ArcStartHeight
	}
	for i, s := range ps.linear {
		ps.slots[2*i] = max(ps.p.ArcStartHeight, ps.boxes[s.ID].top)
	}

	ps.heights = make([]float64, len(ps.m.Arcs))
	order := make([]int, 0, len(ps.m.Arcs))
	for idx, a := range ps.m.Arcs {
		lo, hi, ok := ps.slotRange(idx)
		if !ok {
			continue
		}
		a.JumpHeight = 0
		for i := lo; i <= hi; i++ {
			if i%2 == 0 {
				a.JumpHeight = max(a.JumpHeight, ps.slots[i])
			}
		}
		order = append(order, idx)
	}

	slices.SortStableFunc(order, func(x, y int) int {
		a, b := ps.m.Arcs[x], ps.m.Arcs[y]
		if c := cmp.Compare(a.JumpHeight, b.JumpHeight); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Dist, b.Dist); c != 0 {
			return c
		}
		ao, at := ps.endpointTops(a.Origin, a.Target)
		bo, bt := ps.endpointTops(b.Origin, b.Target)
		if c := cmp.Compare(ao+at, bo+bt); c != 0 {
			return c
		}
		return cmp.Compare(ao, bo)
	})

	for _, idx := range order {
		lo, hi, _ := ps.slotRange(idx)
		h := 0.0
		for i := lo; i <= hi; i++ {
			h = max(h, ps.slots[i])
		}
		h += ps.p.ArcSpacing
		for i := lo; i <= hi; i++ {
			ps.slots[i] = max(ps.slots[i], h)
		}
		ps.heights[idx] = h
	}
}

func (ps *pass) endpointTops(origin, target string) (float64, float64) {
	var o, t float64
	if b, ok := ps.boxes[origin]; ok {
		o = b.top
	}
	if b, ok := ps.boxes[target]; ok {
		t = b.top
	}
	return o, t
}

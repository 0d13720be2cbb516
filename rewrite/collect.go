package rewrite

import "github.com/htscore/htscore/space"

// Collect is pass 3 of spec.md §4.4: a blank-state walk that records every
// Unit reachable from a segment's exported codes into State.Collection, for
// Recombine to group. "Blank-state" means it starts a fresh collection each
// time Compile begins a new segment -- units from a sibling segment never
// mix into this one's grouping.
//
// Grounded on original_source/.../core/tr/rewrite.py's CollectBySpace/
// CollectByCode pair, simplified here to a single Code-tree walk since
// space.Units already performs the same "don't descend into a Unit's own
// Inner boundary" traversal the original's Collect pass implements by hand.
func (s *State) Collect(codes ...space.Code) {
	s.Collection = nil
	for _, c := range codes {
		s.Collection = append(s.Collection, space.Units(c)...)
		s.collectNested(c)
	}
}

// collectNested descends into each found unit's own Inner/predicate/kernel
// codes so a unit nested inside another unit's definition is collected too
// (space.Units stops at the first Unit boundary by design).
func (s *State) collectNested(c space.Code) {
	for _, u := range space.Units(c) {
		switch t := u.(type) {
		case *space.ScalarUnit:
			s.Collection = append(s.Collection, space.Units(t.Inner)...)
			s.collectNested(t.Inner)
		case *space.AggregateUnit:
			s.Collection = append(s.Collection, space.Units(t.Inner)...)
			s.collectNested(t.Inner)
		case *space.CorrelatedUnit:
			s.Collection = append(s.Collection, space.Units(t.Inner)...)
			s.collectNested(t.Inner)
		case *space.CoveringUnit:
			s.Collection = append(s.Collection, space.Units(t.Inner)...)
			s.collectNested(t.Inner)
		}
	}
}

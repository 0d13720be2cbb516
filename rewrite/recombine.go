package rewrite

import (
	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/space"
)

// Recombined is the output of Recombine: a substitution map Replace feeds
// to Replace(), plus EmbeddedAggregates, the AggregateUnits of each
// aggregate group keyed by that group's key (the filter-stripped plural
// space hashed together with the units' own space). No other pass reads
// EmbeddedAggregates.
type Recombined struct {
	Replace            map[space.Code]space.Code
	EmbeddedAggregates map[uint64][]*space.AggregateUnit
}

// Recombine is pass 4 of spec.md §4.4: it groups State.Collection's
// ScalarUnits by their space, and its AggregateUnits by the pair (the
// filter-stripped plural space, the unit's own space), so that units
// sharing a group are marked as each other's Companions -- letting
// Term/Frame export them from one shared subquery rather than one each.
// Aggregate recombination also lifts a shared top-level filter from the
// plural space onto the aggregate's own argument code via `if(filter, op,
// null)`, so the shared subquery can drop the filter and still compute the
// right per-group value.
//
// Grounded on original_source/.../core/tr/rewrite.py's RecombineScalar/
// RecombineAggregate, which perform the same two groupings and the same
// filter-lifting rewrite.
func (s *State) Recombine() *Recombined {
	r := &Recombined{
		Replace:            map[space.Code]space.Code{},
		EmbeddedAggregates: map[uint64][]*space.AggregateUnit{},
	}

	scalarGroups := map[uint64][]*space.ScalarUnit{}
	aggGroups := map[uint64][]*space.AggregateUnit{}

	for _, u := range s.Collection {
		switch t := u.(type) {
		case *space.ScalarUnit:
			key := space.Hash(t.Space)
			scalarGroups[key] = append(scalarGroups[key], t)
		case *space.AggregateUnit:
			key := space.Hash(stripFilters(t.PluralSpace))*31 + space.Hash(t.Space)
			aggGroups[key] = append(aggGroups[key], t)
		}
	}

	for _, group := range scalarGroups {
		if len(group) < 2 {
			continue
		}
		for i, u := range group {
			companions := make([]*space.ScalarUnit, 0, len(group)-1)
			for j, o := range group {
				if i != j {
					companions = append(companions, o)
				}
			}
			r.Replace[u] = &space.ScalarUnit{Inner: u.Inner, Space: u.Space, Companions: companions}
		}
	}

	for key, group := range aggGroups {
		if len(group) < 2 {
			continue
		}
		plural := stripFilters(group[0].PluralSpace)
		for i, u := range group {
			companions := make([]*space.AggregateUnit, 0, len(group)-1)
			for j, o := range group {
				if i != j {
					companions = append(companions, o)
				}
			}
			inner := liftFilter(u)
			replacement := &space.AggregateUnit{Inner: inner, PluralSpace: u.PluralSpace, Space: u.Space, Companions: companions}
			r.Replace[u] = replacement
			if q, ok := u.Space.(*space.Quotient); ok {
				if comp, ok := plural.(*space.Complement); ok && space.Equal(comp.Base(), q) {
					r.EmbeddedAggregates[key] = append(r.EmbeddedAggregates[key], replacement)
				}
			}
		}
	}

	return r
}

// stripFilters walks up a Filtered chain to the first non-Filtered
// ancestor, the key recombine groups aggregates by so two aggregates whose
// plural spaces differ only in a dropped-or-kept filter still land in the
// same group.
func stripFilters(sp space.Space) space.Space {
	for {
		f, ok := sp.(*space.Filtered)
		if !ok {
			return sp
		}
		sp = f.BaseSpace
	}
}

// liftFilter wraps u's argument code in `if(filter, op, null)` when its
// plural space is directly filtered, so a shared aggregate subquery built
// over the unfiltered plural space still computes each member's own
// condition (spec.md §4.4 "aggregate recombination lifts shared top-level
// filters via if(filter, op, null)").
func liftFilter(u *space.AggregateUnit) space.Code {
	f, ok := u.PluralSpace.(*space.Filtered)
	if !ok {
		return u.Inner
	}
	return code.NewIf(u.Inner.Domain(), []space.Code{f.Predicate}, []space.Code{u.Inner}, nil)
}

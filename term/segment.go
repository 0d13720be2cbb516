package term

import (
	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/encode"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/stitch"
)

// CompileSegment compiles one encode.Segment into a SegmentTerm: a term
// exporting seg.Codes over seg.Space baselined at seg.Root, plus the
// superkeys/keys a dependent segment correlates its own rows against
// (spec.md §4.5 "Segment ... keys identifying its rows for a dependent
// segment to correlate against").
func (s *State) CompileSegment(seg *encode.Segment) (*SegmentTerm, error) {
	kid, err := s.CompileAt(seg.Space, seg.Root)
	if err != nil {
		return nil, err
	}

	codes := wrapCountSumCoalesce(seg.Codes)
	kid, err = s.Inject(kid, codes)
	if err != nil {
		return nil, err
	}

	var superkeys []space.Code
	if super := s.Superspace(); super != nil {
		ordered, err := stitch.Arrange(super, false, true)
		if err != nil {
			return nil, err
		}
		superkeys = make([]space.Code, len(ordered))
		for i, o := range ordered {
			superkeys[i] = o.Code
		}
		kid, err = s.Inject(kid, superkeys)
		if err != nil {
			return nil, err
		}
	}

	ordered, err := stitch.Arrange(seg.Space, false, true)
	if err != nil {
		return nil, err
	}
	keys := make([]space.Code, len(ordered))
	for i, o := range ordered {
		keys[i] = o.Code
	}
	kid, err = s.Inject(kid, keys)
	if err != nil {
		return nil, err
	}

	s.pushSuperspace(seg.Space)
	dependents := make([]*SegmentTerm, len(seg.Dependents))
	for i, dep := range seg.Dependents {
		dt, err := s.CompileSegment(dep)
		if err != nil {
			s.popSuperspace()
			return nil, err
		}
		dependents[i] = dt
	}
	s.popSuperspace()

	tag := s.tag()
	return &SegmentTerm{
		base:       base{tag: tag, sp: seg.Space, baseline: kid.Baseline(), routes: kid.Routes()},
		Kid:        kid,
		Codes:      codes,
		Superkeys:  superkeys,
		Keys:       keys,
		Dependents: dependents,
	}, nil
}

// wrapCountSumCoalesce wraps every top-level count()/sum() AggregateUnit in
// coalesce(_, 0) so a group with no contributing rows reports 0 rather than
// NULL in the selected output (spec.md §4.5, E2E example #2). It does not
// recurse into formula arguments or filter predicates -- an aggregate
// compared inside a predicate (E2E example #3, `count(department) > 3`)
// must stay NULL so SQL's three-valued comparison already excludes it
// correctly; coalescing there would flip that behavior.
func wrapCountSumCoalesce(codes []space.Code) []space.Code {
	out := make([]space.Code, len(codes))
	for i, c := range codes {
		out[i] = c
		u, ok := c.(*space.AggregateUnit)
		if !ok {
			continue
		}
		name, _, ok := code.AsAggregate(u.Inner)
		if !ok || (name != "count" && name != "sum") {
			continue
		}
		out[i] = code.NewCoalesce(u, space.NewLiteral(0, u.Domain()))
	}
	return out
}

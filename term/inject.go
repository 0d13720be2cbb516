package term

import (
	"fmt"

	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/stitch"
)

// Inject grows t, joining in whatever shoot terms are needed, until every
// unit appearing in codes is routed (spec.md §4.5 "Inject(term, expressions):
// ... for each unit not yet routed, grow term"). Units already routed are
// left untouched; codes sharing units (the common case once Recombine has
// grouped companions under one ScalarUnit/AggregateUnit) only pay the cost
// of growing the tree once.
func (s *State) Inject(t Term, codes []space.Code) (Term, error) {
	var err error
	for _, c := range codes {
		for _, u := range space.Units(c) {
			t, err = s.injectUnit(t, u)
			if err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func (s *State) injectUnit(t Term, u space.Unit) (Term, error) {
	if isRouted(t, u) {
		return t, nil
	}
	switch uu := u.(type) {
	case *space.AggregateUnit:
		return s.injectAggregate(t, uu)
	case *space.CorrelatedUnit:
		return s.injectCorrelated(t, uu)
	default:
		return s.injectNative(t, u, nativeSpaceOf(u))
	}
}

// nativeSpaceOf returns the space a unit is naturally exported by -- the
// space Inject must grow t to cover so that space's term can route u.
func nativeSpaceOf(u space.Unit) space.Space {
	switch uu := u.(type) {
	case *space.ColumnUnit:
		return uu.Space
	case *space.ScalarUnit:
		return uu.Space
	case *space.KernelUnit:
		return uu.QuotientSpace
	case *space.CoveringUnit:
		return uu.CoveringSpace
	default:
		return u.UnitSpace()
	}
}

// injectNative handles ColumnUnit/ScalarUnit/KernelUnit/CoveringUnit: all
// four are "attached to one space, exported natively by whatever term
// represents it" (spec.md §3.4/§4.6 Spread), so growing t to route any of
// them is the same recipe -- compile a shoot term for that space baselined
// at the closest ancestor t's own space already spans (the ground), inject
// the unit's own dependencies into the shoot, then join shoot onto t.
func (s *State) injectNative(t Term, u space.Unit, native space.Space) (Term, error) {
	ground := space.ClosestSpannedAncestor(native, t.Space())
	if ground == nil {
		return nil, errs.New(errs.ErrCannotRoute.New(fmt.Sprintf("%#v", u)))
	}
	shoot, err := s.CompileAt(native, ground)
	if err != nil {
		return nil, err
	}
	if su, ok := u.(*space.ScalarUnit); ok {
		shoot, err = s.Inject(shoot, []space.Code{su.Inner})
		if err != nil {
			return nil, err
		}
	}
	var extra map[uint64]int
	if !isRouted(shoot, u) {
		extra = map[uint64]int{RouteKey(u): shoot.Tag()}
	}
	return s.joinTerms(t, shoot, extra)
}

// injectAggregate handles an AggregateUnit: compile its plural space
// baselined at the ground it aggregates down to, inject its inner
// expression into that term, then group it by the ground's own key so one
// row survives per converging row of ground -- the ProjectionTerm this
// produces is what's joined back onto t (spec.md §4.5 Inject/AggregateUnit,
// skipping the original's complement-embedding shortcut; see DESIGN.md).
func (s *State) injectAggregate(t Term, u *space.AggregateUnit) (Term, error) {
	ground := space.ClosestSpannedAncestor(u.PluralSpace, t.Space())
	if ground == nil {
		return nil, errs.New(errs.ErrCannotRoute.New(fmt.Sprintf("%#v", u)))
	}
	pluralTerm, err := s.CompileAt(u.PluralSpace, ground)
	if err != nil {
		return nil, err
	}
	pluralTerm, err = s.Inject(pluralTerm, []space.Code{u.Inner})
	if err != nil {
		return nil, err
	}
	joints, err := stitch.Sew(ground)
	if err != nil {
		return nil, err
	}
	kernels := make([]space.Code, len(joints))
	for i, j := range joints {
		kernels[i] = j.Rop
	}
	tag := s.tag()
	proj := &ProjectionTerm{
		base:    base{tag: tag, sp: ground, baseline: ground, routes: mergeRoutes(pluralTerm.Routes(), map[uint64]int{RouteKey(u): tag})},
		Kid:     pluralTerm,
		Kernels: kernels,
	}
	return s.joinTerms(t, proj, nil)
}

// injectCorrelated handles a CorrelatedUnit: its plural space is compiled
// and correlated back to t's ground row by equalities rather than joined as
// a relation, then embedded as a scalar subquery expression (spec.md §4.5
// Inject/CorrelatedUnit).
func (s *State) injectCorrelated(t Term, u *space.CorrelatedUnit) (Term, error) {
	ground := space.ClosestSpannedAncestor(u.PluralSpace, t.Space())
	if ground == nil {
		return nil, errs.New(errs.ErrCannotRoute.New(fmt.Sprintf("%#v", u)))
	}
	joints, err := stitch.Sew(ground)
	if err != nil {
		return nil, err
	}
	pluralTerm, err := s.CompileAt(u.PluralSpace, ground)
	if err != nil {
		return nil, err
	}
	pluralTerm, err = s.injectJoints(pluralTerm, joints)
	if err != nil {
		return nil, err
	}
	pluralTerm, err = s.Inject(pluralTerm, []space.Code{u.Inner})
	if err != nil {
		return nil, err
	}
	corrTag := s.tag()
	corr := &CorrelationTerm{
		base:         base{tag: corrTag, sp: u.PluralSpace, baseline: pluralTerm.Baseline(), routes: pluralTerm.Routes()},
		Kid:          pluralTerm,
		Correlations: joints,
	}
	embedTag := s.tag()
	routes := mergeRoutes(t.Routes(), map[uint64]int{RouteKey(u): embedTag})
	return &EmbeddingTerm{
		base:         base{tag: embedTag, sp: t.Space(), baseline: t.Baseline(), routes: routes},
		LKid:         t,
		RKid:         corr,
		Correlations: joints,
	}, nil
}

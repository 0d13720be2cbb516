package term

import (
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/stitch"
)

// Compile is spec.md §4.5's `Compile(Space)`: it recursively builds a term
// exporting sp plus every ancestor down to s.Baseline(), consulting and
// populating s's per-(space,baseline) cache so a space referenced by
// several units (the usual case once Rewrite's recombine has grouped
// companions) is only compiled once.
func (s *State) Compile(sp space.Space) (Term, error) {
	baseline := s.Baseline()
	if t, ok := s.cacheGet(sp, baseline); ok {
		return t, nil
	}
	t, err := s.compile(sp)
	if err != nil {
		return nil, err
	}
	s.cachePut(sp, baseline, t)
	return t, nil
}

// CompileAt compiles sp with baseline pushed as the new current baseline,
// popping it again before returning -- the Go rendering of the original's
// `compile(space, baseline=...)` keyword argument, since this port threads
// baseline through an explicit stack rather than a default-argument reread
// of `self.state.baseline`.
func (s *State) CompileAt(sp, baseline space.Space) (Term, error) {
	s.pushBaseline(baseline)
	defer s.popBaseline()
	return s.Compile(sp)
}

func (s *State) compile(sp space.Space) (Term, error) {
	baseline := s.Baseline()
	switch t := sp.(type) {
	case *space.Root:
		return s.compileScalarlike(t, baseline)
	case *space.Scalar:
		return s.compileScalarlike(t, baseline)
	case *space.DirectTable:
		return s.compileTable(t, t.BaseSpace, t.Table, baseline)
	case *space.FiberTable:
		return s.compileTable(t, t.BaseSpace, t.Table, baseline)
	case *space.Filtered:
		return s.compileFiltered(t)
	case *space.Ordered:
		return s.compileOrdered(t)
	case *space.Quotient:
		return s.compileQuotient(t)
	case *space.Complement:
		return s.compileComplement(t)
	case *space.Covering:
		return s.compileCovering(t)
	default:
		return nil, errUnsupportedSpace(sp)
	}
}

// compileScalarlike handles both Root and Scalar (spec.md §4.5
// "Root/Scalar: at baseline -> ScalarTerm; else wrap parent term").
func (s *State) compileScalarlike(sp space.Space, baseline space.Space) (Term, error) {
	if space.Equal(sp, baseline) {
		tag := s.tag()
		return &ScalarTerm{base: base{tag: tag, sp: sp, baseline: sp, routes: map[uint64]int{}}}, nil
	}
	parent, err := s.Compile(sp.Base())
	if err != nil {
		return nil, err
	}
	tag := s.tag()
	return &WrapperTerm{
		base: base{tag: tag, sp: sp, baseline: parent.Baseline(), routes: parent.Routes()},
		Kid:  parent,
	}, nil
}

// compileTable handles both DirectTable and FiberTable (spec.md §4.5
// "Table: at baseline -> TableTerm ...; else join parent term with a fresh
// baseline-inflated table term via tie(space)").
func (s *State) compileTable(sp space.Space, baseSpace space.Space, tbl *catalog.Table, baseline space.Space) (Term, error) {
	if space.Equal(sp, baseline) {
		units, err := stitch.Spread(sp)
		if err != nil {
			return nil, err
		}
		tag := s.tag()
		routes := map[uint64]int{}
		for _, u := range units {
			routes[RouteKey(u)] = tag
		}
		return &TableTerm{base: base{tag: tag, sp: sp, baseline: sp, routes: routes}, Table: tbl.Name}, nil
	}

	lkid, err := s.Compile(baseSpace)
	if err != nil {
		return nil, err
	}
	rkid, err := s.CompileAt(sp, sp)
	if err != nil {
		return nil, err
	}
	joints, err := stitch.Tie(sp)
	if err != nil {
		return nil, err
	}
	lkid, err = s.injectJointsLop(lkid, joints)
	if err != nil {
		return nil, err
	}
	tag := s.tag()
	return &JoinTerm{
		base:   base{tag: tag, sp: sp, baseline: lkid.Baseline(), routes: mergeRoutes(lkid.Routes(), rkid.Routes())},
		LKid:   lkid,
		RKid:   rkid,
		Joints: joints,
	}, nil
}

// compileFiltered injects the predicate into the parent term and wraps it
// as a FilterTerm (spec.md §4.5 "Filtered: inject filter into parent term;
// wrap as FilterTerm").
func (s *State) compileFiltered(t *space.Filtered) (Term, error) {
	parent, err := s.Compile(t.BaseSpace)
	if err != nil {
		return nil, err
	}
	parent, err = s.Inject(parent, []space.Code{t.Predicate})
	if err != nil {
		return nil, err
	}
	tag := s.tag()
	return &FilterTerm{
		base:      base{tag: tag, sp: t, baseline: parent.Baseline(), routes: parent.Routes()},
		Kid:       parent,
		Predicate: t.Predicate,
	}, nil
}

// compileOrdered handles both sliced and unsliced Ordered spaces (spec.md
// §4.5 "Ordered with limit/offset: rebuild parent from root baseline; inject
// order codes; wrap as OrderTerm. Without limit/offset: reuse parent
// term").
func (s *State) compileOrdered(t *space.Ordered) (Term, error) {
	order, err := stitch.Arrange(t, true, true)
	if err != nil {
		return nil, err
	}
	if !t.IsSliced() {
		parent, err := s.Compile(t.BaseSpace)
		if err != nil {
			return nil, err
		}
		parent, err = s.injectOrder(parent, order)
		if err != nil {
			return nil, err
		}
		return parent, nil
	}

	parent, err := s.CompileAt(t.BaseSpace, s.Root)
	if err != nil {
		return nil, err
	}
	parent, err = s.injectOrder(parent, order)
	if err != nil {
		return nil, err
	}
	tag := s.tag()
	return &OrderTerm{
		base:   base{tag: tag, sp: t, baseline: parent.Baseline(), routes: parent.Routes()},
		Kid:    parent,
		Order:  order,
		Limit:  t.Limit,
		Offset: t.Offset,
	}, nil
}

func (s *State) injectOrder(t Term, order []stitch.Ordered) (Term, error) {
	codes := make([]space.Code, len(order))
	for i, o := range order {
		codes[i] = o.Code
	}
	return s.Inject(t, codes)
}

// errUnsupportedSpace reports a space kind Compile has no case for -- never
// expected to fire against Rewrite's output, since every space constructor
// in package space corresponds to one of the cases above.
func errUnsupportedSpace(sp space.Space) error {
	return &unsupportedSpaceError{sp: sp}
}

type unsupportedSpaceError struct{ sp space.Space }

func (e *unsupportedSpaceError) Error() string {
	return "term: no Compile case for this space kind"
}

package term

import (
	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/stitch"
)

// compileQuotient follows spec.md §4.5's Quotient recipe: build a seed term
// baselined at the inflated ground, inject the kernels, filter out NULL
// kernel tuples, then group by tie(ground)++kernels. The original's
// complement-aggregate-embedding shortcut (disguising the seed term as its
// own Complement so plural companions land in the same GROUP BY frame) is
// not implemented here; see DESIGN.md -- embedded aggregates instead travel
// the generic AggregateUnit path in inject.go, landing in a separate joined
// subquery.
func (s *State) compileQuotient(t *space.Quotient) (Term, error) {
	baseline := s.Baseline()
	ground := t.Ground()
	inflatedGround := space.Inflation(ground)

	seedTerm, err := s.CompileAt(t.Seed, inflatedGround)
	if err != nil {
		return nil, err
	}
	seedTerm, err = s.Inject(seedTerm, t.Kernels)
	if err != nil {
		return nil, err
	}
	seedTerm, err = s.filterNullKernels(seedTerm, t.Kernels)
	if err != nil {
		return nil, err
	}

	tieJoints, err := stitch.Tie(ground)
	if err != nil {
		return nil, err
	}
	basis := make([]space.Code, 0, len(tieJoints)+len(t.Kernels))
	for _, j := range tieJoints {
		basis = append(basis, j.Rop)
	}
	basis = append(basis, t.Kernels...)

	tag := s.tag()
	routes := map[uint64]int{}
	for _, k := range t.Kernels {
		routes[RouteKey(space.NewKernelUnit(k, t))] = tag
	}
	proj := &ProjectionTerm{
		base:    base{tag: tag, sp: t, baseline: inflatedGround, routes: routes},
		Kid:     seedTerm,
		Kernels: basis,
	}

	if space.Equal(baseline, t) {
		return proj, nil
	}

	parent, err := s.Compile(t.BaseSpace)
	if err != nil {
		return nil, err
	}
	joints, err := stitch.Tie(t)
	if err != nil {
		return nil, err
	}
	parent, err = s.injectJoints(parent, joints)
	if err != nil {
		return nil, err
	}
	jtag := s.tag()
	return &JoinTerm{
		base:   base{tag: jtag, sp: t, baseline: parent.Baseline(), routes: mergeRoutes(parent.Routes(), proj.Routes())},
		LKid:   parent,
		RKid:   proj,
		Joints: joints,
	}, nil
}

// filterNullKernels wraps seedTerm in a FilterTerm excluding rows whose
// kernel tuple contains a NULL (spec.md §4.5 "filter out NULL kernels" --
// HTSQL groups NULL kernel tuples out rather than collecting them into
// their own group, unlike plain SQL GROUP BY).
func (s *State) filterNullKernels(seedTerm Term, kernels []space.Code) (Term, error) {
	if len(kernels) == 0 {
		return nil, errs.New(errs.ErrEmptyKernel.New())
	}
	preds := make([]space.Code, len(kernels))
	for i, k := range kernels {
		preds[i] = code.NewNot(code.NewIsNull(k))
	}
	var pred space.Code
	if len(preds) == 1 {
		pred = preds[0]
	} else {
		pred = code.NewAnd(preds...)
	}
	seedTerm, err := s.Inject(seedTerm, []space.Code{pred})
	if err != nil {
		return nil, err
	}
	tag := s.tag()
	return &FilterTerm{
		base:      base{tag: tag, sp: seedTerm.Space(), baseline: seedTerm.Baseline(), routes: seedTerm.Routes()},
		Kid:       seedTerm,
		Predicate: pred,
	}, nil
}

// compileComplement builds the seed term the same way compileQuotient does,
// then exposes its native units as CoveringUnits of the complement itself
// rather than grouping them (spec.md §4.5 "Complement: build seed term;
// filter NULL kernels; wrap").
func (s *State) compileComplement(t *space.Complement) (Term, error) {
	baseline := s.Baseline()
	q := t.BaseSpace
	ground := q.Ground()
	inflatedGround := space.Inflation(ground)

	seedTerm, err := s.CompileAt(q.Seed, inflatedGround)
	if err != nil {
		return nil, err
	}
	seedTerm, err = s.Inject(seedTerm, q.Kernels)
	if err != nil {
		return nil, err
	}
	seedTerm, err = s.filterNullKernels(seedTerm, q.Kernels)
	if err != nil {
		return nil, err
	}

	seedUnits, err := stitch.Spread(q.Seed)
	if err != nil {
		return nil, err
	}
	routes := map[uint64]int{}
	for _, u := range seedUnits {
		routes[RouteKey(space.NewCoveringUnit(u, t))] = seedTerm.Tag()
	}
	routes = mergeRoutes(seedTerm.Routes(), routes)

	wtag := s.tag()
	wrapped := &WrapperTerm{base: base{tag: wtag, sp: t, baseline: seedTerm.Baseline(), routes: routes}, Kid: seedTerm}

	if space.Equal(baseline, t) {
		return wrapped, nil
	}

	parent, err := s.Compile(t.BaseSpace)
	if err != nil {
		return nil, err
	}
	joints, err := stitch.Tie(t)
	if err != nil {
		return nil, err
	}
	parent, err = s.injectJoints(parent, joints)
	if err != nil {
		return nil, err
	}
	jtag := s.tag()
	return &JoinTerm{
		base:   base{tag: jtag, sp: t, baseline: parent.Baseline(), routes: mergeRoutes(parent.Routes(), wrapped.Routes())},
		LKid:   parent,
		RKid:   wrapped,
		Joints: joints,
	}, nil
}

// compileCovering handles Moniker/Forked/Attach/Clipped/Locator uniformly
// for the non-windowed kinds, and adds the ROW_NUMBER() filter for Clipped
// (spec.md §4.5 "Covering (Moniker/Fork/Attach/Clipped)"). The original's
// extra irregular-shape joints for Attach are not implemented; see
// DESIGN.md -- every covering here reconnects through tie(ground) only.
func (s *State) compileCovering(t *space.Covering) (Term, error) {
	baseline := s.Baseline()
	ground := t.Ground()
	inflatedGround := space.Inflation(ground)

	seedTerm, err := s.CompileAt(t.Seed, inflatedGround)
	if err != nil {
		return nil, err
	}

	var extra []space.Code
	extra = append(extra, t.Images...)
	extra = append(extra, t.ForkKernels...)
	if t.Filter != nil {
		extra = append(extra, t.Filter)
	}
	if len(extra) > 0 {
		seedTerm, err = s.Inject(seedTerm, extra)
		if err != nil {
			return nil, err
		}
	}
	if t.Filter != nil {
		ftag := s.tag()
		seedTerm = &FilterTerm{
			base:      base{tag: ftag, sp: seedTerm.Space(), baseline: seedTerm.Baseline(), routes: seedTerm.Routes()},
			Kid:       seedTerm,
			Predicate: t.Filter,
		}
	}

	if t.Kind == space.ClippedKind {
		seedTerm, err = s.compileClipWindow(t, seedTerm, ground)
		if err != nil {
			return nil, err
		}
	}

	seedUnits, err := stitch.Spread(t.Seed)
	if err != nil {
		return nil, err
	}
	routes := map[uint64]int{}
	for _, u := range seedUnits {
		routes[RouteKey(space.NewCoveringUnit(u, t))] = seedTerm.Tag()
	}
	routes = mergeRoutes(seedTerm.Routes(), routes)

	wtag := s.tag()
	wrapped := &WrapperTerm{base: base{tag: wtag, sp: t, baseline: seedTerm.Baseline(), routes: routes}, Kid: seedTerm}

	if space.Equal(baseline, t) {
		return wrapped, nil
	}

	parent, err := s.Compile(t.BaseSpace)
	if err != nil {
		return nil, err
	}
	joints, err := stitch.Tie(t)
	if err != nil {
		return nil, err
	}
	parent, err = s.injectJoints(parent, joints)
	if err != nil {
		return nil, err
	}
	jtag := s.tag()
	return &JoinTerm{
		base:   base{tag: jtag, sp: t, baseline: parent.Baseline(), routes: mergeRoutes(parent.Routes(), wrapped.Routes())},
		LKid:   parent,
		RKid:   wrapped,
		Joints: joints,
	}, nil
}

// compileClipWindow attaches ROW_NUMBER() OVER (PARTITION BY tie-rops ORDER
// BY seed-order) to seedTerm and filters it to the requested window (spec.md
// §4.5 "for Clipped, attach ROW_NUMBER() ... and filter start <= rn <
// start+limit").
func (s *State) compileClipWindow(t *space.Covering, seedTerm Term, ground space.Space) (Term, error) {
	tieJoints, err := stitch.Tie(ground)
	if err != nil {
		return nil, err
	}
	partition := make([]space.Code, len(tieJoints))
	for i, j := range tieJoints {
		partition[i] = j.Rop
	}
	var orderPairs []stitch.Ordered
	if len(t.ClipOrder) > 0 {
		for _, o := range t.ClipOrder {
			orderPairs = append(orderPairs, stitch.Ordered{Code: o.Code, Asc: o.Asc})
		}
	} else {
		orderPairs, err = stitch.Arrange(t.Seed, false, true)
		if err != nil {
			return nil, err
		}
	}
	var asc, desc []space.Code
	for _, o := range orderPairs {
		if o.Asc {
			asc = append(asc, o.Code)
		} else {
			desc = append(desc, o.Code)
		}
	}

	rn := code.NewRowNumber(partition, asc, desc)
	start := 0
	if t.ClipOffset != nil {
		start = *t.ClipOffset
	}
	var pred space.Code = code.NewOrdering(code.GreaterOrEqual, rn, space.NewLiteral(start, domain.Integer{}))
	if t.ClipLimit != nil {
		upper := code.NewOrdering(code.LessThan, rn, space.NewLiteral(start+*t.ClipLimit, domain.Integer{}))
		pred = code.NewAnd(pred, upper)
	}

	seedTerm, err = s.Inject(seedTerm, []space.Code{pred})
	if err != nil {
		return nil, err
	}
	tag := s.tag()
	return &FilterTerm{
		base:      base{tag: tag, sp: seedTerm.Space(), baseline: seedTerm.Baseline(), routes: seedTerm.Routes()},
		Kid:       seedTerm,
		Predicate: pred,
	}, nil
}

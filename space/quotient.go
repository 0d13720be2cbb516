package space

// Quotient produces one row per distinct kernel tuple running Seed over
// Base: spec.md §3.3 "Quotient(base, seed, kernels)". Axial; contracting
// iff kernels is empty.
type Quotient struct {
	BaseSpace Space
	Seed      Space // the space the kernel is evaluated over, a descendant of BaseSpace
	Kernels   []Code
}

func NewQuotient(base, seed Space, kernels []Code) *Quotient {
	return &Quotient{BaseSpace: base, Seed: seed, Kernels: kernels}
}

func (s *Quotient) Base() Space       { return s.BaseSpace }
func (*Quotient) Family() Family      { return QuotientFamily }
func (s *Quotient) IsContracting() bool { return len(s.Kernels) == 0 }
func (*Quotient) IsExpanding() bool     { return false }
func (*Quotient) IsAxis() bool          { return true }
func (s *Quotient) Basis() []interface{} {
	basis := []interface{}{"quotient", s.BaseSpace, s.Seed}
	for _, k := range s.Kernels {
		basis = append(basis, k)
	}
	return basis
}
func (s *Quotient) rebase(nb Space) Space {
	return &Quotient{BaseSpace: nb, Seed: s.Seed, Kernels: s.Kernels}
}

// Ground returns the closest axial ancestor of Seed that Base spans --
// every covering space (Quotient, Complement, Moniker, Forked, Attach,
// Clipped) carries this relation so Compile knows where the seed term must
// reconnect to the trunk (spec.md §3.3 "carry a seed and ground").
func (s *Quotient) Ground() Space { return closestSpannedAncestor(s.Seed, s.BaseSpace) }

// Complement is the axial inverse of a Quotient: it reseeds the quotient,
// producing one row of Seed per row of the quotient (spec.md §3.3
// "Complement(base: quotient)").
type Complement struct {
	BaseSpace *Quotient
}

func NewComplement(base *Quotient) *Complement { return &Complement{BaseSpace: base} }

func (s *Complement) Base() Space       { return s.BaseSpace }
func (s *Complement) Family() Family     { return s.baseQuotient().Seed.Family() }
func (*Complement) IsContracting() bool { return false }
func (*Complement) IsExpanding() bool   { return true }
func (*Complement) IsAxis() bool        { return true }
func (s *Complement) Basis() []interface{} {
	return []interface{}{"complement", s.BaseSpace}
}
func (s *Complement) baseQuotient() *Quotient { return s.BaseSpace }
func (s *Complement) rebase(nb Space) Space {
	q, _ := nb.(*Quotient)
	return &Complement{BaseSpace: q}
}

// Ground of a Complement is its quotient's Ground.
func (s *Complement) Ground() Space { return s.BaseSpace.Ground() }

// ClosestSpannedAncestor walks up seed's chain for the first ancestor
// spanned by base -- the "ground" of spec.md §3.3, exported so term.Compile
// can compute the ground relating a plural space to the space it
// aggregates into without duplicating the walk.
func ClosestSpannedAncestor(seed, base Space) Space { return closestSpannedAncestor(seed, base) }

// closestSpannedAncestor walks up seed's chain for the first ancestor
// spanned by base -- the "ground" of spec.md §3.3.
func closestSpannedAncestor(seed, base Space) Space {
	for cur := seed; cur != nil; cur = cur.Base() {
		if Spans(base, cur) {
			return cur
		}
	}
	return nil
}

// CoveringKind distinguishes the five covering-space shapes that mask a
// compound subquery as one opaque axis (spec.md §3.3 Moniker/Forked/
// Attach/Clipped/Locator); they share the same Seed/Ground/Base shape and
// differ only in the extra payload each carries.
type CoveringKind int

const (
	MonikerKind CoveringKind = iota
	ForkedKind
	AttachKind
	ClippedKind
	LocatorKind
)

// Covering is the shared shape of Moniker/Forked/Attach/Clipped/Locator: an
// axial space that wraps Seed (a compound subquery) as a single axis of
// Base, reconnecting at Ground (closest axial ancestor of Seed spanned by
// Base).
type Covering struct {
	Kind CoveringKind
	BaseSpace Space
	Seed      Space
	// Images holds, for Attach/Locator, the equalities "LHS(base) =
	// RHS(seed)" that parameterize the subquery (spec.md §4.4 rewrite
	// step 1 folds AttachSpace filter conjuncts of this shape into
	// Images).
	Images []Code
	// Filter is Attach's own extra filter predicate (beyond Images).
	Filter Code
	// Forked's extra grouping kernel, re-evaluated on both Base and Seed
	// to correlate "fork" copies of the same row.
	ForkKernels []Code
	// Clipped's window parameters.
	ClipOrder  []Order
	ClipLimit  *int
	ClipOffset *int
}

func newCovering(kind CoveringKind, base, seed Space) *Covering {
	return &Covering{Kind: kind, BaseSpace: base, Seed: seed}
}

// NewMoniker wraps seed as an opaque axis of base with no extra payload.
func NewMoniker(base, seed Space) *Covering { return newCovering(MonikerKind, base, seed) }

// NewForked wraps seed, correlated to base by forkKernels evaluated on both.
func NewForked(base, seed Space, forkKernels []Code) *Covering {
	c := newCovering(ForkedKind, base, seed)
	c.ForkKernels = forkKernels
	return c
}

// NewAttach wraps seed as a parameterized subquery, correlated via images
// and an optional extra filter.
func NewAttach(base, seed Space, images []Code, filter Code) *Covering {
	c := newCovering(AttachKind, base, seed)
	c.Images = images
	c.Filter = filter
	return c
}

// NewClipped wraps seed with a per-row window (ROW_NUMBER-style slice).
func NewClipped(base, seed Space, order []Order, limit, offset *int) *Covering {
	c := newCovering(ClippedKind, base, seed)
	c.ClipOrder = order
	c.ClipLimit = limit
	c.ClipOffset = offset
	return c
}

// NewLocator is an Attach specialised to identify a single row by identity
// (spec.md §3.3 "class LocatorSpace(AttachSpace)" in the original).
func NewLocator(base, seed Space, images []Code) *Covering {
	c := newCovering(LocatorKind, base, seed)
	c.Images = images
	return c
}

func (s *Covering) Base() Space  { return s.BaseSpace }
func (s *Covering) Family() Family { return s.Seed.Family() }
func (s *Covering) IsContracting() bool {
	switch s.Kind {
	case ClippedKind:
		return true
	default:
		return false
	}
}
func (s *Covering) IsExpanding() bool {
	switch s.Kind {
	case AttachKind, LocatorKind:
		return false
	default:
		return true
	}
}
func (*Covering) IsAxis() bool { return true }

func (s *Covering) Basis() []interface{} {
	basis := []interface{}{"covering", s.Kind, s.BaseSpace, s.Seed}
	for _, im := range s.Images {
		basis = append(basis, im)
	}
	basis = append(basis, s.Filter)
	for _, k := range s.ForkKernels {
		basis = append(basis, k)
	}
	for _, o := range s.ClipOrder {
		basis = append(basis, o.Code, o.Asc)
	}
	basis = append(basis, s.ClipLimit, s.ClipOffset)
	return basis
}

func (s *Covering) rebase(nb Space) Space {
	cp := *s
	cp.BaseSpace = nb
	return &cp
}

// Ground is the closest axial ancestor of Seed spanned by Base.
func (s *Covering) Ground() Space { return closestSpannedAncestor(s.Seed, s.BaseSpace) }

// Package encode implements spec.md §4.3: the lockstep Relate/Encode/Unpack
// adapters that turn a routed flow.Flow tree into the space.Space/space.Code
// graph the rest of the compiler operates on, plus the Convert cast
// sub-adapter enforcing the promotion matrix.
//
// Grounded on original_source/.../core/tr/encode.py, translated
// adapter-for-adapter: EncodingState's three memoizing dictionaries become
// three maps on State keyed by flow.Flow identity; the signature-keyed
// EncodeBySignature indirection collapses into code.Build, since Go has no
// polymorphic-dispatch-by-signature-type to mirror directly.
package encode

import (
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/coerce"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/flow"
	"github.com/htscore/htscore/space"
)

// Segment is the unit Unpack assembles a top-level or nested pipe command
// into: a space to run over, the codes it must export, and any further
// nested segments discovered while unpacking those codes (spec.md §4.3's
// SegmentExpr).
type Segment struct {
	Root       space.Space
	Space      space.Space
	Codes      []space.Code
	Dependents []*Segment
}

// Bundle is Unpack's result: either a flat list of codes (an ordinary
// expression flow) or one or more nested Segments (a Collect/Selection/
// Identity flow), never both populated at once for a Collect (spec.md
// §4.3 Unpack).
type Bundle struct {
	Codes    []space.Code
	Segments []*Segment
}

// State is the lockstep Relate/Encode/Unpack memoization cache, one per
// compilation (original EncodingState).
type State struct {
	cat          *catalog.Catalog
	flowToCode   map[flow.Flow]space.Code
	flowToSpace  map[flow.Flow]space.Space
	flowToBundle map[flow.Flow]*Bundle
}

func NewState(cat *catalog.Catalog) *State {
	return &State{
		cat:          cat,
		flowToCode:   make(map[flow.Flow]space.Code),
		flowToSpace:  make(map[flow.Flow]space.Space),
		flowToBundle: make(map[flow.Flow]*Bundle),
	}
}

func (s *State) mark(f flow.Flow) errs.Mark {
	if f == nil || f.Origin() == nil {
		return errs.Mark{}
	}
	return f.Origin().Mark()
}

// Encode translates one flow node to a code expression.
func (s *State) Encode(f flow.Flow) (c space.Code, err error) {
	if cached, ok := s.flowToCode[f]; ok {
		return cached, nil
	}
	defer errs.TranslateGuard(&err, "While encoding:", s.mark(f))
	c, err = s.encode(f)
	if err != nil {
		return nil, err
	}
	s.flowToCode[f] = c
	return c, nil
}

// Relate translates one flow node to a space.
func (s *State) Relate(f flow.Flow) (sp space.Space, err error) {
	if cached, ok := s.flowToSpace[f]; ok {
		return cached, nil
	}
	defer errs.TranslateGuard(&err, "While relating:", s.mark(f))
	sp, err = s.relate(f)
	if err != nil {
		return nil, err
	}
	s.flowToSpace[f] = sp
	return sp, nil
}

func (s *State) relate(f flow.Flow) (space.Space, error) {
	switch ff := f.(type) {
	case *flow.Root:
		return space.NewRoot(), nil

	case *flow.Home:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		return space.NewScalar(base), nil

	case *flow.Table:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		return space.NewDirectTable(base, ff.Table), nil

	case *flow.Chain:
		cur, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		for _, j := range ff.Joins {
			table, _, ok := s.cat.Table(j.TargetTable)
			if !ok {
				return nil, errs.ErrNameNotFound.New(j.TargetTable)
			}
			cur = space.NewFiberTable(cur, j, table)
		}
		return cur, nil

	case *flow.Sieve:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		filter, err := s.Encode(ff.Filter)
		if err != nil {
			return nil, err
		}
		return space.NewFiltered(base, filter), nil

	case *flow.Sort:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		order, err := s.encodeOrder(ff.Order)
		if err != nil {
			return nil, err
		}
		return space.NewOrdered(base, order, ff.Limit, ff.Offset), nil

	case *flow.Quotient:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		seed, err := s.Relate(ff.Seed)
		if err != nil {
			return nil, err
		}
		if space.Spans(base, seed) {
			return nil, errs.ErrPluralExpected.New()
		}
		if !space.Spans(seed, base) {
			return nil, errs.ErrDescendantExpected.New()
		}
		kernels, err := s.encodeAll(ff.Kernels)
		if err != nil {
			return nil, err
		}
		return space.NewQuotient(base, seed, kernels), nil

	case *flow.Complement:
		quotientFlow, err := s.Relate(ff.Quotient)
		if err != nil {
			return nil, err
		}
		q, ok := quotientFlow.(*space.Quotient)
		if !ok {
			return nil, errs.ErrTypeMismatch.New("complement requires a quotient base")
		}
		return space.NewComplement(q), nil

	case *flow.Cover:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		seed, err := s.Relate(ff.Seed)
		if err != nil {
			return nil, err
		}
		return space.NewMoniker(base, seed), nil

	case *flow.Fork:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		kernels, err := s.encodeAll(ff.Kernels)
		if err != nil {
			return nil, err
		}
		return space.NewForked(base, base, kernels), nil

	case *flow.Attach:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		seed, err := s.Relate(ff.Seed)
		if err != nil {
			return nil, err
		}
		images, err := s.encodeImages(ff.Images)
		if err != nil {
			return nil, err
		}
		var filter space.Code
		if ff.Condition != nil {
			filter, err = s.Encode(ff.Condition)
			if err != nil {
				return nil, err
			}
		}
		return space.NewAttach(base, seed, images, filter), nil

	case *flow.Clip:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		seed, err := s.Relate(ff.Seed)
		if err != nil {
			return nil, err
		}
		if !(space.Spans(seed, base) && !space.Spans(base, seed)) {
			return nil, errs.ErrPluralExpected.New()
		}
		order, err := s.encodeOrder(ff.Order)
		if err != nil {
			return nil, err
		}
		return space.NewClipped(base, seed, order, ff.Limit, ff.Offset), nil

	case *flow.Locate:
		base, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		seed, err := s.Relate(ff.Seed)
		if err != nil {
			return nil, err
		}
		images, err := s.encodeImages(ff.Images)
		if err != nil {
			return nil, err
		}
		return space.NewLocator(base, seed, images), nil

	case *flow.Column:
		if ff.Link != nil {
			return s.Relate(ff.Link)
		}
		return nil, errs.ErrNameNotFound.New("no space associated with this column")

	case *flow.Selection:
		return s.Relate(ff.BaseFlow)

	case *flow.Identity:
		return s.Relate(ff.BaseFlow)

	default:
		// Every other flow shape (Literal/Cast/Rescoping/Formula/Kernel/
		// Collect) is a value, not a space; relating it falls back to its
		// base exactly as RelateBase does in the original.
		base := baseOf(f)
		if base == nil {
			return nil, errs.ErrTypeMismatch.New("expected a flow expression")
		}
		return s.Relate(base)
	}
}

// baseOf extracts the BaseFlow field shared by every flow type that carries
// one, used only by relate's catch-all fallback above.
func baseOf(f flow.Flow) flow.Flow {
	switch ff := f.(type) {
	case *flow.Literal:
		return ff.BaseFlow
	case *flow.Cast:
		return ff.BaseFlow
	case *flow.Rescoping:
		return ff.BaseFlow
	case *flow.Formula:
		return ff.BaseFlow
	case *flow.Kernel:
		return ff.BaseFlow
	case *flow.Collect:
		return ff.BaseFlow
	default:
		return nil
	}
}

func (s *State) encode(f flow.Flow) (space.Code, error) {
	switch ff := f.(type) {
	case *flow.Column:
		sp, err := s.Relate(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		col, ok := columnDomain(sp, ff.Column)
		if !ok {
			return nil, errs.ErrNameNotFound.New(ff.Column)
		}
		return space.NewColumnUnit(ff.Column, sp, col), nil

	case *flow.Kernel:
		qsp, err := s.Relate(ff.Quotient)
		if err != nil {
			return nil, err
		}
		q, ok := qsp.(*space.Quotient)
		if !ok {
			return nil, errs.ErrTypeMismatch.New("kernel reference requires a quotient space")
		}
		if ff.Index < 0 || ff.Index >= len(q.Kernels) {
			return nil, errs.ErrBadArity.New("kernel")
		}
		return space.NewKernelUnit(q.Kernels[ff.Index], q), nil

	case *flow.Literal:
		return space.NewLiteral(ff.Value, ff.Dom), nil

	case *flow.Cast:
		return s.Convert(ff.BaseFlow, ff.Dom)

	case *flow.Rescoping:
		base, err := s.Encode(ff.BaseFlow)
		if err != nil {
			return nil, err
		}
		sp, err := s.Relate(ff.Scope)
		if err != nil {
			return nil, err
		}
		return space.NewScalarUnit(base, sp), nil

	case *flow.Formula:
		args := make(map[string][]space.Code, len(ff.Arguments))
		for name, slot := range ff.Arguments {
			encoded, err := s.encodeAll(slot)
			if err != nil {
				return nil, err
			}
			args[name] = encoded
		}
		built, err := code.Build(ff.Sig, ff.Dom, args)
		if err != nil {
			return nil, err
		}
		return s.wrapAggregate(ff.BaseFlow, built)

	case *flow.Clip:
		return s.encodeClip(ff)

	default:
		return nil, errs.ErrTypeMismatch.New("expected a code expression")
	}
}

// wrapAggregate lifts a count/sum/min/max/avg formula into an
// AggregateUnit keyed to the plural space its own argument's units span,
// relative to base's own space -- the same root/deduceSpace pattern
// encodeClip uses to find a covering's window space. Every other formula
// (a scalar operator like add/equal/concat) passes through untouched.
func (s *State) wrapAggregate(base flow.Flow, f *space.Formula) (space.Code, error) {
	_, op, ok := code.AsAggregate(f)
	if !ok || op == nil {
		return f, nil
	}
	root, err := s.Relate(base)
	if err != nil {
		return nil, err
	}
	plural, err := deduceSpace(root, space.Units(op))
	if err != nil {
		return nil, err
	}
	return space.NewAggregateUnit(f, plural, root), nil
}

// encodeClip is EncodeClip in the original: a Clip flow used in value
// position (rather than as a covering space) encodes to a CoveringUnit
// wrapping a row-window built from the deduced singular space of its seed.
func (s *State) encodeClip(ff *flow.Clip) (space.Code, error) {
	root, err := s.Relate(ff.BaseFlow)
	if err != nil {
		return nil, err
	}
	c, err := s.Encode(ff.Seed)
	if err != nil {
		return nil, err
	}
	units := space.Units(c)
	sp, err := deduceSpace(root, units)
	if err != nil {
		return nil, err
	}
	filter := code.NewIsNull(c)
	filterSp := space.NewFiltered(sp, code.NewNot(filter))
	order, err := s.encodeOrder(ff.Order)
	if err != nil {
		return nil, err
	}
	clipped := space.NewClipped(root, filterSp, order, ff.Limit, ff.Offset)
	return space.NewCoveringUnit(c, clipped), nil
}

// deduceSpace picks the single most specific space among units' spaces,
// requiring that it span root, mirroring the repeated space-deduction loop in UnpackCollect/
// EncodeClip: keep only units whose space isn't dominated by one already
// kept, erroring if more than one independent space remains.
func deduceSpace(root space.Space, units []space.Unit) (space.Space, error) {
	if len(units) == 0 {
		return space.NewRoot(), nil
	}
	var spaces []space.Space
	for _, u := range units {
		us := u.UnitSpace()
		dominated := false
		for _, kept := range spaces {
			if space.Dominates(kept, us) {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		filtered := spaces[:0]
		for _, kept := range spaces {
			if !space.Dominates(us, kept) {
				filtered = append(filtered, kept)
			}
		}
		spaces = append(filtered, us)
	}
	if len(spaces) > 1 {
		return nil, errs.ErrAmbiguousSegment.New()
	}
	sp := spaces[0]
	if !space.Spans(sp, root) {
		return nil, errs.ErrDescendantExpected.New()
	}
	return sp, nil
}

// ImplicitSegment wraps a flat list of codes (the Bundle.Codes a raw,
// non-Collect top-level flow unpacks to) into the implicit top-level
// Segment spec.md §4.3 describes Unpack producing for that case: "a
// top-level non-collect flow is wrapped into an implicit segment". The
// segment's own root is space.NewRoot() (the top scope has no enclosing
// collect to supply one) and its space is deduced from the codes' units
// exactly as unpackCollect's own deduction-from-codes branch does.
func ImplicitSegment(codes []space.Code) (*Segment, error) {
	root := space.NewRoot()
	var units []space.Unit
	for _, c := range codes {
		units = append(units, space.Units(c)...)
	}
	sp, err := deduceSpace(root, units)
	if err != nil {
		return nil, err
	}
	return &Segment{Root: root, Space: sp, Codes: codes}, nil
}

// Unpack dissects flow into a Bundle, memoized like Encode/Relate.
func (s *State) Unpack(f flow.Flow) (b *Bundle, err error) {
	if cached, ok := s.flowToBundle[f]; ok {
		return cached, nil
	}
	defer errs.TranslateGuard(&err, "While unpacking:", s.mark(f))
	b, err = s.unpack(f)
	if err != nil {
		return nil, err
	}
	s.flowToBundle[f] = b
	return b, nil
}

func (s *State) unpack(f flow.Flow) (*Bundle, error) {
	switch ff := f.(type) {
	case *flow.Collect:
		return s.unpackCollect(ff)
	case *flow.Selection:
		return s.unpackSelection(ff)
	case *flow.Identity:
		return s.unpackIdentity(ff)
	default:
		c, err := s.Encode(f)
		if err != nil {
			return nil, err
		}
		return &Bundle{Codes: []space.Code{c}}, nil
	}
}

// unpackCollect mirrors UnpackCollect's three-way split on the segment's
// declared domain: a domain that Unary-coerces to itself (any ordinary
// scalar type) takes the single-code path; a Record/Identity domain takes
// the bundle-and-relate path; anything else (void, an uncoercible shape)
// falls back to unpacking the seed as an implicit collection and deducing
// the segment space from the units its codes touch.
func (s *State) unpackCollect(ff *flow.Collect) (*Bundle, error) {
	root, err := s.Relate(ff.BaseFlow)
	if err != nil {
		return nil, err
	}
	var sp space.Space
	var codes []space.Code
	var dependents []*Segment

	if _, ok := coerce.Unary(ff.Dom); ok {
		c, err := s.Encode(ff.Seed)
		if err != nil {
			return nil, err
		}
		sp, err = deduceSpace(root, space.Units(c))
		if err != nil {
			return nil, err
		}
		codes = []space.Code{c}
	} else if isRecordLike(ff.Dom) {
		bundle, err := s.Unpack(ff.Seed)
		if err != nil {
			return nil, err
		}
		sp, err = s.Relate(ff.Seed)
		if err != nil {
			return nil, err
		}
		codes, dependents = bundle.Codes, bundle.Segments
	} else {
		bundle, err := s.Unpack(ff.Seed)
		if err != nil {
			return nil, err
		}
		var units []space.Unit
		for _, c := range bundle.Codes {
			units = append(units, space.Units(c)...)
		}
		sp, err = deduceSpace(root, units)
		if err != nil {
			return nil, err
		}
		codes, dependents = bundle.Codes, bundle.Segments
	}

	if !space.Spans(sp, root) {
		return nil, errs.ErrDescendantExpected.New()
	}
	seg := &Segment{Root: root, Space: sp, Codes: codes, Dependents: dependents}
	return &Bundle{Segments: []*Segment{seg}}, nil
}

func isRecordLike(d domain.Domain) bool {
	switch d.(type) {
	case domain.Record, domain.Identity:
		return true
	default:
		return false
	}
}

func (s *State) unpackSelection(ff *flow.Selection) (*Bundle, error) {
	sp, err := s.Relate(ff)
	if err != nil {
		return nil, err
	}
	indicator := space.NewScalarUnit(space.NewLiteral(true, domain.Boolean{}), sp)
	codes := []space.Code{indicator}
	var segments []*Segment
	for _, el := range ff.Elements {
		bundle, err := s.Unpack(el)
		if err != nil {
			return nil, err
		}
		codes = append(codes, bundle.Codes...)
		segments = append(segments, bundle.Segments...)
	}
	return &Bundle{Codes: codes, Segments: segments}, nil
}

func (s *State) unpackIdentity(ff *flow.Identity) (*Bundle, error) {
	sp, err := s.Relate(ff)
	if err != nil {
		return nil, err
	}
	indicator := space.NewScalarUnit(space.NewLiteral(true, domain.Boolean{}), sp)
	codes := []space.Code{indicator}
	var segments []*Segment
	for _, el := range ff.Elements {
		bundle, err := s.Unpack(el)
		if err != nil {
			return nil, err
		}
		codes = append(codes, bundle.Codes...)
		segments = append(segments, bundle.Segments...)
	}
	return &Bundle{Codes: codes, Segments: segments}, nil
}

func (s *State) encodeAll(fs []flow.Flow) ([]space.Code, error) {
	out := make([]space.Code, len(fs))
	for i, f := range fs {
		c, err := s.Encode(f)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func (s *State) encodeOrder(os []flow.Ordered) ([]space.Order, error) {
	out := make([]space.Order, len(os))
	for i, o := range os {
		c, err := s.Encode(o.Flow)
		if err != nil {
			return nil, err
		}
		out[i] = space.Order{Code: c, Asc: o.Direction > 0}
	}
	return out, nil
}

func (s *State) encodeImages(ims []flow.Image) ([]space.Code, error) {
	out := make([]space.Code, len(ims))
	for i, im := range ims {
		lhs, err := s.Encode(im.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := s.Encode(im.RHS)
		if err != nil {
			return nil, err
		}
		out[i] = code.NewEquals(lhs, rhs)
	}
	return out, nil
}

// columnDomain looks up column's domain on the table underlying sp's
// inflation -- the only place Encode needs catalog metadata directly
// rather than through a join already captured in the space.
func columnDomain(sp space.Space, column string) (domain.Domain, bool) {
	inflated := space.Inflation(sp)
	var table *catalog.Table
	switch t := inflated.(type) {
	case *space.DirectTable:
		table = t.Table
	case *space.FiberTable:
		table = t.Table
	default:
		return nil, false
	}
	col, ok := table.Column(column)
	if !ok {
		return nil, false
	}
	return col.Domain, true
}

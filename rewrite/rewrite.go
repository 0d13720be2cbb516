package rewrite

import (
	"strings"

	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/space"
)

// Rewrite is pass 1 of spec.md §4.4: local algebraic simplification. It
// walks a Space tree bottom-up, dropping `?true` filters, collapsing an
// attach covering's filter conjuncts of shape `LHS(base) = RHS(seed)` into
// its Images, and lowering Code leaves (string search -> LIKE, head/tail/
// slice/at -> SUBSTRING, length -> coalesce(length, 0), boolean quantifiers
// -> an EXISTS-shaped not-null test over a filtered plural space).
func (s *State) Rewrite(sp space.Space) (space.Space, error) {
	if sp == nil {
		return nil, nil
	}
	switch t := sp.(type) {
	case *space.Root:
		return t, nil

	case *space.Scalar:
		base, err := s.Rewrite(t.BaseSpace)
		if err != nil {
			return nil, err
		}
		return space.NewScalar(base), nil

	case *space.DirectTable:
		base, err := s.Rewrite(t.BaseSpace)
		if err != nil {
			return nil, err
		}
		return space.NewDirectTable(base, t.Table), nil

	case *space.FiberTable:
		base, err := s.Rewrite(t.BaseSpace)
		if err != nil {
			return nil, err
		}
		return space.NewFiberTable(base, t.Join, t.Table), nil

	case *space.Filtered:
		base, err := s.Rewrite(t.BaseSpace)
		if err != nil {
			return nil, err
		}
		pred, err := s.RewriteCode(t.Predicate)
		if err != nil {
			return nil, err
		}
		if isTrivialTrue(pred) {
			return base, nil
		}
		return space.NewFiltered(base, pred), nil

	case *space.Ordered:
		base, err := s.Rewrite(t.BaseSpace)
		if err != nil {
			return nil, err
		}
		order, err := s.rewriteOrder(t.OrderBy)
		if err != nil {
			return nil, err
		}
		return space.NewOrdered(base, order, t.Limit, t.Offset), nil

	case *space.Quotient:
		base, err := s.Rewrite(t.BaseSpace)
		if err != nil {
			return nil, err
		}
		seed, err := s.Rewrite(t.Seed)
		if err != nil {
			return nil, err
		}
		kernels, err := s.rewriteCodes(t.Kernels)
		if err != nil {
			return nil, err
		}
		return space.NewQuotient(base, seed, kernels), nil

	case *space.Complement:
		base, err := s.Rewrite(t.BaseSpace)
		if err != nil {
			return nil, err
		}
		q, ok := base.(*space.Quotient)
		if !ok {
			return nil, errs.New(errs.ErrDescendantExpected.New())
		}
		return space.NewComplement(q), nil

	case *space.Covering:
		return s.rewriteCovering(t)

	default:
		return sp, nil
	}
}

func (s *State) rewriteOrder(os []space.Order) ([]space.Order, error) {
	out := make([]space.Order, len(os))
	for i, o := range os {
		c, err := s.RewriteCode(o.Code)
		if err != nil {
			return nil, err
		}
		out[i] = space.Order{Code: c, Asc: o.Asc}
	}
	return out, nil
}

func (s *State) rewriteCodes(cs []space.Code) ([]space.Code, error) {
	out := make([]space.Code, len(cs))
	for i, c := range cs {
		rc, err := s.RewriteCode(c)
		if err != nil {
			return nil, err
		}
		out[i] = rc
	}
	return out, nil
}

// rewriteCovering rewrites base/seed/filter and, for an attach/locator
// covering, folds any filter conjunct of shape `LHS(base) = RHS(seed)`
// into Images so Compile can parameterize the correlated subquery by
// equi-join instead of re-checking the equality inside it.
func (s *State) rewriteCovering(t *space.Covering) (space.Space, error) {
	base, err := s.Rewrite(t.BaseSpace)
	if err != nil {
		return nil, err
	}
	seed, err := s.Rewrite(t.Seed)
	if err != nil {
		return nil, err
	}
	images, err := s.rewriteCodes(t.Images)
	if err != nil {
		return nil, err
	}
	var filter space.Code
	if t.Filter != nil {
		filter, err = s.RewriteCode(t.Filter)
		if err != nil {
			return nil, err
		}
	}

	if t.Kind == space.AttachKind || t.Kind == space.LocatorKind {
		var residual []space.Code
		for _, c := range conjunctsOf(filter) {
			if lop, rop, ok := code.IsEquals(c); ok && splitsAcrossBaseSeed(lop, rop, base, seed) {
				images = append(images, c)
				continue
			}
			residual = append(residual, c)
		}
		filter = conjoin(residual)
	}

	out := &space.Covering{
		Kind:        t.Kind,
		BaseSpace:   base,
		Seed:        seed,
		Images:      images,
		Filter:      filter,
		ForkKernels: t.ForkKernels,
		ClipOrder:   t.ClipOrder,
		ClipLimit:   t.ClipLimit,
		ClipOffset:  t.ClipOffset,
	}
	return out, nil
}

// conjunctsOf flattens a possibly-nested AND into its leaf conjuncts; a nil
// or non-AND code is returned as its own single-element (or empty) slice.
func conjunctsOf(c space.Code) []space.Code {
	if c == nil {
		return nil
	}
	ops, ok := code.IsAnd(c)
	if !ok {
		return []space.Code{c}
	}
	var out []space.Code
	for _, op := range ops {
		out = append(out, conjunctsOf(op)...)
	}
	return out
}

func conjoin(cs []space.Code) space.Code {
	switch len(cs) {
	case 0:
		return nil
	case 1:
		return cs[0]
	default:
		return code.NewAnd(cs...)
	}
}

// belongsTo reports whether every unit c touches lies within sp -- the
// heuristic rewriteCovering uses to decide which side of an equality
// conjunct a bare operand (base or seed) belongs to. A literal with no
// units belongs to either side.
func belongsTo(c space.Code, sp space.Space) bool {
	units := space.Units(c)
	if len(units) == 0 {
		return true
	}
	for _, u := range units {
		if !space.Spans(sp, u.UnitSpace()) {
			return false
		}
	}
	return true
}

func splitsAcrossBaseSeed(lop, rop, base, seed space.Space) bool {
	if belongsTo(lop, base) && belongsTo(rop, seed) {
		return true
	}
	if belongsTo(rop, base) && belongsTo(lop, seed) {
		return true
	}
	return false
}

func isTrivialTrue(c space.Code) bool {
	lit, ok := c.(*space.Literal)
	if !ok {
		return false
	}
	b, ok := lit.Value.(bool)
	return ok && b
}

// RewriteCode applies the same pass to a standalone Code expression
// (recombine's lifted filters and Compile's top-level segment codes run
// through this directly, without an enclosing Space walk).
func (s *State) RewriteCode(c space.Code) (space.Code, error) {
	if c == nil {
		return nil, nil
	}
	switch t := c.(type) {
	case *space.Literal:
		return t, nil

	case *space.Cast:
		base, err := s.RewriteCode(t.BaseCode)
		if err != nil {
			return nil, err
		}
		return space.NewCast(base, t.Dom), nil

	case *space.ColumnUnit:
		return t, nil

	case *space.ScalarUnit:
		inner, err := s.RewriteCode(t.Inner)
		if err != nil {
			return nil, err
		}
		return space.NewScalarUnit(inner, t.Space), nil

	case *space.AggregateUnit:
		inner, err := s.RewriteCode(t.Inner)
		if err != nil {
			return nil, err
		}
		return space.NewAggregateUnit(inner, t.PluralSpace, t.Space), nil

	case *space.CorrelatedUnit:
		inner, err := s.RewriteCode(t.Inner)
		if err != nil {
			return nil, err
		}
		return space.NewCorrelatedUnit(inner, t.PluralSpace, t.Space), nil

	case *space.KernelUnit:
		return t, nil

	case *space.CoveringUnit:
		inner, err := s.RewriteCode(t.Inner)
		if err != nil {
			return nil, err
		}
		return space.NewCoveringUnit(inner, t.CoveringSpace), nil

	case *space.Formula:
		return s.rewriteFormula(t)

	default:
		return c, nil
	}
}

func (s *State) rewriteFormula(f *space.Formula) (space.Code, error) {
	args := make(map[string][]space.Code, len(f.Args))
	for name, vs := range f.Args {
		nv := make([]space.Code, len(vs))
		for i, v := range vs {
			rv, err := s.RewriteCode(v)
			if err != nil {
				return nil, err
			}
			nv[i] = rv
		}
		args[name] = nv
	}
	rebuilt := space.NewFormula(f.Sig, f.Dom, args)

	if op, term, ok := code.AsSearch(rebuilt); ok {
		return rewriteSearch(op, term), nil
	}
	if kind, formula, ok := code.AsHeadTailSliceAt(rebuilt); ok {
		return rewriteSubstring(kind, formula), nil
	}
	if _, ok := code.AsLength(rebuilt); ok {
		return code.NewCoalesce(rebuilt, integerLiteral(0)), nil
	}
	if op, isEvery, ok := code.AsQuantifier(rebuilt); ok {
		return rewriteQuantifier(op, isEvery), nil
	}
	return rebuilt, nil
}

// rewriteQuantifier lowers exists(op)/every(op) to a not-null test of a
// scalar true-literal over op's plural space filtered by the (possibly
// negated) predicate -- the Code-level shape of "EXISTS (SELECT 1 FROM
// plural WHERE predicate)" that Term/Frame later realize as a real subquery
// join. every() is exists() applied to the negated predicate, negated
// again.
func rewriteQuantifier(op space.Code, isEvery bool) space.Code {
	agg, ok := op.(*space.AggregateUnit)
	if !ok {
		return op
	}
	pred := agg.Inner
	if isEvery {
		pred = code.NewNot(pred)
	}
	filteredPlural := space.NewFiltered(agg.PluralSpace, pred)
	exists := code.NewNot(code.NewIsNull(space.NewScalarUnit(space.NewLiteral(true, domain.Boolean{}), filteredPlural)))
	if isEvery {
		return code.NewNot(exists)
	}
	return exists
}

func integerLiteral(n int64) space.Code { return space.NewLiteral(n, domain.Integer{}) }

// rewriteSearch lowers search(op, term) to op LIKE '%term%' ESCAPE '\',
// escaping %/_ /\ in a literal term and wrapping a non-literal term in
// CONCAT('%', term, '%').
func rewriteSearch(op, term space.Code) space.Code {
	if lit, ok := term.(*space.Literal); ok {
		if str, ok2 := lit.Value.(string); ok2 {
			pattern := space.NewLiteral("%"+escapeLike(str)+"%", domain.Text{})
			return code.NewLike(op, pattern)
		}
	}
	pct := space.Code(space.NewLiteral("%", domain.Text{}))
	pattern := code.NewConcat(pct, code.NewConcat(term, pct))
	return code.NewLike(op, pattern)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

// rewriteSubstring lowers head/tail/slice/at to SUBSTRING(op FROM start FOR
// length), computing 1-based start positions from each function's 0-based
// semantics. Negative indices (counting from the end of the string) are
// not modeled here -- left as a documented simplification, see DESIGN.md.
func rewriteSubstring(kind string, f *space.Formula) space.Code {
	op := f.Arg("op")
	switch kind {
	case "head":
		return code.NewSubstring(op, integerLiteral(1), f.Arg("length"))

	case "tail":
		length := f.Arg("length")
		var start space.Code
		if length != nil {
			start = code.NewAdd(domain.Integer{},
				code.NewSub(domain.Integer{}, code.NewLength(op), length), integerLiteral(1))
		}
		return code.NewSubstring(op, start, length)

	case "slice":
		left, right := f.Arg("left"), f.Arg("right")
		var start, length space.Code
		if left != nil {
			start = code.NewAdd(domain.Integer{}, left, integerLiteral(1))
		} else {
			start = integerLiteral(1)
		}
		if left != nil && right != nil {
			length = code.NewSub(domain.Integer{}, right, left)
		}
		return code.NewSubstring(op, start, length)

	case "at":
		index, length := f.Arg("index"), f.Arg("length")
		start := code.NewAdd(domain.Integer{}, index, integerLiteral(1))
		return code.NewSubstring(op, start, length)

	default:
		return f
	}
}

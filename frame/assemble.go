package frame

import (
	"fmt"

	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/term"
)

// Assembler carries the bookkeeping Assemble needs across one join-tree:
// which term tag maps to which FROM alias (or, for a term wrapped as a
// derived table, which nested Frame), the term object behind every tag
// (Evaluate resolves a route's target tag back to the Term that owns it),
// and which tags were reached only through a left outer join (so their
// exports must read as nullable).
type Assembler struct {
	aliasSeq int
	aliasOf  map[int]string
	subframe map[int]*subquery
	termByTag map[int]term.Term
	outerTags map[int]bool
	embedded  map[int]term.Term
	visited   []int
}

// subquery records a term wrapped as a SubqueryFrom: the Frame it was
// rendered into, the alias other frames reference it by, and a cache of
// which Unit already has a Column in that Frame (added lazily, on first
// reference -- see referenceInto).
type subquery struct {
	frame   *Frame
	alias   string
	inner   term.Term
	columns map[uint64]string
	next    int
}

// Assemble turns a compiled term.Term join-tree rooted at t into the Frame
// that selects codes over it (spec.md §4.7 "Assemble: ... walk the term
// tree, building one Frame per Table/Projection/Correlation boundary").
func Assemble(t term.Term, codes []space.Code) (*Frame, error) {
	a := &Assembler{
		aliasOf:   map[int]string{},
		subframe:  map[int]*subquery{},
		termByTag: map[int]term.Term{},
		outerTags: map[int]bool{},
		embedded:  map[int]term.Term{},
	}
	f, err := a.buildFrame(t)
	if err != nil {
		return nil, err
	}
	for _, c := range codes {
		ph, err := a.Evaluate(t, c)
		if err != nil {
			return nil, err
		}
		f.Columns = append(f.Columns, Column{Alias: fmt.Sprintf("c%d", len(f.Columns)+1), Expr: ph})
	}
	if len(f.Columns) == 0 {
		f.Columns = []Column{{Alias: "c1", Expr: TruePhrase{}}}
	}
	return f, nil
}

// SegmentFrame mirrors a term.SegmentTerm tree one Assemble call deep: Frame
// is that segment's own assembled Frame, Dependents its dependent segments'
// SegmentFrames, recursively -- so a segment tree nested more than one level
// (spec.md §8 E2E example #5 nests /department under /school) keeps its
// whole shape, not just the top level's immediate children.
type SegmentFrame struct {
	Frame      *Frame
	Dependents []*SegmentFrame
}

// AssembleSegment assembles a term.SegmentTerm into its own Frame, selecting
// its Keys followed by its Codes (Superkeys are not selected), then recurses
// fully into Dependents.
func AssembleSegment(seg *term.SegmentTerm) (*SegmentFrame, error) {
	all := append(append([]space.Code{}, seg.Keys...), seg.Codes...)
	f, err := Assemble(seg.Kid, all)
	if err != nil {
		return nil, err
	}
	deps := make([]*SegmentFrame, len(seg.Dependents))
	for i, d := range seg.Dependents {
		df, err := AssembleSegment(d)
		if err != nil {
			return nil, err
		}
		deps[i] = df
	}
	return &SegmentFrame{Frame: f, Dependents: deps}, nil
}

func (a *Assembler) newAlias() string {
	a.aliasSeq++
	return fmt.Sprintf("t%d", a.aliasSeq)
}

// buildFrame recursively renders t and everything it folds transparently
// into (Filter/Order/Wrapper never get their own subquery, since they
// describe the same physical rows as their Kid) into one Frame, recording
// t's own tag against whatever alias or nested Frame ends up representing
// it so Evaluate can look it up later.
func (a *Assembler) buildFrame(t term.Term) (*Frame, error) {
	a.termByTag[t.Tag()] = t
	a.visited = append(a.visited, t.Tag())

	switch tt := t.(type) {
	case *term.ScalarTerm:
		return &Frame{}, nil

	case *term.TableTerm:
		alias := a.newAlias()
		a.aliasOf[tt.Tag()] = alias
		return &Frame{From: &TableFrom{Table: tt.Table, Alias: alias}}, nil

	case *term.WrapperTerm:
		f, err := a.buildFrame(tt.Kid)
		if err != nil {
			return nil, err
		}
		a.propagateAlias(tt.Tag(), tt.Kid.Tag())
		return f, nil

	case *term.PermanentTerm:
		f, err := a.buildFrame(tt.Kid)
		if err != nil {
			return nil, err
		}
		a.propagateAlias(tt.Tag(), tt.Kid.Tag())
		return f, nil

	case *term.FilterTerm:
		f, err := a.buildFrame(tt.Kid)
		if err != nil {
			return nil, err
		}
		a.propagateAlias(tt.Tag(), tt.Kid.Tag())
		ph, err := a.Evaluate(tt.Kid, tt.Predicate)
		if err != nil {
			return nil, err
		}
		f.Where = andPhrase(f.Where, ph)
		return f, nil

	case *term.OrderTerm:
		f, err := a.buildFrame(tt.Kid)
		if err != nil {
			return nil, err
		}
		a.propagateAlias(tt.Tag(), tt.Kid.Tag())
		for _, o := range tt.Order {
			ph, err := a.Evaluate(tt.Kid, o.Code)
			if err != nil {
				return nil, err
			}
			f.OrderBy = append(f.OrderBy, OrderItem{Expr: ph, Asc: o.Asc})
		}
		f.Limit = tt.Limit
		f.Offset = tt.Offset
		return f, nil

	case *term.ProjectionTerm:
		f, err := a.buildFrame(tt.Kid)
		if err != nil {
			return nil, err
		}
		groupBy := make([]Phrase, len(tt.Kernels))
		for i, k := range tt.Kernels {
			ph, err := a.Evaluate(tt.Kid, k)
			if err != nil {
				return nil, err
			}
			groupBy[i] = ph
		}
		if len(groupBy) == 0 {
			groupBy = []Phrase{TruePhrase{}}
		}
		f.GroupBy = groupBy
		return f, nil

	case *term.JoinTerm:
		lf, err := a.buildFrame(tt.LKid)
		if err != nil {
			return nil, err
		}
		right, err := a.buildJoinSide(tt.RKid, tt.IsLeft)
		if err != nil {
			return nil, err
		}
		a.propagateAlias(tt.Tag(), tt.LKid.Tag())
		if right == nil {
			// The shoot contributes no physical rows of its own (e.g. a bare
			// ScalarUnit's shoot term) -- nothing to join, its exports are
			// still reachable inline through termByTag.
			return lf, nil
		}
		var on Phrase
		for _, j := range tt.Joints {
			lp, err := a.Evaluate(tt.LKid, j.Lop)
			if err != nil {
				return nil, err
			}
			rp, err := a.Evaluate(tt.RKid, j.Rop)
			if err != nil {
				return nil, err
			}
			on = andPhrase(on, &FormulaPhrase{Op: "equal", Args: []Phrase{lp, rp}})
		}
		if on == nil {
			on = TruePhrase{}
		}
		lf.From = &JoinFrom{Left: lf.From, Right: right, On: on, IsLeft: tt.IsLeft}
		return lf, nil

	case *term.CorrelationTerm:
		f, err := a.buildFrame(tt.Kid)
		if err != nil {
			return nil, err
		}
		a.propagateAlias(tt.Tag(), tt.Kid.Tag())
		for _, c := range tt.Correlations {
			lp, err := a.Evaluate(tt.Kid, c.Lop)
			if err != nil {
				return nil, err
			}
			rp, err := a.Evaluate(tt.Kid, c.Rop)
			if err != nil {
				return nil, err
			}
			f.Where = andPhrase(f.Where, &FormulaPhrase{Op: "equal", Args: []Phrase{lp, rp}})
		}
		return f, nil

	case *term.EmbeddingTerm:
		lf, err := a.buildFrame(tt.LKid)
		if err != nil {
			return nil, err
		}
		a.propagateAlias(tt.Tag(), tt.LKid.Tag())
		// RKid (a CorrelationTerm) is rendered on demand, the first time
		// Evaluate resolves a unit routed to it, via embeddedFrame below --
		// it contributes no FROM clause, only a SubqueryPhrase value.
		a.embedded[tt.Tag()] = tt.RKid
		return lf, nil

	default:
		return nil, fmt.Errorf("frame: unrecognized term %T", t)
	}
}

// propagateAlias makes childTag's alias (or wrapped subframe) also answer
// for parentTag -- used by every pass-through term so Evaluate never needs
// to distinguish "the tag a unit routes to" from "the tag that actually
// owns a FROM alias".
func (a *Assembler) propagateAlias(parentTag, childTag int) {
	if alias, ok := a.aliasOf[childTag]; ok {
		a.aliasOf[parentTag] = alias
	}
	if sq, ok := a.subframe[childTag]; ok {
		a.subframe[parentTag] = sq
	}
}

// buildJoinSide renders shoot as a FROM contribution: a plain TableFrom is
// used inline, anything with its own WHERE/GROUP BY/ORDER BY is wrapped as
// a SubqueryFrom so those clauses don't leak into the trunk's own. A shoot
// with no FROM at all (e.g. a ScalarUnit evaluated directly, no table
// involved) contributes nothing -- its exports stay reachable inline
// through termByTag, exactly as if it had never been joined.
func (a *Assembler) buildJoinSide(shoot term.Term, isLeft bool) (From, error) {
	before := len(a.visited)
	f, err := a.buildFrame(shoot)
	if err != nil {
		return nil, err
	}
	mine := append([]int{}, a.visited[before:]...)
	if isLeft {
		for _, tag := range mine {
			a.outerTags[tag] = true
		}
	}

	if f.From == nil {
		return nil, nil
	}
	if len(f.Columns) == 0 && f.Where == nil && len(f.GroupBy) == 0 && f.Having == nil && len(f.OrderBy) == 0 && f.Limit == nil && f.Offset == nil {
		if tbl, ok := f.From.(*TableFrom); ok {
			return tbl, nil
		}
	}
	alias := a.newAlias()
	a.subframe[shoot.Tag()] = &subquery{frame: f, alias: alias, inner: shoot, columns: map[uint64]string{}}
	return &SubqueryFrom{Frame: f, Alias: alias}, nil
}

func andPhrase(a, b Phrase) Phrase {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &FormulaPhrase{Op: "and", Args: []Phrase{a, b}}
}

// Evaluate resolves code c, evaluated in the context of owner (any term
// whose Routes() cover every unit c reaches), into a Phrase (spec.md §4.7
// "Evaluate: route each unit through term to the descendant able to
// express it"). It replaces the original's claim broker: owner.Routes()
// already names the descendant a unit belongs to, so Evaluate only has to
// look that descendant's tag up in the alias/subframe/termByTag tables
// buildFrame populated.
func (a *Assembler) Evaluate(owner term.Term, c space.Code) (Phrase, error) {
	switch cc := c.(type) {
	case *space.Literal:
		return &LiteralPhrase{Value: cc.Value, Dom: cc.Dom, Nullable: cc.Value == nil}, nil
	case *space.Cast:
		inner, err := a.Evaluate(owner, cc.BaseCode)
		if err != nil {
			return nil, err
		}
		return &FormulaPhrase{Op: "cast", Args: []Phrase{inner}, Nullable: inner.IsNullable()}, nil
	case *space.Formula:
		return a.evalFormula(owner, cc)
	case space.Unit:
		return a.evalUnit(owner, cc)
	default:
		return nil, fmt.Errorf("frame: cannot evaluate code of type %T", c)
	}
}

func (a *Assembler) evalFormula(owner term.Term, f *space.Formula) (Phrase, error) {
	name := f.Sig.Name()
	if name == "row-number" {
		part, err := a.evalList(owner, f.Args["partition"])
		if err != nil {
			return nil, err
		}
		asc, err := a.evalList(owner, f.Args["asc"])
		if err != nil {
			return nil, err
		}
		desc, err := a.evalList(owner, f.Args["desc"])
		if err != nil {
			return nil, err
		}
		return &RowNumberPhrase{Partition: part, Asc: asc, Desc: desc}, nil
	}

	var args []Phrase
	for _, key := range argOrder(f) {
		for _, c := range f.Args[key] {
			ph, err := a.Evaluate(owner, c)
			if err != nil {
				return nil, err
			}
			args = append(args, ph)
		}
	}

	switch name {
	case "is-null", "exists", "every":
		return &FormulaPhrase{Op: name, Args: args, Nullable: false}, nil
	case "null-if":
		return &FormulaPhrase{Op: name, Args: args, Nullable: true}, nil
	case "if-null":
		return &FormulaPhrase{Op: name, Args: args, Nullable: allNullable(args)}, nil
	default:
		return &FormulaPhrase{Op: name, Args: args, Nullable: anyNullable(args)}, nil
	}
}

// argOrder returns f's slot names in a deterministic, SQL-shaped order
// (lop/rop/op first if present, then everything else alphabetically) so
// FormulaPhrase.Args lines up the way a reader expects (lop before rop,
// not map iteration order).
func argOrder(f *space.Formula) []string {
	preferred := []string{"op", "lop", "rop", "ops", "predicates", "consequents", "variants", "index", "left", "right", "length", "term", "alternative"}
	seen := map[string]bool{}
	var out []string
	for _, k := range preferred {
		if _, ok := f.Args[k]; ok {
			out = append(out, k)
			seen[k] = true
		}
	}
	var rest []string
	for k := range f.Args {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	for i := 1; i < len(rest); i++ {
		for j := i; j > 0 && rest[j-1] > rest[j]; j-- {
			rest[j-1], rest[j] = rest[j], rest[j-1]
		}
	}
	return append(out, rest...)
}

func (a *Assembler) evalList(owner term.Term, codes []space.Code) ([]Phrase, error) {
	out := make([]Phrase, len(codes))
	for i, c := range codes {
		ph, err := a.Evaluate(owner, c)
		if err != nil {
			return nil, err
		}
		out[i] = ph
	}
	return out, nil
}

func anyNullable(ps []Phrase) bool {
	for _, p := range ps {
		if p.IsNullable() {
			return true
		}
	}
	return false
}

func allNullable(ps []Phrase) bool {
	if len(ps) == 0 {
		return false
	}
	for _, p := range ps {
		if !p.IsNullable() {
			return false
		}
	}
	return true
}

// evalUnit resolves u by looking up the tag owner.Routes() names for it,
// then dispatching on how that tag was rendered: a physical table alias
// (ColumnPhrase), a wrapped derived table (lazily adding/reusing a Column
// via referenceInto), an embedded correlation (SubqueryPhrase), or a tag
// that was never given its own alias because it describes the very same
// rows as its Kid -- in which case u's own inner expression is evaluated
// in place, one level down, rather than referenced from outside.
func (a *Assembler) evalUnit(owner term.Term, u space.Unit) (Phrase, error) {
	targetTag, ok := owner.Routes()[term.RouteKey(u)]
	if !ok {
		// A ScalarUnit reached via a join's extraRoutes (term/inject.go's
		// injectNative) is routed on the *trunk* it was joined onto, not on
		// the shoot term representing its own native space -- when owner is
		// that shoot itself (e.g. this call came from referenceInto, having
		// wrapped the shoot as its own derived table), fall back to
		// evaluating the unit's inner expression directly in owner's frame.
		if su, isScalar := u.(*space.ScalarUnit); isScalar {
			return a.Evaluate(owner, su.Inner)
		}
		return nil, fmt.Errorf("frame: unit %#v not routed by term %d", u, owner.Tag())
	}
	nullable := a.outerTags[targetTag]

	if alias, ok := a.aliasOf[targetTag]; ok {
		switch uu := u.(type) {
		case *space.ColumnUnit:
			return &ColumnPhrase{Alias: alias, Column: uu.Column, Nullable: nullable}, nil
		}
	}
	if sq, ok := a.subframe[targetTag]; ok {
		return a.referenceInto(sq, u, nullable)
	}

	target := a.termByTag[targetTag]
	if target == nil {
		return nil, fmt.Errorf("frame: no term registered for tag %d", targetTag)
	}
	switch uu := u.(type) {
	case *space.KernelUnit:
		proj, ok := target.(*term.ProjectionTerm)
		if !ok {
			return nil, fmt.Errorf("frame: kernel unit routed to non-projection term %d", targetTag)
		}
		return a.Evaluate(proj.Kid, uu.Inner)
	case *space.AggregateUnit:
		proj, ok := target.(*term.ProjectionTerm)
		if !ok {
			return nil, fmt.Errorf("frame: aggregate unit routed to non-projection term %d", targetTag)
		}
		name, op, ok := code.AsAggregate(uu.Inner)
		if !ok {
			return nil, fmt.Errorf("frame: aggregate unit's inner code is not a recognised aggregate")
		}
		arg, err := a.Evaluate(proj.Kid, op)
		if err != nil {
			return nil, err
		}
		return &AggregatePhrase{Op: name, Arg: arg, Nullable: true}, nil
	case *space.CoveringUnit:
		wrapper, ok := target.(*term.WrapperTerm)
		if !ok {
			return nil, fmt.Errorf("frame: covering unit routed to non-wrapper term %d", targetTag)
		}
		return a.Evaluate(wrapper.Kid, uu.Inner)
	case *space.ScalarUnit:
		return a.Evaluate(target, uu.Inner)
	case *space.CorrelatedUnit:
		return a.embedAt(targetTag, nullable)
	default:
		return nil, fmt.Errorf("frame: cannot resolve unit %#v at term %d", u, targetTag)
	}
}

// referenceInto returns a ReferencePhrase into sq's derived table, adding a
// Column for u the first time it is requested and reusing it on every
// later reference. u is evaluated against sq's own inner term, not the
// caller's owner -- owner only tells us u routes somewhere inside sq; the
// expression itself must be resolved relative to the descendant that
// actually holds it, or every reference would loop back through this same
// subquery lookup.
func (a *Assembler) referenceInto(sq *subquery, u space.Unit, nullable bool) (Phrase, error) {
	key := term.RouteKey(u)
	if col, ok := sq.columns[key]; ok {
		return &ReferencePhrase{Alias: sq.alias, Column: col, Nullable: nullable}, nil
	}
	inner, err := a.Evaluate(sq.inner, u)
	if err != nil {
		return nil, err
	}
	sq.next++
	col := fmt.Sprintf("u%d", sq.next)
	sq.columns[key] = col
	sq.frame.Columns = append(sq.frame.Columns, Column{Alias: col, Expr: inner})
	return &ReferencePhrase{Alias: sq.alias, Column: col, Nullable: nullable || inner.IsNullable()}, nil
}

// embedAt renders the CorrelationTerm an EmbeddingTerm at tag parked in
// a.embedded, the first time one of its units is requested, as a
// SubqueryPhrase selecting that unit's CorrelatedUnit expression.
func (a *Assembler) embedAt(tag int, nullable bool) (Phrase, error) {
	corr, ok := a.embedded[tag]
	if !ok {
		return nil, fmt.Errorf("frame: no embedded correlation at term %d", tag)
	}
	ct, ok := corr.(*term.CorrelationTerm)
	if !ok {
		return nil, fmt.Errorf("frame: embedded term %d is not a correlation", tag)
	}
	f, err := a.buildFrame(ct)
	if err != nil {
		return nil, err
	}
	return &SubqueryPhrase{Frame: f, Nullable: true}, nil
}

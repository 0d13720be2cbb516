// Package code supplies the concrete formula signatures dispatched by
// Encode and Rewrite (spec.md §4.3-§4.4) plus constructor helpers that
// build space.Formula values. It is the Go analogue of the original's
// tr/signature.py (Signature/Slot/Bag) and tr/fn/encode.py (the concrete
// function catalog), kept as a separate package from space specifically so
// the mutually-recursive Space/Code algebra stays a single, cycle-free
// package: code depends on space, never the reverse.
package code

import (
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/space"
)

// Slot is one named parameter of a signature (spec.md Design Notes: formula
// dispatch is keyed on signature type; a slot additionally records
// mandatory/singular-ness so Encode can validate arity, original
// tr/signature.py's Slot class).
type Slot struct {
	Name        string
	IsMandatory bool
	IsSingular  bool
}

// sig is the common base every concrete Signature embeds; it implements
// the dominance lattice as an explicit "generalizes" parent pointer per
// spec.md Design Notes §9 ("signatures form a lattice with explicit
// dominates relations where subclassing is insufficient").
type sig struct {
	name        string
	slots       []Slot
	generalizes *sig // the broader signature this one specializes, or nil
}

func (s *sig) Name() string { return s.name }

// Dominates reports that s is at least as specific as other: true if s IS
// other, or other is somewhere on s's generalizes chain.
func (s *sig) Dominates(other space.Signature) bool {
	o, ok := other.(*sig)
	if !ok {
		return false
	}
	for cur := s; cur != nil; cur = cur.generalizes {
		if cur == o {
			return true
		}
	}
	return false
}

func newSig(name string, generalizes *sig, slots ...Slot) *sig {
	return &sig{name: name, slots: slots, generalizes: generalizes}
}

// The signature lattice. Equal, NotEqual and the ordering signature used
// for </<=/>/>= each generalize directly to Comparable, as siblings: none
// of the three dominates another. A domain-specific equality rule (e.g.
// identity equality) can be registered more specifically still by
// generalizing from Equal. Dominates follows the generalizes chain;
// rewrite's formula simplifications match a formula's exact signature.
var (
	sigComparable = newSig("comparable", nil)
	sigEqual      = newSig("equal", sigComparable, Slot{Name: "lop"}, Slot{Name: "rop"})
	sigNotEqual   = newSig("not-equal", sigComparable, Slot{Name: "lop"}, Slot{Name: "rop"})
	sigOrdering   = newSig("ordering", sigComparable, Slot{Name: "lop"}, Slot{Name: "rop"})

	sigAnd = newSig("and", nil, Slot{Name: "ops", IsSingular: false})
	sigOr  = newSig("or", nil, Slot{Name: "ops", IsSingular: false})
	sigNot = newSig("not", nil, Slot{Name: "op"})

	sigAdd = newSig("add", nil, Slot{Name: "lop"}, Slot{Name: "rop"})
	sigSub = newSig("sub", nil, Slot{Name: "lop"}, Slot{Name: "rop"})
	sigMul = newSig("mul", nil, Slot{Name: "lop"}, Slot{Name: "rop"})
	sigDiv = newSig("div", nil, Slot{Name: "lop"}, Slot{Name: "rop"})

	sigConcat = newSig("concat", nil, Slot{Name: "lop"}, Slot{Name: "rop"})
	sigLength = newSig("length", nil, Slot{Name: "op"})
	sigHead   = newSig("head", nil, Slot{Name: "op"}, Slot{Name: "length", IsMandatory: false})
	sigTail   = newSig("tail", nil, Slot{Name: "op"}, Slot{Name: "length", IsMandatory: false})
	sigSlice  = newSig("slice", nil, Slot{Name: "op"}, Slot{Name: "left", IsMandatory: false}, Slot{Name: "right", IsMandatory: false})
	sigAt     = newSig("at", nil, Slot{Name: "op"}, Slot{Name: "index"}, Slot{Name: "length", IsMandatory: false})
	sigSearch = newSig("search", nil, Slot{Name: "op"}, Slot{Name: "term"})

	sigCount  = newSig("count", nil, Slot{Name: "op"})
	sigSum    = newSig("sum", nil, Slot{Name: "op"})
	sigMin    = newSig("min", nil, Slot{Name: "op"})
	sigMax    = newSig("max", nil, Slot{Name: "op"})
	sigAvg    = newSig("avg", nil, Slot{Name: "op"})
	sigExists = newSig("exists", nil, Slot{Name: "op"})
	sigEvery  = newSig("every", nil, Slot{Name: "op"})

	sigIf      = newSig("if", nil, Slot{Name: "predicates", IsSingular: false}, Slot{Name: "consequents", IsSingular: false}, Slot{Name: "alternative", IsMandatory: false})
	sigSwitch  = newSig("switch", nil, Slot{Name: "op"}, Slot{Name: "variants", IsSingular: false}, Slot{Name: "consequents", IsSingular: false}, Slot{Name: "alternative", IsMandatory: false})
	sigNullIf  = newSig("null-if", nil, Slot{Name: "ops", IsSingular: false})
	sigIfNull  = newSig("if-null", nil, Slot{Name: "ops", IsSingular: false})
	sigIsNull  = newSig("is-null", nil, Slot{Name: "op"})

	sigRowNumber = newSig("row-number", nil,
		Slot{Name: "partition", IsSingular: false},
		Slot{Name: "asc", IsSingular: false},
		Slot{Name: "desc", IsSingular: false})
)

func arg1(name string, c space.Code) map[string][]space.Code { return map[string][]space.Code{name: {c}} }

func bag(pairs ...interface{}) map[string][]space.Code {
	m := map[string][]space.Code{}
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i].(string)] = pairs[i+1].([]space.Code)
	}
	return m
}

// Boolean-valued formula constructors (the ones Rewrite's `rewrite` step
// pattern-matches on: ?true elision, string search -> LIKE, head/tail/slice
// -> SUBSTRING, boolean quantifiers -> EXISTS).

func NewEquals(lop, rop space.Code) *space.Formula {
	return space.NewFormula(sigEqual, domain.Boolean{}, bag("lop", []space.Code{lop}, "rop", []space.Code{rop}))
}

func NewNotEquals(lop, rop space.Code) *space.Formula {
	return space.NewFormula(sigNotEqual, domain.Boolean{}, bag("lop", []space.Code{lop}, "rop", []space.Code{rop}))
}

// OrderingOp names a </<=/>/>= comparison.
type OrderingOp int

const (
	LessThan OrderingOp = iota
	LessOrEqual
	GreaterThan
	GreaterOrEqual
)

func NewOrdering(op OrderingOp, lop, rop space.Code) *space.Formula {
	f := space.NewFormula(sigOrdering, domain.Boolean{}, bag("lop", []space.Code{lop}, "rop", []space.Code{rop}))
	f.Args["op"] = []space.Code{space.NewLiteral(int(op), domain.Integer{})}
	return f
}

func NewAnd(ops ...space.Code) *space.Formula {
	return space.NewFormula(sigAnd, domain.Boolean{}, map[string][]space.Code{"ops": ops})
}

func NewOr(ops ...space.Code) *space.Formula {
	return space.NewFormula(sigOr, domain.Boolean{}, map[string][]space.Code{"ops": ops})
}

func NewNot(op space.Code) *space.Formula {
	return space.NewFormula(sigNot, domain.Boolean{}, arg1("op", op))
}

func NewIsNull(op space.Code) *space.Formula {
	return space.NewFormula(sigIsNull, domain.Boolean{}, arg1("op", op))
}

func NewAdd(dom domain.Domain, lop, rop space.Code) *space.Formula {
	return space.NewFormula(sigAdd, dom, bag("lop", []space.Code{lop}, "rop", []space.Code{rop}))
}

func NewSub(dom domain.Domain, lop, rop space.Code) *space.Formula {
	return space.NewFormula(sigSub, dom, bag("lop", []space.Code{lop}, "rop", []space.Code{rop}))
}

func NewMul(dom domain.Domain, lop, rop space.Code) *space.Formula {
	return space.NewFormula(sigMul, dom, bag("lop", []space.Code{lop}, "rop", []space.Code{rop}))
}

func NewDiv(dom domain.Domain, lop, rop space.Code) *space.Formula {
	return space.NewFormula(sigDiv, dom, bag("lop", []space.Code{lop}, "rop", []space.Code{rop}))
}

func NewConcat(lop, rop space.Code) *space.Formula {
	return space.NewFormula(sigConcat, domain.Text{}, bag("lop", []space.Code{lop}, "rop", []space.Code{rop}))
}

func NewLength(op space.Code) *space.Formula {
	return space.NewFormula(sigLength, domain.Integer{}, arg1("op", op))
}

func NewHead(op, length space.Code) *space.Formula {
	args := arg1("op", op)
	if length != nil {
		args["length"] = []space.Code{length}
	}
	return space.NewFormula(sigHead, domain.Text{}, args)
}

func NewTail(op, length space.Code) *space.Formula {
	args := arg1("op", op)
	if length != nil {
		args["length"] = []space.Code{length}
	}
	return space.NewFormula(sigTail, domain.Text{}, args)
}

func NewSlice(op, left, right space.Code) *space.Formula {
	args := arg1("op", op)
	if left != nil {
		args["left"] = []space.Code{left}
	}
	if right != nil {
		args["right"] = []space.Code{right}
	}
	return space.NewFormula(sigSlice, domain.Text{}, args)
}

func NewAt(op, index, length space.Code) *space.Formula {
	args := bag("op", []space.Code{op}, "index", []space.Code{index})
	if length != nil {
		args["length"] = []space.Code{length}
	}
	return space.NewFormula(sigAt, domain.Text{}, args)
}

func NewSearch(op, term space.Code) *space.Formula {
	return space.NewFormula(sigSearch, domain.Boolean{}, bag("op", []space.Code{op}, "term", []space.Code{term}))
}

func NewCount(dom domain.Domain, op space.Code) *space.Formula {
	return space.NewFormula(sigCount, dom, arg1("op", op))
}

func NewSum(dom domain.Domain, op space.Code) *space.Formula {
	return space.NewFormula(sigSum, dom, arg1("op", op))
}

func NewMin(dom domain.Domain, op space.Code) *space.Formula {
	return space.NewFormula(sigMin, dom, arg1("op", op))
}

func NewMax(dom domain.Domain, op space.Code) *space.Formula {
	return space.NewFormula(sigMax, dom, arg1("op", op))
}

func NewAvg(dom domain.Domain, op space.Code) *space.Formula {
	return space.NewFormula(sigAvg, dom, arg1("op", op))
}

func NewExists(op space.Code) *space.Formula {
	return space.NewFormula(sigExists, domain.Boolean{}, arg1("op", op))
}

func NewEvery(op space.Code) *space.Formula {
	return space.NewFormula(sigEvery, domain.Boolean{}, arg1("op", op))
}

// NewNullIf returns null when all of ops are pairwise equal, else the first;
// NewCoalesce ("if_null" in spec.md §4.3) returns the first non-null op.
func NewNullIf(ops ...space.Code) *space.Formula {
	return space.NewFormula(sigNullIf, ops[0].Domain(), map[string][]space.Code{"ops": ops})
}

func NewCoalesce(ops ...space.Code) *space.Formula {
	return space.NewFormula(sigIfNull, ops[0].Domain(), map[string][]space.Code{"ops": ops})
}

// NewRowNumber builds the ROW_NUMBER() OVER (PARTITION BY partition ORDER BY
// asc ..., desc ... DESC) pseudo-column Compile attaches to a Clipped
// covering space so its window can be sliced by a start <= rn < start+limit
// filter (spec.md §4.5 "for Clipped, attach ROW_NUMBER() ... and filter").
func NewRowNumber(partition, asc, desc []space.Code) *space.Formula {
	return space.NewFormula(sigRowNumber, domain.Integer{}, bag("partition", partition, "asc", asc, "desc", desc))
}

// The following exported extractors let rewrite (a different package)
// pattern-match on a formula's signature without reaching into the
// unexported sig values above -- the Go stand-in for the original's
// signature-keyed multimethod dispatch (spec.md Design Notes §9).

func sigOf(c space.Code) (*sig, *space.Formula, bool) {
	f, ok := c.(*space.Formula)
	if !ok {
		return nil, nil, false
	}
	s, ok := f.Sig.(*sig)
	return s, f, ok
}

// AsSearch reports whether c is a string-search formula (spec.md §4.4
// rewrite: "Rewrites string search formulas into LIKE with escape").
func AsSearch(c space.Code) (op, term space.Code, ok bool) {
	s, f, good := sigOf(c)
	if !good || s != sigSearch {
		return nil, nil, false
	}
	return f.Arg("op"), f.Arg("term"), true
}

// AsHeadTailSliceAt reports whether c is one of head/tail/slice/at, the
// family rewrite folds into SUBSTRING (spec.md §4.4).
func AsHeadTailSliceAt(c space.Code) (kind string, f *space.Formula, ok bool) {
	s, formula, good := sigOf(c)
	if !good {
		return "", nil, false
	}
	switch s {
	case sigHead:
		return "head", formula, true
	case sigTail:
		return "tail", formula, true
	case sigSlice:
		return "slice", formula, true
	case sigAt:
		return "at", formula, true
	default:
		return "", nil, false
	}
}

// AsLength reports whether c is the length() formula (spec.md §4.4:
// "Rewrites length to coalesce(length, 0)").
func AsLength(c space.Code) (op space.Code, ok bool) {
	s, f, good := sigOf(c)
	if !good || s != sigLength {
		return nil, false
	}
	return f.Arg("op"), true
}

// AsQuantifier reports whether c is exists()/every(), the pair rewrite
// turns into EXISTS over a filtered plural space (spec.md §4.4).
func AsQuantifier(c space.Code) (op space.Code, isEvery bool, ok bool) {
	s, f, good := sigOf(c)
	if !good {
		return nil, false, false
	}
	switch s {
	case sigExists:
		return f.Arg("op"), false, true
	case sigEvery:
		return f.Arg("op"), true, true
	default:
		return nil, false, false
	}
}

// AsAggregate reports whether c is one of count/sum/min/max/avg -- the set
// whose Compile-time `coalesce(_, 0)` wrapping spec.md §4.5 calls for on
// count/sum specifically.
func AsAggregate(c space.Code) (name string, op space.Code, ok bool) {
	s, f, good := sigOf(c)
	if !good {
		return "", nil, false
	}
	switch s {
	case sigCount:
		return "count", f.Arg("op"), true
	case sigSum:
		return "sum", f.Arg("op"), true
	case sigMin:
		return "min", f.Arg("op"), true
	case sigMax:
		return "max", f.Arg("op"), true
	case sigAvg:
		return "avg", f.Arg("op"), true
	default:
		return "", nil, false
	}
}

// IsAnd/IsEquals let rewrite recognise boolean connectives for its local
// simplifications (dropping ?true filters, folding AttachSpace images).
func IsAnd(c space.Code) (ops []space.Code, ok bool) {
	s, f, good := sigOf(c)
	if !good || s != sigAnd {
		return nil, false
	}
	return f.Args["ops"], true
}

func IsEquals(c space.Code) (lop, rop space.Code, ok bool) {
	s, f, good := sigOf(c)
	if !good || s != sigEqual {
		return nil, nil, false
	}
	return f.Arg("lop"), f.Arg("rop"), true
}

// NewIf builds a CASE WHEN p1 THEN c1 WHEN p2 THEN c2 ... ELSE alt END
// formula (spec.md §4.3's "if(filter, op, null)" construction used by
// recombine is just NewIf with one predicate and a null alternative).
func NewIf(dom domain.Domain, predicates, consequents []space.Code, alternative space.Code) *space.Formula {
	args := map[string][]space.Code{"predicates": predicates, "consequents": consequents}
	if alternative != nil {
		args["alternative"] = []space.Code{alternative}
	}
	return space.NewFormula(sigIf, dom, args)
}

func NewSwitch(dom domain.Domain, op space.Code, variants, consequents []space.Code, alternative space.Code) *space.Formula {
	args := map[string][]space.Code{"variants": variants, "consequents": consequents, "op": {op}}
	if alternative != nil {
		args["alternative"] = []space.Code{alternative}
	}
	return space.NewFormula(sigSwitch, dom, args)
}

// AsIf reports whether c is an if() formula, for rewrite to recognise the
// `if(filter, op, null)` shape it builds during aggregate recombination
// when lifting a shared top-level filter onto an aggregate's argument.
func AsIf(c space.Code) (predicates, consequents []space.Code, alternative space.Code, ok bool) {
	s, f, good := sigOf(c)
	if !good || s != sigIf {
		return nil, nil, nil, false
	}
	return f.Args["predicates"], f.Args["consequents"], f.Arg("alternative"), true
}

// sigLike/sigSubstring are the two rewrite-only formulas rewrite.go builds:
// LIKE is what a string-search formula lowers to, SUBSTRING is what the
// head/tail/slice/at family lowers to (spec.md §4.4 rewrite step 1).
var (
	sigLike      = newSig("like", nil, Slot{Name: "op"}, Slot{Name: "pattern"})
	sigSubstring = newSig("substring", nil, Slot{Name: "op"}, Slot{Name: "start", IsMandatory: false}, Slot{Name: "length", IsMandatory: false})
)

// NewLike builds a `op LIKE pattern ESCAPE '\'` formula; pattern is assumed
// to already have %/_ /\ escaped by the caller (rewrite.go does this when
// lowering a search() formula).
func NewLike(op, pattern space.Code) *space.Formula {
	return space.NewFormula(sigLike, domain.Boolean{}, bag("op", []space.Code{op}, "pattern", []space.Code{pattern}))
}

// NewSubstring builds a `SUBSTRING(op FROM start FOR length)` formula; start
// and length may be nil when the corresponding slot was open-ended.
func NewSubstring(op, start, length space.Code) *space.Formula {
	args := arg1("op", op)
	if start != nil {
		args["start"] = []space.Code{start}
	}
	if length != nil {
		args["length"] = []space.Code{length}
	}
	return space.NewFormula(sigSubstring, domain.Text{}, args)
}

package space

import "github.com/htscore/htscore/domain"

// Code is a scalar-valued expression over spaces (spec.md §3.4). Code and
// Space live in one package because the two algebras are mutually
// recursive -- a Unit is indexed by a Space, and a Space's predicate or
// kernel is itself a Code -- exactly as in the original's single
// tr/space.py module (Space and Code are sibling classes of the same
// file there too).
type Code interface {
	Domain() domain.Domain
	Basis() []interface{}
}

// Literal is a constant value of a given domain.
type Literal struct {
	Value interface{}
	Dom   domain.Domain
}

func NewLiteral(value interface{}, dom domain.Domain) *Literal { return &Literal{Value: value, Dom: dom} }

func (l *Literal) Domain() domain.Domain { return l.Dom }
func (l *Literal) Basis() []interface{}  { return []interface{}{"literal", l.Value, l.Dom} }

// Cast converts Base to Domain, inserted by coerce/encode's Convert
// sub-adapter (spec.md §4.3).
type Cast struct {
	BaseCode Code
	Dom      domain.Domain
}

func NewCast(base Code, dom domain.Domain) *Cast { return &Cast{BaseCode: base, Dom: dom} }

func (c *Cast) Domain() domain.Domain { return c.Dom }
func (c *Cast) Basis() []interface{}  { return []interface{}{"cast", c.BaseCode, c.Dom} }

// Signature identifies a formula's shape (its slots) -- spec.md §4.4's
// "signatures form a lattice with explicit dominates relations". The
// concrete signature catalog lives in package code, which imports this
// package; Signature itself stays minimal here to break the cycle between
// the two mutually-dependent algebras.
type Signature interface {
	Name() string
	// Dominates reports whether this signature is at least as specific as
	// other (spec.md Design Notes §9). Rewrite recognises formulas by their
	// exact signature and does not consult it.
	Dominates(other Signature) bool
}

// Formula is an operator/function application: spec.md §3.4
// "Formula(signature, domain, arguments: named bag of codes)".
type Formula struct {
	Sig  Signature
	Dom  domain.Domain
	Args map[string][]Code // named bag; non-plural slots hold a single-element slice
}

func NewFormula(sig Signature, dom domain.Domain, args map[string][]Code) *Formula {
	return &Formula{Sig: sig, Dom: dom, Args: args}
}

func (f *Formula) Domain() domain.Domain { return f.Dom }
func (f *Formula) Basis() []interface{} {
	basis := []interface{}{"formula", f.Sig.Name(), f.Dom}
	for _, name := range sortedKeys(f.Args) {
		basis = append(basis, name)
		for _, a := range f.Args[name] {
			basis = append(basis, a)
		}
	}
	return basis
}

// Arg returns the single-element argument bound to slot name, or nil.
func (f *Formula) Arg(name string) Code {
	vs := f.Args[name]
	if len(vs) == 0 {
		return nil
	}
	return vs[0]
}

func sortedKeys(m map[string][]Code) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// Unit is an elementary space-indexed code (spec.md §3.4).
type Unit interface {
	Code
	// UnitSpace is the space this unit is attached to.
	UnitSpace() Space
}

// ColumnUnit is exported natively by any term routing Space.
type ColumnUnit struct {
	Column string
	Space  Space
	Dom    domain.Domain
}

func NewColumnUnit(column string, sp Space, dom domain.Domain) *ColumnUnit {
	return &ColumnUnit{Column: column, Space: sp, Dom: dom}
}

func (u *ColumnUnit) Domain() domain.Domain { return u.Dom }
func (u *ColumnUnit) UnitSpace() Space       { return u.Space }
func (u *ColumnUnit) Basis() []interface{}   { return []interface{}{"column-unit", u.Column, u.Space} }

// ScalarUnit evaluates Inner once per row of Space; Companions are other
// ScalarUnits recombine has hinted into the same frame (spec.md §3.4,
// §4.4 recombine).
type ScalarUnit struct {
	Inner      Code
	Space      Space
	Companions []*ScalarUnit
}

func NewScalarUnit(inner Code, sp Space) *ScalarUnit { return &ScalarUnit{Inner: inner, Space: sp} }

func (u *ScalarUnit) Domain() domain.Domain { return u.Inner.Domain() }
func (u *ScalarUnit) UnitSpace() Space       { return u.Space }
func (u *ScalarUnit) Basis() []interface{} {
	return []interface{}{"scalar-unit", u.Inner, u.Space}
}

// AggregateUnit evaluates Inner over PluralSpace, one group per converging
// row of Space (spec.md §3.4).
type AggregateUnit struct {
	Inner       Code
	PluralSpace Space
	Space       Space
	Companions  []*AggregateUnit
}

func NewAggregateUnit(inner Code, plural, sp Space) *AggregateUnit {
	return &AggregateUnit{Inner: inner, PluralSpace: plural, Space: sp}
}

func (u *AggregateUnit) Domain() domain.Domain { return u.Inner.Domain() }
func (u *AggregateUnit) UnitSpace() Space       { return u.Space }
func (u *AggregateUnit) Basis() []interface{} {
	return []interface{}{"aggregate-unit", u.Inner, u.PluralSpace, u.Space}
}

// CorrelatedUnit is realized as a correlated subquery rather than a joined
// shoot term (spec.md §3.4, §4.5 Inject/CorrelatedUnit).
type CorrelatedUnit struct {
	Inner       Code
	PluralSpace Space
	Space       Space
}

func NewCorrelatedUnit(inner Code, plural, sp Space) *CorrelatedUnit {
	return &CorrelatedUnit{Inner: inner, PluralSpace: plural, Space: sp}
}

func (u *CorrelatedUnit) Domain() domain.Domain { return u.Inner.Domain() }
func (u *CorrelatedUnit) UnitSpace() Space       { return u.Space }
func (u *CorrelatedUnit) Basis() []interface{} {
	return []interface{}{"correlated-unit", u.Inner, u.PluralSpace, u.Space}
}

// KernelUnit is a projection column of a Quotient.
type KernelUnit struct {
	Inner         Code
	QuotientSpace *Quotient
}

func NewKernelUnit(inner Code, q *Quotient) *KernelUnit { return &KernelUnit{Inner: inner, QuotientSpace: q} }

func (u *KernelUnit) Domain() domain.Domain { return u.Inner.Domain() }
func (u *KernelUnit) UnitSpace() Space       { return u.QuotientSpace }
func (u *KernelUnit) Basis() []interface{} {
	return []interface{}{"kernel-unit", u.Inner, u.QuotientSpace}
}

// CoveringUnit is the exported unit of a moniker/fork/attach/clip/complement
// covering space.
type CoveringUnit struct {
	Inner          Code
	CoveringSpace Space
}

func NewCoveringUnit(inner Code, covering Space) *CoveringUnit {
	return &CoveringUnit{Inner: inner, CoveringSpace: covering}
}

func (u *CoveringUnit) Domain() domain.Domain { return u.Inner.Domain() }
func (u *CoveringUnit) UnitSpace() Space       { return u.CoveringSpace }
func (u *CoveringUnit) Basis() []interface{} {
	return []interface{}{"covering-unit", u.Inner, u.CoveringSpace}
}

// Lift rebuilds unit u so it is attached to space b, which must span u's
// own space (spec.md §3.4 invariant: "for every unit u with space A and
// every space B that spans A, u can be lifted to B"). Lifting a unit never
// changes its value, only which term is responsible for exporting it.
func Lift(u Unit, b Space) Unit {
	if !Spans(b, u.UnitSpace()) {
		panic("space: Lift requires b to span u's space")
	}
	switch t := u.(type) {
	case *ColumnUnit:
		return &ColumnUnit{Column: t.Column, Space: b, Dom: t.Dom}
	case *ScalarUnit:
		return &ScalarUnit{Inner: t.Inner, Space: b, Companions: t.Companions}
	case *KernelUnit:
		return t // kernel units are only ever attached to their own quotient
	case *CoveringUnit:
		return &CoveringUnit{Inner: t.Inner, CoveringSpace: b}
	default:
		return u
	}
}

// Units collects every Unit reachable from c's expression tree, in
// left-to-right occurrence order with duplicates kept -- used by Encode's
// Unpack to deduce the space an ambiguous top-level segment expression
// actually runs over (spec.md §4.3 Unpack, and original encode.py's
// repeated `code.units` accesses in UnpackCollect/EncodeClip).
func Units(c Code) []Unit {
	var out []Unit
	var walk func(Code)
	walk = func(c Code) {
		switch t := c.(type) {
		case Unit:
			out = append(out, t)
		case *Cast:
			walk(t.BaseCode)
		case *Formula:
			for _, name := range sortedKeys(t.Args) {
				for _, a := range t.Args[name] {
					walk(a)
				}
			}
		}
	}
	walk(c)
	return out
}

// Package binding is the core's input IR: the typed, name-resolved tree
// the upstream binder produces from parsed syntax before Route rewrites it
// into a Flow (spec.md §4.2, §6 "Input to the core"). Every concrete type
// here has a one-to-one Flow counterpart in package flow; Route performs
// the structural walk between the two trees.
//
// Grounded on original_source/.../core/tr/binding.py's class list, as
// referenced by route.py's import line (binding.py itself was filtered out
// of the retrieval pack, but every field route.py reads off a binding is
// named explicitly there, which is sufficient to reconstruct the shape).
package binding

import (
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
)

// Binding is one node of the input tree. Every node carries a source Mark
// so Route's translate_guard-equivalent can attach a location to any error
// it raises while routing that node (spec.md §7).
type Binding interface {
	Mark() errs.Mark
	Basis() []interface{}
}

// Base is embedded by every concrete binding to supply its source mark.
type Base struct {
	Src errs.Mark
}

func (b Base) Mark() errs.Mark { return b.Src }

// Root is the binding with no base, corresponding to the unit row.
type Root struct {
	Base
}

func (b *Root) Basis() []interface{} { return []interface{}{"root"} }

// Home retypes base to the scope's home table space, used when a path
// segment starts a fresh table traversal.
type Home struct {
	Base
	BaseBinding Binding
}

func (b *Home) Basis() []interface{} { return []interface{}{"home", b.BaseBinding} }

// Table attaches table as the direct product over base.
type Table struct {
	Base
	BaseBinding Binding
	Table       *catalog.Table
}

func (b *Table) Basis() []interface{} { return []interface{}{"table", b.BaseBinding, b.Table.Name} }

// Chain follows a sequence of joins from base.
type Chain struct {
	Base
	BaseBinding Binding
	Joins       []catalog.Join
}

func (b *Chain) Basis() []interface{} {
	basis := []interface{}{"chain", b.BaseBinding}
	for _, j := range b.Joins {
		basis = append(basis, j.OriginTable, j.TargetTable, j.OriginColumns, j.TargetColumns)
	}
	return basis
}

// Column references one column of base, optionally through a link (the
// identity element it is correlated by, for an identity expression).
type Column struct {
	Base
	BaseBinding Binding
	Column      string
	Link        Binding
}

func (b *Column) Basis() []interface{} { return []interface{}{"column", b.BaseBinding, b.Column, b.Link} }

// Sieve filters base by filter (corresponds to the `?` pipe).
type Sieve struct {
	Base
	BaseBinding Binding
	Filter      Binding
}

func (b *Sieve) Basis() []interface{} { return []interface{}{"sieve", b.BaseBinding, b.Filter} }

// Sort reorders (and optionally slices) base (`^`/`.limit`/`.offset` pipes).
type Sort struct {
	Base
	BaseBinding Binding
	Order       []Binding
	Limit       *int
	Offset      *int
}

func (b *Sort) Basis() []interface{} {
	basis := []interface{}{"sort", b.BaseBinding, b.Limit, b.Offset}
	for _, o := range b.Order {
		basis = append(basis, o)
	}
	return basis
}

// Quotient groups base by seed's kernels (`^` quotient operator applied to
// a plural expression: `table^{kernel}`).
type Quotient struct {
	Base
	BaseBinding Binding
	Seed        Binding
	Kernels     []Binding
}

func (b *Quotient) Basis() []interface{} {
	basis := []interface{}{"quotient", b.BaseBinding, b.Seed}
	for _, k := range b.Kernels {
		basis = append(basis, k)
	}
	return basis
}

// Kernel references the index'th kernel expression of a quotient.
type Kernel struct {
	Base
	BaseBinding Binding
	Quotient    Binding
	Index       int
}

func (b *Kernel) Basis() []interface{} { return []interface{}{"kernel", b.BaseBinding, b.Quotient, b.Index} }

// Complement re-expands a quotient back to one row per seed (the `complement()`
// function, used inside aggregate expressions evaluated over a quotient).
type Complement struct {
	Base
	BaseBinding Binding
	Quotient    Binding
}

func (b *Complement) Basis() []interface{} { return []interface{}{"complement", b.BaseBinding, b.Quotient} }

// Cover masks a compound seed expression as a single opaque unit of base
// (the implicit wrapping Route/Encode insert around a correlated subquery).
type Cover struct {
	Base
	BaseBinding Binding
	Seed        Binding
}

func (b *Cover) Basis() []interface{} { return []interface{}{"cover", b.BaseBinding, b.Seed} }

// Fork correlates base with a copy of itself re-evaluated on kernels (the
// `fork()` function).
type Fork struct {
	Base
	BaseBinding Binding
	Kernels     []Binding
}

func (b *Fork) Basis() []interface{} {
	basis := []interface{}{"fork", b.BaseBinding}
	for _, k := range b.Kernels {
		basis = append(basis, k)
	}
	return basis
}

// ImagePair is one "LHS(base) = RHS(seed)" correlation of an Attach/Locate.
type ImagePair struct {
	LHS Binding
	RHS Binding
}

// Attach parameterizes seed by equalities to base plus an optional extra
// condition (the `link()`/sibling-table correlation functions).
type Attach struct {
	Base
	BaseBinding Binding
	Seed        Binding
	Images      []ImagePair
	Condition   Binding
}

func (b *Attach) Basis() []interface{} {
	basis := []interface{}{"attach", b.BaseBinding, b.Seed}
	for _, im := range b.Images {
		basis = append(basis, im.LHS, im.RHS)
	}
	basis = append(basis, b.Condition)
	return basis
}

// OrderedBinding pairs an order expression with its direction (+1 asc, -1
// desc), mirroring what Route extracts from a Sort/Clip binding's `order`
// list at route time.
type OrderedBinding struct {
	Binding   Binding
	Direction int
}

// Clip windows a per-row slice of seed within base (the `.top(N)` family).
type Clip struct {
	Base
	BaseBinding Binding
	Seed        Binding
	Order       []OrderedBinding
	Limit       *int
	Offset      *int
}

func (b *Clip) Basis() []interface{} {
	basis := []interface{}{"clip", b.BaseBinding, b.Seed, b.Limit, b.Offset}
	for _, o := range b.Order {
		basis = append(basis, o.Binding, o.Direction)
	}
	return basis
}

// Locate is Attach specialised to identify a single row by identity (used
// by the `[id]` locator syntax).
type Locate struct {
	Base
	BaseBinding Binding
	Seed        Binding
	Images      []ImagePair
	Condition   Binding
}

func (b *Locate) Basis() []interface{} {
	basis := []interface{}{"locate", b.BaseBinding, b.Seed}
	for _, im := range b.Images {
		basis = append(basis, im.LHS, im.RHS)
	}
	basis = append(basis, b.Condition)
	return basis
}

// Literal is a constant value parsed from the query text.
type Literal struct {
	Base
	BaseBinding Binding
	Value       interface{}
	Dom         domain.Domain
}

func (b *Literal) Basis() []interface{} { return []interface{}{"literal", b.BaseBinding, b.Value, b.Dom} }

// Cast requests an explicit conversion of base to Dom.
type Cast struct {
	Base
	BaseBinding Binding
	Dom         domain.Domain
}

func (b *Cast) Basis() []interface{} { return []interface{}{"cast", b.BaseBinding, b.Dom} }

// Rescoping reattaches base to a different lexical scope (used when a
// `$reference` or calculated field is interpolated from an outer scope).
type Rescoping struct {
	Base
	BaseBinding Binding
	Scope       Binding
}

func (b *Rescoping) Basis() []interface{} { return []interface{}{"rescoping", b.BaseBinding, b.Scope} }

// Formula applies a named function/operator to its named argument bag;
// Sig is the function name as recognised by the fn catalog (package
// code resolves it to a concrete space.Signature during Route/Encode).
type Formula struct {
	Base
	BaseBinding Binding
	Sig         string
	Dom         domain.Domain
	Arguments   map[string][]Binding
}

func (b *Formula) Basis() []interface{} {
	basis := []interface{}{"formula", b.BaseBinding, b.Sig, b.Dom}
	for _, name := range sortedArgNames(b.Arguments) {
		basis = append(basis, name)
		for _, a := range b.Arguments[name] {
			basis = append(basis, a)
		}
	}
	return basis
}

func sortedArgNames(m map[string][]Binding) []string {
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

// Selection is a record/selector expression: an ordered list of named
// output elements (`{a, b, c}`).
type Selection struct {
	Base
	BaseBinding Binding
	Elements    []Binding
	Dom         domain.Domain
}

func (b *Selection) Basis() []interface{} {
	basis := []interface{}{"selection", b.BaseBinding, b.Dom}
	for _, e := range b.Elements {
		basis = append(basis, e)
	}
	return basis
}

// Identity is an identity expression: the tuple of elements that uniquely
// determine a row of base (`id(table)`).
type Identity struct {
	Base
	BaseBinding Binding
	Elements    []Binding
}

func (b *Identity) Basis() []interface{} {
	basis := []interface{}{"identity", b.BaseBinding}
	for _, e := range b.Elements {
		basis = append(basis, e)
	}
	return basis
}

// Collect marks the top-level output expression of one segment (a pipe
// command's final operand); Dom is the expected output domain.
type Collect struct {
	Base
	BaseBinding Binding
	Seed        Binding
	Dom         domain.Domain
}

func (b *Collect) Basis() []interface{} { return []interface{}{"collect", b.BaseBinding, b.Seed, b.Dom} }

// Wrapping and Decorate are transparent nodes the binder inserts to carry
// extra metadata (a title, a direction hint) without changing shape; Route
// skips straight through both to their base (spec.md §4.2 RouteWrapping).
type Wrapping struct {
	Base
	BaseBinding Binding
}

func (b *Wrapping) Basis() []interface{} { return []interface{}{"wrapping", b.BaseBinding} }

type Decorate struct {
	Base
	BaseBinding Binding
	Direction   int // 0 = none, +1/-1 = explicit sort direction decoration
}

func (b *Decorate) Basis() []interface{} { return []interface{}{"decorate", b.BaseBinding, b.Direction} }

// Direct extracts the explicit sort direction decoration of a binding, or
// 0 if it carries none -- mirrors original_source's lookup.direct() used by
// RouteSort/RouteClip to default undecorated order elements to ascending.
func Direct(b Binding) int {
	if d, ok := b.(*Decorate); ok {
		return d.Direction
	}
	return 0
}

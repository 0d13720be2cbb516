// Package flow is the routed, shape-normalised mirror of package binding
// (spec.md §4.2): one Flow class per Binding class, minus the two
// transparent Wrapping/Decorate nodes Route elides. Flow trees are the
// direct input to Encode/Relate (package encode), which builds the actual
// Space+Code graph.
//
// Grounded on original_source/.../core/tr/flow.py's class list, mirrored
// import-for-import from route.py's `from .flow import (...)` line.
package flow

import (
	"github.com/htscore/htscore/binding"
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
)

// Flow is one node of the routed tree. Origin points back at the binding
// it was routed from, so later passes can still recover a source Mark for
// error reporting without flow itself depending on package errs.
type Flow interface {
	Origin() binding.Binding
	Basis() []interface{}
}

type Base struct {
	Src binding.Binding
}

func (b Base) Origin() binding.Binding { return b.Src }

type Root struct {
	Base
}

func (f *Root) Basis() []interface{} { return []interface{}{"root"} }

type Home struct {
	Base
	BaseFlow Flow
}

func (f *Home) Basis() []interface{} { return []interface{}{"home", f.BaseFlow} }

type Table struct {
	Base
	BaseFlow Flow
	Table    *catalog.Table
}

func (f *Table) Basis() []interface{} { return []interface{}{"table", f.BaseFlow, f.Table.Name} }

type Chain struct {
	Base
	BaseFlow Flow
	Joins    []catalog.Join
}

func (f *Chain) Basis() []interface{} {
	basis := []interface{}{"chain", f.BaseFlow}
	for _, j := range f.Joins {
		basis = append(basis, j.OriginTable, j.TargetTable, j.OriginColumns, j.TargetColumns)
	}
	return basis
}

type Column struct {
	Base
	BaseFlow Flow
	Column   string
	Link     Flow
}

func (f *Column) Basis() []interface{} { return []interface{}{"column", f.BaseFlow, f.Column, f.Link} }

type Sieve struct {
	Base
	BaseFlow Flow
	Filter   Flow
}

func (f *Sieve) Basis() []interface{} { return []interface{}{"sieve", f.BaseFlow, f.Filter} }

// Ordered pairs an order code flow with its direction (+1 asc, -1 desc) --
// Route resolves the Decorate default here so nothing downstream needs to
// special-case an absent direction.
type Ordered struct {
	Flow      Flow
	Direction int
}

type Sort struct {
	Base
	BaseFlow Flow
	Order    []Ordered
	Limit    *int
	Offset   *int
}

func (f *Sort) Basis() []interface{} {
	basis := []interface{}{"sort", f.BaseFlow, f.Limit, f.Offset}
	for _, o := range f.Order {
		basis = append(basis, o.Flow, o.Direction)
	}
	return basis
}

type Quotient struct {
	Base
	BaseFlow Flow
	Seed     Flow
	Kernels  []Flow
}

func (f *Quotient) Basis() []interface{} {
	basis := []interface{}{"quotient", f.BaseFlow, f.Seed}
	for _, k := range f.Kernels {
		basis = append(basis, k)
	}
	return basis
}

type Kernel struct {
	Base
	BaseFlow Flow
	Quotient Flow
	Index    int
}

func (f *Kernel) Basis() []interface{} { return []interface{}{"kernel", f.BaseFlow, f.Quotient, f.Index} }

type Complement struct {
	Base
	BaseFlow Flow
	Quotient Flow
}

func (f *Complement) Basis() []interface{} { return []interface{}{"complement", f.BaseFlow, f.Quotient} }

type Cover struct {
	Base
	BaseFlow Flow
	Seed     Flow
}

func (f *Cover) Basis() []interface{} { return []interface{}{"cover", f.BaseFlow, f.Seed} }

type Fork struct {
	Base
	BaseFlow Flow
	Kernels  []Flow
}

func (f *Fork) Basis() []interface{} {
	basis := []interface{}{"fork", f.BaseFlow}
	for _, k := range f.Kernels {
		basis = append(basis, k)
	}
	return basis
}

// Image is a routed (LHS, RHS) correlation pair.
type Image struct {
	LHS Flow
	RHS Flow
}

type Attach struct {
	Base
	BaseFlow  Flow
	Seed      Flow
	Images    []Image
	Condition Flow
}

func (f *Attach) Basis() []interface{} {
	basis := []interface{}{"attach", f.BaseFlow, f.Seed}
	for _, im := range f.Images {
		basis = append(basis, im.LHS, im.RHS)
	}
	basis = append(basis, f.Condition)
	return basis
}

type Clip struct {
	Base
	BaseFlow Flow
	Seed     Flow
	Order    []Ordered
	Limit    *int
	Offset   *int
}

func (f *Clip) Basis() []interface{} {
	basis := []interface{}{"clip", f.BaseFlow, f.Seed, f.Limit, f.Offset}
	for _, o := range f.Order {
		basis = append(basis, o.Flow, o.Direction)
	}
	return basis
}

type Locate struct {
	Base
	BaseFlow  Flow
	Seed      Flow
	Images    []Image
	Condition Flow
}

func (f *Locate) Basis() []interface{} {
	basis := []interface{}{"locate", f.BaseFlow, f.Seed}
	for _, im := range f.Images {
		basis = append(basis, im.LHS, im.RHS)
	}
	basis = append(basis, f.Condition)
	return basis
}

type Literal struct {
	Base
	BaseFlow Flow
	Value    interface{}
	Dom      domain.Domain
}

func (f *Literal) Basis() []interface{} { return []interface{}{"literal", f.BaseFlow, f.Value, f.Dom} }

type Cast struct {
	Base
	BaseFlow Flow
	Dom      domain.Domain
}

func (f *Cast) Basis() []interface{} { return []interface{}{"cast", f.BaseFlow, f.Dom} }

type Rescoping struct {
	Base
	BaseFlow Flow
	Scope    Flow
}

func (f *Rescoping) Basis() []interface{} { return []interface{}{"rescoping", f.BaseFlow, f.Scope} }

type Formula struct {
	Base
	BaseFlow  Flow
	Sig       string
	Dom       domain.Domain
	Arguments map[string][]Flow
}

func (f *Formula) Basis() []interface{} {
	basis := []interface{}{"formula", f.BaseFlow, f.Sig, f.Dom}
	for _, name := range sortedArgNames(f.Arguments) {
		basis = append(basis, name)
		for _, a := range f.Arguments[name] {
			basis = append(basis, a)
		}
	}
	return basis
}

func sortedArgNames(m map[string][]Flow) []string {
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

type Selection struct {
	Base
	BaseFlow Flow
	Elements []Flow
	Dom      domain.Domain
}

func (f *Selection) Basis() []interface{} {
	basis := []interface{}{"selection", f.BaseFlow, f.Dom}
	for _, e := range f.Elements {
		basis = append(basis, e)
	}
	return basis
}

type Identity struct {
	Base
	BaseFlow Flow
	Elements []Flow
}

func (f *Identity) Basis() []interface{} {
	basis := []interface{}{"identity", f.BaseFlow}
	for _, e := range f.Elements {
		basis = append(basis, e)
	}
	return basis
}

// Collect is the routed top-level-segment marker; Unpack (package encode)
// dissects it into a Bundle of codes plus nested segments.
type Collect struct {
	Base
	BaseFlow Flow
	Seed     Flow
	Dom      domain.Domain
}

func (f *Collect) Basis() []interface{} { return []interface{}{"collect", f.BaseFlow, f.Seed, f.Dom} }

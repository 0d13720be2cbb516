package space

import (
	"reflect"

	"github.com/htscore/htscore/catalog"
)

func sameShape(a, b Space) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

// Root is the unique space with no base; it contains exactly one empty row.
type Root struct{}

func NewRoot() *Root { return &Root{} }

func (*Root) Base() Space             { return nil }
func (*Root) Family() Family          { return ScalarFamily }
func (*Root) IsContracting() bool     { return true }
func (*Root) IsExpanding() bool       { return true }
func (*Root) IsAxis() bool            { return true }
func (*Root) Basis() []interface{}    { return []interface{}{"root"} }

// Scalar re-types any base space as scalar family while spanning it (same
// rows, no new axis): spec.md §3.3 "Scalar(base)".
type Scalar struct {
	BaseSpace Space
}

func NewScalar(base Space) *Scalar { return &Scalar{BaseSpace: base} }

func (s *Scalar) Base() Space          { return s.BaseSpace }
func (*Scalar) Family() Family         { return ScalarFamily }
func (*Scalar) IsContracting() bool    { return true }
func (*Scalar) IsExpanding() bool      { return true }
func (*Scalar) IsAxis() bool           { return false }
func (s *Scalar) Basis() []interface{} { return []interface{}{"scalar", s.BaseSpace} }

// DirectTable is a full cross-product of a scalar base with a table's rows:
// spec.md §3.3 "DirectTable(base: scalar, table)".
type DirectTable struct {
	BaseSpace Space
	Table     *catalog.Table
}

func NewDirectTable(base Space, table *catalog.Table) *DirectTable {
	return &DirectTable{BaseSpace: base, Table: table}
}

func (s *DirectTable) Base() Space       { return s.BaseSpace }
func (*DirectTable) Family() Family      { return TableFamily }
func (*DirectTable) IsContracting() bool { return false }
func (*DirectTable) IsExpanding() bool { return true }
func (*DirectTable) IsAxis() bool        { return true }
func (s *DirectTable) Basis() []interface{} {
	return []interface{}{"direct-table", s.BaseSpace, s.Table.Name}
}
func (s *DirectTable) rebase(nb Space) Space { return &DirectTable{BaseSpace: nb, Table: s.Table} }

// FiberTable follows a join from a table(S) base to a table T: spec.md
// §3.3 "FiberTable(base: table(S), join: S->T)". Contracting/expanding is
// inherited from the join's cardinality.
type FiberTable struct {
	BaseSpace Space
	Join      catalog.Join
	Table     *catalog.Table
}

func NewFiberTable(base Space, join catalog.Join, table *catalog.Table) *FiberTable {
	return &FiberTable{BaseSpace: base, Join: join, Table: table}
}

func (s *FiberTable) Base() Space       { return s.BaseSpace }
func (*FiberTable) Family() Family      { return TableFamily }
func (s *FiberTable) IsContracting() bool { return s.Join.IsSingular }
func (s *FiberTable) IsExpanding() bool   { return s.Join.IsTotal }
func (*FiberTable) IsAxis() bool          { return true }
func (s *FiberTable) Basis() []interface{} {
	return []interface{}{"fiber-table", s.BaseSpace, s.Join.OriginTable, s.Join.TargetTable,
		s.Join.OriginColumns, s.Join.TargetColumns, s.Join.Direction}
}
func (s *FiberTable) rebase(nb Space) Space {
	return &FiberTable{BaseSpace: nb, Join: s.Join, Table: s.Table}
}

// Filtered restricts a base space by a predicate: spec.md §3.3
// "Filtered(base, predicate)". Contracting, never expanding.
type Filtered struct {
	BaseSpace Space
	Predicate Code
}

func NewFiltered(base Space, predicate Code) *Filtered {
	return &Filtered{BaseSpace: base, Predicate: predicate}
}

func (s *Filtered) Base() Space       { return s.BaseSpace }
func (s *Filtered) Family() Family    { return s.BaseSpace.Family() }
func (*Filtered) IsContracting() bool { return true }
func (*Filtered) IsExpanding() bool   { return false }
func (*Filtered) IsAxis() bool        { return false }
func (s *Filtered) Basis() []interface{} {
	return []interface{}{"filtered", s.BaseSpace, s.Predicate}
}

// Order is one (code, ascending?) pair of an explicit sort.
type Order struct {
	Code Code
	Asc  bool
}

// Ordered reorders (and optionally slices) a base space: spec.md §3.3
// "Ordered(base, order, limit?, offset?)". Contracting always; expanding
// iff both limit and offset are absent. Non-commutative when sliced.
type Ordered struct {
	BaseSpace Space
	OrderBy   []Order
	Limit     *int
	Offset    *int
}

func NewOrdered(base Space, order []Order, limit, offset *int) *Ordered {
	return &Ordered{BaseSpace: base, OrderBy: order, Limit: limit, Offset: offset}
}

func (s *Ordered) Base() Space    { return s.BaseSpace }
func (s *Ordered) Family() Family { return s.BaseSpace.Family() }
func (*Ordered) IsContracting() bool { return true }
func (s *Ordered) IsExpanding() bool { return s.Limit == nil && s.Offset == nil }
func (*Ordered) IsAxis() bool        { return false }
func (s *Ordered) Basis() []interface{} {
	basis := []interface{}{"ordered", s.BaseSpace, s.Limit, s.Offset}
	for _, o := range s.OrderBy {
		basis = append(basis, o.Code, o.Asc)
	}
	return basis
}
func (s *Ordered) IsSliced() bool { return s.Limit != nil || s.Offset != nil }

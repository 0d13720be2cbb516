// Package stitch implements spec.md §4.6: four small polymorphic adapters
// that Compile (package term) calls to connect terms representing related
// spaces -- arrange (explicit+implicit ordering), spread (the units a space
// natively exports), sew (parallel-join two terms on the same space), and
// tie (serial-join a space to its base).
//
// Grounded on original_source/.../core/tr/stitch.py's Arrange/Spread/Sew/Tie
// adapter families, one case per space class, distilled to the shapes
// spec.md §4.6 names explicitly.
package stitch

import (
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/ir"
	"github.com/htscore/htscore/space"
)

// Joint is one equality constraint serial- or parallel-joining two terms
// that both represent rows of the same underlying space.
type Joint struct {
	Lop, Rop space.Code
}

// Ordered is one (code, ascending?) element of an arranged order.
type Ordered struct {
	Code space.Code
	Asc  bool
}

// Arrange returns sp's ordering: explicit order when withStrong, trailed by
// the implicit weak order (a table's primary key columns, a quotient's
// kernel, then the base's own weak order) when withWeak. Duplicates (by
// structural equality) are discarded, keeping first occurrence.
func Arrange(sp space.Space, withStrong, withWeak bool) ([]Ordered, error) {
	var out []Ordered
	seen := map[uint64]bool{}
	add := func(c space.Code, asc bool) {
		h := ir.Hash(c)
		if seen[h] {
			return
		}
		seen[h] = true
		out = append(out, Ordered{Code: c, Asc: asc})
	}

	if withStrong {
		if o, ok := sp.(*space.Ordered); ok {
			for _, ord := range o.OrderBy {
				add(ord.Code, ord.Asc)
			}
		}
	}
	if withWeak {
		switch t := sp.(type) {
		case *space.DirectTable:
			for _, c := range weakTableOrder(t.BaseSpace, t.Table, sp) {
				add(c, true)
			}
		case *space.FiberTable:
			for _, c := range weakTableOrder(t.BaseSpace, t.Table, sp) {
				add(c, true)
			}
		case *space.Quotient:
			for _, k := range t.Kernels {
				add(k, true)
			}
		}
		if base := sp.Base(); base != nil {
			baseOrder, err := Arrange(base, false, true)
			if err != nil {
				return nil, err
			}
			for _, o := range baseOrder {
				add(o.Code, o.Asc)
			}
		}
	}
	return out, nil
}

func weakTableOrder(base space.Space, table *catalog.Table, sp space.Space) []space.Code {
	key, ok := table.PrimaryKey()
	if !ok {
		return nil
	}
	out := make([]space.Code, len(key.Columns))
	for i, col := range key.Columns {
		dom, _ := columnDomain(table, col)
		out[i] = space.NewColumnUnit(col, sp, dom)
	}
	return out
}

// Spread returns the units every term representing sp must be able to
// export: every column for a Table, the KernelUnits for a Quotient, the
// CoveringUnits of the seed's own spread for a covering space.
func Spread(sp space.Space) ([]space.Unit, error) {
	switch t := sp.(type) {
	case *space.DirectTable:
		return spreadTable(t.Table, sp), nil
	case *space.FiberTable:
		return spreadTable(t.Table, sp), nil
	case *space.Quotient:
		out := make([]space.Unit, len(t.Kernels))
		for i, k := range t.Kernels {
			out[i] = space.NewKernelUnit(k, t)
		}
		return out, nil
	case *space.Complement:
		seedUnits, err := Spread(t.BaseSpace.Seed)
		if err != nil {
			return nil, err
		}
		out := make([]space.Unit, len(seedUnits))
		for i, u := range seedUnits {
			out[i] = space.NewCoveringUnit(u, sp)
		}
		return out, nil
	case *space.Covering:
		seedUnits, err := Spread(t.Seed)
		if err != nil {
			return nil, err
		}
		out := make([]space.Unit, len(seedUnits))
		for i, u := range seedUnits {
			out[i] = space.NewCoveringUnit(u, sp)
		}
		return out, nil
	default:
		return nil, nil
	}
}

func spreadTable(table *catalog.Table, sp space.Space) []space.Unit {
	out := make([]space.Unit, len(table.Columns))
	for i, c := range table.Columns {
		out[i] = space.NewColumnUnit(c.Name, sp, c.Domain)
	}
	return out
}

// Sew returns the joints that parallel-join two terms both representing sp
// -- unique-key columns for a Table, tie(ground) for Quotient/Complement/
// Covering (since those already reconnect at their ground).
func Sew(sp space.Space) ([]Joint, error) {
	switch t := sp.(type) {
	case *space.DirectTable:
		return sewTable(t.Table, sp)
	case *space.FiberTable:
		return sewTable(t.Table, sp)
	case *space.Quotient:
		return Tie(t.Ground())
	case *space.Complement:
		return Tie(t.Ground())
	case *space.Covering:
		return Tie(t.Ground())
	default:
		return nil, nil
	}
}

func sewTable(table *catalog.Table, sp space.Space) ([]Joint, error) {
	key, ok := table.PrimaryKey()
	if !ok {
		return nil, errs.New(errs.ErrKeylessTable.New(table.Name))
	}
	out := make([]Joint, len(key.Columns))
	for i, col := range key.Columns {
		dom, _ := columnDomain(table, col)
		u := space.NewColumnUnit(col, sp, dom)
		out[i] = Joint{Lop: u, Rop: u}
	}
	return out, nil
}

// Tie returns the joints serial-joining sp to its base: FK columns for a
// FiberTable, covering units of tie(ground) for a covering space.
func Tie(sp space.Space) ([]Joint, error) {
	switch t := sp.(type) {
	case *space.FiberTable:
		return tieFiberTable(t), nil
	case *space.Quotient:
		return Tie(t.Ground())
	case *space.Complement:
		return Tie(t.Ground())
	case *space.Covering:
		return Tie(t.Ground())
	default:
		return nil, nil
	}
}

func tieFiberTable(t *space.FiberTable) []Joint {
	j := t.Join
	originCols, targetCols := j.OriginColumns, j.TargetColumns
	joints := make([]Joint, len(originCols))
	for i := range originCols {
		baseDom, _ := columnDomain(baseTable(t.BaseSpace), originCols[i])
		selfDom, _ := columnDomain(t.Table, targetCols[i])
		joints[i] = Joint{
			Lop: space.NewColumnUnit(originCols[i], t.BaseSpace, baseDom),
			Rop: space.NewColumnUnit(targetCols[i], t, selfDom),
		}
	}
	return joints
}

func baseTable(sp space.Space) *catalog.Table {
	switch t := sp.(type) {
	case *space.DirectTable:
		return t.Table
	case *space.FiberTable:
		return t.Table
	default:
		return nil
	}
}

func columnDomain(table *catalog.Table, name string) (domain.Domain, bool) {
	if table == nil {
		return nil, false
	}
	col, ok := table.Column(name)
	if !ok {
		return nil, false
	}
	return col.Domain, true
}

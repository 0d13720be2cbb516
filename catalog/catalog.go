// Package catalog models the frozen relational schema the compiler routes
// and compiles against (spec.md §3.1). A Catalog is immutable after
// introspection: nothing in this package mutates a Catalog once built, and
// nothing in the compiler core performs the introspection itself (that is
// an external collaborator per spec.md §1/§6).
package catalog

import "github.com/htscore/htscore/domain"

// Column is one column of a Table.
type Column struct {
	Name     string
	Domain   domain.Domain
	Nullable bool
}

// UniqueKey names a tuple of columns (by name, within the owning table)
// that is unique; Primary marks the table's primary key.
type UniqueKey struct {
	Columns []string
	Primary bool
}

// JoinDirection distinguishes a direct join (origin table owns the foreign
// key) from its reverse (target table is the one with the foreign key).
type JoinDirection int

const (
	// Direct: this table's columns reference another table's key.
	Direct JoinDirection = iota
	// Reverse: another table's columns reference this table's key.
	Reverse
)

// Join connects an origin table to a target table through a foreign key, in
// one of the two directions described by spec.md §3.1.
type Join struct {
	Direction     JoinDirection
	OriginTable   string
	OriginColumns []string
	TargetTable   string
	TargetColumns []string
	// IsSingular reports whether, for each origin row, at most one target
	// row converges — true for a Direct join onto a unique target key,
	// true for a Reverse join only when the matching foreign key is itself
	// unique. Space constructors (space.FiberTable) use this to derive
	// is_contracting/is_expanding (spec.md §3.3).
	IsSingular bool
	// IsTotal reports whether every origin row has at least one converging
	// target row (e.g. the origin columns are NOT NULL and the foreign key
	// is enforced).
	IsTotal bool
}

// Reversed returns the join seen from the other side: a Direct join's
// Reversed is the Reverse join from target back to origin, and vice versa.
func (j Join) Reversed() Join {
	dir := Reverse
	if j.Direction == Reverse {
		dir = Direct
	}
	return Join{
		Direction:     dir,
		OriginTable:   j.TargetTable,
		OriginColumns: j.TargetColumns,
		TargetTable:   j.OriginTable,
		TargetColumns: j.OriginColumns,
		IsSingular:    dir == Direct, // a reversed Reverse join is a Direct join onto a key; a reversed Direct join is treated as plural
		IsTotal:       j.IsTotal,
	}
}

// Table is one table of a Schema.
type Table struct {
	Name    string
	Columns []Column
	Keys    []UniqueKey
	// Joins lists every join with this table as origin (spec.md §3.1); the
	// reverse direction is discovered by Catalog.JoinsFrom.
	Joins []Join
}

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKey returns the table's primary unique key, if any. Stitch's sew()
// adapter (spec.md §4.6) fails with errs.ErrKeylessTable when a table
// lacking one must be joined.
func (t *Table) PrimaryKey() (UniqueKey, bool) {
	for _, k := range t.Keys {
		if k.Primary {
			return k, true
		}
	}
	return UniqueKey{}, false
}

// Schema is a named collection of tables.
type Schema struct {
	Name   string
	Tables map[string]*Table
}

// Catalog is the full frozen schema the compiler resolves names against.
type Catalog struct {
	Schemas map[string]*Schema
}

// Table looks up a table across every schema by unqualified name; returns
// the owning schema name too since Route needs it for qualified paths.
func (c *Catalog) Table(name string) (*Table, string, bool) {
	for schemaName, s := range c.Schemas {
		if t, ok := s.Tables[name]; ok {
			return t, schemaName, true
		}
	}
	return nil, "", false
}

// JoinsFrom returns every join (direct or reverse) whose origin is table t,
// i.e. every axis reachable from t in one FiberTable step.
func (c *Catalog) JoinsFrom(tableName string) []Join {
	t, _, ok := c.Table(tableName)
	if !ok {
		return nil
	}
	joins := append([]Join(nil), t.Joins...)
	for _, s := range c.Schemas {
		for _, other := range s.Tables {
			for _, j := range other.Joins {
				if j.TargetTable == tableName {
					joins = append(joins, j.Reversed())
				}
			}
		}
	}
	return joins
}

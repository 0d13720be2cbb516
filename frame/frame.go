// Package frame implements spec.md §3.6/§4.7: Assemble turns a compiled
// term.Term join-tree into a Frame tree -- the SQL-shaped plan this package's
// Serialize renders to literal SQL text, one SELECT per Frame.
//
// Grounded on original_source/.../core/tr/assemble.py's AssemblingState and
// tr/frame.py's Frame/Clause/Phrase hierarchy, distilled: the original's
// Gate{is_nullable, dispatches, routes} plus claim_set/claims_by_broker/
// phrase_by_claim three-table bookkeeping is replaced by evaluating each
// requested code directly against the term tree's own Routes() map (see
// assemble.go's Evaluate) -- term.Term already carries exactly the routing
// information the claim broker exists to recompute, so a second claim-
// dispatch layer would only duplicate it. This trades the original's lazy,
// shared-subexpression SELECT-list construction for one that evaluates each
// requested code independently; see DESIGN.md.
package frame

import "github.com/htscore/htscore/domain"

// Column is one SELECT-list entry: an expression paired with the alias
// other frames reference it by.
type Column struct {
	Alias string
	Expr  Phrase
}

// From is the FROM-clause contribution of one frame: a physical table, a
// nested frame used as a derived table, or a join of two such clauses.
type From interface{ isFrom() }

// TableFrom is a leaf FROM entry naming a catalog table.
type TableFrom struct {
	Table string
	Alias string
}

func (*TableFrom) isFrom() {}

// SubqueryFrom wraps a nested Frame as a derived table.
type SubqueryFrom struct {
	Frame *Frame
	Alias string
}

func (*SubqueryFrom) isFrom() {}

// JoinFrom combines two FROM clauses by an ON condition.
type JoinFrom struct {
	Left, Right From
	On          Phrase
	IsLeft      bool
}

func (*JoinFrom) isFrom() {}

// Frame is one SELECT-shaped unit of the assembled query (spec.md §3.6
// "Frame").
type Frame struct {
	Columns []Column
	From    From
	Where   Phrase
	GroupBy []Phrase
	Having  Phrase
	OrderBy []OrderItem
	Limit   *int
	Offset  *int
	// Correlated-subquery frames (from EmbeddingTerm) have no field of their
	// own: they contribute no FROM clause and appear inside Columns/Where as
	// a SubqueryPhrase.
}

// OrderItem is one ORDER BY entry.
type OrderItem struct {
	Expr Phrase
	Asc  bool
}

// Phrase is a SQL-level expression node (spec.md §3.6 "Phrase").
type Phrase interface {
	IsNullable() bool
}

// LiteralPhrase is a constant value.
type LiteralPhrase struct {
	Value    interface{}
	Dom      domain.Domain
	Nullable bool
}

func (p *LiteralPhrase) IsNullable() bool { return p.Nullable }

// ColumnPhrase references a physical column of an aliased FROM entry.
type ColumnPhrase struct {
	Alias    string
	Column   string
	Nullable bool
}

func (p *ColumnPhrase) IsNullable() bool { return p.Nullable }

// ReferencePhrase references a Column of a nested SubqueryFrom by alias.
type ReferencePhrase struct {
	Alias    string
	Column   string
	Nullable bool
}

func (p *ReferencePhrase) IsNullable() bool { return p.Nullable }

// FormulaPhrase is an operator/function application (spec.md §4.7
// nullability propagation: "cast nullability follows operand; null-tests
// and boolean quantifiers are never nullable; null_if is always nullable;
// if_null is nullable iff all arguments are; everything else is nullable
// if any argument is").
type FormulaPhrase struct {
	Op       string
	Args     []Phrase
	Nullable bool
}

func (p *FormulaPhrase) IsNullable() bool { return p.Nullable }

// AggregatePhrase is a set function application over a grouped frame.
type AggregatePhrase struct {
	Op       string
	Arg      Phrase
	Nullable bool
}

func (p *AggregatePhrase) IsNullable() bool { return p.Nullable }

// RowNumberPhrase is a ROW_NUMBER() OVER (...) window phrase.
type RowNumberPhrase struct {
	Partition []Phrase
	Asc, Desc []Phrase
}

func (*RowNumberPhrase) IsNullable() bool { return false }

// SubqueryPhrase embeds a correlated scalar subquery as a value expression
// (EmbeddingTerm/CorrelationTerm).
type SubqueryPhrase struct {
	Frame    *Frame
	Nullable bool
}

func (p *SubqueryPhrase) IsNullable() bool { return p.Nullable }

// TruePhrase is the `true` placeholder spec.md §4.7 emits for an otherwise
// empty SELECT list or GROUP BY clause.
type TruePhrase struct{}

func (TruePhrase) IsNullable() bool { return false }

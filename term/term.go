// Package term implements spec.md §3.5/§4.5: Compile turns a Space+Code
// graph into a join-tree of Terms, each a node of a relational algebra with
// a unique integer tag, a baseline (the leftmost axis of its space it
// actually exports), and a routing table from unit/space to the descendant
// term that can evaluate it.
//
// Grounded on original_source/.../core/tr/term.py's Term class hierarchy
// (ScalarTerm/TableTerm/FilterTerm/JoinTerm/ProjectionTerm/OrderTerm/
// WrapperTerm/PermanentTerm/CorrelationTerm/EmbeddingTerm/SegmentTerm) and
// tr/compile.py's CompilingState/Compile/Inject adapters.
package term

import (
	"github.com/htscore/htscore/ir"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/stitch"
)

// Term is the common interface of every join-tree node.
type Term interface {
	Tag() int
	Space() space.Space
	Baseline() space.Space
	// Routes maps a unit or a space (by RouteKey, its structural hash --
	// since a Unit is typically freshly constructed at each lookup site,
	// keying by pointer identity would make every independently-built-but-
	// equal unit miss its own route) to the tag of the descendant term (or
	// this term itself) able to export it.
	Routes() map[uint64]int
}

// RouteKey computes the map key Routes() is indexed by, for any value
// implementing the IR's Basis()/structural-hash contract -- every
// space.Unit and every space.Space qualifies (spec.md §3.5's "routes: a map
// from unit (or space) to the tag of the descendant term").
func RouteKey(x interface{}) uint64 {
	n, ok := x.(ir.Node)
	if !ok {
		panic("term: RouteKey requires an ir.Node-shaped value (a space.Unit or space.Space)")
	}
	return ir.Hash(n)
}

type base struct {
	tag      int
	sp       space.Space
	baseline space.Space
	routes   map[uint64]int
}

func (b *base) Tag() int              { return b.tag }
func (b *base) Space() space.Space    { return b.sp }
func (b *base) Baseline() space.Space { return b.baseline }
func (b *base) Routes() map[uint64]int { return b.routes }

// ScalarTerm realizes Root/Scalar at baseline: a single unjoined row.
type ScalarTerm struct{ base }

// TableTerm realizes a Table space at baseline, routing every column of
// the table.
type TableTerm struct {
	base
	Table string
}

// FilterTerm wraps Kid, restricting it by Predicate.
type FilterTerm struct {
	base
	Kid       Term
	Predicate space.Code
}

// JoinTerm joins LKid (the trunk) to RKid (the shoot) on Joints. IsRight is
// carried in the type per Open Question (b) but Compile never sets it --
// every join this compiler builds attaches its shoot on the right, so a
// genuinely right-outer join never arises; the field exists so a future
// planner pass (e.g. join reordering) has somewhere to record the decision
// without a type change.
type JoinTerm struct {
	base
	LKid, RKid   Term
	Joints       []stitch.Joint
	IsLeft       bool
	IsRight      bool
}

// ProjectionTerm groups Kid by Kernels.
type ProjectionTerm struct {
	base
	Kid     Term
	Kernels []space.Code
}

// OrderTerm reorders (and optionally slices) Kid.
type OrderTerm struct {
	base
	Kid    Term
	Order  []stitch.Ordered
	Limit  *int
	Offset *int
}

// WrapperTerm is a transparent pass-through introduced when a space at
// baseline needs no further structure but Compile's recursion still wants
// a distinct tag to attach routes to.
type WrapperTerm struct {
	base
	Kid Term
}

// PermanentTerm marks a term Inject has decided must survive Assemble even
// if nothing routes through it directly (e.g. a correlated shoot kept
// alive only for its correlation equalities).
type PermanentTerm struct {
	base
	Kid Term
}

// CorrelationTerm wraps a plural shoot compiled for a CorrelatedUnit,
// replacing its baseline ties with CorrelationCode(lop) = rop equalities
// so Assemble emits it as a correlated subquery rather than a join.
type CorrelationTerm struct {
	base
	Kid          Term
	Correlations []stitch.Joint
}

// EmbeddingTerm attaches RKid (a CorrelationTerm) to LKid as an embedded
// scalar subquery expression rather than a joined relation.
type EmbeddingTerm struct {
	base
	LKid, RKid   Term
	Correlations []stitch.Joint
}

// SegmentTerm is the root of one compiled query segment: the codes it
// exports, the superkeys/keys identifying its rows for a dependent segment
// to correlate against, and any nested dependent segments.
type SegmentTerm struct {
	base
	Kid        Term
	Codes      []space.Code
	Superkeys  []space.Code
	Keys       []space.Code
	Dependents []*SegmentTerm
}

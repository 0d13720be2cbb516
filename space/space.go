// Package space implements the space lattice (spec.md §3.3): the relational
// data-flow algebra every query compiles into before Compile turns it into
// a join tree. A Space is a lazy sequence-of-sequences over its base; every
// constructor below corresponds 1:1 to a bullet in spec.md §3.3.
//
// Mirrors the teacher's sql/plan node tree (sql.Node) in spirit -- a small,
// closed set of immutable node types walked by later passes -- but the
// operation set and the axial/inflation machinery are specific to this
// algebra and are grounded on original_source/src/htsql/core/tr/space.py.
package space

import "github.com/htscore/htscore/ir"

// Family classifies the values a space produces.
type Family int

const (
	// ScalarFamily spaces produce elementary values.
	ScalarFamily Family = iota
	// TableFamily spaces produce rows of a named table.
	TableFamily
	// QuotientFamily spaces produce distinct kernel tuples.
	QuotientFamily
)

// Space is the common interface of every node in the lattice.
type Space interface {
	ir.Node
	// Base is the input space this node operates on; nil only for Root.
	Base() Space
	Family() Family
	// IsContracting reports that the space never produces more than one
	// row per base row.
	IsContracting() bool
	// IsExpanding reports that the space always produces at least one row
	// per base row.
	IsExpanding() bool
	// IsAxis reports whether elements of this space need not coincide with
	// their origin in Base (spec.md §3.3 "axis / axial space").
	IsAxis() bool
}

// Hash is the structural hash of a space, used by every later pass's
// per-query caches and by the Spans/Dominates/Conforms relations below to
// detect a shared inflated ancestor.
func Hash(s Space) uint64 { return ir.Hash(s) }

// Equal reports structural (by-value) equality of two spaces.
func Equal(a, b Space) bool { return ir.Equal(a, b) }

// Chain walks s and its ancestors down to (and including) Root.
func Chain(s Space) []Space {
	var out []Space
	for s != nil {
		out = append(out, s)
		s = s.Base()
	}
	return out
}

// Concludes reports that b is an ancestor of a along base links (spec.md
// §3.3 "A concludes B").
func Concludes(a, b Space) bool {
	for _, s := range Chain(a) {
		if Equal(s, b) {
			return true
		}
	}
	return false
}

// Inflation returns the canonical axial-only form of s: every non-axial
// operation (Scalar, Filtered, Ordered) in s's ancestor chain is erased,
// while axial operations are kept, each re-based onto the inflation of its
// own base. Inflation is idempotent: Inflation(Inflation(s)) == Inflation(s).
func Inflation(s Space) Space {
	if s == nil {
		return nil
	}
	if !s.IsAxis() {
		return Inflation(s.Base())
	}
	rb, ok := s.(rebaser)
	if !ok {
		// Root has no base to rewrite.
		return s
	}
	newBase := Inflation(s.Base())
	if Equal(newBase, s.Base()) {
		return s
	}
	return rb.rebase(newBase)
}

// rebaser is implemented by every axial space so Inflation can relink an
// axial node onto an already-inflated base without touching its own
// defining fields.
type rebaser interface {
	rebase(newBase Space) Space
}

// IsInflated reports whether s is already in its own canonical axial form.
func IsInflated(s Space) bool { return Equal(s, Inflation(s)) }

// commonInflatedAncestor reports whether a and b have a common inflated ancestor,
// returning that ancestor. This implements spec.md §3.3's "<->" relation:
// walk up each chain's inflation until the chains meet.
func commonInflatedAncestor(a, b Space) (Space, bool) {
	ca := Chain(Inflation(a))
	cb := Chain(Inflation(b))
	for _, x := range ca {
		for _, y := range cb {
			if Equal(Inflation(x), Inflation(y)) {
				return Inflation(x), true
			}
		}
	}
	return nil, false
}

// Spans reports "A spans B": every row of A converges to at most one row
// of B (spec.md §3.3). Computed structurally: A spans B iff B's inflation
// is an ancestor of A's inflation's chain and every axial step from that
// common ancestor down to B is contracting, OR A and B share the exact
// same inflation (conformance implies spanning both ways).
func Spans(a, b Space) bool {
	ancestor, ok := commonInflatedAncestor(a, b)
	if !ok {
		return false
	}
	// B must be reachable from the ancestor by a chain that never expands
	// past more than one row relative to the ancestor (i.e. B, seen from
	// the ancestor, contracts); A must reach the ancestor at all (always
	// true by construction).
	return chainContracts(Inflation(b), ancestor)
}

// Dominates reports "A dominates B": A spans B and every row of B has a
// converging row in A (spec.md §3.3).
func Dominates(a, b Space) bool {
	if !Spans(a, b) {
		return false
	}
	ancestor, ok := commonInflatedAncestor(a, b)
	if !ok {
		return false
	}
	// Inflation erases filters and slices, so check them on A's own chain:
	// a step of A that can drop rows covers B's rows only if B carries it too.
	for _, s := range Chain(a) {
		if !s.IsAxis() && !s.IsExpanding() && !Concludes(b, s) {
			return false
		}
	}
	return chainExpands(Inflation(a), ancestor)
}

// Conforms reports "A conforms B": A dominates B and B dominates A.
func Conforms(a, b Space) bool {
	return Dominates(a, b) && Dominates(b, a)
}

// Resembles reports "A resembles B": same operation, possibly different
// bases -- used by recombine to decide whether two covering spaces were
// built from the same seed shape. Two *Covering spaces only resemble each
// other when their Kind also matches: a Moniker does not resemble a
// Clipped just because both are *Covering values.
func Resembles(a, b Space) bool {
	if !sameShape(a, b) {
		return false
	}
	ca, aOK := a.(*Covering)
	cb, bOK := b.(*Covering)
	if aOK != bOK {
		return false
	}
	if aOK && ca.Kind != cb.Kind {
		return false
	}
	return true
}

// chainContracts reports whether every step from ancestor down to s is
// contracting (s never produces more rows per row of ancestor than 1).
func chainContracts(s, ancestor Space) bool {
	for cur := s; cur != nil && !Equal(cur, ancestor); cur = cur.Base() {
		if !cur.IsContracting() {
			return false
		}
	}
	return true
}

// chainExpands reports whether every step from ancestor down to s is
// expanding.
func chainExpands(s, ancestor Space) bool {
	for cur := s; cur != nil && !Equal(cur, ancestor); cur = cur.Base() {
		if !cur.IsExpanding() {
			return false
		}
	}
	return true
}

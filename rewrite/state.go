// Package rewrite implements spec.md §4.4: four passes over the Space/Code
// graph Encode produced, run once per compiled segment, that turn a
// structurally correct but redundant tree into the leanest tree Compile can
// still translate faithfully (dropping filters the mask already enforces,
// folding string/substring functions into their SQL primitives, and
// grouping scalar/aggregate units so Term/Frame can share one subquery
// between companions instead of repeating it).
//
// Grounded on original_source/.../core/tr/rewrite.py's RewritingState and
// its four adapter families (RewriteBySignature/RewriteFilteredSpace,
// UnmaskBySpace, CollectBySpace/CollectByCode, RecombineScalar/
// RecombineAggregate) -- distilled to the rules spec.md §4.4 names
// explicitly (documented per-rule in DESIGN.md) rather than a line-by-line
// port of the full per-class catalog.
package rewrite

import "github.com/htscore/htscore/space"

// State carries what all four passes share: the segment's root space, a
// mask stack holding that root, plus the running Unit collection Recombine
// groups.
//
// The original keeps a single mutable `mask` attribute pushed/popped around
// recursive calls. Here Unmask takes the space already enforced by an
// ancestor as an explicit parameter instead (so a nested Filtered/ScalarUnit
// that re-checks the same condition can be elided); no pass calls
// pushMask/popMask, so Mask() always returns Root.
type State struct {
	Root       space.Space
	maskStack  []space.Space
	Collection []space.Unit
}

// NewState starts a rewrite pass rooted at root, with root itself as the
// initial mask (nothing has been enforced yet).
func NewState(root space.Space) *State {
	return &State{Root: root, maskStack: []space.Space{root}}
}

// Mask is the space currently enforced by an ancestor node.
func (s *State) Mask() space.Space { return s.maskStack[len(s.maskStack)-1] }

func (s *State) pushMask(m space.Space) { s.maskStack = append(s.maskStack, m) }

func (s *State) popMask() { s.maskStack = s.maskStack[:len(s.maskStack)-1] }

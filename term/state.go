package term

import "github.com/htscore/htscore/space"

// State is CompilingState (spec.md §4.5): the per-compilation tag counter
// plus the baseline/superspace stacks Compile pushes and pops as it
// recurses, and a cache keyed by (space, baseline) so re-compiling the same
// pair (common once a space is shared by several units) is O(1) after the
// first call.
//
// Grounded on original_source/.../core/tr/compile.py's CompilingState,
// distilled to the fields spec.md §4.5 names explicitly (next_tag, root,
// baseline_stack, superspace_stack); the per-pair term cache is an addition
// this Go port needs because, unlike the original's single mutable `state`
// threaded by convention, nothing here stops two independent call sites
// from asking for the same (space, baseline) term.
type State struct {
	// Root is the scalar space Compile treats as the outermost baseline --
	// ordinarily space.NewRoot(), threaded in explicitly rather than as a
	// package-level global per spec.md Design Notes §9 ("shared mutable
	// global context ... replace with an explicit context object").
	Root space.Space

	nextTag int

	baselineStack   []space.Space
	superspaceStack []space.Space

	cache map[cacheKey]Term
}

type cacheKey struct {
	sp, baseline uint64
}

// NewState starts a fresh compilation rooted at root (ordinarily
// space.NewRoot()).
func NewState(root space.Space) *State {
	return &State{
		Root:          root,
		baselineStack: []space.Space{root},
		cache:         map[cacheKey]Term{},
	}
}

func (s *State) tag() int {
	s.nextTag++
	return s.nextTag
}

// Baseline is the leftmost axis the term Compile is currently building must
// export.
func (s *State) Baseline() space.Space { return s.baselineStack[len(s.baselineStack)-1] }

func (s *State) pushBaseline(b space.Space) { s.baselineStack = append(s.baselineStack, b) }
func (s *State) popBaseline() {
	s.baselineStack = s.baselineStack[:len(s.baselineStack)-1]
}

func (s *State) pushSuperspace(sp space.Space) {
	s.superspaceStack = append(s.superspaceStack, sp)
}
func (s *State) popSuperspace() {
	s.superspaceStack = s.superspaceStack[:len(s.superspaceStack)-1]
}

// Superspace is the enclosing segment's own space, consulted by
// CompileSegment when compiling a nested (dependent) segment so its keys
// chain back through every enclosing segment (spec.md §4.5 "Segments ...
// nest via the superspace_stack").
func (s *State) Superspace() space.Space {
	if len(s.superspaceStack) == 0 {
		return nil
	}
	return s.superspaceStack[len(s.superspaceStack)-1]
}

func (s *State) cacheGet(sp, baseline space.Space) (Term, bool) {
	t, ok := s.cache[cacheKey{space.Hash(sp), space.Hash(baseline)}]
	return t, ok
}

func (s *State) cachePut(sp, baseline space.Space, t Term) {
	s.cache[cacheKey{space.Hash(sp), space.Hash(baseline)}] = t
}

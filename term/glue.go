package term

import (
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/stitch"
)

// glueSpaces returns the joints connecting a shoot term (representing
// shootSpace) back to a trunk term (representing trunkSpace): spec.md
// §4.5's `glue_spaces(trunk, baseline_t, shoot, baseline_s)`. When
// shootSpace's inflation is already an axis of trunkSpace's own ancestor
// chain, Sew along that shared axis links the two terms as two views of
// the same rows; otherwise Tie walks shootSpace back to its own base,
// which is how a genuinely new axis (a join to another space entirely)
// reconnects.
func glueSpaces(trunkSpace, shootSpace space.Space) ([]stitch.Joint, error) {
	if axis, ok := sharedAxis(trunkSpace, shootSpace); ok {
		return stitch.Sew(axis)
	}
	return stitch.Tie(shootSpace)
}

// sharedAxis reports the common inflated ancestor of trunkSpace and
// shootSpace when shootSpace's inflation is itself found somewhere in
// trunkSpace's ancestor chain (spec.md §4.5: "when shoot_baseline is an
// axis of the trunk, use sew(axis) along shared axes").
func sharedAxis(trunkSpace, shootSpace space.Space) (space.Space, bool) {
	shootInfl := space.Inflation(shootSpace)
	for cur := trunkSpace; cur != nil; cur = cur.Base() {
		if space.Equal(space.Inflation(cur), shootInfl) {
			return shootInfl, true
		}
	}
	return nil, false
}

// joinTerms wraps trunk and shoot into a JoinTerm, deciding inner vs. left
// outer on whether shoot's space dominates the closest ancestor of shoot's
// space that trunk's space spans (spec.md §4.5 `join_terms`): if every row
// of that shared ancestor has a converging shoot row, the join can never drop a
// trunk row and stays inner; otherwise rows of trunk with no match in shoot
// must be preserved, so the join is left outer.
func (s *State) joinTerms(trunk, shoot Term, extraRoutes map[uint64]int) (Term, error) {
	joints, err := glueSpaces(trunk.Space(), shoot.Baseline())
	if err != nil {
		return nil, err
	}
	shoot, err = s.injectJoints(shoot, joints)
	if err != nil {
		return nil, err
	}
	anchor := space.ClosestSpannedAncestor(shoot.Space(), trunk.Space())
	isLeft := anchor == nil || !space.Dominates(shoot.Space(), anchor)

	routes := map[uint64]int{}
	for k, v := range trunk.Routes() {
		routes[k] = v
	}
	for k, v := range shoot.Routes() {
		routes[k] = v
	}
	for k, v := range extraRoutes {
		routes[k] = v
	}
	tag := s.tag()
	return &JoinTerm{
		base:    base{tag: tag, sp: trunk.Space(), baseline: trunk.Baseline(), routes: routes},
		LKid:    trunk,
		RKid:    shoot,
		Joints:  joints,
		IsLeft:  isLeft,
		IsRight: false, // Open Question (b): never set true, see spec.md §9(b).
	}, nil
}

// injectJoints makes sure every unit appearing in joints' rop side is
// routed by term, growing it with Inject if not (spec.md §4.5's
// `inject_joints`, called before a term is used as one side of a join).
func (s *State) injectJoints(t Term, joints []stitch.Joint) (Term, error) {
	var codes []space.Code
	for _, j := range joints {
		codes = append(codes, j.Rop)
	}
	return s.Inject(t, codes)
}

// injectJointsLop is injectJoints' mirror for the lop side: it makes sure
// every unit appearing in joints' lop side is routed by term. Used when
// the base term on the trunk side of a tie -- not the freshly compiled
// shoot -- is the one that must export the join's own-side columns.
func (s *State) injectJointsLop(t Term, joints []stitch.Joint) (Term, error) {
	var codes []space.Code
	for _, j := range joints {
		codes = append(codes, j.Lop)
	}
	return s.Inject(t, codes)
}

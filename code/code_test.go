package code_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/space"
)

func TestNewEqualsBuildsBooleanFormula(t *testing.T) {
	lit := space.NewLiteral("x", domain.Text{})
	f := code.NewEquals(lit, lit)
	require.True(t, domain.Equal(domain.Boolean{}, f.Domain()))
	require.Same(t, lit, f.Arg("lop"))
	require.Same(t, lit, f.Arg("rop"))
}

func TestEqualDominatesItselfButNotSiblingOrdering(t *testing.T) {
	lit := space.NewLiteral(1, domain.Integer{})
	eq := code.NewEquals(lit, lit)
	ordering := code.NewOrdering(code.LessThan, lit, lit)
	require.True(t, eq.Sig.Dominates(eq.Sig))
	require.False(t, eq.Sig.Dominates(ordering.Sig))
	// Both equal and ordering generalize to the same "comparable" root, but
	// neither dominates the other -- siblings in the lattice, not ancestors.
}

func TestAsSearchRecognisesSearchFormula(t *testing.T) {
	op := space.NewLiteral("hello", domain.Text{})
	term := space.NewLiteral("ell", domain.Text{})
	f := code.NewSearch(op, term)

	gotOp, gotTerm, ok := code.AsSearch(f)
	require.True(t, ok)
	require.Same(t, op, gotOp)
	require.Same(t, term, gotTerm)

	_, _, ok = code.AsSearch(code.NewLength(op))
	require.False(t, ok)
}

func TestAsHeadTailSliceAtCoversTheWholeFamily(t *testing.T) {
	op := space.NewLiteral("hello", domain.Text{})
	cases := []struct {
		name string
		c    *space.Formula
		kind string
	}{
		{"head", code.NewHead(op, nil), "head"},
		{"tail", code.NewTail(op, nil), "tail"},
		{"slice", code.NewSlice(op, nil, nil), "slice"},
		{"at", code.NewAt(op, space.NewLiteral(1, domain.Integer{}), nil), "at"},
	}
	for _, c := range cases {
		kind, _, ok := code.AsHeadTailSliceAt(c.c)
		require.True(t, ok, c.name)
		require.Equal(t, c.kind, kind)
	}
}

func TestAsQuantifierDistinguishesExistsFromEvery(t *testing.T) {
	op := space.NewLiteral(true, domain.Boolean{})

	gotOp, isEvery, ok := code.AsQuantifier(code.NewExists(op))
	require.True(t, ok)
	require.False(t, isEvery)
	require.Same(t, op, gotOp)

	_, isEvery, ok = code.AsQuantifier(code.NewEvery(op))
	require.True(t, ok)
	require.True(t, isEvery)
}

func TestAsAggregateNamesEachKind(t *testing.T) {
	op := space.NewLiteral(1, domain.Integer{})
	for _, tc := range []struct {
		f    *space.Formula
		name string
	}{
		{code.NewCount(domain.Integer{}, op), "count"},
		{code.NewSum(domain.Integer{}, op), "sum"},
		{code.NewMin(domain.Integer{}, op), "min"},
		{code.NewMax(domain.Integer{}, op), "max"},
		{code.NewAvg(domain.Float{}, op), "avg"},
	} {
		name, gotOp, ok := code.AsAggregate(tc.f)
		require.True(t, ok)
		require.Equal(t, tc.name, name)
		require.Same(t, op, gotOp)
	}
}

func TestBuildDispatchesByNameAndRejectsUnknown(t *testing.T) {
	lop := space.NewLiteral(1, domain.Integer{})
	rop := space.NewLiteral(2, domain.Integer{})

	f, err := code.Build("add", domain.Integer{}, map[string][]space.Code{"lop": {lop}, "rop": {rop}})
	require.NoError(t, err)
	require.True(t, domain.Equal(domain.Integer{}, f.Domain()))

	_, err = code.Build("no-such-function", domain.Integer{}, nil)
	require.Error(t, err)
	require.True(t, errs.ErrNameNotFound.Is(err))
}

func TestIsAndUnwrapsOperandsAndRejectsOtherFormulas(t *testing.T) {
	p := space.NewLiteral(true, domain.Boolean{})
	q := space.NewLiteral(false, domain.Boolean{})
	and := code.NewAnd(p, q)

	ops, ok := code.IsAnd(and)
	require.True(t, ok)
	require.Len(t, ops, 2)

	_, ok = code.IsAnd(code.NewOr(p, q))
	require.False(t, ok)
}

func TestNewIfCarriesPredicatesConsequentsAndAlternative(t *testing.T) {
	pred := space.NewLiteral(true, domain.Boolean{})
	cons := space.NewLiteral("yes", domain.Text{})
	alt := space.NewLiteral("no", domain.Text{})
	f := code.NewIf(domain.Text{}, []space.Code{pred}, []space.Code{cons}, alt)

	gotPreds, gotCons, gotAlt, ok := code.AsIf(f)
	require.True(t, ok)
	require.Equal(t, []space.Code{pred}, gotPreds)
	require.Equal(t, []space.Code{cons}, gotCons)
	require.Same(t, alt, gotAlt)
}

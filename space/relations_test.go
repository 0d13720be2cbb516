package space_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/space"
)

func schoolTable() *catalog.Table {
	return &catalog.Table{
		Name:    "school",
		Columns: []catalog.Column{{Name: "code", Domain: domain.Text{}}},
		Keys:    []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	}
}

func departmentJoin() catalog.Join {
	return catalog.Join{
		Direction: catalog.Direct, OriginTable: "department", OriginColumns: []string{"school_code"},
		TargetTable: "school", TargetColumns: []string{"code"}, IsSingular: true, IsTotal: false,
	}
}

func TestScalarSpansButDoesNotIntroduceAxis(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	sc := space.NewScalar(tbl)

	require.False(t, sc.IsAxis())
	require.True(t, space.Spans(sc, tbl))
	require.True(t, space.Conforms(sc, tbl))
}

func TestFilteredSpansItsBaseButDoesNotDominateIt(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	pred := space.NewScalarUnit(space.NewLiteral(true, domain.Boolean{}), tbl)
	filtered := space.NewFiltered(tbl, pred)

	// Filtered contracts relative to its base: every row of Filtered has at
	// most one converging row in Table (itself), so Filtered spans Table.
	require.True(t, space.Spans(filtered, tbl))
	// But Filtered does not dominate Table (Filtered may drop rows), so they
	// don't conform.
	require.False(t, space.Conforms(filtered, tbl))
}

func TestFiberTableCardinalityDrivesSpanning(t *testing.T) {
	root := space.NewRoot()
	dept := &catalog.Table{
		Name:    "department",
		Columns: []catalog.Column{{Name: "code", Domain: domain.Text{}}, {Name: "school_code", Domain: domain.Text{}}},
		Keys:    []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	}
	deptSpace := space.NewDirectTable(root, dept)
	fiber := space.NewFiberTable(deptSpace, departmentJoin(), schoolTable())

	// The fiber spans its own base whatever the join's cardinality.
	require.True(t, space.Spans(fiber, deptSpace))
	// A singular join: each department row converges to at most one school
	// row, so the base spans the fiber as well.
	require.True(t, space.Spans(deptSpace, fiber))
}

func TestConcludesIsAncestry(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	pred := space.NewScalarUnit(space.NewLiteral(true, domain.Boolean{}), tbl)
	filtered := space.NewFiltered(tbl, pred)

	require.True(t, space.Concludes(filtered, tbl))
	require.True(t, space.Concludes(filtered, root))
	require.True(t, space.Concludes(filtered, filtered))
	require.False(t, space.Concludes(tbl, filtered))
}

func TestInflationErasesNonAxialOpsAndIsIdempotent(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	pred := space.NewScalarUnit(space.NewLiteral(true, domain.Boolean{}), tbl)
	filtered := space.NewFiltered(tbl, pred)
	ordered := space.NewOrdered(filtered, nil, nil, nil)

	require.True(t, space.Equal(space.Inflation(ordered), tbl))
	require.True(t, space.IsInflated(tbl))
	require.False(t, space.IsInflated(ordered))
	require.True(t, space.Equal(space.Inflation(space.Inflation(ordered)), space.Inflation(ordered)))
}

func TestResemblesComparesShapeIgnoringBase(t *testing.T) {
	rootA := space.NewRoot()
	rootB := space.NewRoot()
	tblA := space.NewDirectTable(rootA, schoolTable())
	tblB := space.NewDirectTable(rootB, &catalog.Table{Name: "other", Keys: []catalog.UniqueKey{{Columns: []string{"id"}, Primary: true}}})

	require.True(t, space.Resembles(tblA, tblB))
	require.False(t, space.Resembles(tblA, rootA))
}

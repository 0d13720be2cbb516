package term_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/encode"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/term"
)

func schoolTable() *catalog.Table {
	return &catalog.Table{
		Name: "school",
		Columns: []catalog.Column{
			{Name: "code", Domain: domain.Text{}},
			{Name: "name", Domain: domain.Text{}},
		},
		Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	}
}

// TestCompileTableAtBaselineRoutesEveryColumn exercises spec.md §4.5's
// "Table: at baseline -> TableTerm" case and checks every spread column is
// routed directly to that one term.
func TestCompileTableAtBaselineRoutesEveryColumn(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	st := term.NewState(root)
	trm, err := st.CompileAt(tbl, tbl)
	require.NoError(t, err)
	tableTerm, ok := trm.(*term.TableTerm)
	require.True(t, ok)
	require.Equal(t, "school", tableTerm.Table)

	code := space.NewColumnUnit("code", tbl, domain.Text{})
	require.Equal(t, tableTerm.Tag(), tableTerm.Routes()[term.RouteKey(code)])
}

// TestCompileFiltersInjectsThePredicateIntoTheParent checks a Filtered space
// compiles to a FilterTerm wrapping its base table's term and carrying the
// Filtered space's own predicate.
func TestCompileFiltersInjectsThePredicateIntoTheParent(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	pred := space.NewLiteral(true, domain.Boolean{})
	filtered := space.NewFiltered(tbl, pred)

	st := term.NewState(root)
	trm, err := st.CompileAt(filtered, tbl)
	require.NoError(t, err)
	filterTerm, ok := trm.(*term.FilterTerm)
	require.True(t, ok)
	require.True(t, space.Equal(pred, filterTerm.Predicate))
}

// TestCompileAssignsEveryTermADistinctTag is the tag-uniqueness property:
// every node built while compiling a non-trivial space carries its own tag,
// with no collisions across the whole join tree.
func TestCompileAssignsEveryTermADistinctTag(t *testing.T) {
	root := space.NewRoot()
	school := space.NewDirectTable(root, schoolTable())
	dept := &catalog.Table{
		Name: "department",
		Columns: []catalog.Column{
			{Name: "code", Domain: domain.Text{}},
			{Name: "school_code", Domain: domain.Text{}},
		},
		Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	}
	fiber := space.NewFiberTable(school, catalog.Join{
		Direction: catalog.Reverse, OriginTable: "school", OriginColumns: []string{"code"},
		TargetTable: "department", TargetColumns: []string{"school_code"},
	}, dept)

	st := term.NewState(root)
	trm, err := st.CompileAt(fiber, root)
	require.NoError(t, err)

	seen := map[int]bool{}
	var walk func(term.Term)
	walk = func(tm term.Term) {
		require.False(t, seen[tm.Tag()], "tag %d reused", tm.Tag())
		seen[tm.Tag()] = true
		switch n := tm.(type) {
		case *term.JoinTerm:
			walk(n.LKid)
			walk(n.RKid)
		case *term.FilterTerm:
			walk(n.Kid)
		case *term.WrapperTerm:
			walk(n.Kid)
		}
	}
	walk(trm)
	require.True(t, len(seen) >= 2)
}

func TestCompileSegmentCollectsKeysFromThePrimaryKey(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	codeUnit := space.NewColumnUnit("code", tbl, domain.Text{})
	nameUnit := space.NewColumnUnit("name", tbl, domain.Text{})

	seg, err := encode.ImplicitSegment([]space.Code{codeUnit, nameUnit})
	require.NoError(t, err)

	st := term.NewState(root)
	segTerm, err := st.CompileSegment(seg)
	require.NoError(t, err)
	require.Len(t, segTerm.Keys, 1)
	key, ok := segTerm.Keys[0].(*space.ColumnUnit)
	require.True(t, ok)
	require.Equal(t, "code", key.Column)
}

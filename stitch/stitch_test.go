package stitch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/stitch"
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

func TestSpreadTableListsEveryColumn(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	units, err := stitch.Spread(tbl)
	require.NoError(t, err)
	require.Len(t, units, 2)
	require.Equal(t, "code", units[0].(*space.ColumnUnit).Column)
	require.Equal(t, "name", units[1].(*space.ColumnUnit).Column)
}

func TestSewTableUsesPrimaryKey(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	joints, err := stitch.Sew(tbl)
	require.NoError(t, err)
	require.Len(t, joints, 1)
	col, ok := joints[0].Lop.(*space.ColumnUnit)
	require.True(t, ok)
	require.Equal(t, "code", col.Column)
}

func TestSewKeylessTableIsFatal(t *testing.T) {
	root := space.NewRoot()
	keyless := &catalog.Table{Name: "nokey", Columns: []catalog.Column{{Name: "x", Domain: domain.Integer{}}}}
	tbl := space.NewDirectTable(root, keyless)
	_, err := stitch.Sew(tbl)
	require.Error(t, err)
}

func TestTieFiberTableUsesForeignKeyColumns(t *testing.T) {
	root := space.NewRoot()
	school := schoolTable()
	schoolSpace := space.NewDirectTable(root, school)
	dept := &catalog.Table{
		Name: "department",
		Columns: []catalog.Column{
			{Name: "code", Domain: domain.Text{}},
			{Name: "school_code", Domain: domain.Text{}},
		},
		Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	}
	join := catalog.Join{
		Direction: catalog.Reverse, OriginTable: "school", OriginColumns: []string{"code"},
		TargetTable: "department", TargetColumns: []string{"school_code"},
	}
	fiber := space.NewFiberTable(schoolSpace, join, dept)

	joints, err := stitch.Tie(fiber)
	require.NoError(t, err)
	require.Len(t, joints, 1)
	lop := joints[0].Lop.(*space.ColumnUnit)
	rop := joints[0].Rop.(*space.ColumnUnit)
	require.Equal(t, "code", lop.Column)
	require.Equal(t, "school_code", rop.Column)
}

func TestArrangeDiscardsDuplicatesKeepingFirstOccurrence(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	codeUnit := space.NewColumnUnit("code", tbl, domain.Text{})
	ordered := space.NewOrdered(tbl, []space.Order{{Code: codeUnit, Asc: true}}, nil, nil)

	arranged, err := stitch.Arrange(ordered, true, true)
	require.NoError(t, err)
	// The explicit order names "code" ascending; the weak order would add
	// "code" again as the table's primary key -- it must be deduped away.
	require.Len(t, arranged, 1)
	require.True(t, arranged[0].Asc)
}

func TestArrangeWeakOrderFallsBackToPrimaryKey(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	arranged, err := stitch.Arrange(tbl, true, true)
	require.NoError(t, err)
	require.Len(t, arranged, 1)
	col := arranged[0].Code.(*space.ColumnUnit)
	require.Equal(t, "code", col.Column)
}

package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
)

func schoolDepartmentCatalog() *catalog.Catalog {
	school := &catalog.Table{
		Name: "school",
		Columns: []catalog.Column{
			{Name: "code", Domain: domain.Text{}},
			{Name: "name", Domain: domain.Text{}},
		},
		Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	}
	department := &catalog.Table{
		Name: "department",
		Columns: []catalog.Column{
			{Name: "code", Domain: domain.Text{}},
			{Name: "school_code", Domain: domain.Text{}, Nullable: true},
		},
		Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
		Joins: []catalog.Join{
			{
				Direction: catalog.Direct, OriginTable: "department", OriginColumns: []string{"school_code"},
				TargetTable: "school", TargetColumns: []string{"code"}, IsSingular: true, IsTotal: false,
			},
		},
	}
	return &catalog.Catalog{Schemas: map[string]*catalog.Schema{
		"public": {Name: "public", Tables: map[string]*catalog.Table{"school": school, "department": department}},
	}}
}

func TestTableLookupAndColumn(t *testing.T) {
	cat := schoolDepartmentCatalog()
	tbl, schemaName, ok := cat.Table("school")
	require.True(t, ok)
	require.Equal(t, "public", schemaName)
	col, ok := tbl.Column("name")
	require.True(t, ok)
	require.True(t, domain.Equal(domain.Text{}, col.Domain))

	_, _, ok = cat.Table("nonexistent")
	require.False(t, ok)
}

func TestPrimaryKey(t *testing.T) {
	cat := schoolDepartmentCatalog()
	school, _, _ := cat.Table("school")
	key, ok := school.PrimaryKey()
	require.True(t, ok)
	require.Equal(t, []string{"code"}, key.Columns)

	keyless := &catalog.Table{Name: "nokey"}
	_, ok = keyless.PrimaryKey()
	require.False(t, ok)
}

func TestJoinsFromFindsBothDirections(t *testing.T) {
	cat := schoolDepartmentCatalog()

	fromDepartment := cat.JoinsFrom("department")
	require.Len(t, fromDepartment, 1)
	require.Equal(t, catalog.Direct, fromDepartment[0].Direction)
	require.Equal(t, "school", fromDepartment[0].TargetTable)

	fromSchool := cat.JoinsFrom("school")
	require.Len(t, fromSchool, 1)
	require.Equal(t, catalog.Reverse, fromSchool[0].Direction)
	require.Equal(t, "department", fromSchool[0].TargetTable)
	require.Equal(t, "school", fromSchool[0].OriginTable)
}

func TestReversedFlipsDirectionAndEndpoints(t *testing.T) {
	j := catalog.Join{
		Direction: catalog.Direct, OriginTable: "department", OriginColumns: []string{"school_code"},
		TargetTable: "school", TargetColumns: []string{"code"}, IsSingular: true, IsTotal: true,
	}
	r := j.Reversed()
	require.Equal(t, catalog.Reverse, r.Direction)
	require.Equal(t, "school", r.OriginTable)
	require.Equal(t, "department", r.TargetTable)
	require.Equal(t, j.IsTotal, r.IsTotal)

	rr := r.Reversed()
	require.Equal(t, catalog.Direct, rr.Direction)
	require.Equal(t, j.OriginTable, rr.OriginTable)
	require.Equal(t, j.TargetTable, rr.TargetTable)
}

package encode_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/encode"
	"github.com/htscore/htscore/flow"
	"github.com/htscore/htscore/space"
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
			{Direction: catalog.Direct, OriginTable: "department", OriginColumns: []string{"school_code"},
				TargetTable: "school", TargetColumns: []string{"code"}, IsSingular: true, IsTotal: false},
		},
	}
	return &catalog.Catalog{Schemas: map[string]*catalog.Schema{
		"public": {Tables: map[string]*catalog.Table{"school": school, "department": department}},
	}}
}

func TestRelateTableProducesDirectTable(t *testing.T) {
	cat := schoolDepartmentCatalog()
	st := encode.NewState(cat)
	school, _, _ := cat.Table("school")
	f := &flow.Table{BaseFlow: &flow.Root{}, Table: school}

	sp, err := st.Relate(f)
	require.NoError(t, err)
	_, ok := sp.(*space.DirectTable)
	require.True(t, ok)
}

func TestEncodeColumnProducesColumnUnit(t *testing.T) {
	cat := schoolDepartmentCatalog()
	st := encode.NewState(cat)
	school, _, _ := cat.Table("school")
	tblFlow := &flow.Table{BaseFlow: &flow.Root{}, Table: school}
	colFlow := &flow.Column{BaseFlow: tblFlow, Column: "code"}

	c, err := st.Encode(colFlow)
	require.NoError(t, err)
	unit, ok := c.(*space.ColumnUnit)
	require.True(t, ok)
	require.Equal(t, "code", unit.Column)
	require.True(t, domain.Equal(domain.Text{}, unit.Domain()))
}

func TestEncodeUnknownColumnIsNameNotFound(t *testing.T) {
	cat := schoolDepartmentCatalog()
	st := encode.NewState(cat)
	school, _, _ := cat.Table("school")
	tblFlow := &flow.Table{BaseFlow: &flow.Root{}, Table: school}
	colFlow := &flow.Column{BaseFlow: tblFlow, Column: "nonexistent"}

	_, err := st.Encode(colFlow)
	require.Error(t, err)
}

func TestConvertUntypedLiteralSpecializesToTargetDomain(t *testing.T) {
	cat := schoolDepartmentCatalog()
	st := encode.NewState(cat)
	lit := &flow.Literal{BaseFlow: &flow.Root{}, Value: "42", Dom: domain.Untyped{}}

	c, err := st.Convert(lit, domain.Integer{})
	require.NoError(t, err)
	got, ok := c.(*space.Literal)
	require.True(t, ok)
	require.EqualValues(t, 42, got.Value)
	require.True(t, domain.Equal(domain.Integer{}, got.Domain()))
}

func TestConvertTextToBooleanIsNotNullOfNullIfEmpty(t *testing.T) {
	cat := schoolDepartmentCatalog()
	st := encode.NewState(cat)
	school, _, _ := cat.Table("school")
	tblFlow := &flow.Table{BaseFlow: &flow.Root{}, Table: school}
	colFlow := &flow.Column{BaseFlow: tblFlow, Column: "code"}

	c, err := st.Convert(colFlow, domain.Boolean{})
	require.NoError(t, err)
	require.True(t, domain.Equal(domain.Boolean{}, c.Domain()))
}

func TestUnpackImplicitSegmentWrapsFlatCodes(t *testing.T) {
	cat := schoolDepartmentCatalog()
	st := encode.NewState(cat)
	school, _, _ := cat.Table("school")
	tblFlow := &flow.Table{BaseFlow: &flow.Root{}, Table: school}
	colFlow := &flow.Column{BaseFlow: tblFlow, Column: "code"}

	c, err := st.Encode(colFlow)
	require.NoError(t, err)
	seg, err := encode.ImplicitSegment([]space.Code{c})
	require.NoError(t, err)
	require.Len(t, seg.Codes, 1)
	require.True(t, space.Equal(seg.Space, space.NewDirectTable(space.NewRoot(), school)))
}

func TestUnpackCollectBuildsOneTopLevelSegment(t *testing.T) {
	cat := schoolDepartmentCatalog()
	st := encode.NewState(cat)
	school, _, _ := cat.Table("school")
	tblFlow := &flow.Table{BaseFlow: &flow.Root{}, Table: school}
	codeFlow := &flow.Column{BaseFlow: tblFlow, Column: "code"}
	nameFlow := &flow.Column{BaseFlow: tblFlow, Column: "name"}
	sel := &flow.Selection{BaseFlow: tblFlow, Elements: []flow.Flow{codeFlow, nameFlow},
		Dom: domain.Record{Fields: []domain.Field{{Name: "code", Domain: domain.Text{}}, {Name: "name", Domain: domain.Text{}}}}}
	collect := &flow.Collect{BaseFlow: &flow.Root{}, Seed: sel, Dom: sel.Dom}

	bundle, err := st.Unpack(collect)
	require.NoError(t, err)
	require.Len(t, bundle.Segments, 1)
	require.Empty(t, bundle.Codes)
	require.True(t, space.Equal(bundle.Segments[0].Space, space.NewDirectTable(space.NewRoot(), school)))
}

package space_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/space"
)

func TestQuotientContractingOnlyWithEmptyKernel(t *testing.T) {
	root := space.NewRoot()
	dept := space.NewDirectTable(root, &catalog.Table{
		Name: "department", Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	})
	empty := space.NewQuotient(root, dept, nil)
	require.True(t, empty.IsContracting())

	kernel := space.NewScalarUnit(space.NewLiteral("x", domain.Text{}), dept)
	withKernel := space.NewQuotient(root, dept, []space.Code{kernel})
	require.False(t, withKernel.IsContracting())
}

func TestComplementReseedsTheQuotient(t *testing.T) {
	root := space.NewRoot()
	dept := space.NewDirectTable(root, &catalog.Table{
		Name: "department", Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	})
	kernel := space.NewColumnUnit("school_code", dept, domain.Text{})
	q := space.NewQuotient(root, dept, []space.Code{kernel})
	c := space.NewComplement(q)

	require.True(t, space.Equal(c.Base(), q))
	require.True(t, c.IsExpanding())
	require.False(t, c.IsContracting())
	require.True(t, space.Equal(c.Ground(), q.Ground()))
}

func TestGroundIsClosestAncestorSpannedByBase(t *testing.T) {
	root := space.NewRoot()
	school := space.NewDirectTable(root, &catalog.Table{
		Name: "school", Keys: []catalog.UniqueKey{{Columns: []string{"code"}, Primary: true}},
	})
	dept := space.NewFiberTable(school, catalog.Join{
		Direction: catalog.Reverse, OriginTable: "school", OriginColumns: []string{"code"},
		TargetTable: "department", TargetColumns: []string{"school_code"}, IsSingular: false, IsTotal: false,
	}, &catalog.Table{Name: "department"})

	q := space.NewQuotient(school, dept, []space.Code{space.NewLiteral("x", domain.Text{})})
	// Base (school) spans school itself, but does not span the
	// non-contracting dept fiber -- so ground must fall back to school.
	require.True(t, space.Equal(q.Ground(), school))
}

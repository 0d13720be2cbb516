package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/domain"
)

func TestEqualByValue(t *testing.T) {
	require.True(t, domain.Equal(domain.Integer{}, domain.Integer{}))
	require.True(t, domain.Equal(domain.Decimal{Precision: 10, Scale: 2}, domain.Decimal{Precision: 10, Scale: 2}))
	require.False(t, domain.Equal(domain.Decimal{Precision: 10, Scale: 2}, domain.Decimal{Precision: 10, Scale: 3}))
	require.False(t, domain.Equal(domain.Integer{}, domain.Float{}))
	require.True(t, domain.Equal(nil, nil))
	require.False(t, domain.Equal(domain.Integer{}, nil))
}

func TestRecordBasisOrdersFieldsPositionally(t *testing.T) {
	a := domain.Record{Fields: []domain.Field{
		{Name: "code", Domain: domain.Text{}},
		{Name: "name", Domain: domain.Text{}},
	}}
	b := domain.Record{Fields: []domain.Field{
		{Name: "name", Domain: domain.Text{}},
		{Name: "code", Domain: domain.Text{}},
	}}
	// Same fields, different declaration order: not equal (§3.2 "ordered
	// named fields").
	require.False(t, domain.Equal(a, b))
	require.True(t, domain.Equal(a, a))
}

func TestIsComposite(t *testing.T) {
	require.True(t, domain.IsComposite(domain.List{Item: domain.Integer{}}))
	require.True(t, domain.IsComposite(domain.Record{}))
	require.True(t, domain.IsComposite(domain.Identity{}))
	require.True(t, domain.IsComposite(domain.Entity{Table: "school"}))
	require.False(t, domain.IsComposite(domain.Integer{}))
	require.False(t, domain.IsComposite(domain.Untyped{}))
}

func TestListBasisComparesByItemValue(t *testing.T) {
	a := domain.List{Item: domain.Decimal{Precision: 5, Scale: 1}}
	b := domain.List{Item: domain.Decimal{Precision: 5, Scale: 1}}
	c := domain.List{Item: domain.Decimal{Precision: 5, Scale: 2}}
	require.True(t, domain.Equal(a, b))
	require.False(t, domain.Equal(a, c))
}

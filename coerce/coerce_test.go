package coerce_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/coerce"
	"github.com/htscore/htscore/domain"
)

func TestUnaryForbidsCompositeDomains(t *testing.T) {
	for _, d := range []domain.Domain{domain.Void{}, domain.List{Item: domain.Integer{}}, domain.Record{}, domain.Identity{}, domain.Entity{Table: "school"}} {
		_, ok := coerce.Unary(d)
		require.False(t, ok, "%T should be forbidden as a top-level domain", d)
	}
}

func TestUnarySpecializesUntypedToText(t *testing.T) {
	d, ok := coerce.Unary(domain.Untyped{})
	require.True(t, ok)
	require.Equal(t, domain.Text{}, d)
}

func TestUnaryPassesThroughPrimitives(t *testing.T) {
	d, ok := coerce.Unary(domain.Integer{})
	require.True(t, ok)
	require.Equal(t, domain.Integer{}, d)
}

func TestBinaryPromotionMatrix(t *testing.T) {
	cases := []struct {
		name     string
		d1, d2   domain.Domain
		expect   domain.Domain
		expectOK bool
	}{
		{"untyped+untyped", domain.Untyped{}, domain.Untyped{}, domain.Text{}, true},
		{"boolean+untyped", domain.Boolean{}, domain.Untyped{}, domain.Boolean{}, true},
		{"integer+untyped", domain.Untyped{}, domain.Integer{}, domain.Integer{}, true},
		{"integer+decimal", domain.Integer{}, domain.Decimal{Precision: 5, Scale: 2}, domain.Decimal{Precision: 5, Scale: 2}, true},
		{"integer+float", domain.Integer{}, domain.Float{}, domain.Float{}, true},
		{"decimal+float", domain.Decimal{Precision: 5, Scale: 2}, domain.Float{}, domain.Float{}, true},
		{"text+text", domain.Text{MaxLength: 10}, domain.Text{MaxLength: 20}, domain.Text{}, true},
		{"boolean+integer forbidden", domain.Boolean{}, domain.Integer{}, nil, false},
		{"text+integer forbidden", domain.Text{}, domain.Integer{}, nil, false},
		{"same domain", domain.Integer{}, domain.Integer{}, domain.Integer{}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := coerce.Binary(c.d1, c.d2)
			require.Equal(t, c.expectOK, ok)
			if c.expectOK {
				require.True(t, domain.Equal(c.expect, got), "got %v want %v", got, c.expect)
			}
		})
	}
}

func TestBinaryWidensDecimalPrecisionAndScale(t *testing.T) {
	got, ok := coerce.Binary(domain.Decimal{Precision: 5, Scale: 1}, domain.Decimal{Precision: 8, Scale: 3})
	require.True(t, ok)
	require.Equal(t, domain.Decimal{Precision: 8, Scale: 3}, got)
}

func TestFoldLeftToRightThenUnary(t *testing.T) {
	got, ok := coerce.Fold(domain.Untyped{}, domain.Integer{}, domain.Decimal{Precision: 4, Scale: 1})
	require.True(t, ok)
	require.Equal(t, domain.Decimal{Precision: 4, Scale: 1}, got)

	_, ok = coerce.Fold()
	require.False(t, ok)

	// Folding down to a forbidden top-level domain (Void) is rejected by
	// the trailing Unary step.
	_, ok = coerce.Fold(domain.Void{})
	require.False(t, ok)
}

func TestParseUntyped(t *testing.T) {
	b, err := coerce.ParseUntyped("true", domain.Boolean{})
	require.NoError(t, err)
	require.Equal(t, true, b)

	i, err := coerce.ParseUntyped("42", domain.Integer{})
	require.NoError(t, err)
	require.EqualValues(t, 42, i)

	f, err := coerce.ParseUntyped("3.5", domain.Decimal{})
	require.NoError(t, err)
	require.EqualValues(t, 3.5, f)

	s, err := coerce.ParseUntyped("hello", domain.Text{})
	require.NoError(t, err)
	require.Equal(t, "hello", s)
}

package binding_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/binding"
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
)

func TestMarkIsCarriedThroughBase(t *testing.T) {
	mark := errs.Mark{Source: "q", Offset: 3, Line: 1, Column: 4}
	root := &binding.Root{Base: binding.Base{Src: mark}}
	require.Equal(t, mark, root.Mark())
}

func TestDirectReadsDecorationAndDefaultsToZero(t *testing.T) {
	root := &binding.Root{}
	asc := &binding.Decorate{BaseBinding: root, Direction: +1}
	desc := &binding.Decorate{BaseBinding: root, Direction: -1}

	require.Equal(t, +1, binding.Direct(asc))
	require.Equal(t, -1, binding.Direct(desc))
	require.Equal(t, 0, binding.Direct(root))
}

func TestTableBasisIncludesTableNameNotPointer(t *testing.T) {
	root := &binding.Root{}
	school := &catalog.Table{Name: "school"}
	a := &binding.Table{BaseBinding: root, Table: school}
	// A distinct *catalog.Table value with the same name must still produce
	// an identical Basis -- Route/Encode key by structural identity, not by
	// which catalog object happened to be looked up.
	b := &binding.Table{BaseBinding: root, Table: &catalog.Table{Name: "school"}}

	require.Equal(t, a.Basis(), b.Basis())
}

func TestFormulaBasisOrdersArgumentsByNameRegardlessOfMapIteration(t *testing.T) {
	root := &binding.Root{}
	lit := &binding.Literal{BaseBinding: root, Value: 1, Dom: domain.Integer{}}
	f1 := &binding.Formula{BaseBinding: root, Sig: "add", Dom: domain.Integer{},
		Arguments: map[string][]binding.Binding{"rop": {lit}, "lop": {lit}}}
	f2 := &binding.Formula{BaseBinding: root, Sig: "add", Dom: domain.Integer{},
		Arguments: map[string][]binding.Binding{"lop": {lit}, "rop": {lit}}}

	require.Equal(t, f1.Basis(), f2.Basis())
}

func TestSelectionBasisIsSensitiveToElementOrder(t *testing.T) {
	root := &binding.Root{}
	a := &binding.Literal{BaseBinding: root, Value: "a", Dom: domain.Text{}}
	b := &binding.Literal{BaseBinding: root, Value: "b", Dom: domain.Text{}}
	forward := &binding.Selection{BaseBinding: root, Elements: []binding.Binding{a, b}}
	reversed := &binding.Selection{BaseBinding: root, Elements: []binding.Binding{b, a}}

	require.NotEqual(t, forward.Basis(), reversed.Basis())
}

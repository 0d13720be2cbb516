package flow_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/binding"
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/flow"
	"github.com/htscore/htscore/ir"
)

func TestOriginRecoversTheSourceBinding(t *testing.T) {
	root := &flow.Root{}
	tbl := &flow.Table{BaseFlow: root, Table: &catalog.Table{Name: "school"}}
	require.Nil(t, tbl.Origin())

	src := &binding.Root{}
	withSrc := &flow.Table{Base: flow.Base{Src: src}, BaseFlow: root, Table: &catalog.Table{Name: "school"}}
	require.True(t, withSrc.Origin() == binding.Binding(src))
}

func TestSortBasisCarriesDirectionPerOrderElement(t *testing.T) {
	root := &flow.Root{}
	col := &flow.Column{BaseFlow: root, Column: "code"}
	asc := &flow.Sort{BaseFlow: root, Order: []flow.Ordered{{Flow: col, Direction: +1}}}
	desc := &flow.Sort{BaseFlow: root, Order: []flow.Ordered{{Flow: col, Direction: -1}}}

	require.False(t, ir.Equal(asc, desc))
}

func TestFormulaBasisIsInsensitiveToArgumentMapIterationOrder(t *testing.T) {
	root := &flow.Root{}
	lit := &flow.Literal{BaseFlow: root, Value: 1, Dom: domain.Integer{}}
	f1 := &flow.Formula{BaseFlow: root, Sig: "add", Dom: domain.Integer{},
		Arguments: map[string][]flow.Flow{"rop": {lit}, "lop": {lit}}}
	f2 := &flow.Formula{BaseFlow: root, Sig: "add", Dom: domain.Integer{},
		Arguments: map[string][]flow.Flow{"lop": {lit}, "rop": {lit}}}

	require.True(t, ir.Equal(f1, f2))
}

func TestChainBasisIncludesEachJoinsEndpoints(t *testing.T) {
	root := &flow.Root{}
	join := catalog.Join{OriginTable: "department", OriginColumns: []string{"school_code"},
		TargetTable: "school", TargetColumns: []string{"code"}}
	a := &flow.Chain{BaseFlow: root, Joins: []catalog.Join{join}}
	b := &flow.Chain{BaseFlow: root, Joins: nil}

	require.False(t, ir.Equal(a, b))
}

package pipe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/flow"
	"github.com/htscore/htscore/pipe"
)

func TestPackTopLevelScalarWrapsInIterateAndSingle(t *testing.T) {
	root := &flow.Root{}
	collect := &flow.Collect{BaseFlow: root, Seed: &flow.Column{BaseFlow: root, Column: "code"}, Dom: domain.Text{}}
	cs := &pipe.CompiledSegment{SQL: "SELECT t1.code AS c1 FROM school AS t1", OutputDomains: []domain.Domain{domain.Text{}}}

	p, err := pipe.Pack(collect, cs, "")
	require.NoError(t, err)
	iter, ok := p.(pipe.IteratePipe)
	require.True(t, ok)
	extract, ok := iter.Value.(pipe.ExtractPipe)
	require.True(t, ok)
	require.Equal(t, 0, extract.Index)
}

func TestPackSelectionWrapsRecordInAnnihilateOverItsIndicator(t *testing.T) {
	root := &flow.Root{}
	code := &flow.Column{BaseFlow: root, Column: "code"}
	name := &flow.Column{BaseFlow: root, Column: "name"}
	sel := &flow.Selection{BaseFlow: root, Elements: []flow.Flow{code, name},
		Dom: domain.Record{Fields: []domain.Field{{Name: "code", Domain: domain.Text{}}, {Name: "name", Domain: domain.Text{}}}}}
	collect := &flow.Collect{BaseFlow: root, Seed: sel, Dom: sel.Dom}

	// indicator, code, name -- three pulled pipes in order, matching the
	// SELECT list unpackSelection built (package encode).
	cs := &pipe.CompiledSegment{SQL: "SELECT true AS c1, t1.code AS c2, t1.name AS c3 FROM school AS t1",
		OutputDomains: []domain.Domain{domain.Boolean{}, domain.Text{}, domain.Text{}}}

	p, err := pipe.Pack(collect, cs, "")
	require.NoError(t, err)
	iter := p.(pipe.IteratePipe)
	ann, ok := iter.Value.(pipe.AnnihilatePipe)
	require.True(t, ok, "indicator is pulled from SQL at run time, not folded at pack time")
	require.Equal(t, pipe.ExtractPipe{Index: 0}, ann.Test)

	rec, ok := ann.Value.(pipe.RecordPipe)
	require.True(t, ok)
	require.Equal(t, []string{"code", "name"}, rec.Names)
	require.Len(t, rec.Fields, 2)
}

func TestMarshalProducesMsgpackBytes(t *testing.T) {
	p := pipe.ProducePipe{Meta: domain.Text{}, Data: pipe.ExtractPipe{Index: 0}}
	b, err := pipe.Marshal(p)
	require.NoError(t, err)
	require.NotEmpty(t, b)
}

package frame_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/frame"
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

func TestAssembleTableSelectsColumnsFromOneTableFrom(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	codeUnit := space.NewColumnUnit("code", tbl, domain.Text{})

	st := term.NewState(root)
	trm, err := st.CompileAt(tbl, tbl)
	require.NoError(t, err)

	f, err := frame.Assemble(trm, []space.Code{codeUnit})
	require.NoError(t, err)
	require.Len(t, f.Columns, 1)
	tf, ok := f.From.(*frame.TableFrom)
	require.True(t, ok)
	require.Equal(t, "school", tf.Table)

	col, ok := f.Columns[0].Expr.(*frame.ColumnPhrase)
	require.True(t, ok)
	require.Equal(t, "code", col.Column)
	require.Equal(t, tf.Alias, col.Alias)
	require.False(t, col.Nullable)
}

func TestAssembleWithNoCodesEmitsTruePlaceholder(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())

	st := term.NewState(root)
	trm, err := st.CompileAt(tbl, tbl)
	require.NoError(t, err)

	f, err := frame.Assemble(trm, nil)
	require.NoError(t, err)
	require.Len(t, f.Columns, 1)
	_, ok := f.Columns[0].Expr.(frame.TruePhrase)
	require.True(t, ok)
}

func TestEvaluateFormulaNullabilityFollowsOperandsExceptIsNullAndNullIf(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	codeUnit := space.NewColumnUnit("code", tbl, domain.Text{})

	st := term.NewState(root)
	trm, err := st.CompileAt(tbl, tbl)
	require.NoError(t, err)

	isNull := code.NewIsNull(codeUnit)
	nullIf := code.NewNullIf(codeUnit, codeUnit)
	concat := code.NewConcat(codeUnit, codeUnit)

	f, err := frame.Assemble(trm, []space.Code{isNull, nullIf, concat})
	require.NoError(t, err)
	require.Len(t, f.Columns, 3)
	require.False(t, f.Columns[0].Expr.IsNullable(), "is-null is never nullable")
	require.True(t, f.Columns[1].Expr.IsNullable(), "null-if is always nullable")
	require.False(t, f.Columns[2].Expr.IsNullable(), "concat over a non-nullable column stays non-nullable")
}

func TestAssembleFilteredAddsWhereClauseOverTheSameFrame(t *testing.T) {
	root := space.NewRoot()
	tbl := space.NewDirectTable(root, schoolTable())
	codeUnit := space.NewColumnUnit("code", tbl, domain.Text{})
	pred := code.NewEquals(codeUnit, space.NewLiteral("MIT", domain.Text{}))
	filtered := space.NewFiltered(tbl, pred)

	st := term.NewState(root)
	trm, err := st.CompileAt(filtered, filtered)
	require.NoError(t, err)

	f, err := frame.Assemble(trm, []space.Code{codeUnit})
	require.NoError(t, err)
	require.NotNil(t, f.Where)
	_, ok := f.From.(*frame.TableFrom)
	require.True(t, ok, "filtering must not introduce a derived table")
}

package core_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/binding"
	"github.com/htscore/htscore/catalog"
	"github.com/htscore/htscore/core"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/pipe"
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
		"": {Tables: map[string]*catalog.Table{"school": school, "department": department}},
	}}
}

func TestSummonRecognisesFetchRetrieveFormatsAndSQL(t *testing.T) {
	q := &binding.Root{}

	fetch, err := core.Summon("fetch", []binding.Binding{q})
	require.NoError(t, err)
	require.IsType(t, core.FetchCmd{}, fetch)

	retrieve, err := core.Summon("retrieve", []binding.Binding{q})
	require.NoError(t, err)
	require.IsType(t, core.FetchCmd{}, retrieve)

	csv, err := core.Summon("csv", []binding.Binding{q})
	require.NoError(t, err)
	format, ok := csv.(core.FormatCmd)
	require.True(t, ok)
	require.Equal(t, "csv", format.Format)

	sqlCmd, err := core.Summon("sql", []binding.Binding{q})
	require.NoError(t, err)
	require.IsType(t, core.SQLCmd{}, sqlCmd)
}

func TestSummonRejectsWrongArityAndUnknownNames(t *testing.T) {
	q := &binding.Root{}

	_, err := core.Summon("fetch", nil)
	require.Error(t, err)
	require.True(t, errs.ErrBadArity.Is(err))

	_, err = core.Summon("no-such-command", []binding.Binding{q})
	require.Error(t, err)
	require.True(t, errs.ErrNameNotFound.Is(err))
}

func TestLoadConfigOverlaysOntoDefaults(t *testing.T) {
	cfg, err := core.LoadConfig(strings.NewReader("strict_conversions: true\n"))
	require.NoError(t, err)
	require.True(t, cfg.StrictConversions)
	// default_row_limit wasn't in the document -- it keeps DefaultConfig's
	// zero-disables-it value rather than zeroing every other field.
	require.Equal(t, 0, cfg.DefaultRowLimit)
	require.Equal(t, ".", cfg.IdentityLabelSeparator)
}

func TestLoadConfigRejectsMalformedYAML(t *testing.T) {
	_, err := core.LoadConfig(strings.NewReader("strict_conversions: [unterminated\n"))
	require.Error(t, err)
}

func TestNewContextDefaultsConfigWhenNil(t *testing.T) {
	ctx := core.New(nil, nil, nil, nil)
	require.NotNil(t, ctx.Config)
	require.Equal(t, core.DefaultConfig(), ctx.Config)
	require.NotEmpty(t, ctx.CorrelationID)
}

// TestCompileSchoolSelectionProducesARunnableSQLBackedPlan is end-to-end
// scenario /school{code, name}: a plain table selection with no filter,
// aggregate, or quotient.
func TestCompileSchoolSelectionProducesARunnableSQLBackedPlan(t *testing.T) {
	cat := schoolDepartmentCatalog()
	ctx := core.New(cat, nil, nil, nil)

	school, _, ok := cat.Table("school")
	require.True(t, ok)
	root := &binding.Root{}
	home := &binding.Home{BaseBinding: root}
	table := &binding.Table{BaseBinding: home, Table: school}
	code := &binding.Column{BaseBinding: table, Column: "code"}
	name := &binding.Column{BaseBinding: table, Column: "name"}
	sel := &binding.Selection{
		BaseBinding: table,
		Elements:    []binding.Binding{code, name},
		Dom: domain.Record{Fields: []domain.Field{
			{Name: "code", Domain: domain.Text{}},
			{Name: "name", Domain: domain.Text{}},
		}},
	}
	query := &binding.Collect{BaseBinding: root, Seed: sel, Dom: sel.Dom}

	produced, err := ctx.Compile(query)
	require.NoError(t, err)
	require.True(t, domain.Equal(sel.Dom, produced.Meta))

	composed, ok := produced.Data.(pipe.ComposePipe)
	require.True(t, ok)
	sqlPipe, ok := composed.Left.(pipe.SQLPipe)
	require.True(t, ok)
	require.Contains(t, sqlPipe.SQL, "SELECT")
	require.Contains(t, sqlPipe.SQL, "school")

	_, err = pipe.Marshal(*produced)
	require.NoError(t, err)
}

// TestCompileCountOfFiberTableGroupsByTheOuterTable is end-to-end scenario
// /school{code, count(department)}: an aggregate over a reverse (to-many)
// join must group by school's own key.
func TestCompileCountOfFiberTableGroupsByTheOuterTable(t *testing.T) {
	cat := schoolDepartmentCatalog()
	ctx := core.New(cat, nil, nil, nil)

	school, _, ok := cat.Table("school")
	require.True(t, ok)
	joins := cat.JoinsFrom("school")
	require.Len(t, joins, 1)

	root := &binding.Root{}
	home := &binding.Home{BaseBinding: root}
	table := &binding.Table{BaseBinding: home, Table: school}
	code := &binding.Column{BaseBinding: table, Column: "code"}
	chain := &binding.Chain{BaseBinding: table, Joins: joins}
	// count()'s "op" argument must itself be a code expression, not a bare
	// space reference -- a literal true rescoped into the chain's space
	// gives it units that live in the fiber table, the same shape
	// wrapAggregate's deduceSpace expects (encode/encode.go's Rescoping
	// case: ScalarUnit(base, relate(Scope))).
	indicator := &binding.Literal{BaseBinding: table, Value: true, Dom: domain.Boolean{}}
	rescoped := &binding.Rescoping{BaseBinding: indicator, Scope: chain}
	countFormula := &binding.Formula{
		BaseBinding: table, Sig: "count", Dom: domain.Integer{},
		Arguments: map[string][]binding.Binding{"op": {rescoped}},
	}
	sel := &binding.Selection{
		BaseBinding: table,
		Elements:    []binding.Binding{code, countFormula},
		Dom: domain.Record{Fields: []domain.Field{
			{Name: "code", Domain: domain.Text{}},
			{Name: "count", Domain: domain.Integer{}},
		}},
	}
	query := &binding.Collect{BaseBinding: root, Seed: sel, Dom: sel.Dom}

	produced, err := ctx.Compile(query)
	require.NoError(t, err)
	composed := produced.Data.(pipe.ComposePipe)
	sqlPipe := composed.Left.(pipe.SQLPipe)
	require.Contains(t, strings.ToUpper(sqlPipe.SQL), "GROUP BY")
	require.Contains(t, strings.ToUpper(sqlPipe.SQL), "COUNT")
}

// TestCompileFilterByAggregatePredicatePushesCountIntoAWhereSubquery is
// end-to-end scenario /school.filter(count(department)>3){code}: the
// aggregate predicate that gates the filter must not trip
// term.wrapCountSumCoalesce's top-level-only coalesce(_, 0) rewrite --
// count(department) > 3 stays a correct, non-coalesced comparison.
func TestCompileFilterByAggregatePredicatePushesCountIntoAWhereSubquery(t *testing.T) {
	cat := schoolDepartmentCatalog()
	ctx := core.New(cat, nil, nil, nil)

	school, _, ok := cat.Table("school")
	require.True(t, ok)
	joins := cat.JoinsFrom("school")
	require.Len(t, joins, 1)

	root := &binding.Root{}
	home := &binding.Home{BaseBinding: root}
	table := &binding.Table{BaseBinding: home, Table: school}
	chain := &binding.Chain{BaseBinding: table, Joins: joins}
	indicator := &binding.Literal{BaseBinding: table, Value: true, Dom: domain.Boolean{}}
	rescoped := &binding.Rescoping{BaseBinding: indicator, Scope: chain}
	countFormula := &binding.Formula{
		BaseBinding: table, Sig: "count", Dom: domain.Integer{},
		Arguments: map[string][]binding.Binding{"op": {rescoped}},
	}
	threshold := &binding.Literal{BaseBinding: table, Value: int64(3), Dom: domain.Integer{}}
	pred := &binding.Formula{
		BaseBinding: table, Sig: "greater-than", Dom: domain.Boolean{},
		Arguments: map[string][]binding.Binding{"lop": {countFormula}, "rop": {threshold}},
	}
	sieve := &binding.Sieve{BaseBinding: table, Filter: pred}
	code := &binding.Column{BaseBinding: sieve, Column: "code"}
	sel := &binding.Selection{
		BaseBinding: sieve,
		Elements:    []binding.Binding{code},
		Dom:         domain.Record{Fields: []domain.Field{{Name: "code", Domain: domain.Text{}}}},
	}
	query := &binding.Collect{BaseBinding: root, Seed: sel, Dom: sel.Dom}

	produced, err := ctx.Compile(query)
	require.NoError(t, err)
	composed := produced.Data.(pipe.ComposePipe)
	sqlPipe := composed.Left.(pipe.SQLPipe)
	upper := strings.ToUpper(sqlPipe.SQL)
	require.Contains(t, upper, "WHERE")
	require.Contains(t, upper, "COUNT")
	require.NotContains(t, upper, "COALESCE",
		"count(department) > 3 is a predicate, not a selected output column -- it must not be coalesced to 0")
}

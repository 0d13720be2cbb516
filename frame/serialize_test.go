package frame_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/frame"
)

func TestSerializeSimpleSelect(t *testing.T) {
	f := &frame.Frame{
		Columns: []frame.Column{{Alias: "c1", Expr: &frame.ColumnPhrase{Alias: "t1", Column: "code"}}},
		From:    &frame.TableFrom{Table: "school", Alias: "t1"},
	}
	sql, err := frame.Serialize(f)
	require.NoError(t, err)
	require.Equal(t, "SELECT t1.code AS c1 FROM school AS t1", sql)
}

func TestSerializeQuotesAndEscapesTextLiterals(t *testing.T) {
	f := &frame.Frame{
		Columns: []frame.Column{{Alias: "c1", Expr: &frame.LiteralPhrase{Value: "O'Brien", Dom: domain.Text{}}}},
	}
	sql, err := frame.Serialize(f)
	require.NoError(t, err)
	require.Equal(t, "SELECT 'O''Brien' AS c1", sql)
}

func TestSerializeNullLiteralIsBareNull(t *testing.T) {
	f := &frame.Frame{
		Columns: []frame.Column{{Alias: "c1", Expr: &frame.LiteralPhrase{Value: nil, Dom: domain.Text{}, Nullable: true}}},
	}
	sql, err := frame.Serialize(f)
	require.NoError(t, err)
	require.Equal(t, "SELECT NULL AS c1", sql)
}

func TestSerializeIfFormulaRendersAsCase(t *testing.T) {
	pred := &frame.FormulaPhrase{Op: "equal", Args: []frame.Phrase{
		&frame.ColumnPhrase{Alias: "t1", Column: "code"},
		&frame.LiteralPhrase{Value: "MIT", Dom: domain.Text{}},
	}}
	ifPhrase := &frame.FormulaPhrase{Op: "if", Args: []frame.Phrase{
		pred,
		&frame.LiteralPhrase{Value: "yes", Dom: domain.Text{}},
		&frame.LiteralPhrase{Value: "no", Dom: domain.Text{}},
	}}
	f := &frame.Frame{Columns: []frame.Column{{Alias: "c1", Expr: ifPhrase}}}
	sql, err := frame.Serialize(f)
	require.NoError(t, err)
	require.Equal(t, "SELECT CASE WHEN t1.code = 'MIT' THEN 'yes' ELSE 'no' END AS c1", sql)
}

func TestSerializeJoinFromWithOnCondition(t *testing.T) {
	f := &frame.Frame{
		Columns: []frame.Column{{Alias: "c1", Expr: &frame.ColumnPhrase{Alias: "t1", Column: "code"}}},
		From: &frame.JoinFrom{
			Left:  &frame.TableFrom{Table: "school", Alias: "t1"},
			Right: &frame.TableFrom{Table: "department", Alias: "t2"},
			On: &frame.FormulaPhrase{Op: "equal", Args: []frame.Phrase{
				&frame.ColumnPhrase{Alias: "t1", Column: "code"},
				&frame.ColumnPhrase{Alias: "t2", Column: "school_code"},
			}},
			IsLeft: true,
		},
	}
	sql, err := frame.Serialize(f)
	require.NoError(t, err)
	require.Equal(t, "SELECT t1.code AS c1 FROM school AS t1 LEFT JOIN department AS t2 ON t1.code = t2.school_code", sql)
}

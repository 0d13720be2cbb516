// Serialize renders an assembled Frame tree to literal SQL text (the final
// step of spec.md §2's pipeline, "(Serialize) -> SQL Pipe"). It hand-
// assembles the text with a strings.Builder rather than building a
// vitess/go/vt/sqlparser AST and printing that: the vendored sqlparser
// source isn't available in this workspace to check its exact
// field/constructor shapes against, and a guessed-at AST that happens to
// be wrong would only be caught by a compiler this repo is never run
// through. sqltypes' value constructors are still used below for literal
// typing (see literalValue), matching their use in
// driver/value.go and enginetest/evaluation.go.
package frame

import (
	"fmt"
	"strings"

	"github.com/dolthub/vitess/go/sqltypes"

	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/domain"
)

// Serialize renders f as a single SELECT statement (possibly containing
// nested derived-table subqueries for any SubqueryFrom it wraps).
func Serialize(f *Frame) (string, error) {
	var b strings.Builder
	if err := writeFrame(&b, f); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeFrame(b *strings.Builder, f *Frame) error {
	b.WriteString("SELECT ")
	for i, c := range f.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		ph, err := writePhrase(c.Expr)
		if err != nil {
			return err
		}
		b.WriteString(ph)
		b.WriteString(" AS ")
		b.WriteString(c.Alias)
	}
	if f.From != nil {
		b.WriteString(" FROM ")
		if err := writeFrom(b, f.From); err != nil {
			return err
		}
	}
	if f.Where != nil {
		if _, isTrue := f.Where.(TruePhrase); !isTrue {
			ph, err := writePhrase(f.Where)
			if err != nil {
				return err
			}
			b.WriteString(" WHERE ")
			b.WriteString(ph)
		}
	}
	if len(f.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, g := range f.GroupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			ph, err := writePhrase(g)
			if err != nil {
				return err
			}
			b.WriteString(ph)
		}
	}
	if f.Having != nil {
		if _, isTrue := f.Having.(TruePhrase); !isTrue {
			ph, err := writePhrase(f.Having)
			if err != nil {
				return err
			}
			b.WriteString(" HAVING ")
			b.WriteString(ph)
		}
	}
	if len(f.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range f.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			ph, err := writePhrase(o.Expr)
			if err != nil {
				return err
			}
			b.WriteString(ph)
			if o.Asc {
				b.WriteString(" ASC")
			} else {
				b.WriteString(" DESC")
			}
		}
	}
	if f.Limit != nil {
		fmt.Fprintf(b, " LIMIT %d", *f.Limit)
	}
	if f.Offset != nil {
		fmt.Fprintf(b, " OFFSET %d", *f.Offset)
	}
	return nil
}


func writeFrom(b *strings.Builder, f From) error {
	switch ff := f.(type) {
	case *TableFrom:
		b.WriteString(ff.Table)
		if ff.Alias != "" && ff.Alias != ff.Table {
			b.WriteString(" AS ")
			b.WriteString(ff.Alias)
		}
		return nil
	case *SubqueryFrom:
		b.WriteString("(")
		if err := writeFrame(b, ff.Frame); err != nil {
			return err
		}
		b.WriteString(") AS ")
		b.WriteString(ff.Alias)
		return nil
	case *JoinFrom:
		if err := writeFrom(b, ff.Left); err != nil {
			return err
		}
		if ff.IsLeft {
			b.WriteString(" LEFT JOIN ")
		} else {
			b.WriteString(" JOIN ")
		}
		if err := writeFrom(b, ff.Right); err != nil {
			return err
		}
		if ff.On != nil {
			onStr, err := writePhrase(ff.On)
			if err != nil {
				return err
			}
			b.WriteString(" ON ")
			b.WriteString(onStr)
		}
		return nil
	default:
		return fmt.Errorf("frame: cannot serialize FROM of type %T", f)
	}
}

// writePhrase renders p to its SQL text.
func writePhrase(p Phrase) (string, error) {
	switch pp := p.(type) {
	case *LiteralPhrase:
		return literalSQLText(pp)
	case *ColumnPhrase:
		return pp.Alias + "." + pp.Column, nil
	case *ReferencePhrase:
		return pp.Alias + "." + pp.Column, nil
	case TruePhrase:
		return "true", nil
	case *RowNumberPhrase:
		return writeRowNumber(pp)
	case *AggregatePhrase:
		arg, err := writePhrase(pp.Arg)
		if err != nil {
			return "", err
		}
		return strings.ToUpper(sqlName(pp.Op)) + "(" + arg + ")", nil
	case *SubqueryPhrase:
		s, err := Serialize(pp.Frame)
		if err != nil {
			return "", err
		}
		return "(" + s + ")", nil
	case *FormulaPhrase:
		return writeFormula(pp)
	default:
		return "", fmt.Errorf("frame: cannot serialize phrase of type %T", p)
	}
}

func writeRowNumber(p *RowNumberPhrase) (string, error) {
	var b strings.Builder
	b.WriteString("ROW_NUMBER() OVER (")
	if len(p.Partition) > 0 {
		b.WriteString("PARTITION BY ")
		for i, part := range p.Partition {
			if i > 0 {
				b.WriteString(", ")
			}
			s, err := writePhrase(part)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
	}
	if len(p.Asc) > 0 || len(p.Desc) > 0 {
		if len(p.Partition) > 0 {
			b.WriteString(" ")
		}
		b.WriteString("ORDER BY ")
		first := true
		for _, a := range p.Asc {
			if !first {
				b.WriteString(", ")
			}
			first = false
			s, err := writePhrase(a)
			if err != nil {
				return "", err
			}
			b.WriteString(s + " ASC")
		}
		for _, d := range p.Desc {
			if !first {
				b.WriteString(", ")
			}
			first = false
			s, err := writePhrase(d)
			if err != nil {
				return "", err
			}
			b.WriteString(s + " DESC")
		}
	}
	b.WriteString(")")
	return b.String(), nil
}

// argStrings evaluates every argument of a formula phrase to text.
func argStrings(args []Phrase) ([]string, error) {
	out := make([]string, len(args))
	for i, a := range args {
		s, err := writePhrase(a)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// writeFormula renders a FormulaPhrase by its Op name (the code.Signature
// name it was built from, spec.md §4.7/§4.3's function catalog).
func writeFormula(p *FormulaPhrase) (string, error) {
	args, err := argStrings(p.Args)
	if err != nil {
		return "", err
	}
	switch p.Op {
	case "equal":
		return infix(args, "="), nil
	case "not-equal":
		return infix(args, "<>"), nil
	case "ordering":
		// Args run op, lop, rop: argOrder puts the OrderingOp literal first.
		symbol := "<"
		if lit, ok := p.Args[0].(*LiteralPhrase); ok {
			switch lit.Value {
			case int(code.LessOrEqual):
				symbol = "<="
			case int(code.GreaterThan):
				symbol = ">"
			case int(code.GreaterOrEqual):
				symbol = ">="
			}
		}
		return infix(args[1:], symbol), nil
	case "and":
		return parenJoin(args, " AND "), nil
	case "or":
		return parenJoin(args, " OR "), nil
	case "not":
		return "NOT (" + args[0] + ")", nil
	case "add":
		return infix(args, "+"), nil
	case "sub":
		return infix(args, "-"), nil
	case "mul":
		return infix(args, "*"), nil
	case "div":
		return infix(args, "/"), nil
	case "concat":
		return "CONCAT(" + strings.Join(args, ", ") + ")", nil
	case "length":
		return "LENGTH(" + args[0] + ")", nil
	case "like":
		s := args[0] + " LIKE " + args[1]
		if len(args) > 2 {
			s += " ESCAPE " + args[2]
		}
		return s, nil
	case "substring":
		s := "SUBSTRING(" + args[0]
		if len(args) > 1 {
			s += " FROM " + args[1]
		}
		if len(args) > 2 {
			s += " FOR " + args[2]
		}
		return s + ")", nil
	case "is-null":
		return args[0] + " IS NULL", nil
	case "null-if":
		return "NULLIF(" + strings.Join(args, ", ") + ")", nil
	case "if-null":
		return "COALESCE(" + strings.Join(args, ", ") + ")", nil
	case "exists":
		return "(" + args[0] + " IS NOT NULL)", nil
	case "every":
		return "(" + args[0] + " IS NOT NULL)", nil
	case "cast":
		return args[0], nil
	case "if", "switch":
		return writeCase(p), nil
	default:
		return strings.ToUpper(sqlName(p.Op)) + "(" + strings.Join(args, ", ") + ")", nil
	}
}

// writeCase renders an "if"/"switch" FormulaPhrase as a CASE expression.
// Both lower to the same flat WHEN/THEN + optional ELSE arg sequence by
// the time they reach a FormulaPhrase (frame.Assemble already flattened
// code.NewIf/code.NewSwitch's predicate/consequent slot pairs into Args in
// slot order), so one renderer covers both.
func writeCase(p *FormulaPhrase) string {
	var b strings.Builder
	b.WriteString("CASE")
	args, _ := argStrings(p.Args)
	n := len(args)
	hasElse := n%2 == 1
	pairs := n / 2
	for i := 0; i < pairs; i++ {
		fmt.Fprintf(&b, " WHEN %s THEN %s", args[2*i], args[2*i+1])
	}
	if hasElse {
		fmt.Fprintf(&b, " ELSE %s", args[n-1])
	}
	b.WriteString(" END")
	return b.String()
}

func infix(args []string, op string) string {
	return args[0] + " " + op + " " + args[1]
}

func parenJoin(args []string, sep string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "(" + strings.Join(args, sep) + ")"
}

// sqlName turns a hyphenated signature name ("not-equal") into the SQL
// keyword shape ("NOT_EQUAL") default renderers fall back on for any
// formula/aggregate Op this switch doesn't special-case by hand.
func sqlName(op string) string { return strings.ReplaceAll(op, "-", "_") }

// literalSQLText renders a LiteralPhrase's value as SQL literal text,
// typing it through sqltypes' value constructors first (driver/value.go's
// own idiom) so the printed form (quoting, NULL, numeric formatting)
// follows the same rules the wire driver uses for the same domains.
func literalSQLText(p *LiteralPhrase) (string, error) {
	if p.Value == nil {
		return "NULL", nil
	}
	v, err := literalValue(p.Value, p.Dom)
	if err != nil {
		return "", err
	}
	switch p.Dom.(type) {
	case domain.Text, domain.Enum:
		return quoteSQLString(v.ToString()), nil
	default:
		return v.ToString(), nil
	}
}

// quoteSQLString single-quotes s, doubling embedded quotes and backslashes
// the way standard SQL string literals require.
func quoteSQLString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `''`)
	return "'" + s + "'"
}

// literalValue converts a Go literal value plus its domain into a
// sqltypes.Value, the same typed-wire-value construction path
// driver/value.go and enginetest/evaluation.go use (sqltypes.NewInt32,
// NewFloat64, NewVarChar, ...).
func literalValue(value interface{}, dom domain.Domain) (sqltypes.Value, error) {
	switch dom.(type) {
	case domain.Boolean:
		b, _ := value.(bool)
		if b {
			return sqltypes.NewInt32(1), nil
		}
		return sqltypes.NewInt32(0), nil
	case domain.Integer:
		switch n := value.(type) {
		case int:
			return sqltypes.NewInt64(int64(n)), nil
		case int64:
			return sqltypes.NewInt64(n), nil
		default:
			return sqltypes.Value{}, fmt.Errorf("frame: not an integer literal: %v", value)
		}
	case domain.Float, domain.Decimal:
		switch n := value.(type) {
		case float64:
			return sqltypes.NewFloat64(n), nil
		case float32:
			return sqltypes.NewFloat64(float64(n)), nil
		default:
			return sqltypes.Value{}, fmt.Errorf("frame: not a numeric literal: %v", value)
		}
	case domain.Text, domain.Enum:
		s, _ := value.(string)
		return sqltypes.NewVarChar(s), nil
	case domain.Date, domain.Time, domain.DateTime:
		return sqltypes.NewVarChar(fmt.Sprint(value)), nil
	default:
		return sqltypes.NewVarChar(fmt.Sprint(value)), nil
	}
}

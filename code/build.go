package code

import (
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/space"
)

// Build resolves a formula by its dispatch-table name (the binding/flow
// Formula.Sig string Route carries through unchanged) into a concrete
// space.Formula, the single place Encode (package encode) needs to know
// about the function catalog's name-to-signature mapping.
func Build(name string, dom domain.Domain, args map[string][]space.Code) (*space.Formula, error) {
	one := func(k string) space.Code {
		vs := args[k]
		if len(vs) == 0 {
			return nil
		}
		return vs[0]
	}
	switch name {
	case "equal":
		return NewEquals(one("lop"), one("rop")), nil
	case "not-equal":
		return NewNotEquals(one("lop"), one("rop")), nil
	case "less-than":
		return NewOrdering(LessThan, one("lop"), one("rop")), nil
	case "less-or-equal":
		return NewOrdering(LessOrEqual, one("lop"), one("rop")), nil
	case "greater-than":
		return NewOrdering(GreaterThan, one("lop"), one("rop")), nil
	case "greater-or-equal":
		return NewOrdering(GreaterOrEqual, one("lop"), one("rop")), nil
	case "and":
		return NewAnd(args["ops"]...), nil
	case "or":
		return NewOr(args["ops"]...), nil
	case "not":
		return NewNot(one("op")), nil
	case "is-null":
		return NewIsNull(one("op")), nil
	case "add":
		return NewAdd(dom, one("lop"), one("rop")), nil
	case "sub":
		return NewSub(dom, one("lop"), one("rop")), nil
	case "mul":
		return NewMul(dom, one("lop"), one("rop")), nil
	case "div":
		return NewDiv(dom, one("lop"), one("rop")), nil
	case "concat":
		return NewConcat(one("lop"), one("rop")), nil
	case "length":
		return NewLength(one("op")), nil
	case "head":
		return NewHead(one("op"), one("length")), nil
	case "tail":
		return NewTail(one("op"), one("length")), nil
	case "slice":
		return NewSlice(one("op"), one("left"), one("right")), nil
	case "at":
		return NewAt(one("op"), one("index"), one("length")), nil
	case "search":
		return NewSearch(one("op"), one("term")), nil
	case "count":
		return NewCount(dom, one("op")), nil
	case "sum":
		return NewSum(dom, one("op")), nil
	case "min":
		return NewMin(dom, one("op")), nil
	case "max":
		return NewMax(dom, one("op")), nil
	case "avg":
		return NewAvg(dom, one("op")), nil
	case "exists":
		return NewExists(one("op")), nil
	case "every":
		return NewEvery(one("op")), nil
	case "null-if":
		return NewNullIf(args["ops"]...), nil
	case "if-null":
		return NewCoalesce(args["ops"]...), nil
	case "if":
		return NewIf(dom, args["predicates"], args["consequents"], one("alternative")), nil
	case "switch":
		return NewSwitch(dom, one("op"), args["variants"], args["consequents"], one("alternative")), nil
	default:
		return nil, errs.ErrNameNotFound.New(name)
	}
}

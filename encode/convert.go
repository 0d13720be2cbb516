package encode

import (
	"github.com/htscore/htscore/code"
	"github.com/htscore/htscore/coerce"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/flow"
	"github.com/htscore/htscore/space"
)

// Convert is the cast sub-adapter spec.md §4.3 describes: it encodes
// baseFlow, then converts the result to target, enforcing the promotion
// matrix. Dispatched (as in the original) on the pair of domains, though
// here as an ordinary Go type switch rather than a polymorphic adapter.
//
// Grounded on original_source/.../core/tr/encode.py's Convert/
// ConvertUntyped/ConvertToBoolean/ConvertToText/ConvertToInteger/
// ConvertToDecimal/ConvertToFloat/ConvertToDate/ConvertToTime/
// ConvertToDateTime hierarchy.
func (s *State) Convert(baseFlow flow.Flow, target domain.Domain) (space.Code, error) {
	c, err := s.Encode(baseFlow)
	if err != nil {
		return nil, err
	}
	src := c.Domain()
	if domain.Equal(src, target) {
		return c, nil
	}

	if _, ok := src.(domain.Untyped); ok {
		return s.convertUntyped(baseFlow, c, target)
	}

	switch target.(type) {
	case domain.Boolean:
		return s.convertToBoolean(baseFlow, c, src)
	case domain.Text:
		if isPrimitive(src) {
			return space.NewCast(c, target), nil
		}
	}

	if isNumeric(src) && isNumeric(target) {
		if lit, ok := c.(*space.Literal); ok {
			if val, ok := foldNumericLiteral(lit.Value, src, target); ok {
				return space.NewLiteral(val, target), nil
			}
		}
		return space.NewCast(c, target), nil
	}

	if _, ok := src.(domain.Text); ok {
		switch target.(type) {
		case domain.Integer, domain.Decimal, domain.Float,
			domain.Date, domain.Time, domain.DateTime:
			return space.NewCast(c, target), nil
		}
	}
	if _, ok := src.(domain.DateTime); ok {
		switch target.(type) {
		case domain.Date, domain.Time:
			return space.NewCast(c, target), nil
		}
	}

	return nil, errs.ErrCannotConvert.New(src.String(), target.String())
}

// convertUntyped specializes an untyped literal to target's concrete
// domain, unwrapping/rewrapping ScalarUnit decoration the way the
// original's ConvertUntyped loop does.
func (s *State) convertUntyped(baseFlow flow.Flow, c space.Code, target domain.Domain) (space.Code, error) {
	var wrappers []*space.ScalarUnit
	for {
		su, ok := c.(*space.ScalarUnit)
		if !ok {
			break
		}
		wrappers = append(wrappers, su)
		c = su.Inner
	}
	lit, ok := c.(*space.Literal)
	if !ok {
		return nil, errs.ErrCannotConvert.New("untyped", target.String())
	}
	text, _ := lit.Value.(string)
	var value interface{}
	var err error
	if lit.Value == nil {
		value = nil
	} else {
		value, err = coerce.ParseUntyped(text, target)
		if err != nil {
			return nil, errs.ErrCannotConvert.New("untyped", target.String())
		}
	}
	result := space.Code(space.NewLiteral(value, target))
	for i := len(wrappers) - 1; i >= 0; i-- {
		result = space.NewScalarUnit(result, wrappers[i].Space)
	}
	return result, nil
}

func (s *State) convertToBoolean(baseFlow flow.Flow, c space.Code, src domain.Domain) (space.Code, error) {
	switch src.(type) {
	case domain.Entity, domain.Record:
		sp, err := s.Relate(baseFlow)
		if err != nil {
			return nil, err
		}
		unit := space.NewScalarUnit(space.NewLiteral(true, domain.Boolean{}), sp)
		return code.NewNot(code.NewIsNull(unit)), nil
	case domain.Text:
		empty := space.NewLiteral("", domain.Text{})
		nullIf := code.NewNullIf(c, empty)
		return code.NewNot(code.NewIsNull(nullIf)), nil
	default:
		return code.NewNot(code.NewIsNull(c)), nil
	}
}

func isPrimitive(d domain.Domain) bool {
	switch d.(type) {
	case domain.Void, domain.List, domain.Record, domain.Identity, domain.Entity:
		return false
	default:
		return true
	}
}

func isNumeric(d domain.Domain) bool {
	switch d.(type) {
	case domain.Integer, domain.Decimal, domain.Float:
		return true
	default:
		return false
	}
}

// foldNumericLiteral converts a literal's Go value in place when src/target
// are both numeric, avoiding a runtime CastCode for the common constant
// case (spec.md §4.3: "numeric conversions embed as CastCode or fold
// literals").
func foldNumericLiteral(value interface{}, src, target domain.Domain) (interface{}, bool) {
	if value == nil {
		return nil, true
	}
	switch target.(type) {
	case domain.Integer:
		switch v := value.(type) {
		case int64:
			return v, true
		case float64:
			return int64(v), true
		}
	case domain.Float, domain.Decimal:
		switch v := value.(type) {
		case int64:
			return float64(v), true
		case float64:
			return v, true
		}
	}
	return nil, false
}

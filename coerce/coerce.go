// Package coerce implements the two domain-reconciliation adapters spec.md
// §4.1 calls the single source of truth for implicit conversions:
// Unary (UnaryCoerce) validates/specializes one domain, Binary
// (BinaryCoerce) finds the least domain covering two. encode.Convert inserts
// casts with the help of ParseUntyped; encode's Collect unpacking checks
// domains with Unary.
//
// Grounded on original_source/src/htsql/core/tr/coerce.py's promotion
// matrix; github.com/spf13/cast (a direct teacher dependency) supplies the
// string/number parsing ParseUntyped does when it converts untyped literal
// text to a concrete domain.
package coerce

import (
	"github.com/spf13/cast"

	"github.com/htscore/htscore/domain"
)

// Unary validates and specializes a domain to its canonical top-level
// form: untyped specializes to text (the only thing we know for certain
// about raw syntax is that it is textual) and composite domains
// (list/record/entity/identity/void) are forbidden as a code's own domain
// top-level (spec.md §4.1: "forbids list/record/entity/identity/void").
// Returns (nil, false) for a forbidden domain.
func Unary(d domain.Domain) (domain.Domain, bool) {
	switch dd := d.(type) {
	case domain.Untyped:
		return domain.Text{}, true
	case domain.Void, domain.List, domain.Record, domain.Identity, domain.Entity:
		return nil, false
	default:
		return dd, true
	}
}

// rank orders primitive domains from least to most general for Binary's
// promotion matrix; domains not listed here only coerce with themselves or
// untyped.
func rank(d domain.Domain) (int, bool) {
	switch d.(type) {
	case domain.Boolean:
		return 0, true
	case domain.Integer:
		return 1, true
	case domain.Decimal:
		return 2, true
	case domain.Float:
		return 3, true
	default:
		return 0, false
	}
}

// Binary returns the least domain covering both d1 and d2, or (nil, false)
// if no implicit conversion exists (spec.md §4.1's promotion matrix:
// boolean+untyped->boolean, integer+untyped->integer, integer+decimal
// ->decimal, integer+float->float, etc).
func Binary(d1, d2 domain.Domain) (domain.Domain, bool) {
	_, u1 := d1.(domain.Untyped)
	_, u2 := d2.(domain.Untyped)
	switch {
	case u1 && u2:
		return domain.Text{}, true
	case u1:
		return d2, true
	case u2:
		return d1, true
	}
	if domain.Equal(d1, d2) {
		return d1, true
	}
	if _, ok := d1.(domain.Text); ok {
		if _, ok := d2.(domain.Text); ok {
			return domain.Text{}, true
		}
	}
	r1, ok1 := rank(d1)
	r2, ok2 := rank(d2)
	if !ok1 || !ok2 || r1 == 0 || r2 == 0 {
		// booleans only coerce with themselves or untyped, handled above.
		return nil, false
	}
	if r1 >= r2 {
		return widen(d1, d2), true
	}
	return widen(d2, d1), true
}

// widen returns the wider of two ranked numeric domains, wide being d1
// (caller guarantees rank(d1) >= rank(d2)); a Decimal's precision/scale are
// widened to cover both operands when both sides are Decimal.
func widen(d1, d2 domain.Domain) domain.Domain {
	if dec1, ok := d1.(domain.Decimal); ok {
		if dec2, ok := d2.(domain.Decimal); ok {
			prec := dec1.Precision
			if dec2.Precision > prec {
				prec = dec2.Precision
			}
			scale := dec1.Scale
			if dec2.Scale > scale {
				scale = dec2.Scale
			}
			return domain.Decimal{Precision: prec, Scale: scale}
		}
	}
	return d1
}

// Fold applies coerce(d1,...,dn): Binary folded left-to-right, finished
// with Unary (spec.md §4.1).
func Fold(ds ...domain.Domain) (domain.Domain, bool) {
	if len(ds) == 0 {
		return nil, false
	}
	acc := ds[0]
	for _, d := range ds[1:] {
		next, ok := Binary(acc, d)
		if !ok {
			return nil, false
		}
		acc = next
	}
	return Unary(acc)
}

// ParseUntyped converts the textual value of an untyped literal into a Go
// value appropriate for the target domain, used by encode.Convert when it
// specializes a literal in place rather than wrapping it in a runtime cast.
func ParseUntyped(text string, target domain.Domain) (interface{}, error) {
	switch target.(type) {
	case domain.Boolean:
		return cast.ToBoolE(text)
	case domain.Integer:
		return cast.ToInt64E(text)
	case domain.Decimal, domain.Float:
		return cast.ToFloat64E(text)
	case domain.Text:
		return text, nil
	default:
		return text, nil
	}
}

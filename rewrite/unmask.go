package rewrite

import (
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/space"
)

// Unmask is pass 2 of spec.md §4.4: it elides operations the current mask
// already enforces. A Filtered whose predicate the mask already guarantees
// collapses to its base; a ScalarUnit whose space dominates the mask
// collapses to its own code (the row it would scalarize is already the
// mask's row); a sliced Ordered resets the mask to Root while unmasking its
// base, since a LIMIT/OFFSET breaks the "mask already enforces this"
// argument for anything underneath it.
//
// Open Question (a): a Quotient whose kernels are empty or, after
// unmasking, constant (no unit left in any kernel code) is rejected as a
// structural error rather than silently treated as a no-grouping quotient,
// since spec.md never describes a degenerate Quotient as admissible input
// to Compile.
//
// Grounded on original_source/.../core/tr/rewrite.py's UnmaskBySpace/
// UnmaskFilteredSpace/UnmaskOrderedSpace/UnmaskQuotientSpace and
// UnmaskScalarUnit.
func (s *State) Unmask(sp space.Space, mask space.Space) (space.Space, error) {
	if sp == nil {
		return nil, nil
	}
	switch t := sp.(type) {
	case *space.Root, *space.DirectTable:
		return t, nil

	case *space.Scalar:
		base, err := s.Unmask(t.BaseSpace, mask)
		if err != nil {
			return nil, err
		}
		return space.NewScalar(base), nil

	case *space.FiberTable:
		base, err := s.Unmask(t.BaseSpace, mask)
		if err != nil {
			return nil, err
		}
		return space.NewFiberTable(base, t.Join, t.Table), nil

	case *space.Filtered:
		base, err := s.Unmask(t.BaseSpace, mask)
		if err != nil {
			return nil, err
		}
		pred, err := s.unmaskCode(t.Predicate, mask)
		if err != nil {
			return nil, err
		}
		if space.Dominates(mask, space.NewFiltered(base, pred)) {
			return base, nil
		}
		return space.NewFiltered(base, pred), nil

	case *space.Ordered:
		if t.IsSliced() {
			base, err := s.Unmask(t.BaseSpace, s.Root)
			if err != nil {
				return nil, err
			}
			order, err := s.unmaskOrder(t.OrderBy, mask)
			if err != nil {
				return nil, err
			}
			return space.NewOrdered(base, order, t.Limit, t.Offset), nil
		}
		base, err := s.Unmask(t.BaseSpace, mask)
		if err != nil {
			return nil, err
		}
		order, err := s.unmaskOrder(t.OrderBy, mask)
		if err != nil {
			return nil, err
		}
		return space.NewOrdered(base, order, nil, nil), nil

	case *space.Quotient:
		base, err := s.Unmask(t.BaseSpace, mask)
		if err != nil {
			return nil, err
		}
		seed, err := s.Unmask(t.Seed, base)
		if err != nil {
			return nil, err
		}
		kernels, err := s.unmaskCodes(t.Kernels, seed)
		if err != nil {
			return nil, err
		}
		constant := true
		for _, k := range kernels {
			if len(space.Units(k)) > 0 {
				constant = false
				break
			}
		}
		if constant {
			return nil, errs.New(errs.ErrEmptyKernel.New())
		}
		return space.NewQuotient(base, seed, kernels), nil

	case *space.Complement:
		base, err := s.Unmask(t.BaseSpace, mask)
		if err != nil {
			return nil, err
		}
		q, ok := base.(*space.Quotient)
		if !ok {
			return nil, errs.New(errs.ErrDescendantExpected.New())
		}
		return space.NewComplement(q), nil

	case *space.Covering:
		base, err := s.Unmask(t.BaseSpace, mask)
		if err != nil {
			return nil, err
		}
		seed, err := s.Unmask(t.Seed, t.Seed)
		if err != nil {
			return nil, err
		}
		images, err := s.unmaskCodes(t.Images, t.Seed)
		if err != nil {
			return nil, err
		}
		var filter space.Code
		if t.Filter != nil {
			filter, err = s.unmaskCode(t.Filter, t.Seed)
			if err != nil {
				return nil, err
			}
		}
		out := *t
		out.BaseSpace = base
		out.Seed = seed
		out.Images = images
		out.Filter = filter
		return &out, nil

	default:
		return sp, nil
	}
}

func (s *State) unmaskOrder(os []space.Order, mask space.Space) ([]space.Order, error) {
	out := make([]space.Order, len(os))
	for i, o := range os {
		c, err := s.unmaskCode(o.Code, mask)
		if err != nil {
			return nil, err
		}
		out[i] = space.Order{Code: c, Asc: o.Asc}
	}
	return out, nil
}

// UnmaskCodes is the entry point core.Compile uses to unmask a segment's
// top-level codes (and, recursively, any dependent segment's) against the
// segment's own space once Unmask has finished rewriting that space.
func (s *State) UnmaskCodes(cs []space.Code, mask space.Space) ([]space.Code, error) {
	return s.unmaskCodes(cs, mask)
}

func (s *State) unmaskCodes(cs []space.Code, mask space.Space) ([]space.Code, error) {
	out := make([]space.Code, 0, len(cs))
	for _, c := range cs {
		uc, err := s.unmaskCode(c, mask)
		if err != nil {
			return nil, err
		}
		out = append(out, uc)
	}
	return out, nil
}

// unmaskCode elides a ScalarUnit whose space already dominates mask --
// its row is already the mask's row, so the unit degenerates to its own
// inner code -- and otherwise recurses structurally.
func (s *State) unmaskCode(c space.Code, mask space.Space) (space.Code, error) {
	if c == nil {
		return nil, nil
	}
	switch t := c.(type) {
	case *space.ScalarUnit:
		inner, err := s.unmaskCode(t.Inner, t.Space)
		if err != nil {
			return nil, err
		}
		if space.Dominates(t.Space, mask) {
			return inner, nil
		}
		return space.NewScalarUnit(inner, t.Space), nil

	case *space.Cast:
		inner, err := s.unmaskCode(t.BaseCode, mask)
		if err != nil {
			return nil, err
		}
		return space.NewCast(inner, t.Dom), nil

	case *space.Formula:
		args := make(map[string][]space.Code, len(t.Args))
		for name, vs := range t.Args {
			nv := make([]space.Code, len(vs))
			for i, v := range vs {
				uc, err := s.unmaskCode(v, mask)
				if err != nil {
					return nil, err
				}
				nv[i] = uc
			}
			args[name] = nv
		}
		return space.NewFormula(t.Sig, t.Dom, args), nil

	default:
		return c, nil
	}
}

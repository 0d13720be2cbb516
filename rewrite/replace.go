package rewrite

import "github.com/htscore/htscore/space"

// Replace substitutes every unit Recombine annotated with companions into
// c's expression tree, by the same pointer identity Collect walked the
// tree with -- the final step of spec.md §4.4's rewrite pipeline.
func Replace(c space.Code, r *Recombined) space.Code {
	if c == nil {
		return nil
	}
	if repl, ok := r.Replace[c]; ok {
		return repl
	}
	switch t := c.(type) {
	case *space.Cast:
		return space.NewCast(Replace(t.BaseCode, r), t.Dom)

	case *space.Formula:
		args := make(map[string][]space.Code, len(t.Args))
		for name, vs := range t.Args {
			nv := make([]space.Code, len(vs))
			for i, v := range vs {
				nv[i] = Replace(v, r)
			}
			args[name] = nv
		}
		return space.NewFormula(t.Sig, t.Dom, args)

	default:
		return c
	}
}

// ReplaceAll substitutes in each of cs.
func ReplaceAll(cs []space.Code, r *Recombined) []space.Code {
	out := make([]space.Code, len(cs))
	for i, c := range cs {
		out[i] = Replace(c, r)
	}
	return out
}

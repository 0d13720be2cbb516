package core

import (
	"github.com/htscore/htscore/binding"
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/encode"
	"github.com/htscore/htscore/errs"
	"github.com/htscore/htscore/flow"
	"github.com/htscore/htscore/frame"
	"github.com/htscore/htscore/pipe"
	"github.com/htscore/htscore/rewrite"
	"github.com/htscore/htscore/route"
	"github.com/htscore/htscore/space"
	"github.com/htscore/htscore/term"
)

// Compile runs the whole pipeline spec.md §2 describes over root -- Route,
// Encode/Unpack, the four-pass Rewrite, Compile, Assemble, Serialize and
// Pack -- and returns the executable plan.
func (c *Context) Compile(root binding.Binding) (*pipe.ProducePipe, error) {
	span := c.StartSpan("compile")
	defer span.Finish()
	c.Log.WithField("correlation_id", c.CorrelationID).Debug("compiling")

	rootFlow, err := route.Route(root)
	if err != nil {
		return nil, err
	}

	enc := encode.NewState(c.Catalog)
	bundle, err := enc.Unpack(rootFlow)
	if err != nil {
		return nil, err
	}

	seg, err := topSegment(bundle)
	if err != nil {
		return nil, err
	}

	rseg, err := rewriteSegment(seg)
	if err != nil {
		return nil, err
	}

	tstate := term.NewState(space.NewRoot())
	segTerm, err := tstate.CompileSegment(rseg)
	if err != nil {
		return nil, err
	}

	compiled, err := assembleCompiledSegment(segTerm)
	if err != nil {
		return nil, err
	}

	packed, err := pipe.Pack(rootFlow, compiled, "")
	if err != nil {
		return nil, err
	}

	data := pipe.ComposePipe{
		Left:  pipe.SQLPipe{SQL: compiled.SQL, OutputDomains: compiled.OutputDomains},
		Right: packed,
	}
	return &pipe.ProducePipe{Meta: topMeta(rootFlow), Data: data}, nil
}

// topSegment picks the one top-level Segment Unpack produced, or wraps a
// flat code list into an implicit segment (spec.md §4.3: "a top-level
// non-collect flow is wrapped into an implicit segment"). More than one
// top-level segment means the query's root expression carried more than
// one independent Collect, which has no single space to run the plan
// over.
func topSegment(b *encode.Bundle) (*encode.Segment, error) {
	switch len(b.Segments) {
	case 0:
		return encode.ImplicitSegment(b.Codes)
	case 1:
		return b.Segments[0], nil
	default:
		return nil, errs.New(errs.ErrAmbiguousSegment.New())
	}
}

// rewriteSegment runs Rewrite/Unmask/Collect/Recombine/Replace (spec.md
// §4.4) over one segment's space and codes, each segment getting its own
// rewrite.State, then recurses into Dependents. Rewrite and Unmask are
// pure structural walks (rewrite.Rewrite never mutates State beyond
// reading its Root field), so rewriting seg.Root here before unmasking
// against it costs little and keeps both sides of that comparison in the
// same canonical shape.
func rewriteSegment(seg *encode.Segment) (*encode.Segment, error) {
	st := rewrite.NewState(seg.Root)

	root, err := st.Rewrite(seg.Root)
	if err != nil {
		return nil, err
	}
	sp, err := st.Rewrite(seg.Space)
	if err != nil {
		return nil, err
	}
	sp, err = st.Unmask(sp, root)
	if err != nil {
		return nil, err
	}

	codes := make([]space.Code, len(seg.Codes))
	for i, c := range seg.Codes {
		rc, err := st.RewriteCode(c)
		if err != nil {
			return nil, err
		}
		codes[i] = rc
	}
	codes, err = st.UnmaskCodes(codes, root)
	if err != nil {
		return nil, err
	}

	st.Collect(codes...)
	recombined := st.Recombine()
	codes = rewrite.ReplaceAll(codes, recombined)

	deps := make([]*encode.Segment, len(seg.Dependents))
	for i, d := range seg.Dependents {
		rd, err := rewriteSegment(d)
		if err != nil {
			return nil, err
		}
		deps[i] = rd
	}

	return &encode.Segment{Root: root, Space: sp, Codes: codes, Dependents: deps}, nil
}

// assembleCompiledSegment zips one term.SegmentTerm tree into the
// pipe.CompiledSegment tree Pack consumes: Assemble+Serialize one Frame per
// segment, selecting Codes then Superkeys then (if it has dependents) Keys
// -- original_source's assemble_frame builds the same three groups in that
// order so a dependent can correlate back against its superkeys.
func assembleCompiledSegment(t *term.SegmentTerm) (*pipe.CompiledSegment, error) {
	all := append(append([]space.Code{}, t.Codes...), t.Superkeys...)
	if len(t.Dependents) > 0 {
		all = append(all, t.Keys...)
	}
	f, err := frame.Assemble(t.Kid, all)
	if err != nil {
		return nil, err
	}
	sql, err := frame.Serialize(f)
	if err != nil {
		return nil, err
	}

	domains := make([]domain.Domain, len(t.Codes))
	for i, c := range t.Codes {
		domains[i] = c.Domain()
	}

	deps := make([]*pipe.CompiledSegment, len(t.Dependents))
	for i, d := range t.Dependents {
		cd, err := assembleCompiledSegment(d)
		if err != nil {
			return nil, err
		}
		deps[i] = cd
	}

	return &pipe.CompiledSegment{SQL: sql, OutputDomains: domains, Dependents: deps}, nil
}

// topMeta is the declared output domain of the whole query, reported on
// ProducePipe.Meta -- a bound query's root expression is ordinarily a
// binding.Collect (and so a flow.Collect here); an implicit top-level
// segment (topSegment's fallback) has no such declared domain, so it
// reports domain.Void{} instead.
func topMeta(f flow.Flow) domain.Domain {
	if c, ok := f.(*flow.Collect); ok {
		return c.Dom
	}
	return domain.Void{}
}

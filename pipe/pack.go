package pipe

import (
	"github.com/htscore/htscore/domain"
	"github.com/htscore/htscore/flow"
)

// CompiledSegment is core.Compile's handoff to Pack: one segment's
// assembled-and-serialized SQL text plus the domains of its selected
// Codes, with Dependents in the same order encode.Segment.Dependents (and
// so flow.Collect's own nested Collects) were discovered in.
type CompiledSegment struct {
	SQL           string
	OutputDomains []domain.Domain
	Dependents    []*CompiledSegment
}

// segmentPipes is the pre-built per-segment pipe set Pack's flow walk
// pulls from, mirroring original_source's assemble_frame's code_pipes:
// one ExtractPipe per selected column, in column order.
type segmentPipes struct {
	sql           string
	outputDomains []domain.Domain
	codePipes     []Pipe
	deps          []*segmentPipes
}

func buildSegmentPipes(cs *CompiledSegment) *segmentPipes {
	codePipes := make([]Pipe, len(cs.OutputDomains))
	for i := range codePipes {
		codePipes[i] = ExtractPipe{Index: i}
	}
	deps := make([]*segmentPipes, len(cs.Dependents))
	for i, d := range cs.Dependents {
		deps[i] = buildSegmentPipes(d)
	}
	return &segmentPipes{sql: cs.SQL, outputDomains: cs.OutputDomains, codePipes: codePipes, deps: deps}
}

// packState mirrors original_source's PackingState: it walks a flow tree
// pulling the current segment's pre-built code pipes in the same order
// Unpack produced the matching Bundle.Codes, descending into a dependent
// segment's own pipes the moment the flow walk reaches that segment's
// flow.Collect.
type packState struct {
	seg      *segmentPipes
	segStack []*segmentPipes

	codes     []Pipe
	codeStack [][]Pipe

	depIdx      int
	depIdxStack []int

	name      string
	nameStack []string

	isTop bool
}

func newPackState(seg *segmentPipes, name string) *packState {
	return &packState{
		seg:   seg,
		codes: append([]Pipe{}, seg.codePipes...),
		name:  name,
		isTop: true,
	}
}

func (s *packState) pushName(n string) {
	s.nameStack = append(s.nameStack, s.name)
	s.name = n
}

func (s *packState) popName() {
	n := len(s.nameStack)
	s.name = s.nameStack[n-1]
	s.nameStack = s.nameStack[:n-1]
}

func (s *packState) descend(index int) {
	s.segStack = append(s.segStack, s.seg)
	s.codeStack = append(s.codeStack, s.codes)
	s.depIdxStack = append(s.depIdxStack, s.depIdx)

	s.seg = s.seg.deps[index]
	s.codes = append([]Pipe{}, s.seg.codePipes...)
	s.depIdx = 0
}

func (s *packState) ascend() {
	n := len(s.segStack)
	s.seg = s.segStack[n-1]
	s.segStack = s.segStack[:n-1]
	s.codes = s.codeStack[n-1]
	s.codeStack = s.codeStack[:n-1]
	s.depIdx = s.depIdxStack[n-1]
	s.depIdxStack = s.depIdxStack[:n-1]
}

func (s *packState) pullCode() Pipe {
	p := s.codes[0]
	s.codes = s.codes[1:]
	return p
}

func (s *packState) pack(f flow.Flow) (Pipe, error) {
	if _, ok := f.(*flow.Collect); !ok {
		s.isTop = false
	}
	switch ff := f.(type) {
	case *flow.Collect:
		return s.packCollect(ff)
	case *flow.Selection:
		return s.packSelection(ff)
	case *flow.Identity:
		return s.packIdentity(ff)
	default:
		return s.pullCode(), nil
	}
}

// packCollect mirrors PackCollect: the top-level segment's own seed packs
// in place (wrapped as an IteratePipe, since its rows come from the
// SQLPipe core.Compile composes around the whole plan); a nested segment
// instead gets its own SQLPipe run and composed with its packed seed --
// original_source's ComposePipe(dependent_pipe, IteratePipe(seed)) assumed
// a prior MixPipe merge-join already laid the dependent's rows into the
// trunk row; that merge-join's wiring lives in the connect/execute layer,
// which spec.md places out of scope, so here each dependent segment is
// instead represented as independently re-run.
func (s *packState) packCollect(ff *flow.Collect) (Pipe, error) {
	if !s.isTop {
		idx := s.depIdx
		s.depIdx++
		child := s.seg.deps[idx]
		s.descend(idx)
		inner, err := s.pack(ff.Seed)
		s.ascend()
		if err != nil {
			return nil, err
		}
		sqlPipe := SQLPipe{SQL: child.sql, OutputDomains: child.outputDomains}
		return ComposePipe{Left: sqlPipe, Right: IteratePipe{Value: inner}}, nil
	}
	s.isTop = false
	inner, err := s.pack(ff.Seed)
	if err != nil {
		return nil, err
	}
	return IteratePipe{Value: inner}, nil
}

// packSelection mirrors PackSelection: the first pulled code is the
// element's own presence indicator, folded away when it is the constant
// ValuePipe{true}, otherwise wrapping the record in an AnnihilatePipe.
func (s *packState) packSelection(ff *flow.Selection) (Pipe, error) {
	test := s.pullCode()
	var names []string
	if rec, ok := ff.Dom.(domain.Record); ok {
		for _, f := range rec.Fields {
			names = append(names, f.Name)
		}
	}
	fieldPipes := make([]Pipe, len(ff.Elements))
	for i, el := range ff.Elements {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		s.pushName(name)
		fp, err := s.pack(el)
		s.popName()
		if err != nil {
			return nil, err
		}
		fieldPipes[i] = fp
	}
	rec := RecordPipe{Fields: fieldPipes, Names: names, Name: s.name}
	if isAlwaysTrue(test) {
		return rec, nil
	}
	return AnnihilatePipe{Test: test, Value: rec}, nil
}

// packIdentity mirrors PackIdentity: same indicator handling as
// packSelection, but an identity's elements carry no field names.
func (s *packState) packIdentity(ff *flow.Identity) (Pipe, error) {
	test := s.pullCode()
	fieldPipes := make([]Pipe, len(ff.Elements))
	for i, el := range ff.Elements {
		fp, err := s.pack(el)
		if err != nil {
			return nil, err
		}
		fieldPipes[i] = fp
	}
	rec := RecordPipe{Fields: fieldPipes, Name: s.name}
	if isAlwaysTrue(test) {
		return rec, nil
	}
	return AnnihilatePipe{Test: test, Value: rec}, nil
}

func isAlwaysTrue(p Pipe) bool {
	vp, ok := p.(ValuePipe)
	if !ok {
		return false
	}
	b, ok := vp.Data.(bool)
	return ok && b
}

// Pack assembles f (the routed top-level query tree) and cs (the compiled
// SQL for its segment tree, built by core.Compile) into an executable-plan
// Pipe (spec.md §4.8).
//
// Grounded on original_source/.../core/tr/pack.py's bottom-level
// `pack(flow, segment, name)` entry point and its Pack adapter hierarchy.
func Pack(f flow.Flow, cs *CompiledSegment, name string) (Pipe, error) {
	seg := buildSegmentPipes(cs)
	st := newPackState(seg, name)
	p, err := st.pack(f)
	if err != nil {
		return nil, err
	}
	if _, ok := f.(*flow.Collect); !ok {
		p = ComposePipe{Left: IteratePipe{Value: p}, Right: SinglePipe{}}
	}
	return p, nil
}

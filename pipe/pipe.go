// Package pipe is the executable-plan ADT spec.md §4.8 describes: the
// output of Pack, built from a compiled segment tree and meant to be run
// against a row source without any further reference to Space/Code/Term.
// Design Notes §9 singles this stage out explicitly ("closures as pipes:
// ... replace with an explicit data structure that can be introspected,
// logged, or serialized, then a separate small interpreter that walks it")
// -- every Pipe variant here is plain data, never a closure.
//
// Grounded on original_source/.../core/tr/pipe.py's Pipe subclasses, kept
// as data rather than as the original's `__call__`-returns-a-closure
// design; gopkg.in/vmihailenco/msgpack.v2 gives the ADT a concrete
// serialize/inspect form in place of the original's YAMLable/__yaml__.
package pipe

import "github.com/htscore/htscore/domain"

// Pipe is one node of an executable plan.
type Pipe interface {
	isPipe()
}

// ValuePipe always produces the same constant, regardless of input.
type ValuePipe struct {
	Data interface{}
}

func (ValuePipe) isPipe() {}

// ExtractPipe pulls the Index'th field out of a row tuple.
type ExtractPipe struct {
	Index int
}

func (ExtractPipe) isPipe() {}

// RecordPipe builds a tuple (optionally named, per Fields/Names) from one
// sub-pipe per field. Name is the tag of the Selection/Identity element
// this record was packed for (empty at the top level), mirroring
// original_source's per-level Record.make(state.name, ...) record class.
type RecordPipe struct {
	Fields []Pipe
	Names  []string
	Name   string
}

func (RecordPipe) isPipe() {}

// IteratePipe applies Value to every row of a row sequence.
type IteratePipe struct {
	Value Pipe
}

func (IteratePipe) isPipe() {}

// ComposePipe runs Left, then feeds its output into Right.
type ComposePipe struct {
	Left, Right Pipe
}

func (ComposePipe) isPipe() {}

// AnnihilatePipe runs Value only if Test evaluates to true, otherwise
// produces no row (the pipe form of a masked/filtered record, spec.md
// §4.3's indicator code for an optional Selection/Identity element).
type AnnihilatePipe struct {
	Test, Value Pipe
}

func (AnnihilatePipe) isPipe() {}

// SinglePipe asserts a row sequence has at most one row and unwraps it (or
// produces nil), used to collapse a scalar top-level query's single-row
// result back to a bare value.
type SinglePipe struct{}

func (SinglePipe) isPipe() {}

// MixPipe merge-joins a trunk row sequence with one correlated row
// sequence per dependent segment, keyed by KeyPipes[0] (the trunk's own
// key) against KeyPipes[1:] (each dependent's superkey). Retained for the
// ADT's structural completeness (original_source defines it in pipe.py);
// Pack itself does not construct one -- see pack.go's doc comment on why
// dependents are composed as independently re-run SQLPipes instead of a
// merge-joined mix, an execution-layer optimization spec.md places out of
// scope.
type MixPipe struct {
	KeyPipes []Pipe
}

func (MixPipe) isPipe() {}

// SQLPipe runs one SQL statement and returns its result rows, typed by
// InputDomains (bind variables, nil for a parameterless query) and
// OutputDomains (selected columns).
type SQLPipe struct {
	SQL           string
	InputDomains  []domain.Domain
	OutputDomains []domain.Domain
}

func (SQLPipe) isPipe() {}

// BatchSQLPipe is SQLPipe's batched-fetch variant (original_source's
// chunked-cursor strategy for large result sets). Retained for ADT
// completeness; Pack never chooses it over SQLPipe, since batch size is an
// execution-layer tuning knob spec.md places out of scope.
type BatchSQLPipe struct {
	SQL           string
	InputDomains  []domain.Domain
	OutputDomains []domain.Domain
	Batch         int
}

func (BatchSQLPipe) isPipe() {}

// ProducePipe is the outermost pipe of a compiled query: Meta describes the
// shape of the value Data produces (spec.md §4.8's "Pipe ... the outermost
// wraps the whole plan as a Product").
type ProducePipe struct {
	Meta domain.Domain
	Data Pipe
}

func (ProducePipe) isPipe() {}

package core

import (
	"github.com/htscore/htscore/binding"
	"github.com/htscore/htscore/errs"
)

// Cmd is what Summon resolves a top-level pipe command to (spec.md §6's
// Summon protocol).
//
// Grounded on original_source/.../core/cmd/summon.py's Summon protocol and
// command.py's Cmd hierarchy: the dispatch-key table only, per
// SPEC_FULL.md section D -- the formatter bodies themselves (TextFormat,
// HTMLFormat, ...) stay out of scope, spec.md §1's Non-goals excluding
// presentation.
type Cmd interface{ isCmd() }

// FetchCmd (also reachable via the `retrieve` name) compiles and runs
// Query as-is, returning its Product.
type FetchCmd struct{ Query binding.Binding }

func (FetchCmd) isCmd() {}

// FormatCmd renders Query through the named presentation format (txt,
// html, raw, json, csv, tsv, xml); Format only records which one was
// asked for.
type FormatCmd struct {
	Query  binding.Binding
	Format string
}

func (FormatCmd) isCmd() {}

// SQLCmd asks for Query's compiled SQL text rather than its result.
type SQLCmd struct{ Query binding.Binding }

func (SQLCmd) isCmd() {}

// formats is the name set original_source's SummonTxt/SummonHTML/
// SummonRaw/SummonJSON/SummonCSV/SummonTSV/SummonXML each hard-coded one
// entry of via their `format` class attribute.
var formats = map[string]bool{
	"txt": true, "html": true, "raw": true, "json": true,
	"csv": true, "tsv": true, "xml": true,
}

// Summon resolves one top-level pipe command name and its argument list
// into a Cmd. Every command recognised here (fetch/retrieve, the seven
// format names, sql) takes exactly one argument: the query to run.
func Summon(name string, arguments []binding.Binding) (Cmd, error) {
	if len(arguments) != 1 {
		return nil, errs.New(errs.ErrBadArity.New("expected 1 argument"))
	}
	query := arguments[0]
	switch {
	case name == "fetch" || name == "retrieve":
		return FetchCmd{Query: query}, nil
	case name == "sql":
		return SQLCmd{Query: query}, nil
	case formats[name]:
		return FormatCmd{Query: query, Format: name}, nil
	default:
		return nil, errs.New(errs.ErrNameNotFound.New("unknown command: " + name))
	}
}

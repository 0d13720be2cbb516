// Package errs implements the compiler's single hierarchical error type
// (spec.md §7): a stack of (note, mark) frames built up by TranslateGuard
// as an error propagates out through nested pass calls, plus the error-kind
// taxonomy every pass raises against.
//
// The kind taxonomy follows the teacher's own idiom in auth/auth.go:
// package-level errors.NewKind("...") values from gopkg.in/src-d/go-errors.v1,
// tested with errors.Is-style Kind.Is(err). github.com/pkg/errors supplies
// Wrap/Cause so a note frame can be attached without discarding the
// underlying *errors.Error kind.
package errs

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
	goerrors "gopkg.in/src-d/go-errors.v1"
)

// Mark is a source location in the original query text or syntax tree,
// attached to every frame of an Error's note stack.
type Mark struct {
	Source string // e.g. a flow/binding node's textual origin
	Offset int
	Line   int
	Column int
}

func (m Mark) String() string {
	if m.Source == "" {
		return fmt.Sprintf("%d:%d", m.Line, m.Column)
	}
	return fmt.Sprintf("%s:%d:%d", m.Source, m.Line, m.Column)
}

// Frame is one (note, mark) pair in an Error's stack, innermost first.
type Frame struct {
	Note string
	Mark Mark
}

// Error is the compiler's single hierarchical error type. It wraps a kind
// (a *goerrors.Error built from one of the Kind values below) together with
// a stack of context frames pushed by TranslateGuard.
type Error struct {
	cause  error
	Frames []Frame
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.cause.Error())
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "\n    while %s (%s)", f.Note, f.Mark)
	}
	return b.String()
}

// Cause returns the underlying kind error, for use with Is/As or
// goerrors.Error.Is.
func (e *Error) Cause() error { return e.cause }

// Unwrap supports errors.Is / errors.As against the wrapped kind.
func (e *Error) Unwrap() error { return e.cause }

// New wraps a raw error (usually produced by one of the Kind values'
// New(...)) as a compiler Error with an empty frame stack.
func New(cause error) *Error {
	if ce, ok := cause.(*Error); ok {
		return ce
	}
	return &Error{cause: cause}
}

// Push appends a context frame. Guards fire from the innermost scope
// outwards, so Frames (and Error()'s output) list the innermost frame first.
// TranslateGuard is the usual caller.
func (e *Error) Push(note string, mark Mark) *Error {
	e.Frames = append(e.Frames, Frame{Note: note, Mark: mark})
	return e
}

// TranslateGuard is an RAII-style scope: call it with defer and a pointer to
// the named error return value. If the wrapped function's error is non-nil
// when the scope exits, the guard wraps it in an *Error (if not already one)
// and pushes a frame naming this node. This is the Go shape of spec.md §7's
// "translate_guard(node) ... appends the given node's source mark to any
// Error leaving the scope", modeled on the teacher's auth.Audit decorator
// which annotates errors as they leave a call (auth/audit.go).
func TranslateGuard(errp *error, note string, mark Mark) {
	if *errp == nil {
		return
	}
	wrapped, ok := (*errp).(*Error)
	if !ok {
		wrapped = New(pkgerrors.WithMessage(*errp, note))
	}
	wrapped.Push(note, mark)
	*errp = wrapped
}

// Kind is a named error category; it is a thin, generic-naming wrapper
// around goerrors.Kind matching the teacher's `errors.NewKind(msg)` idiom.
type Kind struct {
	k *goerrors.Kind
}

// NewKind declares a new error kind with a message format string, exactly
// as auth/auth.go declares ErrNotAuthorized = errors.NewKind("not authorized").
func NewKind(message string) Kind { return Kind{k: goerrors.NewKind(message)} }

// New creates a new error of this kind.
func (k Kind) New(args ...interface{}) error { return k.k.New(args...) }

// Is reports whether err (or any error it wraps) is of this kind.
func (k Kind) Is(err error) bool {
	for err != nil {
		if k.k.Is(err) {
			return true
		}
		switch e := err.(type) {
		case interface{ Unwrap() error }:
			err = e.Unwrap()
		case interface{ Cause() error }:
			err = e.Cause()
		default:
			return false
		}
	}
	return false
}

// Taxonomy (spec.md §7): syntactic, semantic, structural, conversion, runtime.
var (
	// syntactic — raised by the upstream parser, re-exported here only so
	// the core can recognise and re-mark them as they pass through Route.
	ErrUnknownCharacter = NewKind("unknown character")
	ErrUnexpectedEnd    = NewKind("unexpected end of input")
	ErrUnbalanced       = NewKind("unbalanced parentheses")

	// semantic — Route, Encode
	ErrNameNotFound      = NewKind("name not found: %s")
	ErrAmbiguous         = NewKind("ambiguous name: %s")
	ErrBadArity          = NewKind("invalid number of arguments to %s")
	ErrTypeMismatch      = NewKind("type mismatch: %s")
	ErrSingularExpected  = NewKind("expected a singular expression")
	ErrPluralExpected    = NewKind("expected a plural expression")
	ErrDescendantExpected = NewKind("expected a descendant expression")
	ErrCannotRoute       = NewKind("cannot route an expression: %s")
	ErrAmbiguousSegment  = NewKind("ambiguous segment flow")

	// structural — Rewrite, Compile
	ErrEmptyKernel   = NewKind("empty or constant kernel")
	ErrKeylessTable  = NewKind("unable to connect a table lacking a primary key: %s")

	// conversion — Convert
	ErrCannotConvert = NewKind("cannot convert %s to %s")

	// runtime — execution
	ErrPermission = NewKind("permission denied: %s")
	ErrConnection = NewKind("connection error: %s")
	ErrSQL        = NewKind("SQL error: %s")
)

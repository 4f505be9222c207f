// Package errs implements marble's two error channels (spec.md §7):
// ParseError for code-generation-time failures and RuntimeError for
// execution-time failures. Both carry a source location and a kind tag;
// both wrap github.com/pkg/errors at the point they are first raised so
// a Go-level stack trace is attached in addition to the marble-level
// call-stack trace RuntimeError assembles from the VM's frame stack.
//
// This generalizes smog's pkg/vm/errors.go (a single hand-rolled
// RuntimeError{Message, StackTrace []StackFrame} with manual
// strings.Builder formatting) into spec.md's two-kind, kind-tagged
// scheme, keeping smog's "build the trace from frames, render top-down"
// formatting shape but replacing its ad hoc message string with a
// structured Kind plus github.com/pkg/errors-provided stack capture.
package errs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Loc mirrors ast.Loc without importing internal/ast, keeping this
// low-level package free of a dependency on the AST shape.
type Loc struct {
	Start, End int
}

// ParseKind discriminates code-generation-time errors (spec.md §7).
type ParseKind string

const (
	SyntaxError ParseKind = "SyntaxError"
	NameError   ParseKind = "Name"
)

// ParseError is raised by internal/codegen. internal/parser reports its
// syntax errors as a plain error instead.
type ParseError struct {
	Kind    ParseKind
	Loc     Loc
	Message string
	cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at [%d:%d]: %s", e.Kind, e.Loc.Start, e.Loc.End, e.Message)
}

// Unwrap exposes the github.com/pkg/errors-attached stack so errors.Is/As
// and errors.Cause both work on a ParseError.
func (e *ParseError) Unwrap() error { return e.cause }

// NewParseError builds a ParseError, attaching a Go-level stack trace via
// github.com/pkg/errors.WithStack.
func NewParseError(kind ParseKind, loc Loc, format string, args ...interface{}) *ParseError {
	msg := fmt.Sprintf(format, args...)
	return &ParseError{Kind: kind, Loc: loc, Message: msg, cause: errors.WithStack(errors.New(msg))}
}

// RuntimeKind discriminates execution-time errors (spec.md §7).
type RuntimeKind string

const (
	TypeError         RuntimeKind = "Type"
	ArgumentError     RuntimeKind = "Argument"
	NoMethodError     RuntimeKind = "NoMethod"
	RuntimeNameError  RuntimeKind = "Name"
	ZeroDivisionError RuntimeKind = "ZeroDivision"
	UnimplementedErr  RuntimeKind = "Unimplemented"
	InternalError     RuntimeKind = "Internal"
)

// Frame is one entry in the call-stack trace attached to a RuntimeError,
// assembled by internal/vm from its frame stack at the point an error is
// raised (kept from smog's StackFrame shape, trimmed to the fields
// marble's frame representation actually has).
type Frame struct {
	Method string // method name, or "<main>" for the top-level frame
	PC     int    // instruction pointer within that frame's ISeq
	Loc    Loc    // nearest preceding source-map entry
}

// RuntimeError is returned by internal/vm. It carries the error kind, the
// nearest source-map location, and the full call-frame trace active at
// the point the error was raised (spec.md §7: "the interpreter does not
// attempt local recovery: an error unwinds all active frames").
type RuntimeError struct {
	Kind    RuntimeKind
	Loc     Loc
	Message string
	Trace   []Frame
	cause   error
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if len(e.Trace) > 0 {
		b.WriteString("\n\nCall stack (most recent call first):")
		for i := len(e.Trace) - 1; i >= 0; i-- {
			f := e.Trace[i]
			fmt.Fprintf(&b, "\n  at %s [pc=%d, loc=%d:%d]", f.Method, f.PC, f.Loc.Start, f.Loc.End)
		}
	}
	return b.String()
}

func (e *RuntimeError) Unwrap() error { return e.cause }

// NewRuntimeError builds a RuntimeError with the given kind, location,
// and call-frame trace, attaching a Go-level stack trace.
func NewRuntimeError(kind RuntimeKind, loc Loc, trace []Frame, format string, args ...interface{}) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	return &RuntimeError{Kind: kind, Loc: loc, Message: msg, Trace: trace, cause: errors.WithStack(errors.New(msg))}
}

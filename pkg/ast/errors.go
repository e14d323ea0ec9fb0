package ast

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/source"
)

// ErrorKind names the category of a runtime failure.
type ErrorKind string

const (
	KindArithmetic     ErrorKind = "ArithmeticError"
	KindType           ErrorKind = "TypeError"
	KindUnknownCommand ErrorKind = "UnknownCommandError"
	KindArity          ErrorKind = "ArityError"
	KindUnbound        ErrorKind = "UnboundError"
	KindCommand        ErrorKind = "CommandError"
)

var kindCodes = map[ErrorKind]string{
	KindArithmetic:     diagnostics.EArithmetic,
	KindType:           diagnostics.EType,
	KindUnknownCommand: diagnostics.EUnknownCommand,
	KindArity:          diagnostics.EArity,
	KindUnbound:        diagnostics.EUnbound,
	KindCommand:        diagnostics.ECommand,
}

// RuntimeError is a failure raised while executing a program.
type RuntimeError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Span    *source.Span
	// Name is the offending command for UnknownCommandError and ArityError.
	Name string
	Hint string
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// Diagnostic converts the error into a diagnostic record.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Error(), e.Span, e.Hint)
}

func newError(kind ErrorKind, span source.Span, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Kind:    kind,
		Code:    kindCodes[kind],
		Message: fmt.Sprintf(format, args...),
		Span:    &span,
	}
}

// IsKind reports whether err is a RuntimeError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var rerr *RuntimeError
	return errors.As(err, &rerr) && rerr.Kind == kind
}

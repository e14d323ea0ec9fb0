// Package diagnostics defines WarPy diagnostic types for lex/parse/build/check
// and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/thomasrohde/warpy/pkg/source"
)

// Diagnostic code constants.
const (
	ELex            = "E_LEX"
	EParse          = "E_PARSE"
	EAst            = "E_AST"
	EArithmetic     = "E_ARITHMETIC"
	EType           = "E_TYPE"
	EUnknownCommand = "E_UNKNOWN_COMMAND"
	EArity          = "E_ARITY"
	EUnbound        = "E_UNBOUND"
	ECommand        = "E_COMMAND"
	EIO             = "E_IO"
	EConfig         = "E_CONFIG"

	WDuplicateDecl = "W_DUPLICATE_DECL"
	WUnused        = "W_UNUSED"
	WStyle         = "W_STYLE"
)

// Severity distinguishes fatal diagnostics from advisory ones.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic represents a front-end, validation, or runtime diagnostic.
type Diagnostic struct {
	Code     string       `json:"code"`
	Severity Severity     `json:"severity,omitempty"`
	Message  string       `json:"message"`
	Span     *source.Span `json:"span,omitempty"`
	Hint     string       `json:"hint,omitempty"`
}

// MakeDiag creates a new error Diagnostic.
func MakeDiag(code, message string, span *source.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Message:  message,
		Span:     span,
		Hint:     hint,
	}
}

// MakeWarning creates a new warning Diagnostic.
func MakeWarning(code, message string, span *source.Span, hint string) Diagnostic {
	d := MakeDiag(code, message, span, hint)
	d.Severity = SeverityWarning
	return d
}

// HasErrors reports whether any diagnostic in diags has error severity.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity != SeverityWarning {
			return true
		}
	}
	return false
}

var (
	errorLabel   = color.New(color.FgRed, color.Bold)
	warningLabel = color.New(color.FgYellow, color.Bold)
	arrow        = color.New(color.FgBlue)
	hintLabel    = color.New(color.FgCyan)
)

// FormatDiagnostic formats a single diagnostic for display.
// Colors follow color.NoColor, so callers decide whether a terminal is attached.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = d.Span.String()
	}
	label := errorLabel
	sev := SeverityError
	if d.Severity == SeverityWarning {
		label = warningLabel
		sev = SeverityWarning
	}
	out := fmt.Sprintf("%s: %s\n  %s %s", label.Sprintf("%s[%s]", sev, d.Code), d.Message, arrow.Sprint("-->"), loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  %s %s", hintLabel.Sprint("hint:"), d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

package diagnostics_test

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/source"
)

func init() {
	color.NoColor = true
}

func TestMakeDiag(t *testing.T) {
	span := &source.Span{File: "test.wp40k", StartLine: 1, StartCol: 1, EndLine: 1, EndCol: 5}
	d := diagnostics.MakeDiag(diagnostics.EParse, "unexpected token", span, "check syntax")

	if d.Code != diagnostics.EParse {
		t.Errorf("got Code = %q, want %q", d.Code, diagnostics.EParse)
	}
	if d.Message != "unexpected token" {
		t.Errorf("got Message = %q, want %q", d.Message, "unexpected token")
	}
	if d.Severity != diagnostics.SeverityError {
		t.Errorf("got Severity = %q, want error", d.Severity)
	}
}

func TestFormatDiagnosticPretty(t *testing.T) {
	span := &source.Span{File: "test.wp40k", StartLine: 3, StartCol: 5, EndLine: 3, EndCol: 10}
	d := diagnostics.MakeDiag(diagnostics.EUnknownCommand, "unknown command 'purge_xenos'", span, "did you mean 'purge_the_xenos'?")

	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.Contains(out, "error[E_UNKNOWN_COMMAND]") {
		t.Errorf("expected error code in output, got: %s", out)
	}
	if !strings.Contains(out, "test.wp40k:3:5") {
		t.Errorf("expected location in output, got: %s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("expected hint in output, got: %s", out)
	}
}

func TestFormatWarningPretty(t *testing.T) {
	d := diagnostics.MakeWarning(diagnostics.EUnbound, "'x' is read before it is bound", nil, "")
	out := diagnostics.FormatDiagnostic(d, true)
	if !strings.HasPrefix(out, "warning[E_UNBOUND]") {
		t.Errorf("expected warning prefix, got: %s", out)
	}
	if !strings.Contains(out, "<unknown>") {
		t.Errorf("expected unknown location, got: %s", out)
	}
}

func TestFormatDiagnosticJSON(t *testing.T) {
	d := diagnostics.MakeDiag(diagnostics.ELex, "bad token", nil, "")
	out := diagnostics.FormatDiagnostic(d, false)
	if !strings.Contains(out, `"code":"E_LEX"`) {
		t.Errorf("expected JSON code in output, got: %s", out)
	}
}

func TestHasErrors(t *testing.T) {
	warn := diagnostics.MakeWarning(diagnostics.EUnbound, "w", nil, "")
	errd := diagnostics.MakeDiag(diagnostics.EArity, "e", nil, "")

	if diagnostics.HasErrors(nil) {
		t.Error("nil slice should have no errors")
	}
	if diagnostics.HasErrors([]diagnostics.Diagnostic{warn}) {
		t.Error("warnings alone should not count as errors")
	}
	if !diagnostics.HasErrors([]diagnostics.Diagnostic{warn, errd}) {
		t.Error("expected error to be detected")
	}
}

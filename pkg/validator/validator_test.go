package validator_test

import (
	"io"
	"strings"
	"testing"

	"github.com/thomasrohde/warpy/pkg/builder"
	"github.com/thomasrohde/warpy/pkg/commands"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/parser"
	"github.com/thomasrohde/warpy/pkg/validator"
)

// mustParseAndValidate builds source and validates it against the default
// registry. It fatals on front-end errors so cases focus on the checker.
func mustParseAndValidate(t *testing.T, source string, opts validator.Options) []diagnostics.Diagnostic {
	t.Helper()
	tree, diags := parser.Parse(source, "test.wp40k")
	if len(diags) > 0 {
		t.Fatalf("unexpected parse error: %s", diags[0].Message)
	}
	prog, diags := builder.Build(tree)
	if len(diags) > 0 {
		t.Fatalf("unexpected build error: %s", diags[0].Message)
	}
	reg := commands.NewRegistry()
	commands.RegisterDefaults(reg, io.Discard, strings.NewReader(""))
	return validator.Validate(prog, reg, opts)
}

func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

func assertCodes(t *testing.T, diags []diagnostics.Diagnostic, codes ...string) {
	t.Helper()
	var got []string
	for _, d := range diags {
		got = append(got, d.Code)
	}
	if strings.Join(got, ",") != strings.Join(codes, ",") {
		t.Errorf("got codes %v, want %v", got, codes)
	}
}

// ===== Valid programs =====

func TestValid_Programs(t *testing.T) {
	sources := []string{
		`WAAAGH()`,
		`x = 1
burn_the_heretic(x)`,
		`for i in 1..3: vox_cast(str(i))`,
		`n : dg = "3"
while n > 0:
    n = n - 1
if n == 0: the_emperor_protects() else: vox_cast()`,
		`name = hear_the_emperors_voice("Name? ")`,
	}
	for _, src := range sources {
		assertNoDiags(t, mustParseAndValidate(t, src, validator.Options{StrictVariables: true}))
	}
}

// ===== Unknown commands =====

func TestUnknownCommand(t *testing.T) {
	diags := mustParseAndValidate(t, `purge_xenos("orks")`, validator.Options{})
	assertCodes(t, diags, diagnostics.EUnknownCommand)
	if diags[0].Hint != "did you mean 'purge_the_xenos'?" {
		t.Errorf("hint = %q", diags[0].Hint)
	}
	if diags[0].Span == nil || diags[0].Span.StartLine != 1 {
		t.Errorf("span = %+v", diags[0].Span)
	}
}

func TestUnknownCommandNestedInExpressions(t *testing.T) {
	src := `x = 1 + zzzz()
if qqqq(): WAAAGH()`
	diags := mustParseAndValidate(t, src, validator.Options{})
	assertCodes(t, diags, diagnostics.EUnknownCommand, diagnostics.EUnknownCommand)
	if diags[0].Hint != "" {
		t.Errorf("no close match expected, got hint %q", diags[0].Hint)
	}
}

// ===== Arity =====

func TestArity(t *testing.T) {
	diags := mustParseAndValidate(t, `the_emperor_protects(1)
purge_the_xenos()
burn_the_heretic(1, 2)`, validator.Options{})
	assertCodes(t, diags, diagnostics.EArity, diagnostics.EArity, diagnostics.EArity)
	if diags[0].Message != "the_emperor_protects() takes 0 argument(s) but 1 were given" {
		t.Errorf("message = %q", diags[0].Message)
	}
	if diags[2].Message != "burn_the_heretic() takes 0..1 argument(s) but 2 were given" {
		t.Errorf("message = %q", diags[2].Message)
	}
}

func TestArityLenient(t *testing.T) {
	// The zero-argument retry rescues commands that accept no arguments, but
	// not ones that require some.
	diags := mustParseAndValidate(t, `the_emperor_protects(1)
purge_the_xenos()`, validator.Options{LenientArity: true})
	assertCodes(t, diags, diagnostics.EArity)
}

// ===== Unbound reads =====

func TestUnboundOnlyWhenStrict(t *testing.T) {
	src := `vox_cast(ghost)`
	assertNoDiags(t, mustParseAndValidate(t, src, validator.Options{}))
	diags := mustParseAndValidate(t, src, validator.Options{StrictVariables: true})
	assertCodes(t, diags, diagnostics.EUnbound)
	if diags[0].Message != "'ghost' is not defined" {
		t.Errorf("message = %q", diags[0].Message)
	}
}

func TestUnboundProgramOrder(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		codes []string
	}{
		{"read before assignment", "vox_cast(x)\nx = 1", []string{diagnostics.EUnbound}},
		{"self reference", "x = x + 1", []string{diagnostics.EUnbound}},
		{"loop variable in body", "for i in 1..2: vox_cast(i)", nil},
		{"loop variable in bound", "for i in 1..i: vox_cast(i)", []string{diagnostics.EUnbound}},
		{"binding in earlier block", "if true: y = 1\nvox_cast(y)", nil},
		{"declaration", "d : blob = 1\nvox_cast(d)", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := mustParseAndValidate(t, tt.src, validator.Options{StrictVariables: true})
			assertCodes(t, diags, tt.codes...)
		})
	}
}

func TestNilInputs(t *testing.T) {
	if diags := validator.Validate(nil, nil, validator.Options{}); len(diags) != 0 {
		t.Errorf("nil program: %v", diags)
	}
}

// ===== Warnings =====

func TestDuplicateDeclarationIsWarning(t *testing.T) {
	diags := mustParseAndValidate(t, "x : dg = 1\nx = 2\nx : blob = 3", validator.Options{})
	assertCodes(t, diags, diagnostics.WDuplicateDecl)
	if diags[0].Severity != diagnostics.SeverityWarning || diagnostics.HasErrors(diags) {
		t.Errorf("expected a warning, got %+v", diags[0])
	}
	if diags[0].Span.StartLine != 3 {
		t.Errorf("span = %+v", diags[0].Span)
	}
}

func TestCheckUnused(t *testing.T) {
	tests := []struct {
		name   string
		source string
		unused []string
	}{
		{"read later", "x : dg = 1\nvox_cast(x)", nil},
		{"read before declaration", "vox_cast(x)\nx : dg = 1", nil},
		{"read in nested block", "n : dg = 3\nwhile true:\n    if n > 0: vox_cast(str(n))", nil},
		{"read as call argument", "s : servitor = servitor()\npurge_the_xenos(s)", nil},
		{"never read", "x : dg = 1\ny : dg = 2\nvox_cast(y)", []string{"x"}},
		{"reported once", "x : dg = 1\nx : dg = 2", []string{"x"}},
		{"assignments and loops ignored", "a = 1\nfor i in 1..3: WAAAGH()", nil},
		{"declaration order", "b : dg = 1\na : dg = 2", []string{"b", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, diags := parser.Parse(tt.source, "test.wp40k")
			if len(diags) > 0 {
				t.Fatalf("unexpected parse error: %s", diags[0].Message)
			}
			prog, diags := builder.Build(tree)
			if len(diags) > 0 {
				t.Fatalf("unexpected build error: %s", diags[0].Message)
			}

			var got []string
			for _, d := range validator.CheckUnused(prog) {
				if d.Code != diagnostics.WUnused || d.Severity != diagnostics.SeverityWarning {
					t.Errorf("unexpected diagnostic %+v", d)
				}
				got = append(got, strings.TrimSuffix(strings.TrimPrefix(d.Message, "'"), "' is declared but never used"))
			}
			if strings.Join(got, ",") != strings.Join(tt.unused, ",") {
				t.Errorf("unused = %v, want %v", got, tt.unused)
			}
		})
	}

	if diags := validator.CheckUnused(nil); diags != nil {
		t.Errorf("nil program: %v", diags)
	}
}

func TestLintSource(t *testing.T) {
	long := "x = \"" + strings.Repeat("a", validator.MaxLineLength) + "\""
	src := "x = 1  \r\ny = 2\n" + long + "\n"
	diags := validator.LintSource(src, "lint.wp40k")
	assertCodes(t, diags, diagnostics.WStyle, diagnostics.WStyle)
	if diags[0].Span.StartLine != 1 || diags[0].Span.StartCol != 6 {
		t.Errorf("trailing whitespace span = %+v", diags[0].Span)
	}
	if diags[1].Span.StartLine != 3 || diags[1].Span.StartCol != validator.MaxLineLength+1 {
		t.Errorf("long line span = %+v", diags[1].Span)
	}
	if diagnostics.HasErrors(diags) {
		t.Error("lint findings must be warnings")
	}
	if len(validator.LintSource("x = 1\n", "ok.wp40k")) != 0 {
		t.Error("clean source should produce nothing")
	}
}

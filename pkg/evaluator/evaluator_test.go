package evaluator_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/builder"
	"github.com/thomasrohde/warpy/pkg/commands"
	"github.com/thomasrohde/warpy/pkg/evaluator"
	"github.com/thomasrohde/warpy/pkg/parser"
	"github.com/thomasrohde/warpy/pkg/value"
)

// --- helpers ---

func mustProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	tree, diags := parser.Parse(src, "test.wp40k")
	if len(diags) > 0 {
		t.Fatalf("parse diagnostics: %v", diags)
	}
	prog, diags := builder.Build(tree)
	if len(diags) > 0 {
		t.Fatalf("build diagnostics: %v", diags)
	}
	return prog
}

type harness struct {
	out  bytes.Buffer
	diag bytes.Buffer
	opts evaluator.ExecOptions
}

func newHarness(input string) *harness {
	h := &harness{}
	reg := commands.NewRegistry()
	commands.RegisterDefaults(reg, &h.out, strings.NewReader(input))
	h.opts = evaluator.ExecOptions{Commands: reg, Diag: &h.diag}
	return h
}

func (h *harness) run(t *testing.T, src string) (*evaluator.ExecResult, error) {
	t.Helper()
	return evaluator.Execute(context.Background(), mustProgram(t, src), h.opts)
}

func mustRun(t *testing.T, src, input string) (*evaluator.ExecResult, string) {
	t.Helper()
	h := newHarness(input)
	res, err := h.run(t, src)
	if err != nil {
		t.Fatalf("unexpected runtime error: %v", err)
	}
	return res, h.out.String()
}

// --- tests ---

func TestSampleProgram(t *testing.T) {
	src := `# comment to end of line
x : dg = hear_the_emperors_voice("How many? ")
total = 0
for i in 1..x:
    total = total + i
    burn_the_heretic(i)
while total > 10: total = total - 10
if total == 0: vox_cast("even") elif total > 5: vox_cast("big") else: vox_cast(str(total))
`
	res, out := mustRun(t, src, "4\n")
	want := "How many? [FIB] 1\n[FIB] 2\n[FIB] 3\n[FIB] 4\n[VOX] big\n"
	if out != want {
		t.Errorf("output mismatch:\n got %q\nwant %q", out, want)
	}
	if res.Vars["total"] != value.NewInt(10) || res.Vars["x"] != value.NewInt(4) || res.Vars["i"] != value.NewInt(4) {
		t.Errorf("vars = %v", res.Vars)
	}
	if res.Statements != 5 {
		t.Errorf("statements = %d", res.Statements)
	}
}

func TestDeterministicAcrossBuilds(t *testing.T) {
	src := "n = 3\nwhile n > 0:\n    burn_the_heretic(n * 1.5)\n    n = n - 1\nWAAAGH()\n"
	tree, diags := parser.Parse(src, "test.wp40k")
	if len(diags) > 0 {
		t.Fatal(diags)
	}

	var outputs []string
	for i := 0; i < 2; i++ {
		prog, diags := builder.Build(tree)
		if len(diags) > 0 {
			t.Fatal(diags)
		}
		h := newHarness("")
		if _, err := evaluator.Execute(context.Background(), prog, h.opts); err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, h.out.String())
	}
	if outputs[0] != outputs[1] {
		t.Errorf("runs differ:\n%q\n%q", outputs[0], outputs[1])
	}
	if outputs[0] != "[FIB] 4.5\n[FIB] 3.0\n[FIB] 1.5\n[WAAAGH!] The orks rally!\n" {
		t.Errorf("unexpected output %q", outputs[0])
	}
}

func TestFreshEnvironmentPerRun(t *testing.T) {
	h := newHarness("")
	prog := mustProgram(t, "x = x + 1")
	_, err := evaluator.Execute(context.Background(), mustProgram(t, "x = 1"), h.opts)
	if err != nil {
		t.Fatal(err)
	}
	_, err = evaluator.Execute(context.Background(), prog, h.opts)
	if !ast.IsKind(err, ast.KindType) {
		t.Fatalf("second run should not see x from the first run, got %v", err)
	}
}

func TestRuntimeErrorStopsRun(t *testing.T) {
	h := newHarness("")
	res, err := h.run(t, "a = 1\nb = a / 0\nthe_emperor_protects()\n")
	var rerr *ast.RuntimeError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if rerr.Error() != "ArithmeticError: division by zero" {
		t.Errorf("got %q", rerr.Error())
	}
	if rerr.Span == nil || rerr.Span.StartLine != 2 {
		t.Errorf("span = %+v", rerr.Span)
	}
	if h.out.Len() != 0 {
		t.Errorf("statements after the error ran: %q", h.out.String())
	}
	if diff := cmp.Diff(map[string]value.Value{"a": value.NewInt(1)}, res.Vars); diff != "" {
		t.Errorf("vars (-want +got):\n%s", diff)
	}
	if res.Statements != 1 {
		t.Errorf("statements = %d", res.Statements)
	}
}

func TestUnknownCommandRecoveredAtTopLevel(t *testing.T) {
	h := newHarness("")
	_, err := h.run(t, "purge_xenos(\"orks\")\nfor_the_emperor()\n")
	if err != nil {
		t.Fatal(err)
	}
	if h.out.String() != "[IMPERIUM] For the Emperor!\n" {
		t.Errorf("out = %q", h.out.String())
	}
	if h.diag.String() != "Unknown command: purge_xenos (did you mean 'purge_the_xenos'?)\n" {
		t.Errorf("diag = %q", h.diag.String())
	}
}

func TestPolicies(t *testing.T) {
	h := newHarness("")
	h.opts.StrictVariables = true
	_, err := h.run(t, "vox_cast(ghost)")
	if !ast.IsKind(err, ast.KindUnbound) {
		t.Errorf("strict: got %v", err)
	}

	h = newHarness("")
	_, err = h.run(t, "the_emperor_protects(1)")
	if !ast.IsKind(err, ast.KindArity) {
		t.Errorf("strict arity: got %v", err)
	}

	h = newHarness("")
	h.opts.LenientArity = true
	if _, err := h.run(t, "the_emperor_protects(1)"); err != nil {
		t.Errorf("lenient arity: %v", err)
	}
	if h.out.String() != "[LOG] The Emperor protects!\n" {
		t.Errorf("out = %q", h.out.String())
	}
}

func TestTraceEvents(t *testing.T) {
	h := newHarness("")
	var events []evaluator.TraceEvent
	h.opts.Trace = func(ev evaluator.TraceEvent) { events = append(events, ev) }
	h.opts.RunID = "run-1"

	if _, err := h.run(t, "x = 1\nWAAAGH()"); err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, ev := range events {
		got = append(got, string(ev.Event)+":"+ev.Data["kind"])
		if ev.RunID != "run-1" || ev.Timestamp == "" {
			t.Errorf("event missing metadata: %+v", ev)
		}
	}
	want := []string{
		"run_start:",
		"stmt_start:Assignment", "stmt_end:Assignment",
		"stmt_start:CommandStmt", "stmt_end:CommandStmt",
		"run_end:",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if events[len(events)-1].Data["status"] != "ok" {
		t.Errorf("run_end data = %v", events[len(events)-1].Data)
	}
}

func TestTraceOnError(t *testing.T) {
	h := newHarness("")
	var last evaluator.TraceEvent
	h.opts.Trace = func(ev evaluator.TraceEvent) { last = ev }
	_, err := h.run(t, `x = "a" + 1`)
	if err == nil {
		t.Fatal("expected error")
	}
	if last.Event != evaluator.TraceRunEnd || last.Data["status"] != "error" {
		t.Errorf("last event = %+v", last)
	}
}

func TestCancelledContext(t *testing.T) {
	h := newHarness("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := evaluator.Execute(ctx, mustProgram(t, "WAAAGH()"), h.opts)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if h.out.Len() != 0 {
		t.Error("no statement should run after cancellation")
	}
}

func TestVarsToJSON(t *testing.T) {
	vars := map[string]value.Value{
		"s": value.NewString("servitor_instance"),
		"n": value.NewInt(3),
		"f": value.NewFloat(1.5),
		"b": value.NewBool(true),
		"u": value.NewAbsent(),
		"i": value.NewFloat(math.Inf(1)),
	}
	got := evaluator.VarsToJSONString(vars)
	want := `{"b":true,"f":1.5,"i":"inf","n":3,"s":"servitor_instance","u":null}`
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
	if evaluator.VarsToJSONString(nil) != "{}" {
		t.Error("empty vars should encode as {}")
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/warpy/internal/testutil"
	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/config"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/evaluator"
	"github.com/thomasrohde/warpy/pkg/runtime"
)

// outcome is what the CLI would report for a scenario.
type outcome struct {
	exitCode int
	stdout   string
	stderr   string
	diags    []diagnostics.Diagnostic
	vars     string
}

func TestConformance(t *testing.T) {
	names, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			scenarioDir := filepath.Join(testutil.ScenariosDir, name)
			scenario, err := testutil.LoadScenario(scenarioDir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			src, filename, err := testutil.ReadProgramFile(scenarioDir, scenario.Cmd)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}

			var out outcome
			switch scenario.Command() {
			case "run":
				out = runScenario(scenario, src, filename)
			case "check":
				out = checkScenario(scenario, src, filename)
			case "fmt":
				out = fmtScenario(scenario, src, filename)
			default:
				t.Skipf("unsupported command: %s", scenario.Command())
			}
			verify(t, scenario, out)
		})
	}
}

func scenarioRuntime(scenario *testutil.Scenario, stdout, stderr *bytes.Buffer) *runtime.Runtime {
	cfg := config.Default()
	if c := scenario.Config; c != nil {
		cfg.StrictVariables = c.StrictVariables
		if c.Arity != "" {
			cfg.Arity = c.Arity
		}
	}
	return runtime.New(
		runtime.WithConfig(cfg),
		runtime.WithOutput(stdout),
		runtime.WithInput(strings.NewReader(scenario.Stdin)),
		runtime.WithDiag(stderr),
		runtime.WithRunID("conformance"),
	)
}

func runScenario(scenario *testutil.Scenario, src, filename string) outcome {
	var stdout, stderr bytes.Buffer
	res, err := scenarioRuntime(scenario, &stdout, &stderr).Run(context.Background(), src, filename)

	out := outcome{}
	if res != nil {
		out.diags = append(out.diags, res.Warnings...)
		out.vars = evaluator.VarsToJSONString(res.Vars)
	}

	var derr *runtime.DiagnosticError
	var rerr *ast.RuntimeError
	switch {
	case err == nil:
	case errors.As(err, &derr):
		out.exitCode = 2
		out.diags = append(out.diags, derr.Diagnostics...)
	case errors.As(err, &rerr):
		out.exitCode = 4
		out.diags = append(out.diags, rerr.Diagnostic())
	default:
		out.exitCode = 4
	}

	out.stdout = stdout.String()
	out.stderr = stderr.String() + diagnostics.FormatDiagnostics(out.diags, false)
	return out
}

func checkScenario(scenario *testutil.Scenario, src, filename string) outcome {
	var stdout, stderr bytes.Buffer
	diags := scenarioRuntime(scenario, &stdout, &stderr).Check(src, filename)

	out := outcome{diags: diags}
	if len(diags) == 0 {
		out.stdout = "[]\n"
		return out
	}
	out.stderr = diagnostics.FormatDiagnostics(diags, false)
	if diagnostics.HasErrors(diags) {
		out.exitCode = 2
	}
	return out
}

func fmtScenario(scenario *testutil.Scenario, src, filename string) outcome {
	var stdout, stderr bytes.Buffer
	formatted, err := scenarioRuntime(scenario, &stdout, &stderr).Format(src, filename)

	var derr *runtime.DiagnosticError
	if errors.As(err, &derr) {
		return outcome{
			exitCode: 2,
			diags:    derr.Diagnostics,
			stderr:   diagnostics.FormatDiagnostics(derr.Diagnostics, false),
		}
	}
	return outcome{stdout: formatted}
}

func verify(t *testing.T, scenario *testutil.Scenario, out outcome) {
	t.Helper()
	expect := scenario.Expect

	if out.exitCode != expect.ExitCode {
		t.Errorf("exit code: got %d, want %d (stderr: %s)", out.exitCode, expect.ExitCode, out.stderr)
	}
	if expect.StdoutText != nil && out.stdout != *expect.StdoutText {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", out.stdout, *expect.StdoutText)
	}
	if expect.StdoutJSON != nil {
		want := normalizeJSON(t, expect.StdoutJSON)
		got := normalizeJSON(t, json.RawMessage(out.stdout))
		if got != want {
			t.Errorf("stdout JSON:\n  got:  %s\n  want: %s", got, want)
		}
	}
	if expect.StderrContains != "" && !strings.Contains(out.stderr, expect.StderrContains) {
		t.Errorf("stderr should contain %q, got: %s", expect.StderrContains, out.stderr)
	}
	if expect.StderrJSONSubset != nil {
		checkDiagSubset(t, expect.StderrJSONSubset, out.diags)
	}
	if expect.VarsJSON != nil {
		want := normalizeJSON(t, expect.VarsJSON)
		got := normalizeJSON(t, json.RawMessage(out.vars))
		if got != want {
			t.Errorf("vars:\n  got:  %s\n  want: %s", got, want)
		}
	}
}

func checkDiagSubset(t *testing.T, raw json.RawMessage, diags []diagnostics.Diagnostic) {
	t.Helper()

	var expected []map[string]any
	if err := json.Unmarshal(raw, &expected); err != nil {
		t.Fatalf("failed to parse expected stderr JSON subset: %v", err)
	}
	diagsJSON, err := json.Marshal(diags)
	if err != nil {
		t.Fatalf("failed to marshal diagnostics: %v", err)
	}
	var actual []any
	if err := json.Unmarshal(diagsJSON, &actual); err != nil {
		t.Fatalf("failed to parse actual diagnostics: %v", err)
	}

	for _, want := range expected {
		found := false
		for _, got := range actual {
			if testutil.IsSubset(want, got) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("diagnostic subset not found: %v\n  in: %s", want, diagsJSON)
		}
	}
}

func normalizeJSON(t *testing.T, raw json.RawMessage) string {
	t.Helper()
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("failed to parse JSON: %v (raw: %s)", err, string(raw))
	}
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to re-marshal JSON: %v", err)
	}
	return string(b)
}

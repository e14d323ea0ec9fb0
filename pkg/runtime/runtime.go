// Package runtime provides the top-level WarPy runtime orchestrator.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/builder"
	"github.com/thomasrohde/warpy/pkg/commands"
	"github.com/thomasrohde/warpy/pkg/config"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/evaluator"
	"github.com/thomasrohde/warpy/pkg/formatter"
	"github.com/thomasrohde/warpy/pkg/parser"
	"github.com/thomasrohde/warpy/pkg/validator"
	"github.com/thomasrohde/warpy/pkg/value"
)

// Result holds the outcome of a program execution.
type Result struct {
	Vars       map[string]value.Value
	Statements int
	// Warnings are checker findings that did not stop the run.
	Warnings []diagnostics.Diagnostic
}

// Runtime wires together all WarPy components for program execution.
type Runtime struct {
	commands *commands.Registry
	config   *config.Config
	out      io.Writer
	in       io.Reader
	diag     io.Writer
	logger   *slog.Logger
	runID    string
	trace    func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithCommands replaces the default command registry.
func WithCommands(r *commands.Registry) Option {
	return func(rt *Runtime) {
		rt.commands = r
	}
}

// WithConfig sets the execution policies.
func WithConfig(c *config.Config) Option {
	return func(rt *Runtime) {
		rt.config = c
	}
}

// WithOutput sets where commands print.
func WithOutput(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.out = w
	}
}

// WithInput sets where hear_the_emperors_voice reads from.
func WithInput(r io.Reader) Option {
	return func(rt *Runtime) {
		rt.in = r
	}
}

// WithDiag sets the sink for recoverable runtime diagnostics.
func WithDiag(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.diag = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// New creates a new Runtime with the given options.
// By default commands print to stdout, read stdin and report to stderr, and
// the default configuration applies.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		config: config.Default(),
		out:    os.Stdout,
		in:     os.Stdin,
		diag:   os.Stderr,
		runID:  "cli",
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil {
		rt.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rt.commands == nil {
		rt.commands = commands.NewRegistry()
		commands.RegisterDefaults(rt.commands, rt.out, rt.in)
	}
	return rt
}

// Commands returns the registry programs run against.
func (rt *Runtime) Commands() *commands.Registry {
	return rt.commands
}

// Build runs the front end: lexing, parsing and AST construction.
func (rt *Runtime) Build(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tree, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, diags
	}
	return builder.Build(tree)
}

// Run builds, checks and executes a WarPy program. Checker findings are
// returned as warnings and do not prevent execution. On a runtime error the
// partial result is returned together with the error.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	program, diags := rt.Build(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	var warnings []diagnostics.Diagnostic
	for _, d := range validator.Validate(program, rt.commands, rt.validatorOptions()) {
		d.Severity = diagnostics.SeverityWarning
		warnings = append(warnings, d)
	}

	rt.logger.Debug("executing program",
		slog.String("file", filename),
		slog.Int("statements", len(program.Statements)),
		slog.Int("warnings", len(warnings)))

	res, err := evaluator.Execute(ctx, program, rt.buildExecOptions())
	result := &Result{Warnings: warnings}
	if res != nil {
		result.Vars = res.Vars
		result.Statements = res.Statements
		rt.logger.Debug("run finished",
			slog.Int("statements", res.Statements),
			slog.Duration("elapsed", res.Elapsed))
	}
	return result, err
}

// Check builds and validates a WarPy program without executing it. Unused
// declarations and layout warnings follow the semantic findings.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := rt.Build(source, filename)
	if len(diags) > 0 {
		return diags
	}
	diags = validator.Validate(program, rt.commands, rt.validatorOptions())
	diags = append(diags, validator.CheckUnused(program)...)
	return append(diags, validator.LintSource(source, filename)...)
}

// Format builds and formats a WarPy program.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := rt.Build(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

func (rt *Runtime) validatorOptions() validator.Options {
	return validator.Options{
		StrictVariables: rt.config.StrictVariables,
		LenientArity:    rt.config.LenientArity(),
	}
}

// buildExecOptions constructs evaluator options from the runtime's configuration.
func (rt *Runtime) buildExecOptions() evaluator.ExecOptions {
	return evaluator.ExecOptions{
		Commands:        rt.commands,
		Diag:            rt.diag,
		StrictVariables: rt.config.StrictVariables,
		LenientArity:    rt.config.LenientArity(),
		Logger:          rt.logger,
		Trace:           rt.trace,
		RunID:           rt.runID,
	}
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

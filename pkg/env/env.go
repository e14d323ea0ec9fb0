// Package env provides the execution environment shared by every node of a
// running WarPy program.
package env

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/thomasrohde/warpy/pkg/commands"
	"github.com/thomasrohde/warpy/pkg/value"
)

// CommandSource resolves command names for invocation nodes.
type CommandSource interface {
	Lookup(name string) (*commands.Command, bool)
	Suggest(name string) string
}

// Env is the variable mapping of one program run, plus the hooks that nodes
// need while executing. An Env is never shared between runs.
type Env struct {
	vars map[string]value.Value

	Commands CommandSource
	// Diag receives recoverable diagnostics such as unknown commands.
	Diag io.Writer
	// StrictVariables turns reads of undeclared names into errors.
	StrictVariables bool
	// LenientArity retries a mis-called command with zero arguments.
	LenientArity bool
	Logger       *slog.Logger
}

// Option configures an Env.
type Option func(*Env)

// WithDiag sets the diagnostic sink.
func WithDiag(w io.Writer) Option {
	return func(e *Env) { e.Diag = w }
}

// WithStrictVariables sets the undeclared-read policy.
func WithStrictVariables(strict bool) Option {
	return func(e *Env) { e.StrictVariables = strict }
}

// WithLenientArity sets the arity policy.
func WithLenientArity(lenient bool) Option {
	return func(e *Env) { e.LenientArity = lenient }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Env) { e.Logger = l }
}

// New creates an empty environment bound to a command source.
func New(cmds CommandSource, opts ...Option) *Env {
	e := &Env{
		vars:     make(map[string]value.Value),
		Commands: cmds,
		Diag:     io.Discard,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Get looks up a variable by name.
func (e *Env) Get(name string) (value.Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

// Set binds or rebinds a variable.
func (e *Env) Set(name string, v value.Value) {
	if v == nil {
		v = value.NewAbsent()
	}
	e.vars[name] = v
}

// Has reports whether name is bound.
func (e *Env) Has(name string) bool {
	_, ok := e.vars[name]
	return ok
}

// Snapshot returns a copy of the current bindings.
func (e *Env) Snapshot() map[string]value.Value {
	out := make(map[string]value.Value, len(e.vars))
	for k, v := range e.vars {
		out[k] = v
	}
	return out
}

// Reportf writes one line to the diagnostic sink. Write failures are ignored;
// a broken sink must not abort the program.
func (e *Env) Reportf(format string, args ...any) {
	if e.Diag == nil {
		return
	}
	fmt.Fprintf(e.Diag, format+"\n", args...)
}

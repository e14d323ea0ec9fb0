// Package evaluator is the WarPy program driver: it runs a built Program
// against a fresh environment and reports trace events along the way.
package evaluator

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/env"
	"github.com/thomasrohde/warpy/pkg/source"
	"github.com/thomasrohde/warpy/pkg/value"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart  TraceEventType = "run_start"
	TraceRunEnd    TraceEventType = "run_end"
	TraceStmtStart TraceEventType = "stmt_start"
	TraceStmtEnd   TraceEventType = "stmt_end"
)

// TraceEvent represents a single trace event emitted during execution.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *source.Span      `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Commands        env.CommandSource
	Diag            io.Writer
	StrictVariables bool
	LenientArity    bool
	Logger          *slog.Logger
	Trace           func(event TraceEvent)
	RunID           string
}

// ExecResult holds the state left behind by a program execution.
type ExecResult struct {
	Vars       map[string]value.Value
	Statements int
	Elapsed    time.Duration
}

type driver struct {
	opts ExecOptions
	log  *slog.Logger
}

func (d *driver) emit(event TraceEventType, span *source.Span, data map[string]string) {
	attrs := []any{slog.String("event", string(event))}
	if span != nil {
		attrs = append(attrs, slog.String("at", span.String()))
	}
	for k, v := range data {
		attrs = append(attrs, slog.String(k, v))
	}
	d.log.Debug("trace", attrs...)

	if d.opts.Trace != nil {
		d.opts.Trace(TraceEvent{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			RunID:     d.opts.RunID,
			Event:     event,
			Span:      span,
			Data:      data,
		})
	}
}

// Execute runs program's top-level statements in order against one new
// environment. It stops at the first unrecovered error and returns it along
// with the bindings made so far. ctx is checked between top-level statements.
func Execute(ctx context.Context, program *ast.Program, opts ExecOptions) (*ExecResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	d := &driver{opts: opts, log: logger}

	envOpts := []env.Option{
		env.WithStrictVariables(opts.StrictVariables),
		env.WithLenientArity(opts.LenientArity),
		env.WithLogger(logger),
	}
	if opts.Diag != nil {
		envOpts = append(envOpts, env.WithDiag(opts.Diag))
	}
	e := env.New(opts.Commands, envOpts...)

	start := time.Now()
	span := program.Span
	d.emit(TraceRunStart, &span, nil)

	result := &ExecResult{}
	var runErr error
	for _, stmt := range program.Statements {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		stmtSpan := stmt.NodeSpan()
		d.emit(TraceStmtStart, &stmtSpan, map[string]string{"kind": stmt.Kind()})
		if err := ast.ExecBlock([]ast.Stmt{stmt}, e); err != nil {
			runErr = err
			break
		}
		result.Statements++
		d.emit(TraceStmtEnd, &stmtSpan, map[string]string{"kind": stmt.Kind()})
	}

	data := map[string]string{"status": "ok"}
	if runErr != nil {
		data["status"] = "error"
	}
	d.emit(TraceRunEnd, &span, data)

	result.Vars = e.Snapshot()
	result.Elapsed = time.Since(start)
	return result, runErr
}

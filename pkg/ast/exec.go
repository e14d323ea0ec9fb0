package ast

import (
	"errors"
	"log/slog"

	"github.com/thomasrohde/warpy/pkg/env"
	"github.com/thomasrohde/warpy/pkg/value"
)

// ExecBlock runs a statement list in order. An unknown command anywhere inside
// a statement is reported to the environment's diagnostic sink and only that
// statement is skipped. Every other error stops the block.
func ExecBlock(stmts []Stmt, e *env.Env) error {
	for _, stmt := range stmts {
		if err := stmt.Exec(e); err != nil {
			var rerr *RuntimeError
			if errors.As(err, &rerr) && rerr.Kind == KindUnknownCommand {
				reportUnknown(e, rerr)
				continue
			}
			return err
		}
	}
	return nil
}

func reportUnknown(e *env.Env, rerr *RuntimeError) {
	if rerr.Hint != "" {
		e.Reportf("Unknown command: %s (%s)", rerr.Name, rerr.Hint)
	} else {
		e.Reportf("Unknown command: %s", rerr.Name)
	}
	e.Logger.Debug("skipped statement", slog.String("command", rerr.Name), slog.String("at", rerr.Span.String()))
}

func (n *Declaration) Exec(e *env.Env) error {
	v, err := resolve(n.Value, e)
	if err != nil {
		return err
	}
	if n.Type == TypeNumeric {
		v, err = coerceNumeric(n, v)
		if err != nil {
			return err
		}
	}
	e.Set(n.Name, v)
	e.Logger.Debug("declared", slog.String("name", n.Name), slog.String("type", n.Type),
		slog.String("kind", value.KindOf(v).String()))
	return nil
}

// coerceNumeric converts a dg initializer: numbers pass through, numeric text
// becomes an int or float, anything else is rejected.
func coerceNumeric(n *Declaration, v value.Value) (value.Value, error) {
	switch val := v.(type) {
	case value.Int, value.Float:
		return v, nil
	case value.Str:
		if num, ok := value.ParseNumeric(val.Value); ok {
			return num, nil
		}
	}
	return nil, newError(KindType, n.Span, "invalid numeric literal for declaration")
}

func (n *Assignment) Exec(e *env.Env) error {
	v, err := resolve(n.Value, e)
	if err != nil {
		return err
	}
	e.Set(n.Name, v)
	return nil
}

func (n *CommandStmt) Exec(e *env.Env) error {
	_, err := n.Call.Eval(e)
	return err
}

func (n *ForRange) Exec(e *env.Env) error {
	start, err := rangeBound(n.Start, e)
	if err != nil {
		return err
	}
	end, err := rangeBound(n.End, e)
	if err != nil {
		return err
	}
	for i := start; i <= end; i++ {
		e.Set(n.Var, value.NewInt(i))
		if err := ExecBlock(n.Body, e); err != nil {
			return err
		}
		if i == end {
			// avoid wrapping past the maximum int64 bound
			break
		}
	}
	return nil
}

func rangeBound(expr Expr, e *env.Env) (int64, error) {
	v, err := resolve(expr, e)
	if err != nil {
		return 0, err
	}
	n, ok := value.ToInt(v)
	if !ok {
		return 0, newError(KindType, expr.NodeSpan(), "range bound must be an integer, got %s", value.KindOf(v))
	}
	return n, nil
}

func (n *While) Exec(e *env.Env) error {
	for {
		cond, err := resolve(n.Cond, e)
		if err != nil {
			return err
		}
		if !value.Truthiness(cond) {
			return nil
		}
		if err := ExecBlock(n.Body, e); err != nil {
			return err
		}
	}
}

func (n *If) Exec(e *env.Env) error {
	for _, arm := range n.Arms {
		cond, err := resolve(arm.Cond, e)
		if err != nil {
			return err
		}
		if value.Truthiness(cond) {
			return ExecBlock(arm.Body, e)
		}
	}
	return ExecBlock(n.Else, e)
}

package ast

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/thomasrohde/warpy/pkg/env"
	"github.com/thomasrohde/warpy/pkg/source"
	"github.com/thomasrohde/warpy/pkg/value"
)

// resolve evaluates an argument or operand expression. Every place that needs
// the value of a sub-expression goes through here.
func resolve(expr Expr, e *env.Env) (value.Value, error) {
	v, err := expr.Eval(e)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return value.NewAbsent(), nil
	}
	return v, nil
}

func (n *IntLiteral) Eval(*env.Env) (value.Value, error)   { return value.NewInt(n.Value), nil }
func (n *FloatLiteral) Eval(*env.Env) (value.Value, error) { return value.NewFloat(n.Value), nil }
func (n *BoolLiteral) Eval(*env.Env) (value.Value, error)  { return value.NewBool(n.Value), nil }
func (n *StrLiteral) Eval(*env.Env) (value.Value, error)   { return value.NewString(n.Value), nil }

func (n *Ident) Eval(e *env.Env) (value.Value, error) {
	if v, ok := e.Get(n.Name); ok {
		return v, nil
	}
	if e.StrictVariables {
		return nil, newError(KindUnbound, n.Span, "'%s' is not defined", n.Name)
	}
	return value.NewAbsent(), nil
}

func (n *ArithExpr) Eval(e *env.Env) (value.Value, error) {
	left, err := resolve(n.Left, e)
	if err != nil {
		return nil, err
	}
	right, err := resolve(n.Right, e)
	if err != nil {
		return nil, err
	}
	v, err := value.Arith(string(n.Op), left, right)
	if err != nil {
		return nil, operatorError(n.Span, err)
	}
	return v, nil
}

func (n *LogicalExpr) Eval(e *env.Env) (value.Value, error) {
	left, err := resolve(n.Left, e)
	if err != nil {
		return nil, err
	}
	right, err := resolve(n.Right, e)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case OpAnd:
		if !value.Truthiness(left) {
			return left, nil
		}
		return right, nil
	case OpOr:
		if value.Truthiness(left) {
			return left, nil
		}
		return right, nil
	}
	return nil, newError(KindType, n.Span, "unknown logical operator '%s'", n.Op)
}

func (n *CompareExpr) Eval(e *env.Env) (value.Value, error) {
	left, err := resolve(n.Left, e)
	if err != nil {
		return nil, err
	}
	right, err := resolve(n.Right, e)
	if err != nil {
		return nil, err
	}
	ok, err := value.Compare(string(n.Op), left, right)
	if err != nil {
		return nil, operatorError(n.Span, err)
	}
	return value.NewBool(ok), nil
}

func (n *UnaryExpr) Eval(e *env.Env) (value.Value, error) {
	operand, err := resolve(n.Operand, e)
	if err != nil {
		return nil, err
	}
	v, err := value.Negate(operand)
	if errors.Is(err, value.ErrIntegerOverflow) {
		return nil, operatorError(n.Span, err)
	}
	if err != nil {
		return nil, newError(KindType, n.Span, "bad operand kind for unary '-': %s", value.KindOf(operand))
	}
	return v, nil
}

func (n *StrCall) Eval(e *env.Env) (value.Value, error) {
	v, err := resolve(n.Arg, e)
	if err != nil {
		return nil, err
	}
	return value.NewString(value.String(v)), nil
}

// Eval looks the command up, resolves its arguments left to right and
// dispatches. A command that returns nothing yields absent.
func (n *CallExpr) Eval(e *env.Env) (value.Value, error) {
	cmd, ok := e.Commands.Lookup(n.Name)
	if !ok {
		rerr := newError(KindUnknownCommand, n.Span, "unknown command '%s'", n.Name)
		rerr.Name = n.Name
		if s := e.Commands.Suggest(n.Name); s != "" {
			rerr.Hint = fmt.Sprintf("did you mean '%s'?", s)
		}
		return nil, rerr
	}

	args := make([]value.Value, 0, len(n.Args))
	for _, arg := range n.Args {
		v, err := resolve(arg, e)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	if !cmd.Accepts(len(args)) {
		if !e.LenientArity || !cmd.Accepts(0) {
			rerr := newError(KindArity, n.Span, "%s() takes %s argument(s) but %d were given",
				n.Name, cmd.Arity(), len(args))
			rerr.Name = n.Name
			return nil, rerr
		}
		e.Logger.Debug("arity mismatch, retrying without arguments",
			slog.String("command", n.Name), slog.Int("given", len(args)))
		args = nil
	}

	v, err := cmd.Fn(args)
	if err != nil {
		var rerr *RuntimeError
		if errors.As(err, &rerr) {
			return nil, err
		}
		cerr := newError(KindCommand, n.Span, "%s: %v", n.Name, err)
		cerr.Name = n.Name
		cerr.Err = err
		return nil, cerr
	}
	if v == nil {
		return value.NewAbsent(), nil
	}
	return v, nil
}

func operatorError(span source.Span, err error) *RuntimeError {
	var opErr *value.OperandError
	switch {
	case errors.Is(err, value.ErrDivisionByZero), errors.Is(err, value.ErrModuloByZero),
		errors.Is(err, value.ErrIntegerOverflow):
		rerr := newError(KindArithmetic, span, "%s", err.Error())
		rerr.Err = err
		return rerr
	case errors.As(err, &opErr):
		rerr := newError(KindType, span, "%s", opErr.Error())
		rerr.Err = err
		return rerr
	}
	rerr := newError(KindType, span, "%s", err.Error())
	rerr.Err = err
	return rerr
}

// Package validator implements static checks over WarPy programs.
package validator

import (
	"fmt"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/env"
	"github.com/thomasrohde/warpy/pkg/source"
)

// Options mirror the execution policies so that the checker reports what a
// run would actually reject.
type Options struct {
	StrictVariables bool
	LenientArity    bool
}

type validator struct {
	diags []diagnostics.Diagnostic
	cmds  env.CommandSource
	opts  Options
	bound map[string]bool

	// declared tracks names introduced with an explicit type.
	declared map[string]bool
}

// Validate checks program against the command registry and returns
// diagnostics in source order. It reports unknown commands, literal arity
// mismatches and, under StrictVariables, reads of names that no statement
// earlier in the program binds. Redeclaring a name is only a warning.
func Validate(program *ast.Program, cmds env.CommandSource, opts Options) []diagnostics.Diagnostic {
	v := &validator{
		cmds:     cmds,
		opts:     opts,
		bound:    make(map[string]bool),
		declared: make(map[string]bool),
	}
	if program != nil {
		v.validateStatements(program.Statements)
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, span source.Span, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, hint))
}

func (v *validator) validateStatements(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		v.validateStmt(stmt)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Declaration:
		v.validateExpr(s.Value)
		if v.declared[s.Name] {
			span := s.Span
			v.diags = append(v.diags, diagnostics.MakeWarning(diagnostics.WDuplicateDecl,
				fmt.Sprintf("'%s' is already declared", s.Name), &span,
				"use a different name or an assignment"))
		}
		v.declared[s.Name] = true
		v.bound[s.Name] = true

	case *ast.Assignment:
		v.validateExpr(s.Value)
		v.bound[s.Name] = true

	case *ast.CommandStmt:
		v.validateExpr(s.Call)

	case *ast.ForRange:
		v.validateExpr(s.Start)
		v.validateExpr(s.End)
		v.bound[s.Var] = true
		v.validateStatements(s.Body)

	case *ast.While:
		v.validateExpr(s.Cond)
		v.validateStatements(s.Body)

	case *ast.If:
		for _, arm := range s.Arms {
			v.validateExpr(arm.Cond)
			v.validateStatements(arm.Body)
		}
		v.validateStatements(s.Else)
	}
}

func (v *validator) validateExpr(expr ast.Expr) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *ast.IntLiteral, *ast.FloatLiteral, *ast.BoolLiteral, *ast.StrLiteral:
		// literals are always valid

	case *ast.Ident:
		if v.opts.StrictVariables && !v.bound[e.Name] {
			v.addDiag(diagnostics.EUnbound, fmt.Sprintf("'%s' is not defined", e.Name), e.Span, "")
		}

	case *ast.ArithExpr:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)

	case *ast.CompareExpr:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)

	case *ast.LogicalExpr:
		v.validateExpr(e.Left)
		v.validateExpr(e.Right)

	case *ast.UnaryExpr:
		v.validateExpr(e.Operand)

	case *ast.StrCall:
		v.validateExpr(e.Arg)

	case *ast.CallExpr:
		v.validateCall(e)
	}
}

func (v *validator) validateCall(call *ast.CallExpr) {
	for _, arg := range call.Args {
		v.validateExpr(arg)
	}
	if v.cmds == nil {
		return
	}

	cmd, ok := v.cmds.Lookup(call.Name)
	if !ok {
		hint := ""
		if s := v.cmds.Suggest(call.Name); s != "" {
			hint = fmt.Sprintf("did you mean '%s'?", s)
		}
		v.addDiag(diagnostics.EUnknownCommand, fmt.Sprintf("unknown command '%s'", call.Name), call.Span, hint)
		return
	}

	n := len(call.Args)
	if cmd.Accepts(n) || (v.opts.LenientArity && cmd.Accepts(0)) {
		return
	}
	v.addDiag(diagnostics.EArity,
		fmt.Sprintf("%s() takes %s argument(s) but %d were given", cmd.Name, cmd.Arity(), n),
		call.Span, "")
}

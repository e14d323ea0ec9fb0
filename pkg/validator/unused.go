package validator

import (
	"fmt"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
)

// CheckUnused warns about names introduced with a typed declaration that
// nothing in the program reads. Each name is reported once, at its first
// declaration. Assignments and loop variables are not considered.
func CheckUnused(program *ast.Program) []diagnostics.Diagnostic {
	if program == nil {
		return nil
	}
	u := &usage{reads: make(map[string]bool), seen: make(map[string]bool)}
	u.stmts(program.Statements)

	var diags []diagnostics.Diagnostic
	for _, decl := range u.decls {
		if u.reads[decl.Name] {
			continue
		}
		span := decl.Span
		diags = append(diags, diagnostics.MakeWarning(diagnostics.WUnused,
			fmt.Sprintf("'%s' is declared but never used", decl.Name), &span,
			"remove the declaration or use the variable"))
	}
	return diags
}

type usage struct {
	decls []*ast.Declaration
	seen  map[string]bool
	reads map[string]bool
}

func (u *usage) stmts(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *ast.Declaration:
			u.expr(s.Value)
			if !u.seen[s.Name] {
				u.seen[s.Name] = true
				u.decls = append(u.decls, s)
			}
		case *ast.Assignment:
			u.expr(s.Value)
		case *ast.CommandStmt:
			u.expr(s.Call)
		case *ast.ForRange:
			u.expr(s.Start)
			u.expr(s.End)
			u.stmts(s.Body)
		case *ast.While:
			u.expr(s.Cond)
			u.stmts(s.Body)
		case *ast.If:
			for _, arm := range s.Arms {
				u.expr(arm.Cond)
				u.stmts(arm.Body)
			}
			u.stmts(s.Else)
		}
	}
}

func (u *usage) expr(expr ast.Expr) {
	switch e := expr.(type) {
	case *ast.Ident:
		u.reads[e.Name] = true
	case *ast.ArithExpr:
		u.expr(e.Left)
		u.expr(e.Right)
	case *ast.CompareExpr:
		u.expr(e.Left)
		u.expr(e.Right)
	case *ast.LogicalExpr:
		u.expr(e.Left)
		u.expr(e.Right)
	case *ast.UnaryExpr:
		u.expr(e.Operand)
	case *ast.StrCall:
		u.expr(e.Arg)
	case *ast.CallExpr:
		for _, arg := range e.Args {
			u.expr(arg)
		}
	}
}

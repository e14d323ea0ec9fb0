// Package formatter implements the WarPy source code formatter.
package formatter

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/warpy/pkg/ast"
)

const indent = "    "

// Precedence table for binary operators (higher = tighter binding).
var precedence = map[ast.BinaryOp]int{
	ast.OpAnd: 1, ast.OpOr: 1,
	ast.OpEqEq: 2, ast.OpNeq: 2, ast.OpGt: 2, ast.OpLt: 2, ast.OpGtEq: 2, ast.OpLtEq: 2,
	ast.OpAdd: 3, ast.OpSub: 3,
	ast.OpMul: 4, ast.OpDiv: 4, ast.OpMod: 4,
}

func binaryParts(e ast.Expr) (ast.BinaryOp, ast.Expr, ast.Expr, bool) {
	switch n := e.(type) {
	case *ast.ArithExpr:
		return n.Op, n.Left, n.Right, true
	case *ast.CompareExpr:
		return n.Op, n.Left, n.Right, true
	case *ast.LogicalExpr:
		return n.Op, n.Left, n.Right, true
	}
	return "", nil, nil, false
}

// needsParens reports whether child must be parenthesised under parentOp.
// All levels are left-associative, so an equal-precedence right operand
// keeps its parentheses.
func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	op, _, _, ok := binaryParts(child)
	if !ok {
		return false
	}
	childPrec := precedence[op]
	parentPrec := precedence[parentOp]
	return childPrec < parentPrec || (childPrec == parentPrec && isRight)
}

// Format pretty-prints a WarPy program back to canonical source.
func Format(program *ast.Program) string {
	var b strings.Builder
	formatBlock(&b, program.Statements, 0)
	return b.String()
}

// HasComments reports whether source contains a comment, which formatting
// would discard.
func HasComments(source string) bool {
	for _, line := range strings.Split(source, "\n") {
		inString := false
		for i := 0; i < len(line); i++ {
			switch {
			case line[i] == '"':
				inString = !inString
			case line[i] == '#' && !inString:
				return true
			}
		}
	}
	return false
}

func formatBlock(b *strings.Builder, stmts []ast.Stmt, depth int) {
	for _, s := range stmts {
		formatStmt(b, s, depth)
	}
}

func formatStmt(b *strings.Builder, s ast.Stmt, depth int) {
	prefix := strings.Repeat(indent, depth)
	switch stmt := s.(type) {
	case *ast.Declaration:
		b.WriteString(prefix + stmt.Name + " : " + stmt.Type + " = " + formatExpr(stmt.Value) + "\n")
	case *ast.Assignment:
		b.WriteString(prefix + stmt.Name + " = " + formatExpr(stmt.Value) + "\n")
	case *ast.CommandStmt:
		b.WriteString(prefix + formatExpr(stmt.Call) + "\n")
	case *ast.ForRange:
		b.WriteString(prefix + "for " + stmt.Var + " in " + formatExpr(stmt.Start) + ".." + formatExpr(stmt.End) + ":\n")
		formatBlock(b, stmt.Body, depth+1)
	case *ast.While:
		b.WriteString(prefix + "while " + formatExpr(stmt.Cond) + ":\n")
		formatBlock(b, stmt.Body, depth+1)
	case *ast.If:
		for i, arm := range stmt.Arms {
			kw := "elif "
			if i == 0 {
				kw = "if "
			}
			b.WriteString(prefix + kw + formatExpr(arm.Cond) + ":\n")
			formatBlock(b, arm.Body, depth+1)
		}
		if len(stmt.Else) > 0 {
			b.WriteString(prefix + "else:\n")
			formatBlock(b, stmt.Else, depth+1)
		}
	}
}

func formatExpr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.IntLiteral:
		return strconv.FormatInt(expr.Value, 10)
	case *ast.FloatLiteral:
		return formatFloat(expr.Value)
	case *ast.BoolLiteral:
		return strconv.FormatBool(expr.Value)
	case *ast.StrLiteral:
		// String literals have no escapes and cannot contain a quote.
		return `"` + expr.Value + `"`
	case *ast.Ident:
		return expr.Name
	case *ast.StrCall:
		return "str(" + formatExpr(expr.Arg) + ")"
	case *ast.CallExpr:
		args := make([]string, len(expr.Args))
		for i, a := range expr.Args {
			args[i] = formatExpr(a)
		}
		return expr.Name + "(" + strings.Join(args, ", ") + ")"
	case *ast.UnaryExpr:
		operand := formatExpr(expr.Operand)
		if _, _, _, ok := binaryParts(expr.Operand); ok {
			operand = "(" + operand + ")"
		}
		return string(expr.Op) + operand
	}

	op, left, right, ok := binaryParts(e)
	if !ok {
		return ""
	}
	l := formatExpr(left)
	if needsParens(left, op, false) {
		l = "(" + l + ")"
	}
	r := formatExpr(right)
	if needsParens(right, op, true) {
		r = "(" + r + ")"
	}
	return l + " " + string(op) + " " + r
}

// formatFloat prints a float literal that the lexer reads back as a float.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

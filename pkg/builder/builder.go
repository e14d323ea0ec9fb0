// Package builder converts the concrete parse tree into the typed WarPy AST.
package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/parser"
	"github.com/thomasrohde/warpy/pkg/source"
)

type builder struct {
	diags []diagnostics.Diagnostic
}

// Build converts a parse tree into a Program. Building the same tree twice
// yields independent, structurally equal programs.
func Build(tree *parser.Tree) (*ast.Program, []diagnostics.Diagnostic) {
	if tree == nil || tree.Rule != parser.RuleProgram {
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EAst, "expected a program tree", nil, "")}
	}
	b := &builder{}
	prog := &ast.Program{Span: tree.Span, Statements: b.stmts(tree.Children)}
	if len(b.diags) > 0 {
		return nil, b.diags
	}
	return prog, nil
}

func (b *builder) addError(msg string, span source.Span) {
	b.diags = append(b.diags, diagnostics.MakeDiag(diagnostics.EAst, msg, &span, ""))
}

func (b *builder) malformed(t *parser.Tree) {
	b.addError(fmt.Sprintf("malformed %s node", t.Rule), t.Span)
}

func (b *builder) stmts(trees []*parser.Tree) []ast.Stmt {
	out := make([]ast.Stmt, 0, len(trees))
	for _, t := range trees {
		if s := b.stmt(t); s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (b *builder) block(t *parser.Tree) []ast.Stmt {
	if t == nil || t.Rule != parser.RuleBlock {
		if t != nil {
			b.malformed(t)
		}
		return nil
	}
	return b.stmts(t.Children)
}

func (b *builder) stmt(t *parser.Tree) ast.Stmt {
	switch t.Rule {
	case parser.RuleDeclaration:
		if len(t.Children) != 3 {
			b.malformed(t)
			return nil
		}
		typ := t.Children[1].Text()
		if !ast.IsDeclaredType(typ) {
			b.addError(fmt.Sprintf("unknown type '%s'", typ), t.Children[1].Span)
			return nil
		}
		return &ast.Declaration{
			Span:  t.Span,
			Name:  t.Children[0].Text(),
			Type:  typ,
			Value: b.expr(t.Children[2]),
		}

	case parser.RuleAssignment:
		if len(t.Children) != 2 {
			b.malformed(t)
			return nil
		}
		return &ast.Assignment{Span: t.Span, Name: t.Children[0].Text(), Value: b.expr(t.Children[1])}

	case parser.RuleCommand:
		if len(t.Children) != 1 || t.Children[0].Rule != parser.RuleCall {
			b.malformed(t)
			return nil
		}
		return &ast.CommandStmt{Span: t.Span, Call: b.call(t.Children[0])}

	case parser.RuleForLoop:
		if len(t.Children) != 3 || t.Children[1].Rule != parser.RuleRange || len(t.Children[1].Children) != 2 {
			b.malformed(t)
			return nil
		}
		rng := t.Children[1]
		return &ast.ForRange{
			Span:  t.Span,
			Var:   t.Children[0].Text(),
			Start: b.rangeBound(rng.Children[0]),
			End:   b.rangeBound(rng.Children[1]),
			Body:  b.block(t.Children[2]),
		}

	case parser.RuleWhileLoop:
		if len(t.Children) != 2 {
			b.malformed(t)
			return nil
		}
		return &ast.While{Span: t.Span, Cond: b.expr(t.Children[0]), Body: b.block(t.Children[1])}

	case parser.RuleConditional:
		return b.conditional(t)
	}

	b.addError(fmt.Sprintf("unexpected %s node in statement position", t.Rule), t.Span)
	return nil
}

func (b *builder) conditional(t *parser.Tree) ast.Stmt {
	if len(t.Children) < 2 {
		b.malformed(t)
		return nil
	}
	n := &ast.If{Span: t.Span}
	n.Arms = append(n.Arms, ast.CondArm{
		Span: source.Join(t.Span, t.Children[1].Span),
		Cond: b.expr(t.Children[0]),
		Body: b.block(t.Children[1]),
	})
	for _, arm := range t.Children[2:] {
		switch {
		case arm.Rule == parser.RuleElif && len(arm.Children) == 2:
			n.Arms = append(n.Arms, ast.CondArm{
				Span: arm.Span,
				Cond: b.expr(arm.Children[0]),
				Body: b.block(arm.Children[1]),
			})
		case arm.Rule == parser.RuleElse && len(arm.Children) == 1 && n.Else == nil:
			n.Else = b.block(arm.Children[0])
		default:
			b.malformed(arm)
		}
	}
	return n
}

// rangeBound builds a loop bound. Bounds are evaluated once, before the
// first iteration, and may not invoke commands.
func (b *builder) rangeBound(t *parser.Tree) ast.Expr {
	if call := findCall(t); call != nil {
		b.addError(fmt.Sprintf("command '%s' cannot be used as a range bound", call.Children[0].Text()), call.Span)
	}
	return b.expr(t)
}

func findCall(t *parser.Tree) *parser.Tree {
	if t.Rule == parser.RuleCall {
		return t
	}
	for _, c := range t.Children {
		if found := findCall(c); found != nil {
			return found
		}
	}
	return nil
}

func (b *builder) expr(t *parser.Tree) ast.Expr {
	switch t.Rule {
	case parser.RuleNumber:
		return b.number(t)
	case parser.RuleString:
		return &ast.StrLiteral{Span: t.Span, Value: t.Text()}
	case parser.RuleBoolean:
		return &ast.BoolLiteral{Span: t.Span, Value: t.Text() == "true"}
	case parser.RuleIdentifier:
		return &ast.Ident{Span: t.Span, Name: t.Text()}
	case parser.RuleCall:
		return b.call(t)
	case parser.RuleGroup:
		if len(t.Children) != 1 {
			b.malformed(t)
			return placeholder(t)
		}
		return b.expr(t.Children[0])
	case parser.RuleStrCall:
		if len(t.Children) != 1 {
			b.malformed(t)
			return placeholder(t)
		}
		return &ast.StrCall{Span: t.Span, Arg: b.expr(t.Children[0])}
	case parser.RuleUnary:
		if len(t.Children) != 2 || t.Children[0].Text() != string(ast.OpNeg) {
			b.malformed(t)
			return placeholder(t)
		}
		return &ast.UnaryExpr{Span: t.Span, Op: ast.OpNeg, Operand: b.expr(t.Children[1])}
	case parser.RuleLogical, parser.RuleComparison, parser.RuleAdditive, parser.RuleMultiplicative:
		return b.fold(t)
	}
	b.addError(fmt.Sprintf("unexpected %s node in expression position", t.Rule), t.Span)
	return placeholder(t)
}

// fold turns operand (op operand)+ into a left-associative chain.
func (b *builder) fold(t *parser.Tree) ast.Expr {
	if len(t.Children) < 3 || len(t.Children)%2 == 0 {
		b.malformed(t)
		return placeholder(t)
	}
	left := b.expr(t.Children[0])
	for i := 1; i < len(t.Children); i += 2 {
		opTree, rightTree := t.Children[i], t.Children[i+1]
		right := b.expr(rightTree)
		span := source.Join(left.NodeSpan(), right.NodeSpan())
		op := ast.BinaryOp(opTree.Text())

		switch t.Rule {
		case parser.RuleLogical:
			left = &ast.LogicalExpr{Span: span, Op: op, Left: left, Right: right}
		case parser.RuleComparison:
			left = &ast.CompareExpr{Span: span, Op: op, Left: left, Right: right}
		default:
			left = &ast.ArithExpr{Span: span, Op: op, Left: left, Right: right}
		}
	}
	return left
}

func (b *builder) number(t *parser.Tree) ast.Expr {
	text := t.Text()
	if strings.Contains(text, ".") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			b.addError(fmt.Sprintf("invalid float literal '%s'", text), t.Span)
			return placeholder(t)
		}
		return &ast.FloatLiteral{Span: t.Span, Value: f}
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		b.addError(fmt.Sprintf("integer literal '%s' out of range", text), t.Span)
		return placeholder(t)
	}
	return &ast.IntLiteral{Span: t.Span, Value: n}
}

func (b *builder) call(t *parser.Tree) *ast.CallExpr {
	if len(t.Children) == 0 || t.Children[0].Rule != parser.RuleIdentifier {
		b.malformed(t)
		return &ast.CallExpr{Span: t.Span}
	}
	c := &ast.CallExpr{Span: t.Span, Name: t.Children[0].Text()}
	for _, arg := range t.Children[1:] {
		c.Args = append(c.Args, b.expr(arg))
	}
	return c
}

// placeholder stands in for an expression that failed to build so that the
// walk can continue and report further errors. It never reaches execution.
func placeholder(t *parser.Tree) ast.Expr {
	return &ast.Ident{Span: t.Span, Name: ""}
}

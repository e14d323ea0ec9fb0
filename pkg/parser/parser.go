// Package parser implements the WarPy recursive-descent parser. It produces a
// concrete parse tree; the builder package turns that tree into an AST.
package parser

import (
	"errors"
	"fmt"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/lexer"
	"github.com/thomasrohde/warpy/pkg/source"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into a concrete parse tree.
func Parse(src, filename string) (*Tree, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(src, filename)
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	p := &parser{tokens: tokens, pos: 0}
	tree := p.parseProgram(filename)
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return tree, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s, got %s", typ, describe(tok)), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

// expectName consumes an identifier naming a binding.
func (p *parser) expectName(role string) (lexer.Token, bool) {
	tok := p.current()
	if isKeywordToken(tok) {
		p.addError(reserved(tok, role), &tok.Span)
		return tok, false
	}
	return p.expect(lexer.TokIdent)
}

// atReservedTarget reports whether the statement starts by binding a keyword,
// as in "in = 1" or "true : dg = 1".
func (p *parser) atReservedTarget() bool {
	if !isKeywordToken(p.current()) {
		return false
	}
	switch p.peekAt(1) {
	case lexer.TokEquals:
		return true
	case lexer.TokColon:
		return p.peekAt(2) == lexer.TokIdent && p.peekAt(3) == lexer.TokEquals
	}
	return false
}

func isKeywordToken(tok lexer.Token) bool {
	return tok.Type != lexer.TokIdent && tok.Type != lexer.TokStringLit && lexer.IsKeyword(tok.Value)
}

func reserved(tok lexer.Token, role string) string {
	return fmt.Sprintf("'%s' is a reserved word and cannot be used as a %s", tok.Value, role)
}

func (p *parser) addError(msg string, span *source.Span) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, span, ""))
}

func (p *parser) unexpected(what string) {
	tok := p.current()
	p.addError(fmt.Sprintf("expected %s, got %s", what, describe(tok)), &tok.Span)
}

// describe names a token for error messages.
func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokIdent, lexer.TokIntLit, lexer.TokFloatLit:
		return fmt.Sprintf("%s '%s'", tok.Type, tok.Value)
	case lexer.TokStringLit:
		return fmt.Sprintf("string %q", tok.Value)
	default:
		return tok.Type.String()
	}
}

// atBodyEnd reports whether an inline body stops at the current token.
func (p *parser) atBodyEnd() bool {
	switch p.peek() {
	case lexer.TokNewline, lexer.TokEOF, lexer.TokDedent, lexer.TokElif, lexer.TokElse:
		return true
	}
	return false
}

func (p *parser) parseProgram(filename string) *Tree {
	prog := &Tree{Rule: RuleProgram, Span: source.Span{File: filename, StartLine: 1, StartCol: 1}}

	for p.peek() != lexer.TokEOF {
		if p.peek() == lexer.TokNewline {
			p.advance()
			continue
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		prog.Children = append(prog.Children, stmt)
	}

	end := p.current().Span
	prog.Span.EndLine, prog.Span.EndCol = end.EndLine, end.EndCol
	return prog
}

// --- Statements ---

func (p *parser) parseStatement() *Tree {
	if p.atReservedTarget() {
		tok := p.current()
		p.addError(reserved(tok, "variable name"), &tok.Span)
		return nil
	}
	switch p.peek() {
	case lexer.TokFor:
		return p.parseFor()
	case lexer.TokWhile:
		return p.parseWhile()
	case lexer.TokIf:
		return p.parseConditional()
	case lexer.TokIdent:
		switch p.peekAt(1) {
		case lexer.TokColon:
			return p.parseDeclaration()
		case lexer.TokEquals:
			return p.parseAssignment()
		case lexer.TokLParen:
			call := p.parseCall()
			if call == nil {
				return nil
			}
			return node(RuleCommand, call)
		}
		p.pos++
		p.unexpected("':', '=' or '(' after identifier")
		return nil
	case lexer.TokIndent:
		tok := p.current()
		p.addError("unexpected indent", &tok.Span)
		return nil
	case lexer.TokElif, lexer.TokElse:
		tok := p.current()
		p.addError(fmt.Sprintf("'%s' without a matching 'if'", tok.Value), &tok.Span)
		return nil
	}
	p.unexpected("statement")
	return nil
}

func (p *parser) parseDeclaration() *Tree {
	name := leaf(RuleIdentifier, p.advance())
	p.advance() // consume ':'

	typTok, ok := p.expect(lexer.TokIdent)
	if !ok {
		return nil
	}
	if !ast.IsDeclaredType(typTok.Value) {
		p.addError(fmt.Sprintf("unknown type '%s'", typTok.Value), &typTok.Span)
		return nil
	}
	if _, ok := p.expect(lexer.TokEquals); !ok {
		return nil
	}
	val := p.parseExpression()
	if val == nil {
		return nil
	}
	return node(RuleDeclaration, name, leaf(RuleType, typTok), val)
}

func (p *parser) parseAssignment() *Tree {
	name := leaf(RuleIdentifier, p.advance())
	p.advance() // consume '='
	val := p.parseExpression()
	if val == nil {
		return nil
	}
	return node(RuleAssignment, name, val)
}

func (p *parser) parseFor() *Tree {
	start := p.advance() // consume 'for'
	varTok, ok := p.expectName("loop variable")
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokIn); !ok {
		return nil
	}
	lo := p.parseExpression()
	if lo == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokDotDot); !ok {
		return nil
	}
	hi := p.parseExpression()
	if hi == nil {
		return nil
	}
	body := p.parseBody()
	if body == nil {
		return nil
	}
	t := node(RuleForLoop, leaf(RuleIdentifier, varTok), node(RuleRange, lo, hi), body)
	t.Span = source.Join(start.Span, body.Span)
	return t
}

func (p *parser) parseWhile() *Tree {
	start := p.advance() // consume 'while'
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	body := p.parseBody()
	if body == nil {
		return nil
	}
	t := node(RuleWhileLoop, cond, body)
	t.Span = source.Join(start.Span, body.Span)
	return t
}

func (p *parser) parseConditional() *Tree {
	start := p.advance() // consume 'if'
	cond := p.parseExpression()
	if cond == nil {
		return nil
	}
	body := p.parseBody()
	if body == nil {
		return nil
	}
	t := &Tree{Rule: RuleConditional, Children: []*Tree{cond, body}}
	end := body.Span

	for p.continuesWith(lexer.TokElif) {
		kw := p.advance()
		c := p.parseExpression()
		if c == nil {
			return nil
		}
		b := p.parseBody()
		if b == nil {
			return nil
		}
		arm := node(RuleElif, c, b)
		arm.Span = source.Join(kw.Span, b.Span)
		t.Children = append(t.Children, arm)
		end = b.Span
	}

	if p.continuesWith(lexer.TokElse) {
		kw := p.advance()
		b := p.parseBody()
		if b == nil {
			return nil
		}
		arm := node(RuleElse, b)
		arm.Span = source.Join(kw.Span, b.Span)
		t.Children = append(t.Children, arm)
		end = b.Span
	}

	t.Span = source.Join(start.Span, end)
	return t
}

// continuesWith reports whether the conditional goes on with typ, either on
// the same line or at the start of the next one. A newline in front of the
// keyword is consumed.
func (p *parser) continuesWith(typ lexer.TokenType) bool {
	if p.peek() == typ {
		return true
	}
	if p.peek() == lexer.TokNewline && p.peekAt(1) == typ {
		p.advance()
		return true
	}
	return false
}

// parseBody parses ':' followed by an inline body or an indented block.
func (p *parser) parseBody() *Tree {
	colon, ok := p.expect(lexer.TokColon)
	if !ok {
		return nil
	}
	block := &Tree{Rule: RuleBlock}

	if p.peek() == lexer.TokNewline {
		p.advance()
		if _, ok := p.expect(lexer.TokIndent); !ok {
			return nil
		}
		for p.peek() != lexer.TokDedent && p.peek() != lexer.TokEOF {
			if p.peek() == lexer.TokNewline {
				p.advance()
				continue
			}
			stmt := p.parseStatement()
			if stmt == nil {
				return nil
			}
			block.Children = append(block.Children, stmt)
		}
		if p.peek() == lexer.TokDedent {
			p.advance()
		}
	} else {
		for !p.atBodyEnd() {
			stmt := p.parseStatement()
			if stmt == nil {
				return nil
			}
			block.Children = append(block.Children, stmt)
		}
	}

	if len(block.Children) == 0 {
		p.addError("expected at least one statement after ':'", &colon.Span)
		return nil
	}
	block.Span = source.Join(block.Children[0].Span, block.Children[len(block.Children)-1].Span)
	return block
}

// --- Expressions ---

func (p *parser) parseExpression() *Tree {
	return p.parseLogical()
}

// parseLevel parses operand (op operand)* for one precedence level.
func (p *parser) parseLevel(rule string, next func() *Tree, ops ...lexer.TokenType) *Tree {
	first := next()
	if first == nil {
		return nil
	}
	children := []*Tree{first}
	for matches(p.peek(), ops) {
		children = append(children, leaf(RuleOp, p.advance()))
		operand := next()
		if operand == nil {
			return nil
		}
		children = append(children, operand)
	}
	if len(children) == 1 {
		return first
	}
	return node(rule, children...)
}

func matches(typ lexer.TokenType, ops []lexer.TokenType) bool {
	for _, op := range ops {
		if typ == op {
			return true
		}
	}
	return false
}

func (p *parser) parseLogical() *Tree {
	return p.parseLevel(RuleLogical, p.parseComparison, lexer.TokAnd, lexer.TokOr)
}

func (p *parser) parseComparison() *Tree {
	return p.parseLevel(RuleComparison, p.parseAdditive,
		lexer.TokEqEq, lexer.TokBangEq, lexer.TokLt, lexer.TokGt, lexer.TokLtEq, lexer.TokGtEq)
}

func (p *parser) parseAdditive() *Tree {
	return p.parseLevel(RuleAdditive, p.parseMultiplicative, lexer.TokPlus, lexer.TokMinus)
}

func (p *parser) parseMultiplicative() *Tree {
	return p.parseLevel(RuleMultiplicative, p.parseUnary, lexer.TokStar, lexer.TokSlash, lexer.TokPercent)
}

func (p *parser) parseUnary() *Tree {
	if p.peek() == lexer.TokMinus {
		op := leaf(RuleOp, p.advance())
		operand := p.parseUnary()
		if operand == nil {
			return nil
		}
		return node(RuleUnary, op, operand)
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() *Tree {
	switch p.peek() {
	case lexer.TokIntLit, lexer.TokFloatLit:
		return leaf(RuleNumber, p.advance())
	case lexer.TokStringLit:
		return leaf(RuleString, p.advance())
	case lexer.TokTrue, lexer.TokFalse:
		return leaf(RuleBoolean, p.advance())
	case lexer.TokStr:
		kw := p.advance()
		if _, ok := p.expect(lexer.TokLParen); !ok {
			return nil
		}
		arg := p.parseExpression()
		if arg == nil {
			return nil
		}
		end, ok := p.expect(lexer.TokRParen)
		if !ok {
			return nil
		}
		t := node(RuleStrCall, arg)
		t.Span = source.Join(kw.Span, end.Span)
		return t
	case lexer.TokIdent:
		if p.peekAt(1) == lexer.TokLParen {
			return p.parseCall()
		}
		return leaf(RuleIdentifier, p.advance())
	case lexer.TokLParen:
		open := p.advance()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		end, ok := p.expect(lexer.TokRParen)
		if !ok {
			return nil
		}
		t := node(RuleGroup, inner)
		t.Span = source.Join(open.Span, end.Span)
		return t
	}
	p.unexpected("expression")
	return nil
}

// parseCall parses name "(" [expr ("," expr)*] ")".
func (p *parser) parseCall() *Tree {
	name := leaf(RuleIdentifier, p.advance())
	p.advance() // consume '('

	t := &Tree{Rule: RuleCall, Children: []*Tree{name}}
	if p.peek() != lexer.TokRParen {
		for {
			arg := p.parseExpression()
			if arg == nil {
				return nil
			}
			t.Children = append(t.Children, arg)
			if p.peek() != lexer.TokComma {
				break
			}
			p.advance()
		}
	}
	end, ok := p.expect(lexer.TokRParen)
	if !ok {
		return nil
	}
	t.Span = source.Join(name.Span, end.Span)
	return t
}

package parser

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/warpy/pkg/lexer"
	"github.com/thomasrohde/warpy/pkg/source"
)

// Rule names of the concrete parse tree.
const (
	RuleProgram        = "program"
	RuleBlock          = "block"
	RuleDeclaration    = "declaration"
	RuleAssignment     = "assignment"
	RuleCommand        = "command"
	RuleForLoop        = "for_loop"
	RuleRange          = "range"
	RuleWhileLoop      = "while_loop"
	RuleConditional    = "conditional"
	RuleElif           = "elif"
	RuleElse           = "else"
	RuleLogical        = "logical"
	RuleComparison     = "comparison"
	RuleAdditive       = "additive"
	RuleMultiplicative = "multiplicative"
	RuleUnary          = "unary"
	RuleNumber         = "number"
	RuleIdentifier     = "identifier"
	RuleCall           = "call"
	RuleString         = "string"
	RuleBoolean        = "boolean"
	RuleStrCall        = "str_call"
	RuleGroup          = "group"
	RuleOp             = "op"
	RuleType           = "type"
)

// Tree is a node of the concrete parse tree. Leaves carry the token they were
// built from; interior nodes carry their children in source order.
//
// Binary rules (logical, comparison, additive, multiplicative) alternate
// operand and op children: operand (op operand)+. A level with no operator
// is not wrapped, so an additive node always holds at least one op.
type Tree struct {
	Rule     string
	Token    *lexer.Token
	Children []*Tree
	Span     source.Span
}

// IsLeaf reports whether t was built from a single token.
func (t *Tree) IsLeaf() bool {
	return t.Token != nil
}

// Text returns the token text of a leaf, or "".
func (t *Tree) Text() string {
	if t.Token == nil {
		return ""
	}
	return t.Token.Value
}

// String renders the tree as an s-expression, mainly for tests and debugging.
func (t *Tree) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder) {
	if t.IsLeaf() {
		if t.Rule == RuleString {
			sb.WriteString(strconv.Quote(t.Token.Value))
		} else {
			sb.WriteString(t.Token.Value)
		}
		return
	}
	sb.WriteString("(")
	sb.WriteString(t.Rule)
	for _, c := range t.Children {
		sb.WriteString(" ")
		c.write(sb)
	}
	sb.WriteString(")")
}

func leaf(rule string, tok lexer.Token) *Tree {
	return &Tree{Rule: rule, Token: &tok, Span: tok.Span}
}

func node(rule string, children ...*Tree) *Tree {
	t := &Tree{Rule: rule, Children: children}
	if len(children) > 0 {
		t.Span = source.Join(children[0].Span, children[len(children)-1].Span)
	}
	return t
}

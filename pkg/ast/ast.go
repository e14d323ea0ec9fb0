// Package ast defines the WarPy AST node types and their execution semantics.
package ast

import (
	"github.com/thomasrohde/warpy/pkg/env"
	"github.com/thomasrohde/warpy/pkg/source"
	"github.com/thomasrohde/warpy/pkg/value"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() source.Span
}

// BinaryOp represents a binary operator.
type BinaryOp string

const (
	OpAdd  BinaryOp = "+"
	OpSub  BinaryOp = "-"
	OpMul  BinaryOp = "*"
	OpDiv  BinaryOp = "/"
	OpMod  BinaryOp = "%"
	OpGt   BinaryOp = ">"
	OpLt   BinaryOp = "<"
	OpGtEq BinaryOp = ">="
	OpLtEq BinaryOp = "<="
	OpEqEq BinaryOp = "=="
	OpNeq  BinaryOp = "!="
	OpAnd  BinaryOp = "and"
	OpOr   BinaryOp = "or"
)

// UnaryOp represents a unary operator.
type UnaryOp string

const (
	OpNeg UnaryOp = "-"
)

// Declared type names. Only TypeNumeric changes runtime behaviour.
const (
	TypeNumeric     = "dg"
	TypeServitor    = "servitor"
	TypeBlob        = "blob"
	TypePsykers     = "psykers"
	TypeVoidShields = "void_shields"
)

// IsDeclaredType reports whether name is a known declaration type.
func IsDeclaredType(name string) bool {
	switch name {
	case TypeNumeric, TypeServitor, TypeBlob, TypePsykers, TypeVoidShields:
		return true
	}
	return false
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	Eval(e *env.Env) (value.Value, error)
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	Exec(e *env.Env) error
	stmtNode() // sealed marker
}

// --- Literal Expressions ---

type IntLiteral struct {
	Span  source.Span
	Value int64
}

func (n *IntLiteral) Kind() string          { return "IntLiteral" }
func (n *IntLiteral) NodeSpan() source.Span { return n.Span }
func (n *IntLiteral) exprNode()             {}

type FloatLiteral struct {
	Span  source.Span
	Value float64
}

func (n *FloatLiteral) Kind() string          { return "FloatLiteral" }
func (n *FloatLiteral) NodeSpan() source.Span { return n.Span }
func (n *FloatLiteral) exprNode()             {}

type BoolLiteral struct {
	Span  source.Span
	Value bool
}

func (n *BoolLiteral) Kind() string          { return "BoolLiteral" }
func (n *BoolLiteral) NodeSpan() source.Span { return n.Span }
func (n *BoolLiteral) exprNode()             {}

type StrLiteral struct {
	Span  source.Span
	Value string
}

func (n *StrLiteral) Kind() string          { return "StrLiteral" }
func (n *StrLiteral) NodeSpan() source.Span { return n.Span }
func (n *StrLiteral) exprNode()             {}

// --- Identifiers ---

type Ident struct {
	Span source.Span
	Name string
}

func (n *Ident) Kind() string          { return "Ident" }
func (n *Ident) NodeSpan() source.Span { return n.Span }
func (n *Ident) exprNode()             {}

// --- Operators ---

// ArithExpr is one of + - * / %.
type ArithExpr struct {
	Span  source.Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *ArithExpr) Kind() string          { return "ArithExpr" }
func (n *ArithExpr) NodeSpan() source.Span { return n.Span }
func (n *ArithExpr) exprNode()             {}

// LogicalExpr is "and" or "or". Both operands are always evaluated.
type LogicalExpr struct {
	Span  source.Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *LogicalExpr) Kind() string          { return "LogicalExpr" }
func (n *LogicalExpr) NodeSpan() source.Span { return n.Span }
func (n *LogicalExpr) exprNode()             {}

// CompareExpr is one of == != < > <= >=.
type CompareExpr struct {
	Span  source.Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *CompareExpr) Kind() string          { return "CompareExpr" }
func (n *CompareExpr) NodeSpan() source.Span { return n.Span }
func (n *CompareExpr) exprNode()             {}

type UnaryExpr struct {
	Span    source.Span
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) Kind() string          { return "UnaryExpr" }
func (n *UnaryExpr) NodeSpan() source.Span { return n.Span }
func (n *UnaryExpr) exprNode()             {}

// StrCall is the str(expr) conversion.
type StrCall struct {
	Span source.Span
	Arg  Expr
}

func (n *StrCall) Kind() string          { return "StrCall" }
func (n *StrCall) NodeSpan() source.Span { return n.Span }
func (n *StrCall) exprNode()             {}

// CallExpr invokes a registered command and yields its value.
type CallExpr struct {
	Span source.Span
	Name string
	Args []Expr
}

func (n *CallExpr) Kind() string          { return "CallExpr" }
func (n *CallExpr) NodeSpan() source.Span { return n.Span }
func (n *CallExpr) exprNode()             {}

// --- Statements ---

// Declaration is "name : type = value".
type Declaration struct {
	Span  source.Span
	Name  string
	Type  string
	Value Expr
}

func (n *Declaration) Kind() string          { return "Declaration" }
func (n *Declaration) NodeSpan() source.Span { return n.Span }
func (n *Declaration) stmtNode()             {}

type Assignment struct {
	Span  source.Span
	Name  string
	Value Expr
}

func (n *Assignment) Kind() string          { return "Assignment" }
func (n *Assignment) NodeSpan() source.Span { return n.Span }
func (n *Assignment) stmtNode()             {}

// CommandStmt invokes a command for its side effects.
type CommandStmt struct {
	Span source.Span
	Call *CallExpr
}

func (n *CommandStmt) Kind() string          { return "CommandStmt" }
func (n *CommandStmt) NodeSpan() source.Span { return n.Span }
func (n *CommandStmt) stmtNode()             {}

// ForRange is "for var in start..end: body" over an inclusive range.
type ForRange struct {
	Span  source.Span
	Var   string
	Start Expr
	End   Expr
	Body  []Stmt
}

func (n *ForRange) Kind() string          { return "ForRange" }
func (n *ForRange) NodeSpan() source.Span { return n.Span }
func (n *ForRange) stmtNode()             {}

type While struct {
	Span source.Span
	Cond Expr
	Body []Stmt
}

func (n *While) Kind() string          { return "While" }
func (n *While) NodeSpan() source.Span { return n.Span }
func (n *While) stmtNode()             {}

// CondArm is one guarded arm of an If: the "if" arm or an "elif" arm.
type CondArm struct {
	Span source.Span
	Cond Expr
	Body []Stmt
}

// If runs the first arm whose condition is truthy, else Else.
type If struct {
	Span source.Span
	Arms []CondArm
	Else []Stmt
}

func (n *If) Kind() string          { return "If" }
func (n *If) NodeSpan() source.Span { return n.Span }
func (n *If) stmtNode()             {}

// --- Program ---

type Program struct {
	Span       source.Span
	Statements []Stmt
}

func (n *Program) Kind() string          { return "Program" }
func (n *Program) NodeSpan() source.Span { return n.Span }

// Package lexer implements the WarPy tokenizer, including the indentation
// tracking that turns leading whitespace into INDENT and DEDENT tokens.
package lexer

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/source"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokFor TokenType = iota
	TokIn
	TokWhile
	TokIf
	TokElif
	TokElse
	TokAnd
	TokOr
	TokTrue
	TokFalse
	TokStr

	// Literals
	TokIntLit
	TokFloatLit
	TokStringLit

	// Identifiers
	TokIdent

	// Punctuation
	TokLParen // (
	TokRParen // )
	TokColon  // :
	TokComma  // ,
	TokDotDot // ..
	TokEquals // =

	// Comparison operators
	TokGtEq   // >=
	TokLtEq   // <=
	TokEqEq   // ==
	TokBangEq // !=
	TokGt     // >
	TokLt     // <

	// Arithmetic operators
	TokPlus    // +
	TokMinus   // -
	TokStar    // *
	TokSlash   // /
	TokPercent // %

	// Layout
	TokNewline
	TokIndent
	TokDedent

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokIntLit:    "integer",
	TokFloatLit:  "float",
	TokStringLit: "string",
	TokIdent:     "identifier",
	TokNewline:   "newline",
	TokIndent:    "indent",
	TokDedent:    "dedent",
	TokEOF:       "end of input",
	TokLParen:    "'('",
	TokRParen:    "')'",
	TokColon:     "':'",
	TokComma:     "','",
	TokDotDot:    "'..'",
	TokEquals:    "'='",
	TokGtEq:      "'>='",
	TokLtEq:      "'<='",
	TokEqEq:      "'=='",
	TokBangEq:    "'!='",
	TokGt:        "'>'",
	TokLt:        "'<'",
	TokPlus:      "'+'",
	TokMinus:     "'-'",
	TokStar:      "'*'",
	TokSlash:     "'/'",
	TokPercent:   "'%'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	for kw, typ := range keywords {
		if typ == t {
			return "'" + kw + "'"
		}
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token represents a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Span  source.Span
}

var keywords = map[string]TokenType{
	"for":   TokFor,
	"in":    TokIn,
	"while": TokWhile,
	"if":    TokIf,
	"elif":  TokElif,
	"else":  TokElse,
	"and":   TokAnd,
	"or":    TokOr,
	"true":  TokTrue,
	"false": TokFalse,
	"str":   TokStr,
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int

	indents     []int
	parenDepth  int
	atLineStart bool
	tokens      []Token
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:      source,
		filename:    filename,
		pos:         0,
		line:        1,
		col:         1,
		indents:     []int{0},
		atLineStart: true,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) source.Span {
	return source.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) emit(typ TokenType, value string, span source.Span) {
	s.tokens = append(s.tokens, Token{Type: typ, Value: value, Span: span})
}

func (s *scanner) lastType() (TokenType, bool) {
	if len(s.tokens) == 0 {
		return 0, false
	}
	return s.tokens[len(s.tokens)-1].Type, true
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

// skipComment consumes a comment up to, but not including, the newline.
func (s *scanner) skipComment() {
	for !s.atEnd() && s.peek() != '\n' {
		s.advance()
	}
}

// scanIndentation measures the leading whitespace of a logical line and emits
// INDENT or DEDENT tokens. Blank and comment-only lines produce nothing.
func (s *scanner) scanIndentation() error {
	for {
		width := 0
		for !s.atEnd() && (s.peek() == ' ' || s.peek() == '\t') {
			s.advance()
			width++
		}
		switch {
		case s.atEnd():
			return nil
		case s.peek() == '#':
			s.skipComment()
			continue
		case s.peek() == '\r':
			s.advance()
			continue
		case s.peek() == '\n':
			s.advance()
			continue
		}

		s.atLineStart = false
		top := s.indents[len(s.indents)-1]
		if width > top {
			s.indents = append(s.indents, width)
			s.emit(TokIndent, "", s.span(s.line, 1))
			return nil
		}
		for width < s.indents[len(s.indents)-1] {
			s.indents = s.indents[:len(s.indents)-1]
			s.emit(TokDedent, "", s.span(s.line, s.col))
		}
		if width != s.indents[len(s.indents)-1] {
			return s.lexError(s.line, s.col, "unindent does not match any outer indentation level")
		}
		return nil
	}
}

func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "

	start := s.pos
	for !s.atEnd() {
		switch s.peek() {
		case '"':
			text := s.source[start:s.pos]
			s.advance() // consume closing "
			return Token{
				Type:  TokStringLit,
				Value: text,
				Span:  s.span(startLine, startCol),
			}, nil
		case '\n':
			return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
		}
		s.advance()
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	isFloat := false

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	// A '.' followed by a digit starts a fraction; ".." is the range operator.
	if s.peek() == '.' && isDigit(s.peekAt(1)) {
		isFloat = true
		s.advance()
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	tokType := TokIntLit
	if isFloat {
		tokType = TokFloatLit
	}
	return Token{
		Type:  tokType,
		Value: s.source[startPos:s.pos],
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]
	if tokType, ok := keywords[text]; ok {
		return Token{
			Type:  tokType,
			Value: text,
			Span:  s.span(startLine, startCol),
		}
	}
	return Token{
		Type:  TokIdent,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&source.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// newline ends a logical line. Runs of empty lines collapse into one token.
func (s *scanner) newline() {
	startLine, startCol := s.line, s.col
	s.advance()
	if s.parenDepth > 0 {
		return
	}
	s.atLineStart = true
	if last, ok := s.lastType(); ok && last != TokNewline && last != TokIndent && last != TokDedent {
		s.tokens = append(s.tokens, Token{Type: TokNewline, Value: "\n", Span: source.Span{
			File: s.filename, StartLine: startLine, StartCol: startCol, EndLine: startLine, EndCol: startCol + 1,
		}})
	}
}

var simpleTokens = map[byte]TokenType{
	'(': TokLParen,
	')': TokRParen,
	':': TokColon,
	',': TokComma,
	'+': TokPlus,
	'-': TokMinus,
	'*': TokStar,
	'/': TokSlash,
	'%': TokPercent,
}

// twoCharTokens maps a leading byte to the token it forms with a following
// '=' and the token it forms alone.
var twoCharTokens = map[byte][2]TokenType{
	'=': {TokEqEq, TokEquals},
	'>': {TokGtEq, TokGt},
	'<': {TokLtEq, TokLt},
}

func (s *scanner) scanToken() error {
	ch := s.peek()
	startLine, startCol := s.line, s.col

	switch {
	case ch == ' ' || ch == '\t' || ch == '\r':
		s.advance()
		return nil
	case ch == '#':
		s.skipComment()
		return nil
	case ch == '\n':
		s.newline()
		return nil
	}

	if typ, ok := simpleTokens[ch]; ok {
		s.advance()
		switch typ {
		case TokLParen:
			s.parenDepth++
		case TokRParen:
			if s.parenDepth > 0 {
				s.parenDepth--
			}
		}
		s.emit(typ, string(ch), s.span(startLine, startCol))
		return nil
	}

	if pair, ok := twoCharTokens[ch]; ok {
		s.advance()
		if s.peek() == '=' {
			s.advance()
			s.emit(pair[0], string(ch)+"=", s.span(startLine, startCol))
			return nil
		}
		s.emit(pair[1], string(ch), s.span(startLine, startCol))
		return nil
	}

	switch {
	case ch == '!':
		s.advance()
		if s.peek() == '=' {
			s.advance()
			s.emit(TokBangEq, "!=", s.span(startLine, startCol))
			return nil
		}
		return s.lexError(startLine, startCol, "unexpected character '!'")

	case ch == '.':
		if s.peekAt(1) == '.' {
			s.advance()
			s.advance()
			s.emit(TokDotDot, "..", s.span(startLine, startCol))
			return nil
		}
		return s.lexError(startLine, startCol, "unexpected character '.'")

	case isDigit(ch):
		s.tokens = append(s.tokens, s.scanNumber())
		return nil

	case ch == '"':
		tok, err := s.scanString()
		if err != nil {
			return err
		}
		s.tokens = append(s.tokens, tok)
		return nil

	case isAlpha(ch):
		s.tokens = append(s.tokens, s.scanIdentOrKeyword())
		return nil
	}

	return s.lexError(startLine, startCol, fmt.Sprintf("unexpected character %q", rune(ch)))
}

// Tokenize breaks source code into a slice of tokens. Every non-empty logical
// line ends with NEWLINE, and the stream ends with the DEDENTs that close any
// open blocks followed by EOF.
func Tokenize(src, filename string) ([]Token, error) {
	s := newScanner(strings.TrimPrefix(src, "\ufeff"), filename)

	for !s.atEnd() {
		if s.atLineStart && s.parenDepth == 0 {
			if err := s.scanIndentation(); err != nil {
				return nil, err
			}
			continue
		}
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}

	if last, ok := s.lastType(); ok && last != TokNewline && last != TokDedent {
		s.emit(TokNewline, "", s.span(s.line, s.col))
	}
	for len(s.indents) > 1 {
		s.indents = s.indents[:len(s.indents)-1]
		s.emit(TokDedent, "", s.span(s.line, s.col))
	}
	s.emit(TokEOF, "", s.span(s.line, s.col))
	return s.tokens, nil
}

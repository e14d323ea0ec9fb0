// Package source defines source locations shared by the WarPy front end,
// the AST and diagnostics.
package source

import "fmt"

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Join returns a span covering start through end.
func Join(start, end Span) Span {
	return Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func (s Span) String() string {
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartCol)
}

package validator

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/source"
)

// MaxLineLength is the longest line LintSource accepts without a warning.
const MaxLineLength = 120

// LintSource reports layout problems that the parser ignores: trailing
// whitespace and overlong lines. All findings are warnings.
func LintSource(src, filename string) []diagnostics.Diagnostic {
	var diags []diagnostics.Diagnostic
	for i, line := range strings.Split(src, "\n") {
		line = strings.TrimSuffix(line, "\r")
		lineNo := i + 1
		if trimmed := strings.TrimRight(line, " \t"); trimmed != line {
			col := len(trimmed) + 1
			span := source.Span{File: filename, StartLine: lineNo, StartCol: col, EndLine: lineNo, EndCol: len(line) + 1}
			diags = append(diags, diagnostics.MakeWarning(diagnostics.WStyle, "trailing whitespace", &span, ""))
		}
		if len(line) > MaxLineLength {
			span := source.Span{File: filename, StartLine: lineNo, StartCol: MaxLineLength + 1, EndLine: lineNo, EndCol: len(line) + 1}
			diags = append(diags, diagnostics.MakeWarning(diagnostics.WStyle,
				fmt.Sprintf("line is %d characters long (limit %d)", len(line), MaxLineLength), &span, ""))
		}
	}
	return diags
}

package formatter_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/builder"
	"github.com/thomasrohde/warpy/pkg/commands"
	"github.com/thomasrohde/warpy/pkg/evaluator"
	"github.com/thomasrohde/warpy/pkg/formatter"
	"github.com/thomasrohde/warpy/pkg/parser"
	"github.com/thomasrohde/warpy/pkg/source"
)

func mustBuild(t *testing.T, src string) *ast.Program {
	t.Helper()
	tree, diags := parser.Parse(src, "test.wp40k")
	if len(diags) > 0 {
		t.Fatalf("parse diagnostics for %q: %v", src, diags)
	}
	prog, diags := builder.Build(tree)
	if len(diags) > 0 {
		t.Fatalf("build diagnostics for %q: %v", src, diags)
	}
	return prog
}

func TestFormatCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"assignment spacing", "x=1+2*3", "x = 1 + 2 * 3\n"},
		{"declaration", "n:dg=\"5\"", "n : dg = \"5\"\n"},
		{"redundant parens", "x = (1 + 2) + (3 * 4)", "x = 1 + 2 + 3 * 4\n"},
		{"needed parens", "x = (1 + 2) * 3", "x = (1 + 2) * 3\n"},
		{"right operand same level", "x = 10 - (3 - 2)", "x = 10 - (3 - 2)\n"},
		{"comparison over logic", "x = a > 1 and (b or c)", "x = a > 1 and (b or c)\n"},
		{"unary", "x = -(a + 1) * --b", "x = -(a + 1) * --b\n"},
		{"floats", "x = 2.50 + 1.0", "x = 2.5 + 1.0\n"},
		{"calls", "vox_cast( str( 1 ) )\nburn_the_heretic(a,b)", "vox_cast(str(1))\nburn_the_heretic(a, b)\n"},
		{"inline bodies expand", "for i in 1..n+1: burn_the_heretic(i)", "for i in 1..n + 1:\n    burn_the_heretic(i)\n"},
		{
			"conditional chain",
			"if a: x()\nelif b: y()\nelse: z()",
			"if a:\n    x()\nelif b:\n    y()\nelse:\n    z()\n",
		},
		{
			"nested blocks",
			"while n > 0:\n  if n % 2 == 0: vox_cast(\"even\")\n  n = n - 1",
			"while n > 0:\n    if n % 2 == 0:\n        vox_cast(\"even\")\n    n = n - 1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatter.Format(mustBuild(t, tt.in))
			if got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

var idempotenceSources = []string{
	"x = 1\ny = x * (2 + 3) - -x % 4\n",
	"a = 1 < 2 == true or false and 3 >= 4\n",
	"for i in -1..(x + 1) * 2:\n    for j in 1..i: vox_cast(str(j))\n",
	"if a: if b: x() else: y()\nelif c != \"s\": z()\n",
	"s : servitor = servitor()\nn : dg = hear_the_emperors_voice(\"? \")\n",
}

func TestFormatIdempotent(t *testing.T) {
	ignoreSpans := cmpopts.IgnoreTypes(source.Span{})
	for _, src := range idempotenceSources {
		first := mustBuild(t, src)
		once := formatter.Format(first)
		second := mustBuild(t, once)
		twice := formatter.Format(second)
		if once != twice {
			t.Errorf("not idempotent for %q:\nonce:\n%s\ntwice:\n%s", src, once, twice)
		}
		if diff := cmp.Diff(first, second, ignoreSpans); diff != "" {
			t.Errorf("formatting changed the program for %q (-before +after):\n%s", src, diff)
		}
	}
}

func TestFormatPreservesOutput(t *testing.T) {
	src := `total = 0
for i in 1..5: total = total + i * 2
while total > 7: total = total - 7
if total == 0: vox_cast("zero") elif total > 3: burn_the_heretic(total) else: vox_cast(str(-total))
`
	run := func(prog *ast.Program) string {
		var out bytes.Buffer
		reg := commands.NewRegistry()
		commands.RegisterDefaults(reg, &out, strings.NewReader(""))
		if _, err := evaluator.Execute(context.Background(), prog, evaluator.ExecOptions{Commands: reg}); err != nil {
			t.Fatal(err)
		}
		return out.String()
	}
	before := run(mustBuild(t, src))
	after := run(mustBuild(t, formatter.Format(mustBuild(t, src))))
	if before != after {
		t.Errorf("output changed: %q vs %q", before, after)
	}
}

func TestHasComments(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"# heading\nx = 1", true},
		{"x = 1 # trailing", true},
		{`vox_cast("# not a comment")`, false},
		{"x = 1", false},
	}
	for _, tt := range tests {
		if got := formatter.HasComments(tt.src); got != tt.want {
			t.Errorf("HasComments(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

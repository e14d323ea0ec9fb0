// Package help holds the WarPy language reference printed by `warpy ref`.
package help

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/thomasrohde/warpy/pkg/commands"
)

// QUICKREF is the overview shown when no topic is given.
const QUICKREF = `WarPy quick reference

  x : dg = "42"          declaration (dg coerces to a number)
  x = x + 1              assignment
  vox_cast("hail")       command call
  for i in 1..10: ...    inclusive range loop
  while x > 0: ...       loop while truthy
  if a: ... elif b: ... else: ...

Topics: syntax, types, commands, flow, diagnostics, config, examples
Run 'warpy ref <topic>' for details or 'warpy commands' for the registry.
`

// TopicList is the display order of the reference topics.
var TopicList = []string{"syntax", "types", "commands", "flow", "diagnostics", "config", "examples"}

// Topics maps a topic name to its text.
var Topics = map[string]string{
	"syntax": `Syntax

Statements end at a newline. Blocks follow ':' either on the same line or
as an indented block on the following lines. '#' starts a comment.

Expressions, loosest binding first:
  and or                 both operands are always evaluated
  == != < > <= >=        left-associative, may chain
  + -
  * / %                  % is floored like Python
  -x                     unary minus
  literals, names, calls, str(x), (expr)
`,
	"types": `Types

Values are integers, floats, strings, booleans or undefined.
  dg            declaration coerces strings like "12" or "1.5" to numbers
  servitor      label only
  blob          label only
  psykers       label only
  void_shields  label only

Reading a name that was never bound yields undefined unless
strict_variables is set, in which case it is an E_UNBOUND error.
`,
	"commands": `Commands

Commands are looked up by name before their arguments are evaluated.
An unknown command prints "Unknown command: NAME" and the statement is
skipped. Calling a command with the wrong number of arguments is an
E_ARITY error unless arity is set to lenient, which retries the call
with no arguments.

Run 'warpy commands' to list every registered command.
`,
	"flow": `Control flow

  for i in START..END:   bounds are evaluated once and must be integral;
                         commands may not appear in bounds; END is inclusive
  while COND:            re-evaluates COND before each iteration
  if/elif/else           the first truthy arm runs

Falsy values: 0, 0.0, "", false, undefined.
`,
	"diagnostics": `Diagnostics

  E_LEX E_PARSE E_AST         the program never runs
  E_ARITHMETIC                division or modulo by zero, integer overflow
  E_TYPE                      operand kinds, numeric declarations, bounds
  E_UNKNOWN_COMMAND           reported, execution continues
  E_ARITY E_UNBOUND E_COMMAND stop the run
  W_DUPLICATE_DECL W_UNUSED   warnings from 'warpy check'
  W_STYLE

Exit codes: 0 ok, 1 usage or I/O, 2 diagnostics, 4 runtime error.
`,
	"config": `Configuration

Settings are read from .warpy.yaml in the current directory, else from
~/.warpy/config.yaml, else defaults. Command-line flags win.

  strict_variables: false
  arity: strict          # or lenient
  color: auto            # always, never
  log_level: warn
  pretty: false
`,
	"examples": `Examples

  n : dg = hear_the_emperors_voice("How many? ")
  for i in 1..n:
      if i % 2 == 0: burn_the_heretic(i)
      else: vox_cast(str(i))
  WAAAGH()
`,
}

// MatchTopic resolves query to a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	if content, ok := Topics[query]; ok {
		return query, content, nil
	}
	var matches []string
	for _, name := range TopicList {
		if query != "" && strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], Topics[matches[0]], nil
	case 0:
		return "", "", fmt.Errorf("unknown topic '%s'", query)
	}
	return "", "", fmt.Errorf("ambiguous topic '%s' (matches %s)", query, strings.Join(matches, ", "))
}

// CommandIndex renders the registry as an aligned table of names, arities
// and descriptions.
func CommandIndex(reg *commands.Registry) string {
	all := reg.All()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	for _, name := range names {
		cmd := all[name]
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, cmd.Arity(), cmd.Doc)
	}
	w.Flush()
	fmt.Fprintf(&b, "\nTotal: %d commands\n", len(names))
	return b.String()
}

// Package commands provides the WarPy command definition and registry.
package commands

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/thomasrohde/warpy/pkg/value"
)

// Command is a named callable reachable from WarPy source as name(args...).
type Command struct {
	Name    string
	MinArgs int
	MaxArgs int
	Doc     string
	// Fn returns value.Absent (or nil) when the command produces no value.
	Fn func(args []value.Value) (value.Value, error)
}

// Accepts reports whether n arguments fit the declared arity.
func (c *Command) Accepts(n int) bool {
	return n >= c.MinArgs && n <= c.MaxArgs
}

// Arity renders the declared arity as "N" or "MIN..MAX".
func (c *Command) Arity() string {
	if c.MinArgs == c.MaxArgs {
		return fmt.Sprintf("%d", c.MinArgs)
	}
	return fmt.Sprintf("%d..%d", c.MinArgs, c.MaxArgs)
}

// Registry holds registered commands.
type Registry struct {
	cmds map[string]*Command
}

// NewRegistry creates a new empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		cmds: make(map[string]*Command),
	}
}

// Register adds a command to the registry, replacing any command with the
// same name.
func (r *Registry) Register(cmd Command) {
	r.cmds[cmd.Name] = &cmd
}

// Lookup retrieves a command by name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	cmd, ok := r.cmds[name]
	return cmd, ok
}

// All returns all registered commands.
func (r *Registry) All() map[string]*Command {
	return r.cmds
}

// Names returns the registered command names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// maxSuggestDistance bounds the edit distance of the typo fallback.
const maxSuggestDistance = 3

// Suggest returns the registered name closest to name, or "" when nothing is
// close enough. Subsequence matches win; otherwise the nearest name by edit
// distance is used.
func (r *Registry) Suggest(name string) string {
	names := r.Names()
	if len(names) == 0 || name == "" {
		return ""
	}

	ranks := fuzzy.RankFindFold(name, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	best, bestDist := "", maxSuggestDistance+1
	for _, candidate := range names {
		d := fuzzy.LevenshteinDistance(name, candidate)
		if d < bestDist {
			best, bestDist = candidate, d
		}
	}
	return best
}

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/warpy/pkg/runtime"
)

const scriptExt = ".wp40k"

var (
	passLabel = color.New(color.FgGreen, color.Bold)
	failLabel = color.New(color.FgRed, color.Bold)
)

type scriptResult struct {
	name   string
	stdout string
	stderr string
	err    error
	// reason is empty when the script passed.
	reason string
}

func (a *app) testCommand() *cobra.Command {
	var verbose, update bool
	cmd := &cobra.Command{
		Use:   "test <dir>",
		Short: "Run every " + scriptExt + " script in a directory",
		Long: "Runs each script with a fresh environment. Input is read from NAME.in when present.\n" +
			"When NAME.out exists, stdout must match it exactly.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			scripts, err := findScripts(dir)
			if err != nil {
				return a.ioError(fmt.Sprintf("cannot read directory: %s", dir))
			}
			if len(scripts) == 0 {
				return &exitError{code: exitUsage, msg: fmt.Sprintf("No %s test files found in %s", scriptExt, dir)}
			}
			fmt.Fprintf(a.stdout, "Found %d test files.\n", len(scripts))

			failed := 0
			for _, script := range scripts {
				res := a.runScript(cmd, dir, script, update)
				if verbose || res.reason != "" {
					fmt.Fprintf(a.stdout, "\n=== Running %s ===\n%s", res.name, res.stdout)
					if res.stderr != "" {
						fmt.Fprintf(a.stdout, "--- STDERR ---\n%s", res.stderr)
					}
				}
				if res.reason == "" {
					passLabel.Fprint(a.stdout, "[PASS]")
					fmt.Fprintf(a.stdout, " %s\n", res.name)
					continue
				}
				failed++
				failLabel.Fprint(a.stdout, "[FAIL]")
				fmt.Fprintf(a.stdout, " %s (%s)\n", res.name, res.reason)
			}

			fmt.Fprintf(a.stdout, "\n%d passed, %d failed\n", len(scripts)-failed, failed)
			if failed > 0 {
				return exitWith(exitRuntime)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the output of passing scripts too")
	cmd.Flags().BoolVar(&update, "update", false, "Rewrite .out files from the current output")
	return cmd
}

func findScripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), scriptExt) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (a *app) runScript(cmd *cobra.Command, dir, name string, update bool) scriptResult {
	res := scriptResult{name: name}
	base := filepath.Join(dir, strings.TrimSuffix(name, scriptExt))

	src, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		res.reason = "unreadable"
		return res
	}
	input, err := os.ReadFile(base + ".in")
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		res.reason = "unreadable input"
		return res
	}

	var stdout, stderr bytes.Buffer
	rt := runtime.New(
		runtime.WithOutput(&stdout),
		runtime.WithInput(bytes.NewReader(input)),
		runtime.WithDiag(&stderr),
		runtime.WithConfig(a.cfg),
		runtime.WithLogger(a.logger),
	)
	_, res.err = rt.Run(cmd.Context(), string(src), filepath.Join(dir, name))
	if res.err != nil {
		fmt.Fprintln(&stderr, res.err.Error())
	}
	res.stdout, res.stderr = stdout.String(), stderr.String()

	golden := base + ".out"
	if update && res.err == nil {
		if err := os.WriteFile(golden, stdout.Bytes(), 0o644); err != nil {
			res.reason = "cannot write " + filepath.Base(golden)
		}
		return res
	}

	switch want, err := os.ReadFile(golden); {
	case res.err != nil:
		res.reason = "error: " + res.err.Error()
	case err == nil && string(want) != res.stdout:
		res.reason = "output differs from " + filepath.Base(golden)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		res.reason = "unreadable " + filepath.Base(golden)
	}
	return res
}

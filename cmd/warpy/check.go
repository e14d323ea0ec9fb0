package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/formatter"
)

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file|->",
		Short: "Report diagnostics without running the program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, filename, err := a.readSource(args[0])
			if err != nil {
				return err
			}

			diags := a.newRuntime().Check(src, filename)
			if len(diags) > 0 {
				a.printDiags(diags)
				if diagnostics.HasErrors(diags) {
					return exitWith(exitDiags)
				}
				return nil
			}

			if a.cfg.Pretty {
				fmt.Fprintln(a.stdout, "No errors found.")
			} else {
				fmt.Fprintln(a.stdout, "[]")
			}
			return nil
		},
	}
}

func (a *app) fmtCommand() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <file|->",
		Short: "Print a program in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && args[0] == "-" {
				return &exitError{code: exitUsage, msg: "--write needs a file, not stdin"}
			}
			src, filename, err := a.readSource(args[0])
			if err != nil {
				return err
			}

			formatted, err := a.newRuntime().Format(src, filename)
			if err != nil {
				return exitWith(a.reportError(err))
			}

			if formatter.HasComments(src) {
				fmt.Fprintln(a.stderr, "warning: comments are not preserved by the formatter")
			}

			if write {
				if err := os.WriteFile(args[0], []byte(formatted), 0o644); err != nil {
					return a.ioError(fmt.Sprintf("cannot write file: %s", args[0]))
				}
				return nil
			}
			fmt.Fprint(a.stdout, formatted)
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Rewrite the file in place")
	return cmd
}

// Command warpy is the WarPy CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/warpy/pkg/ast"
	"github.com/thomasrohde/warpy/pkg/config"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
	"github.com/thomasrohde/warpy/pkg/runtime"
)

// Exit codes.
const (
	exitOK      = 0
	exitUsage   = 1
	exitDiags   = 2
	exitRuntime = 4
)

// exitError carries a process exit code through cobra. Its message has
// already been reported when msg is empty.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.msg
}

func exitWith(code int) error {
	if code == exitOK {
		return nil
	}
	return &exitError{code: code}
}

// app holds the state shared by every subcommand.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	pretty       bool
	debug        bool
	noColor      bool
	strict       bool
	lenientArity bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintln(stderr, ee.msg)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitUsage
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "warpy",
		Short:         "Run, check and format WarPy programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	root.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "Human-readable diagnostics instead of JSON")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")
	root.PersistentFlags().BoolVar(&a.strict, "strict", false, "Treat reads of undeclared variables as errors")
	root.PersistentFlags().BoolVar(&a.lenientArity, "lenient-arity", false, "Retry mis-called commands with no arguments")

	root.AddCommand(
		a.runCommand(),
		a.checkCommand(),
		a.fmtCommand(),
		a.testCommand(),
		a.commandsCommand(),
		a.refCommand(),
		a.traceCommand(),
	)
	return root
}

// setup loads the config file and lets flags override it.
func (a *app) setup() error {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.Load(cwd)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			a.printDiags([]diagnostics.Diagnostic{verr.Diagnostic()})
			return exitWith(exitUsage)
		}
		return err
	}

	if a.strict {
		cfg.StrictVariables = true
	}
	if a.lenientArity {
		cfg.Arity = config.ArityLenient
	}
	if a.pretty {
		cfg.Pretty = true
	}
	if a.debug {
		cfg.LogLevel = "debug"
	}
	if a.noColor {
		cfg.Color = config.ColorNever
	}
	a.cfg = cfg

	switch cfg.Color {
	case config.ColorNever:
		color.NoColor = true
	case config.ColorAlways:
		color.NoColor = false
	}

	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	if cfg.Source != "" {
		a.logger.Debug("loaded config", slog.String("path", cfg.Source))
	}
	return nil
}

func (a *app) newRuntime(opts ...runtime.Option) *runtime.Runtime {
	base := []runtime.Option{
		runtime.WithOutput(a.stdout),
		runtime.WithInput(a.stdin),
		runtime.WithDiag(a.stderr),
		runtime.WithConfig(a.cfg),
		runtime.WithLogger(a.logger),
	}
	return runtime.New(append(base, opts...)...)
}

func (a *app) printDiags(diags []diagnostics.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	pretty := a.pretty || (a.cfg != nil && a.cfg.Pretty)
	fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, pretty))
}

// reportError prints err as diagnostics and maps it to an exit code.
func (a *app) reportError(err error) int {
	var derr *runtime.DiagnosticError
	if errors.As(err, &derr) {
		a.printDiags(derr.Diagnostics)
		return exitDiags
	}
	var rerr *ast.RuntimeError
	if errors.As(err, &rerr) {
		a.printDiags([]diagnostics.Diagnostic{rerr.Diagnostic()})
		return exitRuntime
	}
	fmt.Fprintln(a.stderr, err.Error())
	return exitRuntime
}

// readSource loads a program from a file or, for "-", from stdin.
func (a *app) readSource(file string) (string, string, error) {
	if file == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", a.ioError(fmt.Sprintf("cannot read stdin: %s", err))
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", "", a.ioError(fmt.Sprintf("cannot read file: %s", file))
	}
	return string(data), file, nil
}

func (a *app) ioError(msg string) error {
	a.printDiags([]diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, msg, nil, "")})
	return exitWith(exitUsage)
}

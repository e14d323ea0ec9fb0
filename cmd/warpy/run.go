package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/warpy/pkg/evaluator"
	"github.com/thomasrohde/warpy/pkg/runtime"
)

type runFlags struct {
	watch     bool
	vars      bool
	traceFile string
}

func (a *app) runCommand() *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run <file|->",
		Short: "Execute a WarPy program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if f.watch {
				if args[0] == "-" {
					return &exitError{code: exitUsage, msg: "--watch needs a file, not stdin"}
				}
				return a.watch(ctx, args[0], f)
			}
			return exitWith(a.runOnce(ctx, args[0], f))
		},
	}
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Re-run the program whenever the file changes")
	cmd.Flags().BoolVar(&f.vars, "vars", false, "Print the final variables as JSON on stdout")
	cmd.Flags().StringVar(&f.traceFile, "trace-file", "", "Append NDJSON trace events to this file")
	return cmd
}

func (a *app) runOnce(ctx context.Context, file string, f runFlags) int {
	src, filename, err := a.readSource(file)
	if err != nil {
		return exitUsage
	}

	var opts []runtime.Option
	if f.traceFile != "" {
		tf, err := os.OpenFile(f.traceFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			a.ioError(fmt.Sprintf("cannot open trace file: %s", f.traceFile))
			return exitUsage
		}
		defer tf.Close()
		enc := json.NewEncoder(tf)
		opts = append(opts,
			runtime.WithRunID(fmt.Sprintf("run-%d", time.Now().UnixNano())),
			runtime.WithTrace(func(ev evaluator.TraceEvent) {
				if err := enc.Encode(ev); err != nil {
					a.logger.Warn("trace write failed", slog.String("error", err.Error()))
				}
			}))
	}

	rt := a.newRuntime(opts...)
	result, runErr := rt.Run(ctx, src, filename)
	if result != nil {
		a.printDiags(result.Warnings)
	}
	if runErr != nil {
		return a.reportError(runErr)
	}
	if f.vars {
		fmt.Fprintln(a.stdout, evaluator.VarsToJSONString(result.Vars))
	}
	return exitOK
}

// watch runs file once and again after every write to it, until ctx ends.
// The parent directory is watched because editors often replace files
// instead of writing them in place.
func (a *app) watch(ctx context.Context, file string, f runFlags) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	a.runOnce(ctx, file, f)
	a.logger.Info("watching for changes", slog.String("file", abs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			a.logger.Debug("file changed", slog.String("op", ev.Op.String()))
			fmt.Fprintf(a.stderr, "--- %s changed, re-running ---\n", file)
			a.runOnce(ctx, file, f)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

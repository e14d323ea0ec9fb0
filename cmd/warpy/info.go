package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/thomasrohde/warpy/pkg/help"
)

func (a *app) commandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the registered commands with their arities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(a.stdout, help.CommandIndex(a.newRuntime().Commands()))
			return nil
		},
	}
}

func (a *app) refCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ref [topic]",
		Short: "Show the language reference",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprint(a.stdout, help.QUICKREF)
				return nil
			}
			_, content, err := help.MatchTopic(args[0])
			if err != nil {
				return &exitError{
					code: exitUsage,
					msg:  fmt.Sprintf("%s\nAvailable topics: %s", err, strings.Join(help.TopicList, ", ")),
				}
			}
			fmt.Fprint(a.stdout, content)
			return nil
		},
	}
}

func (a *app) traceCommand() *cobra.Command {
	var text bool
	cmd := &cobra.Command{
		Use:   "trace <file.jsonl>",
		Short: "Summarise a trace file written by 'run --trace-file'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return a.ioError(fmt.Sprintf("cannot read file: %s", args[0]))
			}
			defer f.Close()

			summary := computeTraceSummary(f)
			if text {
				printTraceSummaryText(a.stdout, summary)
				return nil
			}
			b, _ := json.Marshal(summary)
			fmt.Fprintln(a.stdout, string(b))
			return nil
		},
	}
	cmd.Flags().BoolVar(&text, "text", false, "Print a plain-text summary instead of JSON")
	return cmd
}

// TraceSummary aggregates the events of one or more runs.
type TraceSummary struct {
	RunID         string         `json:"runId"`
	Runs          int            `json:"runs"`
	TotalEvents   int            `json:"totalEvents"`
	Statements    int            `json:"statements"`
	StatementKind map[string]int `json:"statementKinds"`
	Failures      int            `json:"failures"`
	StartTime     string         `json:"startTime,omitempty"`
	EndTime       string         `json:"endTime,omitempty"`
	DurationMs    float64        `json:"durationMs"`
}

type traceEvent struct {
	Event string            `json:"event"`
	RunID string            `json:"runId"`
	TS    string            `json:"ts"`
	Data  map[string]string `json:"data,omitempty"`
}

func computeTraceSummary(r io.Reader) *TraceSummary {
	summary := &TraceSummary{StatementKind: make(map[string]int)}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event traceEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue // skip invalid lines
		}

		summary.TotalEvents++
		if summary.RunID == "" {
			summary.RunID = event.RunID
		}

		switch event.Event {
		case "run_start":
			summary.Runs++
			if summary.StartTime == "" {
				summary.StartTime = event.TS
			}
		case "run_end":
			summary.EndTime = event.TS
			if event.Data["status"] == "error" {
				summary.Failures++
			}
		case "stmt_end":
			summary.Statements++
			summary.StatementKind[event.Data["kind"]]++
		}
	}

	if summary.StartTime != "" && summary.EndTime != "" {
		start, err1 := time.Parse(time.RFC3339Nano, summary.StartTime)
		end, err2 := time.Parse(time.RFC3339Nano, summary.EndTime)
		if err1 == nil && err2 == nil {
			summary.DurationMs = float64(end.Sub(start).Milliseconds())
		}
	}
	return summary
}

func printTraceSummaryText(w io.Writer, s *TraceSummary) {
	fmt.Fprintf(w, "Run: %s\n", s.RunID)
	fmt.Fprintf(w, "Runs: %d (%d failed)\n", s.Runs, s.Failures)
	fmt.Fprintf(w, "Events: %d\n", s.TotalEvents)
	fmt.Fprintf(w, "Statements: %d\n", s.Statements)
	for _, kind := range sortedKeys(s.StatementKind) {
		fmt.Fprintf(w, "  %s: %d\n", kind, s.StatementKind[kind])
	}
	if s.DurationMs > 0 {
		fmt.Fprintf(w, "Duration: %.0fms\n", s.DurationMs)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

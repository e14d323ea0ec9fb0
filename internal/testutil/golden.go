// Package testutil provides shared test helpers for WarPy Go tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ScenariosDir is the scenario root relative to the module root.
const ScenariosDir = "testdata/scenarios"

// Scenario describes one end-to-end program run loaded from scenario.json.
type Scenario struct {
	// Cmd is the subcommand followed by the program file, e.g. ["run", "main.wp40k"].
	Cmd    []string        `json:"cmd"`
	Stdin  string          `json:"stdin,omitempty"`
	Config *ScenarioConfig `json:"config,omitempty"`
	Expect ExpectedResult  `json:"expect"`
}

// ScenarioConfig overrides execution policies for a scenario.
type ScenarioConfig struct {
	StrictVariables bool   `json:"strictVariables,omitempty"`
	Arity           string `json:"arity,omitempty"`
}

// ExpectedResult describes the expected outcome of running a scenario.
type ExpectedResult struct {
	ExitCode         int             `json:"exitCode"`
	StdoutText       *string         `json:"stdoutText,omitempty"`
	StdoutJSON       json.RawMessage `json:"stdoutJson,omitempty"`
	StderrContains   string          `json:"stderrContains,omitempty"`
	StderrJSONSubset json.RawMessage `json:"stderrJsonSubset,omitempty"`
	VarsJSON         json.RawMessage `json:"varsJson,omitempty"`
}

// Command returns the subcommand the scenario exercises.
func (s *Scenario) Command() string {
	if len(s.Cmd) == 0 {
		return ""
	}
	return s.Cmd[0]
}

// LoadScenario loads a scenario from a directory containing scenario.json.
func LoadScenario(dir string) (*Scenario, error) {
	data, err := os.ReadFile(filepath.Join(dir, "scenario.json"))
	if err != nil {
		return nil, err
	}
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	if len(s.Cmd) < 2 {
		return nil, fmt.Errorf("%s: cmd needs a subcommand and a program file", dir)
	}
	return &s, nil
}

// ListScenarios returns the scenario directory names under root in sorted order.
func ListScenarios(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), "scenario.json")); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ReadProgramFile reads the program file referenced by the scenario cmd.
// The returned filename is relative to the scenario directory.
func ReadProgramFile(scenarioDir string, cmd []string) (string, string, error) {
	if len(cmd) < 2 {
		return "", "", fmt.Errorf("no program file in cmd %v", cmd)
	}
	filename := cmd[1]
	src, err := os.ReadFile(filepath.Join(scenarioDir, filename))
	if err != nil {
		return "", "", err
	}
	return string(src), filename, nil
}

// IsSubset reports whether expected is contained in actual. Objects match when
// every expected key matches; arrays match element-wise on a prefix.
func IsSubset(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range e {
			av, exists := a[k]
			if !exists || !IsSubset(ev, av) {
				return false
			}
		}
		return true
	case []any:
		a, ok := actual.([]any)
		if !ok || len(e) > len(a) {
			return false
		}
		for i, ev := range e {
			if !IsSubset(ev, a[i]) {
				return false
			}
		}
		return true
	default:
		return expected == actual
	}
}

// Package config loads WarPy settings from project and user YAML files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/warpy/pkg/diagnostics"
)

const (
	// ProjectFile is looked up in the project directory.
	ProjectFile = ".warpy.yaml"
	userDir     = ".warpy"
	userFile    = "config.yaml"
)

// Arity policies.
const (
	ArityStrict  = "strict"
	ArityLenient = "lenient"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings that shape a run.
type Config struct {
	StrictVariables bool   `yaml:"strict_variables"`
	Arity           string `yaml:"arity"`
	Color           string `yaml:"color"`
	LogLevel        string `yaml:"log_level"`
	Pretty          bool   `yaml:"pretty"`

	// Source is the file the settings came from, empty for defaults.
	Source string `yaml:"-"`
}

// Default returns the settings used when no config file exists.
func Default() *Config {
	return &Config{
		Arity:    ArityStrict,
		Color:    ColorAuto,
		LogLevel: "warn",
	}
}

// LenientArity reports whether mis-called commands are retried with no
// arguments.
func (c *Config) LenientArity() bool {
	return c.Arity == ArityLenient
}

// Level maps LogLevel onto a slog level.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return lvl
}

// ValidationError aggregates config validation failures.
type ValidationError struct {
	Path   string
	Issues []string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "config %s is invalid:", e.Path)
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// Diagnostic converts the error into an E_CONFIG diagnostic.
func (e *ValidationError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(diagnostics.EConfig, e.Error(), nil, "")
}

// Load resolves settings for projectDir.
// Precedence: project (.warpy.yaml) → user (~/.warpy/config.yaml) → defaults.
// A file that exists but cannot be parsed or validated is an error rather
// than a reason to fall through.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, userDir, userFile))
	}

	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile parses and validates one config file. Missing keys keep their
// default values.
func LoadFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &ValidationError{Path: path, Issues: []string{err.Error()}}
	}
	cfg.Source = path
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var issues []string
	switch c.Arity {
	case ArityStrict, ArityLenient:
	default:
		issues = append(issues, fmt.Sprintf("arity must be %q or %q, got %q", ArityStrict, ArityLenient, c.Arity))
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		issues = append(issues, fmt.Sprintf("color must be auto, always or never, got %q", c.Color))
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		issues = append(issues, fmt.Sprintf("log_level %q is not a known level", c.LogLevel))
	}
	if len(issues) > 0 {
		return &ValidationError{Path: c.Source, Issues: issues}
	}
	return nil
}

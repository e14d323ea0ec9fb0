package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/warpy/pkg/config"
	"github.com/thomasrohde/warpy/pkg/diagnostics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.False(t, cfg.LenientArity())
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestLoadProjectBeatsUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, ".warpy", "config.yaml"), "arity: lenient\n")

	project := t.TempDir()
	cfg, err := config.Load(project)
	require.NoError(t, err)
	assert.True(t, cfg.LenientArity(), "user file applies without a project file")

	writeFile(t, filepath.Join(project, config.ProjectFile), "strict_variables: true\nlog_level: debug\n")
	cfg, err = config.Load(project)
	require.NoError(t, err)
	assert.True(t, cfg.StrictVariables)
	assert.False(t, cfg.LenientArity(), "project file replaces the user file entirely")
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, filepath.Join(project, config.ProjectFile), cfg.Source)
}

func TestLoadFileAllKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, `strict_variables: true
arity: lenient
color: never
log_level: info
pretty: true
`)
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, &config.Config{
		StrictVariables: true,
		Arity:           config.ArityLenient,
		Color:           config.ColorNever,
		LogLevel:        "info",
		Pretty:          true,
		Source:          path,
	}, cfg)
}

func TestLoadFileEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	writeFile(t, path, "")
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.ArityStrict, cfg.Arity)
}

func TestLoadFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad arity", "arity: sometimes\n"},
		{"bad color", "color: purple\n"},
		{"bad level", "log_level: loud\n"},
		{"unknown key", "strict: true\n"},
		{"not yaml", "arity: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.yaml")
			writeFile(t, path, tt.content)
			_, err := config.LoadFile(path)
			var verr *config.ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, diagnostics.EConfig, verr.Diagnostic().Code)
		})
	}
}

func TestLoadInvalidProjectDoesNotFallThrough(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()
	writeFile(t, filepath.Join(project, config.ProjectFile), "arity: maybe\n")
	_, err := config.Load(project)
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tia-lang/tia/analysis/diag"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := write(t, `
disabled_checks = ["overflow"]
no_colorize = true
format = "svg"
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.True(t, cfg.NoColorize)
	assert.Equal(t, "svg", cfg.Format)

	disabled, err := cfg.Disabled()
	require.NoError(t, err)
	assert.Equal(t, []diag.Category{diag.Overflow}, disabled)
}

func TestLoadMissing(t *testing.T) {
	probed := filepath.Join(t.TempDir(), ConfigName)
	cfg, err := Load(probed, false)
	require.NoError(t, err, "a missing probed config falls back to defaults")
	assert.Equal(t, Default(), cfg)

	_, err = Load(probed, true)
	assert.Error(t, err, "an explicitly named config must exist")
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := write(t, `colour = true`)
	_, err := Load(path, true)
	assert.Error(t, err)
}

func TestDisabledUnknownCheck(t *testing.T) {
	cfg := Config{DisabledChecks: []string{"use-after-free"}}
	_, err := cfg.Disabled()
	assert.Error(t, err)
}

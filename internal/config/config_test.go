package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cartridge/internal/adapter"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, used, err := Load(LoadOptions{SearchDirs: []string{t.TempDir()}})
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Equal(t, adapter.DefaultDefaults(), cfg.AdapterDefaults())
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Contains(t, cfg.Package.Exclude, "*.imscc")
}

func TestLoad_FileInSearchDir(t *testing.T) {
	dir := t.TempDir()
	yaml := `defaults:
  assignment_points: 50
  published: false
output:
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cartridge.yaml"), []byte(yaml), 0o644))

	cfg, used, err := Load(LoadOptions{SearchDirs: []string{dir}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cartridge.yaml"), used)
	assert.Equal(t, 50, cfg.Defaults.AssignmentPoints)
	assert.Equal(t, 1, cfg.Defaults.QuizPoints, "unset keys keep their default")
	assert.False(t, cfg.Defaults.Published)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("defaults:\n  quiz_points: 5\n"), 0o644))
	t.Setenv("CARTRIDGE_DEFAULTS_QUIZ_POINTS", "7")

	cfg, used, err := Load(LoadOptions{ConfigFilePath: path})
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, 7, cfg.Defaults.QuizPoints)
}

func TestLoad_Errors(t *testing.T) {
	_, _, err := Load(LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorContains(t, err, "config file not found")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cartridge.yaml"), []byte("output:\n  format: xml\n"), 0o644))
	_, _, err = Load(LoadOptions{SearchDirs: []string{dir}})
	assert.ErrorContains(t, err, "output.format")

	bad := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bad, "cartridge.yaml"), []byte("defaults:\n  assignment_points: -1\n"), 0o644))
	_, _, err = Load(LoadOptions{SearchDirs: []string{bad}})
	assert.ErrorContains(t, err, "assignment_points")
}

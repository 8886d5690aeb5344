package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: %s
description: d
flow: [{op: add, kind: module, args: {title: M}}]
assertions: [{type: consistent}]
`

func writeScenario(t *testing.T, dir, file, name string) {
	t.Helper()
	content := []byte(fmt.Sprintf(minimalScenario, name))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), content, 0644))
}

func TestLoadSuite_SortedByFile(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", "second")
	writeScenario(t, dir, "a.yaml", "first")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	suite, err := LoadSuite(dir)
	require.NoError(t, err)
	require.Len(t, suite, 2)
	assert.Equal(t, "first", suite[0].Name)
	assert.Equal(t, "second", suite[1].Name)
	assert.Equal(t, dir, suite[0].BaseDir)
}

func TestLoadSuite_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", "same")
	writeScenario(t, dir, "b.yaml", "same")

	_, err := LoadSuite(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `scenario name "same" used by both a.yaml and b.yaml`)
}

func TestLoadSuite_Empty(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadSuite(dir)
	var dirErr *ScenarioDirError
	require.ErrorAs(t, err, &dirErr)
	assert.Equal(t, dir, dirErr.Dir)

	_, err = LoadSuite(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenario directory")
}

func TestLoadSuite_InvalidScenario(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: x\n"), 0644))

	_, err := LoadSuite(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

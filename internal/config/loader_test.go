package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func newSample() *sample { return &sample{Name: "default", Count: 1} }

type unencodable struct{}

func (unencodable) MarshalYAML() (any, error) { return nil, errors.New("boom") }

func TestWriteYAMLReplacesWithoutLeftovers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")

	require.NoError(t, WriteYAML(path, &sample{Name: "first", Count: 1}))
	require.NoError(t, WriteYAML(path, &sample{Name: "second", Count: 2}))

	var got sample
	require.NoError(t, ReadYAML(path, &got))
	assert.Equal(t, sample{Name: "second", Count: 2}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.yaml", entries[0].Name())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestWriteYAMLFailureKeepsOldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")
	require.NoError(t, WriteYAML(path, &sample{Name: "kept"}))

	err := WriteYAML(path, unencodable{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)

	var got sample
	require.NoError(t, ReadYAML(path, &got))
	assert.Equal(t, "kept", got.Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadYAMLOrDefault(t *testing.T) {
	dir := t.TempDir()

	got, err := LoadYAMLOrDefault(filepath.Join(dir, "missing.yaml"), newSample)
	require.NoError(t, err)
	assert.Equal(t, newSample(), got)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	got, err = LoadYAMLOrDefault(empty, newSample)
	require.NoError(t, err)
	assert.Equal(t, newSample(), got)

	partial := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(partial, []byte("count: 7\n"), 0o644))
	got, err = LoadYAMLOrDefault(partial, newSample)
	require.NoError(t, err)
	assert.Equal(t, &sample{Name: "default", Count: 7}, got)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("count: [\n"), 0o644))
	_, err = LoadYAMLOrDefault(broken, newSample)
	require.Error(t, err)
	assert.Contains(t, err.Error(), broken)
}

func TestFileExistsIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "nope")))

	path := filepath.Join(dir, "f.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))
	assert.True(t, FileExists(path))
}

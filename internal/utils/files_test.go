package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestSafeWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "loaded.md")
	require.NoError(t, SafeWriteFile(path, []byte("hello")))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestPrettyJSON(t *testing.T) {
	b, err := PrettyJSON(map[string]int{"videos": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"videos\": 2\n}", string(b))

	_, err = PrettyJSON(func() {})
	assert.Error(t, err)
}

func TestResolveDataset(t *testing.T) {
	_, err := ResolveDataset("")
	assert.Error(t, err)

	dir := t.TempDir()
	missing := filepath.Join(dir, "nope.csv")
	got, err := ResolveDataset(missing)
	require.NoError(t, err)
	assert.Equal(t, missing, got)

	_, err = ResolveDataset(dir)
	assert.ErrorContains(t, err, "no data file")

	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "GBvideos.parquet"))
	got, err = ResolveDataset(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "GBvideos.parquet"), got)

	touch(t, filepath.Join(dir, "CAvideos.xlsx"))
	_, err = ResolveDataset(dir)
	assert.ErrorContains(t, err, "2 data files")

	touch(t, filepath.Join(dir, DefaultDatasetName))
	got, err = ResolveDataset(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultDatasetName), got)
}

package filex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureDir_CreatesRelativeDirInCWD(t *testing.T) {
	tmp := t.TempDir()
	defer chdir(t, tmp)()

	got, err := EnsureDir("data")
	require.NoError(t, err)

	want := filepath.Join(tmp, "data")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_AbsolutePath(t *testing.T) {
	tmp := t.TempDir()
	want := filepath.Join(tmp, "nested", "data")

	got, err := EnsureDir(want)
	require.NoError(t, err)
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir())
}

func TestEnsureDir_ExistingDirIsFine(t *testing.T) {
	tmp := t.TempDir()

	got1, err := EnsureDir(tmp)
	require.NoError(t, err)
	got2, err := EnsureDir(tmp)
	require.NoError(t, err)
	require.Equal(t, got1, got2)
}

func TestWriteFileAtomic_WritesContent(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "tokens.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`[]`), 0o640))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "[]", string(data))
}

func TestWriteFileAtomic_ReplacesExisting(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "users.json")

	require.NoError(t, WriteFileAtomic(path, []byte(`old`), 0o640))
	require.NoError(t, WriteFileAtomic(path, []byte(`new`), 0o640))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	// no stray temp files left behind
	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

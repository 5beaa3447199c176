package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDiscoverOrdersDeterministically(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.go", "package b\n")
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "node_modules/dep.go", "package dep\n")

	d, err := New(nil, nil)
	require.NoError(t, err)

	files, stats, err := d.Discover(root, Options{MaxFileLines: 0})
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "a.go", files[0].RelativePath)
	require.Equal(t, "b.go", files[1].RelativePath)
	require.Equal(t, 2, stats.FilesKept)
}

func TestDiscoverExcludesBinaryAndSecretMatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bin.go", "package x\x00binary")
	writeFile(t, root, "secrets/prod.go", "package secrets\n")

	d, err := New(nil, []string{"secrets/**"})
	require.NoError(t, err)

	files, stats, err := d.Discover(root, Options{})
	require.NoError(t, err)
	require.Empty(t, files)
	require.Equal(t, 1, stats.FilesBinary)
	require.Equal(t, 1, stats.FilesSecretMatch)
}

func TestDiscoverFatalOnMissingRoot(t *testing.T) {
	d, err := New(nil, nil)
	require.NoError(t, err)

	_, _, err = d.Discover(filepath.Join(t.TempDir(), "missing"), Options{})
	require.Error(t, err)
	var failed *DiscoveryFailed
	require.ErrorAs(t, err, &failed)
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	t.Parallel()

	want := []string{"index", "serve", "status", "delete", "version", "watch"}
	var got []string
	for _, cmd := range rootCmd.Commands() {
		got = append(got, cmd.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestRootCommand_RenamedToCodegraphDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "codegraph", rootCmd.Use)
	assert.NotContains(t, rootCmd.Short, "Cortex")
}

// TestIndexAndStatus_EndToEnd exercises `index --dry-run` then `status`
// against a throwaway repository directory, using the mock embedding
// provider so the test needs no network-reachable embedding backend.
func TestIndexAndStatus_EndToEnd(t *testing.T) {
	repoDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644))

	storePath := filepath.Join(t.TempDir(), "index.db")
	configContent := "store:\n  path: " + storePath + "\n  dimensions: 32\nembedding:\n  provider: mock\n"
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, ".codegraph.yaml"), []byte(configContent), 0o644))

	indexRepoID = "test-repo"
	indexRepoName = "test-repo"
	indexRepoType = "monolithic"
	indexIncremental = true
	indexDryRun = true
	defer func() {
		indexRepoID, indexRepoName, indexRepoType = "", "", "monolithic"
		indexIncremental, indexDryRun = true, false
	}()

	var out bytes.Buffer
	indexCmd.SetOut(&out)
	indexCmd.SetErr(&out)
	require.NoError(t, runIndex(indexCmd, []string{repoDir}))
	assert.Contains(t, out.String(), "indexed test-repo")

	out.Reset()
	statusCmd.SetOut(&out)
	require.NoError(t, runStatus(statusCmd, []string{repoDir}))
	assert.Contains(t, out.String(), "test-repo")
}

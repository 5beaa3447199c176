package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/chunker"
	"github.com/codegraph-dev/codegraph/internal/diff"
	"github.com/codegraph-dev/codegraph/internal/discovery"
	"github.com/codegraph-dev/codegraph/internal/embedding"
	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/parser"
	"github.com/codegraph-dev/codegraph/internal/summary"
	"github.com/codegraph-dev/codegraph/internal/symbols"
)

// fakeStore is an in-memory Store double, recording everything written so
// tests can assert on pipeline output without a real database.
type fakeStore struct {
	mu       sync.Mutex
	repos    []model.Repository
	files    map[string]model.CodeFile
	hashes   map[string]string
	chunks   []model.CodeChunk
	symbols  []model.CodeSymbol
	deleted  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{files: make(map[string]model.CodeFile), hashes: make(map[string]string)}
}

func (s *fakeStore) FileHashes(ctx context.Context, repoPath string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.hashes))
	for k, v := range s.hashes {
		out[k] = v
	}
	return out, nil
}

func (s *fakeStore) DeleteFile(ctx context.Context, repoPath, filePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, filePath)
	delete(s.files, filePath)
	delete(s.hashes, filePath)
	return nil
}

func (s *fakeStore) UpsertRepository(ctx context.Context, repo model.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos = append(s.repos, repo)
	return nil
}

func (s *fakeStore) WriteFile(ctx context.Context, file model.CodeFile, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[file.FilePath] = file
	s.hashes[file.FilePath] = file.FileHash
	return nil
}

func (s *fakeStore) WriteChunksBatch(ctx context.Context, chunks []model.CodeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *fakeStore) WriteSymbolsBatch(ctx context.Context, syms []model.CodeSymbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = append(s.symbols, syms...)
	return nil
}

func newTestOrchestrator(t *testing.T, store *fakeStore) *Orchestrator {
	t.Helper()
	disc, err := discovery.New(nil, nil)
	require.NoError(t, err)

	facade := parser.NewFacade()
	facade.Register(parser.NewGoParser())

	embedder, err := embedding.New(embedding.NewMockProvider(8), embedding.DefaultConfig(), nil)
	require.NoError(t, err)

	return New(
		disc,
		diff.New(store),
		facade,
		chunker.New(chunker.DefaultConfig()),
		summary.New(nil, summary.DefaultConfig()),
		embedder,
		symbols.New(embedder, symbols.DefaultConfig()),
		store,
		nil,
	)
}

func writeRepoFile(t *testing.T, dir, relPath, content string) {
	t.Helper()
	full := filepath.Join(dir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestIndexProcessesDiscoveredFiles(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "main.go", "package main\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")

	store := newFakeStore()
	o := newTestOrchestrator(t, store)

	stats, err := o.Index(context.Background(), dir, Options{RepoID: "r1", RepoName: "demo"})
	require.NoError(t, err)

	require.Equal(t, 1, stats.FilesTotal)
	require.Equal(t, 1, stats.FilesProcessed)
	require.Zero(t, stats.FilesFailed)
	require.NotZero(t, stats.ChunksTotal)
	require.NotZero(t, stats.SymbolsExtracted)
	require.Len(t, store.repos, 1)
	require.Contains(t, store.files, "main.go")
	require.NotEmpty(t, store.chunks)
	require.NotEmpty(t, store.symbols)
}

func TestIndexIncrementalSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "main.go", "package main\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")

	store := newFakeStore()
	o := newTestOrchestrator(t, store)

	_, err := o.Index(context.Background(), dir, Options{RepoID: "r1", Incremental: true})
	require.NoError(t, err)
	require.Len(t, store.files, 1)

	stats, err := o.Index(context.Background(), dir, Options{RepoID: "r1", Incremental: true})
	require.NoError(t, err)
	require.Zero(t, stats.FilesProcessed)
	require.Zero(t, stats.FilesFailed)
}

func TestIndexDeletesStaleFilesOnIncrementalRerun(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "main.go", "package main\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")
	writeRepoFile(t, dir, "extra.go", "package main\n\nfunc World() string {\n\treturn \"world\"\n}\n")

	store := newFakeStore()
	o := newTestOrchestrator(t, store)

	_, err := o.Index(context.Background(), dir, Options{RepoID: "r1", Incremental: true})
	require.NoError(t, err)
	require.Len(t, store.files, 2)

	require.NoError(t, os.Remove(filepath.Join(dir, "extra.go")))

	_, err = o.Index(context.Background(), dir, Options{RepoID: "r1", Incremental: true})
	require.NoError(t, err)
	require.Len(t, store.files, 1)
	require.Contains(t, store.deleted, "extra.go")
}

func TestIndexHandlesUnregisteredLanguageViaFallback(t *testing.T) {
	dir := t.TempDir()
	writeRepoFile(t, dir, "util.js", "export function add(a, b) {\n  return a + b\n}\n")
	writeRepoFile(t, dir, "main.go", "package main\n\nfunc Hello() string {\n\treturn \"hi\"\n}\n")

	store := newFakeStore()
	o := newTestOrchestrator(t, store)

	stats, err := o.Index(context.Background(), dir, Options{RepoID: "r1"})
	require.NoError(t, err)
	require.Equal(t, 2, stats.FilesTotal)
	require.Equal(t, 2, stats.FilesProcessed)
	require.Zero(t, stats.FilesFailed)
}

package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/codegraph-dev/codegraph/internal/config"
	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/orchestrator"
)

var (
	indexRepoID      string
	indexRepoName    string
	indexRepoType    string
	indexIncremental bool
	indexDryRun      bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository into the local codegraph store",
	Long: `index walks the repository at path (default: the current
directory), classifies each file's change status, parses, chunks,
summarizes, embeds, and extracts symbols from every changed file, and
persists the result to the configured store.

--dry-run substitutes a deterministic mock embedding provider so index can
be exercised with no embedding backend reachable.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexRepoID, "repo-id", "", "repository id (default: derived from the path)")
	indexCmd.Flags().StringVar(&indexRepoName, "repo-name", "", "repository display name (default: the directory's base name)")
	indexCmd.Flags().StringVar(&indexRepoType, "repo-type", string(model.RepoTypeMonolithic), "repository type: monolithic, microservice, monorepo, library, reference, documentation")
	indexCmd.Flags().BoolVar(&indexIncremental, "incremental", true, "skip files whose content hash is unchanged since the last index")
	indexCmd.Flags().BoolVar(&indexDryRun, "dry-run", false, "use a deterministic mock embedding provider instead of a real backend")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	repoPath := "."
	if len(args) == 1 {
		repoPath = args[0]
	}
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return fmt.Errorf("resolve repo path: %w", err)
	}

	cfg, err := config.NewLoaderWithFile(absPath, cfgFile).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if indexDryRun {
		cfg.Embedding.Provider = "mock"
	}

	repoID, repoName := resolveRepoIdentity(absPath, indexRepoID, indexRepoName)
	repoType := model.RepoType(indexRepoType)

	cb, err := newCollaborators(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer cb.Close()

	orch := orchestrator.New(cb.discoverer, cb.differ, cb.parsers, cb.chunks, cb.summaries, cb.embedder, cb.symbols, cb.store, cb.log)

	stats, err := runOneIndex(cmd, orch, cfg, absPath, repoID, repoName, repoType, indexIncremental)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "indexed %s: %d files (%d failed), %d chunks, %d symbols in %s\n",
		repoName, stats.FilesProcessed, stats.FilesFailed, stats.ChunksTotal, stats.SymbolsExtracted, stats.TotalTime)
	for _, fe := range stats.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "  error: %s (%s): %v\n", fe.FilePath, fe.Stage, fe.Err)
	}
	return nil
}

// resolveRepoIdentity fills in repoID/repoName defaults from absPath when
// the caller (index or watch) didn't set them explicitly.
func resolveRepoIdentity(absPath, repoID, repoName string) (string, string) {
	if repoID == "" {
		repoID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(absPath)).String()
	}
	if repoName == "" {
		repoName = filepath.Base(absPath)
	}
	return repoID, repoName
}

// runOneIndex drives one orchestrator.Index call with a progress bar,
// shared by the index command and watch's debounced re-index.
func runOneIndex(cmd *cobra.Command, orch *orchestrator.Orchestrator, cfg *config.Config, absPath, repoID, repoName string, repoType model.RepoType, incremental bool) (orchestrator.Stats, error) {
	bar := progressbar.Default(-1, "indexing "+repoName)
	onFileDone := func(path string, ferr error) {
		_ = bar.Add(1)
		if ferr != nil && verbose {
			fmt.Fprintf(cmd.ErrOrStderr(), "file failed: %s: %v\n", path, ferr)
		}
	}

	opts := orchestratorOptions(cfg, repoID, repoName, repoType, incremental, onFileDone)

	stats, err := orch.Index(context.Background(), absPath, opts)
	_ = bar.Finish()
	if err != nil {
		return stats, fmt.Errorf("index %s: %w", absPath, err)
	}
	return stats, nil
}

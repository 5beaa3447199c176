package cli

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/codegraph-dev/codegraph/internal/config"
	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/orchestrator"
)

var (
	watchRepoID   string
	watchRepoName string
	watchRepoType string
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a repository and incrementally re-index on file changes",
	Long: `watch runs one initial incremental index, then watches the
repository tree with fsnotify and triggers another incremental index
whenever files change, debounced so a burst of edits only re-indexes
once.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchRepoID, "repo-id", "", "repository id (default: derived from the path)")
	watchCmd.Flags().StringVar(&watchRepoName, "repo-name", "", "repository display name (default: the directory's base name)")
	watchCmd.Flags().StringVar(&watchRepoType, "repo-type", string(model.RepoTypeMonolithic), "repository type")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period after the last change before re-indexing")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	rootDir := "."
	if len(args) == 1 {
		rootDir = args[0]
	}
	absPath, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	cfg, err := config.NewLoaderWithFile(absPath, cfgFile).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	repoID, repoName := resolveRepoIdentity(absPath, watchRepoID, watchRepoName)
	repoType := model.RepoType(watchRepoType)

	cb, err := newCollaborators(cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer cb.Close()
	orch := orchestrator.New(cb.discoverer, cb.differ, cb.parsers, cb.chunks, cb.summaries, cb.embedder, cb.symbols, cb.store, cb.log)

	if _, err := runOneIndex(cmd, orch, cfg, absPath, repoID, repoName, repoType, true); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirsRecursive(watcher, absPath, cfg); err != nil {
		return fmt.Errorf("watch %s: %w", absPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s for changes (debounce %s)\n", absPath, watchDebounce)

	ctx := cmdContext(cmd)
	var timer *time.Timer
	reindex := func() {
		fmt.Fprintln(cmd.OutOrStdout(), "change detected, re-indexing...")
		if _, err := runOneIndex(cmd, orch, cfg, absPath, repoID, repoName, repoType, true); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "re-index failed: %v\n", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, reindex)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		}
	}
}

// addDirsRecursive registers every directory under root with watcher,
// skipping only .git, node_modules and .codegraph; cfg's ignore globs are
// not consulted.
func addDirsRecursive(watcher *fsnotify.Watcher, root string, cfg *config.Config) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" || d.Name() == "node_modules" || d.Name() == ".codegraph" {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

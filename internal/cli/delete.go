package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codegraph-dev/codegraph/internal/config"
	"github.com/codegraph-dev/codegraph/internal/store"
)

var deleteRepoID string

var deleteCmd = &cobra.Command{
	Use:   "delete [path]",
	Short: "Delete a repository and everything indexed under it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().StringVar(&deleteRepoID, "repo-id", "", "repository id to delete (required)")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if deleteRepoID == "" {
		return fmt.Errorf("--repo-id is required")
	}
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

	st, err := store.Open(cfg.Store.Path, cfg.Store.Dimensions)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.DeleteRepository(cmdContext(cmd), deleteRepoID); err != nil {
		return fmt.Errorf("delete repository %s: %w", deleteRepoID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", deleteRepoID)
	return nil
}

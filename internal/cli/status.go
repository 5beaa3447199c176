package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codegraph-dev/codegraph/internal/config"
	"github.com/codegraph-dev/codegraph/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "List indexed repositories and their workspaces/services",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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

	ctx := cmdContext(cmd)
	repos, err := st.ListRepositories(ctx)
	if err != nil {
		return fmt.Errorf("list repositories: %w", err)
	}
	if len(repos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no repositories indexed")
		return nil
	}

	for _, repo := range repos {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (%s)  indexed %s\n",
			repo.RepoID, repo.RepoName, repo.RepoType, repo.IndexedAt.Format("2006-01-02 15:04:05"))

		workspaces, err := st.ListWorkspaces(ctx, repo.RepoID)
		if err != nil {
			return fmt.Errorf("list workspaces for %s: %w", repo.RepoID, err)
		}
		for _, ws := range workspaces {
			fmt.Fprintf(cmd.OutOrStdout(), "  workspace: %s (%s)\n", ws.WorkspaceID, ws.PackageName)
		}

		services, err := st.ListServices(ctx, repo.RepoID)
		if err != nil {
			return fmt.Errorf("list services for %s: %w", repo.RepoID, err)
		}
		for _, svc := range services {
			fmt.Fprintf(cmd.OutOrStdout(), "  service: %s (%s)\n", svc.ServiceID, svc.TypeTag)
		}
	}
	return nil
}

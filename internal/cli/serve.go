package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codegraph-dev/codegraph/internal/assembler"
	"github.com/codegraph-dev/codegraph/internal/config"
	"github.com/codegraph-dev/codegraph/internal/embedding"
	"github.com/codegraph-dev/codegraph/internal/mcpserver"
	"github.com/codegraph-dev/codegraph/internal/orchestrator"
	"github.com/codegraph-dev/codegraph/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve [path]",
	Short: "Serve the codegraph MCP tools over stdio",
	Long: `serve opens the store at path's configured location and exposes
search_codebase, get_file_context, find_symbol_definition,
index_repository, delete_repository, and the rest of spec.md's tools to
an MCP client over stdio, per the Model Context Protocol.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	log := newLogger(cfg)
	st, err := store.Open(cfg.Store.Path, cfg.Store.Dimensions)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := cmdContext(cmd)

	deps, err := buildServeDeps(ctx, cfg, st)
	if err != nil {
		return fmt.Errorf("build serve collaborators: %w", err)
	}
	defer deps.embedder.Close()

	orch, err := newIndexOrchestrator(cfg, st, deps.embedder, log)
	if err != nil {
		return fmt.Errorf("build orchestrator: %w", err)
	}

	srv, err := mcpserver.New(mcpserver.Deps{
		Store:          st,
		Orchestrator:   orch,
		QueryProcessor: deps.query,
		Files:          deps.files,
		Chunks:         deps.chunks,
		Symbols:        deps.symbols,
		Imports:        deps.imports,
		APIs:           deps.apis,
		Keyword:        deps.keyword,
		Assembler:      assembler.New(),
		RepoTypeOf:     deps.repoType,
		Log:            log,
	})
	if err != nil {
		return fmt.Errorf("build mcp server: %w", err)
	}

	return srv.Serve(ctx)
}

// newIndexOrchestrator builds the orchestrator the mcp server's
// index_repository tool drives, sharing serve's already-open store handle
// instead of opening the database a second time.
func newIndexOrchestrator(cfg *config.Config, st *store.Store, embedder *embedding.Embedder, log *slog.Logger) (*orchestrator.Orchestrator, error) {
	cb, err := newPipeline(cfg, log, st, embedder)
	if err != nil {
		return nil, err
	}
	return orchestrator.New(cb.discoverer, cb.differ, cb.parsers, cb.chunks, cb.summaries, cb.embedder, cb.symbols, st, log), nil
}

// Package mcpserver implements the MCP transport (D3): registering
// spec.md §6's JSON-RPC tool surface on an mcp-go server and wiring each
// tool's handler to the query/retrieval/graphindex/apienrich/dedup/
// assembler/keyword/orchestrator/store collaborators built elsewhere in
// this module.
//
// Grounded on the teacher's internal/mcp/server.go (MCPServer struct,
// NewMCPServer wiring order, Serve's stdio-transport-plus-signal-channel
// shutdown) and internal/mcp/tool.go (one AddXTool(server, collaborator)
// function per tool, a handler factory closing over the collaborator,
// JSON-marshaled mcp.NewToolResultText responses).
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codegraph-dev/codegraph/internal/apienrich"
	"github.com/codegraph-dev/codegraph/internal/assembler"
	"github.com/codegraph-dev/codegraph/internal/graphindex"
	"github.com/codegraph-dev/codegraph/internal/keyword"
	"github.com/codegraph-dev/codegraph/internal/orchestrator"
	"github.com/codegraph-dev/codegraph/internal/query"
	"github.com/codegraph-dev/codegraph/internal/retrieval"
	"github.com/codegraph-dev/codegraph/internal/store"
)

func marshalResult(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Deps are the already-constructed collaborators New wires into tool
// handlers, mirroring the teacher's NewMCPServer(ctx, config, provider)
// taking a pre-built EmbeddingProvider to avoid import cycles.
type Deps struct {
	Store          *store.Store
	Orchestrator   *orchestrator.Orchestrator
	QueryProcessor *query.Processor
	Files          *retrieval.FileRetriever
	Chunks         *retrieval.ChunkRetriever
	Symbols        *retrieval.SymbolResolver
	Imports        *graphindex.ImportExpander
	APIs           *apienrich.Enricher
	Keyword        *keyword.Index
	Assembler      *assembler.Assembler
	RepoTypeOf     retrieval.RepoTypeLookup
	Log            *slog.Logger
}

// Server owns the mcp-go server and every tool's wired collaborators.
type Server struct {
	deps Deps
	mcp  *server.MCPServer
	log  *slog.Logger
}

// New builds a Server and registers every tool named in spec.md §6.
func New(deps Deps) (*Server, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("mcpserver: store is required")
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	s := &Server{deps: deps, log: deps.Log}
	s.mcp = server.NewMCPServer("codegraph-mcp", "1.0.0", server.WithToolCapabilities(true))

	s.registerSearchCodebase()
	s.registerGetFileContext()
	s.registerFindSymbolDefinition()
	s.registerIndexRepository()
	s.registerDeleteRepository()
	s.registerListTools()
	s.registerWorkspaceServiceContext()
	s.registerCrossBoundaryTools()
	s.registerSearchAPIContracts()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until a shutdown signal
// or a fatal transport error, per the teacher's Serve.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting MCP server on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("mcp server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		s.log.Info("received shutdown signal, stopping gracefully")
		cancel()
		return nil
	case err := <-errCh:
		cancel()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases resources owned by the server's collaborators.
func (s *Server) Close() error {
	if s.deps.Keyword != nil {
		return s.deps.Keyword.Close()
	}
	return nil
}

// toolResult is the {formatted_result, raw_result?} envelope every tool
// returns, per spec.md §6.
type toolResult struct {
	FormattedResult string `json:"formatted_result"`
	RawResult       any    `json:"raw_result,omitempty"`
}

func textResult(formatted string, raw any) (*mcp.CallToolResult, error) {
	payload := toolResult{FormattedResult: formatted, RawResult: raw}
	data, err := marshalResult(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(data), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}

package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codegraph-dev/codegraph/internal/apienrich"
	"github.com/codegraph-dev/codegraph/internal/assembler"
	"github.com/codegraph-dev/codegraph/internal/dedup"
	"github.com/codegraph-dev/codegraph/internal/graphindex"
	"github.com/codegraph-dev/codegraph/internal/model"
)

var searchCodebaseKeys = []string{
	"query", "max_files", "max_snippets", "include_imports", "import_depth",
	"dedup_threshold", "similarity_threshold", "chunk_similarity_threshold",
	"include_workspaces", "exclude_workspaces", "include_services", "exclude_services",
	"include_repos", "exclude_repos", "workspace_scope", "service_scope",
	"include_references", "include_documentation", "exclude_repo_types",
}

func (s *Server) registerSearchCodebase() {
	tool := mcp.NewTool(
		"search_codebase",
		mcp.WithDescription("Multi-stage semantic search across indexed repositories: files, chunks, imports, cross-service calls, deduplicated and assembled into one context."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Natural-language or code-snippet query, at least 2 characters")),
		mcp.WithNumber("max_files", mcp.Description("1-50, default 15")),
		mcp.WithNumber("max_snippets", mcp.Description("1-100, default 25")),
		mcp.WithBoolean("include_imports", mcp.Description("Expand the import graph of matched files")),
		mcp.WithNumber("import_depth", mcp.Description("1-3, default 3")),
		mcp.WithNumber("dedup_threshold", mcp.Description("0-1, default 0.92")),
		mcp.WithNumber("similarity_threshold", mcp.Description("0-1 file similarity threshold")),
		mcp.WithNumber("chunk_similarity_threshold", mcp.Description("0-1 chunk similarity threshold")),
		mcp.WithArray("include_workspaces", mcp.Description("Restrict results to these workspace ids")),
		mcp.WithArray("exclude_workspaces", mcp.Description("Exclude these workspace ids")),
		mcp.WithArray("include_services", mcp.Description("Restrict results to these service ids")),
		mcp.WithArray("exclude_services", mcp.Description("Exclude these service ids")),
		mcp.WithArray("include_repos", mcp.Description("Restrict results to these repo ids")),
		mcp.WithArray("exclude_repos", mcp.Description("Exclude these repo ids")),
		mcp.WithBoolean("include_references", mcp.Description("Include reference-type repos (default false)")),
		mcp.WithBoolean("include_documentation", mcp.Description("Include documentation-type repos (default true)")),
		mcp.WithArray("exclude_repo_types", mcp.Description("Repo types to exclude entirely")),
	)
	s.mcp.AddTool(tool, s.handleSearchCodebase)
}

func (s *Server) handleSearchCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, searchCodebaseKeys...); err != nil {
		return errorResult(err)
	}

	queryText, err := argString(argsMap, "query", true)
	if err != nil {
		return errorResult(err)
	}
	if err := argMinLen(strings.TrimSpace(queryText), "query", 2); err != nil {
		return errorResult(err)
	}

	maxFiles, err := argIntRange(argsMap, "max_files", 15, 1, 50)
	if err != nil {
		return errorResult(err)
	}
	maxSnippets, err := argIntRange(argsMap, "max_snippets", 25, 1, 100)
	if err != nil {
		return errorResult(err)
	}
	includeImports, err := argBool(argsMap, "include_imports", false)
	if err != nil {
		return errorResult(err)
	}
	importDepth, err := argIntRange(argsMap, "import_depth", graphindex.DefaultImportDepth, 1, 3)
	if err != nil {
		return errorResult(err)
	}
	dedupThreshold, err := argFloatRange(argsMap, "dedup_threshold", dedup.DefaultThreshold, 0, 1)
	if err != nil {
		return errorResult(err)
	}
	similarityThreshold, err := argFloatRange(argsMap, "similarity_threshold", 0, 0, 1)
	if err != nil {
		return errorResult(err)
	}
	chunkSimilarityThreshold, err := argFloatRange(argsMap, "chunk_similarity_threshold", 0, 0, 1)
	if err != nil {
		return errorResult(err)
	}
	filters, err := parseFilters(argsMap)
	if err != nil {
		return errorResult(err)
	}

	emb, err := s.deps.QueryProcessor.Process(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("process query: %w", err)
	}

	fileMatches, err := s.deps.Files.Search(ctx, emb.Vector, similarityThreshold, maxFiles, filters)
	if err != nil {
		return nil, fmt.Errorf("search files: %w", err)
	}
	chunkMatches, err := s.deps.Chunks.Search(ctx, emb.Vector, emb.EnhancedVector, chunkSimilarityThreshold, maxSnippets, filters)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	candidates := make([]dedup.Candidate, len(chunkMatches))
	for i, m := range chunkMatches {
		candidates[i] = dedup.Candidate{Chunk: m.Chunk, Similarity: m.Similarity, RepoType: s.deps.RepoTypeOf(m.Chunk.RepoID)}
	}
	dedupResult := dedup.Deduplicate(candidates, "", dedupThreshold)
	chunks := make([]model.CodeChunk, len(dedupResult.Kept))
	for i, c := range dedupResult.Kept {
		chunks[i] = c.Chunk
	}

	files := make([]model.CodeFile, len(fileMatches))
	for i, m := range fileMatches {
		files[i] = m.File
	}

	var imports []assembler.ImportChain
	if includeImports && s.deps.Imports != nil {
		seedPaths := make([]string, 0, len(files))
		for _, f := range files {
			seedPaths = append(seedPaths, f.FilePath)
		}
		repoPath := ""
		if len(files) > 0 {
			repoPath = files[0].RepoPath
		}
		chains, ierr := s.deps.Imports.Expand(ctx, repoPath, seedPaths, graphindex.Options{Depth: importDepth})
		if ierr != nil {
			return nil, fmt.Errorf("expand imports: %w", ierr)
		}
		imports = toAssemblerChains(chains)
	}

	var apiCtx apienrich.APIContext
	if s.deps.APIs != nil {
		apiCtx, err = s.deps.APIs.Enrich(ctx, chunks)
		if err != nil {
			return nil, fmt.Errorf("enrich api context: %w", err)
		}
	}

	assembled := s.deps.Assembler.Assemble(assembler.Input{
		Query: queryText, QueryType: emb.QueryType,
		Files: files, Chunks: chunks, Imports: imports,
	})

	formatted := formatSearchResult(assembled, apiCtx)
	raw := map[string]any{"context": assembled, "api_context": apiCtx}
	return textResult(formatted, raw)
}

func toAssemblerChains(chains []graphindex.ImportChain) []assembler.ImportChain {
	out := make([]assembler.ImportChain, len(chains))
	for i, c := range chains {
		out[i] = assembler.ImportChain{
			FilePath: c.FilePath, ImportedFrom: c.ImportedFrom, Depth: c.Depth,
			Exports: c.Exports, Circular: c.Circular, Truncated: c.Truncated,
			TruncationReason: c.TruncationReason, CrossWorkspace: c.CrossWorkspace, CrossService: c.CrossService,
		}
	}
	return out
}

func formatSearchResult(ctx assembler.Context, apiCtx apienrich.APIContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "query: %s (%s)\n", ctx.Query, ctx.QueryType)
	fmt.Fprintf(&b, "files: %d, chunks: %d, symbols: %d, imports: %d, tokens: %d\n",
		len(ctx.Files), len(ctx.Chunks), len(ctx.Symbols), len(ctx.Imports), ctx.TokenCount)
	for _, w := range ctx.Warnings {
		fmt.Fprintf(&b, "warning: %s: %s\n", w.Code, w.Message)
	}
	for _, f := range ctx.Files {
		fmt.Fprintf(&b, "- %s (%s)\n", f.FilePath, f.Language)
	}
	if len(apiCtx.CrossServiceCalls) > 0 {
		fmt.Fprintf(&b, "cross-service calls: %d\n", len(apiCtx.CrossServiceCalls))
	}
	return b.String()
}

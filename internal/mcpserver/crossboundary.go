package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codegraph-dev/codegraph/internal/apienrich"
	"github.com/codegraph-dev/codegraph/internal/graphindex"
)

var findCrossWorkspaceUsagesKeys = []string{"repo_id", "source", "pattern", "max_depth"}
var findCrossServiceCallsKeys = []string{"source", "pattern", "max_results"}

func (s *Server) registerCrossBoundaryTools() {
	s.mcp.AddTool(mcp.NewTool("find_cross_workspace_usages",
		mcp.WithDescription("Find import chains that cross a workspace boundary starting from a source file."),
		mcp.WithString("repo_id", mcp.Required(), mcp.Description("Repository to search within")),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source file path to expand imports from")),
		mcp.WithString("pattern", mcp.Description("Substring filter applied to the imported file path")),
		mcp.WithNumber("max_depth", mcp.Description("1-5, default 3")),
	), s.handleFindCrossWorkspaceUsages)

	s.mcp.AddTool(mcp.NewTool("find_cross_service_calls",
		mcp.WithDescription("Find detected cross-service API calls originating from a source file or chunk."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source file path to search for outbound calls")),
		mcp.WithString("pattern", mcp.Description("Substring filter applied to the matched call text")),
		mcp.WithNumber("max_results", mcp.Description("1-100, default 25")),
	), s.handleFindCrossServiceCalls)
}

func (s *Server) handleFindCrossWorkspaceUsages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, findCrossWorkspaceUsagesKeys...); err != nil {
		return errorResult(err)
	}
	repoID, err := argString(argsMap, "repo_id", true)
	if err != nil {
		return errorResult(err)
	}
	source, err := argString(argsMap, "source", true)
	if err != nil {
		return errorResult(err)
	}
	pattern, err := argString(argsMap, "pattern", false)
	if err != nil {
		return errorResult(err)
	}
	maxDepth, err := argIntRange(argsMap, "max_depth", 3, 1, 5)
	if err != nil {
		return errorResult(err)
	}

	matches, err := s.deps.Store.FilesByPath(ctx, source, repoID)
	if err != nil {
		return nil, fmt.Errorf("look up source file: %w", err)
	}
	if len(matches) == 0 {
		return errorResult(invalidArg("no indexed file found at %s in repo %s", source, repoID))
	}
	target := matches[0]

	chains, err := s.deps.Imports.Expand(ctx, target.RepoPath, []string{target.FilePath}, graphindex.Options{
		Depth: maxDepth, WorkspaceScope: graphindex.ScopeUnrestricted,
	})
	if err != nil {
		return nil, fmt.Errorf("expand imports: %w", err)
	}

	var out []graphindex.ImportChain
	for _, c := range chains {
		if !c.CrossWorkspace {
			continue
		}
		if pattern != "" && !strings.Contains(c.FilePath, pattern) {
			continue
		}
		out = append(out, c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d cross-workspace usages from %s\n", len(out), source)
	for _, c := range out {
		fmt.Fprintf(&b, "- %s <- %s (depth %d)\n", c.FilePath, c.ImportedFrom, c.Depth)
	}
	return textResult(b.String(), out)
}

func (s *Server) handleFindCrossServiceCalls(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, findCrossServiceCallsKeys...); err != nil {
		return errorResult(err)
	}
	source, err := argString(argsMap, "source", true)
	if err != nil {
		return errorResult(err)
	}
	pattern, err := argString(argsMap, "pattern", false)
	if err != nil {
		return errorResult(err)
	}
	maxResults, err := argIntRange(argsMap, "max_results", 25, 1, 100)
	if err != nil {
		return errorResult(err)
	}

	matches, err := s.deps.Store.FilesByPath(ctx, source, "")
	if err != nil {
		return nil, fmt.Errorf("look up source file: %w", err)
	}
	if len(matches) == 0 {
		return errorResult(invalidArg("no indexed file found at %s", source))
	}

	chunkKeys := make([]string, 0, len(matches))
	for _, f := range matches {
		chunkKeys = append(chunkKeys, f.RepoPath+"::"+f.FilePath)
	}
	chunks, err := s.deps.Store.ChunksByFilePaths(ctx, chunkKeys)
	if err != nil {
		return nil, fmt.Errorf("load chunks for source file: %w", err)
	}

	apiCtx, err := s.deps.APIs.Enrich(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("enrich api context: %w", err)
	}

	var out []apienrich.CrossServiceCall
	for _, call := range apiCtx.CrossServiceCalls {
		if pattern != "" && !strings.Contains(call.MatchedText, pattern) {
			continue
		}
		out = append(out, call)
		if len(out) >= maxResults {
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d cross-service calls from %s\n", len(out), source)
	for _, r := range out {
		fmt.Fprintf(&b, "- %s: %q (endpoint found: %v)\n", r.FilePath, r.MatchedText, r.EndpointFound)
	}
	return textResult(b.String(), out)
}

package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerListTools() {
	s.mcp.AddTool(mcp.NewTool("list_indexed_repos",
		mcp.WithDescription("List every indexed repository."),
	), s.handleListIndexedRepos)

	s.mcp.AddTool(mcp.NewTool("list_workspaces",
		mcp.WithDescription("List workspaces (monorepo sub-packages) for a repository."),
		mcp.WithString("repo_id", mcp.Required(), mcp.Description("Repository to list workspaces for")),
	), s.handleListWorkspaces)

	s.mcp.AddTool(mcp.NewTool("list_services",
		mcp.WithDescription("List services for a repository."),
		mcp.WithString("repo_id", mcp.Required(), mcp.Description("Repository to list services for")),
	), s.handleListServices)
}

func (s *Server) handleListIndexedRepos(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap); err != nil {
		return errorResult(err)
	}

	repos, err := s.deps.Store.ListRepositories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list repositories: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d indexed repositories\n", len(repos))
	for _, r := range repos {
		fmt.Fprintf(&b, "- %s (%s) at %s, last updated %s\n", r.RepoID, r.RepoType, r.RepoPath, r.LastUpdated.Format("2006-01-02"))
	}
	return textResult(b.String(), repos)
}

func (s *Server) handleListWorkspaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, "repo_id"); err != nil {
		return errorResult(err)
	}
	repoID, err := argString(argsMap, "repo_id", true)
	if err != nil {
		return errorResult(err)
	}

	workspaces, err := s.deps.Store.ListWorkspaces(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d workspaces in %s\n", len(workspaces), repoID)
	for _, w := range workspaces {
		fmt.Fprintf(&b, "- %s (%s) at %s\n", w.WorkspaceID, w.PackageName, w.WorkspacePath)
	}
	return textResult(b.String(), workspaces)
}

func (s *Server) handleListServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, "repo_id"); err != nil {
		return errorResult(err)
	}
	repoID, err := argString(argsMap, "repo_id", true)
	if err != nil {
		return errorResult(err)
	}

	services, err := s.deps.Store.ListServices(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d services in %s\n", len(services), repoID)
	for _, svc := range services {
		fmt.Fprintf(&b, "- %s (%s) at %s\n", svc.ServiceID, svc.TypeTag, svc.PathRoot)
	}
	return textResult(b.String(), services)
}

package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codegraph-dev/codegraph/internal/model"
)

var getWorkspaceContextKeys = []string{"repo_id", "id", "name", "include_dependencies", "include_dependents", "dependency_depth"}

func (s *Server) registerWorkspaceServiceContext() {
	s.mcp.AddTool(mcp.NewTool("get_workspace_context",
		mcp.WithDescription("Return one workspace's metadata plus its dependency/dependent workspace edges."),
		mcp.WithString("repo_id", mcp.Required(), mcp.Description("Repository the workspace belongs to")),
		mcp.WithString("id", mcp.Description("Workspace id; one of id/name is required")),
		mcp.WithString("name", mcp.Description("Workspace package_name; one of id/name is required")),
		mcp.WithBoolean("include_dependencies", mcp.Description("Include workspaces this one depends on")),
		mcp.WithBoolean("include_dependents", mcp.Description("Include workspaces that depend on this one")),
		mcp.WithNumber("dependency_depth", mcp.Description("1-5, default 1")),
	), s.handleGetWorkspaceContext)

	s.mcp.AddTool(mcp.NewTool("get_service_context",
		mcp.WithDescription("Return one service's metadata plus its endpoints and cross-repo dependency edges."),
		mcp.WithString("repo_id", mcp.Required(), mcp.Description("Repository the service belongs to")),
		mcp.WithString("id", mcp.Description("Service id; one of id/name is required")),
		mcp.WithString("name", mcp.Description("Service name; one of id/name is required")),
		mcp.WithBoolean("include_dependencies", mcp.Description("Include repos this one depends on")),
		mcp.WithBoolean("include_dependents", mcp.Description("Include repos that depend on this one")),
		mcp.WithNumber("dependency_depth", mcp.Description("1-5, default 1")),
	), s.handleGetServiceContext)
}

func (s *Server) handleGetWorkspaceContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, getWorkspaceContextKeys...); err != nil {
		return errorResult(err)
	}
	repoID, err := argString(argsMap, "repo_id", true)
	if err != nil {
		return errorResult(err)
	}
	id, err := argString(argsMap, "id", false)
	if err != nil {
		return errorResult(err)
	}
	name, err := argString(argsMap, "name", false)
	if err != nil {
		return errorResult(err)
	}
	if id == "" && name == "" {
		return errorResult(invalidArg("one of id or name is required"))
	}
	includeDeps, err := argBool(argsMap, "include_dependencies", true)
	if err != nil {
		return errorResult(err)
	}
	includeDependents, err := argBool(argsMap, "include_dependents", true)
	if err != nil {
		return errorResult(err)
	}
	if _, err := argIntRange(argsMap, "dependency_depth", 1, 1, 5); err != nil {
		return errorResult(err)
	}

	workspaces, err := s.deps.Store.ListWorkspaces(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	target, ok := findWorkspace(workspaces, id, name)
	if !ok {
		return errorResult(invalidArg("no workspace matching id=%q name=%q in repo %s", id, name, repoID))
	}

	var deps, dependents []model.WorkspaceDependency
	if includeDeps || includeDependents {
		deps, dependents, err = s.deps.Store.WorkspaceDependencies(ctx, repoID, target.WorkspaceID)
		if err != nil {
			return nil, fmt.Errorf("load workspace dependencies: %w", err)
		}
		if !includeDeps {
			deps = nil
		}
		if !includeDependents {
			dependents = nil
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "workspace %s (%s)\n", target.WorkspaceID, target.PackageName)
	fmt.Fprintf(&b, "dependencies: %d, dependents: %d\n", len(deps), len(dependents))
	return textResult(b.String(), map[string]any{"workspace": target, "dependencies": deps, "dependents": dependents})
}

func findWorkspace(workspaces []model.Workspace, id, name string) (model.Workspace, bool) {
	for _, w := range workspaces {
		if (id != "" && w.WorkspaceID == id) || (name != "" && w.PackageName == name) {
			return w, true
		}
	}
	return model.Workspace{}, false
}

func (s *Server) handleGetServiceContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, "repo_id", "id", "name", "include_dependencies", "include_dependents", "dependency_depth"); err != nil {
		return errorResult(err)
	}
	repoID, err := argString(argsMap, "repo_id", true)
	if err != nil {
		return errorResult(err)
	}
	id, err := argString(argsMap, "id", false)
	if err != nil {
		return errorResult(err)
	}
	name, err := argString(argsMap, "name", false)
	if err != nil {
		return errorResult(err)
	}
	if id == "" && name == "" {
		return errorResult(invalidArg("one of id or name is required"))
	}
	includeDeps, err := argBool(argsMap, "include_dependencies", true)
	if err != nil {
		return errorResult(err)
	}
	includeDependents, err := argBool(argsMap, "include_dependents", true)
	if err != nil {
		return errorResult(err)
	}
	if _, err := argIntRange(argsMap, "dependency_depth", 1, 1, 5); err != nil {
		return errorResult(err)
	}

	services, err := s.deps.Store.ListServices(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	var target model.Service
	found := false
	for _, svc := range services {
		if svc.ServiceID == id || svc.ServiceID == name {
			target = svc
			found = true
			break
		}
	}
	if !found {
		return errorResult(invalidArg("no service matching id=%q name=%q in repo %s", id, name, repoID))
	}

	endpoints, err := s.deps.Store.EndpointsForServices(ctx, []string{target.ServiceID})
	if err != nil {
		return nil, fmt.Errorf("load service endpoints: %w", err)
	}

	crossDeps, err := s.deps.Store.CrossRepoDependenciesForRepo(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("load cross-repo dependencies: %w", err)
	}
	var dependencies, dependents []model.CrossRepoDependency
	for _, d := range crossDeps {
		if d.SourceRepoID == repoID && includeDeps {
			dependencies = append(dependencies, d)
		}
		if d.TargetRepoID == repoID && includeDependents {
			dependents = append(dependents, d)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "service %s (%s), %d endpoints\n", target.ServiceID, target.TypeTag, len(endpoints))
	fmt.Fprintf(&b, "dependencies: %d, dependents: %d\n", len(dependencies), len(dependents))
	return textResult(b.String(), map[string]any{
		"service": target, "endpoints": endpoints, "dependencies": dependencies, "dependents": dependents,
	})
}

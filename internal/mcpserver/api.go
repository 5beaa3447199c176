package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/codegraph-dev/codegraph/internal/keyword"
	"github.com/codegraph-dev/codegraph/internal/model"
)

var searchAPIContractsKeys = []string{
	"query", "api_types", "similarity_threshold", "max_results",
	"include_workspaces", "exclude_workspaces", "include_services", "exclude_services",
	"include_repos", "exclude_repos", "exclude_repo_types",
}

func (s *Server) registerSearchAPIContracts() {
	tool := mcp.NewTool(
		"search_api_contracts",
		mcp.WithDescription("Free-text search over indexed API endpoint method/path/schema text, filtered by api type and scope."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text query over endpoint method, path and schemas")),
		mcp.WithArray("api_types", mcp.Description("Restrict to rest|graphql|grpc|websocket")),
		mcp.WithArray("include_services", mcp.Description("Restrict results to these service ids")),
		mcp.WithArray("exclude_services", mcp.Description("Exclude these service ids")),
		mcp.WithArray("include_workspaces", mcp.Description("Workspace ids; validated, but endpoint results are not filtered by workspace")),
		mcp.WithArray("exclude_workspaces", mcp.Description("Workspace ids; validated, but endpoint results are not filtered by workspace")),
		mcp.WithArray("include_repos", mcp.Description("Repo ids; validated, but endpoint results are not filtered by repo")),
		mcp.WithArray("exclude_repos", mcp.Description("Repo ids; validated, but endpoint results are not filtered by repo")),
		mcp.WithArray("exclude_repo_types", mcp.Description("Repo types; validated, but endpoint results are not filtered by repo type")),
		mcp.WithNumber("similarity_threshold", mcp.Description("0-1, relative score floor against the top hit, default 0")),
		mcp.WithNumber("max_results", mcp.Description("1-100, default 25")),
	)
	s.mcp.AddTool(tool, s.handleSearchAPIContracts)
}

func (s *Server) handleSearchAPIContracts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	argsMap, err := argsMapFrom(request.Params.Arguments)
	if err != nil {
		return errorResult(err)
	}
	if err := requireKnownKeys(argsMap, searchAPIContractsKeys...); err != nil {
		return errorResult(err)
	}
	query, err := argString(argsMap, "query", true)
	if err != nil {
		return errorResult(err)
	}
	if err := argMinLen(strings.TrimSpace(query), "query", 2); err != nil {
		return errorResult(err)
	}
	apiTypes, err := argStringArray(argsMap, "api_types")
	if err != nil {
		return errorResult(err)
	}
	for _, t := range apiTypes {
		switch model.APIType(t) {
		case model.APITypeREST, model.APITypeGraphQL, model.APITypeGRPC, model.APITypeWebSocket:
		default:
			return errorResult(invalidArg("api_types: unknown api type %q", t))
		}
	}
	filters, err := parseFilters(argsMap)
	if err != nil {
		return errorResult(err)
	}
	similarityThreshold, err := argFloatRange(argsMap, "similarity_threshold", 0, 0, 1)
	if err != nil {
		return errorResult(err)
	}
	maxResults, err := argIntRange(argsMap, "max_results", 25, 1, 100)
	if err != nil {
		return errorResult(err)
	}

	hits, err := s.deps.Keyword.Search(ctx, query, keyword.Options{Kind: "endpoint", Limit: maxResults})
	if err != nil {
		return nil, fmt.Errorf("search keyword index: %w", err)
	}
	if len(hits) == 0 {
		return textResult(fmt.Sprintf("0 api contracts matched %q", query), nil)
	}

	topScore := hits[0].Score
	serviceIDs := make([]string, 0, len(hits))
	seen := map[string]bool{}
	for _, h := range hits {
		serviceID, _, _, ok := splitEndpointID(h.ID)
		if !ok || seen[serviceID] {
			continue
		}
		seen[serviceID] = true
		serviceIDs = append(serviceIDs, serviceID)
	}
	endpoints, err := s.deps.Store.EndpointsForServices(ctx, serviceIDs)
	if err != nil {
		return nil, fmt.Errorf("load matched endpoints: %w", err)
	}
	byID := make(map[string]model.APIEndpoint, len(endpoints))
	for _, ep := range endpoints {
		byID[fmt.Sprintf("%s::%s::%s", ep.ServiceID, ep.Method, ep.Path)] = ep
	}

	var out []model.APIEndpoint
	for _, h := range hits {
		if similarityThreshold > 0 && topScore > 0 && h.Score/topScore < similarityThreshold {
			continue
		}
		ep, ok := byID[h.ID]
		if !ok {
			continue
		}
		if len(apiTypes) > 0 && !containsStr(apiTypes, string(ep.APIType)) {
			continue
		}
		if !setIncludesLocal(filters.ServiceInclude, ep.ServiceID) || setExcludesLocal(filters.ServiceExclude, ep.ServiceID) {
			continue
		}
		out = append(out, ep)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d api contracts matched %q\n", len(out), query)
	for _, ep := range out {
		fmt.Fprintf(&b, "- %s %s [%s] -> %s (deprecated: %v)\n", ep.Method, ep.Path, ep.APIType, ep.ImplFilePath, ep.Deprecated)
	}
	return textResult(b.String(), out)
}

// splitEndpointID reverses the "service_id::method::path" encoding used by
// keyword.Index.IndexEndpoints.
func splitEndpointID(id string) (serviceID, method, path string, ok bool) {
	parts := strings.SplitN(id, "::", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func containsStr(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func setIncludesLocal(set []string, value string) bool {
	if len(set) == 0 {
		return true
	}
	return containsStr(set, value)
}

func setExcludesLocal(set []string, value string) bool {
	return value != "" && containsStr(set, value)
}

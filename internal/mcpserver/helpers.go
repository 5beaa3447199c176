package mcpserver

import (
	"github.com/codegraph-dev/codegraph/internal/graphindex"
	"github.com/codegraph-dev/codegraph/internal/model"
	"github.com/codegraph-dev/codegraph/internal/retrieval"
)

// scopeOption is the {mode, max_depth} shape spec.md §6 gives
// workspace_scope/service_scope.
type scopeOption struct {
	Mode     graphindex.ScopeMode
	MaxDepth int
}

func parseScope(argsMap map[string]interface{}, key string) (scopeOption, error) {
	out := scopeOption{Mode: graphindex.ScopeInclusive, MaxDepth: 3}
	obj, err := argMap(argsMap, key)
	if err != nil {
		return out, err
	}
	if obj == nil {
		return out, nil
	}
	mode, err := argEnum(obj, "mode", string(graphindex.ScopeInclusive),
		string(graphindex.ScopeStrict), string(graphindex.ScopeInclusive), string(graphindex.ScopeUnrestricted))
	if err != nil {
		return out, err
	}
	out.Mode = graphindex.ScopeMode(mode)
	maxDepth, err := argIntRange(obj, "max_depth", 3, 1, 5)
	if err != nil {
		return out, err
	}
	out.MaxDepth = maxDepth
	return out, nil
}

// parseRepoTypes validates each entry of exclude_repo_types against the
// known RepoType enum.
func parseRepoTypes(argsMap map[string]interface{}, key string) ([]model.RepoType, error) {
	raw, err := argStringArray(argsMap, key)
	if err != nil {
		return nil, err
	}
	valid := map[model.RepoType]bool{
		model.RepoTypeMonolithic: true, model.RepoTypeMicroservice: true,
		model.RepoTypeMonorepo: true, model.RepoTypeLibrary: true,
		model.RepoTypeReference: true, model.RepoTypeDocumentation: true,
	}
	out := make([]model.RepoType, 0, len(raw))
	for _, r := range raw {
		rt := model.RepoType(r)
		if !valid[rt] {
			return nil, invalidArg("%s contains unknown repo_type %q", key, r)
		}
		out = append(out, rt)
	}
	return out, nil
}

// parseFilters builds the conjunctive Filters shared by search_codebase
// and search_api_contracts from the arguments map, per spec.md §4.C10-C11.
func parseFilters(argsMap map[string]interface{}) (retrieval.Filters, error) {
	var f retrieval.Filters
	var err error
	if f.WorkspaceInclude, err = argStringArray(argsMap, "include_workspaces"); err != nil {
		return f, err
	}
	if f.WorkspaceExclude, err = argStringArray(argsMap, "exclude_workspaces"); err != nil {
		return f, err
	}
	if f.ServiceInclude, err = argStringArray(argsMap, "include_services"); err != nil {
		return f, err
	}
	if f.ServiceExclude, err = argStringArray(argsMap, "exclude_services"); err != nil {
		return f, err
	}
	if f.RepoInclude, err = argStringArray(argsMap, "include_repos"); err != nil {
		return f, err
	}
	if f.RepoExclude, err = argStringArray(argsMap, "exclude_repos"); err != nil {
		return f, err
	}
	if f.ExcludeRepoTypes, err = parseRepoTypes(argsMap, "exclude_repo_types"); err != nil {
		return f, err
	}
	if f.IncludeReferences, err = argBool(argsMap, "include_references", false); err != nil {
		return f, err
	}
	if f.IncludeDocumentation, err = argBool(argsMap, "include_documentation", true); err != nil {
		return f, err
	}
	return f, nil
}

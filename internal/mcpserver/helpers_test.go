package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codegraph-dev/codegraph/internal/graphindex"
	"github.com/codegraph-dev/codegraph/internal/model"
)

func TestParseScope(t *testing.T) {
	t.Parallel()

	t.Run("absent uses inclusive default", func(t *testing.T) {
		s, err := parseScope(map[string]interface{}{}, "workspace_scope")
		require.NoError(t, err)
		assert.Equal(t, graphindex.ScopeInclusive, s.Mode)
		assert.Equal(t, 3, s.MaxDepth)
	})

	t.Run("explicit mode and depth", func(t *testing.T) {
		argsMap := map[string]interface{}{
			"workspace_scope": map[string]interface{}{"mode": "strict", "max_depth": float64(2)},
		}
		s, err := parseScope(argsMap, "workspace_scope")
		require.NoError(t, err)
		assert.Equal(t, graphindex.ScopeStrict, s.Mode)
		assert.Equal(t, 2, s.MaxDepth)
	})

	t.Run("invalid mode rejected", func(t *testing.T) {
		argsMap := map[string]interface{}{
			"workspace_scope": map[string]interface{}{"mode": "bogus"},
		}
		_, err := parseScope(argsMap, "workspace_scope")
		require.Error(t, err)
	})

	t.Run("depth out of range rejected", func(t *testing.T) {
		argsMap := map[string]interface{}{
			"workspace_scope": map[string]interface{}{"max_depth": float64(9)},
		}
		_, err := parseScope(argsMap, "workspace_scope")
		require.Error(t, err)
	})
}

func TestParseRepoTypes(t *testing.T) {
	t.Parallel()

	t.Run("valid types", func(t *testing.T) {
		argsMap := map[string]interface{}{"exclude_repo_types": []interface{}{"library", "reference"}}
		types, err := parseRepoTypes(argsMap, "exclude_repo_types")
		require.NoError(t, err)
		assert.Equal(t, []model.RepoType{model.RepoTypeLibrary, model.RepoTypeReference}, types)
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		argsMap := map[string]interface{}{"exclude_repo_types": []interface{}{"bogus"}}
		_, err := parseRepoTypes(argsMap, "exclude_repo_types")
		require.Error(t, err)
	})

	t.Run("missing returns empty", func(t *testing.T) {
		types, err := parseRepoTypes(map[string]interface{}{}, "exclude_repo_types")
		require.NoError(t, err)
		assert.Empty(t, types)
	})
}

func TestParseFilters(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		f, err := parseFilters(map[string]interface{}{})
		require.NoError(t, err)
		assert.False(t, f.IncludeReferences)
		assert.True(t, f.IncludeDocumentation)
		assert.Empty(t, f.ServiceInclude)
	})

	t.Run("populated include/exclude lists", func(t *testing.T) {
		argsMap := map[string]interface{}{
			"include_services": []interface{}{"svc-a"},
			"exclude_services": []interface{}{"svc-b"},
			"include_repos":    []interface{}{"repo-a"},
		}
		f, err := parseFilters(argsMap)
		require.NoError(t, err)
		assert.Equal(t, []string{"svc-a"}, f.ServiceInclude)
		assert.Equal(t, []string{"svc-b"}, f.ServiceExclude)
		assert.Equal(t, []string{"repo-a"}, f.RepoInclude)
	})

	t.Run("bad exclude_repo_types propagates error", func(t *testing.T) {
		argsMap := map[string]interface{}{"exclude_repo_types": []interface{}{"bogus"}}
		_, err := parseFilters(argsMap)
		require.Error(t, err)
	})
}

package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireKnownKeys(t *testing.T) {
	t.Parallel()

	t.Run("all known", func(t *testing.T) {
		argsMap := map[string]interface{}{"query": "x", "max_files": float64(5)}
		require.NoError(t, requireKnownKeys(argsMap, "query", "max_files"))
	})

	t.Run("unknown key fails closed", func(t *testing.T) {
		argsMap := map[string]interface{}{"query": "x", "bogus": true}
		err := requireKnownKeys(argsMap, "query")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bogus")
	})

	t.Run("multiple unknown keys sorted in message", func(t *testing.T) {
		argsMap := map[string]interface{}{"zeta": 1, "alpha": 2}
		err := requireKnownKeys(argsMap)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "alpha, zeta")
	})

	t.Run("empty args always passes", func(t *testing.T) {
		require.NoError(t, requireKnownKeys(map[string]interface{}{}))
	})
}

func TestArgString(t *testing.T) {
	t.Parallel()

	t.Run("required present", func(t *testing.T) {
		v, err := argString(map[string]interface{}{"name": "foo"}, "name", true)
		require.NoError(t, err)
		assert.Equal(t, "foo", v)
	})

	t.Run("required missing", func(t *testing.T) {
		_, err := argString(map[string]interface{}{}, "name", true)
		require.Error(t, err)
	})

	t.Run("required empty", func(t *testing.T) {
		_, err := argString(map[string]interface{}{"name": "   "}, "name", true)
		require.Error(t, err)
	})

	t.Run("optional missing returns zero value", func(t *testing.T) {
		v, err := argString(map[string]interface{}{}, "name", false)
		require.NoError(t, err)
		assert.Empty(t, v)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := argString(map[string]interface{}{"name": 42}, "name", true)
		require.Error(t, err)
	})
}

func TestArgIntRangeFailsClosedInsteadOfClamping(t *testing.T) {
	t.Parallel()

	t.Run("within bounds", func(t *testing.T) {
		n, err := argIntRange(map[string]interface{}{"max_files": float64(10)}, "max_files", 15, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 10, n)
	})

	t.Run("missing uses default", func(t *testing.T) {
		n, err := argIntRange(map[string]interface{}{}, "max_files", 15, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, 15, n)
	})

	t.Run("above max errors rather than clamps", func(t *testing.T) {
		_, err := argIntRange(map[string]interface{}{"max_files": float64(1000)}, "max_files", 15, 1, 50)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "between 1 and 50")
	})

	t.Run("below min errors rather than clamps", func(t *testing.T) {
		_, err := argIntRange(map[string]interface{}{"max_files": float64(0)}, "max_files", 15, 1, 50)
		require.Error(t, err)
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := argIntRange(map[string]interface{}{"max_files": "many"}, "max_files", 15, 1, 50)
		require.Error(t, err)
	})
}

func TestArgFloatRange(t *testing.T) {
	t.Parallel()

	t.Run("within bounds", func(t *testing.T) {
		f, err := argFloatRange(map[string]interface{}{"dedup_threshold": 0.5}, "dedup_threshold", 0.92, 0, 1)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, f, 0.0001)
	})

	t.Run("out of range errors", func(t *testing.T) {
		_, err := argFloatRange(map[string]interface{}{"dedup_threshold": 1.5}, "dedup_threshold", 0.92, 0, 1)
		require.Error(t, err)
	})

	t.Run("missing uses default", func(t *testing.T) {
		f, err := argFloatRange(map[string]interface{}{}, "dedup_threshold", 0.92, 0, 1)
		require.NoError(t, err)
		assert.InDelta(t, 0.92, f, 0.0001)
	})
}

func TestArgEnum(t *testing.T) {
	t.Parallel()

	t.Run("valid value", func(t *testing.T) {
		v, err := argEnum(map[string]interface{}{"scope_filter": "exported"}, "scope_filter", "all", "all", "exported", "internal")
		require.NoError(t, err)
		assert.Equal(t, "exported", v)
	})

	t.Run("missing uses default", func(t *testing.T) {
		v, err := argEnum(map[string]interface{}{}, "scope_filter", "all", "all", "exported", "internal")
		require.NoError(t, err)
		assert.Equal(t, "all", v)
	})

	t.Run("invalid value rejected", func(t *testing.T) {
		_, err := argEnum(map[string]interface{}{"scope_filter": "bogus"}, "scope_filter", "all", "all", "exported", "internal")
		require.Error(t, err)
	})
}

func TestArgStringArray(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		v, err := argStringArray(map[string]interface{}{"languages": []interface{}{"go", "python"}}, "languages")
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "python"}, v)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		v, err := argStringArray(map[string]interface{}{}, "languages")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("non-string element rejected", func(t *testing.T) {
		_, err := argStringArray(map[string]interface{}{"languages": []interface{}{"go", 42}}, "languages")
		require.Error(t, err)
	})
}

func TestArgsMapFrom(t *testing.T) {
	t.Parallel()

	t.Run("valid object", func(t *testing.T) {
		m, err := argsMapFrom(map[string]interface{}{"query": "x"})
		require.NoError(t, err)
		assert.Equal(t, "x", m["query"])
	})

	t.Run("non-object rejected", func(t *testing.T) {
		_, err := argsMapFrom("not an object")
		require.Error(t, err)
	})
}

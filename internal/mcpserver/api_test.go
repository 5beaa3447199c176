package mcpserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEndpointID(t *testing.T) {
	t.Parallel()

	t.Run("well-formed id", func(t *testing.T) {
		serviceID, method, path, ok := splitEndpointID("billing::GET::/v1/invoices/{id}")
		assert.True(t, ok)
		assert.Equal(t, "billing", serviceID)
		assert.Equal(t, "GET", method)
		assert.Equal(t, "/v1/invoices/{id}", path)
	})

	t.Run("malformed id rejected", func(t *testing.T) {
		_, _, _, ok := splitEndpointID("not-an-endpoint-id")
		assert.False(t, ok)
	})
}

func TestSetIncludesExcludesLocal(t *testing.T) {
	t.Parallel()

	t.Run("empty include set matches everything", func(t *testing.T) {
		assert.True(t, setIncludesLocal(nil, "svc-a"))
	})

	t.Run("non-empty include set requires membership", func(t *testing.T) {
		assert.True(t, setIncludesLocal([]string{"svc-a"}, "svc-a"))
		assert.False(t, setIncludesLocal([]string{"svc-a"}, "svc-b"))
	})

	t.Run("exclude set only matches listed values", func(t *testing.T) {
		assert.True(t, setExcludesLocal([]string{"svc-a"}, "svc-a"))
		assert.False(t, setExcludesLocal([]string{"svc-a"}, "svc-b"))
		assert.False(t, setExcludesLocal(nil, "svc-a"))
	})
}

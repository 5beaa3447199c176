package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFatalKinds(t *testing.T) {
	assert.True(t, KindStoreUnavailable.Fatal())
	assert.True(t, KindQueryValidation.Fatal())
	assert.False(t, KindParseFailed.Fatal())
	assert.False(t, KindPersistFailed.Fatal())
}

func TestErrorMessageTwoTier(t *testing.T) {
	err := New(KindConfig, "missing EMBEDDER_URL").WithHint("set EMBEDDER_URL in the environment")
	assert.Contains(t, err.Error(), "missing EMBEDDER_URL")
	assert.Contains(t, err.Error(), "set EMBEDDER_URL")
}

func TestKindOfUnwrapsWrappedErrors(t *testing.T) {
	base := Wrap(KindStoreUnavailable, "db ping failed", errors.New("connection refused"))
	wrapped := fmt.Errorf("starting up: %w", base)

	assert.Equal(t, KindStoreUnavailable, KindOf(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

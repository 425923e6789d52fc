package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetKind(t *testing.T) {
	assert.Equal(t, KindNotFound, NotFound("session %s", "abc").Kind)
	assert.Equal(t, KindInvalidArgument, InvalidArgument("bad input").Kind)
	assert.Equal(t, KindStorageFailure, StorageFailure("db down", nil).Kind)
	assert.Equal(t, KindProviderFailure, ProviderFailure("llm down", nil).Kind)
}

func TestMessageFormatting(t *testing.T) {
	err := NotFound("session %s not found", "abc")
	assert.Equal(t, "session abc not found", err.Error())
}

func TestWrappedErrorSurfacesInMessage(t *testing.T) {
	cause := errors.New("connection refused")
	err := StorageFailure("failed to save", cause)
	assert.Equal(t, "failed to save: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorsAsThroughWrapping(t *testing.T) {
	inner := InvalidArgument("empty role")
	wrapped := fmt.Errorf("handler: %w", inner)

	var appErr *Error
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, KindInvalidArgument, appErr.Kind)
}

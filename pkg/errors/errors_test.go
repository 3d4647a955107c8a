package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentity(t *testing.T) {
	cloned := Clone(ErrLockConflict, "week 2025-09-29 is locked")
	require.True(t, errors.Is(cloned, ErrLockConflict))
	require.False(t, errors.Is(cloned, ErrShortFreeze))
	assert.Equal(t, http.StatusConflict, cloned.Status)
	assert.Equal(t, "week 2025-09-29 is locked", cloned.Message)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	plain := fmt.Errorf("boom")
	appErr := FromError(plain)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, plain)

	wrapped := fmt.Errorf("decide: %w", ErrAlreadyDecided)
	assert.Equal(t, ErrAlreadyDecided.Code, FromError(wrapped).Code)
}

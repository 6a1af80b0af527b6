package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMatchesKind(t *testing.T) {
	err := fmt.Errorf("share todo: %w", Forbidden("User is not a group member", "NOT_GROUP_MEMBER"))

	require.True(t, errors.Is(err, ErrForbidden))
	require.False(t, errors.Is(err, ErrNotFound))

	appErr, ok := As(err)
	require.True(t, ok)
	require.Equal(t, "NOT_GROUP_MEMBER", appErr.Code)
	require.Equal(t, "User is not a group member", appErr.Error())
}

func TestAsPlainError(t *testing.T) {
	_, ok := As(errors.New("boom"))
	require.False(t, ok)
}

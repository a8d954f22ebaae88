package apperror_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redirectdispatch/dispatcher/internal/apperror"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := apperror.New(apperror.TransientUpstream, "redis unreachable", base)

	require.True(t, apperror.Is(wrapped, apperror.TransientUpstream))
	require.False(t, apperror.Is(wrapped, apperror.PermanentConfig))
	require.False(t, apperror.Is(base, apperror.TransientUpstream), "a plain error is never an apperror kind")
}

func TestErrorMessageIncludesWrappedError(t *testing.T) {
	err := apperror.New(apperror.InputValidation, "bad field", errors.New("unknown column"))
	require.Equal(t, "bad field: unknown column", err.Error())
	require.Equal(t, "unknown column", errors.Unwrap(err).Error())
}

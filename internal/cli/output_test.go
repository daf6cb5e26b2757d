package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorMessage(t *testing.T) {
	err := NewExitError(ExitFailure, "conformance checks failed")
	assert.Equal(t, "conformance checks failed", err.Error())

	wrapped := WrapExitError(ExitCommandError, "failed to compile suite", errors.New("bad cue"))
	assert.Equal(t, "failed to compile suite: bad cue", wrapped.Error())
}

func TestExitErrorUnwrap(t *testing.T) {
	inner := errors.New("disk full")
	wrapped := WrapExitError(ExitCommandError, "failed to persist run", inner)

	require.ErrorIs(t, wrapped, inner)
	assert.ErrorIs(t, fmt.Errorf("outer: %w", wrapped), inner)
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(NewExitError(ExitFailure, "checks failed")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))

	// Wrapped ExitErrors still carry their code.
	outer := fmt.Errorf("outer: %w", NewExitError(ExitFailure, "checks failed"))
	assert.Equal(t, ExitFailure, GetExitCode(outer))

	// Unclassified errors are command problems.
	assert.Equal(t, ExitCommandError, GetExitCode(errors.New("mystery")))
}

package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/utestgrid/internal/cli"
	"github.com/specialistvlad/utestgrid/internal/testutil"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, errOut, []string{"-h"})

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error for help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to stdout")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}

	err := run(context.Background(), out, errOut, []string{"--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
	assert.Contains(t, errOut.String(), "Usage:")
}

func TestRun_FatalErrorPrintsUsage(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	w := testutil.NewWorkspace(t, "fv3", `inpes = "not a number"`)
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	args := []string{"-n", "fv3", "-w", w.Root, "-f", filepath.Base(w.Harness)}

	// --- Act ---
	err := run(context.Background(), out, errOut, args)

	// --- Assert ---
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parameters of test "fv3"`)
	assert.Contains(t, errOut.String(), "Usage:")

	var exitErr *cli.ExitError
	assert.False(t, errors.As(err, &exitErr), "runtime failures exit through the generic path")
}

package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/utestgrid/internal/report"
)

// RequireFailures checks the failure list file at path. A nil want asserts
// that the file does not exist.
func RequireFailures(t *testing.T, path string, want []string) {
	t.Helper()

	got, found, err := report.ReadFailures(path)
	require.NoError(t, err)
	if want == nil {
		require.False(t, found, "expected no failure list, got %v", got)
		return
	}
	require.True(t, found, "expected a failure list at %s", path)
	require.Equal(t, want, got)
}

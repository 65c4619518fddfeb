package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utest.lock")

	l, err := Acquire(path, "fv3_control")
	require.NoError(t, err)
	require.FileExists(t, path)

	owner, err := ReadOwner(path)
	require.NoError(t, err)
	assert.Equal(t, l.Owner().Token, owner.Token)
	assert.Equal(t, os.Getpid(), owner.PID)
	assert.Equal(t, "fv3_control", owner.Test)
	assert.NotEmpty(t, owner.Token)

	require.NoError(t, l.Release())
	assert.NoFileExists(t, path)
	require.NoError(t, l.Release(), "second release is a no-op")
}

func TestAcquire_FailsFastWhenHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utest.lock")

	first, err := Acquire(path, "fv3_control")
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	second, err := Acquire(path, "fv3_other")
	require.ErrorIs(t, err, ErrHeld)
	assert.Nil(t, second)
	assert.Contains(t, err.Error(), "fv3_control")

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed acquire must not touch the holder's lock")

	require.NoError(t, first.Release())
	third, err := Acquire(path, "fv3_other")
	require.NoError(t, err)
	require.NoError(t, third.Release())
}

func TestAcquire_UnreadableLockStillHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utest.lock")
	require.NoError(t, os.WriteFile(path, []byte("::not yaml::\n\t-"), 0600))

	_, err := Acquire(path, "fv3_control")
	require.ErrorIs(t, err, ErrHeld)
}

func TestRelease_DoesNotRemoveForeignLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "utest.lock")
	l, err := Acquire(path, "fv3_control")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("token: someone-else\n"), 0600))

	require.Error(t, l.Release())
	assert.FileExists(t, path)
}

func TestRelease_RemovesOwnCorruptedLock(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "truncated to empty", body: ""},
		{name: "not yaml", body: "token: [unclosed\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			path := filepath.Join(t.TempDir(), "utest.lock")
			l, err := Acquire(path, "fv3_control")
			require.NoError(t, err)
			require.NoError(t, os.WriteFile(path, []byte(tc.body), 0600))

			_, err = ReadOwner(path)
			require.ErrorIs(t, err, ErrCorrupt)

			// --- Act ---
			err = l.Release()

			// --- Assert ---
			require.NoError(t, err)
			assert.NoFileExists(t, path)
			next, err := Acquire(path, "fv3_control")
			require.NoError(t, err, "a later invocation is not blocked")
			require.NoError(t, next.Release())
		})
	}
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	assert.NoError(t, l.Release())
}

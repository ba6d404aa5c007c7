package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gravitational/trace"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) (*FileState, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "fum")
	fileState, err := NewFileState(dir)
	require.NoError(t, err)
	return fileState, dir
}

func TestFileStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	fileState, dir := newTestState(t)

	creds := &Credentials{
		AccessToken:  "my-access-token",
		RefreshToken: "my-refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
	}
	require.NoError(t, fileState.PutCredentials(ctx, creds))

	info, err := os.Stat(filepath.Join(dir, credentialsKey))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := fileState.GetCredentials(ctx)
	require.NoError(t, err)

	want := &Credentials{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt.Truncate(time.Second),
	}
	require.Empty(t, cmp.Diff(want, loaded))
}

func TestFileStateOverwrite(t *testing.T) {
	ctx := context.Background()
	fileState, _ := newTestState(t)

	first := &Credentials{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: time.Unix(1700000000, 0)}
	second := &Credentials{AccessToken: "a2", RefreshToken: "r1", ExpiresAt: time.Unix(1700003600, 0)}
	require.NoError(t, fileState.PutCredentials(ctx, first))
	require.NoError(t, fileState.PutCredentials(ctx, second))

	loaded, err := fileState.GetCredentials(ctx)
	require.NoError(t, err)
	require.Equal(t, "a2", loaded.AccessToken)
	require.Equal(t, int64(1700003600), loaded.ExpiresAt.Unix())
}

func TestFileStateMissing(t *testing.T) {
	fileState, _ := newTestState(t)

	_, err := fileState.GetCredentials(context.Background())
	require.Error(t, err)
	require.True(t, trace.IsNotFound(err), "expected NotFound, got %v", err)
}

func TestFileStateIncompleteRecord(t *testing.T) {
	fileState, dir := newTestState(t)
	require.NoError(t, os.MkdirAll(dir, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, credentialsKey),
		[]byte(`{"access_token":"a","expires_at":1700000000}`), 0600))

	_, err := fileState.GetCredentials(context.Background())
	require.True(t, trace.IsNotFound(err), "expected NotFound, got %v", err)
}

func TestFileStateRefusesIncompleteCredentials(t *testing.T) {
	fileState, dir := newTestState(t)

	err := fileState.PutCredentials(context.Background(), &Credentials{AccessToken: "a"})
	require.True(t, trace.IsBadParameter(err), "expected BadParameter, got %v", err)

	_, err = os.Stat(filepath.Join(dir, credentialsKey))
	require.True(t, os.IsNotExist(err))
}

func TestFileStateLegacyLayout(t *testing.T) {
	ctx := context.Background()
	fileState, dir := newTestState(t)
	require.NoError(t, os.MkdirAll(dir, 0700))

	write := func(name, value string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0600))
	}
	write(legacyAccessTokenKey, "legacy-access")
	write(legacyRefreshTokenKey, "legacy-refresh")

	// Two of three fields are not enough.
	_, err := fileState.GetCredentials(ctx)
	require.True(t, trace.IsNotFound(err))

	write(legacyExpiresAtKey, "1700000000\n")
	loaded, err := fileState.GetCredentials(ctx)
	require.NoError(t, err)
	require.Equal(t, "legacy-access", loaded.AccessToken)
	require.Equal(t, "legacy-refresh", loaded.RefreshToken)
	require.Equal(t, int64(1700000000), loaded.ExpiresAt.Unix())

	// The next save switches to the single record, which takes precedence.
	loaded.AccessToken = "migrated-access"
	require.NoError(t, fileState.PutCredentials(ctx, loaded))
	reloaded, err := fileState.GetCredentials(ctx)
	require.NoError(t, err)
	require.Equal(t, "migrated-access", reloaded.AccessToken)
}

func TestFileStateLegacyMalformedExpiry(t *testing.T) {
	fileState, dir := newTestState(t)
	require.NoError(t, os.MkdirAll(dir, 0700))
	for name, value := range map[string]string{
		legacyAccessTokenKey:  "a",
		legacyRefreshTokenKey: "r",
		legacyExpiresAtKey:    "tomorrow",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0600))
	}

	_, err := fileState.GetCredentials(context.Background())
	require.True(t, trace.IsBadParameter(err), "expected BadParameter, got %v", err)
}

func TestNewFileStateRequiresDir(t *testing.T) {
	_, err := NewFileState("")
	require.True(t, trace.IsBadParameter(err))
}

package gateway

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilesystemStorageRoundTrip(t *testing.T) {
	store, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "kyc/abc/doc.png", "image/png", strings.NewReader("contents")))

	rc, err := store.Get(ctx, "kyc/abc/doc.png")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	require.Equal(t, "contents", string(got))

	require.NoError(t, store.Delete(ctx, "kyc/abc/doc.png"))
	_, err = store.Get(ctx, "kyc/abc/doc.png")
	require.Error(t, err)

	// Deleting a missing object is not an error.
	require.NoError(t, store.Delete(ctx, "kyc/abc/doc.png"))
}

func TestFilesystemStorageRejectsTraversal(t *testing.T) {
	store, err := NewFilesystemStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../escape", "a/../../escape", "/etc/passwd", "."} {
		require.Error(t, store.Put(ctx, key, "", strings.NewReader("x")), "key %q", key)
		_, err := store.Get(ctx, key)
		require.Error(t, err, "key %q", key)
	}
}

package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowList(t *testing.T) {
	allow := NewAllowList(DefaultAllowedExtensions)

	cases := map[string]bool{
		"scan.pdf":        true,
		"photo.JPG":       true,
		"archive.tar.gif": true,
		"notes.txt":       false,
		"pdf":             false,
		"README":          false,
		"":                false,
		"trailing.":       false,
	}
	for name, want := range cases {
		assert.Equal(t, want, allow.Allowed(name), name)
	}
}

func TestAllowListNormalizesConfig(t *testing.T) {
	allow := NewAllowList([]string{" .TXT ", ""})
	assert.True(t, allow.Allowed("a.txt"))
	assert.False(t, allow.Allowed("a.pdf"))
}

func TestSecureFilename(t *testing.T) {
	assert.Equal(t, "My_cool_movie.mov", SecureFilename("My cool movie.mov"))
	assert.Equal(t, "passwd", SecureFilename("../../../etc/passwd"))
	assert.Equal(t, "evil.pdf", SecureFilename(`C:\Users\x\evil.pdf`))
	assert.Equal(t, "relatrio.pdf", SecureFilename("relatório.pdf"))
	assert.Equal(t, "hidden", SecureFilename(".hidden"))
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	key, err := store.Store(ctx, strings.NewReader("%PDF-1.4"), "invoice march.pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(key, "_invoice_march.pdf"), key)

	_, err = os.Stat(filepath.Join(dir, key))
	require.NoError(t, err)

	rc, err := store.Open(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(body))
}

func TestLocalStoreKeysAreUnique(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	k1, err := store.Store(ctx, strings.NewReader("a"), "same.png")
	require.NoError(t, err)
	k2, err := store.Store(ctx, strings.NewReader("b"), "same.png")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)
}

func TestLocalStoreDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	key, err := store.Store(ctx, strings.NewReader("x"), "gone.png")
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, key))

	_, err = os.Stat(filepath.Join(dir, key))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, store.Delete(ctx, key))
	assert.ErrorIs(t, store.Delete(ctx, "../x"), ErrInvalidKey)
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../secret", "a/b", ".env"} {
		_, err := store.Open(context.Background(), key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

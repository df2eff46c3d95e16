package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/uploads/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "7/1700000000000-abc.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/7/1700000000000-abc.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "7", "1700000000000-abc.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(context.Background(), "7/1700000000000-abc.png"))
	_, err = os.Stat(filepath.Join(dir, "7", "1700000000000-abc.png"))
	assert.True(t, os.IsNotExist(err))

	// second delete is a no-op
	assert.NoError(t, s.Delete(context.Background(), "7/1700000000000-abc.png"))
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../x", "a/../../x", "a//b", `a\b`, "."} {
		_, err := s.Put(context.Background(), key, "", strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestLocalStoreHonoursCancelledContext(t *testing.T) {
	s, err := NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Put(ctx, "1/a.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocalStorePath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/v1/proofs")
	require.NoError(t, err)
	_, err = s.Put(context.Background(), "7/a.png", "image/png", strings.NewReader("x"))
	require.NoError(t, err)

	p, err := s.Path("7/a.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "7", "a.png"), p)

	_, err = s.Path("7/missing.png")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = s.Path("7")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = s.Path("7/../8/a.png")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

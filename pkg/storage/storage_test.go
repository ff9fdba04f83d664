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

func TestLocalPutRemove(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	l, err := NewLocal(filepath.Join(dir, "uploads"), "/uploads/")
	require.NoError(t, err)

	require.NoError(t, l.Put(ctx, "gallery/a.jpg", strings.NewReader("data"), 4, "image/jpeg"))
	b, err := os.ReadFile(filepath.Join(dir, "uploads", "gallery", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(b))

	// overwrite
	require.NoError(t, l.Put(ctx, "gallery/a.jpg", strings.NewReader("new"), 3, "image/jpeg"))
	b, err = os.ReadFile(filepath.Join(dir, "uploads", "gallery", "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))

	assert.Equal(t, "/uploads/gallery/a.jpg", l.URL("gallery/a.jpg"))
	assert.Equal(t, "", l.URL(""))

	require.NoError(t, l.Remove(ctx, "gallery/a.jpg"))
	_, err = os.Stat(filepath.Join(dir, "uploads", "gallery", "a.jpg"))
	assert.True(t, os.IsNotExist(err))

	// removing twice is fine
	assert.NoError(t, l.Remove(ctx, "gallery/a.jpg"))
}

func TestLocalRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)
	for _, key := range []string{"", "/etc/passwd", "../x", "a/../../x", `a\b`} {
		assert.ErrorIs(t, l.Put(ctx, key, strings.NewReader("x"), 1, ""), ErrInvalidKey, key)
		assert.ErrorIs(t, l.Remove(ctx, key), ErrInvalidKey, key)
	}
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestS3URL(t *testing.T) {
	b, err := NewS3(context.Background(), S3Config{
		Bucket:    "vault",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "admin",
		SecretKey: "secret",
		PublicURL: "http://127.0.0.1:9000/vault/",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/vault/pfp/x.jpg", b.URL("pfp/x.jpg"))
}

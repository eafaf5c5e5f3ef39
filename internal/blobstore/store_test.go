package blobstore

import (
	"context"
	"testing"

	"github.com/JonMunkholm/batchingest/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

var _ core.BlobStore = (*Store)(nil)

func newMemStore(t *testing.T, publicBase, prefix string) *Store {
	t.Helper()
	s := New(memblob.OpenBucket(nil), publicBase, prefix)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutDelete(t *testing.T) {
	ctx := context.Background()
	s := newMemStore(t, "", "media/")

	require.NoError(t, s.Put(ctx, "e1/1-abc.jpg", []byte("jpeg"), "image/jpeg"))

	ok, err := s.Exists(ctx, "e1/1-abc.jpg")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.ReadAll(ctx, "e1/1-abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg"), data)

	attrs, err := s.bucket.Attributes(ctx, "media/e1/1-abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", attrs.ContentType)

	require.NoError(t, s.Delete(ctx, "e1/1-abc.jpg"))
	ok, err = s.Exists(ctx, "e1/1-abc.jpg")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_DeleteMissingKey(t *testing.T) {
	s := newMemStore(t, "", "")
	assert.NoError(t, s.Delete(context.Background(), "never/written.jpg"))
}

func TestStore_PublicURL(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		prefix string
		want   string
	}{
		{"cdn base", "https://cdn.example.com", "", "https://cdn.example.com/e1/k.jpg"},
		{"trailing slash trimmed", "https://cdn.example.com/", "media/", "https://cdn.example.com/media/e1/k.jpg"},
		{"no base", "", "media/", "media/e1/k.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newMemStore(t, tt.base, tt.prefix)
			assert.Equal(t, tt.want, s.PublicURL("e1/k.jpg"))
		})
	}
}

func TestOpen(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.Error(t, err)

	s, err := Open(context.Background(), Config{BucketURL: "mem://"})
	require.NoError(t, err)
	assert.NoError(t, s.Close())

	_, err = Open(context.Background(), Config{BucketURL: "nope://x"})
	assert.Error(t, err)
}

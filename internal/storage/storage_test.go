package storage

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/videotube/backend/internal/config"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey(PrefixAvatars, "Me.PNG")

	assert.True(t, strings.HasPrefix(key, "avatars/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.NotEqual(t, key, ObjectKey(PrefixAvatars, "Me.PNG"))

	assert.NotContains(t, ObjectKey(PrefixVideos, "noext"), ".")
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "http://cdn.local/bucket/videos/a.mp4", PublicURL("http://cdn.local/bucket/", "videos/a.mp4"))
	assert.Equal(t, "http://cdn.local/bucket/videos/a.mp4", PublicURL("http://cdn.local/bucket", "videos/a.mp4"))
}

func TestNew_SelectsBackend(t *testing.T) {
	base := config.Media{
		Endpoint:  "http://localhost:9000",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "media",
		Region:    "us-east-1",
	}

	base.Backend = "minio"
	store, err := New(base)
	require.NoError(t, err)
	assert.IsType(t, &MinioStore{}, store)

	base.Backend = "S3"
	store, err = New(base)
	require.NoError(t, err)
	assert.IsType(t, &S3Store{}, store)

	base.Backend = "ftp"
	_, err = New(base)
	assert.Error(t, err)
}

func TestTrimScheme(t *testing.T) {
	assert.Equal(t, "minio:9000", trimScheme("http://minio:9000"))
	assert.Equal(t, "s3.amazonaws.com", trimScheme("https://s3.amazonaws.com"))
	assert.Equal(t, "minio:9000", trimScheme("minio:9000"))
}

func TestPut_MemoryStore(t *testing.T) {
	store := NewMemory("http://cdn.local/media")

	obj, err := Put(context.Background(), store, PrefixThumbnails, &File{
		Name: "thumb.jpg",
		Size: 3,
		Body: strings.NewReader("abc"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(obj.Key, "thumbnails/"))
	assert.Equal(t, "http://cdn.local/media/"+obj.Key, obj.URL)
	assert.True(t, store.Has(obj.Key))

	require.NoError(t, store.Delete(context.Background(), obj.Key))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_FailUploads(t *testing.T) {
	store := NewMemory("")
	store.FailUploads(errors.New("disk full"))

	_, err := store.Upload(context.Background(), PrefixVideos, "a.mp4", strings.NewReader("x"), 1, "video/mp4")
	assert.EqualError(t, err, "disk full")
}

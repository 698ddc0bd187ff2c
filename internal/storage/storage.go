package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/videotube/backend/internal/config"
)

// Media folders inside the bucket.
const (
	PrefixAvatars    = "avatars"
	PrefixCovers     = "covers"
	PrefixVideos     = "videos"
	PrefixThumbnails = "thumbnails"
)

// Object identifies an uploaded asset.
type Object struct {
	Key string
	URL string
}

// File is an incoming upload not yet written to the store.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store is an object store for user-uploaded media.
type Store interface {
	Upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType string) (*Object, error)
	Delete(ctx context.Context, key string) error
	EnsureBucket(ctx context.Context) error
	Ping(ctx context.Context) error
}

// New returns the backend selected by cfg.Backend.
func New(cfg config.Media) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "minio", "":
		return NewMinio(cfg)
	case "s3":
		return NewS3(cfg)
	case "memory":
		return NewMemory(cfg.PublicURL), nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Backend)
	}
}

// Put uploads f under prefix.
func Put(ctx context.Context, s Store, prefix string, f *File) (*Object, error) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return s.Upload(ctx, prefix, f.Name, f.Body, f.Size, contentType)
}

// ObjectKey builds a collision-free key under prefix that keeps the
// original file extension.
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
}

// PublicURL joins the configured public base URL and key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

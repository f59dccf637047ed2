package blobstore

import (
	"context"
	"errors"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

// Store keeps named byte payloads in an object store.
type Store interface {
	// Put stores body under key and returns its public URL.
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// FileExtension returns the text after the last period of filename, or "" when there is none.
func FileExtension(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i == -1 {
		return ""
	}
	return filename[i+1:]
}

func withExtension(base, filename string) string {
	if ext := FileExtension(filename); ext != "" {
		return base + "." + ext
	}
	return base
}

func ContentsKey(id string) string {
	return id + "/contents.html"
}

func ThumbnailKey(id, filename string) string {
	return withExtension(id+"/thumbnail", filename)
}

func ImageKey(prefix, randomID, filename string) string {
	return withExtension(strings.Trim(prefix, "/")+"/"+randomID, filename)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// OrphanedBlobs is the blob.orphaned message body: keys whose owning document is gone
// but whose delete failed.
type OrphanedBlobs struct {
	Keys []string `json:"keys"`
}

package bucket

import (
	"context"
	"io"
	"strings"

	"github.com/lithammer/shortuuid/v4"
)

// Store is the object bucket consumed by the file services.
type Store interface {
	// CreateFile stores the bytes under a fresh unique id. An error returned
	// together with a non-empty ID means the bytes were stored and the caller
	// owns their removal.
	CreateFile(ctx context.Context, reader io.Reader, name string, size int64, contentType string) (StoredObject, error)
	// DeleteFile removes the object. Deleting an absent object is not an error.
	DeleteFile(ctx context.Context, id string) error
	// OpenFile streams the object contents. The caller must close the reader.
	OpenFile(ctx context.Context, id string) (io.ReadCloser, error)
	// URL returns the deterministic download URL for id.
	URL(id string) string
	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}

// NewObjectID returns a fresh bucket object identifier.
var NewObjectID = func() string {
	return shortuuid.New()
}

func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "upload"
	}
	return name
}

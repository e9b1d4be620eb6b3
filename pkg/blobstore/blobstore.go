// Package blobstore defines the interface boundary to the external
// blob/container collaborator that holds submitted files.
package blobstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrBlobNotFound indicates the referenced blob does not exist in the store.
var ErrBlobNotFound = errors.New("blob not found")

// Container is a folder-like destination for blobs. Handle is the opaque,
// store-owned identifier persisted on assignments and upload sessions.
type Container struct {
	Handle string
	Name   string
}

// Blob describes one stored object.
type Blob struct {
	Handle     string
	Name       string
	URL        string
	SizeBytes  int64
	ModifiedAt time.Time
}

// Store is the blob/container collaborator contract consumed by the upload
// orchestrator and the instructor-file paths.
type Store interface {
	// FindOrCreateContainer resolves a named container under parent, creating
	// it on first use. Repeated calls with the same arguments return the same
	// handle.
	FindOrCreateContainer(ctx context.Context, parent, name string) (Container, error)
	// CreateBlob stores an inline payload and returns the resulting blob.
	CreateBlob(ctx context.Context, container, name, mimeType string, reader io.Reader) (Blob, error)
	// SetShareable marks the blob link-shareable and returns the shareable URL.
	SetShareable(ctx context.Context, handle string) (string, error)
	// ListBlobs lists the blobs currently in a container.
	ListBlobs(ctx context.Context, container string) ([]Blob, error)
	// StatBlob resolves a single blob by handle, ErrBlobNotFound if absent.
	StatBlob(ctx context.Context, handle string) (Blob, error)
}
